// Package notify carries user-facing notices from the core to whatever
// surface displays them. Fire-and-forget; the core never reads a result back.
package notify

import "sync"

// Kind classifies a notice.
type Kind string

const (
	KindInfo  Kind = "info"
	KindError Kind = "error"
)

// Notice is a single user-facing message.
type Notice struct {
	Kind    Kind
	Title   string
	Message string
}

// Notifier is the notification primitive consumed by the core.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, title, message string)

func (f Func) Notify(kind Kind, title, message string) { f(kind, title, message) }

// Queue collects notices until a display loop drains them. Safe for use from
// the async commands that run outside the UI update loop.
type Queue struct {
	mu      sync.Mutex
	notices []Notice
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Notify(kind Kind, title, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, Notice{Kind: kind, Title: title, Message: message})
}

// Drain returns all pending notices in arrival order and clears the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}
