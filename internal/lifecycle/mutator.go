package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jask/ledgerline/internal/api"
	"github.com/jask/ledgerline/internal/cache"
	"github.com/jask/ledgerline/internal/notify"
	"github.com/jask/ledgerline/internal/routing"
)

// Requester is the request primitive the mutator consumes.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (api.Response, error)
}

// Invalidator clears one cache scope after a confirmed mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, scope cache.Scope) error
}

// Event is a lifecycle outcome surfaced to the UI.
type Event interface{ lifecycleEvent() }

// TransitionSucceeded fires after the server confirms a mutation and the
// affected cache scope has been invalidated.
type TransitionSucceeded struct {
	Resource  Resource
	NewStatus Status
	Deleted   bool
}

// TransitionRejected fires when a mutation is refused, locally or remotely.
type TransitionRejected struct {
	Resource Resource
	Target   Status
	Reason   string
}

func (TransitionSucceeded) lifecycleEvent() {}
func (TransitionRejected) lifecycleEvent()  {}

// Mutator executes status transitions gated by the transition tables. One
// mutation per resource may be in flight at a time; the table check happens
// before any network call, and the cache scope {entity, kind} is invalidated
// only after the server confirms success.
type Mutator struct {
	requests Requester
	cache    Invalidator
	notifier notify.Notifier

	mu       sync.Mutex
	inflight map[string]struct{}
	subs     []func(Event)
}

func NewMutator(requests Requester, invalidator Invalidator, notifier notify.Notifier) *Mutator {
	return &Mutator{
		requests: requests,
		cache:    invalidator,
		notifier: notifier,
		inflight: make(map[string]struct{}),
	}
}

// Subscribe registers an observer. Observers may be called from whatever
// goroutine runs the mutation and must do their own synchronization.
func (m *Mutator) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Transition requests res → target. Exactly one notification fires per call:
// info on success, error otherwise.
func (m *Mutator) Transition(ctx context.Context, res Resource, target Status) error {
	table, ok := TableFor(res.Kind)
	if !ok {
		m.notify(notify.KindError, "Update failed", "unknown resource kind "+string(res.Kind))
		return ErrUnknownKind
	}
	if !table.CanTransition(res.Status, target) {
		err := &InvalidTransitionError{From: res.Status, To: target}
		m.emit(TransitionRejected{Resource: res, Target: target, Reason: err.Error()})
		m.notify(notify.KindError, "Not allowed", fmt.Sprintf("A %s %s cannot become %s.", res.Status, kindLabel(res.Kind), target))
		return err
	}

	if !m.begin(res.ID) {
		m.emit(TransitionRejected{Resource: res, Target: target, Reason: ErrMutationInProgress.Error()})
		m.notify(notify.KindInfo, "Please wait", "The previous change to this "+kindLabel(res.Kind)+" is still being applied.")
		return ErrMutationInProgress
	}
	defer m.end(res.ID)

	_, err := m.requests.Do(ctx, http.MethodPatch, resourcePath(res)+"/status", map[string]Status{"status": target})
	if err != nil {
		m.emit(TransitionRejected{Resource: res, Target: target, Reason: err.Error()})
		m.notify(notify.KindError, "Update failed", err.Error())
		return err
	}

	if err := m.invalidate(ctx, res); err != nil {
		// server applied the change; the local cache just could not be cleared
		m.emit(TransitionSucceeded{Resource: res, NewStatus: target})
		m.notify(notify.KindError, "Cache refresh failed", err.Error())
		return err
	}
	m.emit(TransitionSucceeded{Resource: res, NewStatus: target})
	m.notify(notify.KindInfo, "Updated", fmt.Sprintf("%s is now %s.", titleLabel(res.Kind), target))
	return nil
}

// Delete requests deletion of res; only deletable statuses pass the table.
func (m *Mutator) Delete(ctx context.Context, res Resource) error {
	table, ok := TableFor(res.Kind)
	if !ok {
		m.notify(notify.KindError, "Delete failed", "unknown resource kind "+string(res.Kind))
		return ErrUnknownKind
	}
	if !table.CanDelete(res.Status) {
		err := &InvalidTransitionError{From: res.Status, Delete: true}
		m.emit(TransitionRejected{Resource: res, Reason: err.Error()})
		m.notify(notify.KindError, "Not allowed", fmt.Sprintf("A %s %s cannot be deleted.", res.Status, kindLabel(res.Kind)))
		return err
	}

	if !m.begin(res.ID) {
		m.emit(TransitionRejected{Resource: res, Reason: ErrMutationInProgress.Error()})
		m.notify(notify.KindInfo, "Please wait", "The previous change to this "+kindLabel(res.Kind)+" is still being applied.")
		return ErrMutationInProgress
	}
	defer m.end(res.ID)

	_, err := m.requests.Do(ctx, http.MethodDelete, resourcePath(res), nil)
	if err != nil {
		m.emit(TransitionRejected{Resource: res, Reason: err.Error()})
		m.notify(notify.KindError, "Delete failed", err.Error())
		return err
	}

	if err := m.invalidate(ctx, res); err != nil {
		m.emit(TransitionSucceeded{Resource: res, Deleted: true})
		m.notify(notify.KindError, "Cache refresh failed", err.Error())
		return err
	}
	m.emit(TransitionSucceeded{Resource: res, Deleted: true})
	m.notify(notify.KindInfo, "Deleted", titleLabel(res.Kind)+" deleted.")
	return nil
}

func (m *Mutator) invalidate(ctx context.Context, res Resource) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Invalidate(ctx, cache.Scope{EntityID: res.EntityID, Kind: string(res.Kind)})
}

func (m *Mutator) begin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[id]; busy {
		return false
	}
	m.inflight[id] = struct{}{}
	return true
}

func (m *Mutator) end(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, id)
}

func (m *Mutator) emit(ev Event) {
	m.mu.Lock()
	subs := m.subs
	m.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (m *Mutator) notify(kind notify.Kind, title, message string) {
	if m.notifier != nil {
		m.notifier.Notify(kind, title, message)
	}
}

func resourcePath(res Resource) string {
	return fmt.Sprintf("/api/entities/%s/%s/%s", res.EntityID, res.Kind, res.ID)
}

func kindLabel(kind routing.Kind) string {
	switch kind {
	case routing.KindBudgets:
		return "budget"
	case routing.KindJournalEntries:
		return "journal entry"
	}
	return string(kind)
}

func titleLabel(kind routing.Kind) string {
	switch kind {
	case routing.KindBudgets:
		return "Budget"
	case routing.KindJournalEntries:
		return "Journal entry"
	}
	return string(kind)
}
