// Package lifecycle gates status transitions of entity-scoped resources. Every
// mutation entry point consults the same transition table, so status checks
// live in one place instead of per caller.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/jask/ledgerline/internal/routing"
)

// Status is a resource lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusApproved Status = "approved"
	StatusArchived Status = "archived"
	StatusPosted   Status = "posted"
)

// Resource is the slice of a scoped record the mutator needs: identity,
// owning entity, kind, and current status. The server owns everything else.
type Resource struct {
	ID       string
	EntityID string
	Kind     routing.Kind
	Status   Status
}

// Table is the transition policy for one resource kind.
type Table struct {
	Next      map[Status][]Status
	Deletable map[Status]bool
}

// CanTransition reports whether from → to is allowed.
func (t Table) CanTransition(from, to Status) bool {
	for _, s := range t.Next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanDelete reports whether a resource in state from may be deleted.
func (t Table) CanDelete(from Status) bool { return t.Deletable[from] }

// AllowedNext returns the allowed targets from a status, nil when terminal.
func (t Table) AllowedNext(from Status) []Status { return t.Next[from] }

// budgetTable: DRAFT → ACTIVE → APPROVED, ARCHIVED reachable from any
// non-archived state, only DRAFT deletable.
var budgetTable = Table{
	Next: map[Status][]Status{
		StatusDraft:    {StatusActive, StatusArchived},
		StatusActive:   {StatusApproved, StatusArchived},
		StatusApproved: {StatusArchived},
		StatusArchived: nil,
	},
	Deletable: map[Status]bool{StatusDraft: true},
}

// journalTable: a draft entry posts once and is then immutable here; the
// balancing rules that gate posting live server-side.
var journalTable = Table{
	Next: map[Status][]Status{
		StatusDraft:  {StatusPosted},
		StatusPosted: nil,
	},
	Deletable: map[Status]bool{StatusDraft: true},
}

// TableFor returns the transition table governing a resource kind.
func TableFor(kind routing.Kind) (Table, bool) {
	switch kind {
	case routing.KindBudgets:
		return budgetTable, true
	case routing.KindJournalEntries:
		return journalTable, true
	}
	return Table{}, false
}

// InvalidTransitionError reports a transition the table forbids. Expected and
// user-facing; the UI disables these actions up front, this check is
// defense-in-depth.
type InvalidTransitionError struct {
	From, To Status
	Delete   bool
}

func (e *InvalidTransitionError) Error() string {
	if e.Delete {
		return fmt.Sprintf("lifecycle: cannot delete a %s resource", e.From)
	}
	return fmt.Sprintf("lifecycle: cannot move %s to %s", e.From, e.To)
}

// ErrMutationInProgress rejects a second transition for a resource whose
// previous one has not completed. Duplicates are dropped, never queued.
var ErrMutationInProgress = errors.New("lifecycle: a mutation is already in flight for this resource")

// ErrUnknownKind reports a resource kind without a transition table.
var ErrUnknownKind = errors.New("lifecycle: no transition table for resource kind")
