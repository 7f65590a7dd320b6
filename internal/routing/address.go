// Package routing derives canonical addresses for entity-scoped resources and
// decides, once per route entry, whether a visit proceeds or is redirected.
package routing

import (
	"errors"
	"fmt"

	"github.com/jask/ledgerline/internal/selection"
)

// Kind names a scoped resource collection. The value doubles as the path
// segment for that collection.
type Kind string

const (
	KindBudgets        Kind = "budgets"
	KindJournalEntries Kind = "journal-entries"
)

// Action is an optional operation suffix on a resource address.
type Action string

const (
	ActionNone   Action = ""
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Address identifies a scoped resource and optional action. It is a value
// type: two addresses are equal iff all components are equal. Only Resolve
// constructs addresses; no other code path synthesizes these paths.
type Address struct {
	ClientID   string
	EntityID   string
	Kind       Kind
	ResourceID string
	Action     Action
}

// Path renders the canonical hierarchical form:
// /clients/{c}/entities/{e}/{kind}[/{id}][/{action}]
func (a Address) Path() string {
	p := fmt.Sprintf("/clients/%s/entities/%s/%s", a.ClientID, a.EntityID, a.Kind)
	if a.ResourceID != "" {
		p += "/" + a.ResourceID
		if a.Action != ActionNone {
			p += "/" + string(a.Action)
		}
	}
	return p
}

// IsZero reports whether the address has been resolved at all.
func (a Address) IsZero() bool { return a == Address{} }

// Reason says why no address could be derived from the selection.
type Reason string

const (
	// ReasonLoading: the selection lists are still being fetched; the caller
	// should hold rather than redirect.
	ReasonLoading Reason = "loading"
	// ReasonSelectionRequired: entities exist but none is selected.
	ReasonSelectionRequired Reason = "selection_required"
	// ReasonNoEntities: the current client has no entities at all.
	ReasonNoEntities Reason = "no_entities"
)

// UnavailableError is the expected, user-facing "no address yet" outcome.
type UnavailableError struct {
	Reason Reason
}

func (e *UnavailableError) Error() string {
	return "routing: address unavailable: " + string(e.Reason)
}

// ErrActionWithoutID reports an action requested without a resource id. This
// is a caller contract violation, rejected rather than silently ignored.
var ErrActionWithoutID = errors.New("routing: action requires a resource id")

// Resolve maps the selection plus a resource kind/id/action onto a canonical
// Address. It is pure: identical inputs always produce identical addresses.
func Resolve(st selection.State, kind Kind, resourceID string, action Action) (Address, error) {
	if action != ActionNone && resourceID == "" {
		return Address{}, ErrActionWithoutID
	}
	if st.Loading {
		return Address{}, &UnavailableError{Reason: ReasonLoading}
	}
	if st.CurrentEntity == nil {
		if len(st.Entities) > 0 {
			return Address{}, &UnavailableError{Reason: ReasonSelectionRequired}
		}
		return Address{}, &UnavailableError{Reason: ReasonNoEntities}
	}
	return Address{
		ClientID:   st.CurrentEntity.ClientID,
		EntityID:   st.CurrentEntity.ID,
		Kind:       kind,
		ResourceID: resourceID,
		Action:     action,
	}, nil
}
