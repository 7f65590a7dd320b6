package routing

import (
	"errors"

	"github.com/jask/ledgerline/internal/notify"
	"github.com/jask/ledgerline/internal/selection"
)

// Route is what a protected view asks for when it is entered.
type Route struct {
	Kind       Kind
	ResourceID string
	Action     Action
}

// DecisionState is the terminal state of one guard evaluation. Hold is the
// only non-terminal outcome: the visit is re-evaluated when the selection
// finishes loading.
type DecisionState int

const (
	// Hold: selection still loading; stay put, no prompt, no redirect.
	Hold DecisionState = iota
	// RedirectPrompt: an entity must be selected first; go home.
	RedirectPrompt
	// RedirectNoEntity: the client has no entities; go home.
	RedirectNoEntity
	// RedirectResolved: forward to the resolved address.
	RedirectResolved
)

func (s DecisionState) String() string {
	switch s {
	case Hold:
		return "hold"
	case RedirectPrompt:
		return "redirect_prompt"
	case RedirectNoEntity:
		return "redirect_no_entity"
	case RedirectResolved:
		return "redirect_resolved"
	}
	return "unknown"
}

// Decision is the outcome of one route entry.
type Decision struct {
	State DecisionState
	// Target is set only for RedirectResolved.
	Target Address
	// Navigate is false when the resolved target already matches the current
	// address, making the redirect a no-op. Redirects replace history rather
	// than push, so back-navigation cannot loop through the guard.
	Navigate bool
}

// Guard evaluates protected route entries against the current selection.
type Guard struct {
	Notifier notify.Notifier
}

// Enter runs the guard for one visit. current is the address the UI is
// already showing (zero when none). Exactly one decision comes back; prompts
// emit their notification here so every redirect carries a visible reason.
func (g Guard) Enter(st selection.State, route Route, current Address) Decision {
	addr, err := Resolve(st, route.Kind, route.ResourceID, route.Action)
	if err != nil {
		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			switch unavailable.Reason {
			case ReasonLoading:
				return Decision{State: Hold}
			case ReasonSelectionRequired:
				g.notify(notify.KindInfo, "Select an entity", "Select an entity to continue.")
				return Decision{State: RedirectPrompt, Navigate: true}
			case ReasonNoEntities:
				g.notify(notify.KindInfo, "No entities", "This client has no entities yet; create one first.")
				return Decision{State: RedirectNoEntity, Navigate: true}
			}
		}
		// contract violation (action without id): treat as a prompt-free
		// redirect home; the caller's bug is reported, not swallowed
		g.notify(notify.KindError, "Navigation failed", err.Error())
		return Decision{State: RedirectPrompt, Navigate: true}
	}

	return Decision{State: RedirectResolved, Target: addr, Navigate: addr != current}
}

func (g Guard) notify(kind notify.Kind, title, message string) {
	if g.Notifier != nil {
		g.Notifier.Notify(kind, title, message)
	}
}
