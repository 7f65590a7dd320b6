// Package ledger holds the scoped resources the dashboard works with and the
// loader that fetches them through the local cache.
package ledger

import (
	"github.com/jask/ledgerline/internal/lifecycle"
	"github.com/jask/ledgerline/internal/routing"
)

// Budget is a spending plan owned by one entity.
type Budget struct {
	ID          string           `json:"id"`
	EntityID    string           `json:"entity_id"`
	Name        string           `json:"name"`
	PeriodStart string           `json:"period_start"`
	AmountCents int64            `json:"amount_cents"`
	SpentCents  int64            `json:"spent_cents"`
	Status      lifecycle.Status `json:"status"`
}

// Resource projects the budget onto the mutator's view of it.
func (b Budget) Resource() lifecycle.Resource {
	return lifecycle.Resource{ID: b.ID, EntityID: b.EntityID, Kind: routing.KindBudgets, Status: b.Status}
}

// JournalEntry is a double-entry record owned by one entity. Balancing is
// validated server-side; this layer only reads status and requests posting.
type JournalEntry struct {
	ID       string           `json:"id"`
	EntityID string           `json:"entity_id"`
	Date     string           `json:"date"`
	Memo     string           `json:"memo"`
	Status   lifecycle.Status `json:"status"`
}

func (j JournalEntry) Resource() lifecycle.Resource {
	return lifecycle.Resource{ID: j.ID, EntityID: j.EntityID, Kind: routing.KindJournalEntries, Status: j.Status}
}
