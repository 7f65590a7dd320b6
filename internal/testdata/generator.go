// Package testdata generates deterministic fixtures for tests and the demo
// mode. IDs are derived from names so repeated runs produce the same graph.
package testdata

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/jask/ledgerline/internal/ledger"
	"github.com/jask/ledgerline/internal/lifecycle"
	"github.com/jask/ledgerline/internal/selection"
)

// Fixture is a fully linked client/entity/resource graph.
type Fixture struct {
	Clients  []selection.Client
	Entities []selection.Entity
	Budgets  map[string][]ledger.Budget       // keyed by entity ID
	Journal  map[string][]ledger.JournalEntry // keyed by entity ID
}

func id(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+name)).String()
}

// Generate builds a fixture with the given seed. The graph shape is fixed;
// only amounts and dates vary with the seed.
func Generate(seed int64) Fixture {
	rng := rand.New(rand.NewSource(seed))

	f := Fixture{
		Budgets: map[string][]ledger.Budget{},
		Journal: map[string][]ledger.JournalEntry{},
	}

	type clientSpec struct {
		Name     string
		Code     string
		Entities []string
	}
	specs := []clientSpec{
		{Name: "Harbour Consulting", Code: "HARB", Entities: []string{"Harbour Consulting Pty Ltd", "Harbour Trust"}},
		{Name: "Meridian Retail", Code: "MERI", Entities: []string{"Meridian Retail Ltd"}},
		{Name: "Still Point Studio", Code: "STIL", Entities: nil},
	}

	budgetNames := []string{"Marketing", "Payroll", "Operations", "Travel", "Software"}
	memos := []string{"Monthly rent", "Contractor invoice", "Bank fees", "Client payment", "Supplies"}
	statuses := []lifecycle.Status{lifecycle.StatusDraft, lifecycle.StatusActive, lifecycle.StatusApproved, lifecycle.StatusArchived}

	for _, cs := range specs {
		c := selection.Client{ID: id("client", cs.Name), Name: cs.Name, Code: cs.Code}
		f.Clients = append(f.Clients, c)

		for _, en := range cs.Entities {
			e := selection.Entity{ID: id("entity", en), Name: en, ClientID: c.ID}
			f.Entities = append(f.Entities, e)

			for i, bn := range budgetNames {
				amount := int64(rng.Intn(900)+100) * 1000
				f.Budgets[e.ID] = append(f.Budgets[e.ID], ledger.Budget{
					ID:          id("budget", en+"/"+bn),
					EntityID:    e.ID,
					Name:        bn,
					PeriodStart: fmt.Sprintf("2026-%02d-01", i+1),
					AmountCents: amount,
					SpentCents:  int64(rng.Int63n(amount)),
					Status:      statuses[i%len(statuses)],
				})
			}

			for i, memo := range memos {
				status := lifecycle.StatusPosted
				if i%3 == 0 {
					status = lifecycle.StatusDraft
				}
				f.Journal[e.ID] = append(f.Journal[e.ID], ledger.JournalEntry{
					ID:       id("journal", fmt.Sprintf("%s/%d", en, i)),
					EntityID: e.ID,
					Date:     fmt.Sprintf("2026-08-%02d", rng.Intn(28)+1),
					Memo:     memo,
					Status:   status,
				})
			}
		}
	}
	return f
}

// EntitiesFor returns the entities belonging to one client.
func (f Fixture) EntitiesFor(clientID string) []selection.Entity {
	var out []selection.Entity
	for _, e := range f.Entities {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out
}
