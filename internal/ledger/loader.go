package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jask/ledgerline/internal/cache"
	"github.com/jask/ledgerline/internal/routing"
	"github.com/jask/ledgerline/internal/selection"
)

// Getter is the read side of the request primitive.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Loader fetches selection lists and scoped resources. Resource lists go
// through the cache: a warm scope renders without a round trip, and a scope
// the mutator invalidated falls through to the backend.
type Loader struct {
	API   Getter
	Cache *cache.Store
}

// Clients returns all clients visible to the session.
func (l *Loader) Clients(ctx context.Context) ([]selection.Client, error) {
	var out []selection.Client
	if err := l.API.Get(ctx, "/api/clients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entities returns the entities under one client.
func (l *Loader) Entities(ctx context.Context, clientID string) ([]selection.Entity, error) {
	var out []selection.Entity
	if err := l.API.Get(ctx, "/api/clients/"+clientID+"/entities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Budgets returns the budgets for one entity, cache first.
func (l *Loader) Budgets(ctx context.Context, entityID string) ([]Budget, error) {
	var out []Budget
	if err := l.scopedList(ctx, entityID, routing.KindBudgets, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// JournalEntries returns the journal entries for one entity, cache first.
func (l *Loader) JournalEntries(ctx context.Context, entityID string) ([]JournalEntry, error) {
	var out []JournalEntry
	if err := l.scopedList(ctx, entityID, routing.KindJournalEntries, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DropEntity clears every cached list for an entity that vanished from the
// current client's entity set.
func (l *Loader) DropEntity(ctx context.Context, entityID string) error {
	if l.Cache == nil {
		return nil
	}
	return l.Cache.InvalidateEntity(ctx, entityID)
}

func (l *Loader) scopedList(ctx context.Context, entityID string, kind routing.Kind, out any) error {
	scope := cache.Scope{EntityID: entityID, Kind: string(kind)}

	if l.Cache != nil {
		payload, ok, err := l.Cache.Read(ctx, scope)
		if err == nil && ok {
			if err := json.Unmarshal(payload, out); err == nil {
				return nil
			}
			// undecodable cache entry: drop it and refetch
			_ = l.Cache.Invalidate(ctx, scope)
		}
	}

	path := fmt.Sprintf("/api/entities/%s/%s", entityID, kind)
	if err := l.API.Get(ctx, path, out); err != nil {
		return err
	}

	if l.Cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			_ = l.Cache.Put(ctx, scope, payload)
		}
	}
	return nil
}
