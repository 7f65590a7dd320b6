// Package cache stores fetched resource lists keyed by {entity, kind}. The
// scope is the invalidation unit: a mutation on one entity's budgets clears
// that scope and nothing else.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/ledgerline/internal/database"
)

// Scope identifies one cached collection.
type Scope struct {
	EntityID string
	Kind     string
}

// Key renders the scope as its storage key.
func (s Scope) Key() string { return s.EntityID + "/" + s.Kind }

// Store persists cached payloads in the local sqlite database so a restarted
// session can render instantly while a refetch runs.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Put stores payload under scope, replacing any previous value.
func (s *Store) Put(ctx context.Context, scope Scope, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO resource_cache(scope_key, entity_id, kind, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(scope_key) DO UPDATE SET
	 payload=excluded.payload,
	 fetched_at=excluded.fetched_at;
	`, scope.Key(), scope.EntityID, scope.Kind, payload, database.Now())
	if err != nil {
		return fmt.Errorf("cache put %s: %w", scope.Key(), err)
	}
	return nil
}

// Read returns the cached payload for scope, or ok=false on a miss.
func (s *Store) Read(ctx context.Context, scope Scope) (payload []byte, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM resource_cache WHERE scope_key = ?`, scope.Key())
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache read %s: %w", scope.Key(), err)
	}
	return payload, true, nil
}

// Invalidate removes exactly the entry for scope. Other scopes, including
// other kinds under the same entity, are untouched.
func (s *Store) Invalidate(ctx context.Context, scope Scope) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resource_cache WHERE scope_key = ?`, scope.Key())
	if err != nil {
		return fmt.Errorf("cache invalidate %s: %w", scope.Key(), err)
	}
	return nil
}

// InvalidateEntity removes every cached kind for one entity. Used when the
// entity itself disappears from the selection.
func (s *Store) InvalidateEntity(ctx context.Context, entityID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resource_cache WHERE entity_id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("cache invalidate entity %s: %w", entityID, err)
	}
	return nil
}
