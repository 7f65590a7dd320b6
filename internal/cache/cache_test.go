package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerline/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrationsWithDB(db, migrations))
	return NewStore(db)
}

func TestPutReadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s := newTestStore(t)

	scope := Scope{EntityID: "E1", Kind: "budgets"}
	payload := []byte(`[{"id":"b1","status":"draft"}]`)
	require.NoError(t, s.Put(ctx, scope, payload))

	got, ok, err := s.Read(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, got)

	// overwrite
	updated := []byte(`[{"id":"b1","status":"active"}]`)
	require.NoError(t, s.Put(ctx, scope, updated))
	got, ok, err = s.Read(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, updated, got)
}

func TestReadMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.Read(ctx, Scope{EntityID: "E1", Kind: "budgets"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInvalidateScopePrecision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	budgetsE1 := Scope{EntityID: "E1", Kind: "budgets"}
	journalE1 := Scope{EntityID: "E1", Kind: "journal-entries"}
	budgetsE2 := Scope{EntityID: "E2", Kind: "budgets"}
	for _, sc := range []Scope{budgetsE1, journalE1, budgetsE2} {
		require.NoError(t, s.Put(ctx, sc, []byte(sc.Key())))
	}

	require.NoError(t, s.Invalidate(ctx, budgetsE1))

	_, ok, err := s.Read(ctx, budgetsE1)
	require.NoError(t, err)
	require.False(t, ok, "invalidated scope must be gone")

	for _, sc := range []Scope{journalE1, budgetsE2} {
		_, ok, err := s.Read(ctx, sc)
		require.NoError(t, err)
		require.True(t, ok, "scope %s must be untouched", sc.Key())
	}
}

func TestInvalidateEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	budgetsE1 := Scope{EntityID: "E1", Kind: "budgets"}
	journalE1 := Scope{EntityID: "E1", Kind: "journal-entries"}
	budgetsE2 := Scope{EntityID: "E2", Kind: "budgets"}
	for _, sc := range []Scope{budgetsE1, journalE1, budgetsE2} {
		require.NoError(t, s.Put(ctx, sc, []byte("x")))
	}

	require.NoError(t, s.InvalidateEntity(ctx, "E1"))

	for _, sc := range []Scope{budgetsE1, journalE1} {
		_, ok, err := s.Read(ctx, sc)
		require.NoError(t, err)
		require.False(t, ok)
	}
	_, ok, err := s.Read(ctx, budgetsE2)
	require.NoError(t, err)
	require.True(t, ok)
}
