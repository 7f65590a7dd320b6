package ledger

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerline/internal/cache"
	"github.com/jask/ledgerline/internal/database"
	"github.com/jask/ledgerline/internal/lifecycle"
)

type fakeGetter struct {
	responses map[string]any
	calls     []string
}

func (f *fakeGetter) Get(ctx context.Context, path string, out any) error {
	f.calls = append(f.calls, path)
	data, err := json.Marshal(f.responses[path])
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return cache.NewStore(db)
}

func TestBudgetsCacheMissThenHit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeGetter{responses: map[string]any{
		"/api/entities/E1/budgets": []Budget{
			{ID: "b1", EntityID: "E1", Name: "Ops FY27", Status: lifecycle.StatusDraft},
		},
	}}
	l := &Loader{API: api, Cache: newTestCache(t)}

	budgets, err := l.Budgets(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, "Ops FY27", budgets[0].Name)
	require.Len(t, api.calls, 1)

	// second load is served from cache
	budgets, err = l.Budgets(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Len(t, api.calls, 1, "warm scope must not hit the backend")
}

func TestBudgetsRefetchAfterInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestCache(t)
	api := &fakeGetter{responses: map[string]any{
		"/api/entities/E1/budgets": []Budget{{ID: "b1", EntityID: "E1", Status: lifecycle.StatusDraft}},
	}}
	l := &Loader{API: api, Cache: store}

	_, err := l.Budgets(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, api.calls, 1)

	require.NoError(t, store.Invalidate(ctx, cache.Scope{EntityID: "E1", Kind: "budgets"}))
	api.responses["/api/entities/E1/budgets"] = []Budget{{ID: "b1", EntityID: "E1", Status: lifecycle.StatusActive}}

	budgets, err := l.Budgets(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, api.calls, 2)
	require.Equal(t, lifecycle.StatusActive, budgets[0].Status)
}

func TestLoaderWithoutCache(t *testing.T) {
	t.Parallel()

	api := &fakeGetter{responses: map[string]any{
		"/api/entities/E1/journal-entries": []JournalEntry{{ID: "j1", EntityID: "E1", Status: lifecycle.StatusPosted}},
	}}
	l := &Loader{API: api}

	entries, err := l.JournalEntries(context.Background(), "E1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, lifecycle.StatusPosted, entries[0].Status)
}

func TestClientsAndEntities(t *testing.T) {
	t.Parallel()

	api := &fakeGetter{responses: map[string]any{
		"/api/clients":             []map[string]string{{"id": "c1", "name": "Acme Group"}},
		"/api/clients/c1/entities": []map[string]string{{"id": "e1", "name": "Acme Pty Ltd", "client_id": "c1"}},
	}}
	l := &Loader{API: api}

	clients, err := l.Clients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, "Acme Group", clients[0].Name)

	entities, err := l.Entities(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, "c1", entities[0].ClientID)
}

func TestBudgetResourceProjection(t *testing.T) {
	t.Parallel()

	b := Budget{ID: "b9", EntityID: "E3", Status: lifecycle.StatusApproved}
	res := b.Resource()
	require.Equal(t, "b9", res.ID)
	require.Equal(t, "E3", res.EntityID)
	require.Equal(t, lifecycle.StatusApproved, res.Status)
}
