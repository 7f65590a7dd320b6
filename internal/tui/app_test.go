package tui

import (
	"context"
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerline/internal/config"
	"github.com/jask/ledgerline/internal/insight"
	"github.com/jask/ledgerline/internal/ledger"
	"github.com/jask/ledgerline/internal/notify"
	"github.com/jask/ledgerline/internal/routing"
	"github.com/jask/ledgerline/internal/selection"
	"github.com/jask/ledgerline/internal/testdata"
)

type fakeGetter struct {
	responses map[string]any
	calls     []string
}

func (f *fakeGetter) Get(ctx context.Context, path string, out any) error {
	f.calls = append(f.calls, path)
	payload, err := json.Marshal(f.responses[path])
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

func newTestApp(getter *fakeGetter) *App {
	notices := notify.NewQueue()
	return New(context.Background(), config.Config{}, Deps{
		Selection: selection.NewStore(),
		Loader:    &ledger.Loader{API: getter},
		Insight:   insight.NewHeuristicProvider(),
		Notices:   notices,
	}, nil)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEnterBudgetsWithoutEntityRedirects(t *testing.T) {
	t.Parallel()

	app := newTestApp(&fakeGetter{responses: map[string]any{}})
	app.selection.ApplyClients([]selection.Client{{ID: "C1", Name: "Harbour"}})
	app.selection.SetCurrentClient(selection.Client{ID: "C1", Name: "Harbour"})
	app.selection.ApplyEntities("C1", []selection.Entity{{ID: "E1", Name: "Harbour Pty", ClientID: "C1"}})
	app.selection.ClearCurrentEntity()

	_, cmd := app.Update(key("b"))
	require.Nil(t, cmd)
	require.Equal(t, viewDashboard, app.state)
	require.True(t, app.currentAddr.IsZero())
	require.Equal(t, "Select an entity to continue.", app.status)
	require.Equal(t, modalEntityPicker, app.modal)
}

func TestEnterBudgetsNoEntitiesRedirectsWithoutPicker(t *testing.T) {
	t.Parallel()

	app := newTestApp(&fakeGetter{responses: map[string]any{}})
	app.selection.ApplyClients([]selection.Client{{ID: "C1", Name: "Still Point"}})
	app.selection.SetCurrentClient(selection.Client{ID: "C1", Name: "Still Point"})
	app.selection.ApplyEntities("C1", nil)

	_, cmd := app.Update(key("b"))
	require.Nil(t, cmd)
	require.Equal(t, viewDashboard, app.state)
	require.Equal(t, modalNone, app.modal)
	require.Equal(t, "This client has no entities yet; create one first.", app.status)
}

func TestHeldRouteResolvesWhenEntitiesArrive(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{responses: map[string]any{
		"/api/entities/E1/budgets": []ledger.Budget{},
	}}
	app := newTestApp(getter)
	app.selection.ApplyClients([]selection.Client{{ID: "C1", Name: "Harbour"}})
	app.selection.SetCurrentClient(selection.Client{ID: "C1", Name: "Harbour"})
	// entity fetch still in flight: the visit must hold, not redirect

	_, cmd := app.Update(key("b"))
	require.Nil(t, cmd)
	require.NotNil(t, app.pendingRoute)
	require.Empty(t, app.status)

	_, cmd = app.Update(entitiesMsg{clientID: "C1", list: []selection.Entity{{ID: "E1", Name: "Harbour Pty", ClientID: "C1"}}})
	require.Nil(t, app.pendingRoute)
	require.Equal(t, viewBudgets, app.state)
	require.Equal(t, routing.KindBudgets, app.currentAddr.Kind)
	require.Equal(t, "E1", app.currentAddr.EntityID)
	require.NotNil(t, cmd)
}

func TestStaleEntitiesDiscarded(t *testing.T) {
	t.Parallel()

	app := newTestApp(&fakeGetter{responses: map[string]any{}})
	app.selection.ApplyClients([]selection.Client{{ID: "C1"}, {ID: "C2"}})
	app.selection.SetCurrentClient(selection.Client{ID: "C1"})
	app.selection.SetCurrentClient(selection.Client{ID: "C2"})

	_, _ = app.Update(entitiesMsg{clientID: "C1", list: []selection.Entity{{ID: "E1", ClientID: "C1"}}})
	require.Nil(t, app.selection.State().CurrentEntity)
	require.True(t, app.selection.State().Loading)
}

func TestFullFlowFromGeneratedFixture(t *testing.T) {
	t.Parallel()

	f := testdata.Generate(42)
	client := f.Clients[0]
	entity := f.EntitiesFor(client.ID)[0]

	getter := &fakeGetter{responses: map[string]any{
		"/api/clients": f.Clients,
		"/api/clients/" + client.ID + "/entities":         f.EntitiesFor(client.ID),
		"/api/entities/" + entity.ID + "/budgets":         f.Budgets[entity.ID],
		"/api/entities/" + entity.ID + "/journal-entries": f.Journal[entity.ID],
	}}
	app := newTestApp(getter)

	// drive the update loop by hand: run each returned command and feed its
	// message back in
	msg := app.Init()()
	_, cmd := app.Update(msg)
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	require.Nil(t, cmd)

	st := app.selection.State()
	require.NotNil(t, st.CurrentClient)
	require.Equal(t, client.ID, st.CurrentClient.ID)
	require.NotNil(t, st.CurrentEntity)
	require.Equal(t, entity.ID, st.CurrentEntity.ID)
	require.False(t, st.Loading)

	_, cmd = app.Update(key("b"))
	require.NotNil(t, cmd)
	_, _ = app.Update(cmd())
	require.Equal(t, viewBudgets, app.state)
	require.Len(t, app.budgets, len(f.Budgets[entity.ID]))
	require.Equal(t, "/clients/"+client.ID+"/entities/"+entity.ID+"/budgets", app.currentAddr.Path())
}

func TestRepeatedEntryIsIdempotent(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{responses: map[string]any{
		"/api/entities/E1/budgets": []ledger.Budget{},
	}}
	app := newTestApp(getter)
	app.selection.ApplyClients([]selection.Client{{ID: "C1", Name: "Harbour"}})
	app.selection.SetCurrentClient(selection.Client{ID: "C1", Name: "Harbour"})
	_, _ = app.Update(entitiesMsg{clientID: "C1", list: []selection.Entity{{ID: "E1", Name: "Harbour Pty", ClientID: "C1"}}})

	_, cmd := app.Update(key("b"))
	require.NotNil(t, cmd)
	first := app.currentAddr

	_, cmd = app.Update(key("b"))
	require.Nil(t, cmd)
	require.Equal(t, first, app.currentAddr)
}
