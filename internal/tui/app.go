package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/ledgerline/internal/config"
	"github.com/jask/ledgerline/internal/insight"
	"github.com/jask/ledgerline/internal/ledger"
	"github.com/jask/ledgerline/internal/lifecycle"
	"github.com/jask/ledgerline/internal/notify"
	"github.com/jask/ledgerline/internal/picker"
	"github.com/jask/ledgerline/internal/routing"
	"github.com/jask/ledgerline/internal/selection"
)

// App ties together views.
type App struct {
	ctx       context.Context
	cfg       config.Config
	selection *selection.Store
	guard     routing.Guard
	loader    *ledger.Loader
	mutator   *lifecycle.Mutator
	insight   insight.Provider
	notices   *notify.Queue

	state       appState
	currentAddr routing.Address
	// route held back while the selection is still loading; re-entered when
	// the entity list arrives
	pendingRoute *routing.Route

	budgets      []ledger.Budget
	journal      []ledger.JournalEntry
	forecast     []insight.ProjectedPoint
	budgetCursor int
	jeCursor     int
	status       string
	tz           *time.Location
	currency     string
	dateFormat   string

	modal        modalState
	pickerFilter string
	pickerCursor int
	inputBuffer  string
}

// Deps bundles the stores and services the app drives.
type Deps struct {
	Selection *selection.Store
	Loader    *ledger.Loader
	Mutator   *lifecycle.Mutator
	Insight   insight.Provider
	Notices   *notify.Queue
}

type appState string

const (
	viewDashboard appState = "dashboard"
	viewBudgets   appState = "budgets"
	viewJournal   appState = "journal"
	viewSettings  appState = "settings"
)

type modalState string

const (
	modalNone         modalState = ""
	modalClientPicker modalState = "clientPicker"
	modalEntityPicker modalState = "entityPicker"
	modalEditToken    modalState = "editToken"
)

func New(ctx context.Context, cfg config.Config, deps Deps, tz *time.Location) *App {
	if tz == nil {
		tz = time.Local
	}
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		selection:  deps.Selection,
		guard:      routing.Guard{Notifier: deps.Notices},
		loader:     deps.Loader,
		mutator:    deps.Mutator,
		insight:    deps.Insight,
		notices:    deps.Notices,
		state:      viewDashboard,
		tz:         tz,
		currency:   cfg.UI.CurrencySymbol,
		dateFormat: cfg.UI.DateFormat,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadClients()
}

func (a *App) loadClients() tea.Cmd {
	return func() tea.Msg {
		list, err := a.loader.Clients(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return clientsMsg(list)
	}
}

func (a *App) loadEntities(clientID string) tea.Cmd {
	return func() tea.Msg {
		list, err := a.loader.Entities(a.ctx, clientID)
		if err != nil {
			return errMsg{err}
		}
		return entitiesMsg{clientID: clientID, list: list}
	}
}

func (a *App) loadBudgets(entityID string) tea.Cmd {
	return func() tea.Msg {
		list, err := a.loader.Budgets(a.ctx, entityID)
		if err != nil {
			return errMsg{err}
		}
		return budgetsMsg{entityID: entityID, list: list}
	}
}

func (a *App) loadJournal(entityID string) tea.Cmd {
	return func() tea.Msg {
		list, err := a.loader.JournalEntries(a.ctx, entityID)
		if err != nil {
			return errMsg{err}
		}
		return journalMsg{entityID: entityID, list: list}
	}
}

func (a *App) forecastCmd(entityID string, budgets []ledger.Budget) tea.Cmd {
	if a.insight == nil || len(budgets) == 0 {
		return nil
	}
	history := make([]insight.Point, 0, len(budgets))
	for _, b := range budgets {
		history = append(history, insight.Point{Date: b.PeriodStart, Value: float64(b.SpentCents) / 100})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date < history[j].Date })
	return func() tea.Msg {
		resp, err := a.insight.Forecast(a.ctx, insight.ForecastRequest{History: history, Periods: 3, Frequency: "M"})
		if err != nil {
			return errMsg{err}
		}
		return forecastMsg{entityID: entityID, points: resp.Points}
	}
}

func (a *App) transitionCmd(res lifecycle.Resource, target lifecycle.Status) tea.Cmd {
	return func() tea.Msg {
		_ = a.mutator.Transition(a.ctx, res, target)
		return mutationDoneMsg{res: res}
	}
}

func (a *App) deleteCmd(res lifecycle.Resource) tea.Cmd {
	return func() tea.Msg {
		_ = a.mutator.Delete(a.ctx, res)
		return mutationDoneMsg{res: res}
	}
}

func (a *App) saveTokenCmd(token string) tea.Cmd {
	return func() tea.Msg {
		a.cfg.API.Token = strings.TrimSpace(token)
		if err := config.Save(a.cfg); err != nil {
			return errMsg{err}
		}
		return statusMsg("API token saved to config (restart to apply)")
	}
}

// enterRoute runs the guard for one visit and applies the decision to the
// view state. A resolved redirect to the address already shown is a no-op.
func (a *App) enterRoute(route routing.Route) tea.Cmd {
	d := a.guard.Enter(a.selection.State(), route, a.currentAddr)
	switch d.State {
	case routing.Hold:
		r := route
		a.pendingRoute = &r
		return nil
	case routing.RedirectPrompt, routing.RedirectNoEntity:
		a.state = viewDashboard
		a.currentAddr = routing.Address{}
		a.drainNotices()
		if d.State == routing.RedirectPrompt {
			a.openEntityPicker()
		}
		return nil
	case routing.RedirectResolved:
		if !d.Navigate {
			return nil
		}
		a.currentAddr = d.Target
		switch d.Target.Kind {
		case routing.KindBudgets:
			a.state = viewBudgets
			return a.loadBudgets(d.Target.EntityID)
		case routing.KindJournalEntries:
			a.state = viewJournal
			return a.loadJournal(d.Target.EntityID)
		}
	}
	return nil
}

func (a *App) drainNotices() {
	for _, n := range a.notices.Drain() {
		a.status = n.Message
	}
}

func (a *App) currentEntityID() string {
	if e := a.selection.State().CurrentEntity; e != nil {
		return e.ID
	}
	return ""
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		switch m.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "d":
			a.state = viewDashboard
			a.currentAddr = routing.Address{}
		case "b":
			return a, a.enterRoute(routing.Route{Kind: routing.KindBudgets})
		case "e":
			return a, a.enterRoute(routing.Route{Kind: routing.KindJournalEntries})
		case "c":
			a.openClientPicker()
		case "s":
			a.openEntityPicker()
		case "p":
			a.state = viewSettings
			a.currentAddr = routing.Address{}
		case "up", "k":
			if a.state == viewBudgets && a.budgetCursor > 0 {
				a.budgetCursor--
			}
			if a.state == viewJournal && a.jeCursor > 0 {
				a.jeCursor--
			}
		case "down", "j":
			if a.state == viewBudgets && a.budgetCursor < len(a.budgets)-1 {
				a.budgetCursor++
			}
			if a.state == viewJournal && a.jeCursor < len(a.journal)-1 {
				a.jeCursor++
			}
		case "enter":
			if a.state == viewBudgets && len(a.budgets) > 0 {
				b := a.budgets[a.budgetCursor]
				return a, a.enterRoute(routing.Route{Kind: routing.KindBudgets, ResourceID: b.ID, Action: routing.ActionEdit})
			}
		case "esc":
			if a.state == viewBudgets && a.currentAddr.ResourceID != "" {
				return a, a.enterRoute(routing.Route{Kind: routing.KindBudgets})
			}
		case "a":
			if a.state == viewBudgets && len(a.budgets) > 0 {
				res := a.budgets[a.budgetCursor].Resource()
				table, ok := lifecycle.TableFor(res.Kind)
				if !ok {
					return a, nil
				}
				next := table.AllowedNext(res.Status)
				if len(next) == 0 {
					a.status = "no further status for this budget"
					return a, nil
				}
				a.status = "updating..."
				return a, a.transitionCmd(res, next[0])
			}
			if a.state == viewJournal && len(a.journal) > 0 {
				res := a.journal[a.jeCursor].Resource()
				a.status = "posting..."
				return a, a.transitionCmd(res, lifecycle.StatusPosted)
			}
		case "x":
			if a.state == viewBudgets && len(a.budgets) > 0 {
				res := a.budgets[a.budgetCursor].Resource()
				a.status = "archiving..."
				return a, a.transitionCmd(res, lifecycle.StatusArchived)
			}
		case "backspace", "delete":
			if a.state == viewBudgets && len(a.budgets) > 0 {
				a.status = "deleting..."
				return a, a.deleteCmd(a.budgets[a.budgetCursor].Resource())
			}
			if a.state == viewJournal && len(a.journal) > 0 {
				a.status = "deleting..."
				return a, a.deleteCmd(a.journal[a.jeCursor].Resource())
			}
		case "t":
			if a.state == viewSettings {
				a.modal = modalEditToken
				a.inputBuffer = a.cfg.API.Token
			}
		}
	case clientsMsg:
		a.selection.ApplyClients([]selection.Client(m))
		st := a.selection.State()
		if st.CurrentClient == nil && len(st.Clients) > 0 {
			refetch := a.selection.SetCurrentClient(st.Clients[0])
			return a, a.loadEntities(refetch)
		}
	case entitiesMsg:
		prev := a.selection.State().CurrentEntity
		if !a.selection.ApplyEntities(m.clientID, m.list) {
			return a, nil // result for a client no longer selected
		}
		var cmds []tea.Cmd
		if prev != nil && prev.ClientID == m.clientID && a.selection.State().CurrentEntity == nil {
			// the entity we were scoped to vanished; its cached lists go too
			gone := prev.ID
			cmds = append(cmds, func() tea.Msg {
				_ = a.loader.DropEntity(a.ctx, gone)
				return nil
			})
		}
		st := a.selection.State()
		if st.CurrentEntity == nil && len(st.Entities) > 0 {
			_ = a.selection.SetCurrentEntity(st.Entities[0])
		}
		if a.pendingRoute != nil {
			route := *a.pendingRoute
			a.pendingRoute = nil
			cmds = append(cmds, a.enterRoute(route))
		}
		return a, tea.Batch(cmds...)
	case budgetsMsg:
		if m.entityID != a.currentEntityID() {
			return a, nil
		}
		a.budgets = m.list
		if a.budgetCursor >= len(a.budgets) {
			a.budgetCursor = 0
		}
		return a, a.forecastCmd(m.entityID, m.list)
	case journalMsg:
		if m.entityID != a.currentEntityID() {
			return a, nil
		}
		a.journal = m.list
		if a.jeCursor >= len(a.journal) {
			a.jeCursor = 0
		}
	case forecastMsg:
		if m.entityID != a.currentEntityID() {
			return a, nil
		}
		a.forecast = m.points
	case mutationDoneMsg:
		a.drainNotices()
		if m.res.EntityID != a.currentEntityID() {
			return a, nil
		}
		switch m.res.Kind {
		case routing.KindBudgets:
			return a, a.loadBudgets(m.res.EntityID)
		case routing.KindJournalEntries:
			return a, a.loadJournal(m.res.EntityID)
		}
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	a.drainNotices()
	return a, nil
}

func (a *App) openClientPicker() {
	a.modal = modalClientPicker
	a.pickerFilter = ""
	a.pickerCursor = 0
}

func (a *App) openEntityPicker() {
	st := a.selection.State()
	if len(st.Entities) == 0 {
		return
	}
	a.modal = modalEntityPicker
	a.pickerFilter = ""
	a.pickerCursor = 0
}

func (a *App) pickerOptions() []string {
	st := a.selection.State()
	if a.modal == modalClientPicker {
		names := make([]string, len(st.Clients))
		for i, c := range st.Clients {
			names[i] = c.Name
		}
		return names
	}
	names := make([]string, len(st.Entities))
	for i, e := range st.Entities {
		names[i] = e.Name
	}
	return names
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modal == modalEditToken {
		switch m.Type {
		case tea.KeyEsc:
			a.modal = modalNone
			a.inputBuffer = ""
		case tea.KeyEnter:
			token := a.inputBuffer
			a.modal = modalNone
			a.inputBuffer = ""
			return a, a.saveTokenCmd(token)
		case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
			if len(a.inputBuffer) > 0 {
				a.inputBuffer = a.inputBuffer[:len(a.inputBuffer)-1]
			}
		case tea.KeySpace:
			a.inputBuffer += " "
		case tea.KeyRunes:
			a.inputBuffer += string(m.Runes)
		}
		return a, nil
	}

	matches := picker.Rank(a.pickerFilter, a.pickerOptions())
	switch m.Type {
	case tea.KeyEsc:
		a.modal = modalNone
	case tea.KeyUp:
		if a.pickerCursor > 0 {
			a.pickerCursor--
		}
	case tea.KeyDown:
		if a.pickerCursor < len(matches)-1 {
			a.pickerCursor++
		}
	case tea.KeyEnter:
		if a.pickerCursor >= len(matches) {
			return a, nil
		}
		idx := matches[a.pickerCursor].Index
		modal := a.modal
		a.modal = modalNone
		st := a.selection.State()
		if modal == modalClientPicker {
			if idx >= len(st.Clients) {
				return a, nil
			}
			refetch := a.selection.SetCurrentClient(st.Clients[idx])
			a.currentAddr = routing.Address{}
			return a, a.loadEntities(refetch)
		}
		if idx >= len(st.Entities) {
			return a, nil
		}
		if err := a.selection.SetCurrentEntity(st.Entities[idx]); err != nil {
			a.status = "error: " + err.Error()
			return a, nil
		}
		// re-enter the active view so the address tracks the new entity
		switch a.state {
		case viewBudgets:
			a.currentAddr = routing.Address{}
			return a, a.enterRoute(routing.Route{Kind: routing.KindBudgets})
		case viewJournal:
			a.currentAddr = routing.Address{}
			return a, a.enterRoute(routing.Route{Kind: routing.KindJournalEntries})
		}
	case tea.KeyBackspace, tea.KeyCtrlH:
		if len(a.pickerFilter) > 0 {
			a.pickerFilter = a.pickerFilter[:len(a.pickerFilter)-1]
			a.pickerCursor = 0
		}
	case tea.KeySpace:
		a.pickerFilter += " "
		a.pickerCursor = 0
	case tea.KeyRunes:
		a.pickerFilter += string(m.Runes)
		a.pickerCursor = 0
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewBudgets:
		body = a.renderBudgets()
	case viewJournal:
		body = a.renderJournal()
	case viewSettings:
		body = a.renderSettings()
	default:
		body = a.renderDashboard()
	}
	if a.modal != modalNone {
		body += "\n\n" + a.renderModal()
	}
	return body
}

// messages
type clientsMsg []selection.Client

type entitiesMsg struct {
	clientID string
	list     []selection.Entity
}

type budgetsMsg struct {
	entityID string
	list     []ledger.Budget
}

type journalMsg struct {
	entityID string
	list     []ledger.JournalEntry
}

type forecastMsg struct {
	entityID string
	points   []insight.ProjectedPoint
}

type mutationDoneMsg struct {
	res lifecycle.Resource
}

type statusMsg string

type errMsg struct{ error }

// styles
var titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

func (a *App) scopeLine() string {
	st := a.selection.State()
	client, entity := "(no client)", "(no entity)"
	if st.CurrentClient != nil {
		client = st.CurrentClient.Name
	}
	if st.CurrentEntity != nil {
		entity = st.CurrentEntity.Name
	}
	line := fmt.Sprintf("Client: %s  Entity: %s", client, entity)
	if st.Loading {
		line += "  (loading...)"
	}
	return line
}

func (a *App) renderDashboard() string {
	title := titleStyle.Render("Ledgerline")
	body := a.scopeLine()
	st := a.selection.State()
	body += fmt.Sprintf("\nClients: %d  Entities: %d", len(st.Clients), len(st.Entities))
	body += "\n[b] Budgets  [e] Journal  [c] Switch client  [s] Switch entity  [p] Settings  [q] Quit"
	if a.status != "" {
		body += "\n" + a.status
	}
	return fmt.Sprintf("%s\n%s", title, body)
}

func (a *App) renderBudgets() string {
	title := titleStyle.Render("Budgets")
	out := title + "\n" + a.scopeLine() + "\n"
	if len(a.budgets) == 0 {
		out += "(no budgets)\n"
	}
	for i, b := range a.budgets {
		marker := " "
		if i == a.budgetCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %-20s %-8s  %s%.2f of %s%.2f  (from %s)\n",
			marker, b.Name, b.Status, a.currency, float64(b.SpentCents)/100, a.currency, float64(b.AmountCents)/100, b.PeriodStart)
	}
	if a.currentAddr.ResourceID != "" {
		out += "\n" + a.renderBudgetDetail()
	}
	if len(a.forecast) > 0 {
		out += "\nProjected spend:"
		for _, p := range a.forecast {
			out += fmt.Sprintf("\n- %s  %s%.2f (%s%.2f – %s%.2f)", p.Date, a.currency, p.Value, a.currency, p.Lower, a.currency, p.Upper)
		}
		out += "\n"
	}
	out += "\n[enter] Detail  [a] Advance status  [x] Archive  [del] Delete  [d] Dashboard  [e] Journal  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderBudgetDetail() string {
	for _, b := range a.budgets {
		if b.ID != a.currentAddr.ResourceID {
			continue
		}
		out := fmt.Sprintf("At %s\n", a.currentAddr.Path())
		table, ok := lifecycle.TableFor(routing.KindBudgets)
		if !ok {
			return out
		}
		next := table.AllowedNext(b.Status)
		if len(next) == 0 {
			out += "Status is terminal."
		} else {
			labels := make([]string, len(next))
			for i, s := range next {
				labels[i] = string(s)
			}
			out += "Next status: " + strings.Join(labels, ", ")
		}
		if table.CanDelete(b.Status) {
			out += "  (deletable)"
		}
		return out + "\n[esc] Back to list"
	}
	return ""
}

func (a *App) renderJournal() string {
	title := titleStyle.Render("Journal Entries")
	out := title + "\n" + a.scopeLine() + "\n"
	if len(a.journal) == 0 {
		out += "(no journal entries)\n"
	}
	for i, j := range a.journal {
		marker := " "
		if i == a.jeCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %s  %-40s  %s\n", marker, j.Date, j.Memo, j.Status)
	}
	out += "\n[a] Post  [del] Delete draft  [d] Dashboard  [b] Budgets  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderSettings() string {
	title := titleStyle.Render("Settings")
	out := title + "\n"
	out += fmt.Sprintf("Backend: %s\n", a.cfg.API.BaseURL)
	token := "(not set)"
	if a.cfg.API.Token != "" {
		token = strings.Repeat("*", len(a.cfg.API.Token))
	}
	out += fmt.Sprintf("API token: %s\n", token)
	out += fmt.Sprintf("Forecast provider: %s\n", a.cfg.Insight.Provider)
	out += fmt.Sprintf("Cache database: %s\n", a.cfg.Database.Path)
	out += "\n[t] Edit API token (stored in config)\n"
	out += "[d] Dashboard  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalClientPicker, modalEntityPicker:
		label := "Select Client"
		if a.modal == modalEntityPicker {
			label = "Select Entity"
		}
		out := titleStyle.Render(label) + "\n"
		out += "Filter: " + a.pickerFilter + "\n"
		options := a.pickerOptions()
		matches := picker.Rank(a.pickerFilter, options)
		if len(matches) == 0 {
			out += "(no matches)\n"
		}
		for i, mt := range matches {
			marker := " "
			if i == a.pickerCursor {
				marker = "▶"
			}
			out += fmt.Sprintf("%s %s\n", marker, options[mt.Index])
		}
		out += "[enter] Select  [esc] Cancel"
		return out
	case modalEditToken:
		return titleStyle.Render("Set API token (stored in config.toml)") + fmt.Sprintf("\n%s\n[enter] Save  [esc] Cancel", a.inputBuffer)
	default:
		return ""
	}
}
