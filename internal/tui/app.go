package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"foodapp/internal/api"
	"foodapp/internal/cart"
	"foodapp/internal/catalog"
	"foodapp/internal/config"
	"foodapp/internal/money"
	"foodapp/internal/order"
	"foodapp/internal/probe"
	"foodapp/internal/session"
)

const probeInterval = 30 * time.Second

// App ties together views. All domain state lives in the injected components;
// the App owns cursors, modals, and routing. Components are mutated only from
// Update, commands run pure remote calls.
type App struct {
	ctx  context.Context
	cfg  config.Config
	deps Deps

	state appState
	modal modalState

	conn probe.State
	user api.User

	restaurants []api.Restaurant
	filtered    []api.Restaurant
	query       string

	restCursor int
	menuCursor int
	histCursor int

	searchInput   textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocus    int

	restoreStarted bool
	status         string
}

// Deps are the domain components the App drives.
type Deps struct {
	Session *session.Manager
	Browser *catalog.Browser
	Cart    *cart.Cart
	Orders  *order.Coordinator
	Probe   *probe.Probe
}

type appState string

const (
	viewRestaurants appState = "restaurants"
	viewMenu        appState = "menu"
	viewCart        appState = "cart"
	viewHistory     appState = "history"
)

type modalState string

const (
	modalNone   modalState = ""
	modalLogin  modalState = "login"
	modalSearch modalState = "search"
)

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	search := textinput.New()
	search.Placeholder = "name or cuisine"
	search.CharLimit = 64

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.SetValue(cfg.Auth.DefaultEmail)

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.SetValue(cfg.Auth.DefaultPassword)

	return &App{
		ctx:           ctx,
		cfg:           cfg,
		deps:          deps,
		state:         viewRestaurants,
		searchInput:   search,
		emailInput:    email,
		passwordInput: password,
	}
}

// Init probes connectivity first; the session restore starts once the first
// probe settles, so the indicator is truthful before any authed call runs.
func (a *App) Init() tea.Cmd {
	return a.checkConnCmd()
}

// commands
func (a *App) checkConnCmd() tea.Cmd {
	return func() tea.Msg {
		return connMsg(a.deps.Probe.Check(a.ctx))
	}
}

func (a *App) probeTickCmd() tea.Cmd {
	return tea.Tick(probeInterval, func(time.Time) tea.Msg {
		return probeTickMsg{}
	})
}

func (a *App) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		state := a.deps.Session.Restore(a.ctx)
		return restoredMsg{state: state, user: a.deps.Session.User()}
	}
}

func (a *App) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := a.deps.Session.Login(a.ctx, email, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		a.deps.Session.Logout(a.ctx)
		return loggedOutMsg{}
	}
}

func (a *App) loadRestaurantsCmd() tea.Cmd {
	return func() tea.Msg {
		rs, err := a.deps.Browser.FetchRestaurants(a.ctx)
		return restaurantsMsg{restaurants: rs, err: err}
	}
}

func (a *App) loadMenuCmd(fetch catalog.MenuFetch) tea.Cmd {
	return func() tea.Msg {
		items, err := a.deps.Browser.FetchMenu(a.ctx, fetch)
		return menuMsg{fetch: fetch, items: items, err: err}
	}
}

func (a *App) loadHistoryCmd() tea.Cmd {
	customerID := a.user.ID
	return func() tea.Msg {
		if customerID == "" {
			return historyMsg{}
		}
		orders, err := a.deps.Orders.FetchHistory(a.ctx, customerID)
		return historyMsg{orders: orders, err: err}
	}
}

func (a *App) submitCmd(req api.OrderRequest, snap cart.Snapshot) tea.Cmd {
	return func() tea.Msg {
		placed, err := a.deps.Orders.Place(a.ctx, req)
		return submitDoneMsg{order: placed, snap: snap, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)

	case connMsg:
		a.conn = probe.State(m)
		if !a.restoreStarted {
			a.restoreStarted = true
			return a, tea.Batch(a.probeTickCmd(), a.restoreCmd())
		}
		return a, a.probeTickCmd()

	case probeTickMsg:
		return a, a.checkConnCmd()

	case restoredMsg:
		a.user = m.user
		if m.state == session.Authenticated {
			a.status = "welcome back, " + a.user.Name
			return a, tea.Batch(a.loadRestaurantsCmd(), a.loadHistoryCmd())
		}
		// failed or absent restores fall through silently to anonymous browsing
		return a, a.loadRestaurantsCmd()

	case loginDoneMsg:
		if m.err != nil {
			a.status = errStatus(m.err)
			return a, nil
		}
		a.user = m.user
		a.modal = modalNone
		a.status = "logged in as " + a.user.Name
		return a, a.loadHistoryCmd()

	case loggedOutMsg:
		a.user = api.User{}
		a.deps.Orders.ClearHistory()
		a.histCursor = 0
		if a.state == viewHistory {
			a.state = viewRestaurants
		}
		a.status = "logged out"
		return a, nil

	case restaurantsMsg:
		if m.err != nil {
			a.status = errStatus(m.err)
			return a, nil
		}
		a.deps.Browser.SetRestaurants(m.restaurants)
		a.restaurants = m.restaurants
		a.applyQuery()
		return a, nil

	case menuMsg:
		if m.err != nil {
			// a superseded fetch's failure is as irrelevant as its result
			if a.deps.Browser.Current(m.fetch) {
				a.status = errStatus(m.err)
			}
			return a, nil
		}
		if !a.deps.Browser.Apply(m.fetch, m.items) {
			return a, nil
		}
		a.menuCursor = 0
		return a, nil

	case historyMsg:
		if m.err != nil {
			a.status = errStatus(m.err)
			return a, nil
		}
		a.deps.Orders.SetHistory(m.orders)
		if a.histCursor >= len(m.orders) {
			a.histCursor = 0
		}
		return a, nil

	case submitDoneMsg:
		if m.err != nil {
			a.deps.Orders.Fail(m.err)
			a.status = errStatus(m.err)
			return a, nil
		}
		a.deps.Orders.Finish(m.order)
		a.deps.Cart.RemoveSubmitted(m.snap)
		a.status = fmt.Sprintf("order placed, total %s", renderTotal(m.order.TotalPrice))
		return a, a.loadHistoryCmd()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "b":
		a.deps.Browser.Deselect()
		a.state = viewRestaurants
	case "c":
		a.state = viewCart
	case "h":
		if a.deps.Session.Anonymous() {
			a.status = "log in to see your orders"
			return a, nil
		}
		a.state = viewHistory
		return a, a.loadHistoryCmd()
	case "l":
		if a.deps.Session.Anonymous() {
			a.openLogin()
			return a, nil
		}
		return a, a.logoutCmd()
	case "/":
		if a.state == viewRestaurants {
			a.openSearch()
		}
	case "R":
		if a.state == viewRestaurants {
			a.status = "refreshing..."
			return a, a.loadRestaurantsCmd()
		}
		if a.state == viewHistory {
			a.status = "refreshing..."
			return a, a.loadHistoryCmd()
		}
	case "up", "k":
		a.moveCursor(-1)
	case "down", "j":
		a.moveCursor(1)
	case "esc":
		if a.state == viewMenu {
			a.deps.Browser.Deselect()
			a.state = viewRestaurants
		} else if a.query != "" && a.state == viewRestaurants {
			a.query = ""
			a.applyQuery()
		}
	case "enter":
		return a.handleEnter()
	case "a":
		if a.state == viewMenu {
			return a.addCursorItem()
		}
	case "x":
		if a.state == viewCart && !a.deps.Cart.Empty() {
			a.deps.Cart.Clear()
			a.status = "cart cleared"
		}
	case "p":
		if a.state == viewCart {
			return a.placeOrder()
		}
	}
	return a, nil
}

func (a *App) handleEnter() (tea.Model, tea.Cmd) {
	switch a.state {
	case viewRestaurants:
		if len(a.filtered) == 0 {
			return a, nil
		}
		r := a.filtered[a.restCursor]
		fetch := a.deps.Browser.Select(r)
		a.state = viewMenu
		a.menuCursor = 0
		return a, a.loadMenuCmd(fetch)
	case viewMenu:
		return a.addCursorItem()
	case viewCart:
		return a.placeOrder()
	}
	return a, nil
}

func (a *App) addCursorItem() (tea.Model, tea.Cmd) {
	menu := a.deps.Browser.Menu()
	if len(menu) == 0 {
		return a, nil
	}
	item := menu[a.menuCursor]
	if err := a.deps.Cart.Add(item); err != nil {
		a.status = "error: " + err.Error()
		return a, nil
	}
	a.status = fmt.Sprintf("added %s, cart total %s", item.Name, a.deps.Cart.Total().Format())
	return a, nil
}

func (a *App) placeOrder() (tea.Model, tea.Cmd) {
	if a.deps.Session.Anonymous() {
		a.status = "log in to place an order"
		a.openLogin()
		return a, nil
	}
	snap := a.deps.Cart.Snapshot()
	req, err := a.deps.Orders.Start(snap)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		a.status = "cart is empty"
		return a, nil
	case errors.Is(err, order.ErrBusy):
		a.status = "an order is already on its way"
		return a, nil
	case err != nil:
		a.status = "error: " + err.Error()
		return a, nil
	}
	a.status = "placing order..."
	return a, a.submitCmd(req, snap)
}

func (a *App) moveCursor(delta int) {
	switch a.state {
	case viewRestaurants:
		a.restCursor = clamp(a.restCursor+delta, len(a.filtered))
	case viewMenu:
		a.menuCursor = clamp(a.menuCursor+delta, len(a.deps.Browser.Menu()))
	case viewHistory:
		a.histCursor = clamp(a.histCursor+delta, len(a.deps.Orders.History()))
	}
}

func clamp(v, n int) int {
	if v < 0 || n == 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (a *App) openLogin() {
	a.modal = modalLogin
	a.loginFocus = 0
	a.emailInput.Focus()
	a.passwordInput.Blur()
}

func (a *App) openSearch() {
	a.modal = modalSearch
	a.searchInput.SetValue(a.query)
	a.searchInput.Focus()
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalSearch:
		switch m.Type {
		case tea.KeyEsc:
			a.modal = modalNone
			a.searchInput.Blur()
			return a, nil
		case tea.KeyEnter:
			a.modal = modalNone
			a.searchInput.Blur()
			a.query = strings.TrimSpace(a.searchInput.Value())
			a.applyQuery()
			return a, nil
		}
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(m)
		return a, cmd

	case modalLogin:
		switch m.Type {
		case tea.KeyEsc:
			a.modal = modalNone
			return a, nil
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
			a.loginFocus = 1 - a.loginFocus
			if a.loginFocus == 0 {
				a.emailInput.Focus()
				a.passwordInput.Blur()
			} else {
				a.emailInput.Blur()
				a.passwordInput.Focus()
			}
			return a, nil
		case tea.KeyEnter:
			email := strings.TrimSpace(a.emailInput.Value())
			password := a.passwordInput.Value()
			if email == "" || password == "" {
				a.status = "email and password required"
				return a, nil
			}
			a.status = "logging in..."
			return a, a.loginCmd(email, password)
		}
		var cmd tea.Cmd
		if a.loginFocus == 0 {
			a.emailInput, cmd = a.emailInput.Update(m)
		} else {
			a.passwordInput, cmd = a.passwordInput.Update(m)
		}
		return a, cmd
	}
	return a, nil
}

func (a *App) applyQuery() {
	a.filtered = catalog.Rank(a.query, a.restaurants)
	if a.restCursor >= len(a.filtered) {
		a.restCursor = 0
	}
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewMenu:
		body = a.renderMenu()
	case viewCart:
		body = a.renderCart()
	case viewHistory:
		body = a.renderHistory()
	default:
		body = a.renderRestaurants()
	}
	out := a.renderHeader() + "\n" + body
	if a.modal != modalNone {
		out += "\n\n" + a.renderModal()
	}
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

// messages
type connMsg probe.State

type probeTickMsg struct{}

type restoredMsg struct {
	state session.State
	user  api.User
}

type loginDoneMsg struct {
	user api.User
	err  error
}

type loggedOutMsg struct{}

type restaurantsMsg struct {
	restaurants []api.Restaurant
	err         error
}

type menuMsg struct {
	fetch catalog.MenuFetch
	items []api.MenuItem
	err   error
}

type historyMsg struct {
	orders []api.Order
	err    error
}

type submitDoneMsg struct {
	order api.Order
	snap  cart.Snapshot
	err   error
}

// styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (a *App) renderHeader() string {
	conn := offlineStyle.Render("● offline")
	if a.conn.Connected {
		conn = onlineStyle.Render("● online")
	}
	who := "browsing as guest"
	if !a.deps.Session.Anonymous() {
		who = a.user.Name
	}
	return fmt.Sprintf("%s  %s  cart: %d (%s)", conn, who, a.deps.Cart.Len(), a.deps.Cart.Total().Format())
}

func (a *App) renderRestaurants() string {
	title := titleStyle.Render("Restaurants")
	out := title + "\n"
	if a.query != "" {
		out += fmt.Sprintf("filter: %q (%d of %d)\n", a.query, len(a.filtered), len(a.restaurants))
	}
	if len(a.filtered) == 0 {
		if len(a.restaurants) == 0 {
			out += "(loading...)\n"
		} else {
			out += "(no matches, esc clears the filter)\n"
		}
	}
	for i, r := range a.filtered {
		marker := " "
		if i == a.restCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %-28s %-14s %s\n", marker, r.Name, r.Cuisine, r.Address)
	}
	out += "[enter] Menu  [/] Search  [R] Refresh  [c] Cart  [h] Orders  " + a.loginHint() + "  [q] Quit"
	return out
}

func (a *App) renderMenu() string {
	r, ok := a.deps.Browser.Selected()
	if !ok {
		return a.renderRestaurants()
	}
	title := titleStyle.Render(r.Name)
	out := title + "\n"
	menu := a.deps.Browser.Menu()
	if menu == nil {
		out += "(loading menu...)\n"
	}
	for i, item := range menu {
		marker := " "
		if i == a.menuCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %-28s %8s  %s\n", marker, item.Name, item.Price, item.Description)
	}
	out += "[enter/a] Add to cart  [esc/b] Back  [c] Cart  [q] Quit"
	return out
}

func (a *App) renderCart() string {
	title := titleStyle.Render("Cart")
	out := title + "\n"
	lines := a.deps.Cart.Lines()
	if len(lines) == 0 {
		out += "(empty)\n"
	}
	for _, l := range lines {
		out += fmt.Sprintf("  %-28s %8s\n", l.Item.Name, l.Price.Format())
	}
	out += fmt.Sprintf("Total: %s\n", a.deps.Cart.Total().Format())
	if a.deps.Orders.Phase() == order.Submitting {
		out += "placing order...\n"
	}
	out += "[enter/p] Place order  [x] Clear  [b] Restaurants  [h] Orders  [q] Quit"
	return out
}

func (a *App) renderHistory() string {
	title := titleStyle.Render("Your Orders")
	out := title + "\n"
	history := a.deps.Orders.History()
	if len(history) == 0 {
		out += "(no orders yet)\n"
	}
	for i, o := range history {
		marker := " "
		if i == a.histCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %s  %-10s %8s  %d items\n", marker, o.CreatedAt.Local().Format("02 Jan 15:04"), o.Status, renderTotal(o.TotalPrice), len(o.Items))
	}
	if len(history) > 0 && a.histCursor < len(history) {
		for _, item := range history[a.histCursor].Items {
			out += fmt.Sprintf("    - %s %s\n", item.Name, item.Price)
		}
	}
	out += "[R] Refresh  [b] Restaurants  [c] Cart  [q] Quit"
	return out
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalSearch:
		return titleStyle.Render("Search restaurants") + "\n" + a.searchInput.View() + "\n[enter] Apply  [esc] Cancel"
	case modalLogin:
		return titleStyle.Render("Log in") + "\n" +
			a.emailInput.View() + "\n" +
			a.passwordInput.View() + "\n" +
			"[tab] Switch field  [enter] Log in  [esc] Cancel"
	default:
		return ""
	}
}

func (a *App) loginHint() string {
	if a.deps.Session.Anonymous() {
		return "[l] Log in"
	}
	return "[l] Log out"
}

// renderTotal normalizes a wire total ("8.50") for display ("$8.50"). A
// malformed total is shown raw rather than hidden.
func renderTotal(wire string) string {
	amount, err := money.Parse(wire)
	if err != nil {
		return wire
	}
	return amount.Format()
}

func errStatus(err error) string {
	switch api.KindOf(err) {
	case api.KindConnectivity:
		return "backend unreachable, try again shortly"
	case api.KindAuth:
		return "login failed: " + err.Error()
	case api.KindFetch:
		return "could not load data: " + err.Error()
	case api.KindSubmission:
		return "order was not placed: " + err.Error()
	default:
		return "error: " + err.Error()
	}
}
