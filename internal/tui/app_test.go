package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"foodapp/internal/api"
	"foodapp/internal/cart"
	"foodapp/internal/catalog"
	"foodapp/internal/config"
	"foodapp/internal/order"
	"foodapp/internal/probe"
	"foodapp/internal/session"
)

type testBackend struct {
	orderPosts atomic.Int64
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/auth/users/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-valid"})
	})
	mux.HandleFunc("/api/auth/users/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/auth/users/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: "customer"})
	})
	mux.HandleFunc("/api/collections/restaurants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []api.Restaurant{
			{ID: "r1", Name: "Pasta Place", Cuisine: "Italian"},
			{ID: "r2", Name: "Sushi Spot", Cuisine: "Japanese"},
		}})
	})
	mux.HandleFunc("/api/collections/menu-items", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("filter[restaurant]")
		json.NewEncoder(w).Encode(map[string]any{"data": []api.MenuItem{
			{ID: "m-" + id, RestaurantID: id, Name: "Dish of " + id, Price: "$9.00"},
		}})
	})
	mux.HandleFunc("/api/collections/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			b.orderPosts.Add(1)
			var req api.OrderRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(api.Order{ID: "o1", TotalPrice: req.TotalPrice, Status: "pending", CreatedAt: time.Now()})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []api.Order{
			{ID: "o0", TotalPrice: "9.00", Status: "delivered", CreatedAt: time.Now()},
		}})
	})
	return mux
}

func newTestApp(t *testing.T, backend *testBackend) *App {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	log := zerolog.Nop()
	deps := Deps{
		Session: session.NewManager(client, store, log),
		Browser: catalog.NewBrowser(client, log),
		Cart:    cart.New(),
		Orders:  order.NewCoordinator(client, log),
		Probe:   probe.New(client, time.Second, log),
	}
	return New(context.Background(), config.Config{}, deps)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// run executes a command synchronously and feeds the message back.
func run(t *testing.T, a *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	msg := cmd()
	if msg == nil {
		return nil
	}
	_, next := a.Update(msg)
	return next
}

func loadCatalog(t *testing.T, a *App) {
	t.Helper()
	run(t, a, a.loadRestaurantsCmd())
	require.Len(t, a.filtered, 2)
}

func loginUser(t *testing.T, a *App) {
	t.Helper()
	user, err := a.deps.Session.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	a.Update(loginDoneMsg{user: user})
	require.False(t, a.deps.Session.Anonymous())
}

func TestStartupAnonymousLoadsCatalog(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	_, cmd := a.Update(restoredMsg{state: a.deps.Session.Restore(context.Background())})
	require.Equal(t, session.Anonymous, a.deps.Session.State())
	run(t, a, cmd)
	require.Len(t, a.filtered, 2)
	require.Contains(t, a.View(), "Pasta Place")
	require.Contains(t, a.View(), "browsing as guest")
}

func TestSelectRestaurantLoadsMenu(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loadCatalog(t, a)

	_, cmd := a.Update(key("enter"))
	require.Equal(t, viewMenu, a.state)
	run(t, a, cmd)

	require.Len(t, a.deps.Browser.Menu(), 1)
	require.Contains(t, a.View(), "Dish of r1")
}

func TestStaleMenuResultDiscarded(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loadCatalog(t, a)

	_, oldCmd := a.Update(key("enter")) // select r1
	a.Update(key("esc"))
	a.Update(key("j"))
	_, newCmd := a.Update(key("enter")) // select r2

	// the r1 response arrives after r2 was selected
	a.Update(oldCmd())
	require.Nil(t, a.deps.Browser.Menu(), "stale menu must not land")

	a.Update(newCmd())
	require.Equal(t, "m-r2", a.deps.Browser.Menu()[0].ID)
}

func TestStaleMenuFailureDoesNotSurface(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loadCatalog(t, a)

	a.Update(key("enter")) // select r1
	a.Update(key("esc"))
	a.Update(key("j"))
	_, newCmd := a.Update(key("enter")) // select r2
	a.status = ""

	// r1's fetch fails after r2 was selected; its error must stay invisible
	stale := catalog.MenuFetch{Restaurant: api.Restaurant{ID: "r1"}}
	a.Update(menuMsg{fetch: stale, err: errFetchBoom()})
	require.Empty(t, a.status)

	// the current selection's failure still surfaces
	run(t, a, newCmd)
	current := a.deps.Browser.Select(a.filtered[1])
	a.Update(menuMsg{fetch: current, err: errFetchBoom()})
	require.Contains(t, a.status, "could not load data")
}

func errFetchBoom() error {
	return &api.Error{Kind: api.KindFetch, Op: "menuItems", Err: errBoom}
}

var errBoom = errors.New("boom")

func TestAddToCartFromMenu(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loadCatalog(t, a)
	_, cmd := a.Update(key("enter"))
	run(t, a, cmd)

	a.Update(key("a"))
	a.Update(key("a"))
	require.Equal(t, 2, a.deps.Cart.Len())
	require.Contains(t, a.View(), "cart: 2 ($18.00)")
}

func TestPlaceOrderAnonymousOpensLogin(t *testing.T) {
	t.Parallel()

	backend := &testBackend{}
	a := newTestApp(t, backend)
	a.deps.Session.Restore(context.Background())
	require.NoError(t, a.deps.Cart.Add(api.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Dish", Price: "$9.00"}))

	a.Update(key("c"))
	_, cmd := a.Update(key("p"))
	require.Nil(t, cmd, "no remote call while anonymous")
	require.Equal(t, modalLogin, a.modal)
	require.Zero(t, backend.orderPosts.Load())
}

func TestPlaceOrderEmptyCartNeverHitsBackend(t *testing.T) {
	t.Parallel()

	backend := &testBackend{}
	a := newTestApp(t, backend)
	loginUser(t, a)

	a.Update(key("c"))
	_, cmd := a.Update(key("p"))
	require.Nil(t, cmd)
	require.Contains(t, a.status, "cart is empty")
	require.Zero(t, backend.orderPosts.Load())
	require.Equal(t, order.Idle, a.deps.Orders.Phase())
}

func TestSubmitFlowClearsSnapshotOnly(t *testing.T) {
	t.Parallel()

	backend := &testBackend{}
	a := newTestApp(t, backend)
	loginUser(t, a)

	require.NoError(t, a.deps.Cart.Add(api.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Dish", Price: "$9.00"}))
	a.Update(key("c"))
	_, cmd := a.Update(key("p"))
	require.Equal(t, order.Submitting, a.deps.Orders.Phase())

	// user adds another unit while the order is in flight
	require.NoError(t, a.deps.Cart.Add(api.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Dish", Price: "$9.00"}))

	historyCmd := run(t, a, cmd)
	require.Equal(t, order.Succeeded, a.deps.Orders.Phase())
	require.Equal(t, "o1", a.deps.Orders.LastOrder().ID)
	require.Equal(t, 1, a.deps.Cart.Len(), "only the submitted unit is removed")
	require.EqualValues(t, 1, backend.orderPosts.Load())

	// success triggers exactly one history refresh
	run(t, a, historyCmd)
	require.Len(t, a.deps.Orders.History(), 1)
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/collections/orders", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	log := zerolog.Nop()
	a := New(context.Background(), config.Config{}, Deps{
		Session: session.NewManager(client, store, log),
		Browser: catalog.NewBrowser(client, log),
		Cart:    cart.New(),
		Orders:  order.NewCoordinator(client, log),
		Probe:   probe.New(client, time.Second, log),
	})
	a.Update(loginDoneMsg{user: api.User{ID: "u1", Name: "Ana"}})

	require.NoError(t, a.deps.Cart.Add(api.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Dish", Price: "$9.00"}))
	snap := a.deps.Cart.Snapshot()
	req, err := a.deps.Orders.Start(snap)
	require.NoError(t, err)

	_, placeErr := a.deps.Orders.Place(context.Background(), req)
	require.Error(t, placeErr)
	a.Update(submitDoneMsg{snap: snap, err: placeErr})

	require.Equal(t, order.Failed, a.deps.Orders.Phase())
	require.Equal(t, 1, a.deps.Cart.Len(), "failed submission keeps the cart for retry")
	require.Contains(t, a.status, "order was not placed")
}

func TestSearchModalFiltersCatalog(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loadCatalog(t, a)

	a.Update(key("/"))
	require.Equal(t, modalSearch, a.modal)
	for _, r := range "sushi" {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	a.Update(key("enter"))

	require.Equal(t, modalNone, a.modal)
	require.Len(t, a.filtered, 1)
	require.Equal(t, "r2", a.filtered[0].ID)

	a.Update(key("esc"))
	require.Len(t, a.filtered, 2, "esc clears the filter")
}

func TestHistoryRequiresLogin(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	a.deps.Session.Restore(context.Background())

	_, cmd := a.Update(key("h"))
	require.Nil(t, cmd)
	require.Equal(t, viewRestaurants, a.state)
	require.Contains(t, a.status, "log in")
}

func TestLogoutDropsHistoryAndView(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	loginUser(t, a)

	_, histCmd := a.Update(key("h"))
	require.Equal(t, viewHistory, a.state)
	run(t, a, histCmd)
	require.Len(t, a.deps.Orders.History(), 1)

	_, logoutCmd := a.Update(key("l"))
	run(t, a, logoutCmd)
	require.True(t, a.deps.Session.Anonymous())
	require.Empty(t, a.deps.Orders.History())
	require.Equal(t, viewRestaurants, a.state)
}

func TestConnectivityIndicator(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, &testBackend{})
	require.Contains(t, a.View(), "offline")

	msg := a.checkConnCmd()()
	a.Update(msg)
	require.Contains(t, a.View(), "online")
	require.True(t, a.conn.Connected)
}
