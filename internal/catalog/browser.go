// Package catalog holds the read-only restaurant and menu state. Remote
// fetches are pure calls suitable for background commands; all mutation
// happens through the Set/Apply methods, which the UI calls from its single
// update loop.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"foodapp/internal/api"
)

// MenuFetch ties an in-flight menu request to the selection that started it.
// The token, not the restaurant id, decides staleness: re-selecting the same
// restaurant still invalidates the older request.
type MenuFetch struct {
	Token      uuid.UUID
	Restaurant api.Restaurant
}

// Browser is the catalog's local mirror. Not safe for concurrent mutation;
// the owning update loop serializes access.
type Browser struct {
	client *api.Client
	log    zerolog.Logger

	restaurants []api.Restaurant
	selected    *api.Restaurant
	menu        []api.MenuItem
	pending     uuid.UUID
}

func NewBrowser(client *api.Client, log zerolog.Logger) *Browser {
	return &Browser{client: client, log: log}
}

// FetchRestaurants loads the catalog. Pure remote call; pair with
// SetRestaurants on the update loop.
func (b *Browser) FetchRestaurants(ctx context.Context) ([]api.Restaurant, error) {
	return b.client.Restaurants(ctx)
}

// SetRestaurants replaces the catalog wholesale, server order preserved.
func (b *Browser) SetRestaurants(rs []api.Restaurant) {
	b.restaurants = rs
}

// Restaurants returns the current catalog in server order.
func (b *Browser) Restaurants() []api.Restaurant {
	return b.restaurants
}

// Select marks r as the active restaurant and returns the fetch handle for
// its menu. Any previous in-flight menu fetch is invalidated immediately.
func (b *Browser) Select(r api.Restaurant) MenuFetch {
	b.selected = &r
	b.menu = nil
	b.pending = uuid.New()
	return MenuFetch{Token: b.pending, Restaurant: r}
}

// Deselect returns to the restaurant list. In-flight menu fetches for the
// old selection become stale.
func (b *Browser) Deselect() {
	b.selected = nil
	b.menu = nil
	b.pending = uuid.Nil
}

// Selected returns the active restaurant, if any.
func (b *Browser) Selected() (api.Restaurant, bool) {
	if b.selected == nil {
		return api.Restaurant{}, false
	}
	return *b.selected, true
}

// FetchMenu loads the menu for a selection. Pure remote call; pair with
// Apply on the update loop.
func (b *Browser) FetchMenu(ctx context.Context, f MenuFetch) ([]api.MenuItem, error) {
	return b.client.MenuItems(ctx, f.Restaurant.ID)
}

// Current reports whether f belongs to the latest selection. Stale fetches
// carry no weight, successful or not.
func (b *Browser) Current(f MenuFetch) bool {
	return b.pending != uuid.Nil && f.Token == b.pending
}

// Apply installs a completed menu fetch. Results from a superseded selection
// are discarded and Apply reports false.
func (b *Browser) Apply(f MenuFetch, items []api.MenuItem) bool {
	if !b.Current(f) {
		b.log.Debug().Str("restaurant", f.Restaurant.ID).Msg("discarding stale menu fetch")
		return false
	}
	b.menu = items
	return true
}

// Menu returns the active restaurant's menu; nil while loading or deselected.
func (b *Browser) Menu() []api.MenuItem {
	return b.menu
}
