package api

import (
	"fmt"
	"time"
)

// Wire schemas for the backend's entities. Every entity other than the
// session is a read-only mirror of remote state; fields are validated at the
// decode boundary instead of trusting presence ad hoc.

// User is the authenticated identity. Opaque beyond identity; never mutated
// by the client.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Restaurant is immutable once fetched; the collection is replaced in full
// on each catalog load.
type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
	Address string `json:"address"`
	Photo   string `json:"photo,omitempty"`
	Owner   *User  `json:"owner,omitempty"`
}

// MenuItem belongs to exactly one restaurant. Price is the backend's display
// string ("$5.00"); money.Parse turns it into cents.
type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Photo        string `json:"photo,omitempty"`
}

// Order is created server-side; the client holds a read-only projection.
// Status is an opaque label the client only displays.
type Order struct {
	ID         string     `json:"id"`
	TotalPrice string     `json:"totalPrice"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	Items      []MenuItem `json:"items,omitempty"`
}

// OrderRequest is the create-order payload: total plus the ordered item-id
// sequence, one id per cart line.
type OrderRequest struct {
	TotalPrice string   `json:"totalPrice"`
	Items      []string `json:"items"`
}

// listEnvelope is the backend's collection wrapper.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

func (u User) validate() error {
	if u.ID == "" {
		return fmt.Errorf("user missing id")
	}
	return nil
}

func (r Restaurant) validate() error {
	if r.ID == "" || r.Name == "" {
		return fmt.Errorf("restaurant missing id or name")
	}
	return nil
}

func (m MenuItem) validate() error {
	if m.ID == "" || m.RestaurantID == "" {
		return fmt.Errorf("menu item missing id or restaurant")
	}
	if m.Price == "" {
		return fmt.Errorf("menu item %s missing price", m.ID)
	}
	return nil
}

func (o Order) validate() error {
	if o.ID == "" {
		return fmt.Errorf("order missing id")
	}
	if o.TotalPrice == "" {
		return fmt.Errorf("order %s missing total", o.ID)
	}
	return nil
}
