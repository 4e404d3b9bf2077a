// Package cart is the local, never-persisted order draft. Lines keep
// insertion order and duplicates are legal: two lines of the same item are
// two units.
package cart

import (
	"foodapp/internal/api"
	"foodapp/internal/money"
)

// Line is one unit of a menu item in the cart.
type Line struct {
	Item  api.MenuItem
	Price money.Amount
}

// Cart accumulates lines. Owned by the update loop; no internal locking.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add appends one unit of item. The price string is parsed here so a
// malformed price is caught at add time, not at checkout.
func (c *Cart) Add(item api.MenuItem) error {
	price, err := money.Parse(item.Price)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, Line{Item: item, Price: price})
	return nil
}

// Lines returns the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	return c.lines
}

// Len returns the number of units in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Total sums all line prices in cents.
func (c *Cart) Total() money.Amount {
	var total money.Amount
	for _, l := range c.lines {
		total += l.Price
	}
	return total
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// Snapshot freezes the current contents for submission. Lines added after
// the snapshot is taken are untouched by RemoveSubmitted.
func (c *Cart) Snapshot() Snapshot {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	return Snapshot{lines: lines}
}

// RemoveSubmitted removes exactly the units captured in snap, one cart line
// per snapshot line, matched by item id. Units added since the snapshot
// survive.
func (c *Cart) RemoveSubmitted(snap Snapshot) {
	pending := make(map[string]int, len(snap.lines))
	for _, l := range snap.lines {
		pending[l.Item.ID]++
	}

	kept := c.lines[:0]
	for _, l := range c.lines {
		if pending[l.Item.ID] > 0 {
			pending[l.Item.ID]--
			continue
		}
		kept = append(kept, l)
	}
	c.lines = kept
}

// Snapshot is an immutable copy of cart contents taken at submission time.
type Snapshot struct {
	lines []Line
}

// Empty reports whether the snapshot captured no lines.
func (s Snapshot) Empty() bool {
	return len(s.lines) == 0
}

// Total sums the snapshot's line prices.
func (s Snapshot) Total() money.Amount {
	var total money.Amount
	for _, l := range s.lines {
		total += l.Price
	}
	return total
}

// ItemIDs returns one id per snapshot line, in order.
func (s Snapshot) ItemIDs() []string {
	ids := make([]string, len(s.lines))
	for i, l := range s.lines {
		ids[i] = l.Item.ID
	}
	return ids
}

// Lines returns the captured lines in order.
func (s Snapshot) Lines() []Line {
	return s.lines
}
