// Package order drives order submission and the order history mirror.
// Submission is a strict state machine: exactly one order in flight at a
// time, and an empty cart never reaches the wire.
package order

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"foodapp/internal/api"
	"foodapp/internal/cart"
)

// Phase is the submission state.
type Phase string

const (
	Idle       Phase = "idle"
	Submitting Phase = "submitting"
	Succeeded  Phase = "succeeded"
	Failed     Phase = "failed"
)

// ErrEmptyCart rejects submission before any remote call is made.
var ErrEmptyCart = errors.New("order: cart is empty")

// ErrBusy rejects a second submission while one is already in flight.
var ErrBusy = errors.New("order: submission already in progress")

// Coordinator owns submission state and the history mirror. Mutating methods
// are called from the update loop; Place and FetchHistory are pure remote
// calls for background commands.
type Coordinator struct {
	client *api.Client
	log    zerolog.Logger

	phase     Phase
	lastOrder api.Order
	lastErr   error
	history   []api.Order
}

func NewCoordinator(client *api.Client, log zerolog.Logger) *Coordinator {
	return &Coordinator{client: client, log: log, phase: Idle}
}

// Phase returns the current submission state.
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// LastOrder returns the most recently confirmed order; zero value before the
// first success.
func (c *Coordinator) LastOrder() api.Order {
	return c.lastOrder
}

// LastErr returns the error behind a Failed phase.
func (c *Coordinator) LastErr() error {
	return c.lastErr
}

// Start validates the snapshot and moves to Submitting, returning the wire
// request. ErrEmptyCart and ErrBusy leave the phase untouched and mean no
// remote call may be made.
func (c *Coordinator) Start(snap cart.Snapshot) (api.OrderRequest, error) {
	if snap.Empty() {
		return api.OrderRequest{}, ErrEmptyCart
	}
	if c.phase == Submitting {
		return api.OrderRequest{}, ErrBusy
	}
	c.phase = Submitting
	c.lastErr = nil
	return api.OrderRequest{
		TotalPrice: snap.Total().Plain(),
		Items:      snap.ItemIDs(),
	}, nil
}

// Place submits the order. Pure remote call; route the result back through
// Finish or Fail.
func (c *Coordinator) Place(ctx context.Context, req api.OrderRequest) (api.Order, error) {
	return c.client.CreateOrder(ctx, req)
}

// Finish records a confirmed order and returns to a settled state.
func (c *Coordinator) Finish(o api.Order) {
	c.phase = Succeeded
	c.lastOrder = o
	c.lastErr = nil
	c.log.Info().Str("order", o.ID).Str("total", o.TotalPrice).Msg("order placed")
}

// Fail records a submission failure. The cart is untouched so the user can
// retry.
func (c *Coordinator) Fail(err error) {
	c.phase = Failed
	c.lastErr = err
	c.log.Warn().Err(err).Msg("order submission failed")
}

// Reset dismisses a settled Succeeded or Failed phase. No-op mid-flight.
func (c *Coordinator) Reset() {
	if c.phase == Submitting {
		return
	}
	c.phase = Idle
	c.lastErr = nil
}

// FetchHistory loads the customer's past orders, newest first. Pure remote
// call; pair with SetHistory.
func (c *Coordinator) FetchHistory(ctx context.Context, customerID string) ([]api.Order, error) {
	return c.client.Orders(ctx, customerID)
}

// SetHistory replaces the history mirror wholesale.
func (c *Coordinator) SetHistory(orders []api.Order) {
	c.history = orders
}

// History returns the mirrored order history.
func (c *Coordinator) History() []api.Order {
	return c.history
}

// ClearHistory drops the mirror, used on logout.
func (c *Coordinator) ClearHistory() {
	c.history = nil
}
