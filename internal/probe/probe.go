// Package probe answers one question: is the backend reachable right now.
package probe

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"foodapp/internal/api"
)

// State is the result of the most recent reachability check.
type State struct {
	Connected bool
	LastError error
	CheckedAt time.Time
}

// Probe wraps the backend health endpoint with a bounded timeout so a hung
// check can never stall the caller longer than the budget.
type Probe struct {
	client  *api.Client
	timeout time.Duration
	log     zerolog.Logger
}

func New(client *api.Client, timeout time.Duration, log zerolog.Logger) *Probe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Probe{client: client, timeout: timeout, log: log}
}

// Check performs one reachability probe. Any error means unreachable; the
// caller decides what to degrade.
func (p *Probe) Check(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.client.Health(ctx)
	state := State{
		Connected: err == nil,
		LastError: err,
		CheckedAt: time.Now(),
	}
	if err != nil {
		p.log.Debug().Err(err).Msg("backend unreachable")
	}
	return state
}
