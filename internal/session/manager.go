package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"foodapp/internal/api"
)

// State is the session lifecycle phase. The UI stays in Authenticating until
// the startup restore settles one way or the other.
type State string

const (
	Authenticating State = "authenticating"
	Anonymous      State = "anonymous"
	Authenticated  State = "authenticated"
	RestoreFailed  State = "restore_failed"
)

// Manager drives login, logout, and startup restore. Its methods are called
// from UI commands, so internal state is guarded.
type Manager struct {
	client *api.Client
	store  *Store
	log    zerolog.Logger

	mu    sync.Mutex
	state State
	user  api.User
}

func NewManager(client *api.Client, store *Store, log zerolog.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		log:    log,
		state:  Authenticating,
	}
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the authenticated identity; zero value unless Authenticated.
func (m *Manager) User() api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Anonymous reports whether the session has settled without an identity.
// RestoreFailed counts: a failed restore behaves as logged-out everywhere
// except the status line.
func (m *Manager) Anonymous() bool {
	switch m.State() {
	case Anonymous, RestoreFailed:
		return true
	}
	return false
}

// Restore attempts to resume a persisted session. No stored token settles to
// Anonymous; a rejected or unverifiable token settles to RestoreFailed. The
// stored token is deleted only when the backend rejected it outright, so a
// transient outage does not destroy a valid session.
func (m *Manager) Restore(ctx context.Context) State {
	token, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			m.log.Warn().Err(err).Msg("session restore: unreadable token, discarding")
			_ = m.store.Delete()
		}
		return m.settle(Anonymous, api.User{})
	}

	m.client.SetToken(token)
	user, err := m.client.Me(ctx)
	if err != nil {
		m.client.SetToken("")
		if api.KindOf(err) == api.KindAuth {
			m.log.Info().Msg("session restore: token rejected, discarding")
			_ = m.store.Delete()
		} else {
			m.log.Warn().Err(err).Msg("session restore: identity check failed")
		}
		return m.settle(RestoreFailed, api.User{})
	}

	m.log.Info().Str("user", user.ID).Msg("session restored")
	return m.settle(Authenticated, user)
}

// Login authenticates and fetches the identity behind the new token. The
// session only becomes Authenticated once both steps succeed; a token whose
// identity cannot be fetched is discarded.
func (m *Manager) Login(ctx context.Context, email, password string) (api.User, error) {
	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		return api.User{}, err
	}

	m.client.SetToken(token)
	user, err := m.client.Me(ctx)
	if err != nil {
		m.client.SetToken("")
		return api.User{}, err
	}

	if err := m.store.Save(token); err != nil {
		m.log.Warn().Err(err).Msg("session: token not persisted, login valid for this run only")
	}
	m.settle(Authenticated, user)
	m.log.Info().Str("user", user.ID).Msg("logged in")
	return user, nil
}

// Logout drops the session unconditionally. The remote invalidation is best
// effort; local state is Anonymous when this returns no matter what the
// backend said.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("remote logout failed, dropping session anyway")
	}
	m.client.SetToken("")
	if err := m.store.Delete(); err != nil {
		m.log.Warn().Err(err).Msg("could not delete stored token")
	}
	m.settle(Anonymous, api.User{})
	m.log.Info().Msg("logged out")
}

func (m *Manager) settle(state State, user api.User) State {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.mu.Unlock()
	return state
}
