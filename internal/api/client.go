// Package api is the client for the backend's REST contract: auth endpoints,
// entity collections, and the health probe. All transport failures are
// converted to typed errors here; nothing above this package sees a raw
// net/http error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config is read once at startup; the client never re-reads it.
type Config struct {
	BaseURL string
	AppID   string
	Timeout time.Duration
}

// Client performs backend calls. Safe for use from concurrent UI commands:
// the bearer token is the only mutable field and is guarded.
type Client struct {
	base  string
	appID string
	hc    *http.Client
	log   zerolog.Logger

	mu    sync.RWMutex
	token string
}

// New validates the base URL and builds a client.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  base,
		appID: strings.TrimSpace(cfg.AppID),
		hc:    &http.Client{Timeout: timeout},
		log:   log,
	}, nil
}

// SetToken installs (or clears, with "") the session bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token. The caller is responsible
// for the follow-up identity fetch.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "login"
	body := map[string]string{"email": email, "password": password}
	var out loginResponse
	if err := c.post(ctx, KindAuth, op, "/api/auth/users/login", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", wrap(KindAuth, op, fmt.Errorf("empty token in response"))
	}
	return out.Token, nil
}

// Logout invalidates the session server-side. Best effort; callers drop the
// local session regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, KindAuth, "logout", "/api/auth/users/logout", struct{}{}, nil)
}

// Me fetches the identity behind the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	const op = "me"
	var u User
	if err := c.get(ctx, KindAuth, op, "/api/auth/users/me", &u); err != nil {
		return User{}, err
	}
	if err := u.validate(); err != nil {
		return User{}, wrap(KindAuth, op, err)
	}
	return u, nil
}

// Restaurants fetches the full restaurant collection with the owner relation
// included. Order is server-determined and kept as received.
func (c *Client) Restaurants(ctx context.Context) ([]Restaurant, error) {
	const op = "restaurants"
	q := url.Values{}
	q.Set("relations", "owner")
	var env listEnvelope[Restaurant]
	if err := c.get(ctx, KindFetch, op, "/api/collections/restaurants?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	for _, r := range env.Data {
		if err := r.validate(); err != nil {
			return nil, wrap(KindFetch, op, err)
		}
	}
	return env.Data, nil
}

// MenuItems fetches the menu of a single restaurant.
func (c *Client) MenuItems(ctx context.Context, restaurantID string) ([]MenuItem, error) {
	const op = "menuItems"
	if restaurantID == "" {
		return nil, wrap(KindFetch, op, fmt.Errorf("restaurant id is required"))
	}
	q := url.Values{}
	q.Set("filter[restaurant]", restaurantID)
	var env listEnvelope[MenuItem]
	if err := c.get(ctx, KindFetch, op, "/api/collections/menu-items?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	for _, m := range env.Data {
		if err := m.validate(); err != nil {
			return nil, wrap(KindFetch, op, err)
		}
	}
	return env.Data, nil
}

// CreateOrder submits an order and returns the server-created record.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	const op = "createOrder"
	var out Order
	if err := c.post(ctx, KindSubmission, op, "/api/collections/orders", req, &out); err != nil {
		return Order{}, err
	}
	if err := out.validate(); err != nil {
		return Order{}, wrap(KindSubmission, op, err)
	}
	return out, nil
}

// Orders fetches a customer's order history, item details included, newest
// first.
func (c *Client) Orders(ctx context.Context, customerID string) ([]Order, error) {
	const op = "orders"
	if customerID == "" {
		return nil, wrap(KindFetch, op, fmt.Errorf("customer id is required"))
	}
	q := url.Values{}
	q.Set("filter[customer]", customerID)
	q.Set("relations", "items")
	q.Set("orderBy", "createdAt")
	q.Set("order", "DESC")
	var env listEnvelope[Order]
	if err := c.get(ctx, KindFetch, op, "/api/collections/orders?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	for _, o := range env.Data {
		if err := o.validate(); err != nil {
			return nil, wrap(KindFetch, op, err)
		}
	}
	return env.Data, nil
}

// Health reports backend reachability. Any successful response counts,
// regardless of payload.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, KindConnectivity, "health", http.MethodGet, "/health", nil, nil)
}

func (c *Client) get(ctx context.Context, kind Kind, op, path string, out any) error {
	return c.do(ctx, kind, op, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, kind Kind, op, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return wrap(kind, op, err)
	}
	return c.do(ctx, kind, op, http.MethodPost, path, buf, out)
}

func (c *Client) do(ctx context.Context, kind Kind, op, method, path string, body *bytes.Buffer, out any) error {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body.Bytes())
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return wrap(kind, op, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		// the request never produced a response: that is a connectivity
		// failure no matter which operation asked
		c.log.Debug().Str("op", op).Err(err).Msg("backend call failed")
		return wrap(KindConnectivity, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend rejected call")
		return wrap(kind, op, fmt.Errorf("%s %s: %s", method, path, resp.Status))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return wrap(kind, op, fmt.Errorf("decode response: %w", err))
		}
	}
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend call ok")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
