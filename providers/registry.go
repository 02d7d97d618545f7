package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wapi/config"
	"wapi/log"
)

// Registry resolves account names to ready provider clients. Construction
// is lazy and memoized: the first lookup runs the factory, which
// authenticates eagerly; later lookups reuse the client. Credential and
// configuration failures are memoized too, so a broken account fails fast
// on every cycle instead of hammering the provider; transient construction
// failures are retried on the next lookup.
type Registry struct {
	table map[string]Spec

	mu       sync.Mutex
	accounts map[string]config.Account
	clients  map[string]*Client
}

func NewRegistry(accounts []config.Account) *Registry {
	return NewRegistryWith(Providers, accounts)
}

func NewRegistryWith(table map[string]Spec, accounts []config.Account) *Registry {
	m := make(map[string]config.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID()] = a
	}
	return &Registry{
		table:    table,
		accounts: m,
		clients:  map[string]*Client{},
	}
}

// Client is a constructed provider bound to one account. All calls through
// it are serialized: providers rate limit per credential, so concurrent
// records sharing an account must not race each other on the wire. Clients
// of different accounts proceed in parallel.
type Client struct {
	account  string
	provider string
	caps     Capabilities
	factory  Factory
	config   config.Account

	mu   sync.Mutex
	impl Interface
	err  error
}

func (c *Client) Account() string {
	return c.account
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) Capabilities() Capabilities {
	return c.caps
}

func (c *Client) FetchCurrent(ctx context.Context, r Record) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return "", err
	}
	return c.impl.FetchCurrent(ctx, r)
}

func (c *Client) Update(ctx context.Context, r Record, addr string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return Unchanged, err
	}
	return c.impl.Update(ctx, r, addr)
}

// connectLocked runs the factory on first use. The call mutex doubles as
// the construction guard, so concurrent first calls do not authenticate
// twice.
func (c *Client) connectLocked(ctx context.Context) error {
	if c.impl != nil {
		return nil
	}
	if c.err != nil {
		return c.err
	}

	ctx = log.SWith(ctx, "account", c.account, "provider", c.provider)
	impl, err := c.factory(ctx, c.config)
	if err != nil {
		if !IsRetryable(err) {
			c.err = err
		}
		log.S(ctx).Errorw("provider setup failed", zap.Error(err))
		return err
	}
	c.impl = impl
	log.S(ctx).Infow("provider ready")
	return nil
}

// Client returns the memoized client for the named account. The returned
// client may not have authenticated yet; that happens on its first call.
func (r *Registry) Client(account string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[account]; ok {
		return c, nil
	}

	acc, ok := r.accounts[account]
	if !ok {
		return nil, &Error{
			Kind:     KindUnknownProvider,
			Provider: account,
			Op:       "resolve",
			Err:      errors.New("account is not configured"),
		}
	}
	spec, ok := r.table[acc.Provider]
	if !ok {
		return nil, &Error{
			Kind:     KindUnknownProvider,
			Provider: acc.Provider,
			Op:       "resolve",
			Err:      fmt.Errorf("no implementation for provider %q", acc.Provider),
		}
	}

	c := &Client{
		account:  account,
		provider: acc.Provider,
		caps:     spec.Caps,
		factory:  spec.New,
		config:   acc,
	}
	r.clients[account] = c
	return c, nil
}

// Validate cross-checks every record against the capability table without
// constructing clients, so impossible combinations surface at startup
// rather than mid-cycle.
func (r *Registry) Validate(records []config.RecordSpec) error {
	for _, rec := range records {
		acc, ok := r.accounts[rec.Account]
		if !ok {
			return &Error{
				Kind:     KindUnknownProvider,
				Provider: rec.Account,
				Op:       "validate",
				Err:      fmt.Errorf("record %s references unknown account %q", rec.Domain, rec.Account),
			}
		}
		spec, ok := r.table[acc.Provider]
		if !ok {
			return &Error{
				Kind:     KindUnknownProvider,
				Provider: acc.Provider,
				Op:       "validate",
				Err:      fmt.Errorf("no implementation for provider %q", acc.Provider),
			}
		}
		if !spec.Caps.SupportsType(rec.Type) {
			return unsupportedError(acc.Provider, "validate",
				fmt.Errorf("%s records are not supported (record %s)", rec.Type, rec.Domain))
		}
	}
	return nil
}
