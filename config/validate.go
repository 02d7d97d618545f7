package config

import "fmt"

// Validate checks cross-references between accounts, addresses and records.
// Credential contents are not inspected here; each provider factory rejects
// its own malformed credentials.
func (c *Config) Validate() error {
	accounts := map[string]struct{}{}
	for i, a := range c.Account {
		if a.Provider == "" {
			return fmt.Errorf("account %d: provider is required", i)
		}
		id := a.ID()
		if _, dup := accounts[id]; dup {
			return fmt.Errorf("account %q: duplicate account name", id)
		}
		accounts[id] = struct{}{}
	}

	addresses := map[string]struct{}{}
	for i, a := range c.Address {
		if a.Name == "" {
			return fmt.Errorf("address %d: name is required", i)
		}
		if _, dup := addresses[a.Name]; dup {
			return fmt.Errorf("address %q: duplicate address name", a.Name)
		}
		if len(a.Sources) == 0 {
			return fmt.Errorf("address %q: at least one source is required", a.Name)
		}
		addresses[a.Name] = struct{}{}
	}

	for i, r := range c.Record {
		if r.Domain == "" {
			return fmt.Errorf("record %d: domain is required", i)
		}
		if r.Account == "" {
			return fmt.Errorf("record %q: account is required", r.Domain)
		}
		if _, ok := accounts[r.Account]; !ok {
			return fmt.Errorf("record %q: unknown account %q", r.Domain, r.Account)
		}
		if r.Address == "" {
			return fmt.Errorf("record %q: address is required", r.Domain)
		}
		if _, ok := addresses[r.Address]; !ok {
			return fmt.Errorf("record %q: unknown address %q", r.Domain, r.Address)
		}
	}

	return nil
}
