package providers

import (
	"context"

	"wapi/common"
	"wapi/config"
)

// Interface is the contract every DNS backend satisfies. Implementations
// authenticate eagerly in their factory; a constructed client is ready to
// serve calls. Clients need not be safe for concurrent use: the registry
// serializes calls per account.
type Interface interface {
	// FetchCurrent returns the address the provider currently holds for r,
	// or a KindNotFound error when the record does not exist remotely.
	FetchCurrent(ctx context.Context, r Record) (string, error)

	// Update makes the provider hold addr for r. It is idempotent: when
	// the remote value already equals addr it reports Unchanged without
	// issuing a write. A missing record is created where the provider
	// supports creation.
	Update(ctx context.Context, r Record, addr string) (Outcome, error)
}

// Record identifies one remote DNS record.
type Record struct {
	// Domain is the fully qualified record name, e.g. "home.example.org".
	Domain string
	Type   common.RecordType
	// TTL in seconds. Zero means the account or provider default applies.
	TTL int
}

// Outcome reports what an Update actually did remotely.
type Outcome int

const (
	// Unchanged: the remote value already matched; nothing was written.
	Unchanged Outcome = iota
	// Applied: an existing record was rewritten to the new value.
	Applied
	// Created: the record did not exist remotely and was created.
	Created
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Applied:
		return "applied"
	case Created:
		return "created"
	default:
		return "invalid"
	}
}

// Capabilities declares what a provider implementation can do. Combinations
// outside it are rejected with KindUnsupported before any update runs.
type Capabilities struct {
	Types     []common.RecordType
	CanCreate bool
}

func (c Capabilities) SupportsType(t common.RecordType) bool {
	for _, have := range c.Types {
		if have == t {
			return true
		}
	}
	return false
}

// Factory builds a ready client for one account, authenticating eagerly.
type Factory func(ctx context.Context, account config.Account) (Interface, error)

// Spec ties a provider implementation to its declared capabilities.
type Spec struct {
	New  Factory
	Caps Capabilities
}

var bothFamilies = []common.RecordType{common.RecordA, common.RecordAAAA}

// Providers maps provider identifiers, as written in account configuration,
// to their implementations.
var Providers = map[string]Spec{
	"porkbun": {
		New:  newPorkbun,
		Caps: Capabilities{Types: bothFamilies, CanCreate: true},
	},
	"cloudflare": {
		New:  newCloudflare,
		Caps: Capabilities{Types: bothFamilies, CanCreate: true},
	},
	"godaddy": {
		New:  newGoDaddy,
		Caps: Capabilities{Types: bothFamilies, CanCreate: true},
	},
}
