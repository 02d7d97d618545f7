package wapi

import (
	"context"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wapi/config"
)

func staticAddress(name, value string) config.IPAddress {
	return config.IPAddress{
		Name:    name,
		Sources: []config.IPSource{{Type: "static", Source: value}},
	}
}

// deadSource is a simple source pointed at a server that is already gone,
// so its lookup fails at run time rather than at construction.
func deadSource(t *testing.T) config.IPSource {
	t.Helper()
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	return config.IPSource{Type: "simple", Source: url, Config: map[string]any{"type": "ipv4"}}
}

func TestResolverStatic(t *testing.T) {
	r, err := NewResolver(context.Background(), []config.IPAddress{staticAddress("wan4", "203.0.113.10")})
	require.NoError(t, err)

	addrs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]netip.Addr{"wan4": netip.MustParseAddr("203.0.113.10")}, addrs)
}

func TestResolverFallsBackAcrossSources(t *testing.T) {
	r, err := NewResolver(context.Background(), []config.IPAddress{{
		Name: "wan4",
		Sources: []config.IPSource{
			deadSource(t),
			{Type: "static", Source: "203.0.113.10"},
		},
	}})
	require.NoError(t, err)

	addrs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("203.0.113.10"), addrs["wan4"])
}

func TestResolverAppliesTransformers(t *testing.T) {
	r, err := NewResolver(context.Background(), []config.IPAddress{{
		Name:    "lan6",
		Sources: []config.IPSource{{Type: "static", Source: "2001:db8:1:2:aaaa:bbbb:cccc:dddd"}},
		Transformers: []config.IPTransformer{{
			Type:   "mask_rewrite",
			Config: map[string]any{"mask": "64", "overwrite": "::1:2:3:4"},
		}},
	}})
	require.NoError(t, err)

	addrs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("2001:db8:1:2:1:2:3:4"), addrs["lan6"])
}

func TestResolverIsolatesNames(t *testing.T) {
	r, err := NewResolver(context.Background(), []config.IPAddress{
		staticAddress("wan4", "203.0.113.10"),
		{Name: "wan6", Sources: []config.IPSource{deadSource(t)}},
	})
	require.NoError(t, err)

	addrs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
	assert.Contains(t, addrs, "wan4")
	assert.NotContains(t, addrs, "wan6", "a failed chain must leave its name unset")
}

func TestResolverNothingResolved(t *testing.T) {
	r, err := NewResolver(context.Background(), []config.IPAddress{
		{Name: "wan4", Sources: []config.IPSource{deadSource(t)}},
	})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background())
	assert.Error(t, err)
}

func TestResolverNoAddressesConfigured(t *testing.T) {
	r, err := NewResolver(context.Background(), nil)
	require.NoError(t, err)

	addrs, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestNewResolverRejectsUnknownTypes(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		_, err := NewResolver(context.Background(), []config.IPAddress{{
			Name:    "wan4",
			Sources: []config.IPSource{{Type: "carrier-pigeon"}},
		}})
		assert.ErrorContains(t, err, "unknown source type")
	})

	t.Run("transformer", func(t *testing.T) {
		_, err := NewResolver(context.Background(), []config.IPAddress{{
			Name:         "wan4",
			Sources:      []config.IPSource{{Type: "static", Source: "203.0.113.10"}},
			Transformers: []config.IPTransformer{{Type: "rot13"}},
		}})
		assert.ErrorContains(t, err, "unknown transformer type")
	})
}
