package sources

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wapi/config"
)

func TestStaticLookup(t *testing.T) {
	s, err := newStatic(context.Background(), config.IPSource{Type: "static", Source: "203.0.113.10"})
	require.NoError(t, err)
	assert.Equal(t, "static", s.Typename())

	addr, err := s.Lookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("203.0.113.10"), addr)
}

func TestStaticUnmapsMappedV4(t *testing.T) {
	s, err := newStatic(context.Background(), config.IPSource{Type: "static", Source: "::ffff:203.0.113.10"})
	require.NoError(t, err)

	addr, err := s.Lookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("203.0.113.10"), addr)
	assert.True(t, addr.Is4())
}

func TestNewStaticRejectsGarbage(t *testing.T) {
	_, err := newStatic(context.Background(), config.IPSource{Type: "static", Source: "not-an-address"})
	assert.ErrorContains(t, err, "bad static address")
}
