package providers

import (
	"errors"
	"fmt"
	"testing"

	cfapi "github.com/cloudflare/cloudflare-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCloudflare(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
	}{
		{"authentication", &cfapi.AuthenticationError{}, KindAuth},
		{"authorization", &cfapi.AuthorizationError{}, KindAuth},
		{"ratelimit", &cfapi.RatelimitError{}, KindRateLimited},
		{"not found", &cfapi.NotFoundError{}, KindNotFound},
		{"service", &cfapi.ServiceError{}, KindTransport},
		{"wrapped", fmt.Errorf("listing records: %w", &cfapi.RatelimitError{}), KindRateLimited},
		{"plain", errors.New("connection reset"), KindTransport},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			classified := classifyCloudflare("fetch", c.err)
			assert.Equal(t, c.kind, classified.Kind)
			assert.Equal(t, "cloudflare", classified.Provider)
		})
	}
}

func TestCloudflareZoneResource(t *testing.T) {
	d := &cloudflareClient{zones: map[string]string{"example.org": "zone123"}}

	t.Run("apex", func(t *testing.T) {
		rc, err := d.zoneResource("example.org")
		require.NoError(t, err)
		assert.Equal(t, "zone123", rc.Identifier)
	})

	t.Run("subdomain", func(t *testing.T) {
		rc, err := d.zoneResource("home.example.org")
		require.NoError(t, err)
		assert.Equal(t, "zone123", rc.Identifier)
	})

	t.Run("suffix without dot boundary", func(t *testing.T) {
		_, err := d.zoneResource("badexample.org")
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindUnsupported, kind)
	})

	t.Run("foreign domain", func(t *testing.T) {
		_, err := d.zoneResource("example.com")
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindUnsupported, kind)
	})
}

func TestCloudflareEffectiveTTL(t *testing.T) {
	d := &cloudflareClient{ttl: 600}
	assert.Equal(t, 300, d.effectiveTTL(Record{TTL: 300}))
	assert.Equal(t, 600, d.effectiveTTL(Record{}))

	// TTL 1 means automatic at this provider.
	bare := &cloudflareClient{}
	assert.Equal(t, 1, bare.effectiveTTL(Record{}))
}
