package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wapi/common"
	"wapi/config"
)

func godaddyAccount(baseURL string) config.Account {
	return config.Account{
		Name:     "godaddy-main",
		Provider: "godaddy",
		TTL:      600,
		Credentials: map[string]string{
			"api_key":    "gd_key",
			"api_secret": "gd_secret",
		},
		Settings: map[string]any{"base_url": baseURL},
	}
}

func assertSSOKey(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "sso-key gd_key:gd_secret", r.Header.Get("Authorization"))
	assert.NotContains(t, r.URL.String(), "gd_key")
	assert.NotContains(t, r.URL.String(), "gd_secret")
}

func newTestGoDaddy(t *testing.T, mux *http.ServeMux) Interface {
	t.Helper()

	mux.HandleFunc("/v1/domains", func(w http.ResponseWriter, r *http.Request) {
		assertSSOKey(t, r)
		w.Write([]byte(`[{"domain": "example.org"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g, err := newGoDaddy(context.Background(), godaddyAccount(srv.URL))
	require.NoError(t, err)
	return g
}

func TestGoDaddyAuthenticate(t *testing.T) {
	checked := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains", func(w http.ResponseWriter, r *http.Request) {
		assertSSOKey(t, r)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		checked = true
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newGoDaddy(context.Background(), godaddyAccount(srv.URL))
	require.NoError(t, err)
	assert.True(t, checked, "construction must verify credentials eagerly")
}

func TestGoDaddyAuthenticateRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": "UNABLE_TO_AUTHENTICATE", "message": "Unauthorized"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newGoDaddy(context.Background(), godaddyAccount(srv.URL))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, kind)
}

func TestGoDaddyMissingCredentials(t *testing.T) {
	account := godaddyAccount("http://unused.invalid")
	account.Credentials = map[string]string{"api_key": "gd_key"}

	_, err := newGoDaddy(context.Background(), account)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, kind)
}

func TestGoDaddyFetchCurrent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		assertSSOKey(t, r)
		w.Write([]byte(`[{"data": "203.0.113.10", "name": "home", "ttl": 600, "type": "A"}]`))
	})
	g := newTestGoDaddy(t, mux)

	value, err := g.FetchCurrent(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA})
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", value)
}

func TestGoDaddyFetchCurrentApex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/AAAA/@", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data": "2001:db8::1", "name": "@", "ttl": 600, "type": "AAAA"}]`))
	})
	g := newTestGoDaddy(t, mux)

	value, err := g.FetchCurrent(context.Background(), Record{Domain: "example.org", Type: common.RecordAAAA})
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", value)
}

func TestGoDaddyFetchCurrentNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	g := newTestGoDaddy(t, mux)

	_, err := g.FetchCurrent(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA})
	assert.True(t, IsNotFound(err))
}

func TestGoDaddyUpdateUnchanged(t *testing.T) {
	written := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			written = true
			return
		}
		w.Write([]byte(`[{"data": "203.0.113.10"}]`))
	})
	g := newTestGoDaddy(t, mux)

	outcome, err := g.Update(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA}, "203.0.113.10")
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.False(t, written, "matching value must not trigger a write")
}

func TestGoDaddyUpdateEdits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.Write([]byte(`[{"data": "203.0.113.10"}]`))
			return
		}
		assertSSOKey(t, r)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var records []godaddyRecord
		require.NoError(t, json.Unmarshal(data, &records))
		require.Len(t, records, 1)
		assert.Equal(t, "198.51.100.20", records[0].Data)
		assert.Equal(t, 600, records[0].TTL)
		w.Write([]byte(`{}`))
	})
	g := newTestGoDaddy(t, mux)

	outcome, err := g.Update(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA}, "198.51.100.20")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
}

func TestGoDaddyUpdateCreates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`{}`))
	})
	g := newTestGoDaddy(t, mux)

	outcome, err := g.Update(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA}, "198.51.100.20")
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)
}

func TestGoDaddyTTLFloor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/domains/example.org/records/A/home", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.Write([]byte(`[]`))
			return
		}
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var records []godaddyRecord
		require.NoError(t, json.Unmarshal(data, &records))
		require.Len(t, records, 1)
		assert.Equal(t, 600, records[0].TTL, "TTL below the API minimum must be raised")
		w.Write([]byte(`{}`))
	})
	g := newTestGoDaddy(t, mux)

	_, err := g.Update(context.Background(), Record{Domain: "home.example.org", Type: common.RecordA, TTL: 120}, "198.51.100.20")
	require.NoError(t, err)
}
