package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDomain(t *testing.T) {
	cases := []struct {
		fqdn string
		root string
		sub  string
	}{
		{"home.example.org", "example.org", "home"},
		{"example.org", "example.org", ""},
		{"a.b.example.org", "example.org", "a.b"},
		{"home.example.co.uk", "example.co.uk", "home"},
		{"example.co.uk", "example.co.uk", ""},
		{"www.shop.com.au", "shop.com.au", "www"},
		{"Example.ORG.", "example.org", ""},
		{"deep.sub.example.co.uk", "example.co.uk", "deep.sub"},
		// "co" is not a second-level label under .br in our table.
		{"x.co.br", "co.br", "x"},
	}
	for _, c := range cases {
		t.Run(c.fqdn, func(t *testing.T) {
			root, sub, err := splitDomain(c.fqdn)
			require.NoError(t, err)
			assert.Equal(t, c.root, root)
			assert.Equal(t, c.sub, sub)
		})
	}
}

func TestSplitDomainRejects(t *testing.T) {
	for _, fqdn := range []string{"", "localhost", "bad..name", ".example.org"} {
		t.Run(fqdn, func(t *testing.T) {
			_, _, err := splitDomain(fqdn)
			assert.Error(t, err)
		})
	}
}
