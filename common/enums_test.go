package common

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyUnmarshalText(t *testing.T) {
	cases := map[string]Family{
		"4": IPv4, "v4": IPv4, "IPv4": IPv4,
		"6": IPv6, "v6": IPv6, "ipv6": IPv6,
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			var f Family
			require.NoError(t, f.UnmarshalText([]byte(text)))
			assert.Equal(t, want, f)
		})
	}

	var f Family
	assert.Error(t, f.UnmarshalText([]byte("both")))
}

func TestRecordTypeUnmarshalText(t *testing.T) {
	var rt RecordType

	require.NoError(t, rt.UnmarshalText([]byte("a")))
	assert.Equal(t, RecordA, rt)
	assert.Equal(t, "A", rt.String())
	assert.Equal(t, IPv4, rt.Family())

	require.NoError(t, rt.UnmarshalText([]byte("AAAA")))
	assert.Equal(t, RecordAAAA, rt)
	assert.Equal(t, "AAAA", rt.String())
	assert.Equal(t, IPv6, rt.Family())

	assert.Error(t, rt.UnmarshalText([]byte("txt")))
	assert.Error(t, rt.UnmarshalText([]byte("")))
}

func TestRecordTypeMatches(t *testing.T) {
	v4 := netip.MustParseAddr("203.0.113.10")
	v4in6 := netip.MustParseAddr("::ffff:203.0.113.10")
	v6 := netip.MustParseAddr("2001:db8::1")

	assert.True(t, RecordA.Matches(v4))
	assert.True(t, RecordA.Matches(v4in6))
	assert.False(t, RecordA.Matches(v6))

	assert.True(t, RecordAAAA.Matches(v6))
	assert.False(t, RecordAAAA.Matches(v4))
	assert.False(t, RecordAAAA.Matches(v4in6))

	assert.False(t, RecordA.Matches(netip.Addr{}))
	assert.False(t, RecordAAAA.Matches(netip.Addr{}))
}

func TestIPSelectModeUnmarshalText(t *testing.T) {
	cases := map[string]IPSelectMode{
		"first":    SelectFirst,
		"shortest": SelectShortest,
		"LAST":     SelectLast,
	}
	for text, want := range cases {
		var m IPSelectMode
		require.NoError(t, m.UnmarshalText([]byte(text)))
		assert.Equal(t, want, m)
	}

	var m IPSelectMode
	assert.Error(t, m.UnmarshalText([]byte("random")))
}

func TestIPFilterFlag(t *testing.T) {
	var f IPFilterFlag
	require.NoError(t, f.UnmarshalText([]byte("private")))
	assert.Equal(t, FlagPrivate, f)

	require.NoError(t, f.UnmarshalText([]byte("non-global-unicast")))
	assert.Equal(t, FlagNonGlobalUnicast, f)

	combined := FlagPrivate | FlagNonGlobalUnicast
	assert.True(t, combined.Match(FlagPrivate))
	assert.True(t, combined.Match(FlagNonGlobalUnicast))
	assert.False(t, FlagPrivate.Match(FlagNonGlobalUnicast))

	assert.Error(t, f.UnmarshalText([]byte("loopback")))
}
