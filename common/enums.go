package common

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f *Family) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "4", "v4", "ipv4":
		*f = IPv4
	case "6", "v6", "ipv6":
		*f = IPv6
	default:
		return fmt.Errorf("unknown IP family %q", string(b))
	}
	return nil
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// RecordType is the DNS record subtype a managed record keeps current.
type RecordType int

const (
	RecordA RecordType = iota
	RecordAAAA
)

func (t *RecordType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "a":
		*t = RecordA
	case "aaaa":
		*t = RecordAAAA
	default:
		return fmt.Errorf("unsupported record type %q", string(b))
	}
	return nil
}

func (t RecordType) String() string {
	switch t {
	case RecordA:
		return "A"
	case RecordAAAA:
		return "AAAA"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

func (t RecordType) Family() Family {
	if t == RecordAAAA {
		return IPv6
	}
	return IPv4
}

// Matches reports whether addr belongs to the address family t records hold.
func (t RecordType) Matches(addr netip.Addr) bool {
	switch t {
	case RecordA:
		return addr.Is4() || addr.Is4In6()
	case RecordAAAA:
		return addr.Is6() && !addr.Is4In6()
	}
	return false
}

type IPSelectMode int

const (
	SelectFirst IPSelectMode = iota
	SelectShortest
	SelectLast
)

func (m *IPSelectMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "first":
		*m = SelectFirst
	case "shortest":
		*m = SelectShortest
	case "last":
		*m = SelectLast
	default:
		return fmt.Errorf("unknown select mode %q", string(b))
	}
	return nil
}

func (m IPSelectMode) String() string {
	switch m {
	case SelectFirst:
		return "first"
	case SelectShortest:
		return "shortest"
	case SelectLast:
		return "last"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

type IPFilterFlag uint64

const (
	FlagNonGlobalUnicast IPFilterFlag = 1 << iota
	FlagPrivate
)

func (f *IPFilterFlag) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "nonglobalunicast", "non-global-unicast", "allow-non-global-unicast":
		*f = FlagNonGlobalUnicast
	case "private", "allow-private":
		*f = FlagPrivate
	default:
		return fmt.Errorf("unknown filter flag %q", string(b))
	}
	return nil
}

func (f IPFilterFlag) String() string {
	var names []string
	if f.Match(FlagNonGlobalUnicast) {
		names = append(names, "allow-non-global-unicast")
	}
	if f.Match(FlagPrivate) {
		names = append(names, "allow-private")
	}
	if len(names) == 0 {
		return strconv.FormatUint(uint64(f), 16)
	}
	return fmt.Sprintf("%x(%s)", uint64(f), strings.Join(names, ","))
}

func (f IPFilterFlag) Match(l IPFilterFlag) bool {
	return (f & l) != 0
}
