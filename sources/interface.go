package sources

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"

	"go.uber.org/zap"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

// networkInterface reads addresses straight off a local interface. Only
// useful where the machine holds a public address itself; behind NAT the
// simple source is the one that sees the outside address.
type networkInterface struct {
	config.IPSourceInterfaceConfig `mapstructure:",squash"`

	iface string
	flag  common.IPFilterFlag

	// addrs lists the interface's prefixes. Swapped out in tests.
	addrs func(name string) ([]netip.Prefix, error)
}

func (s *networkInterface) Typename() string {
	return "interface"
}

func interfaceAddrs(name string) ([]netip.Prefix, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("find interface failed: %w", err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("get address failed: %w", err)
	}

	var prefixes []netip.Prefix
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok {
			continue
		}
		ones, _ := ipnet.Mask.Size()
		prefixes = append(prefixes, netip.PrefixFrom(ip.Unmap(), ones))
	}
	return prefixes, nil
}

// eligible applies the family, scope and prefix filters to one address.
func (s *networkInterface) eligible(ctx context.Context, ip netip.Addr) bool {
	if (s.Type == common.IPv4) != ip.Is4() {
		log.S(ctx).Debugw("skip address", "reason", "wrong family")
		return false
	}

	if !s.flag.Match(common.FlagNonGlobalUnicast) && !ip.IsGlobalUnicast() {
		log.S(ctx).Debugw("skip address", "reason", "not global unicast")
		return false
	}
	if !s.flag.Match(common.FlagPrivate) && ip.IsPrivate() {
		log.S(ctx).Debugw("skip address", "reason", "private")
		return false
	}

	for _, ex := range s.Exclude {
		if ex.Contains(ip) {
			log.S(ctx).Debugw("skip address", "reason", "excluded", "cidr", ex)
			return false
		}
	}
	if s.Include != nil && !slices.ContainsFunc(s.Include, func(p netip.Prefix) bool {
		return p.Contains(ip)
	}) {
		log.S(ctx).Debugw("skip address", "reason", "not included")
		return false
	}

	return true
}

func (s *networkInterface) Lookup(ctx context.Context) (netip.Addr, error) {
	ctx = log.SWith(ctx,
		"interface", s.iface, "family", s.Type, "select", s.Select, "flag", s.flag,
		zap.Stringers("exclude", s.Exclude), zap.Stringers("include", s.Include))

	prefixes, err := s.addrs(s.iface)
	if err != nil {
		log.S(ctx).Warnw("list interface addresses failed", zap.Error(err))
		return netip.Addr{}, err
	}

	var candidate []netip.Addr
	for _, prefix := range prefixes {
		ip := prefix.Addr()
		ctx := log.SWith(ctx, log.IP(ip))
		if s.eligible(ctx, ip) {
			log.S(ctx).Debugw("candidate address")
			candidate = append(candidate, ip)
		}
	}
	if len(candidate) == 0 {
		log.S(ctx).Warnw("no eligible IP found")
		return netip.Addr{}, fmt.Errorf("no eligible IP found")
	}

	switch s.Select {
	case common.SelectFirst:
		return candidate[0], nil
	case common.SelectLast:
		return candidate[len(candidate)-1], nil
	case common.SelectShortest:
		// Ties keep list order, same as a stable sort by length would.
		return slices.MinFunc(candidate, func(a, b netip.Addr) int {
			return len(a.String()) - len(b.String())
		}), nil
	default:
		log.S(ctx).Errorw("unexpected select mode", log.Internal)
		return netip.Addr{}, fmt.Errorf("internal error: unexpected select mode")
	}
}

func newInterface(ctx context.Context, config config.IPSource) (Interface, error) {
	ctx = log.SWith(ctx, "type", "interface")

	s := &networkInterface{iface: config.Source, addrs: interfaceAddrs}
	if err := common.WeakDecodeMap(config.Config, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", config.Config)
		return nil, fmt.Errorf("bad config: %w", err)
	}
	if s.iface == "" {
		log.S(ctx).Errorw("missing interface name")
		return nil, fmt.Errorf("missing interface name")
	}

	for _, f := range s.Flags {
		s.flag |= f
	}

	return s, nil
}
