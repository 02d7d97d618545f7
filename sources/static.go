package sources

import (
	"context"
	"fmt"
	"net/netip"

	"wapi/config"
	"wapi/log"
)

// static always answers with a fixed address. Meant for records that point
// somewhere constant, and as a terminal fallback after flakier sources.
type static struct {
	addr netip.Addr
}

func (s *static) Typename() string {
	return "static"
}

func (s *static) Lookup(ctx context.Context) (netip.Addr, error) {
	return s.addr, nil
}

func newStatic(ctx context.Context, config config.IPSource) (Interface, error) {
	ctx = log.SWith(ctx, "type", "static")

	addr, err := netip.ParseAddr(config.Source)
	if err != nil {
		log.S(ctx).Errorw("bad static address", "source", config.Source)
		return nil, fmt.Errorf("bad static address %q: %w", config.Source, err)
	}

	return &static{addr: addr.Unmap()}, nil
}
