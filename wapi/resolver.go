package wapi

import (
	"context"
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"wapi/config"
	"wapi/log"
	"wapi/sources"
	"wapi/transformers"
)

type addrResolver struct {
	sources      []sources.Interface
	transformers []transformers.Interface
}

func (r *addrResolver) resolve(ctx context.Context) (netip.Addr, error) {
	var lastErr error
Next:
	for _, source := range r.sources {
		addr, err := source.Lookup(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		for _, transformer := range r.transformers {
			addr, err = transformer.Transform(ctx, addr)
			if err != nil {
				lastErr = err
				continue Next
			}
		}

		log.S(ctx).Infow("resolved address", log.IP(addr), "source_type", source.Typename())
		return addr, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no sources configured")
	}
	log.S(ctx).Errorw("all sources failed, unable to resolve address", zap.Error(lastErr))
	return netip.Addr{}, fmt.Errorf("all sources failed: %w", lastErr)
}

// Resolver turns the configured named addresses into concrete values, one
// source chain per name.
type Resolver struct {
	list map[string]*addrResolver
}

// Resolve runs every source chain. Addresses fail independently: a name
// whose chain failed is simply absent from the result, and its records
// fail on their own later. The error is non-nil only when nothing at all
// resolved.
func (r *Resolver) Resolve(ctx context.Context) (map[string]netip.Addr, error) {
	ctx = log.SWith(ctx, log.Stage("resolve"))

	result := map[string]netip.Addr{}
	for name, res := range r.list {
		addr, err := res.resolve(log.SWith(ctx, "name", name))
		if err != nil {
			continue
		}
		result[name] = addr
	}

	if len(result) == 0 && len(r.list) > 0 {
		return nil, fmt.Errorf("no address could be resolved")
	}
	return result, nil
}

func NewResolver(ctx context.Context, c []config.IPAddress) (*Resolver, error) {
	r := &Resolver{list: map[string]*addrResolver{}}

	for _, addr := range c {
		res := &addrResolver{}

		for _, s := range addr.Sources {
			ctx := log.SWith(ctx, log.Stage("init:source"), "name", addr.Name, "type", s.Type)
			create, ok := sources.Sources[s.Type]
			if !ok {
				log.S(ctx).Errorw("unknown source type")
				return nil, fmt.Errorf("unknown source type %q", s.Type)
			}

			source, err := create(ctx, s)
			if err != nil {
				return nil, fmt.Errorf("failed creating source: %w", err)
			}
			res.sources = append(res.sources, source)
		}

		for _, s := range addr.Transformers {
			ctx := log.SWith(ctx, log.Stage("init:transformer"), "name", addr.Name, "type", s.Type)
			create, ok := transformers.Transformers[s.Type]
			if !ok {
				log.S(ctx).Errorw("unknown transformer type")
				return nil, fmt.Errorf("unknown transformer type %q", s.Type)
			}

			transformer, err := create(ctx, s)
			if err != nil {
				return nil, fmt.Errorf("failed creating transformer: %w", err)
			}
			res.transformers = append(res.transformers, transformer)
		}

		r.list[addr.Name] = res
	}

	return r, nil
}
