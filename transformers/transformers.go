// Package transformers rewrites resolved addresses before they reach any
// provider, e.g. to graft a known host part onto a discovered prefix.
package transformers

import (
	"context"
	"net/netip"

	"wapi/config"
)

type Interface interface {
	Transform(ctx context.Context, addr netip.Addr) (netip.Addr, error)
}

var Transformers = map[string]func(ctx context.Context, transformer config.IPTransformer) (Interface, error){
	"mask_rewrite": newMaskRewrite,
}
