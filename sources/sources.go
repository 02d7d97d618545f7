// Package sources discovers the machine's current addresses. Each source
// type answers one question: what address should managed records point at
// right now.
package sources

import (
	"context"
	"net/netip"

	"wapi/config"
)

type Interface interface {
	Lookup(ctx context.Context) (netip.Addr, error)
	Typename() string
}

var Sources = map[string]func(ctx context.Context, source config.IPSource) (Interface, error){
	"simple":    newSimple,
	"interface": newInterface,
	"static":    newStatic,
}
