package sources

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"reflect"

	"wapi/log"
)

type transportDialer func(ctx context.Context, network, addr string) (net.Conn, error)

// wrapClientDialer returns a copy of client whose transport dials through
// wrap. The original client is left untouched; only transports of the
// standard *http.Transport shape can be wrapped.
func wrapClientDialer(ctx context.Context, client *http.Client, wrap func(upstream transportDialer) transportDialer) (*http.Client, error) {
	if client == nil {
		client = http.DefaultClient
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	transport, ok := base.(*http.Transport)
	if !ok {
		log.S(ctx).Errorw("cannot wrap custom http.Client transport",
			"transport_type", reflect.TypeOf(base).String())
		return nil, fmt.Errorf("cannot wrap custom http.Client transport")
	}

	transport = transport.Clone()
	transport.DialContext = wrap(transport.DialContext)
	if transport.DialTLSContext != nil {
		transport.DialTLSContext = wrap(transport.DialTLSContext)
	}

	wrapped := *client
	wrapped.Transport = transport
	return &wrapped, nil
}
