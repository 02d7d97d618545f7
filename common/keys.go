package common

import (
	"context"
	"net/http"
)

type httpClientKey struct{}

// HTTPClientKey carries an *http.Client override for outbound calls.
// Tests use it to point providers and sources at local servers.
var HTTPClientKey httpClientKey

func WithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, HTTPClientKey, client)
}

// HTTPClient returns the client carried by ctx, or http.DefaultClient.
func HTTPClient(ctx context.Context) *http.Client {
	if c, _ := ctx.Value(HTTPClientKey).(*http.Client); c != nil {
		return c
	}
	return http.DefaultClient
}
