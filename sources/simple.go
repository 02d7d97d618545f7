package sources

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"time"

	"go.uber.org/zap"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

const maxReadSimple = 4 * 1024

// Loose candidate patterns; netip.ParseAddr is the real validator. The
// IPv6 pattern also swallows mixed v6/v4 notation.
var ipRegex = [...]*regexp.Regexp{
	common.IPv4: regexp.MustCompile(`(?:[0-9]{1,3}\.){3}[0-9]{1,3}`),
	common.IPv6: regexp.MustCompile(`(?:[0-9A-Fa-f]{0,4}:){2,7}[0-9A-Fa-f:.]*[0-9A-Fa-f]`),
}

// simple asks an HTTP echo endpoint what address this machine appears
// from. The connection is pinned to the wanted family, so the endpoint
// necessarily answers with an address of that family.
type simple struct {
	config.IPSourceSimpleConfig `mapstructure:",squash"`

	url string
}

func (s *simple) Typename() string {
	return "simple"
}

func (s *simple) wrapDialer(upstream transportDialer) transportDialer {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		switch s.Type {
		case common.IPv4:
			network += "4"
		case common.IPv6:
			network += "6"
		}
		return upstream(ctx, network, addr)
	}
}

func (s *simple) Lookup(ctx context.Context) (result netip.Addr, err error) {
	timeout := time.Duration(s.Timeout)
	client, err := wrapClientDialer(ctx, common.HTTPClient(ctx), s.wrapDialer)
	if err != nil {
		return netip.Addr{}, err
	}

	ctx = log.SWith(ctx, "url", s.url, "family", s.Type, "timeout", timeout)
	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	if s.Timeout > 0 {
		tCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ctx = tCtx
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		log.S(ctx).Errorw("new request failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("new request failed: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.S(ctx).Warnw("connection failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadSimple))
	if err != nil {
		log.S(ctx).Warnw("receiving response failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("failed receiving response: %w", err)
	}

	ipData := ipRegex[s.Type].Find(data)
	if ipData == nil {
		log.S(ctx).Warnw("no IP found in response", log.ByteField("body", data))
		return netip.Addr{}, fmt.Errorf("no IP found in response")
	}

	ipString := string(ipData)
	addr, err := netip.ParseAddr(ipString)
	if err != nil {
		log.S(ctx).Warnw("found bad IP", "ip", ipString, zap.Error(err))
		return netip.Addr{}, fmt.Errorf("found bad IP %q: %w", ipString, err)
	}

	switch {
	case addr.Zone() != "":
		log.S(ctx).Warnw("found zone in IP", "ip", ipString, "zone", addr.Zone())
		return netip.Addr{}, fmt.Errorf("unsupported: found zone in IP")

	case s.Type == common.IPv4 && (addr.Is4() || addr.Is4In6()):
		return addr.Unmap(), nil

	case s.Type == common.IPv6 && addr.Is6() && !addr.Is4In6():
		return addr, nil

	default:
		log.S(ctx).Errorw("mismatched IP family", "ip", ipString, log.Internal)
		return netip.Addr{}, fmt.Errorf("internal error: mismatched IP family")
	}
}

func newSimple(ctx context.Context, config config.IPSource) (Interface, error) {
	ctx = log.SWith(ctx, "type", "simple")

	s := &simple{url: config.Source}
	if err := common.WeakDecodeMap(config.Config, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", config.Config)
		return nil, fmt.Errorf("bad config: %w", err)
	}
	if s.url == "" {
		log.S(ctx).Errorw("missing source url")
		return nil, fmt.Errorf("missing source url")
	}

	return s, nil
}
