package transformers

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"go.uber.org/zap"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

// maskRewrite keeps the masked bits of the incoming address and takes the
// rest from the overwrite address. With a prefix-length mask this swaps the
// host part while the discovered prefix stays, which is how a delegated
// IPv6 prefix gets a stable suffix.
type maskRewrite struct {
	mask      []byte
	overwrite []byte
}

func (t *maskRewrite) Transform(ctx context.Context, addr netip.Addr) (netip.Addr, error) {
	ctx = log.SWith(ctx, "overwrite", net.IP(t.overwrite), "mask", net.IP(t.mask))

	in := addr.AsSlice()
	if len(in) != len(t.overwrite) {
		log.S(ctx).Warnw("mismatched IP family", log.IP(addr))
		return netip.Addr{}, fmt.Errorf("mismatched IP family")
	}

	out := make([]byte, len(in))
	for i := range in {
		out[i] = (in[i] & t.mask[i]) | (t.overwrite[i] & ^t.mask[i])
	}

	result, ok := netip.AddrFromSlice(out)
	if !ok {
		log.S(ctx).Errorw("rewrite produced invalid address", log.Internal)
		return netip.Addr{}, fmt.Errorf("internal error: rewrite produced invalid address")
	}

	log.S(ctx).Debugw("transformed ip", log.IP(result))
	return result, nil
}

func newMaskRewrite(ctx context.Context, conf config.IPTransformer) (Interface, error) {
	ctx = log.SWith(ctx, "type", "mask_rewrite")

	var c config.IPTransformerMaskRewriteConfig
	if err := common.WeakDecodeMap(conf.Config, &c); err != nil {
		log.S(ctx).Errorw("bad conf", zap.Error(err), "conf", conf.Config)
		return nil, fmt.Errorf("bad conf: %w", err)
	}
	if !c.Overwrite.IsValid() {
		log.S(ctx).Errorw("bad conf: missing overwrite address")
		return nil, fmt.Errorf("bad conf: missing overwrite address")
	}

	t := &maskRewrite{overwrite: c.Overwrite.AsSlice()}

	if cidr, err := strconv.ParseUint(c.Mask, 10, 8); err == nil {
		bits := len(t.overwrite) * 8
		if cidr > uint64(bits) {
			log.S(ctx).Errorw("bad conf: CIDR out of range", "overwrite", c.Overwrite, "cidr", cidr)
			return nil, fmt.Errorf("bad conf: CIDR out of range")
		}
		t.mask = net.CIDRMask(int(cidr), bits)
	} else {
		mask, err := netip.ParseAddr(c.Mask)
		if err != nil {
			log.S(ctx).Errorw("bad conf: bad mask", zap.Error(err), "mask", c.Mask)
			return nil, fmt.Errorf("bad conf: bad mask: %w", err)
		}

		t.mask = mask.AsSlice()
		if len(t.mask) != len(t.overwrite) {
			log.S(ctx).Errorw("mask and overwrite have mismatched IP family", "mask", c.Mask, "overwrite", c.Overwrite)
			return nil, fmt.Errorf("bad conf: mismatched IP family")
		}
	}

	return t, nil
}
