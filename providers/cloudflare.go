package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cfapi "github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

// ManagedComment is attached to records this tool creates at Cloudflare, so
// they can be told apart from hand-made ones in the dashboard.
var ManagedComment = "managed by wapi"

// cloudflareClient drives zones through the official API client. Zone
// identifiers are resolved once at construction; per-call state is rebuilt
// from the context so the HTTP client and logger always follow the caller.
type cloudflareClient struct {
	token string
	zones map[string]string
	ttl   int
}

type cfLogger struct {
	ctx context.Context
}

func (l *cfLogger) Printf(format string, v ...interface{}) {
	log.S(l.ctx).Debugf(format, v...)
}

func newCloudflare(ctx context.Context, account config.Account) (Interface, error) {
	const op = "authenticate"
	ctx = log.SWith(ctx, "provider", "cloudflare")

	var creds config.CloudflareCredentials
	if err := common.WeakDecodeMap(account.Credentials, &creds); err != nil {
		return nil, authError("cloudflare", op, fmt.Errorf("bad credentials: %w", err))
	}
	if creds.APIToken == "" {
		return nil, authError("cloudflare", op, errors.New("api_token is required"))
	}
	var settings config.CloudflareSettings
	if err := common.WeakDecodeMap(account.Settings, &settings); err != nil {
		return nil, unsupportedError("cloudflare", op, fmt.Errorf("bad settings: %w", err))
	}
	if len(settings.ZoneNames) == 0 {
		return nil, unsupportedError("cloudflare", op, errors.New("zone_names must list at least one zone"))
	}

	d := &cloudflareClient{
		token: creds.APIToken,
		zones: map[string]string{},
		ttl:   account.TTL,
	}

	api, err := d.getAPI(ctx)
	if err != nil {
		return nil, err
	}

	// Resolving zone names doubles as the credential check: a bad token
	// fails here, before any record is touched.
	for _, name := range settings.ZoneNames {
		id, err := api.ZoneIDByName(name)
		if err != nil {
			log.S(ctx).Errorw("failed get zone id", "zone", name, zap.Error(err))
			if strings.Contains(err.Error(), "zone could not be found") {
				return nil, unsupportedError("cloudflare", op, fmt.Errorf("zone %q not present on this account", name))
			}
			return nil, classifyCloudflare(op, err)
		}
		d.zones[name] = id
	}

	return d, nil
}

func (d *cloudflareClient) getAPI(ctx context.Context) (*cfapi.API, error) {
	api, err := cfapi.NewWithAPIToken(d.token,
		cfapi.HTTPClient(common.HTTPClient(ctx)),
		cfapi.UsingLogger(&cfLogger{ctx: ctx}))
	if err != nil {
		log.S(ctx).Errorw("failed create cloudflare API", zap.Error(err))
		return nil, authError("cloudflare", "authenticate", err)
	}
	return api, nil
}

func (d *cloudflareClient) zoneResource(domain string) (*cfapi.ResourceContainer, error) {
	for zone, id := range d.zones {
		if domain == zone || strings.HasSuffix(domain, "."+zone) {
			return cfapi.ZoneIdentifier(id), nil
		}
	}
	return nil, unsupportedError("cloudflare", "resolve_zone",
		fmt.Errorf("domain %q does not belong to any configured zone", domain))
}

// find locates the single record matching r, or reports KindNotFound.
func (d *cloudflareClient) find(ctx context.Context, r Record) (*cfapi.DNSRecord, *cfapi.ResourceContainer, error) {
	const op = "fetch"

	api, err := d.getAPI(ctx)
	if err != nil {
		return nil, nil, err
	}
	zoneRc, err := d.zoneResource(r.Domain)
	if err != nil {
		return nil, nil, err
	}

	records, info, err := api.ListDNSRecords(ctx, zoneRc, cfapi.ListDNSRecordsParams{
		Type: r.Type.String(),
		Name: r.Domain,
	})
	if err != nil {
		log.S(ctx).Errorw("failed list records", "domain", r.Domain, zap.Error(err))
		return nil, nil, classifyCloudflare(op, err)
	}
	if info.HasMorePages() {
		log.S(ctx).Warnw("partial result, ignore remaining",
			"count", len(records), "total", info.Count, "pages", info.TotalPages)
	}

	switch len(records) {
	case 0:
		return nil, nil, notFoundError("cloudflare", op)
	case 1:
		return &records[0], zoneRc, nil
	default:
		return nil, nil, conflictError("cloudflare", op,
			fmt.Errorf("%d records exist for %s %s, expected at most one", len(records), r.Type, r.Domain))
	}
}

func (d *cloudflareClient) FetchCurrent(ctx context.Context, r Record) (string, error) {
	record, _, err := d.find(ctx, r)
	if err != nil {
		return "", err
	}
	return record.Content, nil
}

func (d *cloudflareClient) Update(ctx context.Context, r Record, addr string) (Outcome, error) {
	ctx = log.SWith(ctx, "provider", "cloudflare", "domain", r.Domain, "ns_type", r.Type)

	record, zoneRc, err := d.find(ctx, r)
	if err != nil && !IsNotFound(err) {
		return Unchanged, err
	}

	api, apiErr := d.getAPI(ctx)
	if apiErr != nil {
		return Unchanged, apiErr
	}

	if err == nil {
		if record.Content == addr {
			return Unchanged, nil
		}
		log.S(ctx).Debugw("updating record", "id", record.ID)
		_, err = api.UpdateDNSRecord(ctx, zoneRc, cfapi.UpdateDNSRecordParams{
			ID:      record.ID,
			Type:    r.Type.String(),
			Name:    r.Domain,
			Content: addr,
			TTL:     d.effectiveTTL(r),
		})
		if err != nil {
			log.S(ctx).Warnw("failed update record", zap.Error(err))
			return Unchanged, classifyCloudflare("update", err)
		}
		return Applied, nil
	}

	zoneRc, err = d.zoneResource(r.Domain)
	if err != nil {
		return Unchanged, err
	}

	log.S(ctx).Debugw("creating record")
	_, err = api.CreateDNSRecord(ctx, zoneRc, cfapi.CreateDNSRecordParams{
		Type:    r.Type.String(),
		Name:    r.Domain,
		Content: addr,
		TTL:     d.effectiveTTL(r),
		Proxied: cfapi.BoolPtr(false),
		Comment: ManagedComment,
	})
	if err != nil {
		log.S(ctx).Warnw("failed create record", zap.Error(err))
		return Unchanged, classifyCloudflare("create", err)
	}
	return Created, nil
}

// Cloudflare treats TTL 1 as automatic.
func (d *cloudflareClient) effectiveTTL(r Record) int {
	if r.TTL > 0 {
		return r.TTL
	}
	if d.ttl > 0 {
		return d.ttl
	}
	return 1
}

func classifyCloudflare(op string, err error) *Error {
	var (
		authnErr *cfapi.AuthenticationError
		authzErr *cfapi.AuthorizationError
		rateErr  *cfapi.RatelimitError
		nfErr    *cfapi.NotFoundError
		svcErr   *cfapi.ServiceError
	)
	switch {
	case errors.As(err, &authnErr), errors.As(err, &authzErr):
		return authError("cloudflare", op, err)
	case errors.As(err, &rateErr):
		return rateLimitedError("cloudflare", op, 0, err)
	case errors.As(err, &nfErr):
		return notFoundError("cloudflare", op)
	case errors.As(err, &svcErr):
		return transportError("cloudflare", op, err)
	default:
		return transportError("cloudflare", op, err)
	}
}
