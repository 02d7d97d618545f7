package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

const godaddyBaseURL = "https://api.godaddy.com"

// GoDaddy addresses records by (domain, type, name) where the name is the
// subdomain part, "@" for the zone apex. PUT replaces the whole set for that
// address, so a missing record and an outdated record are written the same
// way; only the reported outcome differs.
type godaddy struct {
	rest restClient
	ttl  int
}

type godaddyRecord struct {
	Data string `json:"data"`
	Name string `json:"name,omitempty"`
	TTL  int    `json:"ttl,omitempty"`
	Type string `json:"type,omitempty"`
}

func newGoDaddy(ctx context.Context, account config.Account) (Interface, error) {
	const op = "authenticate"

	var creds config.GoDaddyCredentials
	if err := common.WeakDecodeMap(account.Credentials, &creds); err != nil {
		return nil, authError("godaddy", op, fmt.Errorf("bad credentials: %w", err))
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return nil, authError("godaddy", op, errors.New("api_key and api_secret are required"))
	}
	var settings config.GoDaddySettings
	if err := common.WeakDecodeMap(account.Settings, &settings); err != nil {
		return nil, unsupportedError("godaddy", op, fmt.Errorf("bad settings: %w", err))
	}

	base := settings.BaseURL
	if base == "" {
		base = godaddyBaseURL
	}
	g := &godaddy{
		rest: restClient{
			provider: "godaddy",
			base:     base,
			headers:  map[string]string{"Authorization": "sso-key " + creds.APIKey + ":" + creds.APISecret},
		},
		ttl: account.TTL,
	}

	// A cheap authenticated read proves the key pair before any record work.
	var domains []struct {
		Domain string `json:"domain"`
	}
	if err := g.rest.doJSON(ctx, op, http.MethodGet, "/v1/domains?limit=1", nil, &domains); err != nil {
		return nil, err
	}
	log.S(ctx).Debugw("godaddy credentials accepted")
	return g, nil
}

func (g *godaddy) recordPath(root, name string, t common.RecordType) string {
	return "/v1/domains/" + root + "/records/" + t.String() + "/" + url.PathEscape(name)
}

// recordName maps the subdomain part to GoDaddy's addressing, where the
// zone apex is written "@".
func recordName(sub string) string {
	if sub == "" {
		return "@"
	}
	return sub
}

func (g *godaddy) FetchCurrent(ctx context.Context, r Record) (string, error) {
	const op = "fetch"

	root, sub, err := splitDomain(r.Domain)
	if err != nil {
		return "", unsupportedError("godaddy", op, err)
	}

	var records []godaddyRecord
	if err := g.rest.doJSON(ctx, op, http.MethodGet, g.recordPath(root, recordName(sub), r.Type), nil, &records); err != nil {
		return "", err
	}

	switch len(records) {
	case 0:
		return "", notFoundError("godaddy", op)
	case 1:
		return records[0].Data, nil
	default:
		return "", conflictError("godaddy", op,
			fmt.Errorf("%d records exist for %s %s, expected at most one", len(records), r.Type, r.Domain))
	}
}

func (g *godaddy) Update(ctx context.Context, r Record, addr string) (Outcome, error) {
	current, err := g.FetchCurrent(ctx, r)
	if err != nil && !IsNotFound(err) {
		return Unchanged, err
	}
	if err == nil && current == addr {
		return Unchanged, nil
	}

	root, sub, splitErr := splitDomain(r.Domain)
	if splitErr != nil {
		return Unchanged, unsupportedError("godaddy", "update", splitErr)
	}

	op := "edit"
	outcome := Applied
	if IsNotFound(err) {
		op = "create"
		outcome = Created
	}

	body := []godaddyRecord{{Data: addr, TTL: g.effectiveTTL(r)}}
	if err := g.rest.doJSON(ctx, op, http.MethodPut, g.recordPath(root, recordName(sub), r.Type), body, nil); err != nil {
		return Unchanged, err
	}
	return outcome, nil
}

// GoDaddy rejects TTLs under 600.
func (g *godaddy) effectiveTTL(r Record) int {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = g.ttl
	}
	if ttl < 600 {
		ttl = 600
	}
	return ttl
}
