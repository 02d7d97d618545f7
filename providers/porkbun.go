package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wapi/common"
	"wapi/config"
	"wapi/log"
)

const porkbunBaseURL = "https://api.porkbun.com/api/json/v3"

// Porkbun speaks JSON over POST for every operation and expects the API key
// pair inside each request body. Records are addressed by name and type, so
// no remote identifiers need to be carried between calls.
type porkbun struct {
	rest restClient
	auth porkbunAuth
	ttl  int
}

type porkbunAuth struct {
	APIKey       string `json:"apikey"`
	SecretAPIKey string `json:"secretapikey"`
}

type porkbunStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type porkbunPingResponse struct {
	porkbunStatus
	YourIP string `json:"yourIp"`
}

type porkbunRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     string `json:"ttl"`
}

type porkbunRetrieveResponse struct {
	porkbunStatus
	Records []porkbunRecord `json:"records"`
}

type porkbunEditRequest struct {
	porkbunAuth
	Content string `json:"content"`
	TTL     string `json:"ttl,omitempty"`
}

type porkbunCreateRequest struct {
	porkbunAuth
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     string `json:"ttl,omitempty"`
}

func newPorkbun(ctx context.Context, account config.Account) (Interface, error) {
	const op = "authenticate"

	var creds config.PorkbunCredentials
	if err := common.WeakDecodeMap(account.Credentials, &creds); err != nil {
		return nil, authError("porkbun", op, fmt.Errorf("bad credentials: %w", err))
	}
	if creds.APIKey == "" || creds.SecretAPIKey == "" {
		return nil, authError("porkbun", op, errors.New("api_key and secret_api_key are required"))
	}
	var settings config.PorkbunSettings
	if err := common.WeakDecodeMap(account.Settings, &settings); err != nil {
		return nil, unsupportedError("porkbun", op, fmt.Errorf("bad settings: %w", err))
	}

	base := settings.BaseURL
	if base == "" {
		base = porkbunBaseURL
	}
	p := &porkbun{
		rest: restClient{provider: "porkbun", base: base},
		auth: porkbunAuth{APIKey: creds.APIKey, SecretAPIKey: creds.SecretAPIKey},
		ttl:  account.TTL,
	}

	var pong porkbunPingResponse
	if err := p.rest.doJSON(ctx, op, http.MethodPost, "/ping", p.auth, &pong); err != nil {
		return nil, err
	}
	if err := p.statusError(op, pong.porkbunStatus); err != nil {
		return nil, err
	}
	log.S(ctx).Debugw("porkbun credentials accepted", "seen_ip", pong.YourIP)
	return p, nil
}

// statusError handles porkbun's habit of answering 200 with an error payload.
func (p *porkbun) statusError(op string, s porkbunStatus) error {
	if s.Status == "SUCCESS" {
		return nil
	}
	cause := fmt.Errorf("api status %q: %s", s.Status, s.Message)
	if op == "authenticate" || strings.Contains(strings.ToLower(s.Message), "api key") {
		return authError("porkbun", op, cause)
	}
	return conflictError("porkbun", op, cause)
}

func (p *porkbun) retrievePath(root, sub string, t common.RecordType) string {
	path := "/dns/retrieveByNameType/" + root + "/" + t.String()
	if sub != "" {
		path += "/" + sub
	}
	return path
}

func (p *porkbun) editPath(root, sub string, t common.RecordType) string {
	path := "/dns/editByNameType/" + root + "/" + t.String()
	if sub != "" {
		path += "/" + sub
	}
	return path
}

func (p *porkbun) FetchCurrent(ctx context.Context, r Record) (string, error) {
	const op = "fetch"

	root, sub, err := splitDomain(r.Domain)
	if err != nil {
		return "", unsupportedError("porkbun", op, err)
	}

	var out porkbunRetrieveResponse
	if err := p.rest.doJSON(ctx, op, http.MethodPost, p.retrievePath(root, sub, r.Type), p.auth, &out); err != nil {
		return "", err
	}
	if err := p.statusError(op, out.porkbunStatus); err != nil {
		return "", err
	}

	switch len(out.Records) {
	case 0:
		return "", notFoundError("porkbun", op)
	case 1:
		return out.Records[0].Content, nil
	default:
		return "", conflictError("porkbun", op,
			fmt.Errorf("%d records exist for %s %s, expected at most one", len(out.Records), r.Type, r.Domain))
	}
}

func (p *porkbun) Update(ctx context.Context, r Record, addr string) (Outcome, error) {
	current, err := p.FetchCurrent(ctx, r)
	if err != nil && !IsNotFound(err) {
		return Unchanged, err
	}

	root, sub, splitErr := splitDomain(r.Domain)
	if splitErr != nil {
		return Unchanged, unsupportedError("porkbun", "update", splitErr)
	}
	ttl := p.effectiveTTL(r)

	if err == nil {
		if current == addr {
			return Unchanged, nil
		}
		const op = "edit"
		body := porkbunEditRequest{porkbunAuth: p.auth, Content: addr, TTL: ttl}
		var out porkbunStatus
		if err := p.rest.doJSON(ctx, op, http.MethodPost, p.editPath(root, sub, r.Type), body, &out); err != nil {
			return Unchanged, err
		}
		if err := p.statusError(op, out); err != nil {
			return Unchanged, err
		}
		return Applied, nil
	}

	const op = "create"
	body := porkbunCreateRequest{
		porkbunAuth: p.auth,
		Name:        sub,
		Type:        r.Type.String(),
		Content:     addr,
		TTL:         ttl,
	}
	var out porkbunStatus
	if err := p.rest.doJSON(ctx, op, http.MethodPost, "/dns/create/"+root, body, &out); err != nil {
		return Unchanged, err
	}
	if err := p.statusError(op, out); err != nil {
		return Unchanged, err
	}
	return Created, nil
}

// effectiveTTL resolves the record's TTL against the account default.
// Porkbun expects TTL as a string and clamps anything below 600 itself.
func (p *porkbun) effectiveTTL(r Record) string {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}
	if ttl <= 0 {
		return ""
	}
	return strconv.Itoa(ttl)
}
