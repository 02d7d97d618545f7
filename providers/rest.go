package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"wapi/common"
)

// Responses past this size are cut off. DNS management APIs answer in a few
// kilobytes; anything bigger is not an answer we can use.
const maxResponseBytes = 1 << 20

// restClient is the shared plumbing for providers spoken to over plain JSON
// REST. It issues requests through the context's HTTP client and translates
// transport failures and non-2xx statuses into classified errors.
type restClient struct {
	provider string
	base     string
	headers  map[string]string
}

// doJSON sends one request and decodes the 2xx response body into out when
// out is non-nil.
func (c *restClient) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return transportError(c.provider, op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return transportError(c.provider, op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := common.HTTPClient(ctx).Do(req)
	if err != nil {
		return transportError(c.provider, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(c.provider, op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.classifyStatus(op, resp.StatusCode, resp.Header, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return transportError(c.provider, op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func (c *restClient) classifyStatus(op string, status int, header http.Header, body []byte) *Error {
	cause := fmt.Errorf("http %d: %s", status, trimBody(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return authError(c.provider, op, cause)
	case status == http.StatusNotFound:
		return notFoundError(c.provider, op)
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return rateLimitedError(c.provider, op, parseRetryAfter(header.Get("Retry-After")), cause)
	case status >= http.StatusInternalServerError:
		return transportError(c.provider, op, cause)
	default:
		// Remaining 4xx: the request was understood and refused. The
		// remote state or our view of it is wrong, not the pipe.
		return conflictError(c.provider, op, cause)
	}
}

// parseRetryAfter understands both forms of the Retry-After header. Absent
// or malformed values yield zero and the caller falls back to its own
// backoff schedule.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
