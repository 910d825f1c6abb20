// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-brief/pkg/types"
)

// MaxBodyBytes bounds how much of a response body Get reads. A larger
// body is malformed rather than truncated.
var MaxBodyBytes int64 = 32 << 20

// Client issues GET requests on behalf of one adapter.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int

	// Limiter paces requests when set.
	Limiter *rate.Limiter

	Log zerolog.Logger
}

// NewClient returns a Client using cfg's timeout and user agent.
func NewClient(cfg types.HTTPConfig, log zerolog.Logger) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Log:        log,
	}
}

// Get fetches url and returns the body of a 2xx response. Failures are
// AdapterErrors: throttling after retries is rate_limited, other non-2xx
// statuses are http_status, transport failures are network, and context
// expiry is timeout or cancelled.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, types.AdapterErr(ctxCode(ctx, err), fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.AdapterErr(types.CodeNetwork, fmt.Errorf("creating request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	c.Log.Debug().Str("url", url).Msg("GET")
	resp, err := DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, types.AdapterErr(ctxCode(ctx, err), fmt.Errorf("GET %s: %w", url, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.AdapterErrorf(types.CodeRateLimited, "GET %s: HTTP %d after retries", url, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.AdapterErrorf(types.CodeNotFound, "GET %s: HTTP %d", url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, types.AdapterErrorf(types.CodeHTTPStatus, "GET %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, types.AdapterErr(ctxCode(ctx, err), fmt.Errorf("reading response body: %w", err))
	}
	if int64(len(body)) > MaxBodyBytes {
		return nil, types.AdapterErrorf(types.CodeMalformed, "GET %s: body too large: more than %d bytes", url, MaxBodyBytes)
	}
	return body, nil
}

// GetJSON fetches url and decodes the body into v. A body that does not
// decode is malformed.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, v any) error {
	body, err := c.Get(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return types.AdapterErr(types.CodeMalformed, fmt.Errorf("decoding %s: %w", url, err))
	}
	return nil
}

func ctxCode(ctx context.Context, err error) types.ErrorCode {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return types.CodeTimeout
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return types.CodeTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return types.CodeCancelled
	default:
		return types.CodeNetwork
	}
}
