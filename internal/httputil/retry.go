// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by source adapters:
// retry with backoff on throttling responses, request pacing, and
// classification of transport and status failures into adapter error codes.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = time.Second

// MaxRetryAfter caps a server-supplied Retry-After delay.
var MaxRetryAfter = 30 * time.Second

const defaultMaxRetries = 3

// DoWithRetry executes an HTTP request and retries on HTTP 429 and 503 with
// exponential backoff starting at RetryBaseDelay. A Retry-After header in
// seconds replaces the computed delay, capped at MaxRetryAfter.
//
// When maxRetries is 0 the default (3) is used. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if d, ok := retryAfter(resp); ok {
			backoff = d
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d, true
}
