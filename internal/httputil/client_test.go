// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-brief/pkg/types"
)

func TestClientGet(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode types.ErrorCode
	}{
		{name: "ok", status: http.StatusOK, body: `{"a":1}`},
		{name: "not found", status: http.StatusNotFound, wantCode: types.CodeNotFound},
		{name: "server error", status: http.StatusBadGateway, wantCode: types.CodeHTTPStatus},
		{name: "throttled", status: http.StatusTooManyRequests, wantCode: types.CodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := NewClient(types.HTTPConfig{Timeout: time.Second, UserAgent: "test-agent", MaxRetries: 1}, zerolog.Nop())
			body, err := c.Get(context.Background(), ts.URL, nil)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, types.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
			assert.Equal(t, "test-agent", gotUA)
		})
	}
}

func TestClientGetHeaderOverridesUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{Timeout: time.Second, UserAgent: "default"}, zerolog.Nop())
	_, err := c.Get(context.Background(), ts.URL, http.Header{"User-Agent": {"Jane Doe jane@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe jane@example.com", gotUA)
}

func TestClientGetJSONMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{Timeout: time.Second}, zerolog.Nop())
	var v map[string]any
	err := c.GetJSON(context.Background(), ts.URL, nil, &v)
	require.Error(t, err)
	assert.Equal(t, types.CodeMalformed, types.CodeOf(err))
}

func TestClientGetBodyLimit(t *testing.T) {
	old := MaxBodyBytes
	MaxBodyBytes = 16
	defer func() { MaxBodyBytes = old }()

	tests := []struct {
		name     string
		body     string
		wantCode types.ErrorCode
	}{
		{name: "at limit", body: strings.Repeat("a", 16)},
		{name: "over limit", body: strings.Repeat("a", 17), wantCode: types.CodeMalformed},
		{name: "far over limit", body: strings.Repeat("a", 4096), wantCode: types.CodeMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := NewClient(types.HTTPConfig{Timeout: time.Second}, zerolog.Nop())
			body, err := c.Get(context.Background(), ts.URL, nil)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, types.CodeOf(err))
				assert.Contains(t, err.Error(), "body too large")
				assert.Nil(t, body)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestClientGetTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(types.HTTPConfig{Timeout: 5 * time.Second}, zerolog.Nop())
	_, err := c.Get(ctx, ts.URL, nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeTimeout, types.CodeOf(err))
}

func TestClientLimiterCancelled(t *testing.T) {
	c := NewClient(types.HTTPConfig{Timeout: time.Second}, zerolog.Nop())
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	c.Limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "http://127.0.0.1:1", nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeCancelled, types.CodeOf(err))
}
