// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/internal/httputil"
	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

var fixedNow = time.Date(2024, 6, 28, 16, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		HTTP: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test", MaxRetries: 1},
		Log:  zerolog.Nop(),
		Now:  func() time.Time { return fixedNow },
	}
}

// overrideBaseURLs points every adapter endpoint at tsURL and returns a
// function that restores the originals.
func overrideBaseURLs(tsURL string) func() {
	oldChart, oldQuote := yahooChartBase, yahooQuoteBase
	oldNews, oldRSS := newsAPIBase, yahooRSSBase
	oldTickers, oldSubs, oldArchives := secTickersURL, secSubmissionsBase, secArchivesBase

	yahooChartBase = tsURL + "/chart"
	yahooQuoteBase = tsURL + "/quote"
	newsAPIBase = tsURL + "/news"
	yahooRSSBase = tsURL + "/rss"
	secTickersURL = tsURL + "/files/company_tickers.json"
	secSubmissionsBase = tsURL + "/submissions"
	secArchivesBase = tsURL + "/archives"

	return func() {
		yahooChartBase, yahooQuoteBase = oldChart, oldQuote
		newsAPIBase, yahooRSSBase = oldNews, oldRSS
		secTickersURL, secSubmissionsBase, secArchivesBase = oldTickers, oldSubs, oldArchives
	}
}

func liveController(t *testing.T, creds types.Credentials) *mode.Controller {
	t.Helper()
	mc, err := mode.New(types.ModeLive, "", creds)
	require.NoError(t, err)
	return mc
}

func fixtureController(t *testing.T, files map[string]string) *mode.Controller {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	mc, err := mode.New(types.ModeFixture, dir, types.Credentials{})
	require.NoError(t, err)
	return mc
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// chartBody builds a Yahoo chart response with n closes starting at start.
func chartBody(n int, start float64) map[string]any {
	ts := make([]int64, n)
	closes := make([]any, n)
	base := fixedNow.AddDate(0, 0, -n)
	for i := 0; i < n; i++ {
		ts[i] = base.AddDate(0, 0, i).Unix()
		closes[i] = start + float64(i)
	}
	return map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":       map[string]any{"currency": "USD"},
				"timestamp":  ts,
				"indicators": map[string]any{"quote": []any{map[string]any{"close": closes}}},
			}},
			"error": nil,
		},
	}
}

func filingHTML(form string) string {
	body := strings.Repeat("Revenue increased driven by commercial growth and strong government demand. ", 5)
	return fmt.Sprintf(`<html><head><meta name="filing-form" content="%s"></head><body>
<p>Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations</p>
<p>%s</p>
<p>Item 7A. Quantitative and Qualitative Disclosures About Market Risk</p>
</body></html>`, form, body)
}

func rssBody(titles ...string) string {
	var items strings.Builder
	for i, title := range titles {
		fmt.Fprintf(&items, `<item><title>%s</title><link>https://finance.yahoo.com/news/%d</link><description>Strong growth expected.</description><pubDate>Thu, 27 Jun 2024 12:00:00 GMT</pubDate></item>`, title, i)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Yahoo! Finance: PLTR News</title>` + items.String() + `</channel></rss>`
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}
