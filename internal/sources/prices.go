// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-brief/internal/httputil"
	"github.com/pdiddy/research-brief/internal/indicator"
	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Overridden in tests.
var (
	yahooChartBase = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooQuoteBase = "https://finance.yahoo.com/quote"
)

const (
	priceLookback  = 120 * 24 * time.Hour
	maxPricePoints = 90

	// Yahoo rejects requests without a browser-like agent.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Prices fetches daily closes and derives indicators from them.
type Prices struct {
	client *httputil.Client
	opts   Options
	log    zerolog.Logger
}

// NewPrices returns the price adapter.
func NewPrices(opts Options) *Prices {
	log := opts.logger(types.KindPrice)
	return &Prices{client: httputil.NewClient(opts.HTTP, log), opts: opts, log: log}
}

func (p *Prices) Kind() types.SourceKind { return types.KindPrice }

// priceFixture is the on-disk form of a price fixture.
type priceFixture struct {
	Currency string             `json:"currency"`
	Series   []types.PricePoint `json:"series"`
}

// Fetch returns the trailing daily series and its indicators.
func (p *Prices) Fetch(ctx context.Context, ticker string, mc *mode.Controller) types.EvidenceItem {
	return guard(types.KindPrice, ticker, p.log, func() (types.Payload, []types.Citation, error) {
		var (
			currency string
			series   []types.PricePoint
			err      error
		)
		if mc.UseFixtures() {
			var fx priceFixture
			err = mc.FixtureJSON(types.KindPrice, ticker, &fx)
			currency, series = fx.Currency, fx.Series
		} else {
			currency, series, err = p.fetchChart(ctx, ticker)
		}
		if err != nil {
			return nil, nil, err
		}
		if len(series) == 0 {
			return nil, nil, types.AdapterErrorf(types.CodeNotFound, "no price data for %s", ticker)
		}

		payload := BuildPricePayload(currency, series)
		cite := types.Citation{
			Title:     fmt.Sprintf("%s historical prices", strings.ToUpper(ticker)),
			URL:       fmt.Sprintf("%s/%s/history", yahooQuoteBase, url.PathEscape(strings.ToUpper(ticker))),
			Publisher: "Yahoo Finance",
			Date:      payload.Series[len(payload.Series)-1].Date,
		}
		return payload, []types.Citation{cite}, nil
	})
}

// BuildPricePayload orders series by date, keeps the trailing
// maxPricePoints closes, and computes indicators and range statistics over
// them. Dates are YYYY-MM-DD, so they order as strings.
func BuildPricePayload(currency string, series []types.PricePoint) types.PricePayload {
	ordered := slices.Clone(series)
	slices.SortStableFunc(ordered, func(a, b types.PricePoint) int { return strings.Compare(a.Date, b.Date) })
	if len(ordered) > maxPricePoints {
		ordered = ordered[len(ordered)-maxPricePoints:]
	}
	kept := make([]types.PricePoint, len(ordered))
	for i, pt := range ordered {
		kept[i] = types.PricePoint{Date: pt.Date, Close: indicator.Round(pt.Close)}
	}
	if currency == "" {
		currency = "USD"
	}

	payload := types.PricePayload{
		Currency:   currency,
		Series:     kept,
		Indicators: indicator.Compute(kept),
	}
	closes := indicator.Closes(kept)
	if high, low, ok := indicator.Range(closes); ok {
		payload.RangeHigh, payload.RangeLow = &high, &low
	}
	if avg, ok := indicator.SMA(closes, indicator.AvgWindow); ok {
		avg = indicator.Round(avg)
		payload.AvgClose30d = &avg
	}
	return payload
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *Prices) fetchChart(ctx context.Context, ticker string) (string, []types.PricePoint, error) {
	end := p.opts.now().UTC()
	start := end.Add(-priceLookback)

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.Unix()))
	params.Set("interval", "1d")
	reqURL := fmt.Sprintf("%s/%s?%s", yahooChartBase, url.PathEscape(strings.ToUpper(ticker)), params.Encode())

	var resp chartResponse
	if err := p.client.GetJSON(ctx, reqURL, http.Header{"User-Agent": {browserUserAgent}}, &resp); err != nil {
		return "", nil, err
	}
	if resp.Chart.Error != nil {
		return "", nil, types.AdapterErrorf(types.CodeNotFound, "chart API: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return "", nil, types.AdapterErrorf(types.CodeNotFound, "chart API returned no result for %s", ticker)
	}

	r := resp.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return "", nil, types.AdapterErrorf(types.CodeMalformed, "chart API returned no quotes for %s", ticker)
	}
	closes := r.Indicators.Quote[0].Close

	var series []types.PricePoint
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] == 0 {
			continue
		}
		series = append(series, types.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *closes[i],
		})
	}
	return r.Meta.Currency, series, nil
}
