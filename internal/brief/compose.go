// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-brief/pkg/types"
)

const (
	maxHighlights = 3
	moatExcerpt   = 600
	noHighlights  = "No notable items in the latest coverage."
)

// Composer writes briefs directly from the evidence without a language
// model. Its output is a pure function of the request.
type Composer struct{}

// NewComposer returns the offline generator.
func NewComposer() *Composer { return &Composer{} }

func (*Composer) Name() string { return "offline" }

// evidence is the request's payloads keyed by variant.
type evidence struct {
	price     *types.PricePayload
	indicator *types.IndicatorSet
	peers     *types.PeersPayload
	news      *types.NewsPayload
	filing    *types.FilingPayload
	sentiment *types.SentimentPayload
}

func gather(items []types.EvidenceItem) (evidence, error) {
	var ev evidence
	for _, item := range items {
		switch p := item.Payload.(type) {
		case types.PricePayload:
			ev.price = &p
		case types.IndicatorPayload:
			ev.indicator = &p.Indicators
		case types.PeersPayload:
			ev.peers = &p
		case types.NewsPayload:
			ev.news = &p
		case types.FilingPayload:
			ev.filing = &p
		case types.SentimentPayload:
			ev.sentiment = &p
		default:
			return evidence{}, fmt.Errorf("unsupported %s payload %T", item.Kind, item.Payload)
		}
	}
	if ev.indicator == nil && ev.price != nil {
		ev.indicator = &ev.price.Indicators
	}
	return ev, nil
}

// Generate composes every section from req.
func (c *Composer) Generate(_ context.Context, req Request) (types.Brief, error) {
	ev, err := gather(req.Evidence)
	if err != nil {
		return types.Brief{}, err
	}

	b := types.Brief{
		Ticker:      req.Ticker,
		Focus:       req.Focus,
		Overview:    ev.overview(req.Ticker, req.Focus),
		Moat:        ev.moat(),
		Performance: ev.performance(),
		Catalysts:   ev.highlights(func(s float64) bool { return s >= 0 }),
		Risks:       ev.highlights(func(s float64) bool { return s < 0 }),
		Valuation:   ev.valuation(),
		Peers:       []string{},
		Sentiment:   ev.sentimentLine(),
		Sources:     make([]types.Source, 0, len(req.Citations)),
	}
	if ev.peers != nil {
		b.Peers = append(b.Peers, ev.peers.Peers...)
	}
	for _, cite := range req.Citations {
		b.Sources = append(b.Sources, types.SourceFromCitation(cite))
	}
	return b, nil
}

func (ev evidence) overview(ticker, focus string) string {
	var parts []string
	if ev.price != nil && len(ev.price.Series) > 0 && ev.price.RangeHigh != nil {
		last := ev.price.Series[len(ev.price.Series)-1]
		parts = append(parts, fmt.Sprintf("%s last closed at %s %.2f on %s, within a %.2f to %.2f range over the past %d sessions.",
			ticker, ev.price.Currency, last.Close, last.Date, *ev.price.RangeLow, *ev.price.RangeHigh, len(ev.price.Series)))
	} else {
		parts = append(parts, fmt.Sprintf("Price history for %s was unavailable for this run.", ticker))
	}
	if ev.sentiment != nil && ev.sentiment.Count > 0 {
		parts = append(parts, fmt.Sprintf("Average headline sentiment is %+.2f across %d articles.", ev.sentiment.Average, ev.sentiment.Count))
	}
	if focus != "" {
		parts = append(parts, fmt.Sprintf("This brief focuses on %s.", focus))
	}
	return strings.Join(parts, " ")
}

func (ev evidence) moat() string {
	if ev.filing == nil {
		return "No regulatory filing was available for this run."
	}
	m := ev.filing.Metadata
	section := ev.filing.Section
	if section.State == types.OutcomeFound && section.Value.Text != "" {
		return fmt.Sprintf("From the %s (%s): %s", m.Form, orUnknown(m.FiledAt), excerpt(section.Value.Text, moatExcerpt))
	}
	text := fmt.Sprintf("The latest %s filing (%s) was retrieved but its management discussion could not be isolated.", m.Form, orUnknown(m.FiledAt))
	if m.URL != "" {
		text += " Full document: " + m.URL
	}
	return text
}

func (ev evidence) performance() string {
	set := ev.indicator
	if set == nil || set.LatestClose == nil {
		return "Technical indicators were unavailable for this run."
	}
	s := fmt.Sprintf("Latest close %s. SMA20 %s, SMA50 %s, RSI14 %s.",
		formatNumber(set.LatestClose), formatNumber(set.SMA20), formatNumber(set.SMA50), formatNumber(set.RSI14))
	if set.SMA20 != nil {
		if *set.LatestClose >= *set.SMA20 {
			s += " Price is at or above its 20-day average."
		} else {
			s += " Price is below its 20-day average."
		}
	}
	if set.RSI14 != nil {
		switch {
		case *set.RSI14 >= 70:
			s += " RSI is in overbought territory."
		case *set.RSI14 <= 30:
			s += " RSI is in oversold territory."
		}
	}
	return s
}

func (ev evidence) highlights(keep func(float64) bool) []string {
	var out []string
	if ev.news != nil {
		for _, a := range ev.news.Articles {
			if !keep(a.Sentiment) {
				continue
			}
			line := a.Title
			if meta := strings.Trim(strings.Join([]string{a.Publisher, a.PublishedAt}, ", "), ", "); meta != "" {
				line += " (" + meta + ")"
			}
			out = append(out, line)
			if len(out) == maxHighlights {
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{noHighlights}
	}
	return out
}

func (ev evidence) valuation() string {
	if ev.price == nil || ev.price.RangeHigh == nil || len(ev.price.Series) == 0 {
		return "Valuation context is unavailable without price history."
	}
	last := ev.price.Series[len(ev.price.Series)-1].Close
	high, low := *ev.price.RangeHigh, *ev.price.RangeLow
	s := fmt.Sprintf("Shares trade %.1f%% below the period high of %.2f", pctBelow(last, high), high)
	if low > 0 {
		s += fmt.Sprintf(" and %.1f%% above the period low of %.2f", (last-low)/low*100, low)
	}
	return s + "."
}

func (ev evidence) sentimentLine() string {
	if ev.sentiment == nil || ev.sentiment.Count == 0 {
		return "No headline sentiment is available for this run."
	}
	tone := "neutral"
	switch {
	case ev.sentiment.Average > 0.1:
		tone = "positive"
	case ev.sentiment.Average < -0.1:
		tone = "negative"
	}
	return fmt.Sprintf("Headline tone is %s: average %+.2f across %d articles (%d non-negative, %d negative).",
		tone, ev.sentiment.Average, ev.sentiment.Count, ev.sentiment.Positive, ev.sentiment.Negative)
}

func pctBelow(last, high float64) float64 {
	if high <= 0 {
		return 0
	}
	return (high - last) / high * 100
}

func orUnknown(s string) string {
	if s == "" {
		return "date unknown"
	}
	return s
}

// excerpt cuts s to at most n runes at a word boundary.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := string([]rune(s)[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
