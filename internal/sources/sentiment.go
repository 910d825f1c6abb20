// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"strings"

	"github.com/pdiddy/research-brief/internal/indicator"
	"github.com/pdiddy/research-brief/pkg/types"
)

var (
	positiveWords = []string{"growth", "beat", "win", "strong"}
	negativeWords = []string{"risk", "concern", "loss", "slow"}
)

// Sentiment scores text in [-1, 1] by counting lexicon hits:
// (positive - negative) / (positive + negative), 0 when balanced or empty.
func Sentiment(text string) float64 {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}
	if pos == neg {
		return 0
	}
	return indicator.Round(float64(pos-neg) / float64(pos+neg))
}

// scoreArticle scores the summary, or the title when there is no summary.
func scoreArticle(a types.Article) float64 {
	if strings.TrimSpace(a.Summary) != "" {
		return Sentiment(a.Summary)
	}
	return Sentiment(a.Title)
}

// SummarizeSentiment aggregates article scores.
func SummarizeSentiment(articles []types.Article) types.SentimentPayload {
	s := types.SentimentPayload{Count: len(articles)}
	if len(articles) == 0 {
		return s
	}
	var sum float64
	for _, a := range articles {
		sum += a.Sentiment
		if a.Sentiment >= 0 {
			s.Positive++
		} else {
			s.Negative++
		}
	}
	s.Average = indicator.Round(sum / float64(len(articles)))
	return s
}

// DeriveSentiment builds the sentiment item from a news item. A failed news
// item yields a failed sentiment item.
func DeriveSentiment(news types.EvidenceItem) types.EvidenceItem {
	if !news.OK() {
		return types.Failed(types.KindSentiment, news.Ticker, derivedErr(news))
	}
	payload, ok := news.Payload.(types.NewsPayload)
	if !ok {
		return types.Failed(types.KindSentiment, news.Ticker,
			types.AdapterErrorf(types.CodeMalformed, "news item carries %T", news.Payload))
	}
	return types.Succeeded(types.KindSentiment, news.Ticker, SummarizeSentiment(payload.Articles))
}

// DeriveIndicators builds the indicator item from a price item.
func DeriveIndicators(price types.EvidenceItem) types.EvidenceItem {
	if !price.OK() {
		return types.Failed(types.KindIndicator, price.Ticker, derivedErr(price))
	}
	payload, ok := price.Payload.(types.PricePayload)
	if !ok {
		return types.Failed(types.KindIndicator, price.Ticker,
			types.AdapterErrorf(types.CodeMalformed, "price item carries %T", price.Payload))
	}
	return types.Succeeded(types.KindIndicator, price.Ticker, types.IndicatorPayload{Indicators: payload.Indicators})
}

// derivedKind maps a source kind to the kind computed from it.
var derivedKind = map[types.SourceKind]types.SourceKind{
	types.KindPrice: types.KindIndicator,
	types.KindNews:  types.KindSentiment,
}

// derivedErr reports a derived item as unavailable because its parent
// failed. The parent's own message stays on the parent item.
func derivedErr(parent types.EvidenceItem) error {
	code := parent.Code
	if code == "" {
		code = types.CodeUnknown
	}
	return types.AdapterErrorf(code, "%s unavailable: %s source failed", derivedKind[parent.Kind], parent.Kind)
}
