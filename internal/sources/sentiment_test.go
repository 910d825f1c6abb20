// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/pkg/types"
)

func TestSentiment(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{text: "", want: 0},
		{text: "Strong growth", want: 1},
		{text: "Loss widens on slow demand", want: -1},
		{text: "Strong quarter but risk remains", want: 0},
		{text: "Beat and strong growth despite concern", want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentiment(tt.text))
		})
	}
}

func TestSummarizeSentiment(t *testing.T) {
	s := SummarizeSentiment([]types.Article{{Sentiment: 1}, {Sentiment: 0}, {Sentiment: -0.5}})
	assert.Equal(t, types.SentimentPayload{Average: 0.17, Count: 3, Positive: 2, Negative: 1}, s)
	assert.Equal(t, types.SentimentPayload{}, SummarizeSentiment(nil))
}

func TestDerivedItems(t *testing.T) {
	news := types.Succeeded(types.KindNews, "PLTR", types.NewsPayload{Articles: []types.Article{{Sentiment: 1}}})
	s := DeriveSentiment(news)
	require.True(t, s.OK())
	assert.Equal(t, types.KindSentiment, s.Kind)
	assert.Empty(t, s.Citations)

	failed := types.Failed(types.KindPrice, "PLTR", types.AdapterErrorf(types.CodeTimeout, "slow"))
	ind := DeriveIndicators(failed)
	assert.False(t, ind.OK())
	assert.Equal(t, types.CodeTimeout, ind.Code)
	assert.Equal(t, "indicator unavailable: price source failed", ind.Error)

	failedNews := types.Failed(types.KindNews, "PLTR", types.AdapterErrorf(types.CodeNotFound, "headline feed has no items"))
	sent := DeriveSentiment(failedNews)
	assert.Equal(t, types.CodeNotFound, sent.Code)
	assert.Equal(t, "sentiment unavailable: news source failed", sent.Error)
}

func TestGuardRecoversPanic(t *testing.T) {
	item := guard(types.KindNews, "PLTR", zerolog.Nop(), func() (types.Payload, []types.Citation, error) {
		panic("boom")
	})
	assert.False(t, item.OK())
	assert.Equal(t, types.CodePanic, item.Code)

	item = guard(types.KindNews, "PLTR", zerolog.Nop(), func() (types.Payload, []types.Citation, error) {
		return nil, nil, errors.New("plain")
	})
	assert.Equal(t, types.CodeUnknown, item.Code)
}
