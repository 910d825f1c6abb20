// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/internal/sources"
	"github.com/pdiddy/research-brief/pkg/types"
)

// fakeAdapter returns a canned item after an optional delay.
type fakeAdapter struct {
	kind  types.SourceKind
	delay time.Duration
	fail  error
	cites []types.Citation
	calls int32
}

func (f *fakeAdapter) Kind() types.SourceKind { return f.kind }

func (f *fakeAdapter) Fetch(ctx context.Context, ticker string, _ *mode.Controller) types.EvidenceItem {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return types.Failed(f.kind, ticker, ctx.Err())
		}
	}
	if f.fail != nil {
		return types.Failed(f.kind, ticker, f.fail)
	}
	return types.Succeeded(f.kind, ticker, payloadFor(f.kind), f.cites...)
}

func payloadFor(kind types.SourceKind) types.Payload {
	switch kind {
	case types.KindPrice:
		return types.PricePayload{}
	case types.KindNews:
		return types.NewsPayload{Articles: []types.Article{{Title: "a", Sentiment: 0.5}}}
	case types.KindFiling:
		return types.FilingPayload{}
	default:
		return types.PeersPayload{Peers: []string{}}
	}
}

func cite(url string) types.Citation { return types.Citation{Title: url, URL: url} }

func controller(t *testing.T) *mode.Controller {
	t.Helper()
	mc, err := mode.New(types.ModeLive, "", types.Credentials{})
	require.NoError(t, err)
	return mc
}

func TestCollectAllSucceed(t *testing.T) {
	adapters := []*fakeAdapter{
		{kind: types.KindPrice, cites: []types.Citation{cite("https://p")}},
		{kind: types.KindPeers},
		{kind: types.KindNews, cites: []types.Citation{cite("https://n1"), cite("https://n2")}},
		{kind: types.KindFiling, cites: []types.Citation{cite("https://f")}},
	}
	c := New(asAdapters(adapters), time.Second, zerolog.Nop())

	b, err := c.Collect(context.Background(), " pltr ", controller(t))
	require.NoError(t, err)

	assert.Equal(t, "PLTR", b.Ticker)
	assert.Len(t, b.Items, len(types.SourceKinds))
	for _, kind := range types.SourceKinds {
		item, ok := b.Get(kind)
		require.True(t, ok, kind)
		assert.True(t, item.OK(), "%s: %s", kind, item.Error)
	}
	assert.Len(t, b.Citations(), 4)
	assert.True(t, b.Usable())

	sentiment, _ := b.Get(types.KindSentiment)
	assert.Equal(t, 0.5, sentiment.Payload.(types.SentimentPayload).Average)
}

func TestCollectFailureContainment(t *testing.T) {
	adapters := []*fakeAdapter{
		{kind: types.KindPrice, fail: types.AdapterErrorf(types.CodeNetwork, "connection refused")},
		{kind: types.KindPeers},
		{kind: types.KindNews, cites: []types.Citation{cite("https://n1"), cite("https://n2")}},
		{kind: types.KindFiling, delay: time.Second, cites: []types.Citation{cite("https://f")}},
	}
	c := New(asAdapters(adapters), 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	b, err := c.Collect(context.Background(), "PLTR", controller(t))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "slow adapter must not block the bundle")

	price, _ := b.Get(types.KindPrice)
	assert.Equal(t, types.CodeNetwork, price.Code)

	filing, _ := b.Get(types.KindFiling)
	assert.False(t, filing.OK())
	assert.Equal(t, types.CodeTimeout, filing.Code)

	indicators, _ := b.Get(types.KindIndicator)
	assert.False(t, indicators.OK(), "indicators inherit the price failure")

	news, _ := b.Get(types.KindNews)
	assert.True(t, news.OK())
	assert.True(t, b.Usable(), "two headlines satisfy the citation gate")
}

func TestCollectAllFailing(t *testing.T) {
	var adapters []*fakeAdapter
	for _, kind := range []types.SourceKind{types.KindPrice, types.KindPeers, types.KindNews, types.KindFiling} {
		adapters = append(adapters, &fakeAdapter{kind: kind, fail: errors.New("down")})
	}
	c := New(asAdapters(adapters), time.Second, zerolog.Nop())

	b, err := c.Collect(context.Background(), "PLTR", controller(t))
	require.NoError(t, err)
	assert.False(t, b.Usable())
	assert.Len(t, b.Failures(), len(types.SourceKinds))
}

func TestCollectMissingAdapterKinds(t *testing.T) {
	c := New(asAdapters([]*fakeAdapter{{kind: types.KindPeers}}), time.Second, zerolog.Nop())
	b, err := c.Collect(context.Background(), "PLTR", controller(t))
	require.NoError(t, err)
	assert.Len(t, b.Items, len(types.SourceKinds))
	filing, _ := b.Get(types.KindFiling)
	assert.Equal(t, types.CodeNotFound, filing.Code)
}

func TestCollectCancelledDiscardsBundle(t *testing.T) {
	adapters := []*fakeAdapter{{kind: types.KindPrice, delay: time.Second}}
	c := New(asAdapters(adapters), 5*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	b, err := c.Collect(ctx, "PLTR", controller(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, b)
}

func TestCollectAllTickersIndependent(t *testing.T) {
	adapters := []*fakeAdapter{
		{kind: types.KindNews, cites: []types.Citation{cite("https://n1"), cite("https://n2")}},
	}
	c := New(asAdapters(adapters), time.Second, zerolog.Nop())

	bundles, err := c.CollectAll(context.Background(), []string{"PLTR", "MSFT", "SNOW"}, controller(t), 2)
	require.NoError(t, err)
	require.Len(t, bundles, 3)
	assert.Equal(t, "PLTR", bundles[0].Ticker)
	assert.Equal(t, "SNOW", bundles[2].Ticker)
	assert.Equal(t, int32(3), atomic.LoadInt32(&adapters[0].calls))
}

func TestProbeReport(t *testing.T) {
	adapters := []*fakeAdapter{
		{kind: types.KindPrice, cites: []types.Citation{cite("https://p")}},
		{kind: types.KindFiling, fail: types.AdapterErrorf(types.CodeMissingCredential, "SEC_UA is not configured")},
	}
	c := New(asAdapters(adapters), time.Second, zerolog.Nop())
	b, err := c.Collect(context.Background(), "PLTR", controller(t))
	require.NoError(t, err)

	r := NewProbeReport([]*types.Bundle{b})
	require.Len(t, r.Tickers, 1)
	assert.False(t, r.Healthy())
	assert.Len(t, r.Tickers[0].Sources, len(types.SourceKinds))

	var table bytes.Buffer
	require.NoError(t, r.Write(&table, "table"))
	assert.Contains(t, table.String(), "[missing_credential] SEC_UA is not configured")
	assert.Contains(t, table.String(), "insufficient (1 of 2 citations)")

	var js bytes.Buffer
	require.NoError(t, r.Write(&js, "json"))
	var decoded ProbeReport
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, r, decoded)

	var ym bytes.Buffer
	require.NoError(t, r.Write(&ym, "yaml"))
	var fromYAML ProbeReport
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Equal(t, "PLTR", fromYAML.Tickers[0].Ticker)

	assert.Error(t, r.Write(&js, "xml"))
}

func asAdapters(fakes []*fakeAdapter) []sources.Adapter {
	out := make([]sources.Adapter, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}

func TestCollectLogsDerivedCollision(t *testing.T) {
	adapters := []*fakeAdapter{
		{kind: types.KindPrice, cites: []types.Citation{cite("https://p")}},
		{kind: types.KindIndicator},
	}
	var logs bytes.Buffer
	c := New(asAdapters(adapters), time.Second, zerolog.New(&logs))

	b, err := c.Collect(context.Background(), "PLTR", controller(t))
	require.NoError(t, err)

	item, ok := b.Get(types.KindIndicator)
	require.True(t, ok)
	assert.IsType(t, types.PeersPayload{}, item.Payload, "adapter item wins over the derived one")
	assert.Contains(t, logs.String(), "dropping duplicate evidence item")
	assert.Contains(t, logs.String(), "already has a indicator item")
}
