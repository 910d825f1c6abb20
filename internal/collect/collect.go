// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect runs the source adapters for a ticker concurrently and
// gathers their results into an evidence bundle. Each adapter runs under its
// own timeout; an adapter that fails or overruns contributes a failed item
// and never blocks or fails its siblings.
package collect

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/internal/sources"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Collector fans a ticker out to its adapters.
type Collector struct {
	adapters []sources.Adapter
	timeout  time.Duration
	log      zerolog.Logger
}

// New returns a Collector. A non-positive timeout uses the default.
func New(adapters []sources.Adapter, timeout time.Duration, log zerolog.Logger) *Collector {
	if timeout <= 0 {
		timeout = types.DefaultAdapterTimeout
	}
	return &Collector{adapters: adapters, timeout: timeout, log: log}
}

// Collect fetches every source for ticker and returns the bundle with one
// item per source kind. If ctx is cancelled the partial bundle is discarded
// and ctx's error is returned.
func (c *Collector) Collect(ctx context.Context, ticker string, mc *mode.Controller) (*types.Bundle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	log := c.log.With().Str("ticker", ticker).Logger()

	results := make(chan types.EvidenceItem, len(c.adapters))
	for _, a := range c.adapters {
		go func(a sources.Adapter) {
			results <- c.fetchOne(ctx, a, ticker, mc)
		}(a)
	}

	bundle := types.NewBundle(ticker)
	for range c.adapters {
		var item types.EvidenceItem
		select {
		case item = <-results:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if err := bundle.Put(item); err != nil {
			log.Warn().Err(err).Msg("dropping duplicate evidence item")
			continue
		}
		logItem(log, item)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	put := func(item types.EvidenceItem) {
		if err := bundle.Put(item); err != nil {
			log.Warn().Err(err).Msg("dropping duplicate evidence item")
		}
	}
	if price, ok := bundle.Get(types.KindPrice); ok {
		put(sources.DeriveIndicators(price))
	}
	if news, ok := bundle.Get(types.KindNews); ok {
		put(sources.DeriveSentiment(news))
	}
	for _, kind := range types.SourceKinds {
		if _, ok := bundle.Get(kind); !ok {
			put(types.Failed(kind, ticker, types.AdapterErrorf(types.CodeNotFound, "no %s adapter configured", kind)))
		}
	}

	log.Info().
		Int("citations", len(bundle.Citations())).
		Int("failed", len(bundle.Failures())).
		Bool("usable", bundle.Usable()).
		Msg("evidence collected")
	return bundle, nil
}

// fetchOne runs a under the per-adapter timeout. When the deadline passes
// first, the adapter's goroutine is abandoned and its late result dropped.
func (c *Collector) fetchOne(ctx context.Context, a sources.Adapter, ticker string, mc *mode.Controller) types.EvidenceItem {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan types.EvidenceItem, 1)
	go func() {
		done <- a.Fetch(actx, ticker, mc)
	}()

	select {
	case item := <-done:
		item.Kind, item.Ticker = a.Kind(), ticker
		return item
	case <-actx.Done():
		code := types.CodeTimeout
		if ctx.Err() != nil {
			code = types.CodeCancelled
		}
		return types.Failed(a.Kind(), ticker, types.AdapterErrorf(code, "%s adapter did not finish within %s", a.Kind(), c.timeout))
	}
}

func logItem(log zerolog.Logger, item types.EvidenceItem) {
	if item.OK() {
		log.Debug().Str("source", string(item.Kind)).Int("citations", len(item.Citations)).Msg("source ok")
		return
	}
	log.Warn().
		Str("source", string(item.Kind)).
		Str("code", string(item.Code)).
		Str("error", item.Error).
		Msg("source failed")
}

// CollectAll collects each ticker independently with at most limit tickers
// in flight. Bundles are returned in ticker order. Cancellation discards
// every bundle.
func (c *Collector) CollectAll(ctx context.Context, tickers []string, mc *mode.Controller, limit int) ([]*types.Bundle, error) {
	bundles := make([]*types.Bundle, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ticker := range tickers {
		g.Go(func() error {
			b, err := c.Collect(gctx, ticker, mc)
			if err != nil {
				return err
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}
