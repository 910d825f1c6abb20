// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources holds the evidence source adapters. Each adapter fetches
// one kind of evidence for one ticker, live or from fixtures depending on the
// mode controller, and always returns an evidence item: failures, including
// panics, become failed items rather than errors.
package sources

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Adapter fetches evidence of one kind.
type Adapter interface {
	Kind() types.SourceKind
	Fetch(ctx context.Context, ticker string, mc *mode.Controller) types.EvidenceItem
}

// fetchFunc is what an adapter's fetch body produces before it is turned
// into an evidence item.
type fetchFunc func() (types.Payload, []types.Citation, error)

// guard runs fn and converts its error or panic into a failed item.
func guard(kind types.SourceKind, ticker string, log zerolog.Logger, fn fetchFunc) (item types.EvidenceItem) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			item = types.Failed(kind, ticker, types.AdapterErrorf(types.CodePanic, "%s adapter panicked: %v", kind, r))
		}
		log.Debug().
			Str("ticker", ticker).
			Str("status", string(item.Status)).
			Str("code", string(item.Code)).
			Dur("elapsed", time.Since(start)).
			Msg("fetch finished")
	}()

	payload, citations, err := fn()
	if err != nil {
		return types.Failed(kind, ticker, err)
	}
	return types.Succeeded(kind, ticker, payload, citations...)
}

// Options configures the default adapter set.
type Options struct {
	HTTP types.HTTPConfig
	Log  zerolog.Logger

	// Now overrides the clock used for lookback windows.
	Now func() time.Time
}

// Defaults returns the price, peers, news, and filing adapters.
func Defaults(opts Options) []Adapter {
	return []Adapter{
		NewPrices(opts),
		NewPeers(opts),
		NewNews(opts),
		NewFiling(opts),
	}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) logger(kind types.SourceKind) zerolog.Logger {
	return o.Log.With().Str("source", string(kind)).Logger()
}
