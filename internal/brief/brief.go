// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package brief turns a usable evidence bundle into a research brief. A
// Generator produces the prose; the Assembler gates on the bundle, attaches
// the numeric metrics, enforces the schema contract, and renders the JSON
// and Markdown artifacts from one shared citation set.
package brief

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Request is what a generator receives: the ok evidence of one bundle and
// the citations it may use.
type Request struct {
	Ticker    string
	Focus     string
	Evidence  []types.EvidenceItem
	Citations []types.Citation
	Metrics   types.Metrics
}

// Generator produces a brief from evidence.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (types.Brief, error)
}

// Artifacts are the rendered outputs of one brief.
type Artifacts struct {
	Brief    types.Brief
	JSON     []byte
	Markdown []byte
}

// Assembler runs a generator under the brief contract.
type Assembler struct {
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger
}

// NewAssembler returns an Assembler. A non-positive timeout uses the default.
func NewAssembler(gen Generator, timeout time.Duration, log zerolog.Logger) *Assembler {
	if timeout <= 0 {
		timeout = types.DefaultGenerationTimeout
	}
	return &Assembler{gen: gen, timeout: timeout, log: log}
}

// Assemble generates, validates, and renders the brief for bundle. An
// unusable bundle is rejected with ErrBundleInsufficient before the
// generator runs; output that breaks the schema is rejected with
// ErrGenerationContract and never repaired.
func (a *Assembler) Assemble(ctx context.Context, bundle *types.Bundle, focus string) (*Artifacts, error) {
	if n := len(bundle.Citations()); n < types.MinCitations {
		return nil, fmt.Errorf("%w: %d distinct citations, need %d", types.ErrBundleInsufficient, n, types.MinCitations)
	}

	req := NewRequest(bundle, focus)

	gctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	b, err := a.gen.Generate(gctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s generator: %v", types.ErrGenerationContract, a.gen.Name(), err)
	}
	a.log.Debug().Str("ticker", req.Ticker).Str("generator", a.gen.Name()).Dur("elapsed", time.Since(start)).Msg("brief generated")

	if b.Ticker != "" && !strings.EqualFold(b.Ticker, req.Ticker) {
		return nil, fmt.Errorf("%w: brief is for %s, want %s", types.ErrGenerationContract, b.Ticker, req.Ticker)
	}
	b.Ticker = req.Ticker
	b.Focus = req.Focus
	b.Metrics = req.Metrics

	if err := Validate(b, req.Citations); err != nil {
		return nil, err
	}

	js, err := RenderJSON(b)
	if err != nil {
		return nil, fmt.Errorf("rendering brief JSON: %w", err)
	}
	md, err := RenderMarkdown(b)
	if err != nil {
		return nil, fmt.Errorf("rendering brief Markdown: %w", err)
	}
	if err := checkMarkdownSources(md, b.Sources); err != nil {
		return nil, err
	}

	return &Artifacts{Brief: b, JSON: js, Markdown: md}, nil
}

// NewRequest builds the generator request from the ok items of bundle.
func NewRequest(bundle *types.Bundle, focus string) Request {
	req := Request{
		Ticker:    bundle.Ticker,
		Focus:     strings.TrimSpace(focus),
		Citations: bundle.Citations(),
	}
	for _, item := range bundle.Ordered() {
		if item.OK() {
			req.Evidence = append(req.Evidence, item)
		}
	}
	req.Metrics = MetricsFrom(req.Evidence)
	return req
}

// MetricsFrom collects the numeric facts in evidence.
func MetricsFrom(evidence []types.EvidenceItem) types.Metrics {
	var m types.Metrics
	for _, item := range evidence {
		switch p := item.Payload.(type) {
		case types.PricePayload:
			m.Currency = p.Currency
			m.RangeHigh, m.RangeLow, m.AvgClose30d = p.RangeHigh, p.RangeLow, p.AvgClose30d
			if m.LatestClose == nil {
				m.LatestClose, m.SMA20, m.SMA50, m.RSI14 = p.Indicators.LatestClose, p.Indicators.SMA20, p.Indicators.SMA50, p.Indicators.RSI14
			}
		case types.IndicatorPayload:
			m.LatestClose, m.SMA20, m.SMA50, m.RSI14 = p.Indicators.LatestClose, p.Indicators.SMA20, p.Indicators.SMA50, p.Indicators.RSI14
		case types.NewsPayload:
			m.NewsTier = string(p.Tier)
		case types.FilingPayload:
			m.FilingForm = p.Metadata.Form
		case types.SentimentPayload:
			if p.Count > 0 {
				avg := p.Average
				m.SentimentAvg = &avg
			}
		case types.PeersPayload:
		}
	}
	return m
}
