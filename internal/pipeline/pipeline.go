// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a research-brief invocation end to end. Tickers are
// processed independently and concurrently: each is collected, assembled,
// and persisted, and a failure in one ticker is reported without affecting
// the others. Probe runs stop after collection and write nothing.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-brief/internal/brief"
	"github.com/pdiddy/research-brief/internal/collect"
	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/internal/persist"
	"github.com/pdiddy/research-brief/internal/sources"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Runner holds the components of one invocation.
type Runner struct {
	cfg       types.RunConfig
	mode      *mode.Controller
	collector *collect.Collector
	assembler *brief.Assembler
	persister *persist.Persister
	runIDs    *persist.RunIDs
	log       zerolog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithAdapters replaces the default source adapters.
func WithAdapters(adapters []sources.Adapter) Option {
	return func(r *Runner) { r.collector = collect.New(adapters, r.cfg.Timeout, r.log) }
}

// WithGenerator replaces the configured generator.
func WithGenerator(gen brief.Generator) Option {
	return func(r *Runner) { r.assembler = brief.NewAssembler(gen, r.cfg.Generator.Timeout, r.log) }
}

// WithRunIDs replaces the run identifier source.
func WithRunIDs(ids *persist.RunIDs) Option {
	return func(r *Runner) { r.runIDs = ids }
}

// New validates cfg and wires the pipeline. Every error it returns is a
// configuration failure and no adapter work has started.
func New(ctx context.Context, cfg types.RunConfig, log zerolog.Logger, opts ...Option) (*Runner, error) {
	cfg = cfg.WithDefaults()

	mc, err := mode.New(cfg.Mode, cfg.FixturesDir, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       cfg,
		mode:      mc,
		persister: persist.New(cfg.RunsDir),
		runIDs:    persist.NewRunIDs(nil),
		log:       log,
	}
	r.collector = collect.New(sources.Defaults(sources.Options{HTTP: cfg.HTTP, Log: log}), cfg.Timeout, log)

	for _, opt := range opts {
		opt(r)
	}

	if r.assembler == nil && mc.Generates() {
		gen, err := brief.NewGenerator(ctx, cfg.Generator, cfg.Credentials, log)
		if err != nil {
			return nil, err
		}
		r.assembler = brief.NewAssembler(gen, cfg.Generator.Timeout, log)
	}
	return r, nil
}

// TickerResult is the outcome for one ticker.
type TickerResult struct {
	Ticker   string
	Dir      string
	Markdown []byte
	Err      error
}

// Result is the outcome of a generating run.
type Result struct {
	RunID   string
	Tickers []TickerResult
}

// HasFailures reports whether any ticker failed.
func (r *Result) HasFailures() bool {
	for _, t := range r.Tickers {
		if t.Err != nil {
			return true
		}
	}
	return false
}

// Succeeded returns the number of tickers whose brief was written.
func (r *Result) Succeeded() int {
	n := 0
	for _, t := range r.Tickers {
		if t.Err == nil {
			n++
		}
	}
	return n
}

// Run produces and persists a brief for every ticker. Per-ticker failures
// are recorded in the result as TickerErrors; the returned error is non-nil
// only for cancellation or a probe-mode runner.
func (r *Runner) Run(ctx context.Context, tickers []string, focus string) (*Result, error) {
	if !r.mode.Generates() {
		return nil, fmt.Errorf("%w: %s mode does not generate briefs; use Probe", types.ErrConfiguration, r.mode.Mode())
	}
	if focus == "" {
		focus = r.cfg.Focus
	}

	inputs := normalize(tickers)
	res := &Result{RunID: r.runIDs.Next(), Tickers: make([]TickerResult, len(inputs))}
	log := r.log.With().Str("run_id", res.RunID).Logger()
	log.Info().Int("tickers", len(inputs)).Str("mode", string(r.mode.Mode())).Msg("run started")

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Concurrency)
	for i, in := range inputs {
		if in.err != nil {
			res.Tickers[i] = TickerResult{Ticker: in.ticker, Err: &types.TickerError{Ticker: in.ticker, Stage: types.StageCollect, Err: in.err}}
			log.Error().Str("ticker", in.ticker).Err(in.err).Msg("ticker rejected")
			continue
		}
		g.Go(func() error {
			res.Tickers[i] = r.runTicker(ctx, res.RunID, in.ticker, focus)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("succeeded", res.Succeeded()).Int("failed", len(tickers)-res.Succeeded()).Msg("run finished")
	return res, nil
}

func (r *Runner) runTicker(ctx context.Context, runID, ticker, focus string) TickerResult {
	out := TickerResult{Ticker: ticker}
	fail := func(stage types.Stage, err error) TickerResult {
		out.Err = &types.TickerError{Ticker: ticker, Stage: stage, Err: err}
		r.log.Error().Str("ticker", ticker).Str("stage", string(stage)).Err(err).Msg("ticker failed")
		return out
	}

	bundle, err := r.collector.Collect(ctx, ticker, r.mode)
	if err != nil {
		return fail(types.StageCollect, err)
	}

	art, err := r.assembler.Assemble(ctx, bundle, focus)
	if err != nil {
		return fail(types.StageAssemble, err)
	}
	if ctx.Err() != nil {
		return fail(types.StagePersist, ctx.Err())
	}

	dir, err := r.persister.Write(runID, ticker, art.JSON, art.Markdown)
	if err != nil {
		return fail(types.StagePersist, err)
	}

	r.log.Info().Str("ticker", ticker).Str("dir", dir).Msg("brief saved")
	out.Dir, out.Markdown = dir, art.Markdown
	return out
}

// Probe collects every ticker and reports source health. It never runs the
// generator and writes nothing. An invalid ticker fails the probe before any
// source is called.
func (r *Runner) Probe(ctx context.Context, tickers []string) (collect.ProbeReport, error) {
	inputs := normalize(tickers)
	valid := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.err != nil {
			return collect.ProbeReport{}, in.err
		}
		valid = append(valid, in.ticker)
	}
	bundles, err := r.collector.CollectAll(ctx, valid, r.mode, r.cfg.Concurrency)
	if err != nil {
		return collect.ProbeReport{}, err
	}
	return collect.NewProbeReport(bundles), nil
}

// tickerInput is one requested ticker after normalization.
type tickerInput struct {
	ticker string
	err    error
}

// normalize upper-cases tickers, drops blanks and duplicates, and marks
// anything that is not a plain symbol as invalid.
func normalize(tickers []string) []tickerInput {
	seen := make(map[string]bool, len(tickers))
	out := make([]tickerInput, 0, len(tickers))
	for _, raw := range tickers {
		t, err := types.NormalizeTicker(raw)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, tickerInput{ticker: t, err: err})
	}
	return out
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, types.ErrConfiguration)
}
