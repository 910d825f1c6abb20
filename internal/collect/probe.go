// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-brief/pkg/types"
)

// SourceStatus is one source's outcome in a probe.
type SourceStatus struct {
	Kind      types.SourceKind `json:"kind" yaml:"kind"`
	Status    types.Status     `json:"status" yaml:"status"`
	Code      types.ErrorCode  `json:"code,omitempty" yaml:"code,omitempty"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	Citations int              `json:"citations" yaml:"citations"`
}

// TickerProbe summarizes one ticker's bundle.
type TickerProbe struct {
	Ticker    string         `json:"ticker" yaml:"ticker"`
	Usable    bool           `json:"usable" yaml:"usable"`
	Citations int            `json:"citations" yaml:"citations"`
	Sources   []SourceStatus `json:"sources" yaml:"sources"`
}

// ProbeReport records source health for a set of tickers. It holds no
// evidence payloads.
type ProbeReport struct {
	Tickers []TickerProbe `json:"tickers" yaml:"tickers"`
}

// NewProbeReport summarizes bundles.
func NewProbeReport(bundles []*types.Bundle) ProbeReport {
	r := ProbeReport{Tickers: make([]TickerProbe, 0, len(bundles))}
	for _, b := range bundles {
		tp := TickerProbe{Ticker: b.Ticker, Usable: b.Usable(), Citations: len(b.Citations())}
		for _, item := range b.Ordered() {
			tp.Sources = append(tp.Sources, SourceStatus{
				Kind:      item.Kind,
				Status:    item.Status,
				Code:      item.Code,
				Error:     item.Error,
				Citations: len(item.Citations),
			})
		}
		r.Tickers = append(r.Tickers, tp)
	}
	return r
}

// Healthy reports whether every ticker is usable.
func (r ProbeReport) Healthy() bool {
	for _, t := range r.Tickers {
		if !t.Usable {
			return false
		}
	}
	return true
}

// Write renders the report as "table", "json", or "yaml".
func (r ProbeReport) Write(w io.Writer, format string) error {
	switch format {
	case "", "table":
		return r.writeTable(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown probe format %q (want table, json, or yaml)", format)
	}
}

func (r ProbeReport) writeTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tSOURCE\tSTATUS\tCITES\tDETAIL")
	for _, t := range r.Tickers {
		for _, s := range t.Sources {
			detail := s.Error
			if s.Code != "" {
				detail = fmt.Sprintf("[%s] %s", s.Code, s.Error)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.Ticker, s.Kind, s.Status, s.Citations, detail)
		}
		verdict := "usable"
		if !t.Usable {
			verdict = fmt.Sprintf("insufficient (%d of %d citations)", t.Citations, types.MinCitations)
		}
		fmt.Fprintf(tw, "%s\t-\t%s\t%d\t\n", t.Ticker, verdict, t.Citations)
	}
	return tw.Flush()
}
