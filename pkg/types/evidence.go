package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SourceKind identifies the evidence source an item came from.
type SourceKind string

const (
	KindPrice     SourceKind = "price"
	KindIndicator SourceKind = "indicator"
	KindPeers     SourceKind = "peers"
	KindNews      SourceKind = "news"
	KindFiling    SourceKind = "filing"
	KindSentiment SourceKind = "sentiment"
)

// SourceKinds lists every kind in bundle order.
var SourceKinds = []SourceKind{KindPrice, KindIndicator, KindPeers, KindNews, KindFiling, KindSentiment}

// Status is the outcome of fetching one evidence item.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// MinCitations is the number of distinct cited ok items a bundle needs
// before a brief may be generated from it.
const MinCitations = 2

// Citation is a reference a source supplies for one piece of evidence.
type Citation struct {
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Key identifies a citation for deduplication: the URL when present, otherwise
// the lowercased title.
func (c Citation) Key() string {
	if c.URL != "" {
		return c.URL
	}
	return strings.ToLower(strings.TrimSpace(c.Title))
}

// EvidenceItem is the result of one source adapter (or derived computation)
// for one ticker. Failed items carry an error and no payload.
type EvidenceItem struct {
	Kind      SourceKind `json:"kind" yaml:"kind"`
	Ticker    string     `json:"ticker" yaml:"ticker"`
	Status    Status     `json:"status" yaml:"status"`
	Payload   Payload    `json:"payload,omitempty" yaml:"-"`
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty"`
	Code      ErrorCode  `json:"code,omitempty" yaml:"code,omitempty"`
	FetchedAt time.Time  `json:"fetched_at" yaml:"fetched_at"`
}

// OK reports whether the item was fetched successfully.
func (e EvidenceItem) OK() bool { return e.Status == StatusOK }

// Succeeded builds an ok item.
func Succeeded(kind SourceKind, ticker string, payload Payload, citations ...Citation) EvidenceItem {
	return EvidenceItem{
		Kind:      kind,
		Ticker:    ticker,
		Status:    StatusOK,
		Payload:   payload,
		Citations: citations,
		FetchedAt: time.Now().UTC(),
	}
}

// Failed builds a failed item from err. The error code is taken from an
// AdapterError in the chain, or CodeUnknown.
func Failed(kind SourceKind, ticker string, err error) EvidenceItem {
	return EvidenceItem{
		Kind:      kind,
		Ticker:    ticker,
		Status:    StatusFailed,
		Error:     err.Error(),
		Code:      CodeOf(err),
		FetchedAt: time.Now().UTC(),
	}
}

// Bundle is the full set of evidence collected for one ticker. Items holds
// exactly one entry per source kind once collection has finished.
type Bundle struct {
	Ticker string                      `json:"ticker"`
	Items  map[SourceKind]EvidenceItem `json:"items"`
}

// NewBundle returns an empty bundle for ticker.
func NewBundle(ticker string) *Bundle {
	return &Bundle{Ticker: ticker, Items: make(map[SourceKind]EvidenceItem, len(SourceKinds))}
}

// Put stores item under its kind. A second item for the same kind is rejected.
func (b *Bundle) Put(item EvidenceItem) error {
	if _, exists := b.Items[item.Kind]; exists {
		return fmt.Errorf("bundle %s already has a %s item", b.Ticker, item.Kind)
	}
	b.Items[item.Kind] = item
	return nil
}

// Get returns the item for kind.
func (b *Bundle) Get(kind SourceKind) (EvidenceItem, bool) {
	item, ok := b.Items[kind]
	return item, ok
}

// Ordered returns the bundle items in SourceKinds order.
func (b *Bundle) Ordered() []EvidenceItem {
	out := make([]EvidenceItem, 0, len(b.Items))
	for _, k := range SourceKinds {
		if item, ok := b.Items[k]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Citations returns the distinct citations of all ok items in bundle order.
func (b *Bundle) Citations() []Citation {
	seen := make(map[string]bool)
	var out []Citation
	for _, item := range b.Ordered() {
		if !item.OK() {
			continue
		}
		for _, c := range item.Citations {
			key := c.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// Usable reports whether the bundle carries at least MinCitations distinct
// citations from ok items.
func (b *Bundle) Usable() bool {
	return len(b.Citations()) >= MinCitations
}

// Failures returns the failed items in bundle order.
func (b *Bundle) Failures() []EvidenceItem {
	var out []EvidenceItem
	for _, item := range b.Ordered() {
		if !item.OK() {
			out = append(out, item)
		}
	}
	return out
}

// ErrInvalidTicker reports a ticker that is not a plain exchange symbol.
var ErrInvalidTicker = errors.New("invalid ticker")

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// NormalizeTicker upper-cases and trims s and checks it is a symbol such as
// PLTR, BRK.B, or RDS-A. Tickers name directories, so anything else is
// rejected.
func NormalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !tickerPattern.MatchString(t) {
		return t, fmt.Errorf("%w: %q", ErrInvalidTicker, s)
	}
	return t, nil
}
