// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

// staticPeers maps a ticker to comparable companies.
var staticPeers = map[string][]string{
	"AMZN": {"MSFT", "GOOGL", "WMT"},
	"MSFT": {"GOOGL", "AMZN", "AAPL"},
	"SNOW": {"DDOG", "MDB", "NOW"},
	"PLTR": {"SNOW", "AI", "DDOG"},
}

// Peers returns the configured peer set. It reads no network or fixture, so
// it behaves the same in every mode.
type Peers struct {
	log zerolog.Logger
}

// NewPeers returns the peers adapter.
func NewPeers(opts Options) *Peers {
	return &Peers{log: opts.logger(types.KindPeers)}
}

func (p *Peers) Kind() types.SourceKind { return types.KindPeers }

// Fetch never fails: an unknown ticker has an empty peer list.
func (p *Peers) Fetch(_ context.Context, ticker string, _ *mode.Controller) types.EvidenceItem {
	return guard(types.KindPeers, ticker, p.log, func() (types.Payload, []types.Citation, error) {
		peers, known := staticPeers[strings.ToUpper(ticker)]
		out := make([]string, len(peers))
		copy(out, peers)
		return types.PeersPayload{Peers: out, Known: known}, nil, nil
	})
}
