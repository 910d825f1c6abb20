// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-brief/internal/filing"
	"github.com/pdiddy/research-brief/internal/httputil"
	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Overridden in tests.
var (
	secTickersURL      = "https://www.sec.gov/files/company_tickers.json"
	secSubmissionsBase = "https://data.sec.gov/submissions"
	secArchivesBase    = "https://www.sec.gov/Archives/edgar/data"
)

// FilingForms are the periodic report forms the adapter accepts.
var FilingForms = []string{"10-K", "10-Q", "20-F", "40-F"}

// secRequestsPerSecond is EDGAR's fair-access ceiling.
const secRequestsPerSecond = 10

// Filing fetches the most recent periodic report from SEC EDGAR and extracts
// its MD&A section. Live fetches need SEC_UA as the User-Agent.
type Filing struct {
	client *httputil.Client
	target filing.Target
	log    zerolog.Logger

	mu     sync.Mutex
	ciks   map[string]company
	flight singleflight.Group
}

type company struct {
	CIK  int
	Name string
}

// NewFiling returns the filing adapter.
func NewFiling(opts Options) *Filing {
	log := opts.logger(types.KindFiling)
	client := httputil.NewClient(opts.HTTP, log)
	client.Limiter = rate.NewLimiter(rate.Limit(secRequestsPerSecond), 1)
	return &Filing{client: client, target: filing.MDA, log: log}
}

func (f *Filing) Kind() types.SourceKind { return types.KindFiling }

// Fetch returns the filing metadata and the section outcome. A filing whose
// section cannot be located is still ok evidence: the outcome falls back to
// the metadata. Network failures and parse failures carry distinct codes.
func (f *Filing) Fetch(ctx context.Context, ticker string, mc *mode.Controller) types.EvidenceItem {
	return guard(types.KindFiling, ticker, f.log, func() (types.Payload, []types.Citation, error) {
		var (
			payload types.FilingPayload
			err     error
		)
		if mc.UseFixtures() {
			payload, err = f.fromFixture(ticker, mc)
		} else {
			payload, err = f.fromEDGAR(ctx, ticker, mc)
		}
		if err != nil {
			return nil, nil, err
		}
		if payload.Section.State == types.OutcomeFellBack {
			f.log.Info().Str("ticker", ticker).Str("reason", payload.Section.Reason).Msg("filing section fell back to metadata")
		}
		return payload, []types.Citation{payload.Metadata.Citation()}, nil
	})
}

func (f *Filing) fromFixture(ticker string, mc *mode.Controller) (types.FilingPayload, error) {
	data, err := mc.Fixture(types.KindFiling, ticker, "html")
	if err != nil {
		return types.FilingPayload{}, err
	}
	return f.extract(data, types.FilingMetadata{Form: "10-K"})
}

func (f *Filing) extract(doc []byte, defaults types.FilingMetadata) (types.FilingPayload, error) {
	gdoc, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return types.FilingPayload{}, types.AdapterErr(types.CodeParse, fmt.Errorf("parsing filing document: %w", err))
	}
	meta := filing.Metadata(gdoc, defaults)
	return types.FilingPayload{
		Metadata: meta,
		Section:  filing.ExtractDocument(gdoc, f.target, meta),
	}, nil
}

func (f *Filing) fromEDGAR(ctx context.Context, ticker string, mc *mode.Controller) (types.FilingPayload, error) {
	ua := mc.Credentials().SECUserAgent
	if err := mc.Require("SEC_UA", ua); err != nil {
		return types.FilingPayload{}, err
	}
	header := http.Header{"User-Agent": {ua}}

	co, err := f.lookupCompany(ctx, ticker, header)
	if err != nil {
		return types.FilingPayload{}, err
	}

	meta, docURL, err := f.latestFiling(ctx, co, header)
	if err != nil {
		return types.FilingPayload{}, err
	}

	doc, err := f.client.Get(ctx, docURL, header)
	if err != nil {
		return types.FilingPayload{}, err
	}
	return f.extract(doc, meta)
}

// lookupCompany resolves ticker to a CIK using the SEC ticker map. The map
// is fetched once per adapter; concurrent lookups share one fetch and stop
// waiting when their own context ends.
func (f *Filing) lookupCompany(ctx context.Context, ticker string, header http.Header) (company, error) {
	ciks, err := f.tickerMap(ctx, header)
	if err != nil {
		return company{}, err
	}
	co, ok := ciks[strings.ToUpper(ticker)]
	if !ok {
		return company{}, types.AdapterErrorf(types.CodeNotFound, "ticker %s not in SEC ticker map", ticker)
	}
	return co, nil
}

func (f *Filing) tickerMap(ctx context.Context, header http.Header) (map[string]company, error) {
	f.mu.Lock()
	ciks := f.ciks
	f.mu.Unlock()
	if ciks != nil {
		return ciks, nil
	}

	// The shared fetch outlives any single caller and is bounded by the
	// client timeout instead.
	fetchCtx := context.WithoutCancel(ctx)
	ch := f.flight.DoChan("tickers", func() (any, error) {
		m, err := f.fetchTickerMap(fetchCtx, header)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.ciks = m
		f.mu.Unlock()
		return m, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]company), nil
	case <-ctx.Done():
		return nil, types.AdapterErr(types.CodeOf(ctx.Err()), fmt.Errorf("waiting for SEC ticker map: %w", ctx.Err()))
	}
}

func (f *Filing) fetchTickerMap(ctx context.Context, header http.Header) (map[string]company, error) {
	body, err := f.client.Get(ctx, secTickersURL, header)
	if err != nil {
		return nil, err
	}
	var raw map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, types.AdapterErr(types.CodeParse, fmt.Errorf("decoding ticker map: %w", err))
	}
	ciks := make(map[string]company, len(raw))
	for _, e := range raw {
		ciks[strings.ToUpper(e.Ticker)] = company{CIK: e.CIK, Name: e.Title}
	}
	return ciks, nil
}

type submissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

type filingRef struct {
	accession string
	date      string
	form      string
	document  string
}

// latestFiling picks the newest allowed form from the company's recent
// submissions and returns its metadata and document URL.
func (f *Filing) latestFiling(ctx context.Context, co company, header http.Header) (types.FilingMetadata, string, error) {
	body, err := f.client.Get(ctx, fmt.Sprintf("%s/CIK%010d.json", secSubmissionsBase, co.CIK), header)
	if err != nil {
		return types.FilingMetadata{}, "", err
	}
	var subs submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return types.FilingMetadata{}, "", types.AdapterErr(types.CodeParse, fmt.Errorf("decoding submissions: %w", err))
	}

	recent := subs.Filings.Recent
	n := min(len(recent.AccessionNumber), len(recent.FilingDate), len(recent.Form), len(recent.PrimaryDocument))
	allowed := make(map[string]bool, len(FilingForms))
	for _, form := range FilingForms {
		allowed[form] = true
	}

	var refs []filingRef
	for i := 0; i < n; i++ {
		if !allowed[recent.Form[i]] || recent.PrimaryDocument[i] == "" {
			continue
		}
		refs = append(refs, filingRef{
			accession: recent.AccessionNumber[i],
			date:      recent.FilingDate[i],
			form:      recent.Form[i],
			document:  recent.PrimaryDocument[i],
		})
	}
	if len(refs) == 0 {
		return types.FilingMetadata{}, "", types.AdapterErrorf(types.CodeNotFound, "no %s filings for CIK %d", strings.Join(FilingForms, "/"), co.CIK)
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].date > refs[j].date })
	ref := refs[0]

	docURL := fmt.Sprintf("%s/%s/%s/%s", secArchivesBase, strconv.Itoa(co.CIK),
		strings.ReplaceAll(ref.accession, "-", ""), ref.document)

	name := subs.Name
	if name == "" {
		name = co.Name
	}
	return types.FilingMetadata{Company: name, Form: ref.form, FiledAt: ref.date, URL: docURL}, docURL, nil
}
