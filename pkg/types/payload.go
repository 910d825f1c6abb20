package types

// Payload is the kind-specific body of an ok evidence item. The set of
// implementations is closed; consumers type-switch over the variants below.
type Payload interface {
	SourceKind() SourceKind
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// IndicatorSet holds the technical indicators derived from a price series.
// A nil field means the series was too short for that indicator.
type IndicatorSet struct {
	LatestClose *float64 `json:"latest_close"`
	SMA20       *float64 `json:"sma20"`
	SMA50       *float64 `json:"sma50"`
	RSI14       *float64 `json:"rsi14"`
}

// PricePayload carries the raw series and the indicators computed from it.
type PricePayload struct {
	Currency    string       `json:"currency"`
	Series      []PricePoint `json:"series"`
	RangeHigh   *float64     `json:"range_high"`
	RangeLow    *float64     `json:"range_low"`
	AvgClose30d *float64     `json:"avg_close_30d"`
	Indicators  IndicatorSet `json:"indicators"`
}

func (PricePayload) SourceKind() SourceKind { return KindPrice }

// IndicatorPayload is the derived indicator view of a price item.
type IndicatorPayload struct {
	Indicators IndicatorSet `json:"indicators"`
}

func (IndicatorPayload) SourceKind() SourceKind { return KindIndicator }

// PeersPayload lists comparable tickers. Known is false when the ticker has
// no configured peer set.
type PeersPayload struct {
	Peers []string `json:"peers"`
	Known bool     `json:"known"`
}

func (PeersPayload) SourceKind() SourceKind { return KindPeers }

// NewsTier names the news source that produced the articles.
type NewsTier string

const (
	TierPrimary   NewsTier = "primary"
	TierSecondary NewsTier = "secondary"
	TierFixture   NewsTier = "fixture"
)

// Article is one news headline.
type Article struct {
	Title       string  `json:"title"`
	Summary     string  `json:"summary,omitempty"`
	URL         string  `json:"url"`
	Publisher   string  `json:"publisher,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
	Sentiment   float64 `json:"sentiment"`
}

// Citation returns the article as a citation.
func (a Article) Citation() Citation {
	return Citation{Title: a.Title, URL: a.URL, Publisher: a.Publisher, Date: a.PublishedAt}
}

// NewsPayload carries recent articles and the tier that supplied them.
type NewsPayload struct {
	Tier           NewsTier  `json:"tier"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	Articles       []Article `json:"articles"`
}

func (NewsPayload) SourceKind() SourceKind { return KindNews }

// FilingMetadata identifies a regulatory filing.
type FilingMetadata struct {
	Company string `json:"company,omitempty"`
	Form    string `json:"form"`
	FiledAt string `json:"filed_at,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Citation returns the filing as a citation.
func (m FilingMetadata) Citation() Citation {
	title := m.Form + " filing"
	if m.Company != "" {
		title = m.Company + " " + title
	}
	return Citation{Title: title, URL: m.URL, Publisher: "SEC EDGAR", Date: m.FiledAt}
}

// FilingSection is the extracted narrative section of a filing. Exactly one
// of Text or Fallback is populated.
type FilingSection struct {
	Heading  string          `json:"heading,omitempty"`
	Text     string          `json:"text,omitempty"`
	Fallback *FilingMetadata `json:"fallback,omitempty"`
}

// FilingPayload carries a filing's metadata and the section extraction outcome.
type FilingPayload struct {
	Metadata FilingMetadata         `json:"metadata"`
	Section  Outcome[FilingSection] `json:"section"`
}

func (FilingPayload) SourceKind() SourceKind { return KindFiling }

// SentimentPayload summarizes headline sentiment for a ticker.
type SentimentPayload struct {
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
}

func (SentimentPayload) SourceKind() SourceKind { return KindSentiment }
