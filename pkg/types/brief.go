package types

// Brief is the structured research brief produced for one ticker. Field tags
// define the schema contract checked before a brief is persisted.
type Brief struct {
	Ticker      string   `json:"ticker" validate:"required"`
	Focus       string   `json:"focus,omitempty"`
	Overview    string   `json:"overview" validate:"required"`
	Moat        string   `json:"moat" validate:"required"`
	Performance string   `json:"performance" validate:"required"`
	Catalysts   []string `json:"catalysts" validate:"min=1,dive,required"`
	Risks       []string `json:"risks" validate:"min=1,dive,required"`
	Valuation   string   `json:"valuation" validate:"required"`
	Peers       []string `json:"peers" validate:"required"`
	Sentiment   string   `json:"sentiment" validate:"required"`
	Sources     []Source `json:"sources" validate:"min=2,dive"`
	Metrics     Metrics  `json:"metrics"`
}

// Source is a citation as it appears in a brief.
type Source struct {
	Title     string `json:"title" validate:"required"`
	URL       string `json:"url" validate:"omitempty,url"`
	Publisher string `json:"publisher"`
	Date      string `json:"date"`
}

// SourceFromCitation converts an evidence citation.
func SourceFromCitation(c Citation) Source {
	return Source{Title: c.Title, URL: c.URL, Publisher: c.Publisher, Date: c.Date}
}

// Key mirrors Citation.Key.
func (s Source) Key() string {
	return Citation{Title: s.Title, URL: s.URL}.Key()
}

// Metrics are the numeric facts attached to a brief. Nil values were
// unavailable in the evidence.
type Metrics struct {
	Currency     string   `json:"currency,omitempty"`
	LatestClose  *float64 `json:"latest_close"`
	SMA20        *float64 `json:"sma20"`
	SMA50        *float64 `json:"sma50"`
	RSI14        *float64 `json:"rsi14"`
	RangeHigh    *float64 `json:"range_high"`
	RangeLow     *float64 `json:"range_low"`
	AvgClose30d  *float64 `json:"avg_close_30d"`
	SentimentAvg *float64 `json:"sentiment_avg"`
	NewsTier     string   `json:"news_tier,omitempty"`
	FilingForm   string   `json:"filing_form,omitempty"`
}
