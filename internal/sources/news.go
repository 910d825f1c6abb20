// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/pdiddy/research-brief/internal/httputil"
	"github.com/pdiddy/research-brief/internal/mode"
	"github.com/pdiddy/research-brief/pkg/types"
)

// Overridden in tests.
var (
	newsAPIBase  = "https://newsapi.org/v2/everything"
	yahooRSSBase = "https://feeds.finance.yahoo.com/rss/2.0/headline"
)

const (
	maxArticles  = 10
	newsLookback = 7 * 24 * time.Hour
)

// News fetches recent headlines from NewsAPI, falling back to the Yahoo
// Finance headline feed when no token is configured or NewsAPI fails.
type News struct {
	client *httputil.Client
	opts   Options
	log    zerolog.Logger
}

// NewNews returns the news adapter.
func NewNews(opts Options) *News {
	log := opts.logger(types.KindNews)
	return &News{
		client: httputil.NewClient(opts.HTTP, log),
		opts:   opts,
		log:    log,
	}
}

func (n *News) Kind() types.SourceKind { return types.KindNews }

type newsFixture struct {
	Articles []types.Article `json:"articles"`
}

// Fetch returns up to maxArticles scored articles, one citation each.
func (n *News) Fetch(ctx context.Context, ticker string, mc *mode.Controller) types.EvidenceItem {
	return guard(types.KindNews, ticker, n.log, func() (types.Payload, []types.Citation, error) {
		var payload types.NewsPayload
		if mc.UseFixtures() {
			var fx newsFixture
			if err := mc.FixtureJSON(types.KindNews, ticker, &fx); err != nil {
				return nil, nil, err
			}
			payload = types.NewsPayload{Tier: types.TierFixture, Articles: fx.Articles}
		} else {
			outcome, err := n.resolve(ctx, ticker, mc.Credentials().NewsToken)
			if !outcome.Ok() {
				return nil, nil, err
			}
			payload = outcome.Value
			payload.FallbackReason = outcome.Reason
			if outcome.State == types.OutcomeFellBack {
				n.log.Info().Str("ticker", ticker).Str("reason", outcome.Reason).Msg("news fell back to secondary feed")
			}
		}

		payload.Articles = cleanArticles(payload.Articles)
		citations := make([]types.Citation, 0, len(payload.Articles))
		for _, a := range payload.Articles {
			citations = append(citations, a.Citation())
		}
		return payload, citations, nil
	})
}

// resolve walks the tier chain. NotFound carries the combined reason and the
// returned error is the secondary tier's failure.
func (n *News) resolve(ctx context.Context, ticker, token string) (types.Outcome[types.NewsPayload], error) {
	var reason string
	if token == "" {
		reason = "NEWS_TOKEN not configured"
	} else {
		articles, err := n.fetchNewsAPI(ctx, ticker, token)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return types.NotFound[types.NewsPayload](err.Error()), err
			}
			reason = fmt.Sprintf("primary failed: %v", err)
		case len(articles) == 0:
			reason = "primary returned no articles"
		default:
			return types.Found(types.NewsPayload{Tier: types.TierPrimary, Articles: articles}), nil
		}
	}

	articles, err := n.fetchRSS(ctx, ticker)
	if err != nil {
		combined := fmt.Sprintf("%s; secondary failed: %v", reason, err)
		return types.NotFound[types.NewsPayload](combined), types.AdapterErr(types.CodeOf(err), errors.New(combined))
	}
	return types.FellBack(reason, types.NewsPayload{Tier: types.TierSecondary, Articles: articles}), nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (n *News) fetchNewsAPI(ctx context.Context, ticker, token string) ([]types.Article, error) {
	now := n.opts.now().UTC()
	params := url.Values{}
	params.Set("q", strings.ToUpper(ticker))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", maxArticles))
	params.Set("from", now.Add(-newsLookback).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	var resp newsAPIResponse
	err := n.client.GetJSON(ctx, newsAPIBase+"?"+params.Encode(), http.Header{"X-Api-Key": {token}}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, types.AdapterErrorf(types.CodeHTTPStatus, "NewsAPI %s: %s", resp.Code, resp.Message)
	}

	articles := make([]types.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, types.Article{
			Title:       a.Title,
			Summary:     a.Description,
			URL:         a.URL,
			Publisher:   a.Source.Name,
			PublishedAt: datePrefix(a.PublishedAt),
		})
	}
	return articles, nil
}

func (n *News) fetchRSS(ctx context.Context, ticker string) ([]types.Article, error) {
	params := url.Values{}
	params.Set("s", strings.ToUpper(ticker))
	params.Set("region", "US")
	params.Set("lang", "en-US")

	body, err := n.client.Get(ctx, yahooRSSBase+"?"+params.Encode(), http.Header{"User-Agent": {browserUserAgent}})
	if err != nil {
		return nil, err
	}
	// gofeed parsers keep state between calls; tickers are fetched concurrently.
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, types.AdapterErr(types.CodeMalformed, fmt.Errorf("parsing headline feed: %w", err))
	}

	publisher := "Yahoo Finance"
	articles := make([]types.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := types.Article{
			Title:     item.Title,
			Summary:   item.Description,
			URL:       item.Link,
			Publisher: publisher,
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC().Format("2006-01-02")
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return nil, types.AdapterErrorf(types.CodeNotFound, "headline feed has no items for %s", ticker)
	}
	return articles, nil
}

// cleanArticles drops untitled entries, caps the list, and scores each
// article.
func cleanArticles(in []types.Article) []types.Article {
	out := make([]types.Article, 0, len(in))
	for _, a := range in {
		a.Title = strings.TrimSpace(a.Title)
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		a.Summary = strings.TrimSpace(a.Summary)
		a.PublishedAt = datePrefix(a.PublishedAt)
		a.Sentiment = scoreArticle(a)
		out = append(out, a)
		if len(out) == maxArticles {
			break
		}
	}
	return out
}

func datePrefix(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
