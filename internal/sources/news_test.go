// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/pkg/types"
)

func newsAPIArticles(titles ...string) map[string]any {
	var articles []any
	for i, title := range titles {
		articles = append(articles, map[string]any{
			"source":      map[string]any{"name": "Reuters"},
			"title":       title,
			"description": []string{"Contract win boosts growth", "Analysts flag concern over valuation risk"}[i%2],
			"url":         "https://example.com/a/" + title,
			"publishedAt": "2024-06-27T14:00:00Z",
		})
	}
	return map[string]any{"status": "ok", "articles": articles}
}

func TestNewsTiers(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		newsHandler http.HandlerFunc
		rssHandler  http.HandlerFunc
		wantOK      bool
		wantTier    types.NewsTier
		wantReason  string
		wantCites   int
		wantCode    types.ErrorCode
	}{
		{
			name:  "primary",
			token: "tok",
			newsHandler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "tok", r.Header.Get("X-Api-Key"))
				assert.Equal(t, "PLTR", r.URL.Query().Get("q"))
				assert.Equal(t, "2024-06-21", r.URL.Query().Get("from"))
				writeJSON(t, w, newsAPIArticles("one", "two", "three"))
			},
			wantOK:    true,
			wantTier:  types.TierPrimary,
			wantCites: 3,
		},
		{
			name:  "no token falls back",
			token: "",
			newsHandler: func(w http.ResponseWriter, _ *http.Request) {
				t.Error("primary must not be called without a token")
			},
			rssHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(rssBody("Palantir wins contract", "Palantir expands")))
			},
			wantOK:     true,
			wantTier:   types.TierSecondary,
			wantReason: "NEWS_TOKEN not configured",
			wantCites:  2,
		},
		{
			name:  "primary error falls back",
			token: "bad",
			newsHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			rssHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(rssBody("Palantir wins contract")))
			},
			wantOK:     true,
			wantTier:   types.TierSecondary,
			wantReason: "primary failed",
			wantCites:  1,
		},
		{
			name:  "empty primary falls back",
			token: "tok",
			newsHandler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, map[string]any{"status": "ok", "articles": []any{}})
			},
			rssHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(rssBody("Palantir wins contract")))
			},
			wantOK:     true,
			wantTier:   types.TierSecondary,
			wantReason: "primary returned no articles",
			wantCites:  1,
		},
		{
			name:  "both tiers fail",
			token: "",
			rssHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("not a feed"))
			},
			wantOK:   false,
			wantCode: types.CodeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			if tt.newsHandler != nil {
				mux.HandleFunc("/news", tt.newsHandler)
			}
			if tt.rssHandler != nil {
				mux.HandleFunc("/rss", tt.rssHandler)
			}
			ts := httptest.NewServer(mux)
			defer ts.Close()
			defer overrideBaseURLs(ts.URL)()

			item := NewNews(testOptions()).Fetch(ctx(t), "PLTR", liveController(t, types.Credentials{NewsToken: tt.token}))
			if !tt.wantOK {
				assert.False(t, item.OK())
				assert.Equal(t, tt.wantCode, item.Code)
				assert.Contains(t, item.Error, "NEWS_TOKEN not configured")
				return
			}

			require.True(t, item.OK(), item.Error)
			p := item.Payload.(types.NewsPayload)
			assert.Equal(t, tt.wantTier, p.Tier)
			assert.Contains(t, p.FallbackReason, tt.wantReason)
			assert.Len(t, item.Citations, tt.wantCites)
		})
	}
}

func TestNewsPrimaryArticleFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, newsAPIArticles("win", "risk"))
	}))
	defer ts.Close()
	defer overrideBaseURLs(ts.URL)()

	item := NewNews(testOptions()).Fetch(ctx(t), "PLTR", liveController(t, types.Credentials{NewsToken: "tok"}))
	require.True(t, item.OK(), item.Error)

	p := item.Payload.(types.NewsPayload)
	require.Len(t, p.Articles, 2)
	assert.Equal(t, types.Article{
		Title:       "win",
		Summary:     "Contract win boosts growth",
		URL:         "https://example.com/a/win",
		Publisher:   "Reuters",
		PublishedAt: "2024-06-27",
		Sentiment:   1,
	}, p.Articles[0])
	assert.Equal(t, -1.0, p.Articles[1].Sentiment)
}

func TestNewsFixture(t *testing.T) {
	mc := fixtureController(t, map[string]string{
		"news_PLTR.json": `{"articles":[
			{"title":"Palantir beats estimates","summary":"Strong quarter","url":"https://example.com/1","publisher":"Reuters","published_at":"2024-06-27T10:00:00Z"},
			{"title":"","url":"https://example.com/empty"},
			{"title":"Growth concerns","summary":"Slow growth risk","url":"https://example.com/2","publisher":"Bloomberg","published_at":"2024-06-26"}
		]}`,
	})

	item := NewNews(testOptions()).Fetch(ctx(t), "PLTR", mc)
	require.True(t, item.OK(), item.Error)

	p := item.Payload.(types.NewsPayload)
	assert.Equal(t, types.TierFixture, p.Tier)
	require.Len(t, p.Articles, 2)
	assert.Equal(t, "2024-06-27", p.Articles[0].PublishedAt)
	assert.Equal(t, 1.0, p.Articles[0].Sentiment)
	assert.Equal(t, -0.33, p.Articles[1].Sentiment)
	assert.Len(t, item.Citations, 2)
}

func TestNewsConcurrentTickersShareAdapter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(r.URL.Query().Get("s")+" headline one", r.URL.Query().Get("s")+" headline two")))
	}))
	defer ts.Close()
	defer overrideBaseURLs(ts.URL)()

	news := NewNews(testOptions())
	mc := liveController(t, types.Credentials{})
	c := ctx(t)

	const n = 16
	items := make([]types.EvidenceItem, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items[i] = news.Fetch(c, fmt.Sprintf("T%d", i), mc)
		}()
	}
	wg.Wait()

	for i, item := range items {
		require.True(t, item.OK(), item.Error)
		p := item.Payload.(types.NewsPayload)
		assert.Equal(t, types.TierSecondary, p.Tier)
		require.Len(t, p.Articles, 2)
		assert.Equal(t, fmt.Sprintf("T%d headline one", i), p.Articles[0].Title)
	}
}
