package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleUsable(t *testing.T) {
	tests := []struct {
		name  string
		items []EvidenceItem
		want  bool
	}{
		{
			name: "two cited ok items",
			items: []EvidenceItem{
				Succeeded(KindPrice, "PLTR", PricePayload{}, Citation{Title: "Yahoo", URL: "https://a"}),
				Succeeded(KindFiling, "PLTR", FilingPayload{}, Citation{Title: "10-K", URL: "https://b"}),
			},
			want: true,
		},
		{
			name: "one item with two headlines",
			items: []EvidenceItem{
				Succeeded(KindNews, "PLTR", NewsPayload{},
					Citation{Title: "A", URL: "https://a"},
					Citation{Title: "B", URL: "https://b"}),
			},
			want: true,
		},
		{
			name: "duplicate citations count once",
			items: []EvidenceItem{
				Succeeded(KindNews, "PLTR", NewsPayload{}, Citation{Title: "A", URL: "https://a"}),
				Succeeded(KindPrice, "PLTR", PricePayload{}, Citation{Title: "A again", URL: "https://a"}),
			},
			want: false,
		},
		{
			name: "failed items do not count",
			items: []EvidenceItem{
				Succeeded(KindPrice, "PLTR", PricePayload{}, Citation{Title: "Yahoo", URL: "https://a"}),
				Failed(KindNews, "PLTR", errors.New("boom")),
			},
			want: false,
		},
		{
			name: "uncited ok items do not count",
			items: []EvidenceItem{
				Succeeded(KindPeers, "PLTR", PeersPayload{}),
				Succeeded(KindSentiment, "PLTR", SentimentPayload{}),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBundle("PLTR")
			for _, item := range tt.items {
				require.NoError(t, b.Put(item))
			}
			assert.Equal(t, tt.want, b.Usable())
		})
	}
}

func TestBundlePutRejectsDuplicateKind(t *testing.T) {
	b := NewBundle("PLTR")
	require.NoError(t, b.Put(Succeeded(KindPeers, "PLTR", PeersPayload{})))
	assert.Error(t, b.Put(Failed(KindPeers, "PLTR", errors.New("again"))))
}

func TestCodeOf(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), AdapterErrorf(CodeParse, "bad html"))
	assert.Equal(t, CodeParse, CodeOf(wrapped))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))

	// The code is carried beside the message, not inside it.
	item := Failed(KindFiling, "PLTR", AdapterErrorf(CodeMissingCredential, "SEC_UA is not configured"))
	assert.Equal(t, "SEC_UA is not configured", item.Error)
	assert.Equal(t, CodeMissingCredential, item.Code)
	assert.Equal(t, CodeMissingFixture, Failed(KindNews, "X", AdapterErr(CodeMissingFixture, errors.New("no file"))).Code)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("fixture")
	require.NoError(t, err)
	assert.Equal(t, ModeFixture, m)

	_, err = ParseMode("replay")
	assert.ErrorIs(t, err, ErrConfiguration)
}
