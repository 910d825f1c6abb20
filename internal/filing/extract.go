// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filing extracts a named narrative section from a regulatory filing
// document. The document is flattened into text blocks, a block matching one
// of the target's headings opens the section, and the next item or part
// heading closes it. When no heading yields enough text, the result falls
// back to the filing metadata.
package filing

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/research-brief/pkg/types"
)

// MinSectionLength is the shortest section text accepted as a match.
const MinSectionLength = 200

// Target names a section and the headings that may introduce it, most
// specific first.
type Target struct {
	Name     string
	Headings []string
}

// MDA is the management's discussion and analysis section of 10-K and 10-Q
// filings and its 20-F counterpart.
var MDA = Target{
	Name: "Management's Discussion and Analysis",
	Headings: []string{
		"management's discussion and analysis of financial condition and results of operations",
		"management's discussion and analysis",
		"operating and financial review and prospects",
		"management's report",
	},
}

// headingSlack is how much longer than the heading phrase a block may be and
// still count as a heading rather than a paragraph that mentions it.
const headingSlack = 40

var boundary = regexp.MustCompile(`^(item\s+\d+[a-z]?\b|part\s+[ivx]+\b)`)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "section": true, "article": true, "center": true, "blockquote": true,
	"ul": true, "ol": true, "pre": true, "hr": true,
}

// Extract locates target in doc. It returns Found with the section text, or
// FellBack with meta when no heading matched or the matched text was shorter
// than MinSectionLength. An error means doc could not be parsed at all.
func Extract(doc []byte, target Target, meta types.FilingMetadata) (types.Outcome[types.FilingSection], error) {
	gdoc, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return types.Outcome[types.FilingSection]{}, fmt.Errorf("parsing filing document: %w", err)
	}
	return ExtractDocument(gdoc, target, meta), nil
}

// ExtractDocument is Extract over an already parsed document. It removes the
// document head, so read Metadata first.
func ExtractDocument(doc *goquery.Document, target Target, meta types.FilingMetadata) types.Outcome[types.FilingSection] {
	doc.Find("script, style, head, noscript").Remove()
	blocks := Blocks(doc.Selection)

	reason := "no section heading matched"
	for _, heading := range target.Headings {
		text, found := longestSection(blocks, Normalize(heading))
		if !found {
			continue
		}
		if len(text) >= MinSectionLength {
			return types.Found(types.FilingSection{Heading: heading, Text: text})
		}
		reason = fmt.Sprintf("section under %q has %d characters, need %d", heading, len(text), MinSectionLength)
	}

	fallback := meta
	return types.FellBack(reason, types.FilingSection{Fallback: &fallback})
}

// longestSection returns the longest body following a block that matches
// heading. Tables of contents repeat headings with empty bodies, so the
// longest candidate is the real section.
func longestSection(blocks []string, heading string) (string, bool) {
	best, found := "", false
	for i, b := range blocks {
		lower := strings.ToLower(b)
		if !strings.Contains(lower, heading) || len(lower) > len(heading)+headingSlack {
			continue
		}
		found = true
		var body []string
		for _, next := range blocks[i+1:] {
			if boundary.MatchString(strings.ToLower(next)) {
				break
			}
			body = append(body, next)
		}
		if text := strings.Join(body, "\n\n"); len(text) > len(best) {
			best = text
		}
	}
	return best, found
}

// Blocks flattens s into whitespace-normalized text blocks in document order.
func Blocks(s *goquery.Selection) []string {
	var (
		blocks []string
		buf    strings.Builder
	)
	flush := func() {
		if t := Normalize(buf.String()); t != "" {
			blocks = append(blocks, t)
		}
		buf.Reset()
	}
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				buf.WriteString(c.Text())
			case blockTags[name]:
				flush()
				walk(c)
				flush()
			default:
				walk(c)
			}
		})
	}
	walk(s)
	flush()
	return blocks
}

var replacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2019", "'",
	"\u2018", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2014", "-",
	"\u2013", "-",
)

// Normalize folds typographic punctuation and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(replacer.Replace(s)), " ")
}

// Metadata reads filing metadata from <meta name="filing-*"> tags, used by
// fixture documents. Missing tags leave defaults in place.
func Metadata(doc *goquery.Document, defaults types.FilingMetadata) types.FilingMetadata {
	m := defaults
	read := func(name string, dst *string) {
		if v, ok := doc.Find(`meta[name="` + name + `"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	read("filing-company", &m.Company)
	read("filing-form", &m.Form)
	read("filing-date", &m.FiledAt)
	read("filing-url", &m.URL)
	return m
}
