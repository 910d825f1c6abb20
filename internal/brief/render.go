// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-brief/pkg/types"
)

// RenderJSON renders b as indented JSON with a trailing newline.
func RenderJSON(b types.Brief) ([]byte, error) {
	out, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

var markdownTmpl = template.Must(template.New("brief").Funcs(template.FuncMap{
	"num":    formatNumber,
	"join":   strings.Join,
	"inc":    func(i int) int { return i + 1 },
	"source": formatSource,
}).Parse(`# Research Brief: {{.Ticker}}
{{- if .Focus}}

_Focus: {{.Focus}}_
{{- end}}

### Overview

{{.Overview}}

### Moat

{{.Moat}}

### Performance

{{.Performance}}

### Catalysts

{{range .Catalysts}}- {{.}}
{{end}}
### Risks

{{range .Risks}}- {{.}}
{{end}}
### Valuation

{{.Valuation}}

### Peers

{{if .Peers}}{{join .Peers ", "}}{{else}}No peer set is configured for this ticker.{{end}}

### Sentiment

{{.Sentiment}}

### Metrics

| Metric | Value |
|---|---|
{{- with .Metrics}}
| Latest close | {{num .LatestClose}} |
| SMA20 | {{num .SMA20}} |
| SMA50 | {{num .SMA50}} |
| RSI14 | {{num .RSI14}} |
| Range high | {{num .RangeHigh}} |
| Range low | {{num .RangeLow}} |
| 30-day average close | {{num .AvgClose30d}} |
| Average sentiment | {{num .SentimentAvg}} |
{{- end}}

### Sources

{{range $i, $s := .Sources}}{{inc $i}}. {{source $s}}
{{end}}`))

// RenderMarkdown renders b as a Markdown document.
func RenderMarkdown(b types.Brief) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatNumber(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatSource(s types.Source) string {
	label := s.Title
	if s.Publisher != "" {
		label += " - " + s.Publisher
	}
	if s.Date != "" {
		label += " (" + s.Date + ")"
	}
	if s.URL == "" {
		return label
	}
	return fmt.Sprintf("[%s](%s)", label, s.URL)
}
