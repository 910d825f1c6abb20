// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-brief/pkg/types"
)

// backoffBase is the base delay between completion retries. Tests override it.
var backoffBase = time.Second

// promptExcerpt bounds the filing text sent to a model.
const promptExcerpt = 4000

// promptSeriesTail is how many recent closes a prompt includes.
const promptSeriesTail = 10

// Completer sends one system and user prompt to a language model and returns
// the text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLM generates briefs with a language model. The model must answer with a
// JSON brief whose sources are drawn from the supplied citations.
type LLM struct {
	provider   string
	completer  Completer
	maxRetries int
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewLLM wraps completer as a Generator named provider.
func NewLLM(provider string, completer Completer, cfg types.GeneratorConfig, log zerolog.Logger) *LLM {
	g := &LLM{provider: provider, completer: completer, maxRetries: cfg.MaxRetries, log: log}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1)
	}
	return g
}

func (g *LLM) Name() string { return g.provider }

// Generate renders the prompt, calls the model, and decodes its reply.
func (g *LLM) Generate(ctx context.Context, req Request) (types.Brief, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return types.Brief{}, err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return types.Brief{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	reply, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return types.Brief{}, err
	}
	return parseBrief(reply)
}

const systemPrompt = `You are an equity research analyst. You write concise, factual research briefs using only the evidence you are given. You never invent facts, numbers, or sources. You answer with a single JSON object and nothing else.`

var promptTmpl = template.Must(template.New("brief").Parse(`Write a research brief for {{.Ticker}}.{{if .Focus}} Focus the analysis on: {{.Focus}}.{{end}}

Respond with a JSON object with exactly these fields:
- "ticker": "{{.Ticker}}"
- "overview": string, two or three sentences
- "moat": string, competitive position drawn from the filing evidence
- "performance": string, price action and technical indicators
- "catalysts": array of strings, up to three positive items (use ["No notable items in the latest coverage."] when there are none)
- "risks": array of strings, up to three negative items (same rule as catalysts)
- "valuation": string
- "peers": array of ticker strings, copied from the peers evidence (empty array when none)
- "sentiment": string summarizing headline tone
- "sources": array of objects {"title","url","publisher","date"}, at least two, each copied exactly from the numbered citations below

Evidence:
{{range .Evidence}}
[{{.Kind}}]
{{.JSON}}
{{end}}
Citations:
{{range $i, $c := .Citations}}{{$i}}. title={{$c.Title}} url={{$c.URL}} publisher={{$c.Publisher}} date={{$c.Date}}
{{end}}`))

type promptEvidence struct {
	Kind types.SourceKind
	JSON string
}

func buildPrompt(req Request) (string, error) {
	data := struct {
		Ticker    string
		Focus     string
		Evidence  []promptEvidence
		Citations []types.Citation
	}{Ticker: req.Ticker, Focus: req.Focus, Citations: req.Citations}

	for _, item := range req.Evidence {
		js, err := json.Marshal(condense(item.Payload))
		if err != nil {
			return "", fmt.Errorf("encoding %s evidence: %w", item.Kind, err)
		}
		data.Evidence = append(data.Evidence, promptEvidence{Kind: item.Kind, JSON: string(js)})
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// condense trims bulky payload fields before they go into a prompt.
func condense(p types.Payload) types.Payload {
	switch v := p.(type) {
	case types.PricePayload:
		if len(v.Series) > promptSeriesTail {
			v.Series = v.Series[len(v.Series)-promptSeriesTail:]
		}
		return v
	case types.FilingPayload:
		v.Section.Value.Text = excerpt(v.Section.Value.Text, promptExcerpt)
		return v
	default:
		return p
	}
}

// callWithRetry calls the completer with exponential backoff.
func (g *LLM) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			g.log.Warn().Int("attempt", attempt).Dur("backoff", backoff).Err(lastErr).Msg("retrying completion")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, err := g.completer.Complete(ctx, systemPrompt, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("after %d retries: %w", g.maxRetries, lastErr)
}

// parseBrief decodes a model reply, tolerating Markdown code fences and
// text around the JSON object.
func parseBrief(reply string) (types.Brief, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var b types.Brief
	if err := json.Unmarshal([]byte(s), &b); err != nil {
		return types.Brief{}, fmt.Errorf("decoding model reply: %w", err)
	}
	return b, nil
}
