// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Generator providers.
const (
	ProviderOffline   = "offline"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.0-flash",
}

const anthropicMaxTokens = 4096

// CheckProvider reports a configuration failure when provider is unknown or
// its API key is missing. It makes no network calls.
func CheckProvider(cfg types.GeneratorConfig, creds types.Credentials) error {
	var key, name string
	switch cfg.Provider {
	case ProviderOffline, "":
		return nil
	case ProviderOpenAI:
		key, name = creds.OpenAIKey, "OPENAI_API_KEY"
	case ProviderAnthropic:
		key, name = creds.AnthropicKey, "ANTHROPIC_API_KEY"
	case ProviderGemini:
		key, name = creds.GeminiKey, "GEMINI_API_KEY"
	default:
		return fmt.Errorf("%w: unknown generator provider %q", types.ErrConfiguration, cfg.Provider)
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: generator %s needs %s", types.ErrConfiguration, cfg.Provider, name)
	}
	return nil
}

// NewGenerator builds the generator selected by cfg.
func NewGenerator(ctx context.Context, cfg types.GeneratorConfig, creds types.Credentials, log zerolog.Logger) (Generator, error) {
	if err := CheckProvider(cfg, creds); err != nil {
		return nil, err
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModels[cfg.Provider]
	}
	log = log.With().Str("generator", cfg.Provider).Str("model", modelName).Logger()

	switch cfg.Provider {
	case ProviderOpenAI:
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  creds.OpenAIKey,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating openai chat model: %v", types.ErrConfiguration, err)
		}
		return NewLLM(ProviderOpenAI, &einoCompleter{model: cm}, cfg, log), nil

	case ProviderAnthropic:
		client := anthropic.NewClient(option.WithAPIKey(creds.AnthropicKey))
		return NewLLM(ProviderAnthropic, &anthropicCompleter{client: client, model: modelName}, cfg, log), nil

	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  creds.GeminiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating gemini client: %v", types.ErrConfiguration, err)
		}
		return NewLLM(ProviderGemini, &geminiCompleter{client: client, model: modelName}, cfg, log), nil

	default:
		return NewComposer(), nil
	}
}

// einoCompleter talks to any OpenAI-compatible endpoint through eino.
type einoCompleter struct {
	model model.ChatModel
}

func (c *einoCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.model.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", errors.New("empty response from chat model")
	}
	return resp.Content, nil
}

type anthropicCompleter struct {
	client anthropic.Client
	model  string
}

func (c *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty response from Claude API")
	}
	return text.String(), nil
}

type geminiCompleter struct {
	client *genai.Client
	model  string
}

func (c *geminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(prompt)}},
	}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from Gemini API")
	}
	return text, nil
}
