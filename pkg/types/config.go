package types

import (
	"fmt"
	"time"
)

// Mode selects how source adapters obtain their data.
type Mode string

const (
	// ModeLive fetches from external services.
	ModeLive Mode = "live"
	// ModeFixture reads canned payloads from the fixtures directory.
	ModeFixture Mode = "fixture"
	// ModeProbe fetches live but only reports per-source status; nothing is
	// generated or written.
	ModeProbe Mode = "probe"
)

// ParseMode validates s as a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeLive, ModeFixture, ModeProbe:
		return m, nil
	case "":
		return ModeLive, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (want live, fixture, or probe)", ErrConfiguration, s)
	}
}

// HTTPConfig holds shared HTTP settings used by adapters that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent with requests that do not require a specific one.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Credentials are the secrets adapters and generators may need.
type Credentials struct {
	NewsToken    string `json:"-" yaml:"-"`
	SECUserAgent string `json:"-" yaml:"-"`
	OpenAIKey    string `json:"-" yaml:"-"`
	AnthropicKey string `json:"-" yaml:"-"`
	GeminiKey    string `json:"-" yaml:"-"`
}

// GeneratorConfig selects and configures the brief generator.
type GeneratorConfig struct {
	// Provider is one of offline, openai, anthropic, gemini.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the provider model name; empty uses the provider default.
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds a single generation call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries bounds retries on transient generation errors.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerMinute paces generation calls (0 disables pacing).
	RequestsPerMinute float64 `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// RunConfig is the complete configuration of one invocation.
type RunConfig struct {
	Mode        Mode          `json:"mode" yaml:"mode"`
	FixturesDir string        `json:"fixtures_dir" yaml:"fixtures_dir"`
	RunsDir     string        `json:"runs_dir" yaml:"runs_dir"`
	Focus       string        `json:"focus,omitempty" yaml:"focus,omitempty"`
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`

	HTTP        HTTPConfig      `json:"http" yaml:"http"`
	Generator   GeneratorConfig `json:"generator" yaml:"generator"`
	Credentials Credentials     `json:"-" yaml:"-"`
}

// Defaults.
const (
	DefaultFixturesDir       = "fixtures"
	DefaultRunsDir           = "runs"
	DefaultConcurrency       = 4
	DefaultAdapterTimeout    = 15 * time.Second
	DefaultGenerationTimeout = 60 * time.Second
	DefaultUserAgent         = "research-brief/0.1"
)

// WithDefaults returns c with zero fields replaced by defaults.
func (c RunConfig) WithDefaults() RunConfig {
	if c.Mode == "" {
		c.Mode = ModeLive
	}
	if c.FixturesDir == "" {
		c.FixturesDir = DefaultFixturesDir
	}
	if c.RunsDir == "" {
		c.RunsDir = DefaultRunsDir
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultAdapterTimeout
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = c.Timeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}
	if c.Generator.Provider == "" {
		c.Generator.Provider = "offline"
	}
	if c.Generator.Timeout <= 0 {
		c.Generator.Timeout = DefaultGenerationTimeout
	}
	return c
}
