// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-brief CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-brief/internal/logger"
	"github.com/pdiddy/research-brief/internal/secrets"
	"github.com/pdiddy/research-brief/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// credentials are resolved from .env, .secrets/, and the environment at startup.
	credentials types.Credentials

	log = zerolog.Nop()
)

// rootCmd is the base command for the research-brief CLI.
var rootCmd = &cobra.Command{
	Use:   "research-brief",
	Short: "Assemble cited research briefs for equity tickers",
	Long: `research-brief collects price history, technical indicators, peers, news
headlines, and a filing excerpt for each ticker, then writes a structured brief
that cites at least two of the collected sources.

Three modes are available: live calls the upstream data sources, fixture reads
canned payloads from the fixtures directory, and probe reports per-source
health without generating or writing anything.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New(logger.Config{
			Level:  viper.GetString("log.level"),
			Pretty: viper.GetBool("log.pretty"),
		})

		creds, found, err := secrets.Resolver{Dir: ".secrets/", Dotenv: ".env"}.Resolve()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrConfiguration, err)
		}
		credentials = creds
		if len(found) > 0 {
			log.Debug().Strs("keys", found).Msg("loaded credentials")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-brief.yaml or ~/.config/research-brief/config.yaml)")
	pf.String("mode", string(types.ModeLive), "execution mode: live, fixture, or probe")
	pf.String("fixtures-dir", types.DefaultFixturesDir, "directory of canned source payloads")
	pf.Duration("timeout", types.DefaultAdapterTimeout, "per-source fetch timeout")
	pf.Int("concurrency", types.DefaultConcurrency, "tickers processed at once")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("log-pretty", false, "human-readable log output")

	bindFlags(pf, map[string]string{
		"mode":         "mode",
		"fixtures_dir": "fixtures-dir",
		"timeout":      "timeout",
		"concurrency":  "concurrency",
		"log.level":    "log-level",
		"log.pretty":   "log-pretty",
	})

	viper.SetDefault("runs_dir", types.DefaultRunsDir)
	viper.SetDefault("generation_timeout", types.DefaultGenerationTimeout)
	viper.SetDefault("generator.provider", "offline")
	_ = viper.BindEnv("runs_dir", "RESEARCH_BRIEF_RUNS_DIR", "RUNS_DIR")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-brief")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-brief"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_BRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags ties viper keys to flags. A flag set on the command line wins
// over the environment and the config file.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// runConfig builds the run configuration from viper and the resolved
// credentials.
func runConfig() (types.RunConfig, error) {
	m, err := types.ParseMode(viper.GetString("mode"))
	if err != nil {
		return types.RunConfig{}, err
	}
	cfg := types.RunConfig{
		Mode:        m,
		FixturesDir: viper.GetString("fixtures_dir"),
		RunsDir:     viper.GetString("runs_dir"),
		Focus:       viper.GetString("focus"),
		Concurrency: viper.GetInt("concurrency"),
		Timeout:     viper.GetDuration("timeout"),
		HTTP: types.HTTPConfig{
			UserAgent:  viper.GetString("http.user_agent"),
			MaxRetries: viper.GetInt("http.max_retries"),
		},
		Generator: types.GeneratorConfig{
			Provider:          viper.GetString("generator.provider"),
			Model:             viper.GetString("generator.model"),
			BaseURL:           viper.GetString("generator.base_url"),
			Timeout:           viper.GetDuration("generation_timeout"),
			MaxRetries:        viper.GetInt("generator.max_retries"),
			RequestsPerMinute: viper.GetFloat64("generator.requests_per_minute"),
		},
		Credentials: credentials,
	}
	return cfg.WithDefaults(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
