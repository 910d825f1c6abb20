// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-brief/internal/pipeline"
	"github.com/pdiddy/research-brief/pkg/types"
)

const defaultTicker = "PLTR"

var runCmd = &cobra.Command{
	Use:   "run [tickers...]",
	Short: "Collect evidence and write a research brief per ticker",
	Long: `Run collects evidence for each ticker, generates a brief that cites the
collected sources, and saves brief.json and brief.md under
<runs-dir>/<run-id>/<TICKER>/. Tickers fail independently; the command exits
non-zero when any ticker failed. With no tickers, PLTR is used.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("focus", "", "angle the brief should emphasize")
	f.String("runs-dir", types.DefaultRunsDir, "directory that receives run folders")
	f.String("provider", "offline", "generator: offline, openai, anthropic, or gemini")
	f.String("model", "", "generator model (default depends on provider)")
	f.Duration("generation-timeout", types.DefaultGenerationTimeout, "timeout for one brief generation")

	bindFlags(f, map[string]string{
		"focus":              "focus",
		"runs_dir":           "runs-dir",
		"generator.provider": "provider",
		"generator.model":    "model",
		"generation_timeout": "generation-timeout",
	})

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig()
	if err != nil {
		return err
	}
	if cfg.Mode == types.ModeProbe {
		return probe(cmd, tickersOrDefault(args), "table")
	}

	runner, err := pipeline.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	res, err := runner.Run(cmd.Context(), tickersOrDefault(args), viper.GetString("focus"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, t := range res.Tickers {
		if t.Err != nil {
			fmt.Fprintln(os.Stderr, t.Err)
			continue
		}
		fmt.Fprintf(out, "%s\n", t.Markdown)
		fmt.Fprintf(out, "Saved outputs to %s\n", t.Dir)
	}

	if res.HasFailures() {
		return fmt.Errorf("%d of %d ticker(s) failed", len(res.Tickers)-res.Succeeded(), len(res.Tickers))
	}
	return nil
}

func tickersOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{defaultTicker}
	}
	return args
}
