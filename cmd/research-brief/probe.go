// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-brief/internal/pipeline"
	"github.com/pdiddy/research-brief/pkg/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe [tickers...]",
	Short: "Report per-source health without generating or writing anything",
	Long: `Probe calls every source adapter for each ticker and reports which sources
succeeded, which failed and why, and whether the ticker would pass the
citation gate. Sources are read live unless --mode=fixture is given. Nothing
is written to disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return probe(cmd, tickersOrDefault(args), format)
	},
}

func init() {
	probeCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(probeCmd)
}

func probe(cmd *cobra.Command, tickers []string, format string) error {
	cfg, err := runConfig()
	if err != nil {
		return err
	}
	// Fixture probes read canned payloads; anything else probes live sources.
	if cfg.Mode != types.ModeFixture {
		cfg.Mode = types.ModeProbe
	}
	cfg.Generator.Provider = "offline"

	runner, err := pipeline.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	report, err := runner.Probe(cmd.Context(), tickers)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), format); err != nil {
		return err
	}
	if !report.Healthy() {
		return fmt.Errorf("one or more sources failed")
	}
	return nil
}
