package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/congo-pay/merchant_portal/internal/config"
	"github.com/congo-pay/merchant_portal/internal/logging"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the upstream endpoints and print the results as JSON",
	Long: `probe calls a read-only endpoint of each upstream service with the API key
from PROBE_API_KEY and prints one result per endpoint. It exits non-zero
when any endpoint fails.`,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.AppName)

	client := upstream.New(upstream.Config{
		RegisterURL: cfg.RegisterURL,
		MainURL:     cfg.MainURL,
		MiniURL:     cfg.MiniURL,
		Timeout:     cfg.UpstreamTimeout,
	}, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results := client.Probe(ctx, cfg.ProbeAPIKey)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.OK && !r.Skipped {
			return fmt.Errorf("probe %s failed", r.Name)
		}
	}
	return nil
}
