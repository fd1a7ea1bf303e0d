package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	routingDI "github.com/fd1az/v2-router/business/routing/di"
	"github.com/fd1az/v2-router/business/routing/infra/snapshot"
)

func newSnapshotCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Reserve snapshot files",
	}
	cmd.AddCommand(newSnapshotExportCmd(configPath))
	return cmd
}

func newSnapshotExportCmd(configPath *string) *cobra.Command {
	var (
		tokens []string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the pools among a set of tokens to a snapshot file",
		Long: `Fetch every pool among the given tokens and the configured base tokens
and write them, with their reserves, to a file usable as snapshot.path.
The extension of --out picks the format (yaml, json or toml).

Example:
  $ router snapshot export --tokens DAI,USDC,USDT --out reserves.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := boot(cmd.Context(), *configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer application.Close()

			refs := append(append([]string{}, tokens...), application.cfg.Search.BaseTokens...)
			svc := routingDI.GetQuoteService(application.mono.Services())

			start := time.Now()
			pairs, err := svc.PairsAmong(cmd.Context(), refs)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				return fmt.Errorf("no pools among %v", refs)
			}

			if err := snapshot.Write(out, snapshot.FromPairs(svc.ChainID(), pairs)); err != nil {
				return err
			}

			application.log.Info(cmd.Context(), "snapshot exported",
				"path", out,
				"pairs", len(pairs),
				"elapsed", time.Since(start).String(),
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tokens, "tokens", nil, "Tokens to include besides the base tokens")
	cmd.Flags().StringVar(&out, "out", "reserves.yaml", "Output file")
	return cmd
}
