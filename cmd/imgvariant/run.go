package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewtec/imgvariant/internal/repository"
	"github.com/lewtec/imgvariant/variant"
)

var runCmd = &cobra.Command{
	Use:   "run [folder|config.yaml]",
	Short: "Produce every missing or outdated variant",
	Long: `Process every image below the subfolders of the project folder.

Variants whose stored checksum still matches their source are skipped, so
running twice over unchanged images writes nothing. The exit status only
reflects configuration problems; per image failures are listed in the report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFor(cmd)
		cfg, err := loadConfig(logger, args)
		if err != nil {
			return err
		}
		opts, err := cfg.Options()
		if err != nil {
			return err
		}
		export, err := cfg.Export()
		if err != nil {
			return err
		}
		queue, err := variant.BuildQueue(cfg, export)
		if err != nil {
			return err
		}
		sinks, err := variant.OpenSinks(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		pipeline := &variant.Pipeline{
			Options:    opts,
			Sinks:      sinks,
			Logger:     logger,
			ConfigPath: cfg.Path,
		}
		if !cfg.Ledger.Disabled {
			db, err := repository.Open(cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer db.Close()
			pipeline.Ledger = repository.NewRunRepository(db)
		}

		stats, err := pipeline.Run(cmd.Context(), queue)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "succeeded: %d, skipped: %d, failed: %d\n",
			len(stats.Succeeded), len(stats.Skipped), len(stats.Failed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
