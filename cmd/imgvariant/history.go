package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/repository"
)

var historyCmd = &cobra.Command{
	Use:   "history [folder|config.yaml]",
	Short: "List previous runs, or the report of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFor(cmd)
		cfg, err := loadConfig(logger, args)
		if err != nil {
			return err
		}
		if cfg.Ledger.Disabled {
			return fmt.Errorf("%w: the run ledger is disabled", domain.ErrConfiguration)
		}
		db, err := repository.Open(cfg.Ledger.Path)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer db.Close()
		repo := repository.NewRunRepository(db)

		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer out.Flush()

		runID, _ := cmd.Flags().GetString("run")
		if runID == "" {
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "id\tstarted\tfinished\tsucceeded\tskipped\tfailed")
			for _, run := range runs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%d\n", run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Succeeded, run.Skipped, run.Failed)
			}
			return nil
		}

		run, err := repo.Get(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
		}
		outcome, _ := cmd.Flags().GetString("outcome")
		entries, err := repo.Entries(cmd.Context(), runID, domain.Outcome(outcome))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s (%s)\n", run.ID, run.ConfigPath)
		for _, e := range entries {
			fmt.Fprintf(out, "%s\t%s\n", e.Outcome, e.Message)
		}
		return nil
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("run", "r", "", "Show the report of this run")
	historyCmd.Flags().StringP("outcome", "o", "", "Only show succeeded, skipped or failed entries")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
}
