// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confharvest/internal/acquire"
	"github.com/pdiddy/confharvest/internal/store"
	"github.com/pdiddy/confharvest/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the run history and latest failures of an output directory",
	Long: `Report reads harvest.db in an output directory and prints the recent
runs, the per-method breakdown of the latest run and the papers that failed
in it together with their failure reasons.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("dir", "", "output directory of a previous fetch (required)")
	reportCmd.Flags().Int("runs", 10, "number of runs to list")
	_ = reportCmd.MarkFlagRequired("dir")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	limit, _ := cmd.Flags().GetInt("runs")

	if _, err := os.Stat(filepath.Join(dir, store.DBFile)); err != nil {
		return fmt.Errorf("no run history in %s: %w", dir, err)
	}
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	defer closeQuietly(st)

	return writeReport(cmd.Context(), cmd.OutOrStdout(), st, limit)
}

func writeReport(ctx context.Context, out io.Writer, st *store.Store, limit int) error {
	latest, err := st.LatestRun(ctx)
	if errors.Is(err, store.ErrNoRuns) {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	if err != nil {
		return err
	}

	runs, err := st.Runs(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, runsTable(runs))

	methods, err := st.MethodCounts(ctx, latest.ID)
	if err != nil {
		return err
	}
	failed, err := st.Outcomes(ctx, latest.ID, types.StatusFailed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nLatest run %s\n", latest.ID)
	fmt.Fprintln(out, summaryTable(acquire.Summary{
		Total:       latest.Total,
		Success:     latest.Success,
		Exists:      latest.Exists,
		Failed:      latest.Failed,
		SuccessRate: latest.SuccessRate,
		Methods:     methods,
		Reasons:     reasonCounts(failed),
	}))
	if len(failed) > 0 {
		fmt.Fprintln(out, failuresTable(failed))
	}
	return nil
}

func reasonCounts(failed []types.Paper) map[types.FailureReason]int {
	counts := make(map[types.FailureReason]int)
	for _, p := range failed {
		counts[p.FailureReason]++
	}
	return counts
}
