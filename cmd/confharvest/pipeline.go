// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run every configured venue/year job in sequence",
	Long: `Pipeline runs the jobs listed under pipeline.jobs in the config file one
after another, each into its own <venue>_<year>_papers directory. A failing
job is reported and the next one still runs.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if len(cfg.Pipeline.Jobs) == 0 {
		return errors.New("no jobs configured under pipeline.jobs")
	}

	ctx, stop := signalContext()
	defer stop()

	log := consoleLogger()
	out := cmd.OutOrStdout()
	var errs []error
	for i, job := range cfg.Pipeline.Jobs {
		if ctx.Err() != nil {
			break
		}
		log.Info().Int("job", i+1).Int("jobs", len(cfg.Pipeline.Jobs)).
			Str("venue", job.Venue).Int("year", job.Year).Msg("running job")
		report, err := harvest(ctx, cfg, job, "")
		if err != nil {
			log.Error().Err(err).Str("venue", job.Venue).Int("year", job.Year).Msg("job failed")
			errs = append(errs, fmt.Errorf("%s %d: %w", job.Venue, job.Year, err))
			continue
		}
		fmt.Fprintf(out, "%s %d\n%s\n", job.Venue, job.Year, summaryTable(report.Summary))
	}
	if ctx.Err() != nil {
		errs = append(errs, errors.New("interrupted"))
	}
	return errors.Join(errs...)
}
