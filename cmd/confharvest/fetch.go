// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confharvest/internal/acquire"
	"github.com/pdiddy/confharvest/internal/logging"
	"github.com/pdiddy/confharvest/internal/store"
	"github.com/pdiddy/confharvest/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the papers of one venue and year",
	Long: `Fetch scrapes the listing of each event type for a venue and year,
resolves every paper to a verified PDF and writes the results into the
output directory. Papers already on disk are skipped without network
activity, so an interrupted fetch can simply be run again.

The venue is a registered short name (cvpr, iclr, icml, neurips) or the
base URL of a site using the virtual-conference layout.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("venue", "", "venue short name or base URL (required)")
	fetchCmd.Flags().Int("year", 0, "conference year (required)")
	fetchCmd.Flags().StringSlice("event-types", []string{"oral"}, "event types to fetch")
	fetchCmd.Flags().Int("workers", 0, "concurrent resolutions (default from config)")
	fetchCmd.Flags().String("output-dir", "", "output directory (default <venue>_<year>_papers)")
	fetchCmd.Flags().Bool("no-search", false, "disable the arXiv search fallback")
	_ = fetchCmd.MarkFlagRequired("venue")
	_ = fetchCmd.MarkFlagRequired("year")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	venueName, _ := cmd.Flags().GetString("venue")
	year, _ := cmd.Flags().GetInt("year")
	eventTypes, _ := cmd.Flags().GetStringSlice("event-types")
	outDir, _ := cmd.Flags().GetString("output-dir")

	c := cfg
	if cmd.Flags().Changed("workers") {
		c.Harvest.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if noSearch, _ := cmd.Flags().GetBool("no-search"); noSearch {
		c.Search.Enabled = false
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if outDir == "" {
		outDir = c.Harvest.OutputDir
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := harvest(ctx, c, types.Job{Venue: venueName, Year: year, EventTypes: eventTypes}, outDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryTable(report.Summary))
	if ctx.Err() != nil {
		return errors.New("interrupted")
	}
	return nil
}

// harvest runs one job end to end. An empty outDir is derived from the
// venue and year.
func harvest(ctx context.Context, c types.Config, job types.Job, outDir string) (acquire.Report, error) {
	if outDir == "" {
		outDir = acquire.DefaultOutputDir(venueSlug(job.Venue), job.Year)
	}
	lvl, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return acquire.Report{}, err
	}
	log, closer, err := logging.WithRunLog(os.Stderr, outDir, lvl)
	if err != nil {
		return acquire.Report{}, err
	}
	defer closer.Close()

	comp, err := newComponents(c, log)
	if err != nil {
		return acquire.Report{}, err
	}
	adapter, err := comp.openVenue(job.Venue)
	if err != nil {
		return acquire.Report{}, err
	}

	var st *store.Store
	if s, err := store.Open(outDir); err != nil {
		log.Warn().Err(err).Msg("run history disabled")
	} else {
		st = s
		defer closeQuietly(st)
	}

	h := &acquire.Harvester{
		Lister:   adapter,
		Resolver: comp.resolver(c, adapter, outDir, log),
		Store:    st,
		Workers:  c.Harvest.Workers,
		Dir:      outDir,
		Logger:   log,
	}
	log.Info().Str("venue", adapter.Name()).Int("year", job.Year).Strs("event_types", job.EventTypes).
		Str("output_dir", outDir).Bool("search", c.Search.Enabled).Msg("starting harvest")
	return h.Run(ctx, job.Year, job.EventTypes)
}

// venueSlug turns a venue name into a directory-safe prefix. URL venues
// use their host name.
func venueSlug(name string) string {
	if u, err := url.Parse(name); err == nil && u.Host != "" {
		return strings.ReplaceAll(u.Hostname(), ".", "_")
	}
	return name
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
