// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confharvest/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Find and download the PDF of a single paper",
	Long: `Resolve looks up one paper by title and authors. With --venue and
--page-url the paper's direct review link is tried first; otherwise the
paper is searched on arXiv and the best confident match is downloaded.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("title", "", "paper title (required)")
	resolveCmd.Flags().String("authors", "", "author list as printed on the listing")
	resolveCmd.Flags().String("id", "adhoc", "identifier used in the PDF file name")
	resolveCmd.Flags().String("venue", "", "venue adapter used for the direct reference")
	resolveCmd.Flags().String("page-url", "", "paper detail page on the venue site")
	resolveCmd.Flags().String("output-dir", ".", "output directory")
	_ = resolveCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	authors, _ := cmd.Flags().GetString("authors")
	id, _ := cmd.Flags().GetString("id")
	venueName, _ := cmd.Flags().GetString("venue")
	pageURL, _ := cmd.Flags().GetString("page-url")
	outDir, _ := cmd.Flags().GetString("output-dir")

	log := consoleLogger()
	comp, err := newComponents(cfg, log)
	if err != nil {
		return err
	}

	paper := types.Paper{ID: id, Title: title, Authors: authors, PageURL: pageURL}
	r := comp.resolver(cfg, nil, outDir, log)
	if venueName != "" {
		adapter, err := comp.openVenue(venueName)
		if err != nil {
			return err
		}
		r.Reference = adapter
		paper.Venue = adapter.Name()
	}

	ctx, stop := signalContext()
	defer stop()

	out := r.Resolve(ctx, paper)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	if out.LocalPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out.LocalPath)
	}
	if out.Status == types.StatusFailed {
		return errors.New("paper could not be resolved")
	}
	return nil
}
