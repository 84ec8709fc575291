// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/confharvest/internal/acquire"
	"github.com/pdiddy/confharvest/internal/store"
	"github.com/pdiddy/confharvest/pkg/types"
)

// newTable returns a rounded table with the given header. Columns listed
// in right are right-aligned; numbering starts at 1.
func newTable(header table.Row, right ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	configs := make([]table.ColumnConfig, 0, len(right))
	for _, n := range right {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// summaryTable renders the counts of a run followed by its per-method and
// per-reason breakdown.
func summaryTable(s acquire.Summary) string {
	tw := newTable(table.Row{"Metric", "Count"}, 2)
	tw.AppendRows([]table.Row{
		{"total", s.Total},
		{"success", s.Success},
		{"exists", s.Exists},
		{"failed", s.Failed},
		{"success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
	})
	for _, m := range sortedKeys(s.Methods) {
		tw.AppendRow(table.Row{"method " + string(m), s.Methods[m]})
	}
	for _, r := range sortedKeys(s.Reasons) {
		tw.AppendRow(table.Row{"reason " + string(r), s.Reasons[r]})
	}
	if s.Pending > 0 {
		tw.AppendRow(table.Row{"pending", s.Pending})
	}
	return tw.Render()
}

func runsTable(runs []store.Run) string {
	tw := newTable(table.Row{"Run", "Venue", "Year", "Events", "Finished", "Total", "OK", "Failed", "Rate"}, 3, 6, 7, 8, 9)
	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{
			r.ID[:min(8, len(r.ID))], r.Venue, r.Year, r.EventType, finished,
			r.Total, r.Success + r.Exists, r.Failed, fmt.Sprintf("%.1f%%", r.SuccessRate),
		})
	}
	return tw.Render()
}

func failuresTable(papers []types.Paper) string {
	tw := newTable(table.Row{"ID", "Title", "Reason", "Detail"})
	for _, p := range papers {
		tw.AppendRow(table.Row{p.ID, truncate(p.Title, 60), p.FailureReason, truncate(p.FailureDetail, 60)})
	}
	return tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
