package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"footprint/internal/domain"
	"footprint/internal/report"
)

// printSummary writes the post-investigation overview shown on the terminal.
func printSummary(w io.Writer, snap *domain.Snapshot, location string) {
	overview := report.Summarize(snap)
	corr := snap.Correlations

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Investigation %s", snap.ID)
	if snap.TargetInfo.Email != "" {
		t.AppendRow(table.Row{"Email", snap.TargetInfo.Email})
	}
	if snap.TargetInfo.Phone != "" {
		t.AppendRow(table.Row{"Phone", snap.TargetInfo.Phone})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Platforms searched", overview.PlatformsSearched},
		{"Usernames found", corr.Summary.TotalUsernames},
		{"Cross-platform matches", corr.Summary.CrossPlatformMatches},
		{"Breaches found", overview.BreachesFound},
		{"Breach risk", overview.RiskLevel},
		{"Confidence", fmt.Sprintf("%s (%.1f)", corr.Summary.ConfidenceLevel, corr.ConfidenceScores.Overall)},
		{"Failed sources", overview.FailedSources},
	})
	if location != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Saved to", location})
	}
	t.Render()

	if len(corr.Summary.KeyFindings) > 0 {
		fmt.Fprintln(w, "\nKey findings:")
		for _, f := range corr.Summary.KeyFindings {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(snap.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		fmt.Fprintf(w, "  %s\n", strings.Join(snap.Warnings, "\n  "))
	}
}
