package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"footprint/internal/adapters/filestore"
	"footprint/internal/report"
)

func reportCmd() *cobra.Command {
	var snapshotPath, format, output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a saved snapshot as a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			snap, err := filestore.Load(snapshotPath)
			if err != nil {
				return err
			}
			body, err := report.Renderer{}.Render(snap, f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file written by investigate")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "html, markdown, text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}
