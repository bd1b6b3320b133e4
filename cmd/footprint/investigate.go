package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"footprint/internal/adapters/filestore"
	"footprint/internal/app"
	"footprint/internal/identity"
	"footprint/internal/report"
)

const exitInvalidInput = 2

type investigateOptions struct {
	email  string
	phone  string
	output string
	format string
}

func investigateCmd(g *globalFlags) *cobra.Command {
	var opts investigateOptions
	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Run an investigation and save the snapshot",
		Long: `Run every configured source against an email address and/or phone number,
correlate the results and save them under the results directory.

Examples:
  footprint investigate --email jane.doe@example.com
  footprint investigate --phone +14155550100 --report html
  footprint investigate --email jane.doe@example.com --output jane.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInvestigate(cmd, g, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.email, "email", "e", "", "target email address")
	cmd.Flags().StringVarP(&opts.phone, "phone", "p", "", "target phone number")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "snapshot file name (default results.json)")
	cmd.Flags().StringVarP(&opts.format, "report", "r", "", "also export a report: html, markdown, text or json")
	return cmd
}

func runInvestigate(cmd *cobra.Command, g *globalFlags, opts investigateOptions) error {
	var format report.Format
	if opts.format != "" {
		f, err := report.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	snap, err := app.NewInvestigator(cfg, logger).Investigate(cmd.Context(), identity.Input{Email: opts.email, Phone: opts.phone})
	var ve *identity.ValidationError
	if errors.As(err, &ve) {
		printValidation(cmd.ErrOrStderr(), ve)
		return &exitError{code: exitInvalidInput}
	}
	if err != nil {
		return err
	}

	// Failing to write leaves the in-memory results valid; show them anyway.
	store := filestore.New(cfg.ResultsDir)
	location, err := store.Save(snap, opts.output)
	if err != nil {
		logger.Error("Snapshot not saved", zap.Error(err))
	}
	printSummary(cmd.OutOrStdout(), snap, location)

	if format != "" {
		body, err := report.Renderer{}.Render(snap, format)
		if err != nil {
			return err
		}
		path, err := store.SaveReport(snap, format.Ext(), body)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", path)
	}
	return nil
}

func printValidation(w io.Writer, ve *identity.ValidationError) {
	fmt.Fprintln(w, "Invalid input:")
	for _, f := range ve.Fields {
		fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Reason)
	}
}
