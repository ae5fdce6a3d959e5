package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/extract"
)

type parseOptions struct {
	year      int
	timezone  string
	minLength int
	pdftotext string
	verbose   bool
}

// newParseCmd parses a document without touching the database.
func newParseCmd(root *rootOptions) *cobra.Command {
	opts := parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract and parse a plan document, printing entries and errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(opts.timezone)
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("invalid --timezone: %w", err)}
			}
			logger := zap.NewNop()
			if opts.verbose {
				logger, _ = zap.NewDevelopment()
			}

			f, err := os.Open(root.file)
			if err != nil {
				return err
			}
			defer f.Close()

			text, err := extract.New(extract.Config{Pdftotext: opts.pdftotext}, logger).
				Extract(cmd.Context(), filepath.Base(root.file), f)
			if err != nil {
				return err
			}

			res := curriculum.Parse(text, curriculum.Options{
				Year:          opts.year,
				Location:      loc,
				MinTextLength: opts.minLength,
			})

			render, _ := newRenderer(root.output, cmd.OutOrStdout())
			if err := render(res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return &exitError{code: exitPartial, err: fmt.Errorf("%d problems found", len(res.Errors))}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.year, "year", time.Now().Year(), "year the dd/mm markers belong to")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "America/Sao_Paulo", "IANA zone anchoring every date")
	cmd.Flags().IntVar(&opts.minLength, "min-length", curriculum.DefaultMinTextLength, "minimum objective/curriculum text length")
	cmd.Flags().StringVar(&opts.pdftotext, "pdftotext", "pdftotext", "pdftotext binary")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log external commands to stderr")
	return cmd
}
