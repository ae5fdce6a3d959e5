package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	output     string
	file       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "importer",
		Short:         "Import annual curriculum plans into a matrix",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := newRenderer(opts.output, cmd.OutOrStdout()); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	cmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "plan document (.pdf or .txt)")
	_ = cmd.MarkPersistentFlagRequired("file")

	cmd.AddCommand(newParseCmd(opts))
	cmd.AddCommand(newImportCmd(opts, false))
	cmd.AddCommand(newImportCmd(opts, true))
	return cmd
}
