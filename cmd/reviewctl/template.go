package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the CSV import template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" || out == "-" {
				return importer.WriteTemplate(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := importer.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Template written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", fmt.Sprintf("Output file (default stdout, e.g. %s)", importer.TemplateFileName))
	return cmd
}
