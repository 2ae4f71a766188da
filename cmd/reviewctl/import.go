package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	shownErrors   = 5
	shownWarnings = 3
)

type importOptions struct {
	file          string
	coordinator   string
	dryRun        bool
	strict        bool
	requireMentee bool
}

func newImportCmd(g *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import project assignments from a CSV or Excel file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV, .xlsx or .xls file (required)")
	cmd.Flags().StringVar(&opts.coordinator, "coordinator", "", "Email of the coordinator the projects belong to (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate only, write nothing")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Abort if any row fails validation")
	cmd.Flags().BoolVar(&opts.requireMentee, "require-mentee", false, "Fail rows whose mentee has no account")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("coordinator")

	return cmd
}

func runImport(cmd *cobra.Command, g *globalOptions, opts importOptions) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}
	up := importer.Upload{Name: filepath.Base(opts.file), Data: data}

	if err := g.openDB(); err != nil {
		return err
	}
	db := models.GetDB()
	services.InitSystemLogger(db)

	coordinator, err := services.NewUserService(db).GetByEmail(cmd.Context(), opts.coordinator)
	if err != nil {
		return fmt.Errorf("coordinator %s: %w", opts.coordinator, err)
	}
	if coordinator.Role != models.RoleCoordinator && coordinator.Role != models.RoleHOD {
		return fmt.Errorf("%s is a %s, not a coordinator", coordinator.Email, coordinator.Role)
	}

	cfg := g.cfg.Import
	cfg.StrictValidation = cfg.StrictValidation || opts.strict
	cfg.RequireExistingMentee = cfg.RequireExistingMentee || opts.requireMentee
	svc := services.NewImportService(db, cfg, nil, nil)
	out := cmd.OutOrStdout()

	if opts.dryRun {
		preview, err := svc.Preview(cmd.Context(), up)
		if err != nil {
			return describeImportError(out, err)
		}
		printPreview(out, preview)
		return nil
	}

	_, report, err := svc.Import(cmd.Context(), up, coordinator.ID)
	if err != nil {
		return describeImportError(out, err)
	}
	printReport(out, report)
	if report.Failed > 0 {
		return fmt.Errorf("%d row(s) failed", report.Failed)
	}
	return nil
}

func describeImportError(w io.Writer, err error) error {
	var nv *importer.NoValidRowsError
	if errors.As(err, &nv) {
		printMessages(w, "Errors", nv.Errors, shownErrors, color.FgRed)
		printMessages(w, "Warnings", nv.Warnings, shownWarnings, color.FgYellow)
	}
	return err
}

func printReport(w io.Writer, r *importer.Report) {
	headline := color.New(color.FgGreen, color.Bold)
	if r.Failed > 0 {
		headline = color.New(color.FgYellow, color.Bold)
	}
	headline.Fprintf(w, "Imported %d of %d valid row(s)\n", r.Success, r.ValidRows)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Total Rows", "Valid", "Invalid", "Success", "Failed", "Created Projects", "Updated Projects"})
	table.Append([]string{
		strconv.Itoa(r.TotalRows),
		strconv.Itoa(r.ValidRows),
		strconv.Itoa(r.InvalidRows),
		strconv.Itoa(r.Success),
		strconv.Itoa(r.Failed),
		strconv.Itoa(len(r.CreatedProjects)),
		strconv.Itoa(len(r.UpdatedProjects)),
	})
	table.Render()

	printMessages(w, "Errors", r.Errors, shownErrors, color.FgRed)
	printMessages(w, "Warnings", r.Warnings, shownWarnings, color.FgYellow)
}

func printPreview(w io.Writer, p *importer.Preview) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "Dry run (%s): %d of %d row(s) valid, nothing written\n", p.Format, len(p.Rows), p.TotalRows)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Row", "Project", "Mentor", "Mentee", "Status"})
	for _, row := range p.Rows {
		table.Append([]string{strconv.Itoa(row.RowNumber), row.ProjectName, row.MentorEmail, row.MenteeEmail, row.ProjectStatus})
	}
	table.Render()

	printMessages(w, "Errors", p.Errors, shownErrors, color.FgRed)
	printMessages(w, "Warnings", p.Warnings, shownWarnings, color.FgYellow)
}

// printMessages prints the first n messages and a "+N more" line.
func printMessages(w io.Writer, title string, msgs []string, n int, attr color.Attribute) {
	if len(msgs) == 0 {
		return
	}
	shown, more := importer.Truncate(msgs, n)
	c := color.New(attr)
	c.Fprintf(w, "%s:\n", title)
	for _, m := range shown {
		c.Fprintf(w, "  - %s\n", m)
	}
	if more > 0 {
		fmt.Fprintf(w, "  +%d more\n", more)
	}
}
