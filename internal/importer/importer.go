// Package importer turns an uploaded CSV or Excel file of project
// assignments into projects, assignments and mentee links.
//
// The pipeline is parse, resolve headers, validate, reconcile, aggregate.
// Only the first three stages honor cancellation; once rows start being
// written the import runs over every valid row.
package importer

import (
	"context"
	"time"

	"github.com/mentorloop/reviewhub/pkg/logger"
	"github.com/rs/zerolog"
)

// Upload is one file as received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

type options struct {
	requireExistingMentee bool
	strictValidation      bool
	defaultStatus         string
	log                   *zerolog.Logger
}

type Option func(*options)

// WithRequireExistingMentee fails rows whose mentee has no account.
func WithRequireExistingMentee(v bool) Option {
	return func(o *options) { o.requireExistingMentee = v }
}

// WithStrictValidation aborts the import if any row fails validation.
func WithStrictValidation(v bool) Option {
	return func(o *options) { o.strictValidation = v }
}

func WithDefaultStatus(status string) Option {
	return func(o *options) { o.defaultStatus = status }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = &l }
}

// Importer runs imports against a Store. It holds no per-import state and
// is safe for concurrent use if the Store is.
type Importer struct {
	store Store
	opts  options
}

func New(store Store, opts ...Option) *Importer {
	o := options{defaultStatus: DefaultStatus}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		l := logger.With("importer")
		o.log = &l
	}
	return &Importer{store: store, opts: o}
}

// Preview is the dry-run view of an upload: nothing is written.
type Preview struct {
	Format    string            `json:"format"`
	Columns   map[string]string `json:"columns"`
	Rows      []NormalizedRow   `json:"rows"`
	Errors    []string          `json:"errors"`
	Warnings  []string          `json:"warnings"`
	TotalRows int               `json:"total_rows"`
}

// Preview parses, resolves and validates the upload.
func (im *Importer) Preview(ctx context.Context, up Upload) (*Preview, error) {
	format, mapping, v, err := im.prepare(ctx, up)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Format:    format.String(),
		Columns:   mapping.Map(),
		Rows:      nonNil(v.ValidRows),
		Errors:    nonNil(v.Errors),
		Warnings:  nonNil(v.Warnings),
		TotalRows: v.TotalRows,
	}, nil
}

// Import runs the full pipeline for coordinatorID. It returns an error only
// for failures that stop the import before any write; row-level problems
// are reported in the Report.
func (im *Importer) Import(ctx context.Context, up Upload, coordinatorID uint) (*Report, error) {
	start := time.Now()

	_, _, v, err := im.prepare(ctx, up)
	if err != nil {
		im.opts.log.Warn().Err(err).Str("file", up.Name).Uint("coordinator_id", coordinatorID).Msg("import rejected")
		return nil, err
	}
	if len(v.Errors) > 0 && im.opts.strictValidation {
		return nil, &NoValidRowsError{Errors: v.Errors, Warnings: v.Warnings, Strict: true}
	}
	if len(v.ValidRows) == 0 {
		return nil, &NoValidRowsError{Errors: v.Errors, Warnings: v.Warnings}
	}

	rec := NewReconciler(im.store, coordinatorID, im.opts.requireExistingMentee, *im.opts.log)
	outcomes := rec.Reconcile(context.WithoutCancel(ctx), v.ValidRows)
	report := Aggregate(v, outcomes)

	im.opts.log.Info().
		Str("file", up.Name).
		Uint("coordinator_id", coordinatorID).
		Int("rows", report.TotalRows).
		Int("success", report.Success).
		Int("failed", report.Failed).
		Int("created_projects", len(report.CreatedProjects)).
		Int("updated_projects", len(report.UpdatedProjects)).
		Dur("took", time.Since(start)).
		Msg("import finished")

	return report, nil
}

func (im *Importer) prepare(ctx context.Context, up Upload) (Format, ColumnMapping, ValidationResult, error) {
	format, err := DetectFormat(up.Name, up.ContentType)
	if err != nil {
		return 0, ColumnMapping{}, ValidationResult{}, err
	}
	table, err := Parse(ctx, up.Data, format)
	if err != nil {
		return 0, ColumnMapping{}, ValidationResult{}, err
	}
	mapping, err := ResolveHeaders(table.Headers)
	if err != nil {
		return 0, ColumnMapping{}, ValidationResult{}, err
	}
	return format, mapping, ValidateTable(table, mapping, im.opts.defaultStatus), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
