// =============================================================================
// dailyworker - Export Pipeline
// =============================================================================
//
// This module turns the selected workers into a declaration file.
//
// EXPORT PIPELINE:
//   1. Collect the selected workers from the store
//   2. Check the selected workers (warnings are logged)
//   3. Render the declaration XML
//   4. Write the output file atomically
//
// The output file name comes from the configured format, evaluated at the
// export time (default "{timestamp}.xml", e.g. "20240305_093000.xml").
//
// =============================================================================

package exporter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/internal/validation"
	"github.com/mezeipetister/dailyworker/internal/xmlwriter"
	"github.com/mezeipetister/dailyworker/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrNothingSelected is returned when no worker is selected and empty
// declarations are not allowed.
var ErrNothingSelected = errors.New("no worker is selected")

// DefaultFileFormat is the output file name format used when none is set.
const DefaultFileFormat = "{timestamp}.xml"

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of an export.
type Result struct {
	// OutputFile is the path of the written file. Empty when the document
	// went to a writer.
	OutputFile string

	// Workers is the number of workers declared.
	Workers int

	// Issues holds the check results for the declared workers.
	Issues []*validation.ValidationError

	// Duration is the time taken by the export.
	Duration time.Duration
}

// =============================================================================
// EXPORTER STRUCTURE
// =============================================================================

// Source supplies the workers to declare.
type Source interface {
	Selected() []types.Worker
}

// Options controls an export.
type Options struct {
	// FileFormat is the output file name format.
	// Default: "{timestamp}.xml"
	FileFormat string

	// AllowEmpty writes a declaration even when no worker is selected.
	AllowEmpty bool

	// Strict refuses to export when any selected worker has a check issue.
	Strict bool

	// SkipChecks disables the check step.
	SkipChecks bool
}

// Exporter writes declarations for the selected workers of a Source.
type Exporter struct {
	source  Source
	header  xmlwriter.Header
	options Options
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// New creates an Exporter.
func New(source Source, header xmlwriter.Header, options Options, opts ...Option) *Exporter {
	if options.FileFormat == "" {
		options.FileFormat = DefaultFileFormat
	}
	e := &Exporter{
		source:  source,
		header:  header,
		options: options,
		log:     logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Export writes the declaration of the selected workers into dir, creating
// the directory when needed.
//
// RETURNS:
//   - A Result describing the written file.
//   - ErrNothingSelected, a check failure in strict mode, or an I/O error.
func (e *Exporter) Export(dir string) (Result, error) {
	began := time.Now()
	start := e.now()

	doc, result, err := e.build(start)
	if err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT FILE
	// =========================================================================

	if err := utils.EnsureDirectories(dir); err != nil {
		return result, err
	}

	// An existing declaration is never overwritten.
	path, err := utils.AvailablePath(filepath.Join(dir, utils.GenerateOutputFileNameAt(e.options.FileFormat, nil, start)))
	if err != nil {
		return result, err
	}
	if err := utils.WriteFileAtomic(path, doc, 0644); err != nil {
		return result, fmt.Errorf("failed to write declaration: %w", err)
	}

	result.OutputFile = path
	result.Duration = time.Since(began)
	e.log.WithFields(logrus.Fields{
		"file":    path,
		"workers": result.Workers,
	}).Info("declaration exported")

	return result, nil
}

// WriteTo renders the declaration of the selected workers to w.
func (e *Exporter) WriteTo(w io.Writer) (Result, error) {
	began := time.Now()
	start := e.now()

	doc, result, err := e.build(start)
	if err != nil {
		return result, err
	}

	if _, err := w.Write(doc); err != nil {
		return result, fmt.Errorf("failed to write declaration: %w", err)
	}
	result.Duration = time.Since(began)
	return result, nil
}

// build runs the collect, check and render steps.
func (e *Exporter) build(now time.Time) ([]byte, Result, error) {
	var result Result

	// =========================================================================
	// STEP 1: COLLECT SELECTED WORKERS
	// =========================================================================

	workers := e.source.Selected()
	result.Workers = len(workers)
	if len(workers) == 0 && !e.options.AllowEmpty {
		return nil, result, ErrNothingSelected
	}

	if e.header.TaxpayerTaxNumber == "" || e.header.TaxpayerName == "" {
		e.log.Warn("taxpayer tax number or name is not configured")
	}

	// =========================================================================
	// STEP 2: CHECK WORKERS
	// =========================================================================

	if !e.options.SkipChecks {
		check := validation.NewValidator(validation.DefaultValidationOptions()).ValidateAll(workers)
		result.Issues = check.Errors

		for _, issue := range check.Errors {
			e.log.WithFields(logrus.Fields{
				"worker": issue.WorkerName,
				"field":  issue.Field,
				"rule":   issue.Rule,
			}).Warn(issue.Message)
		}

		if e.options.Strict && !check.Clean() {
			return nil, result, fmt.Errorf("%d check issue(s) in the selected workers", len(check.Errors))
		}
	}

	// =========================================================================
	// STEP 3: RENDER
	// =========================================================================

	doc, err := xmlwriter.Render(workers, e.header, now)
	if err != nil {
		return nil, result, fmt.Errorf("failed to render declaration: %w", err)
	}

	e.log.WithField("bytes", len(doc)).Debug("declaration rendered")
	return doc, result, nil
}
