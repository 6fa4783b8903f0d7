package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/recon/internal/diag"
	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/normalize"
	"github.com/cleared-dev/recon/internal/reconcile"
	"github.com/cleared-dev/recon/internal/report"
)

// Options controls a run.
type Options struct {
	OutputDir   string
	ReportDir   string // relative paths are resolved against OutputDir
	Workers     int
	TopPatterns int
}

// Runner drives files through normalize, import, reconcile and report.
type Runner struct {
	norm *normalize.Normalizer
	opts Options
	log  zerolog.Logger
}

// New creates a Runner.
func New(norm *normalize.Normalizer, opts Options, log zerolog.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{norm: norm, opts: opts, log: log}
}

// FileResult is the normalization outcome for one submitted path.
type FileResult struct {
	Path   string
	Label  string
	Result *normalize.Result // nil when Err is set
	Err    error
}

// Outcome is everything a run produced.
type Outcome struct {
	Files       []FileResult
	Collection  *importer.Collection
	Groups      []reconcile.DuplicateGroup
	Diagnostics []diag.Entry
	Written     []string
}

// Failed reports how many submitted files did not make it into the collection.
func (o *Outcome) Failed() int {
	return len(o.Files) - o.Collection.Len()
}

// NormalizeFiles normalizes paths in parallel. Results are returned in
// submission order regardless of which file finishes first.
func (r *Runner) NormalizeFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.normalizeFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) normalizeFile(path string) FileResult {
	fr := FileResult{Path: path, Label: importer.LabelFor(path)}
	data, err := os.ReadFile(path)
	if err != nil {
		fr.Err = fmt.Errorf("reading %s: %w", path, err)
		return fr
	}
	res, err := r.norm.Normalize(path, data)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Result = res
	return fr
}

// Import merges normalized files into a new collection in order, writing
// each accepted source's normalized CSV. Rejected files become diagnostics.
func (r *Runner) Import(files []FileResult) (*importer.Collection, []diag.Entry, error) {
	c := importer.NewCollection()
	var diags []diag.Entry

	for _, f := range files {
		log := r.log.With().Str("source", f.Label).Logger()
		if f.Err != nil {
			log.Error().Err(f.Err).Msg("file rejected")
			diags = append(diags, diag.Entry{Source: f.Label, Kind: classify(f.Err), Message: f.Err.Error()})
			continue
		}

		if err := c.AddBatch(f.Label, f.Result.Records); err != nil {
			log.Error().Err(err).Str("path", f.Path).Msg("batch rejected")
			diags = append(diags, diag.Entry{Source: f.Label, Kind: diag.KindConfig, Message: err.Error()})
			continue
		}
		for _, w := range f.Result.Warnings {
			kind := diag.KindField
			if w.Err != nil {
				kind = classify(w.Err)
			}
			diags = append(diags, diag.Entry{Source: f.Label, Line: w.Line, Kind: kind, Message: w.Reason})
		}

		if r.opts.OutputDir != "" {
			path := filepath.Join(r.opts.OutputDir, report.NormalizedName(f.Label))
			batch, _ := c.Get(f.Label)
			if err := report.SaveNormalized(path, batch.Records); err != nil {
				return nil, nil, err
			}
			log.Debug().Str("path", path).Msg("wrote normalized file")
		}

		log.Info().
			Int("rows", f.Result.Rows).
			Int("records", len(f.Result.Records)).
			Int("skipped", f.Result.Skipped).
			Int("reserved", f.Result.Reserved).
			Str("encoding", f.Result.Encoding).
			Str("locale", r.norm.Locale()).
			Msg("normalized")
	}
	return c, diags, nil
}

// Run processes paths end to end and writes all reports.
func (r *Runner) Run(ctx context.Context, paths []string) (*Outcome, error) {
	files, err := r.NormalizeFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	c, diags, err := r.Import(files)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Files:       files,
		Collection:  c,
		Groups:      reconcile.FindDuplicates(c),
		Diagnostics: diags,
	}
	potential, exact := reconcile.Totals(out.Groups)
	r.log.Info().
		Int("sources", c.Len()).
		Int("groups", len(out.Groups)).
		Int("potential", potential).
		Int("exact", exact).
		Msg("reconciled")

	if r.opts.OutputDir == "" {
		return out, nil
	}
	written, err := report.SaveAll(r.reportDir(), report.Input{
		Collection:  c,
		Groups:      out.Groups,
		Diagnostics: diags,
		Submitted:   len(paths),
		TopPatterns: r.opts.TopPatterns,
	})
	if err != nil {
		return nil, err
	}
	out.Written = written
	return out, nil
}

// Compare normalizes two files and writes the records unique to each.
func (r *Runner) Compare(ctx context.Context, pathA, pathB string) (*reconcile.Comparison, []diag.Entry, error) {
	if label := importer.LabelFor(pathA); label == importer.LabelFor(pathB) {
		return nil, nil, fmt.Errorf("comparing %s with %s: %w", pathA, pathB,
			&importer.ConfigurationError{Label: label, Err: importer.ErrDuplicateLabel})
	}
	files, err := r.NormalizeFiles(ctx, []string{pathA, pathB})
	if err != nil {
		return nil, nil, err
	}
	c, diags, err := r.Import(files)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		if _, ok := c.Get(f.Label); !ok {
			return nil, diags, fmt.Errorf("%s could not be imported", f.Path)
		}
	}
	cmp, err := reconcile.CompareBatches(c, files[0].Label, files[1].Label)
	if err != nil {
		return nil, diags, err
	}
	if r.opts.OutputDir != "" {
		if _, err := report.SaveComparison(r.reportDir(), cmp); err != nil {
			return nil, diags, err
		}
	}
	return cmp, diags, nil
}

func (r *Runner) reportDir() string {
	if filepath.IsAbs(r.opts.ReportDir) {
		return r.opts.ReportDir
	}
	return filepath.Join(r.opts.OutputDir, r.opts.ReportDir)
}

func classify(err error) diag.Kind {
	var (
		perr *normalize.ParseError
		ferr *normalize.FormatError
		eerr *normalize.EncodingError
		cerr *importer.ConfigurationError
	)
	switch {
	case errors.As(err, &perr):
		return diag.KindParse
	case errors.As(err, &ferr):
		return diag.KindFormat
	case errors.As(err, &eerr):
		return diag.KindEncoding
	case errors.As(err, &cerr):
		return diag.KindConfig
	}
	return diag.KindIO
}
