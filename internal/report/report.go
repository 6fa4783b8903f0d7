package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/cleared-dev/recon/internal/atomicfile"
	"github.com/cleared-dev/recon/internal/diag"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/reconcile"
)

// Report file names inside the report directory.
const (
	CombinedFile    = "combined_transactions.csv"
	DuplicatesFile  = "duplicate_transactions.csv"
	ExactFile       = "exact_duplicates.csv"
	SummaryFile     = "validation_summary.txt"
	DiagnosticsFile = "diagnostics.csv"
)

// NormalizedName is the per-file output name for a source label.
func NormalizedName(label string) string {
	return label + "_processed.csv"
}

// SaveNormalized atomically writes one source's normalized CSV.
func SaveNormalized(path string, recs []model.Transaction) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		return WriteNormalized(w, recs)
	})
}

// SaveAll writes every report for in into dir and returns the paths written.
func SaveAll(dir string, in Input) ([]string, error) {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CombinedFile, func(w io.Writer) error { return WriteCombined(w, in.Collection.Records()) }},
		{DuplicatesFile, func(w io.Writer) error { return WriteDuplicates(w, in.Groups) }},
		{ExactFile, func(w io.Writer) error { return WriteExactDuplicates(w, in.Groups) }},
		{DiagnosticsFile, func(w io.Writer) error { return diag.Write(w, in.Diagnostics) }},
		{SummaryFile, func(w io.Writer) error { return WriteSummary(w, in) }},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := atomicfile.Write(path, f.write); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// SaveComparison writes the records found in only one of two batches.
func SaveComparison(dir string, cmp *reconcile.Comparison) ([]string, error) {
	if cmp.LabelA == cmp.LabelB {
		return nil, fmt.Errorf("comparison sides share the label %q", cmp.LabelA)
	}
	files := []struct {
		name string
		recs []model.Transaction
	}{
		{fmt.Sprintf("only_in_%s.csv", cmp.LabelA), cmp.OnlyARecords},
		{fmt.Sprintf("only_in_%s.csv", cmp.LabelB), cmp.OnlyBRecords},
		{fmt.Sprintf("matched_%s_%s.csv", cmp.LabelA, cmp.LabelB), cmp.Matches},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		recs := f.recs
		err := atomicfile.Write(path, func(w io.Writer) error { return WriteCombined(w, recs) })
		if err != nil {
			return written, fmt.Errorf("writing %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
