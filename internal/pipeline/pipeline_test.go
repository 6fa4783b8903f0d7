package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/diag"
	"github.com/cleared-dev/recon/internal/importer"
	"github.com/cleared-dev/recon/internal/logger"
	"github.com/cleared-dev/recon/internal/normalize"
	"github.com/cleared-dev/recon/internal/report"
)

var (
	august    = filepath.Join("..", "..", "testdata", "nordea_1234567890_20220831.csv")
	september = filepath.Join("..", "..", "testdata", "nordea_1234567890_20220930.csv")
)

func newRunner(t *testing.T, out string, workers int) *Runner {
	t.Helper()
	norm, err := normalize.New(config.DanishLocale())
	require.NoError(t, err)
	return New(norm, Options{
		OutputDir:   out,
		ReportDir:   "validation_report",
		Workers:     workers,
		TopPatterns: 10,
	}, logger.Nop())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Fixtures(t *testing.T) {
	out := t.TempDir()
	res, err := newRunner(t, out, 2).Run(context.Background(), []string{august, september})
	require.NoError(t, err)

	assert.Equal(t, []string{"nordea_1234567890_20220831", "nordea_1234567890_20220930"}, res.Collection.Labels())
	assert.Len(t, res.Collection.Records(), 8)
	assert.Equal(t, 0, res.Failed())

	// PARADIS across files, the two savings transfers and the salary.
	require.Len(t, res.Groups, 3)
	var exact int
	for _, g := range res.Groups {
		for _, sub := range g.Exact {
			exact += len(sub)
		}
	}
	assert.Equal(t, 2, exact)

	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, diag.KindParse, res.Diagnostics[0].Kind)
	assert.Equal(t, 8, res.Diagnostics[0].Line)
	assert.Equal(t, 9, res.Diagnostics[1].Line)

	assert.Len(t, res.Written, 5)
	for _, name := range []string{
		report.NormalizedName("nordea_1234567890_20220831"),
		report.NormalizedName("nordea_1234567890_20220930"),
		filepath.Join("validation_report", report.CombinedFile),
		filepath.Join("validation_report", report.SummaryFile),
		filepath.Join("validation_report", report.DiagnosticsFile),
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	one := t.TempDir()
	many := t.TempDir()
	paths := []string{september, august}

	_, err := newRunner(t, one, 1).Run(context.Background(), paths)
	require.NoError(t, err)
	_, err = newRunner(t, many, 8).Run(context.Background(), paths)
	require.NoError(t, err)

	for _, name := range []string{report.CombinedFile, report.DuplicatesFile, report.ExactFile, report.SummaryFile} {
		a, err := os.ReadFile(filepath.Join(one, "validation_report", name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(many, "validation_report", name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestRun_SubmissionOrder(t *testing.T) {
	res, err := newRunner(t, "", 4).Run(context.Background(), []string{september, august})
	require.NoError(t, err)
	assert.Equal(t, []string{"nordea_1234567890_20220930", "nordea_1234567890_20220831"}, res.Collection.Labels())
	assert.Nil(t, res.Written)
}

func TestRun_BadFilesDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, filepath.Join(dir, "broken.csv"), "foo;bar\n1;2\n")
	empty := writeFile(t, filepath.Join(dir, "empty.csv"), "")
	missing := filepath.Join(dir, "missing.csv")

	res, err := newRunner(t, filepath.Join(dir, "out"), 2).Run(context.Background(), []string{broken, august, missing, empty})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Collection.Len())
	assert.Equal(t, 3, res.Failed())

	kinds := map[string]diag.Kind{}
	for _, d := range res.Diagnostics {
		if d.Line == 0 {
			kinds[d.Source] = d.Kind
		}
	}
	assert.Equal(t, diag.KindFormat, kinds["broken"])
	assert.Equal(t, diag.KindFormat, kinds["empty"])
	assert.Equal(t, diag.KindIO, kinds["missing"])

	summary, err := os.ReadFile(filepath.Join(dir, "out", "validation_report", report.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Files Submitted: 4\n")
	assert.Contains(t, string(summary), "Sources Imported: 1\n")
}

func TestRun_DuplicateLabel(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(september)
	require.NoError(t, err)
	first := writeFile(t, filepath.Join(dir, "a", "statement.csv"), string(data))
	second := writeFile(t, filepath.Join(dir, "b", "statement.csv"), string(data))

	res, err := newRunner(t, "", 2).Run(context.Background(), []string{first, second})
	require.NoError(t, err)

	assert.Equal(t, []string{"statement"}, res.Collection.Labels())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.KindConfig, res.Diagnostics[0].Kind)
	assert.Empty(t, res.Groups)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, "", 1).Run(ctx, []string{august})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_AbsoluteReportDir(t *testing.T) {
	out := t.TempDir()
	reports := t.TempDir()
	r := newRunner(t, out, 1)
	r.opts.ReportDir = reports

	_, err := r.Run(context.Background(), []string{august})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(reports, report.SummaryFile))
	assert.NoError(t, err)
}

func TestCompare(t *testing.T) {
	out := t.TempDir()
	cmp, diags, err := newRunner(t, out, 2).Compare(context.Background(), august, september)
	require.NoError(t, err)
	assert.Len(t, diags, 2)

	assert.Equal(t, 5, cmp.CountA)
	assert.Equal(t, 3, cmp.CountB)
	assert.Len(t, cmp.OnlyA, 2)
	assert.Len(t, cmp.OnlyARecords, 3)
	assert.Len(t, cmp.OnlyB, 1)
	assert.Len(t, cmp.Both, 2)

	_, err = os.Stat(filepath.Join(out, "validation_report", "only_in_nordea_1234567890_20220930.csv"))
	assert.NoError(t, err)
}

func TestCompare_ImportFailure(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, filepath.Join(dir, "broken.csv"), "foo;bar\n")
	_, diags, err := newRunner(t, "", 1).Compare(context.Background(), august, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not be imported")
	assert.NotEmpty(t, diags)
}

func TestCompare_SameLabel(t *testing.T) {
	dir := t.TempDir()
	header := "Bogføringsdato;Beløb;Beskrivelse\n"
	checking := writeFile(t, filepath.Join(dir, "checking", "statement.csv"), header+"2022/08/30;-1,00;A only\n")
	savings := writeFile(t, filepath.Join(dir, "savings", "statement.csv"), header+"2022/08/30;-1,00;B only\n")

	out := filepath.Join(dir, "out")
	cmp, _, err := newRunner(t, out, 2).Compare(context.Background(), checking, savings)
	require.Error(t, err)
	assert.Nil(t, cmp)
	assert.ErrorIs(t, err, importer.ErrDuplicateLabel)
	var cerr *importer.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "statement", cerr.Label)

	_, err = os.Stat(filepath.Join(out, "validation_report"))
	assert.True(t, os.IsNotExist(err), "nothing should be written")
}

func TestCompare_SameFileTwice(t *testing.T) {
	_, _, err := newRunner(t, "", 1).Compare(context.Background(), august, august)
	assert.ErrorIs(t, err, importer.ErrDuplicateLabel)
}

func TestImport_WarningKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "kinds.csv"),
		"Bogføringsdato;Beløb;Beskrivelse;Saldo\n"+
			"2022/08/30;oops;Bad amount;1,00\n"+
			"2022/08/30;-1,00;Bad balance;oops\n")

	res, err := newRunner(t, "", 1).Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, diag.KindParse, res.Diagnostics[0].Kind)
	assert.Equal(t, 2, res.Diagnostics[0].Line)
	assert.Equal(t, diag.KindField, res.Diagnostics[1].Kind)
	assert.Equal(t, 3, res.Diagnostics[1].Line)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, diag.KindParse, classify(&normalize.ParseError{Line: 8, Reason: "bad amount"}))
	assert.Equal(t, diag.KindConfig, classify(&importer.ConfigurationError{Label: "x", Err: importer.ErrDuplicateLabel}))
	assert.Equal(t, diag.KindFormat, classify(&normalize.FormatError{File: "x", Reason: "empty file"}))
	assert.Equal(t, diag.KindEncoding, classify(&normalize.EncodingError{File: "x"}))
	assert.Equal(t, diag.KindIO, classify(os.ErrNotExist))
}
