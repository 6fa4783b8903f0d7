package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/report"
)

var (
	august    = filepath.Join("..", "..", "testdata", "nordea_1234567890_20220831.csv")
	september = filepath.Join("..", "..", "testdata", "nordea_1234567890_20220930.csv")
)

func TestProcess_WritesReports(t *testing.T) {
	out := t.TempDir()
	stdout, err := runRecon(t, "process", "--out", out, august, september)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Imported 2 of 2 file(s), 8 transaction(s)")
	assert.Contains(t, stdout, "Potential duplicates: 6 in 3 group(s), exact: 2")
	assert.Contains(t, stdout, "Diagnostics: 2")

	summary, err := os.ReadFile(filepath.Join(out, "validation_report", report.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Total Transactions: 8")

	_, err = os.Stat(filepath.Join(out, "nordea_1234567890_20220831_processed.csv"))
	assert.NoError(t, err)
}

func TestProcess_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "custom")
	cfg.Output.ReportDir = "reports"
	path := filepath.Join(dir, "recon.yaml")
	require.NoError(t, config.Save(path, cfg))

	_, err := runRecon(t, "process", "--config", path, "--workers", "1", "--top", "0", august)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "custom", "reports", report.CombinedFile))
	assert.NoError(t, err)
}

func TestProcess_UnknownLocale(t *testing.T) {
	_, err := runRecon(t, "process", "--out", t.TempDir(), "--locale", "swedish", august)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `locale "swedish" is not defined`)
}

func TestProcess_NothingImported(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("foo;bar\n"), 0o644))

	stdout, err := runRecon(t, "process", "--out", filepath.Join(dir, "out"), broken)
	require.Error(t, err)
	assert.Contains(t, stdout, "broken: format:")

	// Reports are still written so the failure is on record.
	_, err = os.Stat(filepath.Join(dir, "out", "validation_report", report.DiagnosticsFile))
	assert.NoError(t, err)
}

func TestProcess_RequiresFiles(t *testing.T) {
	_, err := runRecon(t, "process")
	require.Error(t, err)
}

func TestCompare_Files(t *testing.T) {
	out := t.TempDir()
	stdout, err := runRecon(t, "compare", "--out", out, august, september)
	require.NoError(t, err)

	assert.Contains(t, stdout, "nordea_1234567890_20220831: 5 transaction(s)")
	assert.Contains(t, stdout, "Matched keys: 2")
	assert.Contains(t, stdout, "Only in nordea_1234567890_20220930: 1")

	_, err = os.Stat(filepath.Join(out, "validation_report", "matched_nordea_1234567890_20220831_nordea_1234567890_20220930.csv"))
	assert.NoError(t, err)
}

func TestCompare_RequiresTwoFiles(t *testing.T) {
	_, err := runRecon(t, "compare", august)
	require.Error(t, err)
}

func TestColumns_CSV(t *testing.T) {
	stdout, err := runRecon(t, "columns", august)
	require.NoError(t, err)
	assert.Contains(t, stdout, "CSV:\n")
	assert.Contains(t, stdout, "  Bogføringsdato -> booking_date\n")
	assert.Contains(t, stdout, "  Afstemt -> reconciled\n")
}

func TestColumns_Unmapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.csv")
	require.NoError(t, os.WriteFile(path, []byte("Beløb;Reference\n"), 0o644))

	stdout, err := runRecon(t, "columns", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  Reference -> (unmapped)\n")
}

func TestCompare_SameStem(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(september)
	require.NoError(t, err)
	for _, sub := range []string{"checking", "savings"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "statement.csv"), data, 0o644))
	}

	_, err = runRecon(t, "compare", "--out", filepath.Join(dir, "out"),
		filepath.Join(dir, "checking", "statement.csv"), filepath.Join(dir, "savings", "statement.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source label")
}

func TestProcess_ReportsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("foo;bar\n"), 0o644))

	stdout, err := runRecon(t, "process", "--out", filepath.Join(dir, "out"), august, broken)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 1 of 2 file(s)")
	assert.Contains(t, stdout, "Failed: 1 file(s)\n")
}
