package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/fairqa/internal/config"
	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/profiler"
)

const testCSV = `I-d;RAMO_ATIVIDADE_1;UF
0;1;PE
1;3;PE
1;1;PE
0;3;SP
1;1;SP
0;3;SP
1;1;PE
1;3;PE
1;2;PE
`

func writeFixture(t *testing.T, dir string) (cfgPath, dataPath string) {
	t.Helper()
	dataPath = filepath.Join(dir, "pcpe.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(testCSV), 0644))

	cfg := `
dataset:
  path: ` + dataPath + `
  delimiter: ";"
  filter:
    column: RAMO_ATIVIDADE_1
    values: [1, 3]
report:
  output: ` + filepath.Join(dir, "report.html") + `
metrics:
  - kind: class_imbalance
    target_column: I-d
    protected_attribute_column: RAMO_ATIVIDADE_1
    privileged_group: 3
  - kind: kl_divergence
    target_column: I-d
    protected_attribute_column: RAMO_ATIVIDADE_1
    privileged_group: 3
  - kind: cdd
    target_column: I-d
    protected_attribute_column: RAMO_ATIVIDADE_1
    category_column: UF
logging:
  level: error
`
	cfgPath = filepath.Join(dir, "fairqa.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath, dataPath
}

func TestNewPipeline(t *testing.T) {
	dir := t.TempDir()
	cfgPath, dataPath := writeFixture(t, dir)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Reference.Path = dataPath
	cfg.Report.Parallelism = 2
	cfg.Report.MetricTimeout = time.Second

	p, err := newPipeline(cfg, dataPath)
	require.NoError(t, err)
	assert.Equal(t, ';', p.Current.Options.Delimiter)
	assert.Equal(t, "RAMO_ATIVIDADE_1", p.Current.FilterColumn)
	require.NotNil(t, p.Reference)
	assert.Equal(t, ';', p.Reference.Options.Delimiter, "reference inherits the dataset delimiter")
	assert.Equal(t, []string{"1", "3"}, p.Reference.FilterValues)
	assert.Equal(t, 2, p.Runner.Parallelism)
	assert.Equal(t, time.Second, p.Runner.MetricTimeout)
	assert.Len(t, p.Runner.Specs, 3)

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.HasReference())
	for _, o := range rep.Outcomes {
		require.False(t, o.Failed(), o.Spec.ID())
		require.Len(t, o.Tests, 1)
		assert.Equal(t, "pass", string(o.Tests[0].Status), "identical reference must pass")
	}
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath, _ := writeFixture(t, dir)
	out := filepath.Join(dir, "custom", "out.html")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"report", "--config", cfgPath, "--output", out})
	t.Cleanup(func() {
		reportOutput = ""
		rootCmd.SetArgs(nil)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})

	require.NoError(t, Execute(context.Background()))
	assert.Contains(t, stdout.String(), "Report saved to "+out)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Class Imbalance (I-d) - Value")
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath, _ := writeFixture(t, dir)

	data := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(data, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "good.csv"), []byte(testCSV), 0644))
	// No filter column, so the report for this file cannot be built.
	require.NoError(t, os.WriteFile(filepath.Join(data, "bad.csv"), []byte("a;b\n1;2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(data, "notes.md"), []byte("skip me"), 0644))
	reports := filepath.Join(dir, "reports")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"scan", "--config", cfgPath, "--dir", data, "--out-dir", reports})
	t.Cleanup(func() {
		dirPath, outDir = "", "reports"
		rootCmd.SetArgs(nil)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})

	err := Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 datasets could not be reported")

	assert.FileExists(t, filepath.Join(reports, "good_report.html"))
	assert.NoFileExists(t, filepath.Join(reports, "bad_report.html"))
	assert.Contains(t, stdout.String(), filepath.Join(data, "good.csv"))
	assert.NotContains(t, stdout.String(), "notes")

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteSummary(t *testing.T) {
	table, err := dataset.ReadCSV("pcpe.csv", strings.NewReader(testCSV), dataset.LoadOptions{Delimiter: ';'})
	require.NoError(t, err)
	summary, err := profiler.Summarize(table)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeSummary(&buf, summary, time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, "=== DATA SUMMARY: pcpe.csv ===")
	assert.Contains(t, out, "Rows: 9 | Columns: 3 | Numeric: 2 | Other: 1")
	assert.Contains(t, out, "RAMO_ATIVIDADE_1")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "pcpe_03_report.html", reportName("/data/pcpe_03.csv"))
	assert.Equal(t, "book_report.html", reportName("book.xlsx"))
}
