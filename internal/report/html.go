package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/peekknuf/fairqa/internal/chart"
	"github.com/peekknuf/fairqa/internal/metric"
	"github.com/peekknuf/fairqa/internal/profiler"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"f4":    func(v float64) string { return fmt.Sprintf("%.4f", v) },
	"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(reportTemplate))

type metricView struct {
	Title     string
	Kind      string
	Value     string
	Reference string
	Rows      int
	Error     string
	ErrorCode string
	ChartErr  string
	Chart     *chart.Snippet
	Tests     []testView
}

type testView struct {
	Description string
	Status      string
}

type pageView struct {
	*Report
	AssetsHost     string
	Metrics        []metricView
	Passed         int
	Failed         int
	Errored        int
	MetricFailures int
	Quality        *profiler.QualityMetrics
}

// WriteHTML renders the report as a single HTML page.
func WriteHTML(w io.Writer, r *Report) error {
	view := pageView{Report: r, AssetsHost: chart.AssetsHost}
	view.Passed, view.Failed, view.Errored, view.MetricFailures = r.Counts()
	if r.Summary != nil {
		q := r.Summary.Quality()
		view.Quality = &q
	}

	for i, o := range r.Outcomes {
		view.Metrics = append(view.Metrics, newMetricView(i, o))
	}

	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Save writes the report to path, creating parent directories as needed.
func Save(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteHTML(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newMetricView(i int, o Outcome) metricView {
	v := metricView{Kind: o.Spec.Kind.String()}
	if o.Failed() {
		v.Title = fmt.Sprintf("%s (%s)", o.Spec.Name(), o.Spec.TargetColumn)
		v.Error = o.Err.Error()
		v.ErrorCode = metric.GetCode(o.Err)
		return v
	}

	res := o.Result
	v.Title = res.DisplayName
	v.Value = fmt.Sprintf("%.4f", res.Value)
	v.Rows = res.Rows
	if o.Reference != nil {
		if o.Reference.Failed() {
			v.Reference = "unavailable"
		} else {
			v.Reference = fmt.Sprintf("%.4f", o.Reference.Result.Value)
		}
	}
	if res.ChartErr != nil {
		v.ChartErr = res.ChartErr.Error()
	} else if res.Chart != nil {
		snippet := chart.Render(res.Chart, fmt.Sprintf("metric_chart_%d", i))
		v.Chart = &snippet
	}
	for _, t := range o.Tests {
		v.Tests = append(v.Tests, testView{Description: t.Binding.String(), Status: string(t.Status)})
	}
	return v
}
