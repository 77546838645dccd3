package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/metric"
	"github.com/peekknuf/fairqa/internal/profiler"
)

// Source is a dataset file plus the row filter applied after loading.
type Source struct {
	Path         string
	Options      dataset.LoadOptions
	FilterColumn string
	FilterValues []string
}

// Report is the assembled output of one run.
type Report struct {
	ID          uuid.UUID
	Title       string
	GeneratedAt time.Time
	Dataset     string
	Rows        int
	Reference   string
	Filter      string
	Summary     *profiler.Summary
	Outcomes    []Outcome
}

// HasReference reports whether the run compared against a reference dataset.
func (r *Report) HasReference() bool { return r.Reference != "" }

// Counts tallies test statuses and failed metrics.
func (r *Report) Counts() (passed, failed, errored, metricFailures int) {
	for _, o := range r.Outcomes {
		if o.Failed() {
			metricFailures++
			continue
		}
		for _, t := range o.Tests {
			switch t.Status {
			case metric.TestPass:
				passed++
			case metric.TestFail:
				failed++
			default:
				errored++
			}
		}
	}
	return passed, failed, errored, metricFailures
}

// Pipeline wires load, filter, run and assemble stages together. Each stage
// takes and returns immutable values.
type Pipeline struct {
	Title       string
	Current     Source
	Reference   *Source
	Runner      *Runner
	DataSummary bool
	Logger      *slog.Logger
}

// Run executes the pipeline and returns the assembled report. Only dataset
// loading and filtering errors abort the run; metric failures are recorded
// on their outcomes.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	current, err := p.Current.load()
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "dataset", current.Name, "rows", current.Len(), "columns", len(current.Columns()))

	rep := &Report{
		ID:          uuid.New(),
		Title:       p.Title,
		GeneratedAt: time.Now().UTC(),
		Dataset:     current.Name,
		Rows:        current.Len(),
		Filter:      p.Current.describeFilter(),
	}

	if p.DataSummary {
		summary, err := profiler.Summarize(current)
		if err != nil {
			return nil, err
		}
		rep.Summary = &summary
	}

	var reference metric.Columns
	if p.Reference != nil {
		ref, err := p.Reference.load()
		if err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		logger.Info("reference dataset loaded", "dataset", ref.Name, "rows", ref.Len())
		rep.Reference = ref.Name
		reference = ref
	}

	rep.Outcomes = p.Runner.Run(ctx, current, reference)

	passed, failed, errored, failures := rep.Counts()
	logger.Info("report run complete",
		"run_id", rep.ID,
		"metrics", len(rep.Outcomes),
		"metric_failures", failures,
		"tests_passed", passed,
		"tests_failed", failed,
		"tests_errored", errored)
	return rep, nil
}

func (s Source) load() (*dataset.Table, error) {
	t, err := dataset.Load(s.Path, s.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.Path, err)
	}
	if s.FilterColumn == "" {
		return t, nil
	}
	filtered, err := t.Filter(s.FilterColumn, s.FilterValues)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", s.Path, err)
	}
	return filtered, nil
}

func (s Source) describeFilter() string {
	if s.FilterColumn == "" {
		return ""
	}
	return fmt.Sprintf("%s in %v", s.FilterColumn, s.FilterValues)
}
