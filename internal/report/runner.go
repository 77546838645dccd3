// Package report runs fairness metrics against a dataset and assembles the
// results into a static HTML report.
package report

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/peekknuf/fairqa/internal/metric"
)

// Outcome is the result of one metric spec: either Result or Err is set.
type Outcome struct {
	Spec      metric.Spec
	Result    *metric.Result
	Err       error
	Reference *Outcome
	Tests     []TestOutcome
	Duration  time.Duration
}

// Failed reports whether the metric did not produce a value.
func (o Outcome) Failed() bool { return o.Err != nil }

// TestOutcome is an evaluated default test.
type TestOutcome struct {
	Binding metric.TestBinding
	Status  metric.TestStatus
}

// Runner computes an ordered list of metric specs against a dataset.
type Runner struct {
	Specs   []metric.Spec
	Options metric.Options
	// Parallelism bounds concurrent metric computations; values below 1
	// run metrics one at a time.
	Parallelism int
	// MetricTimeout is the wall-clock budget of a single metric; zero
	// disables it.
	MetricTimeout time.Duration
	Logger        *slog.Logger
}

// NewRunner returns a sequential runner with the default metric options.
func NewRunner(specs []metric.Spec) *Runner {
	return &Runner{
		Specs:       specs,
		Options:     metric.DefaultOptions(),
		Parallelism: 1,
		Logger:      slog.Default(),
	}
}

// Run computes every spec against current and, when reference is non-nil,
// against reference too, then evaluates the default tests. One metric's
// failure never prevents the others from running. Outcomes keep spec order.
func (r *Runner) Run(ctx context.Context, current, reference metric.Columns) []Outcome {
	outcomes := r.computeAll(ctx, current)

	if reference != nil {
		refs := r.computeAll(ctx, reference)
		for i := range outcomes {
			ref := refs[i]
			outcomes[i].Reference = &ref
		}
	}

	for i := range outcomes {
		outcomes[i].Tests = evaluateTests(outcomes[i], reference != nil)
	}
	return outcomes
}

func (r *Runner) computeAll(ctx context.Context, data metric.Columns) []Outcome {
	outcomes := make([]Outcome, len(r.Specs))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, spec := range r.Specs {
		g.Go(func() error {
			outcomes[i] = r.computeOne(gctx, data, spec)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *Runner) computeOne(ctx context.Context, data metric.Columns, spec metric.Spec) Outcome {
	logger := r.logger().With("metric", spec.ID())
	start := time.Now()

	res, err := r.computeWithBudget(ctx, data, spec)
	out := Outcome{Spec: spec, Result: res, Err: err, Duration: time.Since(start)}

	switch {
	case err != nil:
		logger.Warn("metric failed", "code", metric.GetCode(err), "error", err)
	case res.ChartErr != nil:
		logger.Warn("metric chart unavailable", "value", res.Value, "error", res.ChartErr)
	default:
		logger.Debug("metric computed", "value", res.Value, "rows", res.Rows, "duration", out.Duration)
	}
	return out
}

type computed struct {
	res *metric.Result
	err error
}

// computeWithBudget runs one computation under the metric timeout. A stop
// of the whole run is reported as cancellation, not as a timeout.
func (r *Runner) computeWithBudget(parent context.Context, data metric.Columns, spec metric.Spec) (*metric.Result, error) {
	if err := parent.Err(); err != nil {
		return nil, metric.NewCanceledError(spec.ID(), err)
	}
	ctx := parent
	if r.MetricTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.MetricTimeout)
		defer cancel()
	}

	done := make(chan computed, 1)
	go func() {
		res, err := metric.Compute(data, spec, r.Options)
		done <- computed{res, err}
	}()

	select {
	case c := <-done:
		return c.res, c.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return nil, metric.NewCanceledError(spec.ID(), err)
		}
		return nil, metric.NewTimeoutError(spec.ID(), ctx.Err())
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func evaluateTests(o Outcome, hasReference bool) []TestOutcome {
	if o.Failed() {
		return nil
	}

	var reference *float64
	if o.Reference != nil && !o.Reference.Failed() {
		v := o.Reference.Result.Value
		reference = &v
	}

	bindings := o.Result.Tests.Select(hasReference)
	tests := make([]TestOutcome, len(bindings))
	for i, b := range bindings {
		tests[i] = TestOutcome{Binding: b, Status: metric.Evaluate(b, o.Result.Value, reference)}
	}
	return tests
}
