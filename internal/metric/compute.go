package metric

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peekknuf/fairqa/internal/chart"
	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/fairness"
)

// MissingCategory labels rows whose category cell is empty.
const MissingCategory = "(missing)"

// Columns is the read-only view a computation needs from a dataset.
type Columns interface {
	Column(name string) ([]string, error)
}

// Options tune a computation.
type Options struct {
	Provider fairness.Provider
}

// DefaultOptions uses the default fairness provider (positive label 1).
func DefaultOptions() Options {
	return Options{Provider: fairness.Default}
}

// Result is the outcome of one metric computation.
type Result struct {
	Spec        Spec
	Value       float64
	DisplayName string
	Chart       *chart.Chart
	// ChartErr is set when the scalar was computed but the chart could not
	// be built.
	ChartErr error
	Tests    DefaultTests
	// Rows is the number of observations the value was computed over.
	Rows int
}

type calculator struct {
	needsCategory bool
	value         func(p fairness.Provider, obs observations, spec Spec) (float64, error)
	chart         func(spec Spec, value float64, obs observations) (*chart.Chart, error)
}

var calculators = map[Kind]calculator{
	ClassImbalance: {
		value: func(p fairness.Provider, obs observations, spec Spec) (float64, error) {
			return p.ClassImbalance(obs.y, obs.groups, spec.PrivilegedGroup)
		},
		chart: singleChart,
	},
	KLDivergence: {
		value: func(p fairness.Provider, obs observations, spec Spec) (float64, error) {
			return p.KLDivergence(obs.y, obs.groups, spec.PrivilegedGroup)
		},
		chart: singleChart,
	},
	ConditionalDemographicDisparity: {
		needsCategory: true,
		// The category column stratifies the chart only.
		value: func(p fairness.Provider, obs observations, _ Spec) (float64, error) {
			return p.ConditionalDemographicDisparity(obs.y, obs.groups)
		},
		chart: groupedChart,
	},
}

// Compute evaluates spec against data. A returned error aborts this metric
// only; a chart failure is reported on Result.ChartErr instead.
func Compute(data Columns, spec Spec, opts Options) (*Result, error) {
	calc, ok := calculators[spec.Kind]
	if !ok {
		return nil, newError(ErrSchema, spec.ID(), fmt.Errorf("unknown metric kind %d", int(spec.Kind)))
	}
	if err := spec.Validate(); err != nil {
		return nil, newError(ErrSchema, spec.ID(), err)
	}

	obs, err := project(data, spec, calc.needsCategory)
	if err != nil {
		return nil, newError(ErrSchema, spec.ID(), err)
	}
	if len(obs.y) == 0 {
		return nil, newError(ErrComputation, spec.ID(), fairness.ErrEmptyInput)
	}
	// resolved carries the privileged group as it is spelled in the data,
	// so a declared "3" selects a column of "3.0" cells.
	resolved := spec
	if spec.PrivilegedGroup != "" {
		label, ok := observedLabel(obs.groups, spec.PrivilegedGroup)
		if !ok {
			return nil, newError(ErrInvalidPrivilegedGroup, spec.ID(),
				fmt.Errorf("%q not observed in column %q", spec.PrivilegedGroup, spec.ProtectedAttributeColumn))
		}
		resolved.PrivilegedGroup = label
	}

	value, err := calc.value(opts.Provider, obs, resolved)
	if err != nil {
		if errors.Is(err, fairness.ErrValueUnavailable) {
			return nil, newError(ErrInvalidPrivilegedGroup, spec.ID(), err)
		}
		return nil, newError(ErrComputation, spec.ID(), err)
	}

	result := &Result{
		Spec:        spec,
		Value:       value,
		DisplayName: spec.DisplayName(value),
		Tests:       defaultTests(),
		Rows:        len(obs.y),
	}
	if c, err := calc.chart(resolved, value, obs); err != nil {
		result.ChartErr = newError(ErrMissingGroupData, spec.ID(), err)
	} else {
		result.Chart = c
	}
	return result, nil
}

func singleChart(spec Spec, value float64, obs observations) (*chart.Chart, error) {
	return chart.Single(spec.Name(), value, spec.PrivilegedGroup, groupMeans(obs))
}

func groupedChart(spec Spec, value float64, obs observations) (*chart.Chart, error) {
	cells, categories, groups := stratifiedMeans(obs)
	return chart.Grouped(spec.Name(), value, spec.PrivilegedGroup, categories, groups, cells)
}

// project reads the spec's columns, coerces the protected attribute to
// string and parses outcomes. Rows with an empty outcome or protected
// attribute are dropped.
func project(data Columns, spec Spec, withCategory bool) (observations, error) {
	target, err := data.Column(spec.TargetColumn)
	if err != nil {
		return observations{}, err
	}
	prot, err := data.Column(spec.ProtectedAttributeColumn)
	if err != nil {
		return observations{}, err
	}
	var cats []string
	if withCategory {
		if cats, err = data.Column(spec.CategoryColumn); err != nil {
			return observations{}, err
		}
	}
	if len(target) != len(prot) || (withCategory && len(cats) != len(target)) {
		return observations{}, fmt.Errorf("column lengths differ")
	}

	var obs observations
	for i, raw := range target {
		raw = strings.TrimSpace(raw)
		group := strings.TrimSpace(prot[i])
		if raw == "" || group == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return observations{}, fmt.Errorf("column %q row %d: non-numeric outcome %q", spec.TargetColumn, i+1, raw)
		}
		obs.y = append(obs.y, v)
		obs.groups = append(obs.groups, group)
		if withCategory {
			cat := strings.TrimSpace(cats[i])
			if cat == "" {
				cat = MissingCategory
			}
			obs.categories = append(obs.categories, cat)
		}
	}
	return obs, nil
}

// observedLabel returns the group label in groups that matches want.
func observedLabel(groups []string, want string) (string, bool) {
	for _, g := range groups {
		if g == want {
			return g, true
		}
	}
	for _, g := range groups {
		if dataset.SameValue(g, want) {
			return g, true
		}
	}
	return "", false
}
