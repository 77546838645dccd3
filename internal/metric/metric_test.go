package metric

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/fairqa/internal/chart"
	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/fairness"
)

func newTable(t *testing.T, y, prot, cat []string) *dataset.Table {
	t.Helper()
	records := make([][]string, len(y))
	for i := range y {
		records[i] = []string{y[i], prot[i], cat[i]}
	}
	table, err := dataset.NewTable("test", []string{"y", "sex", "region"}, records)
	require.NoError(t, err)
	return table
}

var (
	sexes   = []string{"M", "F", "M", "F", "M", "F", "M", "F"}
	regions = []string{"n", "n", "n", "n", "s", "s", "s", "s"}
)

func spec(kind Kind) Spec {
	return Spec{
		Kind:                     kind,
		TargetColumn:             "y",
		ProtectedAttributeColumn: "sex",
		PrivilegedGroup:          "M",
		CategoryColumn:           "region",
	}
}

func TestBalancedDatasetPassesNoReferenceTest(t *testing.T) {
	table := newTable(t, []string{"1", "1", "0", "0", "1", "1", "0", "0"}, sexes, regions)

	for _, kind := range []Kind{ClassImbalance, KLDivergence} {
		res, err := Compute(table, spec(kind), DefaultOptions())
		require.NoError(t, err, kind.String())

		assert.Equal(t, 0.0, res.Value)
		tests := res.Tests.Select(false)
		require.Len(t, tests, 1)
		assert.Equal(t, TestPass, Evaluate(tests[0], res.Value, nil))
	}
}

func TestSeparatedDatasetFailsNoReferenceTest(t *testing.T) {
	table := newTable(t, []string{"1", "0", "1", "0", "1", "0", "1", "0"}, sexes, regions)

	res, err := Compute(table, spec(ClassImbalance), DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, 0.0, res.Value)
	assert.Equal(t, TestFail, Evaluate(res.Tests.Select(false)[0], res.Value, nil))
}

func TestDisplayNames(t *testing.T) {
	table := newTable(t, []string{"0", "1", "1", "0", "1", "0", "1", "1"}, sexes, regions)

	ci, err := Compute(table, spec(ClassImbalance), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Class Imbalance (y) - Value -0.2500", ci.DisplayName)

	kl, err := Compute(table, spec(KLDivergence), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "KL Divergence (y)", kl.DisplayName)

	cdd, err := Compute(table, spec(ConditionalDemographicDisparity), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Conditional Demographic Disparity (y)", cdd.DisplayName)
}

func TestCDDIgnoresCategoryForValue(t *testing.T) {
	y := []string{"0", "1", "1", "0", "1", "0", "1", "1"}
	a := newTable(t, y, sexes, regions)
	b := newTable(t, y, sexes, []string{"x", "y", "z", "x", "y", "z", "x", "y"})

	ra, err := Compute(a, spec(ConditionalDemographicDisparity), DefaultOptions())
	require.NoError(t, err)
	rb, err := Compute(b, spec(ConditionalDemographicDisparity), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ra.Value, rb.Value)

	require.NotNil(t, ra.Chart)
	assert.True(t, ra.Chart.Grouped)
	assert.Equal(t, []string{"n", "s"}, ra.Chart.Categories)
	for _, s := range ra.Chart.Series {
		if s.Name == "M" {
			assert.Equal(t, chart.PrivilegedColor, s.Color)
		} else {
			assert.Equal(t, chart.OtherColor, s.Color)
		}
	}
}

func TestCDDChartLeavesEmptyStrataBlank(t *testing.T) {
	// Category equals the protected attribute, so every other
	// (category, group) cell is empty.
	y := []string{"0", "1", "1", "0", "1", "0", "1", "1"}
	table := newTable(t, y, sexes, sexes)

	res, err := Compute(table, spec(ConditionalDemographicDisparity), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, res.ChartErr)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []string{"F", "M"}, res.Chart.Categories)

	for _, s := range res.Chart.Series {
		require.Len(t, s.Bars, 2)
		for _, b := range s.Bars {
			assert.Equal(t, b.Label != s.Name, b.Missing, "series %s bar %s", s.Name, b.Label)
		}
	}
}

func TestChartErrorKeepsValue(t *testing.T) {
	orig := calculators[ConditionalDemographicDisparity]
	t.Cleanup(func() { calculators[ConditionalDemographicDisparity] = orig })

	failing := orig
	failing.chart = func(Spec, float64, observations) (*chart.Chart, error) {
		return nil, chart.ErrMissingGroupData
	}
	calculators[ConditionalDemographicDisparity] = failing

	table := newTable(t, []string{"0", "1", "1", "0", "1", "0", "1", "1"}, sexes, regions)
	res, err := Compute(table, spec(ConditionalDemographicDisparity), DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, res.Chart)
	assert.ErrorIs(t, res.ChartErr, ErrMissingGroupData)
	assert.ErrorIs(t, res.ChartErr, chart.ErrMissingGroupData)
	assert.Equal(t, CodeMissingGroupData, GetCode(res.ChartErr))
}

func TestSingleChartPrivilegedColor(t *testing.T) {
	table := newTable(t, []string{"0", "1", "1", "0", "1", "0", "1", "1"}, sexes, regions)

	res, err := Compute(table, spec(KLDivergence), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []string{"F", "M"}, res.Chart.Categories)
	assert.Equal(t, chart.OtherColor, res.Chart.Series[0].Color)
	assert.Equal(t, chart.PrivilegedColor, res.Chart.Series[1].Color)
	assert.Equal(t, "0.750", res.Chart.Series[1].Bars[0].Text)
}

func TestComputeErrors(t *testing.T) {
	table := newTable(t, []string{"0", "1", "1", "0", "1", "0", "1", "1"}, sexes, regions)

	missingCol := spec(ClassImbalance)
	missingCol.TargetColumn = "nope"
	_, err := Compute(table, missingCol, DefaultOptions())
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
	assert.Equal(t, CodeSchema, GetCode(err))

	badPriv := spec(ClassImbalance)
	badPriv.PrivilegedGroup = "X"
	_, err = Compute(table, badPriv, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidPrivilegedGroup)

	noPriv := spec(KLDivergence)
	noPriv.PrivilegedGroup = ""
	_, err = Compute(table, noPriv, DefaultOptions())
	assert.ErrorIs(t, err, ErrSchema)

	noCat := spec(ConditionalDemographicDisparity)
	noCat.CategoryColumn = ""
	_, err = Compute(table, noCat, DefaultOptions())
	assert.ErrorIs(t, err, ErrSchema)
}

func TestPrivilegedGroupFilteredOut(t *testing.T) {
	table := newTable(t, []string{"0", "1", "1", "0"}, []string{"1", "1", "3", "3"}, []string{"a", "a", "a", "a"})
	filtered, err := table.Filter("sex", []string{"1"})
	require.NoError(t, err)

	s := spec(ClassImbalance)
	s.PrivilegedGroup = "3"
	_, err = Compute(filtered, s, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidPrivilegedGroup)
}

func TestPrivilegedGroupMatchesNumerically(t *testing.T) {
	y := []string{"0", "1", "1", "1"}
	table := newTable(t, y, []string{"1.0", "1.0", "3.0", "3.0"}, []string{"a", "a", "a", "a"})
	filtered, err := table.Filter("sex", []string{"1", "3"})
	require.NoError(t, err)
	require.Equal(t, 4, filtered.Len())

	s := spec(ClassImbalance)
	s.PrivilegedGroup = "3"
	res, err := Compute(filtered, s, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, -0.5, res.Value)
	assert.Equal(t, "3", res.Spec.PrivilegedGroup)

	require.NotNil(t, res.Chart)
	for _, series := range res.Chart.Series {
		assert.Equal(t, series.Name == "3.0", series.Privileged, series.Name)
	}
}

func TestComputationFailurePreservesProviderError(t *testing.T) {
	table := newTable(t, []string{"1", "1", "1", "1"}, []string{"M", "F", "M", "F"}, []string{"a", "a", "b", "b"})

	_, err := Compute(table, spec(ConditionalDemographicDisparity), DefaultOptions())
	assert.ErrorIs(t, err, ErrComputation)
	assert.ErrorIs(t, err, fairness.ErrDegenerateInput)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, CodeComputation, merr.Code)
}

func TestNonNumericOutcome(t *testing.T) {
	table := newTable(t, []string{"yes", "no"}, []string{"M", "F"}, []string{"a", "a"})
	_, err := Compute(table, spec(ClassImbalance), DefaultOptions())
	assert.ErrorIs(t, err, ErrSchema)
}

func TestEmptyRowsAreDropped(t *testing.T) {
	table := newTable(t,
		[]string{"1", "", "1", "0", "1", "0"},
		[]string{"M", "F", "", "F", "M", "F"},
		[]string{"a", "a", "a", "a", "a", "a"})

	res, err := Compute(table, spec(ClassImbalance), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, -1.0, res.Value)

	_, err = Compute(newTable(t, []string{""}, []string{"M"}, []string{"a"}), spec(ClassImbalance), DefaultOptions())
	assert.ErrorIs(t, err, ErrComputation)
	assert.ErrorIs(t, err, fairness.ErrEmptyInput)
}

func TestEvaluateReference(t *testing.T) {
	ref := defaultTests().Select(true)[0]
	r := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		value     float64
		reference *float64
		want      TestStatus
	}{
		{"exact", 0.5, r(0.5), TestPass},
		{"upper side", 0.54, r(0.5), TestPass},
		{"lower side", 0.46, r(0.5), TestPass},
		{"outside", 0.56, r(0.5), TestFail},
		{"negative reference", -0.42, r(-0.4), TestPass},
		{"zero reference exact", 0, r(0), TestPass},
		{"zero reference off", 1e-9, r(0), TestFail},
		{"reference unavailable", 0.5, nil, TestError},
		{"infinite on both sides", math.Inf(1), r(math.Inf(1)), TestPass},
		{"infinite against finite", math.Inf(1), r(0.5), TestFail},
		{"finite against infinite", 0.5, r(math.Inf(1)), TestFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(ref, tt.value, tt.reference))
		})
	}
}

func TestEvaluateNoReferenceIsExact(t *testing.T) {
	eq0 := defaultTests().Select(false)[0]
	assert.Equal(t, TestPass, Evaluate(eq0, 0, nil))
	assert.Equal(t, TestFail, Evaluate(eq0, 1e-12, nil))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"class_imbalance":                   ClassImbalance,
		"KL_Divergence":                     KLDivergence,
		"conditional_demographic_disparity": ConditionalDemographicDisparity,
		"cdd":                               ConditionalDemographicDisparity,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("accuracy")
	assert.Error(t, err)
}
