package metric

import (
	"fmt"
	"math"
)

// Comparison is the operator of a default test.
type Comparison string

const Equal Comparison = "eq"

// Expectation is the right-hand side of a test: either a fixed value or
// the same metric computed on the reference dataset, within a relative
// tolerance.
type Expectation struct {
	Value     float64
	Reference bool
	Relative  float64
}

func (e Expectation) String() string {
	if e.Reference {
		return fmt.Sprintf("reference ± %g%%", e.Relative*100)
	}
	return fmt.Sprintf("%g", e.Value)
}

// TestBinding is a deferred assertion on a metric value.
type TestBinding struct {
	Comparison Comparison
	Expected   Expectation
}

func (b TestBinding) String() string {
	return fmt.Sprintf("%s %s", b.Comparison, b.Expected)
}

// DefaultTests holds the alternative test sets of a metric. The report
// driver picks one depending on whether a reference dataset is present.
type DefaultTests struct {
	NoReference   []TestBinding
	WithReference []TestBinding
}

// Select returns the tests that apply to a run.
func (d DefaultTests) Select(hasReference bool) []TestBinding {
	if hasReference {
		return d.WithReference
	}
	return d.NoReference
}

// ReferenceTolerance is the relative tolerance of the reference test.
const ReferenceTolerance = 0.1

func defaultTests() DefaultTests {
	return DefaultTests{
		NoReference:   []TestBinding{{Comparison: Equal, Expected: Expectation{Value: 0}}},
		WithReference: []TestBinding{{Comparison: Equal, Expected: Expectation{Reference: true, Relative: ReferenceTolerance}}},
	}
}

// TestStatus is the outcome of evaluating a binding.
type TestStatus string

const (
	TestPass  TestStatus = "pass"
	TestFail  TestStatus = "fail"
	TestError TestStatus = "error"
)

// Evaluate checks value against b. reference is nil when the reference
// metric is unavailable, which yields TestError for reference bindings.
func Evaluate(b TestBinding, value float64, reference *float64) TestStatus {
	if b.Comparison != Equal {
		return TestError
	}
	if !b.Expected.Reference {
		if value == b.Expected.Value {
			return TestPass
		}
		return TestFail
	}
	if reference == nil {
		return TestError
	}
	if withinRelative(value, *reference, b.Expected.Relative) {
		return TestPass
	}
	return TestFail
}

// withinRelative reports |v-r| <= rel*|r|. Equal values always match,
// including a zero or infinite reference; otherwise a zero reference never
// matches.
func withinRelative(v, r, rel float64) bool {
	if v == r {
		return true
	}
	if r == 0 || math.IsInf(r, 0) {
		return false
	}
	return math.Abs(v-r) <= rel*math.Abs(r)
}
