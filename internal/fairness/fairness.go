// Package fairness computes group-fairness statistics over an outcome
// sequence and a protected-attribute sequence of the same length.
//
// The unprivileged group is every protected value other than the
// privileged one.
package fairness

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyInput       = errors.New("empty input")
	ErrLengthMismatch   = errors.New("outcome and protected attribute lengths differ")
	ErrValueUnavailable = errors.New("privileged group not present in protected attribute")
	ErrDegenerateInput  = errors.New("degenerate input")
)

// Provider computes fairness statistics for a given positive outcome label.
type Provider struct {
	PositiveLabel float64
}

// Default treats an outcome of 1 as positive.
var Default = Provider{PositiveLabel: 1}

// ClassImbalance returns P(pos | unprivileged) - P(pos | privileged).
func (p Provider) ClassImbalance(y []float64, prot []string, priv string) (float64, error) {
	privY, unprivY, err := split(y, prot, priv)
	if err != nil {
		return 0, err
	}
	if len(unprivY) == 0 {
		return 0, fmt.Errorf("%w: no unprivileged observations", ErrDegenerateInput)
	}
	return p.positiveRate(unprivY) - p.positiveRate(privY), nil
}

// KLDivergence returns KL(P_unprivileged || P_privileged) over the outcome
// label distribution. The result is +Inf when the unprivileged group shows
// a label the privileged group never does.
func (p Provider) KLDivergence(y []float64, prot []string, priv string) (float64, error) {
	privY, unprivY, err := split(y, prot, priv)
	if err != nil {
		return 0, err
	}
	if len(unprivY) == 0 {
		return 0, fmt.Errorf("%w: no unprivileged observations", ErrDegenerateInput)
	}

	labels := labelSet(y)
	pu := distribution(unprivY, labels)
	pp := distribution(privY, labels)
	return stat.KullbackLeibler(pu, pp), nil
}

// ConditionalDemographicDisparity returns the size-weighted mean over
// protected groups of DD_g = rejected_g/rejected - accepted_g/accepted.
func (p Provider) ConditionalDemographicDisparity(y []float64, prot []string) (float64, error) {
	if err := checkInput(y, prot); err != nil {
		return 0, err
	}

	var accepted, rejected float64
	accByGroup := make(map[string]float64)
	rejByGroup := make(map[string]float64)
	sizes := make(map[string]float64)
	for i, v := range y {
		g := prot[i]
		sizes[g]++
		if v == p.PositiveLabel {
			accepted++
			accByGroup[g]++
		} else {
			rejected++
			rejByGroup[g]++
		}
	}
	if accepted == 0 || rejected == 0 {
		return 0, fmt.Errorf("%w: outcomes contain a single class", ErrDegenerateInput)
	}

	groups := sortedKeys(sizes)
	dd := make([]float64, len(groups))
	weights := make([]float64, len(groups))
	for i, g := range groups {
		dd[i] = rejByGroup[g]/rejected - accByGroup[g]/accepted
		weights[i] = sizes[g]
	}
	return stat.Mean(dd, weights), nil
}

func (p Provider) positiveRate(y []float64) float64 {
	pos := make([]float64, len(y))
	for i, v := range y {
		if v == p.PositiveLabel {
			pos[i] = 1
		}
	}
	return stat.Mean(pos, nil)
}

func checkInput(y []float64, prot []string) error {
	if len(y) == 0 || len(prot) == 0 {
		return ErrEmptyInput
	}
	if len(y) != len(prot) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(y), len(prot))
	}
	for _, v := range y {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: NaN outcome", ErrDegenerateInput)
		}
	}
	return nil
}

func split(y []float64, prot []string, priv string) (privY, unprivY []float64, err error) {
	if err := checkInput(y, prot); err != nil {
		return nil, nil, err
	}
	for i, v := range y {
		if prot[i] == priv {
			privY = append(privY, v)
		} else {
			unprivY = append(unprivY, v)
		}
	}
	if len(privY) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrValueUnavailable, priv)
	}
	return privY, unprivY, nil
}

func labelSet(y []float64) []float64 {
	seen := make(map[float64]struct{})
	var labels []float64
	for _, v := range y {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		labels = append(labels, v)
	}
	sort.Float64s(labels)
	return labels
}

func distribution(y []float64, labels []float64) []float64 {
	counts := make(map[float64]float64, len(labels))
	for _, v := range y {
		counts[v]++
	}
	dist := make([]float64, len(labels))
	for i, l := range labels {
		dist[i] = counts[l] / float64(len(y))
	}
	return dist
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
