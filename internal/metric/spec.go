// Package metric maps declarative fairness metric specs onto a scalar
// computation, a comparison chart and a set of default tests.
package metric

import (
	"fmt"
	"strings"
)

// Kind identifies a fairness metric.
type Kind int

const (
	ClassImbalance Kind = iota + 1
	KLDivergence
	ConditionalDemographicDisparity
)

var kindNames = map[Kind]string{
	ClassImbalance:                  "class_imbalance",
	KLDivergence:                    "kl_divergence",
	ConditionalDemographicDisparity: "conditional_demographic_disparity",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the config name of a metric kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if s == name {
			return k, nil
		}
	}
	switch s {
	case "ci":
		return ClassImbalance, nil
	case "kl", "kld":
		return KLDivergence, nil
	case "cdd":
		return ConditionalDemographicDisparity, nil
	}
	return 0, fmt.Errorf("unknown metric kind %q", s)
}

// Spec declares one fairness computation. Specs are plain values and are
// never mutated after construction.
type Spec struct {
	Kind                     Kind
	TargetColumn             string
	ProtectedAttributeColumn string
	// PrivilegedGroup is required for class imbalance and KL divergence.
	// For conditional demographic disparity it only selects the bar colour.
	PrivilegedGroup string
	// CategoryColumn stratifies the conditional demographic disparity chart.
	CategoryColumn string
}

// Validate checks that the spec carries the fields its kind needs.
func (s Spec) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("unknown metric kind %d", int(s.Kind))
	}
	if s.TargetColumn == "" {
		return fmt.Errorf("%s: target column is required", s.Kind)
	}
	if s.ProtectedAttributeColumn == "" {
		return fmt.Errorf("%s: protected attribute column is required", s.Kind)
	}
	switch s.Kind {
	case ClassImbalance, KLDivergence:
		if s.PrivilegedGroup == "" {
			return fmt.Errorf("%s: privileged group is required", s.Kind)
		}
	case ConditionalDemographicDisparity:
		if s.CategoryColumn == "" {
			return fmt.Errorf("%s: category column is required", s.Kind)
		}
	}
	return nil
}

// Name is the human-readable metric name without column details.
func (s Spec) Name() string {
	switch s.Kind {
	case ClassImbalance:
		return "Class Imbalance"
	case KLDivergence:
		return "KL Divergence"
	case ConditionalDemographicDisparity:
		return "Conditional Demographic Disparity"
	}
	return s.Kind.String()
}

// DisplayName is the title shown for a computed value.
func (s Spec) DisplayName(value float64) string {
	if s.Kind == ClassImbalance {
		return fmt.Sprintf("%s (%s) - Value %.4f", s.Name(), s.TargetColumn, value)
	}
	return fmt.Sprintf("%s (%s)", s.Name(), s.TargetColumn)
}

// ID is a stable identifier for the spec, used to pair current and
// reference results.
func (s Spec) ID() string {
	parts := []string{s.Kind.String(), s.TargetColumn, s.ProtectedAttributeColumn}
	if s.PrivilegedGroup != "" {
		parts = append(parts, "priv="+s.PrivilegedGroup)
	}
	if s.CategoryColumn != "" {
		parts = append(parts, "cat="+s.CategoryColumn)
	}
	return strings.Join(parts, ":")
}
