package profiler

import (
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
)

// ColumnStats accumulates pandas.describe() style statistics for one column.
type ColumnStats struct {
	Name          string
	Type          string
	Count         int
	NullCount     int
	DistinctCount int
	Min           string
	Max           string

	// Numeric columns
	Mean float64
	Std  float64
	Q25  float64
	Q50  float64
	Q75  float64

	// String columns
	Top  string
	Freq int

	numbers     []float64
	frequencies map[string]int
}

func newColumnStats(name string) *ColumnStats {
	return &ColumnStats{Name: name, frequencies: make(map[string]int)}
}

// Update folds one cell into the statistics. Empty cells count as nulls.
func (s *ColumnStats) Update(value string) {
	if value == "" {
		s.NullCount++
		return
	}

	s.Count++
	s.frequencies[value]++
	s.DistinctCount = len(s.frequencies)
	s.inferType(value)
}

// inferType narrows the column type: int widens to float, anything that
// does not parse as a number makes the column a string (or date) column.
func (s *ColumnStats) inferType(value string) {
	if s.Type == "string" || (s.Type == "date" && !isDate(value)) {
		s.Type = "string"
		return
	}
	if s.Type == "date" {
		return
	}

	if _, err := strconv.Atoi(value); err == nil {
		if s.Type == "" {
			s.Type = "int"
		}
		s.addNumber(value)
		return
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		if s.Type == "" || s.Type == "int" {
			s.Type = "float"
		}
		s.addNumber(value)
		return
	}

	if s.Type == "" && isDate(value) {
		s.Type = "date"
		return
	}
	s.Type = "string"
	s.numbers = nil
}

func (s *ColumnStats) addNumber(value string) {
	f, _ := strconv.ParseFloat(value, 64)
	s.numbers = append(s.numbers, f)
}

// IsNumeric reports whether the column holds only numbers.
func (s ColumnStats) IsNumeric() bool {
	return s.Type == "int" || s.Type == "float"
}

func (s *ColumnStats) finalize() {
	if s.IsNumeric() && len(s.numbers) > 0 {
		s.Mean, _ = stats.Mean(s.numbers)
		if len(s.numbers) > 1 {
			s.Std, _ = stats.StandardDeviationSample(s.numbers)
		}
		s.Q25, _ = stats.Percentile(s.numbers, 25)
		s.Q50, _ = stats.Median(s.numbers)
		s.Q75, _ = stats.Percentile(s.numbers, 75)
		lo, _ := stats.Min(s.numbers)
		hi, _ := stats.Max(s.numbers)
		s.Min = strconv.FormatFloat(lo, 'f', -1, 64)
		s.Max = strconv.FormatFloat(hi, 'f', -1, 64)
	} else {
		for v, n := range s.frequencies {
			if n > s.Freq || n == s.Freq && v < s.Top {
				s.Top, s.Freq = v, n
			}
			if s.Min == "" || v < s.Min {
				s.Min = v
			}
			if s.Max == "" || v > s.Max {
				s.Max = v
			}
		}
	}
	s.numbers = nil
}

func isDate(value string) bool {
	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"02-Jan-2006",
	}

	for _, format := range formats {
		_, err := time.Parse(format, value)
		if err == nil {
			return true
		}
	}

	return false
}
