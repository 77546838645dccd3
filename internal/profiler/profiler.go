// Package profiler summarizes a dataset column by column.
package profiler

import (
	"fmt"

	"github.com/peekknuf/fairqa/internal/dataset"
)

// Summary is the data summary attached to a report.
type Summary struct {
	Dataset        string
	RowCount       int
	ColumnCount    int
	NumericColumns int
	StringColumns  int
	NullPercentage float64
	Columns        []ColumnStats
}

// QualityMetrics condenses a summary into dataset-level quality figures.
type QualityMetrics struct {
	TotalRows       int
	NullPercentage  float64
	DistinctRatio   float64
	EmptyColumns    int
	ConstantColumns int
}

// Summarize computes per-column statistics in the table's column order.
func Summarize(t *dataset.Table) (Summary, error) {
	s := Summary{
		Dataset:     t.Name,
		RowCount:    t.Len(),
		ColumnCount: len(t.Columns()),
	}

	var nulls, cells int
	for _, name := range t.Columns() {
		values, err := t.Column(name)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to summarize column %q: %w", name, err)
		}

		stats := newColumnStats(name)
		for _, v := range values {
			stats.Update(v)
		}
		stats.finalize()

		if stats.IsNumeric() {
			s.NumericColumns++
		} else {
			s.StringColumns++
		}
		nulls += stats.NullCount
		cells += stats.Count + stats.NullCount
		s.Columns = append(s.Columns, *stats)
	}

	if cells > 0 {
		s.NullPercentage = float64(nulls) / float64(cells) * 100
	}
	return s, nil
}

// Quality derives dataset-level quality figures from the summary.
func (s Summary) Quality() QualityMetrics {
	m := QualityMetrics{
		TotalRows:      s.RowCount,
		NullPercentage: s.NullPercentage,
	}

	var distinct int
	for _, c := range s.Columns {
		distinct += c.DistinctCount
		if c.Count == 0 {
			m.EmptyColumns++
		} else if c.DistinctCount == 1 {
			m.ConstantColumns++
		}
	}
	if s.RowCount > 0 && len(s.Columns) > 0 {
		m.DistinctRatio = float64(distinct) / float64(s.RowCount*len(s.Columns))
	}
	return m
}
