// Package chart builds bar charts comparing mean outcomes across protected
// groups and renders them as embeddable HTML snippets.
package chart

import (
	"errors"
	"fmt"
)

// ErrMissingGroupData is returned when a bar would be drawn for a group
// that has no observations.
var ErrMissingGroupData = errors.New("missing group data")

const (
	PrivilegedColor = "blue"
	OtherColor      = "red"
)

// Bar is one bar of a chart. A Missing bar marks a stratum without
// observations and is drawn as a gap.
type Bar struct {
	Label   string
	Value   float64
	Text    string
	Missing bool
}

// Series is a set of bars drawn in one colour. A single-stratum chart has
// one series per group with one bar each; a two-stratum chart has one
// series per group with one bar per category.
type Series struct {
	Name       string
	Color      string
	Privileged bool
	Bars       []Bar
}

// Chart is a renderable bar chart.
type Chart struct {
	Title    string
	Subtitle string
	XAxis    string
	YAxis    string
	YMin     float64
	YMax     float64
	Grouped  bool
	Legend   bool
	// Categories holds the x-axis labels in display order.
	Categories []string
	Series     []Series
}

// Cell is the mean outcome of one (category, group) stratum.
type Cell struct {
	Category string
	Group    string
	Mean     float64
	Count    int
}

// Single builds a one-bar-per-group chart. The privileged group's bar is
// always drawn in PrivilegedColor, whatever its position in cells.
func Single(metricName string, value float64, privileged string, cells []Cell) (*Chart, error) {
	c := &Chart{
		Title:    fmt.Sprintf("%s - Approval Rate by Group", metricName),
		Subtitle: fmt.Sprintf("Value: %.4f", value),
		XAxis:    "Protected Group",
		YAxis:    "Approval Rate",
		YMin:     0,
		YMax:     1,
	}
	for _, cell := range cells {
		if cell.Count == 0 {
			return nil, fmt.Errorf("%w: group %q has no observations", ErrMissingGroupData, cell.Group)
		}
		c.Categories = append(c.Categories, cell.Group)
		c.Series = append(c.Series, Series{
			Name:       cell.Group,
			Color:      colorFor(cell.Group, privileged),
			Privileged: cell.Group == privileged,
			Bars:       []Bar{{Label: cell.Group, Value: cell.Mean, Text: fmt.Sprintf("%.3f", cell.Mean)}},
		})
	}
	return c, nil
}

// Grouped builds a clustered chart with one cluster per category and one
// bar per group inside each cluster. categories and groups fix the display
// order. A (category, group) pair without observations is left as a gap; a
// group with no observations in any category is ErrMissingGroupData. An
// empty privileged leaves every series in OtherColor.
func Grouped(metricName string, value float64, privileged string, categories, groups []string, cells []Cell) (*Chart, error) {
	type key struct{ category, group string }
	byKey := make(map[key]Cell, len(cells))
	for _, cell := range cells {
		byKey[key{cell.Category, cell.Group}] = cell
	}

	c := &Chart{
		Title:      fmt.Sprintf("%s - Approval Rate by Category and Group", metricName),
		Subtitle:   fmt.Sprintf("Value: %.4f", value),
		XAxis:      "Category",
		YAxis:      "Approval Rate",
		YMin:       0,
		YMax:       1,
		Grouped:    true,
		Legend:     true,
		Categories: append([]string(nil), categories...),
	}
	for _, g := range groups {
		s := Series{
			Name:       g,
			Color:      colorFor(g, privileged),
			Privileged: privileged != "" && g == privileged,
		}
		observed := 0
		for _, cat := range categories {
			cell, ok := byKey[key{cat, g}]
			if !ok || cell.Count == 0 {
				s.Bars = append(s.Bars, Bar{Label: cat, Missing: true})
				continue
			}
			observed++
			s.Bars = append(s.Bars, Bar{Label: cat, Value: cell.Mean, Text: fmt.Sprintf("%.3f", cell.Mean)})
		}
		if observed == 0 {
			return nil, fmt.Errorf("%w: group %q has no observations", ErrMissingGroupData, g)
		}
		c.Series = append(c.Series, s)
	}
	return c, nil
}

func colorFor(group, privileged string) string {
	if privileged != "" && group == privileged {
		return PrivilegedColor
	}
	return OtherColor
}
