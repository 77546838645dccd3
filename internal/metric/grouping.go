package metric

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/peekknuf/fairqa/internal/chart"
)

// observations is the projection of a table onto the columns a spec reads.
type observations struct {
	y          []float64
	groups     []string
	categories []string
}

// groupMeans returns the mean outcome per protected group, groups sorted.
func groupMeans(obs observations) []chart.Cell {
	byGroup := make(map[string][]float64)
	for i, g := range obs.groups {
		byGroup[g] = append(byGroup[g], obs.y[i])
	}

	cells := make([]chart.Cell, 0, len(byGroup))
	for _, g := range sortedStrings(obs.groups) {
		ys := byGroup[g]
		cells = append(cells, chart.Cell{Group: g, Mean: stat.Mean(ys, nil), Count: len(ys)})
	}
	return cells
}

// stratifiedMeans returns the mean outcome per observed (category, group)
// pair along with the sorted category and group labels.
func stratifiedMeans(obs observations) (cells []chart.Cell, categories, groups []string) {
	type key struct{ category, group string }
	byKey := make(map[key][]float64)
	for i := range obs.y {
		k := key{obs.categories[i], obs.groups[i]}
		byKey[k] = append(byKey[k], obs.y[i])
	}

	categories = sortedStrings(obs.categories)
	groups = sortedStrings(obs.groups)
	for _, c := range categories {
		for _, g := range groups {
			ys, ok := byKey[key{c, g}]
			if !ok {
				continue
			}
			cells = append(cells, chart.Cell{Category: c, Group: g, Mean: stat.Mean(ys, nil), Count: len(ys)})
		}
	}
	return cells, categories, groups
}

func sortedStrings(values []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
