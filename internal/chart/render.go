package chart

import (
	"html/template"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts runtime the snippets depend on.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Snippet is a chart rendered for embedding in a larger HTML page.
type Snippet struct {
	Element template.HTML
	Script  template.HTML
}

// Render converts c into an echarts bar chart. id must be unique within the
// page the snippet is embedded in.
func Render(c *Chart, id string) Snippet {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:    id,
			Width:      "900px",
			Height:     "420px",
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: c.Subtitle}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XAxis}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YAxis, Min: c.YMin, Max: c.YMax}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(c.Legend), Right: "10%"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(c.Categories)

	if c.Grouped {
		for _, s := range c.Series {
			data := make([]opts.BarData, len(s.Bars))
			for i, b := range s.Bars {
				if b.Missing {
					// echarts draws "-" as an empty slot.
					data[i] = opts.BarData{Name: b.Label, Value: "-"}
					continue
				}
				data[i] = opts.BarData{Name: b.Label, Value: b.Value, Label: barLabel(b)}
			}
			bar.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
		}
	} else {
		// One bar per group on a shared series so each lands on its own
		// x position; colour is carried per bar.
		data := make([]opts.BarData, 0, len(c.Series))
		for _, s := range c.Series {
			for _, b := range s.Bars {
				data = append(data, opts.BarData{
					Name:      b.Label,
					Value:     b.Value,
					Label:     barLabel(b),
					ItemStyle: &opts.ItemStyle{Color: s.Color},
				})
			}
		}
		bar.AddSeries("mean", data)
	}

	snippet := bar.RenderSnippet()
	return Snippet{
		Element: template.HTML(snippet.Element),
		Script:  template.HTML(snippet.Script),
	}
}

func barLabel(b Bar) *opts.Label {
	return &opts.Label{Show: opts.Bool(true), Position: "top", Formatter: b.Text}
}
