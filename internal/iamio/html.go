package iamio

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/iamcompact/iamvet-cli/internal/report"
)

const (
	colorPass    = "#2e9e5b"
	colorFail    = "#d64545"
	colorNoRange = "#7d56f4"
)

// distanceChart plots the distance column of t, one bar per row, coloured
// by the in-range column when there is one. It returns nil when t has no
// distance column.
func distanceChart(t *report.Table, subtitle string) *charts.Bar {
	dc := t.ColumnIndex(report.Distance.Title())
	if dc < 0 {
		return nil
	}
	rc := t.ColumnIndex(report.InRange.Title())

	x := make([]string, 0, len(t.Rows))
	y := make([]opts.BarData, 0, len(t.Rows))
	for _, r := range t.Rows {
		d, ok := r.Cells[dc].(float64)
		if !ok {
			continue
		}
		color := colorNoRange
		if rc >= 0 {
			if in, ok := r.Cells[rc].(bool); ok {
				color = colorFail
				if in {
					color = colorPass
				}
			}
		}
		x = append(x, strings.Join(r.Keys, " | "))
		y = append(y, opts.BarData{Value: d, ItemStyle: &opts.ItemStyle{Color: color}})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "iamvet report", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: t.Name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: report.Distance.Title()}),
	)
	bar.SetXAxis(x).
		AddSeries("distance", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func writeHTML(path string, tables []*report.Table, runID string) error {
	subtitle := ""
	if runID != "" {
		subtitle = "run " + runID
	}
	page := components.NewPage()
	page.PageTitle = "iamvet report"
	n := 0
	for _, t := range finiteOnly(tables) {
		if bar := distanceChart(t, subtitle); bar != nil {
			page.AddCharts(bar)
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("no table has a %q column to chart", report.Distance.Title())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

// finiteOnly drops non-finite cells, which charts cannot place.
func finiteOnly(tables []*report.Table) []*report.Table {
	out := finiteCells(tables)
	for _, t := range out {
		for _, r := range t.Rows {
			for k, c := range r.Cells {
				if _, ok := c.(string); ok {
					r.Cells[k] = nil
				}
			}
		}
	}
	return out
}
