package observe

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// WriteReport renders the recorded population history as an HTML line chart,
// one series per engine.
func WriteReport(history *History, path string) error {
	samples := history.Samples()
	if len(samples) == 0 {
		return fmt.Errorf("no population history recorded")
	}

	ids := make([]int, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Population per engine",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "elapsed (s)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "lifeforms",
		}),
	)

	// X axis comes from the longest series; engines sample together so the
	// shorter series just truncate.
	var axis []string
	for _, id := range ids {
		if len(samples[id]) > len(axis) {
			axis = axis[:0]
			for _, s := range samples[id] {
				axis = append(axis, fmt.Sprintf("%.0f", s.Elapsed.Seconds()))
			}
		}
	}
	line.SetXAxis(axis)

	for _, id := range ids {
		data := make([]opts.LineData, len(samples[id]))
		for i, s := range samples[id] {
			data[i] = opts.LineData{Value: s.Population}
		}
		line.AddSeries(fmt.Sprintf("engine %d", id), data)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := line.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
