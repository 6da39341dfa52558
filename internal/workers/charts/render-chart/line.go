package renderchart

import (
	"github.com/wcharczuk/go-chart/v2"

	"finsight/internal/models"
)

// lineChart draws one series per company with periods evenly spaced along x.
// Returns false when no record has a realization value.
func (h *Handler) lineChart(records []models.Record) (chart.Chart, bool) {
	periods := distinctPeriods(records)
	periodIndex := make(map[string]int, len(periods))
	for i, p := range periods {
		periodIndex[p] = i
	}

	var series []chart.Series
	var values []float64
	for ci, company := range distinctCompanies(records) {
		var xs, ys []float64
		for _, r := range records {
			if r.Company != company || !r.HasRealization() {
				continue
			}
			xs = append(xs, float64(periodIndex[r.Period]))
			ys = append(ys, r.RealizationValue)
		}
		if len(xs) == 0 {
			continue
		}
		values = append(values, ys...)

		color := companyColor(ci)
		series = append(series, chart.ContinuousSeries{
			Name:    company,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    4,
			},
		})
	}
	if len(series) == 0 {
		return chart.Chart{}, false
	}

	xTicks := make([]chart.Tick, len(periods))
	for i, p := range periods {
		xTicks[i] = chart.Tick{Value: float64(i), Label: p}
	}
	// go-chart takes the x range from the ticks, so unlabelled edge ticks
	// keep half a step of margin and give a single period a non-zero width.
	axisTicks := make([]chart.Tick, 0, len(xTicks)+2)
	axisTicks = append(axisTicks, chart.Tick{Value: -0.5})
	axisTicks = append(axisTicks, xTicks...)
	axisTicks = append(axisTicks, chart.Tick{Value: float64(len(periods)) - 0.5})

	lo, hi := valueRange(values)
	yTicks := niceTicks(lo, hi, 6)

	ch := chart.Chart{
		Title:  titleLine,
		Width:  h.config.Width,
		Height: h.config.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Period",
			TickStyle:      rotatedTicks(),
			Ticks:          axisTicks,
			Range:          &chart.ContinuousRange{Min: -0.5, Max: float64(len(periods)) - 0.5},
			GridLines:      gridLines(xTicks),
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Name:           yAxisName,
			Ticks:          yTicks,
			Range:          tickRange(lo, hi, yTicks),
			GridLines:      gridLines(yTicks),
			GridMajorStyle: gridStyle(),
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, true
}
