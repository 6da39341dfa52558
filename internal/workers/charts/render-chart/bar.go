package renderchart

import (
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"finsight/internal/models"
)

// periodBars groups bars by period, one coloured bar per company, with a gap between groups.
func periodBars(records []models.Record, periods, companies []string) []chart.Value {
	colorOf := make(map[string]drawing.Color, len(companies))
	for i, c := range companies {
		colorOf[c] = companyColor(i)
	}

	var bars []chart.Value
	for pi, period := range periods {
		if pi > 0 {
			bars = append(bars, chart.Value{
				Value: 0,
				Style: chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent},
			})
		}
		labelled := false
		for _, company := range companies {
			for _, r := range records {
				if r.Period != period || r.Company != company || !r.HasRealization() {
					continue
				}
				label := ""
				if !labelled {
					label, labelled = period, true
				}
				bars = append(bars, chart.Value{
					Label: label,
					Value: r.RealizationValue,
					Style: chart.Style{FillColor: colorOf[company], StrokeColor: colorOf[company], StrokeWidth: 1},
				})
			}
		}
	}
	return bars
}

// companyTotals sums realization per company, skipping missing values.
func companyTotals(records []models.Record, companies []string) []chart.Value {
	sums := make(map[string]decimal.Decimal, len(companies))
	for _, r := range records {
		if !r.HasRealization() {
			continue
		}
		sums[r.Company] = sums[r.Company].Add(decimal.NewFromFloat(r.RealizationValue))
	}

	bars := make([]chart.Value, 0, len(companies))
	for i, company := range companies {
		total, _ := sums[company].Float64()
		bars = append(bars, chart.Value{
			Label: company,
			Value: total,
			Style: chart.Style{FillColor: companyColor(i), StrokeColor: companyColor(i), StrokeWidth: 1},
		})
	}
	return bars
}

// barChart lays out bars by period when the records span several periods,
// otherwise one bar per company.
func (h *Handler) barChart(records []models.Record) (chart.BarChart, bool) {
	if !anyRealization(records) {
		return chart.BarChart{}, false
	}
	periods := distinctPeriods(records)
	companies := distinctCompanies(records)

	title, xName := titlePeriodBars, "Period"
	var bars []chart.Value
	if len(periods) > 1 {
		bars = periodBars(records, periods, companies)
	} else {
		title, xName = titleCompanyBars, "Company"
		bars = companyTotals(records, companies)
	}

	legend := make([]legendEntry, len(companies))
	for i, c := range companies {
		legend[i] = legendEntry{name: c, color: companyColor(i)}
	}

	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = b.Value
	}

	lo, hi := valueRange(values)
	yTicks := niceTicks(lo, hi, 6)
	yr := tickRange(lo, hi, yTicks)

	return chart.BarChart{
		Title:  title,
		Width:  h.config.Width,
		Height: h.config.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 40, Right: 20, Bottom: 90},
		},
		XAxis: rotatedTicks(),
		YAxis: chart.YAxis{
			Ticks: yTicks,
			Range: yr,
		},
		UseBaseValue: true,
		BaseValue:    0,
		BarSpacing:   4,
		Bars:         bars,
		Elements: []chart.Renderable{
			dashedGrid(*yr, yTicks),
			boxLegend(legend),
			axisNames(xName, yAxisName, h.config.Height),
		},
	}, true
}
