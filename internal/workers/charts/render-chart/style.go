package renderchart

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	yAxisName = "Realization Budget"

	titleLine        = "Trend Comparison"
	titlePeriodBars  = "Period-wise Bar Chart"
	titleCompanyBars = "Company Comparison"
)

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func companyColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor:     drawing.ColorFromHex("b0b0b0").WithAlpha(110),
		StrokeWidth:     1,
		StrokeDashArray: []float64{5, 5},
	}
}

func rotatedTicks() chart.Style {
	return chart.Style{
		TextRotationDegrees: 45,
	}
}

// valueRange spans the values and zero, padded so equal values still give a valid range.
func valueRange(values []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}

// niceTicks picks roughly n evenly spaced ticks on 1-2-2.5-5 steps covering [lo, hi].
func niceTicks(lo, hi float64, n int) []chart.Tick {
	if n < 2 || hi <= lo {
		return nil
	}
	mag := math.Pow(10, math.Floor(math.Log10((hi-lo)/float64(n-1))))
	bestStep, bestScore := mag, math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		score := math.Abs(math.Ceil((hi-lo)/step) - float64(n))
		if score < bestScore {
			bestStep, bestScore = step, score
		}
	}

	start := math.Floor(lo/bestStep) * bestStep
	var ticks []chart.Tick
	for i := 0; ; i++ {
		v := start + float64(i)*bestStep
		ticks = append(ticks, chart.Tick{Value: v, Label: tickLabel(v)})
		if v >= hi || len(ticks) > n+2 {
			break
		}
	}
	return ticks
}

func tickLabel(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

// tickRange widens [lo, hi] to include every tick.
func tickRange(lo, hi float64, ticks []chart.Tick) *chart.ContinuousRange {
	for _, t := range ticks {
		lo = math.Min(lo, t.Value)
		hi = math.Max(hi, t.Value)
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func gridLines(ticks []chart.Tick) []chart.GridLine {
	lines := make([]chart.GridLine, 0, len(ticks))
	for _, t := range ticks {
		lines = append(lines, chart.GridLine{Value: t.Value})
	}
	return lines
}

type legendEntry struct {
	name  string
	color drawing.Color
}

// boxLegend draws a swatch legend in the top-right corner of the canvas.
func boxLegend(entries []legendEntry) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		if len(entries) == 0 {
			return
		}
		textStyle := chart.Style{
			FontSize:  9,
			FontColor: drawing.ColorFromHex("333333"),
		}.InheritFrom(defaults)
		frameStyle := chart.Style{
			FillColor:   drawing.ColorWhite.WithAlpha(220),
			StrokeColor: drawing.ColorFromHex("cccccc"),
			StrokeWidth: 1,
		}

		textStyle.GetTextOptions().WriteToRenderer(r)
		textWidth, lineHeight := 0, 0
		for _, e := range entries {
			tb := r.MeasureText(e.name)
			textWidth = max(textWidth, tb.Width())
			lineHeight = max(lineHeight, tb.Height())
		}
		r.ResetStyle()

		const pad, swatch = 6, 10
		rowHeight := max(lineHeight, swatch) + pad
		frame := chart.Box{
			Top:    canvasBox.Top + pad,
			Right:  canvasBox.Right - pad,
			Left:   canvasBox.Right - pad - (3*pad + swatch + textWidth),
			Bottom: canvasBox.Top + pad + pad + len(entries)*rowHeight,
		}
		chart.Draw.Box(r, frame, frameStyle)

		for i, e := range entries {
			top := frame.Top + pad + i*rowHeight
			chart.Draw.Box(r, chart.Box{
				Left:   frame.Left + pad,
				Top:    top,
				Right:  frame.Left + pad + swatch,
				Bottom: top + swatch,
			}, chart.Style{FillColor: e.color, StrokeColor: e.color, StrokeWidth: 1})
			chart.Draw.Text(r, e.name, frame.Left+2*pad+swatch, top+swatch, textStyle)
		}
	}
}

// dashedGrid draws horizontal grid lines for ticks within the canvas.
func dashedGrid(yr chart.ContinuousRange, ticks []chart.Tick) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, _ chart.Style) {
		span := yr.Max - yr.Min
		if span <= 0 {
			return
		}
		style := gridStyle()
		for _, t := range ticks {
			y := canvasBox.Bottom - int((t.Value-yr.Min)/span*float64(canvasBox.Height()))
			if y < canvasBox.Top || y > canvasBox.Bottom {
				continue
			}
			style.WriteDrawingOptionsToRenderer(r)
			r.MoveTo(canvasBox.Left, y)
			r.LineTo(canvasBox.Right, y)
			r.Stroke()
			r.ResetStyle()
		}
	}
}

// axisNames draws the x and y axis titles, which bar charts do not render themselves.
func axisNames(xName, yName string, height int) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		style := chart.Style{FontSize: 10, FontColor: drawing.ColorFromHex("333333")}.InheritFrom(defaults)

		style.GetTextOptions().WriteToRenderer(r)
		xb := r.MeasureText(xName)
		r.ResetStyle()
		chart.Draw.Text(r, xName, canvasBox.Left+(canvasBox.Width()-xb.Width())/2, height-8, style)

		vertical := style
		vertical.TextRotationDegrees = 270
		vertical.GetTextOptions().WriteToRenderer(r)
		yb := r.MeasureText(yName)
		r.ResetStyle()
		chart.Draw.Text(r, yName, 14, canvasBox.Top+(canvasBox.Height()+yb.Width())/2, vertical)
	}
}
