package web

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"MarketLens/internal/model"
)

// overlayColumns are drawn as lines over the candles.
var overlayColumns = []string{model.ColEMA20, model.ColEMA50, model.ColBBUpper, model.ColBBLower}

// renderChart writes a candlestick page with EMA and Bollinger overlays.
func renderChart(w io.Writer, frame *model.Frame, lookback string) error {
	labels := make([]string, frame.Len())
	candles := make([]opts.KlineData, frame.Len())
	layout := "01-02 15:04"
	if frame.Len() > 1 && frame.Candles[frame.Len()-1].Time.Sub(frame.Candles[0].Time) > 60*24*time.Hour {
		layout = "2006-01-02"
	}
	for i, c := range frame.Candles {
		labels[i] = c.Time.UTC().Format(layout)
		candles[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s %s | MarketLens", frame.Symbol, lookback),
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    frame.Symbol,
			Subtitle: fmt.Sprintf("lookback %s, %d bars, source %s", lookback, frame.Len(), frame.Source),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	kline.SetXAxis(labels).AddSeries("price", candles)

	lines := charts.NewLine()
	lines.SetXAxis(labels)
	for _, name := range overlayColumns {
		col, ok := frame.Column(name)
		if !ok {
			continue
		}
		data := make([]opts.LineData, len(col))
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}
		lines.AddSeries(name, data)
	}
	kline.Overlap(lines)
	return kline.Render(w)
}
