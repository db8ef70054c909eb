package analyzer

import (
	"fmt"

	"MarketLens/internal/model"
)

// DefaultChartColumns are served when a chart request names no columns.
var DefaultChartColumns = []string{
	model.ColClose, model.ColEMA20, model.ColEMA50, model.ColBBUpper, model.ColBBLower, model.ColRSI,
}

// BuildChart turns frame columns into the chart payload. Unknown column
// names are an error; NaN values become null.
func BuildChart(frame *model.Frame, names []string) (model.ChartPayload, error) {
	if len(names) == 0 {
		names = DefaultChartColumns
	}
	out := model.ChartPayload{
		Symbol: frame.Symbol,
		Labels: make([]int64, frame.Len()),
		Series: make(map[string][]*float64, len(names)),
	}
	for i, c := range frame.Candles {
		out.Labels[i] = c.Time.UnixMilli()
	}
	for _, name := range names {
		col, ok := frame.Column(name)
		if !ok {
			return model.ChartPayload{}, fmt.Errorf("unknown chart column %q", name)
		}
		vals := make([]*float64, len(col))
		for i, v := range col {
			vals[i] = model.Nullable(v)
		}
		out.Series[name] = vals
	}
	return out, nil
}
