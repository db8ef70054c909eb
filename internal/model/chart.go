package model

// ChartPayload is the chart-ready output: epoch-ms labels and one value
// slice per requested column, null-padded for warm-up rows.
type ChartPayload struct {
	Symbol   string                `json:"symbol"`
	Lookback string                `json:"lookback"`
	Labels   []int64               `json:"labels"`
	Series   map[string][]*float64 `json:"series"`
}
