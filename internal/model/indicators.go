package model

import (
	"encoding/json"
	"math"
)

// Column names used by Frame.Column and the chart payload.
const (
	ColOpen        = "open"
	ColHigh        = "high"
	ColLow         = "low"
	ColClose       = "close"
	ColVolume      = "volume"
	ColRSI         = "rsi"
	ColMACDLine    = "macd_line"
	ColMACDSignal  = "macd_signal"
	ColMACDHist    = "macd_hist"
	ColBBUpper     = "bb_upper"
	ColBBMid       = "bb_mid"
	ColBBLower     = "bb_lower"
	ColBBWidth     = "bb_width"
	ColADX         = "adx14"
	ColPlusDI      = "plus_di"
	ColMinusDI     = "minus_di"
	ColOBV         = "obv"
	ColATR         = "atr14"
	ColEMA9        = "ema9"
	ColEMA20       = "ema20"
	ColEMA21       = "ema21"
	ColEMA50       = "ema50"
	ColEMA55       = "ema55"
	ColEMA144      = "ema144"
	ColEMA200      = "ema200"
	ColSMA20       = "sma20"
	ColSMA50       = "sma50"
	ColROC         = "roc10"
	ColRealizedVol = "vol_realized"
	ColDrawdown    = "drawdown"
	ColVolZ        = "vol_z"
	ColHigh20      = "high_20d"
	ColLow20       = "low_20d"
	ColEngulfing   = "engulfing"
	ColPinBar      = "pin_bar"
)

// Frame is a Series augmented with derived indicator columns.
// Every column has one value per candle; NaN marks rows still in warm-up.
// Pattern columns hold +1 (bullish), -1 (bearish) or 0.
type Frame struct {
	Series

	RSI         []float64
	MACDLine    []float64
	MACDSignal  []float64
	MACDHist    []float64
	BBUpper     []float64
	BBMid       []float64
	BBLower     []float64
	BBWidth     []float64
	ADX         []float64
	PlusDI      []float64
	MinusDI     []float64
	OBV         []float64
	ATR         []float64
	EMA9        []float64
	EMA20       []float64
	EMA21       []float64
	EMA50       []float64
	EMA55       []float64
	EMA144      []float64
	EMA200      []float64
	SMA20       []float64
	SMA50       []float64
	ROC         []float64
	RealizedVol []float64
	Drawdown    []float64
	VolZ        []float64
	High20      []float64
	Low20       []float64
	Engulfing   []float64
	PinBar      []float64
}

// NewFrame allocates a frame over s with every indicator column set to NaN.
func NewFrame(s Series) *Frame {
	f := &Frame{Series: s}
	for _, col := range f.indicatorColumns() {
		*col.values = NaNs(s.Len())
	}
	return f
}

type namedColumn struct {
	name   string
	values *[]float64
}

func (f *Frame) indicatorColumns() []namedColumn {
	return []namedColumn{
		{ColRSI, &f.RSI}, {ColMACDLine, &f.MACDLine}, {ColMACDSignal, &f.MACDSignal}, {ColMACDHist, &f.MACDHist},
		{ColBBUpper, &f.BBUpper}, {ColBBMid, &f.BBMid}, {ColBBLower, &f.BBLower}, {ColBBWidth, &f.BBWidth},
		{ColADX, &f.ADX}, {ColPlusDI, &f.PlusDI}, {ColMinusDI, &f.MinusDI},
		{ColOBV, &f.OBV}, {ColATR, &f.ATR},
		{ColEMA9, &f.EMA9}, {ColEMA20, &f.EMA20}, {ColEMA21, &f.EMA21}, {ColEMA50, &f.EMA50},
		{ColEMA55, &f.EMA55}, {ColEMA144, &f.EMA144}, {ColEMA200, &f.EMA200},
		{ColSMA20, &f.SMA20}, {ColSMA50, &f.SMA50}, {ColROC, &f.ROC},
		{ColRealizedVol, &f.RealizedVol}, {ColDrawdown, &f.Drawdown}, {ColVolZ, &f.VolZ},
		{ColHigh20, &f.High20}, {ColLow20, &f.Low20},
		{ColEngulfing, &f.Engulfing}, {ColPinBar, &f.PinBar},
	}
}

// IndicatorNames lists every derived column name in a stable order.
func IndicatorNames() []string {
	cols := (&Frame{}).indicatorColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// Column returns the named column (candle fields included) and whether it exists.
func (f *Frame) Column(name string) ([]float64, bool) {
	switch name {
	case ColOpen:
		return f.Opens(), true
	case ColHigh:
		return f.Highs(), true
	case ColLow:
		return f.Lows(), true
	case ColClose:
		return f.Closes(), true
	case ColVolume:
		return f.Volumes(), true
	}
	for _, col := range f.indicatorColumns() {
		if col.name == name {
			return *col.values, true
		}
	}
	return nil, false
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Candles) }

// Slice returns a copy of rows [from, to).
func (f *Frame) Slice(from, to int) *Frame {
	if from < 0 {
		from = 0
	}
	if to > f.Len() {
		to = f.Len()
	}
	if from > to {
		from = to
	}
	out := &Frame{Series: f.Series}
	out.Candles = append([]Candle(nil), f.Candles[from:to]...)
	src := f.indicatorColumns()
	for i, col := range out.indicatorColumns() {
		vals := *src[i].values
		if len(vals) < to {
			*col.values = NaNs(to - from)
			continue
		}
		*col.values = append([]float64(nil), vals[from:to]...)
	}
	return out
}

// Tail returns a copy of the last n rows.
func (f *Frame) Tail(n int) *Frame {
	return f.Slice(f.Len()-n, f.Len())
}

// WithRows builds a frame sharing f's metadata from explicit candles and column values.
// Missing or mis-sized columns are filled with NaN.
func (f *Frame) WithRows(candles []Candle, values map[string][]float64) *Frame {
	out := &Frame{Series: f.Series}
	out.Candles = candles
	for _, col := range out.indicatorColumns() {
		if v, ok := values[col.name]; ok && len(v) == len(candles) {
			*col.values = v
		} else {
			*col.values = NaNs(len(candles))
		}
	}
	return out
}

// Row is one frame row flattened for classification, scoring and JSON output.
type Row struct {
	Candle
	Values map[string]float64
}

// Get returns the named indicator value, NaN when absent.
func (r Row) Get(name string) float64 {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return math.NaN()
}

// Row returns row i. Negative i counts from the end.
func (f *Frame) Row(i int) Row {
	if i < 0 {
		i += f.Len()
	}
	r := Row{Candle: f.Candles[i], Values: make(map[string]float64)}
	for _, col := range f.indicatorColumns() {
		vals := *col.values
		if i < len(vals) {
			r.Values[col.name] = vals[i]
		} else {
			r.Values[col.name] = math.NaN()
		}
	}
	return r
}

// Latest returns the last row.
func (f *Frame) Latest() Row { return f.Row(-1) }

// MarshalJSON renders NaN indicator values as null.
func (r Row) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"timestamp": r.Time.UnixMilli(),
		ColOpen:     r.Open,
		ColHigh:     r.High,
		ColLow:      r.Low,
		ColClose:    r.Close,
		ColVolume:   r.Volume,
	}
	if r.MarketCap != nil {
		out["market_cap"] = *r.MarketCap
	} else {
		out["market_cap"] = nil
	}
	for k, v := range r.Values {
		out[k] = Nullable(v)
	}
	return json.Marshal(out)
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Nullable maps non-finite values to nil for JSON output.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
