package model

// Regime is the trend label of the latest bar.
type Regime string

const (
	RegimeUptrend   Regime = "uptrend"
	RegimeDowntrend Regime = "downtrend"
	RegimeRange     Regime = "range"
)

// RSIState buckets the latest RSI reading.
type RSIState string

const (
	RSIOverbought RSIState = "overbought"
	RSIOversold   RSIState = "oversold"
	RSINeutral    RSIState = "neutral"
)

// MACDCross reports a histogram sign flip between the last two bars.
type MACDCross string

const (
	CrossBull MACDCross = "bull"
	CrossBear MACDCross = "bear"
	CrossNone MACDCross = "none"
)

// RegimeSignals are the discrete labels derived from the latest row.
type RegimeSignals struct {
	Regime      Regime    `json:"regime"`
	Breakout    bool      `json:"breakout"`
	Breakdown   bool      `json:"breakdown"`
	Squeeze     bool      `json:"squeeze"`
	VolumeSpike bool      `json:"volume_spike"`
	RSIState    RSIState  `json:"rsi_state"`
	MACDCross   MACDCross `json:"macd_cross"`
}

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary,omitempty"`
}

// Probabilities is the up/flat/down triple in whole percent; the fields always sum to 100.
type Probabilities struct {
	Up   int `json:"up"`
	Flat int `json:"flat"`
	Down int `json:"down"`
}

// CompositeScore is the scorer output.
type CompositeScore struct {
	Momentum          float64       `json:"momentum"`
	Trend             float64       `json:"trend"`
	Structure         float64       `json:"structure"`
	Liquidity         float64       `json:"liquidity"`
	VolatilityPenalty float64       `json:"volatility_penalty"`
	Bias              float64       `json:"bias"`
	Confidence        float64       `json:"confidence"`
	TiltLabel         string        `json:"tilt_label"`
	Probabilities     Probabilities `json:"probabilities"`
	Factors           []FactorScore `json:"factors"`
}
