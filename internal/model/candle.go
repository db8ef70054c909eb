package model

import "time"

// Candle represents a single OHLCV bar in UTC.
type Candle struct {
	Time      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	MarketCap *float64 // nil when the provider has no cap data
}

// Series holds a normalized candle sequence for one symbol or chain address.
// Candles are strictly increasing in time with finite, positive closes.
type Series struct {
	Symbol  string
	Source  string
	Candles []Candle
	// Synthetic is set when open/high/low were derived from closes, so the
	// series carries no true intrabar range.
	Synthetic bool
	Pair      *PairInfo
}

// Len returns the number of candles.
func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle. It panics on an empty series.
func (s Series) Last() Candle { return s.Candles[len(s.Candles)-1] }

func (s Series) Opens() []float64   { return s.column(func(c Candle) float64 { return c.Open }) }
func (s Series) Highs() []float64   { return s.column(func(c Candle) float64 { return c.High }) }
func (s Series) Lows() []float64    { return s.column(func(c Candle) float64 { return c.Low }) }
func (s Series) Closes() []float64  { return s.column(func(c Candle) float64 { return c.Close }) }
func (s Series) Volumes() []float64 { return s.column(func(c Candle) float64 { return c.Volume }) }

func (s Series) column(get func(Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = get(c)
	}
	return out
}

// PriceChange holds the trailing percentage changes a DEX pair snapshot reports.
type PriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PairInfo is the point-in-time DEX pair data carried next to a series.
type PairInfo struct {
	ChainID      string      `json:"chain_id,omitempty"`
	PairAddress  string      `json:"pair_address,omitempty"`
	BaseSymbol   string      `json:"base_symbol,omitempty"`
	PriceUSD     float64     `json:"price_usd"`
	LiquidityUSD float64     `json:"liquidity_usd"`
	Volume24h    float64     `json:"volume_24h"`
	FDV          float64     `json:"fdv"`
	MarketCap    float64     `json:"market_cap"`
	PriceChange  PriceChange `json:"price_change"`
}
