package strategy

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func frameFromCloses(t *testing.T, closes []float64, volume float64) *model.Frame {
	t.Helper()
	s := model.Series{Symbol: "TEST", Source: "test"}
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		s.Candles = append(s.Candles, model.Candle{
			Time: t0.Add(time.Duration(i) * 24 * time.Hour),
			Open: open, High: math.Max(open, c) * 1.001, Low: math.Min(open, c) * 0.999, Close: c, Volume: volume,
		})
	}
	f, err := calculator.Compute(s)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return f
}

func TestMapTilt(t *testing.T) {
	tests := []struct {
		bias float64
		want string
	}{
		{0, "flat"},
		{0.049, "flat"},
		{-0.049, "flat"},
		{0.05, "slight up"},
		{-0.05, "slight down"},
		{0.15, "up"},
		{-0.2, "down"},
		{0.3, "strong up"},
		{-1, "strong down"},
	}
	for _, tt := range tests {
		if got := mapTilt(tt.bias); got != tt.want {
			t.Errorf("mapTilt(%v) = %q, want %q", tt.bias, got, tt.want)
		}
	}
}

func TestMapTilt_MonotonicSymmetric(t *testing.T) {
	rank := make(map[string]int, len(TiltLabels))
	for i, l := range TiltLabels {
		rank[l] = i
	}
	prev := -1
	for b := -1.0; b <= 1.0; b += 0.01 {
		r, ok := rank[mapTilt(b)]
		if !ok {
			t.Fatalf("unknown label %q", mapTilt(b))
		}
		if r < prev {
			t.Fatalf("tilt not monotonic at %v", b)
		}
		prev = r
		if mirror := rank[mapTilt(-b)]; mirror != len(TiltLabels)-1-r {
			t.Fatalf("tilt not symmetric at %v", b)
		}
	}
}

func TestProbabilities_SumTo100(t *testing.T) {
	for b := -1.0; b <= 1.0; b += 0.05 {
		for p := 0.0; p <= 1.0; p += 0.1 {
			pr := probabilities(b, p)
			if pr.Up+pr.Flat+pr.Down != 100 {
				t.Fatalf("bias %v penalty %v: %+v", b, p, pr)
			}
			if pr.Up < 0 || pr.Flat < 0 || pr.Down < 0 {
				t.Fatalf("negative bucket: %+v", pr)
			}
		}
	}
}

func TestProbabilities_Neutral(t *testing.T) {
	pr := probabilities(0, 0)
	if pr.Up != 33 || pr.Flat != 34 || pr.Down != 33 {
		t.Errorf("neutral = %+v, want 33/34/33", pr)
	}
	if calm, wild := probabilities(0.2, 0), probabilities(0.2, 1); wild.Flat <= calm.Flat {
		t.Errorf("volatility should widen flat: calm %+v wild %+v", calm, wild)
	}
	if pr := probabilities(0.5, 0); pr.Up <= pr.Down {
		t.Errorf("positive bias should favor up: %+v", pr)
	}
}

func TestScore_FlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50
	}
	s := model.Series{Symbol: "FLAT"}
	for i, c := range closes {
		s.Candles = append(s.Candles, model.Candle{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c})
	}
	f, err := calculator.Compute(s)
	if err != nil {
		t.Fatal(err)
	}
	latest := f.Latest()
	sig := Classify(latest, f)
	cs := Score(latest, sig, f)
	if math.Abs(cs.Bias) > 1e-9 {
		t.Errorf("bias = %v, want 0", cs.Bias)
	}
	if cs.TiltLabel != "flat" {
		t.Errorf("tilt = %q, want flat", cs.TiltLabel)
	}
	if cs.Probabilities != (model.Probabilities{Up: 33, Flat: 34, Down: 33}) {
		t.Errorf("probabilities = %+v", cs.Probabilities)
	}
	if cs.Confidence < 0 || cs.Confidence > 10 {
		t.Errorf("confidence = %v, want low", cs.Confidence)
	}
	if sig.Regime != model.RegimeRange || sig.RSIState != model.RSINeutral || sig.Squeeze {
		t.Errorf("signals = %+v", sig)
	}
}

func TestClassify_LinearRiseIsRange(t *testing.T) {
	f := frameFromCloses(t, linearCloses(30, 100, 130), 1000)
	sig := Classify(f.Latest(), f)
	if sig.Regime != model.RegimeRange {
		t.Errorf("regime = %s, want range without ema200", sig.Regime)
	}
	if sig.RSIState != model.RSIOverbought {
		t.Errorf("rsi state = %s, want overbought", sig.RSIState)
	}
}

func TestClassify_LinearFallIsOversold(t *testing.T) {
	f := frameFromCloses(t, linearCloses(30, 130, 100), 1000)
	sig := Classify(f.Latest(), f)
	if sig.Regime != model.RegimeRange {
		t.Errorf("regime = %s, want range without ema200", sig.Regime)
	}
	if sig.RSIState != model.RSIOversold {
		t.Errorf("rsi state = %s, want oversold", sig.RSIState)
	}
	if r := f.Latest().Get(model.ColRSI); r > RSIOversold {
		t.Errorf("rsi = %v, want <= %v", r, RSIOversold)
	}
}

func TestClassify_Uptrend(t *testing.T) {
	f := frameFromCloses(t, linearCloses(260, 100, 300), 1000)
	sig := Classify(f.Latest(), f)
	if sig.Regime != model.RegimeUptrend {
		t.Errorf("regime = %s, want uptrend", sig.Regime)
	}
	cs := Score(f.Latest(), sig, f)
	if cs.Bias <= 0 || !strings.HasSuffix(cs.TiltLabel, "up") {
		t.Errorf("bias = %v tilt = %q, want bullish", cs.Bias, cs.TiltLabel)
	}

	down := frameFromCloses(t, linearCloses(260, 300, 100), 1000)
	if sig := Classify(down.Latest(), down); sig.Regime != model.RegimeDowntrend {
		t.Errorf("regime = %s, want downtrend", sig.Regime)
	}
}

func TestClassify_Squeeze(t *testing.T) {
	closes := make([]float64, 90)
	for i := range closes {
		switch {
		case i < 65 && i%2 == 0:
			closes[i] = 105
		case i < 65:
			closes[i] = 95
		case i%2 == 0:
			closes[i] = 100.01
		default:
			closes[i] = 99.99
		}
	}
	f := frameFromCloses(t, closes, 1000)
	if sig := Classify(f.Latest(), f); !sig.Squeeze {
		t.Errorf("squeeze = false, want true (width %v)", f.Latest().Get(model.ColBBWidth))
	}

	loud := append([]float64(nil), closes...)
	for i := 65; i < 90; i++ {
		loud[i] = 90
		if i%2 == 0 {
			loud[i] = 110
		}
	}
	f = frameFromCloses(t, loud, 1000)
	if sig := Classify(f.Latest(), f); sig.Squeeze {
		t.Error("squeeze = true for a volatile tail")
	}

	short := frameFromCloses(t, closes[40:], 1000)
	if sig := Classify(short.Latest(), short); sig.Squeeze {
		t.Error("squeeze needs at least 60 samples")
	}
}

func TestClassify_BreakoutAndCross(t *testing.T) {
	s := model.Series{Candles: []model.Candle{
		{Time: t0, Close: 99},
		{Time: t0.Add(time.Hour), Close: 101},
	}}
	f := model.NewFrame(s)
	f.MACDHist = []float64{-0.5, 0.2}
	f.High20 = []float64{100, 100}
	f.Low20 = []float64{90, 90}
	f.VolZ = []float64{0, 2.5}
	sig := Classify(f.Latest(), f)
	if !sig.Breakout || sig.Breakdown {
		t.Errorf("breakout/breakdown = %v/%v", sig.Breakout, sig.Breakdown)
	}
	if sig.MACDCross != model.CrossBull {
		t.Errorf("cross = %s, want bull", sig.MACDCross)
	}
	if !sig.VolumeSpike {
		t.Error("volume spike not flagged")
	}

	f.Candles[1].Close = 100.4
	f.MACDHist = []float64{0.3, -0.1}
	sig = Classify(f.Latest(), f)
	if sig.Breakout {
		t.Error("close inside the 0.5% buffer is not a breakout")
	}
	if sig.MACDCross != model.CrossBear {
		t.Errorf("cross = %s, want bear", sig.MACDCross)
	}

	f.MACDHist = []float64{math.NaN(), 0.1}
	if sig := Classify(f.Latest(), f); sig.MACDCross != model.CrossNone {
		t.Errorf("cross with null history = %s", sig.MACDCross)
	}
}

func TestScore_Bounded(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		closes := make([]float64, 120)
		p := 100.0
		for i := range closes {
			p *= 1 + (r.Float64()-0.5)*0.1
			closes[i] = p
		}
		f := frameFromCloses(t, closes, 100+r.Float64()*100)
		latest := f.Latest()
		cs := Score(latest, Classify(latest, f), f)
		if cs.Bias < -1 || cs.Bias > 1 {
			t.Fatalf("bias = %v", cs.Bias)
		}
		if cs.Confidence < 0 || cs.Confidence > 100 {
			t.Fatalf("confidence = %v", cs.Confidence)
		}
		if pr := cs.Probabilities; pr.Up+pr.Flat+pr.Down != 100 {
			t.Fatalf("probabilities = %+v", pr)
		}
		if len(cs.Factors) != 5 {
			t.Fatalf("factors = %d", len(cs.Factors))
		}
	}
}

func TestPercentile(t *testing.T) {
	vals := []float64{5, 1, 4, 2, 3}
	if p := percentile(vals, 20); math.Abs(p-1.8) > 1e-12 {
		t.Errorf("p20 = %v, want 1.8", p)
	}
	if p := percentile(vals, 100); p != 5 {
		t.Errorf("p100 = %v", p)
	}
}

func linearCloses(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}
