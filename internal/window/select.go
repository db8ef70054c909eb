package window

import (
	"math"
	"time"

	"MarketLens/internal/model"
)

// Select slices f to the trailing lookback and resamples it to the
// lookback's bucket width. An empty window yields an empty frame.
func Select(f *model.Frame, key string) (*model.Frame, error) {
	lb, err := ParseLookback(key)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Len() == 0 {
		return emptyLike(f), nil
	}

	slice := f
	if lb.Duration > 0 {
		slice = Since(f, f.Last().Time.Add(-lb.Duration))
	}
	if slice.Len() == 0 {
		return slice, nil
	}

	bucket := lb.Bucket
	if bucket == 0 {
		bucket = bucketForSpan(slice.Last().Time.Sub(slice.Candles[0].Time))
	}
	return Resample(slice, bucket), nil
}

// Since returns the rows with time >= from.
func Since(f *model.Frame, from time.Time) *model.Frame {
	start := f.Len()
	for i, c := range f.Candles {
		if !c.Time.Before(from) {
			start = i
			break
		}
	}
	return f.Tail(f.Len() - start)
}

func emptyLike(f *model.Frame) *model.Frame {
	if f == nil {
		return model.NewFrame(model.Series{})
	}
	return f.Slice(0, 0)
}

// Resample aggregates rows into buckets aligned to bucket width in UTC:
// open first, high max, low min, close last, volume sum, market cap last.
// Indicator columns take the last row of each bucket. Empty buckets between
// data are filled with a flat candle at the previous close, zero volume and
// null indicators.
func Resample(f *model.Frame, bucket time.Duration) *model.Frame {
	if f.Len() == 0 || bucket <= 0 {
		return f.Slice(0, f.Len())
	}
	names := model.IndicatorNames()
	src := make([][]float64, len(names))
	for i, name := range names {
		src[i], _ = f.Column(name)
	}

	first := f.Candles[0].Time.Truncate(bucket)
	last := f.Last().Time.Truncate(bucket)
	count := int(last.Sub(first)/bucket) + 1

	candles := make([]model.Candle, 0, count)
	values := make([][]float64, len(names))
	for i := range values {
		values[i] = make([]float64, 0, count)
	}

	row := 0
	for b := 0; b < count; b++ {
		start := first.Add(time.Duration(b) * bucket)
		end := start.Add(bucket)
		from := row
		for row < f.Len() && f.Candles[row].Time.Before(end) {
			row++
		}

		if from == row {
			prev := candles[len(candles)-1]
			candles = append(candles, model.Candle{
				Time: start, Open: prev.Close, High: prev.Close, Low: prev.Close, Close: prev.Close,
				MarketCap: prev.MarketCap,
			})
			for i := range values {
				values[i] = append(values[i], math.NaN())
			}
			continue
		}

		agg := f.Candles[from]
		agg.Time = start
		for _, c := range f.Candles[from+1 : row] {
			agg.High = math.Max(agg.High, c.High)
			agg.Low = math.Min(agg.Low, c.Low)
			agg.Close = c.Close
			agg.Volume += c.Volume
			if c.MarketCap != nil {
				agg.MarketCap = c.MarketCap
			}
		}
		candles = append(candles, agg)
		for i := range values {
			values[i] = append(values[i], src[i][row-1])
		}
	}

	cols := make(map[string][]float64, len(names))
	for i, name := range names {
		cols[name] = values[i]
	}
	return f.WithRows(candles, cols)
}
