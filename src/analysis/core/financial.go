package core

import "math"

// -----------------------------------------------------------------------------

// OHLCV is one aggregated candle.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	HasVolume bool
}

// ComputeOHLCV folds consecutive candles (oldest first) into one. volumes may
// hold NaN for candles without volume.
func ComputeOHLCV(opens, highs, lows, closes, volumes []float64) OHLCV {
	if len(closes) == 0 {
		return OHLCV{}
	}

	out := OHLCV{
		Open:  opens[0],
		Close: closes[len(closes)-1],
		High:  -math.MaxFloat64,
		Low:   math.MaxFloat64,
	}

	for i := range closes {
		if highs[i] > out.High {
			out.High = highs[i]
		}
		if lows[i] < out.Low {
			out.Low = lows[i]
		}
		if i < len(volumes) && !math.IsNaN(volumes[i]) {
			out.Volume += volumes[i]
			out.HasVolume = true
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates percentage change.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}

// -----------------------------------------------------------------------------

// CalculateReturns returns close-to-close changes; one shorter than closes.
func CalculateReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = CalculateChangePercent(closes[i], closes[i-1])
	}
	return out
}
