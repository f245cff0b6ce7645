package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningStats(t *testing.T) {
	s := DescribeReturns([]float64{2, 4, math.NaN(), 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Std(), 1e-12)
	assert.InDelta(t, 2.0, s.ZScore(9), 1e-12)

	var one RunningStats
	one.Add(3)
	assert.Zero(t, one.Std())
	assert.Zero(t, one.ZScore(10))
}

func TestComputeOHLCV(t *testing.T) {
	c := ComputeOHLCV(
		[]float64{10, 11, 12},
		[]float64{12, 15, 13},
		[]float64{9, 10, 8},
		[]float64{11, 12, 9},
		[]float64{100, math.NaN(), 50},
	)
	assert.Equal(t, OHLCV{Open: 10, High: 15, Low: 8, Close: 9, Volume: 150, HasVolume: true}, c)

	noVol := ComputeOHLCV([]float64{1}, []float64{1}, []float64{1}, []float64{1}, []float64{math.NaN()})
	assert.False(t, noVol.HasVolume)
}

func TestCalculateReturns(t *testing.T) {
	assert.Nil(t, CalculateReturns([]float64{100}))
	r := CalculateReturns([]float64{100, 110, 0, 5})
	assert.InDeltaSlice(t, []float64{0.1, -1, 0}, r, 1e-12)
}
