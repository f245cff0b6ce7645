package core

import "math"

// -----------------------------------------------------------------------------

// RunningStats accumulates a series in one pass (Welford). NaN inputs are ignored.
type RunningStats struct {
	N    int
	Mean float64
	m2   float64
}

func (s *RunningStats) Add(x float64) {
	if math.IsNaN(x) {
		return
	}
	s.N++
	delta := x - s.Mean
	s.Mean += delta / float64(s.N)
	s.m2 += delta * (x - s.Mean)
}

// Std is the population standard deviation; zero below two observations.
func (s *RunningStats) Std() float64 {
	if s.N < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.N))
}

// ZScore of x against the accumulated series, zero when it has no spread.
func (s *RunningStats) ZScore(x float64) float64 {
	std := s.Std()
	if std == 0 {
		return 0
	}
	return (x - s.Mean) / std
}

// -----------------------------------------------------------------------------

// DescribeReturns summarizes a return series.
func DescribeReturns(returns []float64) RunningStats {
	var s RunningStats
	for _, r := range returns {
		s.Add(r)
	}
	return s
}
