package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"jpx-history/src/analysis/core"
	"jpx-history/src/models"
)

// Timeframe selects the candle period of a resampled series.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "d"
	TimeframeWeekly  Timeframe = "w"
	TimeframeMonthly Timeframe = "m"
)

func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(strings.ToLower(s)) {
	case "", TimeframeDaily:
		return TimeframeDaily, nil
	case TimeframeWeekly:
		return TimeframeWeekly, nil
	case TimeframeMonthly:
		return TimeframeMonthly, nil
	}
	return "", fmt.Errorf("unknown timeframe %q (want d, w or m)", s)
}

// -----------------------------------------------------------------------------

// TimeSeriesResampler groups daily rows into calendar periods.
type TimeSeriesResampler struct{}

// periodGroup is one window of consecutive row indices.
type periodGroup struct {
	Indices []int
	Start   time.Time
}

// -----------------------------------------------------------------------------

// PeriodStart returns the first calendar day of the period containing t.
// Weeks start on Monday.
func PeriodStart(t time.Time, tf Timeframe) time.Time {
	t = t.In(models.Tokyo)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, models.Tokyo)
	switch tf {
	case TimeframeWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case TimeframeMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, models.Tokyo)
	}
	return day
}

// ResampleIndices walks rows (ascending by date) and returns one index group
// per period.
func (r *TimeSeriesResampler) ResampleIndices(rows []models.MHistoryRow, tf Timeframe) []periodGroup {
	var groups []periodGroup
	for i, row := range rows {
		start := PeriodStart(row.Date, tf)
		if n := len(groups); n > 0 && groups[n-1].Start.Equal(start) {
			groups[n-1].Indices = append(groups[n-1].Indices, i)
			continue
		}
		groups = append(groups, periodGroup{Indices: []int{i}, Start: start})
	}
	return groups
}

// -----------------------------------------------------------------------------

// Resample aggregates rows into one candle per period, dated by the last
// trading day inside it. Daily input is returned unchanged.
func (r *TimeSeriesResampler) Resample(rows []models.MHistoryRow, tf Timeframe) []models.MHistoryRow {
	if tf == TimeframeDaily || len(rows) == 0 {
		return rows
	}

	groups := r.ResampleIndices(rows, tf)
	out := make([]models.MHistoryRow, 0, len(groups))

	for _, g := range groups {
		n := len(g.Indices)
		opens := make([]float64, n)
		highs := make([]float64, n)
		lows := make([]float64, n)
		closes := make([]float64, n)
		volumes := make([]float64, n)

		for i, idx := range g.Indices {
			row := rows[idx]
			opens[i], highs[i], lows[i], closes[i] = row.Open, row.High, row.Low, row.Close
			volumes[i] = math.NaN()
			if row.Volume != nil {
				volumes[i] = *row.Volume
			}
		}

		c := core.ComputeOHLCV(opens, highs, lows, closes, volumes)
		candle := models.MHistoryRow{
			Date:  rows[g.Indices[n-1]].Date,
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		}
		if c.HasVolume {
			v := c.Volume
			candle.Volume = &v
		}
		out = append(out, candle)
	}
	return out
}
