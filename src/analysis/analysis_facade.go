package analysis

import (
	"sort"
	"time"

	"jpx-history/src/analysis/core"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// AnalysisFacade is the read-side entry point over stored series.
type AnalysisFacade struct {
	Resampler *TimeSeriesResampler
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Resampler: &TimeSeriesResampler{},
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Window keeps rows with from <= date <= to; a zero bound is open. Calendar
// dates are compared in Tokyo time.
func (a *AnalysisFacade) Window(rows []models.MHistoryRow, from, to time.Time) []models.MHistoryRow {
	lo := sort.Search(len(rows), func(i int) bool {
		return from.IsZero() || !rows[i].Date.Before(from)
	})
	hi := len(rows)
	if !to.IsZero() {
		hi = sort.Search(len(rows), func(i int) bool {
			return rows[i].Date.After(to)
		})
	}
	if lo >= hi {
		return []models.MHistoryRow{}
	}
	return rows[lo:hi]
}

// Resample converts daily rows into tf candles.
func (a *AnalysisFacade) Resample(rows []models.MHistoryRow, tf Timeframe) []models.MHistoryRow {
	return a.Resampler.Resample(rows, tf)
}

// -----------------------------------------------------------------------------

// Summarize computes headline figures of a series sorted by date.
func (a *AnalysisFacade) Summarize(code string, rows []models.MHistoryRow) models.MHistorySummary {
	summary := models.MHistorySummary{Code: code, Count: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	// 1. Range
	last := rows[len(rows)-1]
	summary.FirstDate = rows[0].Date.In(models.Tokyo).Format(models.DateLayout)
	summary.LastDate = last.Date.In(models.Tokyo).Format(models.DateLayout)
	summary.LastClose = last.Close

	// 2. Daily returns
	closes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
	}
	returns := core.CalculateReturns(closes)
	if len(returns) == 0 {
		return summary
	}

	summary.ChangePercent = returns[len(returns)-1]
	stats := core.DescribeReturns(returns)
	summary.MeanReturn, summary.StdReturn = stats.Mean, stats.Std()
	summary.LastReturnZ = stats.ZScore(summary.ChangePercent)

	a.Logger.Debug("%s: %d rows, mean return %.5f", code, summary.Count, summary.MeanReturn)
	return summary
}
