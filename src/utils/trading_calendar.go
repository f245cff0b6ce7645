package utils

import (
	"strings"
	"time"

	"jpx-history/src/models"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions for one exchange.
type TradingCalendar struct {
	MIC      string
	Timezone *time.Location

	// businessDay is scmhub's holiday table, or Mon-Fri when the MIC is unknown to it.
	businessDay func(time.Time) bool
}

// -----------------------------------------------------------------------------

// MICForMarket maps a quote-page market suffix to a MIC. All Japanese venues
// (T, O, N, S, F) follow the Tokyo holiday schedule; ok is false for anything else.
func MICForMarket(market string) (mic string, ok bool) {
	switch strings.ToUpper(market) {
	case "", "T", "O", "N", "S", "F":
		return MICTokyo, true
	}
	return MICTokyo, false
}

// GetCalendar returns the calendar for a market suffix, Tokyo when unknown.
func GetCalendar(market string) *TradingCalendar {
	mic, _ := MICForMarket(market)
	return NewTradingCalendar(mic)
}

// NewTradingCalendar loads mic from scmhub/calendar, falling back to weekdays
// in Asia/Tokyo.
func NewTradingCalendar(mic string) *TradingCalendar {
	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{MIC: mic, Timezone: cal.Loc, businessDay: cal.IsBusinessDay}
	}
	return &TradingCalendar{MIC: mic, Timezone: models.Tokyo, businessDay: isWeekday}
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// -----------------------------------------------------------------------------

// IsTradingDay evaluates date on the exchange's local calendar day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	return tc.businessDay(date.In(tc.location()))
}

// LastSession returns the date (midnight, calendar timezone) of the most recent
// session whose daily row is complete at now.
func (tc *TradingCalendar) LastSession(now time.Time) time.Time {
	loc := tc.location()
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if tc.IsTradingDay(day) && !now.Before(sessionClose(now, loc)) {
		return day
	}

	for i := 1; i <= maxLookbackDays; i++ {
		prev := day.AddDate(0, 0, -i)
		if tc.IsTradingDay(prev) {
			return prev
		}
	}
	return day.AddDate(0, 0, -1)
}

func (tc *TradingCalendar) location() *time.Location {
	if tc.Timezone == nil {
		return models.Tokyo
	}
	return tc.Timezone
}
