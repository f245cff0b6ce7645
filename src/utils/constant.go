package utils

import "time"

// -----------------------------------------------------------------------------

// MIC codes (ISO 10383) of the calendars this module uses.
const (
	MICTokyo = "xtks"
)

// Closing time of the Tokyo cash session in local time. A session's daily
// row is complete only after this.
const (
	SessionCloseHour   = 15
	SessionCloseMinute = 30
)

// maxLookbackDays bounds the search for a previous session across long
// holiday runs such as New Year.
const maxLookbackDays = 15

// -----------------------------------------------------------------------------

// sessionClose returns the close time on the calendar day of t, in loc.
func sessionClose(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), SessionCloseHour, SessionCloseMinute, 0, 0, loc)
}
