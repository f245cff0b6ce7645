package models

import "time"

// DateLayout is the canonical date rendering used in URLs, config and the API.
const DateLayout = "2006-01-02"

// MHistoryRow is one trading day of a symbol's daily price series.
type MHistoryRow struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *float64  `json:"volume,omitempty"` // nil when the page carries no volume column
}

// StopReason records why the page loop of a history fetch ended.
type StopReason string

const (
	StopNoMoreData        StopReason = "no-more-data"
	StopDuplicateBoundary StopReason = "duplicate-boundary"
	StopPageLimit         StopReason = "page-limit"
	StopFresh             StopReason = "fresh"
)

// MFetchResult summarizes one symbol's fetch-merge-save cycle.
type MFetchResult struct {
	Code       string     `json:"code"`
	Rows       int        `json:"rows"`
	Added      int        `json:"added"`
	Pages      int        `json:"pages"`
	StopReason StopReason `json:"stop_reason"`
}

// Tokyo is the exchange timezone; all history dates are midnight in it.
var Tokyo = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}()

// MHistorySummary describes a stored series for the read API.
type MHistorySummary struct {
	Code          string  `json:"code"`
	Count         int     `json:"count"`
	FirstDate     string  `json:"first_date,omitempty"`
	LastDate      string  `json:"last_date,omitempty"`
	LastClose     float64 `json:"last_close"`
	ChangePercent float64 `json:"change_percent"` // last close vs previous close
	MeanReturn    float64 `json:"mean_return"`    // daily close-to-close
	StdReturn     float64 `json:"std_return"`
	LastReturnZ   float64 `json:"last_return_z"`
}
