package models

import "time"

type OutcomeStatus string

const (
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// MSymbolOutcome is the batch result for one symbol.
type MSymbolOutcome struct {
	Code       int           `json:"code"`
	Status     OutcomeStatus `json:"status"`
	Rows       int           `json:"rows"`
	Added      int           `json:"added"`
	Pages      int           `json:"pages"`
	StopReason StopReason    `json:"stop_reason,omitempty"`
	Err        string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// MBatchSummary aggregates the outcomes of one batch run.
type MBatchSummary struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcomes   []MSymbolOutcome `json:"outcomes,omitempty"`
	Updated    int              `json:"updated"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	Aborted    bool             `json:"aborted"`
}

// Add records an outcome and updates the counters.
func (s *MBatchSummary) Add(o MSymbolOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// -----------------------------------------------------------------------------

// MProgressEvent is pushed to event sinks while a batch runs.
type MProgressEvent struct {
	Type      string          `json:"type"` // "START", "SYMBOL" or "DONE"
	RunID     string          `json:"run_id"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Outcome   *MSymbolOutcome `json:"outcome,omitempty"`
	Summary   *MBatchSummary  `json:"summary,omitempty"`
	Timestamp int64           `json:"timestamp"`
}
