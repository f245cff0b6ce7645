package storage

import (
	"sort"
	"strconv"
	"time"

	"jpx-history/src/models"
)

// Row layouts shared by the columnar files and the SQL tables.

type historyRecord struct {
	Date   int64    `parquet:"date,timestamp(millisecond)"`
	Open   float64  `parquet:"open"`
	High   float64  `parquet:"high"`
	Low    float64  `parquet:"low"`
	Close  float64  `parquet:"close"`
	Volume *float64 `parquet:"volume,optional"`
}

type symbolRecord struct {
	Code      int64  `parquet:"code"`
	Name      string `parquet:"name"`
	Market    string `parquet:"market"`
	Type33    int64  `parquet:"type_33"`
	Type17    int64  `parquet:"type_17"`
	TypeScale int64  `parquet:"type_scale"`
}

type outcomeRecord struct {
	RunID      string `parquet:"run_id"`
	StartedAt  int64  `parquet:"started_at,timestamp(millisecond)"`
	FinishedAt int64  `parquet:"finished_at,timestamp(millisecond)"`
	Aborted    bool   `parquet:"aborted"`
	Code       int64  `parquet:"code"`
	Status     string `parquet:"status"`
	Rows       int64  `parquet:"rows"`
	Added      int64  `parquet:"added"`
	Pages      int64  `parquet:"pages"`
	StopReason string `parquet:"stop_reason"`
	Error      string `parquet:"error"`
	DurationMs int64  `parquet:"duration_ms"`
}

// -----------------------------------------------------------------------------

func toHistoryRecord(r models.MHistoryRow) historyRecord {
	return historyRecord{
		Date:   r.Date.UnixMilli(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

func fromHistoryRecord(r historyRecord) models.MHistoryRow {
	return models.MHistoryRow{
		Date:   time.UnixMilli(r.Date).In(models.Tokyo),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

// Unclassified values become sentinel integers only here, at the storage boundary.
func toSymbolRecord(s models.MSymbol) symbolRecord {
	return symbolRecord{
		Code:      int64(s.Code),
		Name:      s.Name,
		Market:    string(s.Market),
		Type33:    s.Sector33.Encode(models.Sector33Sentinel),
		Type17:    s.Sector17.Encode(models.Sector17Sentinel),
		TypeScale: s.ScaleClass.Encode(models.ScaleClassSentinel),
	}
}

func fromSymbolRecord(r symbolRecord) models.MSymbol {
	return models.MSymbol{
		Code:       int(r.Code),
		Name:       r.Name,
		Market:     models.Market(r.Market),
		Sector33:   models.DecodeClassification(r.Type33, models.Sector33Sentinel),
		Sector17:   models.DecodeClassification(r.Type17, models.Sector17Sentinel),
		ScaleClass: models.DecodeClassification(r.TypeScale, models.ScaleClassSentinel),
	}
}

func toOutcomeRecords(s models.MBatchSummary) []outcomeRecord {
	records := make([]outcomeRecord, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		records = append(records, outcomeRecord{
			RunID:      s.RunID,
			StartedAt:  s.StartedAt.UnixMilli(),
			FinishedAt: s.FinishedAt.UnixMilli(),
			Aborted:    s.Aborted,
			Code:       int64(o.Code),
			Status:     string(o.Status),
			Rows:       int64(o.Rows),
			Added:      int64(o.Added),
			Pages:      int64(o.Pages),
			StopReason: string(o.StopReason),
			Error:      o.Err,
			DurationMs: o.Duration.Milliseconds(),
		})
	}
	return records
}

// -----------------------------------------------------------------------------

// sortCodes orders numeric codes numerically and everything else lexically after them.
func sortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool {
		a, errA := strconv.Atoi(codes[i])
		b, errB := strconv.Atoi(codes[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return codes[i] < codes[j]
	})
}
