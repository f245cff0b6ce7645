package pipeline

import (
	"context"
	"sort"
	"time"

	"jpx-history/src/config"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// sessionProvider is implemented by sources that know the newest session they
// can serve.
type sessionProvider interface {
	LatestSession(market string) time.Time
}

// -----------------------------------------------------------------------------

// HistoryFetcher runs the page-merge loop for one symbol:
//
//	load -> FETCHING(page) -> MERGING -> ... -> sort -> range filter -> save
//
// Any fetch or parse error aborts the cycle before anything is written.
type HistoryFetcher struct {
	Store      interfaces.IStore
	Source     interfaces.IHistorySource
	MaxPages   int
	LowerBound func(now time.Time) (time.Time, bool)
	SkipFresh  bool
	Now        func() time.Time
	Logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewHistoryFetcher(cfg *config.Config, store interfaces.IStore, src interfaces.IHistorySource, log *logger.Logger) *HistoryFetcher {
	return &HistoryFetcher{
		Store:      store,
		Source:     src,
		MaxPages:   cfg.History.MaxPages,
		LowerBound: cfg.HistoryLowerBound,
		SkipFresh:  cfg.History.SkipFresh,
		Now:        time.Now,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// Fetch brings the stored series of code up to date.
func (f *HistoryFetcher) Fetch(ctx context.Context, code, market string) (models.MFetchResult, error) {
	result := models.MFetchResult{Code: code}

	// 1. Existing series
	local, found, err := f.Store.LoadHistory(code)
	if err != nil {
		return result, err
	}

	if f.isFresh(local, market) {
		result.Rows = len(local)
		result.StopReason = models.StopFresh
		f.Logger.Info("%s.%s already holds the latest session, skipped", code, market)
		return result, nil
	}

	// 2. Page loop
	series := newDateSeries(local)
	first := !found
	result.StopReason = models.StopPageLimit

	for page := 1; page <= f.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rows, ok, err := f.Source.FetchPage(ctx, code, market, page)
		if err != nil {
			return result, err
		}
		if !ok {
			result.StopReason = models.StopNoMoreData
			break
		}
		result.Pages++

		if first {
			series.appendAll(rows)
			first = false
			continue
		}
		if series.merge(rows) {
			result.StopReason = models.StopDuplicateBoundary
			break
		}
	}

	// 3. Ascending dates
	merged := series.sorted()

	// 4. Optional lower bound
	if bound, ok := f.LowerBound(f.Now()); ok {
		merged = dropBefore(merged, bound)
	}

	result.Rows = len(merged)
	result.Added = countNew(merged, local)

	if !found && len(merged) == 0 {
		f.Logger.Warning("%s.%s: no rows fetched, nothing saved", code, market)
		return result, nil
	}

	// 5. Full overwrite
	if err := f.Store.SaveHistory(code, merged); err != nil {
		return result, err
	}

	f.Logger.Info("%s.%s: %d rows (+%d) in %d pages, stop: %s",
		code, market, result.Rows, result.Added, result.Pages, result.StopReason)
	return result, nil
}

// -----------------------------------------------------------------------------

func (f *HistoryFetcher) isFresh(local []models.MHistoryRow, market string) bool {
	if !f.SkipFresh || len(local) == 0 {
		return false
	}
	sp, ok := f.Source.(sessionProvider)
	if !ok {
		return false
	}

	latest := dateKey(sp.LatestSession(market))
	for _, r := range local {
		if dateKey(r.Date) >= latest {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// dateSeries is a running series unique by calendar date. On a clash the row
// already held wins.
type dateSeries struct {
	rows []models.MHistoryRow
	seen map[string]struct{}
}

func newDateSeries(local []models.MHistoryRow) *dateSeries {
	s := &dateSeries{seen: make(map[string]struct{}, len(local))}
	s.appendAll(local)
	return s
}

func (s *dateSeries) appendAll(rows []models.MHistoryRow) {
	s.merge(rows)
}

// merge appends rows and reports whether any of them was a duplicate date.
func (s *dateSeries) merge(rows []models.MHistoryRow) bool {
	dup := false
	for _, r := range rows {
		k := dateKey(r.Date)
		if _, held := s.seen[k]; held {
			dup = true
			continue
		}
		s.seen[k] = struct{}{}
		s.rows = append(s.rows, r)
	}
	return dup
}

func (s *dateSeries) sorted() []models.MHistoryRow {
	out := make([]models.MHistoryRow, len(s.rows))
	copy(out, s.rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// -----------------------------------------------------------------------------

// dateKey renders the Tokyo calendar date, e.g. 2024-06-14.
func dateKey(t time.Time) string {
	return t.In(models.Tokyo).Format(models.DateLayout)
}

func dropBefore(rows []models.MHistoryRow, bound time.Time) []models.MHistoryRow {
	limit := dateKey(bound)
	out := rows[:0:0]
	for _, r := range rows {
		if dateKey(r.Date) >= limit {
			out = append(out, r)
		}
	}
	return out
}

func countNew(rows, local []models.MHistoryRow) int {
	held := make(map[string]struct{}, len(local))
	for _, r := range local {
		held[dateKey(r.Date)] = struct{}{}
	}
	n := 0
	for _, r := range rows {
		if _, ok := held[dateKey(r.Date)]; !ok {
			n++
		}
	}
	return n
}
