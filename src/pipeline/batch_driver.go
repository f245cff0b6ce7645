package pipeline

import (
	"context"
	"sort"
	"strconv"
	"time"

	"jpx-history/src/helpers"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/google/uuid"
)

// historyUpdater is the per-symbol step of a batch.
type historyUpdater interface {
	Fetch(ctx context.Context, code, market string) (models.MFetchResult, error)
}

// -----------------------------------------------------------------------------

// BatchDriver updates every master symbol in ascending code order, one at a
// time. A failing symbol is recorded and the batch moves on.
type BatchDriver struct {
	Store                interfaces.IStore
	Fetcher              historyUpdater
	Market               string
	MaxConsecutiveErrors int
	Events               interfaces.IEventSink // optional
	Logger               *logger.Logger
	Now                  func() time.Time
}

// -----------------------------------------------------------------------------

func NewBatchDriver(store interfaces.IStore, fetcher historyUpdater, market string, maxConsecutive int, log *logger.Logger) *BatchDriver {
	return &BatchDriver{
		Store:                store,
		Fetcher:              fetcher,
		Market:               market,
		MaxConsecutiveErrors: maxConsecutive,
		Logger:               log,
		Now:                  time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run executes one batch. The error is non-nil when the master cannot be
// loaded, the context was cancelled or the journal could not be written;
// per-symbol failures only show up in the summary.
func (d *BatchDriver) Run(ctx context.Context) (models.MBatchSummary, error) {
	summary := models.MBatchSummary{RunID: uuid.NewString(), StartedAt: d.Now()}

	// 1. Master codes, ascending whatever order the store keeps them in
	master, err := d.Store.LoadMaster()
	if err != nil {
		return summary, err
	}
	sort.SliceStable(master, func(i, j int) bool { return master[i].Code < master[j].Code })
	total := len(master)
	d.Logger.Info("batch %s: %d symbols", summary.RunID, total)
	d.publish(models.MProgressEvent{Type: "START", RunID: summary.RunID, Total: total})

	// 2. Sequential updates
	errs := helpers.NewErrorHandler(d.Logger, d.MaxConsecutiveErrors)
	var runErr error

	for i, sym := range master {
		if err := ctx.Err(); err != nil {
			d.Logger.Warning("batch %s cancelled after %d of %d symbols", summary.RunID, i, total)
			summary.Aborted = true
			runErr = err
			break
		}

		outcome, err := d.updateSymbol(ctx, sym.Code)
		summary.Add(outcome)
		d.publish(models.MProgressEvent{Type: "SYMBOL", RunID: summary.RunID, Index: i + 1, Total: total, Outcome: &outcome})

		if err == nil {
			errs.Success()
			continue
		}
		if errs.Handle(err, strconv.Itoa(sym.Code)) {
			d.Logger.Error("batch %s aborted after %d consecutive failures", summary.RunID, errs.ErrorCount)
			summary.Aborted = true
			break
		}
	}

	// 3. Journal
	summary.FinishedAt = d.Now()
	if err := d.Store.SaveBatchSummary(summary); err != nil {
		d.Logger.Error("batch %s: journal write failed: %v", summary.RunID, err)
		if runErr == nil {
			runErr = err
		}
	}

	d.Logger.Info("batch %s done: %d updated, %d skipped, %d failed (aborted: %v)",
		summary.RunID, summary.Updated, summary.Skipped, summary.Failed, summary.Aborted)
	d.publish(models.MProgressEvent{Type: "DONE", RunID: summary.RunID, Index: len(summary.Outcomes), Total: total, Summary: &summary})
	return summary, runErr
}

// -----------------------------------------------------------------------------

func (d *BatchDriver) updateSymbol(ctx context.Context, code int) (models.MSymbolOutcome, error) {
	start := time.Now()
	res, err := d.Fetcher.Fetch(ctx, strconv.Itoa(code), d.Market)

	outcome := models.MSymbolOutcome{
		Code:       code,
		Rows:       res.Rows,
		Added:      res.Added,
		Pages:      res.Pages,
		StopReason: res.StopReason,
		Duration:   time.Since(start),
	}
	switch {
	case err != nil:
		outcome.Status = models.OutcomeFailed
		outcome.Err = err.Error()
	case res.StopReason == models.StopFresh:
		outcome.Status = models.OutcomeSkipped
	default:
		outcome.Status = models.OutcomeUpdated
	}
	return outcome, err
}

func (d *BatchDriver) publish(ev models.MProgressEvent) {
	if d.Events == nil {
		return
	}
	ev.Timestamp = d.Now().UnixMilli()
	d.Events.Publish(ev)
}
