package utils

import (
	"context"
	"sync"
	"time"

	"jpx-history/src/logger"

	"github.com/robfig/cron/v3"
)

// MarketScheduler runs cron jobs in exchange-local time and skips firings
// that land on non-trading days.
type MarketScheduler struct {
	Calendar *TradingCalendar
	Cron     *cron.Cron
	Logger   *logger.Logger
	Now      func() time.Time
	mu       sync.RWMutex
	entries  []cron.EntryID
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(cal *TradingCalendar, l *logger.Logger) *MarketScheduler {
	loc := cal.Timezone
	if loc == nil {
		loc = time.UTC
	}
	return &MarketScheduler{
		Calendar: cal,
		Cron:     cron.New(cron.WithLocation(loc)),
		Logger:   l,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// AddTradingDayJob registers job under a standard 5-field cron spec.
func (ms *MarketScheduler) AddTradingDayJob(spec string, name string, job func()) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	id, err := ms.Cron.AddFunc(spec, func() {
		if !ms.ShouldRun(ms.Now()) {
			ms.Logger.Info("MarketScheduler: %s skipped, market closed today", name)
			return
		}
		ms.Logger.Info("MarketScheduler: running %s", name)
		job()
	})
	if err != nil {
		return err
	}

	ms.entries = append(ms.entries, id)
	ms.Logger.Info("MarketScheduler: %s scheduled at '%s'", name, spec)
	return nil
}

// ShouldRun reports whether a firing at t falls on a trading day.
func (ms *MarketScheduler) ShouldRun(t time.Time) bool {
	return ms.Calendar.IsTradingDay(t)
}

// -----------------------------------------------------------------------------

// NextRun returns the earliest upcoming firing, zero when nothing is scheduled.
func (ms *MarketScheduler) NextRun() time.Time {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var next time.Time
	for _, id := range ms.entries {
		e := ms.Cron.Entry(id)
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) Start() {
	ms.Cron.Start()
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (ms *MarketScheduler) Stop() context.Context {
	return ms.Cron.Stop()
}
