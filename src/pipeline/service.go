package pipeline

import (
	"context"
	"errors"
	"sync"

	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("an update run is already in progress")

// -----------------------------------------------------------------------------

// Service serializes master builds and batch runs so two runs never write the
// same symbol at once. It also remembers the last batch summary.
type Service struct {
	Builder *MasterBuilder
	Driver  *BatchDriver
	Logger  *logger.Logger

	// OnSummary is called after every finished batch.
	OnSummary func(models.MBatchSummary)
	// OnMaster is called after every master build with its error, if any.
	OnMaster func(error)

	runMu    sync.Mutex
	statusMu sync.RWMutex
	last     *models.MBatchSummary
}

// -----------------------------------------------------------------------------

func NewService(builder *MasterBuilder, driver *BatchDriver, log *logger.Logger) *Service {
	return &Service{
		Builder: builder,
		Driver:  driver,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// BuildMaster rebuilds the master table.
func (s *Service) BuildMaster(ctx context.Context) ([]models.MSymbol, error) {
	if !s.runMu.TryLock() {
		return nil, ErrBusy
	}
	defer s.runMu.Unlock()

	return s.buildMaster(ctx)
}

// UpdateAll runs one batch over the stored master.
func (s *Service) UpdateAll(ctx context.Context) (models.MBatchSummary, error) {
	if !s.runMu.TryLock() {
		return models.MBatchSummary{}, ErrBusy
	}
	defer s.runMu.Unlock()

	return s.runBatch(ctx)
}

// RunDaily rebuilds the master and then updates every symbol. A failed master
// build falls back to the previously stored master.
func (s *Service) RunDaily(ctx context.Context) (models.MBatchSummary, error) {
	if !s.runMu.TryLock() {
		return models.MBatchSummary{}, ErrBusy
	}
	defer s.runMu.Unlock()

	if _, err := s.buildMaster(ctx); err != nil {
		if ctx.Err() != nil {
			return models.MBatchSummary{}, err
		}
		s.Logger.Warning("master build failed, using stored master: %v", err)
	}
	return s.runBatch(ctx)
}

func (s *Service) buildMaster(ctx context.Context) ([]models.MSymbol, error) {
	symbols, err := s.Builder.Build(ctx)
	if s.OnMaster != nil {
		s.OnMaster(err)
	}
	return symbols, err
}

func (s *Service) runBatch(ctx context.Context) (models.MBatchSummary, error) {
	summary, err := s.Driver.Run(ctx)
	if summary.FinishedAt.IsZero() {
		return summary, err
	}

	s.statusMu.Lock()
	s.last = &summary
	s.statusMu.Unlock()

	if s.OnSummary != nil {
		s.OnSummary(summary)
	}
	return summary, err
}

// -----------------------------------------------------------------------------

// LastSummary returns the most recent finished batch, if any.
func (s *Service) LastSummary() (models.MBatchSummary, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	if s.last == nil {
		return models.MBatchSummary{}, false
	}
	return *s.last, true
}
