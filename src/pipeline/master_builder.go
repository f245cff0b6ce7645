package pipeline

import (
	"context"
	"sort"

	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// MasterBuilder rebuilds the listed-company master from scratch.
type MasterBuilder struct {
	Source interfaces.IMasterSource
	Store  interfaces.IStore
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMasterBuilder(src interfaces.IMasterSource, store interfaces.IStore, log *logger.Logger) *MasterBuilder {
	return &MasterBuilder{
		Source: src,
		Store:  store,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Build fetches, normalizes and persists the master, returning what was saved.
func (b *MasterBuilder) Build(ctx context.Context) ([]models.MSymbol, error) {
	// 1. Fetch and decode
	symbols, err := b.Source.FetchMaster(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Unique codes, ascending
	master := NormalizeMaster(symbols)
	if dropped := len(symbols) - len(master); dropped > 0 {
		b.Logger.Warning("dropped %d duplicate codes", dropped)
	}

	// 3. Persist
	if err := b.Store.SaveMaster(master); err != nil {
		return nil, err
	}

	b.Logger.Info("master saved: %d symbols", len(master))
	return master, nil
}

// -----------------------------------------------------------------------------

// NormalizeMaster keeps the first row of each code and sorts by code.
func NormalizeMaster(symbols []models.MSymbol) []models.MSymbol {
	seen := make(map[int]struct{}, len(symbols))
	master := make([]models.MSymbol, 0, len(symbols))
	for _, s := range symbols {
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		master = append(master, s)
	}

	sort.SliceStable(master, func(i, j int) bool {
		return master[i].Code < master[j].Code
	})
	return master
}
