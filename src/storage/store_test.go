package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, models.Tokyo)
}

func vol(v float64) *float64 { return &v }

func sampleRows() []models.MHistoryRow {
	return []models.MHistoryRow{
		{Date: day(2024, 6, 10), Open: 100, High: 110, Low: 95, Close: 105, Volume: vol(1200)},
		{Date: day(2024, 6, 11), Open: 105, High: 108, Low: 101, Close: 102},
		{Date: day(2024, 6, 12), Open: 102.5, High: 104, Low: 99.5, Close: 103, Volume: vol(800)},
	}
}

func sampleMaster() []models.MSymbol {
	return []models.MSymbol{
		{Code: 1301, Name: "極洋", Market: models.MarketPrime,
			Sector33: models.Classified(50), Sector17: models.Classified(1), ScaleClass: models.Classified(7)},
		{Code: 1305, Name: "ＥＴＦ", Market: models.MarketStandard,
			Sector33: models.Unclassified, Sector17: models.Unclassified, ScaleClass: models.Unclassified},
	}
}

func newParquet(t *testing.T) interfaces.IStore {
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "parquet", DataDir: t.TempDir()}}
	store, err := OpenStore(cfg, logger.NewSilentLogger())
	require.NoError(t, err)
	return store
}

func newSQLite(t *testing.T) interfaces.IStore {
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBType: "sqlite",
		DBPath: filepath.Join(t.TempDir(), "jpx.db"),
	}}
	store, err := OpenStore(cfg, logger.NewSilentLogger())
	require.NoError(t, err)
	return store
}

// -----------------------------------------------------------------------------

func TestStores(t *testing.T) {
	backends := map[string]func(*testing.T) interfaces.IStore{
		"parquet": newParquet,
		"sqlite":  newSQLite,
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("absent history is not found", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				rows, found, err := store.LoadHistory("7203")
				require.NoError(t, err)
				assert.False(t, found)
				assert.Empty(t, rows)
			})

			t.Run("history round trip keeps dates and missing volume", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				require.NoError(t, store.SaveHistory("998407", sampleRows()))
				rows, found, err := store.LoadHistory("998407")
				require.NoError(t, err)
				require.True(t, found)
				require.Len(t, rows, 3)

				for i, want := range sampleRows() {
					assert.True(t, want.Date.Equal(rows[i].Date), "row %d date", i)
					assert.Equal(t, want.Close, rows[i].Close)
				}
				require.NotNil(t, rows[0].Volume)
				assert.Equal(t, 1200.0, *rows[0].Volume)
				assert.Nil(t, rows[1].Volume)
				assert.Equal(t, "2024-06-12", rows[2].Date.Format(models.DateLayout))
			})

			t.Run("save replaces previous series", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				require.NoError(t, store.SaveHistory("1301", sampleRows()))
				require.NoError(t, store.SaveHistory("1301", sampleRows()[:1]))

				rows, _, err := store.LoadHistory("1301")
				require.NoError(t, err)
				assert.Len(t, rows, 1)
			})

			t.Run("history codes sorted numerically", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				for _, code := range []string{"998407", "1301", "72030"} {
					require.NoError(t, store.SaveHistory(code, sampleRows()))
				}
				codes, err := store.ListHistoryCodes()
				require.NoError(t, err)
				assert.Equal(t, []string{"1301", "72030", "998407"}, codes)
			})

			t.Run("missing master fails", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				_, err := store.LoadMaster()
				assert.Error(t, err)
			})

			t.Run("master round trip keeps unclassified", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				require.NoError(t, store.SaveMaster(sampleMaster()))
				got, err := store.LoadMaster()
				require.NoError(t, err)
				assert.Equal(t, sampleMaster(), got)
			})

			t.Run("master loads in code order", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				require.NoError(t, store.SaveMaster([]models.MSymbol{
					{Code: 7203, Name: "トヨタ", Market: models.MarketPrime},
					{Code: 1301, Name: "極洋", Market: models.MarketPrime},
				}))
				got, err := store.LoadMaster()
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, 1301, got[0].Code)
				assert.Equal(t, 7203, got[1].Code)
			})

			t.Run("journal accepts a summary", func(t *testing.T) {
				store := open(t)
				defer store.Close()

				summary := models.MBatchSummary{RunID: "run-1", StartedAt: time.Now(), FinishedAt: time.Now()}
				summary.Add(models.MSymbolOutcome{Code: 1301, Status: models.OutcomeUpdated, Rows: 3, Added: 3, Pages: 1})
				summary.Add(models.MSymbolOutcome{Code: 1305, Status: models.OutcomeFailed, Err: "boom"})
				assert.NoError(t, store.SaveBatchSummary(summary))
			})
		})
	}
}

// -----------------------------------------------------------------------------

func TestParquetStoreSentinelsOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := NewParquetStore(&models.MConfig{Storage: models.MStorageConfig{DataDir: dir}}, logger.NewSilentLogger())
	require.NoError(t, store.Initialize())
	require.NoError(t, store.SaveMaster(sampleMaster()))

	records, err := parquet.ReadFile[symbolRecord](store.MasterPath())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(models.Sector33Sentinel), records[1].Type33)
	assert.Equal(t, int64(models.Sector17Sentinel), records[1].Type17)
	assert.Equal(t, int64(models.ScaleClassSentinel), records[1].TypeScale)
	assert.Equal(t, int64(50), records[0].Type33)
}

func TestParquetStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewParquetStore(&models.MConfig{Storage: models.MStorageConfig{DataDir: dir}}, logger.NewSilentLogger())
	require.NoError(t, store.Initialize())
	require.NoError(t, store.SaveHistory("1301", sampleRows()))

	entries, err := os.ReadDir(filepath.Join(dir, "hist"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1301.parquet", entries[0].Name())
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	_, err := NewStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "mongo"}}, logger.NewSilentLogger())
	assert.Error(t, err)
}
