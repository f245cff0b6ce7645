package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/parquet-go/parquet-go"
)

// -----------------------------------------------------------------------------

// ParquetStore keeps one columnar file per table under DataDir:
//
//	master/stock.parquet    symbol master, sorted by code
//	hist/{code}.parquet     one daily series per symbol, sorted by date
//	runs/{start}_{id}.parquet  batch journal
type ParquetStore struct {
	DataDir string
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewParquetStore(cfg *models.MConfig, log *logger.Logger) *ParquetStore {
	return &ParquetStore{
		DataDir: cfg.Storage.DataDir,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) Initialize() error {
	for _, dir := range []string{s.masterDir(), s.histDir(), s.runsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return helpers.NewStorageError(fmt.Sprintf("create %s", dir), err)
		}
	}
	s.Logger.Info("ParquetStore initialized (dir: %s)", s.DataDir)
	return nil
}

func (s *ParquetStore) masterDir() string { return filepath.Join(s.DataDir, "master") }
func (s *ParquetStore) histDir() string   { return filepath.Join(s.DataDir, "hist") }
func (s *ParquetStore) runsDir() string   { return filepath.Join(s.DataDir, "runs") }

// MasterPath is where the symbol master lives.
func (s *ParquetStore) MasterPath() string {
	return filepath.Join(s.masterDir(), "stock.parquet")
}

// HistoryPath maps a symbol code to its series file.
func (s *ParquetStore) HistoryPath(code string) string {
	return filepath.Join(s.histDir(), code+".parquet")
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) LoadHistory(code string) ([]models.MHistoryRow, bool, error) {
	path := s.HistoryPath(code)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}

	records, err := parquet.ReadFile[historyRecord](path)
	if err != nil {
		return nil, false, helpers.NewStorageError(fmt.Sprintf("read %s", path), err)
	}

	rows := make([]models.MHistoryRow, len(records))
	for i, r := range records {
		rows[i] = fromHistoryRecord(r)
	}
	return rows, true, nil
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) SaveHistory(code string, rows []models.MHistoryRow) error {
	records := make([]historyRecord, len(rows))
	for i, r := range rows {
		records[i] = toHistoryRecord(r)
	}
	return writeAtomic(s.HistoryPath(code), records)
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) ListHistoryCodes() ([]string, error) {
	entries, err := os.ReadDir(s.histDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, helpers.NewStorageError("list history files", err)
	}

	var codes []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		codes = append(codes, strings.TrimSuffix(name, ".parquet"))
	}
	sortCodes(codes)
	return codes, nil
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) LoadMaster() ([]models.MSymbol, error) {
	records, err := parquet.ReadFile[symbolRecord](s.MasterPath())
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("read master %s", s.MasterPath()), err)
	}

	symbols := make([]models.MSymbol, len(records))
	for i, r := range records {
		symbols[i] = fromSymbolRecord(r)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Code < symbols[j].Code })
	return symbols, nil
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) SaveMaster(symbols []models.MSymbol) error {
	records := make([]symbolRecord, len(symbols))
	for i, sym := range symbols {
		records[i] = toSymbolRecord(sym)
	}
	return writeAtomic(s.MasterPath(), records)
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) SaveBatchSummary(summary models.MBatchSummary) error {
	name := fmt.Sprintf("%s_%s.parquet", summary.StartedAt.UTC().Format("20060102T150405"), summary.RunID)
	return writeAtomic(filepath.Join(s.runsDir(), name), toOutcomeRecords(summary))
}

// -----------------------------------------------------------------------------

func (s *ParquetStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// writeAtomic writes rows to a temp file next to path and renames it into place.
func writeAtomic[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("create %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return helpers.NewStorageError(fmt.Sprintf("create temp for %s", path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := parquet.Write(tmp, rows); err != nil {
		tmp.Close()
		return helpers.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("close %s", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("replace %s", path), err)
	}
	return nil
}
