package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	_ "modernc.org/sqlite"
)

// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS symbols (
		code INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		market TEXT NOT NULL,
		type_33 INTEGER NOT NULL,
		type_17 INTEGER NOT NULL,
		type_scale INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		code TEXT NOT NULL,
		date INTEGER NOT NULL,
		open REAL,
		high REAL,
		low REAL,
		close REAL,
		volume REAL,
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS batch_outcomes (
		run_id TEXT NOT NULL,
		started_at INTEGER,
		finished_at INTEGER,
		aborted BOOLEAN,
		code INTEGER,
		status TEXT,
		rows_count INTEGER,
		added INTEGER,
		pages INTEGER,
		stop_reason TEXT,
		error TEXT,
		duration_ms INTEGER
	)`,
}

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	sqlStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		sqlStore: sqlStore{Logger: log},
		Config:   cfg,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return helpers.NewStorageError("create sqlite dir", err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewStorageError("open sqlite "+dsn, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewStorageError("ping sqlite "+dsn, err)
	}

	// One writer at a time
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(sqliteDDL); err != nil {
		return err
	}

	d.Logger.Info("SQLiteStore initialized (path: %s)", dsn)
	return nil
}
