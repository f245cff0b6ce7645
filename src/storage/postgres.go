package storage

import (
	"database/sql"
	"fmt"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	_ "github.com/lib/pq"
)

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS {t}symbols (
		code INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		market TEXT NOT NULL,
		type_33 INTEGER NOT NULL,
		type_17 INTEGER NOT NULL,
		type_scale INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS {t}history (
		code TEXT NOT NULL,
		date BIGINT NOT NULL,
		open DOUBLE PRECISION,
		high DOUBLE PRECISION,
		low DOUBLE PRECISION,
		close DOUBLE PRECISION,
		volume DOUBLE PRECISION,
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS {t}batch_outcomes (
		run_id TEXT NOT NULL,
		started_at BIGINT,
		finished_at BIGINT,
		aborted BOOLEAN,
		code INTEGER,
		status TEXT,
		rows_count INTEGER,
		added INTEGER,
		pages INTEGER,
		stop_reason TEXT,
		error TEXT,
		duration_ms BIGINT
	)`,
}

// -----------------------------------------------------------------------------

type PostgresStore struct {
	sqlStore
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) *PostgresStore {
	schema := cfg.Storage.DBSchema
	if schema == "" {
		schema = "jpx_history"
	}

	return &PostgresStore{
		sqlStore: sqlStore{
			Logger:      log,
			prefix:      fmt.Sprintf(`"%s".`, schema),
			numberedArg: true,
		},
		Config: cfg,
		Schema: schema,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewStorageError("open postgres", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewStorageError("ping postgres", err)
	}
	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("create schema %s", d.Schema), err)
	}

	if err := d.createTables(postgresDDL); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized (schema: %s)", d.Schema)
	return nil
}
