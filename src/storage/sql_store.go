package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// -----------------------------------------------------------------------------

// sqlStore holds the queries both SQL backends share. Queries are written with
// "?" placeholders and "{t}" table prefixes, both rewritten per dialect.
type sqlStore struct {
	DB     *sql.DB
	Logger *logger.Logger

	prefix      string // "" for sqlite, `"schema".` for postgres
	numberedArg bool   // $1, $2 ... instead of ?
}

// -----------------------------------------------------------------------------

func (s *sqlStore) q(query string) string {
	query = strings.ReplaceAll(query, "{t}", s.prefix)
	if !s.numberedArg {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) LoadHistory(code string) ([]models.MHistoryRow, bool, error) {
	rows, err := s.DB.Query(s.q(`
		SELECT date, open, high, low, close, volume
		FROM {t}history WHERE code = ? ORDER BY date
	`), code)
	if err != nil {
		return nil, false, helpers.NewStorageError("query history "+code, err)
	}
	defer rows.Close()

	var result []models.MHistoryRow
	for rows.Next() {
		var r historyRecord
		var vol sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.Open, &r.High, &r.Low, &r.Close, &vol); err != nil {
			return nil, false, helpers.NewStorageError("scan history "+code, err)
		}
		if vol.Valid {
			v := vol.Float64
			r.Volume = &v
		}
		result = append(result, fromHistoryRecord(r))
	}
	if err := rows.Err(); err != nil {
		return nil, false, helpers.NewStorageError("iterate history "+code, err)
	}
	return result, len(result) > 0, nil
}

// -----------------------------------------------------------------------------

// SaveHistory replaces the whole series of one code inside a single transaction.
func (s *sqlStore) SaveHistory(code string, rows []models.MHistoryRow) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("begin history tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.q(`DELETE FROM {t}history WHERE code = ?`), code); err != nil {
		return helpers.NewStorageError("clear history "+code, err)
	}

	stmt, err := tx.Prepare(s.q(`
		INSERT INTO {t}history (code, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return helpers.NewStorageError("prepare history insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		r := toHistoryRecord(row)
		var vol sql.NullFloat64
		if r.Volume != nil {
			vol = sql.NullFloat64{Float64: *r.Volume, Valid: true}
		}
		if _, err := stmt.Exec(code, r.Date, r.Open, r.High, r.Low, r.Close, vol); err != nil {
			return helpers.NewStorageError("insert history "+code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("commit history "+code, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) ListHistoryCodes() ([]string, error) {
	rows, err := s.DB.Query(s.q(`SELECT DISTINCT code FROM {t}history`))
	if err != nil {
		return nil, helpers.NewStorageError("list history codes", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, helpers.NewStorageError("scan history code", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("iterate history codes", err)
	}
	sortCodes(codes)
	return codes, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) LoadMaster() ([]models.MSymbol, error) {
	rows, err := s.DB.Query(s.q(`
		SELECT code, name, market, type_33, type_17, type_scale
		FROM {t}symbols ORDER BY code
	`))
	if err != nil {
		return nil, helpers.NewStorageError("query master", err)
	}
	defer rows.Close()

	var symbols []models.MSymbol
	for rows.Next() {
		var r symbolRecord
		if err := rows.Scan(&r.Code, &r.Name, &r.Market, &r.Type33, &r.Type17, &r.TypeScale); err != nil {
			return nil, helpers.NewStorageError("scan master", err)
		}
		symbols = append(symbols, fromSymbolRecord(r))
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("iterate master", err)
	}
	if len(symbols) == 0 {
		return nil, helpers.NewStorageError("master table is empty, build it first", nil)
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) SaveMaster(symbols []models.MSymbol) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("begin master tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.q(`DELETE FROM {t}symbols`)); err != nil {
		return helpers.NewStorageError("clear master", err)
	}

	stmt, err := tx.Prepare(s.q(`
		INSERT INTO {t}symbols (code, name, market, type_33, type_17, type_scale)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return helpers.NewStorageError("prepare master insert", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		r := toSymbolRecord(sym)
		if _, err := stmt.Exec(r.Code, r.Name, r.Market, r.Type33, r.Type17, r.TypeScale); err != nil {
			return helpers.NewStorageError(fmt.Sprintf("insert symbol %d", r.Code), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("commit master", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) SaveBatchSummary(summary models.MBatchSummary) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("begin journal tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.q(`
		INSERT INTO {t}batch_outcomes (run_id, started_at, finished_at, aborted, code, status,
			rows_count, added, pages, stop_reason, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return helpers.NewStorageError("prepare journal insert", err)
	}
	defer stmt.Close()

	for _, r := range toOutcomeRecords(summary) {
		if _, err := stmt.Exec(r.RunID, r.StartedAt, r.FinishedAt, r.Aborted, r.Code, r.Status,
			r.Rows, r.Added, r.Pages, r.StopReason, r.Error, r.DurationMs); err != nil {
			return helpers.NewStorageError("insert journal "+r.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("commit journal", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// createTables runs DDL statements, logging how long the schema setup took.
func (s *sqlStore) createTables(ddl []string) error {
	start := time.Now()
	for _, stmt := range ddl {
		if _, err := s.DB.Exec(s.q(stmt)); err != nil {
			return helpers.NewStorageError("create tables", err)
		}
	}
	s.Logger.Debug("schema ready in %v", time.Since(start))
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
