package storage

import (
	"fmt"
	"strings"

	"jpx-history/src/helpers"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"
)

// NewStore builds the backend named by storage.db_type. The store is not yet
// initialized.
func NewStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IStore, error) {
	switch strings.ToLower(cfg.Storage.DBType) {
	case "", "parquet":
		return NewParquetStore(cfg, log.Named("parquet")), nil
	case "sqlite":
		return NewSQLiteStore(cfg, log.Named("sqlite")), nil
	case "postgres":
		return NewPostgresStore(cfg, log.Named("postgres")), nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown storage db_type %q", cfg.Storage.DBType), nil)
}

// OpenStore builds and initializes the configured backend.
func OpenStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IStore, error) {
	store, err := NewStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
