package interfaces

import "jpx-history/src/models"

// -----------------------------------------------------------------------------
// IStore is the storage accessor for the master table and per-symbol histories.
// Saves always replace the previous content.
// -----------------------------------------------------------------------------

type IStore interface {

	// Initialize creates directories, schemas and tables as needed.
	Initialize() error

	// -----------------------------------------------------------------------------

	// LoadHistory returns the stored series for code. found is false (and err
	// nil) when nothing has been stored yet.
	LoadHistory(code string) (rows []models.MHistoryRow, found bool, err error)

	// SaveHistory overwrites the stored series for code.
	SaveHistory(code string, rows []models.MHistoryRow) error

	// ListHistoryCodes returns the codes that have a stored series, ascending.
	ListHistoryCodes() ([]string, error)

	// -----------------------------------------------------------------------------

	// LoadMaster reads the full master table. It fails when none was saved.
	LoadMaster() ([]models.MSymbol, error)

	// SaveMaster overwrites the master table.
	SaveMaster(symbols []models.MSymbol) error

	// -----------------------------------------------------------------------------

	// SaveBatchSummary appends a batch run to the journal.
	SaveBatchSummary(summary models.MBatchSummary) error

	// -----------------------------------------------------------------------------

	// Close releases the underlying resources.
	Close() error
}
