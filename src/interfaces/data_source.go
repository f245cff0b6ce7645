package interfaces

import (
	"context"

	"jpx-history/src/models"
)

// -----------------------------------------------------------------------------
// IMasterSource fetches and normalizes the listed-company master.
// -----------------------------------------------------------------------------

type IMasterSource interface {

	// FetchMaster returns the filtered master rows (unsorted, possibly with duplicates).
	FetchMaster(ctx context.Context) ([]models.MSymbol, error)
}

// -----------------------------------------------------------------------------
// IHistorySource returns one page of a symbol's daily history listing.
// -----------------------------------------------------------------------------

type IHistorySource interface {

	// FetchPage returns the rows of page (1-based). ok is false when the page
	// carries no price table, meaning there are no further pages.
	FetchPage(ctx context.Context, code, market string, page int) (rows []models.MHistoryRow, ok bool, err error)
}
