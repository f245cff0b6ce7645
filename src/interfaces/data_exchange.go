package interfaces

import "jpx-history/src/models"

// -----------------------------------------------------------------------------
// IEventSink receives batch progress events.
// -----------------------------------------------------------------------------

type IEventSink interface {
	// Publish must not block the batch.
	Publish(event models.MProgressEvent)
}

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing data with external systems (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	IEventSink

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
