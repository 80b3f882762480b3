// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that starts and
// stops several workers in a unified way.
package workers

import (
	"context"

	"github.com/MKhiriev/go-note-sync/models"
)

// Worker is the interface that must be implemented by any background worker.
//
// Start launches the worker's goroutines and returns immediately; they run
// until ctx is cancelled or Stop is called. Stop blocks until every goroutine
// started by the worker has exited and is safe to call on an idle worker.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// SyncSubmitter starts sync passes on the live session. ok is false when
// nobody is logged in.
type SyncSubmitter interface {
	Submit() (result <-chan models.SyncResult, ok bool)
}
