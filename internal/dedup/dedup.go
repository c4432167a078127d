// Package dedup implements the persistent cache that prevents duplicate
// appointment creation per record identifier, across runs and across
// concurrent scheduler instances.
//
// Invariant: at most one live entry per record identifier. Record without an
// explicit override on an existing identifier fails with a DuplicateConflict;
// a successful Record is durable before the call returns.
package dedup

import (
	"context"

	"nsa-scheduler/internal/models"
)

// Store is the dedup cache. Implementations serialize the read-modify-write
// cycle so two writers can never both win a race for the same record.
type Store interface {
	// Lookup returns the cache entry for a record identifier, or found=false.
	Lookup(ctx context.Context, recordID string) (entry *models.AppointmentRecord, found bool, err error)

	// Record persists the entry. An existing entry for the same record
	// identifier fails with a DuplicateConflict unless override is set.
	Record(ctx context.Context, entry models.AppointmentRecord, override bool) error

	Close() error
}
