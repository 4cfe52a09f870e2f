// Package orphans is the local journal of object keys that could not be
// removed from the object store.
package orphans

import (
	"context"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

type Repository interface {
	// Record upserts key; a second record of the same key refreshes its
	// reason and timestamp.
	Record(ctx context.Context, key, reason string) error
	List(ctx context.Context) ([]models.Orphan, error)
	// Prune removes every key in keys. Unknown keys are ignored.
	Prune(ctx context.Context, keys []string) error
}
