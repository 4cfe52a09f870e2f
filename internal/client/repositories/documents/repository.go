package documents

import (
	"context"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

// Repository is the metadata store. It is authoritative for whether a
// document exists.
type Repository interface {
	Insert(ctx context.Context, doc *models.Document) error
	// List returns the documents of a deal, newest first. An empty dealID
	// lists every deal.
	List(ctx context.Context, dealID string) ([]models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	// ExistsByObjectKey reports whether any row references key.
	ExistsByObjectKey(ctx context.Context, key string) (bool, error)
}
