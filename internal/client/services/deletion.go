package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// DefaultRefetchDelay gives the metadata store time to become read
// consistent before the post-delete refetch.
const DefaultRefetchDelay = 250 * time.Millisecond

// DeletionCoordinator removes the metadata row first, then the object.
// The row is authoritative: once it is gone the document is gone, whatever
// happens to the object.
type DeletionCoordinator struct {
	repo    documents.Repository
	store   objectstore.Store
	catalog *Catalog
	journal orphans.Repository
	log     logging.Logger
	delay   time.Duration

	// onRemoved is called with the object key after the row is deleted.
	onRemoved func(key string)

	wg sync.WaitGroup
}

// NewDeletionCoordinator builds a coordinator. journal may be nil; a
// non-positive delay means DefaultRefetchDelay.
func NewDeletionCoordinator(repo documents.Repository, store objectstore.Store, catalog *Catalog,
	journal orphans.Repository, delay time.Duration, log logging.Logger) *DeletionCoordinator {
	if delay <= 0 {
		delay = DefaultRefetchDelay
	}
	return &DeletionCoordinator{
		repo:    repo,
		store:   store,
		catalog: catalog,
		journal: journal,
		log:     log.With("component", "deletion"),
		delay:   delay,
	}
}

// Delete removes doc. It returns once the metadata row is deleted and the
// document has left the catalog; object cleanup and the reconciling
// refetch continue in the background (see Wait).
func (d *DeletionCoordinator) Delete(ctx context.Context, doc models.Document) error {
	if err := d.repo.Delete(ctx, doc.ID); err != nil {
		deletionsTotal.WithLabelValues("metadata_error").Inc()
		if errors.Is(err, common.ErrRowNotFound) {
			d.catalog.Remove(doc.ID)
			return common.NewError(common.KindNotFound, "delete", doc.Name+" was already deleted", err)
		}
		return common.NewError(common.KindMetadataWrite, "delete", "could not delete "+doc.Name, err)
	}

	d.catalog.Remove(doc.ID)
	if d.onRemoved != nil {
		d.onRemoved(doc.ObjectKey)
	}
	deletionsTotal.WithLabelValues("success").Inc()

	started := time.Now()
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.removeObject(bg, doc)

		if wait := d.delay - time.Since(started); wait > 0 {
			time.Sleep(wait)
		}
		if err := d.catalog.Refetch(bg); err != nil {
			d.log.Warn(bg, "refetch after delete failed", "error", err)
		}
	}()
	return nil
}

func (d *DeletionCoordinator) removeObject(ctx context.Context, doc models.Document) {
	err := d.store.Remove(ctx, doc.ObjectKey)
	if err == nil {
		return
	}

	deletionsTotal.WithLabelValues("object_error").Inc()
	warn := common.NewError(common.KindStorageDeleteWarning, "delete", "object left behind", err)
	d.log.Warn(ctx, "storage delete warning", "kind", warn.Kind.String(), "id", doc.ID, "key", doc.ObjectKey, "error", err)
	recordOrphan(ctx, d.journal, d.log, doc.ObjectKey, models.OrphanDeleteFailed)
}

// Wait blocks until background cleanup of every Delete so far has finished.
func (d *DeletionCoordinator) Wait() {
	d.wg.Wait()
}
