package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/dealroom/internal/client/categories"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// DefaultUploadConcurrency caps parallel transfers inside one queue.
const DefaultUploadConcurrency = 3

type QueueConfig struct {
	DealID     string
	Category   string
	Surface    models.Surface
	UploadedBy string
	// Concurrency <= 0 means DefaultUploadConcurrency.
	Concurrency int
	// OnChange, if set, is called after every entry state or progress change.
	OnChange func(models.QueueEntry)
}

// AddResult describes what AddFiles did with a batch.
type AddResult struct {
	Accepted []models.QueueEntry
	// Dropped counts files cut off by the capacity limit.
	Dropped int
	// Rejected names the files that failed type or size validation.
	Rejected []string
}

type queueEntry struct {
	id       string
	file     LocalFile
	status   models.UploadStatus
	progress int
	err      error
	doc      *models.Document
}

// UploadQueue is the per (deal, category) queue of files waiting to be
// written: object first, then the metadata row.
type UploadQueue struct {
	cfg      QueueConfig
	category models.Category
	catalog  *Catalog
	store    objectstore.Store
	repo     documents.Repository
	journal  orphans.Repository
	log      logging.Logger

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	entries []*queueEntry
	cancel  context.CancelFunc
}

// NewUploadQueue builds a queue for cfg.Category. journal may be nil.
func NewUploadQueue(reg *categories.Registry, catalog *Catalog, store objectstore.Store, repo documents.Repository,
	journal orphans.Repository, cfg QueueConfig, log logging.Logger) (*UploadQueue, error) {

	cat, ok := reg.Get(cfg.Category)
	if !ok {
		return nil, common.NewError(common.KindValidation, "upload queue", fmt.Sprintf("unknown category %q", cfg.Category), nil)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultUploadConcurrency
	}
	if cfg.Surface == "" {
		cfg.Surface = models.SurfaceCategory
	}

	return &UploadQueue{
		cfg:      cfg,
		category: cat,
		catalog:  catalog,
		store:    store,
		repo:     repo,
		journal:  journal,
		log:      log.With("component", "upload_queue", "deal_id", cfg.DealID, "category", cfg.Category),
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

func (q *UploadQueue) Category() models.Category { return q.category }

// AddFiles admits files while there is room under the category limit.
// Concurrent calls are serialized, so two batches never both see the same
// free slot. At most one CapacityExceeded error is reported per batch; the
// returned error joins it with one Validation error per rejected file.
func (q *UploadQueue) AddFiles(files []LocalFile) (AddResult, error) {
	var res AddResult
	if len(files) == 0 {
		return res, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing := q.catalog.Count(q.cfg.DealID, q.category.Key)
	remaining := q.category.MaxFiles - existing - q.activeLocked()

	capacityErr := common.NewError(common.KindCapacityExceeded, "add files",
		fmt.Sprintf("%s allows at most %d file(s)", q.category.Label, q.category.MaxFiles), nil)

	if remaining <= 0 {
		res.Dropped = len(files)
		return res, capacityErr
	}

	var errs []error
	if len(files) > remaining {
		res.Dropped = len(files) - remaining
		files = files[:remaining]
		errs = append(errs, capacityErr)
	}

	maxSize := q.cfg.Surface.MaxFileSize()
	for _, f := range files {
		if err := q.validate(f, maxSize); err != nil {
			res.Rejected = append(res.Rejected, f.Name())
			errs = append(errs, err)
			continue
		}
		e := &queueEntry{id: q.newID(), file: f, status: models.UploadPending}
		q.entries = append(q.entries, e)
		res.Accepted = append(res.Accepted, e.snapshot())
	}

	return res, errors.Join(errs...)
}

func (q *UploadQueue) validate(f LocalFile, maxSize int64) error {
	if !categories.Accepts(q.category, f.Name(), f.ContentType()) {
		return common.NewError(common.KindValidation, "add files",
			fmt.Sprintf("%s: file type not accepted for %s", f.Name(), q.category.Label), nil)
	}
	if f.Size() > maxSize {
		return common.NewError(common.KindValidation, "add files",
			fmt.Sprintf("%s: file is larger than %d MB", f.Name(), maxSize>>20), nil)
	}
	return nil
}

func (q *UploadQueue) activeLocked() int {
	n := 0
	for _, e := range q.entries {
		if e.status == models.UploadPending || e.status == models.UploadUploading {
			n++
		}
	}
	return n
}

// Entries returns a snapshot of the queue in insertion order.
func (q *UploadQueue) Entries() []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.QueueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.snapshot())
	}
	return out
}

// RemoveFile drops one entry. Entries that are uploading cannot be removed.
func (q *UploadQueue) RemoveFile(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.id != id {
			continue
		}
		if e.status == models.UploadUploading {
			return common.NewError(common.KindBusy, "remove file", fmt.Sprintf("%s is uploading", e.file.Name()), nil)
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		return nil
	}
	return common.NewError(common.KindNotFound, "remove file", "no such queue entry", nil)
}

// ClearFiles empties the queue. Transfers already in flight keep running;
// use Cancel to abort them.
func (q *UploadQueue) ClearFiles() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}

// Cancel aborts the transfers of the current Upload call, if any.
func (q *UploadQueue) Cancel() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Upload runs every pending entry through the two-phase write with at most
// Concurrency transfers in flight. Entries fail independently; the returned
// error joins the failures of this run.
func (q *UploadQueue) Upload(ctx context.Context) error {
	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return common.NewError(common.KindBusy, "upload", "an upload is already running", nil)
	}
	var pending []*queueEntry
	for _, e := range q.entries {
		if e.status == models.UploadPending {
			// claimed by this run; RemoveFile now refuses them
			e.status = models.UploadUploading
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.cancel = nil
		q.mu.Unlock()
		cancel()
	}()

	errs := make([]error, len(pending))
	var g errgroup.Group
	g.SetLimit(q.cfg.Concurrency)
	for i, e := range pending {
		g.Go(func() error {
			errs[i] = q.uploadOne(runCtx, e)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (q *UploadQueue) uploadOne(ctx context.Context, e *queueEntry) error {
	name := e.file.Name()
	if ctx.Err() != nil {
		return q.fail(e, common.NewError(common.KindCanceled, "upload", name+": upload canceled", ctx.Err()))
	}

	activeUploads.Inc()
	defer activeUploads.Dec()

	at := q.now()
	key := models.ObjectKey(q.cfg.DealID, q.category.Key, at, name)
	q.update(e, func(e *queueEntry) { e.status = models.UploadUploading; e.progress = 0 })

	rc, err := e.file.Open()
	if err != nil {
		return q.fail(e, common.NewError(common.KindStorageUpload, "upload", "could not read "+name, err))
	}
	defer rc.Close()

	size := e.file.Size()
	pr := &progressReader{r: rc, total: size, report: func(pct int) {
		q.update(e, func(e *queueEntry) { e.progress = pct })
	}}

	if err := q.store.Put(ctx, key, pr, size, e.file.ContentType()); err != nil {
		if ctx.Err() != nil {
			return q.fail(e, common.NewError(common.KindCanceled, "upload", name+": upload canceled", err))
		}
		return q.fail(e, common.NewError(common.KindStorageUpload, "upload", "could not upload "+name, err))
	}

	// The object is stored. From here on a cancel must not split it from
	// its row, so the metadata write runs to completion.
	ctx = context.WithoutCancel(ctx)
	doc := models.Document{
		ID:         q.newID(),
		DealID:     q.cfg.DealID,
		Name:       name,
		ObjectKey:  key,
		Size:       size,
		MimeType:   e.file.ContentType(),
		Category:   q.category.Key,
		Version:    1,
		CreatedAt:  at.UTC(),
		UploadedBy: q.cfg.UploadedBy,
	}
	if err := q.repo.Insert(ctx, &doc); err != nil {
		q.compensate(ctx, key)
		return q.fail(e, common.NewError(common.KindMetadataWrite, "upload", "could not save "+name, err))
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(size))
	q.update(e, func(e *queueEntry) {
		e.status = models.UploadSuccess
		e.progress = 100
		e.doc = &doc
	})
	q.catalog.Upsert(doc)
	q.log.Info(ctx, "document uploaded", "id", doc.ID, "key", key, "size", size)
	return nil
}

// compensate removes an object whose metadata row could not be written.
// If that fails too the key goes to the orphan journal.
func (q *UploadQueue) compensate(ctx context.Context, key string) {
	err := q.store.Remove(ctx, key)
	if err == nil {
		q.log.Info(ctx, "removed object after failed metadata write", "key", key)
		return
	}

	q.log.Warn(ctx, "compensating delete failed", "key", key, "error", err)
	recordOrphan(ctx, q.journal, q.log, key, models.OrphanCompensationFailed)
}

func (q *UploadQueue) fail(e *queueEntry, err *common.Error) error {
	uploadsTotal.WithLabelValues("error").Inc()
	q.update(e, func(e *queueEntry) {
		e.status = models.UploadError
		e.err = err
	})
	q.log.Warn(context.Background(), "upload failed", "file", e.file.Name(), "kind", err.Kind.String(), "error", err)
	return err
}

func (q *UploadQueue) update(e *queueEntry, fn func(*queueEntry)) {
	q.mu.Lock()
	fn(e)
	snap := e.snapshot()
	q.mu.Unlock()

	if q.cfg.OnChange != nil {
		q.cfg.OnChange(snap)
	}
}

func (e *queueEntry) snapshot() models.QueueEntry {
	return models.QueueEntry{
		ID:       e.id,
		Name:     e.file.Name(),
		Size:     e.file.Size(),
		MimeType: e.file.ContentType(),
		Status:   e.status,
		Progress: e.progress,
		Err:      e.err,
		Document: e.doc,
	}
}

func recordOrphan(ctx context.Context, journal orphans.Repository, log logging.Logger, key, reason string) {
	if journal == nil {
		return
	}
	if err := journal.Record(ctx, key, reason); err != nil {
		log.Error(ctx, "could not record orphan object", "key", key, "reason", reason, "error", err)
		return
	}
	orphansRecordedTotal.WithLabelValues(reason).Inc()
}

// progressReader reports whole-percent progress as bytes are read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
