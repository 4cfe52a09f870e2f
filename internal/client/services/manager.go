package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/client/accessgate"
	"github.com/dmitrijs2005/dealroom/internal/client/categories"
	"github.com/dmitrijs2005/dealroom/internal/client/changefeed"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// Deps are the collaborators of a DocumentManager. Journal, Feed and Gate
// are optional.
type Deps struct {
	Registry *categories.Registry
	Repo     documents.Repository
	Store    objectstore.Store
	Journal  orphans.Repository
	Feed     changefeed.Feed
	Gate     accessgate.Gate
	Log      logging.Logger
}

type Options struct {
	// DealID scopes everything; empty is the global view, which cannot upload.
	DealID            string
	UploadedBy        string
	Surface           models.Surface
	UploadConcurrency int
	RefetchDelay      time.Duration
	DownloadDir       string
	// OnQueueChange observes every queue entry change of every category.
	OnQueueChange func(category string, e models.QueueEntry)
}

// DocumentManager owns one mounted document view: the catalog, the
// per-category upload queues and the components reading and writing it.
type DocumentManager struct {
	Registry   *categories.Registry
	Catalog    *Catalog
	Broker     *DownloadBroker
	Deleter    *DeletionCoordinator
	Reconciler *Reconciler
	Auditor    *Auditor

	Cards  *CategoryView
	Status *StatusPanel
	List   *FlatList

	deps Deps
	opts Options
	log  logging.Logger

	mu     sync.Mutex
	queues map[string]*UploadQueue
}

func NewDocumentManager(d Deps, o Options) *DocumentManager {
	if d.Registry == nil {
		d.Registry = categories.NewRegistry(nil)
	}
	if d.Log == nil {
		d.Log = logging.Nop{}
	}

	catalog := NewCatalog(d.Repo, o.DealID, d.Log)
	broker := NewDownloadBroker(NewVerifier(d.Store, d.Log), d.Store, d.Gate, o.DownloadDir, d.Log)
	deleter := NewDeletionCoordinator(d.Repo, d.Store, catalog, d.Journal, o.RefetchDelay, d.Log)
	deleter.onRemoved = broker.Forget

	m := &DocumentManager{
		Registry: d.Registry,
		Catalog:  catalog,
		Broker:   broker,
		Deleter:  deleter,
		Auditor:  NewAuditor(d.Repo, d.Store, d.Journal, d.Log),
		Cards:    NewCategoryView(d.Registry, catalog),
		Status:   NewStatusPanel(d.Registry, catalog),
		List:     NewFlatList(d.Registry, catalog),
		deps:     d,
		opts:     o,
		log:      d.Log.With("component", "document_manager", "deal_id", o.DealID),
		queues:   make(map[string]*UploadQueue),
	}
	if d.Feed != nil {
		m.Reconciler = NewReconciler(d.Feed, catalog, d.Log)
	}
	return m
}

// Open loads the catalog and subscribes to the change feed.
func (m *DocumentManager) Open(ctx context.Context) error {
	if err := m.Catalog.Refetch(ctx); err != nil {
		return err
	}
	if m.Reconciler != nil {
		m.Reconciler.Start(ctx)
	}
	return nil
}

// Queue returns the upload queue of category, creating it on first use.
func (m *DocumentManager) Queue(category string) (*UploadQueue, error) {
	if m.opts.DealID == "" {
		return nil, common.NewError(common.KindValidation, "upload queue", "select a deal before uploading", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[category]; ok {
		return q, nil
	}

	cfg := QueueConfig{
		DealID:      m.opts.DealID,
		Category:    category,
		Surface:     m.opts.Surface,
		UploadedBy:  m.opts.UploadedBy,
		Concurrency: m.opts.UploadConcurrency,
	}
	if fn := m.opts.OnQueueChange; fn != nil {
		cfg.OnChange = func(e models.QueueEntry) { fn(category, e) }
	}

	q, err := NewUploadQueue(m.Registry, m.Catalog, m.deps.Store, m.deps.Repo, m.deps.Journal, cfg, m.deps.Log)
	if err != nil {
		return nil, err
	}
	m.queues[category] = q
	return q, nil
}

// Queues returns the queues created so far.
func (m *DocumentManager) Queues() map[string]*UploadQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*UploadQueue, len(m.queues))
	for k, q := range m.queues {
		out[k] = q
	}
	return out
}

// Document returns id from the catalog, falling back to the metadata store
// for documents the catalog has not seen yet.
func (m *DocumentManager) Document(ctx context.Context, id string) (models.Document, error) {
	if doc, ok := m.Catalog.Get(id); ok {
		return doc, nil
	}
	doc, err := m.deps.Repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrRowNotFound) || (err == nil && !m.Catalog.InScope(doc.DealID)) {
		return models.Document{}, common.NewError(common.KindNotFound, "get document", "no such document", err)
	}
	if err != nil {
		return models.Document{}, common.NewError(common.KindUnknown, "get document", "could not load document", err)
	}
	m.Catalog.Upsert(*doc)
	return *doc, nil
}

// Delete resolves id and deletes the document.
func (m *DocumentManager) Delete(ctx context.Context, id string) (models.Document, error) {
	doc, err := m.Document(ctx, id)
	if err != nil {
		return doc, err
	}
	return doc, m.Deleter.Delete(ctx, doc)
}

// Close tears the view down: in-flight uploads are canceled, the change
// feed subscription is stopped and background deletes are awaited.
func (m *DocumentManager) Close() {
	for _, q := range m.Queues() {
		q.Cancel()
	}
	if m.Reconciler != nil {
		m.Reconciler.Stop()
	}
	m.Deleter.Wait()
	m.log.Debug(context.Background(), "document manager closed")
}
