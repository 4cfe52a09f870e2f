package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// Catalog is the single in-memory document set that every view reads
// from. Writers (refetch, optimistic upserts and removals, change events)
// go through it; readers take snapshots and subscribe for changes.
type Catalog struct {
	repo   documents.Repository
	dealID string
	log    logging.Logger

	mu      sync.RWMutex
	docs    map[string]models.Document
	subs    map[int]chan struct{}
	nextSub int
}

// NewCatalog creates an empty catalog scoped to dealID; an empty dealID is
// the global, cross-deal scope.
func NewCatalog(repo documents.Repository, dealID string, log logging.Logger) *Catalog {
	return &Catalog{
		repo:   repo,
		dealID: dealID,
		log:    log.With("component", "catalog"),
		docs:   make(map[string]models.Document),
		subs:   make(map[int]chan struct{}),
	}
}

func (c *Catalog) DealID() string { return c.dealID }

// InScope reports whether a document of dealID belongs to this catalog.
func (c *Catalog) InScope(dealID string) bool {
	return c.dealID == "" || dealID == "" || c.dealID == dealID
}

// Refetch replaces the whole set with the metadata store's current rows.
func (c *Catalog) Refetch(ctx context.Context) error {
	docs, err := c.repo.List(ctx, c.dealID)
	if err != nil {
		return fmt.Errorf("refetch documents: %w", err)
	}

	next := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		next[d.ID] = d
	}

	c.mu.Lock()
	c.docs = next
	c.mu.Unlock()

	c.log.Debug(ctx, "catalog refetched", "documents", len(docs))
	c.notify()
	return nil
}

// Upsert adds or replaces doc. Documents of other deals are ignored.
func (c *Catalog) Upsert(doc models.Document) {
	if !c.InScope(doc.DealID) {
		return
	}
	c.mu.Lock()
	c.docs[doc.ID] = doc
	c.mu.Unlock()
	c.notify()
}

// Remove drops id and reports whether it was present.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	_, ok := c.docs[id]
	delete(c.docs, id)
	c.mu.Unlock()

	if ok {
		c.notify()
	}
	return ok
}

func (c *Catalog) Get(id string) (models.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[id]
	return d, ok
}

// Snapshot returns the documents newest first.
func (c *Catalog) Snapshot() []models.Document {
	c.mu.RLock()
	out := make([]models.Document, 0, len(c.docs))
	for _, d := range c.docs {
		out = append(out, d)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns how many documents of dealID are filed under category.
func (c *Catalog) Count(dealID, category string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, d := range c.docs {
		if d.Category == category && d.DealID == dealID {
			n++
		}
	}
	return n
}

// Subscribe returns a channel that receives a value after every change.
// Notifications coalesce: a slow reader sees at most one pending signal.
// The returned func unsubscribes and closes the channel.
func (c *Catalog) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Catalog) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
