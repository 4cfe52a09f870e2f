package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/client/changefeed"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// Reconciler merges change notifications into a Catalog. Deletes are
// applied directly; inserts and updates trigger a full refetch.
type Reconciler struct {
	feed       changefeed.Feed
	catalog    *Catalog
	log        logging.Logger
	backoff    time.Duration
	maxBackoff time.Duration

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func NewReconciler(feed changefeed.Feed, catalog *Catalog, log logging.Logger) *Reconciler {
	return &Reconciler{
		feed:       feed,
		catalog:    catalog,
		log:        log.With("component", "reconciler"),
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Start subscribes in the background. Calling Start on a running
// reconciler is a no-op. The subscription lives until Stop or until ctx
// is done; a feed that drops is resubscribed with backoff.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.stop, r.done = cancel, done

	go func() {
		defer close(done)
		r.run(ctx)
	}()
}

func (r *Reconciler) run(ctx context.Context) {
	wait := r.backoff
	for {
		started := time.Now()
		err := r.feed.Listen(ctx, func(ev models.ChangeEvent) { r.Apply(ctx, ev) })
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > r.maxBackoff {
			wait = r.backoff
		}
		r.log.Warn(ctx, "change feed dropped, resubscribing", "error", err, "backoff", wait)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		wait = min(wait*2, r.maxBackoff)

		// changes made while unsubscribed were never delivered
		if err := r.catalog.Refetch(ctx); err != nil {
			r.log.Warn(ctx, "refetch after resubscribe failed", "error", err)
		}
	}
}

// Stop tears the subscription down and waits for it to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
}

// Apply merges one event. Events for other deals are ignored.
func (r *Reconciler) Apply(ctx context.Context, ev models.ChangeEvent) {
	if !r.catalog.InScope(ev.DealID) {
		return
	}
	changeEventsTotal.WithLabelValues(string(ev.Op)).Inc()

	switch ev.Op {
	case models.ChangeDelete:
		r.catalog.Remove(ev.ID)
	case models.ChangeInsert, models.ChangeUpdate:
		if err := r.catalog.Refetch(ctx); err != nil {
			r.log.Warn(ctx, "refetch after change failed", "op", ev.Op, "id", ev.ID, "error", err)
		}
	}
}
