package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// AuditReport lists the drift between the two stores for one deal.
type AuditReport struct {
	DealID string
	// OrphanObjects are keys with no metadata row.
	OrphanObjects []string
	// DanglingDocuments are rows whose object is missing.
	DanglingDocuments []models.Document
}

type SweepReport struct {
	Removed []string
	// Referenced keys were journalled but a row points at them again; they
	// are dropped from the journal without touching the object.
	Referenced []string
	Failed     []string
}

// Auditor finds and cleans up orphan objects.
type Auditor struct {
	repo    documents.Repository
	store   objectstore.Store
	journal orphans.Repository
	log     logging.Logger
}

func NewAuditor(repo documents.Repository, store objectstore.Store, journal orphans.Repository, log logging.Logger) *Auditor {
	return &Auditor{repo: repo, store: store, journal: journal, log: log.With("component", "auditor")}
}

// Audit compares every object under "{dealID}/" with the deal's rows.
func (a *Auditor) Audit(ctx context.Context, dealID string) (AuditReport, error) {
	rep := AuditReport{DealID: dealID}

	prefix := ""
	if dealID != "" {
		prefix = dealID + "/"
	}
	keys, err := a.store.Walk(ctx, prefix)
	if err != nil {
		return rep, fmt.Errorf("audit: %w", err)
	}
	docs, err := a.repo.List(ctx, dealID)
	if err != nil {
		return rep, fmt.Errorf("audit: %w", err)
	}

	objects := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		objects[k] = struct{}{}
	}
	referenced := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		referenced[d.ObjectKey] = struct{}{}
		if _, ok := objects[d.ObjectKey]; !ok {
			rep.DanglingDocuments = append(rep.DanglingDocuments, d)
		}
	}
	for _, k := range keys {
		if _, ok := referenced[k]; !ok {
			rep.OrphanObjects = append(rep.OrphanObjects, k)
		}
	}
	sort.Strings(rep.OrphanObjects)

	a.log.Info(ctx, "audit finished", "deal_id", dealID,
		"objects", len(keys), "documents", len(docs),
		"orphans", len(rep.OrphanObjects), "dangling", len(rep.DanglingDocuments))
	return rep, nil
}

// Sweep retries the deletes recorded in the orphan journal.
func (a *Auditor) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	if a.journal == nil {
		return rep, nil
	}

	entries, err := a.journal.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("sweep: %w", err)
	}

	for _, o := range entries {
		used, err := a.repo.ExistsByObjectKey(ctx, o.ObjectKey)
		if err != nil {
			a.log.Warn(ctx, "sweep could not check key", "key", o.ObjectKey, "error", err)
			rep.Failed = append(rep.Failed, o.ObjectKey)
			continue
		}
		if used {
			rep.Referenced = append(rep.Referenced, o.ObjectKey)
			continue
		}
		if err := a.store.Remove(ctx, o.ObjectKey); err != nil {
			a.log.Warn(ctx, "sweep could not delete object", "key", o.ObjectKey, "error", err)
			rep.Failed = append(rep.Failed, o.ObjectKey)
			continue
		}
		rep.Removed = append(rep.Removed, o.ObjectKey)
	}

	done := append(append([]string{}, rep.Removed...), rep.Referenced...)
	if err := a.journal.Prune(ctx, done); err != nil {
		return rep, fmt.Errorf("sweep: %w", err)
	}

	a.log.Info(ctx, "sweep finished", "removed", len(rep.Removed), "referenced", len(rep.Referenced), "failed", len(rep.Failed))
	return rep, nil
}
