package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

func TestAudit_FindsOrphansAndDanglingRows(t *testing.T) {
	kept := mkDoc("1", "deal1", "cim", "memo.pdf", t0)
	dangling := mkDoc("2", "deal1", "legal", "gone.pdf", t0)
	store := newFakeStore(kept.ObjectKey, "deal1/financials/1690000000-report.pdf", "deal2/cim/1-x.pdf")
	repo := newFakeRepo(kept, dangling)

	rep, err := NewAuditor(repo, store, nil, logging.Nop{}).Audit(context.Background(), "deal1")
	require.NoError(t, err)
	assert.Equal(t, []string{"deal1/financials/1690000000-report.pdf"}, rep.OrphanObjects)
	require.Len(t, rep.DanglingDocuments, 1)
	assert.Equal(t, "2", rep.DanglingDocuments[0].ID)
}

func TestAudit_ListingError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errBoom
	_, err := NewAuditor(newFakeRepo(), store, nil, logging.Nop{}).Audit(context.Background(), "deal1")
	assert.ErrorIs(t, err, errBoom)
}

func TestSweep(t *testing.T) {
	live := mkDoc("1", "deal1", "cim", "memo.pdf", t0)
	store := newFakeStore("deal1/legal/1-orphan.pdf", live.ObjectKey)
	repo := newFakeRepo(live)
	journal := newFakeJournal()
	ctx := context.Background()
	require.NoError(t, journal.Record(ctx, "deal1/legal/1-orphan.pdf", models.OrphanDeleteFailed))
	require.NoError(t, journal.Record(ctx, live.ObjectKey, models.OrphanCompensationFailed))

	rep, err := NewAuditor(repo, store, journal, logging.Nop{}).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deal1/legal/1-orphan.pdf"}, rep.Removed)
	assert.Equal(t, []string{live.ObjectKey}, rep.Referenced)
	assert.Empty(t, rep.Failed)

	assert.False(t, store.Has("deal1/legal/1-orphan.pdf"))
	assert.True(t, store.Has(live.ObjectKey))
	left, _ := journal.List(ctx)
	assert.Empty(t, left)
}

func TestSweep_KeepsFailedKeys(t *testing.T) {
	store := newFakeStore("deal1/legal/1-orphan.pdf")
	store.removeErr = errBoom
	journal := newFakeJournal()
	ctx := context.Background()
	require.NoError(t, journal.Record(ctx, "deal1/legal/1-orphan.pdf", models.OrphanDeleteFailed))

	rep, err := NewAuditor(newFakeRepo(), store, journal, logging.Nop{}).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deal1/legal/1-orphan.pdf"}, rep.Failed)
	left, _ := journal.List(ctx)
	assert.Len(t, left, 1)
}

func TestSweep_NoJournal(t *testing.T) {
	rep, err := NewAuditor(newFakeRepo(), newFakeStore(), nil, logging.Nop{}).Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Removed)
}
