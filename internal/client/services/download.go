package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dmitrijs2005/dealroom/internal/client/accessgate"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/filex"
	"github.com/dmitrijs2005/dealroom/internal/logging"
	"github.com/dmitrijs2005/dealroom/internal/netx"
)

const (
	// DownloadURLTTL is short: the URL is fetched once, right away.
	DownloadURLTTL = 300 * time.Second
	// PreviewURLTTL is longer because previews are read in place.
	PreviewURLTTL = 3600 * time.Second

	previewCacheTTL  = PreviewURLTTL - 5*time.Minute
	previewCacheSize = 256
)

var getPresigned = netx.GetPresigned

// DownloadBroker hands out document contents after the access gate and the
// existence check have both passed.
type DownloadBroker struct {
	verifier *Verifier
	store    objectstore.Store
	gate     accessgate.Gate
	dir      string
	log      logging.Logger
	previews *expirable.LRU[string, string]
}

// NewDownloadBroker saves downloads into dir. A nil gate is always open.
func NewDownloadBroker(verifier *Verifier, store objectstore.Store, gate accessgate.Gate, dir string, log logging.Logger) *DownloadBroker {
	if gate == nil {
		gate = accessgate.Static(true)
	}
	return &DownloadBroker{
		verifier: verifier,
		store:    store,
		gate:     gate,
		dir:      dir,
		log:      log.With("component", "download_broker"),
		previews: expirable.NewLRU[string, string](previewCacheSize, nil, previewCacheTTL),
	}
}

// CanAccess reports whether preview and download are enabled for doc.
func (b *DownloadBroker) CanAccess(doc models.Document) bool {
	return b.gate.CanAccess(doc)
}

func (b *DownloadBroker) check(ctx context.Context, op string, doc models.Document) error {
	if !b.gate.CanAccess(doc) {
		return common.NewError(common.KindAccessDenied, op, "accept the NDA to access documents", nil)
	}
	if !b.verifier.Exists(ctx, doc.ObjectKey) {
		return common.NewError(common.KindNotFound, op, "file may have been moved or deleted", nil)
	}
	return nil
}

// Download fetches doc into the download directory and returns the local
// path. Existing files are never overwritten.
func (b *DownloadBroker) Download(ctx context.Context, doc models.Document) (string, error) {
	path, err := b.download(ctx, doc)
	if err != nil {
		downloadsTotal.WithLabelValues(common.KindOf(err).String()).Inc()
		b.log.Warn(ctx, "download failed", "id", doc.ID, "key", doc.ObjectKey, "error", err)
		return "", err
	}
	downloadsTotal.WithLabelValues("success").Inc()
	b.log.Info(ctx, "document downloaded", "id", doc.ID, "path", path)
	return path, nil
}

func (b *DownloadBroker) download(ctx context.Context, doc models.Document) (string, error) {
	if err := b.check(ctx, "download", doc); err != nil {
		return "", err
	}

	url, err := b.store.SignedURL(ctx, doc.ObjectKey, DownloadURLTTL)
	if err != nil {
		return "", common.NewError(common.KindDownloadFailed, "download", "could not get a download link", err)
	}

	body, err := getPresigned(ctx, url)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			return "", common.NewError(common.KindDownloadFailed, "download", fmt.Sprintf("download failed (%s)", se.Status), err)
		}
		if ctx.Err() != nil {
			return "", common.NewError(common.KindCanceled, "download", "download canceled", err)
		}
		return "", common.NewError(common.KindDownloadFailed, "download", "download failed", err)
	}
	defer body.Close()

	path, err := filex.SaveUnique(b.dir, doc.Name, body)
	if err != nil {
		if ctx.Err() != nil {
			return "", common.NewError(common.KindCanceled, "download", "download canceled", err)
		}
		return "", common.NewError(common.KindDownloadFailed, "download", "could not save "+doc.Name, err)
	}
	return path, nil
}

// PreviewURL returns a long-lived signed URL for reading doc in place.
// URLs are cached per object key for a little less than their lifetime.
func (b *DownloadBroker) PreviewURL(ctx context.Context, doc models.Document) (string, error) {
	if err := b.check(ctx, "preview", doc); err != nil {
		b.previews.Remove(doc.ObjectKey)
		return "", err
	}

	if url, ok := b.previews.Get(doc.ObjectKey); ok {
		previewCacheHits.Inc()
		return url, nil
	}
	previewCacheMisses.Inc()

	url, err := b.store.SignedURL(ctx, doc.ObjectKey, PreviewURLTTL)
	if err != nil {
		return "", common.NewError(common.KindDownloadFailed, "preview", "could not get a preview link", err)
	}
	b.previews.Add(doc.ObjectKey, url)
	return url, nil
}

// Forget drops a cached preview URL, e.g. after the document is deleted.
func (b *DownloadBroker) Forget(key string) {
	b.previews.Remove(key)
}
