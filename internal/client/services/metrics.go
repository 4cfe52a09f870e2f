package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealdocs_uploads_total",
		Help: "Upload queue entries finished, by status.",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealdocs_upload_bytes_total",
		Help: "Bytes written to the object store by successful uploads.",
	})

	activeUploads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dealdocs_active_uploads",
		Help: "Uploads currently in flight.",
	})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealdocs_downloads_total",
		Help: "Download attempts, by status.",
	}, []string{"status"})

	deletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealdocs_deletions_total",
		Help: "Document deletions, by outcome.",
	}, []string{"status"})

	orphansRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealdocs_orphans_recorded_total",
		Help: "Object keys written to the orphan journal, by reason.",
	}, []string{"reason"})

	changeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealdocs_change_events_total",
		Help: "Change notifications applied, by operation.",
	}, []string{"op"})

	previewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealdocs_preview_cache_hits_total",
		Help: "Preview URL cache hits.",
	})
	previewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealdocs_preview_cache_misses_total",
		Help: "Preview URL cache misses.",
	})
)
