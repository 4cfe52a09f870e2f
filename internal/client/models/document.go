// Package models defines the client-side data model of the deal-room
// document manager.
package models

import (
	"fmt"
	"time"
)

// Document is the metadata row describing one stored file. The binary
// itself lives in the object store under ObjectKey.
type Document struct {
	ID     string
	DealID string
	// Name is the original, user-facing filename.
	Name string
	// ObjectKey is "{dealId}/{category}/{unixMillis}-{name}".
	ObjectKey string
	// Size in bytes; 0 when unknown.
	Size     int64
	MimeType string
	// Category is a Registry key.
	Category string
	// ConfidentialityLevel is opaque to this module and consumed by the access gate.
	ConfidentialityLevel string
	// Version is written as 1 and never incremented; re-uploads create new rows.
	Version    int
	CreatedAt  time.Time
	UploadedBy string
}

// ObjectKey builds the deterministic object-store location of a file.
func ObjectKey(dealID, category string, at time.Time, name string) string {
	return fmt.Sprintf("%s/%s/%d-%s", dealID, category, at.UnixMilli(), name)
}
