package models

import "time"

// Reasons an object key ends up in the orphan journal.
const (
	OrphanDeleteFailed       = "delete_failed"
	OrphanCompensationFailed = "compensation_failed"
)

// Orphan is an object-store key believed to have no metadata row.
type Orphan struct {
	ObjectKey  string
	Reason     string
	RecordedAt time.Time
}
