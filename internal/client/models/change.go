package models

// ChangeOp is the kind of row change reported by a change feed.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeUpdate ChangeOp = "UPDATE"
	ChangeDelete ChangeOp = "DELETE"
)

// ChangeEvent is one push notification about the documents table.
type ChangeEvent struct {
	Op     ChangeOp `json:"op"`
	ID     string   `json:"id"`
	DealID string   `json:"deal_id"`
}
