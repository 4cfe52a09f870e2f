// Package changefeed delivers push notifications about rows of the
// deal_documents table. Two transports carry the same JSON payload:
// PostgreSQL LISTEN/NOTIFY and a Kafka CDC topic.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

// DefaultChannel is the NOTIFY channel written by the table trigger.
const DefaultChannel = "deal_documents_changes"

var ErrBadPayload = errors.New("bad change payload")

// Feed is a push notification source. Listen blocks, calling fn for each
// event, until ctx is done (returns nil) or the feed fails.
type Feed interface {
	Listen(ctx context.Context, fn func(models.ChangeEvent)) error
}

// ParseEvent decodes {"op":"INSERT|UPDATE|DELETE","id":"...","deal_id":"..."}.
func ParseEvent(b []byte) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	switch ev.Op {
	case models.ChangeInsert, models.ChangeUpdate, models.ChangeDelete:
	default:
		return ev, fmt.Errorf("%w: unknown op %q", ErrBadPayload, ev.Op)
	}
	if ev.ID == "" {
		return ev, fmt.Errorf("%w: missing id", ErrBadPayload)
	}
	return ev, nil
}
