package changefeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// newKafkaReader is a seam for tests.
var newKafkaReader = func(cfg kafka.ReaderConfig) messageReader {
	return kafka.NewReader(cfg)
}

// KafkaFeed consumes a CDC topic whose message values carry the change
// payload. Each Listen call opens its own reader, so one feed can serve
// every view mounted during a session.
type KafkaFeed struct {
	config  kafka.ReaderConfig
	backoff time.Duration
	log     logging.Logger
}

// NewKafkaFeed reads topic as consumer group groupID. Every view must see
// every change, so an empty groupID gets a group of its own
// ("dealdocs-<uuid>") that starts at the end of the topic.
func NewKafkaFeed(brokers []string, topic, groupID string, log logging.Logger) *KafkaFeed {
	if groupID == "" {
		groupID = "dealdocs-" + uuid.NewString()
	}
	return &KafkaFeed{
		config: kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    10 << 20,
			StartOffset: kafka.LastOffset,
		},
		backoff: time.Second,
		log:     log.With("component", "kafka_changefeed", "topic", topic, "group", groupID),
	}
}

// GroupID reports the consumer group the feed reads as.
func (f *KafkaFeed) GroupID() string { return f.config.GroupID }

// Listen keeps reading across transient broker errors; it only returns
// when ctx is done or the reader has been closed.
func (f *KafkaFeed) Listen(ctx context.Context, fn func(models.ChangeEvent)) error {
	reader := newKafkaReader(f.config)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("kafka reader closed: %w", err)
			}
			f.log.Warn(ctx, "kafka read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(f.backoff):
			}
			continue
		}

		ev, err := ParseEvent(msg.Value)
		if err != nil {
			f.log.Warn(ctx, "dropping change message", "offset", msg.Offset, "error", err)
			continue
		}
		fn(ev)
	}
}
