package changefeed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

type notifyConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// pgxConnect is a seam for tests.
var pgxConnect = func(ctx context.Context, dsn string) (notifyConn, error) {
	return pgx.Connect(ctx, dsn)
}

// PostgresFeed listens on a NOTIFY channel over a dedicated connection.
type PostgresFeed struct {
	dsn     string
	channel string
	log     logging.Logger
}

func NewPostgresFeed(dsn, channel string, log logging.Logger) *PostgresFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PostgresFeed{dsn: dsn, channel: channel, log: log.With("component", "pg_changefeed")}
}

func (f *PostgresFeed) Listen(ctx context.Context, fn func(ev models.ChangeEvent)) error {
	conn, err := pgxConnect(ctx, f.dsn)
	if err != nil {
		return fmt.Errorf("connect change feed: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", f.channel, err)
	}
	f.log.Info(ctx, "listening for document changes", "channel", f.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := ParseEvent([]byte(n.Payload))
		if err != nil {
			f.log.Warn(ctx, "dropping change notification", "payload", n.Payload, "error", err)
			continue
		}
		fn(ev)
	}
}
