package orphans

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Record(ctx context.Context, key, reason string) error {
	query := `INSERT INTO orphans (object_key, reason, recorded_at) VALUES (?, ?, ?)
		ON CONFLICT(object_key) DO UPDATE SET reason = excluded.reason, recorded_at = excluded.recorded_at`
	if _, err := r.db.ExecContext(ctx, query, key, reason, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to record orphan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Orphan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT object_key, reason, recorded_at FROM orphans ORDER BY recorded_at, object_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to select orphans: %w", err)
	}
	defer rows.Close()

	var result []models.Orphan
	for rows.Next() {
		var o models.Orphan
		if err := rows.Scan(&o.ObjectKey, &o.Reason, &o.RecordedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Prune runs in its own transaction unless the repository is already bound
// to one.
func (r *SQLiteRepository) Prune(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	b, ok := r.db.(dbx.TxBeginner)
	if !ok {
		return prune(ctx, r.db, keys)
	}
	return dbx.WithTx(ctx, b, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return prune(ctx, tx, keys)
	})
}

func prune(ctx context.Context, db dbx.DBTX, keys []string) error {
	for _, k := range keys {
		if _, err := db.ExecContext(ctx, `DELETE FROM orphans WHERE object_key = ?`, k); err != nil {
			return fmt.Errorf("failed to prune orphan %s: %w", k, err)
		}
	}
	return nil
}
