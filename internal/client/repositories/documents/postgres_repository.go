// Package documents persists Document metadata rows in PostgreSQL.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, deal_id, name, file_path, file_size, file_type, tag, confidentiality_level, version, uploaded_by, created_at`

func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) error {
	query :=
		`INSERT INTO deal_documents (id, deal_id, name, file_path, file_size, file_type, tag, confidentiality_level, version, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	res, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.DealID, doc.Name, doc.ObjectKey,
		nullInt64(doc.Size), nullString(doc.MimeType), doc.Category, nullString(doc.ConfidentialityLevel),
		doc.Version, doc.UploadedBy, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, dealID string) ([]models.Document, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if dealID == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM deal_documents ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM deal_documents WHERE deal_id=$1 ORDER BY created_at DESC`, dealID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM deal_documents WHERE id=$1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRowNotFound
		}
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM deal_documents WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrRowNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) ExistsByObjectKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM deal_documents WHERE file_path=$1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return exists, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*models.Document, error) {
	var (
		doc     models.Document
		size    sql.NullInt64
		mime    sql.NullString
		level   sql.NullString
		version sql.NullInt64
	)
	err := s.Scan(&doc.ID, &doc.DealID, &doc.Name, &doc.ObjectKey, &size, &mime,
		&doc.Category, &level, &version, &doc.UploadedBy, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.Size = size.Int64
	doc.MimeType = mime.String
	doc.ConfidentialityLevel = level.String
	doc.Version = int(version.Int64)
	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n > 0}
}
