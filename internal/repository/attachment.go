package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axon-labs/axon/internal/domain"
)

type AttachmentRepository struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attachments (id, item_id, user_id, filename, mime_type, sha256, storage_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ItemID, a.UserID, a.Filename, a.MimeType, nullableString(a.SHA256), a.StorageKey, a.CreatedAt,
	)
	return err
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var a domain.Attachment
	var sha *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, item_id, user_id, filename, mime_type, sha256, storage_key, created_at
		 FROM attachments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ItemID, &a.UserID, &a.Filename, &a.MimeType, &sha, &a.StorageKey, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	if sha != nil {
		a.SHA256 = *sha
	}
	return &a, nil
}

func (r *AttachmentRepository) ListByItem(ctx context.Context, itemID string) ([]*domain.Attachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, user_id, filename, mime_type, sha256, storage_key, created_at
		 FROM attachments WHERE item_id = $1 ORDER BY created_at DESC`,
		itemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		var sha *string
		if err := rows.Scan(&a.ID, &a.ItemID, &a.UserID, &a.Filename, &a.MimeType, &sha, &a.StorageKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		if sha != nil {
			a.SHA256 = *sha
		}
		attachments = append(attachments, &a)
	}
	return attachments, rows.Err()
}

func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM attachments WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}
