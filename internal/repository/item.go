package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/pagination"
	"github.com/axon-labs/axon/internal/service"
)

const itemColumns = `id, user_id, type, title, content, source_url, tags, summary, created_at, updated_at`

type ItemRepository struct {
	db dbtx
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: pool}
}

func NewItemRepositoryWithTx(tx pgx.Tx) *ItemRepository {
	return &ItemRepository{db: tx}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.KnowledgeItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_items (id, user_id, type, title, content, source_url, tags, summary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.UserID, item.Type, item.Title, item.Content, nullableString(item.SourceURL),
		item.Tags, nullableString(item.Summary), item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items WHERE id = $1`,
		id,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// GetRecent returns the most recently created items for a user, newest first.
func (r *ItemRepository) GetRecent(ctx context.Context, userID string, limit int) ([]*domain.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItemRows(rows)
}

// Search does a keyword match over title, content and tags, newest first.
func (r *ItemRepository) Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items
		 WHERE user_id = $1
		   AND (title ILIKE '%' || $2 || '%'
		     OR content ILIKE '%' || $2 || '%'
		     OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $2 || '%'))
		 ORDER BY updated_at DESC
		 LIMIT $3`,
		userID, query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItemRows(rows)
}

func (r *ItemRepository) ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*service.ItemPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE user_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			userID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE user_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			userID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.ItemPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *domain.KnowledgeItem) error {
	item.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items
		 SET type = $1, title = $2, content = $3, source_url = $4, tags = $5, updated_at = $6
		 WHERE id = $7`,
		item.Type, item.Title, item.Content, nullableString(item.SourceURL), item.Tags, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_items WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// UpdateEnrichment attaches the generated summary and tags to an item.
func (r *ItemRepository) UpdateEnrichment(ctx context.Context, id, summary string, tags []string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items SET summary = $1, tags = $2, updated_at = $3 WHERE id = $4`,
		nullableString(summary), tags, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*domain.KnowledgeItem, error) {
	var item domain.KnowledgeItem
	var sourceURL, summary *string
	err := row.Scan(&item.ID, &item.UserID, &item.Type, &item.Title, &item.Content,
		&sourceURL, &item.Tags, &summary, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sourceURL != nil {
		item.SourceURL = *sourceURL
	}
	if summary != nil {
		item.Summary = *summary
	}
	return &item, nil
}

func scanItemRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var results []*domain.KnowledgeItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
