package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axon-labs/axon/internal/domain"
)

type EnrichmentJobRepository struct {
	db dbtx
}

func NewEnrichmentJobRepository(pool *pgxpool.Pool) *EnrichmentJobRepository {
	return &EnrichmentJobRepository{db: pool}
}

func NewEnrichmentJobRepositoryWithTx(tx pgx.Tx) *EnrichmentJobRepository {
	return &EnrichmentJobRepository{db: tx}
}

func (r *EnrichmentJobRepository) Create(ctx context.Context, job *domain.EnrichmentJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, item_id, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.ItemID, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *EnrichmentJobRepository) GetByID(ctx context.Context, id string) (*domain.EnrichmentJob, error) {
	var job domain.EnrichmentJob
	var errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, item_id, status, retries, error, created_at, processed_at
		 FROM enrichment_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.ItemID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrCodeNotFound, "enrichment job not found")
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending atomically moves up to limit pending jobs to processing and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming
// the same job.
func (r *EnrichmentJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.EnrichmentJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM enrichment_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE enrichment_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE enrichment_jobs.id = cte.id
		 RETURNING enrichment_jobs.id, enrichment_jobs.item_id, enrichment_jobs.status,
		           enrichment_jobs.retries, enrichment_jobs.error, enrichment_jobs.created_at,
		           enrichment_jobs.processed_at`,
		domain.EnrichmentJobStatusPending, limit, domain.EnrichmentJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.EnrichmentJob
	for rows.Next() {
		var job domain.EnrichmentJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.ItemID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (r *EnrichmentJobRepository) UpdateStatus(ctx context.Context, id string, status domain.EnrichmentJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.EnrichmentJobStatusCompleted || status == domain.EnrichmentJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE enrichment_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCodeNotFound, "enrichment job not found")
	}
	return nil
}

func (r *EnrichmentJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE enrichment_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCodeNotFound, "enrichment job not found")
	}
	return nil
}
