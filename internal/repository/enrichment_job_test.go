//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/testutil"
)

func createItemWithJob(ctx context.Context, t *testing.T, pool *pgxpool.Pool, status domain.EnrichmentJobStatus, createdAt time.Time) *domain.EnrichmentJob {
	t.Helper()
	user := createTestUser(ctx, t, pool)

	item := newTestItem(user.ID, "Job target")
	require.NoError(t, NewItemRepository(pool).Create(ctx, item))

	job := &domain.EnrichmentJob{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Status:    status,
		CreatedAt: createdAt,
	}
	require.NoError(t, NewEnrichmentJobRepository(pool).Create(ctx, job))
	return job
}

func TestEnrichmentJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusPending, time.Now().UTC().Truncate(time.Microsecond))

	retrieved, err := NewEnrichmentJobRepository(pool).GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ItemID, retrieved.ItemID)
	assert.Equal(t, domain.EnrichmentJobStatusPending, retrieved.Status)
	assert.Equal(t, 0, retrieved.Retries)
	assert.Empty(t, retrieved.Error)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestEnrichmentJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewEnrichmentJobRepository(pool)
	base := time.Now().UTC().Truncate(time.Microsecond)

	oldest := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusPending, base.Add(-2*time.Minute))
	newest := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusPending, base)
	createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusCompleted, base.Add(-time.Hour))

	t.Run("claims oldest pending job first", func(t *testing.T) {
		claimed, err := jobRepo.ClaimPending(ctx, 1)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, oldest.ID, claimed[0].ID)
		assert.Equal(t, domain.EnrichmentJobStatusProcessing, claimed[0].Status)
	})

	t.Run("claimed job is not claimed again", func(t *testing.T) {
		claimed, err := jobRepo.ClaimPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, newest.ID, claimed[0].ID)
	})

	t.Run("nothing left to claim", func(t *testing.T) {
		claimed, err := jobRepo.ClaimPending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, claimed)
	})
}

func TestEnrichmentJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewEnrichmentJobRepository(pool)

	t.Run("completed sets processed_at", func(t *testing.T) {
		job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusProcessing, time.Now().UTC().Truncate(time.Microsecond))

		require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusCompleted, ""))

		updated, err := jobRepo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EnrichmentJobStatusCompleted, updated.Status)
		assert.NotNil(t, updated.ProcessedAt)
		assert.Empty(t, updated.Error)
	})

	t.Run("failed records the error", func(t *testing.T) {
		job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusProcessing, time.Now().UTC().Truncate(time.Microsecond))

		require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusFailed, "provider timeout"))

		updated, err := jobRepo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EnrichmentJobStatusFailed, updated.Status)
		assert.Equal(t, "provider timeout", updated.Error)
		assert.NotNil(t, updated.ProcessedAt)
	})

	t.Run("requeue clears processed_at", func(t *testing.T) {
		job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusFailed, time.Now().UTC().Truncate(time.Microsecond))

		require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusPending, ""))

		updated, err := jobRepo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EnrichmentJobStatusPending, updated.Status)
		assert.Nil(t, updated.ProcessedAt)
	})

	t.Run("unknown job", func(t *testing.T) {
		err := jobRepo.UpdateStatus(ctx, uuid.NewString(), domain.EnrichmentJobStatusCompleted, "")
		assert.Error(t, err)
	})
}

func TestEnrichmentJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewEnrichmentJobRepository(pool)
	job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusProcessing, time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))

	updated, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Retries)
}

func TestEnrichmentJobRepository_DeleteItemCascades(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewEnrichmentJobRepository(pool)
	job := createItemWithJob(ctx, t, pool, domain.EnrichmentJobStatusPending, time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, NewItemRepository(pool).Delete(ctx, job.ItemID))

	_, err := jobRepo.GetByID(ctx, job.ID)
	assert.Error(t, err)
}
