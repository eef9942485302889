//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/service"
	"github.com/axon-labs/axon/internal/testutil"
)

func TestTxRunner_CommitsItemAndJobTogether(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	user := createTestUser(ctx, t, pool)
	item := newTestItem(user.ID, "Tx note")
	job := &domain.EnrichmentJob{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Status:    domain.EnrichmentJobStatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	err := NewTxRunner(pool).WithTx(ctx, func(repos service.TxRepositories) error {
		if err := repos.Items().Create(ctx, item); err != nil {
			return err
		}
		return repos.EnrichmentJobs().Create(ctx, job)
	})
	require.NoError(t, err)

	_, err = NewItemRepository(pool).GetByID(ctx, item.ID)
	require.NoError(t, err)

	retrieved, err := NewEnrichmentJobRepository(pool).GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, retrieved.ItemID)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	user := createTestUser(ctx, t, pool)
	item := newTestItem(user.ID, "Rolled back")

	err := NewTxRunner(pool).WithTx(ctx, func(repos service.TxRepositories) error {
		if err := repos.Items().Create(ctx, item); err != nil {
			return err
		}
		return fmt.Errorf("forced failure")
	})
	require.Error(t, err)

	_, err = NewItemRepository(pool).GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}
