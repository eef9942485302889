package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/axon-labs/axon/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3
	// claimBatchSize caps how many jobs one poll claims
	claimBatchSize = 20
)

// EnrichmentJobRepository defines the interface for enrichment job persistence
type EnrichmentJobRepository interface {
	// ClaimPending atomically claims pending jobs for processing
	ClaimPending(ctx context.Context, limit int) ([]*domain.EnrichmentJob, error)

	// UpdateStatus updates the status of an enrichment job
	UpdateStatus(ctx context.Context, jobID string, status domain.EnrichmentJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// EnrichmentItemRepository defines the item operations enrichment needs
type EnrichmentItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	UpdateEnrichment(ctx context.Context, id, summary string, tags []string) error
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Enricher produces the generated summary and tags for an item
type Enricher interface {
	Summarize(ctx context.Context, content string) (string, error)
	GenerateTags(ctx context.Context, title, content string) ([]string, error)
}

// Embedder converts text into an embedding vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EnrichmentWorker processes enrichment jobs: for each captured item it
// generates a summary, tags and an embedding and attaches them to the item.
type EnrichmentWorker struct {
	jobRepo  EnrichmentJobRepository
	itemRepo EnrichmentItemRepository
	enricher Enricher
	embedder Embedder
}

// NewEnrichmentWorker creates a new EnrichmentWorker instance. embedder may
// be nil when no embedding backend is configured; summary and tags are still
// generated.
func NewEnrichmentWorker(
	jobRepo EnrichmentJobRepository,
	itemRepo EnrichmentItemRepository,
	enricher Enricher,
	embedder Embedder,
) *EnrichmentWorker {
	return &EnrichmentWorker{
		jobRepo:  jobRepo,
		itemRepo: itemRepo,
		enricher: enricher,
		embedder: embedder,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *EnrichmentWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.jobRepo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d pending enrichment jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *EnrichmentWorker) processJob(ctx context.Context, job *domain.EnrichmentJob) error {
	if err := w.enrichItem(ctx, job.ItemID); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("job %s completed for item %s", job.ID, job.ItemID)
	return nil
}

func (w *EnrichmentWorker) enrichItem(ctx context.Context, itemID string) error {
	item, err := w.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	summary, err := w.enricher.Summarize(ctx, item.Content)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	// User-supplied tags win; generation only fills the gap
	tags := item.Tags
	if len(tags) == 0 {
		tags, err = w.enricher.GenerateTags(ctx, item.Title, item.Content)
		if err != nil {
			return fmt.Errorf("failed to generate tags: %w", err)
		}
	}

	if err := w.itemRepo.UpdateEnrichment(ctx, itemID, summary, tags); err != nil {
		return fmt.Errorf("failed to attach enrichment: %w", err)
	}

	if w.embedder != nil {
		embedding, err := w.embedder.GenerateEmbedding(ctx, item.Title+"\n\n"+item.Content)
		if err != nil {
			return fmt.Errorf("failed to generate embedding: %w", err)
		}
		if err := w.itemRepo.UpdateEmbedding(ctx, itemID, embedding); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}

	return nil
}

// handleJobFailure re-pends a failed job until MaxRetries, then marks it
// failed permanently.
func (w *EnrichmentWorker) handleJobFailure(ctx context.Context, job *domain.EnrichmentJob, jobErr error) error {
	log.Printf("job %s failed: %v", job.ID, jobErr)

	if err := w.jobRepo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.jobRepo.UpdateStatus(ctx, job.ID, domain.EnrichmentJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
