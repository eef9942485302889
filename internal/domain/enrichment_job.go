package domain

import (
	"fmt"
	"time"
)

// EnrichmentJobStatus represents the status of an enrichment job
type EnrichmentJobStatus string

const (
	EnrichmentJobStatusPending    EnrichmentJobStatus = "pending"
	EnrichmentJobStatusProcessing EnrichmentJobStatus = "processing"
	EnrichmentJobStatusCompleted  EnrichmentJobStatus = "completed"
	EnrichmentJobStatusFailed     EnrichmentJobStatus = "failed"
)

// EnrichmentJob represents an async job that computes a summary, tags and an
// embedding for a knowledge item after capture.
type EnrichmentJob struct {
	ID          string
	ItemID      string
	Status      EnrichmentJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewEnrichmentJob creates a new EnrichmentJob instance
func NewEnrichmentJob(
	id, itemID string,
	status EnrichmentJobStatus,
	retries int32,
	errMsg string,
	createdAt time.Time,
	processedAt *time.Time,
) *EnrichmentJob {
	return &EnrichmentJob{
		ID:          id,
		ItemID:      itemID,
		Status:      status,
		Retries:     retries,
		Error:       errMsg,
		CreatedAt:   createdAt,
		ProcessedAt: processedAt,
	}
}

// ValidateEnrichmentJob validates an EnrichmentJob instance
func ValidateEnrichmentJob(j *EnrichmentJob) error {
	if j == nil {
		return fmt.Errorf("enrichment job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("enrichment job ID is required")
	}

	if j.ItemID == "" {
		return fmt.Errorf("enrichment job ItemID is required")
	}

	if !isValidEnrichmentJobStatus(j.Status) {
		return fmt.Errorf("enrichment job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("enrichment job Retries cannot be negative")
	}

	return nil
}

// isValidEnrichmentJobStatus checks if an EnrichmentJobStatus is valid
func isValidEnrichmentJobStatus(s EnrichmentJobStatus) bool {
	switch s {
	case EnrichmentJobStatusPending, EnrichmentJobStatusProcessing,
		EnrichmentJobStatusCompleted, EnrichmentJobStatusFailed:
		return true
	}
	return false
}
