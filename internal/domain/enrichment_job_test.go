package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentJobStatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		status   EnrichmentJobStatus
		expected string
	}{
		{"Pending", EnrichmentJobStatusPending, "pending"},
		{"Processing", EnrichmentJobStatusProcessing, "processing"},
		{"Completed", EnrichmentJobStatusCompleted, "completed"},
		{"Failed", EnrichmentJobStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestNewEnrichmentJob(t *testing.T) {
	now := time.Now()
	job := NewEnrichmentJob("j1", "i1", EnrichmentJobStatusPending, 0, "", now, nil)

	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "i1", job.ItemID)
	assert.Equal(t, EnrichmentJobStatusPending, job.Status)
	assert.Equal(t, int32(0), job.Retries)
	assert.Equal(t, "", job.Error)
	assert.Equal(t, now, job.CreatedAt)
	assert.Nil(t, job.ProcessedAt)
}

func TestValidateEnrichmentJob(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		job     *EnrichmentJob
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid job",
			job: &EnrichmentJob{
				ID:        "j1",
				ItemID:    "i1",
				Status:    EnrichmentJobStatusPending,
				CreatedAt: now,
			},
			wantErr: false,
		},
		{
			name: "missing ID",
			job: &EnrichmentJob{
				ItemID:    "i1",
				Status:    EnrichmentJobStatusPending,
				CreatedAt: now,
			},
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name: "missing ItemID",
			job: &EnrichmentJob{
				ID:        "j1",
				Status:    EnrichmentJobStatusPending,
				CreatedAt: now,
			},
			wantErr: true,
			errMsg:  "ItemID",
		},
		{
			name: "invalid Status",
			job: &EnrichmentJob{
				ID:        "j1",
				ItemID:    "i1",
				Status:    EnrichmentJobStatus("queued"),
				CreatedAt: now,
			},
			wantErr: true,
			errMsg:  "Status",
		},
		{
			name: "negative Retries",
			job: &EnrichmentJob{
				ID:        "j1",
				ItemID:    "i1",
				Status:    EnrichmentJobStatusPending,
				Retries:   -1,
				CreatedAt: now,
			},
			wantErr: true,
			errMsg:  "Retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnrichmentJob(tt.job)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
