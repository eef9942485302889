package rag

import (
	"context"
	"time"

	"github.com/axon-labs/axon/internal/domain"
)

const (
	// recentFetchLimit is how many recent items are fetched before time
	// filtering is applied.
	recentFetchLimit = 100
	// timeFilterLimit caps the number of time-filtered items used as context.
	timeFilterLimit = 10
	// keywordSearchLimit caps keyword search results used as context.
	keywordSearchLimit = 5
)

// ContextResult is the output of intent routing: the intent, the items chosen
// as generation context, and the time range when the intent was time
// filtered. Constructed per request, never persisted.
type ContextResult struct {
	Intent    Intent
	Notes     []*domain.KnowledgeItem
	TimeRange *TimeRange
}

// NoteStoreInterface defines the read operations the context engine needs.
// GetRecent returns items most-recent-first.
type NoteStoreInterface interface {
	GetRecent(ctx context.Context, userID string, limit int) ([]*domain.KnowledgeItem, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error)
}

// ContextEngine selects the knowledge items used as generation context for a
// message.
type ContextEngine struct {
	store NoteStoreInterface
	now   func() time.Time
}

// NewContextEngine creates a new ContextEngine instance
func NewContextEngine(store NoteStoreInterface) *ContextEngine {
	return &ContextEngine{
		store: store,
		now:   time.Now,
	}
}

// NewContextEngineWithClock creates a ContextEngine with an injected clock.
func NewContextEngineWithClock(store NoteStoreInterface, now func() time.Time) *ContextEngine {
	return &ContextEngine{
		store: store,
		now:   now,
	}
}

// GetContext classifies the message and selects the item set to use as
// generation context. Store errors propagate unchanged; there is no retry
// here.
func (e *ContextEngine) GetContext(ctx context.Context, message, userID string, activeNote *domain.KnowledgeItem) (*ContextResult, error) {
	intent := ClassifyIntent(message, activeNote != nil)

	if intent == IntentTransform && activeNote != nil {
		return &ContextResult{
			Intent: intent,
			Notes:  []*domain.KnowledgeItem{activeNote},
		}, nil
	}

	if intent == IntentTimeFilteredQuery {
		// The classifier trigger guarantees a temporal phrase, but the
		// parser recognizes a narrower set, so a miss falls through to
		// keyword search.
		if tr, ok := ParseTimeRange(message, e.now()); ok {
			items, err := e.store.GetRecent(ctx, userID, recentFetchLimit)
			if err != nil {
				return nil, err
			}

			filtered := make([]*domain.KnowledgeItem, 0, timeFilterLimit)
			for _, item := range items {
				if tr.Contains(item.CreatedAt) {
					filtered = append(filtered, item)
					if len(filtered) == timeFilterLimit {
						break
					}
				}
			}

			return &ContextResult{
				Intent:    intent,
				Notes:     filtered,
				TimeRange: &tr,
			}, nil
		}
	}

	items, err := e.store.Search(ctx, userID, message, keywordSearchLimit)
	if err != nil {
		return nil, err
	}

	return &ContextResult{
		Intent: intent,
		Notes:  items,
	}, nil
}
