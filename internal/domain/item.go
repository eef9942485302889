package domain

import (
	"fmt"
	"time"
)

// ItemType represents the kind of captured knowledge
type ItemType string

const (
	ItemTypeNote    ItemType = "note"
	ItemTypeLink    ItemType = "link"
	ItemTypeInsight ItemType = "insight"
)

const (
	// MaxTitleLength is the maximum allowed title length in characters
	MaxTitleLength = 200
	// MaxContentLength is the maximum allowed content length in characters
	MaxContentLength = 50000
)

// KnowledgeItem represents a user-owned piece of captured knowledge
type KnowledgeItem struct {
	ID        string
	UserID    string
	Type      ItemType
	Title     string
	Content   string
	SourceURL string
	Tags      []string
	Summary   string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewKnowledgeItem creates a new KnowledgeItem instance
func NewKnowledgeItem(
	id, userID string,
	itemType ItemType,
	title, content, sourceURL string,
	tags []string,
	createdAt, updatedAt time.Time,
) *KnowledgeItem {
	return &KnowledgeItem{
		ID:        id,
		UserID:    userID,
		Type:      itemType,
		Title:     title,
		Content:   content,
		SourceURL: sourceURL,
		Tags:      tags,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return fmt.Errorf("knowledge item cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("knowledge item ID is required")
	}

	if k.UserID == "" {
		return fmt.Errorf("knowledge item UserID is required")
	}

	if k.Title == "" {
		return fmt.Errorf("knowledge item Title is required")
	}

	if len([]rune(k.Title)) > MaxTitleLength {
		return fmt.Errorf("knowledge item Title exceeds %d characters", MaxTitleLength)
	}

	if k.Content == "" {
		return fmt.Errorf("knowledge item Content is required")
	}

	if len([]rune(k.Content)) > MaxContentLength {
		return fmt.Errorf("knowledge item Content exceeds %d characters", MaxContentLength)
	}

	if !isValidItemType(k.Type) {
		return fmt.Errorf("knowledge item Type is invalid: %s", k.Type)
	}

	return nil
}

// isValidItemType checks if an ItemType is valid
func isValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeNote, ItemTypeLink, ItemTypeInsight:
		return true
	}
	return false
}
