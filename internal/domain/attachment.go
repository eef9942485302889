package domain

import (
	"fmt"
	"time"
)

// Attachment represents a file stored alongside a knowledge item
type Attachment struct {
	ID         string
	ItemID     string
	UserID     string
	Filename   string
	MimeType   string
	SHA256     string
	StorageKey string
	CreatedAt  time.Time
}

// NewAttachment creates a new Attachment instance
func NewAttachment(
	id, itemID, userID string,
	filename, mimeType, sha256, storageKey string,
	createdAt time.Time,
) *Attachment {
	return &Attachment{
		ID:         id,
		ItemID:     itemID,
		UserID:     userID,
		Filename:   filename,
		MimeType:   mimeType,
		SHA256:     sha256,
		StorageKey: storageKey,
		CreatedAt:  createdAt,
	}
}

// ValidateAttachment validates an Attachment instance
func ValidateAttachment(a *Attachment) error {
	if a == nil {
		return fmt.Errorf("attachment cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("attachment ID is required")
	}

	if a.ItemID == "" {
		return fmt.Errorf("attachment ItemID is required")
	}

	if a.UserID == "" {
		return fmt.Errorf("attachment UserID is required")
	}

	if a.Filename == "" {
		return fmt.Errorf("attachment Filename is required")
	}

	if a.MimeType == "" {
		return fmt.Errorf("attachment MimeType is required")
	}

	if a.StorageKey == "" {
		return fmt.Errorf("attachment StorageKey is required")
	}

	return nil
}
