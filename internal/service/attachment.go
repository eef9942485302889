package service

import (
	"context"
	"fmt"
	"time"

	"github.com/axon-labs/axon/internal/domain"
)

type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

type AttachmentRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByItem(ctx context.Context, itemID string) ([]*domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type AttachmentItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
}

// AttachmentService handles file attachments on knowledge items. Files live
// in S3-compatible storage; the API only hands out presigned URLs, the bytes
// never flow through the server.
type AttachmentService struct {
	attachmentRepo AttachmentRepositoryInterface
	itemRepo       AttachmentItemRepository
	storageClient  StorageClientInterface
	uuidGen        UUIDGenerator
}

func NewAttachmentService(
	attachmentRepo AttachmentRepositoryInterface,
	itemRepo AttachmentItemRepository,
	storageClient StorageClientInterface,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		itemRepo:       itemRepo,
		storageClient:  storageClient,
		uuidGen:        &DefaultUUIDGenerator{},
	}
}

func NewAttachmentServiceWithUUIDGen(
	attachmentRepo AttachmentRepositoryInterface,
	itemRepo AttachmentItemRepository,
	storageClient StorageClientInterface,
	uuidGen UUIDGenerator,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		itemRepo:       itemRepo,
		storageClient:  storageClient,
		uuidGen:        uuidGen,
	}
}

type InitUploadInput struct {
	UserID      string
	ItemID      string
	Filename    string
	ContentType string
}

type InitUploadResult struct {
	AttachmentID string
	StorageKey   string
	UploadURL    string
}

// InitUpload verifies the target item and presigns an upload URL. No record
// is persisted until CompleteUpload confirms the object exists.
func (s *AttachmentService) InitUpload(ctx context.Context, input InitUploadInput) (*InitUploadResult, error) {
	if input.Filename == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "filename is required")
	}
	if input.ContentType == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "content type is required")
	}

	if err := s.checkItemOwner(ctx, input.UserID, input.ItemID); err != nil {
		return nil, err
	}

	attachmentID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.UserID, attachmentID, input.Filename)

	uploadURL, err := s.storageClient.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitUploadResult{
		AttachmentID: attachmentID,
		StorageKey:   storageKey,
		UploadURL:    uploadURL,
	}, nil
}

type CompleteUploadInput struct {
	AttachmentID string
	UserID       string
	ItemID       string
	Filename     string
	ContentType  string
	StorageKey   string
	SHA256       string
}

// CompleteUpload checks the object actually arrived in storage and persists
// the attachment record.
func (s *AttachmentService) CompleteUpload(ctx context.Context, input CompleteUploadInput) (*domain.Attachment, error) {
	if err := s.checkItemOwner(ctx, input.UserID, input.ItemID); err != nil {
		return nil, err
	}

	if _, err := s.storageClient.HeadObject(ctx, input.StorageKey); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "uploaded file could not be verified in storage", err)
	}

	attachment := &domain.Attachment{
		ID:         input.AttachmentID,
		ItemID:     input.ItemID,
		UserID:     input.UserID,
		Filename:   input.Filename,
		MimeType:   input.ContentType,
		SHA256:     input.SHA256,
		StorageKey: input.StorageKey,
		CreatedAt:  time.Now().UTC(),
	}

	if err := domain.ValidateAttachment(attachment); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid attachment", err)
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to create attachment record: %w", err)
	}

	return attachment, nil
}

func (s *AttachmentService) GetDownloadURL(ctx context.Context, userID, attachmentID string) (string, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if attachment.UserID != userID {
		return "", domain.ErrNotOwner
	}

	url, err := s.storageClient.GenerateDownloadURL(ctx, attachment.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return url, nil
}

func (s *AttachmentService) ListByItem(ctx context.Context, userID, itemID string) ([]*domain.Attachment, error) {
	if err := s.checkItemOwner(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByItem(ctx, itemID)
}

func (s *AttachmentService) Delete(ctx context.Context, userID, attachmentID string) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.UserID != userID {
		return domain.ErrNotOwner
	}

	if err := s.storageClient.DeleteObject(ctx, attachment.StorageKey); err != nil {
		return fmt.Errorf("failed to delete from storage: %w", err)
	}

	return s.attachmentRepo.Delete(ctx, attachmentID)
}

func (s *AttachmentService) checkItemOwner(ctx context.Context, userID, itemID string) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return domain.ErrItemNotFound
	}
	return nil
}

func buildStorageKey(userID, attachmentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", userID, attachmentID, filename)
}
