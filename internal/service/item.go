package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/pagination"
	"github.com/axon-labs/axon/internal/telemetry"
)

// ItemRepositoryInterface defines the repository interface for knowledge item persistence
type ItemRepositoryInterface interface {
	Create(ctx context.Context, item *domain.KnowledgeItem) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	GetRecent(ctx context.Context, userID string, limit int) ([]*domain.KnowledgeItem, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error)
	ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*ItemPageResult, error)
	Update(ctx context.Context, item *domain.KnowledgeItem) error
	Delete(ctx context.Context, id string) error
}

type ItemPageResult struct {
	Items      []*domain.KnowledgeItem
	NextCursor string
	HasMore    bool
}

// EnrichmentJobRepositoryInterface defines the repository interface for enrichment job persistence
type EnrichmentJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.EnrichmentJob) error
}

// TxRepositories exposes repositories bound to a single transaction.
type TxRepositories interface {
	Items() ItemRepositoryInterface
	EnrichmentJobs() EnrichmentJobRepositoryInterface
}

// TxRunnerInterface runs a function inside a database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ItemService handles business logic for knowledge items
type ItemService struct {
	itemRepo ItemRepositoryInterface
	jobRepo  EnrichmentJobRepositoryInterface
	txRunner TxRunnerInterface
	uuidGen  UUIDGenerator
}

// NewItemService creates a new ItemService instance. txRunner may be nil, in
// which case capture writes the item and the job non-atomically.
func NewItemService(
	itemRepo ItemRepositoryInterface,
	jobRepo EnrichmentJobRepositoryInterface,
	txRunner TxRunnerInterface,
) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		jobRepo:  jobRepo,
		txRunner: txRunner,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewItemServiceWithUUIDGen creates a new ItemService with a custom UUID generator (for testing)
func NewItemServiceWithUUIDGen(
	itemRepo ItemRepositoryInterface,
	jobRepo EnrichmentJobRepositoryInterface,
	txRunner TxRunnerInterface,
	uuidGen UUIDGenerator,
) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		jobRepo:  jobRepo,
		txRunner: txRunner,
		uuidGen:  uuidGen,
	}
}

// CaptureInput represents the input for capturing a knowledge item
type CaptureInput struct {
	UserID    string
	Type      domain.ItemType
	Title     string
	Content   string
	SourceURL string
	Tags      []string
}

// UpdateItemInput represents the input for updating a knowledge item
type UpdateItemInput struct {
	ItemID    string
	UserID    string
	Title     string
	Content   string
	SourceURL string
	Tags      []string
}

type ListItemsInput struct {
	UserID string
	Cursor string
	Limit  int
}

type ListItemsOutput struct {
	Items   []*domain.KnowledgeItem
	Cursor  string
	HasMore bool
}

// Capture creates a new knowledge item and queues an enrichment job. The item
// starts without a summary; the background worker attaches summary, tags and
// embedding later.
func (s *ItemService) Capture(ctx context.Context, input CaptureInput) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Capture", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "capture",
	})
	defer span.End()

	now := time.Now().UTC()
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	item := &domain.KnowledgeItem{
		ID:        s.uuidGen.NewString(),
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     input.Title,
		Content:   input.Content,
		SourceURL: input.SourceURL,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge item", err)
	}

	job := &domain.EnrichmentJob{
		ID:        s.uuidGen.NewString(),
		ItemID:    item.ID,
		Status:    domain.EnrichmentJobStatusPending,
		CreatedAt: now,
	}

	if s.txRunner != nil {
		err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Items().Create(ctx, item); err != nil {
				return err
			}
			return repos.EnrichmentJobs().Create(ctx, job)
		})
		if err != nil {
			return nil, err
		}
		return item, nil
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return item, nil
}

// Get retrieves a knowledge item scoped to its owner. Items owned by another
// user are reported as not found.
func (s *ItemService) Get(ctx context.Context, userID, itemID string) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Get", telemetry.SpanAttributes{
		UserID:    userID,
		ItemID:    itemID,
		Operation: "get",
	})
	defer span.End()

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// Update replaces the mutable fields of an item and queues a fresh
// enrichment job so the summary and tags track the new content.
func (s *ItemService) Update(ctx context.Context, input UpdateItemInput) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Update", telemetry.SpanAttributes{
		UserID:    input.UserID,
		ItemID:    input.ItemID,
		Operation: "update",
	})
	defer span.End()

	item, err := s.Get(ctx, input.UserID, input.ItemID)
	if err != nil {
		return nil, err
	}

	item.Title = input.Title
	item.Content = input.Content
	item.SourceURL = input.SourceURL
	if input.Tags != nil {
		item.Tags = input.Tags
	}
	item.UpdatedAt = time.Now().UTC()

	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge item", err)
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	// Re-queue enrichment so summary and tags follow the new content
	job := &domain.EnrichmentJob{
		ID:        s.uuidGen.NewString(),
		ItemID:    item.ID,
		Status:    domain.EnrichmentJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return item, nil
}

// Delete removes an item permanently.
func (s *ItemService) Delete(ctx context.Context, userID, itemID string) error {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Delete", telemetry.SpanAttributes{
		UserID:    userID,
		ItemID:    itemID,
		Operation: "delete",
	})
	defer span.End()

	if _, err := s.Get(ctx, userID, itemID); err != nil {
		return err
	}
	return s.itemRepo.Delete(ctx, itemID)
}

// List returns a page of the user's items ordered by last update.
func (s *ItemService) List(ctx context.Context, input ListItemsInput) (*ListItemsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.List", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "list",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.itemRepo.ListByUserWithCursor(ctx, input.UserID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListItemsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Search performs a keyword search over the user's items.
func (s *ItemService) Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Search", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "search",
	})
	defer span.End()

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.itemRepo.Search(ctx, userID, query, limit)
}
