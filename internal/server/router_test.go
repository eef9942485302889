package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/axon-labs/axon/internal/api/handlers"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/llm"
	"github.com/axon-labs/axon/internal/rag"
	"github.com/axon-labs/axon/internal/service"
)

const testToken = "axn_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Capture(ctx context.Context, input service.CaptureInput) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockItemService) Get(ctx context.Context, userID, itemID string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockItemService) Update(ctx context.Context, input service.UpdateItemInput) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockItemService) Delete(ctx context.Context, userID, itemID string) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockItemService) List(ctx context.Context, input service.ListItemsInput) (*service.ListItemsOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListItemsOutput), args.Error(1)
}

func (m *MockItemService) Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, userID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

type MockAssistService struct {
	mock.Mock
}

func (m *MockAssistService) Query(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) (*rag.Response, error) {
	args := m.Called(ctx, question, userID, activeNote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rag.Response), args.Error(1)
}

func (m *MockAssistService) QueryStream(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) ([]*domain.KnowledgeItem, llm.Stream, error) {
	args := m.Called(ctx, question, userID, activeNote)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Get(1).(llm.Stream), args.Error(2)
}

func (m *MockAssistService) Summarize(ctx context.Context, content string) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

func (m *MockAssistService) GenerateTags(ctx context.Context, title, content string) ([]string, error) {
	args := m.Called(ctx, title, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockAttachmentService struct {
	mock.Mock
}

func (m *MockAttachmentService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitUploadResult), args.Error(1)
}

func (m *MockAttachmentService) CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Attachment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentService) GetDownloadURL(ctx context.Context, userID, attachmentID string) (string, error) {
	args := m.Called(ctx, userID, attachmentID)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentService) ListByItem(ctx context.Context, userID, itemID string) ([]*domain.Attachment, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentService) Delete(ctx context.Context, userID, attachmentID string) error {
	args := m.Called(ctx, userID, attachmentID)
	return args.Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) CreateUser(ctx context.Context, email, name string) (*domain.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) CreateAPIKey(ctx context.Context, userID, name string) (string, error) {
	args := m.Called(ctx, userID, name)
	return args.String(0), args.Error(1)
}

func setupRouter() (http.Handler, *MockAuthValidator, *MockItemService, *MockAssistService, *MockAttachmentService, *MockAuthService) {
	authValidator := new(MockAuthValidator)
	itemSvc := new(MockItemService)
	assistSvc := new(MockAssistService)
	attachmentSvc := new(MockAttachmentService)
	authSvc := new(MockAuthService)

	cfg := RouterConfig{
		AuthValidator:     authValidator,
		ItemHandler:       handlers.NewItemHandler(itemSvc),
		AssistHandler:     handlers.NewAssistHandler(assistSvc, itemSvc),
		AttachmentHandler: handlers.NewAttachmentHandler(attachmentSvc),
		AuthHandler:       handlers.NewAuthHandler(authSvc),
	}

	router := NewRouter(cfg)
	return router, authValidator, itemSvc, assistSvc, attachmentSvc, authSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, authValidator, _, _, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/items"},
		{http.MethodGet, "/items/123"},
		{http.MethodPost, "/items"},
		{http.MethodPut, "/items/123"},
		{http.MethodDelete, "/items/123"},
		{http.MethodGet, "/items/search"},
		{http.MethodGet, "/items/123/attachments"},
		{http.MethodPost, "/assist/ask"},
		{http.MethodPost, "/assist/ask/stream"},
		{http.MethodPost, "/assist/summarize"},
		{http.MethodPost, "/assist/tags"},
		{http.MethodPost, "/attachments/init"},
		{http.MethodPost, "/attachments/complete"},
		{http.MethodGet, "/attachments/123/download"},
		{http.MethodDelete, "/attachments/123"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	authValidator.AssertExpectations(t)
}

func TestRouter_AuthenticatedRoutes_WithValidAuth(t *testing.T) {
	router, authValidator, itemSvc, _, _, _ := setupRouter()

	authValidator.On("ValidateAPIKey", mock.Anything, testToken).Return("user-789", nil)

	expectedItem := &domain.KnowledgeItem{
		ID:        "item-123",
		UserID:    "user-789",
		Type:      domain.ItemTypeNote,
		Title:     "Test",
		Content:   "Body",
		Tags:      []string{"go"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	itemSvc.On("Get", mock.Anything, "user-789", "item-123").Return(expectedItem, nil)

	req := httptest.NewRequest(http.MethodGet, "/items/item-123", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	authValidator.AssertExpectations(t)
	itemSvc.AssertExpectations(t)
}

func TestRouter_Ask_WithValidAuth(t *testing.T) {
	router, authValidator, _, assistSvc, _, _ := setupRouter()

	authValidator.On("ValidateAPIKey", mock.Anything, testToken).Return("user-789", nil)
	assistSvc.On("Query", mock.Anything, "what do I know about Go?", "user-789", (*domain.KnowledgeItem)(nil)).
		Return(&rag.Response{Answer: "Quite a lot.", Sources: []*domain.KnowledgeItem{}}, nil)

	body := strings.NewReader(`{"question":"what do I know about Go?"}`)
	req := httptest.NewRequest(http.MethodPost, "/assist/ask", body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Quite a lot.")
	assistSvc.AssertExpectations(t)
}

func TestRouter_BootstrapRoutes_NoAuthRequired(t *testing.T) {
	router, _, _, _, _, authSvc := setupRouter()

	expectedUser := &domain.User{
		ID:        "user-123",
		Email:     "me@example.com",
		CreatedAt: time.Now().UTC(),
	}
	authSvc.On("CreateUser", mock.Anything, "me@example.com", "").Return(expectedUser, nil)

	body := strings.NewReader(`{"email":"me@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	authSvc.AssertExpectations(t)
}
