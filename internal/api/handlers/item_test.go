package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/axon-labs/axon/internal/api/middleware"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/service"
)

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

func newTestItem() *domain.KnowledgeItem {
	now := time.Now().UTC()
	return &domain.KnowledgeItem{
		ID:        "item-123",
		UserID:    "user-456",
		Type:      domain.ItemTypeNote,
		Title:     "Postgres tuning",
		Content:   "Notes on shared_buffers and work_mem.",
		Tags:      []string{"postgres"},
		Summary:   "Tuning notes.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func requestWithUserID(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, "user-456")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestItemHandler_Capture_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	expectedItem := newTestItem()
	mockSvc.On("Capture", mock.Anything, mock.MatchedBy(func(input service.CaptureInput) bool {
		return input.UserID == "user-456" && input.Title == "Postgres tuning" && input.Type == domain.ItemTypeNote
	})).Return(expectedItem, nil)

	body := `{"type":"note","title":"Postgres tuning","content":"Notes on shared_buffers and work_mem.","tags":["postgres"]}`
	req := requestWithUserID(http.MethodPost, "/items", []byte(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Capture_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"type":"note","content":"x"}`, "title is required"},
		{"missing content", `{"type":"note","title":"x"}`, "content is required"},
		{"missing type", `{"title":"x","content":"y"}`, "type is required"},
		{"bad type", `{"type":"journal","title":"x","content":"y"}`, "invalid item type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockItemService)
			handler := NewItemHandler(mockSvc)

			req := requestWithUserID(http.MethodPost, "/items", []byte(tt.body))
			w := httptest.NewRecorder()

			handler.Capture(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
			mockSvc.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
		})
	}
}

func TestItemHandler_Capture_Unauthorized(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestItemHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	expectedItem := newTestItem()
	mockSvc.On("Get", mock.Anything, "user-456", "item-123").Return(expectedItem, nil)

	req := requestWithUserID(http.MethodGet, "/items/item-123", nil)
	req = withURLParam(req, "id", "item-123")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "item-123", data["id"])
	assert.Equal(t, "Postgres tuning", data["title"])
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "user-456", "item-999").Return(nil, domain.ErrItemNotFound)

	req := requestWithUserID(http.MethodGet, "/items/item-999", nil)
	req = withURLParam(req, "id", "item-999")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Update_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	expectedItem := newTestItem()
	expectedItem.Title = "Updated Title"
	mockSvc.On("Update", mock.Anything, mock.MatchedBy(func(input service.UpdateItemInput) bool {
		return input.ItemID == "item-123" && input.UserID == "user-456" && input.Title == "Updated Title"
	})).Return(expectedItem, nil)

	body := `{"title":"Updated Title","content":"Updated content"}`
	req := requestWithUserID(http.MethodPut, "/items/item-123", []byte(body))
	req = withURLParam(req, "id", "item-123")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, "user-456", "item-123").Return(nil)

	req := requestWithUserID(http.MethodDelete, "/items/item-123", nil)
	req = withURLParam(req, "id", "item-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_List_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	output := &service.ListItemsOutput{
		Items:   []*domain.KnowledgeItem{newTestItem()},
		Cursor:  "next-cursor",
		HasMore: true,
	}
	mockSvc.On("List", mock.Anything, mock.MatchedBy(func(input service.ListItemsInput) bool {
		return input.UserID == "user-456" && input.Limit == 10 && input.Cursor == "abc"
	})).Return(output, nil)

	req := requestWithUserID(http.MethodGet, "/items?limit=10&cursor=abc", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "next-cursor", data["cursor"])
	assert.Equal(t, true, data["has_more"])
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Search_Success(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	mockSvc.On("Search", mock.Anything, "user-456", "postgres", 0).
		Return([]*domain.KnowledgeItem{newTestItem()}, nil)

	req := requestWithUserID(http.MethodGet, "/items/search?q=postgres", nil)
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Postgres tuning")
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Search_MissingQuery(t *testing.T) {
	mockSvc := new(MockItemService)
	handler := NewItemHandler(mockSvc)

	req := requestWithUserID(http.MethodGet, "/items/search", nil)
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
