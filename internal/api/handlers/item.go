package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/axon-labs/axon/internal/api"
	"github.com/axon-labs/axon/internal/api/middleware"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/service"
)

type ItemService interface {
	Capture(ctx context.Context, input service.CaptureInput) (*domain.KnowledgeItem, error)
	Get(ctx context.Context, userID, itemID string) (*domain.KnowledgeItem, error)
	Update(ctx context.Context, input service.UpdateItemInput) (*domain.KnowledgeItem, error)
	Delete(ctx context.Context, userID, itemID string) error
	List(ctx context.Context, input service.ListItemsInput) (*service.ListItemsOutput, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*domain.KnowledgeItem, error)
}

type ItemHandler struct {
	svc ItemService
}

func NewItemHandler(svc ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type CaptureItemRequest struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	SourceURL string   `json:"source_url"`
	Tags      []string `json:"tags"`
}

type UpdateItemRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	SourceURL string   `json:"source_url"`
	Tags      []string `json:"tags"`
}

type ItemResponse struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	SourceURL string   `json:"source_url,omitempty"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func itemToResponse(item *domain.KnowledgeItem) *ItemResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ItemResponse{
		ID:        item.ID,
		Type:      string(item.Type),
		Title:     item.Title,
		Content:   item.Content,
		SourceURL: item.SourceURL,
		Tags:      tags,
		Summary:   item.Summary,
		CreatedAt: item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ItemHandler) Capture(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CaptureItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Type == "" {
		api.Error(w, http.StatusBadRequest, "type is required")
		return
	}

	itemType := domain.ItemType(req.Type)
	if !isValidItemType(itemType) {
		api.Error(w, http.StatusBadRequest, "invalid item type")
		return
	}

	input := service.CaptureInput{
		UserID:    userID,
		Type:      itemType,
		Title:     req.Title,
		Content:   req.Content,
		SourceURL: req.SourceURL,
		Tags:      req.Tags,
	}

	item, err := h.svc.Capture(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, itemToResponse(item))
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, itemToResponse(item))
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	input := service.UpdateItemInput{
		ItemID:    id,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		SourceURL: req.SourceURL,
		Tags:      req.Tags,
	}

	item, err := h.svc.Update(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, itemToResponse(item))
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type ItemListResponse struct {
	Items   []*ItemResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListItemsInput{
		UserID: userID,
		Cursor: cursor,
		Limit:  limit,
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ItemResponse, len(output.Items))
	for i, item := range output.Items {
		responses[i] = itemToResponse(item)
	}

	api.Success(w, http.StatusOK, ItemListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

type ItemSearchResponse struct {
	Items []*ItemResponse `json:"items"`
}

func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	items, err := h.svc.Search(r.Context(), userID, query, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemToResponse(item)
	}

	api.Success(w, http.StatusOK, ItemSearchResponse{Items: responses})
}

func isValidItemType(t domain.ItemType) bool {
	switch t {
	case domain.ItemTypeNote, domain.ItemTypeLink, domain.ItemTypeInsight:
		return true
	}
	return false
}
