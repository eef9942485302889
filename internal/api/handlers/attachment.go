package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/axon-labs/axon/internal/api"
	"github.com/axon-labs/axon/internal/api/middleware"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/service"
)

type AttachmentService interface {
	InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error)
	CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Attachment, error)
	GetDownloadURL(ctx context.Context, userID, attachmentID string) (string, error)
	ListByItem(ctx context.Context, userID, itemID string) ([]*domain.Attachment, error)
	Delete(ctx context.Context, userID, attachmentID string) error
}

type AttachmentHandler struct {
	svc AttachmentService
}

func NewAttachmentHandler(svc AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

type InitUploadRequest struct {
	ItemID   string `json:"item_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type InitUploadResponse struct {
	AttachmentID string `json:"attachment_id"`
	StorageKey   string `json:"storage_key"`
	UploadURL    string `json:"upload_url"`
}

type CompleteUploadRequest struct {
	AttachmentID string `json:"attachment_id"`
	ItemID       string `json:"item_id"`
	StorageKey   string `json:"storage_key"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	SHA256       string `json:"sha256,omitempty"`
}

type AttachmentResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SHA256    string `json:"sha256,omitempty"`
	CreatedAt string `json:"created_at"`
}

type AttachmentListResponse struct {
	Attachments []*AttachmentResponse `json:"attachments"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func attachmentToResponse(a *domain.Attachment) *AttachmentResponse {
	return &AttachmentResponse{
		ID:        a.ID,
		ItemID:    a.ItemID,
		Filename:  a.Filename,
		MimeType:  a.MimeType,
		SHA256:    a.SHA256,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *AttachmentHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID == "" {
		api.Error(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}

	input := service.InitUploadInput{
		UserID:      userID,
		ItemID:      req.ItemID,
		Filename:    req.Filename,
		ContentType: req.MimeType,
	}

	result, err := h.svc.InitUpload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitUploadResponse{
		AttachmentID: result.AttachmentID,
		StorageKey:   result.StorageKey,
		UploadURL:    result.UploadURL,
	})
}

func (h *AttachmentHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AttachmentID == "" {
		api.Error(w, http.StatusBadRequest, "attachment_id is required")
		return
	}
	if req.ItemID == "" {
		api.Error(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "storage_key is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}

	input := service.CompleteUploadInput{
		AttachmentID: req.AttachmentID,
		UserID:       userID,
		ItemID:       req.ItemID,
		StorageKey:   req.StorageKey,
		Filename:     req.Filename,
		ContentType:  req.MimeType,
		SHA256:       req.SHA256,
	}

	attachment, err := h.svc.CompleteUpload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, attachmentToResponse(attachment))
}

func (h *AttachmentHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
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

	downloadURL, err := h.svc.GetDownloadURL(r.Context(), userID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{
		DownloadURL: downloadURL,
	})
}

func (h *AttachmentHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := chi.URLParam(r, "id")
	if itemID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	attachments, err := h.svc.ListByItem(r.Context(), userID, itemID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*AttachmentResponse, len(attachments))
	for i, a := range attachments {
		responses[i] = attachmentToResponse(a)
	}

	api.Success(w, http.StatusOK, AttachmentListResponse{Attachments: responses})
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
