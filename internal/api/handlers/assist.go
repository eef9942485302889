package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/axon-labs/axon/internal/api"
	"github.com/axon-labs/axon/internal/api/middleware"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/llm"
	"github.com/axon-labs/axon/internal/rag"
)

type AssistService interface {
	Query(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) (*rag.Response, error)
	QueryStream(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) ([]*domain.KnowledgeItem, llm.Stream, error)
	Summarize(ctx context.Context, content string) (string, error)
	GenerateTags(ctx context.Context, title, content string) ([]string, error)
}

// AssistHandler serves the question answering endpoints. itemSvc resolves an
// optional active note ID so ownership checks stay in one place.
type AssistHandler struct {
	svc     AssistService
	itemSvc ItemService
}

func NewAssistHandler(svc AssistService, itemSvc ItemService) *AssistHandler {
	return &AssistHandler{svc: svc, itemSvc: itemSvc}
}

type AskRequest struct {
	Question     string `json:"question"`
	ActiveNoteID string `json:"active_note_id,omitempty"`
}

type SourceResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type AskResponse struct {
	Answer  string            `json:"answer"`
	Sources []*SourceResponse `json:"sources"`
}

type SummarizeRequest struct {
	Content string `json:"content"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type TagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

func sourcesToResponse(items []*domain.KnowledgeItem) []*SourceResponse {
	sources := make([]*SourceResponse, len(items))
	for i, item := range items {
		sources[i] = &SourceResponse{ID: item.ID, Title: item.Title}
	}
	return sources
}

func (h *AssistHandler) resolveActiveNote(r *http.Request, userID, noteID string) (*domain.KnowledgeItem, error) {
	if noteID == "" {
		return nil, nil
	}
	return h.itemSvc.Get(r.Context(), userID, noteID)
}

func (h *AssistHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	activeNote, err := h.resolveActiveNote(r, userID, req.ActiveNoteID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp, err := h.svc.Query(r.Context(), req.Question, userID, activeNote)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:  resp.Answer,
		Sources: sourcesToResponse(resp.Sources),
	})
}

// AskStream answers a question over server-sent events. The sources event is
// sent before any answer fragments so clients can render citations first.
func (h *AssistHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	activeNote, err := h.resolveActiveNote(r, userID, req.ActiveNoteID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sources, stream, err := h.svc.QueryStream(r.Context(), req.Question, userID, activeNote)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "sources", sourcesToResponse(sources))
	flusher.Flush()

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeSSE(w, "error", map[string]string{"error": err.Error()})
			flusher.Flush()
			return
		}
		writeSSE(w, "delta", map[string]string{"text": fragment})
		flusher.Flush()
	}

	writeSSE(w, "done", map[string]string{})
	flusher.Flush()
}

func writeSSE(w io.Writer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	io.WriteString(w, "event: "+event+"\n")
	io.WriteString(w, "data: "+string(data)+"\n\n")
}

func (h *AssistHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	summary, err := h.svc.Summarize(r.Context(), req.Content)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SummarizeResponse{Summary: summary})
}

func (h *AssistHandler) Tags(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	tags, err := h.svc.GenerateTags(r.Context(), req.Title, req.Content)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TagsResponse{Tags: tags})
}
