package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/axon-labs/axon/internal/api"
	"github.com/axon-labs/axon/internal/api/handlers"
	"github.com/axon-labs/axon/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator     middleware.AuthValidator
	ItemHandler       *handlers.ItemHandler
	AssistHandler     *handlers.AssistHandler
	AttachmentHandler *handlers.AttachmentHandler
	AuthHandler       *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/items", func(r chi.Router) {
			r.Post("/", cfg.ItemHandler.Capture)
			r.Get("/", cfg.ItemHandler.List)
			r.Get("/search", cfg.ItemHandler.Search)
			r.Get("/{id}", cfg.ItemHandler.Get)
			r.Put("/{id}", cfg.ItemHandler.Update)
			r.Delete("/{id}", cfg.ItemHandler.Delete)
			r.Get("/{id}/attachments", cfg.AttachmentHandler.ListByItem)
		})

		r.Route("/assist", func(r chi.Router) {
			r.Post("/ask", cfg.AssistHandler.Ask)
			r.Post("/ask/stream", cfg.AssistHandler.AskStream)
			r.Post("/summarize", cfg.AssistHandler.Summarize)
			r.Post("/tags", cfg.AssistHandler.Tags)
		})

		r.Route("/attachments", func(r chi.Router) {
			r.Post("/init", cfg.AttachmentHandler.InitUpload)
			r.Post("/complete", cfg.AttachmentHandler.CompleteUpload)
			r.Get("/{id}/download", cfg.AttachmentHandler.GetDownloadURL)
			r.Delete("/{id}", cfg.AttachmentHandler.Delete)
		})
	})

	r.Post("/users", cfg.AuthHandler.CreateUser)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
