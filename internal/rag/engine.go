package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/llm"
)

// FallbackAnswer is returned when no items are available as context. The
// completion provider is not called in that case.
const FallbackAnswer = "I don't have any notes that could help answer this question. Try capturing some knowledge first!"

const querySystemPrompt = `You are a personal knowledge assistant. Answer the user's question using ONLY the provided context from their saved notes.
If the context does not contain relevant information, say "I don't have notes about that."
Cite note titles when referencing information. Be concise. Point out connections between notes when you see them.`

const (
	// contentPreviewChars is how much of an item's content is serialized
	// into the context block when no summary exists.
	contentPreviewChars = 500
	// tagContentChars is how much content is given to tag generation.
	tagContentChars = 1000
)

// Response is the result of a RAG query: the generated answer and the items
// it was grounded on.
type Response struct {
	Answer  string
	Sources []*domain.KnowledgeItem
}

// CompletionClientInterface defines the completion operations the engine needs
type CompletionClientInterface interface {
	Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error)
	CompleteStream(ctx context.Context, prompt string, opts llm.CompletionOptions) (llm.Stream, error)
}

// ContextEngineInterface defines the context selection operation
type ContextEngineInterface interface {
	GetContext(ctx context.Context, message, userID string, activeNote *domain.KnowledgeItem) (*ContextResult, error)
}

// Engine orchestrates retrieval-augmented generation over a user's knowledge
// items.
type Engine struct {
	contextEngine ContextEngineInterface
	completion    CompletionClientInterface
}

// NewEngine creates a new Engine instance
func NewEngine(contextEngine ContextEngineInterface, completion CompletionClientInterface) *Engine {
	return &Engine{
		contextEngine: contextEngine,
		completion:    completion,
	}
}

// Query answers a question against the user's knowledge items. When no
// context is available it returns FallbackAnswer without calling the
// completion provider, so an answer is produced even when the backend is
// unreachable.
func (e *Engine) Query(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) (*Response, error) {
	res, err := e.contextEngine.GetContext(ctx, question, userID, activeNote)
	if err != nil {
		return nil, err
	}

	if len(res.Notes) == 0 {
		return &Response{Answer: FallbackAnswer, Sources: []*domain.KnowledgeItem{}}, nil
	}

	answer, err := e.completion.Complete(ctx, buildQueryPrompt(question, res.Notes), llm.CompletionOptions{
		Provider:     llm.ProviderFastLLM,
		SystemPrompt: querySystemPrompt,
		Temperature:  0.5,
		MaxTokens:    1024,
	})
	if err != nil {
		return nil, err
	}

	return &Response{Answer: answer, Sources: res.Notes}, nil
}

// QueryStream answers a question as a fragment stream. Sources are returned
// immediately so a caller can render citations before generation finishes.
// The caller must Close the stream.
func (e *Engine) QueryStream(ctx context.Context, question, userID string, activeNote *domain.KnowledgeItem) ([]*domain.KnowledgeItem, llm.Stream, error) {
	res, err := e.contextEngine.GetContext(ctx, question, userID, activeNote)
	if err != nil {
		return nil, nil, err
	}

	if len(res.Notes) == 0 {
		return []*domain.KnowledgeItem{}, &staticStream{text: FallbackAnswer}, nil
	}

	stream, err := e.completion.CompleteStream(ctx, buildQueryPrompt(question, res.Notes), llm.CompletionOptions{
		Provider:     llm.ProviderFastLLM,
		SystemPrompt: querySystemPrompt,
		Temperature:  0.5,
		MaxTokens:    1024,
	})
	if err != nil {
		return nil, nil, err
	}

	return res.Notes, stream, nil
}

// Summarize produces a short summary of the given content.
func (e *Engine) Summarize(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following content in 2-3 sentences, focusing on the key insights:\n\n%s", content)

	return e.completion.Complete(ctx, prompt, llm.CompletionOptions{
		Provider:    llm.ProviderFastLLM,
		Temperature: 0.3,
		MaxTokens:   256,
	})
}

// GenerateTags produces 3-5 lowercase tags for an item. Provider failures
// propagate, but a response without a parseable JSON array yields an empty
// list so capture is never blocked on tagging.
func (e *Engine) GenerateTags(ctx context.Context, title, content string) ([]string, error) {
	preview := content
	if runes := []rune(preview); len(runes) > tagContentChars {
		preview = string(runes[:tagContentChars])
	}

	prompt := fmt.Sprintf("Generate 3-5 lowercase tags for this note. Respond with a JSON array of strings and nothing else.\n\nTitle: %s\nContent: %s", title, preview)

	raw, err := e.completion.Complete(ctx, prompt, llm.CompletionOptions{
		Provider:    llm.ProviderFastLLM,
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		return nil, err
	}

	return extractTagArray(raw), nil
}

var tagArrayPattern = regexp.MustCompile(`(?s)\[.*?\]`)

// extractTagArray pulls the first bracketed JSON array out of a raw model
// response. Any parse failure returns an empty list; this is the single
// decision point for the lenient tagging policy.
func extractTagArray(raw string) []string {
	match := tagArrayPattern.FindString(raw)
	if match == "" {
		slog.Debug("tag generation produced no bracketed array", "response_length", len(raw))
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal([]byte(match), &tags); err != nil {
		slog.Debug("tag generation produced unparseable array", "error", err)
		return []string{}
	}
	return tags
}

// buildQueryPrompt serializes the context items and appends the question.
func buildQueryPrompt(question string, notes []*domain.KnowledgeItem) string {
	var b strings.Builder
	b.WriteString("Context from my notes:\n\n")
	b.WriteString(serializeNotes(notes))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer using only the context above and cite sources by note title.")
	return b.String()
}

// serializeNotes renders items as numbered blocks in store order. Items are
// not re-sorted or deduplicated. The tag bracket is omitted entirely when an
// item has no tags.
func serializeNotes(notes []*domain.KnowledgeItem) string {
	blocks := make([]string, 0, len(notes))
	for i, note := range notes {
		header := fmt.Sprintf("--- Note %d: %q", i+1, note.Title)
		if len(note.Tags) > 0 {
			header += fmt.Sprintf(" [Tags: %s]", strings.Join(note.Tags, ", "))
		}
		header += " ---"

		body := note.Summary
		if body == "" {
			body = note.Content
			if runes := []rune(body); len(runes) > contentPreviewChars {
				body = string(runes[:contentPreviewChars])
			}
		}

		blocks = append(blocks, header+"\n"+body)
	}
	return strings.Join(blocks, "\n\n")
}

// staticStream yields a single fixed fragment. Used for the no-context
// fallback so streaming callers see the same answer as Query.
type staticStream struct {
	text string
	done bool
}

func (s *staticStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *staticStream) Close() error {
	s.done = true
	return nil
}
