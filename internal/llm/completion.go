package llm

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider identifies one of the hosted completion backends.
type Provider string

const (
	// ProviderFastLLM is the low-latency backend used for answering queries.
	ProviderFastLLM Provider = "fast-llm"
	// ProviderLargeContext is the large-context-window backend.
	ProviderLargeContext Provider = "large-context-llm"
)

const (
	// DefaultSystemPrompt is used when CompletionOptions.SystemPrompt is empty.
	DefaultSystemPrompt = "You are a helpful assistant."
	// DefaultTemperature is used when CompletionOptions.Temperature is zero.
	DefaultTemperature float32 = 0.7
	// DefaultMaxTokens is used when CompletionOptions.MaxTokens is zero.
	DefaultMaxTokens = 1024

	defaultFastModel         = "llama-3.3-70b-versatile"
	defaultLargeContextModel = "gemini-2.0-flash"

	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	// defaultCallTimeout bounds every provider call, including the full
	// lifetime of a streamed response.
	defaultCallTimeout = 120 * time.Second
)

var (
	// ErrEmptyPrompt is returned when the prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrUnknownProvider is returned for a provider outside the closed set
	ErrUnknownProvider = errors.New("unknown completion provider")
)

// CompletionOptions configures a single completion call. Zero values are
// replaced by the documented defaults.
type CompletionOptions struct {
	Provider     Provider
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

func (o CompletionOptions) withDefaults() CompletionOptions {
	if o.Provider == "" {
		o.Provider = ProviderFastLLM
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Stream is a pull-based sequence of completion text fragments. Recv returns
// io.EOF when the backend has finished. Close releases the underlying
// connection and is safe to call at any point, including before exhaustion.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// CompletionConfig holds credentials and endpoints for the completion
// backends. Base URLs are overridable so tests can point at a stub server.
type CompletionConfig struct {
	GroqAPIKey    string
	GroqBaseURL   string
	GroqModel     string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	CallTimeout   time.Duration
}

type backend struct {
	client *openai.Client
	model  string
}

// CompletionClient routes completion calls to one of two OpenAI-compatible
// backends. Backends are constructed lazily on first use so that a missing
// credential only fails calls that need that provider.
type CompletionClient struct {
	cfg CompletionConfig

	mu       sync.Mutex
	backends map[Provider]*backend
}

// NewCompletionClient creates a completion client. No network calls or
// credential checks happen here.
func NewCompletionClient(cfg CompletionConfig) *CompletionClient {
	if cfg.GroqBaseURL == "" {
		cfg.GroqBaseURL = defaultGroqBaseURL
	}
	if cfg.GroqModel == "" {
		cfg.GroqModel = defaultFastModel
	}
	if cfg.GeminiBaseURL == "" {
		cfg.GeminiBaseURL = defaultGeminiBaseURL
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaultLargeContextModel
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &CompletionClient{
		cfg:      cfg,
		backends: make(map[Provider]*backend),
	}
}

func (c *CompletionClient) backendFor(provider Provider) (*backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.backends[provider]; ok {
		return b, nil
	}

	var apiKey, baseURL, model, keyName string
	switch provider {
	case ProviderFastLLM:
		apiKey, baseURL, model, keyName = c.cfg.GroqAPIKey, c.cfg.GroqBaseURL, c.cfg.GroqModel, "GROQ_API_KEY"
	case ProviderLargeContext:
		apiKey, baseURL, model, keyName = c.cfg.GeminiAPIKey, c.cfg.GeminiBaseURL, c.cfg.GeminiModel, "GEMINI_API_KEY"
	default:
		return nil, ErrUnknownProvider
	}

	if apiKey == "" {
		return nil, &ConfigurationError{Provider: provider, Missing: keyName}
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	b := &backend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
	c.backends[provider] = b
	return b, nil
}

func buildRequest(prompt string, opts CompletionOptions, model string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: opts.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

// Complete performs a single completion call and returns the generated text.
// An empty result is returned unchanged when the backend legitimately
// produces no content.
func (c *CompletionClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	opts = opts.withDefaults()

	b, err := c.backendFor(opts.Provider)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, buildRequest(prompt, opts, b.model, false))
	if err != nil {
		return "", &UpstreamError{Provider: opts.Provider, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream performs a streaming completion call. Fragments are
// delivered in backend order, one per Recv, with no buffering beyond what the
// backend already sent. The caller must Close the stream, including when
// abandoning it early.
func (c *CompletionClient) CompleteStream(ctx context.Context, prompt string, opts CompletionOptions) (Stream, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	opts = opts.withDefaults()

	b, err := c.backendFor(opts.Provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)

	upstream, err := b.client.CreateChatCompletionStream(ctx, buildRequest(prompt, opts, b.model, true))
	if err != nil {
		cancel()
		return nil, &UpstreamError{Provider: opts.Provider, Err: err}
	}

	return &chatStream{
		provider: opts.Provider,
		upstream: upstream,
		cancel:   cancel,
	}, nil
}

type chatStream struct {
	provider Provider
	upstream *openai.ChatCompletionStream
	cancel   context.CancelFunc
}

// Recv returns the next non-empty text fragment, or io.EOF when the backend
// has finished.
func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.upstream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", &UpstreamError{Provider: s.provider, Err: err}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

// Close releases the underlying connection.
func (s *chatStream) Close() error {
	s.cancel()
	return s.upstream.Close()
}
