package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/dgallion1/sylex/internal/syllabus"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 4000
	DefaultCallTimeout = 120 * time.Second
)

// Config holds settings for the OpenAI chat completions client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string        // optional (tests, proxies)
	MaxTokens   int           // max completion tokens per call
	CallTimeout time.Duration // bound on a single call
	HTTPClient  *http.Client  // optional (tests)
}

// Client sends one chunk at a time to the model and decodes the strict
// structured output. It never retries.
type Client struct {
	apiKey      string
	model       string
	maxTokens   int
	callTimeout time.Duration
	stats       *LLMStats
	client      openai.Client
}

func NewClient(cfg Config, stats *LLMStats) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		callTimeout: cfg.CallTimeout,
		stats:       stats,
		client:      openai.NewClient(opts...),
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) Model() string { return c.model }

// Extract runs one structured completion. Errors wrap one of
// syllabus.ErrServiceUnavailable, ErrChunkExtractionFailed,
// ErrMalformedOutput, or the parent context's error.
func (c *Client) Extract(ctx context.Context, system, user string) (*syllabus.Data, error) {
	if !c.Available() {
		return nil, syllabus.ErrServiceUnavailable
	}

	start := time.Now()
	data, err := c.complete(ctx, system, user)
	c.stats.Record(time.Since(start), syllabus.KindOf(err))
	return data, err
}

func (c *Client) complete(ctx context.Context, system, user string) (*syllabus.Data, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   SchemaName,
					Schema: Schema(),
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("model call: %w", ctx.Err())
		}
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", syllabus.ErrMalformedOutput)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", syllabus.ErrMalformedOutput, truncate(msg.Refusal, 200))
	}
	return DecodeOutput(msg.Content)
}

// APIError is a non-success response from the model service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("openai error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Unwrap classifies the failure. A rejected key means the service is
// unavailable for the rest of the run; anything else fails one chunk.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return syllabus.ErrServiceUnavailable
	}
	return syllabus.ErrChunkExtractionFailed
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return fmt.Errorf("%w: %v", syllabus.ErrChunkExtractionFailed, err)
}
