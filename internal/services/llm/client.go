package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/services"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 120 * time.Second
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	maxOutputTokens int
}

// Option customizes the LLM client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout bounds each completion request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMaxOutputTokens caps generated tokens per completion.
func WithMaxOutputTokens(tokens int) Option {
	return func(c *Client) {
		if tokens > 0 {
			c.maxOutputTokens = tokens
		}
	}
}

// NewClient constructs a chat completions client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete runs a single-turn chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", "complete", "api key required", nil)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "model required", nil)
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: c.maxOutputTokens,
	})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "llm", "complete", "request timed out", err)
		}
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", "decode response", err)
	}
	if payload.Error != nil && payload.Error.Message != "" {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", payload.Error.Message, nil)
	}
	if len(payload.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", "no choices returned", nil)
	}

	content := strings.TrimSpace(payload.Choices[0].Message.Content)
	if content == "" {
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", "empty completion", nil)
	}
	return content, nil
}
