package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/services"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 10 * time.Second
	defaultHTTPTimeout  = 5 * time.Minute
)

// Client wraps the AssemblyAI transcription API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option customizes the AssemblyAI client.
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

// WithPollInterval overrides the transcript polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient constructs an AssemblyAI API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Utterance is one speaker-labeled span of the transcript.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript is the completed transcription result.
type Transcript struct {
	ID         string
	Text       string
	Utterances []Utterance
}

// Formatted renders the transcript with speaker labels, one utterance per
// paragraph, falling back to the flat text when no utterances exist.
func (t Transcript) Formatted() string {
	if len(t.Utterances) == 0 {
		return strings.TrimSpace(t.Text)
	}
	lines := make([]string, 0, len(t.Utterances))
	for _, utterance := range t.Utterances {
		text := strings.TrimSpace(utterance.Text)
		if text == "" {
			continue
		}
		speaker := strings.TrimSpace(utterance.Speaker)
		if speaker == "" {
			lines = append(lines, text)
			continue
		}
		lines = append(lines, fmt.Sprintf("Speaker %s: %s", speaker, text))
	}
	return strings.Join(lines, "\n\n")
}

// Transcribe uploads the audio file, submits a transcription job, and polls
// until it completes or ctx expires. Callers bound the wait with a context
// deadline; expiry maps to services.ErrTimeout.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	var empty Transcript
	if strings.TrimSpace(c.apiKey) == "" {
		return empty, services.Wrap(services.ErrConfiguration, "assemblyai", "transcribe", "api key required", nil)
	}

	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return empty, err
	}

	jobID, err := c.submit(ctx, uploadURL)
	if err != nil {
		return empty, err
	}

	return c.poll(ctx, jobID)
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "upload", "open audio file", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", file)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "upload", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var payload struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, "upload", &payload); err != nil {
		return "", err
	}
	if payload.UploadURL == "" {
		return "", services.Wrap(services.ErrExternalService, "assemblyai", "upload", "empty upload url", nil)
	}
	return payload.UploadURL, nil
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"audio_url":      audioURL,
		"speaker_labels": true,
	})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "submit", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "submit", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var payload transcriptResponse
	if err := c.do(req, "submit", &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", services.Wrap(services.ErrExternalService, "assemblyai", "submit", "empty transcript id", nil)
	}
	return payload.ID, nil
}

func (c *Client) poll(ctx context.Context, jobID string) (Transcript, error) {
	var empty Transcript
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+jobID, nil)
		if err != nil {
			return empty, services.Wrap(services.ErrValidation, "assemblyai", "poll", "build request", err)
		}
		req.Header.Set("Authorization", c.apiKey)

		var payload transcriptResponse
		if err := c.do(req, "poll", &payload); err != nil {
			return empty, err
		}

		switch payload.Status {
		case "completed":
			return Transcript{
				ID:         payload.ID,
				Text:       payload.Text,
				Utterances: payload.Utterances,
			}, nil
		case "error":
			detail := strings.TrimSpace(payload.Error)
			if detail == "" {
				detail = "transcription failed"
			}
			return empty, services.Wrap(services.ErrExternalService, "assemblyai", "poll", detail, nil)
		}

		select {
		case <-ctx.Done():
			return empty, services.Wrap(services.ErrTimeout, "assemblyai", "poll",
				fmt.Sprintf("transcript %s not ready", jobID), ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

type transcriptResponse struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Text       string      `json:"text"`
	Error      string      `json:"error"`
	Utterances []Utterance `json:"utterances"`
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "assemblyai", operation, "request timed out", err)
		}
		return services.Wrap(services.ErrExternalService, "assemblyai", operation, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "assemblyai", operation, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalService, "assemblyai", operation,
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrExternalService, "assemblyai", operation, "decode response", err)
	}
	return nil
}
