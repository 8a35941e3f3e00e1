// Package embeddings talks to the sentence embedding service.
package embeddings

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

	"resume-ranker/internal/schema"
)

const (
	DefaultModel    = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultBaseURL  = "http://127.0.0.1:8001"
	DefaultMaxChars = 12000
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 500
)

var (
	// ErrUnavailable means the service could not be reached at all.
	ErrUnavailable = errors.New("embeddings service unavailable")
	// ErrMalformed means the service answered without a usable vector.
	ErrMalformed = errors.New("embeddings response malformed")
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embeddings server error %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether retrying later may succeed.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether err is an outage rather than a bad request or
// bad response.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Client calls POST {BaseURL}/embed.
type Client struct {
	BaseURL  string
	Model    string
	MaxChars int
	HTTP     *http.Client
}

// NewClient builds a client; empty arguments fall back to the defaults.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Model:    model,
		MaxChars: DefaultMaxChars,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding json.RawMessage `json:"embedding"`
}

// Embed returns the vector for text, truncated to MaxChars runes.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(embedRequest{Text: truncate(text, c.maxChars())})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), maxErrorBody)}
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	vec, ok := schema.DecodeEmbedding(parsed.Embedding)
	if !ok {
		return nil, fmt.Errorf("%w: missing or invalid embedding array", ErrMalformed)
	}
	return vec, nil
}

func (c *Client) maxChars() int {
	if c.MaxChars > 0 {
		return c.MaxChars
	}
	return DefaultMaxChars
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
