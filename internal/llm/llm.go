// Package llm turns deterministic gap summaries into short written advice
// through an OpenAI-compatible chat model.
package llm

import (
	"context"
	"errors"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client completes a chat conversation and returns the assistant text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

var (
	// ErrNotConfigured is returned when no provider credentials are set.
	ErrNotConfigured = errors.New("llm not configured")
	// ErrNoAdvice means the model answered without any usable bullet.
	ErrNoAdvice = errors.New("llm returned no advice")
)

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(context.Context, []Message) (string, error) {
	return "", ErrNotConfigured
}
