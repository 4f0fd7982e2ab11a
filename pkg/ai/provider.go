package ai

import (
	"context"
	"fmt"
)

// Message represents a single chat message for LLM requests.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ChatRequest defines the input to an LLM chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// ChatResponse is a normalized response from an LLM.
type ChatResponse struct {
	Content string
	Model   string
}

// Provider defines the LLM interface used to generate replies directly,
// bypassing the conversation service's generation endpoint.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// APIError carries the HTTP status of a failed provider call.
type APIError struct {
	Provider   ProviderType
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
