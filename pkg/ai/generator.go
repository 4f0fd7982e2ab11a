package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"chatwidget/pkg/chat"
)

// ErrEmptyResponse is returned when a provider answers with no visible text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// MaxHistoryMessages caps how many earlier messages are sent with a prompt.
const MaxHistoryMessages = 10

// ReplyGenerator adapts a Provider to chat.Generator. Each reply is produced
// from the optional system prompt, the recent conversation and the prompt.
type ReplyGenerator struct {
	provider     Provider
	systemPrompt string
	model        string
}

// NewReplyGenerator wraps provider. An empty model uses the provider default.
func NewReplyGenerator(provider Provider, systemPrompt, model string) *ReplyGenerator {
	return &ReplyGenerator{
		provider:     provider,
		systemPrompt: strings.TrimSpace(systemPrompt),
		model:        strings.TrimSpace(model),
	}
}

// GenerateReply implements chat.Generator. conversationID is only logged.
func (g *ReplyGenerator) GenerateReply(ctx context.Context, prompt, conversationID string) (string, error) {
	return g.GenerateReplyWithHistory(ctx, nil, prompt, conversationID)
}

// GenerateReplyWithHistory implements chat.HistoryGenerator. Only the last
// MaxHistoryMessages entries of history are sent.
func (g *ReplyGenerator) GenerateReplyWithHistory(ctx context.Context, history []chat.Message, prompt, conversationID string) (string, error) {
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}

	messages := make([]Message, 0, len(history)+2)
	if g.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: g.systemPrompt})
	}
	for _, msg := range history {
		role := "user"
		if msg.Role == chat.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: msg.Content})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	resp, err := g.provider.CreateChatCompletion(ctx, ChatRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		genErr := &chat.GenerationError{Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			genErr.StatusCode = apiErr.StatusCode
		}
		slog.Error("provider_reply_error", "conversation_id", conversationID, "error", err)
		return "", genErr
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", &chat.GenerationError{Err: ErrEmptyResponse}
	}
	slog.Debug("provider_reply_done",
		"conversation_id", conversationID,
		"model", resp.Model,
		"reply_length", len(reply),
	)
	return reply, nil
}

var (
	_ chat.Generator        = (*ReplyGenerator)(nil)
	_ chat.HistoryGenerator = (*ReplyGenerator)(nil)
)
