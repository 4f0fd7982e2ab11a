// Package api talks to the conversation and text generation service used by
// the widget.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"chatwidget/pkg/chat"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultGeneratePath = "/htmx/generate/text/"
	DefaultModelType    = "text"
	DefaultMaxLength    = 1000
	DefaultTemperature  = 0.7
	DefaultUserAgent    = "chatwidget/1.0"

	maxErrorPreview = 200
)

var errEmptyReply = errors.New("no text was generated")

// Client calls the conversation service. It implements
// chat.ConversationService, chat.HistoryLoader and chat.Generator.
type Client struct {
	BaseURL      string
	GeneratePath string
	HTTPClient   *http.Client
	UserAgent    string

	// Generation parameters sent with every reply request.
	ModelType   string
	ModelName   string
	MaxLength   int
	Temperature float64
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		GeneratePath: DefaultGeneratePath,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent:   DefaultUserAgent,
		ModelType:   DefaultModelType,
		MaxLength:   DefaultMaxLength,
		Temperature: DefaultTemperature,
	}
}

// SetTimeout configures the HTTP client timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// CreateConversation creates a conversation and returns its id.
func (c *Client) CreateConversation(ctx context.Context, title, modelType, modelName string) (string, error) {
	const op = "create_conversation"
	req := CreateConversationRequest{Title: title, Type: modelType, Name: modelName}

	var resp IDResponse
	if err := c.serviceCall(ctx, op, http.MethodPost, "/conversations/", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &chat.ServiceError{Op: op, Err: errors.New("response has no id")}
	}
	return string(resp.ID), nil
}

// PostMessage stores a message in a conversation and returns its id.
func (c *Client) PostMessage(ctx context.Context, conversationID string, role chat.Role, content string) (string, error) {
	const op = "post_message"
	req := PostMessageRequest{Role: string(role), Content: content, Metadata: map[string]any{}}

	var resp IDResponse
	if err := c.serviceCall(ctx, op, http.MethodPost, conversationPath(conversationID)+"/messages", req, &resp); err != nil {
		return "", err
	}
	return string(resp.ID), nil
}

// Conversation summarizes a stored conversation.
type Conversation struct {
	ID        string
	Title     string
	ModelType string
	ModelName string
	UpdatedAt time.Time
}

// ListConversations returns the conversations stored by the service, in the
// order the service lists them.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var records []ConversationRecord
	if err := c.serviceCall(ctx, "list_conversations", http.MethodGet, "/conversations/", nil, &records); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(records))
	for _, rec := range records {
		conv := Conversation{
			ID:        string(rec.ID),
			Title:     rec.Title,
			ModelType: rec.ModelType,
			ModelName: rec.ModelName,
		}
		if ts, ok := parseTimestamp(rec.UpdatedAt); ok {
			conv.UpdatedAt = ts
		} else if ts, ok := parseTimestamp(rec.CreatedAt); ok {
			conv.UpdatedAt = ts
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// ListMessages returns the stored messages of a conversation. Records with a
// role the widget does not render are skipped.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	var resp MessagesResponse
	if err := c.serviceCall(ctx, "list_messages", http.MethodGet, conversationPath(conversationID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]chat.Message, 0, len(resp.Messages))
	for _, rec := range resp.Messages {
		role := chat.Role(strings.ToLower(strings.TrimSpace(rec.Role)))
		if !role.Valid() {
			slog.Debug("list_messages_skip_role", "role", rec.Role, "message_id", rec.ID)
			continue
		}
		msg := chat.Message{ID: string(rec.ID), Role: role, Content: rec.Content}
		if ts, ok := parseTimestamp(rec.CreatedAt); ok {
			msg.Timestamp = ts
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// GenerateReply asks the service for a reply to prompt. The service answers
// with a plain text body.
func (c *Client) GenerateReply(ctx context.Context, prompt, conversationID string) (string, error) {
	req := GenerateRequest{
		Prompt:         prompt,
		ConversationID: ID(conversationID),
		Type:           c.ModelType,
		Name:           c.ModelName,
		MaxLength:      c.MaxLength,
		Temperature:    c.Temperature,
	}

	status, body, contentType, err := c.do(ctx, http.MethodPost, c.generatePath(), req)
	if err != nil {
		return "", &chat.GenerationError{Err: err}
	}
	if status < 200 || status > 299 {
		slog.Error("generate_reply_status", "status_code", status, "response_preview", preview(body))
		return "", &chat.GenerationError{StatusCode: status, Err: errors.New(preview(body))}
	}

	reply := decodeReply(body, contentType)
	if reply == "" {
		return "", &chat.GenerationError{StatusCode: status, Err: errEmptyReply}
	}
	slog.Debug("generate_reply_done", "conversation_id", conversationID, "reply_length", len(reply))
	return reply, nil
}

// StoresReplies reports that the service saves the replies it generates, so
// the controller must not post them again.
func (c *Client) StoresReplies() bool { return true }

func (c *Client) serviceCall(ctx context.Context, op, method, path string, in, out any) error {
	status, body, _, err := c.do(ctx, method, path, in)
	if err != nil {
		return &chat.ServiceError{Op: op, Err: err}
	}
	if status < 200 || status > 299 {
		slog.Error("service_call_status", "op", op, "status_code", status, "response_preview", preview(body))
		return &chat.ServiceError{Op: op, StatusCode: status, Err: errors.New(preview(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &chat.ServiceError{Op: op, StatusCode: status, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, string, error) {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("User-Agent", c.UserAgent)

	slog.Debug("service_request", "method", method, "url", endpoint)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	slog.Debug("service_response",
		"method", method,
		"url", endpoint,
		"status_code", resp.StatusCode,
		"response_size", len(body),
	)
	return resp.StatusCode, body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) generatePath() string {
	path := strings.TrimSpace(c.GeneratePath)
	if path == "" {
		path = DefaultGeneratePath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func conversationPath(conversationID string) string {
	return "/conversations/" + url.PathEscape(conversationID)
}

// decodeReply unwraps a JSON string body and trims whitespace. Any other body
// is used as text.
func decodeReply(body []byte, contentType string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(string(body))
}

func preview(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response body"
	}
	if len(text) > maxErrorPreview {
		cut := maxErrorPreview
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut] + "..."
	}
	return text
}

var (
	_ chat.ConversationService = (*Client)(nil)
	_ chat.HistoryLoader       = (*Client)(nil)
	_ chat.Generator           = (*Client)(nil)
)
