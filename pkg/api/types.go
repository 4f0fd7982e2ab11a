package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a server-assigned identifier. The conversation service may send it as
// a JSON number or a string; numeric ids are sent back as numbers.
type ID string

// UnmarshalJSON accepts numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
// Ids with a leading zero such as "007" are not valid JSON numbers and stay
// strings.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if isNumeric(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func isNumeric(s string) bool {
	if s == "" || !isDigits(s) {
		return false
	}
	return s == "0" || s[0] != '0'
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CreateConversationRequest is the body of POST /conversations/.
type CreateConversationRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Name  string `json:"name"`
}

// PostMessageRequest is the body of POST /conversations/{id}/messages.
type PostMessageRequest struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID ID `json:"id"`
}

// MessageRecord is a stored message as returned by the conversation service.
type MessageRecord struct {
	ID        ID     `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MessagesResponse is the body of GET /conversations/{id}/messages.
type MessagesResponse struct {
	Messages []MessageRecord `json:"messages"`
}

// ConversationRecord is a conversation as listed by GET /conversations/.
type ConversationRecord struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	ModelType string `json:"model_type"`
	ModelName string `json:"model_name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GenerateRequest is the body of the text generation endpoint.
type GenerateRequest struct {
	Prompt         string  `json:"prompt"`
	ConversationID ID      `json:"conversation_id,omitempty"`
	Type           string  `json:"type"`
	Name           string  `json:"name,omitempty"`
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp understands RFC 3339 and the naive ISO format the service
// emits. Naive timestamps are taken as UTC.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
