package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"

	"chatwidget/pkg/ai"
	"chatwidget/pkg/config"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripperFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func newHTTPResponse(req *http.Request, status int, contentType string, body []byte) *http.Response {
	resp := &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func newJSONResponse(t *testing.T, req *http.Request, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return newHTTPResponse(req, status, "application/json", data)
}

func openAIConfig(p config.ProviderConfig) config.Config {
	cfg := config.Default()
	cfg.Generation.Backend = config.BackendOpenAI
	cfg.Providers.OpenAI = p
	return cfg
}

func TestOpenAIProvider_CreateChatCompletion(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotPayload map[string]any

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		gotAuth = req.Header.Get("Authorization")

		if req.Body == nil {
			t.Fatalf("expected request body")
		}
		if err := json.NewDecoder(req.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		_ = req.Body.Close()

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []any{
				map[string]any{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": "Hi! How can I help?",
					},
					"finish_reason": "stop",
				},
			},
		}
		return newJSONResponse(t, req, http.StatusOK, resp), nil
	})

	cfg := openAIConfig(config.ProviderConfig{
		APIKey:      "test-key",
		APIURL:      "https://openai.test/v1",
		Model:       "test-model",
		Temperature: 0.4,
		MaxTokens:   55,
	})

	provider, err := NewOpenAIProvider(ai.ProviderConfig{Type: ai.ProviderOpenAI, Config: cfg, HTTPClient: client})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error: %v", err)
	}

	resp, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "Be brief."},
			{Role: "user", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}

	if resp.Content != "Hi! How can I help?" {
		t.Fatalf("Expected response content, got %q", resp.Content)
	}
	if resp.Model != "test-model" {
		t.Fatalf("Expected model 'test-model', got %q", resp.Model)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("Expected path '/v1/chat/completions', got %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Expected Authorization header, got %q", gotAuth)
	}

	messages, ok := gotPayload["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %v", gotPayload["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("Expected role 'system', got %v", first["role"])
	}
	second, _ := messages[1].(map[string]any)
	if second["role"] != "user" || second["content"] != "hello" {
		t.Fatalf("Unexpected user message %v", second)
	}

	temp, _ := gotPayload["temperature"].(float64)
	if math.Abs(temp-0.4) > 0.0001 {
		t.Fatalf("Expected temperature 0.4, got %v", gotPayload["temperature"])
	}
	maxTokens, _ := gotPayload["max_tokens"].(float64)
	if int(maxTokens) != 55 {
		t.Fatalf("Expected max_tokens 55, got %v", gotPayload["max_tokens"])
	}
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		body := map[string]any{
			"error": map[string]any{
				"message": "invalid model",
				"type":    "invalid_request_error",
			},
		}
		return newJSONResponse(t, req, http.StatusBadRequest, body), nil
	})

	cfg := openAIConfig(config.ProviderConfig{APIKey: "k", APIURL: "https://openai.test/v1", Model: "nope"})
	provider, err := NewOpenAIProvider(ai.ProviderConfig{Type: ai.ProviderOpenAI, Config: cfg, HTTPClient: client})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error: %v", err)
	}

	_, err = provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hello"}},
	})
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Provider != ai.ProviderOpenAI {
		t.Fatalf("Expected provider openai, got %q", apiErr.Provider)
	}
}

func TestOpenAIProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		wantErr string
	}{
		{
			name:    "missing api_key",
			cfg:     config.ProviderConfig{Model: "gpt-4o"},
			wantErr: "api_key is required",
		},
		{
			name:    "blank api_key",
			cfg:     config.ProviderConfig{APIKey: "   "},
			wantErr: "api_key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAIProvider(ai.ProviderConfig{Type: ai.ProviderOpenAI, Config: openAIConfig(tt.cfg)})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestOpenAIProvider_BuildChatParams_Validation(t *testing.T) {
	p := &OpenAIProvider{defaultModel: "gpt-4o"}

	if _, err := p.buildChatParams(ai.ChatRequest{}); err == nil {
		t.Fatal("expected error for empty messages")
	}

	_, err := p.buildChatParams(ai.ChatRequest{Messages: []ai.Message{{Role: "tool", Content: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "unsupported role") {
		t.Fatalf("expected unsupported role error, got %v", err)
	}

	empty := &OpenAIProvider{}
	if _, err := empty.buildChatParams(ai.ChatRequest{Messages: []ai.Message{{Role: "user", Content: "x"}}}); err == nil {
		t.Fatal("expected error when no model is configured")
	}
}

func TestToChatMessageParam(t *testing.T) {
	for _, role := range []string{"system", "user", "assistant", " USER "} {
		if _, err := toChatMessageParam(ai.Message{Role: role, Content: "x"}); err != nil {
			t.Errorf("toChatMessageParam(%q) error: %v", role, err)
		}
	}
	if _, err := toChatMessageParam(ai.Message{Role: "function"}); err == nil {
		t.Error("expected error for unsupported role")
	}
}

func TestDryRunProvider(t *testing.T) {
	p, err := NewDryRunProvider(ai.ProviderConfig{Type: ai.ProviderDryRun})
	if err != nil {
		t.Fatalf("NewDryRunProvider() error: %v", err)
	}

	resp, err := p.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "ignored"},
			{Role: "user", Content: " Hello "},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}
	if resp.Content != "You said: Hello" {
		t.Fatalf("Unexpected dry run reply %q", resp.Content)
	}

	if _, err := p.CreateChatCompletion(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected error without a user message")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.CreateChatCompletion(ctx, ai.ChatRequest{Messages: []ai.Message{{Role: "user", Content: "x"}}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProvidersRegistered(t *testing.T) {
	for _, pt := range ai.SupportedProviders() {
		if !ai.DefaultRegistry.IsRegistered(pt) {
			t.Errorf("Expected provider %q to be registered", pt)
		}
	}
}

func TestGetProviderFromConfig_DryRun(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Backend = config.BackendDryRun

	p, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		t.Fatalf("GetProviderFromConfig() error: %v", err)
	}
	if _, ok := p.(DryRunProvider); !ok {
		t.Fatalf("Expected DryRunProvider, got %T", p)
	}
}
