package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"chatwidget/pkg/ai"
	"chatwidget/pkg/config"

	"google.golang.org/genai"
)

type stubGoogleModelsClient struct {
	generateResp *genai.GenerateContentResponse
	generateErr  error

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	gotDeadline bool
}

func (s *stubGoogleModelsClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.gotModel = model
	s.gotContents = contents
	s.gotConfig = cfg
	_, s.gotDeadline = ctx.Deadline()
	return s.generateResp, s.generateErr
}

func googleTextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role: genai.RoleModel,
					Parts: []*genai.Part{
						{Text: text},
					},
				},
			},
		},
	}
}

func TestNewGoogleProvider_RequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Backend = config.BackendGoogle
	cfg.Providers.Google.APIKey = ""

	_, err := NewGoogleProvider(ai.ProviderConfig{
		Type:   ai.ProviderGoogle,
		Config: cfg,
	})
	if err == nil {
		t.Fatal("Expected error when Google API key is missing")
	}
}

func TestNewGoogleProvider_DefaultFallbacks(t *testing.T) {
	origNewClient := newGoogleClient
	defer func() {
		newGoogleClient = origNewClient
	}()

	var gotClientCfg *genai.ClientConfig
	newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		gotClientCfg = cfg
		return &genai.Client{}, nil
	}

	httpClient := &http.Client{}
	cfg := config.Default()
	cfg.Generation.Backend = config.BackendGoogle
	cfg.Providers.Google.APIKey = "test-google-key"
	cfg.Providers.Google.Model = ""
	cfg.Providers.Google.Temperature = 0.55
	cfg.Providers.Google.MaxTokens = 2048
	cfg.Providers.Google.APITimeoutSeconds = 0

	provider, err := NewGoogleProvider(ai.ProviderConfig{
		Type:       ai.ProviderGoogle,
		Config:     cfg,
		HTTPClient: httpClient,
	})
	if err != nil {
		t.Fatalf("NewGoogleProvider() error: %v", err)
	}

	googleProvider, ok := provider.(*GoogleProvider)
	if !ok {
		t.Fatalf("Expected *GoogleProvider, got %T", provider)
	}
	if gotClientCfg == nil {
		t.Fatal("Expected Google client config to be captured")
	}
	if gotClientCfg.APIKey != "test-google-key" {
		t.Fatalf("Expected API key to be forwarded, got %q", gotClientCfg.APIKey)
	}
	if gotClientCfg.Backend != genai.BackendGeminiAPI {
		t.Fatalf("Expected BackendGeminiAPI, got %q", gotClientCfg.Backend)
	}
	if gotClientCfg.HTTPClient != httpClient {
		t.Fatal("Expected HTTP client override to be forwarded")
	}
	if googleProvider.defaultModel != googleDefaultModel {
		t.Fatalf("Expected default model %q, got %q", googleDefaultModel, googleProvider.defaultModel)
	}
	if googleProvider.defaultTimeout != 60*time.Second {
		t.Fatalf("Expected default timeout 60s, got %s", googleProvider.defaultTimeout)
	}
	if googleProvider.defaultTemperature != 0.55 {
		t.Fatalf("Expected default temperature 0.55, got %f", googleProvider.defaultTemperature)
	}
	if googleProvider.defaultMaxTokens != 2048 {
		t.Fatalf("Expected default max tokens 2048, got %d", googleProvider.defaultMaxTokens)
	}
}

func TestNewGoogleProvider_ClientError(t *testing.T) {
	origNewClient := newGoogleClient
	defer func() {
		newGoogleClient = origNewClient
	}()
	newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		return nil, errors.New("boom")
	}

	cfg := config.Default()
	cfg.Providers.Google.APIKey = "k"
	if _, err := NewGoogleProvider(ai.ProviderConfig{Type: ai.ProviderGoogle, Config: cfg}); err == nil {
		t.Fatal("Expected client creation error to be returned")
	}
}

func TestGoogleProvider_CreateChatCompletion_MapsMessages(t *testing.T) {
	stub := &stubGoogleModelsClient{
		generateResp: googleTextResponse("ok"),
	}
	provider := &GoogleProvider{
		models:             stub,
		defaultModel:       "google-default",
		defaultTemperature: 0.7,
		defaultMaxTokens:   1024,
		defaultTimeout:     time.Minute,
	}

	temp := 0.2
	maxTokens := 42
	resp, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "system prompt"},
			{Role: "user", Content: "user prompt"},
			{Role: "assistant", Content: "assistant prompt"},
			{Role: "tool", Content: "unknown role maps to user"},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}

	if resp.Content != "ok" {
		t.Fatalf("Expected response content %q, got %q", "ok", resp.Content)
	}
	if stub.gotModel != "google-default" {
		t.Fatalf("Expected default model to be used, got %q", stub.gotModel)
	}
	if !stub.gotDeadline {
		t.Fatal("Expected default timeout to apply a deadline")
	}
	if len(stub.gotContents) != 3 {
		t.Fatalf("Expected 3 non-system messages, got %d", len(stub.gotContents))
	}
	if stub.gotContents[0].Role != genai.RoleUser {
		t.Fatalf("Expected first content role user, got %q", stub.gotContents[0].Role)
	}
	if stub.gotContents[1].Role != genai.RoleModel {
		t.Fatalf("Expected second content role model, got %q", stub.gotContents[1].Role)
	}
	if stub.gotContents[2].Role != genai.RoleUser {
		t.Fatalf("Expected unknown role to map to user, got %q", stub.gotContents[2].Role)
	}
	if stub.gotConfig == nil || stub.gotConfig.SystemInstruction == nil {
		t.Fatal("Expected system instruction to be set")
	}
	if got := stub.gotConfig.SystemInstruction.Parts[0].Text; got != "system prompt" {
		t.Fatalf("Expected system prompt, got %q", got)
	}
	if stub.gotConfig.ThinkingConfig == nil || stub.gotConfig.ThinkingConfig.ThinkingBudget == nil {
		t.Fatal("Expected thinking budget to be set")
	}
	if *stub.gotConfig.ThinkingConfig.ThinkingBudget != 0 {
		t.Fatalf("Expected ThinkingBudget=0, got %d", *stub.gotConfig.ThinkingConfig.ThinkingBudget)
	}
	if math.Abs(float64(*stub.gotConfig.Temperature)-0.2) > 0.0001 {
		t.Fatalf("Expected temperature override 0.2, got %f", *stub.gotConfig.Temperature)
	}
	if stub.gotConfig.MaxOutputTokens != 42 {
		t.Fatalf("Expected max output tokens 42, got %d", stub.gotConfig.MaxOutputTokens)
	}
}

func TestGoogleProvider_CreateChatCompletion_FiltersThoughtParts(t *testing.T) {
	stub := &stubGoogleModelsClient{
		generateResp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{
					Content: &genai.Content{
						Role: genai.RoleModel,
						Parts: []*genai.Part{
							{Text: "internal", Thought: true},
							{Text: "visible answer"},
						},
					},
				},
			},
		},
	}
	provider := &GoogleProvider{
		models:       stub,
		defaultModel: "google-default",
	}

	resp, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}
	if resp.Content != "visible answer" {
		t.Fatalf("Expected thought parts to be filtered, got %q", resp.Content)
	}
}

func TestGoogleProvider_CreateChatCompletion_APIError(t *testing.T) {
	stub := &stubGoogleModelsClient{
		generateErr: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota"},
	}
	provider := &GoogleProvider{models: stub, defaultModel: "google-default"}

	_, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hello"}},
	})
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestGoogleProvider_BuildRequest_Validation(t *testing.T) {
	provider := &GoogleProvider{defaultModel: "google-default"}

	if _, _, _, err := provider.buildRequest(ai.ChatRequest{}); err == nil {
		t.Fatal("Expected error for empty messages")
	}
	if _, _, _, err := provider.buildRequest(ai.ChatRequest{Messages: []ai.Message{{Role: "system", Content: "only system"}}}); err == nil {
		t.Fatal("Expected error when only system messages are given")
	}
}
