package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatwidget/pkg/ai"

	"google.golang.org/genai"
)

const (
	googleDefaultModel   = "gemini-2.5-flash"
	googleDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGoogle,
		Name:        "Google",
		Description: "Google AI (Gemini) API",
		RequiresKey: true,
	}, NewGoogleProvider)
}

type googleModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider implements the Provider interface using the native Google AI SDK.
type GoogleProvider struct {
	models             googleModelsClient
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
	defaultTimeout     time.Duration
}

// NewGoogleProvider creates a new Google provider from config.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.Google

	apiKey := strings.TrimSpace(providerCfg.APIKey)
	if apiKey == "" {
		slog.Debug("google_provider_missing_key")
		return nil, fmt.Errorf("google api_key is required")
	}

	model := strings.TrimSpace(providerCfg.Model)
	if model == "" {
		model = googleDefaultModel
	}

	timeoutSeconds := providerCfg.APITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = googleDefaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	client, err := newGoogleClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	slog.Debug("google_provider_ready",
		"model", model,
		"timeout_seconds", timeoutSeconds,
	)
	return &GoogleProvider{
		models:             client.Models,
		defaultModel:       model,
		defaultTemperature: providerCfg.Temperature,
		defaultMaxTokens:   providerCfg.MaxTokens,
		defaultTimeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// CreateChatCompletion sends a chat completion request.
func (p *GoogleProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	model, contents, cfg, err := p.buildRequest(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.models.GenerateContent(callCtx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return ai.ChatResponse{}, &ai.APIError{Provider: ai.ProviderGoogle, StatusCode: apiErr.Code, Err: err}
		}
		return ai.ChatResponse{}, err
	}

	return ai.ChatResponse{
		Content: extractVisibleText(resp),
		Model:   model,
	}, nil
}

func (p *GoogleProvider) buildRequest(req ai.ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return "", nil, nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return "", nil, nil, fmt.Errorf("messages are required")
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	systemParts := make([]string, 0, 1)

	for _, msg := range req.Messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "system":
			if content := strings.TrimSpace(msg.Content); content != "" {
				systemParts = append(systemParts, content)
			}
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	if len(contents) == 0 {
		return "", nil, nil, fmt.Errorf("at least one user or assistant message is required")
	}

	var systemInstruction *genai.Content
	if len(systemParts) > 0 {
		systemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(temperature)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	return model, contents, config, nil
}

func (p *GoogleProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline || p.defaultTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, p.defaultTimeout)
}

// Ensure interface compliance
var _ ai.Provider = (*GoogleProvider)(nil)

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
