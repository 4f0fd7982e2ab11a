package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chatwidget/pkg/ai"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openAIDefaultAPIURL  = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o"
	openAIDefaultTimeout = 30
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "OpenAI compatible chat completions API",
		RequiresKey: true,
	}, NewOpenAIProvider)
}

// OpenAIProvider implements the Provider interface using the OpenAI API directly.
type OpenAIProvider struct {
	client             openai.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewOpenAIProvider creates a new OpenAI provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.OpenAI

	apiKey := strings.TrimSpace(providerCfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api_key is required")
	}

	apiURL := providerCfg.APIURL
	if apiURL == "" {
		apiURL = openAIDefaultAPIURL
	}

	model := providerCfg.Model
	if model == "" {
		model = openAIDefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := providerCfg.APITimeoutSeconds
		if timeout <= 0 {
			timeout = openAIDefaultTimeout
		}
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
	)

	slog.Debug("openai_provider_ready", "model", model, "api_url", apiURL)
	return &OpenAIProvider{
		client:             client,
		defaultModel:       model,
		defaultTemperature: providerCfg.Temperature,
		defaultMaxTokens:   providerCfg.MaxTokens,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return ai.ChatResponse{}, &ai.APIError{Provider: ai.ProviderOpenAI, StatusCode: apiErr.StatusCode, Err: err}
		}
		return ai.ChatResponse{}, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return ai.ChatResponse{
		Content: content,
		Model:   resp.Model,
	}, nil
}

func (p *OpenAIProvider) buildChatParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	role := strings.ToLower(strings.TrimSpace(msg.Role))
	switch role {
	case "system":
		return openai.SystemMessage(msg.Content), nil
	case "user":
		return openai.UserMessage(msg.Content), nil
	case "assistant":
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

// Ensure interface compliance
var _ ai.Provider = (*OpenAIProvider)(nil)
