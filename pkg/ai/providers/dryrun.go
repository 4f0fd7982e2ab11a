package providers

import (
	"context"
	"fmt"
	"strings"

	"chatwidget/pkg/ai"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderDryRun,
		Name:        "Dry run",
		Description: "Offline echo replies for trying the widget without a backend",
	}, NewDryRunProvider)
}

// DryRunProvider answers every request locally by echoing the last user
// message.
type DryRunProvider struct{}

// NewDryRunProvider creates the offline provider.
func NewDryRunProvider(ai.ProviderConfig) (ai.Provider, error) {
	return DryRunProvider{}, nil
}

// CreateChatCompletion echoes the last user message.
func (DryRunProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ai.ChatResponse{}, err
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		if strings.EqualFold(msg.Role, "user") {
			return ai.ChatResponse{
				Content: fmt.Sprintf("You said: %s", strings.TrimSpace(msg.Content)),
				Model:   string(ai.ProviderDryRun),
			}, nil
		}
	}
	return ai.ChatResponse{}, fmt.Errorf("messages are required")
}

var _ ai.Provider = DryRunProvider{}
