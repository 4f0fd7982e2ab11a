package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"chatwidget/pkg/ai"
	_ "chatwidget/pkg/ai/providers"
	"chatwidget/pkg/api"
	"chatwidget/pkg/chat"
	"chatwidget/pkg/config"
	"chatwidget/pkg/console"
	"chatwidget/pkg/ui"
	"chatwidget/pkg/ui/chatview"
)

// app holds the pieces every front end shares.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	generator   chat.Generator
	persistence chat.Persistence
	info        ui.StatusInfo
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	var client *api.Client
	if cfg.Generation.Backend == config.BackendService || cfg.Persistence == config.PersistenceRemote {
		client = newServiceClient(cfg)
	}

	gen, err := buildGenerator(cfg, client)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		generator:   gen,
		persistence: buildPersistence(cfg, client),
		info: ui.StatusInfo{
			Backend:     cfg.Generation.Backend,
			Model:       backendModel(cfg),
			Persistence: cfg.Persistence,
		},
	}, nil
}

func newServiceClient(cfg config.Config) *api.Client {
	client := api.NewClient(cfg.Server.BaseURL)
	if cfg.Server.GeneratePath != "" {
		client.GeneratePath = cfg.Server.GeneratePath
	}
	client.SetTimeout(time.Duration(cfg.Server.APITimeoutSeconds) * time.Second)
	client.ModelType = cfg.Conversation.ModelType
	client.ModelName = cfg.Conversation.ModelName
	client.MaxLength = cfg.Generation.MaxLength
	client.Temperature = cfg.Generation.Temperature
	return client
}

func buildGenerator(cfg config.Config, client *api.Client) (chat.Generator, error) {
	if cfg.Generation.Backend == config.BackendService {
		return client, nil
	}

	provider, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return ai.NewReplyGenerator(provider, cfg.Generation.SystemPrompt, backendModel(cfg)), nil
}

func buildPersistence(cfg config.Config, client *api.Client) chat.Persistence {
	if cfg.Persistence != config.PersistenceRemote {
		return chat.InMemory()
	}
	return chat.RemoteConversation(client, chat.ConversationSpec{
		Title:     cfg.Conversation.Title,
		ModelType: cfg.Conversation.ModelType,
		ModelName: cfg.Conversation.ModelName,
		ResumeID:  cfg.Conversation.ResumeID,
	})
}

// backendModel returns the model name replies are generated with.
func backendModel(cfg config.Config) string {
	switch cfg.Generation.Backend {
	case config.BackendService:
		return cfg.Conversation.ModelName
	case config.BackendOpenAI:
		return cfg.Providers.OpenAI.Model
	case config.BackendGoogle:
		return cfg.Providers.Google.Model
	default:
		return ""
	}
}

func (a *app) controllerOptions(extra ...chat.Option) []chat.Option {
	opts := []chat.Option{
		chat.WithPersistence(a.persistence),
		chat.WithWelcomeMessage(a.cfg.Messages.Welcome),
		chat.WithFailureMessage(a.cfg.Messages.Failure),
		chat.WithLogger(a.logger),
	}
	return append(opts, extra...)
}

// tuiModel opens the session and returns the full-screen program model.
func (a *app) tuiModel(ctx context.Context) ui.Model {
	view := chatview.New(a.cfg.Conversation.Title)
	ctrl := chat.NewController(a.generator, a.controllerOptions(chat.WithComposer(view))...)
	_ = ctrl.Start(ctx)
	return ui.NewModel(ctx, ctrl, view, a.info)
}

// runConsole opens the session and runs the line-oriented console until in
// is exhausted.
func (a *app) runConsole(ctx context.Context, in io.Reader, out io.Writer, interactive bool) error {
	cons := console.New(in, out)
	cons.SetInteractive(interactive)
	ctrl := chat.NewController(a.generator, a.controllerOptions(
		chat.WithComposer(cons.Composer()),
		chat.WithObserver(cons.Observe),
	)...)
	_ = ctrl.Start(ctx)
	return cons.Run(ctx, ctrl)
}
