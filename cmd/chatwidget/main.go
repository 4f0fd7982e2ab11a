package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatwidget/pkg/config"
	"chatwidget/pkg/logging"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type cliOptions struct {
	configPath  string
	plain       bool
	persistence string
	resumeID    string
	backend     string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "chatwidget",
		Short:         "Chat with a text generation backend from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.GetConfigPath(), "Path to the config file")
	flags.BoolVar(&opts.plain, "plain", false, "Use the line-oriented console instead of the full-screen view")
	flags.StringVar(&opts.persistence, "persistence", "", "Override persistence: none or remote")
	flags.StringVar(&opts.resumeID, "resume", "", "Resume the remote conversation with this id")
	flags.StringVar(&opts.backend, "backend", "", "Override the generation backend: service, openai, google or dry_run")

	rootCmd.AddCommand(newVersionCommand(), newConversationsCommand())
	return rootCmd
}

func run(parent context.Context, opts *cliOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Info("chatwidget_start",
		"backend", cfg.Generation.Backend,
		"persistence", cfg.Persistence,
		"plain", opts.plain,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	if opts.plain || !term.IsTerminal(int(os.Stdin.Fd())) {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return app.runConsole(ctx, os.Stdin, os.Stdout, interactive)
	}

	program := tea.NewProgram(app.tuiModel(ctx), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return fmt.Errorf("failed to run chat view: %w", err)
	}
	logger.Info("chatwidget_exit")
	return nil
}

// loadConfig layers the config file, .env, environment and flags, then
// validates the result.
func loadConfig(opts *cliOptions) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}

	if opts.persistence != "" {
		cfg.Persistence = opts.persistence
	}
	if opts.resumeID != "" {
		cfg.Conversation.ResumeID = opts.resumeID
		if opts.persistence == "" {
			cfg.Persistence = config.PersistenceRemote
		}
	}
	if opts.backend != "" {
		cfg.Generation.Backend = opts.backend
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
