package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PersistenceNone   = "none"
	PersistenceRemote = "remote"

	BackendService = "service"
	BackendOpenAI  = "openai"
	BackendGoogle  = "google"
	BackendDryRun  = "dry_run"

	envPrefix = "CHATWIDGET_"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Persistence  string             `json:"persistence"`
	Conversation ConversationConfig `json:"conversation"`
	Generation   GenerationConfig   `json:"generation"`
	Providers    ProvidersConfig    `json:"providers"`
	Messages     MessagesConfig     `json:"messages"`
	LogLevel     string             `json:"log_level"`
	LogFile      string             `json:"log_file"`
	LogFormat    string             `json:"log_format"`
}

// ServerConfig locates the conversation and generation service.
type ServerConfig struct {
	BaseURL           string `json:"base_url"`
	GeneratePath      string `json:"generate_path"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"`
}

// ConversationConfig describes the remote conversation of a session.
type ConversationConfig struct {
	Title     string `json:"title"`
	ModelType string `json:"model_type"`
	ModelName string `json:"model_name"`
	ResumeID  string `json:"resume_id"`
}

// GenerationConfig selects where replies come from.
type GenerationConfig struct {
	Backend      string  `json:"backend"`
	MaxLength    int     `json:"max_length"`
	Temperature  float64 `json:"temperature"`
	SystemPrompt string  `json:"system_prompt"`
}

// ProvidersConfig holds per-provider settings for direct LLM generation.
type ProvidersConfig struct {
	OpenAI ProviderConfig `json:"openai"`
	Google ProviderConfig `json:"google"`
}

// ProviderConfig holds one LLM provider's API configuration
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// MessagesConfig holds the fixed texts shown by the widget.
type MessagesConfig struct {
	Welcome string `json:"welcome"`
	Failure string `json:"failure"`
}

// ModelTypes lists the accepted conversation model types.
var ModelTypes = []string{"text", "image"}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:           "http://localhost:8000",
			GeneratePath:      "/htmx/generate/text/",
			APITimeoutSeconds: 60,
		},
		Persistence: PersistenceNone,
		Conversation: ConversationConfig{
			Title:     "Conversation Title",
			ModelType: "text",
			ModelName: "gpt-neo-125m",
		},
		Generation: GenerationConfig{
			Backend:     BackendService,
			MaxLength:   1000,
			Temperature: 0.7,
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				APIURL:            "https://api.openai.com/v1",
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         1000,
				APITimeoutSeconds: 30,
			},
			Google: ProviderConfig{
				Model:             "gemini-2.5-flash",
				Temperature:       0.7,
				MaxTokens:         1000,
				APITimeoutSeconds: 60,
			},
		},
		Messages: MessagesConfig{
			Welcome: "Hello! How can I assist you today?",
			Failure: "Sorry, I couldn't get a response. Please try again.",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	// Start from defaults so missing keys keep sensible values.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Missing files are ignored; variables
// already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration values from CHATWIDGET_* environment
// variables.
func (c *Config) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("SERVER_URL", &c.Server.BaseURL)
	setString("GENERATE_PATH", &c.Server.GeneratePath)
	setString("PERSISTENCE", &c.Persistence)
	setString("MODEL_NAME", &c.Conversation.ModelName)
	setString("RESUME_ID", &c.Conversation.ResumeID)
	setString("BACKEND", &c.Generation.Backend)
	setString("OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	setString("OPENAI_API_URL", &c.Providers.OpenAI.APIURL)
	setString("OPENAI_MODEL", &c.Providers.OpenAI.Model)
	setString("GOOGLE_API_KEY", &c.Providers.Google.APIKey)
	setString("GOOGLE_MODEL", &c.Providers.Google.Model)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FILE", &c.LogFile)
	setString("LOG_FORMAT", &c.LogFormat)

	if v, ok := os.LookupEnv(envPrefix + "API_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sAPI_TIMEOUT_SECONDS: %w", envPrefix, err)
		}
		c.Server.APITimeoutSeconds = n
	}
	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	switch c.Persistence {
	case PersistenceNone, PersistenceRemote:
	default:
		return fmt.Errorf("unsupported persistence: %q (want %q or %q)", c.Persistence, PersistenceNone, PersistenceRemote)
	}

	switch c.Generation.Backend {
	case BackendService, BackendOpenAI, BackendGoogle, BackendDryRun:
	default:
		return fmt.Errorf("unsupported generation backend: %q", c.Generation.Backend)
	}

	needsServer := c.Persistence == PersistenceRemote || c.Generation.Backend == BackendService
	if needsServer && strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("server.base_url is required for %s persistence and %s backend", c.Persistence, c.Generation.Backend)
	}
	if c.Server.APITimeoutSeconds <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive, got: %d", c.Server.APITimeoutSeconds)
	}

	if !validModelType(c.Conversation.ModelType) {
		return fmt.Errorf("unsupported model_type: %q", c.Conversation.ModelType)
	}

	if c.Generation.MaxLength < 10 || c.Generation.MaxLength > 5000 {
		return fmt.Errorf("max_length must be between 10 and 5000, got: %d", c.Generation.MaxLength)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got: %f", c.Generation.Temperature)
	}

	switch c.Generation.Backend {
	case BackendOpenAI:
		if err := validateProvider("openai", c.Providers.OpenAI); err != nil {
			return err
		}
	case BackendGoogle:
		if err := validateProvider("google", c.Providers.Google); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.Messages.Failure) == "" {
		return fmt.Errorf("messages.failure must not be empty")
	}

	return nil
}

func validateProvider(name string, p ProviderConfig) error {
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%s api_key is required (set in config file or %s%s_API_KEY)", name, envPrefix, strings.ToUpper(name))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("%s temperature must be between 0 and 2, got: %f", name, p.Temperature)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("%s max_tokens must not be negative, got: %d", name, p.MaxTokens)
	}
	return nil
}

func validModelType(t string) bool {
	for _, mt := range ModelTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".chatwidget/config.json"
	}
	return filepath.Join(homeDir, ".chatwidget", "config.json")
}
