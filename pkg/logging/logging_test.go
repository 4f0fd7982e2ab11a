package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatwidget/pkg/config"
)

func TestInitCreatesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "chatwidget.log")

	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "json"
	cfg.LogLevel = "info"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	logger.Info("hello", slog.String("component", "test"))
	logger.Debug("hidden_debug")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("Expected log to contain message, got: %s", string(data))
	}
	if strings.Contains(string(data), "hidden_debug") {
		t.Errorf("Debug record should be filtered at info level, got: %s", string(data))
	}
}

func TestInitTraceLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "trace.log")

	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "text"
	cfg.LogLevel = "trace"

	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Trace("payload_dump", "size", 3)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "payload_dump") || !strings.Contains(out, "level=TRACE") {
		t.Errorf("Expected trace record, got: %s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if !strings.HasSuffix(path, filepath.Join(".chatwidget", "logs", "chatwidget.log")) {
		t.Errorf("Unexpected log path %q", path)
	}
}
