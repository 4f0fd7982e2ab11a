package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"chatwidget/pkg/chat"
)

type echoGenerator struct {
	err     error
	prompts []string
}

func (g *echoGenerator) GenerateReply(ctx context.Context, prompt, conversationID string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return "echo " + prompt, nil
}

type failingService struct{}

func (failingService) CreateConversation(ctx context.Context, title, modelType, modelName string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingService) PostMessage(ctx context.Context, conversationID string, role chat.Role, content string) (string, error) {
	return "", errors.New("connection refused")
}

func runConsole(t *testing.T, input string, gen chat.Generator, opts ...chat.Option) (string, *chat.Controller) {
	t.Helper()
	var out bytes.Buffer
	cons := New(strings.NewReader(input), &out)

	opts = append([]chat.Option{chat.WithComposer(cons.Composer()), chat.WithObserver(cons.Observe)}, opts...)
	ctrl := chat.NewController(gen, opts...)
	_ = ctrl.Start(context.Background())

	if err := cons.Run(context.Background(), ctrl); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return out.String(), ctrl
}

func TestConsole_RunsTurnPerLine(t *testing.T) {
	gen := &echoGenerator{}
	out, ctrl := runConsole(t, "hello\n\n  world  \n", gen)

	if len(gen.prompts) != 2 || gen.prompts[0] != "hello" || gen.prompts[1] != "world" {
		t.Fatalf("Expected prompts [hello world], got %v", gen.prompts)
	}
	for _, want := range []string{
		"Assistant: " + chat.DefaultWelcomeMessage,
		"You: hello",
		thinkingLine,
		"Assistant: echo hello",
		"Assistant: echo world",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
	if got := len(ctrl.Messages()); got != 5 {
		t.Errorf("Expected 5 messages, got %d", got)
	}
}

func TestConsole_ExitCommand(t *testing.T) {
	gen := &echoGenerator{}
	runConsole(t, "first\n/quit\nsecond\n", gen)

	if len(gen.prompts) != 1 {
		t.Errorf("Expected input after /quit to be ignored, got %v", gen.prompts)
	}
}

func TestConsole_FailedTurn(t *testing.T) {
	out, _ := runConsole(t, "hi\n", &echoGenerator{err: errors.New("boom")})

	if !strings.Contains(out, failedLineLabel+": "+chat.DefaultFailureMessage) {
		t.Errorf("Expected failure line, got:\n%s", out)
	}
}

func TestConsole_InitFailure(t *testing.T) {
	persistence := chat.RemoteConversation(failingService{}, chat.ConversationSpec{Title: "t"})
	out, _ := runConsole(t, "", &echoGenerator{}, chat.WithPersistence(persistence))

	if !strings.Contains(out, chat.InitFailureNotice) {
		t.Errorf("Expected init failure notice, got:\n%s", out)
	}
	if strings.Contains(out, chat.DefaultWelcomeMessage) {
		t.Errorf("Welcome message must not be printed after init failure")
	}
}

func TestConsole_InteractivePrompt(t *testing.T) {
	var out bytes.Buffer
	cons := New(strings.NewReader("hi\n"), &out)
	cons.SetInteractive(true)

	ctrl := chat.NewController(&echoGenerator{},
		chat.WithComposer(cons.Composer()),
		chat.WithObserver(cons.Observe),
		chat.WithWelcomeMessage(""),
	)
	_ = ctrl.Start(context.Background())
	if err := cons.Run(context.Background(), ctrl); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got := out.String()
	if strings.Count(got, promptPrefix) != 2 {
		t.Errorf("Expected a prompt before each read, got:\n%q", got)
	}
	if strings.Contains(got, "You: hi") {
		t.Errorf("Typed input must not be echoed on a terminal, got:\n%s", got)
	}
}

func TestConsole_CancelledContext(t *testing.T) {
	gen := &echoGenerator{}
	var out bytes.Buffer
	cons := New(strings.NewReader("hi\n"), &out)
	ctrl := chat.NewController(gen, chat.WithComposer(cons.Composer()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := cons.Run(ctx, ctrl); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("Expected no turns after cancellation, got %v", gen.prompts)
	}
}
