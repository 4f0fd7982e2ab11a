// Package console runs the chat widget as a line-oriented REPL for pipes and
// terminals where the full-screen view is not wanted.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"chatwidget/pkg/chat"
)

const (
	promptPrefix    = "> "
	thinkingLine    = "Assistant is thinking..."
	maxLineSize     = 1024 * 1024
	exitCommand     = "/exit"
	quitCommand     = "/quit"
	userLabel       = "You"
	assistantLabel  = "Assistant"
	failedLineLabel = "Assistant (error)"
)

// Console reads one prompt per line and prints the conversation as the
// controller reports it.
type Console struct {
	in    io.Reader
	out   io.Writer
	draft *chat.DraftBuffer

	mu          sync.Mutex
	interactive bool
}

// New creates a console reading prompts from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, draft: &chat.DraftBuffer{}}
}

// SetInteractive enables the input prompt, for use on a terminal.
func (c *Console) SetInteractive(on bool) {
	c.interactive = on
}

// Composer returns the draft buffer the controller should clear on submit.
func (c *Console) Composer() chat.Composer {
	return c.draft
}

// Observe prints controller events. Register it with chat.WithObserver before
// the controller starts so the opening history is printed.
func (c *Console) Observe(ev chat.Event) {
	switch ev.Kind {
	case chat.EventConversationOpened:
		for _, msg := range ev.Messages {
			c.printMessage(msg)
		}
	case chat.EventMessageAppended:
		if ev.Message.IsPlaceholder() {
			c.println(thinkingLine)
			return
		}
		if c.interactive && ev.Message.Role == chat.RoleUser {
			return
		}
		c.printMessage(ev.Message)
	case chat.EventMessageReplaced:
		c.printMessage(ev.Message)
	}
}

// Run reads lines until EOF, an exit command or ctx is cancelled. Each
// non-blank line is submitted as one blocking turn.
func (c *Console) Run(ctx context.Context, ctrl *chat.Controller) error {
	if err := ctrl.StartErr(); err != nil {
		c.println(chat.InitFailureNotice + ": " + err.Error())
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for {
		if ctx.Err() != nil {
			return nil
		}
		c.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case exitCommand, quitCommand:
			return nil
		}

		c.draft.SetDraft(line)
		ctrl.Submit(ctx)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (c *Console) prompt() {
	if !c.interactive {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, promptPrefix)
}

func (c *Console) printMessage(msg chat.Message) {
	if msg.Loading {
		return
	}
	label := userLabel
	switch {
	case msg.Error:
		label = failedLineLabel
	case msg.Role == chat.RoleAssistant:
		label = assistantLabel
	}
	c.println(fmt.Sprintf("%s: %s", label, msg.Content))
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}
