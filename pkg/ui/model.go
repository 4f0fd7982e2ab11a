// Package ui wires the chat controller into a Bubble Tea program.
package ui

import (
	"context"
	"errors"
	"log/slog"

	"chatwidget/pkg/chat"
	"chatwidget/pkg/ui/chatview"

	tea "charm.land/bubbletea/v2"
)

// turnDoneMsg carries the result of a turn that ran off the event loop.
type turnDoneMsg struct {
	result chat.TurnResult
}

// eventSink forwards controller events to the chat view and collects the
// commands the view asks for.
type eventSink struct {
	view *chatview.ChatView
	cmds []tea.Cmd
}

func (s *eventSink) observe(ev chat.Event) {
	if cmd := s.view.HandleEvent(ev); cmd != nil {
		s.cmds = append(s.cmds, cmd)
	}
}

func (s *eventSink) drain() []tea.Cmd {
	cmds := s.cmds
	s.cmds = nil
	return cmds
}

// Model is the Bubble Tea application state.
type Model struct {
	ctx    context.Context
	ctrl   *chat.Controller
	view   *chatview.ChatView
	status *StatusBar
	sink   *eventSink

	width  int
	height int
	ready  bool
}

// NewModel builds the program model. view must be the composer attached to
// ctrl; the model subscribes it to the controller's events.
func NewModel(ctx context.Context, ctrl *chat.Controller, view *chatview.ChatView, info StatusInfo) Model {
	sink := &eventSink{view: view}
	ctrl.AddObserver(sink.observe)

	status := NewStatusBar(info)
	status.SetConversation(ctrl.ConversationID())
	if ctrl.StartErr() != nil {
		status.SetNotice(chat.InitFailureNotice)
	}

	view.SetMessages(ctrl.Messages())

	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		view:   view,
		status: status,
		sink:   sink,
	}
}

// Init starts no background work; turns are started by submissions.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming events and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.view.SetSize(msg.Width, max(msg.Height-1, 1))
		m.status.SetWidth(msg.Width)
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			if !m.view.IsFocusedOnInput() {
				return m, tea.Quit
			}
		}
		m.status.SetMessage("")
		return m, m.view.Update(msg)

	case tea.PasteMsg:
		m.view.HandlePaste(msg.Content)
		return m, nil

	case chatview.SubmitMsg:
		turn, ok := m.ctrl.Begin(m.view.Draft())
		cmds := m.sink.drain()
		if ok {
			m.status.SetState(m.ctrl.State())
			cmds = append(cmds, runTurn(m.ctx, turn))
		}
		return m, tea.Batch(cmds...)

	case turnDoneMsg:
		if err := m.ctrl.Complete(msg.result); err != nil {
			slog.Error("turn_complete_error", "turn_id", msg.result.TurnID, "error", err)
		}
		m.status.SetState(m.ctrl.State())
		if msg.result.Err != nil {
			m.status.SetMessage(failureHint(msg.result.Err))
		}
		return m, tea.Batch(m.sink.drain()...)

	case chatview.CopiedMsg:
		if msg.Err != nil {
			m.status.SetMessage("Copy failed")
		} else {
			m.status.SetMessage("Reply copied")
		}
		return m, nil
	}

	return m, m.view.Update(msg)
}

// View renders the chat view above the status bar.
func (m Model) View() tea.View {
	if !m.ready {
		return tea.NewView("Initializing...")
	}
	v := tea.NewView(m.view.View() + "\n" + m.status.Render())
	v.AltScreen = true
	return v
}

func runTurn(ctx context.Context, turn *chat.Turn) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{result: turn.Run(ctx)}
	}
}

func failureHint(err error) string {
	var svcErr *chat.ServiceError
	if errors.As(err, &svcErr) {
		return "Conversation service error"
	}
	return "Reply generation failed"
}
