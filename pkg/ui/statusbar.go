package ui

import (
	"fmt"
	"strings"

	"chatwidget/pkg/chat"
	"chatwidget/pkg/ui/styles"

	"github.com/charmbracelet/x/ansi"
)

// StatusInfo describes where the session's replies come from.
type StatusInfo struct {
	Backend     string
	Model       string
	Persistence string
}

// StatusBar renders a single line below the chat view.
type StatusBar struct {
	info           StatusInfo
	conversationID string
	state          chat.State
	notice         string
	message        string
	width          int
}

// NewStatusBar creates a status bar for the given session info.
func NewStatusBar(info StatusInfo) *StatusBar {
	return &StatusBar{info: info, width: 80}
}

// SetWidth updates the width for rendering
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetConversation updates the conversation id shown.
func (s *StatusBar) SetConversation(id string) {
	s.conversationID = id
}

// SetState updates the turn state shown.
func (s *StatusBar) SetState(state chat.State) {
	s.state = state
}

// SetNotice sets a persistent warning, such as the init failure notice.
func (s *StatusBar) SetNotice(notice string) {
	s.notice = strings.TrimSpace(notice)
}

// SetMessage sets a transient message that replaces the hint segment.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// Render returns the styled status bar string padded to the full width.
func (s *StatusBar) Render() string {
	parts := []string{"[chatwidget]"}
	if s.notice != "" {
		parts = append(parts, s.notice)
	}

	backend := s.info.Backend
	if backend == "" {
		backend = "unknown"
	}
	if s.info.Model != "" {
		backend += "/" + s.info.Model
	}
	parts = append(parts, fmt.Sprintf("llm: %s", backend))

	conv := s.conversationID
	if conv == "" {
		conv = "local"
	}
	parts = append(parts, fmt.Sprintf("conv: %s", conv))
	parts = append(parts, s.state.String())
	if s.message != "" {
		parts = append(parts, s.message)
	}
	content := strings.Join(parts, " | ")

	maxWidth := max(s.width-2, 10)
	if ansi.StringWidth(content) > maxWidth {
		content = ansi.Truncate(content, maxWidth, "...")
	}

	style := styles.StatusBarStyle
	if s.notice != "" {
		style = styles.StatusBarErrorStyle
	}
	styled := style.Render(content)
	if pad := s.width - ansi.StringWidth(styled); pad > 0 {
		styled += strings.Repeat(" ", pad)
	}
	return styled
}
