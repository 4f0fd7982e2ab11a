// Package chatview renders the conversation and owns the composer textarea.
package chatview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"chatwidget/pkg/chat"
	"chatwidget/pkg/ui/styles"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const (
	borderSize     = 1
	paddingH       = 1
	composerHeight = 3
	// title + separator between messages and composer
	chromeLines = 2

	pageSize     = 10
	footerInput  = "Enter Send | Tab Messages | Up/Down Scroll | Ctrl+C Quit"
	footerScroll = "Tab Compose | y Copy reply | j/k Scroll | q Quit"
)

// FocusTarget indicates which part of the chat view has focus.
type FocusTarget int

const (
	FocusInput FocusTarget = iota
	FocusMessages
)

// SubmitMsg is returned when the user presses enter with a non-blank draft.
// The draft itself stays in the composer until the controller clears it.
type SubmitMsg struct{}

// CopiedMsg reports the result of a copy to the clipboard.
type CopiedMsg struct {
	Err error
}

// ChatView displays the message list above a composer textarea. It
// implements chat.Composer.
type ChatView struct {
	title   string
	width   int
	height  int
	scrollY int
	follow  bool
	lines   []string

	messages []chat.Message
	busy     bool

	textarea textarea.Model
	spinner  spinner.Model
	focused  FocusTarget

	clipboard io.Writer
}

// New creates a chat view with the composer focused.
func New(title string) *ChatView {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j", "alt+enter"))
	ta.SetHeight(composerHeight)
	ta.Focus()

	return &ChatView{
		title:     title,
		follow:    true,
		textarea:  ta,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.AssistantLabelStyle)),
		focused:   FocusInput,
		clipboard: os.Stdout,
	}
}

// Draft implements chat.Composer.
func (v *ChatView) Draft() string {
	return v.textarea.Value()
}

// ClearDraft implements chat.Composer.
func (v *ChatView) ClearDraft() {
	v.textarea.Reset()
}

// SetDraft replaces the composer text.
func (v *ChatView) SetDraft(text string) {
	v.textarea.SetValue(text)
}

// SetTitle updates the header line.
func (v *ChatView) SetTitle(title string) {
	v.title = title
}

// SetSize sets the outer dimensions, border included.
func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.textarea.SetWidth(v.contentWidth())
	v.refresh()
}

// SetMessages replaces the rendered conversation.
func (v *ChatView) SetMessages(msgs []chat.Message) {
	v.messages = msgs
	v.refresh()
}

// Messages returns the messages currently rendered.
func (v *ChatView) Messages() []chat.Message {
	return v.messages
}

// HandleEvent applies a controller event. Every list change snaps the view
// back to the bottom. It returns the spinner tick when a reply starts loading.
func (v *ChatView) HandleEvent(ev chat.Event) tea.Cmd {
	wasBusy := v.busy
	v.messages = ev.Messages
	v.busy = ev.State != chat.StateIdle
	v.follow = true
	v.refresh()

	if v.busy && !wasBusy {
		return v.spinner.Tick
	}
	return nil
}

// IsBusy reports whether a reply is pending.
func (v *ChatView) IsBusy() bool {
	return v.busy
}

// IsFocusedOnInput returns true if the composer is focused.
func (v *ChatView) IsFocusedOnInput() bool {
	return v.focused == FocusInput
}

// ToggleFocus switches focus between the message list and the composer.
func (v *ChatView) ToggleFocus() {
	if v.focused == FocusInput {
		v.focused = FocusMessages
		v.textarea.Blur()
		return
	}
	v.focused = FocusInput
	v.textarea.Focus()
}

// HandlePaste inserts pasted text into the composer.
func (v *ChatView) HandlePaste(content string) {
	if v.focused != FocusInput {
		v.ToggleFocus()
	}
	v.textarea.InsertString(content)
}

// Update handles key presses and spinner ticks.
func (v *ChatView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.busy {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return cmd
	case tea.KeyPressMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *ChatView) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	keyStr := msg.String()

	switch keyStr {
	case "tab":
		v.ToggleFocus()
		return nil
	case "up", "down", "pgup", "pgdown":
		v.scroll(keyStr)
		return nil
	}

	if v.focused == FocusInput {
		switch keyStr {
		case "enter":
			if strings.TrimSpace(v.textarea.Value()) == "" {
				return nil
			}
			return func() tea.Msg { return SubmitMsg{} }
		case "esc":
			v.ToggleFocus()
			return nil
		}
		var cmd tea.Cmd
		v.textarea, cmd = v.textarea.Update(msg)
		return cmd
	}

	switch keyStr {
	case "k":
		v.scroll("up")
	case "j":
		v.scroll("down")
	case "home", "g":
		v.scroll("home")
	case "end", "G":
		v.scroll("end")
	case "y":
		return v.copyLastReply()
	case "i", "enter":
		v.ToggleFocus()
	}
	return nil
}

func (v *ChatView) scroll(direction string) {
	maxScroll := v.maxScroll()

	switch direction {
	case "up":
		if v.scrollY > 0 {
			v.scrollY--
		}
	case "down":
		if v.scrollY < maxScroll {
			v.scrollY++
		}
	case "pgup":
		v.scrollY = max(v.scrollY-pageSize, 0)
	case "pgdown":
		v.scrollY = min(v.scrollY+pageSize, maxScroll)
	case "home":
		v.scrollY = 0
	case "end":
		v.scrollY = maxScroll
	}
	v.follow = v.scrollY >= maxScroll
}

// LastReply returns the content of the newest finished assistant message.
func (v *ChatView) LastReply() (string, bool) {
	for i := len(v.messages) - 1; i >= 0; i-- {
		msg := v.messages[i]
		if msg.Role == chat.RoleAssistant && !msg.Loading && !msg.Error {
			return msg.Content, true
		}
	}
	return "", false
}

func (v *ChatView) copyLastReply() tea.Cmd {
	text, ok := v.LastReply()
	if !ok {
		return nil
	}
	out := v.clipboard
	return func() tea.Msg {
		_, err := fmt.Fprint(out, osc52.New(text))
		return CopiedMsg{Err: err}
	}
}

func (v *ChatView) refresh() {
	v.lines = renderConversation(v.messages, v.contentWidth(), v.spinner.View())
	if v.follow {
		v.scrollY = v.maxScroll()
	}
	if v.scrollY > v.maxScroll() {
		v.scrollY = v.maxScroll()
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *ChatView) contentWidth() int {
	return max(v.width-2*(borderSize+paddingH), 1)
}

func (v *ChatView) contentHeight() int {
	return max(v.height-2*borderSize, 1)
}

func (v *ChatView) viewportHeight() int {
	// footer line sits under the composer
	return max(v.contentHeight()-composerHeight-chromeLines-1, 1)
}

func (v *ChatView) maxScroll() int {
	return max(len(v.lines)-v.viewportHeight(), 0)
}

// View renders the framed conversation and composer.
func (v *ChatView) View() string {
	width := v.contentWidth()
	height := v.contentHeight()
	viewport := v.viewportHeight()

	lines := make([]string, 0, height)
	lines = append(lines, padStyled(styles.TitleStyle.Render(truncateToWidth(v.title, width)), width))

	end := min(v.scrollY+viewport, len(v.lines))
	for i := v.scrollY; i < end; i++ {
		lines = append(lines, padStyled(v.lines[i], width))
	}
	for len(lines) < 1+viewport {
		lines = append(lines, strings.Repeat(" ", width))
	}

	lines = append(lines, styles.FooterStyle.Render(strings.Repeat("─", width)))

	for i, line := range strings.Split(v.textarea.View(), "\n") {
		if i >= composerHeight {
			break
		}
		lines = append(lines, padStyled(line, width))
	}
	for len(lines) < height-1 {
		lines = append(lines, strings.Repeat(" ", width))
	}

	footer := footerInput
	if v.focused == FocusMessages {
		footer = footerScroll
	}
	lines = append(lines, padStyled(styles.FooterStyle.Render(truncateToWidth(footer, width)), width))

	box := styles.ChatBoxStyle
	if v.busy {
		box = styles.ChatBoxBusyStyle
	}
	return box.
		Width(max(v.width, 1)).
		Padding(0, paddingH).
		Render(strings.Join(lines, "\n"))
}

var _ chat.Composer = (*ChatView)(nil)
