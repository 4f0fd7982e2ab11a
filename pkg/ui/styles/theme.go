// Package styles holds the colors and lipgloss styles shared by the chat
// widget's components.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette, ANSI 256 colors
var (
	ColorAccent = lipgloss.Color("141")

	ColorText      = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("245")
	ColorUser      = lipgloss.Color("117") // User message label
	ColorAssistant = lipgloss.Color("219") // Assistant message label

	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")

	ColorCode        = lipgloss.Color("213")
	ColorCodeBg      = lipgloss.Color("235")
	ColorPlaceholder = lipgloss.Color("240")

	ColorBorder      = lipgloss.Color("141")
	ColorBorderMuted = lipgloss.Color("62")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextMutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	TextBoldStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorUser).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(ColorAssistant).
				Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorPlaceholder).
				Italic(true)
)

// Feedback styles
var (
	// ErrorStyle renders failed replies and the init failure notice.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// CodeStyle renders fenced code blocks.
var CodeStyle = lipgloss.NewStyle().
	Foreground(ColorCode).
	Background(ColorCodeBg)

// Frame styles
var (
	// ChatBoxStyle frames the message list and composer.
	ChatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	// ChatBoxBusyStyle is used while a reply is pending.
	ChatBoxBusyStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	StatusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#B3261E")).
				Padding(0, 1).
				Bold(true)
)
