package chatview

import (
	"strings"

	"chatwidget/pkg/chat"
	"chatwidget/pkg/ui/styles"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const (
	userLabel      = "You"
	assistantLabel = "Assistant"
	loadingText    = "Thinking..."
	timeLayout     = "15:04"
)

// renderConversation lays out every message for the given width. Messages
// are separated by a blank line and start with a role label.
func renderConversation(msgs []chat.Message, width int, spinnerFrame string) []string {
	if len(msgs) == 0 {
		return []string{styles.TextMutedStyle.Render(truncateToWidth("No messages yet.", width))}
	}

	var out []string
	for i, msg := range msgs {
		if i > 0 {
			out = append(out, "")
		}
		out = append(out, renderLabel(msg, width))

		switch {
		case msg.Loading:
			out = append(out, trimStyled(spinnerFrame+" "+styles.TextMutedStyle.Render(loadingText), width))
		case msg.Error:
			flat := strings.ReplaceAll(sanitizeContent(normalizeNewlines(msg.Content)), "\n", " ")
			out = append(out, wrapSpans(parseSpans(flat), width, renderErrorSpan)...)
		default:
			out = append(out, renderMarkdown(msg.Content, width)...)
		}
	}
	return out
}

func renderLabel(msg chat.Message, width int) string {
	label := styles.AssistantLabelStyle.Render(assistantLabel)
	if msg.Role == chat.RoleUser {
		label = styles.UserLabelStyle.Render(userLabel)
	}
	if !msg.Timestamp.IsZero() {
		label += " " + styles.TextMutedStyle.Render(msg.Timestamp.Local().Format(timeLayout))
	}
	return trimStyled(label, width)
}

// renderMarkdown handles the subset replies use in practice: fenced code
// blocks, **bold** spans and blank-line paragraphs.
func renderMarkdown(content string, width int) []string {
	content = sanitizeContent(normalizeNewlines(content))

	var out []string
	inCode := false
	for _, raw := range strings.Split(content, "\n") {
		line := strings.ReplaceAll(raw, "\t", "    ")
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			for _, part := range splitByWidth(line, width) {
				out = append(out, styles.CodeStyle.Render(padPlain(part, width)))
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, wrapSpans(parseSpans(line), width, renderSpan)...)
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

type span struct {
	text string
	bold bool
}

// parseSpans splits a line into words, toggling bold on each "**".
func parseSpans(line string) []span {
	var spans []span
	bold := false
	for i, segment := range strings.Split(line, "**") {
		if i > 0 {
			bold = !bold
		}
		for _, word := range strings.Fields(segment) {
			spans = append(spans, span{text: word, bold: bold})
		}
	}
	return spans
}

func wrapSpans(spans []span, width int, render func(span) string) []string {
	var lines []string
	var current []span
	used := 0

	emit := func() {
		var sb strings.Builder
		for i, s := range current {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(render(s))
		}
		lines = append(lines, sb.String())
		current = nil
		used = 0
	}

	for _, s := range spans {
		for _, part := range splitByWidth(s.text, width) {
			w := runewidth.StringWidth(part)
			if used > 0 && used+1+w > width {
				emit()
			}
			if used > 0 {
				used++
			}
			current = append(current, span{text: part, bold: s.bold})
			used += w
		}
	}
	if len(current) > 0 {
		emit()
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func renderSpan(s span) string {
	if s.bold {
		return styles.TextBoldStyle.Render(s.text)
	}
	return styles.TextStyle.Render(s.text)
}

func renderErrorSpan(s span) string {
	return styles.ErrorStyle.Render(s.text)
}

func splitByWidth(text string, width int) []string {
	if width <= 0 || text == "" {
		return []string{text}
	}

	var parts []string
	var sb strings.Builder
	used := 0
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if used+rw > width && used > 0 {
			parts = append(parts, sb.String())
			sb.Reset()
			used = 0
		}
		sb.WriteRune(r)
		used += rw
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "...")
}

func trimStyled(text string, width int) string {
	return ansi.Truncate(text, width, "")
}

func padPlain(text string, width int) string {
	if pad := width - runewidth.StringWidth(text); pad > 0 {
		return text + strings.Repeat(" ", pad)
	}
	return text
}

func padStyled(text string, width int) string {
	if pad := width - lipgloss.Width(text); pad > 0 {
		return text + strings.Repeat(" ", pad)
	}
	return text
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// sanitizeContent drops control characters that would corrupt the frame.
func sanitizeContent(content string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, content)
}
