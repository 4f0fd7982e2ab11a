package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the widget renders.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single entry in the conversation shown by the widget.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Loading   bool // placeholder while a reply is being generated
	Error     bool // terminal failure of a turn
}

// IsPlaceholder reports whether m is the provisional assistant entry of an
// in-flight turn.
func (m Message) IsPlaceholder() bool {
	return m.Loading && m.Role == RoleAssistant
}
