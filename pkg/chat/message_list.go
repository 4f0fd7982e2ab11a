package chat

import "fmt"

// MessageList is the ordered, append-only history of a conversation.
// The only in-place edit allowed is swapping the loading placeholder for its
// final message. MessageList is not safe for concurrent use; Controller
// guards it.
type MessageList struct {
	items []Message
}

// NewMessageList creates a list seeded with msgs.
func NewMessageList(msgs ...Message) *MessageList {
	l := &MessageList{}
	l.items = append(l.items, msgs...)
	return l
}

// Append adds msg to the end of the list.
func (l *MessageList) Append(msg Message) {
	l.items = append(l.items, msg)
}

// Replace swaps the loading placeholder identified by id with msg.
// The target must exist and still be loading.
func (l *MessageList) Replace(id string, msg Message) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: id %q", ErrPlaceholderNotFound, id)
	}
	if !l.items[idx].Loading {
		return fmt.Errorf("%w: id %q is already final", ErrPlaceholderNotFound, id)
	}
	msg.ID = id
	l.items[idx] = msg
	return nil
}

// Find returns the message with the given id.
func (l *MessageList) Find(id string) (Message, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return Message{}, false
	}
	return l.items[idx], true
}

// Loading returns the current placeholder, if any.
func (l *MessageList) Loading() (Message, bool) {
	for _, msg := range l.items {
		if msg.Loading {
			return msg, true
		}
	}
	return Message{}, false
}

// LoadingCount returns how many messages are flagged as loading.
func (l *MessageList) LoadingCount() int {
	n := 0
	for _, msg := range l.items {
		if msg.Loading {
			n++
		}
	}
	return n
}

// Len returns the number of messages.
func (l *MessageList) Len() int {
	return len(l.items)
}

// Messages returns a copy of the list contents.
func (l *MessageList) Messages() []Message {
	out := make([]Message, len(l.items))
	copy(out, l.items)
	return out
}

func (l *MessageList) indexOf(id string) int {
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}
