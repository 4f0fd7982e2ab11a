package chat

import "sync"

// Composer holds the draft the user is typing.
type Composer interface {
	Draft() string
	ClearDraft()
}

// DraftBuffer is an in-memory Composer.
type DraftBuffer struct {
	mu   sync.Mutex
	text string
}

// SetDraft replaces the current draft.
func (b *DraftBuffer) SetDraft(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

// Draft returns the current draft.
func (b *DraftBuffer) Draft() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// ClearDraft empties the draft.
func (b *DraftBuffer) ClearDraft() {
	b.SetDraft("")
}
