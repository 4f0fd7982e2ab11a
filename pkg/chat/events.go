package chat

// State is the position of the controller in the turn state machine.
type State int

const (
	StateIdle State = iota
	StateSending
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return "idle"
	}
}

// EventKind classifies an Event.
type EventKind int

const (
	EventConversationOpened EventKind = iota
	EventMessageAppended
	EventMessageReplaced
	EventTurnFinished
)

func (k EventKind) String() string {
	switch k {
	case EventConversationOpened:
		return "conversation_opened"
	case EventMessageAppended:
		return "message_appended"
	case EventMessageReplaced:
		return "message_replaced"
	case EventTurnFinished:
		return "turn_finished"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after every state change, once the change
// is complete. Messages is a snapshot taken right after the change.
type Event struct {
	Kind     EventKind
	Message  Message
	State    State
	Messages []Message
}

// Observer receives controller events. Views use it to re-render and scroll
// to the bottom.
type Observer func(Event)
