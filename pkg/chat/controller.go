// Package chat holds the widget core: the message list, the draft composer and
// the controller that runs one request/response turn at a time.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultWelcomeMessage greets the user when a new session opens.
	DefaultWelcomeMessage = "Hello! How can I assist you today?"
	// DefaultFailureMessage replaces the placeholder when a turn fails.
	DefaultFailureMessage = "Sorry, I couldn't get a response. Please try again."
	// InitFailureNotice is shown when the session could not be opened.
	InitFailureNotice = "Failed to initialize chat"
)

// Controller runs chat turns against a Generator and keeps the MessageList.
// At most one turn is in flight; submissions made meanwhile are ignored.
type Controller struct {
	mu             sync.Mutex
	list           *MessageList
	state          State
	inFlight       bool
	currentTurn    string
	conversationID string
	started        bool
	startErr       error
	observers      []Observer

	generator   Generator
	persistence Persistence
	composer    Composer
	welcome     string
	failure     string
	newID       func() string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPersistence selects where the session is stored. Defaults to InMemory.
func WithPersistence(p Persistence) Option {
	return func(c *Controller) {
		if p != nil {
			c.persistence = p
		}
	}
}

// WithComposer attaches the draft source cleared on every accepted turn.
func WithComposer(comp Composer) Option {
	return func(c *Controller) { c.composer = comp }
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithWelcomeMessage overrides the greeting. An empty string disables it.
func WithWelcomeMessage(text string) Option {
	return func(c *Controller) { c.welcome = text }
}

// WithFailureMessage overrides the text shown when a turn fails.
func WithFailureMessage(text string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(text) != "" {
			c.failure = text
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides how message and turn ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewController creates a controller that asks gen for replies.
func NewController(gen Generator, opts ...Option) *Controller {
	c := &Controller{
		list:        NewMessageList(),
		generator:   gen,
		persistence: InMemory(),
		welcome:     DefaultWelcomeMessage,
		failure:     DefaultFailureMessage,
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if ls, ok := c.persistence.(loggerSetter); ok {
		ls.setLogger(c.logger)
	}
	return c
}

// AddObserver registers o for all subsequent events.
func (c *Controller) AddObserver(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Start opens the session once: it creates or resumes the conversation and
// seeds the list with its history, or with the welcome message for a new
// session. The error, if any, is kept and reported by StartErr; turns can
// still be submitted and fail on their own.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		err := c.startErr
		c.mu.Unlock()
		return err
	}
	c.started = true
	c.mu.Unlock()

	conv, err := c.persistence.Open(ctx)

	c.mu.Lock()
	var opened Message
	if err != nil {
		c.startErr = err
		c.logger.Error("conversation_open_failed", "persistence", c.persistence.Name(), "error", err)
	} else {
		c.conversationID = conv.ID
		for _, msg := range conv.Messages {
			if msg.ID == "" {
				msg.ID = c.newID()
			}
			msg.Loading = false
			c.list.Append(msg)
		}
		if len(conv.Messages) == 0 && c.welcome != "" {
			opened = Message{ID: c.newID(), Role: RoleAssistant, Content: c.welcome, Timestamp: c.now()}
			c.list.Append(opened)
		}
		c.logger.Info("conversation_opened",
			"persistence", c.persistence.Name(),
			"conversation_id", conv.ID,
			"message_count", c.list.Len(),
		)
	}
	ev := c.eventLocked(EventConversationOpened, opened)
	c.mu.Unlock()

	c.notify(ev)
	return err
}

// StartErr returns the error from Start, if it failed.
func (c *Controller) StartErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startErr
}

// ConversationID returns the remote conversation id, empty when in memory.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// PersistenceName returns the name of the active persistence strategy.
func (c *Controller) PersistenceName() string {
	return c.persistence.Name()
}

// InFlight reports whether a turn is awaiting its reply.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// State returns the current state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a snapshot of the message list.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Messages()
}

// Turn is one accepted submission waiting for its reply.
type Turn struct {
	ID             string
	Prompt         string
	UserMessageID  string
	PlaceholderID  string
	ConversationID string
	// History holds the finalized messages that preceded the prompt.
	History []Message

	generator   Generator
	persistence Persistence
	logger      *slog.Logger
}

// TurnResult carries the outcome of Turn.Run back to Complete.
type TurnResult struct {
	TurnID        string
	PlaceholderID string
	Reply         string
	Err           error
}

// Begin accepts draft as a new turn: it appends the user message, clears the
// composer and appends the loading placeholder. It returns false, changing
// nothing, when the draft is blank or a turn is already in flight. The draft
// is kept as typed.
func (c *Controller) Begin(draft string) (*Turn, bool) {
	if strings.TrimSpace(draft) == "" {
		return nil, false
	}
	prompt := draft

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("turn_ignored_in_flight")
		return nil, false
	}
	if n := c.list.LoadingCount(); n > 0 {
		c.mu.Unlock()
		c.logger.Error("turn_refused_placeholder_present", "loading_count", n)
		return nil, false
	}
	c.inFlight = true
	c.state = StateSending
	history := finalizedMessages(c.list.Messages())
	user := Message{ID: c.newID(), Role: RoleUser, Content: prompt, Timestamp: c.now()}
	c.list.Append(user)
	userEvent := c.eventLocked(EventMessageAppended, user)
	c.mu.Unlock()
	c.notify(userEvent)

	if c.composer != nil {
		c.composer.ClearDraft()
	}

	c.mu.Lock()
	placeholder := Message{ID: c.newID(), Role: RoleAssistant, Timestamp: c.now(), Loading: true}
	c.list.Append(placeholder)
	c.state = StateAwaitingReply
	turn := &Turn{
		ID:             c.newID(),
		Prompt:         prompt,
		UserMessageID:  user.ID,
		PlaceholderID:  placeholder.ID,
		ConversationID: c.conversationID,
		History:        history,
		generator:      c.generator,
		persistence:    c.persistence,
		logger:         c.logger,
	}
	c.currentTurn = turn.ID
	placeholderEvent := c.eventLocked(EventMessageAppended, placeholder)
	c.mu.Unlock()
	c.notify(placeholderEvent)

	c.logger.Info("turn_start",
		"turn_id", turn.ID,
		"conversation_id", turn.ConversationID,
		"prompt_length", len(prompt),
	)
	return turn, true
}

// Run performs the blocking part of the turn: it records the user message with
// the persistence strategy, asks the generator for a reply and records the
// reply unless the generator stores it itself. A reply that cannot be recorded
// is still returned. Run does not touch controller state and may run on any
// goroutine.
func (t *Turn) Run(ctx context.Context) TurnResult {
	res := TurnResult{TurnID: t.ID, PlaceholderID: t.PlaceholderID}
	if t.generator == nil {
		res.Err = &GenerationError{Err: errors.New("no generator configured")}
		return res
	}
	if err := t.persistence.RecordUserMessage(ctx, t.ConversationID, t.Prompt); err != nil {
		res.Err = asTurnError(err)
		return res
	}
	var reply string
	var err error
	if hg, ok := t.generator.(HistoryGenerator); ok {
		reply, err = hg.GenerateReplyWithHistory(ctx, t.History, t.Prompt, t.ConversationID)
	} else {
		reply, err = t.generator.GenerateReply(ctx, t.Prompt, t.ConversationID)
	}
	if err != nil {
		res.Err = asTurnError(err)
		return res
	}
	res.Reply = reply

	if rs, ok := t.generator.(ReplyStorer); ok && rs.StoresReplies() {
		return res
	}
	if err := t.persistence.RecordAssistantMessage(ctx, t.ConversationID, reply); err != nil {
		t.logger.Warn("turn_reply_not_recorded", "turn_id", t.ID, "conversation_id", t.ConversationID, "error", err)
	}
	return res
}

// finalizedMessages returns the messages a generator may use as context:
// everything except placeholders and failed replies.
func finalizedMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Loading || msg.Error {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Complete applies a turn result: the placeholder becomes the reply, or the
// failure message on error, and the controller returns to idle.
func (c *Controller) Complete(res TurnResult) error {
	c.mu.Lock()
	if !c.inFlight || res.TurnID == "" || res.TurnID != c.currentTurn {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStaleTurn, res.TurnID)
	}

	final := Message{Role: RoleAssistant, Content: res.Reply, Timestamp: c.now()}
	if res.Err != nil {
		final.Content = c.failure
		final.Error = true
		c.logger.Warn("turn_failed",
			"turn_id", res.TurnID,
			"error_kind", errorKind(res.Err),
			"error", res.Err,
		)
	} else {
		c.logger.Info("turn_done", "turn_id", res.TurnID, "reply_length", len(res.Reply))
	}

	var events []Event
	replaceErr := c.list.Replace(res.PlaceholderID, final)
	if replaceErr != nil {
		c.logger.Error("turn_placeholder_missing", "turn_id", res.TurnID, "error", replaceErr)
	} else {
		final.ID = res.PlaceholderID
		events = append(events, c.eventLocked(EventMessageReplaced, final))
	}

	c.inFlight = false
	c.state = StateIdle
	c.currentTurn = ""
	events = append(events, c.eventLocked(EventTurnFinished, final))
	c.mu.Unlock()

	for _, ev := range events {
		c.notify(ev)
	}
	return replaceErr
}

// SubmitTurn runs a whole turn synchronously. It reports whether the draft
// was accepted.
func (c *Controller) SubmitTurn(ctx context.Context, draft string) bool {
	turn, ok := c.Begin(draft)
	if !ok {
		return false
	}
	if err := c.Complete(turn.Run(ctx)); err != nil {
		c.logger.Error("turn_complete_error", "turn_id", turn.ID, "error", err)
	}
	return true
}

// Submit runs a turn with the attached composer's draft.
func (c *Controller) Submit(ctx context.Context) bool {
	if c.composer == nil {
		return false
	}
	return c.SubmitTurn(ctx, c.composer.Draft())
}

func (c *Controller) eventLocked(kind EventKind, msg Message) Event {
	return Event{
		Kind:     kind,
		Message:  msg,
		State:    c.state,
		Messages: c.list.Messages(),
	}
}

func (c *Controller) notify(ev Event) {
	c.mu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o(ev)
	}
}

func errorKind(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return "service"
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return "generation"
	}
	return "unknown"
}
