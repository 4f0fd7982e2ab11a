package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ConversationService stores conversations and their messages remotely.
type ConversationService interface {
	CreateConversation(ctx context.Context, title, modelType, modelName string) (string, error)
	PostMessage(ctx context.Context, conversationID string, role Role, content string) (string, error)
}

// HistoryLoader is implemented by services that can return the messages of an
// existing conversation. RemoteConversation uses it to resume.
type HistoryLoader interface {
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// Generator produces the assistant reply for a prompt. conversationID is
// empty when nothing is persisted.
type Generator interface {
	GenerateReply(ctx context.Context, prompt, conversationID string) (string, error)
}

// HistoryGenerator is implemented by generators that read the earlier
// messages of the conversation. history holds the finalized messages before
// the prompt, oldest first.
type HistoryGenerator interface {
	GenerateReplyWithHistory(ctx context.Context, history []Message, prompt, conversationID string) (string, error)
}

// ReplyStorer is implemented by generators that store their own replies in
// the conversation. Their replies are not recorded a second time.
type ReplyStorer interface {
	StoresReplies() bool
}

// Conversation is what a Persistence strategy yields when a session starts.
type Conversation struct {
	ID       string
	Messages []Message
}

// Persistence decides where, if anywhere, a session is stored.
type Persistence interface {
	// Name is used in logs and the status bar.
	Name() string
	Open(ctx context.Context) (Conversation, error)
	RecordUserMessage(ctx context.Context, conversationID, content string) error
	RecordAssistantMessage(ctx context.Context, conversationID, content string) error
}

// loggerSetter is implemented by strategies that log; the controller hands
// them its logger.
type loggerSetter interface {
	setLogger(l *slog.Logger)
}

// InMemory keeps the session purely in the widget.
func InMemory() Persistence {
	return inMemory{}
}

type inMemory struct{}

func (inMemory) Name() string { return "none" }

func (inMemory) Open(context.Context) (Conversation, error) { return Conversation{}, nil }

func (inMemory) RecordUserMessage(context.Context, string, string) error { return nil }

func (inMemory) RecordAssistantMessage(context.Context, string, string) error { return nil }

// ConversationSpec describes the remote conversation to create or resume.
type ConversationSpec struct {
	Title     string
	ModelType string
	ModelName string
	ResumeID  string
}

// RemoteConversation stores the session through svc. A conversation is created
// once when the session opens, or resumed when spec.ResumeID is set and svc
// implements HistoryLoader. Every turn posts its user message before the reply
// is generated, and the reply afterwards unless the generator stores it.
func RemoteConversation(svc ConversationService, spec ConversationSpec) Persistence {
	return &remoteConversation{svc: svc, spec: spec, logger: slog.Default()}
}

type remoteConversation struct {
	svc    ConversationService
	spec   ConversationSpec
	logger *slog.Logger
}

func (r *remoteConversation) setLogger(l *slog.Logger) {
	r.logger = l
}

func (r *remoteConversation) Name() string { return "remote" }

func (r *remoteConversation) Open(ctx context.Context) (Conversation, error) {
	if resumeID := strings.TrimSpace(r.spec.ResumeID); resumeID != "" {
		loader, ok := r.svc.(HistoryLoader)
		if !ok {
			return Conversation{}, &ServiceError{Op: "list_messages", Err: errors.New("service cannot load history")}
		}
		msgs, err := loader.ListMessages(ctx, resumeID)
		if err != nil {
			return Conversation{}, asServiceError("list_messages", err)
		}
		r.logger.Info("conversation_resumed", "conversation_id", resumeID, "message_count", len(msgs))
		return Conversation{ID: resumeID, Messages: msgs}, nil
	}

	id, err := r.svc.CreateConversation(ctx, r.spec.Title, r.spec.ModelType, r.spec.ModelName)
	if err != nil {
		return Conversation{}, asServiceError("create_conversation", err)
	}
	r.logger.Info("conversation_created", "conversation_id", id, "model_name", r.spec.ModelName)
	return Conversation{ID: id}, nil
}

func (r *remoteConversation) RecordUserMessage(ctx context.Context, conversationID, content string) error {
	return r.post(ctx, conversationID, RoleUser, content)
}

func (r *remoteConversation) RecordAssistantMessage(ctx context.Context, conversationID, content string) error {
	return r.post(ctx, conversationID, RoleAssistant, content)
}

func (r *remoteConversation) post(ctx context.Context, conversationID string, role Role, content string) error {
	if conversationID == "" {
		return &ServiceError{Op: "post_message", Err: errors.New("no conversation is open")}
	}
	id, err := r.svc.PostMessage(ctx, conversationID, role, content)
	if err != nil {
		return asServiceError("post_message", err)
	}
	r.logger.Debug("message_posted", "conversation_id", conversationID, "role", role, "message_id", id)
	return nil
}

func asServiceError(op string, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}
