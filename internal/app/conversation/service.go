package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloGalante/justiceconnect/internal/app/prompt"
	"github.com/PabloGalante/justiceconnect/internal/app/session"
	"github.com/PabloGalante/justiceconnect/internal/domain"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

// Service is the chat orchestrator. It keeps no state between requests: the
// caller supplies the full prior transcript every time.
type Service struct {
	llm      domain.CompletionClient
	sessions *session.Manager
	now      func() time.Time
}

// NewService wires the orchestrator. llm may be nil when no completion
// credential is configured; SendMessage then fails with a ConfigurationError.
func NewService(llm domain.CompletionClient, sessions *session.Manager) *Service {
	return &Service{
		llm:      llm,
		sessions: sessions,
		now:      time.Now,
	}
}

type SendMessageInput struct {
	Message  string
	History  []domain.Message
	Language domain.Language
	UserID   domain.UserID
	ChatID   domain.SessionID
}

type SendMessageOutput struct {
	Message string
	History []domain.Message

	// Canned is set when the reply came from a fixed rule, not the provider.
	Canned bool
	// Persisted is set when the History Store write succeeded.
	Persisted bool
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.InvalidRequest("Message is required")
	}
	if s.llm == nil {
		return nil, &domain.ConfigurationError{Setting: "completion provider", Message: "Completion provider API key not configured"}
	}

	lang := in.Language
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"chat_id", in.ChatID,
		"language", lang,
	)

	if prompt.DetectCreatorTrigger(in.Message) {
		log.Info("creator trigger matched, returning canned answer")
		return &SendMessageOutput{
			Message: prompt.CreatorAnswer,
			History: appendReply(in.History, in.Message, prompt.CreatorAnswer),
			Canned:  true,
		}, nil
	}

	cite := prompt.DetectStatuteReference(in.Message)
	messages := prompt.Compose(lang, in.History, in.Message)

	start := s.now()
	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		log.Error("completion failed", "error", err)
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Provider: "completion", Detail: err.Error(), Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		log.Error("completion returned no content")
		return nil, &domain.UpstreamError{Provider: "completion", Detail: "provider returned no content"}
	}
	log.Info("completion received",
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
		"statute_reference", cite,
	)

	if cite {
		reply = prompt.InjectCitationFooter(reply)
	}

	history := make([]domain.Message, 0, len(messages))
	history = append(history, messages[1:]...)
	history = append(history, domain.AssistantMessage(reply))
	out := &SendMessageOutput{
		Message: reply,
		History: history,
	}

	if in.UserID != "" && in.ChatID != "" {
		snapshot := &domain.Session{
			ID:       in.ChatID,
			OwnerID:  in.UserID,
			Messages: history,
			Language: lang,
		}
		if _, err := s.sessions.Persist(ctx, snapshot); err != nil {
			log.Warn("history persistence failed", "error", err)
		} else {
			out.Persisted = true
		}
	}

	return out, nil
}

// ListHistory returns the owner's stored sessions, newest first.
func (s *Service) ListHistory(ctx context.Context, owner domain.UserID) ([]*domain.Session, error) {
	return s.sessions.List(ctx, owner)
}

// DeleteChat removes one stored session of the owner.
func (s *Service) DeleteChat(ctx context.Context, owner domain.UserID, id domain.SessionID) error {
	return s.sessions.Delete(ctx, owner, id)
}

func appendReply(history []domain.Message, userText, reply string) []domain.Message {
	out := make([]domain.Message, 0, len(history)+2)
	out = append(out, history...)
	return append(out, domain.UserMessage(userText), domain.AssistantMessage(reply))
}
