package client

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/PabloGalante/justiceconnect/internal/app/session"
	"github.com/PabloGalante/justiceconnect/internal/domain"
)

// FailureMessage is shown in place of a reply when a send fails.
const FailureMessage = "Sorry, something went wrong."

const previewLen = 50

// ErrSendFailed wraps every failed Send; the transcript is left as it was,
// so the same text can be sent again.
var ErrSendFailed = errors.New(FailureMessage)

type sendError struct{ err error }

func (e *sendError) Error() string   { return FailureMessage }
func (e *sendError) Unwrap() []error { return []error{ErrSendFailed, e.err} }

// Conversation is the client's view of the active chat.
type Conversation struct {
	api     *Client
	session *domain.Session
	owner   domain.UserID
	now     func() time.Time
}

func NewConversation(api *Client, lang domain.Language) *Conversation {
	c := &Conversation{api: api, now: time.Now}
	c.session = session.NewSession(lang, c.now())
	return c
}

func (c *Conversation) Session() *domain.Session { return c.session }

// SetOwner switches between authenticated (non-empty owner) and free mode.
func (c *Conversation) SetOwner(owner domain.UserID) {
	c.owner = owner
}

func (c *Conversation) SetLanguage(lang domain.Language) {
	c.session.Language = lang
}

// Reset starts a new, empty chat in the current language.
func (c *Conversation) Reset() {
	c.session = session.NewSession(c.session.Language, c.now())
}

// LoadChat makes a stored session the active one.
func (c *Conversation) LoadChat(s *domain.Session) {
	loaded := *s
	loaded.Messages = append([]domain.Message(nil), s.Messages...)
	if loaded.Language == "" {
		loaded.Language = domain.DefaultLanguage
	}
	c.session = &loaded
}

// Send posts text with the full transcript and appends the exchange on success.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	req := ChatRequest{
		Message:             text,
		ConversationHistory: c.session.Messages,
		Language:            c.session.Language,
	}
	if c.owner != "" {
		req.UserID = c.owner
		req.ChatID = c.session.ID
	}

	resp, err := c.api.Chat(ctx, req)
	if err != nil {
		return "", &sendError{err: err}
	}

	c.session = session.AppendExchange(c.session, text, resp.Message)
	return resp.Message, nil
}

// Preview is the sidebar label of a stored chat.
func Preview(s *domain.Session) string {
	for _, m := range s.Messages {
		if m.Role != domain.RoleUser {
			continue
		}
		text := m.Content
		if utf8.RuneCountInString(text) > previewLen {
			text = string([]rune(text)[:previewLen])
		}
		return text + "..."
	}
	return "New conversation"
}
