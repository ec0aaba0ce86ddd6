package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PabloGalante/justiceconnect/internal/domain"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

// Manager owns session identity and history persistence.
type Manager struct {
	store domain.HistoryStore
	now   func() time.Time
}

func NewManager(store domain.HistoryStore) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// NewSession allocates an unowned session with an empty transcript.
func NewSession(lang domain.Language, now time.Time) *domain.Session {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	return &domain.Session{
		ID:       NewSessionID(now),
		Messages: []domain.Message{},
		Language: lang,
	}
}

// NewSessionID formats ids as chat_<unix millis>.
func NewSessionID(now time.Time) domain.SessionID {
	return domain.SessionID(fmt.Sprintf("chat_%d", now.UnixMilli()))
}

// AppendExchange returns a copy of s with the user and assistant messages
// appended. s and its message slice are left untouched.
func AppendExchange(s *domain.Session, userText, assistantText string) *domain.Session {
	out := *s
	out.Messages = make([]domain.Message, 0, len(s.Messages)+2)
	out.Messages = append(out.Messages, s.Messages...)
	out.Messages = append(out.Messages,
		domain.UserMessage(userText),
		domain.AssistantMessage(assistantText),
	)
	return &out
}

// Persist writes the full record under chat:<owner>:<id>, overwriting any
// previous value. Unowned sessions are a no-op and return (nil, nil).
func (m *Manager) Persist(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if !s.Owned() {
		return nil, nil
	}

	snapshot := *s
	snapshot.Messages = slices.Clone(s.Messages)
	snapshot.UpdatedAt = m.now().UTC()
	if snapshot.Language == "" {
		snapshot.Language = domain.DefaultLanguage
	}

	key := domain.HistoryKey(snapshot.OwnerID, snapshot.ID)
	data, err := snapshot.MarshalRecord()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := m.store.Set(ctx, key, data); err != nil {
		return nil, &domain.PersistenceError{Op: "set", Key: key, Err: err}
	}

	observability.LoggerFromContext(ctx).Debug("session persisted",
		"key", key,
		"message_count", len(snapshot.Messages),
	)
	return &snapshot, nil
}

// List returns the owner's sessions, most recently updated first. Malformed
// records and keys outside the owner's prefix are skipped.
func (m *Manager) List(ctx context.Context, owner domain.UserID) ([]*domain.Session, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}

	prefix := domain.HistoryPrefix(owner)
	entries, err := m.store.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "scan", Key: prefix, Err: err}
	}

	log := observability.LoggerFromContext(ctx).With("user_id", owner)

	out := make([]*domain.Session, 0, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, prefix) {
			log.Warn("store returned key outside prefix", "key", e.Key)
			continue
		}
		s, err := domain.ParseSessionRecord(e.Value)
		if err != nil {
			var malformed *domain.MalformedRecordError
			if errors.As(err, &malformed) {
				log.Debug("skipping malformed session record", "key", e.Key, "error", err)
				continue
			}
			return nil, err
		}
		if s.OwnerID != owner {
			log.Warn("session owner mismatch", "key", e.Key, "owner", s.OwnerID)
			continue
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b *domain.Session) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// Delete removes exactly chat:<owner>:<id>. Missing keys are not an error.
func (m *Manager) Delete(ctx context.Context, owner domain.UserID, id domain.SessionID) error {
	if owner == "" {
		return domain.ErrUnauthorized
	}
	if id == "" {
		return domain.InvalidRequest("chatId is required")
	}

	key := domain.HistoryKey(owner, id)
	if err := m.store.Delete(ctx, key); err != nil {
		return &domain.PersistenceError{Op: "delete", Key: key, Err: err}
	}

	observability.LoggerFromContext(ctx).Info("session deleted", "key", key)
	return nil
}
