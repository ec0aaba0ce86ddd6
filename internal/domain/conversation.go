package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is one role-tagged entry of a transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Session is one conversation thread. OwnerID is empty in free mode, and such
// sessions are never persisted.
type Session struct {
	ID        SessionID `json:"id"`
	OwnerID   UserID    `json:"userId"`
	Messages  []Message `json:"messages"`
	Language  Language  `json:"language"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Owned reports whether the session has both an owner and an id.
func (s *Session) Owned() bool {
	return s != nil && s.OwnerID != "" && s.ID != ""
}

// HistoryKey is the History Store key of a session record.
func HistoryKey(owner UserID, id SessionID) string {
	return HistoryPrefix(owner) + string(id)
}

// HistoryPrefix scopes a prefix scan to one owner. The trailing separator
// keeps "u1" from matching "u10".
func HistoryPrefix(owner UserID) string {
	return "chat:" + string(owner) + ":"
}

// sessionRecord is the stored shape; pointers distinguish "missing" from "empty".
type sessionRecord struct {
	ID        *string    `json:"id"`
	UserID    *string    `json:"userId"`
	Messages  *[]Message `json:"messages"`
	Language  string     `json:"language"`
	UpdatedAt *string    `json:"updatedAt"`
}

// MarshalRecord encodes the session as it is written to the History Store.
func (s *Session) MarshalRecord() ([]byte, error) {
	msgs := s.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Messages  []Message `json:"messages"`
		Language  Language  `json:"language"`
		UpdatedAt string    `json:"updatedAt"`
	}{
		ID:        string(s.ID),
		UserID:    string(s.OwnerID),
		Messages:  msgs,
		Language:  s.Language,
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// ParseSessionRecord decodes a stored record, rejecting anything that is not a
// well-formed session instead of coercing it.
func ParseSessionRecord(data []byte) (*Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &MalformedRecordError{Reason: "invalid JSON", Err: err}
	}
	if rec.ID == nil || *rec.ID == "" {
		return nil, &MalformedRecordError{Reason: "missing id"}
	}
	if rec.UserID == nil || *rec.UserID == "" {
		return nil, &MalformedRecordError{Reason: "missing userId"}
	}
	if rec.Messages == nil {
		return nil, &MalformedRecordError{Reason: "missing messages"}
	}
	for i, m := range *rec.Messages {
		if _, err := ParseRole(string(m.Role)); err != nil {
			return nil, &MalformedRecordError{Reason: fmt.Sprintf("message %d", i), Err: err}
		}
	}
	lang, err := ParseLanguage(rec.Language)
	if err != nil {
		return nil, &MalformedRecordError{Reason: "language", Err: err}
	}
	if rec.UpdatedAt == nil {
		return nil, &MalformedRecordError{Reason: "missing updatedAt"}
	}
	updated, err := time.Parse(time.RFC3339Nano, *rec.UpdatedAt)
	if err != nil {
		return nil, &MalformedRecordError{Reason: "updatedAt", Err: err}
	}

	return &Session{
		ID:        SessionID(*rec.ID),
		OwnerID:   UserID(*rec.UserID),
		Messages:  *rec.Messages,
		Language:  lang,
		UpdatedAt: updated,
	}, nil
}

// ParseMessages validates a caller-supplied transcript. Contents are kept verbatim.
func ParseMessages(msgs []Message) ([]Message, error) {
	out := make([]Message, 0, len(msgs))
	for i, m := range msgs {
		role, err := ParseRole(string(m.Role))
		if err != nil {
			return nil, fmt.Errorf("conversationHistory[%d]: %w", i, err)
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	return out, nil
}
