package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

func TestSessionRecordRoundTrip(t *testing.T) {
	updated := time.Date(2025, 11, 3, 10, 5, 0, 0, time.UTC)
	s := &domain.Session{
		ID:      "chat_1730628300000",
		OwnerID: "u1",
		Messages: []domain.Message{
			domain.UserMessage("What is RA 9262?"),
			domain.AssistantMessage("RA 9262 is..."),
		},
		Language:  domain.LanguageTagalog,
		UpdatedAt: updated,
	}

	data, err := s.MarshalRecord()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "chat_1730628300000",
		"userId": "u1",
		"messages": [
			{"role": "user", "content": "What is RA 9262?"},
			{"role": "assistant", "content": "RA 9262 is..."}
		],
		"language": "tagalog",
		"updatedAt": "2025-11-03T10:05:00Z"
	}`, string(data))

	got, err := domain.ParseSessionRecord(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.OwnerID, got.OwnerID)
	assert.Equal(t, s.Messages, got.Messages)
	assert.True(t, updated.Equal(got.UpdatedAt))
}

func TestParseSessionRecordRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing messages": `{"id":"c1","userId":"u1","language":"english","updatedAt":"2025-11-03T10:00:00Z"}`,
		"missing id":       `{"userId":"u1","messages":[],"updatedAt":"2025-11-03T10:00:00Z"}`,
		"bad role":         `{"id":"c1","userId":"u1","messages":[{"role":"tool","content":"x"}],"updatedAt":"2025-11-03T10:00:00Z"}`,
		"bad language":     `{"id":"c1","userId":"u1","messages":[],"language":"klingon","updatedAt":"2025-11-03T10:00:00Z"}`,
		"bad timestamp":    `{"id":"c1","userId":"u1","messages":[],"updatedAt":"yesterday"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.ParseSessionRecord([]byte(raw))
			var malformed *domain.MalformedRecordError
			require.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestParseLanguage(t *testing.T) {
	l, err := domain.ParseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageEnglish, l)

	l, err = domain.ParseLanguage(" Bisaya ")
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageBisaya, l)

	_, err = domain.ParseLanguage("spanish")
	assert.Error(t, err)
}

func TestHistoryKeyIsOwnerScoped(t *testing.T) {
	assert.Equal(t, "chat:u1:c1", domain.HistoryKey("u1", "c1"))
	assert.False(t, strings.HasPrefix(domain.HistoryKey("u10", "c1"), domain.HistoryPrefix("u1")))
}
