package conversation_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/justiceconnect/internal/adapters/storage/memory"
	"github.com/PabloGalante/justiceconnect/internal/app/conversation"
	"github.com/PabloGalante/justiceconnect/internal/app/prompt"
	"github.com/PabloGalante/justiceconnect/internal/app/session"
	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type stubLLM struct {
	reply string
	err   error
	calls [][]domain.Message
}

func (s *stubLLM) Complete(_ context.Context, msgs []domain.Message) (string, error) {
	s.calls = append(s.calls, msgs)
	return s.reply, s.err
}

type failingStore struct{ writes int }

func (f *failingStore) Set(context.Context, string, []byte) error {
	f.writes++
	return errors.New("kv unavailable")
}
func (f *failingStore) GetByPrefix(context.Context, string) ([]domain.Entry, error) {
	return nil, errors.New("kv unavailable")
}
func (f *failingStore) Delete(context.Context, string) error { return errors.New("kv unavailable") }

func newService(llm domain.CompletionClient) (*conversation.Service, *memory.KVStore) {
	store := memory.NewKVStore()
	return conversation.NewService(llm, session.NewManager(store)), store
}

func TestSendMessageRejectsEmptyMessage(t *testing.T) {
	svc, _ := newService(&stubLLM{reply: "x"})

	_, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{Message: "   "})
	var invalid *domain.InvalidRequestError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Message is required", invalid.Reason)
}

func TestSendMessageWithoutProviderIsConfigurationError(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{Message: "hello"})
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestCreatorTriggerSkipsProvider(t *testing.T) {
	llm := &stubLLM{reply: "should not be used"}
	svc, store := newService(llm)

	out, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{
		Message:  "Sino gumawa sayo?",
		Language: domain.LanguageTagalog,
		UserID:   "u1",
		ChatID:   "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, prompt.CreatorAnswer, out.Message)
	assert.True(t, out.Canned)
	assert.Empty(t, llm.calls)
	assert.Equal(t, 0, store.Len())
}

func TestComposedRequestOrder(t *testing.T) {
	llm := &stubLLM{reply: "Under the Labor Code..."}
	svc, _ := newService(llm)

	history := []domain.Message{
		domain.UserMessage("Hi"),
		domain.AssistantMessage("Hello! How can I help?"),
	}
	out, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{
		Message:  "What are my rights as an employee?",
		History:  history,
		Language: domain.LanguageBisaya,
	})
	require.NoError(t, err)

	require.Len(t, llm.calls, 1)
	want := append([]domain.Message{domain.SystemMessage(prompt.BuildSystemPrompt(domain.LanguageBisaya))}, history...)
	want = append(want, domain.UserMessage("What are my rights as an employee?"))
	assert.Equal(t, want, llm.calls[0])

	assert.Equal(t, append(want[1:], domain.AssistantMessage("Under the Labor Code...")), out.History)
	assert.False(t, out.Persisted)
}

func TestStatuteReferenceGetsFooterAndIsPersisted(t *testing.T) {
	llm := &stubLLM{reply: "RA 9262 is..."}
	svc, store := newService(llm)
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{
		Message:  "What is RA 9262?",
		Language: domain.LanguageEnglish,
		UserID:   "u1",
		ChatID:   "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, "RA 9262 is...\n\nFor full legal text, you may visit Lawphil: https://lawphil.net", out.Message)
	assert.True(t, out.Persisted)
	assert.Equal(t, 1, store.Len())

	stored, err := svc.ListHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.SessionID("c1"), stored[0].ID)
	assert.Len(t, stored[0].Messages, 2)
	assert.Equal(t, out.History, stored[0].Messages)
}

func TestSecondExchangeOverwritesRecord(t *testing.T) {
	llm := &stubLLM{reply: "answer"}
	svc, store := newService(llm)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, conversation.SendMessageInput{Message: "q1", UserID: "u1", ChatID: "c1"})
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, conversation.SendMessageInput{
		Message: "q2", History: first.History, UserID: "u1", ChatID: "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	stored, err := svc.ListHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, second.History, stored[0].Messages)
	assert.Len(t, stored[0].Messages, 4)
}

func TestFreeModeNeverWrites(t *testing.T) {
	store := &failingStore{}
	svc := conversation.NewService(&stubLLM{reply: "ok"}, session.NewManager(store))

	for _, in := range []conversation.SendMessageInput{
		{Message: "q"},
		{Message: "q", UserID: "u1"},
		{Message: "q", ChatID: "c1"},
	} {
		_, err := svc.SendMessage(context.Background(), in)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, store.writes)
}

func TestPersistenceFailureDoesNotFailChat(t *testing.T) {
	store := &failingStore{}
	svc := conversation.NewService(&stubLLM{reply: "ok"}, session.NewManager(store))

	out, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{
		Message: "q", UserID: "u1", ChatID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Message)
	assert.False(t, out.Persisted)
	assert.Equal(t, 1, store.writes)
}

func TestUpstreamErrors(t *testing.T) {
	t.Run("provider status is kept", func(t *testing.T) {
		svc, _ := newService(&stubLLM{err: &domain.UpstreamError{Provider: "groq", StatusCode: http.StatusTooManyRequests, Detail: "rate limited"}})
		_, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{Message: "q"})

		var up *domain.UpstreamError
		require.True(t, errors.As(err, &up))
		assert.Equal(t, http.StatusTooManyRequests, up.StatusCode)
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		svc, _ := newService(&stubLLM{err: errors.New("connection reset")})
		_, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{Message: "q"})

		var up *domain.UpstreamError
		require.True(t, errors.As(err, &up))
		assert.Contains(t, up.Detail, "connection reset")
	})

	t.Run("empty content", func(t *testing.T) {
		svc, store := newService(&stubLLM{reply: ""})
		_, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{Message: "q", UserID: "u1", ChatID: "c1"})

		var up *domain.UpstreamError
		require.True(t, errors.As(err, &up))
		assert.Equal(t, 0, store.Len())
	})
}
