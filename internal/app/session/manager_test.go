package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/justiceconnect/internal/adapters/storage/memory"
	"github.com/PabloGalante/justiceconnect/internal/app/session"
	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newManager(t *testing.T) (*session.Manager, *memory.KVStore, *fixedClock) {
	t.Helper()
	store := memory.NewKVStore()
	clock := &fixedClock{t: time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)}
	return session.NewManager(store).WithClock(clock.now), store, clock
}

func ownedSession(owner domain.UserID, id domain.SessionID, msgs ...domain.Message) *domain.Session {
	return &domain.Session{
		ID:       id,
		OwnerID:  owner,
		Messages: msgs,
		Language: domain.LanguageEnglish,
	}
}

func TestNewSession(t *testing.T) {
	now := time.UnixMilli(1730628300123)
	s := session.NewSession(domain.LanguageTagalog, now)

	assert.Equal(t, domain.SessionID("chat_1730628300123"), s.ID)
	assert.Empty(t, s.OwnerID)
	assert.Empty(t, s.Messages)
	assert.Equal(t, domain.LanguageTagalog, s.Language)
}

func TestAppendExchangeIsCopyOnWrite(t *testing.T) {
	base := ownedSession("u1", "c1", domain.UserMessage("hi"), domain.AssistantMessage("hello"))
	before := append([]domain.Message(nil), base.Messages...)

	next := session.AppendExchange(base, "What is RA 9262?", "RA 9262 is...")

	assert.Equal(t, before, base.Messages)
	require.Len(t, next.Messages, 4)
	assert.Equal(t, domain.UserMessage("What is RA 9262?"), next.Messages[2])
	assert.Equal(t, domain.AssistantMessage("RA 9262 is..."), next.Messages[3])

	next.Messages[0].Content = "changed"
	assert.Equal(t, "hi", base.Messages[0].Content)
}

func TestPersistSkipsUnownedSessions(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t)

	for _, s := range []*domain.Session{
		{ID: "c1", Messages: []domain.Message{}},
		{OwnerID: "u1", Messages: []domain.Message{}},
	} {
		got, err := m.Persist(ctx, s)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, 0, store.Len())
}

func TestPersistOverwritesAndListRoundTrips(t *testing.T) {
	ctx := context.Background()
	m, store, clock := newManager(t)

	first := ownedSession("u1", "c1", domain.UserMessage("a"), domain.AssistantMessage("b"))
	_, err := m.Persist(ctx, first)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Minute)
	second := session.AppendExchange(first, "c", "d")
	saved, err := m.Persist(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, clock.t, saved.UpdatedAt)

	assert.Equal(t, 1, store.Len())

	list, err := m.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SessionID("c1"), list[0].ID)
	assert.Equal(t, second.Messages, list[0].Messages)
}

func TestListSortsByUpdatedAtDescending(t *testing.T) {
	ctx := context.Background()
	m, _, clock := newManager(t)

	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	for id, at := range map[domain.SessionID]time.Duration{
		"c1000": 10 * time.Hour,
		"c1005": 10*time.Hour + 5*time.Minute,
		"c0900": 9 * time.Hour,
	} {
		clock.t = day.Add(at)
		_, err := m.Persist(ctx, ownedSession("u1", id, domain.UserMessage("q")))
		require.NoError(t, err)
	}

	list, err := m.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.SessionID("c1005"), list[0].ID)
	assert.Equal(t, domain.SessionID("c1000"), list[1].ID)
	assert.Equal(t, domain.SessionID("c0900"), list[2].ID)
}

func TestListIsOwnerScopedAndSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t)

	_, err := m.Persist(ctx, ownedSession("u1", "mine", domain.UserMessage("q")))
	require.NoError(t, err)
	_, err = m.Persist(ctx, ownedSession("u10", "other", domain.UserMessage("q")))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "chat:u1:broken", []byte(`{"id":"broken","userId":"u1"}`)))

	list, err := m.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SessionID("mine"), list[0].ID)
}

func TestDeleteRemovesOnlyThatSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	for _, id := range []domain.SessionID{"c1", "c2"} {
		_, err := m.Persist(ctx, ownedSession("u1", id, domain.UserMessage("q")))
		require.NoError(t, err)
	}

	require.NoError(t, m.Delete(ctx, "u1", "c1"))
	require.NoError(t, m.Delete(ctx, "u1", "never-existed"))

	list, err := m.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SessionID("c2"), list[0].ID)
}

type brokenStore struct{}

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("down") }
func (brokenStore) GetByPrefix(context.Context, string) ([]domain.Entry, error) {
	return nil, errors.New("down")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("down") }

func TestStoreFailuresArePersistenceErrors(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(brokenStore{})

	var perr *domain.PersistenceError

	_, err := m.Persist(ctx, ownedSession("u1", "c1"))
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "set", perr.Op)
	assert.Equal(t, "chat:u1:c1", perr.Key)

	_, err = m.List(ctx, "u1")
	require.True(t, errors.As(err, &perr))

	err = m.Delete(ctx, "u1", "c1")
	require.True(t, errors.As(err, &perr))
}
