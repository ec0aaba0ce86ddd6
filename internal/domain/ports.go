package domain

import "context"

// CompletionClient sends an ordered transcript (system prompt first) to a
// chat-completion provider and returns the assistant's reply text.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Entry is one key/value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// HistoryStore is an opaque key/value store. Delete of a missing key is not an error.
type HistoryStore interface {
	Set(ctx context.Context, key string, value []byte) error
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	Delete(ctx context.Context, key string) error
}

// IdentityProvider issues and verifies bearer credentials.
type IdentityProvider interface {
	CreateUser(ctx context.Context, u NewUser) (*UserProfile, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	VerifyToken(ctx context.Context, token string) (UserID, error)
	SignOut(ctx context.Context, token string) error
}
