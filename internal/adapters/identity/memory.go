package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type memoryUser struct {
	profile domain.UserProfile
	hash    []byte
}

// MemoryProvider is an in-process domain.IdentityProvider for local mode and tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	byEmail map[string]*memoryUser
	tokens  map[string]domain.UserID
	now     func() time.Time
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byEmail: make(map[string]*memoryUser),
		tokens:  make(map[string]domain.UserID),
		now:     time.Now,
	}
}

func (p *MemoryProvider) CreateUser(_ context.Context, u domain.NewUser) (*domain.UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		return nil, domain.InvalidRequest("%v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := p.byEmail[key]; exists {
		return nil, domain.InvalidRequest("A user with this email address has already been registered")
	}

	user := &memoryUser{
		profile: domain.UserProfile{
			ID:        domain.UserID(uuid.NewString()),
			Email:     u.Email,
			Name:      u.Name,
			CreatedAt: p.now().UTC(),
		},
		hash: hash,
	}
	p.byEmail[key] = user

	profile := user.profile
	return &profile, nil
}

func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (*domain.AuthSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.byEmail[strings.ToLower(email)]
	if !ok || bcrypt.CompareHashAndPassword(user.hash, []byte(password)) != nil {
		return nil, domain.InvalidRequest("Invalid login credentials")
	}

	token := uuid.NewString()
	p.tokens[token] = user.profile.ID

	profile := user.profile
	return &domain.AuthSession{AccessToken: token, User: &profile}, nil
}

func (p *MemoryProvider) VerifyToken(_ context.Context, token string) (domain.UserID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.tokens[token]
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

func (p *MemoryProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.tokens[token]; !ok {
		return domain.ErrUnauthorized
	}
	delete(p.tokens, token)
	return nil
}
