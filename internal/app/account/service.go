// Package account fronts the identity provider: signup, sign-in, sign-out
// and bearer credential verification.
package account

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PabloGalante/justiceconnect/internal/domain"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

const (
	minPasswordLen = 5
	minNameLen     = 3
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

type Service struct {
	idp domain.IdentityProvider
}

func NewService(idp domain.IdentityProvider) *Service {
	return &Service{idp: idp}
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignUp creates an account with the email auto-confirmed.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.UserProfile, error) {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, domain.InvalidRequest("Email, password, and name are required")
	}
	email := strings.TrimSpace(in.Email)
	if !ValidIdentifier(email) {
		return nil, domain.InvalidRequest("Email must be a valid email address or phone number")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.InvalidRequest("Password must be at least %d characters", minPasswordLen)
	}
	name := strings.TrimSpace(in.Name)
	if len([]rune(name)) < minNameLen {
		return nil, domain.InvalidRequest("Name must be at least %d characters", minNameLen)
	}

	log := observability.LoggerFromContext(ctx)

	user, err := s.idp.CreateUser(ctx, domain.NewUser{Email: email, Password: in.Password, Name: name})
	if err != nil {
		log.Warn("signup failed", "error", err)
		return nil, err
	}

	log.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// SignIn exchanges email and password for a bearer credential.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.InvalidRequest("Email and password are required")
	}
	if !ValidIdentifier(email) || len(password) < minPasswordLen {
		return nil, domain.InvalidRequest("Please correct highlighted fields.")
	}
	return s.idp.SignIn(ctx, email, password)
}

// Authenticate resolves an Authorization header value to a user id.
func (s *Service) Authenticate(ctx context.Context, authHeader string) (domain.UserID, error) {
	token, ok := BearerToken(authHeader)
	if !ok {
		return "", domain.ErrUnauthorized
	}

	id, err := s.idp.VerifyToken(ctx, token)
	if err != nil {
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			return "", err
		}
		return "", domain.ErrUnauthorized
	}
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

// SignOut revokes the bearer credential.
func (s *Service) SignOut(ctx context.Context, authHeader string) error {
	token, ok := BearerToken(authHeader)
	if !ok {
		return domain.ErrUnauthorized
	}
	return s.idp.SignOut(ctx, token)
}

// ValidIdentifier accepts an email address or a 10-15 digit phone number.
func ValidIdentifier(v string) bool {
	return emailPattern.MatchString(v) || phonePattern.MatchString(v)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
