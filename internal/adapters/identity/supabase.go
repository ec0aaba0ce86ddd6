package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

const providerSupabase = "supabase"

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	// AnonKey is sent as apikey on password sign-in. Falls back to ServiceRoleKey.
	AnonKey string
	Timeout time.Duration
}

// Supabase talks to the auth API of a Supabase project through auth-go.
// admin carries the service role key as bearer; public is used for
// password sign-in and for calls made on behalf of a user token.
type Supabase struct {
	admin  auth.Client
	public auth.Client
}

func NewSupabase(cfg SupabaseConfig) (*Supabase, error) {
	if cfg.URL == "" {
		return nil, &domain.ConfigurationError{Setting: "supabase.url"}
	}
	if cfg.ServiceRoleKey == "" {
		return nil, &domain.ConfigurationError{Setting: "supabase.service_role_key"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	anon := cfg.AnonKey
	if anon == "" {
		anon = cfg.ServiceRoleKey
	}

	authURL := strings.TrimRight(cfg.URL, "/") + "/auth/v1"
	httpClient := http.Client{Timeout: timeout}

	return &Supabase{
		admin: auth.New("", cfg.ServiceRoleKey).
			WithCustomAuthURL(authURL).
			WithClient(httpClient).
			WithToken(cfg.ServiceRoleKey),
		public: auth.New("", anon).
			WithCustomAuthURL(authURL).
			WithClient(httpClient),
	}, nil
}

func profileOf(u types.User) *domain.UserProfile {
	name, _ := u.UserMetadata["name"].(string)
	return &domain.UserProfile{
		ID:        domain.UserID(u.ID.String()),
		Email:     u.Email,
		Name:      name,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Supabase) CreateUser(ctx context.Context, u domain.NewUser) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	password := u.Password
	res, err := s.admin.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        u.Email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"name": u.Name},
	})
	if err != nil {
		return nil, mapSupabaseError(err, false)
	}
	return profileOf(res.User), nil
}

func (s *Supabase) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.public.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		return nil, mapSupabaseError(err, false)
	}
	if res.AccessToken == "" {
		return nil, &domain.UpstreamError{Provider: providerSupabase, StatusCode: http.StatusBadGateway, Detail: "sign-in returned no access token"}
	}
	return &domain.AuthSession{AccessToken: res.AccessToken, User: profileOf(res.User)}, nil
}

func (s *Supabase) VerifyToken(ctx context.Context, token string) (domain.UserID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := s.public.WithToken(token).GetUser()
	if err != nil {
		return "", mapSupabaseError(err, true)
	}
	if res.ID == uuid.Nil {
		return "", domain.ErrUnauthorized
	}
	return domain.UserID(res.ID.String()), nil
}

func (s *Supabase) SignOut(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.public.WithToken(token).Logout(); err != nil {
		return mapSupabaseError(err, true)
	}
	return nil
}

// auth-go reports non-2xx replies as "response status code N: <body>".
var statusPattern = regexp.MustCompile(`(?s)^response status code (\d+)(?::\s*(.*))?$`)

type supabaseError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e supabaseError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// parseSupabaseError extracts the HTTP status and provider message from an
// auth-go error. status is 0 when the request never got a reply.
func parseSupabaseError(err error) (status int, msg string) {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, err.Error()
	}
	status, _ = strconv.Atoi(m[1])

	body := strings.TrimSpace(m[2])
	var apiErr supabaseError
	if json.Unmarshal([]byte(body), &apiErr) == nil {
		if text := apiErr.text(); text != "" {
			return status, text
		}
	}
	if body == "" {
		body = http.StatusText(status)
	}
	return status, body
}

// mapSupabaseError turns an auth-go failure into the domain taxonomy.
// 401/403 map to ErrUnauthorized when a user token was sent, other 4xx to
// InvalidRequest, everything else (including a rejected service key) to UpstreamError.
func mapSupabaseError(err error, userToken bool) error {
	status, msg := parseSupabaseError(err)

	denied := status == http.StatusUnauthorized || status == http.StatusForbidden
	switch {
	case denied && userToken:
		return domain.ErrUnauthorized
	case denied:
		return &domain.UpstreamError{Provider: providerSupabase, StatusCode: status, Detail: msg, Err: err}
	case status >= 400 && status < 500:
		return domain.InvalidRequest("%s", msg)
	default:
		return &domain.UpstreamError{Provider: providerSupabase, StatusCode: status, Detail: msg, Err: err}
	}
}
