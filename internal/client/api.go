package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/justiceconnect/internal/app/catalog"
	"github.com/PabloGalante/justiceconnect/internal/domain"
)

// APIError is a non-2xx answer of the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("status %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the JusticeConnect HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a client; baseURL includes the route prefix.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Token() string       { return c.token }
func (c *Client) SetToken(tok string) { c.token = tok }

type ChatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []domain.Message `json:"conversationHistory"`
	Language            domain.Language  `json:"language"`
	UserID              domain.UserID    `json:"userId,omitempty"`
	ChatID              domain.SessionID `json:"chatId,omitempty"`
}

type ChatResponse struct {
	Message             string           `json:"message"`
	ConversationHistory []domain.Message `json:"conversationHistory"`
}

type QuickActions struct {
	Language           domain.Language       `json:"language"`
	Actions            []catalog.QuickAction `json:"actions"`
	SuggestedQuestions []string              `json:"suggestedQuestions"`
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, false, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, name string) (*domain.UserProfile, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var out struct {
		Success bool                `json:"success"`
		User    *domain.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/signup", body, false, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SignIn stores the returned access token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	var out domain.AuthSession
	if err := c.do(ctx, http.MethodPost, "/signin", body, false, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// SignOut drops the local token even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	defer func() { c.token = "" }()
	if c.token == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/signout", nil, true, nil)
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []domain.Message{}
	}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", req, req.UserID != "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) ([]*domain.Session, error) {
	var out struct {
		Chats []*domain.Session `json:"chats"`
	}
	if err := c.do(ctx, http.MethodGet, "/history", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

func (c *Client) DeleteChat(ctx context.Context, id domain.SessionID) error {
	return c.do(ctx, http.MethodDelete, "/chat/"+url.PathEscape(string(id)), nil, true, nil)
}

func (c *Client) QuickActions(ctx context.Context, lang domain.Language) (*QuickActions, error) {
	var out QuickActions
	path := "/quick-actions?language=" + url.QueryEscape(string(lang))
	if err := c.do(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Details = e.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
