package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func groqServer(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGroqClient(GroqConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/openai/v1",
		Options: Options{Model: DefaultGroqModel, Temperature: 0.7, MaxTokens: 1000},
	})
	require.NoError(t, err)
	return client
}

func TestGroqClientComplete(t *testing.T) {
	var got chatRequest
	client := groqServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"llama-3.3-70b-versatile",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Under RA 9262 you may seek a protection order."}}]}`))
	})

	reply, err := client.Complete(context.Background(), []domain.Message{
		domain.SystemMessage("system prompt"),
		domain.UserMessage("Hi"),
		domain.AssistantMessage("Hello"),
		domain.UserMessage("What is RA 9262?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Under RA 9262 you may seek a protection order.", reply)

	assert.Equal(t, DefaultGroqModel, got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "What is RA 9262?", got.Messages[3].Content)
}

func TestGroqClientProviderError(t *testing.T) {
	client := groqServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"rate_limit_error"}}`))
	})

	_, err := client.Complete(context.Background(), []domain.Message{domain.UserMessage("hi")})
	require.Error(t, err)

	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "groq", upstream.Provider)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Contains(t, upstream.Detail, "Rate limit")
}

func TestGroqClientEmptyChoices(t *testing.T) {
	client := groqServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), []domain.Message{domain.UserMessage("hi")})
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
}

func rateLimitedServer(t *testing.T, pathSuffix string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, pathSuffix), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenRouterClientKeepsProviderStatus(t *testing.T) {
	srv := rateLimitedServer(t, "/chat/completions")

	client, err := NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/api/v1",
		Options: Options{Temperature: 0.7, MaxTokens: 1000},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []domain.Message{domain.UserMessage("hi")})
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "openrouter", upstream.Provider)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "rate limited", upstream.Detail)
}

func TestGeminiClientKeepsProviderStatus(t *testing.T) {
	srv := rateLimitedServer(t, ":generateContent")

	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Options: Options{Model: "gemini-2.5-flash", Temperature: 0.7, MaxTokens: 1000},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []domain.Message{
		domain.SystemMessage("system prompt"),
		domain.UserMessage("hi"),
	})
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "gemini", upstream.Provider)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "rate limited", upstream.Detail)
}

func TestAdaptersRequireCredentials(t *testing.T) {
	var cfgErr *domain.ConfigurationError

	_, err := NewGroqClient(GroqConfig{})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "groq.api_key", cfgErr.Setting)

	_, err = NewOpenRouterClient(OpenRouterConfig{})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "openrouter.api_key", cfgErr.Setting)

	_, err = NewGeminiClient(context.Background(), GeminiConfig{Project: "only-project"})
	require.True(t, errors.As(err, &cfgErr))
}

func TestMockLLMEchoesLastUserMessage(t *testing.T) {
	reply, err := NewMockLLM().Complete(context.Background(), []domain.Message{
		domain.SystemMessage("sys"),
		domain.UserMessage("first"),
		domain.AssistantMessage("ok"),
		domain.UserMessage("second"),
	})
	require.NoError(t, err)
	assert.Contains(t, reply, `"second"`)
	assert.NotContains(t, reply, `"first"`)
}
