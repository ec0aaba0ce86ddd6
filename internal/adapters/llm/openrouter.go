package llm

import (
	"context"
	"errors"
	"net/http"

	openrouter "github.com/revrost/go-openrouter"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type OpenRouterConfig struct {
	APIKey string
	// BaseURL overrides the OpenRouter endpoint. Empty uses the library default.
	BaseURL string
	Options
}

// OpenRouterClient routes completions through OpenRouter.
type OpenRouterClient struct {
	client *openrouter.Client
	opts   Options
}

func NewOpenRouterClient(cfg OpenRouterConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Setting: "openrouter.api_key", Message: "OpenRouter API key not configured"}
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/llama-3.3-70b-instruct"
	}

	orCfg := openrouter.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		orCfg.BaseURL = cfg.BaseURL
	}

	return &OpenRouterClient{
		client: openrouter.NewClientWithConfig(*orCfg),
		opts:   cfg.Options,
	}, nil
}

// Complete implements domain.CompletionClient.
func (o *OpenRouterClient) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	req := openrouter.ChatCompletionRequest{
		Model:       o.opts.Model,
		Messages:    toOpenRouterMessages(messages),
		Temperature: float32(o.opts.Temperature),
		MaxTokens:   o.opts.MaxTokens,
	}

	res, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", openRouterError(err)
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content.Text == "" {
		return "", &domain.UpstreamError{Provider: "openrouter", StatusCode: http.StatusBadGateway, Detail: "response has no content"}
	}
	return res.Choices[0].Message.Content.Text, nil
}

func toOpenRouterMessages(messages []domain.Message) []openrouter.ChatCompletionMessage {
	out := make([]openrouter.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openrouter.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openrouter.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openrouter.ChatMessageRoleAssistant
		}
		out = append(out, openrouter.ChatCompletionMessage{
			Role:    role,
			Content: openrouter.Content{Text: m.Content},
		})
	}
	return out
}

// openRouterError keeps the upstream HTTP status so rate limits and auth
// failures surface as such instead of a generic 502.
func openRouterError(err error) error {
	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Provider: "openrouter", StatusCode: apiErr.HTTPStatusCode, Detail: apiErr.Message, Err: err}
	}
	var reqErr *openrouter.RequestError
	if errors.As(err, &reqErr) {
		return &domain.UpstreamError{Provider: "openrouter", StatusCode: reqErr.HTTPStatusCode, Detail: err.Error(), Err: err}
	}
	return &domain.UpstreamError{Provider: "openrouter", Detail: err.Error(), Err: err}
}
