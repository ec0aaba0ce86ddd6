package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
)

// Options shared by every completion adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Options
}

// GroqClient calls Groq's OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	client openai.Client
	opts   Options
}

func NewGroqClient(cfg GroqConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Setting: "groq.api_key", Message: "Groq API key not configured"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &GroqClient{
		client: openai.NewClient(reqOpts...),
		opts:   cfg.Options,
	}, nil
}

// Complete implements domain.CompletionClient.
func (g *GroqClient) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.opts.Model),
		Messages: toOpenAIMessages(messages),
	}
	if g.opts.Temperature > 0 {
		params.Temperature = openai.Float(g.opts.Temperature)
	}
	if g.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.opts.MaxTokens))
	}

	res, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			detail := apiErr.Message
			if detail == "" {
				detail = err.Error()
			}
			return "", &domain.UpstreamError{Provider: "groq", StatusCode: apiErr.StatusCode, Detail: detail, Err: err}
		}
		return "", &domain.UpstreamError{Provider: "groq", Detail: err.Error(), Err: err}
	}

	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", &domain.UpstreamError{
			Provider:   "groq",
			StatusCode: http.StatusBadGateway,
			Detail:     fmt.Sprintf("response %q has no content", res.ID),
		}
	}
	return res.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
