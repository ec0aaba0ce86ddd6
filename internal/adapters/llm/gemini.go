package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type GeminiConfig struct {
	// APIKey selects the Gemini API backend. Without it Project and Location
	// select Vertex AI.
	APIKey   string
	Project  string
	Location string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	Options
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
	opts      Options
}

// NewGeminiClient creates a CompletionClient backed by Gemini (API key) or Vertex AI.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, &domain.ConfigurationError{
			Setting: "gemini.api_key",
			Message: "gemini.api_key or vertex.project and vertex.location must be set",
		}
	}

	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		opts:      cfg.Options,
	}, nil
}

// Complete implements domain.CompletionClient. System messages become the
// system instruction; assistant turns map to the model role.
func (g *GeminiClient) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if g.opts.Temperature > 0 {
		temp := float32(g.opts.Temperature)
		cfg.Temperature = &temp
	}
	if g.opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.opts.MaxTokens)
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			detail := apiErr.Message
			if detail == "" {
				detail = apiErr.Status
			}
			return "", &domain.UpstreamError{Provider: "gemini", StatusCode: apiErr.Code, Detail: detail, Err: err}
		}
		return "", &domain.UpstreamError{Provider: "gemini", Detail: err.Error(), Err: err}
	}

	text := res.Text()
	if text == "" {
		return "", &domain.UpstreamError{Provider: "gemini", StatusCode: http.StatusBadGateway, Detail: "gemini returned empty text"}
	}
	return text, nil
}
