package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/justiceconnect/internal/adapters/identity"
	"github.com/PabloGalante/justiceconnect/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/justiceconnect/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/justiceconnect/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/justiceconnect/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/justiceconnect/internal/config"
	"github.com/PabloGalante/justiceconnect/internal/domain"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

// newCompletionClient returns nil, not an error, when the provider
// credential is missing; /chat then answers with a configuration error.
func newCompletionClient(ctx context.Context, cfg *config.Config) (domain.CompletionClient, error) {
	log := observability.WithFields("component", "llm")
	opts := llm.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}

	var (
		client domain.CompletionClient
		err    error
	)
	switch cfg.LLM.Provider {
	case "groq":
		opts.Model = cfg.Groq.Model
		client, err = llm.NewGroqClient(llm.GroqConfig{APIKey: cfg.Groq.APIKey, BaseURL: cfg.Groq.BaseURL, Options: opts})
	case "openrouter":
		opts.Model = cfg.OpenRouter.Model
		client, err = llm.NewOpenRouterClient(llm.OpenRouterConfig{APIKey: cfg.OpenRouter.APIKey, Options: opts})
	case "gemini":
		opts.Model = cfg.Gemini.Model
		client, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:   cfg.Gemini.APIKey,
			Project:  cfg.Vertex.Project,
			Location: cfg.Vertex.Location,
			Options:  opts,
		})
	default:
		log.Info("using mock completion provider")
		return llm.NewMockLLM(), nil
	}

	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		log.Warn("completion provider not configured", "provider", cfg.LLM.Provider, "setting", cfgErr.Setting)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("init %s completion provider: %w", cfg.LLM.Provider, err)
	}

	log.Info("using completion provider", "provider", cfg.LLM.Provider, "model", opts.Model)
	return client, nil
}

// newHistoryStore returns the configured store and a function releasing it.
func newHistoryStore(ctx context.Context, cfg *config.Config) (domain.HistoryStore, func() error, error) {
	log := observability.WithFields("component", "storage")
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlitestore.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using sqlite history store", "path", cfg.Storage.SQLitePath)
		return s, s.Close, nil

	case "firestore":
		s, err := firestorestore.NewStore(ctx, cfg.Firestore.Project, cfg.Firestore.Collection)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using firestore history store", "project", cfg.Firestore.Project, "collection", cfg.Firestore.Collection)
		return s, s.Close, nil

	default:
		log.Info("using in-memory history store")
		return memstore.NewKVStore(), noop, nil
	}
}

func newIdentityProvider(cfg *config.Config) (domain.IdentityProvider, error) {
	log := observability.WithFields("component", "identity")

	var idp domain.IdentityProvider
	switch cfg.Identity.Provider {
	case "supabase":
		sb, err := identity.NewSupabase(identity.SupabaseConfig{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			AnonKey:        cfg.Supabase.AnonKey,
		})
		if err != nil {
			return nil, err
		}
		log.Info("using supabase identity provider", "url", cfg.Supabase.URL)
		idp = sb
	default:
		log.Info("using in-memory identity provider")
		idp = identity.NewMemoryProvider()
	}

	if cfg.Supabase.JWTSecret != "" {
		log.Info("verifying access tokens locally")
		idp = identity.NewJWTVerifier(idp, cfg.Supabase.JWTSecret)
	}
	return idp, nil
}
