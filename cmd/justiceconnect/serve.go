package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/justiceconnect/internal/adapters/http"
	"github.com/PabloGalante/justiceconnect/internal/app/account"
	"github.com/PabloGalante/justiceconnect/internal/app/catalog"
	"github.com/PabloGalante/justiceconnect/internal/app/conversation"
	"github.com/PabloGalante/justiceconnect/internal/app/session"
	"github.com/PabloGalante/justiceconnect/internal/config"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig((*config.Config).Validate)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

// buildHandler wires every adapter and service behind the HTTP handler.
func buildHandler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	completion, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := newHistoryStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init history store: %w", err)
	}

	idp, err := newIdentityProvider(cfg)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("init identity provider: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	handler := httpadapter.NewServer(
		conversation.NewService(completion, session.NewManager(store)),
		account.NewService(idp),
		cat,
		httpadapter.Options{
			BasePath:    cfg.Server.BasePath,
			ServiceName: cfg.Server.ServiceName,
			VerifyOwner: cfg.Chat.VerifyOwner,
		},
	)
	return handler, closeStore, nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := observability.Logger()

	handler, cleanup, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("closing history store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("JusticeConnect API listening", "addr", srv.Addr, "mode", cfg.Mode, "base_path", cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
