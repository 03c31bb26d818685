package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/medscore/internal/api"
	"github.com/soaringjerry/medscore/internal/catalog"
	"github.com/soaringjerry/medscore/internal/config"
	"github.com/soaringjerry/medscore/internal/logging"
	"github.com/soaringjerry/medscore/internal/metrics"
	"github.com/soaringjerry/medscore/internal/middleware"
	"github.com/soaringjerry/medscore/internal/services"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configFile)
		},
	}
}

func runServer(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("store", cfg.Store).Msg("failed to open store")
		return err
	}
	defer store.Close()

	svc := api.NewServices(store, services.ParseHiddenPolicy(cfg.HiddenResponses))
	svc.Sessions.OnComplete(metrics.ObserveResult)

	if err := importCatalog(ctx, svc.Forms, cfg.CatalogDir, logger); err != nil {
		logger.Error().Err(err).Msg("failed to import catalog")
		return err
	}

	e := newEcho(cfg, logger)
	api.NewRouter(svc, api.Options{
		Commit:    cfg.Commit,
		BuildTime: cfg.BuildTime,
		StaticDir: cfg.StaticDir,
	}).Register(e)

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.IsDev()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.CORS(cfg.CORSOrigins))
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.NoStore())
	e.Use(middleware.Locale())
	return e
}

// importCatalog publishes catalog forms that the store does not have yet.
// Forms already present are left alone so edits made through the API survive
// a restart.
func importCatalog(ctx context.Context, forms *services.FormService, dir string, logger zerolog.Logger) error {
	cat, err := catalog.Load(dir)
	if err != nil {
		return err
	}
	imported := 0
	for _, f := range cat.Forms() {
		if _, err := forms.GetForm(ctx, f.ID); err == nil {
			continue
		} else if !services.IsNotFound(err) {
			return err
		}
		if _, err := forms.ImportForm(ctx, f); err != nil {
			return err
		}
		imported++
	}
	logger.Info().Int("forms", cat.Len()).Int("imported", imported).Msg("catalog loaded")
	return nil
}
