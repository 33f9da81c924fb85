package cmd

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

	"github.com/zzuhann/stellar/internal/api/handlers"
	"github.com/zzuhann/stellar/internal/auth"
	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/config"
	"github.com/zzuhann/stellar/internal/domain/crossref"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/favorites"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/domain/performers"
	"github.com/zzuhann/stellar/internal/store"
	"github.com/zzuhann/stellar/internal/store/firestore"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to Firestore and warm up the in-process cache
- Start the HTTP API with public query and authenticated moderation endpoints
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting stellar server")

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	fsClient, err := firestore.New(connectCtx, cfg.Store.ProjectID)
	cancel()
	if err != nil {
		return fmt.Errorf("firestore connection failed: %w", err)
	}
	defer fsClient.Close()

	gateway := store.NewGateway(fsClient, logger,
		store.WithTimeout(cfg.Store.CallTimeout),
		store.WithMaxAttempts(cfg.Store.MaxAttempts),
	)
	c := cache.New()

	performerRepo := performers.NewRepository(gateway)
	eventRepo := events.NewRepository(gateway)
	maintainer := crossref.NewMaintainer(gateway, logger)

	performerSvc := performers.NewService(performerRepo, eventRepo, c, logger)
	eventSvc := events.NewService(eventRepo, performerSvc, maintainer, c, logger)
	favoriteSvc := favorites.NewService(gateway, eventRepo, c, logger)

	engine := moderation.NewEngine(gateway, c, logger)
	engine.OnStatusChange(moderation.KindEvents, crossref.Hook(maintainer))

	srv := &handlers.Server{
		Performers: performerSvc,
		Events:     eventSvc,
		Favorites:  favoriteSvc,
		Engine:     engine,
		JWT:        auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Log:        logger,
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Router(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	return nil
}
