// Package setup bootstraps application dependencies in the right order.
package setup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	aiClient "github.com/teampulse/teampulse/internal/ai/client"
	"github.com/teampulse/teampulse/internal/database"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/internal/setup/telemetry"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config   *config.Config     // Application configuration
	Logger   *zap.Logger        // Main application logger
	DBLogger *zap.Logger        // Database-specific logger
	DB       database.Client    // Database connection pool
	AIClient *aiClient.AIClient // AI client behind the shared breaker

	metricsServer *http.Server
}

// InitializeApp bootstraps all application dependencies in the correct
// order, ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded", zap.String("configDir", configDir))

	// Initialize database with migrations
	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, dbLogger, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize AI client with the shared circuit breaker
	breaker := aiClient.NewBreaker(&cfg.Common.CircuitBreaker, logger)
	aiCli := aiClient.NewClient(&cfg.Common.OpenAI, breaker, logger)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		DBLogger: dbLogger.Named("database"),
		DB:       db,
		AIClient: aiCli,
	}

	// Serve Prometheus metrics if a port is configured
	if cfg.Worker.MetricsPort > 0 {
		app.metricsServer = startMetricsServer(cfg.Worker.MetricsPort, logger)
	}

	return app, nil
}

// Cleanup releases connections and flushes loggers.
func (a *App) Cleanup(ctx context.Context) {
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("Failed to stop metrics server", zap.Error(err))
		}
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	_ = a.Logger.Sync()
	_ = a.DBLogger.Sync()
}

// startMetricsServer exposes /metrics on the configured port.
func startMetricsServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("Serving Prometheus metrics", zap.Int("port", port))

	return server
}
