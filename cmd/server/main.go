// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "link-service/docs"
	"link-service/internal/config"
	"link-service/internal/database"
	"link-service/internal/discovery"
	"link-service/internal/handler"
	"link-service/internal/repository"
	"link-service/internal/routes"
	"link-service/internal/service"
	"link-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Services
	linkService *service.LinkService
	scanners    *discovery.ScannerManager

	// Repositories
	linkRepo repository.LinkRepository
}

// @title Link Service API
// @version 1.0
// @description Parses connection URIs and manages named UDP, TCP and serial links.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /api/v1
func main() {
	configPath := flag.String("config", os.Getenv("LINK_SERVICE_CONFIG"), "path to config file")
	flag.Parse()

	// Initialize application
	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "link-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg.App)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeDatabase sets up database connection and runs migrations
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Warn("Database disabled, links are kept in memory only")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.MigrateOnStart {
		migrator := database.NewMigrator(db, app.logger)
		if err := migrator.Up(); err != nil {
			db.Close()
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() {
	if app.database != nil {
		app.linkRepo = repository.NewLinkRepository(app.database, app.logger)
	} else {
		app.linkRepo = repository.NewMemoryLinkRepository()
	}

	app.logger.Info("Repositories initialized successfully",
		zap.Bool("persistent", app.database != nil),
	)
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	app.linkService = service.NewLinkService(app.linkRepo, app.config, app.logger)

	app.scanners = discovery.NewScannerManager(app.logger)
	app.scanners.RegisterScanner(discovery.NewSerialScanner(app.logger, app.config.Link.SerialBaudrate))

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	// A nil *database.DB must not reach the handler as a non-nil interface
	var db handler.DatabaseChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.linkService,
		app.scanners,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown(serverErr <-chan error) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	reason := "shutdown signal received"
	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		app.logger.Error("HTTP server failed", zap.Error(err))
		reason = "http server failed"
	}

	app.shutdown(reason)
}

// shutdown performs graceful shutdown
func (app *Application) shutdown(reason string) {
	serviceLogger := utils.NewServiceLogger(app.logger, "link-service")
	serviceLogger.LogServiceStop(reason)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Close open links
	if err := app.linkService.CloseAll(); err != nil {
		app.logger.Error("Failed to close some links", zap.Error(err))
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	// Flush logger
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	serverErr := make(chan error, 1)

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	app.waitForShutdown(serverErr)
	return nil
}
