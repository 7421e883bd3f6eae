package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ngenohkevin/lending/internal/config"
	"github.com/ngenohkevin/lending/internal/database"
	"github.com/ngenohkevin/lending/internal/handlers"
	"github.com/ngenohkevin/lending/internal/middleware"
	"github.com/ngenohkevin/lending/internal/services"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lending HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logger)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	}

	root := &cobra.Command{
		Use:          "lending",
		Short:        "Library lending service",
		SilenceUsage: true,
		// Errors are logged as JSON by the commands themselves
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.AddCommand(serveCmd, migrateCmd)

	for _, c := range []*cobra.Command{root, serveCmd, migrateCmd} {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			if err := run(cmd, args); err != nil {
				slog.Error("Command failed", "command", cmd.Name(), "error", err)
				return err
			}
			return nil
		}
	}

	return root
}

func migrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return errors.New("migrate requires database.driver=postgres")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return db.Migrate(ctx)
}

func serve(logger *slog.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	app, cleanup, err := wire(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r := newRouter(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", port, "mode", cfg.Server.Mode, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

// application holds everything the router needs
type application struct {
	cfg         *config.Config
	feePerDay   decimal.Decimal
	books       services.BookServiceInterface
	borrowers   services.BorrowerServiceInterface
	lending     services.LendingServiceInterface
	analytics   services.AnalyticsServiceInterface
	health      *handlers.HealthHandler
	rateLimiter *middleware.RateLimiter
}

// wire builds the store, the optional Redis integrations and the services.
func wire(cfg *config.Config, logger *slog.Logger) (*application, func(), error) {
	var (
		store    services.Store
		dbHealth handlers.HealthChecker
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		mem := database.NewMemoryStore()
		store, dbHealth = mem, mem
		slog.Warn("Using in-memory store, data will not survive a restart")
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		if err := db.Migrate(context.Background()); err != nil {
			cleanup()
			return nil, nil, err
		}
		store, dbHealth = database.NewPostgresStore(db.Pool, logger), db
	}

	var (
		publisher   services.EventPublisher = database.NewLogPublisher(logger)
		cache       services.Cache
		redisHealth handlers.HealthChecker
		rateLimiter *middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		publisher = database.NewRedisStreamPublisher(rdb.Client, cfg.Redis.Stream, logger)
		cache = rdb
		redisHealth = rdb
		rateLimiter = middleware.NewRateLimiter(rdb.Client)
	}

	fee, err := cfg.Lending.Fee()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	opts := []services.Option{
		services.WithMaxDurationDays(cfg.Lending.MaxDurationDays),
		services.WithFeePerDay(fee),
		services.WithDefaultBorrowLimit(cfg.Lending.DefaultBorrowLimit),
		services.WithCacheTTL(cfg.Analytics.CacheTTL),
	}

	return &application{
		cfg:         cfg,
		feePerDay:   fee,
		books:       services.NewBookService(store, logger, opts...),
		borrowers:   services.NewBorrowerService(store, logger, opts...),
		lending:     services.NewLendingService(store, publisher, logger, opts...),
		analytics:   services.NewAnalyticsService(store, cache, logger, opts...),
		health:      handlers.NewHealthHandler(dbHealth, redisHealth),
		rateLimiter: rateLimiter,
	}, cleanup, nil
}
