package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playforge/gamestore/internal/config"
	"github.com/playforge/gamestore/internal/event"
	handlerhttp "github.com/playforge/gamestore/internal/handler/http"
	"github.com/playforge/gamestore/internal/repository/postgres"
	"github.com/playforge/gamestore/internal/search/elasticsearch"
	"github.com/playforge/gamestore/internal/service"
	"github.com/playforge/gamestore/migrations"
	"github.com/playforge/gamestore/pkg/database"
	"github.com/playforge/gamestore/pkg/health"
	"github.com/playforge/gamestore/pkg/kafka"
)

// Schema migration retry policy: a fixed delay between attempts, and the
// process refuses to serve traffic if the schema never becomes ready.
const migrateAttempts = 5

var migrateRetryDelay = 5 * time.Second

// App wires the service together and owns the lifecycle of its components.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	producer *kafka.Producer
	consumer *kafka.Consumer
	server   *http.Server
}

// New builds the full application. It connects to Postgres and runs
// migrations (fatal on exhaustion), then attempts index bootstrap (non-fatal:
// the catalog can take writes while the index is down).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgCfg := cfg.PostgresPoolConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	if err := migrateWithRetry(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	projector, err := elasticsearch.New(cfg.Elasticsearch.URL, cfg.Elasticsearch.Index, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	if err := projector.BootstrapIndex(ctx); err != nil {
		// Catalog writes still work; reads from the index stay empty until
		// the index comes back and a resync runs.
		logger.Warn("index bootstrap failed, starting degraded", slog.String("error", err.Error()))
	}

	gamesRepo := postgres.NewGameRepository(pool)
	libraryRepo := postgres.NewLibraryRepository(pool)

	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
	orderProducer := event.NewOrderProducer(producer, logger)

	catalog := service.NewCatalogService(gamesRepo, projector, logger)
	query := service.NewQueryService(projector, logger)
	fulfillment := service.NewFulfillmentService(gamesRepo, libraryRepo, orderProducer, logger)

	consumer := event.NewPaymentConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, fulfillment, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("elasticsearch", projector.Ping)
	healthHandler.Register("kafka", producer.Ping)

	router := handlerhttp.NewRouter(
		handlerhttp.NewGameHandler(catalog, query, logger),
		handlerhttp.NewFulfillmentHandler(fulfillment, logger),
		healthHandler,
		logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		producer: producer,
		consumer: consumer,
		server:   server,
	}, nil
}

// migrateWithRetry applies the embedded migrations, retrying transient
// failures with a fixed delay. Exhaustion is fatal to the caller.
func migrateWithRetry(ctx context.Context, pool database.DBTX, logger *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= migrateAttempts; attempt++ {
		lastErr = database.RunMigrations(ctx, pool, migrations.FS, logger)
		if lastErr == nil {
			return nil
		}

		logger.Warn("migrations failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", migrateAttempts),
			slog.String("error", lastErr.Error()),
		)

		if attempt < migrateAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("run migrations: %w", ctx.Err())
			case <-time.After(migrateRetryDelay):
			}
		}
	}
	return fmt.Errorf("run migrations after %d attempts: %w", migrateAttempts, lastErr)
}

// Run starts the payment consumer and the HTTP server, then blocks until the
// context is canceled or either of them fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("payment consumer: %w", err)
		}
	}()

	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-errCh:
		shutdownErr := a.Shutdown()
		return errors.Join(err, shutdownErr)
	}
}

// Shutdown stops the HTTP server gracefully and closes every component.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close consumer: %w", err))
	}
	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close producer: %w", err))
	}
	a.pool.Close()

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
