package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/codec/webp"
	"github.com/oziev02/ResponsiveImages/internal/config"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/oziev02/ResponsiveImages/internal/migrations"
	"github.com/oziev02/ResponsiveImages/internal/observability"
	"github.com/oziev02/ResponsiveImages/internal/repo"
	"github.com/oziev02/ResponsiveImages/internal/service"
	httptransport "github.com/oziev02/ResponsiveImages/internal/transport/http"
	kafkatransport "github.com/oziev02/ResponsiveImages/internal/transport/kafka"
)

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *pgxpool.Pool
	storage  repo.StorageRepository
	imageSvc service.ImageService
}

// New wires the application from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	a := &App{cfg: cfg, logger: logger}

	records, err := a.initRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	uploader, err := a.initUploader(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	codecs := codec.NewRegistry()
	webp.Register(codecs)

	var placeholder service.Placeholder
	if cfg.Pipeline.Placeholder {
		placeholder = service.NewBlurPlaceholder()
	}

	processorSvc := service.NewProcessorService(service.NewDecoder(logger), codecs, placeholder, logger)
	batch := service.NewBatchDriver(processorSvc, service.DecodeExtensions, cfg.Pipeline.MinFileSize, logger)

	a.imageSvc = service.NewImageService(batch, records, uploader, service.ImageServiceConfig{
		WorkDir:   cfg.Pipeline.WorkDir,
		PublicURL: cfg.Storage.PublicURL,
	}, logger)

	return a, nil
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

// DefaultOptions returns run options filled from the pipeline configuration.
func (a *App) DefaultOptions() domain.RunOptions {
	return domain.RunOptions{
		Sizes:   append([]int(nil), a.cfg.Pipeline.Sizes...),
		Codec:   a.cfg.Pipeline.Codec,
		Quality: a.cfg.Pipeline.Quality,
	}
}

// Process runs the pipeline in-process.
func (a *App) Process(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	return a.imageSvc.Generate(ctx, opts)
}

// Enqueue publishes opts as a task for a worker and returns the task ID.
func (a *App) Enqueue(ctx context.Context, opts domain.RunOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	producer := kafkatransport.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
	defer producer.Close()

	task := domain.NewProcessingTask(opts)
	if err := producer.SendTask(ctx, task); err != nil {
		return "", err
	}
	a.logger.Info("task enqueued", "task_id", task.ID, "input", opts.InputPath)
	return task.ID, nil
}

// Work consumes tasks until ctx is cancelled.
func (a *App) Work(ctx context.Context) error {
	consumer := kafkatransport.NewConsumer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.cfg.Kafka.ConsumerGroup, a.logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			a.logger.Error("failed to close kafka consumer", "error", err)
		}
	}()

	a.logger.Info("starting worker", "topic", a.cfg.Kafka.Topic, "group", a.cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx, a.imageSvc); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("kafka consumer error: %w", err)
	}
	return nil
}

// Serve runs the HTTP API until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	producer := kafkatransport.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
	defer producer.Close()

	var storage httptransport.StorageReader
	if a.storage != nil {
		storage = a.storage
	}
	handler := httptransport.NewHandler(a.imageSvc, producer, storage, a.DefaultOptions(), a.logger)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := httptransport.NewServer(addr, handler, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()
	a.logger.Info("starting http server", "addr", httpServer.Addr())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) initRecords(ctx context.Context) (repo.RecordRepository, error) {
	switch a.cfg.Metadata.Backend {
	case config.MetadataPostgres:
		db, err := initDB(ctx, a.cfg.Metadata.Database, a.logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		return repo.NewImageRepository(db), nil
	default:
		a.logger.Debug("using json record store", "path", a.cfg.Metadata.Output)
		return repo.NewJSONRepository(a.cfg.Metadata.Output), nil
	}
}

func (a *App) initUploader(ctx context.Context) (repo.Uploader, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageS3:
		return repo.NewS3Uploader(ctx, repo.S3Config{
			Bucket:    a.cfg.Storage.Bucket,
			Region:    a.cfg.Storage.Region,
			Endpoint:  a.cfg.Storage.Endpoint,
			PublicURL: a.cfg.Storage.PublicURL,
		})
	default:
		a.storage = repo.NewStorageRepository(a.cfg.Storage.BasePath, a.cfg.Storage.PublicURL)
		return a.storage, nil
	}
}

func initDB(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(cfg, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database initialized")
	return db, nil
}

func runMigrations(cfg config.DatabaseConfig, logger *slog.Logger) error {
	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations completed successfully")
	return nil
}
