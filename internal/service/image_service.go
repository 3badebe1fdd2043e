package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/oziev02/ResponsiveImages/internal/repo"
)

type ImageService interface {
	Generate(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error)
	GetByName(ctx context.Context, name string) (*domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
}

// ImageServiceConfig holds the settings shared by every run.
type ImageServiceConfig struct {
	// WorkDir receives the encoded files. When empty each run gets its own
	// temporary directory, removed once the run completes.
	WorkDir   string
	PublicURL string
}

type imageService struct {
	batch    *BatchDriver
	records  repo.RecordRepository
	uploader repo.Uploader
	cfg      ImageServiceConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewImageService(
	batch *BatchDriver,
	records repo.RecordRepository,
	uploader repo.Uploader,
	cfg ImageServiceConfig,
	logger *slog.Logger,
) ImageService {
	return &imageService{
		batch:    batch,
		records:  records,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate runs the whole pipeline for one input path: process every image,
// refuse to clobber existing data keys unless forced, publish the artifacts
// and write the data records.
func (s *imageService) Generate(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID, "name", opts.Name)

	workDir, cleanup, err := s.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	logger.Info("generating images", "input", opts.InputPath, "sizes", opts.Sizes, "codec", opts.Codec)

	batch, err := s.batch.Run(ctx, workDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to process images: %w", err)
	}
	logger.Info("images processed",
		"traversed", batch.Metrics.Traversed,
		"processed", batch.Metrics.Processed,
		"variants", batch.Metrics.Variants,
		"skipped", batch.Metrics.Skipped,
		"failed", batch.Metrics.Failed,
	)

	if !opts.Force {
		if err := s.checkCollisions(ctx, opts.Name, batch.Images); err != nil {
			return nil, err
		}
	}

	publisher := NewPublisher(s.uploader, s.cfg.PublicURL, s.now(), logger)
	published := make([]domain.ImageInfo, 0, len(batch.Images))
	for _, info := range batch.Images {
		next, err := publisher.Publish(ctx, info, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to publish images: %w", err)
		}
		published = append(published, next)
	}

	records := make([]domain.Record, 0, len(published))
	for _, info := range published {
		records = append(records, BuildRecord(opts.Name, info))
	}
	if err := s.records.Put(ctx, records, opts.Force); err != nil {
		return nil, fmt.Errorf("failed to write records: %w", err)
	}
	logger.Info("records written", "count", len(records))

	return &domain.RunResult{
		RunID:   runID,
		Images:  published,
		Records: records,
		Metrics: batch.Metrics,
	}, nil
}

func (s *imageService) GetByName(ctx context.Context, name string) (*domain.Record, error) {
	return s.records.Get(ctx, name)
}

func (s *imageService) List(ctx context.Context) ([]domain.Record, error) {
	return s.records.List(ctx)
}

func (s *imageService) checkCollisions(ctx context.Context, name string, images []domain.ImageInfo) error {
	for _, info := range images {
		key := info.DataKey(name)
		exists, err := s.records.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Error("key already exists and force is not set, will not overwrite", "key", key)
			return domain.Wrap(domain.KindCollision, "check collision", key, domain.ErrKeyAlreadyExists)
		}
	}
	return nil
}

func (s *imageService) workDir() (string, func(), error) {
	if s.cfg.WorkDir != "" {
		if err := os.MkdirAll(s.cfg.WorkDir, 0755); err != nil {
			return "", nil, domain.Wrap(domain.KindConfig, "work dir", s.cfg.WorkDir, err)
		}
		return s.cfg.WorkDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "responsive-images-")
	if err != nil {
		return "", nil, domain.Wrap(domain.KindConfig, "work dir", "", err)
	}
	s.logger.Debug("created work directory", "path", dir)
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove work directory", "path", dir, "error", err)
		}
	}, nil
}
