package service

import (
	"context"
	"log/slog"

	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// ProcessRequest is one file to turn into variants.
type ProcessRequest struct {
	Path      string
	OutputDir string
	Options   domain.RunOptions
}

type ProcessorService interface {
	ProcessImage(ctx context.Context, req ProcessRequest) (domain.ImageInfo, error)
}

type processorService struct {
	decoder     Decoder
	codecs      *codec.Registry
	placeholder Placeholder
	logger      *slog.Logger
}

// NewProcessorService builds the per-file pipeline. placeholder may be nil
// to disable placeholder generation.
func NewProcessorService(
	decoder Decoder,
	codecs *codec.Registry,
	placeholder Placeholder,
	logger *slog.Logger,
) ProcessorService {
	return &processorService{
		decoder:     decoder,
		codecs:      codecs,
		placeholder: placeholder,
		logger:      logger,
	}
}

// ProcessImage decodes the file, fixes its orientation, plans the resizes
// and writes every variant, the full-size re-encode and a copy of the
// original. The returned snapshot is complete; later stages only replace
// fields on copies of it.
func (s *processorService) ProcessImage(ctx context.Context, req ProcessRequest) (domain.ImageInfo, error) {
	c, err := s.codecs.Lookup(req.Options.Codec)
	if err != nil {
		return domain.ImageInfo{}, domain.Wrap(domain.KindConfig, "codec", req.Path, err)
	}
	encoder, err := NewVariantEncoder(c, req.Options.Quality, req.Options.SkipResize)
	if err != nil {
		return domain.ImageInfo{}, err
	}

	src, err := s.decoder.Decode(req.Path)
	if err != nil {
		return domain.ImageInfo{}, err
	}

	img := NormalizeOrientation(src.Image, src.Orientation)
	bounds := img.Bounds()

	resizes, err := ComputeResizePlans(bounds.Dx(), bounds.Dy(), req.Options.Sizes)
	if err != nil {
		return domain.ImageInfo{}, domain.Wrap(domain.KindTooSmall, "plan", req.Path, err)
	}
	s.logger.Debug("resizes planned", "path", req.Path, "resizes", resizes)

	name := req.Options.SanitizedName()

	generated := make([]domain.GeneratedImage, 0, len(resizes))
	for _, plan := range resizes {
		if err := ctx.Err(); err != nil {
			return domain.ImageInfo{}, err
		}
		g, err := encoder.EncodeVariant(img, plan, req.OutputDir, name, req.Path)
		if err != nil {
			return domain.ImageInfo{}, err
		}
		generated = append(generated, g)
	}

	full, err := encoder.EncodeFullSize(img, req.OutputDir, name, req.Path)
	if err != nil {
		return domain.ImageInfo{}, err
	}

	original, err := encoder.CopyOriginal(req.OutputDir, name, req.Path)
	if err != nil {
		return domain.ImageInfo{}, err
	}

	info, err := domain.NewImageInfo(req.Path, encoder.Ext(), resizes, generated, full, original)
	if err != nil {
		return domain.ImageInfo{}, domain.Wrap(domain.KindEncode, "record", req.Path, err)
	}
	info = info.WithCamera(src.Camera)

	if s.placeholder != nil {
		placeholder, err := s.placeholder.Generate(ctx, req.Path)
		if err != nil {
			s.logger.Warn("failed to generate placeholder", "path", req.Path, "error", err)
		} else {
			info = info.WithPlaceholder(placeholder)
		}
	}

	return info, nil
}
