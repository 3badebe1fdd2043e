package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/oziev02/ResponsiveImages/internal/repo"
)

// Publisher assigns storage locations to every artifact of an image,
// uploading them unless uploads are skipped.
type Publisher struct {
	uploader  repo.Uploader
	publicURL string
	now       time.Time
	logger    *slog.Logger
}

// NewPublisher uses now for every key prefix of the run, so all images of a
// run land under the same dated directory.
func NewPublisher(uploader repo.Uploader, publicURL string, now time.Time, logger *slog.Logger) *Publisher {
	return &Publisher{
		uploader:  uploader,
		publicURL: publicURL,
		now:       now,
		logger:    logger,
	}
}

// KeyPrefix returns images/<year>/<Mon>/[<directory>/].
func KeyPrefix(directory string, now time.Time) string {
	prefix := fmt.Sprintf("images/%d/%s/", now.Year(), now.Format("Jan"))
	directory = strings.Trim(directory, "/")
	if directory == "" {
		return prefix
	}
	return prefix + directory + "/"
}

// Publish returns a new snapshot of info with every location set.
func (p *Publisher) Publish(ctx context.Context, info domain.ImageInfo, opts domain.RunOptions) (domain.ImageInfo, error) {
	prefix := KeyPrefix(opts.Directory, p.now)

	generated := info.GeneratedImages()
	for i, g := range generated {
		location, err := p.place(ctx, opts, g.Path, prefix+g.FileName())
		if err != nil {
			return info, err
		}
		if generated[i], err = g.WithLocation(location); err != nil {
			return info, domain.Wrap(domain.KindUpload, "publish", g.Path, err)
		}
	}

	full := info.FullSizeImage()
	location, err := p.place(ctx, opts, full.Path, prefix+full.FileName())
	if err != nil {
		return info, err
	}
	if full, err = full.WithLocation(location); err != nil {
		return info, domain.Wrap(domain.KindUpload, "publish", full.Path, err)
	}

	original := info.OriginalImage()
	location, err = p.place(ctx, opts, original.Path, prefix+original.FileName())
	if err != nil {
		return info, err
	}
	if original, err = original.WithLocation(location); err != nil {
		return info, domain.Wrap(domain.KindUpload, "publish", original.Path, err)
	}

	next, err := info.WithGeneratedImages(generated)
	if err != nil {
		return info, err
	}
	return next.WithFullSizeImage(full).WithOriginalImage(original), nil
}

func (p *Publisher) place(ctx context.Context, opts domain.RunOptions, localPath, key string) (string, error) {
	if opts.SkipUpload || p.uploader == nil {
		return p.publicURL + key, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	location, err := p.uploader.Upload(ctx, localPath, key, codec.ContentType(extOf(localPath)))
	if err != nil {
		return "", domain.Wrap(domain.KindUpload, "upload", localPath, err)
	}
	p.logger.Debug("uploaded", "path", localPath, "location", location)
	return location, nil
}

func extOf(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return ""
}
