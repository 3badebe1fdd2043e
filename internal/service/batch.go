package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// generatedName matches file stems this tool produces itself
// (<stem>-<width>w, <stem>-original, <stem>-source), plus the bare width and
// legacy names of older output, so a re-run over an output directory does not
// re-process them.
var generatedName = regexp.MustCompile(`(^|-)\d{3,4}w$|(^|-)legacy$|-(` + FullSizeSuffix + `|` + sourceSuffix + `)$`)

// DecodeExtensions are the input extensions worth attempting to decode.
// A listed format whose decoder is not registered fails at decode time.
var DecodeExtensions = []string{
	"avif",
	"ff", // farbfeld
	"bmp",
	"gif",
	"hdr",
	"png",
	"jpg",
	"jpeg",
	"jxl",
	"psd",
	"qoi",
	"tif",
	"tiff",
	"webp",
}

// DefaultMinFileSize is the size, in bytes, below which files in a directory
// are treated as icons or thumbnails and skipped.
const DefaultMinFileSize = 100

// BatchResult is the outcome of a batch run.
type BatchResult struct {
	Images  []domain.ImageInfo
	Metrics domain.Metrics
}

// BatchDriver walks an input path and runs the processor on every candidate.
type BatchDriver struct {
	processor   ProcessorService
	extensions  map[string]struct{}
	minFileSize int64
	logger      *slog.Logger
}

func NewBatchDriver(processor ProcessorService, extensions []string, minFileSize int64, logger *slog.Logger) *BatchDriver {
	if len(extensions) == 0 {
		extensions = DecodeExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &BatchDriver{
		processor:   processor,
		extensions:  allowed,
		minFileSize: minFileSize,
		logger:      logger,
	}
}

// Run processes a single file or the direct children of a directory.
//
// A single file only goes through the extension filter and any error it
// hits is returned. In a directory, each file's failure is logged and
// counted, and ErrNoImagesProcessed is returned only if nothing succeeded.
// Cancellation is checked between files.
func (d *BatchDriver) Run(ctx context.Context, outputDir string, opts domain.RunOptions) (BatchResult, error) {
	var result BatchResult

	info, err := os.Stat(opts.InputPath)
	if err != nil {
		return result, domain.Wrap(domain.KindConfig, "stat input", opts.InputPath, err)
	}

	if !info.IsDir() {
		result.Metrics.Traversed++
		if !d.hasValidExtension(opts.InputPath) {
			result.Metrics.Skipped++
			return result, domain.Wrap(domain.KindDecode, "filter", opts.InputPath, domain.ErrNoImagesProcessed)
		}
		image, err := d.processor.ProcessImage(ctx, ProcessRequest{Path: opts.InputPath, OutputDir: outputDir, Options: opts})
		if err != nil {
			result.Metrics.Failed++
			return result, err
		}
		d.record(&result, image)
		return result, nil
	}

	entries, err := os.ReadDir(opts.InputPath)
	if err != nil && len(entries) == 0 {
		return result, domain.Wrap(domain.KindConfig, "read dir", opts.InputPath, err)
	}
	if err != nil {
		d.logger.Warn("directory listing incomplete", "path", opts.InputPath, "error", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// stem -> first input written under it
	stems := make(map[string]string)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(opts.InputPath, entry.Name())
		result.Metrics.Traversed++

		ok, err := d.isCandidate(path, entry)
		if err != nil {
			d.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			result.Metrics.Skipped++
			continue
		}
		if !ok {
			result.Metrics.Skipped++
			continue
		}

		stem := outputStem(path)
		if previous, ok := stems[stem]; ok {
			d.logger.Warn("file shares its output stem with an earlier file, its variants overwrite the earlier ones",
				"path", path, "previous", previous, "stem", stem)
		} else {
			stems[stem] = path
		}

		image, err := d.processor.ProcessImage(ctx, ProcessRequest{Path: path, OutputDir: outputDir, Options: opts})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			d.logger.Error("failed to process image", "path", path, "error", err)
			result.Metrics.Failed++
			continue
		}
		d.record(&result, image)
	}

	if result.Metrics.Processed == 0 {
		return result, fmt.Errorf("%s: %w", opts.InputPath, domain.ErrNoImagesProcessed)
	}
	return result, nil
}

func (d *BatchDriver) record(result *BatchResult, image domain.ImageInfo) {
	result.Images = append(result.Images, image)
	result.Metrics.Processed++
	result.Metrics.Variants += len(image.Resizes())
}

// isCandidate applies, in order, the extension, size and generated-name
// filters to a directory entry.
func (d *BatchDriver) isCandidate(path string, entry os.DirEntry) (bool, error) {
	if !d.hasValidExtension(path) {
		d.logger.Info("skipping file, extension not valid", "path", path)
		return false, nil
	}

	info, err := entry.Info()
	if err != nil {
		return false, err
	}
	if info.Size() < d.minFileSize {
		d.logger.Info("skipping file, file size too small", "path", path, "size", info.Size())
		return false, nil
	}

	base := filepath.Base(path)
	if generatedName.MatchString(strings.TrimSuffix(base, filepath.Ext(base))) {
		d.logger.Info("skipping file, matches generated file pattern", "path", path)
		return false, nil
	}

	return true, nil
}

// outputStem is the directory and file name stem DestinationPath derives
// from path.
func outputStem(path string) string {
	base := filepath.Base(path)
	return strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "-")
}

func (d *BatchDriver) hasValidExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := d.extensions[ext]
	return ok
}
