package service

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// FullSizeSuffix names the full-resolution re-encode of a source image.
const FullSizeSuffix = "original"

// sourceSuffix names the untouched byte copy of a source image.
const sourceSuffix = "source"

// VariantEncoder resizes and encodes images to deterministic paths under an
// output root. One encoder serves one run: the codec and quality are fixed.
type VariantEncoder struct {
	codec      codec.Codec
	quality    int
	skipResize bool
}

func NewVariantEncoder(c codec.Codec, quality int, skipResize bool) (*VariantEncoder, error) {
	if err := codec.ValidateQuality(quality); err != nil {
		return nil, domain.Wrap(domain.KindEncode, "new encoder", "", err)
	}
	return &VariantEncoder{codec: c, quality: quality, skipResize: skipResize}, nil
}

// Ext is the extension, without dot, of every file this encoder writes.
func (e *VariantEncoder) Ext() string {
	return e.codec.Ext
}

// DestinationPath computes root/<name>/<stem>/<stem>-<suffix>.<ext> with
// spaces in the name and stem replaced by hyphens.
func DestinationPath(root, name, inputPath, suffix, ext string) (string, error) {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("could not get file stem from %s", inputPath)
	}

	stem = strings.ReplaceAll(stem, " ", "-")
	fileName := strings.ReplaceAll(stem+"-"+suffix+"."+strings.TrimPrefix(ext, "."), "..", ".")

	return filepath.Join(root, strings.ReplaceAll(name, " ", "-"), stem, fileName), nil
}

// EncodeVariant resizes img to the planned size and writes it. With
// skipResize set, only the record of what would have been written is
// returned and no file exists at its path.
func (e *VariantEncoder) EncodeVariant(img image.Image, plan domain.Resize, root, name, inputPath string) (domain.GeneratedImage, error) {
	path, err := DestinationPath(root, name, inputPath, strconv.Itoa(plan.Width)+"w", e.codec.Ext)
	if err != nil {
		return domain.GeneratedImage{}, domain.Wrap(domain.KindEncode, "destination path", inputPath, err)
	}

	generated := domain.NewGeneratedImage(plan.Width, plan.Height, path)
	if e.skipResize {
		return generated, nil
	}

	resized := resize.Resize(uint(plan.Width), uint(plan.Height), img, resize.Lanczos3)
	if err := e.write(path, resized); err != nil {
		return domain.GeneratedImage{}, err
	}
	return generated, nil
}

// EncodeFullSize re-encodes img at its own resolution.
func (e *VariantEncoder) EncodeFullSize(img image.Image, root, name, inputPath string) (domain.GeneratedImage, error) {
	path, err := DestinationPath(root, name, inputPath, FullSizeSuffix, e.codec.Ext)
	if err != nil {
		return domain.GeneratedImage{}, domain.Wrap(domain.KindEncode, "destination path", inputPath, err)
	}

	bounds := img.Bounds()
	generated := domain.NewGeneratedImage(bounds.Dx(), bounds.Dy(), path)
	if e.skipResize {
		return generated, nil
	}

	if err := e.write(path, img); err != nil {
		return domain.GeneratedImage{}, err
	}
	return generated, nil
}

// CopyOriginal copies the source file byte for byte next to its variants,
// keeping its original extension.
func (e *VariantEncoder) CopyOriginal(root, name, inputPath string) (domain.OriginalImage, error) {
	path, err := DestinationPath(root, name, inputPath, sourceSuffix, filepath.Ext(inputPath))
	if err != nil {
		return domain.OriginalImage{}, domain.Wrap(domain.KindEncode, "destination path", inputPath, err)
	}

	original := domain.NewOriginalImage(path)
	if e.skipResize {
		return original, nil
	}

	if err := copyFile(inputPath, path); err != nil {
		return domain.OriginalImage{}, domain.Wrap(domain.KindEncode, "copy original", inputPath, err)
	}
	return original, nil
}

func (e *VariantEncoder) write(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.Wrap(domain.KindEncode, "write", path, fmt.Errorf("failed to create directory: %w", err))
	}

	file, err := os.Create(path)
	if err != nil {
		return domain.Wrap(domain.KindEncode, "write", path, fmt.Errorf("failed to create file: %w", err))
	}

	if err := e.codec.Encode(file, img, e.quality); err != nil {
		file.Close()
		os.Remove(path)
		return domain.Wrap(domain.KindEncode, "write", path, fmt.Errorf("failed to encode %s: %w", e.codec.Name, err))
	}

	if err := file.Close(); err != nil {
		return domain.Wrap(domain.KindEncode, "write", path, fmt.Errorf("failed to write file: %w", err))
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}
