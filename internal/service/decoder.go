package service

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/rwcarlsen/goexif/exif"
)

// Decoder reads a source image file together with its EXIF metadata.
type Decoder interface {
	Decode(path string) (*domain.SourceImage, error)
}

type fileDecoder struct {
	logger *slog.Logger
}

func NewDecoder(logger *slog.Logger) Decoder {
	return &fileDecoder{logger: logger}
}

func (d *fileDecoder) Decode(path string) (*domain.SourceImage, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, decodeError(path, err)
	}

	bounds := img.Bounds()
	src := &domain.SourceImage{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	x, err := readExif(path)
	if err != nil {
		// Formats without EXIF (png, bmp, ...) land here as well.
		d.logger.Debug("no exif data", "path", path, "error", err)
		return src, nil
	}

	src.Orientation = orientationTag(x)
	src.Camera = cameraSummary(x, src.Width, src.Height)
	return src, nil
}

func readExif(path string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exif.Decode(f)
}

// orientationTag returns the raw tag value, or 0 when it is missing.
// Out-of-range values are passed through for NormalizeOrientation to report.
func orientationTag(x *exif.Exif) int {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func cameraSummary(x *exif.Exif, width, height int) *domain.Camera {
	c := &domain.Camera{
		Model:                exifString(x, exif.Model),
		Lens:                 exifString(x, exif.LensModel),
		ShutterSpeed:         exifRat(x, exif.ExposureTime, func(r *big.Rat) string { return r.RatString() + "s" }),
		Aperture:             exifRat(x, exif.FNumber, func(r *big.Rat) string { return "f/" + ratFloat(r, 1) }),
		FocalLength:          exifRat(x, exif.FocalLength, func(r *big.Rat) string { return ratFloat(r, 0) + "mm" }),
		ExposureCompensation: exifRat(x, exif.ExposureBiasValue, func(r *big.Rat) string { return ratFloat(r, 1) }),
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			c.ISO = strconv.Itoa(iso)
		}
	}
	if c.Model == "" && c.Lens == "" && c.ShutterSpeed == "" && c.Aperture == "" {
		return nil
	}
	c.Megapixels = strconv.FormatFloat(float64(width*height)/1e6, 'f', 1, 64)
	return c
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func exifRat(x *exif.Exif, name exif.FieldName, format func(*big.Rat) string) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	r, err := tag.Rat(0)
	if err != nil || r == nil {
		return ""
	}
	return format(r)
}

func ratFloat(r *big.Rat, prec int) string {
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func decodeError(path string, err error) error {
	return domain.Wrap(domain.KindDecode, "decode", path, fmt.Errorf("failed to decode image: %w", err))
}
