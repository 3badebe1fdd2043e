package codec

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// EncodeFunc writes img to w at the given quality (1-100).
type EncodeFunc func(w io.Writer, img image.Image, quality int) error

// Codec is an output format every variant of a run is encoded to.
type Codec struct {
	Name   string
	Ext    string
	Encode EncodeFunc
}

// Registry maps codec names to encoders. Codecs are registered at start-up
// and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns a registry with the pure-Go codecs (jpeg, png).
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec)}
	r.Register(Codec{Name: "jpeg", Ext: "jpg", Encode: encodeJPEG})
	r.Register(Codec{Name: "png", Ext: "png", Encode: encodePNG})
	return r
}

func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[strings.ToLower(c.Name)] = c
}

// Lookup accepts a codec name or one of its aliases (jpg).
func (r *Registry) Lookup(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "jpg" {
		name = "jpeg"
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	if !ok {
		return Codec{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCodec, name)
	}
	return c, nil
}

// ValidateQuality rejects qualities an encoder cannot accept.
func ValidateQuality(quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuality, quality)
	}
	return nil
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	if err := ValidateQuality(quality); err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodePNG(w io.Writer, img image.Image, _ int) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

var mimeTable = map[string]string{
	"avif": "image/avif",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jxl":  "image/jxl",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// ContentType returns the MIME type for a file extension, with or without
// the leading dot.
func ContentType(ext string) string {
	if ct, ok := mimeTable[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}
	return "application/octet-stream"
}
