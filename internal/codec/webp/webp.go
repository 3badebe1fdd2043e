// Package webp registers a lossy WebP encoder backed by libwebp.
package webp

import (
	"fmt"
	"image"
	"io"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/oziev02/ResponsiveImages/internal/codec"
)

// Register adds the webp codec to r.
func Register(r *codec.Registry) {
	r.Register(codec.Codec{
		Name:   "webp",
		Ext:    "webp",
		Encode: Encode,
	})
}

func Encode(w io.Writer, img image.Image, quality int) error {
	if err := codec.ValidateQuality(quality); err != nil {
		return err
	}
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetPhoto, float32(quality))
	if err != nil {
		return fmt.Errorf("failed to create webp encoder options: %w", err)
	}
	if err := webp.Encode(w, img, options); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}
