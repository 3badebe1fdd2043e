package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// Placeholder produces a small stand-in for an image to show while the real
// variants load. The returned string is opaque to callers.
type Placeholder interface {
	Generate(ctx context.Context, path string) (string, error)
}

// BlurPlaceholder renders a tiny blurred thumbnail wrapped in an SVG sized to
// the source aspect ratio, returned base64 encoded.
type BlurPlaceholder struct {
	Size  int     // longest edge of the embedded thumbnail
	Sigma float64 // gaussian blur strength
}

func NewBlurPlaceholder() *BlurPlaceholder {
	return &BlurPlaceholder{Size: 32, Sigma: 2}
}

func (p *BlurPlaceholder) Generate(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", decodeError(path, err)
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, p.Size, p.Size, imaging.Box)
	thumb = imaging.Blur(thumb, p.Sigma)

	var png bytes.Buffer
	if err := imaging.Encode(&png, thumb, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode placeholder: %w", err)
	}

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %d %d">`+
			`<filter id="b"><feGaussianBlur stdDeviation="12"/></filter>`+
			`<image filter="url(#b)" width="100%%" height="100%%" preserveAspectRatio="none" xlink:href="data:image/png;base64,%s"/>`+
			`</svg>`,
		bounds.Dx(), bounds.Dy(), base64.StdEncoding.EncodeToString(png.Bytes()),
	)

	return base64.StdEncoding.EncodeToString([]byte(svg)), nil
}
