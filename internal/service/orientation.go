package service

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// NormalizeOrientation applies the flips and rotations that bring an image
// stored with the given EXIF orientation tag upright. A tag of 0 means the
// image carried none.
//
// Three stages run in order and may all apply to one tag:
//   - 5..8: rotate 90° clockwise, then mirror horizontally
//   - 3, 4, 7, 8: rotate 180°
//   - even tags: mirror horizontally
func NormalizeOrientation(img image.Image, tag int) image.Image {
	switch {
	case tag == 0:
		slog.Debug("no orientation tag")
		return img
	case tag == 1:
		slog.Debug("orientation already correct")
		return img
	case tag < 0 || tag > 8:
		slog.Warn("invalid orientation tag value", "tag", tag)
		return img
	}

	if tag >= 5 {
		// imaging rotates counter-clockwise
		img = imaging.FlipH(imaging.Rotate270(img))
	}

	if tag == 3 || tag == 4 || tag == 7 || tag == 8 {
		img = imaging.Rotate180(img)
	}

	if tag%2 == 0 {
		img = imaging.FlipH(img)
	}

	return img
}
