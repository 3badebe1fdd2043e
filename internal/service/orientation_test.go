package service

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// quad is 2×2:
//
//	red   green
//	blue  white
func quad() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 1, white)
	return img
}

func TestNormalizeOrientation(t *testing.T) {
	tests := []struct {
		name string
		tag  int
		want [2][2]color.NRGBA // [row][col]
	}{
		{"normal", 1, [2][2]color.NRGBA{{red, green}, {blue, white}}},
		{"mirror horizontal", 2, [2][2]color.NRGBA{{green, red}, {white, blue}}},
		{"rotate 180", 3, [2][2]color.NRGBA{{white, blue}, {green, red}}},
		{"mirror vertical", 4, [2][2]color.NRGBA{{blue, white}, {red, green}}},
		{"transpose", 5, [2][2]color.NRGBA{{red, blue}, {green, white}}},
		{"rotate 90 clockwise", 6, [2][2]color.NRGBA{{blue, red}, {white, green}}},
		{"transverse", 7, [2][2]color.NRGBA{{white, green}, {blue, red}}},
		{"rotate 90 counter-clockwise", 8, [2][2]color.NRGBA{{green, white}, {red, blue}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeOrientation(quad(), tt.tag)

			assert.Equal(t, image.Rect(0, 0, 2, 2), got.Bounds())
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					assert.Equal(t, tt.want[y][x], nrgbaAt(got, x, y), "pixel (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestNormalizeOrientation_Identity(t *testing.T) {
	for _, tag := range []int{0, 1} {
		img := quad()
		assert.Same(t, img, NormalizeOrientation(img, tag))
	}
}

func TestNormalizeOrientation_InvalidTag(t *testing.T) {
	for _, tag := range []int{-1, 9, 42} {
		img := quad()
		assert.Same(t, img, NormalizeOrientation(img, tag))
	}
}

func TestNormalizeOrientation_Rotate180TwiceIsIdentity(t *testing.T) {
	got := NormalizeOrientation(NormalizeOrientation(quad(), 3), 3)

	assert.Equal(t, red, nrgbaAt(got, 0, 0))
	assert.Equal(t, white, nrgbaAt(got, 1, 1))
}

func TestNormalizeOrientation_SwapsDimensionsForTransposedTags(t *testing.T) {
	for tag := 5; tag <= 8; tag++ {
		got := NormalizeOrientation(image.NewNRGBA(image.Rect(0, 0, 40, 10)), tag)
		assert.Equal(t, 10, got.Bounds().Dx(), "tag %d", tag)
		assert.Equal(t, 40, got.Bounds().Dy(), "tag %d", tag)
	}
}
