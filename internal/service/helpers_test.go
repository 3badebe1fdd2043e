package service

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noisyImage returns a w×h image whose pixels vary enough that the encoded
// file is never trivially small.
func noisyImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(seed >> 16), A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, w, h int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(noisyImage(w, h), path))
	return path
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// writeExifJPEG writes a w×h JPEG whose APP1 segment carries an orientation
// tag, a camera model of "X100V" and an f-number of 2.8.
func writeExifJPEG(t *testing.T, path string, w, h, orientation int) string {
	t.Helper()

	var encoded bytes.Buffer
	require.NoError(t, jpeg.Encode(&encoded, noisyImage(w, h), &jpeg.Options{Quality: 90}))

	be := binary.BigEndian
	entry := func(tiff *bytes.Buffer, tag, typ uint16, count, value uint32) {
		binary.Write(tiff, be, tag)
		binary.Write(tiff, be, typ)
		binary.Write(tiff, be, count)
		binary.Write(tiff, be, value)
	}

	// header (8) + entry count (2) + 3 entries (36) + next IFD offset (4)
	const dataOffset = 8 + 2 + 3*12 + 4
	model := []byte("X100V\x00")

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, be, uint16(42))
	binary.Write(&tiff, be, uint32(8))
	binary.Write(&tiff, be, uint16(3))
	entry(&tiff, 0x0110, 2, uint32(len(model)), dataOffset)
	entry(&tiff, 0x0112, 3, 1, uint32(orientation)<<16)
	entry(&tiff, 0x829D, 5, 1, dataOffset+uint32(len(model)))
	binary.Write(&tiff, be, uint32(0))
	tiff.Write(model)
	binary.Write(&tiff, be, uint32(28))
	binary.Write(&tiff, be, uint32(10))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(encoded.Bytes()[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, be, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(encoded.Bytes()[2:])

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
	return path
}
