package codec

import (
	"bytes"
	"image"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"jpeg", "JPG", ".jpg"} {
		c, err := r.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, "jpeg", c.Name)
		assert.Equal(t, "jpg", c.Ext)
	}

	c, err := r.Lookup("png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ContentType(c.Ext))

	_, err = r.Lookup("webp")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCodec)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(Codec{Name: "Raw", Ext: "raw", Encode: func(w io.Writer, img image.Image, quality int) error { return nil }})

	c, err := r.Lookup("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", c.Ext)
}

func TestEncoders(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	r := NewRegistry()

	for _, name := range []string{"jpeg", "png"} {
		c, err := r.Lookup(name)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf, img, 75))

		decoded, err := imaging.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, img.Bounds(), decoded.Bounds())
	}
}

func TestJPEG_InvalidQuality(t *testing.T) {
	c, err := NewRegistry().Lookup("jpeg")
	require.NoError(t, err)

	err = c.Encode(io.Discard, image.NewNRGBA(image.Rect(0, 0, 1, 1)), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuality)
}

func TestValidateQuality(t *testing.T) {
	assert.NoError(t, ValidateQuality(1))
	assert.NoError(t, ValidateQuality(100))
	assert.ErrorIs(t, ValidateQuality(0), domain.ErrInvalidQuality)
	assert.ErrorIs(t, ValidateQuality(101), domain.ErrInvalidQuality)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/webp", ContentType("webp"))
	assert.Equal(t, "image/jpeg", ContentType(".JPG"))
	assert.Equal(t, "image/tiff", ContentType("tif"))
	assert.Equal(t, "application/octet-stream", ContentType("xyz"))
}
