package domain

import (
	"fmt"
	"image"
	"path/filepath"
)

// SourceImage is a decoded input image. It is owned by the processing call
// that decoded it and discarded once every variant has been produced.
type SourceImage struct {
	Image       image.Image
	Width       int
	Height      int
	Orientation int // EXIF orientation tag, 0 when absent
	Camera      *Camera
}

// Camera is a summary of the EXIF shooting data of a source image.
type Camera struct {
	Model                string `json:"camera_model,omitempty"`
	Lens                 string `json:"lens,omitempty"`
	ShutterSpeed         string `json:"shutter_speed,omitempty"`
	Aperture             string `json:"aperture,omitempty"`
	FocalLength          string `json:"focal_length,omitempty"`
	ISO                  string `json:"iso,omitempty"`
	ExposureCompensation string `json:"exposure_compensation,omitempty"`
	Megapixels           string `json:"megapixels,omitempty"`
}

// Resize is a target size that preserves the source aspect ratio.
type Resize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MaxWidth returns the largest width among resizes, or 0 when empty.
// The candidate list is not required to be sorted.
func MaxWidth(resizes []Resize) int {
	max := 0
	for _, r := range resizes {
		if r.Width > max {
			max = r.Width
		}
	}
	return max
}

// GeneratedImage describes one encoded output artifact.
type GeneratedImage struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
}

// NewGeneratedImage returns a record with no storage location yet.
func NewGeneratedImage(width, height int, path string) GeneratedImage {
	return GeneratedImage{Width: width, Height: height, Path: path}
}

// WithLocation returns a copy with the storage location set. A location can
// only be assigned once.
func (g GeneratedImage) WithLocation(location string) (GeneratedImage, error) {
	if g.Location != "" {
		return g, fmt.Errorf("%s: %w", g.Path, ErrLocationAlreadySet)
	}
	g.Location = location
	return g, nil
}

// FileName is the base name of the local artifact, used as the object key suffix.
func (g GeneratedImage) FileName() string {
	return filepath.Base(g.Path)
}

// OriginalImage is a byte-for-byte copy of the untouched source file.
type OriginalImage struct {
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
}

func NewOriginalImage(path string) OriginalImage {
	return OriginalImage{Path: path}
}

// WithLocation returns a copy with the storage location set. A location can
// only be assigned once.
func (o OriginalImage) WithLocation(location string) (OriginalImage, error) {
	if o.Location != "" {
		return o, fmt.Errorf("%s: %w", o.Path, ErrLocationAlreadySet)
	}
	o.Location = location
	return o, nil
}

func (o OriginalImage) FileName() string {
	return filepath.Base(o.Path)
}

// ImageInfo is the aggregate for one input file. Values are never mutated
// after construction; each post-processing stage builds a new snapshot with
// one of the With* methods.
type ImageInfo struct {
	maxWidth        int
	inputPath       string
	ext             string
	resizes         []Resize
	generatedImages []GeneratedImage
	fullSizeImage   GeneratedImage
	originalImage   OriginalImage
	placeholder     string
	camera          *Camera
}

// NewImageInfo builds a validated snapshot. The slices are copied so the
// caller cannot alter the snapshot afterwards.
func NewImageInfo(
	inputPath string,
	ext string,
	resizes []Resize,
	generatedImages []GeneratedImage,
	fullSizeImage GeneratedImage,
	originalImage OriginalImage,
) (ImageInfo, error) {
	info := ImageInfo{
		maxWidth:        MaxWidth(resizes),
		inputPath:       inputPath,
		ext:             ext,
		resizes:         append([]Resize(nil), resizes...),
		generatedImages: append([]GeneratedImage(nil), generatedImages...),
		fullSizeImage:   fullSizeImage,
		originalImage:   originalImage,
	}
	if err := info.Validate(); err != nil {
		return ImageInfo{}, err
	}
	return info, nil
}

// Validate checks that the generated images line up with the resize plans.
func (i ImageInfo) Validate() error {
	if len(i.resizes) == 0 {
		return ErrImageTooSmall
	}
	if len(i.generatedImages) != len(i.resizes) {
		return fmt.Errorf("%w: %d generated images for %d resizes",
			ErrInconsistentImageInfo, len(i.generatedImages), len(i.resizes))
	}
	for idx, r := range i.resizes {
		g := i.generatedImages[idx]
		if g.Width != r.Width || g.Height != r.Height {
			return fmt.Errorf("%w: generated image %d is %dx%d, planned %dx%d",
				ErrInconsistentImageInfo, idx, g.Width, g.Height, r.Width, r.Height)
		}
	}
	if i.maxWidth != MaxWidth(i.resizes) {
		return fmt.Errorf("%w: max width %d", ErrInconsistentImageInfo, i.maxWidth)
	}
	return nil
}

func (i ImageInfo) MaxWidth() int       { return i.maxWidth }
func (i ImageInfo) InputPath() string   { return i.inputPath }
func (i ImageInfo) Ext() string         { return i.ext }
func (i ImageInfo) Placeholder() string { return i.placeholder }
func (i ImageInfo) Camera() *Camera     { return i.camera }

func (i ImageInfo) FullSizeImage() GeneratedImage { return i.fullSizeImage }
func (i ImageInfo) OriginalImage() OriginalImage  { return i.originalImage }

// Resizes returns a copy of the planned sizes in planning order.
func (i ImageInfo) Resizes() []Resize {
	return append([]Resize(nil), i.resizes...)
}

// GeneratedImages returns a copy of the variants, in the same order as Resizes.
func (i ImageInfo) GeneratedImages() []GeneratedImage {
	return append([]GeneratedImage(nil), i.generatedImages...)
}

// LargestImage returns the variant with the maximum width.
func (i ImageInfo) LargestImage() GeneratedImage {
	for _, g := range i.generatedImages {
		if g.Width == i.maxWidth {
			return g
		}
	}
	return GeneratedImage{}
}

// WithGeneratedImages returns a new snapshot with the variants replaced.
func (i ImageInfo) WithGeneratedImages(generated []GeneratedImage) (ImageInfo, error) {
	next := i
	next.generatedImages = append([]GeneratedImage(nil), generated...)
	if err := next.Validate(); err != nil {
		return i, err
	}
	return next, nil
}

// WithFullSizeImage returns a new snapshot with the full-size re-encode replaced.
func (i ImageInfo) WithFullSizeImage(full GeneratedImage) ImageInfo {
	next := i
	next.fullSizeImage = full
	return next
}

// WithOriginalImage returns a new snapshot with the original copy replaced.
func (i ImageInfo) WithOriginalImage(original OriginalImage) ImageInfo {
	next := i
	next.originalImage = original
	return next
}

func (i ImageInfo) WithPlaceholder(placeholder string) ImageInfo {
	next := i
	next.placeholder = placeholder
	return next
}

func (i ImageInfo) WithCamera(camera *Camera) ImageInfo {
	next := i
	next.camera = camera
	return next
}

// DataKey identifies the image in the data file: the logical name joined
// with the input file name.
func (i ImageInfo) DataKey(name string) string {
	return name + "-" + filepath.Base(i.inputPath)
}

// Metrics are run-scoped counters for one batch invocation.
type Metrics struct {
	Traversed int `json:"traversed"`
	Processed int `json:"processed"`
	Variants  int `json:"variants"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
