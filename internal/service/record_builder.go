package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// BuildRecord turns a published image into the data file entry used to
// render its picture element.
func BuildRecord(name string, info domain.ImageInfo) domain.Record {
	srcset := Srcset(info.GeneratedImages())
	sizes := SizesAttribute(info.MaxWidth())
	full := info.FullSizeImage()

	return domain.Record{
		Name:   info.DataKey(name),
		Width:  full.Width,
		Height: full.Height,
		Fallback: domain.FallbackImage{
			Src:         info.LargestImage().Location,
			Sizes:       sizes,
			Srcset:      srcset,
			Placeholder: info.Placeholder(),
		},
		Sources: []domain.Source{{
			Type:        codec.ContentType(info.Ext()),
			Sizes:       sizes,
			Srcset:      srcset,
			Placeholder: info.Placeholder(),
		}},
		HQImage:       full.Location,
		OriginalImage: info.OriginalImage().Location,
		Camera:        info.Camera(),
	}
}

// Srcset renders "<location> <width>w" entries in variant order.
func Srcset(images []domain.GeneratedImage) string {
	parts := make([]string, 0, len(images))
	for _, g := range images {
		parts = append(parts, g.Location+" "+strconv.Itoa(g.Width)+"w")
	}
	return strings.Join(parts, ",")
}

func SizesAttribute(maxWidth int) string {
	return fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", maxWidth, maxWidth)
}
