package service

import (
	"fmt"
	"math"

	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// ComputeResizePlans returns one Resize per candidate width that does not
// exceed the source width, in candidate order. Heights preserve the source
// aspect ratio and are rounded, never truncated.
func ComputeResizePlans(width, height int, candidates []int) ([]domain.Resize, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid source dimensions %dx%d", width, height)
	}

	aspect := float64(width) / float64(height)

	resizes := make([]domain.Resize, 0, len(candidates))
	for _, w := range candidates {
		if w <= 0 || w > width {
			continue
		}
		h := int(math.Round(float64(w) / aspect))
		if h < 1 {
			h = 1
		}
		resizes = append(resizes, domain.Resize{Width: w, Height: h})
	}

	if len(resizes) == 0 {
		return nil, domain.ErrImageTooSmall
	}
	return resizes, nil
}
