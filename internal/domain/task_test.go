package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validOptions() RunOptions {
	return RunOptions{InputPath: "robot.jpg", Name: "robot", Sizes: []int{320}, Codec: "webp", Quality: 85}
}

func TestRunOptions_Validate(t *testing.T) {
	assert.NoError(t, validOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*RunOptions)
		want   error
	}{
		{"blank name", func(o *RunOptions) { o.Name = "  " }, ErrInvalidName},
		{"no input", func(o *RunOptions) { o.InputPath = "" }, ErrInputPathRequired},
		{"no sizes", func(o *RunOptions) { o.Sizes = nil }, ErrInvalidSizes},
		{"zero size", func(o *RunOptions) { o.Sizes = []int{320, 0} }, ErrInvalidSizes},
		{"quality", func(o *RunOptions) { o.Quality = 0 }, ErrInvalidQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsKind(err, KindConfig))
		})
	}
}

func TestRunOptions_SanitizedName(t *testing.T) {
	opts := validOptions()
	opts.Name = "my robot photos"
	assert.Equal(t, "my-robot-photos", opts.SanitizedName())
}

func TestNewProcessingTask(t *testing.T) {
	a := NewProcessingTask(validOptions())
	b := NewProcessingTask(validOptions())

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "robot", a.Options.Name)
	assert.False(t, a.EnqueuedAt.IsZero())
}
