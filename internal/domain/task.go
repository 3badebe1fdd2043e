package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunOptions are the per-invocation settings of a generation run.
type RunOptions struct {
	InputPath  string `json:"input_path"`
	Name       string `json:"name"`
	Directory  string `json:"directory,omitempty"`
	Sizes      []int  `json:"sizes,omitempty"`
	Codec      string `json:"codec,omitempty"`
	Quality    int    `json:"quality,omitempty"`
	SkipUpload bool   `json:"skip_upload,omitempty"`
	SkipResize bool   `json:"skip_resize,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

// SanitizedName is the logical name as used in file paths.
func (o RunOptions) SanitizedName() string {
	return strings.ReplaceAll(o.Name, " ", "-")
}

// Validate checks the options a run cannot start without.
func (o RunOptions) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return &Error{Kind: KindConfig, Op: "validate", Err: ErrInvalidName}
	}
	if strings.TrimSpace(o.InputPath) == "" {
		return &Error{Kind: KindConfig, Op: "validate", Err: ErrInputPathRequired}
	}
	if len(o.Sizes) == 0 {
		return &Error{Kind: KindConfig, Op: "validate", Err: ErrInvalidSizes}
	}
	for _, s := range o.Sizes {
		if s <= 0 {
			return &Error{Kind: KindConfig, Op: "validate", Err: ErrInvalidSizes}
		}
	}
	if o.Quality < 1 || o.Quality > 100 {
		return &Error{Kind: KindConfig, Op: "validate", Err: ErrInvalidQuality}
	}
	return nil
}

// ProcessingTask is a queued request to run the pipeline on a path.
type ProcessingTask struct {
	ID         string     `json:"id"`
	Options    RunOptions `json:"options"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

func NewProcessingTask(opts RunOptions) *ProcessingTask {
	return &ProcessingTask{
		ID:         uuid.New().String(),
		Options:    opts,
		EnqueuedAt: time.Now().UTC(),
	}
}

// RunResult is what a completed generation run produced.
type RunResult struct {
	RunID   string
	Images  []ImageInfo
	Records []Record
	Metrics Metrics
}
