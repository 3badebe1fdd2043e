package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether it is fatal for a
// run or only for the file being processed.
type Kind string

const (
	KindDecode     Kind = "decode"
	KindTooSmall   Kind = "too_small"
	KindEncode     Kind = "encode"
	KindCollision  Kind = "collision"
	KindUpload     Kind = "upload"
	KindMetadataIO Kind = "metadata_io"
	KindConfig     Kind = "config"
)

// Error carries the kind, the failing operation and, where relevant, the
// file the operation was working on.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err, and keeps an existing *Error untouched so
// the innermost classification wins.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// IsKind reports whether the first *Error in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// Domain errors
var (
	ErrImageTooSmall         = errors.New("image is narrower than every requested width")
	ErrInconsistentImageInfo = errors.New("inconsistent image info")
	ErrLocationAlreadySet    = errors.New("storage location already set")
	ErrKeyAlreadyExists      = errors.New("key already exists in data file")
	ErrRecordNotFound        = errors.New("record not found")
	ErrNoImagesProcessed     = errors.New("no images were processed")
	ErrUnsupportedCodec      = errors.New("unsupported output codec")
	ErrInvalidQuality        = errors.New("invalid encoder quality")
	ErrInvalidName           = errors.New("image name is required")
	ErrInputPathRequired     = errors.New("image location is required")
	ErrInvalidSizes          = errors.New("invalid sizes")
)
