package validation

import "errors"

var (
	ErrEmptyFile        = errors.New("empty video upload")
	ErrFileTooLarge     = errors.New("file size exceeds 1GB limit")
	ErrUnsupportedExt   = errors.New("unsupported video file extension")
	ErrInvalidThreshold = errors.New("confidence threshold must be between 0 and 1")
)
