package validation

import (
	"bytes"
	"path/filepath"
	"strings"
)

// MaxFileSize is the upload ceiling for video blobs.
const MaxFileSize = 1024 * 1024 * 1024 // 1GB

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// ValidateSize rejects empty blobs and blobs over the limit.
func ValidateSize(size int64, limit int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if limit <= 0 {
		limit = MaxFileSize
	}
	if size > limit {
		return ErrFileTooLarge
	}
	return nil
}

// ValidateExtension rejects filenames whose extension is not a supported
// video container. An empty filename passes; extension checks only apply
// when the submitter names the file.
func ValidateExtension(filename string) error {
	if filename == "" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedExt
	}
	return nil
}

// ValidateThreshold checks a confidence threshold lies in [0, 1].
func ValidateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return ErrInvalidThreshold
	}
	return nil
}

// Container is a video container format sniffed from magic bytes.
type Container string

const (
	ContainerMP4     Container = "mp4"
	ContainerWebM    Container = "webm"
	ContainerAVI     Container = "avi"
	ContainerUnknown Container = ""
)

// DetectContainer sniffs the container format from a blob's leading bytes.
// The result is advisory: it picks a temp-file suffix for decoders that key
// off extensions, and an unknown container is not an error.
func DetectContainer(data []byte) Container {
	if len(data) < 12 {
		return ContainerUnknown
	}
	switch {
	case bytes.Equal(data[4:8], []byte("ftyp")):
		return ContainerMP4
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		// EBML header, shared by webm and mkv.
		return ContainerWebM
	case bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("AVI ")):
		return ContainerAVI
	default:
		return ContainerUnknown
	}
}

// Extension returns the temp-file suffix for a detected container.
func (c Container) Extension() string {
	switch c {
	case ContainerMP4:
		return ".mp4"
	case ContainerWebM:
		return ".webm"
	case ContainerAVI:
		return ".avi"
	default:
		return ".bin"
	}
}
