package validator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Default upload constraints
const (
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
	DefaultMaxChunkSize  = 10 * 1024 * 1024 // 10MB
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrMissingType     = errors.New("missing content type")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Storage categories inferred from a MIME type.
const (
	CategoryVideo = "video"
	CategoryAudio = "audio"
	CategoryPDF   = "pdf"
	CategoryImage = "image"
)

// UploadConfig defines constraints for file uploads.
// An empty AllowedMimeTypes accepts every type.
type UploadConfig struct {
	MaxFileSize      int64
	MaxChunkSize     int64
	AllowedMimeTypes map[string]bool
}

// NewUploadConfig builds an UploadConfig from configured limits, falling back to defaults.
func NewUploadConfig(maxFileSize, maxChunkSize int64, allowedTypes []string) *UploadConfig {
	cfg := DefaultUploadConfig()
	if maxFileSize > 0 {
		cfg.MaxFileSize = maxFileSize
	}
	if maxChunkSize > 0 {
		cfg.MaxChunkSize = maxChunkSize
	}
	if len(allowedTypes) > 0 {
		cfg.AllowedMimeTypes = make(map[string]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			cfg.AllowedMimeTypes[normalizeMimeType(t)] = true
		}
	}
	return cfg
}

// DefaultUploadConfig returns the default upload configuration.
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxFileSize:  DefaultMaxUploadSize,
		MaxChunkSize: DefaultMaxChunkSize,
	}
}

// ValidateFileSize checks if the file size is within the allowed limit.
func (c *UploadConfig) ValidateFileSize(size int64) error {
	return checkSize(size, c.MaxFileSize)
}

// ValidateChunkSize checks a single multipart chunk.
func (c *UploadConfig) ValidateChunkSize(size int64) error {
	return checkSize(size, c.MaxChunkSize)
}

func checkSize(size, limit int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, limit)
	}
	return nil
}

// ValidateMimeType checks if the MIME type is in the allowed whitelist.
func (c *UploadConfig) ValidateMimeType(mimeType string) error {
	normalized := normalizeMimeType(mimeType)
	if normalized == "" {
		return ErrMissingType
	}
	if len(c.AllowedMimeTypes) > 0 && !c.AllowedMimeTypes[normalized] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, normalized)
	}
	return nil
}

// ResolveMimeType returns the declared type, or the type sniffed from data when none was declared.
func ResolveMimeType(declared string, data []byte) string {
	if normalized := normalizeMimeType(declared); normalized != "" {
		return normalized
	}
	return normalizeMimeType(http.DetectContentType(data))
}

// Validate performs full validation on a whole-file upload and returns the effective MIME type.
func (c *UploadConfig) Validate(size int64, declaredType string, data []byte) (string, error) {
	if err := c.ValidateFileSize(size); err != nil {
		return "", err
	}
	mimeType := ResolveMimeType(declaredType, data)
	if err := c.ValidateMimeType(mimeType); err != nil {
		return "", err
	}
	return mimeType, nil
}

// Category infers the storage category from a MIME type by substring match.
// Returns "" when nothing matches.
func Category(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "png"), strings.Contains(m, "jpg"), strings.Contains(m, "jpeg"):
		return CategoryImage
	case strings.Contains(m, "pdf"):
		return CategoryPDF
	case strings.Contains(m, "audio"):
		return CategoryAudio
	case strings.Contains(m, "video"):
		return CategoryVideo
	default:
		return ""
	}
}

// normalizeMimeType lowercases and strips parameters ("text/plain; charset=utf-8" -> "text/plain").
func normalizeMimeType(mimeType string) string {
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	return normalized
}
