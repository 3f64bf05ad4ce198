// Package intake validates uploaded photos before they enter the pipeline.
package intake

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/menta2k/photo-verifier/pkg/processing"
)

// DefaultMaxBytes is the default upload size bound
const DefaultMaxBytes = 5 << 20

// Sentinel errors for rejected uploads; match with errors.Is
var (
	ErrEmpty           = errors.New("empty upload")
	ErrTooLarge        = errors.New("upload too large")
	ErrUnsupportedMIME = errors.New("unsupported content type")
	ErrUndecodable     = errors.New("image could not be decoded")
	ErrTooSmall        = errors.New("image too small")
)

// DefaultAllowedMIME is the default content-type allow-list
var DefaultAllowedMIME = []string{"image/jpeg", "image/png", "image/webp"}

// Config holds the intake limits
type Config struct {
	MaxBytes     int64
	AllowedMIME  []string
	MinImageSize int
}

// Validator checks uploads against Config
type Validator struct {
	config    Config
	processor *processing.Processor
}

// New creates a Validator with the default limits
func New() *Validator {
	return NewWithConfig(Config{
		MaxBytes:    DefaultMaxBytes,
		AllowedMIME: DefaultAllowedMIME,
	})
}

// NewWithConfig creates a Validator; zero fields take their defaults
func NewWithConfig(cfg Config) *Validator {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if len(cfg.AllowedMIME) == 0 {
		cfg.AllowedMIME = DefaultAllowedMIME
	}
	return &Validator{config: cfg, processor: processing.NewProcessor()}
}

// MaxBytes returns the configured size bound
func (v *Validator) MaxBytes() int64 { return v.config.MaxBytes }

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Format      string  `json:"format"`
	MIME        string  `json:"mime"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
	Bytes       int     `json:"bytes"`
}

// Validate checks size, content type and decodability, in that order.
// The returned error wraps one of the sentinel errors.
func (v *Validator) Validate(data []byte, contentType string) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, ErrEmpty
	}
	if int64(len(data)) > v.config.MaxBytes {
		return ImageInfo{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, len(data), v.config.MaxBytes)
	}

	mt := NormalizeMIME(contentType)
	if !v.isMIMEAllowed(mt) {
		return ImageInfo{}, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedMIME, contentType, strings.Join(v.config.AllowedMIME, ", "))
	}

	cfg, format, err := v.processor.DecodeConfig(data)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: zero dimensions", ErrUndecodable)
	}
	if m := v.config.MinImageSize; m > 0 && (cfg.Width < m || cfg.Height < m) {
		return ImageInfo{}, fmt.Errorf("%w: %dx%d (minimum: %d)", ErrTooSmall, cfg.Width, cfg.Height, m)
	}

	return ImageInfo{
		Format:      format,
		MIME:        mt,
		Width:       cfg.Width,
		Height:      cfg.Height,
		AspectRatio: float64(cfg.Width) / float64(cfg.Height),
		Area:        cfg.Width * cfg.Height,
		Bytes:       len(data),
	}, nil
}

func (v *Validator) isMIMEAllowed(mt string) bool {
	for _, allowed := range v.config.AllowedMIME {
		if strings.EqualFold(mt, allowed) {
			return true
		}
	}
	return false
}

// NormalizeMIME lowercases a content type, drops its parameters and
// maps the common image/jpg alias to image/jpeg.
func NormalizeMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mt {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	}
	return mt
}

// MIMEFromFormat maps a decoder format name to its content type
func MIMEFromFormat(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	}
	return ""
}
