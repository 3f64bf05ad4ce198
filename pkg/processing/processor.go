package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Processor handles image decoding and preparation for the model
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// DecodeBytes decodes an image from byte data with WebP support
func (p *Processor) DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty data")
	}

	// Registered decoders first (jpeg, png, x/image webp)
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// libwebp handles the extended formats the pure-Go decoder rejects
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// DecodeConfig reads only the header to get format and dimensions
func (p *Processor) DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, format, nil
	}
	if cfg, err := webp.DecodeConfig(bytes.NewReader(data)); err == nil {
		return cfg, "webp", nil
	}
	return image.Config{}, "", fmt.Errorf("image: unknown or unsupported format")
}

// Downscale shrinks img so its long side is at most maxDim.
// It returns the image to use and the scale factor applied (1 when unchanged).
func Downscale(img image.Image, maxDim int) (image.Image, float64) {
	if maxDim <= 0 {
		return img, 1
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := w
	if h > long {
		long = h
	}
	if long <= maxDim {
		return img, 1
	}
	scale := float64(maxDim) / float64(long)
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Linear), scale
	}
	return imaging.Resize(img, 0, maxDim, imaging.Linear), scale
}

// PrepareImageForModel returns the bytes and MIME type to send to the remote model.
// Images within maxDim are sent untouched; larger ones are re-encoded as JPEG.
func (p *Processor) PrepareImageForModel(data []byte, mime string, maxDim, quality int) ([]byte, string, error) {
	if maxDim <= 0 {
		return data, mime, nil
	}
	cfg, _, err := p.DecodeConfig(data)
	if err != nil {
		return nil, "", err
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, mime, nil
	}

	img, err := p.DecodeBytes(data)
	if err != nil {
		return nil, "", err
	}
	img, _ = Downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}

// DataURL encodes image bytes as a base64 data URL
func DataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + strings.ToLower(mime) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
