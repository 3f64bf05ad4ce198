package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBytes(t *testing.T) {
	p := NewProcessor()
	data := encodePNG(t, createTestImage(40, 30))

	img, err := p.DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("Expected 40x30, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecodeBytesRejectsGarbage(t *testing.T) {
	p := NewProcessor()
	if _, err := p.DecodeBytes([]byte("definitely not an image")); err == nil {
		t.Error("Expected error for garbage input")
	}
	if _, err := p.DecodeBytes(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestDownscale(t *testing.T) {
	img := createTestImage(2400, 1200)

	out, scale := Downscale(img, 1200)
	if out.Bounds().Dx() != 1200 || out.Bounds().Dy() != 600 {
		t.Errorf("Expected 1200x600, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if scale != 0.5 {
		t.Errorf("Expected scale 0.5, got %f", scale)
	}

	small := createTestImage(300, 200)
	out, scale = Downscale(small, 1200)
	if out != small || scale != 1 {
		t.Error("Expected small image to be returned untouched")
	}
}

func TestDownscalePortrait(t *testing.T) {
	out, scale := Downscale(createTestImage(600, 2400), 1200)
	if out.Bounds().Dy() != 1200 || out.Bounds().Dx() != 300 {
		t.Errorf("Expected 300x1200, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if scale != 0.5 {
		t.Errorf("Expected scale 0.5, got %f", scale)
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	data := encodePNG(t, createTestImage(100, 50))

	out, mime, err := p.PrepareImageForModel(data, "image/png", 1600, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(out, data) {
		t.Error("Expected small image to pass through unchanged")
	}

	out, mime, err = p.PrepareImageForModel(data, "image/png", 40, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", mime)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("re-encoded image is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("Expected width 40, got %d", img.Bounds().Dx())
	}
}

func TestDataURL(t *testing.T) {
	url := DataURL("image/PNG", []byte{1, 2, 3})
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", url)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	if err != nil || !bytes.Equal(raw, []byte{1, 2, 3}) {
		t.Error("payload did not round trip")
	}
}
