package detection

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
)

// Detection is a raw engine hit in the coordinates of the image it was given
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// Engine is a person/object detection backend
type Engine interface {
	Name() string
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
	Close() error
}

// Provider opens an engine if it is available on this host
type Provider struct {
	Name string
	Open func() (Engine, error)
}

// ErrNoEngine is returned when no provider could open an engine
var ErrNoEngine = errors.New("no detection engine available")

// Resolve opens the first available engine in preference order.
// It is meant to run once at startup.
func Resolve(logger *zap.Logger, providers ...Provider) (Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error
	for _, p := range providers {
		engine, err := p.Open()
		if err != nil {
			logger.Warn("detection engine unavailable", zap.String("engine", p.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
			continue
		}
		logger.Info("detection engine selected", zap.String("engine", engine.Name()))
		return engine, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoEngine, errors.Join(errs...))
}

// YOLOProvider prefers the ONNX YOLO engine
func YOLOProvider(cfg YOLOConfig) Provider {
	return Provider{Name: "yolo", Open: func() (Engine, error) { return NewYOLOEngine(cfg) }}
}

// HOGProvider falls back to the OpenCV HOG people detector
func HOGProvider() Provider {
	return Provider{Name: "hog", Open: func() (Engine, error) { return NewHOGEngine() }}
}
