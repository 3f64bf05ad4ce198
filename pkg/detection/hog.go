package detection

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// hogConfidence is reported for every HOG hit; the grouped detector returns no scores
const hogConfidence = 1.0

// HOGEngine detects people with OpenCV's default HOG+SVM people detector
type HOGEngine struct{}

// NewHOGEngine creates the HOG people detector
func NewHOGEngine() (*HOGEngine, error) {
	return &HOGEngine{}, nil
}

// Name implements Engine
func (e *HOGEngine) Name() string { return types.EngineHOG }

// Detect implements Engine
func (e *HOGEngine) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	hog := gocv.NewHOGDescriptor()
	defer hog.Close()
	people := gocv.HOGDefaultPeopleDetector()
	defer people.Close()
	hog.SetSVMDetector(people)

	rects := hog.DetectMultiScaleWithParams(mat, 0, image.Pt(8, 8), image.Pt(8, 8), 1.05, 2, false)

	origin := img.Bounds().Min
	out := make([]Detection, 0, len(rects))
	for _, r := range rects {
		out = append(out, Detection{
			Label:      "person",
			Confidence: hogConfidence,
			Box:        r.Add(origin),
		})
	}
	return out, nil
}

// Close implements Engine
func (e *HOGEngine) Close() error { return nil }
