package detection

import (
	"context"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/menta2k/photo-verifier/pkg/processing"
	"github.com/menta2k/photo-verifier/pkg/types"
)

// DefaultMaxDimension is the long-side limit applied before detection
const DefaultMaxDimension = 1200

// fullBodyRatio is the box height ratio above which a person counts as full body
const fullBodyRatio = 0.6

// referenceHints are COCO labels with a roughly known real-world size
var referenceHints = map[string]struct{}{
	// furniture
	"chair": {}, "couch": {}, "bench": {}, "dining table": {}, "bed": {},
	// electronics
	"tv": {}, "laptop": {}, "cell phone": {}, "remote": {},
	// containers and tableware
	"bottle": {}, "cup": {}, "wine glass": {}, "fork": {}, "knife": {}, "spoon": {},
	// personal items
	"backpack": {}, "handbag": {}, "suitcase": {}, "umbrella": {},
	// vehicles
	"car": {}, "bicycle": {}, "motorcycle": {},
	// openings
	"door": {}, "window": {},
}

// IsReferenceLabel reports whether label is a size-referenceable category
func IsReferenceLabel(label string) bool {
	_, ok := referenceHints[label]
	return ok
}

// Detector runs a detection engine and summarizes the result
type Detector struct {
	engine Engine
	maxDim int
	logger *zap.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithMaxDimension overrides the downscale limit
func WithMaxDimension(n int) Option {
	return func(d *Detector) { d.maxDim = n }
}

// WithLogger sets the detector logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDetector creates a new detector around an engine
func NewDetector(engine Engine, opts ...Option) *Detector {
	d := &Detector{engine: engine, maxDim: DefaultMaxDimension, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EngineName returns the name of the underlying engine
func (d *Detector) EngineName() string {
	if d.engine == nil {
		return "none"
	}
	return d.engine.Name()
}

// Close releases the engine
func (d *Detector) Close() error {
	if d.engine == nil {
		return nil
	}
	return d.engine.Close()
}

// Detect finds persons and objects in img and reports them in original coordinates
func (d *Detector) Detect(ctx context.Context, img image.Image) (types.DetectionResult, error) {
	if d.engine == nil {
		return types.DetectionResult{}, ErrNoEngine
	}
	if img == nil || img.Bounds().Empty() {
		return types.DetectionResult{}, fmt.Errorf("empty image")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	small, scale := processing.Downscale(img, d.maxDim)
	raw, err := d.engine.Detect(ctx, small)
	if err != nil {
		return types.DetectionResult{}, fmt.Errorf("%s detection: %w", d.engine.Name(), err)
	}

	res := types.DetectionResult{
		Engine:           d.engine.Name(),
		Persons:          []types.DetectedBox{},
		Objects:          []types.DetectedBox{},
		ReferenceObjects: []types.DetectedBox{},
		ImageDims:        types.ImageDims{Width: w, Height: h},
	}

	origin := small.Bounds().Min
	for _, det := range raw {
		box := toOriginal(det.Box.Sub(origin), scale, w, h)
		bh := float64(box.Dy()) / float64(h)
		bw := float64(box.Dx()) / float64(w)

		out := types.DetectedBox{
			Label:       det.Label,
			Confidence:  round3(det.Confidence),
			BBox:        [4]int{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y},
			HeightRatio: round3(bh),
			WidthRatio:  round3(bw),
		}
		if det.Label == "person" {
			out.IsFullBody = bh > fullBodyRatio
			res.Persons = append(res.Persons, out)
			continue
		}
		res.Objects = append(res.Objects, out)
		if IsReferenceLabel(det.Label) {
			res.ReferenceObjects = append(res.ReferenceObjects, out)
		}
	}
	res.PersonVisibility = SummarizeVisibility(res.Persons)

	d.logger.Debug("detection complete",
		zap.String("engine", res.Engine),
		zap.Int("persons", len(res.Persons)),
		zap.Int("objects", len(res.Objects)),
		zap.Float64("scale", scale),
	)
	return res, nil
}

// SummarizeVisibility derives the visibility tier from the most confident person
func SummarizeVisibility(persons []types.DetectedBox) types.VisibilitySummary {
	if len(persons) == 0 {
		return types.NotVisible()
	}
	main := persons[0]
	for _, p := range persons[1:] {
		if p.Confidence > main.Confidence {
			main = p
		}
	}

	r := main.HeightRatio
	pct := fmt.Sprintf("人物检测框占画面高度约%.0f%%", r*100)
	switch {
	case r > 0.75:
		return types.VisibilitySummary{Tier: types.VisibilityFullBody, Detail: pct}
	case r > 0.5:
		return types.VisibilitySummary{Tier: types.VisibilityMostly, Detail: pct + "，可能为全身或七分身"}
	case r > 0.3:
		return types.VisibilitySummary{Tier: types.VisibilityUpperBody, Detail: pct + "，推测为上半身"}
	default:
		return types.VisibilitySummary{Tier: types.VisibilityHeadOnly, Detail: pct + "，推测为头肩或局部"}
	}
}

// Failed builds the stand-in result used when detection crashed
func Failed(engine string, err error) types.DetectionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return types.DetectionResult{
		Engine:           engine,
		Persons:          []types.DetectedBox{},
		Objects:          []types.DetectedBox{},
		ReferenceObjects: []types.DetectedBox{},
		PersonVisibility: types.NotVisible(),
		Failed:           true,
		Error:            msg,
	}
}

// toOriginal rescales a box from the downscaled image and clamps it to w x h
func toOriginal(r image.Rectangle, scale float64, w, h int) image.Rectangle {
	if scale <= 0 {
		scale = 1
	}
	x0 := clamp(int(float64(r.Min.X)/scale), 0, w)
	y0 := clamp(int(float64(r.Min.Y)/scale), 0, h)
	x1 := clamp(int(float64(r.Max.X)/scale), 0, w)
	y1 := clamp(int(float64(r.Max.Y)/scale), 0, h)
	return image.Rect(x0, y0, x1, y1)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
