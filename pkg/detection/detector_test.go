package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-verifier/pkg/types"
)

type fakeEngine struct {
	name   string
	dets   []Detection
	err    error
	seen   image.Rectangle
	closed bool
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Detect(_ context.Context, img image.Image) ([]Detection, error) {
	f.seen = img.Bounds()
	return f.dets, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{90, 120, 150, 255})
		}
	}
	return img
}

func TestDetectRescalesToOriginal(t *testing.T) {
	engine := &fakeEngine{name: types.EngineYOLO, dets: []Detection{
		{Label: "person", Confidence: 0.91234, Box: image.Rect(100, 50, 300, 550)},
		{Label: "chair", Confidence: 0.6, Box: image.Rect(400, 300, 500, 500)},
		{Label: "pizza", Confidence: 0.4, Box: image.Rect(0, 0, 50, 50)},
	}}
	d := NewDetector(engine)

	res, err := d.Detect(context.Background(), solidImage(2400, 1200))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 1200, 600), engine.seen)
	assert.Equal(t, types.EngineYOLO, res.Engine)
	assert.Equal(t, types.ImageDims{Width: 2400, Height: 1200}, res.ImageDims)

	require.Len(t, res.Persons, 1)
	p := res.Persons[0]
	assert.Equal(t, [4]int{200, 100, 600, 1100}, p.BBox)
	assert.Equal(t, 0.912, p.Confidence)
	assert.InDelta(t, 0.833, p.HeightRatio, 1e-9)
	assert.True(t, p.IsFullBody)

	require.Len(t, res.Objects, 2)
	require.Len(t, res.ReferenceObjects, 1)
	assert.Equal(t, "chair", res.ReferenceObjects[0].Label)
	assert.Equal(t, []string{"chair"}, res.ReferenceLabels())
}

func TestDetectClampsBoxes(t *testing.T) {
	engine := &fakeEngine{name: types.EngineHOG, dets: []Detection{
		{Label: "person", Confidence: 1, Box: image.Rect(-20, -10, 900, 900)},
	}}
	d := NewDetector(engine)

	res, err := d.Detect(context.Background(), solidImage(800, 600))
	require.NoError(t, err)
	require.Len(t, res.Persons, 1)
	assert.Equal(t, [4]int{0, 0, 800, 600}, res.Persons[0].BBox)
	assert.Equal(t, 1.0, res.Persons[0].HeightRatio)
}

func TestDetectFullBodyScenario(t *testing.T) {
	// 1000px tall image, person box 820px tall
	engine := &fakeEngine{name: types.EngineYOLO, dets: []Detection{
		{Label: "person", Confidence: 0.88, Box: image.Rect(300, 100, 500, 920)},
	}}
	d := NewDetector(engine, WithMaxDimension(2000))

	res, err := d.Detect(context.Background(), solidImage(800, 1000))
	require.NoError(t, err)
	assert.InDelta(t, 0.82, res.Persons[0].HeightRatio, 1e-9)
	assert.Equal(t, types.VisibilityFullBody, res.PersonVisibility.Tier)
	assert.Contains(t, res.PersonVisibility.Detail, "82%")
}

func TestDetectEngineError(t *testing.T) {
	d := NewDetector(&fakeEngine{name: "yolo", err: errors.New("boom")})
	_, err := d.Detect(context.Background(), solidImage(10, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDetectWithoutEngine(t *testing.T) {
	d := NewDetector(nil)
	_, err := d.Detect(context.Background(), solidImage(10, 10))
	assert.ErrorIs(t, err, ErrNoEngine)
	assert.Equal(t, "none", d.EngineName())
}

func TestSummarizeVisibility(t *testing.T) {
	tests := []struct {
		ratio float64
		tier  string
	}{
		{0.9, types.VisibilityFullBody},
		{0.76, types.VisibilityFullBody},
		{0.75, types.VisibilityMostly},
		{0.6, types.VisibilityMostly},
		{0.45, types.VisibilityUpperBody},
		{0.3, types.VisibilityHeadOnly},
		{0.1, types.VisibilityHeadOnly},
	}
	for _, tt := range tests {
		got := SummarizeVisibility([]types.DetectedBox{{Label: "person", Confidence: 0.9, HeightRatio: tt.ratio}})
		assert.Equal(t, tt.tier, got.Tier, "ratio %.2f", tt.ratio)
	}

	assert.Equal(t, types.NotVisible(), SummarizeVisibility(nil))
}

func TestSummarizeVisibilityUsesMostConfident(t *testing.T) {
	persons := []types.DetectedBox{
		{Label: "person", Confidence: 0.5, HeightRatio: 0.9},
		{Label: "person", Confidence: 0.8, HeightRatio: 0.2},
		{Label: "person", Confidence: 0.8, HeightRatio: 0.9},
	}
	got := SummarizeVisibility(persons)
	assert.Equal(t, types.VisibilityHeadOnly, got.Tier)
}

func TestFailed(t *testing.T) {
	res := Failed(types.EngineHOG, errors.New("cv crashed"))
	assert.True(t, res.Failed)
	assert.Equal(t, "cv crashed", res.Error)
	assert.Empty(t, res.Persons)
	assert.NotNil(t, res.Objects)
	assert.Equal(t, types.VisibilityNotVisible, res.PersonVisibility.Tier)
}

func TestResolvePicksFirstAvailable(t *testing.T) {
	hog := &fakeEngine{name: types.EngineHOG}
	engine, err := Resolve(nil,
		Provider{Name: "yolo", Open: func() (Engine, error) { return nil, errors.New("model missing") }},
		Provider{Name: "hog", Open: func() (Engine, error) { return hog, nil }},
	)
	require.NoError(t, err)
	assert.Equal(t, types.EngineHOG, engine.Name())
}

func TestResolveNoneAvailable(t *testing.T) {
	_, err := Resolve(nil,
		Provider{Name: "yolo", Open: func() (Engine, error) { return nil, errors.New("model missing") }},
	)
	require.ErrorIs(t, err, ErrNoEngine)
	assert.Contains(t, err.Error(), "model missing")
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []Detection{
		{Label: "person", Confidence: 0.6, Box: image.Rect(12, 12, 110, 210)},
		{Label: "person", Confidence: 0.9, Box: image.Rect(10, 10, 110, 210)},
		{Label: "chair", Confidence: 0.5, Box: image.Rect(10, 10, 110, 210)},
		{Label: "person", Confidence: 0.7, Box: image.Rect(400, 10, 500, 210)},
	}
	kept := nonMaxSuppression(dets, defaultIoUThreshold)
	require.Len(t, kept, 3)
	assert.Equal(t, 0.9, kept[0].Confidence)
	assert.Equal(t, "person", kept[1].Label)
	assert.Equal(t, "chair", kept[2].Label)
}

func TestDecodePredictions(t *testing.T) {
	pred := make([]float32, yoloOutputRows*yoloCandidates)
	// candidate 0: person centred at (320,320), 64x128, score 0.8
	pred[0] = 320
	pred[yoloCandidates] = 320
	pred[2*yoloCandidates] = 64
	pred[3*yoloCandidates] = 128
	pred[4*yoloCandidates] = 0.8
	// candidate 1: chair below threshold
	pred[1] = 100
	pred[yoloCandidates+1] = 100
	pred[2*yoloCandidates+1] = 10
	pred[3*yoloCandidates+1] = 10
	pred[(4+56)*yoloCandidates+1] = 0.1

	dets := decodePredictions(pred, 1280, 640, defaultConfThreshold)
	require.Len(t, dets, 1)
	assert.Equal(t, "person", dets[0].Label)
	assert.Equal(t, image.Rect(576, 256, 704, 384), dets[0].Box)
	assert.InDelta(t, 0.8, dets[0].Confidence, 1e-6)

	assert.Nil(t, decodePredictions(pred[:10], 640, 640, defaultConfThreshold))
}
