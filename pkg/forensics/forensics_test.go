package forensics

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-verifier/pkg/types"
)

func uniformImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h, cell int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func intPtr(v int) *int { return &v }

func TestBlurScore(t *testing.T) {
	flat := BlurScore(uniformImage(32, 32, color.Gray{Y: 128}))
	assert.InDelta(t, 0, flat, 1e-9)

	sharp := BlurScore(checkerboard(32, 32, 1))
	assert.Greater(t, sharp, 1000.0)

	coarse := BlurScore(checkerboard(32, 32, 8))
	assert.Less(t, coarse, sharp)

	assert.Equal(t, -1.0, BlurScore(nil))
	assert.Equal(t, -1.0, BlurScore(image.NewNRGBA(image.Rect(0, 0, 0, 0))))
}

func TestBlurScoreSinglePixel(t *testing.T) {
	assert.InDelta(t, 0, BlurScore(uniformImage(1, 1, color.White)), 1e-9)
}

func TestNoiseEstimate(t *testing.T) {
	assert.InDelta(t, 0, NoiseEstimate(uniformImage(16, 16, color.Gray{Y: 80})), 1e-9)
	assert.Greater(t, NoiseEstimate(checkerboard(32, 32, 1)), 10.0)
	assert.Equal(t, -1.0, NoiseEstimate(nil))
}

func TestAngleImpactFromExif(t *testing.T) {
	tests := []struct {
		focal *int
		level types.AngleLevel
	}{
		{nil, types.AngleUnknown},
		{intPtr(13), types.AngleHigh},
		{intPtr(28), types.AngleHigh},
		{intPtr(29), types.AngleMedium},
		{intPtr(50), types.AngleMedium},
		{intPtr(51), types.AngleLow},
		{intPtr(85), types.AngleLow},
	}
	for _, tt := range tests {
		got := AngleImpactFromExif(types.ExifData{Focal35mm: tt.focal})
		assert.Equal(t, tt.level, got.Level)
		assert.True(t, strings.HasPrefix(got.Evidence, "角度影响："))
		if tt.focal != nil {
			assert.Contains(t, got.Evidence, "约"+strconv.Itoa(*tt.focal)+"mm")
		}
	}
}

func TestEditingHints(t *testing.T) {
	hints := EditingHints(types.ExifData{Camera: "Apple iPhone 14", DateTime: "2024:05:01 10:00:00", Software: "Adobe Photoshop Lightroom 7.0"})
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "Adobe Photoshop Lightroom 7.0")

	hints = EditingHints(types.ExifData{Camera: "Canon EOS R6", Software: "美图秀秀"})
	assert.Len(t, hints, 1)

	hints = EditingHints(types.ExifData{Camera: "Canon EOS R6", Software: "Firmware 1.2"})
	assert.Empty(t, hints)

	hints = EditingHints(types.ExifData{})
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "几乎为空")

	hints = EditingHints(types.ExifData{Software: "PicsArt"})
	assert.Len(t, hints, 2)
}

func TestCredibilityItems(t *testing.T) {
	items := CredibilityItems(-1, types.ExifData{}, EditingHints(types.ExifData{}))
	require.Len(t, items, 3)
	assert.Equal(t, "清晰度检测失败", items[0].Claim)
	assert.Equal(t, types.ConfidenceLow, items[0].Confidence)
	assert.Equal(t, "EXIF 元数据几乎为空", items[1].Claim)
	assert.Equal(t, "检测到可能的编辑痕迹提示", items[2].Claim)

	items = CredibilityItems(45, types.ExifData{}, nil)
	assert.Contains(t, items[0].Claim, "偏低")
	items = CredibilityItems(90, types.ExifData{}, nil)
	assert.Contains(t, items[0].Claim, "一般")
	items = CredibilityItems(300, types.ExifData{Camera: "Sony A7", HasGPS: true, Focal35mm: intPtr(35)}, nil)
	require.Len(t, items, 2)
	assert.Contains(t, items[0].Claim, "较好")
	assert.Contains(t, items[1].Evidence[0], "相机: Sony A7")
	assert.Contains(t, items[1].Evidence[0], "包含 GPS 位置信息")
	assert.Contains(t, items[1].Evidence[0], "35mm等效焦距: 35mm")

	for _, it := range items {
		assert.NotEmpty(t, it.Evidence)
	}
}

func TestExtractExifWithoutMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniformImage(8, 8, color.White)))

	e := ExtractExif(buf.Bytes())
	assert.True(t, e.Empty())
	assert.Nil(t, e.Focal35mm)
	assert.False(t, e.HasGPS)

	assert.NotPanics(t, func() { ExtractExif([]byte{0xff, 0xd8, 0xff, 0xe1, 0x00}) })
	assert.NotPanics(t, func() { ExtractExif(nil) })
}

func TestAnalyze(t *testing.T) {
	var buf bytes.Buffer
	img := checkerboard(64, 64, 2)
	require.NoError(t, png.Encode(&buf, img))

	res := New(nil).Analyze(buf.Bytes(), img)
	assert.Greater(t, res.BlurScore, 0.0)
	assert.GreaterOrEqual(t, res.NoiseEstimate, 0.0)
	assert.Equal(t, types.AngleUnknown, res.AngleImpact.Level)
	assert.False(t, res.Failed)
	assert.NotEmpty(t, res.Items)

	res = New(nil).Analyze([]byte("garbage"), nil)
	assert.Equal(t, -1.0, res.BlurScore)
	assert.Equal(t, -1.0, res.NoiseEstimate)
	assert.Equal(t, "清晰度检测失败", res.Items[0].Claim)
}

func TestFailed(t *testing.T) {
	res := Failed(errors.New("decoder exploded"))
	assert.True(t, res.Failed)
	assert.Equal(t, -1.0, res.BlurScore)
	assert.Equal(t, types.AngleUnknown, res.AngleImpact.Level)
	require.Len(t, res.Items, 1)
	assert.Equal(t, []string{"decoder exploded"}, res.Items[0].Limitations)
}
