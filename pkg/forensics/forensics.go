// Package forensics computes local credibility signals for an uploaded photo:
// sharpness, noise, EXIF metadata, lens angle risk and editing hints.
package forensics

import (
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/photo-verifier/internal/logging"
	"github.com/menta2k/photo-verifier/pkg/types"
)

// Analyzer runs the forensics checks
type Analyzer struct {
	logger *zap.Logger
}

// New creates a forensics analyzer
func New(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logging.OrNop(logger)}
}

// Analyze computes the forensics result for raw bytes and their decoded image.
// A nil img yields -1 quality scores; EXIF is still read from data.
func (a *Analyzer) Analyze(data []byte, img image.Image) types.ForensicsResult {
	exifData := ExtractExif(data)
	if exifData.Error != "" {
		a.logger.Debug("exif unreadable", zap.String("error", exifData.Error))
	}

	blur, noise := -1.0, -1.0
	if img != nil {
		blur = BlurScore(img)
		noise = NoiseEstimate(img)
	}

	hints := EditingHints(exifData)
	res := types.ForensicsResult{
		Exif:          exifData,
		BlurScore:     blur,
		NoiseEstimate: noise,
		AngleImpact:   AngleImpactFromExif(exifData),
		EditingHints:  hints,
	}
	res.Items = CredibilityItems(blur, exifData, hints)

	a.logger.Debug("forensics complete",
		zap.Float64("blur_score", blur),
		zap.Float64("noise_estimate", noise),
		zap.String("angle_level", string(res.AngleImpact.Level)),
		zap.Int("editing_hints", len(hints)),
	)
	return res
}

// Failed builds the stand-in result used when the forensics stage crashed
func Failed(err error) types.ForensicsResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return types.ForensicsResult{
		Items: []types.Finding{types.NewFinding(
			"可信度分析失败",
			[]string{"来自流程：本地可信度分析出现异常"},
			[]string{msg},
			types.ConfidenceLow,
		)},
		Exif:          types.ExifData{},
		BlurScore:     -1,
		NoiseEstimate: -1,
		AngleImpact:   AngleImpactFromExif(types.ExifData{}),
		EditingHints:  []string{},
		Failed:        true,
		Error:         msg,
	}
}

// CredibilityItems turns the raw signals into credibility findings
func CredibilityItems(blur float64, e types.ExifData, hints []string) []types.Finding {
	items := make([]types.Finding, 0, 3)

	var sharp string
	conf := types.ConfidenceMedium
	switch {
	case blur < 0:
		sharp = "清晰度检测失败"
		conf = types.ConfidenceLow
	case blur < 60:
		sharp = "画面清晰度偏低（可能存在较强模糊）"
	case blur < 120:
		sharp = "画面清晰度一般（可能存在轻微模糊）"
	default:
		sharp = "画面清晰度较好（模糊迹象不明显）"
	}
	items = append(items, types.NewFinding(
		sharp,
		[]string{fmt.Sprintf("来自画面：模糊度指标（Laplacian 方差）≈ %.1f（数值越高通常越清晰）", blur)},
		[]string{"模糊度指标受分辨率、噪声、锐化影响；仅作技术线索"},
		conf,
	))

	var facts []string
	if e.Camera != "" {
		facts = append(facts, "相机: "+e.Camera)
	}
	if e.DateTime != "" {
		facts = append(facts, "拍摄时间: "+e.DateTime)
	}
	if e.HasGPS {
		facts = append(facts, "包含 GPS 位置信息")
	}
	if e.Focal35mm != nil {
		facts = append(facts, fmt.Sprintf("35mm等效焦距: %dmm", *e.Focal35mm))
	}
	if e.Software != "" {
		facts = append(facts, "软件: "+e.Software)
	}
	if len(facts) > 0 {
		items = append(items, types.NewFinding(
			"EXIF 元数据存在，可辅助判断拍摄设备/时间",
			[]string{"来自EXIF：" + strings.Join(facts, "; ")},
			[]string{"EXIF 可能被清除/篡改；存在不代表一定真实"},
			types.ConfidenceLow,
		))
	} else {
		items = append(items, types.NewFinding(
			"EXIF 元数据几乎为空",
			[]string{"来自EXIF：未提取到有效元数据（可能已被清除或为截图/网络图片）"},
			[]string{"EXIF 缺失不代表照片不真实，但失去一项验证手段"},
			types.ConfidenceLow,
		))
	}

	if len(hints) > 0 {
		evidence := make([]string, 0, len(hints))
		for _, h := range hints {
			evidence = append(evidence, "来自EXIF："+h)
		}
		items = append(items, types.NewFinding(
			"检测到可能的编辑痕迹提示",
			evidence,
			[]string{"软件标记可能被修改；仅作参考线索"},
			types.ConfidenceLow,
		))
	}
	return items
}
