package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-verifier/pkg/types"
)

func emptyDetection() types.DetectionResult {
	return types.DetectionResult{
		Engine:           types.EngineYOLO,
		Persons:          []types.DetectedBox{},
		Objects:          []types.DetectedBox{},
		ReferenceObjects: []types.DetectedBox{},
		PersonVisibility: types.NotVisible(),
	}
}

func detectionWithPerson(ratio float64) types.DetectionResult {
	det := emptyDetection()
	det.Persons = []types.DetectedBox{{Label: "person", Confidence: 0.9, HeightRatio: ratio, IsFullBody: ratio > 0.6}}
	det.PersonVisibility = types.VisibilitySummary{Tier: types.VisibilityFullBody, Detail: "人物检测框占画面高度约82%"}
	return det
}

func unknownAngle() types.ForensicsResult {
	return types.ForensicsResult{
		BlurScore:     100,
		NoiseEstimate: 2,
		AngleImpact:   types.AngleImpact{Level: types.AngleUnknown, Evidence: "角度影响：未知（无法获取焦距信息）"},
	}
}

func blankPerson() types.AnalyzerPerson {
	return types.AnalyzerPerson{
		Height:          types.HeightUndetermined,
		BodyType:        types.BodyUndetermined,
		Posture:         types.PostureUncertain,
		Gender:          types.GenderUndetermined,
		PartialFeatures: map[string]string{},
		Confidence:      "low",
	}
}

func TestNoPersonScenario(t *testing.T) {
	attrs := EvaluatePerson(emptyDetection(), unknownAngle(), blankPerson(), nil)

	assert.False(t, attrs.Detected)
	assert.Equal(t, 0, attrs.Count)
	assert.Equal(t, "参照物：N/A（未检测到人物）", attrs.Evidence.Reference)
	assert.Contains(t, attrs.Evidence.Reference, "N/A（未检测到人物）")
	assert.Equal(t, types.BodyUndetermined, attrs.BodyType)
	assert.Equal(t, []string{"来自检测：当前画面未检测到人物"}, attrs.EvidenceList)
	assert.Equal(t, []string{"无人物，无法进行体征分析"}, attrs.Limitations)
}

func TestFullBodyScenario(t *testing.T) {
	raw := blankPerson()
	raw.Detected = true
	raw.Count = 1
	raw.Height = "偏高"
	raw.BodyType = "偏瘦"
	raw.Posture = "挺拔"
	raw.Confidence = "medium"
	raw.Evidence = types.PersonEvidence{
		Reference:      "参照物：门框高度约2米",
		BodyVisibility: "全身：可见全身",
		AngleImpact:    "角度影响：平视拍摄，透视影响小",
	}

	attrs := EvaluatePerson(detectionWithPerson(0.82), unknownAngle(), raw, nil)

	require.True(t, attrs.Detected)
	assert.Equal(t, types.BodySlender, attrs.BodyType)
	assert.Equal(t, types.HeightTall, attrs.Height)
	assert.Equal(t, types.PostureUpright, attrs.Posture)
	assert.Equal(t, types.ConfidenceMedium, attrs.Confidence)
	assert.Equal(t, []string{limitGeneric}, attrs.Limitations)
	assert.Len(t, attrs.EvidenceList, 3)
}

func TestGenderWithoutCluesScenario(t *testing.T) {
	raw := blankPerson()
	raw.Detected = true
	raw.Gender = "女性"
	raw.GenderEvidence = types.GenderEvidence{Appearance: "未见", Environment: "未见", Consistency: "一致"}

	attrs := EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)
	assert.Equal(t, types.GenderUndetermined, attrs.Gender)
	assert.Equal(t, raw.GenderEvidence, attrs.GenderEvidence)
}

func TestStrictGateDowngrades(t *testing.T) {
	raw := blankPerson()
	raw.Detected = true
	raw.Height = "偏高"
	raw.Posture = "挺拔"
	raw.Confidence = "high"
	raw.Evidence = types.PersonEvidence{Reference: "参照物：椅子", BodyVisibility: "全身：可见全身"}

	attrs := EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)

	assert.Equal(t, types.HeightUndetermined, attrs.Height)
	assert.Equal(t, types.PostureUncertain, attrs.Posture)
	assert.Equal(t, types.ConfidenceLow, attrs.Confidence)
	assert.Equal(t, evidenceDefaults[types.EvidenceAngleImpact], attrs.Evidence.AngleImpact)
	assert.Contains(t, attrs.Limitations, "evidence 缺少：角度影响，身高/姿态判断降级")
}

func TestStrictGateMonotonicity(t *testing.T) {
	evidences := []types.PersonEvidence{
		{},
		{Reference: "参照物：沙发"},
		{Reference: "参照物：沙发", BodyVisibility: "全身：可见"},
		{BodyVisibility: "全身：可见", AngleImpact: "俯拍"},
		{Reference: "未检测到", BodyVisibility: "不可见", AngleImpact: "未知"},
	}
	for _, ev := range evidences {
		for _, det := range []types.DetectionResult{emptyDetection(), detectionWithPerson(0.4)} {
			raw := blankPerson()
			raw.Detected = true
			raw.Height = "偏矮"
			raw.Posture = "含胸"
			raw.Evidence = ev

			assembled, missing := AssembleEvidence(det, unknownAngle(), raw, nil)
			attrs := EvaluatePerson(det, unknownAngle(), raw, nil)
			assert.Equal(t, assembled, attrs.Evidence)
			if len(missing) > 0 {
				assert.Equal(t, types.HeightUndetermined, attrs.Height, "%+v", ev)
				assert.Equal(t, types.PostureUncertain, attrs.Posture, "%+v", ev)
			}
			for _, k := range types.EvidenceKeys {
				assert.NotEmpty(t, attrs.Evidence.Get(k))
			}
		}
	}
}

func TestBodyTypeNeverUndeterminedOncePresent(t *testing.T) {
	variants := []func(*types.AnalyzerPerson, *types.DetectionResult){
		func(p *types.AnalyzerPerson, d *types.DetectionResult) { p.Detected = true },
		func(p *types.AnalyzerPerson, d *types.DetectionResult) { p.Count = 2 },
		func(p *types.AnalyzerPerson, d *types.DetectionResult) {
			p.PartialFeatures = map[string]string{"hand": "一只手"}
		},
		func(p *types.AnalyzerPerson, d *types.DetectionResult) {
			p.Evidence.BodyVisibility = "上半身可见"
		},
		func(p *types.AnalyzerPerson, d *types.DetectionResult) { p.BodyType = "说不好" },
		func(p *types.AnalyzerPerson, d *types.DetectionResult) { *d = detectionWithPerson(0.2) },
	}
	for i, apply := range variants {
		raw := blankPerson()
		det := emptyDetection()
		apply(&raw, &det)

		attrs := EvaluatePerson(det, unknownAngle(), raw, nil)
		require.True(t, attrs.Detected, "variant %d", i)
		assert.NotEqual(t, types.BodyUndetermined, attrs.BodyType, "variant %d", i)
		assert.NotEmpty(t, attrs.Limitations)
	}
}

func TestBodyTypeFallbackNotes(t *testing.T) {
	raw := blankPerson()
	raw.PartialFeatures = map[string]string{"arm": "胳膊细，锁骨明显", "face": "圆脸"}
	attrs := EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)
	assert.Equal(t, types.BodySlender, attrs.BodyType)
	assert.Contains(t, attrs.Limitations, limitBodyFromFeatures)

	raw = blankPerson()
	raw.Evidence.BodyVisibility = "全身可见"
	attrs = EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)
	assert.Equal(t, types.BodyAverage, attrs.BodyType)
	assert.Contains(t, attrs.Limitations, limitBodyFromVisibility)

	raw = blankPerson()
	raw.Count = 1
	attrs = EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)
	assert.Equal(t, types.BodyAverage, attrs.BodyType)
	assert.Contains(t, attrs.Limitations, limitBodyDefault)
}

func TestAssembleEvidenceFallsBackToLocal(t *testing.T) {
	det := detectionWithPerson(0.82)
	det.ReferenceObjects = []types.DetectedBox{{Label: "chair"}, {Label: "tv"}, {Label: "chair"}}
	fx := unknownAngle()
	fx.AngleImpact = types.AngleImpact{Level: types.AngleHigh, Evidence: "角度影响：高（焦距约24mm）"}

	ev, missing := AssembleEvidence(det, fx, blankPerson(), nil)
	assert.Empty(t, missing)
	assert.Equal(t, "参照物：检测到 chair、tv（来自yolo检测）", ev.Reference)
	assert.True(t, strings.HasPrefix(ev.BodyVisibility, "全身：可见全身（"))
	assert.Equal(t, "角度影响：高（焦距约24mm）", ev.AngleImpact)
}

func TestAssembleEvidencePrefersAnalyzer(t *testing.T) {
	det := detectionWithPerson(0.82)
	det.ReferenceObjects = []types.DetectedBox{{Label: "chair"}}
	raw := blankPerson()
	raw.Evidence = types.PersonEvidence{Reference: "参照物：冰箱", BodyVisibility: "全身不可见", AngleImpact: "无"}

	ev, missing := AssembleEvidence(det, unknownAngle(), raw, nil)
	assert.Equal(t, "参照物：冰箱", ev.Reference)
	assert.True(t, strings.HasPrefix(ev.BodyVisibility, "全身：可见全身"))
	assert.Equal(t, []string{types.EvidenceAngleImpact}, missing)
}

func TestAssembleEvidenceFallsBackToAnalyzerObjects(t *testing.T) {
	objects := []string{"冰箱", "", "餐桌", "冰箱", "无", "门", "沙发", "电视", "台灯"}

	ev, missing := AssembleEvidence(emptyDetection(), unknownAngle(), blankPerson(), objects)
	assert.Equal(t, "参照物：模型识别到 冰箱、餐桌、门、沙发、电视", ev.Reference)
	assert.NotContains(t, missing, types.EvidenceReference)

	// local detection outranks the analyzer's object list
	det := detectionWithPerson(0.82)
	det.ReferenceObjects = []types.DetectedBox{{Label: "chair"}}
	ev, _ = AssembleEvidence(det, unknownAngle(), blankPerson(), objects)
	assert.Equal(t, "参照物：检测到 chair（来自yolo检测）", ev.Reference)

	_, missing = AssembleEvidence(emptyDetection(), unknownAngle(), blankPerson(), []string{"", "无"})
	assert.Contains(t, missing, types.EvidenceReference)
}

func TestCountResolution(t *testing.T) {
	raw := blankPerson()
	raw.Count = 3
	assert.Equal(t, 3, EvaluatePerson(detectionWithPerson(0.5), unknownAngle(), raw, nil).Count)

	det := detectionWithPerson(0.5)
	det.Persons = append(det.Persons, det.Persons[0])
	assert.Equal(t, 2, EvaluatePerson(det, unknownAngle(), blankPerson(), nil).Count)

	raw = blankPerson()
	raw.Detected = true
	assert.Equal(t, 1, EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil).Count)
}

func TestPartialFeaturesPassThrough(t *testing.T) {
	raw := blankPerson()
	raw.PartialFeatures = map[string]string{"hand": "手指修长"}
	attrs := EvaluatePerson(emptyDetection(), unknownAngle(), raw, nil)
	assert.Equal(t, map[string]string{"hand": "手指修长"}, attrs.PartialFeatures)

	attrs = EvaluatePerson(detectionWithPerson(0.9), unknownAngle(), blankPerson(), nil)
	assert.Nil(t, attrs.PartialFeatures)
}
