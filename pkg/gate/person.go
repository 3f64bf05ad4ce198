// Package gate decides which claims may be shown and downgrades the rest.
// Every function here is pure: the same inputs give the same report content.
package gate

import (
	"fmt"
	"strings"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// maxReferenceLabels caps the local reference objects cited as evidence
const maxReferenceLabels = 5

// Defaults written into evidence keys that no source could fill
var evidenceDefaults = map[string]string{
	types.EvidenceReference:      "参照物：未检测到（信息不足，无法进行身高/体型推断）",
	types.EvidenceBodyVisibility: "全身：不可见或无法判断（信息不足）",
	types.EvidenceAngleImpact:    "角度影响：未知（缺少焦距信息，无法评估透视影响）",
}

const limitGeneric = "人物体征估计受拍摄角度、参照物等因素影响，仅供参考"

// PersonPresent is the permissive OR over every person signal
func PersonPresent(det types.DetectionResult, raw types.AnalyzerPerson) bool {
	return len(det.Persons) > 0 ||
		raw.Detected ||
		raw.Count > 0 ||
		hasPartialFeature(raw.PartialFeatures) ||
		visible(raw.Evidence.BodyVisibility) ||
		determinateBodyType(raw.BodyType)
}

func hasPartialFeature(features map[string]string) bool {
	for _, v := range features {
		if strings.TrimSpace(v) != "" && !strings.Contains(v, "未见") && !strings.Contains(v, "N/A") {
			return true
		}
	}
	return false
}

func determinateBodyType(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.Contains(v, "无法")
}

// NoPerson is the terminal record used when no signal reports a person
func NoPerson() types.PersonAttributes {
	return types.PersonAttributes{
		Detected: false,
		Count:    0,
		Gender:   types.GenderUndetermined,
		GenderEvidence: types.GenderEvidence{
			Appearance:  "外观线索：N/A（未检测到人物）",
			Environment: "环境线索：N/A",
			Consistency: "线索一致性：N/A",
		},
		Height:   types.HeightUndetermined,
		BodyType: types.BodyUndetermined,
		Posture:  types.PostureUncertain,
		Evidence: types.PersonEvidence{
			Reference:      "参照物：N/A（未检测到人物）",
			BodyVisibility: "全身：不可见（未检测到人物）",
			AngleImpact:    "角度影响：N/A（未检测到人物）",
		},
		EvidenceList: []string{"来自检测：当前画面未检测到人物"},
		Limitations:  []string{"无人物，无法进行体征分析"},
		Confidence:   types.ConfidenceLow,
	}
}

// AssembleEvidence merges analyzer and local evidence into the three-key
// record. objects is the analyzer's scene object list, the last source for
// the reference slot. missing lists the keys no source could fill, computed
// before the defaults are written.
func AssembleEvidence(det types.DetectionResult, fx types.ForensicsResult, raw types.AnalyzerPerson, objects []string) (types.PersonEvidence, []string) {
	var ev types.PersonEvidence

	switch {
	case informative(raw.Evidence.Reference):
		ev.Reference = raw.Evidence.Reference
	case len(det.ReferenceObjects) > 0:
		labels := uniqueFirst(det.ReferenceLabels(), maxReferenceLabels)
		ev.Reference = fmt.Sprintf("参照物：检测到 %s（来自%s检测）", strings.Join(labels, "、"), det.Engine)
	default:
		if names := uniqueFirst(informativeOnly(objects), maxReferenceLabels); len(names) > 0 {
			ev.Reference = fmt.Sprintf("参照物：模型识别到 %s", strings.Join(names, "、"))
		}
	}

	switch {
	case informative(raw.Evidence.BodyVisibility) && !strings.Contains(raw.Evidence.BodyVisibility, "不可见"):
		ev.BodyVisibility = raw.Evidence.BodyVisibility
	case len(det.Persons) > 0:
		v := det.PersonVisibility
		if v.Detail != "" {
			ev.BodyVisibility = fmt.Sprintf("全身：%s（%s）", v.Tier, v.Detail)
		} else {
			ev.BodyVisibility = "全身：" + v.Tier
		}
	}

	switch {
	case informative(raw.Evidence.AngleImpact):
		ev.AngleImpact = raw.Evidence.AngleImpact
	case fx.AngleImpact.Level != "" && fx.AngleImpact.Level != types.AngleUnknown:
		ev.AngleImpact = fx.AngleImpact.Evidence
	}

	missing := []string{}
	for _, key := range types.EvidenceKeys {
		if ev.Get(key) == "" {
			missing = append(missing, key)
			ev.Set(key, evidenceDefaults[key])
		}
	}
	return ev, missing
}

// EvaluatePerson runs the full person gate over the three sources
func EvaluatePerson(det types.DetectionResult, fx types.ForensicsResult, raw types.AnalyzerPerson, objects []string) types.PersonAttributes {
	if !PersonPresent(det, raw) {
		return NoPerson()
	}

	evidence, missing := AssembleEvidence(det, fx, raw, objects)
	gatePassed := len(missing) == 0
	var limitations []string

	height, posture, confidence := types.HeightUndetermined, types.PostureUncertain, types.ConfidenceLow
	if gatePassed {
		height = NormalizeHeight(raw.Height)
		posture = NormalizePosture(raw.Posture)
		confidence = types.ParseConfidence(raw.Confidence)
	} else {
		names := make([]string, 0, len(missing))
		for _, k := range missing {
			names = append(names, types.EvidenceDisplayName[k])
		}
		limitations = append(limitations, fmt.Sprintf("evidence 缺少：%s，身高/姿态判断降级", strings.Join(names, "、")))
	}

	bodyVisible := visible(raw.Evidence.BodyVisibility) ||
		(len(det.Persons) > 0 && det.PersonVisibility.Tier != types.VisibilityNotVisible)
	bodyType, bodyLimit := resolveBodyType(raw, bodyVisible)
	if bodyLimit != "" {
		limitations = append(limitations, bodyLimit)
	}

	gender, genderEvidence := resolveGender(raw)

	if len(limitations) == 0 {
		limitations = []string{limitGeneric}
	}

	count := raw.Count
	if count <= 0 {
		count = len(det.Persons)
	}
	if count <= 0 {
		count = 1
	}

	var features map[string]string
	if len(raw.PartialFeatures) > 0 {
		features = make(map[string]string, len(raw.PartialFeatures))
		for k, v := range raw.PartialFeatures {
			features[k] = v
		}
	}

	return types.PersonAttributes{
		Detected:        true,
		Count:           count,
		Gender:          gender,
		GenderEvidence:  genderEvidence,
		Height:          height,
		BodyType:        bodyType,
		Posture:         posture,
		PartialFeatures: features,
		Evidence:        evidence,
		EvidenceList:    evidence.List(),
		Limitations:     limitations,
		Confidence:      confidence,
	}
}

func informativeOnly(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if informative(s) {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func uniqueFirst(labels []string, limit int) []string {
	seen := map[string]bool{}
	out := make([]string, 0, limit)
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out
}
