package gate

import (
	"fmt"
	"strings"

	"github.com/menta2k/photo-verifier/pkg/brands"
	"github.com/menta2k/photo-verifier/pkg/types"
)

const (
	maxObjectLabels = 8
	maxTextItems    = 5

	notApplicable    = "不适用"
	undetermined     = "无法判断"
	noClue           = "未见相关线索"
	limitRoomDefault = "环境推断存在较大不确定性，仅供参考"
)

// roomClueKeys are the indoor clue slots reported for room analysis
var roomClueKeys = []string{"tableware", "seating", "personal_items", "decoration", "space_layout"}

var (
	outdoorMarkers = []string{"室外", "户外", "outdoor"}
	indoorMarkers  = []string{"室内", "indoor"}
)

func join(items []string) string { return strings.Join(items, "、") }

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// LifestyleFindings fuses analyzer lifestyle, scene, object and brand clues
// with the local detector's objects
func LifestyleFindings(p types.AnalyzerPayload, det types.DetectionResult) []types.Finding {
	var items []types.Finding

	ls := p.Lifestyle
	switch {
	case ls.Claim != "" && len(ls.Evidence) > 0:
		limits := ls.Limitations
		if len(limits) == 0 {
			limits = []string{"AI分析存在不确定性"}
		}
		items = append(items, types.NewFinding(ls.Claim, ls.Evidence, limits, types.ParseConfidence(ls.Confidence)))
	case ls.ConsumptionLevel != "" && ls.ConsumptionLevel != undetermined && len(ls.Brands) > 0:
		items = append(items, types.NewFinding(
			"消费水平: "+ls.ConsumptionLevel,
			[]string{"来自画面：识别到品牌 " + join(ls.Brands)},
			[]string{"消费水平仅依据可见品牌推断"},
			types.ConfidenceLow,
		))
	}

	if sc := p.Scene; sc.LocationType != "" && len(sc.Evidence) > 0 {
		env := sc.Environment
		if env == "" {
			env = "环境特征不明"
		}
		items = append(items, types.NewFinding(
			fmt.Sprintf("场景判断：%s，%s", sc.LocationType, env),
			sc.Evidence,
			[]string{"场景判断基于视觉特征，可能存在误判"},
			types.ParseConfidence(sc.Confidence),
		))
	}

	if objs := p.Objects; len(objs.Detected) > 0 {
		claim := "画面中检测到物体：" + join(firstN(objs.Detected, maxObjectLabels))
		if len(objs.Brands) > 0 {
			claim += "，识别到品牌：" + join(objs.Brands)
		}
		evidence := objs.Evidence
		if len(evidence) == 0 {
			evidence = []string{"来自画面：AI 检测到物体"}
		}
		items = append(items, types.NewFinding(claim, evidence, []string{"物体识别可能存在误检/漏检"}, types.ConfidenceLow))
	}

	if f, ok := brandFinding(append(append([]string{}, ls.Brands...), p.Objects.Brands...)); ok {
		items = append(items, f)
	}

	if len(det.Objects) > 0 {
		items = append(items, types.NewFinding(
			"本地检测补充：检测到物体 "+join(det.ObjectLabels(maxObjectLabels)),
			[]string{fmt.Sprintf("来自本地检测（引擎：%s）：物体检测结果", det.Engine)},
			[]string{"本地检测作为辅助参考"},
			types.ConfidenceLow,
		))
	}

	if len(items) == 0 {
		items = append(items, types.NewFinding(
			"无法判断具体生活方式线索（缺少可引用物体/场景依据）",
			[]string{"来自流程：未能从画面中提取有效生活方式线索"},
			[]string{"需要更多画面细节支撑"},
			types.ConfidenceLow,
		))
	}
	return items
}

func brandFinding(names []string) (types.Finding, bool) {
	matches := brands.Classify(names)
	if len(matches) == 0 {
		return types.Finding{}, false
	}
	tiers := make([]string, 0, len(matches))
	found := make([]string, 0, len(matches))
	for _, m := range matches {
		tiers = append(tiers, fmt.Sprintf("%s（%s）", m.Brand, m.Tier))
		found = append(found, m.Brand)
	}
	return types.NewFinding(
		"品牌档位："+join(tiers),
		[]string{"来自画面：AI 识别到品牌 " + join(found)},
		[]string{"品牌档位来自静态对照表，仅供参考", "品牌识别可能存在误判或仿品"},
		types.ConfidenceLow,
	), true
}

// DetailFindings reports recognized text and special elements
func DetailFindings(p types.AnalyzerPayload) []types.Finding {
	var items []types.Finding
	d := p.Details

	if len(d.TextDetected) > 0 {
		items = append(items, types.NewFinding(
			"画面中识别到文字："+join(firstN(d.TextDetected, maxTextItems)),
			[]string{"来自画面：AI 文字识别结果"},
			[]string{"文字识别可能存在误读"},
			types.ConfidenceMedium,
		))
	}

	if len(d.SpecialElements) > 0 {
		evidence := d.Evidence
		if len(evidence) == 0 {
			evidence = []string{"来自画面：特殊元素分析"}
		}
		items = append(items, types.NewFinding(
			"检测到特殊元素："+join(d.SpecialElements),
			evidence,
			[]string{"特殊元素判断存在主观性"},
			types.ConfidenceLow,
		))
	}

	if len(items) == 0 {
		items = append(items, types.NewFinding(
			"未检测到显著文字/特殊元素（或识别置信度过低）",
			[]string{"来自流程：AI 未返回有效细节信息"},
			[]string{"可接入专业 OCR 增强文字识别能力"},
			types.ConfidenceLow,
		))
	}
	return items
}

// IntentionFindings emits the analyzer's intention only when it cites evidence
func IntentionFindings(p types.AnalyzerPayload) []types.Finding {
	in := p.Intention
	if in.Claim != "" && len(in.Evidence) > 0 {
		return []types.Finding{types.NewFinding(
			in.Claim,
			in.Evidence,
			[]string{"照片意图判断存在较大不确定性，仅供参考"},
			types.ParseConfidence(in.Confidence),
		)}
	}
	return []types.Finding{types.NewFinding(
		"照片用途倾向暂无法稳定判断（展示/记录/正式用途均可能）",
		[]string{"来自流程：缺少足够的构图/语义线索支撑意图判断"},
		[]string{"需要构图特征+文字+场景识别联合判断"},
		types.ConfidenceLow,
	)}
}

// IsOutdoor reports whether the scene classification carries an outdoor
// marker, in the location type or else in the environment description.
// A location type that names an indoor place is decisive.
func IsOutdoor(scene types.Scene) bool {
	loc := strings.ToLower(scene.LocationType)
	if containsAny(loc, outdoorMarkers) {
		return true
	}
	if containsAny(loc, indoorMarkers) {
		return false
	}
	return containsAny(strings.ToLower(scene.Environment), outdoorMarkers)
}

// EvaluateRoom gates the room and relationship inference. Outdoor scenes
// are not applicable and are decided before any evidence check.
func EvaluateRoom(p types.AnalyzerPayload) types.RoomFindings {
	if IsOutdoor(p.Scene) {
		clues := make(map[string]string, len(roomClueKeys))
		for _, k := range roomClueKeys {
			clues[k] = notApplicable
		}
		return types.RoomFindings{
			InferredPeopleCount: notApplicable,
			RelationshipHint:    notApplicable,
			Evidence:            []string{fmt.Sprintf("来自场景：画面为%s场景，室内人数/关系线索不适用", p.Scene.LocationType)},
			Clues:               clues,
			Limitations:         []string{"室外场景不进行室内环境推断"},
			Confidence:          types.ConfidenceLow,
		}
	}

	room := p.RoomAnalysis
	clues := defaultClues()
	for k, v := range room.Clues {
		clues[k] = v
	}
	limits := room.Limitations
	if len(limits) == 0 {
		limits = []string{limitRoomDefault}
	}

	if !hasRoomEvidence(room.Evidence) {
		evidence := room.Evidence
		if len(evidence) == 0 {
			evidence = []string{"来自环境：未检测到可用于推断人数/关系的线索"}
		}
		return types.RoomFindings{
			InferredPeopleCount: undetermined,
			RelationshipHint:    undetermined,
			Evidence:            append([]string(nil), evidence...),
			Clues:               clues,
			Limitations:         append([]string(nil), limits...),
			Confidence:          types.ConfidenceLow,
		}
	}

	return types.RoomFindings{
		InferredPeopleCount: orUndetermined(room.InferredPeopleCount),
		RelationshipHint:    orUndetermined(room.RelationshipHint),
		Evidence:            append([]string(nil), room.Evidence...),
		Clues:               clues,
		Limitations:         append([]string(nil), limits...),
		Confidence:          types.ParseConfidence(room.Confidence),
	}
}

// hasRoomEvidence is false when evidence is empty or every item is a non-observation
func hasRoomEvidence(evidence []string) bool {
	for _, e := range evidence {
		if !strings.Contains(e, "未见") && !strings.Contains(e, "无法") {
			return true
		}
	}
	return false
}

func defaultClues() map[string]string {
	clues := make(map[string]string, len(roomClueKeys))
	for _, k := range roomClueKeys {
		clues[k] = noClue
	}
	return clues
}

func orUndetermined(s string) string {
	if strings.TrimSpace(s) == "" {
		return undetermined
	}
	return s
}

// WebImageFinding surfaces a medium or high web-image risk as a credibility finding
func WebImageFinding(w types.WebImageCheck) (types.Finding, bool) {
	if w.RiskLevel != "high" && w.RiskLevel != "medium" {
		return types.Finding{}, false
	}

	var evidence []string
	if w.Watermark.Evidence != "" {
		evidence = append(evidence, "水印："+w.Watermark.Evidence)
	}
	if w.ScreenshotTraces.Evidence != "" {
		evidence = append(evidence, "截图痕迹："+w.ScreenshotTraces.Evidence)
	}
	if w.ProfessionalPhoto.Evidence != "" {
		evidence = append(evidence, "专业摄影特征："+w.ProfessionalPhoto.Evidence)
	}
	if len(evidence) == 0 {
		return types.Finding{}, false
	}

	limits := []string{"网图判断基于视觉线索，可能误判"}
	if w.Recommendation != "" {
		limits = append(limits, w.Recommendation)
	}
	conf := types.ConfidenceLow
	if w.RiskLevel == "high" {
		conf = types.ConfidenceMedium
	}
	return types.NewFinding(
		fmt.Sprintf("疑似网络图片（风险等级：%s）", w.RiskLevel),
		evidence,
		limits,
		conf,
	), true
}
