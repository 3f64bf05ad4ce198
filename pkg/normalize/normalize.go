// Package normalize coerces the loosely-typed analyzer reply into the
// fixed payload schema. Every section is always filled and normalizing
// an already-normalized payload changes nothing.
package normalize

import (
	"github.com/menta2k/photo-verifier/pkg/types"
)

const (
	riskHigh          = "high"
	undetermined      = "无法判断"
	webRecommendation = "建议使用百度识图验证"
)

// Normalize converts a decoded reply, in compact or expanded shape, into an AnalyzerPayload
func Normalize(raw map[string]any) types.AnalyzerPayload {
	if raw == nil {
		raw = map[string]any{}
	}
	return types.AnalyzerPayload{
		Person:             person(decodeMap(raw["person"])),
		WebImageCheck:      webImageCheck(decodeMap(raw["web_image_check"])),
		Scene:              scene(decodeMap(raw["scene"])),
		Lifestyle:          lifestyle(decodeMap(raw["lifestyle"])),
		RoomAnalysis:       room(decodeMap(raw["room_analysis"])),
		Objects:            objects(raw["objects"]),
		Details:            details(decodeMap(raw["details"])),
		Intention:          intention(raw["intention"]),
		GirlfriendComments: decodeStringList(raw["girlfriend_comments"]),
	}
}

func person(m map[string]any) types.AnalyzerPerson {
	ge := decodeMap(m["gender_evidence"])
	ev := decodeMap(m["evidence"])
	return types.AnalyzerPerson{
		Detected: decodeBool(m["detected"]),
		Count:    decodeInt(m["count"]),
		Height:   orDefault(decodeString(m["height"]), types.HeightUndetermined),
		BodyType: orDefault(decodeString(m["body_type"]), types.BodyUndetermined),
		Posture:  orDefault(decodeString(m["posture"]), types.PostureUncertain),
		Gender:   orDefault(decodeString(m["gender"]), types.GenderUndetermined),
		GenderEvidence: types.GenderEvidence{
			Appearance:  decodeString(ge["appearance"]),
			Environment: decodeString(ge["environment"]),
			Consistency: decodeString(ge["consistency"]),
		},
		Evidence: types.PersonEvidence{
			Reference:      decodeString(ev[types.EvidenceReference]),
			BodyVisibility: decodeString(ev[types.EvidenceBodyVisibility]),
			AngleImpact:    decodeString(ev[types.EvidenceAngleImpact]),
		},
		PartialFeatures: decodeStringMap(m["partial_features"]),
		Confidence:      orDefault(decodeString(m["confidence"]), string(types.ConfidenceLow)),
	}
}

func webImageCheck(m map[string]any) types.WebImageCheck {
	risk := orDefault(decodeString(m["risk_level"]), undetermined)

	w := types.WebImageCheck{
		RiskLevel:         risk,
		IsLikelyWebImage:  risk == riskHigh,
		Watermark:         watermark(m),
		ScreenshotTraces:  screenshot(m),
		ProfessionalPhoto: professional(m),
	}

	if v, ok := m["conclusion"]; ok {
		w.Conclusion = decodeString(v)
	} else {
		w.Conclusion = "风险等级: " + risk
	}
	if v, ok := m["recommendation"]; ok {
		w.Recommendation = cleanText(decodeString(v))
	} else if risk == riskHigh {
		w.Recommendation = webRecommendation
	}
	return w
}

func watermark(m map[string]any) types.WatermarkCheck {
	if sub, ok := m["watermark"].(map[string]any); ok {
		evidence := cleanText(decodeString(sub["evidence"]))
		return types.WatermarkCheck{
			Detected: evidence != "",
			Platform: cleanText(decodeString(sub["platform"])),
			Evidence: evidence,
		}
	}
	text := cleanText(decodeString(m["watermark"]))
	return types.WatermarkCheck{Detected: text != "", Platform: text, Evidence: text}
}

func screenshot(m map[string]any) types.ScreenshotCheck {
	if sub, ok := m["screenshot_traces"].(map[string]any); ok {
		evidence := cleanText(decodeString(sub["evidence"]))
		return types.ScreenshotCheck{
			Detected: evidence != "",
			Type:     orDefault(decodeString(sub["type"]), "无"),
			Evidence: evidence,
		}
	}
	text := cleanText(decodeString(m["screenshot"]))
	return types.ScreenshotCheck{Detected: text != "", Type: orDefault(text, "无"), Evidence: text}
}

func professional(m map[string]any) types.ProfessionalCheck {
	if sub, ok := m["professional_photo"].(map[string]any); ok {
		evidence := cleanText(decodeString(sub["evidence"]))
		features := decodeStringList(sub["features"])
		return types.ProfessionalCheck{
			Detected: evidence != "" || len(features) > 0,
			Features: features,
			Evidence: evidence,
		}
	}
	text := cleanText(decodeString(m["professional"]))
	p := types.ProfessionalCheck{Detected: text != "", Features: []string{}, Evidence: text}
	if text != "" {
		p.Features = []string{text}
	}
	return p
}

func scene(m map[string]any) types.Scene {
	env := firstString(m, "environment", "desc")
	s := types.Scene{
		LocationType: orDefault(firstString(m, "location_type", "location"), undetermined),
		Environment:  env,
		Confidence:   orDefault(decodeString(m["confidence"]), string(types.ConfidenceMedium)),
	}
	if v, ok := m["evidence"]; ok {
		s.Evidence = decodeStringList(v)
	} else {
		s.Evidence = decodeStringList(env)
	}
	return s
}

func lifestyle(m map[string]any) types.Lifestyle {
	level := orDefault(firstString(m, "consumption_level", "level"), undetermined)

	var brands []string
	if v, ok := m["brands"]; ok {
		brands = decodeStringList(v)
	} else {
		brands = flattenLists(decodeMap(m["brands_detected"]),
			"clothing", "accessories", "electronics", "skincare", "other")
	}

	return types.Lifestyle{
		Claim:            orDefault(decodeString(m["claim"]), "消费水平: "+level),
		ConsumptionLevel: level,
		Brands:           brands,
		Evidence:         decodeStringList(m["evidence"]),
		Limitations:      decodeStringList(m["limitations"]),
		Confidence:       orDefault(decodeString(m["confidence"]), string(types.ConfidenceLow)),
	}
}

func room(m map[string]any) types.RoomAnalysis {
	return types.RoomAnalysis{
		InferredPeopleCount: orDefault(firstString(m, "inferred_people_count", "people"), undetermined),
		RelationshipHint:    orDefault(firstString(m, "relationship_hint", "relation"), undetermined),
		Evidence:            decodeStringList(m["evidence"]),
		Clues:               decodeStringMap(m["clues"]),
		Limitations:         decodeStringList(m["limitations"]),
		Confidence:          orDefault(decodeString(m["confidence"]), string(types.ConfidenceLow)),
	}
}

func objects(v any) types.Objects {
	if m, ok := v.(map[string]any); ok {
		return types.Objects{
			Detected: decodeStringList(m["detected"]),
			Brands:   decodeStringList(m["brands"]),
			Evidence: decodeStringList(m["evidence"]),
		}
	}
	return types.Objects{
		Detected: decodeStringList(v),
		Brands:   []string{},
		Evidence: []string{},
	}
}

func details(m map[string]any) types.Details {
	textV, _ := firstPresent(m, "text_detected", "text")
	specialV, _ := firstPresent(m, "special_elements", "special")
	text := decodeStringList(textV)

	d := types.Details{
		TextDetected:    text,
		TextType:        decodeString(m["text_type"]),
		SpecialElements: decodeStringList(specialV),
		Evidence:        decodeStringList(m["evidence"]),
	}
	if d.TextType == "" {
		d.TextType = "无文字"
		if len(text) > 0 {
			d.TextType = "混合"
		}
	}
	return d
}

func intention(v any) types.Intention {
	if m, ok := v.(map[string]any); ok {
		return types.Intention{
			Claim:      firstString(m, "claim", "intention"),
			Evidence:   decodeStringList(m["evidence"]),
			Confidence: orDefault(decodeString(m["confidence"]), string(types.ConfidenceLow)),
		}
	}
	return types.Intention{
		Claim:      decodeString(v),
		Evidence:   []string{},
		Confidence: string(types.ConfidenceLow),
	}
}
