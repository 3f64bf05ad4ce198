// Package report assembles the final response from the local stage outputs
// and the remote analyzer outcome.
package report

import (
	"fmt"
	"strings"

	"github.com/menta2k/photo-verifier/pkg/gate"
	"github.com/menta2k/photo-verifier/pkg/types"
)

const (
	maxObjectLabels = 8
	unknownError    = "未知错误"
	unknownModel    = "unknown"
)

// Assemble builds the report for one image. When the analyzer failed the
// report is produced in degraded mode from the local outputs only.
func Assemble(imageID string, det types.DetectionResult, fx types.ForensicsResult, outcome types.AnalyzerOutcome) types.Report {
	payload := outcome.Payload
	person := gate.EvaluatePerson(det, fx, payload.Person, payload.Objects.Detected)

	var analysis types.Analysis
	if outcome.Success {
		analysis = types.Analysis{
			Lifestyle:    types.Section{Items: gate.LifestyleFindings(payload, det)},
			Details:      types.Section{Items: gate.DetailFindings(payload)},
			Intention:    types.Section{Items: gate.IntentionFindings(payload)},
			RoomAnalysis: gate.EvaluateRoom(payload),
		}
		web := payload.WebImageCheck
		analysis.WebImageCheck = &web
	} else {
		analysis = degraded(det, failureReason(outcome.Error))
	}
	analysis.Person = person
	analysis.Credibility = types.Section{Items: credibility(fx, outcome)}

	comments := []string{}
	if outcome.Success {
		comments = append(comments, payload.GirlfriendComments...)
	}

	model := outcome.Model
	if model == "" {
		model = unknownModel
	}
	engine := det.Engine
	if engine == "" {
		engine = unknownModel
	}

	return types.Report{
		ImageID:            imageID,
		Analysis:           analysis,
		GirlfriendComments: comments,
		Meta: types.Meta{
			Model:           model,
			ModelSuccess:    outcome.Success,
			Partial:         outcome.Partial,
			MissingFields:   outcome.MissingFields,
			Error:           outcome.Error,
			RawResponse:     outcome.RawResponse,
			LocalEngine:     engine,
			ForensicsFailed: fx.Failed,
			DetectionFailed: det.Failed,
		},
	}
}

func failureReason(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return unknownError
	}
	return msg
}

func credibility(fx types.ForensicsResult, outcome types.AnalyzerOutcome) []types.Finding {
	items := append([]types.Finding(nil), fx.Items...)
	if outcome.Success {
		if f, ok := gate.WebImageFinding(outcome.Payload.WebImageCheck); ok {
			items = append(items, f)
		}
	}
	if len(items) == 0 {
		items = append(items, types.InsufficientFinding())
	}
	return items
}

// degraded builds the conservative sections used when no analyzer output exists
func degraded(det types.DetectionResult, reason string) types.Analysis {
	var lifestyle types.Finding
	if labels := det.ObjectLabels(maxObjectLabels); len(labels) > 0 {
		lifestyle = types.NewFinding(
			"画面中检测到若干物体（仅作线索，AI分析暂不可用）",
			[]string{fmt.Sprintf("来自本地检测：检测到物体 %s（引擎：%s）", strings.Join(labels, "、"), det.Engine)},
			[]string{"AI 分析调用失败，仅使用本地检测结果"},
			types.ConfidenceLow,
		)
	} else {
		lifestyle = types.NewFinding(
			"无法判断生活方式线索",
			[]string{"来自流程：AI 分析暂不可用，本地检测未发现物体"},
			[]string{"请检查 API 配置后重试"},
			types.ConfidenceLow,
		)
	}

	return types.Analysis{
		Lifestyle: types.Section{Items: []types.Finding{lifestyle}},
		Details: types.Section{Items: []types.Finding{types.NewFinding(
			"细节分析暂不可用",
			[]string{"来自流程：模型调用失败"},
			[]string{reason},
			types.ConfidenceLow,
		)}},
		Intention: types.Section{Items: []types.Finding{types.NewFinding(
			"意图分析暂不可用",
			[]string{"来自流程：模型调用失败"},
			[]string{reason},
			types.ConfidenceLow,
		)}},
		RoomAnalysis: types.RoomFindings{
			InferredPeopleCount: "无法判断",
			RelationshipHint:    "无法判断",
			Evidence:            []string{"来自流程：模型调用失败，无法进行环境分析"},
			Clues:               map[string]string{},
			Limitations:         []string{reason},
			Confidence:          types.ConfidenceLow,
		},
	}
}
