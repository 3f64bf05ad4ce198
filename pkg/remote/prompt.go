package remote

import (
	"encoding/json"
	"fmt"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// LocalDetection is the detector summary passed to the model
type LocalDetection struct {
	Engine           string   `json:"engine"`
	PersonCount      int      `json:"person_count"`
	ReferenceObjects []string `json:"reference_objects"`
}

// AuxContext is the auxiliary context sent alongside the image
type AuxContext struct {
	LocalDetection LocalDetection    `json:"local_detection"`
	Exif           types.ExifData    `json:"exif"`
	BlurScore      float64           `json:"blur_score"`
	AngleImpact    types.AngleImpact `json:"angle_impact"`
}

// NewAuxContext builds the auxiliary context from the local stages
func NewAuxContext(det types.DetectionResult, fx types.ForensicsResult) AuxContext {
	exif := fx.Exif
	exif.RawTags = nil
	return AuxContext{
		LocalDetection: LocalDetection{
			Engine:           det.Engine,
			PersonCount:      len(det.Persons),
			ReferenceObjects: det.ReferenceLabels(),
		},
		Exif:        exif,
		BlurScore:   fx.BlurScore,
		AngleImpact: fx.AngleImpact,
	}
}

func perspectiveWords(p types.Perspective) (target, opposite string) {
	if p == types.PerspectiveGirlfriend {
		return "女朋友", "男性用品"
	}
	return "男朋友", "女性用品"
}

// SystemPrompt returns the instruction prompt for the given perspective
func SystemPrompt(p types.Perspective) string {
	target, opposite := perspectiveWords(p)
	return fmt.Sprintf(systemPromptTemplate, target, opposite)
}

const userPrompt = "请仔细分析这张照片，严格按照上述JSON格式输出完整结果。必须包含所有字段，不能省略。"

// UserPrompt returns the user turn text with the auxiliary context appended
func UserPrompt(aux *AuxContext) string {
	if aux == nil {
		return userPrompt
	}
	data, err := json.Marshal(aux)
	if err != nil {
		return userPrompt
	}
	return userPrompt + "\n辅助信息：" + string(data)
}

const systemPromptTemplate = `你是一个专业的照片分析AI。请分析「%s」发的照片，特别关注%s相关的线索。

**重要：你必须严格按照以下JSON格式输出，不能省略任何字段，所有字段都必须有值。**

输出完整JSON：
{
  "person": {
    "detected": true,
    "count": 1,
    "height": "偏高/中等/偏矮/无法判断",
    "body_type": "偏瘦/匀称/偏壮/无法判断",
    "posture": "挺拔/放松/含胸/不确定",
    "gender": "男性/女性/无法判断",
    "gender_evidence": {
      "appearance": "外观线索描述",
      "environment": "环境线索描述",
      "consistency": "线索一致性说明"
    },
    "evidence": {
      "reference": "参照物描述",
      "body_visibility": "全身可见性描述",
      "angle_impact": "角度影响说明"
    },
    "partial_features": {
      "hand": "手部特征",
      "arm": "手臂特征",
      "face": "脸部特征",
      "neck_shoulder": "颈肩特征",
      "body": "身体特征",
      "body_type_clue": "体型综合判断"
    },
    "confidence": "high/medium/low"
  },
  "web_image_check": {
    "risk_level": "high/medium/low",
    "watermark": "水印描述或null",
    "screenshot": "截图痕迹或null",
    "professional": "专业摄影特征或null"
  },
  "scene": {
    "location": "室内/室外",
    "desc": "详细环境描述"
  },
  "lifestyle": {
    "level": "高/中/大众/无法判断",
    "brands": ["品牌列表"]
  },
  "room_analysis": {
    "people": "1/2/无法判断",
    "relation": "独居/情侣/无法判断",
    "evidence": "详细依据"
  },
  "objects": ["检测到的物体列表"],
  "details": {
    "text": ["识别到的文字列表"],
    "special": ["特殊元素列表"]
  },
  "intention": "照片用途详细说明",
  "girlfriend_comments": ["可疑点吐槽列表"]
}

规则：
1. 水印/截图/专业摄影是网图高风险线索
2. 看到人体任何部位就给体型判断，默认匀称
3. girlfriend_comments用口语化吐槽
4. 无依据输出"无法判断"
5. 必须输出完整的JSON，包含所有字段
6. 只输出JSON，不要任何其他文字
7. 辅助信息来自本地检测和EXIF，可作为参照但以画面为准`
