package gate

import (
	"strings"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// Body regions whose descriptions may be used to infer body type
var featureRegions = []string{"hand", "arm", "face", "neck_shoulder", "body"}

const bodyTypeClueKey = "body_type_clue"

// Keyword tables for partial-feature descriptions
var (
	featureSlenderWords = []string{
		"纤细", "修长", "瘦削", "骨骼", "线条分明", "瘦", "细",
		"锁骨明显", "锁骨", "骨感", "瘦小", "苗条", "纤弱",
		"手指修长", "手腕细", "胳膊细", "身材细小",
		"细瘦", "消瘦", "窄窄", "瘦弱", "单薄",
	}
	featureHeavyWords = []string{
		"圆润", "有肉", "粗", "壮", "胖", "丰满", "赘肉",
		"肌肉", "结实", "厚实", "健壮", "粗壮", "高大",
		"手指短粗", "手腕粗", "胳膊粗", "双下巴",
		"腹部", "小腹", "圆脸", "肉感", "宽厚",
	}
	featureAverageWords = []string{"匀称", "正常", "适中", "标准", "中等", "健康"}
)

// Buckets in priority order; the first bucket with any matching word wins
var featureBuckets = []struct {
	value string
	words []string
}{
	{types.BodySlender, featureSlenderWords},
	{types.BodyHeavy, featureHeavyWords},
	{types.BodyAverage, featureAverageWords},
}

// Limitation notes for each degraded body-type basis
const (
	limitBodyFromFeatures   = "体型基于局部特征推断，仅供参考"
	limitBodyFromVisibility = "体型无明显胖瘦特征，默认为匀称"
	limitBodyDefault        = "体型无足够线索，默认为匀称"
)

// BodyTypeFromFeatures infers a body type from partial body-region
// descriptions. ok is false when no region carries a usable description.
func BodyTypeFromFeatures(features map[string]string) (string, bool) {
	var valid []string
	for _, region := range featureRegions {
		v := features[region]
		if v != "" && !containsAny(v, []string{"未见", "无法", "N/A", "不可见"}) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return types.BodyUndetermined, false
	}

	if clue := features[bodyTypeClueKey]; clue != "" && !strings.Contains(clue, "无法") && !strings.Contains(clue, "不确定") {
		if bt := NormalizeBodyType(clue); bt != types.BodyUndetermined {
			return bt, true
		}
	}

	text := strings.Join(valid, " ")
	for _, b := range featureBuckets {
		if containsAny(text, b.words) {
			return b.value, true
		}
	}
	return types.BodyAverage, true
}

// resolveBodyType runs the body-type fallback chain for a present person.
// The result is never undetermined; each degraded step adds a limitation.
func resolveBodyType(raw types.AnalyzerPerson, bodyVisible bool) (string, string) {
	if bt := NormalizeBodyType(raw.BodyType); bt != types.BodyUndetermined {
		return bt, ""
	}
	if bt, ok := BodyTypeFromFeatures(raw.PartialFeatures); ok && bt != types.BodyUndetermined {
		return bt, limitBodyFromFeatures
	}
	if bodyVisible {
		return types.BodyAverage, limitBodyFromVisibility
	}
	return types.BodyAverage, limitBodyDefault
}
