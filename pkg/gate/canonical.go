package gate

import (
	"strings"

	"github.com/menta2k/photo-verifier/pkg/types"
)

var (
	validHeight  = set(types.HeightTall, types.HeightAverage, types.HeightShort, types.HeightUndetermined)
	validBody    = set(types.BodySlender, types.BodyAverage, types.BodyHeavy, types.BodyUndetermined)
	validPosture = set(types.PostureUpright, types.PostureRelaxed, types.PostureHunched, types.PostureUncertain)
	validGender  = set(types.GenderMale, types.GenderFemale, types.GenderUndetermined)
)

// Body-type keywords for holistic descriptions, most specific bucket first
var (
	bodySlenderWords = []string{"瘦", "纤细", "苗条", "消瘦", "单薄", "骨感", "瘦弱", "瘦小", "修长"}
	bodyHeavyWords   = []string{"壮", "胖", "丰满", "结实", "健壮", "圆润", "有肉", "赘肉", "粗壮", "高大", "厚实", "肉感"}
	bodyAverageWords = []string{"匀称", "正常", "适中", "标准", "中等", "健康", "普通", "一般", "平均"}
)

// NormalizeHeight maps free text to a canonical height value
func NormalizeHeight(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return types.HeightUndetermined
	case validHeight[v]:
		return v
	case strings.Contains(v, "高") && !strings.Contains(v, "偏"):
		return types.HeightTall
	case strings.Contains(v, "矮"):
		return types.HeightShort
	case strings.Contains(v, "中"):
		return types.HeightAverage
	}
	return types.HeightUndetermined
}

// NormalizeBodyType maps free text to a canonical body type
func NormalizeBodyType(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return types.BodyUndetermined
	case validBody[v]:
		return v
	case containsAny(v, bodySlenderWords):
		return types.BodySlender
	case containsAny(v, bodyHeavyWords):
		return types.BodyHeavy
	case containsAny(v, bodyAverageWords):
		return types.BodyAverage
	}
	return types.BodyUndetermined
}

// NormalizePosture maps free text to a canonical posture
func NormalizePosture(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return types.PostureUncertain
	case validPosture[v]:
		return v
	case strings.Contains(v, "挺"):
		return types.PostureUpright
	case strings.Contains(v, "放松"), strings.Contains(v, "松弛"):
		return types.PostureRelaxed
	case strings.Contains(v, "含胸"), strings.Contains(v, "驼背"):
		return types.PostureHunched
	}
	return types.PostureUncertain
}

// NormalizeGender maps free text to a canonical gender
func NormalizeGender(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return types.GenderUndetermined
	case validGender[v]:
		return v
	case strings.Contains(v, "男"):
		return types.GenderMale
	case strings.Contains(v, "女"):
		return types.GenderFemale
	}
	return types.GenderUndetermined
}

// uninformative marks text that states the absence of a clue
var uninformative = []string{"未见", "无法", "N/A", "未检测到", "未知", "无明显"}

// informative reports whether s carries an actual observation
func informative(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "无", "null", "none":
		return false
	}
	return !containsAny(s, uninformative)
}

// visible reports whether a body-visibility text states the body is visible
func visible(s string) bool {
	return strings.Contains(s, "可见") && !strings.Contains(s, "不可见")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
