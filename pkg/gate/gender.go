package gate

import (
	"strings"

	"github.com/menta2k/photo-verifier/pkg/types"
)

const (
	genderNoEvidence    = "缺少性别判断证据"
	genderNoClue        = "外观线索和环境线索均不足"
	genderContradiction = "多个线索指向不一致"
)

// CheckGenderEvidence applies the two-source corroboration rule.
// It returns an empty reason when the evidence is sufficient.
func CheckGenderEvidence(ev types.GenderEvidence) (bool, string) {
	if ev.IsZero() {
		return false, genderNoEvidence
	}
	if !informative(ev.Appearance) && !informative(ev.Environment) {
		return false, genderNoClue
	}
	if strings.Contains(ev.Consistency, "矛盾") || strings.Contains(ev.Consistency, "不一致") {
		return false, genderContradiction
	}
	return true, ""
}

// resolveGender returns the gated gender and the evidence record to report
func resolveGender(raw types.AnalyzerPerson) (string, types.GenderEvidence) {
	ok, reason := CheckGenderEvidence(raw.GenderEvidence)
	if ok {
		return NormalizeGender(raw.Gender), raw.GenderEvidence
	}
	if !raw.GenderEvidence.IsZero() {
		return types.GenderUndetermined, raw.GenderEvidence
	}
	return types.GenderUndetermined, types.GenderEvidence{
		Appearance:  "外观线索：未提供有效线索",
		Environment: "环境线索：未提供有效线索",
		Consistency: "线索一致性：" + reason,
	}
}
