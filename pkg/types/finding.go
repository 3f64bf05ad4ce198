package types

// Confidence is the coarse confidence attached to every claim
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence maps free text onto a Confidence, defaulting to low
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	}
	return ConfidenceLow
}

// Canonical text used when a claim has nothing to cite
const (
	InsufficientClaim    = "无法判断（缺少可引用的画面依据）"
	InsufficientEvidence = "证据缺失：未提供可指向画面元素/文字/构图/参照物的依据"
	InsufficientLimit    = "信息不足"
)

// Finding is a single claim with the evidence that supports it.
// Evidence is never empty; use NewFinding to build one.
type Finding struct {
	Claim       string     `json:"claim"`
	Evidence    []string   `json:"evidence"`
	Limitations []string   `json:"limitations"`
	Confidence  Confidence `json:"confidence"`
}

// NewFinding builds a Finding, replacing it with the canonical
// insufficient-evidence finding when evidence is empty.
func NewFinding(claim string, evidence, limitations []string, confidence Confidence) Finding {
	evidence = nonBlank(evidence)
	if len(evidence) == 0 {
		return InsufficientFinding()
	}
	if limitations == nil {
		limitations = []string{}
	}
	if confidence == "" {
		confidence = ConfidenceLow
	}
	return Finding{
		Claim:       claim,
		Evidence:    evidence,
		Limitations: append([]string(nil), limitations...),
		Confidence:  confidence,
	}
}

// InsufficientFinding is the canonical finding for a claim without evidence
func InsufficientFinding() Finding {
	return Finding{
		Claim:       InsufficientClaim,
		Evidence:    []string{InsufficientEvidence},
		Limitations: []string{InsufficientLimit},
		Confidence:  ConfidenceLow,
	}
}

// Section groups the findings of one report category
type Section struct {
	Items []Finding `json:"items"`
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
