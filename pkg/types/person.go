package types

// Canonical attribute values
const (
	HeightTall         = "偏高"
	HeightAverage      = "中等"
	HeightShort        = "偏矮"
	HeightUndetermined = "无法判断"

	BodySlender      = "偏瘦"
	BodyAverage      = "匀称"
	BodyHeavy        = "偏壮"
	BodyUndetermined = "无法判断"

	PostureUpright   = "挺拔"
	PostureRelaxed   = "放松"
	PostureHunched   = "含胸"
	PostureUncertain = "不确定"

	GenderMale         = "男性"
	GenderFemale       = "女性"
	GenderUndetermined = "无法判断"
)

// Evidence record keys and their display names
const (
	EvidenceReference      = "reference"
	EvidenceBodyVisibility = "body_visibility"
	EvidenceAngleImpact    = "angle_impact"
)

// EvidenceKeys lists the evidence record keys in display order
var EvidenceKeys = []string{EvidenceReference, EvidenceBodyVisibility, EvidenceAngleImpact}

// EvidenceDisplayName maps an evidence key to the name used in limitation notes
var EvidenceDisplayName = map[string]string{
	EvidenceReference:      "参照物",
	EvidenceBodyVisibility: "全身",
	EvidenceAngleImpact:    "角度影响",
}

// GenderEvidence is the two-source corroboration record for gender
type GenderEvidence struct {
	Appearance  string `json:"appearance"`
	Environment string `json:"environment"`
	Consistency string `json:"consistency"`
}

// IsZero reports whether no gender evidence was supplied at all
func (g GenderEvidence) IsZero() bool {
	return g.Appearance == "" && g.Environment == "" && g.Consistency == ""
}

// PersonEvidence is the three-key evidence record behind height, posture and body type
type PersonEvidence struct {
	Reference      string `json:"reference"`
	BodyVisibility string `json:"body_visibility"`
	AngleImpact    string `json:"angle_impact"`
}

// Get returns the value stored under an evidence key
func (e PersonEvidence) Get(key string) string {
	switch key {
	case EvidenceReference:
		return e.Reference
	case EvidenceBodyVisibility:
		return e.BodyVisibility
	case EvidenceAngleImpact:
		return e.AngleImpact
	}
	return ""
}

// Set stores value under an evidence key
func (e *PersonEvidence) Set(key, value string) {
	switch key {
	case EvidenceReference:
		e.Reference = value
	case EvidenceBodyVisibility:
		e.BodyVisibility = value
	case EvidenceAngleImpact:
		e.AngleImpact = value
	}
}

// List returns the non-empty evidence strings in display order
func (e PersonEvidence) List() []string {
	out := make([]string, 0, len(EvidenceKeys))
	for _, k := range EvidenceKeys {
		if v := e.Get(k); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// PersonAttributes is the gated physical-attribute estimate for one request
type PersonAttributes struct {
	Detected        bool              `json:"detected"`
	Count           int               `json:"count"`
	Gender          string            `json:"gender"`
	GenderEvidence  GenderEvidence    `json:"gender_evidence"`
	Height          string            `json:"height"`
	BodyType        string            `json:"body_type"`
	Posture         string            `json:"posture"`
	PartialFeatures map[string]string `json:"partial_features,omitempty"`
	Evidence        PersonEvidence    `json:"evidence"`
	EvidenceList    []string          `json:"evidence_list"`
	Limitations     []string          `json:"limitations"`
	Confidence      Confidence        `json:"confidence"`
}
