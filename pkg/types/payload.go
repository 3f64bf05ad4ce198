package types

// The types below describe the normalized analyzer payload. Every section
// is always present; slices and maps are never nil.

// AnalyzerPerson is the analyzer's raw view of the person in frame
type AnalyzerPerson struct {
	Detected        bool              `json:"detected"`
	Count           int               `json:"count"`
	Height          string            `json:"height"`
	BodyType        string            `json:"body_type"`
	Posture         string            `json:"posture"`
	Gender          string            `json:"gender"`
	GenderEvidence  GenderEvidence    `json:"gender_evidence"`
	Evidence        PersonEvidence    `json:"evidence"`
	PartialFeatures map[string]string `json:"partial_features"`
	Confidence      string            `json:"confidence"`
}

// WatermarkCheck reports visible watermark traces
type WatermarkCheck struct {
	Detected bool   `json:"detected"`
	Platform string `json:"platform"`
	Evidence string `json:"evidence"`
}

// ScreenshotCheck reports screenshot UI traces
type ScreenshotCheck struct {
	Detected bool   `json:"detected"`
	Type     string `json:"type"`
	Evidence string `json:"evidence"`
}

// ProfessionalCheck reports studio or professional photography traits
type ProfessionalCheck struct {
	Detected bool     `json:"detected"`
	Features []string `json:"features"`
	Evidence string   `json:"evidence"`
}

// WebImageCheck estimates whether the photo was lifted from the web
type WebImageCheck struct {
	RiskLevel         string            `json:"risk_level"`
	IsLikelyWebImage  bool              `json:"is_likely_web_image"`
	Watermark         WatermarkCheck    `json:"watermark"`
	ScreenshotTraces  ScreenshotCheck   `json:"screenshot_traces"`
	ProfessionalPhoto ProfessionalCheck `json:"professional_photo"`
	Conclusion        string            `json:"conclusion"`
	Recommendation    string            `json:"recommendation"`
}

// Scene is the analyzer's scene classification
type Scene struct {
	LocationType string   `json:"location_type"`
	Environment  string   `json:"environment"`
	Evidence     []string `json:"evidence"`
	Confidence   string   `json:"confidence"`
}

// Lifestyle holds consumption-level clues
type Lifestyle struct {
	Claim            string   `json:"claim"`
	ConsumptionLevel string   `json:"consumption_level"`
	Brands           []string `json:"brands"`
	Evidence         []string `json:"evidence"`
	Limitations      []string `json:"limitations"`
	Confidence       string   `json:"confidence"`
}

// RoomAnalysis infers occupancy and relationship from indoor clues
type RoomAnalysis struct {
	InferredPeopleCount string            `json:"inferred_people_count"`
	RelationshipHint    string            `json:"relationship_hint"`
	Evidence            []string          `json:"evidence"`
	Clues               map[string]string `json:"clues"`
	Limitations         []string          `json:"limitations"`
	Confidence          string            `json:"confidence"`
}

// Objects lists objects the analyzer recognized
type Objects struct {
	Detected []string `json:"detected"`
	Brands   []string `json:"brands"`
	Evidence []string `json:"evidence"`
}

// Details holds text and special elements found in frame
type Details struct {
	TextDetected    []string `json:"text_detected"`
	TextType        string   `json:"text_type"`
	SpecialElements []string `json:"special_elements"`
	Evidence        []string `json:"evidence"`
}

// Intention is the analyzer's guess at why the photo was taken
type Intention struct {
	Claim      string   `json:"claim"`
	Evidence   []string `json:"evidence"`
	Confidence string   `json:"confidence"`
}

// AnalyzerPayload is the normalized remote analyzer output
type AnalyzerPayload struct {
	Person             AnalyzerPerson `json:"person"`
	WebImageCheck      WebImageCheck  `json:"web_image_check"`
	Scene              Scene          `json:"scene"`
	Lifestyle          Lifestyle      `json:"lifestyle"`
	RoomAnalysis       RoomAnalysis   `json:"room_analysis"`
	Objects            Objects        `json:"objects"`
	Details            Details        `json:"details"`
	Intention          Intention      `json:"intention"`
	GirlfriendComments []string       `json:"girlfriend_comments"`
}

// AnalyzerOutcome is the result of one remote analyzer call.
// Success is false on any transport, status or parse failure.
type AnalyzerOutcome struct {
	Success       bool
	Partial       bool
	Model         string
	Payload       AnalyzerPayload
	MissingFields []string
	Error         string
	RawResponse   string
}
