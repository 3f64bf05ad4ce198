package types

import (
	"errors"
	"fmt"
)

// Perspective selects whose photo is being checked
type Perspective string

const (
	PerspectiveBoyfriend  Perspective = "boyfriend"
	PerspectiveGirlfriend Perspective = "girlfriend"
)

// ErrUnknownPerspective is returned for a perspective other than boyfriend or girlfriend
var ErrUnknownPerspective = errors.New("unknown target_gender")

// ParsePerspective validates a perspective flag; empty means boyfriend
func ParsePerspective(s string) (Perspective, error) {
	switch Perspective(s) {
	case "":
		return PerspectiveBoyfriend, nil
	case PerspectiveBoyfriend, PerspectiveGirlfriend:
		return Perspective(s), nil
	}
	return "", fmt.Errorf("%w %q (use boyfriend or girlfriend)", ErrUnknownPerspective, s)
}

// RoomFindings is the gated room/relationship inference
type RoomFindings struct {
	InferredPeopleCount string            `json:"inferred_people_count"`
	RelationshipHint    string            `json:"relationship_hint"`
	Evidence            []string          `json:"evidence"`
	Clues               map[string]string `json:"clues"`
	Limitations         []string          `json:"limitations"`
	Confidence          Confidence        `json:"confidence"`
}

// Analysis groups every report category
type Analysis struct {
	Lifestyle     Section          `json:"lifestyle"`
	Details       Section          `json:"details"`
	Intention     Section          `json:"intention"`
	Credibility   Section          `json:"credibility"`
	Person        PersonAttributes `json:"person"`
	RoomAnalysis  RoomFindings     `json:"room_analysis"`
	WebImageCheck *WebImageCheck   `json:"web_image_check,omitempty"`
}

// Meta carries diagnostics about how the report was produced
type Meta struct {
	Model           string   `json:"model"`
	ModelSuccess    bool     `json:"model_success"`
	Partial         bool     `json:"is_partial"`
	MissingFields   []string `json:"missing_fields,omitempty"`
	Error           string   `json:"error,omitempty"`
	RawResponse     string   `json:"raw_response,omitempty"`
	LocalEngine     string   `json:"local_engine"`
	ForensicsFailed bool     `json:"forensics_failed"`
	DetectionFailed bool     `json:"detection_failed"`
}

// Report is the final response for one analyzed photo
type Report struct {
	ImageID            string   `json:"image_id"`
	Analysis           Analysis `json:"analysis"`
	GirlfriendComments []string `json:"girlfriend_comments"`
	Meta               Meta     `json:"_meta"`
}

// Findings returns every Finding in the report
func (r *Report) Findings() []Finding {
	var all []Finding
	all = append(all, r.Analysis.Lifestyle.Items...)
	all = append(all, r.Analysis.Details.Items...)
	all = append(all, r.Analysis.Intention.Items...)
	all = append(all, r.Analysis.Credibility.Items...)
	return all
}
