package types

// Engine names reported by the local detector
const (
	EngineYOLO = "yolo"
	EngineHOG  = "hog"
)

// Visibility tiers derived from the most confident person box
const (
	VisibilityFullBody    = "可见全身"
	VisibilityMostly      = "大部分可见"
	VisibilityUpperBody   = "仅上半身"
	VisibilityHeadOnly    = "仅头肩"
	VisibilityNotVisible  = "不可见"
	VisibilityNoPersonMsg = "未检测到人物"
)

// DetectedBox is a single detection mapped back to original image coordinates.
// BBox holds x0, y0, x1, y1 in pixels.
type DetectedBox struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"conf"`
	BBox        [4]int  `json:"bbox"`
	HeightRatio float64 `json:"box_height_ratio"`
	WidthRatio  float64 `json:"box_width_ratio"`
	IsFullBody  bool    `json:"is_full_body,omitempty"`
}

// VisibilitySummary describes how much of the main person is in frame
type VisibilitySummary struct {
	Tier   string `json:"visibility"`
	Detail string `json:"detail"`
}

// ImageDims holds original image dimensions in pixels
type ImageDims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectionResult is the output of the local detector for one image
type DetectionResult struct {
	Engine           string            `json:"engine"`
	Persons          []DetectedBox     `json:"persons"`
	Objects          []DetectedBox     `json:"objects"`
	ReferenceObjects []DetectedBox     `json:"reference_objects"`
	PersonVisibility VisibilitySummary `json:"person_visibility"`
	ImageDims        ImageDims         `json:"image_dims"`
	Failed           bool              `json:"failed,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// ReferenceLabels returns the labels of the reference objects in detection order
func (d DetectionResult) ReferenceLabels() []string {
	labels := make([]string, 0, len(d.ReferenceObjects))
	for _, o := range d.ReferenceObjects {
		labels = append(labels, o.Label)
	}
	return labels
}

// ObjectLabels returns up to limit object labels, duplicates removed
func (d DetectionResult) ObjectLabels(limit int) []string {
	return uniqueLabels(d.Objects, limit)
}

func uniqueLabels(boxes []DetectedBox, limit int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(boxes))
	for i, b := range boxes {
		if limit > 0 && i >= limit {
			break
		}
		if _, ok := seen[b.Label]; ok {
			continue
		}
		seen[b.Label] = struct{}{}
		out = append(out, b.Label)
	}
	return out
}

// NotVisible is the visibility summary used when no person was found
func NotVisible() VisibilitySummary {
	return VisibilitySummary{Tier: VisibilityNotVisible, Detail: VisibilityNoPersonMsg}
}
