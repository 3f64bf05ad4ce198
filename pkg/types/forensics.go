package types

// AngleLevel is the perspective-distortion risk derived from focal length
type AngleLevel string

const (
	AngleHigh    AngleLevel = "高"
	AngleMedium  AngleLevel = "中"
	AngleLow     AngleLevel = "低"
	AngleUnknown AngleLevel = "未知"
)

// ExifData holds the EXIF signals used for credibility checks.
// Every field is optional.
type ExifData struct {
	Camera      string            `json:"camera,omitempty"`
	DateTime    string            `json:"datetime,omitempty"`
	HasGPS      bool              `json:"has_gps"`
	Focal35mm   *int              `json:"focal_35mm,omitempty"`
	Orientation *int              `json:"orientation,omitempty"`
	Software    string            `json:"software,omitempty"`
	RawTags     map[string]string `json:"raw_tags,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Empty reports whether neither camera nor capture time is known
func (e ExifData) Empty() bool {
	return e.Camera == "" && e.DateTime == ""
}

// AngleImpact carries the angle risk level and its justification
type AngleImpact struct {
	Level    AngleLevel `json:"level"`
	Evidence string     `json:"evidence"`
}

// ForensicsResult is the output of the local forensics stage.
// BlurScore and NoiseEstimate are -1 when they could not be computed.
type ForensicsResult struct {
	Items         []Finding   `json:"items"`
	Exif          ExifData    `json:"exif"`
	BlurScore     float64     `json:"blur_score"`
	NoiseEstimate float64     `json:"noise_estimate"`
	AngleImpact   AngleImpact `json:"angle_impact"`
	EditingHints  []string    `json:"editing_hints"`
	Failed        bool        `json:"failed,omitempty"`
	Error         string      `json:"error,omitempty"`
}
