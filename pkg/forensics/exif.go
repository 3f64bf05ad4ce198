package forensics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// editingTools are matched case-insensitively against the Software tag
var editingTools = []string{
	"photoshop", "lightroom", "snapseed", "vsco",
	"美图", "facetune", "picsart", "gimp",
}

// ExtractExif reads the EXIF signals from raw image bytes.
// Missing tags and unreadable blocks leave fields empty; it never fails.
func ExtractExif(data []byte) (out types.ExifData) {
	out.RawTags = map[string]string{}
	defer func() {
		if r := recover(); r != nil {
			out.Error = fmt.Sprintf("exif: %v", r)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			out.Error = err.Error()
		}
		return out
	}

	str := func(name exif.FieldName) string {
		tag, err := x.Get(name)
		if err != nil {
			return ""
		}
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		if s != "" {
			out.RawTags[string(name)] = s
		}
		return s
	}
	num := func(name exif.FieldName) *int {
		tag, err := x.Get(name)
		if err != nil {
			return nil
		}
		v, err := tag.Int(0)
		if err != nil {
			return nil
		}
		out.RawTags[string(name)] = fmt.Sprint(v)
		return &v
	}

	maker, model := str(exif.Make), str(exif.Model)
	out.Camera = strings.TrimSpace(maker + " " + model)

	out.DateTime = str(exif.DateTimeOriginal)
	if out.DateTime == "" {
		out.DateTime = str(exif.DateTime)
	}

	if _, err := x.Get(exif.GPSInfoIFDPointer); err == nil {
		out.HasGPS = true
	}

	// 0 means unknown in the 35mm-equivalent tag
	if fl := num(exif.FocalLengthIn35mmFilm); fl != nil && *fl > 0 {
		out.Focal35mm = fl
	}
	out.Orientation = num(exif.Orientation)
	out.Software = str(exif.Software)
	return out
}

// AngleImpactFromExif classifies perspective risk from the 35mm-equivalent focal length
func AngleImpactFromExif(e types.ExifData) types.AngleImpact {
	if e.Focal35mm == nil {
		return types.AngleImpact{
			Level:    types.AngleUnknown,
			Evidence: "角度影响：未知（EXIF缺少35mm等效焦距，无法评估广角畸变风险）",
		}
	}
	fl := *e.Focal35mm
	switch {
	case fl <= 28:
		return types.AngleImpact{
			Level:    types.AngleHigh,
			Evidence: fmt.Sprintf("角度影响：高（EXIF显示35mm等效焦距约%dmm，广角畸变/透视影响风险更高）", fl),
		}
	case fl <= 50:
		return types.AngleImpact{
			Level:    types.AngleMedium,
			Evidence: fmt.Sprintf("角度影响：中（EXIF显示35mm等效焦距约%dmm，透视影响中等）", fl),
		}
	default:
		return types.AngleImpact{
			Level:    types.AngleLow,
			Evidence: fmt.Sprintf("角度影响：低（EXIF显示35mm等效焦距约%dmm，透视畸变风险相对较低）", fl),
		}
	}
}

// EditingHints lists reasons to suspect the photo was edited or stripped
func EditingHints(e types.ExifData) []string {
	hints := []string{}
	if e.Software != "" {
		lower := strings.ToLower(e.Software)
		for _, tool := range editingTools {
			if strings.Contains(lower, tool) {
				hints = append(hints, fmt.Sprintf("EXIF 显示软件字段包含 '%s'（可能经过编辑）", e.Software))
				break
			}
		}
	}
	if e.Empty() {
		hints = append(hints, "EXIF 元数据几乎为空（可能被清除或来自截图/网络图片）")
	}
	return hints
}
