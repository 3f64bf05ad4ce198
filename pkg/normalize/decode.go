package normalize

import (
	"sort"
	"strconv"
	"strings"
)

// decodeMap returns v as an object, or an empty one for any other type
func decodeMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// decodeString renders scalars as trimmed text; containers and nil become ""
func decodeString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// decodeStringList coerces string to [string], list to its non-empty
// scalar items, and anything else to an empty list
func decodeStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			if s := decodeString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// decodeStringMap keeps the non-empty scalar values of an object
func decodeStringMap(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if s := decodeString(item); s != "" {
				out[k] = s
			}
		}
	case map[string]string:
		for k, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out[k] = s
			}
		}
	}
	return out
}

// decodeBool accepts bools, "true"/"1"/"yes" strings and non-zero numbers
func decodeBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

// decodeInt accepts numbers and numeric strings; negatives clamp to 0
func decodeInt(v any) int {
	n := 0
	switch t := v.(type) {
	case float64:
		n = int(t)
	case int:
		n = t
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			n = i
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// firstPresent returns the value under the first key that exists in m
func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	v, _ := firstPresent(m, keys...)
	return decodeString(v)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// cleanText treats null-like model output as absent
func cleanText(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "无", "否", "false":
		return ""
	}
	return strings.TrimSpace(s)
}

// flattenLists concatenates list values of m, preferred keys first
func flattenLists(m map[string]any, preferred ...string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, k := range preferred {
		seen[k] = true
		out = append(out, decodeStringList(m[k])...)
	}
	rest := make([]string, 0, len(m))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, decodeStringList(m[k])...)
	}
	return out
}
