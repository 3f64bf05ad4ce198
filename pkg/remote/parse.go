package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ParseStatus tags how a model reply was decoded
type ParseStatus int

const (
	ParseFailed ParseStatus = iota
	ParseFull
	ParsePartial
)

func (s ParseStatus) String() string {
	switch s {
	case ParseFull:
		return "full"
	case ParsePartial:
		return "partial"
	}
	return "failed"
}

// Sections are the top-level keys a complete reply carries
var Sections = []string{
	"person", "web_image_check", "scene", "lifestyle", "room_analysis",
	"objects", "details", "intention", "girlfriend_comments",
}

// maxRecoveryAttempts bounds the number of cut points tried on a broken reply
const maxRecoveryAttempts = 256

// ParseResult is the tagged outcome of Parse
type ParseResult struct {
	Status    ParseStatus
	Data      map[string]any
	Candidate string
	Err       error
}

// ErrNoObject is returned when the reply contains no JSON object at all
var ErrNoObject = errors.New("no JSON object found")

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)(```|$)")

// ExtractCandidate strips code fences and leading prose, returning the
// text starting at the first '{'. Trailing text is kept for recovery.
func ExtractCandidate(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil && strings.Contains(m[1], "{") {
		text = m[1]
	}
	if i := strings.Index(text, "{"); i >= 0 {
		text = text[i:]
	}
	return strings.TrimSpace(text)
}

// Parse runs the strict parse and falls back to structural recovery
func Parse(text string) ParseResult {
	candidate := ExtractCandidate(text)
	if !strings.HasPrefix(candidate, "{") {
		return ParseResult{Status: ParseFailed, Candidate: candidate, Err: ErrNoObject}
	}

	data, err := ParseStrict(candidate)
	if err == nil {
		return ParseResult{Status: ParseFull, Data: data, Candidate: candidate}
	}
	if recovered, rerr := ParseRecovered(candidate); rerr == nil {
		return ParseResult{Status: ParsePartial, Data: recovered, Candidate: candidate}
	}
	return ParseResult{Status: ParseFailed, Candidate: candidate, Err: err}
}

// ParseStrict decodes candidate as a JSON object, tolerating only
// surrounding prose. Any repair of the object itself is left to ParseRecovered.
func ParseStrict(candidate string) (map[string]any, error) {
	var data map[string]any
	firstErr := json.Unmarshal([]byte(candidate), &data)
	if firstErr == nil && data != nil {
		return data, nil
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return nil, errOr(firstErr, ErrNoObject)
	}
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &data); err != nil {
		return nil, errOr(firstErr, err)
	}
	if data == nil {
		return nil, ErrNoObject
	}
	return data, nil
}

// ParseRecovered repairs a malformed object. Block comments and trailing
// commas outside strings are dropped first; a still-broken object is cut
// at the last structurally complete point and every open container closed.
func ParseRecovered(candidate string) (map[string]any, error) {
	text := sanitize(candidate)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var data map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &data); err == nil && data != nil {
			return data, nil
		}
	}

	cuts := cutPoints(text)
	if len(cuts) == 0 {
		return nil, ErrNoObject
	}

	attempts := 0
	for i := len(cuts) - 1; i >= 0 && attempts < maxRecoveryAttempts; i-- {
		attempts++
		c := cuts[i]
		repaired := strings.TrimRight(text[:c.pos], " \t\r\n,") + closers(c.open)
		var data map[string]any
		if err := json.Unmarshal([]byte(repaired), &data); err == nil && data != nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("unrecoverable JSON after %d attempts", attempts)
}

// MissingFields lists the top-level sections absent or empty in data
func MissingFields(data map[string]any) []string {
	missing := []string{}
	for _, key := range Sections {
		if isEmptyValue(data[key]) {
			missing = append(missing, key)
		}
	}
	return missing
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

type cutPoint struct {
	pos  int
	open string
}

// cutPoints records every position where the text so far is a valid
// prefix once the open containers are closed: right after a container
// closes and right before a separating comma
func cutPoints(text string) []cutPoint {
	var (
		cuts  []cutPoint
		stack []byte
		str   stringState
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if str.consume(ch) {
			continue
		}
		switch ch {
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			if len(stack) == 0 {
				return cuts
			}
			stack = stack[:len(stack)-1]
			cuts = append(cuts, cutPoint{pos: i + 1, open: string(stack)})
			if len(stack) == 0 {
				return cuts
			}
		case ',':
			if len(stack) > 0 {
				cuts = append(cuts, cutPoint{pos: i, open: string(stack)})
			}
		}
	}
	return cuts
}

func closers(open string) string {
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '{' {
			sb.WriteByte('}')
		} else {
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// stringState tracks whether a byte scan is inside a JSON string literal
type stringState struct {
	open    bool
	escaped bool
}

// consume advances the state by ch and reports whether ch belongs to a
// string literal, quotes included
func (s *stringState) consume(ch byte) bool {
	if s.open {
		switch {
		case s.escaped:
			s.escaped = false
		case ch == '\\':
			s.escaped = true
		case ch == '"':
			s.open = false
		}
		return true
	}
	if ch == '"' {
		s.open = true
		return true
	}
	return false
}

// sanitize drops block comments and trailing commas that sit outside
// string literals. An unterminated comment swallows the rest of the text.
func sanitize(text string) string {
	var (
		sb  strings.Builder
		str stringState
	)
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if str.consume(ch) {
			sb.WriteByte(ch)
			continue
		}
		if ch == '/' && i+1 < len(text) && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 3
			continue
		}
		if ch == ',' && closesNext(text[i+1:]) {
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// closesNext reports whether the next non-space byte closes a container
func closesNext(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return rest != "" && (rest[0] == '}' || rest[0] == ']')
}

func errOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
