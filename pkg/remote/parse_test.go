package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCandidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"unclosed fence", "```json\n{\"a\":1", `{"a":1`},
		{"leading prose", "好的，结果如下：{\"a\":1} 以上", `{"a":1} 以上`},
		{"no object", "抱歉，无法分析", "抱歉，无法分析"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCandidate(tt.in))
		})
	}
}

func TestParseStrict(t *testing.T) {
	_, err := ParseStrict(`{"a": [1, 2,], /* note */ "b": {"c": "x",},}`)
	assert.Error(t, err)

	data, err := ParseStrict(`{"a":1} trailing words`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, data["a"])

	_, err = ParseStrict(`{"a":`)
	assert.Error(t, err)
}

func TestParseRecovered(t *testing.T) {
	data, err := ParseRecovered(`{"person":{"detected":true,"count":1},"scene":{"location":"室内","desc":"卧`)
	require.NoError(t, err)
	assert.Contains(t, data, "person")
	scene, ok := data["scene"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "室内", scene["location"])

	data, err = ParseRecovered(`{"objects":["床","桌子","椅`)
	require.NoError(t, err)
	assert.Equal(t, []any{"床", "桌子"}, data["objects"])

	_, err = ParseRecovered(`{"a`)
	assert.Error(t, err)
}

func TestParseRepairedReplyIsPartial(t *testing.T) {
	res := Parse(`{"a": [1, 2,], /* note */ "b": {"c": "x",},}`)
	require.Equal(t, ParsePartial, res.Status)
	assert.Equal(t, []any{1.0, 2.0}, res.Data["a"])
	assert.Equal(t, "x", res.Data["b"].(map[string]any)["c"])
}

func TestSanitizeKeepsStringLiterals(t *testing.T) {
	in := `{"note": "a, } b /* keep */", "list": ["x", "y",], /* drop */ "q": "say \"hi\", ]",}`
	want := `{"note": "a, } b /* keep */", "list": ["x", "y"],  "q": "say \"hi\", ]"}`
	assert.Equal(t, want, sanitize(in))

	data, err := ParseRecovered(in)
	require.NoError(t, err)
	assert.Equal(t, "a, } b /* keep */", data["note"])
	assert.Equal(t, `say "hi", ]`, data["q"])

	assert.Equal(t, `{"a": 1 `, sanitize(`{"a": 1 /* cut off`))
}

func TestParseRecoveredIgnoresBracesInStrings(t *testing.T) {
	data, err := ParseRecovered(`{"a":"x}, {y","b":{"c":1},"d":"tru`)
	require.NoError(t, err)
	assert.Equal(t, "x}, {y", data["a"])
	assert.Contains(t, data, "b")
	assert.NotContains(t, data, "d")
}

func TestParseTruncatedReplyIsPartial(t *testing.T) {
	reply := "```json\n" + `{
  "person": {"detected": true, "count": 1, "height": "中等"},
  "web_image_check": {"risk_level": "low"},
  "scene": {"location": "室内", "desc": "客厅"},
  "lifestyle": {"level": "中", "brands": ["Nike", "Ad`

	res := Parse(reply)
	require.Equal(t, ParsePartial, res.Status)
	assert.Contains(t, res.Data, "person")
	assert.Contains(t, res.Data, "scene")

	missing := MissingFields(res.Data)
	assert.NotEmpty(t, missing)
	assert.Contains(t, missing, "room_analysis")
	assert.Contains(t, missing, "girlfriend_comments")
	assert.NotContains(t, missing, "person")
}

func TestParseFullAndFailed(t *testing.T) {
	res := Parse(`{"person":{},"scene":{"location":"室外"}}`)
	assert.Equal(t, ParseFull, res.Status)
	assert.Equal(t, "full", res.Status.String())

	res = Parse("模型拒绝回答")
	assert.Equal(t, ParseFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoObject)

	res = Parse(`{"a`)
	assert.Equal(t, ParseFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestMissingFields(t *testing.T) {
	all := map[string]any{}
	for _, s := range Sections {
		all[s] = map[string]any{"x": 1}
	}
	assert.Empty(t, MissingFields(all))

	all["objects"] = []any{}
	all["intention"] = ""
	delete(all, "details")
	assert.Equal(t, []string{"objects", "details", "intention"}, MissingFields(all))
}
