package formatter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/errors"
)

func TestPretty_JSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		indent int
		want   string
	}{
		{"indent 2", `{"a":1,"b":[true,null]}`, 2, "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"},
		{"indent 4", `{"a":{"b":"c"}}`, 4, "{\n    \"a\": {\n        \"b\": \"c\"\n    }\n}"},
		{"key order kept", `{"z":1,"a":2,"m":3}`, 2, "{\n  \"z\": 1,\n  \"a\": 2,\n  \"m\": 3\n}"},
		{"empty containers", `{"o":{},"l":[]}`, 2, "{\n  \"o\": {},\n  \"l\": []\n}"},
		{"scalar document", `"hi"`, 2, `"hi"`},
		{"html not escaped", `{"t":"<b>&</b>"}`, 2, "{\n  \"t\": \"<b>&</b>\"\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pretty(tt.input, JSON, tt.indent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPretty_SampleIsStable(t *testing.T) {
	got, err := Pretty(SampleJSON, JSON, 2)
	require.NoError(t, err)
	assert.Equal(t, SampleJSON, got)
}

func TestMinify_JSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"whitespace removed", "{\n  \"a\": [1, 2],\n  \"b\": \"x y\"\n}", `{"a":[1,2],"b":"x y"}`},
		{"duplicate keys keep first position and last value", `{"a":1,"b":2,"a":3}`, `{"a":3,"b":2}`},
		{"number literals kept", `{"f":1.50,"big":12345678901234567890,"e":1E3}`, `{"f":1.50,"big":12345678901234567890,"e":1E3}`},
		{"unicode kept", `{"si":"ආයුබෝවන්"}`, `{"si":"ආයුබෝවන්"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Minify(tt.input, JSON)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"missing value", `{"a":}`, 1},
		{"trailing comma", "[1,\n2,\n]", 3},
		{"unterminated", `{"a": 1`, 1},
		{"unquoted key", `{a: 1}`, 1},
		{"trailing data", "{}\n{}", 2},
		{"single quotes", `{'a': 1}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, JSON, "")
			require.Error(t, err)
			assert.True(t, errors.IsFormatParseError(err))

			var de *errors.DevkitError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantLine, de.Line)
			assert.Positive(t, de.Column)
			assert.NotEmpty(t, de.Message)
		})
	}
}

func TestConvert_JSONToYAML(t *testing.T) {
	got, err := Convert(SampleJSON, JSON, 2)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "name: DevKit Lanka\nversion: 1.0.0\n"), got)
	assert.Contains(t, got, "features:\n")
	assert.Contains(t, got, "- Regex Playground")
	assert.Contains(t, got, "offline: true")

	back, err := Convert(got, YAML, 2)
	require.NoError(t, err)
	assert.Equal(t, SampleJSON, back)
}

func TestConvert_YAMLToJSON(t *testing.T) {
	got, err := Convert(SampleYAML, YAML, 2)
	require.NoError(t, err)
	assert.Equal(t, SampleJSON, got)
}

func TestConvert_QuotesAmbiguousStrings(t *testing.T) {
	got, err := Convert(`{"flag":"true","num":"42","empty":"","real":true}`, JSON, 2)
	require.NoError(t, err)
	assert.Contains(t, got, `flag: "true"`)
	assert.Contains(t, got, `num: "42"`)
	assert.Contains(t, got, `empty: ""`)
	assert.Contains(t, got, "real: true")
}

func TestConvert_YAMLFeatures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "anchors and merge keys",
			input: "base: &base\n  host: localhost\n  port: 80\ndev:\n  <<: *base\n  port: 8080\n",
			want:  `{"base":{"host":"localhost","port":80},"dev":{"host":"localhost","port":8080}}`,
		},
		{
			name:  "merge list earlier source wins",
			input: "a: &a {x: 1}\nb: &b {x: 2, y: 2}\nc:\n  <<: [*a, *b]\n",
			want:  `{"a":{"x":1},"b":{"x":2,"y":2},"c":{"x":1,"y":2}}`,
		},
		{
			name:  "block scalars",
			input: "lit: |\n  one\n  two\nfold: >\n  one\n  two\n",
			want:  `{"lit":"one\ntwo\n","fold":"one two\n"}`,
		},
		{
			name:  "nested sequences",
			input: "matrix:\n  - [1, 2]\n  - - 3\n    - 4\n",
			want:  `{"matrix":[[1,2],[3,4]]}`,
		},
		{
			name:  "multi document stream",
			input: "a: 1\n---\nb: 2\n",
			want:  `[{"a":1},{"b":2}]`,
		},
		{
			name:  "yaml number spellings",
			input: "hex: 0x1F\nunderscore: 1_000\noctal: 0o17\n",
			want:  `{"hex":31,"underscore":1000,"octal":15}`,
		},
		{
			name:  "null spellings",
			input: "a: ~\nb: null\nc:\n",
			want:  `{"a":null,"b":null,"c":null}`,
		},
		{
			name:  "non string keys",
			input: "1: one\ntrue: yes\n",
			want:  `{"1":"one","true":"yes"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input, YAML, YAML12)
			require.NoError(t, err)
			got, err := doc.Encode(JSON, 2, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_UnrepresentableValues(t *testing.T) {
	for _, input := range []string{"x: .inf", "x: -.Inf", "x: .nan"} {
		t.Run(input, func(t *testing.T) {
			_, err := Convert(input, YAML, 2)
			require.Error(t, err)
			assert.True(t, errors.IsFormatParseError(err))
		})
	}

	_, err := Convert("? [a, b]\n: c\n", YAML, 2)
	assert.True(t, errors.IsFormatParseError(err))
}

func TestParse_YAML11Dialect(t *testing.T) {
	input := "enabled: yes\nlegacy: off\nname: norway\n"

	modern, err := Parse(input, YAML, YAML12)
	require.NoError(t, err)
	out, err := modern.Encode(JSON, 2, true)
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":"yes","legacy":"off","name":"norway"}`, out)

	legacy, err := Parse(input, YAML, YAML11)
	require.NoError(t, err)
	out, err = legacy.Encode(JSON, 2, true)
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":true,"legacy":false,"name":"norway"}`, out)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse("a: b\n  c: d\n", YAML, "")
	require.Error(t, err)
	assert.True(t, errors.IsFormatParseError(err))

	var de *errors.DevkitError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Line)
	assert.NotContains(t, de.Message, "yaml: ")
}

func TestYAML_FormatKeepsComments(t *testing.T) {
	input := "# service settings\nname: api # short name\nports:\n- 80\n- 443\n"
	got, err := Pretty(input, YAML, 4)
	require.NoError(t, err)
	assert.Contains(t, got, "# service settings")
	assert.Contains(t, got, "# short name")
	assert.Contains(t, got, "    - 80")
}

func TestMinify_YAMLUsesFlowStyle(t *testing.T) {
	input := "# note\nname: api\ntags:\n  - a\n  - b\nnested:\n  k: v\n"
	got, err := Minify(input, YAML)
	require.NoError(t, err)
	assert.Equal(t, "{name: api, tags: [a, b], nested: {k: v}}", got)

	// the parsed document is not modified by minifying
	doc, err := Parse(input, YAML, "")
	require.NoError(t, err)
	_, err = doc.Encode(YAML, 2, true)
	require.NoError(t, err)
	pretty, err := doc.Encode(YAML, 2, false)
	require.NoError(t, err)
	assert.Contains(t, pretty, "# note")
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	c := NewConverter(Options{MaxInputBytes: 64})

	t.Run("blank input gives blank output", func(t *testing.T) {
		res, err := c.Process(ctx, Request{Input: "  \n", From: JSON, Operation: OpConvert})
		require.NoError(t, err)
		assert.Empty(t, res.Output)
		assert.Equal(t, YAML, res.Format)
	})

	t.Run("input too large", func(t *testing.T) {
		_, err := c.Process(ctx, Request{Input: strings.Repeat(" ", 65), From: JSON})
		assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInputTooLarge))
	})

	t.Run("indent change", func(t *testing.T) {
		res, err := c.Process(ctx, Request{Input: `{"a":[1]}`, From: JSON, Operation: OpIndent, Indent: 8})
		require.NoError(t, err)
		assert.Equal(t, "{\n        \"a\": [\n                1\n        ]\n}", res.Output)
		assert.Equal(t, 8, res.Indent)
	})

	t.Run("yaml indent below two rejected", func(t *testing.T) {
		_, err := c.Process(ctx, Request{Input: "a: 1", From: YAML, Indent: 1})
		assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidOption))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := c.Process(ctx, Request{Input: "a", From: "toml"})
		assert.True(t, errors.HasErrorCode(err, errors.ErrCodeUnsupportedFormat))
	})

	t.Run("document count", func(t *testing.T) {
		res, err := c.Process(ctx, Request{Input: "a: 1\n---\nb: 2", From: YAML, Operation: OpConvert})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Documents)
	})
}

func TestParseFormatAndOperation(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)

	op, err := ParseOperation("")
	require.NoError(t, err)
	assert.Equal(t, OpFormat, op)
	_, err = ParseOperation("explode")
	assert.Error(t, err)

	assert.Equal(t, YAML, JSON.Other())
	assert.Equal(t, JSON, YAML.Other())
}

func TestDetect(t *testing.T) {
	assert.Equal(t, JSON, Detect(`  {"a":1}`))
	assert.Equal(t, JSON, Detect("\n[1,2]"))
	assert.Equal(t, YAML, Detect("a: 1"))
	assert.Equal(t, YAML, Detect(""))

	assert.Equal(t, YAML, DetectFile("config.yml", "{}"))
	assert.Equal(t, JSON, DetectFile("notes.txt", "[]"))
	assert.Equal(t, "formatted.yaml", DownloadName(YAML))
	assert.Equal(t, "formatted.json", DownloadName(JSON))
}

func TestDocumentValue(t *testing.T) {
	j, err := Parse(SampleJSON, JSON, "")
	require.NoError(t, err)
	y, err := Parse(SampleYAML, YAML, "")
	require.NoError(t, err)

	jv, err := j.Value()
	require.NoError(t, err)
	yv, err := y.Value()
	require.NoError(t, err)
	assert.Equal(t, jv, yv)
}

func TestDiff(t *testing.T) {
	d := Diff("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.True(t, d.Changed())
	assert.Equal(t, 2, d.Added)
	assert.Equal(t, 1, d.Removed)
	assert.Contains(t, d.Unified(), "- b\n")
	assert.Contains(t, d.Unified(), "+ B\n")
	assert.Contains(t, d.Unified(), "  a\n")

	same := Diff("x\ny", "x\ny")
	assert.False(t, same.Changed())
}

func TestManual(t *testing.T) {
	m := Manual()
	assert.True(t, strings.HasPrefix(m, "# Welcome to the JSON/YAML Formatter!"))
	assert.Contains(t, m, "Fetch from URL")
	assert.Contains(t, m, "formatted.yaml")
}
