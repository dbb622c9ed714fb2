package regex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/devkitlanka/devkit/internal/errors"
)

func TestSegments(t *testing.T) {
	subject := "support@example.com and sales@company.org"
	res, err := Evaluate(`(\w+)@`, subject, Flags{Global: true})
	require.NoError(t, err)

	segments, err := Segments(subject, res.Matches)
	require.NoError(t, err)
	require.Len(t, segments, 4)

	assert.Equal(t, Segment{Text: "support@", Match: true, MatchIndex: 0}, segments[0])
	assert.Equal(t, Segment{Text: "example.com and ", MatchIndex: -1}, segments[1])
	assert.Equal(t, Segment{Text: "sales@", Match: true, MatchIndex: 1}, segments[2])
	assert.Equal(t, Segment{Text: "company.org", MatchIndex: -1}, segments[3])

	var joined strings.Builder
	for _, s := range segments {
		joined.WriteString(s.Text)
	}
	assert.Equal(t, subject, joined.String())
}

func TestSegments_NoMatches(t *testing.T) {
	segments, err := Segments("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Text: "plain", MatchIndex: -1}}, segments)

	segments, err = Segments("", nil)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegments_RejectsOverlap(t *testing.T) {
	tests := []struct {
		name    string
		matches []Match
	}{
		{"overlapping", []Match{{Index: 0, End: 3}, {Index: 2, End: 4}}},
		{"backwards", []Match{{Index: 3, End: 4}, {Index: 0, End: 1}}},
		{"past end", []Match{{Index: 2, End: 10}}},
		{"inverted", []Match{{Index: 3, End: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segments("abcdef", tt.matches)
			require.Error(t, err)
			assert.True(t, errors.HasErrorCode(err, errors.ErrCodeOverlappingMatch))
		})
	}
}

func TestCompose(t *testing.T) {
	out, err := Compose("a1b", []Match{{Text: "1", Index: 1, End: 2}})
	require.NoError(t, err)
	assert.Equal(t, `a<mark class="regex-match" data-match="0">1</mark>b`, out)
}

func TestCompose_EscapesText(t *testing.T) {
	subject := `<script>alert("x")</script> & <b>`
	res, err := Evaluate(`<b>`, subject, Flags{Global: true})
	require.NoError(t, err)

	out, err := Compose(subject, res.Matches)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `<mark class="regex-match" data-match="0">&lt;b&gt;</mark>`)

	// stripping the wrappers and unescaping gives back the subject
	stripped := strings.NewReplacer(`<mark class="regex-match" data-match="0">`, "", "</mark>", "").Replace(out)
	assert.Equal(t, subject, html.UnescapeString(stripped))
}

func TestComposeFunc(t *testing.T) {
	out, err := ComposeFunc("one two", []Match{{Index: 4, End: 7}}, strings.ToUpper, func(i int, text string) string {
		return "[" + text + "]"
	})
	require.NoError(t, err)
	assert.Equal(t, "ONE [two]", out)
}
