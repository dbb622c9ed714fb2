package regex

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/devkitlanka/devkit/internal/errors"
)

// Segment is a run of the subject that is either literal text or one match.
type Segment struct {
	Text       string `json:"text"`
	Match      bool   `json:"match"`
	MatchIndex int    `json:"matchIndex"`
}

// MarkClass is the CSS class placed on every highlight wrapper.
const MarkClass = "regex-match"

// Segments splits subject into alternating literal and match runs using a
// single forward cursor. Concatenating the Text of every segment reproduces
// the subject exactly. Matches must be ascending and non-overlapping.
func Segments(subject string, matches []Match) ([]Segment, error) {
	segments := make([]Segment, 0, 2*len(matches)+1)
	cursor := 0

	for i, m := range matches {
		if m.Index < cursor || m.End < m.Index || m.End > len(subject) {
			return nil, errors.NewInternalError(errors.ErrCodeOverlappingMatch,
				fmt.Sprintf("match %d at [%d,%d) is out of order", i, m.Index, m.End), nil)
		}
		if m.Index > cursor {
			segments = append(segments, Segment{Text: subject[cursor:m.Index], MatchIndex: -1})
		}
		segments = append(segments, Segment{Text: subject[m.Index:m.End], Match: true, MatchIndex: i})
		cursor = m.End
	}

	if cursor < len(subject) {
		segments = append(segments, Segment{Text: subject[cursor:], MatchIndex: -1})
	}

	return segments, nil
}

// ComposeFunc renders the subject by passing literal runs through literal and
// match runs through mark.
func ComposeFunc(subject string, matches []Match, literal func(string) string, mark func(i int, text string) string) (string, error) {
	segments, err := Segments(subject, matches)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(subject) + len(matches)*48)
	for _, s := range segments {
		if s.Match {
			b.WriteString(mark(s.MatchIndex, s.Text))
		} else {
			b.WriteString(literal(s.Text))
		}
	}

	return b.String(), nil
}

// Compose renders the subject as HTML with every match wrapped in
// <mark class="regex-match" data-match="i">. All text is escaped.
func Compose(subject string, matches []Match) (string, error) {
	return ComposeFunc(subject, matches, html.EscapeString, func(i int, text string) string {
		return fmt.Sprintf(`<mark class="%s" data-match="%d">%s</mark>`, MarkClass, i, html.EscapeString(text))
	})
}
