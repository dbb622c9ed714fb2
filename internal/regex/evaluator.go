// Package regex evaluates user-supplied regular expressions against a test
// string and composes highlighted views of the matches.
//
// Patterns run on Go's RE2 engine. Match positions are byte offsets into the
// subject. Evaluation is pure: the same pattern, subject and flags always
// produce the same match list.
package regex

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
)

// Group is one capture group of a match. Index is -1 and Matched is false
// when the group did not participate in the match.
type Group struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Text    string `json:"text" yaml:"text"`
	Index   int    `json:"index" yaml:"index"`
	Matched bool   `json:"matched" yaml:"matched"`
}

// Match is a single occurrence of the pattern in the subject.
type Match struct {
	Text   string  `json:"match" yaml:"match"`
	Index  int     `json:"index" yaml:"index"`
	End    int     `json:"end" yaml:"end"`
	Groups []Group `json:"groups" yaml:"groups"`
}

// Result is the outcome of one evaluation.
type Result struct {
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Flags      string   `json:"flags" yaml:"flags"`
	Literal    string   `json:"literal,omitempty" yaml:"literal,omitempty"`
	GroupNames []string `json:"groupNames,omitempty" yaml:"group_names,omitempty"`
	Matches    []Match  `json:"matches" yaml:"matches"`
	Truncated  bool     `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Count returns the number of matches.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}

	return len(r.Matches)
}

// Options bound the work a single evaluation may do.
type Options struct {
	// MaxMatches caps the match list in global mode; 0 means unlimited.
	MaxMatches int
	// MaxSubjectBytes rejects larger test strings; 0 means unlimited.
	MaxSubjectBytes int
	Logger          logging.Logger
}

// Evaluator runs patterns with configured limits.
type Evaluator struct {
	maxMatches      int
	maxSubjectBytes int
	logger          logging.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Evaluator{
		maxMatches:      opts.MaxMatches,
		maxSubjectBytes: opts.MaxSubjectBytes,
		logger:          logger.WithComponent("regex"),
	}
}

var defaultEvaluator = NewEvaluator(Options{MaxMatches: 10000})

// Evaluate runs pattern against subject with the default limits.
func Evaluate(pattern, subject string, flags Flags) (*Result, error) {
	return defaultEvaluator.Evaluate(context.Background(), pattern, subject, flags)
}

// Compile turns a pattern and its flags into an executable expression. A
// compile failure is returned as a pattern syntax error whose message is the
// engine's diagnostic.
func Compile(pattern string, flags Flags) (*regexp.Regexp, error) {
	re, err := regexp.Compile(flags.inlinePrefix() + pattern)
	if err != nil {
		return nil, errors.NewPatternSyntaxError(err.Error(), err).
			WithContext("pattern", pattern).
			WithHints(unsupportedSyntaxHints(pattern)...)
	}

	return re, nil
}

// Evaluate compiles the pattern and collects matches.
//
// An empty pattern yields an empty result and no error. Without the global
// flag at most one match is returned. With sticky, each match must begin
// exactly where the previous one ended (position 0 for the first).
// An empty match directly after a non-empty one is not reported: `a*` on
// "baaac" matches at 0, 1 and 5.
func (e *Evaluator) Evaluate(ctx context.Context, pattern, subject string, flags Flags) (*Result, error) {
	result := &Result{
		Pattern: pattern,
		Flags:   flags.String(),
		Matches: []Match{},
	}
	if pattern == "" {
		return result, nil
	}
	result.Literal = Literal(pattern, flags)

	if e.maxSubjectBytes > 0 && len(subject) > e.maxSubjectBytes {
		return nil, errors.InputTooLarge(int64(len(subject)), int64(e.maxSubjectBytes))
	}

	re, err := Compile(pattern, flags)
	if err != nil {
		e.logger.Debug(ctx, "Pattern rejected", "pattern", logging.SanitizeForLog(pattern))

		return nil, err
	}

	names := re.SubexpNames()[1:]
	for _, n := range names {
		if n != "" {
			result.GroupNames = names

			break
		}
	}

	limit := -1
	switch {
	case !flags.Global:
		limit = 1
	case e.maxMatches > 0:
		limit = e.maxMatches + 1
	}

	locs := re.FindAllStringSubmatchIndex(subject, limit)
	if flags.Sticky {
		locs = stickyPrefix(subject, locs)
	}
	if flags.Global && e.maxMatches > 0 && len(locs) > e.maxMatches {
		locs = locs[:e.maxMatches]
		result.Truncated = true
	}

	for _, loc := range locs {
		result.Matches = append(result.Matches, buildMatch(subject, loc, names))
	}

	return result, nil
}

// stickyPrefix keeps the run of matches that are contiguous from offset 0.
// The engine reports the leftmost match after each cursor, so a match
// anchored at the cursor is always the next one reported when it exists.
func stickyPrefix(subject string, locs [][]int) [][]int {
	cursor := 0
	kept := locs[:0]
	for _, loc := range locs {
		if loc[0] != cursor {
			break
		}
		kept = append(kept, loc)
		cursor = loc[1]
		if loc[0] == loc[1] {
			// empty match: the scan resumes one character later
			if cursor >= len(subject) {
				break
			}
			_, width := utf8.DecodeRuneInString(subject[cursor:])
			cursor += width
		}
	}

	return kept
}

func buildMatch(subject string, loc []int, names []string) Match {
	m := Match{
		Text:   subject[loc[0]:loc[1]],
		Index:  loc[0],
		End:    loc[1],
		Groups: make([]Group, len(names)),
	}
	for i := range names {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		g := Group{Name: names[i], Index: start}
		if start >= 0 {
			g.Text = subject[start:end]
			g.Matched = true
		}
		m.Groups[i] = g
	}

	return m
}

// unsupportedSyntaxHints explains constructs that other regex dialects accept
// but RE2 rejects.
func unsupportedSyntaxHints(pattern string) []string {
	var hints []string
	if strings.Contains(pattern, "(?=") || strings.Contains(pattern, "(?!") ||
		strings.Contains(pattern, "(?<=") || strings.Contains(pattern, "(?<!") {
		hints = append(hints, "look-around assertions are not supported; match the context and use a capture group instead")
	}
	if backrefPattern.MatchString(pattern) {
		hints = append(hints, "back-references such as \\1 are not supported; compare captured groups after matching")
	}
	if possessivePattern.MatchString(pattern) {
		hints = append(hints, "possessive quantifiers (*+, ++, ?+) are not supported")
	}
	if strings.Contains(pattern, "(?>") {
		hints = append(hints, "atomic groups (?>...) are not supported")
	}

	return hints
}

var (
	backrefPattern    = regexp.MustCompile(`(^|[^\\])\\[1-9]`)
	possessivePattern = regexp.MustCompile(`[*+?}]\+`)
)

// GroupCount returns the number of capture groups in a pattern.
func GroupCount(pattern string, flags Flags) (int, error) {
	re, err := Compile(pattern, flags)
	if err != nil {
		return 0, err
	}

	return re.NumSubexp(), nil
}

// Describe renders a one-line summary of a result for logs and the CLI.
func (r *Result) Describe() string {
	if r == nil || r.Pattern == "" {
		return "no pattern"
	}
	suffix := ""
	if r.Truncated {
		suffix = " (truncated)"
	}

	return fmt.Sprintf("%s: %d match(es)%s", r.Literal, len(r.Matches), suffix)
}
