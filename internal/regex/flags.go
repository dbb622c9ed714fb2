package regex

import (
	"fmt"
	"strings"

	"github.com/devkitlanka/devkit/internal/errors"
)

// Flags are the six evaluation modifiers offered by the playground.
type Flags struct {
	Global     bool `json:"global" yaml:"global"`
	IgnoreCase bool `json:"ignoreCase" yaml:"ignore_case"`
	Multiline  bool `json:"multiline" yaml:"multiline"`
	DotAll     bool `json:"dotAll" yaml:"dot_all"`
	Unicode    bool `json:"unicode" yaml:"unicode"`
	Sticky     bool `json:"sticky" yaml:"sticky"`
}

// FlagLetters lists flag letters in their canonical order.
const FlagLetters = "gimsuy"

// DefaultFlags is the playground's initial state: global only.
var DefaultFlags = Flags{Global: true}

// String renders enabled flags as letters in the fixed order g i m s u y.
func (f Flags) String() string {
	var b strings.Builder
	for _, on := range []struct {
		set    bool
		letter byte
	}{
		{f.Global, 'g'},
		{f.IgnoreCase, 'i'},
		{f.Multiline, 'm'},
		{f.DotAll, 's'},
		{f.Unicode, 'u'},
		{f.Sticky, 'y'},
	} {
		if on.set {
			b.WriteByte(on.letter)
		}
	}

	return b.String()
}

// ParseFlags is the inverse of Flags.String. Letters may appear in any order
// but each at most once.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	seen := make(map[rune]bool, len(s))
	for _, r := range s {
		if seen[r] {
			return Flags{}, errors.NewValidationError(errors.ErrCodeInvalidFlags,
				fmt.Sprintf("flag %q given more than once", r))
		}
		seen[r] = true

		switch r {
		case 'g':
			f.Global = true
		case 'i':
			f.IgnoreCase = true
		case 'm':
			f.Multiline = true
		case 's':
			f.DotAll = true
		case 'u':
			f.Unicode = true
		case 'y':
			f.Sticky = true
		default:
			return Flags{}, errors.NewValidationError(errors.ErrCodeInvalidFlags,
				fmt.Sprintf("unknown flag %q", r)).WithHints("valid flags are " + FlagLetters)
		}
	}

	return f, nil
}

// inlinePrefix maps the case, multiline and dot-all flags onto RE2 inline
// flags. The unicode flag needs no prefix: the engine always works on UTF-8
// code points.
func (f Flags) inlinePrefix() string {
	var letters string
	if f.IgnoreCase {
		letters += "i"
	}
	if f.Multiline {
		letters += "m"
	}
	if f.DotAll {
		letters += "s"
	}
	if letters == "" {
		return ""
	}

	return "(?" + letters + ")"
}

// Literal renders the pattern the way it is copied to the clipboard: /pattern/flags.
func Literal(pattern string, flags Flags) string {
	return "/" + pattern + "/" + flags.String()
}
