package regex

import (
	"context"
	"strconv"
	"strings"
)

// Substitution is the outcome of a replacement preview.
type Substitution struct {
	Output   string `json:"output" yaml:"output"`
	Replaced int    `json:"replaced" yaml:"replaced"`
}

// Replace previews substituting replacement for the matches Evaluate finds.
// The replacement follows String.prototype.replace: $1..$99, $<name>, $&
// for the whole match, $` and $' for the text before and after it, and $$
// for a dollar sign. ${name} is also accepted. Any other $ is literal.
func (e *Evaluator) Replace(ctx context.Context, pattern, subject, replacement string, flags Flags) (*Substitution, error) {
	res, err := e.Evaluate(ctx, pattern, subject, flags)
	if err != nil {
		return nil, err
	}
	if len(res.Matches) == 0 {
		return &Substitution{Output: subject}, nil
	}

	re, err := Compile(pattern, flags)
	if err != nil {
		return nil, err
	}

	locs := re.FindAllStringSubmatchIndex(subject, -1)
	byStart := make(map[int][]int, len(locs))
	for _, loc := range locs {
		byStart[loc[0]] = loc
	}

	exp := expander{subject: subject, names: re.SubexpNames()}
	var b strings.Builder
	cursor := 0
	for _, m := range res.Matches {
		loc, ok := byStart[m.Index]
		if !ok {
			loc = []int{m.Index, m.End}
		}
		b.WriteString(subject[cursor:m.Index])
		exp.expand(&b, replacement, loc)
		cursor = m.End
	}
	b.WriteString(subject[cursor:])

	return &Substitution{Output: b.String(), Replaced: len(res.Matches)}, nil
}

type expander struct {
	subject string
	// names[0] is the whole match; names[i] is "" for unnamed groups.
	names []string
}

func (x expander) groups() int { return len(x.names) - 1 }

func (x expander) hasNamed() bool {
	for _, n := range x.names[1:] {
		if n != "" {
			return true
		}
	}

	return false
}

// group writes group i of loc; unmatched or missing groups write nothing.
func (x expander) group(b *strings.Builder, loc []int, i int) {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return
	}
	b.WriteString(x.subject[loc[2*i]:loc[2*i+1]])
}

func (x expander) named(name string) (int, bool) {
	for i, n := range x.names {
		if i > 0 && n == name {
			return i, true
		}
	}

	return 0, false
}

func (x expander) expand(b *strings.Builder, tpl string, loc []int) {
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c != '$' || i+1 >= len(tpl) {
			b.WriteByte(c)

			continue
		}

		next := tpl[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			x.group(b, loc, 0)
			i++
		case next == '`':
			b.WriteString(x.subject[:loc[0]])
			i++
		case next == '\'':
			b.WriteString(x.subject[loc[1]:])
			i++
		case isDigit(next):
			n, width := x.groupRef(tpl[i+1:])
			if width == 0 {
				b.WriteByte(c)

				continue
			}
			x.group(b, loc, n)
			i += width
		case next == '<' && x.hasNamed():
			end := strings.IndexByte(tpl[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)

				continue
			}
			if n, ok := x.named(tpl[i+2 : i+2+end]); ok {
				x.group(b, loc, n)
			}
			i += 2 + end
		case next == '{':
			end := strings.IndexByte(tpl[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)

				continue
			}
			ref := tpl[i+2 : i+2+end]
			n, ok := x.named(ref)
			if !ok {
				if v, err := strconv.Atoi(ref); err == nil && v >= 0 && v <= x.groups() {
					n, ok = v, true
				}
			}
			if !ok {
				b.WriteByte(c)

				continue
			}
			x.group(b, loc, n)
			i += 2 + end
		default:
			b.WriteByte(c)
		}
	}
}

// groupRef reads $n or $nn after the dollar sign. Two digits are used when
// they name an existing group, otherwise one digit; $0 and references past
// the group count stay literal. width is 0 when nothing is consumed.
func (x expander) groupRef(s string) (n, width int) {
	if len(s) >= 2 && isDigit(s[1]) {
		if v := int(s[0]-'0')*10 + int(s[1]-'0'); v >= 1 && v <= x.groups() {
			return v, 2
		}
	}
	if v := int(s[0] - '0'); v >= 1 && v <= x.groups() {
		return v, 1
	}

	return 0, 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
