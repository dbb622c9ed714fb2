package regex

// CommonPattern is a ready-made pattern offered next to the pattern input.
type CommonPattern struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// The playground opens with this pattern and test string.
const (
	DefaultPattern = `\b\w+@\w+\.\w+\b`
	DefaultSubject = "Contact us at support@example.com or sales@company.org for more information."
)

var commonPatterns = []CommonPattern{
	{Name: "Email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
	{Name: "URL", Pattern: `https?:\/\/(www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_\+.~#?&//=]*)`},
	{Name: "Phone", Pattern: `\+?[1-9]\d{1,14}`},
	{Name: "IPv4", Pattern: `\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`},
	{Name: "Date (YYYY-MM-DD)", Pattern: `\d{4}-\d{2}-\d{2}`},
	{Name: "Hex Color", Pattern: `#[a-fA-F0-9]{6}|#[a-fA-F0-9]{3}`},
}

// CommonPatterns returns a copy of the built-in pattern list.
func CommonPatterns() []CommonPattern {
	out := make([]CommonPattern, len(commonPatterns))
	copy(out, commonPatterns)

	return out
}
