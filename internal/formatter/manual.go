package formatter

import _ "embed"

//go:embed manual.md
var manual string

// Manual returns the user guide as markdown.
func Manual() string {
	return manual
}
