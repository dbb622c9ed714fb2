// Package cheatsheet holds the bilingual command reference tables. Built-in
// sheets are embedded YAML; additional sheets can be read from a directory
// and reloaded when it changes. A loaded table is immutable: a reload
// replaces the whole table at once.
package cheatsheet

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// AllCategories is the category wildcard.
const AllCategories = "all"

// Entry is one command of a cheat sheet.
type Entry struct {
	Command     string `yaml:"command" json:"command"`
	Description string `yaml:"description" json:"description"`
	// Localized is the description in the sheet's Language.
	Localized string `yaml:"localized" json:"localized"`
	Example   string `yaml:"example,omitempty" json:"example,omitempty"`
	Category  string `yaml:"category" json:"category"`
}

// CopyText returns the command without its <placeholder> tokens.
func (e Entry) CopyText() string {
	return CopyText(e.Command)
}

// Sheet is a named table of entries.
type Sheet struct {
	ID          string  `yaml:"id" json:"id"`
	Label       string  `yaml:"label" json:"label"`
	Icon        string  `yaml:"icon,omitempty" json:"icon,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Language    string  `yaml:"language" json:"language"`
	Order       int     `yaml:"order,omitempty" json:"order,omitempty"`
	Entries     []Entry `yaml:"entries" json:"entries"`
	// Source is "builtin" or the file the sheet was read from.
	Source string `yaml:"-" json:"source"`
}

// Category is a filter choice with the number of entries it selects.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories returns "all" followed by the sheet's categories in sorted
// order, each with its entry count.
func Categories(s *Sheet) []Category {
	counts := make(map[string]int)
	for _, e := range s.Entries {
		counts[e.Category]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Category, 0, len(names)+1)
	out = append(out, Category{Name: AllCategories, Count: len(s.Entries)})
	for _, name := range names {
		out = append(out, Category{Name: name, Count: counts[name]})
	}

	return out
}

// Filter returns the entries in category (or any category for "all" and
// the empty string) whose command, description or localized description
// contains query. Matching uses Unicode case folding; an empty query
// matches everything. Entry order is preserved.
func Filter(s *Sheet, query, category string) []Entry {
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if category != "" && category != AllCategories && e.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(e.Command), needle) &&
			!strings.Contains(fold.String(e.Description), needle) &&
			!strings.Contains(fold.String(e.Localized), needle) {
			continue
		}
		out = append(out, e)
	}

	return out
}

var placeholder = regexp.MustCompile(`<[^>]*>`)

// CopyText strips <placeholder> tokens from a command and trims the result,
// giving the text placed on the clipboard.
func CopyText(command string) string {
	return strings.TrimSpace(placeholder.ReplaceAllString(command, ""))
}

// HasCategory reports whether any entry uses category. "all" always exists.
func HasCategory(s *Sheet, category string) bool {
	if category == AllCategories || category == "" {
		return true
	}
	for _, e := range s.Entries {
		if e.Category == category {
			return true
		}
	}

	return false
}
