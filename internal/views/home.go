package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Card is one tool tile on the home page.
type Card struct {
	Title    string
	Desc     string
	Href     string
	Features []string
}

// Cards lists the four tools.
var Cards = []Card{
	{
		Title: "Regex Playground",
		Desc:  "Test regular expressions in real-time with live matching and highlighting.",
		Href:  "/regex",
		Features: []string{
			"Live Real-Time Pattern Matching",
			"Interactive Regex Flags",
			"Instant Regex Validation",
			"Live Substitution Preview",
			"Capture Group References",
		},
	},
	{
		Title: "JSON/YAML Formatter",
		Desc:  "Validate and format JSON/YAML with syntax highlighting and error detection.",
		Href:  "/formatter",
		Features: []string{
			"Live Syntax Validation",
			"Detailed Error Reporting",
			"JSON Minification",
			"Customizable Indentation",
			"Advanced Syntax Highlighting",
			"Fetch Data from URL",
		},
	},
	{
		Title: "Boilerplate Generator",
		Desc:  "Generate starter templates for popular frameworks and configurations.",
		Href:  "/boilerplate",
		Features: []string{
			"Wide Framework Support",
			"Intelligent Add-on System",
			"Dynamic File Generation",
			"Developer-Focused UI/UX",
		},
	},
	{
		Title: "Cheat Sheets",
		Desc:  "Quick reference for Git, Linux commands, and more in Sinhala/English.",
		Href:  "/cheatsheets",
		Features: []string{
			"Multiple Cheat Sheets",
			"Bilingual Support",
			"Comprehensive Command Coverage",
			"Detailed Command Breakdowns",
			"Instant Full-Text Search",
			"Category-Based Filtering",
		},
	},
}

// Home renders the tool cards.
func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1 class="text-3xl font-bold mb-2">DevKit</h1><p class="text-slate-400 mb-8">A handy toolkit for developers.</p>`)
		w.raw(`<div class="grid grid-cols-1 md:grid-cols-2 lg:grid-cols-4 gap-6">`)
		for _, c := range Cards {
			w.rawf(`<a href="%s" class="tool-card block rounded-2xl border border-white/10 bg-white/5 p-6 hover:border-white/30">`, e(c.Href))
			w.rawf(`<h3 class="text-lg font-semibold mb-2">%s</h3><p class="text-sm text-slate-300 mb-4">%s</p><ul class="text-sm text-slate-400 space-y-1">`,
				e(c.Title), e(c.Desc))
			for _, f := range c.Features {
				w.rawf(`<li>%s</li>`, e(f))
			}
			w.raw(`</ul></a>`)
		}
		w.raw(`</div>`)

		return w.err
	})
}
