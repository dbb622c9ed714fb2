package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/formatter"
	"github.com/devkitlanka/devkit/internal/regex"
	"github.com/devkitlanka/devkit/internal/scaffolding"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	_, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)

	return buf.String()
}

// findAll returns the nodes with the given tag whose class attribute
// contains class.
func findAll(t *testing.T, doc, tag, class string) []*html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			for _, a := range n.Attr {
				if a.Key == "class" && strings.Contains(a.Val, class) {
					out = append(out, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return out
}

func TestLayout(t *testing.T) {
	stars := 12
	out := render(t, Layout("Regex <Playground>", Nav{Active: PageRegex, Lang: "si", Stars: &stars}, Home()))

	assert.Contains(t, out, `<html lang="si"`)
	assert.Contains(t, out, "Regex &lt;Playground&gt; | DevKit")
	assert.Contains(t, out, "මුල් පිටුව")
	assert.Contains(t, out, `data-stars="12"`)
	assert.Len(t, findAll(t, out, "a", "tool-card"), 4)
}

func TestRegexPage(t *testing.T) {
	res, err := regex.Evaluate(regex.DefaultPattern, regex.DefaultSubject, regex.DefaultFlags)
	require.NoError(t, err)

	out := render(t, RegexPage(RegexView{
		Pattern:  regex.DefaultPattern,
		Subject:  regex.DefaultSubject,
		Flags:    regex.DefaultFlags,
		Result:   res,
		Patterns: regex.CommonPatterns(),
	}))

	assert.Len(t, findAll(t, out, "mark", regex.MarkClass), 2)
	assert.Contains(t, out, `id="match-count" class="text-sm text-slate-400">(2)`)
	assert.Len(t, findAll(t, out, "button", "common-pattern"), len(regex.CommonPatterns()))
	assert.Contains(t, out, `value="g" checked`)
	assert.Contains(t, out, "/ws/regex")
}

func TestRegexPage_ErrorKeepsText(t *testing.T) {
	out := render(t, RegexPage(RegexView{
		Pattern: "(",
		Subject: "<b>bold</b>",
		Error:   "missing closing )",
		Hints:   []string{"close the group"},
	}))

	assert.Contains(t, out, "missing closing )")
	assert.Contains(t, out, "close the group")
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, out, "No matches found")
	assert.NotContains(t, out, `name="last_pattern"`)
}

func TestRegexPage_ErrorShowsLastGoodResult(t *testing.T) {
	res, err := regex.Evaluate("b", "<b>bold</b>", regex.Flags{Global: true})
	require.NoError(t, err)

	out := render(t, RegexPage(RegexView{
		Pattern:  "b(",
		Subject:  "<b>bold</b>",
		Error:    "missing closing )",
		Result:   res,
		LastGood: &RegexQuery{Pattern: "b", Flags: regex.Flags{Global: true}},
	}))

	assert.Contains(t, out, "missing closing )")
	assert.Len(t, findAll(t, out, "mark", regex.MarkClass), 3)
	assert.Contains(t, out, `<input type="hidden" name="last_pattern" value="b"><input type="hidden" name="last_flags" value="g">`)
}

func TestFormatterPage(t *testing.T) {
	s := formatter.NewSession(nil)
	state, err := s.Apply(context.Background(), formatter.OpMinify)
	require.NoError(t, err)

	out := render(t, FormatterPage(FormatterView{
		State: state,
		Diff:  formatter.Diff(state.Input, state.Output),
	}))
	assert.Contains(t, out, "Formatted and validated JSON")
	assert.Contains(t, out, `name="tab" value="json" checked`)
	assert.Contains(t, out, "formatted.json")
	assert.Contains(t, out, "Changes (+1 / -")

	state.Error, state.ErrorLine, state.ErrorColumn = "unexpected end of input", 3, 7
	out = render(t, FormatterPage(FormatterView{State: state}))
	assert.Contains(t, out, "(line 3, column 7)")
	assert.Contains(t, out, `<button id="fetch-button" type="submit" name="op" value="fetch" class="rounded bg-slate-800 px-3 py-1 disabled:opacity-50">Fetch</button>`)
	assert.Contains(t, out, `ev.submitter`)
}

func TestFormatterPage_FetchBusy(t *testing.T) {
	out := render(t, FormatterPage(FormatterView{FetchBusy: true, FetchURL: "https://example.com/a.json"}))
	assert.Contains(t, out, `disabled:opacity-50" disabled>Fetching...</button>`)
}

func TestBoilerplatePage(t *testing.T) {
	fs, err := scaffolding.Generate("nextjs", scaffolding.ProjectConfig{Name: "shop", Description: "A shop"}, []string{"docker"})
	require.NoError(t, err)

	v := BoilerplateView{
		Catalogue:  scaffolding.Builtin().Catalogue(),
		Selected:   "nextjs",
		Project:    fs.Project,
		Addons:     map[string]bool{"docker": true},
		Files:      fs,
		ActivePath: fs.Active(""),
	}
	out := render(t, BoilerplatePage(v))

	assert.Len(t, findAll(t, out, "label", "template-option"), len(v.Catalogue))
	assert.Contains(t, out, `value="docker" checked`)
	assert.Contains(t, out, "/api/generate/zip?addon=docker&amp;description=A+shop&amp;name=shop&amp;template=nextjs")
	assert.Contains(t, out, "Dockerfile")
	assert.Contains(t, out, "shop.zip")
}

func TestBoilerplatePage_NoTemplate(t *testing.T) {
	out := render(t, BoilerplatePage(BoilerplateView{Catalogue: scaffolding.Builtin().Catalogue()}))
	assert.Contains(t, out, "Select a template to begin")
	assert.NotContains(t, out, "Download Project")
}

func TestCheatsheetPage(t *testing.T) {
	repo := cheatsheet.Default()
	git, err := repo.Sheet("git")
	require.NoError(t, err)

	v := CheatsheetView{
		Sheets:     repo.Sheets(),
		Sheet:      git,
		Category:   "Branching",
		Categories: cheatsheet.Categories(git),
		Entries:    cheatsheet.Filter(git, "", "Branching"),
		Lang:       "si",
	}
	out := render(t, CheatsheetPage(v))

	assert.Len(t, findAll(t, out, "article", "entry"), 4)
	assert.Contains(t, out, "සංවර්ධක විධාන මාර්ගෝපදේශ")
	assert.Contains(t, out, "සියල්ල (21)")
	assert.Contains(t, out, `data-copy="git checkout -b"`)
	assert.Contains(t, out, "උදාහරණය")

	v.Entries = nil
	v.Lang = "en"
	out = render(t, CheatsheetPage(v))
	assert.Contains(t, out, "No Commands Found")
	assert.Contains(t, out, "Try adjusting your search or filters.")
}

func TestMarkdown(t *testing.T) {
	out := render(t, Markdown("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>\n"))
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "<table>")
	assert.NotContains(t, out, "<script>")

	manual, err := RenderMarkdown(formatter.Manual())
	require.NoError(t, err)
	assert.Contains(t, manual, "<h")
}

func TestErrorPage(t *testing.T) {
	out := render(t, ErrorPage(404, "cheat sheet not found: <x>"))
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "&lt;x&gt;")
}
