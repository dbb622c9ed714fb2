// Package views renders the DevKit pages as templ components.
//
// Components are plain templ.ComponentFunc values so they can be rendered by
// templ.Handler, composed with templ.Join, or written straight to a buffer in
// tests. All user text goes through templ.EscapeString.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/i18n"
	"github.com/devkitlanka/devkit/internal/version"
)

// Page keys used for the navigation bar.
const (
	PageHome        = "home"
	PageRegex       = "regex"
	PageFormatter   = "formatter"
	PageBoilerplate = "boilerplate"
	PageCheatsheets = "cheatsheets"
)

// Nav describes the page chrome around a view.
type Nav struct {
	Active string
	Lang   string
	// Stars is the repository star count shown in the header; nil hides it.
	Stars *int
}

var navLinks = []struct {
	page string
	href string
	key  string
}{
	{PageHome, "/", "nav.home"},
	{PageRegex, "/regex", "nav.regex"},
	{PageFormatter, "/formatter", "nav.formatter"},
	{PageBoilerplate, "/boilerplate", "nav.boilerplate"},
	{PageCheatsheets, "/cheatsheets", "nav.cheatsheets"},
}

// writer collects the first write error so page code can stay linear.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) rawf(format string, args ...interface{}) {
	w.raw(fmt.Sprintf(format, args...))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

var e = templ.EscapeString[string]

func checked(on bool) string {
	if on {
		return " checked"
	}

	return ""
}

func selected(on bool) string {
	if on {
		return " selected"
	}

	return ""
}

func disabled(on bool) string {
	if on {
		return " disabled"
	}

	return ""
}

// Layout wraps body in the document shell with the navigation bar.
func Layout(title string, nav Nav, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		lang := i18n.Normalize(nav.Lang)
		w := &writer{w: out}

		w.rawf(`<!DOCTYPE html>
<html lang="%s" class="dark">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s | DevKit</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
mark.regex-match { background: rgba(250, 204, 21, .35); color: inherit; border-radius: 2px; }
pre { overflow-x: auto; }
</style>
</head>
<body class="min-h-screen bg-slate-950 text-slate-100 font-sans">
`, e(lang), e(title))

		w.raw(`<nav class="border-b border-white/10 bg-slate-900/80"><div class="max-w-7xl mx-auto px-4 py-3 flex items-center gap-6">`)
		w.raw(`<a href="/" class="font-bold text-lg">DevKit</a><ul class="flex gap-4 text-sm">`)
		for _, l := range navLinks {
			class := "text-slate-400 hover:text-white"
			if l.page == nav.Active {
				class = "text-white font-semibold"
			}
			w.rawf(`<li><a href="%s" class="%s">%s</a></li>`, l.href, class, e(i18n.T(lang, l.key)))
		}
		w.raw(`</ul>`)
		if nav.Stars != nil {
			w.rawf(`<a class="ml-auto text-sm text-slate-300" href="https://github.com" data-stars="%d">&#9733; %d</a>`, *nav.Stars, *nav.Stars)
		}
		w.raw(`</div></nav>`)

		w.raw(`<main class="max-w-7xl mx-auto px-4 py-8">`)
		w.render(ctx, body)
		w.raw(`</main>`)

		w.rawf(`<footer class="border-t border-white/10 py-6 text-center text-xs text-slate-500">DevKit %s</footer>
<script>
document.addEventListener("click", function (ev) {
  var b = ev.target.closest("[data-copy]");
  if (!b || !navigator.clipboard) return;
  navigator.clipboard.writeText(b.getAttribute("data-copy")).then(function () {
    var old = b.textContent; b.textContent = b.getAttribute("data-copied") || "Copied!";
    setTimeout(function () { b.textContent = old; }, 2000);
  });
});
</script>
</body>
</html>
`, e(version.Get().Short()))

		return w.err
	})
}

// ErrorPage renders a status page.
func ErrorPage(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.rawf(`<section class="text-center py-24"><h1 class="text-5xl font-bold mb-4">%d</h1><p class="text-slate-400">%s</p><a href="/" class="inline-block mt-6 underline">Home</a></section>`,
			status, e(message))

		return w.err
	})
}

// errorBox renders a dismissible inline error with optional position and hints.
func errorBox(w *writer, message string, line, column int, hints []string) {
	if message == "" {
		return
	}
	w.raw(`<div role="alert" class="error-box my-3 rounded-lg border border-red-500/40 bg-red-500/10 p-3 text-sm text-red-300" onclick="this.remove()">`)
	w.text(message)
	if line > 0 {
		w.rawf(` <span class="error-position">(line %d, column %d)</span>`, line, column)
	}
	if len(hints) > 0 {
		w.raw(`<ul class="mt-2 list-disc pl-5 text-red-200/80">`)
		for _, h := range hints {
			w.raw(`<li>`)
			w.text(h)
			w.raw(`</li>`)
		}
		w.raw(`</ul>`)
	}
	w.raw(`</div>`)
}
