package views

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/i18n"
)

// CheatsheetView is the state of the cheat-sheet page.
type CheatsheetView struct {
	Sheets     []*cheatsheet.Sheet
	Sheet      *cheatsheet.Sheet
	Query      string
	Category   string
	Categories []cheatsheet.Category
	Entries    []cheatsheet.Entry
	Lang       string
}

func (v CheatsheetView) link(sheet, category, lang string) string {
	q := url.Values{}
	q.Set("sheet", sheet)
	if v.Query != "" {
		q.Set("q", v.Query)
	}
	if category != "" && category != cheatsheet.AllCategories {
		q.Set("category", category)
	}
	q.Set("lang", lang)

	return "/cheatsheets?" + q.Encode()
}

// CheatsheetPage renders the sheet tabs, the search box, the category
// filter and the matching entries.
func CheatsheetPage(v CheatsheetView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		tr := i18n.New(v.Lang)
		category := v.Category
		if category == "" {
			category = cheatsheet.AllCategories
		}

		w.rawf(`<h1 class="text-3xl font-bold mb-2">%s</h1><p class="text-slate-400 mb-6">%s</p>`,
			e(tr.T("cheatsheet.title")), e(tr.T("cheatsheet.subtitle")))

		w.rawf(`<div class="language-switch mb-4 text-sm">%s: `, e(tr.T("language")))
		for _, lang := range i18n.Supported() {
			class := "text-slate-400"
			if lang == tr.Lang {
				class = "text-white font-semibold"
			}
			w.rawf(`<a href="%s" class="%s mr-2" hreflang="%s">%s</a>`, e(v.link(v.Sheet.ID, category, lang)), class, lang, e(i18n.Name(lang)))
		}
		w.raw(`</div>`)

		w.raw(`<div class="sheet-tabs flex flex-wrap gap-2 mb-4" role="tablist">`)
		for _, s := range v.Sheets {
			class := "border-white/10 text-slate-300"
			if s.ID == v.Sheet.ID {
				class = "border-orange-400 text-white"
			}
			w.rawf(`<a role="tab" href="%s" class="rounded border px-3 py-1 text-sm %s">%s</a>`,
				e(v.link(s.ID, "", tr.Lang)), class, e(s.Label))
		}
		w.raw(`</div>`)

		w.raw(`<form method="get" action="/cheatsheets" class="mb-4">`)
		w.rawf(`<input type="hidden" name="sheet" value="%s"><input type="hidden" name="lang" value="%s">`, e(v.Sheet.ID), e(tr.Lang))
		if category != cheatsheet.AllCategories {
			w.rawf(`<input type="hidden" name="category" value="%s">`, e(category))
		}
		w.rawf(`<input type="search" name="q" value="%s" placeholder="%s" class="w-full bg-slate-900 rounded px-3 py-2">`,
			e(v.Query), e(tr.T("cheatsheet.search")))
		w.raw(`</form>`)

		w.raw(`<div class="categories flex flex-wrap gap-2 mb-6">`)
		for _, c := range v.Categories {
			label := c.Name
			if c.Name == cheatsheet.AllCategories {
				label = tr.T("cheatsheet.all")
			}
			class := "bg-slate-800 text-slate-300"
			if c.Name == category {
				class = "bg-orange-500 text-white"
			}
			w.rawf(`<a href="%s" class="rounded-full px-3 py-1 text-xs %s">%s (%d)</a>`,
				e(v.link(v.Sheet.ID, c.Name, tr.Lang)), class, e(label), c.Count)
		}
		w.raw(`</div>`)

		w.rawf(`<p class="entry-count text-xs text-slate-500 mb-2">%s</p>`, e(tr.T("cheatsheet.count", len(v.Entries))))
		if len(v.Entries) == 0 {
			w.rawf(`<div class="empty text-center py-12"><h3 class="text-lg font-semibold">%s</h3><p class="text-slate-400">%s</p></div>`,
				e(tr.T("cheatsheet.empty")), e(tr.T("cheatsheet.empty_hint")))

			return w.err
		}

		w.raw(`<div class="entries grid gap-4 md:grid-cols-2">`)
		for _, en := range v.Entries {
			w.raw(`<article class="entry rounded-xl border border-white/10 bg-white/5 p-4">`)
			w.rawf(`<div class="flex items-start justify-between gap-2"><code class="text-orange-300">%s</code>`, e(en.Command))
			w.rawf(`<button type="button" data-copy="%s" data-copied="%s" aria-label="%s" class="text-xs rounded bg-slate-800 px-2 py-1">&#10697;</button></div>`,
				e(en.CopyText()), e(tr.T("cheatsheet.copied")), e(tr.T("cheatsheet.copy", en.Command)))
			w.rawf(`<span class="text-xs text-slate-500">%s</span>`, e(en.Category))
			w.rawf(`<dl class="mt-2 text-sm"><dt class="text-slate-500">%s</dt><dd>%s</dd>`, e(tr.T("cheatsheet.english")), e(en.Description))
			if en.Localized != "" {
				w.rawf(`<dt class="text-slate-500 mt-1">%s</dt><dd lang="%s">%s</dd>`, e(tr.T("cheatsheet.localized")), e(v.Sheet.Language), e(en.Localized))
			}
			if en.Example != "" {
				w.rawf(`<dt class="text-slate-500 mt-1">%s</dt><dd><code>%s</code></dd>`, e(tr.T("cheatsheet.example")), e(en.Example))
			}
			w.raw(`</dl></article>`)
		}
		w.raw(`</div>`)

		return w.err
	})
}
