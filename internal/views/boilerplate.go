package views

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/scaffolding"
)

// BoilerplateView is the state of the generator page.
type BoilerplateView struct {
	Catalogue []scaffolding.TemplateInfo
	Selected  string
	Project   scaffolding.ProjectConfig
	Addons    map[string]bool
	Files     *scaffolding.FileSet
	// ActivePath is the previewed file and ActiveHTML its highlighted content.
	ActivePath string
	ActiveHTML string
	Error      string
}

// Query encodes the generator inputs, for links back to the page and the
// zip download.
func (v BoilerplateView) Query() url.Values {
	q := url.Values{}
	q.Set("template", v.Selected)
	q.Set("name", v.Project.Name)
	q.Set("description", v.Project.Description)
	if v.Files != nil {
		for _, id := range v.Files.Addons {
			q.Add("addon", id)
		}
	}

	return q
}

// BoilerplatePage renders the template picker, add-ons and file preview.
func BoilerplatePage(v BoilerplateView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}

		w.raw(`<h1 class="text-3xl font-bold mb-6">Boilerplate Generator</h1>`)
		w.raw(`<form method="get" action="/boilerplate" class="grid gap-6 lg:grid-cols-3">`)

		w.raw(`<section class="space-y-4"><h2 class="font-semibold">Choose Template</h2><div class="grid gap-2">`)
		for _, t := range v.Catalogue {
			w.rawf(`<label class="template-option rounded border border-white/10 p-3 text-sm"><input type="radio" name="template" value="%s"%s onchange="this.form.submit()"> <strong>%s</strong><br><span class="text-slate-400">%s</span></label>`,
				e(t.ID), checked(t.ID == v.Selected), e(t.Name), e(t.Description))
		}
		w.raw(`</div>`)

		w.raw(`<h2 class="font-semibold">Configuration</h2>`)
		w.rawf(`<label class="block text-sm">Project Name<input name="name" value="%s" class="w-full mt-1 bg-slate-900 rounded px-2 py-1"></label>`, e(v.Project.Name))
		w.rawf(`<label class="block text-sm">Description<input name="description" value="%s" class="w-full mt-1 bg-slate-900 rounded px-2 py-1"></label>`, e(v.Project.Description))
		w.raw(`</section>`)

		w.raw(`<section class="space-y-4"><h2 class="font-semibold">Optional Add-ons</h2><p class="text-sm text-slate-400">Power-up your project.</p>`)
		var current *scaffolding.TemplateInfo
		for i := range v.Catalogue {
			if v.Catalogue[i].ID == v.Selected {
				current = &v.Catalogue[i]
			}
		}
		if current == nil {
			w.raw(`<p class="text-slate-400">Select a template to begin</p>`)
		} else {
			for _, a := range current.Addons {
				w.rawf(`<label class="addon block rounded border border-white/10 p-3 text-sm"><input type="checkbox" name="addon" value="%s"%s onchange="this.form.submit()"> <strong>%s</strong><br><span class="text-slate-400">%s</span></label>`,
					e(a.ID), checked(v.Addons[a.ID]), e(a.Name), e(a.Description))
			}
		}
		w.raw(`<button type="submit" class="rounded bg-purple-600 px-4 py-2 text-sm">Generate</button>`)
		errorBox(w, v.Error, 0, 0, nil)
		w.raw(`</section>`)

		w.raw(`<section class="space-y-3"><h2 class="font-semibold">Generated Files</h2><p class="text-sm text-slate-400">Preview files and download the project.</p>`)
		if v.Files == nil || v.Files.Empty() {
			w.raw(`<p class="text-slate-400">Select a template to begin</p>`)
		} else {
			q := v.Query()
			w.raw(`<ul class="file-list text-sm font-mono">`)
			for _, p := range v.Files.Paths() {
				fq := url.Values{}
				for k, vs := range q {
					fq[k] = vs
				}
				fq.Set("file", p)
				class := "text-slate-400"
				if p == v.ActivePath {
					class = "text-white font-semibold"
				}
				w.rawf(`<li><a href="/boilerplate?%s" class="%s">%s</a></li>`, e(fq.Encode()), class, e(p))
			}
			w.raw(`</ul>`)

			if v.ActivePath == "" {
				w.raw(`<p class="text-slate-400">Select a file to preview</p>`)
			} else {
				w.rawf(`<h3 class="text-sm font-mono">%s</h3>`, e(v.ActivePath))
				if v.ActiveHTML != "" {
					w.rawf(`<div id="preview" class="text-sm">%s</div>`, v.ActiveHTML)
				} else if f, ok := v.Files.Get(v.ActivePath); ok {
					w.rawf(`<pre id="preview" class="bg-slate-900 p-3 text-sm">%s</pre>`, e(f.Content))
				}
			}
			w.rawf(`<a href="/api/generate/zip?%s" class="inline-block rounded bg-purple-600 px-4 py-2 text-sm" download="%s">Download Project (.ZIP)</a>`,
				e(q.Encode()), e(v.Files.ArchiveName()))
		}
		w.raw(`</section></form>`)

		return w.err
	})
}
