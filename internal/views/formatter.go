package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/formatter"
)

// FormatterView is the state of the formatter page.
type FormatterView struct {
	State formatter.SessionState
	// OutputHTML is the highlighted output; empty falls back to plain text.
	OutputHTML string
	Diff       *formatter.LineDiff
	FetchURL   string
	FetchError string
	// FetchBusy disables the fetch control while a fetch is outstanding.
	FetchBusy bool
}

var formatterActions = []struct {
	op    string
	label string
}{
	{string(formatter.OpFormat), "Format"},
	{string(formatter.OpMinify), "Minify"},
	{string(formatter.OpConvert), "Convert"},
	{string(formatter.OpIndent), "Re-indent"},
	{"sample", "Sample"},
	{"clear", "Clear"},
}

// FormatterPage renders the formatter. The hidden fields carry the last good
// output so a failed action keeps it on screen.
func FormatterPage(v FormatterView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		s := v.State
		tab := strings.ToUpper(string(s.Tab))

		w.raw(`<div class="flex items-center justify-between mb-6"><h1 class="text-3xl font-bold">JSON/YAML Formatter</h1><a href="/formatter/manual" class="text-sm underline">User manual</a></div>`)
		w.raw(`<form method="post" action="/formatter" class="grid gap-6 lg:grid-cols-2">`)
		w.rawf(`<input type="hidden" name="output" value="%s"><input type="hidden" name="output_format" value="%s">`,
			e(s.Output), e(string(s.OutputFormat)))

		w.raw(`<section class="space-y-3">`)
		w.raw(`<div class="flex gap-2" role="tablist">`)
		for _, f := range []formatter.Format{formatter.JSON, formatter.YAML} {
			w.rawf(`<label class="tab rounded px-3 py-1 text-sm border border-white/10"><input type="radio" name="tab" value="%s"%s> %s</label>`,
				f, checked(s.Tab == f), strings.ToUpper(string(f)))
		}
		w.raw(`</div>`)
		w.rawf(`<p class="text-sm text-slate-400">Paste or upload your %s data</p>`, e(tab))
		w.rawf(`<textarea name="input" rows="18" spellcheck="false" class="w-full bg-slate-900 rounded p-2 font-mono text-sm">%s</textarea>`, e(s.Input))
		errorBox(w, s.Error, s.ErrorLine, s.ErrorColumn, nil)

		w.raw(`<div class="flex flex-wrap items-center gap-3 text-sm"><label>Indent <select name="indent" class="bg-slate-900 rounded">`)
		for _, n := range formatter.IndentChoices {
			w.rawf(`<option value="%d"%s>%d</option>`, n, selected(s.Indent == n), n)
		}
		w.raw(`</select></label>`)
		w.raw(`<label>YAML <select name="dialect" class="bg-slate-900 rounded">`)
		w.rawf(`<option value="1.2"%s>1.2</option><option value="1.1"%s>1.1</option></select></label>`,
			selected(s.Dialect != formatter.YAML11), selected(s.Dialect == formatter.YAML11))
		for _, a := range formatterActions {
			w.rawf(`<button type="submit" name="op" value="%s" class="rounded bg-slate-800 px-3 py-1">%s</button>`, a.op, a.label)
		}
		w.raw(`</div>`)

		w.raw(`<div class="flex gap-2 text-sm">`)
		w.rawf(`<input name="url" type="url" value="%s" placeholder="https://example.com/data.json" class="flex-1 bg-slate-900 rounded px-2 py-1">`, e(v.FetchURL))
		label := "Fetch"
		if v.FetchBusy {
			label = "Fetching..."
		}
		w.rawf(`<button id="fetch-button" type="submit" name="op" value="fetch" class="rounded bg-slate-800 px-3 py-1 disabled:opacity-50"%s>%s</button></div>`,
			disabled(v.FetchBusy), label)
		errorBox(w, v.FetchError, 0, 0, nil)
		w.raw(`</section>`)

		w.raw(`<section class="space-y-3">`)
		outTab := strings.ToUpper(string(s.OutputFormat))
		w.rawf(`<h2 class="text-lg font-semibold">Formatted and validated %s</h2>`, e(outTab))
		switch {
		case v.OutputHTML != "":
			w.rawf(`<div id="output" class="rounded text-sm">%s</div>`, v.OutputHTML)
		default:
			w.rawf(`<pre id="output" class="rounded bg-slate-900 p-3 font-mono text-sm">%s</pre>`, e(s.Output))
		}
		if s.Output != "" {
			w.rawf(`<button type="button" data-copy="%s" class="rounded bg-slate-800 px-3 py-1 text-sm">Copy</button>`, e(s.Output))
			w.rawf(` <a download="%s" href="data:%s,%s" class="text-sm underline">Download</a>`,
				e(formatter.DownloadName(s.OutputFormat)), e(formatter.ContentType(s.OutputFormat)), e(dataURI(s.Output)))
		}
		if v.Diff != nil && v.Diff.Changed() {
			w.rawf(`<details class="text-sm"><summary>Changes (+%d / -%d)</summary><pre class="diff font-mono">`, v.Diff.Added, v.Diff.Removed)
			for _, c := range v.Diff.Changes {
				prefix, class := "  ", "text-slate-400"
				switch c.Kind {
				case formatter.ChangeInsert:
					prefix, class = "+ ", "text-green-400"
				case formatter.ChangeDelete:
					prefix, class = "- ", "text-red-400"
				}
				for _, line := range c.Lines {
					w.rawf(`<span class="%s">%s%s</span>`+"\n", class, prefix, e(line))
				}
			}
			w.raw(`</pre></details>`)
		}
		w.raw(`</section></form>`)
		w.raw(fetchGuardScript)

		return w.err
	})
}

// fetchGuardScript disables the fetch button once its submit starts, so a
// second click cannot overlap the request in flight.
const fetchGuardScript = `<script>
document.addEventListener("submit", function (ev) {
  var b = ev.submitter;
  if (!b || b.id !== "fetch-button") return;
  setTimeout(function () { b.disabled = true; b.textContent = "Fetching..."; }, 0);
});
</script>`

// dataURI percent-encodes the characters a data: URL cannot carry raw.
func dataURI(s string) string {
	r := strings.NewReplacer("%", "%25", "#", "%23", "\n", "%0A", "\"", "%22")

	return r.Replace(s)
}
