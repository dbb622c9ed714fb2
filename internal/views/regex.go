package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/regex"
)

// RegexView is the state of the regex playground.
type RegexView struct {
	Pattern     string
	Subject     string
	Flags       regex.Flags
	Replacement string
	Result      *regex.Result
	// Substitution is set when a replacement was given.
	Substitution *regex.Substitution
	Error        string
	Hints        []string
	Patterns     []regex.CommonPattern
	// LastGood is the last pattern that compiled. It rides along in hidden
	// fields so a failed edit can still show its marks.
	LastGood *RegexQuery
}

// RegexQuery is a pattern with its flags.
type RegexQuery struct {
	Pattern string
	Flags   regex.Flags
}

var flagLabels = []struct {
	letter string
	label  string
	get    func(regex.Flags) bool
}{
	{"g", "global", func(f regex.Flags) bool { return f.Global }},
	{"i", "ignore case", func(f regex.Flags) bool { return f.IgnoreCase }},
	{"m", "multiline", func(f regex.Flags) bool { return f.Multiline }},
	{"s", "dot all", func(f regex.Flags) bool { return f.DotAll }},
	{"u", "unicode", func(f regex.Flags) bool { return f.Unicode }},
	{"y", "sticky", func(f regex.Flags) bool { return f.Sticky }},
}

// RegexPage renders the playground. When Error is set, Result holds the
// matches of LastGood against the current subject so the previous marks
// stay visible next to the error.
func RegexPage(v RegexView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}

		w.raw(`<h1 class="text-3xl font-bold mb-6">Regex Playground</h1>`)
		w.raw(`<form id="regex-form" method="post" action="/regex" class="grid gap-6 lg:grid-cols-2">`)

		w.raw(`<section class="space-y-4">`)
		w.raw(`<label class="block text-sm font-medium">Regular Expression`)
		w.rawf(`<div class="flex items-center mt-1 font-mono"><span class="text-slate-500">/</span><input name="pattern" value="%s" placeholder="Enter your regex pattern" class="flex-1 bg-slate-900 rounded px-2 py-1"><span class="text-slate-500">/<span id="flag-letters">%s</span></span></div></label>`,
			e(v.Pattern), e(v.Flags.String()))
		errorBox(w, v.Error, 0, 0, v.Hints)
		if v.LastGood != nil {
			w.rawf(`<input type="hidden" name="last_pattern" value="%s"><input type="hidden" name="last_flags" value="%s">`,
				e(v.LastGood.Pattern), e(v.LastGood.Flags.String()))
		}

		w.raw(`<fieldset><legend class="text-sm font-medium mb-1">Flags</legend><div class="flex flex-wrap gap-3 text-sm">`)
		for _, f := range flagLabels {
			w.rawf(`<label><input type="checkbox" name="flag" value="%s"%s> <code>%s</code> %s</label>`,
				f.letter, checked(f.get(v.Flags)), f.letter, f.label)
		}
		w.raw(`</div></fieldset>`)

		w.rawf(`<label class="block text-sm font-medium">Test String<textarea name="text" rows="8" placeholder="Enter text to test against your pattern" class="w-full mt-1 bg-slate-900 rounded p-2 font-mono">%s</textarea></label>`,
			e(v.Subject))
		w.rawf(`<label class="block text-sm font-medium">Replacement<input name="replacement" value="%s" placeholder="$1, $<name>, $&amp;" class="w-full mt-1 bg-slate-900 rounded px-2 py-1 font-mono"></label>`,
			e(v.Replacement))
		w.raw(`<button type="submit" class="rounded bg-blue-600 px-4 py-2 text-sm">Test</button>`)

		w.raw(`<div><p class="text-sm text-slate-400 mb-2">Click to use these frequently used regex patterns</p><div class="flex flex-wrap gap-2">`)
		for _, p := range v.Patterns {
			w.rawf(`<button type="submit" name="use_pattern" value="%s" class="common-pattern rounded border border-white/10 px-2 py-1 text-xs" title="%s">%s</button>`,
				e(p.Pattern), e(p.Pattern), e(p.Name))
		}
		w.raw(`</div></div></section>`)

		w.raw(`<section class="space-y-4">`)
		renderRegexResult(w, v)
		w.raw(`</section></form>`)

		w.raw(liveRegexScript)

		return w.err
	})
}

func renderRegexResult(w *writer, v RegexView) {
	count := v.Result.Count()
	w.rawf(`<h2 class="text-lg font-semibold">Match Details <span id="match-count" class="text-sm text-slate-400">(%d)</span></h2>`, count)

	highlighted := e(v.Subject)
	if v.Result != nil {
		if h, err := regex.Compose(v.Subject, v.Result.Matches); err == nil {
			highlighted = h
		}
	}
	w.rawf(`<pre id="highlighted" class="whitespace-pre-wrap rounded bg-slate-900 p-3 font-mono text-sm">%s</pre>`, highlighted)

	if v.Substitution != nil {
		w.rawf(`<div><h3 class="text-sm font-medium">Substitution <span class="text-slate-400">(%d replaced)</span></h3><pre id="substitution" class="whitespace-pre-wrap rounded bg-slate-900 p-3 font-mono text-sm">%s</pre></div>`,
			v.Substitution.Replaced, e(v.Substitution.Output))
	}

	w.raw(`<div id="matches">`)
	if count == 0 {
		w.raw(`<p class="text-slate-400">No matches found</p>`)
	} else {
		w.raw(`<ol class="space-y-2">`)
		for i, m := range v.Result.Matches {
			w.rawf(`<li class="rounded border border-white/10 p-2 text-sm"><span class="text-slate-400">#%d at %d-%d</span> <code>%s</code>`,
				i+1, m.Index, m.End, e(m.Text))
			if len(m.Groups) > 0 {
				w.raw(`<div class="mt-1 text-xs text-slate-400">Capture Groups:<ul>`)
				for gi, g := range m.Groups {
					name := "$" + strconv.Itoa(gi+1)
					if g.Name != "" {
						name += " (" + g.Name + ")"
					}
					value := `<em>unmatched</em>`
					if g.Matched {
						value = "<code>" + e(g.Text) + "</code>"
					}
					w.rawf(`<li>%s: %s</li>`, e(name), value)
				}
				w.raw(`</ul></div>`)
			}
			w.raw(`</li>`)
		}
		w.raw(`</ol>`)
	}
	if v.Result != nil && v.Result.Truncated {
		w.raw(`<p class="text-xs text-amber-400">Match list truncated.</p>`)
	}
	w.raw(`</div>`)
}

// liveRegexScript re-evaluates over the websocket on every edit and falls
// back to the form when the socket is unavailable.
const liveRegexScript = `<script>
(function () {
  var form = document.getElementById("regex-form");
  if (!form || !window.WebSocket) return;
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws/regex");
  function flags() {
    return Array.prototype.map.call(form.querySelectorAll("input[name=flag]:checked"), function (c) { return c.value; }).join("");
  }
  var seq = 0;
  function send() {
    if (ws.readyState !== 1) return;
    ws.send(JSON.stringify({
      seq: ++seq,
      pattern: form.pattern.value,
      text: form.text.value,
      flags: flags(),
      replacement: form.replacement.value
    }));
  }
  ws.onmessage = function (ev) {
    var r = JSON.parse(ev.data);
    if (r.seq && r.seq < seq) return;
    document.getElementById("flag-letters").textContent = flags();
    var box = form.querySelector(".error-box");
    if (box) box.remove();
    if (r.error) {
      var div = document.createElement("div");
      div.className = "error-box text-sm text-red-300";
      div.setAttribute("role", "alert");
      div.textContent = r.error.message;
      form.pattern.parentNode.after(div);
      return;
    }
    document.getElementById("highlighted").innerHTML = r.html;
    document.getElementById("match-count").textContent = "(" + r.count + ")";
    var sub = document.getElementById("substitution");
    if (sub && r.substitution) sub.textContent = r.substitution.output;
  };
  form.addEventListener("input", send);
})();
</script>`
