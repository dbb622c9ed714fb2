package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/formatter"
	"github.com/devkitlanka/devkit/internal/i18n"
	"github.com/devkitlanka/devkit/internal/regex"
	"github.com/devkitlanka/devkit/internal/views"
)

// render writes a full page. The star count is looked up with a short
// deadline and left out when GitHub is slow or unreachable.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, title, page string, body templ.Component) {
	nav := views.Nav{Active: page, Lang: s.language(r), Stars: s.starCount(r.Context())}
	templ.Handler(views.Layout(title, nav, body), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (s *Server) starCount(ctx context.Context) *int {
	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	st, err := s.stars.Stars(ctx, s.config.GitHub.Owner, s.config.GitHub.Repo)
	if err != nil || st.Error != "" {
		return nil
	}

	return &st.Count
}

// language picks ?lang, then Accept-Language, then the configured default.
func (s *Server) language(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" && i18n.IsSupported(l) {
		return i18n.Normalize(l)
	}
	if h := r.Header.Get("Accept-Language"); h != "" {
		return i18n.Match(h)
	}

	return i18n.Normalize(s.config.Cheatsheets.Language)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, http.StatusText(status), "", views.ErrorPage(status, msg))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.writeErrorStatus(w, r, http.StatusNotFound,
			errors.NewNotFoundError(errors.ErrCodeRouteNotFound, "no such endpoint: "+r.URL.Path))

		return
	}
	s.renderError(w, r, http.StatusNotFound, "The page "+r.URL.Path+" does not exist.")
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "DevKit", views.PageHome, views.Home())
}

func (s *Server) handleRegexPage(w http.ResponseWriter, r *http.Request) {
	v := views.RegexView{
		Pattern:  regex.DefaultPattern,
		Subject:  regex.DefaultSubject,
		Flags:    regex.DefaultFlags,
		Patterns: regex.CommonPatterns(),
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "Malformed form data.")

			return
		}
		v.Pattern = r.PostForm.Get("pattern")
		if p := r.PostForm.Get("use_pattern"); p != "" {
			v.Pattern = p
		}
		v.Subject = r.PostForm.Get("text")
		v.Replacement = r.PostForm.Get("replacement")
		f, err := regex.ParseFlags(strings.Join(r.PostForm["flag"], ""))
		if err != nil {
			v.Error = err.Error()
		}
		v.Flags = f
		if r.PostForm.Has("last_pattern") {
			lf, _ := regex.ParseFlags(r.PostForm.Get("last_flags"))
			v.LastGood = &views.RegexQuery{Pattern: r.PostForm.Get("last_pattern"), Flags: lf}
		}
	} else {
		q := r.URL.Query()
		if q.Has("pattern") {
			v.Pattern = q.Get("pattern")
		}
		if q.Has("text") {
			v.Subject = q.Get("text")
		}
		if q.Has("flags") {
			f, err := regex.ParseFlags(q.Get("flags"))
			if err != nil {
				v.Error = err.Error()
			}
			v.Flags = f
		}
		v.Replacement = q.Get("replacement")
	}

	if v.Error == "" {
		res, err := s.evaluateRegex(r.Context(), regexRequestFor(v, v.Pattern, v.Flags))
		if err != nil {
			v.Error, v.Hints = describe(err)
		} else {
			v.Result, v.Substitution = res.Result, res.Substitution
			v.LastGood = &views.RegexQuery{Pattern: v.Pattern, Flags: v.Flags}
		}
	}
	// A failed edit keeps the marks of the last pattern that compiled.
	if v.Error != "" && v.LastGood != nil {
		if res, err := s.evaluateRegex(r.Context(), regexRequestFor(v, v.LastGood.Pattern, v.LastGood.Flags)); err == nil {
			v.Result, v.Substitution = res.Result, res.Substitution
		}
	}

	s.render(w, r, http.StatusOK, "Regex Tester", views.PageRegex, views.RegexPage(v))
}

func regexRequestFor(v views.RegexView, pattern string, flags regex.Flags) regexRequest {
	req := regexRequest{Pattern: pattern, Text: v.Subject, Flags: flags.String()}
	if v.Replacement != "" {
		req.Replacement = &v.Replacement
	}

	return req
}

// describe splits an error into the message and hints shown on a page.
func describe(err error) (string, []string) {
	var de *errors.DevkitError
	if stderrors.As(err, &de) {
		return de.Message, de.Hints
	}

	return err.Error(), nil
}

func (s *Server) handleFormatterPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sess := formatter.NewSession(s.converter)
		s.renderFormatter(w, r, views.FormatterView{State: sess.State()})

		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.documentLimit())
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusRequestEntityTooLarge, "The document is too large.")

		return
	}
	f := r.PostForm
	indent, _ := strconv.Atoi(f.Get("indent"))
	sess := formatter.RestoreSession(s.converter, formatter.SessionState{
		Input:        f.Get("input"),
		Tab:          formatter.Format(f.Get("tab")),
		Indent:       indent,
		Dialect:      formatter.Dialect(f.Get("dialect")),
		Output:       f.Get("output"),
		OutputFormat: formatter.Format(f.Get("output_format")),
	})

	v := views.FormatterView{FetchURL: f.Get("url")}
	op := f.Get("op")
	switch op {
	case "sample":
		sess.LoadSample()
	case "clear":
		sess.Clear()
	case "fetch":
		if res := s.limiter.Check(getClientIP(r)); !res.Allowed {
			v.FetchError = "Too many fetches, try again shortly."

			break
		}
		res, err := s.fetchers.fetch(r.Context(), getClientIP(r), v.FetchURL)
		if err != nil {
			v.FetchError, _ = describe(err)

			break
		}
		sess.Load(res.URL, res.Body)
	default:
		operation, err := formatter.ParseOperation(op)
		if err != nil {
			operation = formatter.OpFormat
		}
		before := sess.State().Input
		state, err := sess.Apply(r.Context(), operation)
		if err == nil && operation != formatter.OpConvert {
			v.Diff = formatter.Diff(before, state.Output)
		}
	}

	v.State = sess.State()
	s.renderFormatter(w, r, v)
}

func (s *Server) renderFormatter(w http.ResponseWriter, r *http.Request, v views.FormatterView) {
	v.FetchBusy = s.fetchers.busy(getClientIP(r))
	if v.State.Output != "" {
		html, err := s.highlighter.HTML(formatter.DownloadName(v.State.OutputFormat), v.State.Output)
		if err == nil {
			v.OutputHTML = html
		}
	}
	s.render(w, r, http.StatusOK, "JSON/YAML Formatter", views.PageFormatter, views.FormatterPage(v))
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "Formatter Manual", views.PageFormatter, views.Markdown(formatter.Manual()))
}

func (s *Server) handleBoilerplatePage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Malformed form data.")

		return
	}
	f := r.Form

	v := views.BoilerplateView{
		Catalogue: s.registry.Catalogue(),
		Selected:  f.Get("template"),
		Addons:    make(map[string]bool),
	}
	v.Project.Name = f.Get("name")
	if strings.TrimSpace(v.Project.Name) == "" {
		v.Project.Name = s.config.Generator.DefaultName
	}
	v.Project.Description = f.Get("description")
	if !f.Has("description") {
		v.Project.Description = s.config.Generator.DefaultDescription
	}

	if v.Selected != "" {
		fs, err := s.generate(generateRequest{
			Template:    v.Selected,
			Name:        v.Project.Name,
			Description: v.Project.Description,
			Addons:      f["addon"],
		})
		if err != nil {
			v.Error, _ = describe(err)
		} else {
			v.Files = fs
			for _, id := range fs.Addons {
				v.Addons[id] = true
			}
			v.ActivePath = fs.Active(f.Get("file"))
			if file, ok := fs.Get(v.ActivePath); ok {
				if html, err := s.highlighter.HTML(file.Path, file.Content); err == nil {
					v.ActiveHTML = html
				}
			}
		}
	}

	s.render(w, r, http.StatusOK, "Boilerplate Generator", views.PageBoilerplate, views.BoilerplatePage(v))
}

func (s *Server) handleCheatsheetPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sheet := s.sheets.First()
	if id := q.Get("sheet"); id != "" {
		sh, err := s.sheets.Sheet(id)
		if err != nil {
			s.renderError(w, r, http.StatusNotFound, "Unknown cheat sheet "+id+".")

			return
		}
		sheet = sh
	}
	if sheet == nil {
		s.renderError(w, r, http.StatusNotFound, "No cheat sheets are loaded.")

		return
	}

	category := q.Get("category")
	if !cheatsheet.HasCategory(sheet, category) || category == "" {
		category = cheatsheet.AllCategories
	}

	v := views.CheatsheetView{
		Sheets:     s.sheets.Sheets(),
		Sheet:      sheet,
		Query:      q.Get("q"),
		Category:   category,
		Categories: cheatsheet.Categories(sheet),
		Entries:    cheatsheet.Filter(sheet, q.Get("q"), category),
		Lang:       s.language(r),
	}
	s.render(w, r, http.StatusOK, "Cheat Sheets", views.PageCheatsheets, views.CheatsheetPage(v))
}
