package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/formatter"
	"github.com/devkitlanka/devkit/internal/regex"
	"github.com/devkitlanka/devkit/internal/scaffolding"
)

// maxBodyBytes bounds JSON request bodies that carry no document.
const maxBodyBytes = 64 << 10

// apiError is the body of every failed API call.
type apiError struct {
	Type        string   `json:"type"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status. Tool errors the user can fix
// are 422.
func statusFor(err error) int {
	var de *errors.DevkitError
	if !stderrors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Type {
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypePatternSyntax, errors.ErrorTypeFormatParse,
		errors.ErrorTypeNetwork, errors.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, statusFor(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.errors.Handle(r.Context(), err)
	writeJSON(w, status, errorBody{Error: toAPIError(err)})
}

func toAPIError(err error) apiError {
	var de *errors.DevkitError
	if !stderrors.As(err, &de) {
		return apiError{Type: string(errors.ErrorTypeInternal), Code: errors.ErrCodeInternalError, Message: "internal error"}
	}
	if de.Type == errors.ErrorTypeInternal || de.Type == errors.ErrorTypeIO {
		return apiError{Type: string(de.Type), Code: de.Code, Message: de.Message}
	}

	return apiError{
		Type:        string(de.Type),
		Code:        de.Code,
		Message:     de.Message,
		Line:        de.Line,
		Column:      de.Column,
		Suggestions: de.Hints,
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.InputTooLarge(tooLarge.Limit+1, tooLarge.Limit)
		}

		return errors.WrapValidation(err, errors.ErrCodeValidationFailed, "invalid JSON request body")
	}

	return nil
}

func (s *Server) documentLimit() int64 {
	if s.config.Formatter.MaxInputBytes > 0 {
		// room for the JSON envelope and escaping
		return 2*s.config.Formatter.MaxInputBytes + maxBodyBytes
	}

	return 64 << 20
}

// regexRequest is shared by the JSON API and the websocket.
type regexRequest struct {
	Pattern     string  `json:"pattern"`
	Text        string  `json:"text"`
	Flags       string  `json:"flags"`
	Replacement *string `json:"replacement,omitempty"`
}

type regexResponse struct {
	*regex.Result
	Count        int                 `json:"count"`
	HTML         string              `json:"html"`
	Substitution *regex.Substitution `json:"substitution,omitempty"`
}

func (s *Server) evaluateRegex(ctx context.Context, req regexRequest) (*regexResponse, error) {
	flags, err := regex.ParseFlags(req.Flags)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluator.Evaluate(ctx, req.Pattern, req.Text, flags)
	if err != nil {
		return nil, err
	}
	html, err := regex.Compose(req.Text, res.Matches)
	if err != nil {
		return nil, err
	}

	out := &regexResponse{Result: res, Count: res.Count(), HTML: html}
	if req.Replacement != nil {
		sub, err := s.evaluator.Replace(ctx, req.Pattern, req.Text, *req.Replacement, flags)
		if err != nil {
			return nil, err
		}
		out.Substitution = sub
	}

	return out, nil
}

func (s *Server) handleRegexAPI(w http.ResponseWriter, r *http.Request) {
	var req regexRequest
	if err := decodeJSON(w, r, int64(s.config.Regex.MaxSubjectLen)*2+maxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	res, err := s.evaluateRegex(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	writeJSON(w, http.StatusOK, res)
}

type formatRequest struct {
	formatter.Request
	// Diff adds the line changes between input and output.
	Diff bool `json:"diff,omitempty"`
}

type formatResponse struct {
	*formatter.Result
	Diff *formatter.LineDiff `json:"diff,omitempty"`
}

func (s *Server) handleFormatAPI(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := decodeJSON(w, r, s.documentLimit(), &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	if req.From == "" {
		req.From = formatter.Detect(req.Input)
	}
	op, err := formatter.ParseOperation(string(req.Operation))
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	req.Operation = op

	res, err := s.converter.Process(r.Context(), req.Request)
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	out := formatResponse{Result: res}
	if req.Diff {
		out.Diff = formatter.Diff(req.Input, res.Output)
	}
	writeJSON(w, http.StatusOK, out)
}

type fetchRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFetchAPI(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	res, err := s.fetchers.fetch(r.Context(), getClientIP(r), req.URL)
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTemplatesAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": s.registry.Catalogue(),
		"defaults": scaffolding.ProjectConfig{
			Name:        s.config.Generator.DefaultName,
			Description: s.config.Generator.DefaultDescription,
		},
	})
}

type generateRequest struct {
	Template    string   `json:"template"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Addons      []string `json:"addons"`
}

func (s *Server) generate(req generateRequest) (*scaffolding.FileSet, error) {
	cfg := scaffolding.ProjectConfig{Name: req.Name, Description: req.Description}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = s.config.Generator.DefaultName
	}
	if cfg.Description == "" {
		cfg.Description = s.config.Generator.DefaultDescription
	}

	return s.registry.Generate(req.Template, cfg, req.Addons)
}

func (s *Server) handleGenerateAPI(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	fs, err := s.generate(req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": fs.Template,
		"project":  fs.Project,
		"addons":   fs.Addons,
		"files":    fs.Map(),
		"paths":    fs.Paths(),
	})
}

func (s *Server) handleZip(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fs, err := s.generate(generateRequest{
		Template:    q.Get("template"),
		Name:        q.Get("name"),
		Description: q.Get("description"),
		Addons:      q["addon"],
	})
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	if fs.Empty() {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeValidationFailed, "select a template to download").
			WithHints("pass ?template=<id>"))

		return
	}

	var buf bytes.Buffer
	if err := fs.Zip(&buf); err != nil {
		s.writeError(w, r, err)

		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fs.ArchiveName()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

type sheetSummary struct {
	ID          string                `json:"id"`
	Label       string                `json:"label"`
	Icon        string                `json:"icon,omitempty"`
	Description string                `json:"description,omitempty"`
	Language    string                `json:"language"`
	Entries     int                   `json:"entries"`
	Categories  []cheatsheet.Category `json:"categories"`
	Source      string                `json:"source"`
}

func summarize(sh *cheatsheet.Sheet) sheetSummary {
	return sheetSummary{
		ID:          sh.ID,
		Label:       sh.Label,
		Icon:        sh.Icon,
		Description: sh.Description,
		Language:    sh.Language,
		Entries:     len(sh.Entries),
		Categories:  cheatsheet.Categories(sh),
		Source:      sh.Source,
	}
}

func (s *Server) handleCheatsheetsAPI(w http.ResponseWriter, r *http.Request) {
	sheets := s.sheets.Sheets()
	out := make([]sheetSummary, len(sheets))
	for i, sh := range sheets {
		out[i] = summarize(sh)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sheets":   out,
		"loadedAt": s.sheets.LoadedAt().UTC(),
	})
}

func (s *Server) handleCheatsheetAPI(w http.ResponseWriter, r *http.Request) {
	sh, err := s.sheets.Sheet(r.PathValue("sheet"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	q := r.URL.Query()
	category := q.Get("category")
	if !cheatsheet.HasCategory(sh, category) {
		s.writeError(w, r, errors.InvalidOption("category", category, categoryNames(sh)...))

		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sheet":   summarize(sh),
		"query":   q.Get("q"),
		"entries": cheatsheet.Filter(sh, q.Get("q"), category),
	})
}

func categoryNames(sh *cheatsheet.Sheet) []string {
	cats := cheatsheet.Categories(sh)
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}

	return names
}

func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, repo := q.Get("owner"), q.Get("repo")
	if owner == "" {
		owner = s.config.GitHub.Owner
	}
	if repo == "" {
		repo = s.config.GitHub.Repo
	}

	stars, err := s.stars.Stars(r.Context(), owner, repo)
	if err != nil {
		if errors.IsNetworkError(err) {
			s.errors.Handle(r.Context(), err)
			writeJSON(w, http.StatusOK, map[string]interface{}{"stargazers_count": 0, "error": "GitHub: unreachable"})

			return
		}
		s.writeError(w, r, err)

		return
	}
	writeJSON(w, http.StatusOK, stars)
}
