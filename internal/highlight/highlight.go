// Package highlight colours source text for the web pages and the terminal.
package highlight

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/devkitlanka/devkit/internal/errors"
)

// DefaultStyle is used when no style is configured.
const DefaultStyle = "monokai"

// Highlighter renders tokens with one chroma style.
type Highlighter struct {
	style    *chroma.Style
	html     *chromahtml.Formatter
	terminal chroma.Formatter
}

// New creates a highlighter. Unknown style names fall back to DefaultStyle.
func New(style string) *Highlighter {
	s := styles.Get(style)
	if s == nil || (s == styles.Fallback && style != DefaultStyle) {
		s = styles.Get(DefaultStyle)
	}

	terminal := formatters.Get("terminal256")
	if terminal == nil {
		terminal = formatters.Fallback
	}

	return &Highlighter{
		style:    s,
		html:     chromahtml.New(chromahtml.TabWidth(2), chromahtml.WithLineNumbers(false)),
		terminal: terminal,
	}
}

// StyleName returns the active style.
func (h *Highlighter) StyleName() string {
	return h.style.Name
}

// Language names the lexer chosen for filename, or "plaintext".
func Language(filename string) string {
	l := lexerFor(filename, "")
	if l.Config().Name == lexers.Fallback.Config().Name {
		return "plaintext"
	}

	return strings.ToLower(l.Config().Name)
}

func lexerFor(filename, text string) chroma.Lexer {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	// .env.example and friends
	if strings.HasPrefix(base, ".env") {
		if l := lexers.Get("bash"); l != nil {
			return l
		}
	}

	l := lexers.Match(base)
	if l == nil && text != "" {
		l = lexers.Analyse(text)
	}
	if l == nil {
		l = lexers.Fallback
	}

	return chroma.Coalesce(l)
}

// HTML renders text as a <pre> block with inline colours. The lexer is
// picked from filename, then from the content.
func (h *Highlighter) HTML(filename, text string) (string, error) {
	return h.render(h.html, filename, text)
}

// Terminal renders text with 256-colour escape sequences.
func (h *Highlighter) Terminal(filename, text string) (string, error) {
	return h.render(h.terminal, filename, text)
}

func (h *Highlighter) render(f chroma.Formatter, filename, text string) (string, error) {
	it, err := lexerFor(filename, text).Tokenise(nil, text)
	if err != nil {
		return "", errors.WrapInternal(err, errors.ErrCodeInternalError, "tokenise "+filename)
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, h.style, it); err != nil {
		return "", errors.WrapInternal(err, errors.ErrCodeInternalError, "highlight "+filename)
	}

	return buf.String(), nil
}

// Styles lists the available style names.
func Styles() []string {
	return styles.Names()
}
