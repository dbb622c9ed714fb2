package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/devkitlanka/devkit/internal/errors"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// RenderMarkdown converts markdown to HTML. Raw HTML in the source is
// dropped.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", errors.WrapInternal(err, errors.ErrCodeInternalError, "render markdown")
	}

	return buf.String(), nil
}

// Markdown renders src as a page body.
func Markdown(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		html, err := RenderMarkdown(src)
		if err != nil {
			return err
		}
		w := &writer{w: out}
		w.raw(`<article class="manual prose prose-invert max-w-3xl">`, html, `</article>`)

		return w.err
	})
}
