package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// printer writes command results in the format chosen with --output.
type printer struct {
	w      io.Writer
	format string
	quiet  bool
	style  styles
}

type styles struct {
	header  lipgloss.Style
	title   lipgloss.Style
	match   lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
}

func newPrinter(w io.Writer, flags *StandardFlags) *printer {
	r := lipgloss.NewRenderer(w)

	return &printer{
		w:      w,
		format: flags.OutputFormat,
		quiet:  flags.Quiet,
		style: styles{
			header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			title:   r.NewStyle().Bold(true),
			match:   r.NewStyle().Background(lipgloss.Color("11")).Foreground(lipgloss.Color("0")),
			dim:     r.NewStyle().Faint(true),
			success: r.NewStyle().Foreground(lipgloss.Color("10")),
			warn:    r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// structured reports whether the output format is json or yaml.
func (p *printer) structured() bool {
	return p.format == "json" || p.format == "yaml"
}

// encode writes v as JSON or YAML.
func (p *printer) encode(v interface{}) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("unsupported output format: %s", p.format)
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(args ...interface{}) {
	fmt.Fprintln(p.w, args...)
}

// heading prints a bold line unless --quiet is set.
func (p *printer) heading(text string) {
	if p.quiet {
		return
	}
	p.println(p.style.title.Render(text))
}

// table prints rows in aligned columns. Widths are measured in terminal
// cells so Sinhala text lines up.
func (p *printer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	if !p.quiet {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = p.style.header.Render(runewidth.FillRight(h, widths[i]))
		}
		p.println(strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		p.println(strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}
