// Package tui is the interactive cheat-sheet browser behind
// `devkit cheatsheet --tui`.
package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/i18n"
)

// Options configure the browser.
type Options struct {
	// Sheet is the sheet shown first; empty means the first sheet.
	Sheet string
	Query string
	Lang  string
	// Copy replaces the system clipboard, mainly for tests.
	Copy func(string) error
}

// Model is the bubbletea model of the browser.
type Model struct {
	repo   *cheatsheet.Repository
	sheets []*cheatsheet.Sheet
	sheet  int

	categories []cheatsheet.Category
	category   int
	entries    []cheatsheet.Entry
	cursor     int

	search    textinput.Model
	searching bool
	viewport  viewport.Model
	// offsets[i] is the first viewport line of entry i.
	offsets []int

	tr     i18n.Translator
	copy   func(string) error
	status string

	width  int
	height int
	ready  bool
}

// New builds a browser over the repository's current sheets.
func New(repo *cheatsheet.Repository, opts Options) (*Model, error) {
	sheets := repo.Sheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no cheat sheets loaded")
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.SetValue(opts.Query)

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := &Model{
		repo:     repo,
		sheets:   sheets,
		search:   ti,
		viewport: viewport.New(80, 20),
		tr:       i18n.New(opts.Lang),
		copy:     copyFn,
		width:    80,
		height:   24,
	}
	m.search.Placeholder = m.tr.T("cheatsheet.search")

	if opts.Sheet != "" {
		if _, err := repo.Sheet(opts.Sheet); err != nil {
			return nil, err
		}
		for i, s := range sheets {
			if s.ID == opts.Sheet {
				m.sheet = i
			}
		}
	}
	m.selectSheet(m.sheet)

	return m, nil
}

// Run shows the browser until the user quits or ctx is done.
func Run(ctx context.Context, repo *cheatsheet.Repository, opts Options) error {
	m, err := New(repo, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()

	return err
}

// Sheet returns the sheet on screen.
func (m *Model) Sheet() *cheatsheet.Sheet {
	return m.sheets[m.sheet]
}

// Category returns the selected category name.
func (m *Model) Category() string {
	return m.categories[m.category].Name
}

// Entries returns the entries that pass the current filter.
func (m *Model) Entries() []cheatsheet.Entry {
	return m.entries
}

// Selected returns the entry under the cursor.
func (m *Model) Selected() (cheatsheet.Entry, bool) {
	if len(m.entries) == 0 {
		return cheatsheet.Entry{}, false
	}

	return m.entries[m.cursor], true
}

// Status returns the last status line.
func (m *Model) Status() string {
	return m.status
}

func (m *Model) selectSheet(i int) {
	n := len(m.sheets)
	m.sheet = ((i % n) + n) % n
	m.categories = cheatsheet.Categories(m.Sheet())
	m.category = 0
	m.refilter()
}

func (m *Model) selectCategory(i int) {
	n := len(m.categories)
	m.category = ((i % n) + n) % n
	m.refilter()
}

func (m *Model) refilter() {
	m.entries = cheatsheet.Filter(m.Sheet(), m.search.Value(), m.Category())
	m.cursor = 0
	m.viewport.GotoTop()
	m.refresh()
}

func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	m.refresh()
}

// refresh re-renders the entry list and keeps the cursor on screen.
func (m *Model) refresh() {
	content, offsets := m.renderEntries()
	m.offsets = offsets
	m.viewport.SetContent(content)

	if len(offsets) == 0 {
		return
	}
	top := offsets[m.cursor]
	bottom := m.viewport.TotalLineCount()
	if m.cursor+1 < len(offsets) {
		bottom = offsets[m.cursor+1]
	}
	switch {
	case top < m.viewport.YOffset:
		m.viewport.SetYOffset(top)
	case bottom > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m *Model) copySelected() {
	e, ok := m.Selected()
	if !ok {
		return
	}
	text := e.CopyText()
	if err := m.copy(text); err != nil {
		m.status = m.tr.T("cheatsheet.copy_failed", err.Error())

		return
	}
	m.status = m.tr.T("cheatsheet.copied") + " " + text
}

func (m *Model) toggleLanguage() {
	if m.tr.Lang == i18n.Sinhala {
		m.tr = i18n.New(i18n.English)
	} else {
		m.tr = i18n.New(i18n.Sinhala)
	}
	m.search.Placeholder = m.tr.T("cheatsheet.search")
	m.refresh()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.search.Width = msg.Width - 4
		m.viewport.Width = msg.Width
		m.viewport.Height = m.listHeight()
		m.refresh()

		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter, tea.KeyEsc, tea.KeyDown:
		m.searching = false
		m.search.Blur()

		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.refilter()
	}

	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true

		return m, m.search.Focus()
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refilter()
		}
	case "tab", "right", "l":
		m.selectSheet(m.sheet + 1)
	case "shift+tab", "left", "h":
		m.selectSheet(m.sheet - 1)
	case "c":
		m.selectCategory(m.category + 1)
	case "C":
		m.selectCategory(m.category - 1)
	case "down", "j":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-1)
	case "pgdown":
		m.moveCursor(5)
	case "pgup":
		m.moveCursor(-5)
	case "home", "g":
		m.moveCursor(-len(m.entries))
	case "end", "G":
		m.moveCursor(len(m.entries))
	case "enter", "y":
		m.copySelected()
	case "L":
		m.toggleLanguage()
	}

	return m, nil
}
