package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/i18n"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	activeTab = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	searchBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	searchBoxActive = searchBox.BorderForeground(lipgloss.Color("170"))

	selectedCategory = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	commandStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	categoryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("105"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// chrome is the number of lines around the entry list.
const chrome = 9

func (m *Model) listHeight() int {
	h := m.height - chrome
	if h < 3 {
		h = 3
	}

	return h
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.tr.T("cheatsheet.title")))
	b.WriteString(mutedStyle.Render("  " + i18n.Name(m.tr.Lang)))
	b.WriteString("\n\n")
	b.WriteString(m.tabs())
	b.WriteString("\n")

	box := searchBox
	if m.searching {
		box = searchBoxActive
	}
	b.WriteString(box.Width(max(m.width-4, 10)).Render(m.search.View()))
	b.WriteString("\n")
	b.WriteString(m.categoryLine())
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString("\n" + m.tr.T("cheatsheet.empty") + "\n")
		b.WriteString(mutedStyle.Render(m.tr.T("cheatsheet.empty_hint")) + "\n")
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	} else {
		b.WriteString(mutedStyle.Render(m.tr.T("cheatsheet.count", len(m.entries))))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.tr.T("tui.help")))

	return b.String()
}

func (m *Model) tabs() string {
	tabs := make([]string, len(m.sheets))
	for i, s := range m.sheets {
		label := s.Label
		if s.Icon != "" && !strings.HasPrefix(s.Icon, "http") {
			label = s.Icon + " " + label
		}
		if i == m.sheet {
			tabs[i] = activeTab.Render(label)
		} else {
			tabs[i] = inactiveTab.Render(label)
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// categoryLine shows as many categories as fit, keeping the selected one
// visible.
func (m *Model) categoryLine() string {
	prefix := m.tr.T("cheatsheet.category") + ": "
	room := m.width - runewidth.StringWidth(prefix)

	labels := make([]string, len(m.categories))
	for i, c := range m.categories {
		name := c.Name
		if name == cheatsheet.AllCategories {
			name = m.tr.T("cheatsheet.all")
		}
		labels[i] = fmt.Sprintf("%s (%d)", name, c.Count)
	}

	first := 0
	for first < m.category && width(labels[first:m.category+1]) > room {
		first++
	}

	var parts []string
	used := 0
	for i := first; i < len(labels); i++ {
		w := runewidth.StringWidth(labels[i]) + 2
		if used+w > room && i > m.category {
			parts = append(parts, mutedStyle.Render("…"))

			break
		}
		used += w
		if i == m.category {
			parts = append(parts, selectedCategory.Render("["+labels[i]+"]"))
		} else {
			parts = append(parts, " "+labels[i]+" ")
		}
	}

	return mutedStyle.Render(prefix) + strings.Join(parts, "")
}

func width(labels []string) int {
	w := 0
	for _, l := range labels {
		w += runewidth.StringWidth(l) + 2
	}

	return w
}

// renderEntries lays out every filtered entry and returns the first line of
// each. Command columns are padded by display width so Sinhala text stays
// aligned.
func (m *Model) renderEntries() (string, []int) {
	col := 0
	for _, e := range m.entries {
		col = max(col, runewidth.StringWidth(e.Command))
	}
	col = min(col, max(m.width/2, 20))
	wrap := max(m.width-6, 20)

	var b strings.Builder
	offsets := make([]int, len(m.entries))
	line := 0
	for i, e := range m.entries {
		offsets[i] = line

		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("▸ ")
		}
		cmd := runewidth.Truncate(e.Command, col, "…")
		cmd = runewidth.FillRight(cmd, col)
		fmt.Fprintf(&b, "%s%s  %s\n", marker, commandStyle.Render(cmd), categoryStyle.Render(e.Category))
		line++

		primary, secondary := e.Description, e.Localized
		if m.tr.Lang == i18n.Sinhala && e.Localized != "" {
			primary, secondary = e.Localized, e.Description
		}
		for _, text := range []string{primary, secondary} {
			if text == "" {
				continue
			}
			block := indent.String(wordwrap.String(text, wrap), 4)
			if text == secondary {
				block = mutedStyle.Render(block)
			}
			b.WriteString(block + "\n")
			line += strings.Count(block, "\n") + 1
		}
		if e.Example != "" {
			ex := indent.String(m.tr.T("cheatsheet.example")+": "+e.Example, 4)
			b.WriteString(mutedStyle.Render(ex) + "\n")
			line += strings.Count(ex, "\n") + 1
		}
		b.WriteString("\n")
		line++
	}

	return b.String(), offsets
}
