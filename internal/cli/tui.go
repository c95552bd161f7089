package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plmtools/lookconf/pkg/plmxml"
	"github.com/plmtools/lookconf/pkg/resolve"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// resultBrowser - Interactive resolution result browsing
// =============================================================================

// targetRow is one material target with its resolution state.
type targetRow struct {
	target  *plmxml.MaterialTarget
	variant string // winning variant name, empty when none matched
}

// resultBrowser is the bubbletea model for browsing a resolution result:
// a target list with the winning variant per target, expandable to show
// every variant and which one won.
type resultBrowser struct {
	config   string
	rows     []targetRow
	cursor   int
	expanded bool
	height   int
	offset   int
}

// newResultBrowser builds the browser from a document and its resolution.
func newResultBrowser(doc *plmxml.Document, result *resolve.Result) resultBrowser {
	rows := make([]targetRow, 0, doc.Looks.Len())
	for _, t := range doc.Looks.Targets() {
		variant, _ := result.Material(t.Name)
		rows = append(rows, targetRow{target: t, variant: variant})
	}
	return resultBrowser{
		config: result.Config,
		rows:   rows,
		height: 15,
	}
}

func (m resultBrowser) Init() tea.Cmd {
	return nil
}

func (m resultBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			m.expanded = !m.expanded
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m resultBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Material Targets"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("config: %s", m.config)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		state := StyleWarning.Render("not updated")
		if row.variant != "" {
			state = StyleSuccess.Render(row.variant)
		}

		line := fmt.Sprintf("%s%-30s %s", cursor, row.target.Name, state)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")

		if m.expanded && i == m.cursor {
			for _, v := range row.target.Variants {
				marker := "  "
				if v.Name == row.variant {
					marker = iconSuccess + " "
				}
				detail := fmt.Sprintf("     %s%-20s [%s]  %s", marker, v.Name, v.PRTags, v.Description)
				if v.Name == row.variant {
					b.WriteString(StyleSuccess.Render(detail))
				} else {
					b.WriteString(listDimStyle.Render(detail))
				}
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))

	return b.String()
}
