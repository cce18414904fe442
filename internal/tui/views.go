package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/session"
	"github.com/nepalihub/portal/internal/tui/styles"
)

// View renders the gallery
func (m *Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.ShowHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(collection.Kinds)+1)
	for i, k := range collection.Kinds {
		label := k.Title()
		if st, err := m.Gallery.Status(k); err == nil && st.Count > 0 {
			label = fmt.Sprintf("%s (%d)", label, st.Count)
		}
		if i == m.Tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	badge := renderSessionBadge(m.SessionState)
	gap := m.Width - lipgloss.Width(bar) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	return styles.TabBarStyle.Width(m.Width).Render(bar + strings.Repeat(" ", gap) + badge)
}

func renderSessionBadge(st session.State) string {
	if !st.IsAuthenticated() {
		return styles.AnonymousBadgeStyle.Render("guest")
	}
	name := st.User.DisplayName
	if name == "" {
		name = st.User.Email
	}
	label := fmt.Sprintf("%s · %s", name, st.Role())
	if st.Phase == session.PhaseTentative {
		return styles.TentativeBadgeStyle.Render(label + " (checking)")
	}
	return styles.VerifiedBadgeStyle.Render(label)
}

func (m *Model) renderList() string {
	kind := m.kind()
	st, _ := m.Gallery.Status(kind)
	items, matches := m.rows()
	height := m.Height - ChromeHeight

	n := len(items)
	if matches != nil {
		n = len(matches)
	}

	if n == 0 {
		var msg string
		switch {
		case st.Loading:
			msg = m.spinner.View() + " Loading " + strings.ToLower(kind.Title()) + "..."
		case st.HasConfigError:
			msg = styles.ErrorStyle.Render(st.Error) + "\n" + styles.DimStyle.Render("Check catalog.api_key and catalog.channel_id, then press r")
		case st.Error != "":
			msg = styles.ErrorStyle.Render(st.Error) + "\n" + styles.DimStyle.Render("Press r to retry")
		case matches != nil:
			msg = styles.DimStyle.Render("No titles match the filter")
		default:
			msg = styles.DimStyle.Render("Nothing here yet")
		}
		return lipgloss.NewStyle().Height(height).Padding(1, 2).Render(msg)
	}

	cursor := m.cursor[kind]
	offset := m.offset[kind]
	end := offset + m.visibleRows()
	if end > n {
		end = n
	}

	lines := make([]string, 0, height)
	for row := offset; row < end; row++ {
		idx := row
		var matched []int
		if matches != nil {
			idx = matches[row].Index
			matched = matches[row].Matched
		}
		lines = append(lines, m.renderEntry(items[idx], matched, row == cursor)...)
	}

	if end == n {
		switch {
		case st.Loading:
			lines = append(lines, " "+m.spinner.View()+" Loading more...")
		case st.Error != "":
			lines = append(lines, " "+styles.ErrorStyle.Render(st.Error)+styles.DimStyle.Render("  (r to retry)"))
		case st.HasMore && matches == nil:
			lines = append(lines, styles.DimStyle.Render(" n: load more"))
		}
	}

	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

// renderEntry renders the title line, the meta line and optionally the
// description of one entry.
func (m *Model) renderEntry(e entry, matched []int, selected bool) []string {
	width := m.Width
	title := styles.Truncate(e.Title, width-4)

	var parts []styles.RowPart
	if len(matched) > 0 {
		parts = highlightParts(title, matched)
	} else {
		parts = []styles.RowPart{{Text: title, Bold: true}}
	}

	dim := styles.DimGray
	lines := []string{
		styles.RenderListRow(parts, selected, width),
		styles.RenderListRow([]styles.RowPart{{Text: "  " + e.Meta, Foreground: &dim}}, selected, width),
	}
	if m.ShowDescriptions {
		desc := strings.Join(strings.Fields(e.Description), " ")
		lines = append(lines, styles.RenderListRow([]styles.RowPart{{Text: "  " + styles.Truncate(desc, width-6), Foreground: &dim}}, selected, width))
	}
	return lines
}

// highlightParts splits title into runs of matched and unmatched bytes
func highlightParts(title string, matched []int) []styles.RowPart {
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	accent := styles.Crimson
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		p := styles.RowPart{Text: run.String()}
		if runHit {
			p.Foreground = &accent
			p.Bold = true
		}
		parts = append(parts, p)
		run.Reset()
	}

	for i, r := range title {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (m *Model) renderStatus() string {
	if m.filtering || m.filter.Value() != "" {
		return m.filter.View()
	}
	if m.StatusMsg == "" {
		return ""
	}
	if m.StatusIsErr {
		return styles.ErrorStyle.Render(m.StatusMsg)
	}
	return styles.SuccessStyle.Render(m.StatusMsg)
}

func (m *Model) renderFooter() string {
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m *Model) renderHelp() string {
	title := styles.TitleStyle.Render("Keyboard shortcuts")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()))
}
