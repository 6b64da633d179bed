package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/tutor-match-api/internal/listing"
	"github.com/noah-isme/tutor-match-api/internal/models"
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.screen {
	case screenLocations:
		return m.viewLocations()
	case screenDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	state := m.ctrl.State()
	role := m.ctrl.Role()
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Find " + title(role.Plural())))
	b.WriteString("  ")
	b.WriteString(m.filterSummary(state))
	b.WriteString("\n\n")

	switch {
	case state.Loading:
		b.WriteString(m.spinner.View() + " Loading " + role.Plural() + "...\n")
		return b.String() + m.footer()
	case state.Refreshing:
		b.WriteString(m.theme.Notice.Render(m.spinner.View()+" Refreshing") + "\n")
	}

	if state.Failed() {
		b.WriteString(m.theme.Error.Render(fmt.Sprintf("Could not load %s. Press r to try again.", role.Plural())))
		b.WriteString("\n")
	}

	view := m.ctrl.View()
	if len(view) == 0 && state.Loaded {
		b.WriteString(m.theme.Subtle.Render(emptyMessage(role, state)))
		b.WriteString("\n")
	}
	for i, l := range m.window(view) {
		row := m.row(l)
		if i+m.offset(len(view)) == m.cursor {
			b.WriteString(m.theme.Selected.Render("> " + row))
		} else {
			b.WriteString(m.theme.Row.Render("  " + row))
		}
		b.WriteString("\n")
	}

	return b.String() + m.footer()
}

func (m Model) viewLocations() string {
	var b strings.Builder
	b.WriteString(m.theme.Label.Render("Select location"))
	b.WriteString("\n")
	if len(m.locations) == 1 {
		b.WriteString(m.theme.Subtle.Render("No districts in the current listings"))
		b.WriteString("\n")
	}
	for i, option := range m.locations {
		if i == m.locationCursor {
			b.WriteString(m.theme.Selected.Render("> " + option))
		} else {
			b.WriteString("  " + option)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Subtle.Render("enter select · esc close"))
	return m.theme.Modal.Render(b.String())
}

func (m Model) viewDetail() string {
	if m.detail == nil {
		return ""
	}
	l := *m.detail
	lines := []string{
		m.theme.Title.Render(l.Name),
		field(m.theme, "Subject", l.Subject),
	}
	switch {
	case l.Teacher != nil:
		lines = append(lines, field(m.theme, "Experience", fmt.Sprintf("%d years", l.Teacher.Experience)))
	case l.Student != nil:
		lines = append(lines, field(m.theme, "Grade", l.Student.Grade))
		if l.Student.Salary != nil {
			lines = append(lines, field(m.theme, "Salary", fmt.Sprintf("%.0f", *l.Student.Salary)))
		}
		if l.Student.TeachingHours != nil {
			lines = append(lines, field(m.theme, "Teaching hours", fmt.Sprintf("%g", *l.Student.TeachingHours)))
		}
	}
	lines = append(lines,
		field(m.theme, "Location", location(l)),
		field(m.theme, "Phone", l.PhoneNumber),
	)
	if l.PhotoURL != "" {
		lines = append(lines, field(m.theme, "Photo", l.PhotoURL))
	}
	if l.CreatedAt != nil {
		lines = append(lines, field(m.theme, "Listed", l.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	lines = append(lines, "", m.theme.Subtle.Render("c call · esc back"))
	if m.notice != "" {
		lines = append(lines, m.theme.Notice.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) filterSummary(state listing.State) string {
	parts := make([]string, 0, 2)
	if state.District != "" {
		parts = append(parts, m.theme.Badge.Render(state.District))
	}
	if state.SortNewest {
		parts = append(parts, m.theme.Badge.Render("Newest"))
	}
	if state.Loaded {
		parts = append(parts, m.theme.Subtle.Render(fmt.Sprintf("%d of %d", state.Count, state.Total)))
	}
	return strings.Join(parts, " ")
}

func (m Model) footer() string {
	help := make([]string, 0, 6)
	for _, binding := range m.keys.help() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	out := "\n" + m.theme.Subtle.Render(strings.Join(help, " · "))
	if m.notice != "" {
		out += "\n" + m.theme.Notice.Render(m.notice)
	}
	return out
}

func (m Model) row(l models.Listing) string {
	detail := l.Subject
	switch {
	case l.Teacher != nil:
		detail = fmt.Sprintf("%s · %dy exp", l.Subject, l.Teacher.Experience)
	case l.Student != nil:
		detail = fmt.Sprintf("%s · grade %s", l.Subject, l.Student.Grade)
	}
	return fmt.Sprintf("%-24s %-28s %s", truncate(l.Name, 24), truncate(detail, 28), location(l))
}

// listHeight is the number of rows available for listings.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	if h := m.height - 6; h > 1 {
		return h
	}
	return 1
}

func (m Model) offset(total int) int {
	h := m.listHeight()
	if h == 0 || total <= h || m.cursor < h {
		return 0
	}
	return m.cursor - h + 1
}

func (m Model) window(view []models.Listing) []models.Listing {
	h := m.listHeight()
	if h == 0 || len(view) <= h {
		return view
	}
	start := m.offset(len(view))
	end := start + h
	if end > len(view) {
		end = len(view)
	}
	return view[start:end]
}

func emptyMessage(role models.Role, state listing.State) string {
	if state.District != "" {
		return fmt.Sprintf("No %s found in %s", role.Plural(), state.District)
	}
	return fmt.Sprintf("No %s profiles available", role)
}

func location(l models.Listing) string {
	parts := make([]string, 0, 2)
	if l.SpecificLocation != "" {
		parts = append(parts, l.SpecificLocation)
	}
	if l.District != "" {
		parts = append(parts, l.District)
	}
	return strings.Join(parts, ", ")
}

func field(theme Theme, label, value string) string {
	return theme.Label.Render(label+": ") + value
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
