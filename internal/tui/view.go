package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

func (m Model) View() string {
	sections := []string{m.viewHeader(), m.viewFilters(), ""}

	if m.modal.IsOpen() {
		sections = append(sections, m.viewModal())
	} else {
		sections = append(sections, m.viewBody())
		if pager := m.viewPager(); pager != "" {
			sections = append(sections, "", pager)
		}
	}

	sections = append(sections, "", m.viewToast(), m.help.View(helpBindings(m.modal.State(), m.searching)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	status := fmt.Sprintf("%d contacts", m.page.TotalContacts)
	if m.loading && !m.hasPage {
		status = "Loading..."
	}
	if m.loading {
		status += " " + m.spinner.View()
	}
	return titleStyle.Render("Contact Manager") + "  " + subtitleStyle.Render(status)
}

func (m Model) viewFilters() string {
	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = labelStyle.Render("/ search")
	}

	return strings.Join([]string{
		search,
		labelStyle.Render("sort: ") + query.Label(query.SortOptions, m.params.Sort),
		labelStyle.Render("country: ") + query.Label(query.Countries, m.params.Country),
	}, "   ")
}

func (m Model) viewBody() string {
	switch {
	case m.loadErr != nil:
		return errorStyle.Render("Failed to load contacts") + "\n" +
			subtitleStyle.Render("Press r to retry.")
	case !m.hasPage:
		return m.spinner.View() + " Loading contacts..."
	case len(m.page.Contacts) == 0:
		return titleStyle.Render("No contacts found") + "\n" +
			subtitleStyle.Render("Try adjusting your search or add a new contact.")
	}

	var b strings.Builder
	for i, c := range m.page.Contacts {
		line := fmt.Sprintf("%-28s %-32s %s", truncate(c.Name, 28), truncate(c.Email, 32), formatPhone(c.Phone))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < len(m.page.Contacts)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewPager() string {
	if m.page.TotalPages <= 1 {
		return ""
	}

	parts := []string{"‹"}
	for _, p := range VisiblePages(m.params.Page, m.page.TotalPages) {
		switch {
		case p == Ellipsis:
			parts = append(parts, "…")
		case p == m.params.Page:
			parts = append(parts, currentPageStyle.Render(strconv.Itoa(p)))
		default:
			parts = append(parts, otherPageStyle.Render(strconv.Itoa(p)))
		}
	}
	parts = append(parts, "›")
	return strings.Join(parts, " ")
}

func (m Model) viewModal() string {
	var body string
	c, _ := m.modal.Selected()

	switch m.modal.State() {
	case ModalViewing:
		body = titleStyle.Render(c.Name) + "\n\n" + contactDetails(c)
	case ModalAdding:
		body = titleStyle.Render("Add New Contact") + "\n\n" + m.form.View()
	case ModalEditing:
		body = titleStyle.Render("Edit Contact") + "\n\n" + m.form.View()
	case ModalConfirmingDelete:
		body = titleStyle.Render("Delete contact?") + "\n\n" +
			fmt.Sprintf("This will permanently remove %s from your contacts.", c.Name)
	}

	if m.pending {
		body += "\n" + m.spinner.View() + " Saving..."
	}
	return modalBorder(m.width).Render(body)
}

func contactDetails(c domain.Contact) string {
	rows := [][2]string{
		{"Email", c.Email},
		{"Phone", formatPhone(c.Phone)},
		{"Added", c.CreatedAt.Local().Format("Jan 2, 2006")},
		{"Updated", c.UpdatedAt.Local().Format("Jan 2, 2006 15:04")},
		{"Avatar", c.AvatarURL},
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", r[0])), r[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewToast() string {
	if m.toast.text == "" {
		return ""
	}
	return toastStyle(m.toast.kind).Render(m.toast.text)
}

func formatPhone(p domain.Phone) string {
	return p.CountryCode + " " + p.Number
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
