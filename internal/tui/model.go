package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kvetinski/contacts/internal/client/api"
	"github.com/kvetinski/contacts/internal/client/listcache"
	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

type Options struct {
	// PageSize is the list limit sent with every request.
	PageSize int
	// Timeout bounds each request.
	Timeout time.Duration
}

// Model is the root Bubble Tea model of the contact manager.
type Model struct {
	api     ContactsAPI
	cache   *listcache.Cache
	timeout time.Duration

	params query.Params

	search    textinput.Model
	searching bool
	searchSeq int

	page     domain.ContactPage
	hasPage  bool
	loading  bool
	loadErr  error
	cursor   int
	modal    Modal
	form     contactForm
	pending  bool
	toast    toast
	toastSeq int

	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

// New builds the model. The cache is owned by the caller; the page it last
// displayed is shown until the first fetch completes.
func New(client ContactsAPI, cache *listcache.Cache, opts Options) Model {
	params := query.DefaultParams()
	if opts.PageSize > 0 {
		params.Limit = opts.PageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = api.DefaultTimeout
	}

	search := textinput.New()
	search.Placeholder = "Search by name or phone"
	search.Prompt = "/ "
	search.CharLimit = 100

	s := spinner.New()
	s.Spinner = spinner.Dot

	placeholder, hasPage := cache.Placeholder()

	return Model{
		api:     client,
		cache:   cache,
		timeout: opts.Timeout,
		params:  params,
		page:    placeholder,
		hasPage: hasPage,
		loading: true,
		search:  search,
		spinner: s,
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	_, cmd := m.fetch()
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case contactsLoadedMsg:
		return m.handleLoaded(msg)

	case searchSettledMsg:
		if msg.seq != m.searchSeq || m.search.Value() == m.params.Search {
			return m, nil
		}
		m.params.Search = m.search.Value()
		m.params.Page = 1
		return m.fetch()

	case mutationDoneMsg:
		return m.handleMutation(msg)

	case toastExpiredMsg:
		if msg.id == m.toast.id {
			m.toast = toast{}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch m.modal.State() {
	case ModalViewing:
		return m.handleViewKey(msg)
	case ModalAdding, ModalEditing:
		return m.handleFormKey(msg)
	case ModalConfirmingDelete:
		return m.handleConfirmKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := listKeyMap()
	contacts := m.page.Contacts

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(contacts)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Prev):
		if m.params.Page > 1 {
			m.params.Page--
			return m.fetch()
		}
	case key.Matches(msg, keys.Next):
		if m.params.Page < m.page.TotalPages {
			m.params.Page++
			return m.fetch()
		}
	case key.Matches(msg, keys.Open):
		if m.cursor < len(contacts) {
			m.modal, _ = m.modal.Open(contacts[m.cursor])
		}
	case key.Matches(msg, keys.Add):
		m.modal, _ = m.modal.Add()
		m.form = newContactForm(nil)
		return m, textinput.Blink
	case key.Matches(msg, keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.Sort):
		m.params.Sort = query.Next(query.SortOptions, m.params.Sort)
		return m.fetch()
	case key.Matches(msg, keys.Country):
		m.params.Country = query.Next(query.Countries, m.params.Country)
		m.params.Page = 1
		return m.fetch()
	case key.Matches(msg, keys.Reset):
		limit := m.params.Limit
		m.params = query.DefaultParams()
		m.params.Limit = limit
		m.search.SetValue("")
		m.searchSeq++
		return m.fetch()
	case key.Matches(msg, keys.Refresh):
		return m.fetch()
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, searchKeyMap().Done) {
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.searchSeq++
	seq := m.searchSeq
	settle := tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return searchSettledMsg{seq: seq}
	})
	return m, tea.Batch(cmd, settle)
}

func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := viewKeyMap()
	switch {
	case key.Matches(msg, keys.Close):
		m.modal = m.modal.Close()
	case key.Matches(msg, keys.Edit):
		m.modal, _ = m.modal.Edit()
		c, _ := m.modal.Selected()
		m.form = newContactForm(&c)
		return m, textinput.Blink
	case key.Matches(msg, keys.Delete):
		m.modal, _ = m.modal.ConfirmDelete()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := formKeyMap()
	switch {
	case key.Matches(msg, keys.Cancel):
		if !m.pending {
			m.modal = m.modal.Close()
		}
		return m, nil
	case key.Matches(msg, keys.Next):
		m.form = m.form.FocusNext()
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.form = m.form.FocusPrev()
		return m, nil
	case key.Matches(msg, keys.Submit):
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := confirmKeyMap()
	switch {
	case key.Matches(msg, keys.Cancel):
		if !m.pending {
			m.modal = m.modal.Close()
		}
	case key.Matches(msg, keys.Confirm):
		if m.pending {
			return m, nil
		}
		c, _ := m.modal.Selected()
		m.pending = true
		var toastCmd tea.Cmd
		m, toastCmd = m.showToast(toastLoading, "Deleting contact...")
		return m, tea.Batch(toastCmd, m.deleteCmd(c))
	}
	return m, nil
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}

	form, in, ok := m.form.Validate()
	m.form = form
	if !ok {
		return m, nil
	}

	m.pending = true
	var toastCmd tea.Cmd
	if m.modal.State() == ModalAdding {
		m, toastCmd = m.showToast(toastLoading, "Creating contact...")
		return m, tea.Batch(toastCmd, m.createCmd(in))
	}

	c, _ := m.modal.Selected()
	patch := domain.ContactPatch{Name: &in.Name, Email: &in.Email, Phone: &in.Phone}
	m, toastCmd = m.showToast(toastLoading, "Updating contact...")
	return m, tea.Batch(toastCmd, m.updateCmd(c.ID.String(), patch))
}

// handleLoaded displays the latest page. A page past the end, as left by
// deleting the last contact of the last page, is replaced by the last page.
func (m Model) handleLoaded(msg contactsLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if m.cache.Fail(msg.ticket) {
			m.loading = false
			m.loadErr = msg.err
		}
		return m, nil
	}

	if !m.cache.Complete(msg.ticket, msg.page) {
		return m, nil
	}

	m.loading = false
	m.loadErr = nil
	m.page = msg.page
	m.hasPage = true
	if m.cursor >= len(m.page.Contacts) {
		m.cursor = max(len(m.page.Contacts)-1, 0)
	}

	if msg.page.TotalPages > 0 && m.params.Page > msg.page.TotalPages {
		m.params.Page = msg.page.TotalPages
		return m.fetch()
	}
	return m, nil
}

func (m Model) handleMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	m.pending = false

	if msg.err != nil {
		if m.modal.State() == ModalAdding || m.modal.State() == ModalEditing {
			m.form = m.form.WithError(msg.err)
		}
		return m.showToast(toastError, failureText(msg.kind, msg.err))
	}

	var text string
	switch msg.kind {
	case mutationCreate:
		text = fmt.Sprintf("%s has been added to your contacts!", msg.contact.Name)
	case mutationUpdate:
		text = fmt.Sprintf("%s's information has been updated!", msg.contact.Name)
	case mutationDelete:
		text = fmt.Sprintf("%s has been removed from your contacts", msg.contact.Name)
	}

	m.modal = m.modal.Close()
	m.cache.Invalidate()

	m, toastCmd := m.showToast(toastSuccess, text)
	m, fetchCmd := m.fetch()
	return m, tea.Batch(toastCmd, fetchCmd)
}

func failureText(kind mutationKind, err error) string {
	if text := api.Message(err); text != "" {
		return text
	}
	switch kind {
	case mutationCreate:
		return "Failed to create contact"
	case mutationUpdate:
		return "Failed to update contact"
	default:
		return "Failed to delete contact"
	}
}

func (m Model) showToast(kind toastKind, text string) (Model, tea.Cmd) {
	m.toastSeq++
	m.toast = toast{id: m.toastSeq, kind: kind, text: text}
	if kind == toastLoading {
		return m, nil
	}

	id := m.toastSeq
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// fetch requests the page for the current parameters. A cached page is shown
// right away and revalidated.
func (m Model) fetch() (Model, tea.Cmd) {
	k := listcache.KeyFor(m.params)
	if page, ok := m.cache.Get(k); ok {
		m.page = page
		m.hasPage = true
	}

	ticket := m.cache.Begin(k)
	m.loading = true

	client, params, timeout := m.api, m.params, m.timeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		page, err := client.List(ctx, params)
		return contactsLoadedMsg{ticket: ticket, page: page, err: err}
	}
}

func (m Model) createCmd(in domain.ContactInput) tea.Cmd {
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		c, err := client.Create(ctx, in)
		return mutationDoneMsg{kind: mutationCreate, contact: c, err: err}
	}
}

func (m Model) updateCmd(id string, patch domain.ContactPatch) tea.Cmd {
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		c, err := client.Update(ctx, id, patch)
		return mutationDoneMsg{kind: mutationUpdate, contact: c, err: err}
	}
}

func (m Model) deleteCmd(c domain.Contact) tea.Cmd {
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := client.Delete(ctx, c.ID.String())
		return mutationDoneMsg{kind: mutationDelete, contact: c, err: err}
	}
}
