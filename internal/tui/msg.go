// Package tui is the terminal contact manager: a paged, searchable contact
// list with modals for viewing, adding, editing and deleting contacts.
package tui

import (
	"context"
	"time"

	"github.com/kvetinski/contacts/internal/client/listcache"
	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

// SearchDebounce is the quiet period before typed search text is applied.
const SearchDebounce = 300 * time.Millisecond

const toastDuration = 3 * time.Second

// ContactsAPI is the remote contact store.
type ContactsAPI interface {
	List(ctx context.Context, p query.Params) (domain.ContactPage, error)
	Create(ctx context.Context, in domain.ContactInput) (domain.Contact, error)
	Update(ctx context.Context, id string, patch domain.ContactPatch) (domain.Contact, error)
	Delete(ctx context.Context, id string) error
}

type mutationKind int

const (
	mutationCreate mutationKind = iota
	mutationUpdate
	mutationDelete
)

// contactsLoadedMsg carries the result of a list fetch.
type contactsLoadedMsg struct {
	ticket listcache.Ticket
	page   domain.ContactPage
	err    error
}

// searchSettledMsg fires SearchDebounce after a search keystroke.
type searchSettledMsg struct {
	seq int
}

// mutationDoneMsg carries the result of a create, update or delete.
type mutationDoneMsg struct {
	kind    mutationKind
	contact domain.Contact
	err     error
}

type toastKind int

const (
	toastLoading toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

// toastExpiredMsg clears the toast with the same id.
type toastExpiredMsg struct {
	id int
}
