package tui

import (
	"errors"
	"fmt"

	"github.com/kvetinski/contacts/internal/domain"
)

var ErrInvalidTransition = errors.New("invalid modal transition")

// ModalState is the overlay currently shown above the contact list.
type ModalState int

const (
	ModalClosed           ModalState = iota // Only the list is shown.
	ModalViewing                            // Contact details.
	ModalAdding                             // Empty contact form.
	ModalEditing                            // Contact form prefilled from the selection.
	ModalConfirmingDelete                   // Delete confirmation for the selection.
)

func (s ModalState) String() string {
	switch s {
	case ModalClosed:
		return "closed"
	case ModalViewing:
		return "viewing"
	case ModalAdding:
		return "adding"
	case ModalEditing:
		return "editing"
	case ModalConfirmingDelete:
		return "confirmingDelete"
	default:
		return fmt.Sprintf("ModalState(%d)", int(s))
	}
}

// Modal is the interaction state machine. Transitions return a new value and
// leave the receiver untouched; a refused transition returns
// ErrInvalidTransition together with the unchanged state.
type Modal struct {
	state    ModalState
	selected *domain.Contact
}

func (m Modal) State() ModalState { return m.state }

// Selected returns the contact the modal acts on. Adding and closed have none.
func (m Modal) Selected() (domain.Contact, bool) {
	if m.selected == nil {
		return domain.Contact{}, false
	}
	return *m.selected, true
}

func (m Modal) IsOpen() bool { return m.state != ModalClosed }

// Open shows the details of c.
func (m Modal) Open(c domain.Contact) (Modal, error) {
	if m.state != ModalClosed {
		return m, m.refuse(ModalViewing)
	}
	return Modal{state: ModalViewing, selected: &c}, nil
}

func (m Modal) Add() (Modal, error) {
	if m.state != ModalClosed {
		return m, m.refuse(ModalAdding)
	}
	return Modal{state: ModalAdding}, nil
}

func (m Modal) Edit() (Modal, error) {
	if m.state != ModalViewing {
		return m, m.refuse(ModalEditing)
	}
	return Modal{state: ModalEditing, selected: m.selected}, nil
}

func (m Modal) ConfirmDelete() (Modal, error) {
	if m.state != ModalViewing {
		return m, m.refuse(ModalConfirmingDelete)
	}
	return Modal{state: ModalConfirmingDelete, selected: m.selected}, nil
}

// Close is allowed from every state and clears the selection.
func (m Modal) Close() Modal {
	return Modal{}
}

func (m Modal) refuse(to ModalState) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}
