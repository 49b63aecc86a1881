package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kvetinski/contacts/internal/domain"
)

type formField struct {
	name  string
	label string
	input textinput.Model
}

// contactForm edits the four contact fields and checks them with the same
// rules the server applies.
type contactForm struct {
	fields []formField
	focus  int
	errs   map[string]string
}

func newContactForm(c *domain.Contact) contactForm {
	mk := func(name, label, placeholder string, limit int) formField {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		in.Prompt = ""
		return formField{name: name, label: label, input: in}
	}

	f := contactForm{
		fields: []formField{
			mk(domain.FieldName, "Name", "Jane Doe", 50),
			mk(domain.FieldEmail, "Email", "jane@example.com", 100),
			mk(domain.FieldCountryCode, "Country code", "+91", 5),
			mk(domain.FieldNumber, "Phone number", "9876543210", 10),
		},
		errs: map[string]string{},
	}
	if c != nil {
		f.fields[0].input.SetValue(c.Name)
		f.fields[1].input.SetValue(c.Email)
		f.fields[2].input.SetValue(c.Phone.CountryCode)
		f.fields[3].input.SetValue(c.Phone.Number)
	}
	f.fields[0].input.Focus()

	return f
}

func (f contactForm) Input() domain.ContactInput {
	return domain.ContactInput{
		Name:  f.fields[0].input.Value(),
		Email: f.fields[1].input.Value(),
		Phone: domain.Phone{
			CountryCode: f.fields[2].input.Value(),
			Number:      f.fields[3].input.Value(),
		},
	}
}

// Validate checks every field and records the messages next to them.
func (f contactForm) Validate() (contactForm, domain.ContactInput, bool) {
	in, err := domain.ValidateContact(f.Input())
	f = f.WithError(err)
	return f, in, err == nil
}

// WithError places per-field messages from err on the form.
func (f contactForm) WithError(err error) contactForm {
	f.errs = map[string]string{}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return f
	}
	for _, v := range verr.Violations {
		if _, seen := f.errs[v.Field]; !seen && v.Field != "" {
			f.errs[v.Field] = v.Message
		}
	}
	return f
}

func (f contactForm) FocusNext() contactForm { return f.focusAt((f.focus + 1) % len(f.fields)) }

func (f contactForm) FocusPrev() contactForm {
	return f.focusAt((f.focus - 1 + len(f.fields)) % len(f.fields))
}

func (f contactForm) focusAt(i int) contactForm {
	fields := make([]formField, len(f.fields))
	copy(fields, f.fields)
	fields[f.focus].input.Blur()
	fields[i].input.Focus()
	f.fields = fields
	f.focus = i
	return f
}

// Update forwards msg to the focused input and rechecks that field.
func (f contactForm) Update(msg tea.Msg) (contactForm, tea.Cmd) {
	fields := make([]formField, len(f.fields))
	copy(fields, f.fields)

	var cmd tea.Cmd
	fields[f.focus].input, cmd = fields[f.focus].input.Update(msg)
	f.fields = fields

	if _, shown := f.errs[fields[f.focus].name]; shown {
		errs := make(map[string]string, len(f.errs))
		for k, v := range f.errs {
			errs[k] = v
		}
		field := fields[f.focus]
		if text := domain.ValidateField(field.name, normalizeField(field.name, field.input.Value())); text != "" {
			errs[field.name] = text
		} else {
			delete(errs, field.name)
		}
		f.errs = errs
	}

	return f, cmd
}

func normalizeField(name, value string) string {
	value = strings.TrimSpace(value)
	if name == domain.FieldEmail {
		value = strings.ToLower(value)
	}
	return value
}

func (f contactForm) View() string {
	var b strings.Builder
	for i, field := range f.fields {
		label := labelStyle.Render(field.label)
		if i == f.focus {
			label = selectedStyle.Render(field.label)
		}
		b.WriteString(label + "\n  " + field.input.View() + "\n")
		if msg := f.errs[field.name]; msg != "" {
			b.WriteString("  " + errorStyle.Render(msg) + "\n")
		}
	}
	return b.String()
}
