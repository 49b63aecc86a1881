package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidID       = errors.New("invalid contact id")
	ErrContactNotFound = errors.New("contact not found")
	ErrDuplicateEmail  = errors.New("a contact with this email already exists")
)

type Phone struct {
	CountryCode string `json:"countryCode"`
	Number      string `json:"number"`
}

type Contact struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     Phone     `json:"phone"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactInput is the client-settable part of a contact.
type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone Phone  `json:"phone"`
}

// ContactPatch carries a partial update. Nil fields are left unchanged.
type ContactPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *Phone  `json:"phone,omitempty"`
}

func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}

// Apply returns the input that results from applying p on top of c.
func (p ContactPatch) Apply(c Contact) ContactInput {
	in := ContactInput{Name: c.Name, Email: c.Email, Phone: c.Phone}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.Phone != nil {
		in.Phone = *p.Phone
	}

	return in
}

type ContactPage struct {
	Contacts      []Contact `json:"contacts"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	TotalContacts int       `json:"totalContacts"`
}

// ParseID checks that raw is a contact identifier the store can hold.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}

	return id, nil
}

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// ContactEvent describes a committed change to a contact.
type ContactEvent struct {
	Type    EventType `json:"type"`
	Contact Contact   `json:"contact"`
	At      time.Time `json:"at"`
}
