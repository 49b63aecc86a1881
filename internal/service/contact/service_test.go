package contact_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	contactsvc "github.com/kvetinski/contacts/internal/service/contact"
)

type fakeRepo struct {
	createFn      func(ctx context.Context, c domain.Contact) (domain.Contact, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	findByEmailFn func(ctx context.Context, email string) (domain.Contact, error)
	findManyFn    func(ctx context.Context, q query.Query) ([]domain.Contact, error)
	countFn       func(ctx context.Context, f query.Filter) (int, error)
	updateFn      func(ctx context.Context, c domain.Contact) (domain.Contact, error)
	deleteFn      func(ctx context.Context, id uuid.UUID) (domain.Contact, error)
}

func (f fakeRepo) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	return f.createFn(ctx, c)
}

func (f fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	return f.getByIDFn(ctx, id)
}

func (f fakeRepo) FindByEmail(ctx context.Context, email string) (domain.Contact, error) {
	if f.findByEmailFn == nil {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	return f.findByEmailFn(ctx, email)
}

func (f fakeRepo) FindMany(ctx context.Context, q query.Query) ([]domain.Contact, error) {
	return f.findManyFn(ctx, q)
}

func (f fakeRepo) Count(ctx context.Context, filter query.Filter) (int, error) {
	return f.countFn(ctx, filter)
}

func (f fakeRepo) Update(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	return f.updateFn(ctx, c)
}

func (f fakeRepo) Delete(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	return f.deleteFn(ctx, id)
}

type recordingPublisher struct {
	events []domain.ContactEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ContactEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 123456789, time.UTC)

func validInput() domain.ContactInput {
	return domain.ContactInput{
		Name:  "  Asha Rao ",
		Email: "ASHA@Example.com",
		Phone: domain.Phone{CountryCode: "+91", Number: "9876543210"},
	}
}

func TestCreateRejectsInvalidInputWithoutTouchingRepo(t *testing.T) {
	svc := contactsvc.New(fakeRepo{})

	_, err := svc.Create(context.Background(), domain.ContactInput{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Violations) < 4 {
		t.Fatalf("expected a violation per field, got %v", err)
	}
}

func TestCreateNormalizesAndDerivesFields(t *testing.T) {
	var got domain.Contact
	pub := &recordingPublisher{}
	svc := contactsvc.New(fakeRepo{
		createFn: func(_ context.Context, c domain.Contact) (domain.Contact, error) {
			got = c
			return c, nil
		},
	}, contactsvc.WithClock(func() time.Time { return fixedNow }), contactsvc.WithPublisher(pub))

	c, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if got.Name != "Asha Rao" || got.Email != "asha@example.com" {
		t.Fatalf("expected normalized name and email, got %q %q", got.Name, got.Email)
	}
	if !strings.Contains(got.AvatarURL, "seed=Asha+Rao") {
		t.Fatalf("expected avatar seeded with name, got %s", got.AvatarURL)
	}
	want := fixedNow.Truncate(time.Microsecond)
	if !got.CreatedAt.Equal(want) || !got.UpdatedAt.Equal(want) {
		t.Fatalf("expected timestamps %s, got %s / %s", want, got.CreatedAt, got.UpdatedAt)
	}
	if c.ID != got.ID {
		t.Fatalf("expected returned contact to match stored one")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventCreated {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestCreateDuplicateEmailPrecheck(t *testing.T) {
	var gotEmail string
	svc := contactsvc.New(fakeRepo{
		findByEmailFn: func(_ context.Context, email string) (domain.Contact, error) {
			gotEmail = email
			return domain.Contact{ID: uuid.New(), Email: email}, nil
		},
		createFn: func(context.Context, domain.Contact) (domain.Contact, error) {
			t.Fatal("Create must not be called on duplicate email")
			return domain.Contact{}, nil
		},
	})

	_, err := svc.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if gotEmail != "asha@example.com" {
		t.Fatalf("expected lookup with normalized email, got %q", gotEmail)
	}
}

func TestCreatePassesThroughStorageConflict(t *testing.T) {
	svc := contactsvc.New(fakeRepo{
		createFn: func(context.Context, domain.Contact) (domain.Contact, error) {
			return domain.Contact{}, domain.ErrDuplicateEmail
		},
	})

	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := contactsvc.New(fakeRepo{
		createFn: func(_ context.Context, c domain.Contact) (domain.Contact, error) { return c, nil },
	}, contactsvc.WithPublisher(pub))

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected publish attempt, got %d", len(pub.events))
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc := contactsvc.New(fakeRepo{})

	if _, err := svc.Get(context.Background(), "not-an-id"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestGetForwardsRepoResult(t *testing.T) {
	id := uuid.New()
	svc := contactsvc.New(fakeRepo{
		getByIDFn: func(_ context.Context, gotID uuid.UUID) (domain.Contact, error) {
			if gotID != id {
				t.Fatalf("expected id %s, got %s", id, gotID)
			}
			return domain.Contact{}, domain.ErrContactNotFound
		},
	})

	if _, err := svc.Get(context.Background(), id.String()); !errors.Is(err, domain.ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestListBuildsQueryAndPageMetadata(t *testing.T) {
	var gotQuery query.Query
	svc := contactsvc.New(fakeRepo{
		findManyFn: func(_ context.Context, q query.Query) ([]domain.Contact, error) {
			gotQuery = q
			return []domain.Contact{{Name: "Asha Rao"}}, nil
		},
		countFn: func(_ context.Context, f query.Filter) (int, error) {
			if f.Search != "asha" || f.CountryCode != "+91" {
				t.Fatalf("unexpected count filter: %+v", f)
			}
			return 13, nil
		},
	})

	p := query.DefaultParams()
	p.Page = 3
	p.Search = " asha "
	p.Country = "+91"
	p.Sort = "name_asc"

	page, err := svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery.Skip != 12 || gotQuery.Limit != 6 {
		t.Fatalf("expected skip 12 limit 6, got skip %d limit %d", gotQuery.Skip, gotQuery.Limit)
	}
	if gotQuery.Sort.Field != query.SortName || gotQuery.Sort.Desc {
		t.Fatalf("expected name ascending, got %+v", gotQuery.Sort)
	}
	if page.TotalPages != 3 || page.CurrentPage != 3 || page.TotalContacts != 13 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	svc := contactsvc.New(fakeRepo{})

	p := query.DefaultParams()
	p.Sort = "password_asc"
	if _, err := svc.List(context.Background(), p); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	svc := contactsvc.New(fakeRepo{})

	_, err := svc.Update(context.Background(), uuid.NewString(), domain.ContactPatch{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateMergesPatchAndAdvancesUpdatedAt(t *testing.T) {
	id := uuid.New()
	// The stored updatedAt is ahead of the clock; it must still move forward.
	stored := domain.Contact{
		ID:        id,
		Name:      "Asha Rao",
		Email:     "asha@example.com",
		Phone:     domain.Phone{CountryCode: "+91", Number: "9876543210"},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow.Add(time.Hour),
	}

	var got domain.Contact
	pub := &recordingPublisher{}
	svc := contactsvc.New(fakeRepo{
		getByIDFn: func(context.Context, uuid.UUID) (domain.Contact, error) { return stored, nil },
		updateFn: func(_ context.Context, c domain.Contact) (domain.Contact, error) {
			got = c
			return c, nil
		},
	}, contactsvc.WithClock(func() time.Time { return fixedNow }), contactsvc.WithPublisher(pub))

	_, err := svc.Update(context.Background(), id.String(), domain.ContactPatch{Name: strPtr("Asha Kumar")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Name != "Asha Kumar" || got.Email != stored.Email || got.Phone != stored.Phone {
		t.Fatalf("expected only name to change, got %+v", got)
	}
	if !got.UpdatedAt.After(stored.UpdatedAt) {
		t.Fatalf("expected updatedAt after %s, got %s", stored.UpdatedAt, got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("expected createdAt unchanged")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventUpdated {
		t.Fatalf("expected one updated event, got %+v", pub.events)
	}
}

func TestUpdateEmailToOwnEmailIsAllowed(t *testing.T) {
	id := uuid.New()
	stored := domain.Contact{
		ID:    id,
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Phone: domain.Phone{CountryCode: "+91", Number: "9876543210"},
	}
	svc := contactsvc.New(fakeRepo{
		getByIDFn:     func(context.Context, uuid.UUID) (domain.Contact, error) { return stored, nil },
		findByEmailFn: func(context.Context, string) (domain.Contact, error) { return stored, nil },
		updateFn:      func(_ context.Context, c domain.Contact) (domain.Contact, error) { return c, nil },
	})

	if _, err := svc.Update(context.Background(), id.String(), domain.ContactPatch{Email: strPtr("ASHA@example.com")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateEmailTakenByOther(t *testing.T) {
	id := uuid.New()
	stored := domain.Contact{
		ID:    id,
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Phone: domain.Phone{CountryCode: "+91", Number: "9876543210"},
	}
	svc := contactsvc.New(fakeRepo{
		getByIDFn: func(context.Context, uuid.UUID) (domain.Contact, error) { return stored, nil },
		findByEmailFn: func(context.Context, string) (domain.Contact, error) {
			return domain.Contact{ID: uuid.New()}, nil
		},
	})

	_, err := svc.Update(context.Background(), id.String(), domain.ContactPatch{Email: strPtr("john@example.com")})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUpdateMissingContact(t *testing.T) {
	svc := contactsvc.New(fakeRepo{
		getByIDFn: func(context.Context, uuid.UUID) (domain.Contact, error) {
			return domain.Contact{}, domain.ErrContactNotFound
		},
	})

	_, err := svc.Update(context.Background(), uuid.NewString(), domain.ContactPatch{Name: strPtr("Asha Kumar")})
	if !errors.Is(err, domain.ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestDeleteReturnsRemovedContactAndPublishes(t *testing.T) {
	id := uuid.New()
	pub := &recordingPublisher{}
	svc := contactsvc.New(fakeRepo{
		deleteFn: func(_ context.Context, gotID uuid.UUID) (domain.Contact, error) {
			return domain.Contact{ID: gotID, Name: "Asha Rao"}, nil
		},
	}, contactsvc.WithPublisher(pub))

	c, err := svc.Delete(context.Background(), id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != id {
		t.Fatalf("expected deleted id %s, got %s", id, c.ID)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventDeleted {
		t.Fatalf("expected one deleted event, got %+v", pub.events)
	}
}

func TestDeleteMissingDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := contactsvc.New(fakeRepo{
		deleteFn: func(context.Context, uuid.UUID) (domain.Contact, error) {
			return domain.Contact{}, domain.ErrContactNotFound
		},
	}, contactsvc.WithPublisher(pub))

	if _, err := svc.Delete(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %+v", pub.events)
	}
}

func TestIsUnexpected(t *testing.T) {
	if contactsvc.IsUnexpected(domain.ErrContactNotFound) {
		t.Fatal("not found is a domain error")
	}
	if !contactsvc.IsUnexpected(errors.New("connection reset")) {
		t.Fatal("expected infrastructure error to be unexpected")
	}
}
