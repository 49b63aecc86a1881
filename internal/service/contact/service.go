package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	"github.com/kvetinski/contacts/internal/telemetry"
)

const avatarBaseURL = "https://api.dicebear.com/9.x/avataaars/svg"

type Repository interface {
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	FindByEmail(ctx context.Context, email string) (domain.Contact, error)
	FindMany(ctx context.Context, q query.Query) ([]domain.Contact, error)
	Count(ctx context.Context, f query.Filter) (int, error)
	Update(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) (domain.Contact, error)
}

// Publisher receives committed changes. Failures never undo a mutation.
// Implementations must not block on the downstream transport.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ContactEvent) error
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

type Service struct {
	repo      Repository
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Create(ctx context.Context, in domain.ContactInput) (c domain.Contact, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "contact.Create")
	defer func() { endSpan(span, err) }()

	in, err = domain.ValidateContact(in)
	if err != nil {
		return domain.Contact{}, err
	}

	// Advisory only: the unique index decides under concurrent writers.
	if err = s.ensureEmailFree(ctx, in.Email, uuid.Nil); err != nil {
		return domain.Contact{}, err
	}

	now := s.timestamp()
	c, err = s.repo.Create(ctx, domain.Contact{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		AvatarURL: AvatarURL(in.Name),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Contact{}, err
	}

	s.publish(ctx, domain.EventCreated, c)
	return c, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (domain.Contact, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Contact{}, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, p query.Params) (page domain.ContactPage, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "contact.List", trace.WithAttributes(
		attribute.Int("page", p.Page),
		attribute.Int("limit", p.Limit),
		attribute.String("sort", p.Sort),
		attribute.String("country", p.Country),
	))
	defer func() { endSpan(span, err) }()

	q, err := query.Build(p)
	if err != nil {
		return domain.ContactPage{}, err
	}

	contacts, err := s.repo.FindMany(ctx, q)
	if err != nil {
		return domain.ContactPage{}, err
	}

	total, err := s.repo.Count(ctx, q.Filter)
	if err != nil {
		return domain.ContactPage{}, err
	}

	return domain.ContactPage{
		Contacts:      contacts,
		TotalPages:    query.TotalPages(total, q.Limit),
		CurrentPage:   p.Page,
		TotalContacts: total,
	}, nil
}

func (s *Service) Update(ctx context.Context, rawID string, patch domain.ContactPatch) (c domain.Contact, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "contact.Update")
	defer func() { endSpan(span, err) }()

	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Contact{}, err
	}

	if patch.IsEmpty() {
		return domain.Contact{}, &domain.ValidationError{Violations: []domain.Violation{{
			Message: "At least one of name, email or phone is required",
		}}}
	}

	patch, err = domain.ValidatePatch(patch)
	if err != nil {
		return domain.Contact{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Contact{}, err
	}

	in, err := domain.ValidateContact(patch.Apply(current))
	if err != nil {
		return domain.Contact{}, err
	}

	if patch.Email != nil {
		if err = s.ensureEmailFree(ctx, in.Email, id); err != nil {
			return domain.Contact{}, err
		}
	}

	next := current
	next.Name = in.Name
	next.Email = in.Email
	next.Phone = in.Phone
	next.UpdatedAt = s.timestamp()
	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(time.Microsecond)
	}

	c, err = s.repo.Update(ctx, next)
	if err != nil {
		return domain.Contact{}, err
	}

	s.publish(ctx, domain.EventUpdated, c)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) (c domain.Contact, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "contact.Delete")
	defer func() { endSpan(span, err) }()

	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Contact{}, err
	}

	c, err = s.repo.Delete(ctx, id)
	if err != nil {
		return domain.Contact{}, err
	}

	s.publish(ctx, domain.EventDeleted, c)
	return c, nil
}

// AvatarURL derives the avatar reference stored with a new contact.
func AvatarURL(name string) string {
	v := url.Values{}
	v.Set("seed", name)
	v.Set("size", "128")

	return avatarBaseURL + "?" + v.Encode()
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrContactNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID == self:
		return nil
	default:
		return domain.ErrDuplicateEmail
	}
}

// timestamp is microsecond precision, the finest both dialects keep.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) publish(ctx context.Context, t domain.EventType, c domain.Contact) {
	if s.publisher == nil {
		return
	}

	ev := domain.ContactEvent{Type: t, Contact: c, At: s.timestamp()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish contact event failed", "type", t, "contact_id", c.ID, "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && IsUnexpected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IsUnexpected reports whether err falls outside the domain error categories.
func IsUnexpected(err error) bool {
	return err != nil &&
		!errors.Is(err, domain.ErrValidation) &&
		!errors.Is(err, domain.ErrInvalidID) &&
		!errors.Is(err, domain.ErrContactNotFound) &&
		!errors.Is(err, domain.ErrDuplicateEmail)
}
