package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	"github.com/kvetinski/contacts/internal/telemetry"
)

const contactColumns = `id, name, email, phone_country_code, phone_number, avatar_url, created_at, updated_at`

var sortColumns = map[query.SortField]string{
	query.SortName:      "name",
	query.SortEmail:     "email",
	query.SortCreatedAt: "created_at",
	query.SortUpdatedAt: "updated_at",
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
	metrics *telemetry.Metrics
}

func New(db *sql.DB, dialect Dialect) *Repository {
	return NewWithMetrics(db, dialect, nil)
}

func NewWithMetrics(db *sql.DB, dialect Dialect, metrics *telemetry.Metrics) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		metrics: metrics,
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("create", status, time.Since(start))
	}()

	q := r.dialect.rebind(`
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + contactColumns)

	out, err := scanContact(r.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.Email, c.Phone.CountryCode, c.Phone.Number, c.AvatarURL, c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			status = "conflict"
			return domain.Contact{}, domain.ErrDuplicateEmail
		}

		status = "error"
		return domain.Contact{}, fmt.Errorf("create contact: %w", err)
	}

	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("get_by_id", status, time.Since(start))
	}()

	q := r.dialect.rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`)

	c, err := scanContact(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return domain.Contact{}, domain.ErrContactNotFound
		}

		status = "error"
		return domain.Contact{}, fmt.Errorf("get contact: %w", err)
	}

	return c, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("find_by_email", status, time.Since(start))
	}()

	q := r.dialect.rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE LOWER(email) = ?`)

	c, err := scanContact(r.db.QueryRowContext(ctx, q, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return domain.Contact{}, domain.ErrContactNotFound
		}

		status = "error"
		return domain.Contact{}, fmt.Errorf("find contact by email: %w", err)
	}

	return c, nil
}

func (r *Repository) FindMany(ctx context.Context, qry query.Query) ([]domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("find_many", status, time.Since(start))
	}()

	where, args := whereClause(qry.Filter)

	column, ok := sortColumns[qry.Sort.Field]
	if !ok {
		column = sortColumns[query.SortCreatedAt]
	}
	direction := "ASC"
	if qry.Sort.Desc {
		direction = "DESC"
	}

	q := r.dialect.rebind(`SELECT ` + contactColumns + ` FROM contacts` + where +
		` ORDER BY ` + column + ` ` + direction + `, id ASC LIMIT ? OFFSET ?`)
	args = append(args, qry.Limit, qry.Skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0, qry.Limit)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			status = "error"
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err = rows.Err(); err != nil {
		status = "error"
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, nil
}

func (r *Repository) Count(ctx context.Context, filter query.Filter) (int, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("count", status, time.Since(start))
	}()

	where, args := whereClause(filter)
	q := r.dialect.rebind(`SELECT COUNT(*) FROM contacts` + where)

	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		status = "error"
		return 0, fmt.Errorf("count contacts: %w", err)
	}

	return n, nil
}

func (r *Repository) Update(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("update", status, time.Since(start))
	}()

	q := r.dialect.rebind(`
		UPDATE contacts
		SET name = ?,
		    email = ?,
		    phone_country_code = ?,
		    phone_number = ?,
		    updated_at = ?
		WHERE id = ?
		RETURNING ` + contactColumns)

	out, err := scanContact(r.db.QueryRowContext(ctx, q,
		c.Name, c.Email, c.Phone.CountryCode, c.Phone.Number, c.UpdatedAt, c.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return domain.Contact{}, domain.ErrContactNotFound
		}

		if r.dialect.isUniqueViolation(err) {
			status = "conflict"
			return domain.Contact{}, domain.ErrDuplicateEmail
		}

		status = "error"
		return domain.Contact{}, fmt.Errorf("update contact: %w", err)
	}

	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		r.metrics.ObserveDB("delete", status, time.Since(start))
	}()

	q := r.dialect.rebind(`DELETE FROM contacts WHERE id = ? RETURNING ` + contactColumns)

	c, err := scanContact(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return domain.Contact{}, domain.ErrContactNotFound
		}

		status = "error"
		return domain.Contact{}, fmt.Errorf("delete contact: %w", err)
	}

	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone.CountryCode,
		&c.Phone.Number,
		&c.AvatarURL,
		timestamp{&c.CreatedAt},
		timestamp{&c.UpdatedAt},
	)

	return c, err
}

// whereClause renders f with ? placeholders. Search is OR-ed across name and
// phone number, the country code is AND-ed on top.
func whereClause(f query.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		conds = append(conds, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(phone_number) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if f.CountryCode != "" {
		conds = append(conds, `phone_country_code = ?`)
		args = append(args, f.CountryCode)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
