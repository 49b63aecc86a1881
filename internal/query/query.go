// Package query turns list request parameters into a store-level
// filter/sort/pagination descriptor.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kvetinski/contacts/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 6
	MaxLimit     = 100
	DefaultSort  = "createdAt_desc"
	CountryAll   = "all"
)

type SortField string

const (
	SortName      SortField = "name"
	SortEmail     SortField = "email"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

var sortable = map[SortField]bool{
	SortName:      true,
	SortEmail:     true,
	SortCreatedAt: true,
	SortUpdatedAt: true,
}

// Params are the list parameters as a client sends them.
type Params struct {
	Page    int
	Limit   int
	Sort    string
	Search  string
	Country string
}

func DefaultParams() Params {
	return Params{
		Page:    DefaultPage,
		Limit:   DefaultLimit,
		Sort:    DefaultSort,
		Country: CountryAll,
	}
}

// Values encodes p as URL query parameters.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("sort", p.Sort)
	v.Set("search", p.Search)
	v.Set("country", p.Country)

	return v
}

type Filter struct {
	// Search matches name or phone number as a case-insensitive substring.
	Search string
	// CountryCode restricts phone.countryCode; empty means any.
	CountryCode string
}

type Sort struct {
	Field SortField
	Desc  bool
}

type Query struct {
	Filter Filter
	Sort   Sort
	Skip   int
	Limit  int
}

// ParseValues reads list parameters from a URL query, applying defaults for
// absent or empty values.
func ParseValues(v url.Values, defaultLimit int) (Params, error) {
	p := DefaultParams()
	if defaultLimit > 0 {
		p.Limit = defaultLimit
	}

	var violations []domain.Violation
	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			violations = append(violations, domain.Violation{Field: "page", Message: "page must be an integer"})
		}
		p.Page = n
	}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			violations = append(violations, domain.Violation{Field: "limit", Message: "limit must be an integer"})
		}
		p.Limit = n
	}
	if raw := strings.TrimSpace(v.Get("sort")); raw != "" {
		p.Sort = raw
	}
	p.Search = v.Get("search")
	if raw := strings.TrimSpace(v.Get("country")); raw != "" {
		p.Country = raw
	}

	if len(violations) > 0 {
		return Params{}, &domain.ValidationError{Violations: violations}
	}

	return p, nil
}

// ParseSort splits s of the form field_direction. The field must be one of
// the sortable fields; a direction other than "desc" sorts ascending.
func ParseSort(s string) (Sort, error) {
	field, dir := s, ""
	if i := strings.LastIndex(s, "_"); i >= 0 {
		field, dir = s[:i], s[i+1:]
	}

	f := SortField(field)
	if !sortable[f] {
		return Sort{}, &domain.ValidationError{Violations: []domain.Violation{{
			Field:   "sort",
			Message: "sort field must be one of name, email, createdAt, updatedAt",
		}}}
	}

	return Sort{Field: f, Desc: dir == "desc"}, nil
}

func (s Sort) String() string {
	if s.Desc {
		return string(s.Field) + "_desc"
	}

	return string(s.Field) + "_asc"
}

// Build validates p and produces the store query for it.
func Build(p Params) (Query, error) {
	var violations []domain.Violation
	if p.Page < 1 {
		violations = append(violations, domain.Violation{Field: "page", Message: "page must be at least 1"})
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		violations = append(violations, domain.Violation{Field: "limit", Message: "limit must be between 1 and 100"})
	}

	sort, err := ParseSort(p.Sort)
	if err != nil {
		violations = append(violations, err.(*domain.ValidationError).Violations...)
	}

	if len(violations) > 0 {
		return Query{}, &domain.ValidationError{Violations: violations}
	}

	q := Query{
		Sort:  sort,
		Skip:  (p.Page - 1) * p.Limit,
		Limit: p.Limit,
	}
	q.Filter.Search = strings.TrimSpace(p.Search)
	if p.Country != "" && p.Country != CountryAll {
		q.Filter.CountryCode = p.Country
	}

	return q, nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}

	return (total + limit - 1) / limit
}
