// Package api is a typed client for the contacts HTTP API. Error statuses are
// mapped back to the domain error values so callers can use errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// StatusError is returned for error responses that map to no domain error.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) List(ctx context.Context, p query.Params) (domain.ContactPage, error) {
	var page domain.ContactPage
	err := c.do(ctx, http.MethodGet, "/api/contacts?"+p.Values().Encode(), nil, &page)
	return page, err
}

func (c *Client) Get(ctx context.Context, id string) (domain.Contact, error) {
	var out domain.Contact
	err := c.do(ctx, http.MethodGet, "/api/contacts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, in domain.ContactInput) (domain.Contact, error) {
	var out domain.Contact
	err := c.do(ctx, http.MethodPost, "/api/contacts", in, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id string, patch domain.ContactPatch) (domain.Contact, error) {
	var out domain.Contact
	err := c.do(ctx, http.MethodPut, "/api/contacts/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/contacts/"+url.PathEscape(id), nil, nil)
}

type errorBody struct {
	Error   string             `json:"error"`
	Details []domain.Violation `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if len(body.Details) > 0 {
			return &domain.ValidationError{Violations: body.Details}
		}
		if strings.Contains(body.Error, domain.ErrInvalidID.Error()) {
			return domain.ErrInvalidID
		}
		return &domain.ValidationError{Violations: []domain.Violation{{Message: body.Error}}}
	case http.StatusNotFound:
		return domain.ErrContactNotFound
	case http.StatusConflict:
		return domain.ErrDuplicateEmail
	default:
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var serr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrContactNotFound),
		errors.Is(err, domain.ErrDuplicateEmail):
		return err.Error()
	case errors.As(err, &serr):
		return serr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return "could not reach the contacts server"
	}
}
