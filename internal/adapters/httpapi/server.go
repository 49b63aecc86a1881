// Package httpapi exposes the contact service as a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	"github.com/kvetinski/contacts/internal/telemetry"
)

const maxBodyBytes = 1 << 20

type ContactService interface {
	Create(ctx context.Context, in domain.ContactInput) (domain.Contact, error)
	Get(ctx context.Context, rawID string) (domain.Contact, error)
	List(ctx context.Context, p query.Params) (domain.ContactPage, error)
	Update(ctx context.Context, rawID string, patch domain.ContactPatch) (domain.Contact, error)
	Delete(ctx context.Context, rawID string) (domain.Contact, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// Pinger backs /healthz. Without one the endpoint always reports ok.
	Pinger  Pinger
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	// DefaultLimit is the page size used when a list request omits limit.
	DefaultLimit int
}

type Server struct {
	svc          ContactService
	pinger       Pinger
	logger       *slog.Logger
	defaultLimit int
}

// NewHandler returns the routed, instrumented API handler.
func NewHandler(svc ContactService, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = query.DefaultLimit
	}

	s := &Server{
		svc:          svc,
		pinger:       opts.Pinger,
		logger:       opts.Logger,
		defaultLimit: opts.DefaultLimit,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/contacts", s.listContacts)
	mux.HandleFunc("POST /api/contacts", s.createContact)
	mux.HandleFunc("GET /api/contacts/{id}", s.getContact)
	mux.HandleFunc("PUT /api/contacts/{id}", s.updateContact)
	mux.HandleFunc("DELETE /api/contacts/{id}", s.deleteContact)
	mux.HandleFunc("GET /healthz", s.healthz)

	var h http.Handler = mux
	h = requestMetrics(h, opts.Metrics, opts.Logger)
	return otelhttp.NewHandler(h, "contacts-http")
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	p, err := query.ParseValues(r.URL.Query(), s.defaultLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.svc.List(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if page.Contacts == nil {
		page.Contacts = []domain.Contact{}
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var in domain.ContactInput
	if !s.decode(w, r, &in) {
		return
	}

	c, err := s.svc.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	var patch domain.ContactPatch
	if !s.decode(w, r, &patch) {
		return
	}

	c, err := s.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Contact deleted"})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}

	return true
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string             `json:"error"`
	Details []domain.Violation `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Details: verr.Violations})
	case errors.Is(err, domain.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrContactNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
