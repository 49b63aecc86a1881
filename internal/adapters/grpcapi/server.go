package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kvetinski/contacts/internal/adapters/grpcapi/contactsv1"
	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

type ContactService interface {
	Create(ctx context.Context, in domain.ContactInput) (domain.Contact, error)
	Get(ctx context.Context, rawID string) (domain.Contact, error)
	List(ctx context.Context, p query.Params) (domain.ContactPage, error)
	Update(ctx context.Context, rawID string, patch domain.ContactPatch) (domain.Contact, error)
	Delete(ctx context.Context, rawID string) (domain.Contact, error)
}

type Server struct {
	contactsv1.UnimplementedContactServiceServer

	svc          ContactService
	logger       *slog.Logger
	defaultLimit int
}

// NewServer builds the gRPC contact service. defaultLimit is the page size
// used when ListContacts omits limit; values below 1 fall back to
// query.DefaultLimit.
func NewServer(svc ContactService, logger *slog.Logger, defaultLimit int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = query.DefaultLimit
	}

	return &Server{svc: svc, logger: logger, defaultLimit: defaultLimit}
}

func (s *Server) CreateContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in domain.ContactInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	c, err := s.svc.Create(ctx, in)
	if err != nil {
		return nil, s.mapDomainError(err)
	}

	return toStruct(c)
}

func (s *Server) GetContact(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	c, err := s.svc.Get(ctx, req.GetValue())
	if err != nil {
		return nil, s.mapDomainError(err)
	}

	return toStruct(c)
}

type updateRequest struct {
	ID string `json:"id"`
	domain.ContactPatch
}

func (s *Server) UpdateContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	c, err := s.svc.Update(ctx, in.ID, in.ContactPatch)
	if err != nil {
		return nil, s.mapDomainError(err)
	}

	return toStruct(c)
}

func (s *Server) DeleteContact(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if _, err := s.svc.Delete(ctx, req.GetValue()); err != nil {
		return nil, s.mapDomainError(err)
	}

	return &emptypb.Empty{}, nil
}

type listRequest struct {
	Page    *int    `json:"page"`
	Limit   *int    `json:"limit"`
	Sort    *string `json:"sort"`
	Search  *string `json:"search"`
	Country *string `json:"country"`
}

func (s *Server) ListContacts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	p := query.DefaultParams()
	p.Limit = s.defaultLimit
	if in.Page != nil {
		p.Page = *in.Page
	}
	if in.Limit != nil {
		p.Limit = *in.Limit
	}
	if in.Sort != nil && *in.Sort != "" {
		p.Sort = *in.Sort
	}
	if in.Search != nil {
		p.Search = *in.Search
	}
	if in.Country != nil && *in.Country != "" {
		p.Country = *in.Country
	}

	page, err := s.svc.List(ctx, p)
	if err != nil {
		return nil, s.mapDomainError(err)
	}
	if page.Contacts == nil {
		page.Contacts = []domain.Contact{}
	}

	return toStruct(page)
}

func (s *Server) mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrContactNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.Error("grpc request failed", "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

// fromStruct decodes a Struct message into dst through its JSON form.
func fromStruct(src *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(src)
	if err != nil {
		return status.Error(codes.InvalidArgument, "malformed request")
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return status.Error(codes.InvalidArgument, "malformed request: "+err.Error())
	}

	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}

	out := &structpb.Struct{}
	if err = protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}

	return out, nil
}
