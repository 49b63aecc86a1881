package grpcapi_test

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kvetinski/contacts/internal/adapters/grpcapi"
	"github.com/kvetinski/contacts/internal/adapters/grpcapi/contactsv1"
	"github.com/kvetinski/contacts/internal/adapters/repository"
	"github.com/kvetinski/contacts/internal/adapters/repository/migrations"
	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	contactsvc "github.com/kvetinski/contacts/internal/service/contact"
)

const bufSize = 1024 * 1024

func startGRPCClient(t *testing.T, svc grpcapi.ContactService) contactsv1.ContactServiceClient {
	t.Helper()
	return startGRPCClientWithLimit(t, svc, 0)
}

func startGRPCClientWithLimit(t *testing.T, svc grpcapi.ContactService, defaultLimit int) contactsv1.ContactServiceClient {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	s := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.UnaryMetricsInterceptor(nil, slog.Default())))
	contactsv1.RegisterContactServiceServer(s, grpcapi.NewServer(svc, slog.Default(), defaultLimit))

	go func() {
		_ = s.Serve(listener)
	}()

	t.Cleanup(func() {
		s.Stop()
		_ = listener.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, err := grpc.DialContext(
		ctx,
		"bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial grpc: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return contactsv1.NewContactServiceClient(conn)
}

func newSQLiteService(t *testing.T) *contactsvc.Service {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := repository.Open(ctx, repository.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = migrations.Up(ctx, db, string(repository.SQLite), nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return contactsvc.New(repository.New(db, repository.SQLite))
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()

	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestGRPCCreateGetUpdateDelete(t *testing.T) {
	client := startGRPCClient(t, newSQLiteService(t))
	ctx := context.Background()

	created, err := client.CreateContact(ctx, mustStruct(t, map[string]any{
		"name":  "Asha Rao",
		"email": "Asha@Example.com",
		"phone": map[string]any{"countryCode": "+91", "number": "9876543210"},
	}))
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	if got := created.GetFields()["email"].GetStringValue(); got != "asha@example.com" {
		t.Fatalf("expected lowercased email, got %q", got)
	}
	id := created.GetFields()["_id"].GetStringValue()

	got, err := client.GetContact(ctx, wrapperspb.String(id))
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	phone := got.GetFields()["phone"].GetStructValue().GetFields()
	if phone["countryCode"].GetStringValue() != "+91" || phone["number"].GetStringValue() != "9876543210" {
		t.Fatalf("unexpected phone: %v", phone)
	}

	updated, err := client.UpdateContact(ctx, mustStruct(t, map[string]any{"id": id, "name": "Asha Kumar"}))
	if err != nil {
		t.Fatalf("UpdateContact failed: %v", err)
	}
	if updated.GetFields()["name"].GetStringValue() != "Asha Kumar" {
		t.Fatalf("expected updated name, got %v", updated.GetFields()["name"])
	}

	list, err := client.ListContacts(ctx, mustStruct(t, map[string]any{"search": "kumar", "limit": 2}))
	if err != nil {
		t.Fatalf("ListContacts failed: %v", err)
	}
	if n := list.GetFields()["totalContacts"].GetNumberValue(); n != 1 {
		t.Fatalf("expected one match, got %v", n)
	}

	if _, err = client.DeleteContact(ctx, wrapperspb.String(id)); err != nil {
		t.Fatalf("DeleteContact failed: %v", err)
	}

	_, err = client.GetContact(ctx, wrapperspb.String(id))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound after delete, got %v", status.Code(err))
	}
}

func TestGRPCErrorCodes(t *testing.T) {
	client := startGRPCClient(t, newSQLiteService(t))
	ctx := context.Background()

	input := map[string]any{
		"name":  "John Smith",
		"email": "john@example.com",
		"phone": map[string]any{"countryCode": "+1", "number": "2025550143"},
	}
	if _, err := client.CreateContact(ctx, mustStruct(t, input)); err != nil {
		t.Fatalf("first CreateContact failed: %v", err)
	}

	_, err := client.CreateContact(ctx, mustStruct(t, input))
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", status.Code(err))
	}

	_, err = client.CreateContact(ctx, mustStruct(t, map[string]any{"name": "J"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for invalid input, got %v", status.Code(err))
	}

	_, err = client.GetContact(ctx, wrapperspb.String("not-a-uuid"))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad id, got %v", status.Code(err))
	}

	_, err = client.ListContacts(ctx, mustStruct(t, map[string]any{"sort": "phone_asc"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad sort, got %v", status.Code(err))
	}

	_, err = client.ListContacts(ctx, mustStruct(t, map[string]any{"page": 1.5}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for fractional page, got %v", status.Code(err))
	}
}

type failingService struct {
	grpcapi.ContactService
}

func (failingService) List(context.Context, query.Params) (domain.ContactPage, error) {
	return domain.ContactPage{}, errors.New("connection refused")
}

func (failingService) Get(context.Context, string) (domain.Contact, error) {
	panic("boom")
}

func TestGRPCHidesUnexpectedErrors(t *testing.T) {
	client := startGRPCClient(t, failingService{})

	_, err := client.ListContacts(context.Background(), mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "internal server error" {
		t.Fatalf("expected generic message, got %q", status.Convert(err).Message())
	}

	_, err = client.GetContact(context.Background(), wrapperspb.String("x"))
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal after panic, got %v", status.Code(err))
	}
}

type recordingService struct {
	grpcapi.ContactService
	got query.Params
}

func (r *recordingService) List(_ context.Context, p query.Params) (domain.ContactPage, error) {
	r.got = p
	return domain.ContactPage{CurrentPage: p.Page}, nil
}

func TestGRPCListUsesConfiguredDefaultLimit(t *testing.T) {
	tests := []struct {
		name         string
		defaultLimit int
		req          map[string]any
		want         int
	}{
		{name: "configured default", defaultLimit: 10, req: map[string]any{}, want: 10},
		{name: "explicit limit wins", defaultLimit: 10, req: map[string]any{"limit": 3}, want: 3},
		{name: "unset falls back", defaultLimit: 0, req: map[string]any{}, want: query.DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingService{}
			client := startGRPCClientWithLimit(t, rec, tt.defaultLimit)

			if _, err := client.ListContacts(context.Background(), mustStruct(t, tt.req)); err != nil {
				t.Fatalf("ListContacts failed: %v", err)
			}
			if rec.got.Limit != tt.want {
				t.Fatalf("limit = %d, want %d", rec.got.Limit, tt.want)
			}
		})
	}
}
