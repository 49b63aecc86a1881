// Package contactsv1 declares the contacts.v1.ContactService gRPC service.
//
// Requests and responses are protobuf well-known types: contacts travel as
// google.protobuf.Struct using the same field names as the JSON API, ids as
// google.protobuf.StringValue.
package contactsv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "contacts.v1.ContactService"

const (
	ContactService_CreateContact_FullMethodName = "/contacts.v1.ContactService/CreateContact"
	ContactService_GetContact_FullMethodName    = "/contacts.v1.ContactService/GetContact"
	ContactService_UpdateContact_FullMethodName = "/contacts.v1.ContactService/UpdateContact"
	ContactService_DeleteContact_FullMethodName = "/contacts.v1.ContactService/DeleteContact"
	ContactService_ListContacts_FullMethodName  = "/contacts.v1.ContactService/ListContacts"
)

type ContactServiceClient interface {
	CreateContact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetContact(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateContact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteContact(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ListContacts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type contactServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewContactServiceClient(cc grpc.ClientConnInterface) ContactServiceClient {
	return &contactServiceClient{cc}
}

func (c *contactServiceClient) CreateContact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ContactService_CreateContact_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contactServiceClient) GetContact(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ContactService_GetContact_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contactServiceClient) UpdateContact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ContactService_UpdateContact_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contactServiceClient) DeleteContact(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ContactService_DeleteContact_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contactServiceClient) ListContacts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ContactService_ListContacts_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ContactServiceServer must embed UnimplementedContactServiceServer.
type ContactServiceServer interface {
	CreateContact(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContact(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	UpdateContact(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteContact(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ListContacts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedContactServiceServer()
}

type UnimplementedContactServiceServer struct{}

func (UnimplementedContactServiceServer) CreateContact(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateContact not implemented")
}

func (UnimplementedContactServiceServer) GetContact(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetContact not implemented")
}

func (UnimplementedContactServiceServer) UpdateContact(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateContact not implemented")
}

func (UnimplementedContactServiceServer) DeleteContact(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteContact not implemented")
}

func (UnimplementedContactServiceServer) ListContacts(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListContacts not implemented")
}

func (UnimplementedContactServiceServer) mustEmbedUnimplementedContactServiceServer() {}

func RegisterContactServiceServer(s grpc.ServiceRegistrar, srv ContactServiceServer) {
	s.RegisterService(&ContactService_ServiceDesc, srv)
}

func _ContactService_CreateContact_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).CreateContact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_CreateContact_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).CreateContact(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_GetContact_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).GetContact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_GetContact_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).GetContact(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_UpdateContact_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).UpdateContact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_UpdateContact_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).UpdateContact(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_DeleteContact_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).DeleteContact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_DeleteContact_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).DeleteContact(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_ListContacts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).ListContacts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_ListContacts_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).ListContacts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var ContactService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContactServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateContact", Handler: _ContactService_CreateContact_Handler},
		{MethodName: "GetContact", Handler: _ContactService_GetContact_Handler},
		{MethodName: "UpdateContact", Handler: _ContactService_UpdateContact_Handler},
		{MethodName: "DeleteContact", Handler: _ContactService_DeleteContact_Handler},
		{MethodName: "ListContacts", Handler: _ContactService_ListContacts_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contacts/v1/contacts.proto",
}
