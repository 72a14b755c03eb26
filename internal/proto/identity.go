// Package proto describes the gophauth.v1.Identity gRPC service by hand.
// Requests and responses are google.protobuf.Struct values, so the service
// needs no generated code.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the identity service.
const ServiceName = "gophauth.v1.Identity"

const (
	MethodCreate = "Create"
	MethodUpdate = "Update"
	MethodRead   = "Read"
)

// IdentityServer is the server API for the identity service. Requests carry
// the create body or update patch; responses are the envelope.
type IdentityServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Read(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns the gRPC method path, e.g. /gophauth.v1.Identity/Read.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryHandler(name string, call func(IdentityServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodCreate, Handler: unaryHandler(MethodCreate, IdentityServer.Create)},
		{MethodName: MethodUpdate, Handler: unaryHandler(MethodUpdate, IdentityServer.Update)},
		{MethodName: MethodRead, Handler: unaryHandler(MethodRead, IdentityServer.Read)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/identity.proto",
}

// RegisterIdentityServer registers srv on s.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&identityServiceDesc, srv)
}

// IdentityClient calls the identity service over cc.
type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

func (c *IdentityClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreate, in, opts...)
}

func (c *IdentityClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUpdate, in, opts...)
}

func (c *IdentityClient) Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRead, in, opts...)
}

func (c *IdentityClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EnvelopeFromError recovers the envelope attached to a failed call.
func EnvelopeFromError(err error) (map[string]any, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, d := range st.Details() {
		if env, ok := d.(*structpb.Struct); ok {
			return env.AsMap(), true
		}
	}
	return nil, false
}
