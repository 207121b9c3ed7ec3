// Package compliancewatchv1 defines the compliancewatch.v1.ComplianceService
// gRPC service. Requests and responses are google.protobuf.Struct values
// carrying the same JSON documents as the MCP tools and the HTTP API.
package compliancewatchv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "compliancewatch.v1.ComplianceService"

// Full method names.
const (
	ComplianceService_Assess_FullMethodName        = "/" + ServiceName + "/Assess"
	ComplianceService_AssessContext_FullMethodName = "/" + ServiceName + "/AssessContext"
	ComplianceService_IngestPolicy_FullMethodName  = "/" + ServiceName + "/IngestPolicy"
	ComplianceService_IngestCase_FullMethodName    = "/" + ServiceName + "/IngestCase"
	ComplianceService_GetDocument_FullMethodName   = "/" + ServiceName + "/GetDocument"
	ComplianceService_Seed_FullMethodName          = "/" + ServiceName + "/Seed"
)

// ComplianceServiceServer is the server API for ComplianceService.
type ComplianceServiceServer interface {
	// Assess takes {category, payload} and returns a full assessment.
	Assess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// AssessContext takes {category, payload} and returns unscored evidence.
	AssessContext(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// IngestPolicy takes a policy document and returns collection counts.
	IngestPolicy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// IngestCase takes a case document and returns collection counts.
	IngestCase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetDocument takes {id} and returns {id, type, document}.
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Seed populates the demo knowledge base when it is empty.
	Seed(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedComplianceServiceServer returns Unimplemented for every method.
type UnimplementedComplianceServiceServer struct{}

func (UnimplementedComplianceServiceServer) Assess(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Assess not implemented")
}
func (UnimplementedComplianceServiceServer) AssessContext(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AssessContext not implemented")
}
func (UnimplementedComplianceServiceServer) IngestPolicy(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IngestPolicy not implemented")
}
func (UnimplementedComplianceServiceServer) IngestCase(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IngestCase not implemented")
}
func (UnimplementedComplianceServiceServer) GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDocument not implemented")
}
func (UnimplementedComplianceServiceServer) Seed(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Seed not implemented")
}

// RegisterComplianceServiceServer registers srv on s.
func RegisterComplianceServiceServer(s grpc.ServiceRegistrar, srv ComplianceServiceServer) {
	s.RegisterService(&ComplianceService_ServiceDesc, srv)
}

type unaryMethod func(ComplianceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ComplianceServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ComplianceServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ComplianceService_ServiceDesc is the grpc.ServiceDesc for ComplianceService.
var ComplianceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ComplianceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Assess",
			Handler: unaryHandler(ComplianceService_Assess_FullMethodName, ComplianceServiceServer.Assess),
		},
		{
			MethodName: "AssessContext",
			Handler: unaryHandler(ComplianceService_AssessContext_FullMethodName, ComplianceServiceServer.AssessContext),
		},
		{
			MethodName: "IngestPolicy",
			Handler: unaryHandler(ComplianceService_IngestPolicy_FullMethodName, ComplianceServiceServer.IngestPolicy),
		},
		{
			MethodName: "IngestCase",
			Handler: unaryHandler(ComplianceService_IngestCase_FullMethodName, ComplianceServiceServer.IngestCase),
		},
		{
			MethodName: "GetDocument",
			Handler: unaryHandler(ComplianceService_GetDocument_FullMethodName, ComplianceServiceServer.GetDocument),
		},
		{
			MethodName: "Seed",
			Handler: unaryHandler(ComplianceService_Seed_FullMethodName, ComplianceServiceServer.Seed),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "compliancewatch/v1/service.proto",
}

// ComplianceServiceClient is the client API for ComplianceService.
type ComplianceServiceClient interface {
	Assess(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AssessContext(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	IngestPolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	IngestCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Seed(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type complianceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewComplianceServiceClient wraps a connection.
func NewComplianceServiceClient(cc grpc.ClientConnInterface) ComplianceServiceClient {
	return &complianceServiceClient{cc}
}

func (c *complianceServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *complianceServiceClient) Assess(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_Assess_FullMethodName, in, opts)
}

func (c *complianceServiceClient) AssessContext(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_AssessContext_FullMethodName, in, opts)
}

func (c *complianceServiceClient) IngestPolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_IngestPolicy_FullMethodName, in, opts)
}

func (c *complianceServiceClient) IngestCase(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_IngestCase_FullMethodName, in, opts)
}

func (c *complianceServiceClient) GetDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_GetDocument_FullMethodName, in, opts)
}

func (c *complianceServiceClient) Seed(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ComplianceService_Seed_FullMethodName, in, opts)
}
