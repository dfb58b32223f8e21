package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DiagnosticsServiceName is the fully qualified gRPC service name.
const DiagnosticsServiceName = "netdoctor.v1.Diagnostics"

const (
	methodRunDiagnostics = "RunDiagnostics"
	methodAnalyzeMetrics = "AnalyzeMetrics"
	methodAnswerQuery    = "AnswerQuery"
)

// DiagnosticsServer is the server API of netdoctor.v1.Diagnostics. Payloads
// are google.protobuf.Struct documents using the JSON field names of the
// models package.
type DiagnosticsServer interface {
	RunDiagnostics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnswerQuery(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedDiagnosticsServer can be embedded for forward compatibility.
type UnimplementedDiagnosticsServer struct{}

func (UnimplementedDiagnosticsServer) RunDiagnostics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RunDiagnostics not implemented")
}

func (UnimplementedDiagnosticsServer) AnalyzeMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnalyzeMetrics not implemented")
}

func (UnimplementedDiagnosticsServer) AnswerQuery(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnswerQuery not implemented")
}

// RegisterDiagnosticsServer attaches srv to a gRPC server.
func RegisterDiagnosticsServer(s grpc.ServiceRegistrar, srv DiagnosticsServer) {
	s.RegisterService(&DiagnosticsServiceDesc, srv)
}

type unaryCall func(DiagnosticsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DiagnosticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + DiagnosticsServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DiagnosticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DiagnosticsServiceDesc describes netdoctor.v1.Diagnostics for grpc.Server.
var DiagnosticsServiceDesc = grpc.ServiceDesc{
	ServiceName: DiagnosticsServiceName,
	HandlerType: (*DiagnosticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodRunDiagnostics, Handler: unaryHandler(methodRunDiagnostics, DiagnosticsServer.RunDiagnostics)},
		{MethodName: methodAnalyzeMetrics, Handler: unaryHandler(methodAnalyzeMetrics, DiagnosticsServer.AnalyzeMetrics)},
		{MethodName: methodAnswerQuery, Handler: unaryHandler(methodAnswerQuery, DiagnosticsServer.AnswerQuery)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "netdoctor/v1/diagnostics.proto",
}

// DiagnosticsClient calls netdoctor.v1.Diagnostics.
type DiagnosticsClient struct {
	cc grpc.ClientConnInterface
}

// NewDiagnosticsClient wraps a client connection.
func NewDiagnosticsClient(cc grpc.ClientConnInterface) *DiagnosticsClient {
	return &DiagnosticsClient{cc: cc}
}

func (c *DiagnosticsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+DiagnosticsServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DiagnosticsClient) RunDiagnostics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRunDiagnostics, in, opts...)
}

func (c *DiagnosticsClient) AnalyzeMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnalyzeMetrics, in, opts...)
}

func (c *DiagnosticsClient) AnswerQuery(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnswerQuery, in, opts...)
}
