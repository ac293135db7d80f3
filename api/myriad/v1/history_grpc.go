package myriadv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	HistoryServiceName = "myriad.v1.History"

	History_Log_FullMethodName      = "/myriad.v1.History/Log"
	History_Logs_FullMethodName     = "/myriad.v1.History/Logs"
	History_Usage_FullMethodName    = "/myriad.v1.History/Usage"
	History_Clear_FullMethodName    = "/myriad.v1.History/Clear"
	History_SetLimit_FullMethodName = "/myriad.v1.History/SetLimit"
)

// HistoryClient is the client API for the History service.
type HistoryClient interface {
	Log(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Logs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Usage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Clear(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetLimit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type historyClient struct {
	cc grpc.ClientConnInterface
}

func NewHistoryClient(cc grpc.ClientConnInterface) HistoryClient {
	return &historyClient{cc}
}

func (c *historyClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *historyClient) Log(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, History_Log_FullMethodName, in, opts)
}

func (c *historyClient) Logs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, History_Logs_FullMethodName, in, opts)
}

func (c *historyClient) Usage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, History_Usage_FullMethodName, in, opts)
}

func (c *historyClient) Clear(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, History_Clear_FullMethodName, in, opts)
}

func (c *historyClient) SetLimit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, History_SetLimit_FullMethodName, in, opts)
}

// HistoryServer is the server API for the History service. Implementations
// must embed UnimplementedHistoryServer.
type HistoryServer interface {
	Log(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Usage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Clear(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLimit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedHistoryServer()
}

// UnimplementedHistoryServer returns codes.Unimplemented for every method.
type UnimplementedHistoryServer struct{}

func (UnimplementedHistoryServer) Log(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Log not implemented")
}
func (UnimplementedHistoryServer) Logs(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Logs not implemented")
}
func (UnimplementedHistoryServer) Usage(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Usage not implemented")
}
func (UnimplementedHistoryServer) Clear(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Clear not implemented")
}
func (UnimplementedHistoryServer) SetLimit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetLimit not implemented")
}
func (UnimplementedHistoryServer) mustEmbedUnimplementedHistoryServer() {}

func RegisterHistoryServer(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&History_ServiceDesc, srv)
}

type historyMethod func(HistoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a HistoryServer method to a grpc.MethodHandler.
func unaryHandler(fullMethod string, call historyMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HistoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(HistoryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// History_ServiceDesc is the grpc.ServiceDesc for the History service.
var History_ServiceDesc = grpc.ServiceDesc{
	ServiceName: HistoryServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Log", Handler: unaryHandler(History_Log_FullMethodName, HistoryServer.Log)},
		{MethodName: "Logs", Handler: unaryHandler(History_Logs_FullMethodName, HistoryServer.Logs)},
		{MethodName: "Usage", Handler: unaryHandler(History_Usage_FullMethodName, HistoryServer.Usage)},
		{MethodName: "Clear", Handler: unaryHandler(History_Clear_FullMethodName, HistoryServer.Clear)},
		{MethodName: "SetLimit", Handler: unaryHandler(History_SetLimit_FullMethodName, HistoryServer.SetLimit)},
	},
	Streams: []grpc.StreamDesc{},
}
