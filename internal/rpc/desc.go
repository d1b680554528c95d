package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "qlip.v1.History"

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

// HistoryServer is the server API of qlip.v1.History.
type HistoryServer interface {
	List(context.Context, *ListRequest) (*ListResponse, error)
	Get(context.Context, *IDRequest) (*EntryResponse, error)
	Add(context.Context, *AddRequest) (*AddResponse, error)
	ToggleFavorite(context.Context, *IDRequest) (*EntryResponse, error)
	Delete(context.Context, *IDRequest) (*Empty, error)
	DeleteAll(context.Context, *Empty) (*Empty, error)
	Use(context.Context, *IDRequest) (*Empty, error)
	SetPaused(context.Context, *PauseRequest) (*StatusResponse, error)
	Status(context.Context, *Empty) (*StatusResponse, error)
	Watch(*WatchRequest, grpc.ServerStream) error
}

// ServiceDesc describes qlip.v1.History for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", HistoryServer.List),
		unary("Get", HistoryServer.Get),
		unary("Add", HistoryServer.Add),
		unary("ToggleFavorite", HistoryServer.ToggleFavorite),
		unary("Delete", HistoryServer.Delete),
		unary("DeleteAll", HistoryServer.DeleteAll),
		unary("Use", HistoryServer.Use),
		unary("SetPaused", HistoryServer.SetPaused),
		unary("Status", HistoryServer.Status),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(WatchRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(HistoryServer).Watch(in, stream)
			},
		},
	},
	Metadata: "qlip/v1/history",
}

// Register adds srv to s.
func Register(s *grpc.Server, srv HistoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the method descriptor for one request/response call.
func unary[Req, Resp any](name string, call func(HistoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}
