package rpc

import (
	"context"

	"google.golang.org/grpc"

	"go.klb.dev/clipstash/internal/hub"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clipstash.v1.History"

// HistoryServer is the server API for the History service.
type HistoryServer interface {
	List(context.Context, *ListRequest) (*ItemsResponse, error)
	Search(context.Context, *SearchRequest) (*ItemsResponse, error)
	Get(context.Context, *IDRequest) (*ItemResponse, error)
	Touch(context.Context, *IDRequest) (*ItemResponse, error)
	Paste(context.Context, *IDRequest) (*ItemResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	Watch(*WatchRequest, WatchServer) error
}

// WatchServer is the server side of the Watch stream.
type WatchServer interface {
	Send(*hub.Event) error
	grpc.ServerStream
}

type watchServer struct{ grpc.ServerStream }

func (s *watchServer) Send(e *hub.Event) error { return s.ServerStream.SendMsg(e) }

// Register attaches srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", HistoryServer.List),
		unary("Search", HistoryServer.Search),
		unary("Get", HistoryServer.Get),
		unary("Touch", HistoryServer.Touch),
		unary("Paste", HistoryServer.Paste),
		unary("Status", HistoryServer.Status),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "clipstash/v1/history",
}

func unary[Req, Resp any](name string, call func(HistoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HistoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*Req))
			})
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(HistoryServer).Watch(in, &watchServer{stream})
}
