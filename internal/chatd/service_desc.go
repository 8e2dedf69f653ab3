package chatd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tOgg1/chatroom/internal/chatd/wire"
)

type unaryMethod func(ChatServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := &structpb.Struct{}
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := &structpb.Struct{}
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(ChatServer).SubscribeMessages(req, stream)
}

// ServiceDesc is the chatroom.v1.Chat service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(wire.MethodPing, ChatServer.Ping),
		unaryHandler(wire.MethodFetchConversation, ChatServer.FetchConversation),
		unaryHandler(wire.MethodListConversations, ChatServer.ListConversations),
		unaryHandler(wire.MethodSendMessage, ChatServer.SendMessage),
		unaryHandler(wire.MethodRemoveContact, ChatServer.RemoveContact),
		unaryHandler(wire.MethodLeaveGroup, ChatServer.LeaveGroup),
		unaryHandler(wire.MethodRenameGroup, ChatServer.RenameGroup),
		unaryHandler(wire.MethodSetGroupPhoto, ChatServer.SetGroupPhoto),
		unaryHandler(wire.MethodFetchProfile, ChatServer.FetchProfile),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    wire.MethodSubscribeMessages,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "chatroom/v1/chat.proto",
}
