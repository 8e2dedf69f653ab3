// Package chatd implements `chatroom serve`: a gRPC daemon that exposes a
// chat backend to remote clients.
package chatd

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tOgg1/chatroom/internal/chatd/wire"
	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/logging"
)

// ChatServer is the handler set behind the service descriptor.
type ChatServer interface {
	Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FetchConversation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListConversations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SubscribeMessages(req *structpb.Struct, stream grpc.ServerStream) error
	SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	LeaveGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RenameGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetGroupPhoto(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FetchProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Server serves a data.Provider.
type Server struct {
	backend data.Provider
	logger  zerolog.Logger
	version string
	started time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithVersion sets the version reported by Ping.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a Server over backend.
func NewServer(logger zerolog.Logger, backend data.Provider, opts ...ServerOption) *Server {
	s := &Server{
		backend: backend,
		logger:  logger,
		version: "dev",
		started: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches s to a gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	registrar.RegisterService(&ServiceDesc, s)
}

func requireField(req *structpb.Struct, key string) (string, error) {
	value := wire.String(req, key)
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return value, nil
}

// loggerFor prefers the request logger the daemon interceptor attached.
func (s *Server) loggerFor(ctx context.Context) zerolog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

func (s *Server) fail(ctx context.Context, method string, err error) error {
	converted := data.ToStatus(err)
	logger := s.loggerFor(ctx)
	if status.Code(converted) == codes.Internal {
		logger.Error().Err(err).Str("method", method).Msg("rpc failed")
	} else {
		logger.Debug().Err(err).Str("method", method).Msg("rpc rejected")
	}
	return converted
}

func (s *Server) Ping(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return wire.Request(map[string]string{
		wire.FieldVersion: s.version,
		"started_at":      s.started.Format(time.RFC3339),
	}), nil
}

func (s *Server) FetchConversation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	roomID, err := requireField(req, wire.FieldRoomID)
	if err != nil {
		return nil, err
	}
	conv, err := s.backend.FetchConversation(ctx, roomID)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodFetchConversation, err)
	}
	encoded, err := wire.EncodeConversation(conv)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodFetchConversation, err)
	}
	return wire.Wrap(wire.FieldConversation, encoded), nil
}

func (s *Server) ListConversations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireField(req, wire.FieldUserID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.backend.ListConversations(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodListConversations, err)
	}
	encoded := make([]*structpb.Struct, 0, len(rooms))
	for _, room := range rooms {
		item, err := wire.EncodeConversation(room)
		if err != nil {
			return nil, s.fail(ctx, wire.MethodListConversations, err)
		}
		encoded = append(encoded, item)
	}
	return wire.WrapList(wire.FieldConversations, encoded), nil
}

// SubscribeMessages forwards backend snapshots until the client goes away.
func (s *Server) SubscribeMessages(req *structpb.Struct, stream grpc.ServerStream) error {
	roomID, err := requireField(req, wire.FieldRoomID)
	if err != nil {
		return err
	}
	ctx := stream.Context()
	logger := logging.WithRoom(s.loggerFor(ctx), roomID)

	snapshots, cancel := s.backend.SubscribeMessages(roomID)
	defer cancel()
	logger.Debug().Msg("subscriber attached")
	defer logger.Debug().Msg("subscriber detached")

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-snapshots:
			if !ok {
				return status.Error(codes.Unavailable, "subscription closed")
			}
			if err := stream.SendMsg(wire.EncodeMessages(snapshot)); err != nil {
				return err
			}
		}
	}
}

func (s *Server) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	msg, err := wire.DecodeMessage(wire.Object(req, wire.FieldMessage))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	stored, err := s.backend.SendMessage(ctx, msg)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodSendMessage, err)
	}
	return wire.Wrap(wire.FieldMessage, wire.EncodeMessage(stored)), nil
}

func (s *Server) RemoveContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	selfID, err := requireField(req, wire.FieldSelfID)
	if err != nil {
		return nil, err
	}
	otherID, err := requireField(req, wire.FieldOtherID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.RemoveContact(ctx, selfID, otherID); err != nil {
		return nil, s.fail(ctx, wire.MethodRemoveContact, err)
	}
	return &structpb.Struct{}, nil
}

func (s *Server) LeaveGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	roomID, err := requireField(req, wire.FieldRoomID)
	if err != nil {
		return nil, err
	}
	selfID, err := requireField(req, wire.FieldSelfID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.LeaveGroup(ctx, roomID, selfID); err != nil {
		return nil, s.fail(ctx, wire.MethodLeaveGroup, err)
	}
	return &structpb.Struct{}, nil
}

func (s *Server) RenameGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	roomID, err := requireField(req, wire.FieldRoomID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.RenameGroup(ctx, roomID, wire.String(req, wire.FieldName)); err != nil {
		return nil, s.fail(ctx, wire.MethodRenameGroup, err)
	}
	return &structpb.Struct{}, nil
}

func (s *Server) SetGroupPhoto(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	roomID, err := requireField(req, wire.FieldRoomID)
	if err != nil {
		return nil, err
	}
	photoURL := wire.String(req, wire.FieldPhotoURL)
	if err := s.backend.SetGroupPhoto(ctx, roomID, photoURL); err != nil {
		return nil, s.fail(ctx, wire.MethodSetGroupPhoto, err)
	}
	logger := s.loggerFor(ctx)
	logger.Debug().Str("room_id", roomID).Str("photo_url", logging.RedactURL(photoURL)).Msg("group photo updated")
	return &structpb.Struct{}, nil
}

func (s *Server) FetchProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireField(req, wire.FieldUserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.backend.FetchProfile(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodFetchProfile, err)
	}
	return wire.Wrap(wire.FieldProfile, wire.EncodeProfile(profile)), nil
}
