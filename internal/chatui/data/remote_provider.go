package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tOgg1/chatroom/internal/chatd/wire"
	"github.com/tOgg1/chatroom/internal/models"
)

// RemoteProvider talks to `chatroom serve` over gRPC.
type RemoteProvider struct {
	conn              *grpc.ClientConn
	requestTimeout    time.Duration
	reconnectInterval time.Duration
	subscribeBuffer   int
	profiles          *profileCache
	closeOnce         sync.Once
}

// NewRemoteProvider creates the client. The connection is established lazily
// on first use; extra dial options are appended after the defaults.
func NewRemoteProvider(cfg RemoteProviderConfig, opts ...grpc.DialOption) (*RemoteProvider, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("remote addr required")
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: orDuration(cfg.DialTimeout, defaultDialTimeout),
		}),
	}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &RemoteProvider{
		conn:              conn,
		requestTimeout:    orDuration(cfg.RequestTimeout, defaultRequestTimeout),
		reconnectInterval: orDuration(cfg.ReconnectInterval, defaultReconnectInterval),
		subscribeBuffer:   orInt(cfg.SubscribeBuffer, defaultSubscribeBufferSize),
		profiles:          newProfileCache(cfg.ProfileCacheTTL, cfg.ProfileCacheSize),
	}, nil
}

func (p *RemoteProvider) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := p.conn.Invoke(ctx, wire.FullMethod(method), req, resp); err != nil {
		return nil, fromStatus(err)
	}
	return resp, nil
}

// Ping returns the daemon version.
func (p *RemoteProvider) Ping(ctx context.Context) (string, error) {
	resp, err := p.invoke(ctx, wire.MethodPing, wire.Request(nil))
	if err != nil {
		return "", err
	}
	return wire.String(resp, wire.FieldVersion), nil
}

func (p *RemoteProvider) FetchConversation(ctx context.Context, roomID string) (models.Conversation, error) {
	resp, err := p.invoke(ctx, wire.MethodFetchConversation, wire.Request(map[string]string{wire.FieldRoomID: roomID}))
	if err != nil {
		return nil, err
	}
	return wire.DecodeConversation(wire.Object(resp, wire.FieldConversation))
}

func (p *RemoteProvider) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	resp, err := p.invoke(ctx, wire.MethodListConversations, wire.Request(map[string]string{wire.FieldUserID: userID}))
	if err != nil {
		return nil, err
	}
	items := wire.List(resp, wire.FieldConversations)
	out := make([]models.Conversation, 0, len(items))
	for _, item := range items {
		conv, err := wire.DecodeConversation(item)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

// SubscribeMessages keeps a server stream open, re-opening it after
// reconnectInterval whenever it breaks. Every (re)open starts with a full
// snapshot, so nothing is lost across reconnects.
func (p *RemoteProvider) SubscribeMessages(roomID string) (<-chan []models.Message, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan []models.Message, p.subscribeBuffer)
	go p.subscribeLoop(ctx, out, roomID)
	return out, cancel
}

func (p *RemoteProvider) subscribeLoop(ctx context.Context, out chan<- []models.Message, roomID string) {
	defer close(out)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.streamSnapshots(ctx, out, roomID); err == nil || ctx.Err() != nil {
			return
		}

		timer := time.NewTimer(p.reconnectInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *RemoteProvider) streamSnapshots(ctx context.Context, out chan<- []models.Message, roomID string) error {
	stream, err := p.conn.NewStream(ctx, &wire.SubscribeStreamDesc, wire.FullMethod(wire.MethodSubscribeMessages))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(wire.Request(map[string]string{wire.FieldRoomID: roomID})); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		resp := &structpb.Struct{}
		if err := stream.RecvMsg(resp); err != nil {
			// A clean end of stream still means the server went away.
			return fmt.Errorf("subscription ended: %w", err)
		}
		messages, err := wire.DecodeMessages(resp)
		if err != nil {
			return err
		}
		if !sendSnapshot(ctx, out, messages) {
			return ctx.Err()
		}
	}
}

func (p *RemoteProvider) SendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	normalized, err := normalizeOutgoing(msg, time.Now())
	if err != nil {
		return models.Message{}, err
	}
	resp, err := p.invoke(ctx, wire.MethodSendMessage, wire.Wrap(wire.FieldMessage, wire.EncodeMessage(normalized)))
	if err != nil {
		return models.Message{}, err
	}
	return wire.DecodeMessage(wire.Object(resp, wire.FieldMessage))
}

func (p *RemoteProvider) RemoveContact(ctx context.Context, selfID, otherID string) error {
	_, err := p.invoke(ctx, wire.MethodRemoveContact, wire.Request(map[string]string{
		wire.FieldSelfID:  selfID,
		wire.FieldOtherID: otherID,
	}))
	return err
}

func (p *RemoteProvider) LeaveGroup(ctx context.Context, roomID, selfID string) error {
	_, err := p.invoke(ctx, wire.MethodLeaveGroup, wire.Request(map[string]string{
		wire.FieldRoomID: roomID,
		wire.FieldSelfID: selfID,
	}))
	return err
}

func (p *RemoteProvider) RenameGroup(ctx context.Context, roomID, name string) error {
	name, err := normalizeGroupName(name)
	if err != nil {
		return err
	}
	_, err = p.invoke(ctx, wire.MethodRenameGroup, wire.Request(map[string]string{
		wire.FieldRoomID: roomID,
		wire.FieldName:   name,
	}))
	return err
}

func (p *RemoteProvider) SetGroupPhoto(ctx context.Context, roomID, photoURL string) error {
	photoURL, err := normalizePhotoURL(photoURL)
	if err != nil {
		return err
	}
	_, err = p.invoke(ctx, wire.MethodSetGroupPhoto, wire.Request(map[string]string{
		wire.FieldRoomID:   roomID,
		wire.FieldPhotoURL: photoURL,
	}))
	return err
}

func (p *RemoteProvider) FetchProfile(ctx context.Context, userID string) (models.Profile, error) {
	if profile, ok := p.profiles.get(userID); ok {
		return profile, nil
	}
	resp, err := p.invoke(ctx, wire.MethodFetchProfile, wire.Request(map[string]string{wire.FieldUserID: userID}))
	if err != nil {
		return models.Profile{}, err
	}
	profile := wire.DecodeProfile(wire.Object(resp, wire.FieldProfile))
	p.profiles.put(profile)
	return profile, nil
}

func (p *RemoteProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.conn.Close()
	})
	return err
}

// fromStatus maps gRPC status codes back onto the backend sentinels.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case codes.FailedPrecondition:
		switch {
		case strings.Contains(msg, ErrNotGroup.Error()):
			return fmt.Errorf("%w: %s", ErrNotGroup, msg)
		case strings.Contains(msg, ErrNotPrivate.Error()):
			return fmt.Errorf("%w: %s", ErrNotPrivate, msg)
		}
		return errors.New(msg)
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrNotParticipant, msg)
	case codes.InvalidArgument:
		return fmt.Errorf("invalid request: %s", msg)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return err
	}
}

// ToStatus is the server-side inverse of fromStatus.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var validation *models.ValidationErrors
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrNotGroup), errors.Is(err, ErrNotPrivate):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.As(err, &validation),
		errors.Is(err, models.ErrBlankName),
		errors.Is(err, models.ErrBlankURL),
		errors.Is(err, models.ErrMissingID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
