package chatd

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/tOgg1/chatroom/internal/chatd/wire"
	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/logging"
	"github.com/tOgg1/chatroom/internal/models"
	"github.com/tOgg1/chatroom/internal/testutil"
)

// startDaemon serves a memory backend over bufconn and returns a remote
// provider connected to it.
func startDaemon(t *testing.T) (*data.RemoteProvider, *data.MemoryProvider) {
	t.Helper()

	backend, err := data.NewMemoryProvider(data.MemoryProviderConfig{Seed: testutil.TwoUserSeed()})
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	daemon, err := New(config.DefaultConfig(), zerolog.Nop(), Options{
		Backend:  backend,
		Listener: listener,
		Version:  "test-version",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()

	client, err := data.NewRemoteProvider(data.RemoteProviderConfig{
		Addr:              "passthrough:///bufnet",
		RequestTimeout:    2 * time.Second,
		ReconnectInterval: 50 * time.Millisecond,
	}, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("daemon did not stop")
		}
		_ = daemon.Close()
	})
	return client, backend
}

func TestPingReportsVersion(t *testing.T) {
	client, _ := startDaemon(t)
	version, err := client.Ping(context.Background())
	require.NoError(t, err)
	require.Equal(t, "test-version", version)
}

func TestRemoteFetchAndProfile(t *testing.T) {
	client, _ := startDaemon(t)
	ctx := context.Background()

	conv, err := client.FetchConversation(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "Trip Planning", conv.(models.GroupConversation).Group.Name)

	_, err = client.FetchConversation(ctx, "missing")
	require.ErrorIs(t, err, data.ErrNotFound)

	profile, err := client.FetchProfile(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, "Bob", profile.DisplayName)

	_, err = client.FetchProfile(ctx, "ghost")
	require.ErrorIs(t, err, data.ErrNotFound)

	rooms, err := client.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
}

func TestRemoteMutationsMapErrors(t *testing.T) {
	client, backend := startDaemon(t)
	ctx := context.Background()

	require.ErrorIs(t, client.RenameGroup(ctx, "room-1", "Nope"), data.ErrNotGroup)
	require.NoError(t, client.RenameGroup(ctx, "g1", "Summer Trip"))
	require.NoError(t, client.SetGroupPhoto(ctx, "g1", "https://example.com/g.png?sig=abc"))

	conv, err := backend.FetchConversation(ctx, "g1")
	require.NoError(t, err)
	group := conv.(models.GroupConversation)
	require.Equal(t, "Summer Trip", group.Group.Name)
	require.Equal(t, "https://example.com/g.png?sig=abc", group.Group.PhotoURL)

	require.NoError(t, client.RemoveContact(ctx, "u1", "u2"))
	require.ErrorIs(t, client.RemoveContact(ctx, "u1", "u2"), data.ErrNotFound)

	require.NoError(t, client.LeaveGroup(ctx, "g1", "u2"))
	require.ErrorIs(t, client.LeaveGroup(ctx, "g1", "u2"), data.ErrNotParticipant)
}

func TestRemoteSubscribeDeliversSnapshots(t *testing.T) {
	client, _ := startDaemon(t)
	ctx := context.Background()

	ch, cancel := client.SubscribeMessages("room-1")
	defer cancel()

	select {
	case snapshot := <-ch:
		require.Empty(t, snapshot)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	sent, err := client.SendMessage(ctx, models.Message{RoomID: "room-1", SenderID: "u1", Text: " hello ", Kind: models.MessageKindText})
	require.NoError(t, err)
	require.NotEmpty(t, sent.ID)
	require.Equal(t, "hello", sent.Text)

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		require.Equal(t, sent.ID, snapshot[0].ID)
		require.Equal(t, "u1", snapshot[0].SenderID)
		require.False(t, snapshot[0].Read)
	case <-time.After(5 * time.Second):
		t.Fatal("no update snapshot")
	}

	cancel()
	for range ch {
	}
}

func TestServerRejectsMissingFields(t *testing.T) {
	server := NewServer(zerolog.Nop(), nil)
	_, err := server.FetchConversation(context.Background(), wire.Request(nil))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = server.LeaveGroup(context.Background(), wire.Request(map[string]string{wire.FieldRoomID: "g1"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBindAddrDefaults(t *testing.T) {
	backend, err := data.NewMemoryProvider(data.MemoryProviderConfig{})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Server.Listen = ""
	daemon, err := New(cfg, zerolog.Nop(), Options{Backend: backend})
	require.NoError(t, err)
	defer daemon.Close()
	require.Equal(t, "127.0.0.1:50061", daemon.bindAddr())

	daemon.opts.Listen = "127.0.0.1:9999"
	require.Equal(t, "127.0.0.1:9999", daemon.bindAddr())
}

func TestDaemonServesSQLiteOverTCP(t *testing.T) {
	testutil.SkipIfNoNetwork(t)

	cfg := testutil.TempConfig(t, "u1")
	daemon, err := New(cfg, zerolog.Nop(), Options{Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	defer daemon.Close()

	sqlite, ok := daemon.Backend().(*data.SQLiteProvider)
	require.True(t, ok)
	require.NoError(t, sqlite.ApplySeed(context.Background(), testutil.TwoUserSeed()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	daemon.opts.Listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	client, err := data.NewRemoteProvider(data.RemoteProviderConfig{
		Addr:           listener.Addr().String(),
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	room, err := client.FetchConversation(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, models.ConversationGroup, room.Kind())

	require.NoError(t, client.RenameGroup(context.Background(), "g1", "Lisbon"))
	stored, err := sqlite.FetchConversation(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, "Lisbon", stored.(models.GroupConversation).Group.Name)
}

func TestDaemonLogsRoomChanges(t *testing.T) {
	backend, err := data.NewMemoryProvider(data.MemoryProviderConfig{Seed: testutil.TwoUserSeed()})
	require.NoError(t, err)

	var buf bytes.Buffer
	daemon, err := New(config.DefaultConfig(), zerolog.New(&buf), Options{Backend: backend})
	require.NoError(t, err)

	require.NoError(t, backend.RenameGroup(context.Background(), "g1", "Lisbon"))
	require.Contains(t, buf.String(), `"event":"room.updated"`)
	require.Contains(t, buf.String(), `"room_id":"g1"`)

	require.NoError(t, daemon.Close())
	buf.Reset()
	require.NoError(t, backend.LeaveGroup(context.Background(), "g1", "u2"))
	require.Empty(t, buf.String())
}

func TestUnaryInterceptorAttachesRequestLogger(t *testing.T) {
	backend, err := data.NewMemoryProvider(data.MemoryProviderConfig{Seed: testutil.TwoUserSeed()})
	require.NoError(t, err)

	var buf bytes.Buffer
	daemon, err := New(config.DefaultConfig(), zerolog.New(&buf), Options{Backend: backend})
	require.NoError(t, err)
	defer daemon.Close()

	info := &grpc.UnaryServerInfo{FullMethod: wire.FullMethod(wire.MethodRenameGroup)}
	_, err = daemon.logUnary(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		logger := logging.FromContext(ctx)
		logger.Info().Msg("inside handler")
		return nil, nil
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "inside handler")
	require.Contains(t, buf.String(), `"request_id":"`)
	require.Contains(t, buf.String(), `"component":"chatd"`)
}
