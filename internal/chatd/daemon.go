package chatd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/events"
	"github.com/tOgg1/chatroom/internal/logging"
)

// DefaultPort is the daemon port when server.listen has none.
const DefaultPort = 50061

// Options tune a Daemon beyond the config file.
type Options struct {
	// Listen overrides server.listen.
	Listen string
	// Backend replaces the SQLite backend built from cfg.
	Backend data.Provider
	// Listener is used instead of opening Listen; tests pass a bufconn here.
	Listener net.Listener
	Version  string
}

// Daemon owns the gRPC server and its backend.
type Daemon struct {
	cfg          *config.Config
	logger       zerolog.Logger
	opts         Options
	backend      data.Provider
	ownsBackend  bool
	server       *grpc.Server
	shutdownWait time.Duration
	unwatch      func()
}

// changeSource is implemented by local backends that publish room changes.
type changeSource interface {
	Publisher() events.Publisher
}

// New builds a daemon. Unless opts.Backend is set, it opens the SQLite
// database configured in cfg.
func New(cfg *config.Config, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Daemon{
		cfg:          cfg,
		logger:       logger.With().Str("component", "chatd").Logger(),
		opts:         opts,
		backend:      opts.Backend,
		shutdownWait: 5 * time.Second,
	}
	if d.backend == nil {
		provider, err := data.NewSQLiteProvider(context.Background(), data.SQLiteProviderConfig{
			Path:            cfg.DatabasePath(),
			PollInterval:    cfg.Backend.PollInterval,
			SubscribeBuffer: cfg.Backend.SubscribeBuffer,
		})
		if err != nil {
			return nil, fmt.Errorf("open backend: %w", err)
		}
		d.backend = provider
		d.ownsBackend = true
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	d.watchChanges()

	d.server = grpc.NewServer(grpc.ChainUnaryInterceptor(d.logUnary))
	NewServer(d.logger, d.backend, WithVersion(version)).Register(d.server)
	return d, nil
}

func (d *Daemon) bindAddr() string {
	addr := strings.TrimSpace(d.opts.Listen)
	if addr == "" {
		addr = strings.TrimSpace(d.cfg.Server.Listen)
	}
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", DefaultPort)
	}
	return addr
}

// Backend returns the provider being served.
func (d *Daemon) Backend() data.Provider {
	return d.backend
}

// Run serves until ctx is cancelled, then stops gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	listener := d.opts.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", d.bindAddr())
		if err != nil {
			return fmt.Errorf("listen %s: %w", d.bindAddr(), err)
		}
	}
	d.logger.Info().Str("addr", listener.Addr().String()).Msg("chatd listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	d.logger.Info().Msg("chatd shutting down")
	stopped := make(chan struct{})
	go func() {
		d.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(d.shutdownWait):
		d.server.Stop()
	}
	return nil
}

// watchChanges logs every room change the backend publishes.
func (d *Daemon) watchChanges() {
	source, ok := d.backend.(changeSource)
	if !ok {
		return
	}
	publisher := source.Publisher()
	id := "chatd-changes-" + uuid.New().String()
	if err := publisher.Subscribe(id, events.Filter{}, d.logChange); err != nil {
		d.logger.Warn().Err(err).Msg("room change log disabled")
		return
	}
	d.unwatch = func() { _ = publisher.Unsubscribe(id) }
}

func (d *Daemon) logChange(event events.Event) {
	level := zerolog.InfoLevel
	if event.Type == events.TypeMessageAppended {
		level = zerolog.DebugLevel
	}
	d.logger.WithLevel(level).Str("event", string(event.Type)).
		Str("room_id", event.RoomID).
		Str("user_id", event.UserID).
		Msg("room change")
}

// Close releases the backend when the daemon opened it.
func (d *Daemon) Close() error {
	if d.unwatch != nil {
		d.unwatch()
		d.unwatch = nil
	}
	d.server.Stop()
	if d.ownsBackend {
		return d.backend.Close()
	}
	return nil
}

// logUnary tags each call with a request id and hands the tagged logger to
// the handler through the context.
func (d *Daemon) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	logger := d.logger.With().Str("request_id", uuid.New().String()[:8]).Logger()
	resp, err := handler(logging.WithContext(ctx, logger), req)
	event := logger.Debug()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("method", info.FullMethod).Dur("took", time.Since(start)).Msg("rpc")
	return resp, err
}
