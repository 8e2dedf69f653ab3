package data

import (
	"context"
	"fmt"
	"time"

	"github.com/tOgg1/chatroom/internal/config"
)

// Open builds the provider selected by backend.kind.
func Open(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	backend := cfg.Backend

	switch backend.Kind {
	case config.BackendMemory:
		return NewMemoryProvider(MemoryProviderConfig{
			Seed:            DemoSeed(cfg.Identity.UserID, time.Now()),
			SubscribeBuffer: backend.SubscribeBuffer,
		})
	case config.BackendSQLite, "":
		return NewSQLiteProvider(ctx, SQLiteProviderConfig{
			Path:            cfg.DatabasePath(),
			PollInterval:    backend.PollInterval,
			SubscribeBuffer: backend.SubscribeBuffer,
		})
	case config.BackendRemote:
		return NewRemoteProvider(RemoteProviderConfig{
			Addr:              backend.Addr,
			DialTimeout:       backend.DialTimeout,
			RequestTimeout:    backend.RequestTimeout,
			ReconnectInterval: backend.ReconnectInterval,
			SubscribeBuffer:   backend.SubscribeBuffer,
			ProfileCacheTTL:   backend.ProfileCacheTTL,
		})
	default:
		return nil, fmt.Errorf("unknown backend kind %q", backend.Kind)
	}
}
