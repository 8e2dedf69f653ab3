package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want bool
	}{
		{name: "nil", ctx: nil, want: true},
		{name: "empty", ctx: &Context{}, want: true},
		{name: "blank room", ctx: &Context{RoomID: "  "}, want: true},
		{name: "name only", ctx: &Context{RoomName: "Trip"}, want: true},
		{name: "room", ctx: &Context{RoomID: "trip"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.ctx.IsEmpty())
		})
	}
}

func TestContext_String(t *testing.T) {
	ctx := &Context{}
	require.Equal(t, "(no room selected)", ctx.String())

	ctx.SetRoom(" room-1 ", "")
	require.Equal(t, "room:room-1", ctx.String())

	ctx.SetRoom("0123456789abcdef", "Trip Planning")
	require.Equal(t, "room:Trip Planning (01234567)", ctx.String())
	require.False(t, ctx.UpdatedAt.IsZero())

	ctx.Clear()
	require.True(t, ctx.IsEmpty())
}

func TestContextStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "context.yaml")
	store := NewContextStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.True(t, loaded.IsEmpty())

	loaded.SetRoom("trip", "Trip Planning")
	require.NoError(t, store.Save(loaded))

	again, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "trip", again.RoomID)
	require.Equal(t, "Trip Planning", again.RoomName)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, store.Clear())
}

func TestContextStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room: [unterminated"), 0o644))

	_, err := NewContextStore(path).Load()
	require.ErrorContains(t, err, "failed to parse context file")
}

func TestContextStoreFor_UsesConfigDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.ConfigDir = "/tmp/chatroom-test"
	require.Equal(t, "/tmp/chatroom-test/context.yaml", ContextStoreFor(cfg).Path())
}
