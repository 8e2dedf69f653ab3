// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/models"
)

// SkipIfNoNetwork skips the test if CHATROOM_TEST_SKIP_NETWORK is set.
// Use this for tests that open real TCP listeners, which sandboxed
// environments may not allow.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("CHATROOM_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: CHATROOM_TEST_SKIP_NETWORK is set")
	}
}

// TempConfig returns the default config rooted in a temp dir, with a fast
// poll interval for subscription tests.
func TempConfig(t *testing.T, userID string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Identity.UserID = userID
	cfg.Global.DataDir = filepath.Join(root, "data")
	cfg.Global.ConfigDir = filepath.Join(root, "config")
	cfg.Backend.PollInterval = 50 * time.Millisecond
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create temp dirs: %v", err)
	}
	return cfg
}

// TwoUserSeed is a private room and a group shared by u1 (Alice) and
// u2 (Bob, online).
func TwoUserSeed() data.Seed {
	return data.Seed{
		Profiles: []models.Profile{
			{ID: "u1", DisplayName: "Alice"},
			{ID: "u2", DisplayName: "Bob", Online: true},
		},
		Rooms: []models.Conversation{
			models.PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}},
			models.GroupConversation{ID: "g1", Participants: []string{"u1", "u2"}, Group: models.GroupInfo{Name: "Trip Planning"}},
		},
		Contacts: []data.Contact{{A: "u1", B: "u2"}},
	}
}
