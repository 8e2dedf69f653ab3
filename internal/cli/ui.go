package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/chatroom/internal/chatui"
	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/logging"
)

// hasTTY is swapped out by tests.
var hasTTY = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runTUI(cmd *cobra.Command, roomID string) error {
	if !hasTTY() {
		return &PreflightError{
			Message:  "chatroom needs an interactive terminal",
			Hint:     "Use the non-interactive commands for scripts",
			NextStep: "chatroom send <room-id> <text>",
		}
	}
	cfg := GetConfig()
	if err := cfg.RequireIdentity(); err != nil {
		return &PreflightError{
			Message:  err.Error(),
			NextStep: "chatroom --user <id>",
		}
	}

	roomID, err := resolveRoom(cfg, roomID)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	provider, err := openProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	logger := logging.WithUser(cfg.Identity.UserID)
	logger.Info().
		Str("backend", cfg.Backend.Kind).
		Str("room_id", roomID).
		Msg("starting tui")

	return chatui.Run(chatui.Config{
		UserID:         cfg.Identity.UserID,
		RoomID:         roomID,
		Theme:          cfg.TUI.Theme,
		ToastDuration:  cfg.TUI.ToastDuration,
		RequestTimeout: cfg.Backend.RequestTimeout,
		Mouse:          cfg.TUI.Mouse,
		Provider:       provider,
	})
}

// resolveRoom prefers an explicit room id over the saved context.
func resolveRoom(cfg *config.Config, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	current, err := config.ContextStoreFor(cfg).Load()
	if err != nil {
		return "", err
	}
	if current.IsEmpty() {
		return "", nil
	}
	return current.RoomID, nil
}

func openProvider(ctx context.Context, cfg *config.Config) (data.Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := data.Open(ctx, cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitCodeBackend, Err: err}
	}
	return provider, nil
}
