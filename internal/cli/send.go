package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/models"
)

func init() {
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <room-id> <text...>",
	Short: "Send a message without opening the TUI",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.RequireIdentity(); err != nil {
			return Exitf(ExitCodeUsage, "%v", err)
		}
		roomID := strings.TrimSpace(args[0])
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			return Exitf(ExitCodeUsage, "message text is empty")
		}

		provider, err := openProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout(cfg))
		defer cancel()
		sent, err := provider.SendMessage(ctx, models.Message{
			RoomID:    roomID,
			SenderID:  cfg.Identity.UserID,
			Text:      text,
			Kind:      models.MessageKindText,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return Exitf(ExitCodeNotFound, "room %s not found", roomID)
			}
			return &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("send: %w", err)}
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, sent)
		}
		fmt.Fprintf(out, "Sent %s to %s\n", sent.ID, roomID)
		PrintNextSteps(out, HintContext{Action: "send", RoomID: roomID})
		return nil
	},
}
