package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/models"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <room-id>",
	Short: "Print a room transcript",
	Long:  "Print the current messages of a room as text, or as JSON with --json / --jsonl.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		provider, err := openProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout(cfg))
		defer cancel()
		transcript, err := buildTranscript(ctx, provider, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() {
			return WriteOutput(out, transcript)
		}
		if IsJSONLOutput() {
			return WriteOutput(out, transcript.Messages)
		}
		return writeTranscript(out, transcript)
	},
}

// Transcript is the payload of `chatroom export`.
type Transcript struct {
	RoomID   string            `json:"room_id"`
	Kind     string            `json:"kind"`
	Names    map[string]string `json:"names"`
	Messages []models.Message  `json:"messages"`
}

// buildTranscript reads the first snapshot a subscription delivers.
func buildTranscript(ctx context.Context, provider data.Provider, roomID string) (*Transcript, error) {
	room, err := provider.FetchConversation(ctx, roomID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, Exitf(ExitCodeNotFound, "room %s not found", roomID)
		}
		return nil, &ExitError{Code: ExitCodeBackend, Err: err}
	}

	updates, unsubscribe := provider.SubscribeMessages(roomID)
	defer unsubscribe()

	var messages []models.Message
	select {
	case snapshot, ok := <-updates:
		if !ok {
			return nil, &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("subscription for %s closed", roomID)}
		}
		messages = snapshot
	case <-ctx.Done():
		return nil, &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("waiting for messages: %w", ctx.Err())}
	}

	names := make(map[string]string)
	for _, id := range room.ParticipantIDs() {
		names[id] = id
		if profile, err := provider.FetchProfile(ctx, id); err == nil && profile.DisplayName != "" {
			names[id] = profile.DisplayName
		}
	}
	return &Transcript{
		RoomID:   roomID,
		Kind:     string(room.Kind()),
		Names:    names,
		Messages: messages,
	}, nil
}

func writeTranscript(out io.Writer, t *Transcript) error {
	if len(t.Messages) == 0 {
		_, err := fmt.Fprintln(out, "No messages")
		return err
	}
	for _, msg := range t.Messages {
		name := t.Names[msg.SenderID]
		if name == "" {
			name = msg.SenderID
		}
		stamp := msg.CreatedAt.Local().Format("2006-01-02 15:04")
		if _, err := fmt.Fprintf(out, "[%s] %s: %s\n", stamp, name, msg.Text); err != nil {
			return err
		}
	}
	return nil
}
