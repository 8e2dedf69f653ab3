package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/models"
)

func init() {
	rootCmd.AddCommand(roomsCmd)
}

var roomsCmd = &cobra.Command{
	Use:     "rooms",
	Aliases: []string{"ls"},
	Short:   "List conversations for the current user",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.RequireIdentity(); err != nil {
			return Exitf(ExitCodeUsage, "%v", err)
		}
		provider, err := openProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout(cfg))
		defer cancel()
		rooms, err := listRooms(ctx, provider, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, rooms)
		}
		if len(rooms) == 0 {
			fmt.Fprintln(out, "No conversations yet")
			return nil
		}
		rows := make([][]string, 0, len(rooms))
		for _, room := range rooms {
			rows = append(rows, []string{
				room.ID,
				string(room.Kind),
				room.Name,
				strconv.Itoa(room.Members),
				formatYesNo(room.Current),
			})
		}
		return writeTable(out, []string{"ID", "KIND", "NAME", "MEMBERS", "CURRENT"}, rows)
	},
}

// RoomSummary is one row of `chatroom rooms`.
type RoomSummary struct {
	ID      string                  `json:"id"`
	Kind    models.ConversationKind `json:"kind"`
	Name    string                  `json:"name"`
	Members int                     `json:"members"`
	Current bool                    `json:"current"`
}

func listRooms(ctx context.Context, provider data.Provider, cfg *config.Config) ([]RoomSummary, error) {
	self := cfg.Identity.UserID
	rooms, err := provider.ListConversations(ctx, self)
	if err != nil {
		return nil, &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("list rooms: %w", err)}
	}
	current, _ := config.ContextStoreFor(cfg).Load()

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := RoomSummary{
			ID:      room.ConversationID(),
			Kind:    room.Kind(),
			Members: len(room.ParticipantIDs()),
			Current: !current.IsEmpty() && current.RoomID == room.ConversationID(),
		}
		summary.Name = roomName(ctx, provider, room, self)
		out = append(out, summary)
	}
	return out, nil
}

// roomName is the group name, or the other participant's display name.
func roomName(ctx context.Context, profiles data.ProfileService, room models.Conversation, self string) string {
	if group, ok := room.(models.GroupConversation); ok {
		return group.Group.Name
	}
	other, ok := models.Counterpart(room, self)
	if !ok {
		return room.ConversationID()
	}
	profile, err := profiles.FetchProfile(ctx, other)
	if err != nil || profile.DisplayName == "" {
		return other
	}
	return profile.DisplayName
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Backend.RequestTimeout > 0 {
		return cfg.Backend.RequestTimeout
	}
	return 10 * time.Second
}
