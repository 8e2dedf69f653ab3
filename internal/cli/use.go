package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
)

var useClear bool

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.Flags().BoolVar(&useClear, "clear", false, "forget the selected room")
}

var useCmd = &cobra.Command{
	Use:   "use [room-id]",
	Short: "Select the room chatroom opens by default",
	Long: `Without arguments, show the selected room. With a room id, check that the
room exists and save it as the default for "chatroom".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		store := config.ContextStoreFor(cfg)
		out := cmd.OutOrStdout()

		if useClear {
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Cleared room selection")
			return nil
		}

		current, err := store.Load()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(out, current)
			}
			fmt.Fprintln(out, current.String())
			return nil
		}

		provider, err := openProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout(cfg))
		defer cancel()
		room, err := provider.FetchConversation(ctx, args[0])
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return Exitf(ExitCodeNotFound, "room %s not found", args[0])
			}
			return &ExitError{Code: ExitCodeBackend, Err: err}
		}

		current.SetRoom(room.ConversationID(), roomName(ctx, provider, room, cfg.Identity.UserID))
		if err := store.Save(current); err != nil {
			return err
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, current)
		}
		fmt.Fprintf(out, "Using %s\n", current.String())
		PrintNextSteps(out, HintContext{Action: "use", RoomID: current.RoomID, RoomName: current.RoomName})
		return nil
	},
}
