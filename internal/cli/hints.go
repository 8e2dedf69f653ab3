package cli

import (
	"fmt"
	"io"
)

// HintContext describes the command that just succeeded.
type HintContext struct {
	Action   string
	RoomID   string
	RoomName string
	Listen   string
}

// PrintNextSteps prints follow-up commands. Machine output never gets hints.
func PrintNextSteps(out io.Writer, ctx HintContext) {
	if IsJSONOutput() || IsJSONLOutput() {
		return
	}
	hints := generateHints(ctx)
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	for _, hint := range hints {
		fmt.Fprintf(out, "  %s\n", hint)
	}
}

func generateHints(ctx HintContext) []string {
	switch ctx.Action {
	case "seed":
		return []string{
			"chatroom rooms                      # List your conversations",
			"chatroom trip                       # Open the demo group",
		}
	case "use":
		if ctx.RoomID == "" {
			return []string{"chatroom rooms                      # Pick a room"}
		}
		return []string{
			"chatroom                            # Open " + roomLabel(ctx),
			fmt.Sprintf("chatroom send %s \"hi\"  # Send without the TUI", ctx.RoomID),
		}
	case "send":
		return []string{
			fmt.Sprintf("chatroom export %s               # Print the transcript", ctx.RoomID),
			fmt.Sprintf("chatroom %s                      # Open the conversation", ctx.RoomID),
		}
	case "serve":
		return []string{
			fmt.Sprintf("chatroom --backend remote --addr %s", ctx.Listen),
		}
	default:
		return nil
	}
}

func roomLabel(ctx HintContext) string {
	if ctx.RoomName != "" {
		return ctx.RoomName
	}
	return ctx.RoomID
}
