package cli

import (
	"fmt"
	"io"
)

func printRobotHelp(w io.Writer) {
	if w == nil {
		return
	}

	// keep: concise; copy-pasteable commands; stable section names
	fmt.Fprint(w, `chatroom Robot Help

Purpose
- terminal chat client; the TUI is for people, the commands below for scripts

Identity
- every command acts as identity.user_id (--user or CHATROOM_IDENTITY_USER_ID)

Quick Start
1) chatroom --user me seed
2) chatroom --user me rooms --json
3) chatroom --user me send trip "on my way"
4) chatroom --user me export trip --jsonl

Room selection
- chatroom use <room-id>   : default room for the TUI
- chatroom use             : show it
- chatroom use --clear     : forget it

Backends (--backend)
- sqlite (default)  : local database, shared by processes via polling
- memory            : demo data, gone on exit
- remote --addr H:P : talk to "chatroom serve"

Exit codes
- 0 ok, 1 failure, 2 usage, 3 config, 4 not found, 5 backend

Automation
- add --json / --jsonl for machine output
`)
}
