package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatd"
	"github.com/tOgg1/chatroom/internal/logging"
)

var serveListen string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default server.listen)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat daemon over the SQLite backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		daemon, err := chatd.New(cfg, logging.Component("serve"), chatd.Options{
			Listen:  serveListen,
			Version: version,
		})
		if err != nil {
			return &ExitError{Code: ExitCodeBackend, Err: err}
		}
		defer daemon.Close()

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		listen := serveListen
		if listen == "" {
			listen = cfg.Server.Listen
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "chatd serving %s on %s\n", cfg.DatabasePath(), listen)
		PrintNextSteps(cmd.ErrOrStderr(), HintContext{Action: "serve", Listen: listen})
		return runDaemon(ctx, daemon)
	},
}

type runner interface {
	Run(ctx context.Context) error
}

func runDaemon(ctx context.Context, daemon runner) error {
	if err := daemon.Run(ctx); err != nil {
		return &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("serve: %w", err)}
	}
	return nil
}
