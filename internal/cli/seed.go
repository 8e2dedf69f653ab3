package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/config"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo rooms into the SQLite database",
	Long: `Create the demo profiles, rooms and messages for the current user.
Rooms that already exist are left untouched, so seeding can be repeated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.RequireIdentity(); err != nil {
			return Exitf(ExitCodeUsage, "%v", err)
		}
		if kind := cfg.Backend.Kind; kind != "" && kind != config.BackendSQLite {
			return &PreflightError{
				Message:  fmt.Sprintf("seed writes to the sqlite backend, not %q", kind),
				NextStep: "chatroom seed --backend sqlite",
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		ctx := commandContext(cmd)
		provider, err := data.NewSQLiteProvider(ctx, data.SQLiteProviderConfig{
			Path:            cfg.DatabasePath(),
			PollInterval:    cfg.Backend.PollInterval,
			SubscribeBuffer: cfg.Backend.SubscribeBuffer,
		})
		if err != nil {
			return &ExitError{Code: ExitCodeBackend, Err: err}
		}
		defer provider.Close()

		if err := provider.ApplySeed(ctx, data.DemoSeed(cfg.Identity.UserID, time.Now())); err != nil {
			return &ExitError{Code: ExitCodeBackend, Err: fmt.Errorf("seed: %w", err)}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Seeded %s\n", cfg.DatabasePath())
		PrintNextSteps(out, HintContext{Action: "seed"})
		return nil
	},
}
