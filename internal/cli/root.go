// Package cli implements the chatroom command line: the TUI launcher plus
// non-interactive commands for scripting and operating the daemon.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/chatroom/internal/config"
	"github.com/tOgg1/chatroom/internal/logging"
)

var (
	cfgFile     string
	flagUser    string
	flagBackend string
	flagAddr    string
	flagTheme   string
	flagLevel   string
	flagNoMouse bool
	jsonOutput  bool
	jsonlOutput bool
	robotHelp   bool

	appConfig *config.Config
	logCloser io.Closer
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "chatroom [room-id]",
	Short: "Terminal chat client",
	Long: `chatroom is a terminal chat client. With no arguments it opens the room
list; with a room id (or a room selected via "chatroom use") it opens that
conversation directly.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
			logCloser = nil
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := ""
		if len(args) == 1 {
			roomID = args[0]
		}
		return runTUI(cmd, roomID)
	},
}

func init() {
	// Assigned here rather than in the literal: preRun refers to rootCmd.
	rootCmd.PersistentPreRunE = preRun
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.config/chatroom/config.yaml)")
	flags.StringVarP(&flagUser, "user", "u", "", "act as this user id (identity.user_id)")
	flags.StringVar(&flagBackend, "backend", "", "backend kind: memory, sqlite, remote")
	flags.StringVar(&flagAddr, "addr", "", "daemon address for the remote backend")
	flags.StringVar(&flagLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&jsonOutput, "json", false, "JSON output")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "JSON lines output")
	flags.BoolVar(&robotHelp, "robot-help", false, "Machine-readable help output")
	rootCmd.Flags().StringVar(&flagTheme, "theme", "", "TUI theme: default, high-contrast")
	rootCmd.Flags().BoolVar(&flagNoMouse, "no-mouse", false, "disable mouse support")
}

// Execute runs the root command.
func Execute(v string) error {
	if strings.TrimSpace(v) != "" {
		version = v
	}
	rootCmd.Version = version
	if hasRobotHelpFlag(os.Args[1:]) {
		printRobotHelp(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func preRun(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}
	overrides := map[string]string{
		"identity.user_id": flagUser,
		"backend.kind":     flagBackend,
		"backend.addr":     flagAddr,
		"logging.level":    flagLevel,
		"tui.theme":        flagTheme,
	}
	for key, value := range overrides {
		if strings.TrimSpace(value) != "" {
			loader.Set(key, strings.TrimSpace(value))
		}
	}
	if flagNoMouse {
		loader.Set("tui.mouse", false)
	}

	cfg, err := loader.Load()
	if err != nil {
		return Exitf(ExitCodeConfig, "%v", err)
	}
	appConfig = cfg

	// The TUI owns the terminal; everything else may log to stderr.
	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		File:         cfg.Logging.File,
		EnableCaller: cfg.Logging.EnableCaller,
	}
	if cmd == rootCmd && logCfg.File == "" {
		logCfg.File = cfg.LogFilePath()
	}
	if logCfg.File == "" {
		logCfg.Output = os.Stderr
	}
	closer, err := logging.Init(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logCloser = closer
	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool { return jsonOutput }

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool { return jsonlOutput }

func hasRobotHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--robot-help" {
			return true
		}
	}
	return false
}
