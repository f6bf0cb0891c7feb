// Package cmd provides the lms command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/lms-client/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "lms",
	Short: "LMS client shell and session tools",
	Long: `lms runs the local LMS client shell and manages its session.

Commands:
  serve       Run the client shell on localhost
  mock-api    Run the reference auth backend
  login       Log in and persist the session token
  logout      Drop the persisted session
  whoami      Validate the persisted session and print the user

Configuration is read from the environment, optionally seeded from a .env
file (see --env-file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
}

// newLogger builds the process logger: text on stderr, level from
// LOG_LEVEL.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
