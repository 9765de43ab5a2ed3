// Package cmd implements the navstate CLI commands.
//
// Each command registers itself with RegisterCommand from an init function;
// Execute builds the root command, resolves configuration once and hands it
// to the selected command.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/navstate/cmd/navstate/internal/config"
	naverrors "github.com/go-drift/navstate/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Global flags.
var (
	projectDir string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "navstate",
	Short: "Inspect and exercise navigation state containers",
	Long: `navstate works with the snapshots and deep links of navigation
containers built on github.com/go-drift/navstate.

Configuration is read from navstate.yaml or navstate.toml in the project
directory, then overridden by NAVSTATE_* environment variables.`,
	Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (default: nearest directory with navstate.yaml, navstate.toml or go.mod)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log every state change (same as NAVSTATE_LOGGING=true)")
}

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return ExecuteArgs(os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the CLI with args, writing command output to stdout and
// errors to stderr.
func ExecuteArgs(args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig resolves configuration for the selected project directory.
func loadConfig() (*config.Resolved, error) {
	dir := projectDir
	if dir == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			return nil, err
		}
		dir = root
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if debugFlag {
		cfg.Debug = true
	}
	return cfg, nil
}

// newLogger returns the CLI logger and installs it as the navigation error
// handler's destination.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	naverrors.SetHandler(&naverrors.LogHandler{Logger: logger, Verbose: debug})
	return logger
}
