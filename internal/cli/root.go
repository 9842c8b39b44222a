// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatexport/internal/config"
	"github.com/jeranaias/chatexport/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

// app is the state shared by every command of one invocation.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *logrus.Logger
}

// load resolves configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgPath != "" {
		cfg, err = config.LoadFromPath(a.cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return &ValidationError{Field: "--log-level/--log-format", Reason: err.Error()}
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "chatexport",
		Short: "Export chat sessions from a local message database",
		Long: `chatexport exports chat sessions from a decrypted SQLite message
database into JSON, HTML, XLSX or SQL files.

Each export runs in a background worker that reports progress per session;
a session that fails is recorded and the job moves on to the next one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				a.cfg = config.Default()
				a.log = logging.Discard()
				return nil
			}
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.chatexport/config.toml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(
		newExportCmd(a),
		newSessionsCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command against os.Args and returns the exit code.
func Execute(ctx context.Context) int {
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		// A job error has already been reported by its driver.
		var jobErr *JobError
		if !errors.As(err, &jobErr) {
			fmt.Fprintln(stderr, "Error:", err)
		}
	}
	return GetExitCode(err)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatexport %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
