// Package root wires the bridge CLI's cobra command tree.
package root

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oasbridge/bridge/internal/buildinfo"
	"github.com/oasbridge/bridge/pkg/logging"
)

type rootFlags struct {
	debugMode   bool
	logFilePath string
	logFile     io.Closer
}

func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "bridge - OpenAPI-to-RPC tool bridge",
		Long:  "bridge turns OpenAPI specifications into a uniform, remotely invocable tool protocol.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.setupLogging(); err != nil {
				slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: levelFor(flags.debugMode),
				})))
			}
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if flags.logFile != nil {
				if err := flags.logFile.Close(); err != nil {
					slog.Error("failed to close log file", "error", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Path to debug log file (default: ./bridge.debug.log; only used with --debug)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServerCmd())
	cmd.AddCommand(newCatalogueCmd())

	return cmd
}

func levelFor(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Execute runs the root command and maps the outcome onto §7.5's exit
// codes. 0 success, 1 unrecoverable startup failure, 2 one-shot handler
// failure.
func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return 0
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) int {
	if ctx.Err() != nil {
		return 1
	}

	var once onceError
	if errors.As(err, &once) {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var runtime RuntimeError
	if errors.As(err, &runtime) {
		fmt.Fprintln(stderr, err)
		return 1
	}

	fmt.Fprintln(stderr, err)
	fmt.Fprintln(stderr)
	if strings.HasPrefix(err.Error(), "unknown command ") || strings.HasPrefix(err.Error(), "accepts ") {
		_ = rootCmd.Usage()
	}
	return 1
}

// RuntimeError wraps a command's runtime failure: processErr prints just its
// message and returns exit code 1, without the blank line or usage text it
// may add for other errors.
type RuntimeError struct{ Err error }

func (e RuntimeError) Error() string { return e.Err.Error() }
func (e RuntimeError) Unwrap() error { return e.Err }

// onceError distinguishes a --once handler failure (exit 2) from a
// startup failure (exit 1).
type onceError struct{ Err error }

func (e onceError) Error() string { return e.Err.Error() }
func (e onceError) Unwrap() error { return e.Err }

func (f *rootFlags) setupLogging() error {
	if !f.debugMode {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil
	}

	path := cmp.Or(strings.TrimSpace(f.logFilePath), filepath.Join(".", "bridge.debug.log"))

	logFile, err := logging.NewRotatingFile(path)
	if err != nil {
		return err
	}
	f.logFile = logFile

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bridge version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Version)
			return nil
		},
	}
}
