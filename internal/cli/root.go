// Package cli implements the authenticator command line.
//
// Every command works on an authenticator.App opened on first use and closed
// after the command finishes. Execute is the entry point.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator"
	"github.com/dmitrymomot/authenticator/pkg/config"
)

var errStreamClosed = errors.New("cli: stream closed before producing a result")

// Runtime is the state shared by the commands of one invocation.
type Runtime struct {
	// Open builds the App. When nil, Config is loaded from the environment
	// and the env files given with --env-file.
	Open func(ctx context.Context) (*authenticator.App, error)
	// Now is the clock used for rendering remaining code lifetimes.
	Now func() time.Time

	envFiles []string
	app      *authenticator.App
}

// App returns the App, opening it on first use.
func (rt *Runtime) App(ctx context.Context) (*authenticator.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}

	open := rt.Open
	if open == nil {
		open = rt.openFromEnv
	}
	app, err := open(ctx)
	if err != nil {
		return nil, err
	}
	rt.app = app
	return app, nil
}

// Close closes the App if one was opened.
func (rt *Runtime) Close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}

func (rt *Runtime) openFromEnv(ctx context.Context) (*authenticator.App, error) {
	cfg, err := authenticator.LoadConfig(config.WithEnvFiles(rt.envFiles...))
	if err != nil {
		return nil, err
	}
	return authenticator.New(ctx, cfg)
}

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authenticator",
		Short: "Time-based one-time password authenticator",
		Long: `Stores TOTP keys encrypted on this machine and shows their codes.

Storage, shared items and export targets are configured through environment
variables (AUTHENTICATOR_STORE, AUTHENTICATOR_SHARED_SOURCE, ...), optionally
read from env files.

Examples:
  authenticator add "otpauth://totp/GitHub:me?secret=JBSWY3DPEHPK3PXP"
  authenticator codes --watch
  authenticator import --format 2fas backup.2fas
  authenticator export --qr <id>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.Close()
		},
	}

	cmd.PersistentFlags().StringSliceVar(&rt.envFiles, "env-file", []string{".env"}, "env files loaded before reading the configuration")

	cmd.AddCommand(
		newAddCmd(rt),
		newListCmd(rt),
		newCodesCmd(rt),
		newSearchCmd(rt),
		newShowCmd(rt),
		newEditCmd(rt),
		newDeleteCmd(rt),
		newImportCmd(rt),
		newExportCmd(rt),
		newKeygenCmd(rt),
	)

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	rt := &Runtime{}
	cmd := NewRootCmd(rt)
	err := cmd.ExecuteContext(ctx)
	if cerr := rt.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// first returns the first value of ch.
func first[T any](ctx context.Context, ch <-chan T) (T, error) {
	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, errStreamClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
