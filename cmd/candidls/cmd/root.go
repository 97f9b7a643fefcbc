// Copyright 2025 The Candid LS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the candidls command.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"candidls.dev/go/internal/telemetry"
)

type runFunction func(cmd *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		return f(c, args)
	}
}

// newRootCmd creates the base command when called without any subcommands
func newRootCmd() *Command {
	cmd := &cobra.Command{
		Use:   "candidls",
		Short: "candidls is a language server for Candid interface descriptions.",
		Long: `candidls analyses Candid service descriptions (.did files).

Run 'candidls serve' from an editor to get diagnostics, completion, hover
and navigation over the Language Server Protocol. The other commands give
access to the same analysis from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &Command{Command: cmd, root: cmd}

	subCommands := []*cobra.Command{
		newServeCmd(c),
		newCheckCmd(c),
		newCompleteCmd(c),
		newSubtypeCmd(c),
		newVersionCmd(c),
	}

	addGlobalFlags(cmd.PersistentFlags())

	for _, sub := range subCommands {
		cmd.AddCommand(sub)
	}

	return c
}

// Main runs the candidls tool and returns the code for passing to
// os.Exit.
func Main() int {
	err := mainErr(context.Background(), os.Args[1:])
	if err != nil {
		if err != ErrPrintedError {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func mainErr(ctx context.Context, args []string) error {
	cmd := New(args)
	return cmd.Run(ctx)
}

// A Command is the active candidls command.
type Command struct {
	// The currently active command.
	*cobra.Command

	root *cobra.Command

	hasErr bool
}

type errWriter Command

func (w *errWriter) Write(b []byte) (int, error) {
	c := (*Command)(w)
	c.hasErr = true
	return c.Command.OutOrStderr().Write(b)
}

// Stderr returns a writer that should be used for error messages.
// Writing to it makes the command exit with a non-zero code.
func (c *Command) Stderr() io.Writer {
	return (*errWriter)(c)
}

// Logger returns the logger configured by the global flags. Logs go to
// standard error.
func (c *Command) Logger() zerolog.Logger {
	level := telemetry.ParseLevel(flagLogLevel.String(c))
	format := telemetry.LogFormat(flagLogFormat.String(c))
	return telemetry.NewLogger(c.Command.ErrOrStderr(), level, format)
}

// ErrPrintedError indicates error messages have been printed to stderr.
var ErrPrintedError = errors.New("terminating because of errors")

// Run executes the command line given to New.
func (c *Command) Run(ctx context.Context) error {
	if err := c.root.ExecuteContext(ctx); err != nil {
		return err
	}
	if c.hasErr {
		return ErrPrintedError
	}
	return nil
}

// New returns the root command for the given arguments.
func New(args []string) *Command {
	cmd := newRootCmd()
	cmd.root.SetArgs(args)
	return cmd
}
