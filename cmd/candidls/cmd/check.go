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

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
)

func newCheckCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "report problems in Candid files",
		Long: `check parses and resolves the given files and prints their
diagnostics, one per line, as

	file:line:column: severity: message

It exits with a non-zero status if any file has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: mkRunE(c, runCheck),
	}
	return cmd
}

func runCheck(cmd *Command, args []string) error {
	fs := fscache.NewDiskFS()
	snaps := make([]*cache.Snapshot, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			fh, err := fs.ReadFile(path)
			if err != nil {
				return err
			}
			snaps[i], err = cache.Build(ctx, fh)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, snap := range snaps {
		for _, d := range snap.Diagnostics() {
			w := cmd.OutOrStdout()
			sev := severityName(d.Severity)
			if sev == "error" {
				w = cmd.Stderr()
			}
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
				args[i], d.Range.Start.Line+1, d.Range.Start.Character+1, sev, d.Message)
		}
	}
	return nil
}

func severityName(s *protocol.DiagnosticSeverity) string {
	if s == nil {
		return "error"
	}
	switch *s {
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	}
	return "error"
}
