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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/completion"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/rope"
)

func newCompleteCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete FILE LINE:COLUMN",
		Short: "print the completions at a position",
		Long: `complete prints the completion items the language server would offer
at the given one-based line and column of FILE, in ranked order, one per
line: the label, the detail and, for snippets, the quoted snippet text.

The completion mode and snippet style are taken from the settings file
unless --mode or --style is given.`,
		Args: cobra.ExactArgs(2),
		RunE: mkRunE(c, runComplete),
	}
	addCompletionFlags(cmd.Flags())
	return cmd
}

func parsePosition(s string) (rope.Position, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return rope.Position{}, fmt.Errorf("invalid position %q, want LINE:COLUMN", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return rope.Position{}, fmt.Errorf("invalid line in %q", s)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return rope.Position{}, fmt.Errorf("invalid column in %q", s)
	}
	return rope.Position{Line: l - 1, Character: c - 1}, nil
}

func runComplete(cmd *Command, args []string) error {
	pos, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	fh, err := fscache.NewDiskFS().ReadFile(args[0])
	if err != nil {
		return err
	}
	snap, err := cache.Build(cmd.Context(), fh)
	if err != nil {
		return err
	}

	items := completion.Complete(snap, snap.Text().Offset(pos), completion.OptionsFor(opts, snap))
	w := cmd.OutOrStdout()
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s", it.Label, it.Detail)
		if it.Snippet {
			fmt.Fprintf(w, "\t%q", it.InsertText)
		}
		fmt.Fprintln(w)
	}
	return nil
}
