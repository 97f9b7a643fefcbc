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

	"github.com/spf13/cobra"

	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
)

func newSubtypeCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtype FILE A B",
		Short: "report whether one type is a subtype of another",
		Long: `subtype resolves the types named A and B in FILE and prints
"A <: B" if A is a structural subtype of B, and "A </: B" otherwise.
A and B may also name primitive types.`,
		Args: cobra.ExactArgs(3),
		RunE: mkRunE(c, runSubtype),
	}
	return cmd
}

func runSubtype(cmd *Command, args []string) error {
	fh, err := fscache.NewDiskFS().ReadFile(args[0])
	if err != nil {
		return err
	}
	snap, err := cache.Build(cmd.Context(), fh)
	if err != nil {
		return err
	}
	t := snap.Table()
	a, ok := lookupType(t, args[1])
	if !ok {
		return fmt.Errorf("%s: type %s is not defined", args[0], args[1])
	}
	b, ok := lookupType(t, args[2])
	if !ok {
		return fmt.Errorf("%s: type %s is not defined", args[0], args[2])
	}
	rel := "</:"
	if t.IsSubtype(a, b) {
		rel = "<:"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[1], rel, args[2])
	return nil
}

// lookupType resolves a declared type name, a primitive type name or
// blob.
func lookupType(t *types.Table, name string) (types.ID, bool) {
	if id, ok := t.Lookup(name); ok {
		return id, true
	}
	if name == "blob" {
		return t.Blob(), true
	}
	if k, ok := types.PrimKind(name); ok {
		return t.Prim(k), true
	}
	return 0, false
}
