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
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/module"
)

func newVersionCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "print candidls version",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE:  mkRunE(c, runVersion),
	}
	return cmd
}

const defaultVersion = "(devel)"

// version may be set by a builder using
// -ldflags='-X candidls.dev/go/cmd/candidls/cmd.version=<version>'.
// Otherwise the version is taken from the build information.
var version = defaultVersion

// moduleVersion returns the version of the running binary: the ldflags
// override, the main module version, or a pseudo-version built from the
// VCS stamp.
func moduleVersion() string {
	if version != defaultVersion {
		return version
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if bi.Main.Version != "" && bi.Main.Version != defaultVersion {
		return bi.Main.Version
	}
	var vcsTime time.Time
	var vcsRevision string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.time":
			// If the format is invalid, we'll print a zero timestamp.
			vcsTime, _ = time.Parse(time.RFC3339Nano, s.Value)
		case "vcs.revision":
			vcsRevision = s.Value
			// module.PseudoVersion recommends the revision to be a 12-byte
			// commit hash prefix, which is what cmd/go uses as well.
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
		}
	}
	if vcsRevision != "" {
		return module.PseudoVersion("", "", vcsTime, vcsRevision)
	}
	return defaultVersion
}

func runVersion(cmd *Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "candidls version %s\n\n", moduleVersion())
	fmt.Fprintf(w, "go version %s\n", runtime.Version())
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	for _, s := range bi.Settings {
		if s.Value == "" {
			// skip empty build settings
			continue
		}
		// The padding aligns keys; the longest usual key is "vcs.revision".
		fmt.Fprintf(w, "%16s %s\n", s.Key, s.Value)
	}
	return nil
}
