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

	"github.com/spf13/pflag"
)

const (
	flagConfig      flagName = "config"
	flagLogFormat   flagName = "log-format"
	flagLogLevel    flagName = "log-level"
	flagMetricsAddr flagName = "metrics-addr"
	flagMode        flagName = "mode"
	flagStyle       flagName = "style"
	flagTrace       flagName = "trace"
	flagVerbose     flagName = "verbose"
	flagWorkers     flagName = "workers"
)

func addGlobalFlags(f *pflag.FlagSet) {
	f.String(string(flagLogLevel), "info", "log level (trace, debug, info, warn, error)")
	f.String(string(flagLogFormat), "console", "log format (console or json)")
	f.String(string(flagConfig), "", "settings file (default candidls.yaml in the current directory)")
}

func addCompletionFlags(f *pflag.FlagSet) {
	f.String(string(flagMode), "", "completion mode (full, lightweight or auto)")
	f.String(string(flagStyle), "", "service snippet style (call, await, async or await-let)")
}

type flagName string

// ensureAdded detects if a flag is being used without it first being
// added to the flagSet.
func (f flagName) ensureAdded(cmd *Command) {
	if cmd.Flags().Lookup(string(f)) == nil {
		panic(fmt.Sprintf("Cmd %q uses flag %q without adding it", cmd.Name(), f))
	}
}

func (f flagName) Bool(cmd *Command) bool {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetBool(string(f))
	return v
}

func (f flagName) Count(cmd *Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetCount(string(f))
	return v
}

func (f flagName) Int(cmd *Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetInt(string(f))
	return v
}

func (f flagName) String(cmd *Command) string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetString(string(f))
	return v
}

func (f flagName) IsSet(cmd *Command) bool {
	f.ensureAdded(cmd)
	return cmd.Flags().Changed(string(f))
}
