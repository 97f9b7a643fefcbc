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

	"candidls.dev/go/internal/lsp/settings"
)

// loadOptions reads the settings file and applies the completion flags of
// cmd, if it has any. Settings that cannot be applied are reported as
// warnings.
func loadOptions(cmd *Command) (*settings.Options, error) {
	path := flagConfig.String(cmd)
	if path == "" {
		path = settings.FileName
	}
	opts, results, err := settings.LoadFile(settings.Default(), path)
	if err != nil {
		return nil, err
	}
	for _, err := range results.Errors() {
		fmt.Fprintf(cmd.OutOrStderr(), "warning: %v\n", err)
	}

	if cmd.Flags().Lookup(string(flagMode)) == nil {
		return opts, nil
	}
	if flagMode.IsSet(cmd) {
		mode, err := settings.ParseCompletionMode(flagMode.String(cmd))
		if err != nil {
			return nil, err
		}
		opts.CompletionMode = mode
	}
	if flagStyle.IsSet(cmd) {
		style, err := settings.ParseSnippetStyle(flagStyle.String(cmd))
		if err != nil {
			return nil, err
		}
		opts.SnippetStyle = style
	}
	return opts, nil
}
