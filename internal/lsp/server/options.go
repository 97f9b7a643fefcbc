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

package server

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/settings"
)

// DidChangeConfiguration applies the settings sent by the client on top
// of the current options.
func (s *Server) DidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	return s.sendAndWait(func(st *server) {
		options := s.Options().Clone()
		s.handleOptionResults(st, settings.SetOptions(options, params.Settings))
		s.SetOptions(options)
		s.logger.Debug().
			Str("mode", string(options.CompletionMode)).
			Str("style", string(options.SnippetStyle)).
			Int("lineLimit", options.AutoLineLimit).
			Int("charLimit", options.AutoCharLimit).
			Msg("configuration changed")
	})
}

// handleOptionResults reports invalid settings to the user. Settings that
// could not be applied keep their previous value.
func (s *Server) handleOptionResults(st *server, results settings.OptionResults) {
	var warnings, errors []string
	for _, result := range results {
		switch result.Error.(type) {
		case nil:
			// nothing to do
		case *settings.SoftError:
			warnings = append(warnings, result.Error.Error())
		default:
			errors = append(errors, result.Error.Error())
		}
	}

	// Sort messages, but put errors first. Stable content lets clients
	// de-duplicate.
	var msgs []string
	msgType := protocol.MessageTypeWarning
	if len(errors) > 0 {
		msgType = protocol.MessageTypeError
		sort.Strings(errors)
		msgs = append(msgs, errors...)
	}
	if len(warnings) > 0 {
		sort.Strings(warnings)
		msgs = append(msgs, warnings...)
	}
	if len(msgs) == 0 {
		return
	}
	combined := "Invalid settings: " + strings.Join(msgs, "; ")
	s.logger.Warn().Msg(combined)
	s.eventuallyShowMessage(st, protocol.ShowMessageParams{
		Type:    msgType,
		Message: combined,
	})
}
