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
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/settings"
)

// Initialize is a request from the editor/client to initialize the
// server. It gets a response. Once the response is sent, the client
// needs to send an Initialized notification before any work starts.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#initialize
func (s *Server) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (result any, err error) {
	s.setNotify(ctx.Notify)
	sendErr := s.sendAndWait(func(st *server) {
		result, err = s.initialize(st, params)
	})
	if sendErr != nil {
		return nil, sendErr
	}
	return result, err
}

func (s *Server) initialize(st *server, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	if st.state != serverCreated {
		return nil, fmt.Errorf("initialize called while server in %v state", st.state)
	}
	st.state = serverInitializing

	st.root = rootDir(params)
	options := s.Options()
	if st.root != "" {
		opts, results, err := settings.LoadFile(options, filepath.Join(st.root, settings.FileName))
		if err != nil {
			s.eventuallyShowMessage(st, protocol.ShowMessageParams{
				Type:    protocol.MessageTypeError,
				Message: err.Error(),
			})
		} else {
			s.handleOptionResults(st, results)
			options = opts
		}
	}
	options = options.Clone()
	s.handleOptionResults(st, settings.SetOptions(options, params.InitializationOptions))
	s.SetOptions(options)

	s.logger.Info().
		Str("root", st.root).
		Str("mode", string(options.CompletionMode)).
		Str("style", string(options.SnippetStyle)).
		Msg("initializing")

	capabilities := s.Handler().CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":", "{", ";", "("},
	}
	version := s.version
	return &protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

// rootDir returns the workspace directory named by params, preferring
// the first workspace folder.
func rootDir(params *protocol.InitializeParams) string {
	var uri string
	switch {
	case len(params.WorkspaceFolders) > 0:
		uri = string(params.WorkspaceFolders[0].URI)
	case params.RootURI != nil:
		uri = string(*params.RootURI)
	case params.RootPath != nil:
		return *params.RootPath
	}
	if uri == "" {
		return ""
	}
	return fscache.URI(uri).Path()
}

// Initialized is the handler for the notification the client sends once
// it has received our InitializeResult.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#initialized
func (s *Server) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) (err error) {
	sendErr := s.sendAndWait(func(st *server) {
		if st.state != serverInitializing {
			err = fmt.Errorf("initialized called while server in %v state", st.state)
			return
		}
		st.state = serverInitialized
		s.maybeShowPendingMessages(st)
	})
	if sendErr != nil {
		return sendErr
	}
	return err
}

// Shutdown implements the 'shutdown' LSP handler. It cancels the
// completion jobs in flight. The server should not exit after the
// response is sent; it waits for the exit notification instead.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#shutdown
func (s *Server) Shutdown(ctx *glsp.Context) (err error) {
	sendErr := s.sendAndWait(func(st *server) {
		switch st.state {
		case serverShutDown:
			return
		case serverInitialized:
		default:
			s.logger.Warn().Stringer("state", st.state).Msg("server shutdown without initialization")
		}
		st.state = serverShutDown
		for _, uri := range st.overlay.URIs() {
			s.jobs.Cancel(uri)
		}
	})
	if sendErr != nil {
		return sendErr
	}
	s.jobs.Shutdown()
	return nil
}

// Exit implements the 'exit' LSP handler.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#exit
func (s *Server) Exit(ctx *glsp.Context) error {
	var state serverState
	if err := s.sendAndWait(func(st *server) { state = st.state }); err != nil {
		return err
	}
	s.Close()
	if state != serverShutDown {
		os.Exit(1)
	}
	return nil
}

// SetTrace records the trace level requested by the client.
func (s *Server) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
