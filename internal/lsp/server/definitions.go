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
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
)

// snapshot returns the analysis of the newest text of uri, waiting for
// its build. It reports false for documents that are not open.
//
// The round trip through the actor orders the request after every edit
// received before it.
func (s *Server) snapshot(uri protocol.DocumentUri) (*cache.Snapshot, bool, error) {
	var open bool
	if err := s.sendAndWait(func(st *server) {
		_, err := st.overlay.Get(fscache.URI(uri))
		open = err == nil
	}); err != nil {
		return nil, false, err
	}
	if !open {
		return nil, false, nil
	}
	snap, err := s.cache.Await(s.ctx, fscache.URI(uri))
	if errors.Is(err, fscache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// Hover shows the definition or signature of the name under the cursor.
func (s *Server) Hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap, ok, err := s.snapshot(params.TextDocument.URI)
	if !ok || err != nil {
		return nil, err
	}
	hover, ok := snap.Hover(snap.Offset(params.Position))
	if !ok {
		return nil, nil
	}
	return hover, nil
}

// Definition jumps from a type reference to its declaration.
func (s *Server) Definition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap, ok, err := s.snapshot(params.TextDocument.URI)
	if !ok || err != nil {
		return nil, err
	}
	span, ok := snap.Definition(snap.Offset(params.Position))
	if !ok {
		return nil, nil
	}
	return []protocol.Location{{
		URI:   params.TextDocument.URI,
		Range: snap.Range(span.Start, span.End),
	}}, nil
}

// DocumentSymbol lists the declarations of a document.
func (s *Server) DocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	snap, ok, err := s.snapshot(params.TextDocument.URI)
	if !ok || err != nil {
		return nil, err
	}
	symbols := snap.DocumentSymbols()
	if len(symbols) == 0 {
		return nil, nil
	}
	return symbols, nil
}
