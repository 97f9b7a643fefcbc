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
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/rope"
)

// DidOpen records the text of a newly opened document and starts its
// analysis.
func (s *Server) DidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) (err error) {
	doc := params.TextDocument
	uri := fscache.URI(doc.URI)
	sendErr := s.sendAndWait(func(st *server) {
		fh := st.overlay.Open(uri, doc.Version, doc.Text)
		s.metrics.SetOpenDocuments(len(st.overlay.URIs()))
		s.analyze(fh)
	})
	if sendErr != nil {
		return sendErr
	}
	return err
}

// DidChange applies the client's edits, in order, and starts the
// analysis of the new text. A build of an older version still in flight
// is superseded.
func (s *Server) DidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) (err error) {
	uri := fscache.URI(params.TextDocument.URI)
	changes := make([]fscache.Change, 0, len(params.ContentChanges))
	for _, c := range params.ContentChanges {
		change, err := convertChange(c)
		if err != nil {
			return err
		}
		changes = append(changes, change)
	}
	sendErr := s.sendAndWait(func(st *server) {
		var fh fscache.FileHandle
		fh, err = st.overlay.ApplyEdit(uri, params.TextDocument.Version, changes...)
		if err != nil {
			return
		}
		s.analyze(fh)
	})
	if sendErr != nil {
		return sendErr
	}
	return err
}

func convertChange(c any) (fscache.Change, error) {
	switch c := c.(type) {
	case protocol.TextDocumentContentChangeEvent:
		return fscache.Change{Range: convertRange(c.Range), Text: c.Text}, nil
	case *protocol.TextDocumentContentChangeEvent:
		return fscache.Change{Range: convertRange(c.Range), Text: c.Text}, nil
	case protocol.TextDocumentContentChangeEventWhole:
		return fscache.Change{Text: c.Text}, nil
	case *protocol.TextDocumentContentChangeEventWhole:
		return fscache.Change{Text: c.Text}, nil
	}
	return fscache.Change{}, fmt.Errorf("unsupported content change %T", c)
}

func convertRange(r *protocol.Range) *fscache.Range {
	if r == nil {
		return nil
	}
	return &fscache.Range{
		Start: rope.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   rope.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}

// analyze hands fh to the cache. It is called on the actor, so the cache
// learns about versions in the order the edits were applied; the build
// itself runs in the background.
func (s *Server) analyze(fh fscache.FileHandle) {
	s.cache.Submit(s.ctx, fh, func(_ *cache.Snapshot, err error) {
		if err != nil && !errors.Is(err, cache.ErrSuperseded) {
			s.logger.Debug().Err(err).Str("uri", string(fh.URI())).Msg("analysis not published")
		}
	})
}

// DidClose forgets a document, cancels its completion job and clears its
// diagnostics.
func (s *Server) DidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := fscache.URI(params.TextDocument.URI)
	sendErr := s.sendAndWait(func(st *server) {
		st.overlay.Close(uri)
		s.metrics.SetOpenDocuments(len(st.overlay.URIs()))
	})
	if sendErr != nil {
		return sendErr
	}
	s.jobs.Cancel(uri)
	s.cache.Drop(uri)
	s.notifyClient(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}
