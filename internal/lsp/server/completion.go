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

	"candidls.dev/go/internal/lsp/completion"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/scheduler"
)

// Completion issues a completion job against the current analysis of the
// document and waits for it. A job superseded by a newer request for the
// same document produces no items; the client has already moved on to the
// newer request.
func (s *Server) Completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	h, err := s.issueCompletion(params)
	if h == nil || err != nil {
		return nil, err
	}
	return s.completionResult(h)
}

// issueCompletion captures the newest analysis of the document and
// issues a job against it, cancelling the document's previous job. It
// returns a nil handle for documents that are not open.
func (s *Server) issueCompletion(params *protocol.CompletionParams) (*scheduler.Handle, error) {
	snap, ok, err := s.snapshot(params.TextDocument.URI)
	if !ok || err != nil {
		return nil, err
	}
	req := scheduler.Request{
		Snapshot: snap,
		Offset:   snap.Offset(params.Position),
		Options:  completion.OptionsFor(s.Options(), snap),
	}
	return s.jobs.Issue(s.ctx, fscache.URI(params.TextDocument.URI), req), nil
}

// completionResult waits for h and returns the completion list, or nil
// if the job was cancelled.
func (s *Server) completionResult(h *scheduler.Handle) (any, error) {
	items, err := h.Wait(s.ctx)
	if errors.Is(err, scheduler.ErrCancelled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        completion.ToProtocol(items),
	}, nil
}
