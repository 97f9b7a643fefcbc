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
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-quicktest/qt"
	"github.com/sourcegraph/jsonrpc2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/completion"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/scheduler"
)

// holdFirst returns a phase that blocks the first job to run it until
// release is closed.
func holdFirst() (phase completion.Phase, entered <-chan struct{}, release func()) {
	var calls atomic.Int32
	in := make(chan struct{}, 1)
	gate := make(chan struct{})
	var once sync.Once
	phase = completion.Phase{
		Name: "hold",
		Run: func(*completion.Builder) {
			if calls.Add(1) == 1 {
				in <- struct{}{}
				<-gate
			}
		},
	}
	return phase, in, func() { once.Do(func() { close(gate) }) }
}

// dial serves s on one end of a pipe and returns a client connection on
// the other.
func dial(t *testing.T, s *Server) *jsonrpc2.Conn {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverEnd, clientEnd := net.Pipe()
	go s.Serve(ctx, serverEnd)

	// The client ignores notifications from the server.
	client := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientEnd, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
			return nil, nil
		}))
	t.Cleanup(func() {
		client.Close()
		cancel()
	})

	var init protocol.InitializeResult
	qt.Assert(t, qt.IsNil(client.Call(ctx, protocol.MethodInitialize, protocol.InitializeParams{}, &init)))
	qt.Assert(t, qt.Equals(init.ServerInfo.Name, Name))
	qt.Assert(t, qt.IsNil(client.Notify(ctx, protocol.MethodInitialized, protocol.InitializedParams{})))
	return client
}

func listLabels(list *protocol.CompletionList) []string {
	labels := []string{}
	for _, it := range list.Items {
		labels = append(labels, it.Label)
	}
	return labels
}

func TestCompletionSupersededOverConnection(t *testing.T) {
	phase, entered, release := holdFirst()
	s := New(Config{})
	s.jobs = scheduler.New(
		scheduler.WithWorkers(2),
		scheduler.WithPhases(append([]completion.Phase{phase}, completion.Phases()...)),
	)
	t.Cleanup(s.Close)
	t.Cleanup(release)

	client := dial(t, s)
	ctx := context.Background()

	err := client.Notify(ctx, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "candid", Version: 1, Text: recordDoc},
	})
	qt.Assert(t, qt.IsNil(err))

	first, err := client.DispatchCall(ctx, protocol.MethodTextDocumentCompletion,
		protocol.CompletionParams{TextDocumentPositionParams: position(1, 10)})
	qt.Assert(t, qt.IsNil(err))
	select {
	case <-entered:
	case <-time.After(10 * time.Second):
		t.Fatal("first completion job did not start")
	}

	// While the first job is held, the server keeps reading: the edit
	// and the second request are handled, and the second request
	// supersedes the first.
	at := protocol.Position{Line: 1, Character: 10}
	err = client.Notify(ctx, protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: at, End: at},
			Text:  "a = 1; ",
		}},
	})
	qt.Assert(t, qt.IsNil(err))

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var second *protocol.CompletionList
	err = client.Call(waitCtx, protocol.MethodTextDocumentCompletion,
		protocol.CompletionParams{TextDocumentPositionParams: position(1, 17)}, &second)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(second))
	qt.Assert(t, qt.DeepEquals(listLabels(second), []string{"b"}))

	release()
	firstList := &protocol.CompletionList{}
	qt.Assert(t, qt.IsNil(first.Wait(waitCtx, &firstList)))
	qt.Assert(t, qt.IsNil(firstList))

	_, live := s.jobs.Live(fscache.URI(docURI))
	qt.Assert(t, qt.IsFalse(live))
}

func TestUnknownMethodOverConnection(t *testing.T) {
	s := New(Config{})
	t.Cleanup(s.Close)
	client := dial(t, s)

	err := client.Call(context.Background(), "textDocument/unknown", struct{}{}, nil)
	var rpcErr *jsonrpc2.Error
	qt.Assert(t, qt.ErrorAs(err, &rpcErr))
	qt.Assert(t, qt.Equals(rpcErr.Code, int64(jsonrpc2.CodeMethodNotFound)))
}
