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

// Package server implements the Candid language server protocol handlers
// on top of the analysis cache and the completion scheduler.
package server

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/scheduler"
	"candidls.dev/go/internal/lsp/settings"
	"candidls.dev/go/internal/telemetry"
)

// Name is the server name reported to clients.
const Name = "candidls"

var serverIDCounter int64

type serverState int

const (
	serverCreated      = serverState(iota)
	serverInitializing // set once the server has received "initialize" request
	serverInitialized  // set once the server has received "initialized" request
	serverShutDown
)

func (s serverState) String() string {
	switch s {
	case serverCreated:
		return "created"
	case serverInitializing:
		return "initializing"
	case serverInitialized:
		return "initialized"
	case serverShutDown:
		return "shutDown"
	}
	return fmt.Sprintf("(unknown state: %d)", int(s))
}

// server is the state owned by the actor loop. Only functions sent
// through [Server.sendAndWait] may touch it.
type server struct {
	state   serverState
	overlay *fscache.Overlay
	root    string // workspace root directory, if any

	pendingMessages []protocol.ShowMessageParams
}

// Config holds the collaborators of a Server. Zero values are valid.
type Config struct {
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Options *settings.Options
	Version string
	// Workers bounds the number of completion jobs running at once.
	Workers int
	// Debug logs every JSON-RPC message through the transport logger.
	Debug bool
}

// A Server answers LSP requests for Candid documents.
//
// The server's own state lives in an actor goroutine. Requests that
// only read analysis results, such as completion and hover, capture a
// snapshot through the actor and then run outside it, so a slow request
// never holds up edits.
type Server struct {
	id      string
	version string
	debug   bool

	logger  zerolog.Logger
	metrics *telemetry.Metrics

	actor *MailboxWriter[serverFunc]
	stop  chan struct{}
	ctx   context.Context
	done  context.CancelFunc

	cache *cache.Cache
	jobs  *scheduler.Scheduler

	options atomic.Pointer[settings.Options]

	notifyMu sync.Mutex
	notify   glsp.NotifyFunc
}

// New returns a server that has not been initialized.
func New(cfg Config) *Server {
	counter := atomic.AddInt64(&serverIDCounter, 1)
	if cfg.Options == nil {
		cfg.Options = settings.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "(devel)"
	}
	logger := telemetry.Component(cfg.Logger, "server")

	s := &Server{
		id:      strconv.FormatInt(counter, 10),
		version: cfg.Version,
		debug:   cfg.Debug,
		logger:  logger,
		metrics: cfg.Metrics,
		stop:    make(chan struct{}),
	}
	s.ctx, s.done = context.WithCancel(telemetry.WithContext(context.Background(), logger))
	s.options.Store(cfg.Options)
	s.cache = cache.New(
		cache.WithLogger(cfg.Logger),
		cache.WithMetrics(cfg.Metrics),
		cache.WithTracer(cfg.Tracer),
		cache.WithPublishHook(s.publishDiagnostics),
	)
	s.jobs = scheduler.New(
		scheduler.WithLogger(cfg.Logger),
		scheduler.WithMetrics(cfg.Metrics),
		scheduler.WithTracer(cfg.Tracer),
		scheduler.WithWorkers(cfg.Workers),
	)
	s.actor = startActor(&server{
		state:   serverCreated,
		overlay: fscache.NewOverlay(),
	}, s.stop)
	return s
}

// ID returns a unique, human-readable string for this server, for the
// purpose of log messages and debugging.
func (s *Server) ID() string { return s.id }

// Handler returns the protocol handler dispatching to s.
func (s *Server) Handler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                      s.Initialize,
		Initialized:                     s.Initialized,
		Shutdown:                        s.Shutdown,
		Exit:                            s.Exit,
		SetTrace:                        s.SetTrace,
		TextDocumentDidOpen:             s.DidOpen,
		TextDocumentDidChange:           s.DidChange,
		TextDocumentDidClose:            s.DidClose,
		TextDocumentCompletion:          s.Completion,
		TextDocumentHover:               s.Hover,
		TextDocumentDefinition:          s.Definition,
		TextDocumentDocumentSymbol:      s.DocumentSymbol,
		WorkspaceDidChangeConfiguration: s.DidChangeConfiguration,
	}
}

// RunStdio serves the protocol on standard input and output until the
// client disconnects.
func (s *Server) RunStdio() error {
	defer s.Close()
	return s.Serve(s.ctx, stdio{})
}

// Close stops the actor, cancels all work and waits for running
// completion jobs.
func (s *Server) Close() {
	select {
	case <-s.stop:
		return
	default:
	}
	close(s.stop)
	<-s.actor.TerminatedChan
	s.done()
	s.jobs.Shutdown()
}

// Options returns the current server options.
//
// The caller must not modify the result.
func (s *Server) Options() *settings.Options {
	return s.options.Load()
}

// SetOptions sets the current server options.
//
// The caller must not subsequently modify the contents of opts.
func (s *Server) SetOptions(opts *settings.Options) {
	s.options.Store(opts)
	zerolog.SetGlobalLevel(telemetry.ParseLevel(opts.LogLevel))
}

func (s *Server) setNotify(f glsp.NotifyFunc) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notify = f
}

// notifyClient sends a notification to the client, if one is connected.
func (s *Server) notifyClient(method string, params any) {
	s.notifyMu.Lock()
	f := s.notify
	s.notifyMu.Unlock()
	if f != nil {
		f(method, params)
	}
}

// eventuallyShowMessage (eventually) shows msg in the client. Messages
// raised before initialization completes are buffered and sent by
// [Server.maybeShowPendingMessages].
func (s *Server) eventuallyShowMessage(st *server, msg protocol.ShowMessageParams) {
	if st.state == serverInitialized {
		s.notifyClient(protocol.ServerWindowShowMessage, msg)
		return
	}
	st.pendingMessages = append(st.pendingMessages, msg)
}

// maybeShowPendingMessages sends any buffered messages once the server
// has completed initialization.
func (s *Server) maybeShowPendingMessages(st *server) {
	if st.state != serverInitialized {
		return
	}
	messages := st.pendingMessages
	st.pendingMessages = nil
	for _, msg := range messages {
		s.notifyClient(protocol.ServerWindowShowMessage, msg)
	}
}

// publishDiagnostics is called by the cache for every published
// snapshot.
func (s *Server) publishDiagnostics(snap *cache.Snapshot) {
	diags := snap.Diagnostics()
	version := protocol.UInteger(snap.Version())
	s.notifyClient(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(snap.URI()),
		Version:     &version,
		Diagnostics: diags,
	})
	s.metrics.AddDiagnostics(len(diags))
}
