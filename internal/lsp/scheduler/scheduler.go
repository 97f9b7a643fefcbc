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

// Package scheduler runs completion jobs.
//
// Each document has at most one live job. Issuing a job for a document
// cancels the job it replaces; the cancelled job notices at its next phase
// boundary and finishes without a result. Jobs of different documents run
// concurrently on a bounded pool of workers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/completion"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/telemetry"
)

// ErrCancelled is returned by [Handle.Wait] for a job that was superseded
// or cancelled before it completed. It is not a failure: the caller should
// send no response.
var ErrCancelled = errors.New("completion job cancelled")

// State is the state of a completion job.
type State int32

const (
	Queued State = iota
	Running
	Completed
	Cancelled
)

var stateNames = [...]string{
	Queued:    "queued",
	Running:   "running",
	Completed: "completed",
	Cancelled: "cancelled",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// A Request describes one completion job.
type Request struct {
	// Snapshot is the analysis the job runs against. The job never sees
	// a newer one.
	Snapshot *cache.Snapshot
	Offset   int
	Options  completion.Options
}

// A Handle refers to an issued job.
type Handle struct {
	id    uuid.UUID
	uri   fscache.URI
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Set before done is closed.
	items   []completion.Item
	faulted bool
}

// ID returns the job's unique id.
func (h *Handle) ID() uuid.UUID { return h.id }

// URI returns the document the job completes in.
func (h *Handle) URI() fscache.URI { return h.uri }

// State returns the current state of the job.
func (h *Handle) State() State { return State(h.state.Load()) }

// Done returns a channel that is closed when the job reaches Completed or
// Cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel cancels the job. It has no effect on a job that already
// completed.
func (h *Handle) Cancel() { h.cancel() }

// Faulted reports whether the job completed with an empty result because
// of an internal fault.
func (h *Handle) Faulted() bool {
	<-h.done
	return h.faulted
}

// Wait blocks until the job finishes or ctx is done. It returns the
// ranked items of a completed job and ErrCancelled for a cancelled one.
func (h *Handle) Wait(ctx context.Context) ([]completion.Item, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if h.State() != Completed {
		return nil, ErrCancelled
	}
	return h.items, nil
}

// A Scheduler issues completion jobs.
type Scheduler struct {
	sem    *semaphore.Weighted
	phases []completion.Phase

	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	mu   sync.Mutex
	jobs map[fscache.URI]*Handle
	wg   sync.WaitGroup
}

// An Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = telemetry.Component(l, "scheduler") }
}

// WithMetrics records job outcomes in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracer records a span per job, with an event per phase.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

// WithWorkers bounds the number of jobs running at once. The default is
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithPhases replaces the phases a job runs. It exists for tests that
// need to observe a job between phases.
func WithPhases(phases []completion.Phase) Option {
	return func(s *Scheduler) { s.phases = phases }
}

// New returns a Scheduler with no jobs.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		sem:    semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		phases: completion.Phases(),
		logger: zerolog.Nop(),
		jobs:   make(map[fscache.URI]*Handle),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue starts a completion job for uri and returns its handle. The job
// previously issued for uri, if still live, is cancelled.
func (s *Scheduler) Issue(ctx context.Context, uri fscache.URI, req Request) *Handle {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Handle{
		id:     uuid.New(),
		uri:    uri,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if prev := s.jobs[uri]; prev != nil {
		prev.cancel()
		s.logger.Debug().
			Str("uri", string(uri)).
			Stringer("job", prev.id).
			Stringer("by", h.id).
			Msg("job superseded")
	}
	s.jobs[uri] = h
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(h, req)
	return h
}

// Cancel cancels the live job of uri, if any.
func (s *Scheduler) Cancel(uri fscache.URI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h := s.jobs[uri]; h != nil {
		h.cancel()
		delete(s.jobs, uri)
	}
}

// Live returns the handle of the live job of uri.
func (s *Scheduler) Live(uri fscache.URI) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.jobs[uri]
	return h, ok
}

// Shutdown cancels every job and waits for them to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for uri, h := range s.jobs {
		h.cancel()
		delete(s.jobs, uri)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(h *Handle, req Request) {
	defer s.wg.Done()
	start := time.Now()
	mode := string(req.Options.Mode)
	log := s.logger.With().Str("uri", string(h.uri)).Stringer("job", h.id).Logger()

	finish := func(state State) {
		h.state.Store(int32(state))
		s.mu.Lock()
		if s.jobs[h.uri] == h {
			delete(s.jobs, h.uri)
		}
		s.mu.Unlock()
		h.cancel()
		close(h.done)

		outcome := state.String()
		if h.faulted {
			outcome = "failed"
		}
		s.metrics.ObserveCompletion(mode, outcome, time.Since(start))
	}

	if err := s.sem.Acquire(h.ctx, 1); err != nil {
		log.Debug().Msg("job cancelled while queued")
		finish(Cancelled)
		return
	}
	defer s.sem.Release(1)
	if !h.state.CompareAndSwap(int32(Queued), int32(Running)) {
		finish(Cancelled)
		return
	}

	ctx, span := s.tracer.Start(h.ctx, "completion", string(h.uri),
		attribute.String("job.id", h.id.String()),
		attribute.String("completion.mode", mode),
		attribute.Int("completion.offset", req.Offset))
	items, faulted, err := s.execute(ctx, span, log, req)
	if err != nil {
		span.AddEvent("cancelled")
		span.End()
		log.Debug().Msg("job cancelled")
		finish(Cancelled)
		return
	}
	span.SetAttributes(attribute.Int("completion.items", len(items)))
	span.End()
	h.items = items
	h.faulted = faulted
	finish(Completed)
}

// execute runs the phases in order with a cancellation check and a yield
// at every boundary. A panic in a phase ends the job with no items.
func (s *Scheduler) execute(ctx context.Context, span trace.Span, log zerolog.Logger, req Request) (items []completion.Item, faulted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("completion job failed")
			telemetry.RecordFault(span, r)
			items, faulted, err = []completion.Item{}, true, nil
		}
	}()

	b := completion.NewBuilder(req.Snapshot, req.Offset, req.Options)
	for _, p := range s.phases {
		if err := checkpoint(ctx); err != nil {
			return nil, false, err
		}
		span.AddEvent(p.Name)
		p.Run(b)
		runtime.Gosched()
	}
	if err := checkpoint(ctx); err != nil {
		return nil, false, err
	}
	items = b.Items()
	if items == nil {
		items = []completion.Item{}
	}
	return items, false, nil
}

func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}
