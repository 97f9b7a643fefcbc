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

// Package cache builds and publishes the analysis snapshots of open
// documents.
package cache

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/telemetry"
)

// ErrSuperseded is returned by [Cache.OnChange] when a newer version of
// the document arrived before the build finished. The build's result is
// discarded.
var ErrSuperseded = errors.New("analysis superseded by a newer edit")

// A Cache holds the current analysis snapshot of every open document.
//
// Each document has one cell. The cell's snapshot pointer is the only
// state readers touch; it is replaced wholesale on publication, so a
// reader sees the previous snapshot or the next one, never a mixture.
type Cache struct {
	cells sync.Map // fscache.URI -> *cell

	logger    zerolog.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	onPublish func(*Snapshot)
}

type cell struct {
	current atomic.Pointer[Snapshot]

	// mu guards the fields below.
	mu     sync.Mutex
	target uint64 // seq of the newest document snapshot seen
	cancel context.CancelFunc
	ready  chan struct{} // closed once current reaches target
	closed bool
}

// An Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.logger = telemetry.Component(l, "analysis") }
}

// WithMetrics records build outcomes in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithTracer records a span per build.
func WithTracer(t *telemetry.Tracer) Option {
	return func(c *Cache) { c.tracer = t }
}

// WithPublishHook registers f to be called with every published snapshot.
// Calls for one document are made in publication order, with the
// document's cell locked; f must not call back into the Cache for the same
// document.
func WithPublishHook(f func(*Snapshot)) Option {
	return func(c *Cache) { c.onPublish = f }
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{logger: zerolog.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) cell(uri fscache.URI) *cell {
	v, _ := c.cells.LoadOrStore(uri, &cell{ready: make(chan struct{})})
	return v.(*cell)
}

// OnChange builds the analysis of fh and publishes it as the current
// snapshot of its document. A build started for an older document
// snapshot is cancelled; if it still finishes, its result is discarded and
// ErrSuperseded is returned. At most one build per document is ever
// allowed to commit, and only the one for the newest text.
func (c *Cache) OnChange(ctx context.Context, fh fscache.FileHandle) (*Snapshot, error) {
	cl, ctx, cancel, err := c.begin(ctx, fh)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.commit(ctx, cl, fh)
}

// Submit is like OnChange but builds in the background. Once Submit
// returns, fh is the newest text of its document: [Cache.Await] waits for
// its build, or a newer one. If done is not nil it is called with the
// build's result.
func (c *Cache) Submit(ctx context.Context, fh fscache.FileHandle, done func(*Snapshot, error)) {
	cl, ctx, cancel, err := c.begin(ctx, fh)
	if err != nil {
		if done != nil {
			done(nil, err)
		}
		return
	}
	go func() {
		defer cancel()
		snap, err := c.commit(ctx, cl, fh)
		if done != nil {
			done(snap, err)
		}
	}()
}

// begin makes fh the build target of its document, cancelling the build
// in flight.
func (c *Cache) begin(ctx context.Context, fh fscache.FileHandle) (*cell, context.Context, context.CancelFunc, error) {
	cl := c.cell(fh.URI())

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed || fh.Seq() < cl.target {
		c.metrics.ObserveBuild(telemetry.BuildSuperseded, 0)
		return nil, nil, nil, ErrSuperseded
	}
	if cl.cancel != nil {
		cl.cancel()
	}
	if fh.Seq() != cl.target {
		cl.target = fh.Seq()
		if snap := cl.current.Load(); snap == nil || snap.Seq() != cl.target {
			cl.ready = renew(cl.ready)
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	cl.cancel = cancel
	return cl, ctx, cancel, nil
}

// commit builds fh and publishes the result unless a newer text arrived
// in the meantime.
func (c *Cache) commit(ctx context.Context, cl *cell, fh fscache.FileHandle) (*Snapshot, error) {
	uri := fh.URI()
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "analysis.build", string(uri),
		attribute.Int64("document.version", int64(fh.Version())))
	snap, err := c.build(ctx, fh)
	telemetry.End(span, err)
	if err != nil {
		c.logger.Debug().Str("uri", string(uri)).Int32("version", fh.Version()).Msg("build cancelled")
		cl.mu.Lock()
		superseded := cl.closed || cl.target != fh.Seq()
		cl.mu.Unlock()
		if !superseded {
			return nil, err
		}
		c.metrics.ObserveBuild(telemetry.BuildSuperseded, 0)
		return nil, ErrSuperseded
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed || cl.target != fh.Seq() {
		c.metrics.ObserveBuild(telemetry.BuildSuperseded, 0)
		return nil, ErrSuperseded
	}
	cl.current.Store(snap)
	select {
	case <-cl.ready:
	default:
		close(cl.ready)
	}
	cl.cancel = nil
	c.metrics.ObserveBuild(telemetry.BuildPublished, time.Since(start))
	c.logger.Debug().
		Str("uri", string(uri)).
		Int32("version", fh.Version()).
		Int("diagnostics", len(snap.Diagnostics())).
		Msg("snapshot published")
	if c.onPublish != nil {
		c.onPublish(snap)
	}
	return snap, nil
}

// renew returns a fresh open channel if ch was already closed.
func renew(ch chan struct{}) chan struct{} {
	select {
	case <-ch:
		return make(chan struct{})
	default:
		return ch
	}
}

// build runs [Build], turning a panic into a degraded snapshot so that a
// fault in the analysis never takes the server down.
func (c *Cache) build(ctx context.Context, fh fscache.FileHandle) (snap *Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("uri", string(fh.URI())).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("analysis build failed")
			c.metrics.ObserveBuild(telemetry.BuildFailed, 0)
			snap, err = degraded(fh, r), nil
		}
	}()
	return Build(ctx, fh)
}

// Snapshot returns the current snapshot of uri, which may be older than
// the document's latest text while a build is in flight.
func (c *Cache) Snapshot(uri fscache.URI) (*Snapshot, bool) {
	v, ok := c.cells.Load(uri)
	if !ok {
		return nil, false
	}
	snap := v.(*cell).current.Load()
	return snap, snap != nil
}

// Await returns the snapshot of the newest text seen for uri, waiting for
// its build to be published.
func (c *Cache) Await(ctx context.Context, uri fscache.URI) (*Snapshot, error) {
	v, ok := c.cells.Load(uri)
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, fscache.ErrNotFound)
	}
	cl := v.(*cell)
	for {
		cl.mu.Lock()
		if cl.closed {
			cl.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", uri, fscache.ErrNotFound)
		}
		snap := cl.current.Load()
		if snap != nil && snap.Seq() == cl.target {
			cl.mu.Unlock()
			return snap, nil
		}
		ready := cl.ready
		cl.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Drop forgets uri, cancelling any build in flight.
func (c *Cache) Drop(uri fscache.URI) {
	v, ok := c.cells.LoadAndDelete(uri)
	if !ok {
		return
	}
	cl := v.(*cell)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.closed = true
	if cl.cancel != nil {
		cl.cancel()
	}
	cl.ready = renew(cl.ready)
	close(cl.ready)
	cl.current.Store(nil)
}
