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

package scheduler_test

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/completion"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/scheduler"
	"candidls.dev/go/internal/lsp/settings"
	"candidls.dev/go/internal/telemetry"
)

const src = "type T = record { a: nat; b: opt text };\n(record { ‸ } : T)\n"

func request(t *testing.T, uri fscache.URI) scheduler.Request {
	t.Helper()
	offset := strings.Index(src, "‸")
	fh := fscache.NewOverlay().Open(uri, 1, strings.Replace(src, "‸", "", 1))
	snap, err := cache.Build(context.Background(), fh)
	qt.Assert(t, qt.IsNil(err))
	return scheduler.Request{
		Snapshot: snap,
		Offset:   offset,
		Options:  completion.Options{Mode: settings.ModeFull, Style: settings.StyleCall},
	}
}

func labels(items []completion.Item) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

// gate returns a phase that blocks the first job to reach it until
// release is closed. entered receives once that job is blocked.
func gate() (phase completion.Phase, entered <-chan struct{}, release chan struct{}) {
	var calls atomic.Int32
	in := make(chan struct{}, 1)
	release = make(chan struct{})
	phase = completion.Phase{
		Name: "gate",
		Run: func(*completion.Builder) {
			if calls.Add(1) == 1 {
				in <- struct{}{}
				<-release
			}
		},
	}
	return phase, in, release
}

func withGate(phase completion.Phase) scheduler.Option {
	return scheduler.WithPhases(append([]completion.Phase{phase}, completion.Phases()...))
}

func TestComplete(t *testing.T) {
	s := scheduler.New()
	defer s.Shutdown()
	h := s.Issue(context.Background(), "file:///a.did", request(t, "file:///a.did"))
	items, err := h.Wait(context.Background())
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(labels(items), []string{"a", "b"}))
	qt.Assert(t, qt.Equals(h.State(), scheduler.Completed))
	qt.Assert(t, qt.IsFalse(h.Faulted()))

	_, live := s.Live("file:///a.did")
	qt.Assert(t, qt.IsFalse(live))
}

func TestSupersede(t *testing.T) {
	const uri = "file:///a.did"
	phase, entered, release := gate()
	s := scheduler.New(withGate(phase))
	defer s.Shutdown()
	ctx := context.Background()

	first := s.Issue(ctx, uri, request(t, uri))
	<-entered
	qt.Assert(t, qt.Equals(first.State(), scheduler.Running))

	second := s.Issue(ctx, uri, request(t, uri))
	live, ok := s.Live(uri)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(live, second))
	qt.Assert(t, qt.Not(qt.Equals(second.ID(), first.ID())))
	close(release)

	items, err := first.Wait(ctx)
	qt.Assert(t, qt.ErrorIs(err, scheduler.ErrCancelled))
	qt.Assert(t, qt.IsNil(items))
	qt.Assert(t, qt.Equals(first.State(), scheduler.Cancelled))

	items, err = second.Wait(ctx)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(labels(items), []string{"a", "b"}))
	qt.Assert(t, qt.Equals(second.State(), scheduler.Completed))
}

func TestOtherDocumentsAreIndependent(t *testing.T) {
	phase, entered, release := gate()
	s := scheduler.New(withGate(phase), scheduler.WithWorkers(2))
	defer s.Shutdown()
	ctx := context.Background()

	a := s.Issue(ctx, "file:///a.did", request(t, "file:///a.did"))
	<-entered
	b := s.Issue(ctx, "file:///b.did", request(t, "file:///b.did"))
	_, err := b.Wait(ctx)
	qt.Assert(t, qt.IsNil(err))

	close(release)
	_, err = a.Wait(ctx)
	qt.Assert(t, qt.IsNil(err))
}

func TestCancelQueued(t *testing.T) {
	phase, entered, release := gate()
	s := scheduler.New(withGate(phase), scheduler.WithWorkers(1))
	defer s.Shutdown()
	ctx := context.Background()

	a := s.Issue(ctx, "file:///a.did", request(t, "file:///a.did"))
	<-entered
	b := s.Issue(ctx, "file:///b.did", request(t, "file:///b.did"))
	qt.Assert(t, qt.Equals(b.State(), scheduler.Queued))
	s.Cancel("file:///b.did")
	_, err := b.Wait(ctx)
	qt.Assert(t, qt.ErrorIs(err, scheduler.ErrCancelled))
	qt.Assert(t, qt.Equals(b.State(), scheduler.Cancelled))

	close(release)
	_, err = a.Wait(ctx)
	qt.Assert(t, qt.IsNil(err))
}

func TestFault(t *testing.T) {
	m := telemetry.NewMetrics()
	s := scheduler.New(
		scheduler.WithMetrics(m),
		scheduler.WithPhases([]completion.Phase{{
			Name: "explode",
			Run:  func(*completion.Builder) { panic("boom") },
		}}),
	)
	defer s.Shutdown()

	h := s.Issue(context.Background(), "file:///a.did", request(t, "file:///a.did"))
	items, err := h.Wait(context.Background())
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(items, 0))
	qt.Assert(t, qt.Equals(h.State(), scheduler.Completed))
	qt.Assert(t, qt.IsTrue(h.Faulted()))
	qt.Assert(t, qt.Equals(completions(t, m, "failed"), 1.0))
}

func TestMetrics(t *testing.T) {
	const uri = "file:///a.did"
	m := telemetry.NewMetrics()
	phase, entered, release := gate()
	s := scheduler.New(withGate(phase), scheduler.WithMetrics(m))
	ctx := context.Background()

	first := s.Issue(ctx, uri, request(t, uri))
	<-entered
	second := s.Issue(ctx, uri, request(t, uri))
	close(release)
	first.Wait(ctx)
	second.Wait(ctx)
	s.Shutdown()

	qt.Assert(t, qt.Equals(completions(t, m, "cancelled"), 1.0))
	qt.Assert(t, qt.Equals(completions(t, m, "completed"), 1.0))
}

func TestShutdown(t *testing.T) {
	phase, entered, release := gate()
	s := scheduler.New(withGate(phase))
	h := s.Issue(context.Background(), "file:///a.did", request(t, "file:///a.did"))
	<-entered
	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	for {
		if _, live := s.Live("file:///a.did"); !live {
			break
		}
		runtime.Gosched()
	}
	close(release)
	<-done
	qt.Assert(t, qt.Equals(h.State(), scheduler.Cancelled))
}

func TestStateString(t *testing.T) {
	qt.Check(t, qt.Equals(scheduler.Queued.String(), "queued"))
	qt.Check(t, qt.Equals(scheduler.Cancelled.String(), "cancelled"))
	qt.Check(t, qt.Equals(scheduler.State(9).String(), "State(9)"))
}

func completions(t *testing.T, m *telemetry.Metrics, state string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	qt.Assert(t, qt.IsNil(err))
	for _, mf := range families {
		if mf.GetName() != "candidls_completion_jobs_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "state" && l.GetValue() == state {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
