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

package cache_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-quicktest/qt"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/rope"
	"candidls.dev/go/internal/telemetry"
)

const cursor = "‸"

// build analyses src, which may contain one cursor marker, and returns
// the snapshot and the byte offset of the marker.
func build(t *testing.T, src string) (*cache.Snapshot, int) {
	t.Helper()
	offset := strings.Index(src, cursor)
	src = strings.Replace(src, cursor, "", 1)
	fh := fscache.NewOverlay().Open("file:///test.did", 1, src)
	snap, err := cache.Build(context.Background(), fh)
	qt.Assert(t, qt.IsNil(err))
	return snap, offset
}

func TestBuildDiagnostics(t *testing.T) {
	snap, _ := build(t, "type A = B;\ntype C = record { a : };\n")
	diags := snap.Diagnostics()
	qt.Assert(t, qt.IsTrue(len(diags) >= 2))
	qt.Assert(t, qt.IsTrue(snap.HasErrors()))

	first := diags[0]
	qt.Check(t, qt.Equals(first.Message, "unbound type identifier B"))
	qt.Check(t, qt.Equals(*first.Source, "candid-types"))
	qt.Check(t, qt.DeepEquals(first.Range, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 9},
		End:   protocol.Position{Line: 0, Character: 10},
	}))

	var syntax bool
	for _, d := range diags[1:] {
		if *d.Source == "candid" && d.Range.Start.Line == 1 {
			syntax = true
		}
		qt.Check(t, qt.Equals(*d.Severity, protocol.DiagnosticSeverityError))
	}
	qt.Assert(t, qt.IsTrue(syntax))

	clean, _ := build(t, "type A = nat;\n")
	qt.Assert(t, qt.HasLen(clean.Diagnostics(), 0))
	qt.Assert(t, qt.IsFalse(clean.HasErrors()))
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fh := fscache.NewOverlay().Open("file:///a.did", 1, "type A = nat;")
	_, err := cache.Build(ctx, fh)
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
}

func TestOnChangePublishes(t *testing.T) {
	var published []int32
	c := cache.New(
		cache.WithMetrics(telemetry.NewMetrics()),
		cache.WithPublishHook(func(s *cache.Snapshot) { published = append(published, s.Version()) }),
	)
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///a.did")

	_, ok := c.Snapshot(uri)
	qt.Assert(t, qt.IsFalse(ok))

	fh1 := o.Open(uri, 1, "type A = nat;")
	snap1, err := c.OnChange(context.Background(), fh1)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(snap1.Version(), int32(1)))

	fh2, err := o.ApplyEdit(uri, 2, fscache.Change{Text: "type A = nat;\ntype B = A;"})
	qt.Assert(t, qt.IsNil(err))
	snap2, err := c.OnChange(context.Background(), fh2)
	qt.Assert(t, qt.IsNil(err))

	// A build for an older text is never published.
	_, err = c.OnChange(context.Background(), fh1)
	qt.Assert(t, qt.ErrorIs(err, cache.ErrSuperseded))

	current, ok := c.Snapshot(uri)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(current, snap2))
	qt.Assert(t, qt.DeepEquals(published, []int32{1, 2}))

	// The completion cache starts empty for every snapshot.
	cache.Memo(snap1, cache.CacheKey{Context: "x"}, func() int { return 1 })
	hits, misses := snap2.CacheStats()
	qt.Assert(t, qt.Equals(hits+misses, int64(0)))

	c.Drop(uri)
	_, ok = c.Snapshot(uri)
	qt.Assert(t, qt.IsFalse(ok))
	_, err = c.Await(context.Background(), uri)
	qt.Assert(t, qt.ErrorIs(err, fscache.ErrNotFound))
}

func TestAwait(t *testing.T) {
	c := cache.New()
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///a.did")

	fh1 := o.Open(uri, 1, "type A = nat;")
	_, err := c.OnChange(context.Background(), fh1)
	qt.Assert(t, qt.IsNil(err))

	fh2, err := o.ApplyEdit(uri, 2, fscache.Change{Text: "type A = int;"})
	qt.Assert(t, qt.IsNil(err))

	// Register the newer text by starting a build that cannot finish
	// before the waiter below runs.
	blocked, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.OnChange(blocked, fh2)
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))

	// The waiter must not accept the stale version 1 snapshot.
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	_, err = c.Await(short, uri)
	qt.Assert(t, qt.ErrorIs(err, context.DeadlineExceeded))

	done := make(chan *cache.Snapshot)
	go func() {
		snap, err := c.Await(context.Background(), uri)
		if err != nil {
			t.Error(err)
		}
		done <- snap
	}()
	_, err = c.OnChange(context.Background(), fh2)
	qt.Assert(t, qt.IsNil(err))
	snap := <-done
	qt.Assert(t, qt.Equals(snap.Version(), int32(2)))
}

func TestSubmit(t *testing.T) {
	c := cache.New()
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///a.did")

	results := make(chan error, 3)
	done := func(_ *cache.Snapshot, err error) { results <- err }
	c.Submit(context.Background(), o.Open(uri, 1, "type A = nat;"), done)
	fh2, err := o.ApplyEdit(uri, 2, fscache.Change{Text: "type A = int;"})
	qt.Assert(t, qt.IsNil(err))
	c.Submit(context.Background(), fh2, done)

	snap, err := c.Await(context.Background(), uri)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(snap.Version(), int32(2)))
	def, _ := snap.Table().Definition("A")
	qt.Assert(t, qt.Equals(def, "type A = int"))

	// Resubmitting the current text publishes it again.
	c.Submit(context.Background(), fh2, done)
	for range 3 {
		err := <-results
		if err != nil {
			qt.Assert(t, qt.ErrorIs(err, cache.ErrSuperseded))
		}
	}
}

// TestSnapshotAtomicity checks that readers racing with edits and builds
// only see snapshots whose syntax tree, type table and text agree.
func TestSnapshotAtomicity(t *testing.T) {
	c := cache.New()
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///race.did")
	fh := o.Open(uri, 0, "")
	_, err := c.OnChange(context.Background(), fh)
	qt.Assert(t, qt.IsNil(err))

	const edits = 200
	done := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, ok := c.Snapshot(uri)
				if !ok {
					t.Error("snapshot disappeared")
					return
				}
				text := snap.Text().String()
				n := strings.Count(text, "type ")
				if len(snap.File().Decls) != n || len(snap.Table().Names()) != n {
					t.Errorf("version %d: %d decls, %d types, text has %d",
						snap.Version(), len(snap.File().Decls), len(snap.Table().Names()), n)
					return
				}
			}
		}()
	}

	var builds sync.WaitGroup
	for v := int32(1); v <= edits; v++ {
		cur, err := o.Get(uri)
		qt.Assert(t, qt.IsNil(err))
		end := cur.Text().Position(cur.Text().Len())
		next, err := o.ApplyEdit(uri, v, fscache.Change{
			Range: &fscache.Range{Start: end, End: end},
			Text:  fmt.Sprintf("type T%d = nat;\n", v),
		})
		qt.Assert(t, qt.IsNil(err))
		builds.Add(1)
		go func() {
			defer builds.Done()
			_, err := c.OnChange(context.Background(), next)
			if err != nil && !errors.Is(err, cache.ErrSuperseded) {
				t.Error(err)
			}
		}()
	}
	builds.Wait()
	close(done)
	readers.Wait()

	snap, err := c.Await(context.Background(), uri)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(snap.Version(), int32(edits)))
	qt.Assert(t, qt.HasLen(snap.Table().Names(), edits))
}

// TestDeterminism replays the same edits twice from an empty document
// and compares the resulting snapshots.
func TestDeterminism(t *testing.T) {
	edits := []fscache.Change{
		{Text: "type A = record { a : nat };\n"},
		{
			Range: &fscache.Range{Start: rope.Position{Line: 1}, End: rope.Position{Line: 1}},
			Text:  "type B = variant { x; y : A };\nservice : { f : (B) -> () };\n",
		},
		{
			Range: &fscache.Range{Start: rope.Position{Line: 0, Character: 22}, End: rope.Position{Line: 0, Character: 25}},
			Text:  "Missing",
		},
	}
	replay := func() *cache.Snapshot {
		c := cache.New()
		o := fscache.NewOverlay()
		o.Open("file:///d.did", 0, "")
		var snap *cache.Snapshot
		for i, e := range edits {
			fh, err := o.ApplyEdit("file:///d.did", int32(i+1), e)
			qt.Assert(t, qt.IsNil(err))
			snap, err = c.OnChange(context.Background(), fh)
			qt.Assert(t, qt.IsNil(err))
		}
		return snap
	}
	a, b := replay(), replay()
	qt.Assert(t, qt.Equals(a.Text().String(), b.Text().String()))
	qt.Assert(t, qt.DeepEquals(a.Diagnostics(), b.Diagnostics()))
	qt.Assert(t, qt.Equals(a.Fingerprint(), b.Fingerprint()))
	qt.Assert(t, qt.HasLen(a.Diagnostics(), 1))

	c, _ := build(t, "type A = record { a : nat };\n")
	qt.Assert(t, qt.Not(qt.Equals(a.Fingerprint(), c.Fingerprint())))
}

func TestMemo(t *testing.T) {
	snap, _ := build(t, "type A = nat;")
	key := cache.CacheKey{Context: "record-fields", Scope: "A"}
	calls := 0
	f := func() []string {
		calls++
		return []string{"a"}
	}
	qt.Assert(t, qt.DeepEquals(cache.Memo(snap, key, f), []string{"a"}))
	qt.Assert(t, qt.DeepEquals(cache.Memo(snap, key, f), []string{"a"}))
	cache.Memo(snap, cache.CacheKey{Context: "record-fields", Scope: "B"}, f)
	qt.Assert(t, qt.Equals(calls, 2))
	hits, misses := snap.CacheStats()
	qt.Assert(t, qt.Equals(hits, int64(1)))
	qt.Assert(t, qt.Equals(misses, int64(2)))
}

type symbol struct {
	Name     string
	Kind     protocol.SymbolKind
	Children []symbol
}

func simplify(syms []protocol.DocumentSymbol) []symbol {
	var out []symbol
	for _, s := range syms {
		out = append(out, symbol{s.Name, s.Kind, simplify(s.Children)})
	}
	return out
}

func TestDocumentSymbols(t *testing.T) {
	snap, _ := build(t, `type Person = record { name : text; age : nat };
type Result = variant { ok : Person; err : text };
type Id = nat;
service : { greet : (Person) -> (text) query };
`)
	got := simplify(snap.DocumentSymbols())
	want := []symbol{
		{"Person", protocol.SymbolKindStruct, []symbol{
			{"name", protocol.SymbolKindField, nil},
			{"age", protocol.SymbolKindField, nil},
		}},
		{"Result", protocol.SymbolKindEnum, []symbol{
			{"ok", protocol.SymbolKindEnumMember, nil},
			{"err", protocol.SymbolKindEnumMember, nil},
		}},
		{"Id", protocol.SymbolKindTypeParameter, nil},
		{"service", protocol.SymbolKindInterface, []symbol{
			{"greet", protocol.SymbolKindMethod, nil},
		}},
	}
	qt.Assert(t, qt.DeepEquals(got, want))

	greet := snap.DocumentSymbols()[3].Children[0]
	qt.Assert(t, qt.Equals(greet.SelectionRange.Start, protocol.Position{Line: 3, Character: 12}))
}

const hoverSrc = `// A person.
type Person = record { name : text; age : nat };
service : {
  // Says hello.
  greet : (Pers‸on) -> (text) query;
};
`

func TestHover(t *testing.T) {
	snap, offset := build(t, hoverSrc)
	h, ok := snap.Hover(offset)
	qt.Assert(t, qt.IsTrue(ok))
	content := h.Contents.(protocol.MarkupContent)
	qt.Assert(t, qt.Equals(content.Kind, protocol.MarkupKindMarkdown))
	qt.Assert(t, qt.Equals(content.Value,
		"```candid\ntype Person = record { age : nat; name : text }\n```\n\nA person."))

	src := strings.Replace(hoverSrc, cursor, "", 1)

	h, ok = snap.Hover(strings.Index(src, "greet"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(h.Contents.(protocol.MarkupContent).Value,
		"```candid\ngreet : (Person) -> (text) query\n```\n\nSays hello."))

	h, ok = snap.Hover(strings.Index(src, "nat"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.StringContains(h.Contents.(protocol.MarkupContent).Value, "Unbounded natural number."))

	h, ok = snap.Hover(strings.Index(src, "age"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.StringContains(h.Contents.(protocol.MarkupContent).Value, "age : nat"))

	h, ok = snap.Hover(strings.Index(src, "service") + 2)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.StringContains(h.Contents.(protocol.MarkupContent).Value, "```candid\nservice\n```\n\nService type."))
	start := strings.Index(src, "service")
	qt.Assert(t, qt.DeepEquals(*h.Range, snap.Range(start, start+len("service"))))

	_, ok = snap.Hover(strings.Index(src, "};"))
	qt.Assert(t, qt.IsFalse(ok))
}

func TestHoverKeywords(t *testing.T) {
	src := `// record in a comment
type F = func (opt nat, vec principal) -> () oneway;
type R = variant { a : record {} };
service : { q : () -> () query; c : () -> () composite_query };
`
	snap, _ := build(t, src)
	for _, kw := range []string{
		"func", "opt", "principal", "record {", "service", "type", "variant", "vec", "oneway", "query;", "composite_query",
	} {
		name := strings.TrimRight(kw, " {;")
		at := strings.Index(src, kw)
		h, ok := snap.Hover(at + 1)
		qt.Assert(t, qt.IsTrue(ok), qt.Commentf("%s", name))
		qt.Check(t, qt.StringContains(h.Contents.(protocol.MarkupContent).Value, "```candid\n"+name+"\n```\n\n"))
		qt.Check(t, qt.DeepEquals(*h.Range, snap.Range(at, at+len(name))))
	}

	// Keywords inside comments are not described.
	_, ok := snap.Hover(strings.Index(src, "record") + 1)
	qt.Assert(t, qt.IsFalse(ok))
}

func TestDefinition(t *testing.T) {
	snap, offset := build(t, hoverSrc)
	span, ok := snap.Definition(offset)
	qt.Assert(t, qt.IsTrue(ok))
	src := strings.Replace(hoverSrc, cursor, "", 1)
	qt.Assert(t, qt.Equals(src[span.Start:span.End], "Person"))
	qt.Assert(t, qt.Equals(span.Start, strings.Index(src, "Person")))

	_, ok = snap.Definition(strings.Index(src, "text"))
	qt.Assert(t, qt.IsFalse(ok))
}

func TestInComment(t *testing.T) {
	src := "type A = /* c */ nat; // line\ntype B = text; /* open"
	snap, _ := build(t, src)
	block := strings.Index(src, "/*")
	line := strings.Index(src, "//")
	open := strings.LastIndex(src, "/*")

	testCases := []struct {
		offset int
		want   bool
	}{
		{block, false},
		{block + 1, true},
		{block + len("/* c *"), true},
		{block + len("/* c */"), false},
		{line, false},
		{line + 2, true},
		{line + len("// line"), true},
		{line + len("// line\n"), false},
		{open + 2, true},
		{len(src), true},
	}
	for _, tc := range testCases {
		qt.Check(t, qt.Equals(snap.InComment(tc.offset), tc.want), qt.Commentf("offset %d", tc.offset))
	}
}
