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

package fscache_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/rope"
)

const fileContentGood = "type T = record { a : nat };\n"
const fileContentBad = "type T = record { a : };\n"

func TestOverlayOpenGetClose(t *testing.T) {
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///a.did")

	_, err := o.Get(uri)
	qt.Assert(t, qt.IsTrue(errors.Is(err, fscache.ErrNotFound)))

	fh := o.Open(uri, 1, fileContentGood)
	qt.Assert(t, qt.Equals(fh.Version(), int32(1)))
	qt.Assert(t, qt.Equals(fh.Content(), fileContentGood))

	got, err := o.Get(uri)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, fh))
	qt.Assert(t, qt.DeepEquals(o.URIs(), []fscache.URI{uri}))

	o.Close(uri)
	_, err = o.Get(uri)
	qt.Assert(t, qt.IsTrue(errors.Is(err, fscache.ErrNotFound)))
	qt.Assert(t, qt.HasLen(o.URIs(), 0))

	// Closing twice is harmless.
	o.Close(uri)
}

func TestOverlayApplyEdit(t *testing.T) {
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///a.did")

	_, err := o.ApplyEdit(uri, 2, fscache.Change{Text: "x"})
	qt.Assert(t, qt.IsTrue(errors.Is(err, fscache.ErrNotFound)))

	first := o.Open(uri, 1, "type A = nat;\n")
	second, err := o.ApplyEdit(uri, 2,
		fscache.Change{
			Range: &fscache.Range{
				Start: rope.Position{Line: 0, Character: 9},
				End:   rope.Position{Line: 0, Character: 12},
			},
			Text: "text",
		},
		fscache.Change{
			Range: &fscache.Range{
				Start: rope.Position{Line: 1, Character: 0},
				End:   rope.Position{Line: 1, Character: 0},
			},
			Text: "type B = A;\n",
		},
	)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(second.Content(), "type A = text;\ntype B = A;\n"))
	qt.Assert(t, qt.Equals(second.Version(), int32(2)))
	qt.Assert(t, qt.IsTrue(second.Seq() > first.Seq()))

	// The previous snapshot is untouched.
	qt.Assert(t, qt.Equals(first.Content(), "type A = nat;\n"))

	third, err := o.ApplyEdit(uri, 3, fscache.Change{Text: "type C = int;"})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(third.Content(), "type C = int;"))
}

func TestReadCandid(t *testing.T) {
	o := fscache.NewOverlay()

	good := o.Open("file:///good.did", 1, fileContentGood)
	f, errs := good.ReadCandid()
	qt.Assert(t, qt.HasLen(errs, 0))
	qt.Assert(t, qt.HasLen(f.Decls, 1))

	// The parse result is shared.
	f2, _ := good.ReadCandid()
	qt.Assert(t, qt.Equals(f2, f))

	bad := o.Open("file:///bad.did", 1, fileContentBad)
	f, errs = bad.ReadCandid()
	qt.Assert(t, qt.IsNotNil(f))
	qt.Assert(t, qt.Not(qt.HasLen(errs, 0)))
	fAgain, errsAgain := bad.ReadCandid()
	qt.Assert(t, qt.Equals(fAgain, f))
	qt.Assert(t, qt.HasLen(errsAgain, len(errs)))
	for i, err := range errsAgain {
		qt.Check(t, qt.Equals(err.Error(), errs[i].Error()))
	}
}

// TestOverlayConcurrentReaders checks that readers racing with writers
// only ever see complete snapshots. Every edit appends one byte and bumps
// the version, so a complete snapshot has as many bytes as its version.
func TestOverlayConcurrentReaders(t *testing.T) {
	o := fscache.NewOverlay()
	uri := fscache.URI("file:///race.did")
	o.Open(uri, 0, "")

	const edits = 500
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				fh, err := o.Get(uri)
				if err != nil {
					t.Error(err)
					return
				}
				if got, want := len(fh.Content()), int(fh.Version()); got != want {
					t.Errorf("snapshot version %d has %d bytes", want, got)
					return
				}
			}
		}()
	}
	for v := int32(1); v <= edits; v++ {
		fh, err := o.Get(uri)
		qt.Assert(t, qt.IsNil(err))
		end := fh.Text().Position(fh.Text().Len())
		_, err = o.ApplyEdit(uri, v, fscache.Change{
			Range: &fscache.Range{Start: end, End: end},
			Text:  "x",
		})
		qt.Assert(t, qt.IsNil(err))
	}
	close(done)
	wg.Wait()

	fh, err := o.Get(uri)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(fh.Content(), strings.Repeat("x", edits)))
}

func TestDiskFS(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.did")
	bad := filepath.Join(dir, "bad.did")
	qt.Assert(t, qt.IsNil(os.WriteFile(good, []byte(fileContentGood), 0o666)))
	qt.Assert(t, qt.IsNil(os.WriteFile(bad, []byte(fileContentBad), 0o666)))

	fs := fscache.NewDiskFS()
	fh, err := fs.ReadFile(good)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(fh.Content(), fileContentGood))
	qt.Assert(t, qt.Equals(fh.Version(), int32(0)))
	qt.Assert(t, qt.Equals(fh.URI().Path(), good))
	_, errs := fh.ReadCandid()
	qt.Assert(t, qt.HasLen(errs, 0))

	again, err := fs.ReadFile(good)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(again, fh))

	// A changed file is read again.
	later := time.Now().Add(time.Hour)
	qt.Assert(t, qt.IsNil(os.WriteFile(good, []byte(fileContentBad), 0o666)))
	qt.Assert(t, qt.IsNil(os.Chtimes(good, later, later)))
	changed, err := fs.ReadFile(good)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(changed.Content(), fileContentBad))
	qt.Assert(t, qt.IsTrue(changed.Seq() > fh.Seq()))

	fh, err = fs.ReadFile(bad)
	qt.Assert(t, qt.IsNil(err))
	_, errs = fh.ReadCandid()
	qt.Assert(t, qt.Not(qt.HasLen(errs, 0)))

	_, err = fs.ReadFile(dir)
	qt.Assert(t, qt.ErrorMatches(err, ".* is a directory"))
	_, err = fs.ReadFile(filepath.Join(dir, "missing.did"))
	qt.Assert(t, qt.IsTrue(errors.Is(err, os.ErrNotExist)))
}
