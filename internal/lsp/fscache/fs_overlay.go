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

package fscache

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"candidls.dev/go/internal/lsp/rope"
)

// A Range is a span of a document in LSP coordinates.
type Range struct {
	Start, End rope.Position
}

// A Change is an edit sent by the client. A nil Range replaces the whole
// document.
type Change struct {
	Range *Range
	Text  string
}

// overlayCell owns the current snapshot of one open document. The pointer
// is only ever replaced, so readers load it without locking. Writers of
// one document are serialised by mu.
type overlayCell struct {
	mu      sync.Mutex
	current atomic.Pointer[fileEntry]
}

// Overlay holds the documents opened by the client. Each document has
// exactly one current snapshot, which edits replace atomically: a reader
// sees either the snapshot before an edit or the one after it in full.
type Overlay struct {
	cells sync.Map // URI -> *overlayCell
	seq   atomic.Uint64
}

// NewOverlay returns an empty Overlay.
func NewOverlay() *Overlay { return &Overlay{} }

// Open records the initial text of a document, replacing any snapshot
// that was already present for uri.
func (o *Overlay) Open(uri URI, version int32, text string) FileHandle {
	v, _ := o.cells.LoadOrStore(uri, &overlayCell{})
	cell := v.(*overlayCell)
	cell.mu.Lock()
	defer cell.mu.Unlock()
	entry := &fileEntry{
		uri:     uri,
		version: version,
		seq:     o.seq.Add(1),
		text:    rope.FromString(text),
	}
	cell.current.Store(entry)
	return entry
}

// Get returns the current snapshot of uri.
func (o *Overlay) Get(uri URI) (FileHandle, error) {
	v, ok := o.cells.Load(uri)
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	entry := v.(*overlayCell).current.Load()
	if entry == nil {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return entry, nil
}

// ApplyEdit applies changes, in order, to the current snapshot of uri and
// publishes the result as the new current snapshot. Each change costs time
// proportional to its size plus the logarithm of the document size.
func (o *Overlay) ApplyEdit(uri URI, version int32, changes ...Change) (FileHandle, error) {
	v, ok := o.cells.Load(uri)
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	cell := v.(*overlayCell)
	cell.mu.Lock()
	defer cell.mu.Unlock()

	prev := cell.current.Load()
	if prev == nil {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	text := prev.text
	for _, c := range changes {
		text = applyChange(text, c)
	}
	entry := &fileEntry{
		uri:     uri,
		version: version,
		seq:     o.seq.Add(1),
		text:    text,
	}
	cell.current.Store(entry)
	return entry, nil
}

func applyChange(text rope.Rope, c Change) rope.Rope {
	if c.Range == nil {
		return rope.FromString(c.Text)
	}
	start := text.Offset(c.Range.Start)
	end := text.Offset(c.Range.End)
	return text.Replace(start, end, c.Text)
}

// Close drops the document. Closing an unknown document is a no-op.
func (o *Overlay) Close(uri URI) {
	v, ok := o.cells.LoadAndDelete(uri)
	if !ok {
		return
	}
	cell := v.(*overlayCell)
	cell.mu.Lock()
	cell.current.Store(nil)
	cell.mu.Unlock()
}

// URIs returns the open documents in sorted order.
func (o *Overlay) URIs() []URI {
	var uris []URI
	o.cells.Range(func(k, _ any) bool {
		uris = append(uris, k.(URI))
		return true
	})
	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })
	return uris
}
