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

// Package rope implements an immutable text buffer with logarithmic splice.
//
// A Rope is a height-balanced binary tree whose leaves hold short chunks of
// text. Every edit returns a new Rope that shares unchanged subtrees with
// the old one, so a published Rope can be read concurrently without locks
// while edits produce its successor.
package rope

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	// maxLeaf is the largest chunk stored in one leaf.
	maxLeaf = 1024
	// minMerge is the size below which neighbouring leaves are merged.
	minMerge = maxLeaf / 2
)

type node struct {
	text        string // leaves only
	left, right *node
	length      int // bytes
	newlines    int
	height      int
}

func (n *node) isLeaf() bool { return n.left == nil }

func leaf(s string) *node {
	return &node{text: s, length: len(s), newlines: strings.Count(s, "\n"), height: 1}
}

func inner(l, r *node) *node {
	h := l.height
	if r.height > h {
		h = r.height
	}
	return &node{
		left:     l,
		right:    r,
		length:   l.length + r.length,
		newlines: l.newlines + r.newlines,
		height:   h + 1,
	}
}

// Rope is an immutable sequence of bytes. The zero value is an empty rope.
type Rope struct {
	root *node
}

// New returns an empty rope.
func New() Rope { return Rope{} }

// FromString returns a rope holding s.
func FromString(s string) Rope {
	if s == "" {
		return Rope{}
	}
	return Rope{root: build(s)}
}

// build creates a perfectly balanced tree over s.
func build(s string) *node {
	if len(s) <= maxLeaf {
		return leaf(s)
	}
	mid := len(s) / 2
	return inner(build(s[:mid]), build(s[mid:]))
}

// Len returns the length of the rope in bytes.
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.length
}

// LineCount returns the number of lines. An empty rope has one line.
func (r Rope) LineCount() int {
	if r.root == nil {
		return 1
	}
	return r.root.newlines + 1
}

// String returns the full text.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var b strings.Builder
	b.Grow(r.root.length)
	r.root.writeTo(&b)
	return b.String()
}

func (n *node) writeTo(b *strings.Builder) {
	if n.isLeaf() {
		b.WriteString(n.text)
		return
	}
	n.left.writeTo(b)
	n.right.writeTo(b)
}

// Slice returns the text in [start, end). Offsets are clamped to the rope.
func (r Rope) Slice(start, end int) string {
	start, end = r.clamp(start), r.clamp(end)
	if r.root == nil || start >= end {
		return ""
	}
	var b strings.Builder
	b.Grow(end - start)
	r.root.slice(&b, start, end)
	return b.String()
}

func (n *node) slice(b *strings.Builder, start, end int) {
	if n.isLeaf() {
		b.WriteString(n.text[start:end])
		return
	}
	if start < n.left.length {
		n.left.slice(b, start, min(end, n.left.length))
	}
	if end > n.left.length {
		n.right.slice(b, max(start-n.left.length, 0), end-n.left.length)
	}
}

func (r Rope) clamp(off int) int {
	if off < 0 {
		return 0
	}
	if n := r.Len(); off > n {
		return n
	}
	return off
}

// Insert returns a rope with s inserted at offset.
func (r Rope) Insert(offset int, s string) Rope {
	return r.Replace(offset, offset, s)
}

// Delete returns a rope with the bytes in [start, end) removed.
func (r Rope) Delete(start, end int) Rope {
	return r.Replace(start, end, "")
}

// Replace returns a rope with the bytes in [start, end) replaced by s.
// The cost is proportional to len(s) plus the logarithm of the rope size.
func (r Rope) Replace(start, end int, s string) Rope {
	start, end = r.clamp(start), r.clamp(end)
	if end < start {
		start, end = end, start
	}
	left, rest := split(r.root, start)
	_, right := split(rest, end-start)
	var mid *node
	if s != "" {
		mid = build(s)
	}
	return Rope{root: join(join(left, mid), right)}
}

// split divides n at offset into two trees.
func split(n *node, offset int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if offset <= 0 {
		return nil, n
	}
	if offset >= n.length {
		return n, nil
	}
	if n.isLeaf() {
		return leaf(n.text[:offset]), leaf(n.text[offset:])
	}
	if offset < n.left.length {
		a, b := split(n.left, offset)
		return a, join(b, n.right)
	}
	a, b := split(n.right, offset-n.left.length)
	return join(n.left, a), b
}

// join concatenates two trees, restoring balance along the seam.
func join(l, r *node) *node {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.isLeaf() && r.isLeaf() && l.length+r.length <= minMerge:
		return leaf(l.text + r.text)
	case l.height > r.height+1:
		return rebalance(inner(l.left, join(l.right, r)))
	case r.height > l.height+1:
		return rebalance(inner(join(l, r.left), r.right))
	}
	return inner(l, r)
}

func rebalance(n *node) *node {
	if n.isLeaf() {
		return n
	}
	switch d := n.left.height - n.right.height; {
	case d > 1:
		l := n.left
		if l.right.height > l.left.height {
			l = rotateLeft(l)
		}
		return rotateRight(inner(l, n.right))
	case d < -1:
		r := n.right
		if r.left.height > r.right.height {
			r = rotateRight(r)
		}
		return rotateLeft(inner(n.left, r))
	}
	return n
}

func rotateRight(n *node) *node {
	l := n.left
	return inner(l.left, inner(l.right, n.right))
}

func rotateLeft(n *node) *node {
	r := n.right
	return inner(inner(n.left, r.left), r.right)
}

// LineStart returns the byte offset of the first byte of the given
// zero-based line. Lines past the end map to the rope length.
func (r Rope) LineStart(line int) int {
	if line <= 0 || r.root == nil {
		return 0
	}
	if line > r.root.newlines {
		return r.root.length
	}
	return r.root.lineStart(line)
}

// lineStart returns the offset just after the line-th newline of n.
func (n *node) lineStart(line int) int {
	if n.isLeaf() {
		off := 0
		for i := 0; i < line; i++ {
			off += strings.IndexByte(n.text[off:], '\n') + 1
		}
		return off
	}
	if line <= n.left.newlines {
		return n.left.lineStart(line)
	}
	return n.left.length + n.right.lineStart(line-n.left.newlines)
}

// LineOf returns the zero-based line containing offset.
func (r Rope) LineOf(offset int) int {
	offset = r.clamp(offset)
	if r.root == nil {
		return 0
	}
	return r.root.newlinesBefore(offset)
}

func (n *node) newlinesBefore(offset int) int {
	if n.isLeaf() {
		return strings.Count(n.text[:offset], "\n")
	}
	if offset <= n.left.length {
		return n.left.newlinesBefore(offset)
	}
	return n.left.newlines + n.right.newlinesBefore(offset-n.left.length)
}

// Line returns the text of a zero-based line without its line terminator.
func (r Rope) Line(line int) string {
	start := r.LineStart(line)
	end := r.Len()
	if line+1 < r.LineCount() {
		end = r.LineStart(line+1) - 1
	}
	return strings.TrimSuffix(r.Slice(start, end), "\r")
}

// A Position is a zero-based line and a column counted in UTF-16 code
// units, as used by the Language Server Protocol.
type Position struct {
	Line, Character int
}

// Offset converts an LSP position to a byte offset. Positions past the
// end of a line map to the end of that line.
func (r Rope) Offset(p Position) int {
	if p.Line >= r.LineCount() {
		return r.Len()
	}
	start := r.LineStart(p.Line)
	text := r.Line(p.Line)
	units := 0
	for i, c := range text {
		if units >= p.Character {
			return start + i
		}
		if n := utf16.RuneLen(c); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return start + len(text)
}

// Position converts a byte offset to an LSP position.
func (r Rope) Position(offset int) Position {
	offset = r.clamp(offset)
	line := r.LineOf(offset)
	start := r.LineStart(line)
	prefix := r.Slice(start, offset)
	units := 0
	for len(prefix) > 0 {
		c, size := utf8.DecodeRuneInString(prefix)
		prefix = prefix[size:]
		if n := utf16.RuneLen(c); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return Position{Line: line, Character: units}
}

// height reports the tree height, for tests.
func (r Rope) height() int {
	if r.root == nil {
		return 0
	}
	return r.root.height
}
