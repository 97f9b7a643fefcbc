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

package token

import (
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Positions

// Position describes an arbitrary and printable source position within a file,
// including offset, line, and column location.
//
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string // filename, if any
	Offset   int    // offset, starting at 0
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a human-readable form of a position in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a compact encoding of a source position: a file and a byte
// offset into it. The zero value is [NoPos].
type Pos struct {
	file   *File
	offset int // 1-based so that the zero Pos is distinguishable from offset 0
}

// NoPos is the zero value for [Pos]; there is no file and line information
// associated with it, and [Pos.IsValid] is false.
var NoPos = Pos{}

// File returns the file that contains p or nil for [NoPos].
func (p Pos) File() *File { return p.file }

// IsValid reports whether p refers to a file offset.
func (p Pos) IsValid() bool { return p.offset > 0 }

// Offset reports the byte offset relative to the file.
func (p Pos) Offset() int {
	if p.offset == 0 {
		return 0
	}
	return p.offset - 1
}

// Add creates a new position relative to the p offset by n.
func (p Pos) Add(n int) Pos {
	if !p.IsValid() {
		return p
	}
	return Pos{p.file, p.offset + n}
}

// Line returns the position's line number, starting at 1.
func (p Pos) Line() int { return p.Position().Line }

// Column returns the position's column number counting in bytes,
// starting at 1.
func (p Pos) Column() int { return p.Position().Column }

// Filename returns the name of the file that this position belongs to.
func (p Pos) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.name
}

// Position unpacks the position information into a flat struct.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p)
}

// String returns a human-readable form of a printable position.
func (p Pos) String() string {
	return p.Position().String()
}

// Compare returns an integer comparing two positions. The result will be 0 if p == p2,
// -1 if p < p2, and +1 if p > p2. NoPos is larger than any valid position.
func (p Pos) Compare(p2 Pos) int {
	switch {
	case p == p2:
		return 0
	case p == NoPos:
		return +1
	case p2 == NoPos:
		return -1
	case p.offset < p2.offset:
		return -1
	case p.offset > p2.offset:
		return +1
	}
	return 0
}

// -----------------------------------------------------------------------------
// File

// A File has a name, size, and line offset table. A File is immutable once
// the scanner has finished with it.
type File struct {
	name string
	size int

	// lines contains the offset of the first character for each line
	// (the first entry is always 0)
	lines []int
}

// NewFile returns a new file with the given name and content size.
func NewFile(filename string, size int) *File {
	return &File{name: filename, size: size, lines: []int{0}}
}

// Name returns the file name of file f as registered with NewFile.
func (f *File) Name() string { return f.name }

// Size returns the size of file f as passed to NewFile.
func (f *File) Size() int { return f.size }

// LineCount returns the number of lines in file f.
func (f *File) LineCount() int { return len(f.lines) }

// AddLine adds the line offset for a new line.
// The line offset must be larger than the offset for the previous line
// and not larger than the file size; otherwise the line offset is ignored.
func (f *File) AddLine(offset int) {
	if i := len(f.lines); (i == 0 || f.lines[i-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// SetLinesForContent sets the line offsets for the given file content.
func (f *File) SetLinesForContent(content []byte) {
	lines := []int{0}
	for offset, b := range content {
		if b == '\n' && offset+1 <= len(content) {
			lines = append(lines, offset+1)
		}
	}
	f.lines = lines
}

// Pos returns the Pos value for the given file offset. Offsets outside
// the file are clamped to its bounds.
func (f *File) Pos(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > f.size {
		offset = f.size
	}
	return Pos{f, offset + 1}
}

// Offset returns the offset for the given file position p.
func (f *File) Offset(p Pos) int {
	return p.Offset()
}

// LineStart returns the offset of the first byte of the given 1-based line.
func (f *File) LineStart(line int) int {
	if line < 1 {
		return 0
	}
	if line > len(f.lines) {
		return f.size
	}
	return f.lines[line-1]
}

// Position returns the Position value for the given file position p.
func (f *File) Position(p Pos) (pos Position) {
	if p == NoPos {
		return pos
	}
	offset := p.Offset()
	pos.Filename = f.name
	pos.Offset = offset
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i >= 0 {
		pos.Line, pos.Column = i+1, offset-f.lines[i]+1
	}
	return pos
}

// Span is a half-open byte range [Start, End) within a file.
type Span struct {
	Start, End int
}

// Contains reports whether offset lies within s. The end offset is
// included so that a cursor placed right after a node still touches it.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int { return s.End - s.Start }
