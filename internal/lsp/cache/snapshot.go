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

package cache

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/zeebo/xxh3"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/token"
	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/fscache"
	"candidls.dev/go/internal/lsp/rangeset"
	"candidls.dev/go/internal/lsp/rope"
)

// A Snapshot is the analysis of one version of a document: its syntax
// tree, type table and diagnostics. A Snapshot is immutable once
// published and is shared by every request against that version.
type Snapshot struct {
	handle fscache.FileHandle
	file   *ast.File
	table  *types.Table
	diags  []protocol.Diagnostic

	fingerprint xxh3.Uint128

	symbolsOnce sync.Once
	symbols     []protocol.DocumentSymbol

	commentsOnce sync.Once
	comments     rangeset.RangeSet

	completions completionCache
}

// Build parses and resolves the document held by fh. It checks ctx
// between phases and returns ctx.Err() if the build was cancelled.
func Build(ctx context.Context, fh fscache.FileHandle) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, syntaxErrs := fh.ReadCandid()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, typeErrs := types.Resolve(f)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Snapshot{
		handle: fh,
		file:   f,
		table:  table,
	}
	diags := []protocol.Diagnostic{}
	diags = s.errorsToDiagnostics(syntaxSource, syntaxErrs, diags)
	diags = s.errorsToDiagnostics(typeSource, typeErrs, diags)
	s.diags = sortDiagnostics(diags)
	s.fingerprint = s.computeFingerprint()
	return s, nil
}

// degraded returns the snapshot published when a build failed
// unexpectedly: the text is kept, the analysis is empty.
func degraded(fh fscache.FileHandle, fault any) *Snapshot {
	tf := token.NewFile(fh.URI().Path(), fh.Text().Len())
	s := &Snapshot{
		handle: fh,
		file:   ast.NewFile(tf),
		table:  types.NewTable(),
	}
	severity := protocol.DiagnosticSeverityError
	source := "candidls"
	s.diags = []protocol.Diagnostic{{
		Range:    s.Range(0, 0),
		Severity: &severity,
		Source:   &source,
		Message:  fmt.Sprintf("internal error: %v", fault),
	}}
	s.fingerprint = s.computeFingerprint()
	return s
}

// URI returns the document URI.
func (s *Snapshot) URI() fscache.URI { return s.handle.URI() }

// Version returns the client version of the analysed text.
func (s *Snapshot) Version() int32 { return s.handle.Version() }

// Seq returns the store sequence number of the analysed text.
func (s *Snapshot) Seq() uint64 { return s.handle.Seq() }

// Handle returns the analysed document snapshot.
func (s *Snapshot) Handle() fscache.FileHandle { return s.handle }

// Text returns the analysed text.
func (s *Snapshot) Text() rope.Rope { return s.handle.Text() }

// File returns the syntax tree. It may contain Bad* nodes.
func (s *Snapshot) File() *ast.File { return s.file }

// Table returns the resolved types.
func (s *Snapshot) Table() *types.Table { return s.table }

// Diagnostics returns the syntax and type diagnostics sorted by position.
// The result must not be modified.
func (s *Snapshot) Diagnostics() []protocol.Diagnostic { return s.diags }

// HasErrors reports whether any diagnostic has error severity.
func (s *Snapshot) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity != nil && *d.Severity == protocol.DiagnosticSeverityError {
			return true
		}
	}
	return false
}

// Fingerprint returns a 128-bit hash of the snapshot content: the text,
// the diagnostics and the resolved definitions. Equal inputs give equal
// fingerprints.
func (s *Snapshot) Fingerprint() [16]byte { return s.fingerprint.Bytes() }

func (s *Snapshot) computeFingerprint() xxh3.Uint128 {
	h := xxh3.New()
	io.WriteString(h, s.handle.Content())
	for _, d := range s.diags {
		fmt.Fprintf(h, "\x00%d:%d-%d:%d %s", d.Range.Start.Line, d.Range.Start.Character,
			d.Range.End.Line, d.Range.End.Character, d.Message)
	}
	for _, name := range s.table.Names() {
		def, _ := s.table.Definition(name)
		io.WriteString(h, "\x00")
		io.WriteString(h, def)
	}
	return h.Sum128()
}

// Offset converts an LSP position to a byte offset in the text.
func (s *Snapshot) Offset(p protocol.Position) int {
	return s.Text().Offset(rope.Position{Line: int(p.Line), Character: int(p.Character)})
}

// Position converts a byte offset to an LSP position.
func (s *Snapshot) Position(offset int) protocol.Position {
	p := s.Text().Position(offset)
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

// Range converts a byte span to an LSP range.
func (s *Snapshot) Range(start, end int) protocol.Range {
	return protocol.Range{Start: s.Position(start), End: s.Position(end)}
}

// LineCount returns the number of lines of the text.
func (s *Snapshot) LineCount() int { return s.Text().LineCount() }

// Len returns the length of the text in bytes.
func (s *Snapshot) Len() int { return s.Text().Len() }

// InComment reports whether offset lies inside a comment. The offset
// right after a line comment, or after an unterminated block comment,
// still counts as inside it; the offset right after "*/" does not.
func (s *Snapshot) InComment(offset int) bool {
	s.commentsOnce.Do(func() {
		text := s.Text()
		for _, c := range s.file.Comments {
			end := c.End
			body := text.Slice(c.Start, c.End)
			if strings.HasPrefix(body, "//") || !strings.HasSuffix(body, "*/") {
				end++
			}
			s.comments.Add(c.Start+1, end)
		}
	})
	return s.comments.Contains(offset)
}

const (
	syntaxSource = "candid"
	typeSource   = "candid-types"
)

// errorsToDiagnostics converts positional errors to diagnostics and
// appends them to acc. Errors that carry an end position keep their
// range; the others are widened to the smallest enclosing token.
func (s *Snapshot) errorsToDiagnostics(source string, errs errors.List, acc []protocol.Diagnostic) []protocol.Diagnostic {
	for _, e := range errs {
		pos := e.Position()
		if !pos.IsValid() {
			continue
		}
		start, end := pos.Offset(), e.End().Offset()
		if !e.End().IsValid() || end <= start {
			start, end = s.tokenRangeOffsets(start)
		}
		severity := protocol.DiagnosticSeverityError
		src := source
		acc = append(acc, protocol.Diagnostic{
			Range:    s.Range(start, end),
			Severity: &severity,
			Source:   &src,
			Message:  e.Error(),
		})
	}
	return acc
}

// tokenRangeOffsets searches through the file's AST for the range of
// the smallest node which contains the offset. Parser errors may point
// past any node, for example at the end of an unterminated declaration.
// In this case the range of the first node beyond offset is returned.
// Failing that, the empty range at offset is returned.
func (s *Snapshot) tokenRangeOffsets(offset int) (start, end int) {
	start, end = offset, offset
	size := s.Len()
	closestStart, closestEnd := size+1, size+1
	best := size + 1
	ast.Walk(s.file, func(n ast.Node) bool {
		if n == ast.Node(s.file) {
			return true
		}
		if !n.Pos().IsValid() || !n.End().IsValid() {
			return true
		}
		nodeStart, nodeEnd := n.Pos().Offset(), n.End().Offset()
		if nodeStart > offset && nodeStart < closestStart {
			closestStart, closestEnd = nodeStart, nodeEnd
		}
		if nodeStart <= offset && offset < nodeEnd {
			if nodeEnd-nodeStart < best {
				best = nodeEnd - nodeStart
				start, end = nodeStart, nodeEnd
			}
			return true
		}
		return false
	}, nil)

	if best > size && closestStart <= size && closestStart < closestEnd {
		return closestStart, closestEnd
	}
	return start, end
}

func sortDiagnostics(diags []protocol.Diagnostic) []protocol.Diagnostic {
	slices.SortStableFunc(diags, func(a, b protocol.Diagnostic) int {
		if c := cmp.Compare(a.Range.Start.Line, b.Range.Start.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.Range.Start.Character, b.Range.Start.Character)
	})
	return diags
}
