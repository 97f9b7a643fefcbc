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

// Package fscache holds the text of the documents a language server works
// on: documents opened by the client, kept in an [Overlay], and files read
// from disk through a [DiskFS].
package fscache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"candidls.dev/go/candid/ast"
	cerrors "candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/parser"
	"candidls.dev/go/internal/lsp/rope"
)

// URI is a document URI as sent by the client.
type URI string

// Path returns the file system path of a file: URI, or the URI itself for
// other schemes.
func (u URI) Path() string {
	s := string(u)
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	if p, err := url.PathUnescape(strings.TrimPrefix(s, "file://")); err == nil {
		return filepath.FromSlash(p)
	}
	return strings.TrimPrefix(s, "file://")
}

// URIFromPath returns the file: URI for a file system path.
func URIFromPath(path string) URI {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return URI("file://" + filepath.ToSlash(path))
}

// ErrNotFound is returned for documents that are not known.
var ErrNotFound = errors.New("document not found")

// A FileHandle is an immutable snapshot of a document: its URI, text and
// optional version.
//
// FileHandle content may be provided by the file system or from an
// overlay, for open files.
type FileHandle interface {
	// URI is the URI for this file handle.
	URI() URI
	// Version returns the file version, as defined by the LSP client, or
	// zero for files read from disk.
	Version() int32
	// Seq returns a number that increases with every snapshot produced
	// by the same store. It orders snapshots of one document even when
	// the client does not send versions.
	Seq() uint64
	// Text returns the document text.
	Text() rope.Rope
	// Content returns the document text as a string.
	Content() string
	// ReadCandid parses the content. The result is computed once and
	// shared by all callers.
	ReadCandid() (*ast.File, cerrors.List)
}

// fileEntry is the FileHandle implementation shared by the overlay and
// the disk cache.
type fileEntry struct {
	uri     URI
	version int32
	seq     uint64
	text    rope.Rope

	once   sync.Once
	syntax *ast.File
	errs   cerrors.List
}

var _ FileHandle = (*fileEntry)(nil)

// URI implements [FileHandle]
func (entry *fileEntry) URI() URI { return entry.uri }

// Version implements [FileHandle]
func (entry *fileEntry) Version() int32 { return entry.version }

// Seq implements [FileHandle]
func (entry *fileEntry) Seq() uint64 { return entry.seq }

// Text implements [FileHandle]
func (entry *fileEntry) Text() rope.Rope { return entry.text }

// Content implements [FileHandle]
func (entry *fileEntry) Content() string { return entry.text.String() }

// ReadCandid implements [FileHandle]
func (entry *fileEntry) ReadCandid() (*ast.File, cerrors.List) {
	entry.once.Do(func() {
		f, err := parser.ParseFile(entry.uri.Path(), entry.text.String())
		entry.syntax = f
		entry.errs = parser.Errors(err)
	})
	return entry.syntax, entry.errs
}

// DiskFS reads Candid files from disk, caching the parsed result until the
// file changes.
type DiskFS struct {
	mu    sync.Mutex
	seq   uint64
	files map[string]*diskFileEntry
}

type diskFileEntry struct {
	*fileEntry
	modTime int64
	size    int64
}

// NewDiskFS returns an empty DiskFS.
func NewDiskFS() *DiskFS {
	return &DiskFS{files: make(map[string]*diskFileEntry)}
}

// ReadFile returns a handle for the file at path. A cached handle is
// returned if the file has not changed since it was last read.
func (fs *DiskFS) ReadFile(path string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if entry, ok := fs.files[path]; ok && entry.modTime == info.ModTime().UnixNano() && entry.size == info.Size() {
		return entry, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fs.seq++
	entry := &diskFileEntry{
		fileEntry: &fileEntry{
			uri:  URIFromPath(path),
			seq:  fs.seq,
			text: rope.FromString(string(content)),
		},
		modTime: info.ModTime().UnixNano(),
		size:    info.Size(),
	}
	fs.files[path] = entry
	return entry, nil
}
