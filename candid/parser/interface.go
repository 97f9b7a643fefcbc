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

// Package parser implements a parser for Candid source files. Input may be
// provided in a variety of forms (see the various Parse* functions); the
// output is an abstract syntax tree (AST) representing the Candid source.
//
// The parser never gives up on a file: malformed constructs are reported
// as errors and replaced by Bad* nodes so that later declarations are still
// available to tools.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/errors"
)

// Option specifies a parse option.
type Option func(p *parser)

var (
	// ParseComments causes comments to be reported as COMMENT tokens
	// during scanning. Comment spans are recorded on the File either way.
	ParseComments Option = parseComments
	parseComments        = func(p *parser) { p.mode |= parseCommentsMode }

	// AllErrors causes all errors to be reported (not just the first one
	// per line).
	AllErrors Option = allErrors
	allErrors        = func(p *parser) { p.mode |= allErrorsMode }
)

type mode uint

const (
	parseCommentsMode mode = 1 << iota
	allErrorsMode
)

// If src != nil, readSource converts src to a []byte if possible;
// otherwise it returns an error. If src == nil, readSource returns
// the result of reading the file specified by filename.
func readSource(filename string, src any) ([]byte, error) {
	if src != nil {
		switch s := src.(type) {
		case string:
			return []byte(s), nil
		case []byte:
			return s, nil
		case *bytes.Buffer:
			// is io.Reader, but src is already available in []byte form
			if s != nil {
				return s.Bytes(), nil
			}
		case io.Reader:
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, s); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("invalid source type %T", src)
	}
	return os.ReadFile(filename)
}

// ParseFile parses the source code of a single Candid source file and
// returns the corresponding ast.File node. The source code may be provided
// via the filename of the source file, or via the src parameter.
//
// If src != nil, ParseFile parses the source from src and the filename is
// only used when recording position information. The type of the argument
// for the src parameter must be string, []byte, or io.Reader.
// If src == nil, ParseFile parses the file specified by filename.
//
// The returned file is never nil unless the source could not be read. If
// syntax errors were found, the result is a partial AST (with ast.Bad*
// nodes representing the fragments of erroneous source code) and the
// errors are returned as an errors.List sorted by source position.
func ParseFile(filename string, src any, mode ...Option) (f *ast.File, err error) {
	text, err := readSource(filename, src)
	if err != nil {
		return nil, err
	}

	var pp parser
	pp.init(filename, text, mode)
	f = pp.parseFile()
	pp.errors.Sort()
	return f, pp.errors.Err()
}

// Errors returns the syntax errors reported by ParseFile as a list. It
// returns nil for a nil error.
func Errors(err error) errors.List {
	var list errors.List
	if errors.As(err, &list) {
		return list
	}
	return nil
}
