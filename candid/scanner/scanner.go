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

// Package scanner implements a scanner for Candid source text. It takes a
// []byte as source which can then be tokenized through repeated calls to
// the Scan method.
package scanner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/token"
)

// A Mode value is a set of flags (or 0).
// They control scanner behavior.
type Mode uint

// These constants are options to the Init function.
const (
	ScanComments Mode = 1 << iota // return comments as COMMENT tokens
)

// A Comment is a comment encountered while scanning.
type Comment struct {
	Span token.Span
	Text string // including the comment markers
}

// A Scanner holds the Scanner's internal state while processing
// a given text. It can be allocated as part of another data
// structure but must be initialized via Init before use.
type Scanner struct {
	// immutable state
	file *token.File    // source file handle
	src  []byte         // source
	err  errors.Handler // error reporting; or nil
	mode Mode           // scanning mode

	// scanning state
	ch         rune // current character
	offset     int  // character offset
	rdOffset   int  // reading offset (position after current character)
	lineOffset int  // current line offset

	// public state - ok to modify
	ErrorCount int       // number of errors encountered
	Comments   []Comment // comments seen so far, in source order
}

const bom = 0xFEFF // byte order mark, only permitted as very first character

// Read the next Unicode char into s.ch.
// s.ch < 0 means end-of-file.
func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			// not ASCII
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error(s.offset, "illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.file.AddLine(s.offset)
		}
		s.ch = -1 // eof
	}
}

// peek returns the byte following the most recently read character without
// advancing the scanner. If the scanner is at EOF, peek returns 0.
func (s *Scanner) peek() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

// Init prepares the scanner s to tokenize the text src by setting the
// scanner at the beginning of src. The scanner uses the file for position
// information and it adds line information for each line. Init causes a
// panic if the file size does not match the src size.
//
// Calls to Scan will invoke the error handler err if they encounter a
// syntax error and err is not nil. Also, for each error encountered,
// the Scanner field ErrorCount is incremented by one. The mode parameter
// determines how comments are handled.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler, mode Mode) {
	// Explicitly initialize all fields since a scanner may be reused.
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = err
	s.mode = mode

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.lineOffset = 0
	s.ErrorCount = 0
	s.Comments = nil

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at file beginning
	}
}

func (s *Scanner) error(offs int, msg string) {
	if s.err != nil {
		s.err(s.file.Pos(offs), msg, nil)
	}
	s.ErrorCount++
}

func (s *Scanner) scanComment() string {
	// initial '/' already consumed; s.ch == '/' || s.ch == '*'
	offs := s.offset - 1 // position of initial '/'

	if s.ch == '/' {
		//-style comment
		s.next()
		for s.ch != '\n' && s.ch >= 0 {
			s.next()
		}
		return strings.TrimRight(string(s.src[offs:s.offset]), "\r")
	}

	/*-style comment, nesting allowed */
	s.next()
	depth := 1
	for s.ch >= 0 {
		ch := s.ch
		s.next()
		switch {
		case ch == '/' && s.ch == '*':
			s.next()
			depth++
		case ch == '*' && s.ch == '/':
			s.next()
			if depth--; depth == 0 {
				return string(s.src[offs:s.offset])
			}
		}
	}
	s.error(offs, "comment not terminated")
	return string(s.src[offs:s.offset])
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (s *Scanner) scanIdentifier() string {
	offs := s.offset
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

func digitVal(ch rune) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case ch == '_':
		return 0
	case 'a' <= ch && ch <= 'f':
		return int(ch - 'a' + 10)
	case 'A' <= ch && ch <= 'F':
		return int(ch - 'A' + 10)
	}
	return 16 // larger than any legal digit val
}

func (s *Scanner) scanMantissa(base int) {
	var last rune
	for digitVal(s.ch) < base {
		last = s.ch
		s.next()
	}
	if last == '_' {
		s.error(s.offset-1, "illegal '_' in number")
	}
}

// scanNumber scans a number starting at s.ch. A leading sign, if any, has
// already been consumed and is reported through signed.
func (s *Scanner) scanNumber(offs int, signed bool) (token.Token, string) {
	tok := token.NAT
	if signed {
		tok = token.INT
	}
	if s.ch == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.next()
		s.next()
		if digitVal(s.ch) >= 16 {
			s.error(s.offset, "illegal hexadecimal number")
		}
		s.scanMantissa(16)
		return tok, string(s.src[offs:s.offset])
	}
	s.scanMantissa(10)
	if s.ch == '.' && isDigit(rune(s.peek())) {
		tok = token.FLOAT
		s.next()
		s.scanMantissa(10)
	}
	if s.ch == 'e' || s.ch == 'E' {
		tok = token.FLOAT
		s.next()
		if s.ch == '-' || s.ch == '+' {
			s.next()
		}
		if !isDigit(s.ch) {
			s.error(s.offset, "exponent has no digits")
		}
		s.scanMantissa(10)
	}
	return tok, string(s.src[offs:s.offset])
}

// scanEscape parses an escape sequence. In case of a syntax error, it
// stops at the offending character (without consuming it) and returns
// false. Otherwise it returns true.
func (s *Scanner) scanEscape() bool {
	offs := s.offset

	switch s.ch {
	case 'n', 'r', 't', '\\', '\'', '"':
		s.next()
		return true
	case 'u':
		s.next()
		if s.ch != '{' {
			s.error(offs, "expected '{' in unicode escape")
			return false
		}
		s.next()
		n := 0
		for digitVal(s.ch) < 16 && s.ch != '_' {
			s.next()
			n++
		}
		if n == 0 || s.ch != '}' {
			s.error(offs, "invalid unicode escape")
			return false
		}
		s.next()
		return true
	}
	if digitVal(s.ch) < 16 {
		s.next()
		if digitVal(s.ch) >= 16 {
			s.error(offs, "hex escape requires two digits")
			return false
		}
		s.next()
		return true
	}
	msg := "unknown escape sequence"
	if s.ch < 0 {
		msg = "escape sequence not terminated"
	}
	s.error(offs, msg)
	return false
}

func (s *Scanner) scanString() string {
	// '"' opening already consumed
	offs := s.offset - 1

	for {
		ch := s.ch
		if ch == '\n' || ch < 0 {
			s.error(offs, "string literal not terminated")
			break
		}
		s.next()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			s.scanEscape()
		}
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
		s.next()
	}
}

// Scan scans the next token and returns the token position, the token,
// and its literal string if applicable. The source end is indicated by
// EOF.
//
// If the returned token is a literal (IDENT, NAT, INT, FLOAT, STRING) or
// COMMENT, the literal string has the corresponding value. If the returned
// token is a keyword, the literal string is the keyword. If the returned
// token is ILLEGAL, the literal string is the offending character.
//
// For more tolerant parsing, Scan will return a valid token if
// possible even if a syntax error was encountered. Thus, even
// if the resulting token sequence contains no illegal tokens,
// a client may not assume that no error occurred. Instead it
// must check the scanner's ErrorCount or the number of calls
// of the error handler, if there was one installed.
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
scanAgain:
	s.skipWhitespace()

	// current token start
	offset := s.offset
	pos = s.file.Pos(offset)

	switch ch := s.ch; {
	case isLetter(ch):
		lit = s.scanIdentifier()
		tok = token.Lookup(lit)
	case isDigit(ch):
		tok, lit = s.scanNumber(offset, false)
	default:
		s.next() // always make progress
		switch ch {
		case -1:
			tok = token.EOF
		case '"':
			tok = token.STRING
			lit = s.scanString()
		case ':':
			tok = token.COLON
		case ';':
			tok = token.SEMI
		case ',':
			tok = token.COMMA
		case '.':
			tok = token.PERIOD
		case '=':
			tok = token.ASSIGN
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case '-':
			switch {
			case s.ch == '>':
				s.next()
				tok = token.ARROW
			case isDigit(s.ch):
				tok, lit = s.scanNumber(offset, true)
			default:
				s.error(offset, "illegal character '-'")
				tok, lit = token.ILLEGAL, "-"
			}
		case '+':
			if isDigit(s.ch) {
				tok, lit = s.scanNumber(offset, true)
			} else {
				s.error(offset, "illegal character '+'")
				tok, lit = token.ILLEGAL, "+"
			}
		case '/':
			if s.ch == '/' || s.ch == '*' {
				comment := s.scanComment()
				s.Comments = append(s.Comments, Comment{
					Span: token.Span{Start: offset, End: s.offset},
					Text: comment,
				})
				if s.mode&ScanComments == 0 {
					goto scanAgain
				}
				tok = token.COMMENT
				lit = comment
			} else {
				s.error(offset, "illegal character '/'")
				tok, lit = token.ILLEGAL, "/"
			}
		default:
			// next reports unexpected BOMs - don't repeat
			if ch != bom {
				s.error(offset, fmt.Sprintf("illegal character %#U", ch))
			}
			tok = token.ILLEGAL
			lit = string(ch)
		}
	}
	return
}

// Offset reports the byte offset just past the most recently scanned token.
func (s *Scanner) Offset() int { return s.offset }
