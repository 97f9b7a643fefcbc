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

// Package errors defines shared types for handling Candid errors.
//
// Errors carry a source position and, where known, the end of the
// offending construct so that editors can underline the full range.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"candidls.dev/go/candid/token"
)

// New is a convenience wrapper for errors.New in the core library.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// A Handler is a generic error handler used throughout Candid packages.
//
// The position points to the beginning of the offending value.
type Handler func(pos token.Pos, msg string, args []any)

// Error is the common error message.
type Error interface {
	// Position returns the start of the offending construct.
	Position() token.Pos

	// End returns the end of the offending construct, which may be
	// equal to Position for errors anchored at a single token.
	End() token.Pos

	// Error reports the error message without position information.
	Error() string

	// Msg returns the unformatted error message and its arguments.
	Msg() (format string, args []any)
}

// posError is the concrete Error created by Newf and friends.
type posError struct {
	pos, end token.Pos
	format   string
	args     []any
}

// Newf creates an Error with the associated position and message.
func Newf(p token.Pos, format string, args ...any) Error {
	return &posError{pos: p, end: p, format: format, args: args}
}

// NewRangef creates an Error spanning [start, end).
func NewRangef(start, end token.Pos, format string, args ...any) Error {
	return &posError{pos: start, end: end, format: format, args: args}
}

func (e *posError) Position() token.Pos { return e.pos }
func (e *posError) End() token.Pos      { return e.end }

func (e *posError) Msg() (string, []any) { return e.format, e.args }

func (e *posError) Error() string { return fmt.Sprintf(e.format, e.args...) }

// List is a list of Errors.
// The zero value for a List is an empty List ready to use.
type List []Error

// AddNewf adds an Error with given position and error message to a List.
func (p *List) AddNewf(pos token.Pos, format string, args ...any) {
	*p = append(*p, Newf(pos, format, args...))
}

// Add adds an Error to a List.
func (p *List) Add(err Error) {
	*p = append(*p, err)
}

// Reset resets a List to no errors.
func (p *List) Reset() { *p = (*p)[0:0] }

// List implements the sort Interface.
func (p List) Len() int      { return len(p) }
func (p List) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p List) Less(i, j int) bool {
	if c := p[i].Position().Compare(p[j].Position()); c != 0 {
		return c < 0
	}
	return p[i].Error() < p[j].Error()
}

// Sort sorts a List by position, then by message.
func (p List) Sort() {
	sort.Stable(p)
}

// RemoveMultiples sorts a List and removes all but the first error per line.
func (p *List) RemoveMultiples() {
	p.Sort()
	last := -1
	i := 0
	for _, e := range *p {
		line := e.Position().Line()
		if line != last {
			last = line
			(*p)[i] = e
			i++
		}
	}
	*p = (*p)[0:i]
}

// A List implements the error interface.
func (p List) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Print is a utility function that prints a list of errors to w,
// one error per line, if the err parameter is a List. Otherwise
// it prints the err string.
func Print(w io.Writer, err error) {
	var list List
	if errors.As(err, &list) {
		for _, e := range list {
			printError(w, e)
		}
	} else if err != nil {
		fmt.Fprintln(w, err)
	}
}

func printError(w io.Writer, err Error) {
	if pos := err.Position(); pos.IsValid() {
		fmt.Fprintf(w, "%v: ", pos)
	}
	fmt.Fprintln(w, err.Error())
}
