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

package types

import (
	"strconv"

	"candidls.dev/go/candid/token"
)

// LabelKind distinguishes how a label was written.
type LabelKind uint8

const (
	// Named labels are written as identifiers or text.
	Named LabelKind = iota
	// Numeric labels are written as a number.
	Numeric
	// Positional labels were omitted and derived from the field position.
	Positional
)

// A Label identifies a record field or variant tag. Two labels are the
// same if their IDs are equal, regardless of how they were written.
type Label struct {
	Kind LabelKind
	Name string // for Named labels
	ID   uint32
}

// NamedLabel returns the label for name.
func NamedLabel(name string) Label {
	return Label{Kind: Named, Name: name, ID: Hash(name)}
}

// IDLabel returns a numeric label.
func IDLabel(id uint32) Label { return Label{Kind: Numeric, ID: id} }

// String returns the label as it would be written in Candid source.
func (l Label) String() string {
	if l.Kind == Named {
		if isIdent(l.Name) {
			return l.Name
		}
		return strconv.Quote(l.Name)
	}
	return strconv.FormatUint(uint64(l.ID), 10)
}

// Hash computes the Candid field id of a textual label:
// the sum of its UTF-8 bytes b_i * 223^(k-i) modulo 2^32.
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return !isKeyword(s)
}

func isKeyword(s string) bool {
	return token.Lookup(s).IsKeyword()
}
