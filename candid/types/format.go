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
	"strings"
)

// String renders id as Candid type syntax. Named types are rendered by
// name, so the result is finite for recursive types.
func (t *Table) String(id ID) string {
	var b strings.Builder
	t.format(&b, id)
	return b.String()
}

// Definition renders the definition of a named type as a declaration,
// for example "type T = record { a : nat }".
func (t *Table) Definition(name string) (string, bool) {
	id, ok := t.env[name]
	if !ok {
		return "", false
	}
	return "type " + name + " = " + t.String(id), true
}

func (t *Table) format(b *strings.Builder, id ID) {
	n := t.node(id)
	switch n.kind {
	case Var:
		b.WriteString(n.name)
	case Opt, Vec:
		b.WriteString(n.kind.String())
		b.WriteByte(' ')
		t.format(b, n.elem)
	case Record, Variant:
		b.WriteString(n.kind.String())
		if len(n.fields) == 0 {
			b.WriteString(" {}")
			return
		}
		b.WriteString(" { ")
		tuple := n.kind == Record && isTuple(n.fields)
		for i, f := range n.fields {
			if i > 0 {
				b.WriteString("; ")
			}
			switch {
			case tuple:
				t.format(b, f.Type)
			case n.kind == Variant && t.Kind(f.Type) == Null:
				b.WriteString(f.Label.String())
			default:
				b.WriteString(f.Label.String())
				b.WriteString(" : ")
				t.format(b, f.Type)
			}
		}
		b.WriteString(" }")
	case Func:
		b.WriteString("func ")
		t.formatSignature(b, n.sig)
	case Service:
		b.WriteString("service ")
		t.formatMethods(b, n.methods)
	default:
		b.WriteString(n.kind.String())
	}
}

// FormatSignature renders a function signature without the func keyword,
// as it appears in a service method.
func (t *Table) FormatSignature(id ID) string {
	var b strings.Builder
	if sig := t.Signature(t.Unfold(id)); sig != nil {
		t.formatSignature(&b, sig)
	} else {
		t.format(&b, id)
	}
	return b.String()
}

func (t *Table) formatSignature(b *strings.Builder, sig *Signature) {
	t.formatTuple(b, sig.Args)
	b.WriteString(" -> ")
	t.formatTuple(b, sig.Results)
	if sig.Mode != NoMode {
		b.WriteByte(' ')
		b.WriteString(sig.Mode.String())
	}
}

// FormatTuple renders an argument or result tuple.
func (t *Table) FormatTuple(params []Param) string {
	var b strings.Builder
	t.formatTuple(&b, params)
	return b.String()
}

func (t *Table) formatTuple(b *strings.Builder, params []Param) {
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteString(" : ")
		}
		t.format(b, p.Type)
	}
	b.WriteByte(')')
}

func (t *Table) formatMethods(b *strings.Builder, methods []Method) {
	if len(methods) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, m := range methods {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(Label{Kind: Named, Name: m.Name}.String())
		b.WriteString(" : ")
		if sig := t.Signature(m.Type); sig != nil {
			t.formatSignature(b, sig)
		} else {
			t.format(b, m.Type)
		}
	}
	b.WriteString(" }")
}

// isTuple reports whether fields are labelled 0, 1, ... n-1 without names.
func isTuple(fields []Field) bool {
	for i, f := range fields {
		if f.Label.Kind == Named || f.Label.ID != uint32(i) {
			return false
		}
	}
	return true
}
