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

// Package types implements the structural type system of Candid.
//
// Types live in a Table: an arena of nodes addressed by ID. Named types are
// represented by Var nodes that refer to their definition by name, so
// recursive and mutually recursive definitions need no cyclic pointers. A
// Table is immutable once built and safe for concurrent use.
package types

import (
	"sort"

	"candidls.dev/go/candid/ast"
)

// ID identifies a type node within a Table.
type ID int32

// Kind is the shape of a type node.
type Kind uint8

const (
	// Unknown is the error sentinel substituted for types that could not
	// be resolved. It is compatible with every type so that a single
	// error does not cascade into unrelated diagnostics.
	Unknown Kind = iota

	Null
	Bool
	Nat
	Int
	Nat8
	Nat16
	Nat32
	Nat64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Text
	Reserved
	Empty
	Principal

	Opt
	Vec
	Record
	Variant
	Func
	Service
	Var // reference to a named type

	numPrims = Principal + 1
)

var kindNames = [...]string{
	Unknown:   "unknown",
	Null:      "null",
	Bool:      "bool",
	Nat:       "nat",
	Int:       "int",
	Nat8:      "nat8",
	Nat16:     "nat16",
	Nat32:     "nat32",
	Nat64:     "nat64",
	Int8:      "int8",
	Int16:     "int16",
	Int32:     "int32",
	Int64:     "int64",
	Float32:   "float32",
	Float64:   "float64",
	Text:      "text",
	Reserved:  "reserved",
	Empty:     "empty",
	Principal: "principal",
	Opt:       "opt",
	Vec:       "vec",
	Record:    "record",
	Variant:   "variant",
	Func:      "func",
	Service:   "service",
	Var:       "var",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind?"
}

// IsPrimitive reports whether k is a primitive kind.
func (k Kind) IsPrimitive() bool { return Null <= k && k < numPrims }

// PrimKind returns the kind of the primitive type with the given name.
func PrimKind(name string) (Kind, bool) {
	for k := Null; k < numPrims; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return Unknown, false
}

// Mode is a function annotation.
type Mode uint8

const (
	NoMode Mode = iota
	Query
	Oneway
	CompositeQuery
)

func (m Mode) String() string {
	switch m {
	case Query:
		return "query"
	case Oneway:
		return "oneway"
	case CompositeQuery:
		return "composite_query"
	}
	return ""
}

// A Field is a record field or a variant tag.
type Field struct {
	Label Label
	Type  ID
	Doc   string
}

// A Param is an element of a function argument or result tuple.
type Param struct {
	Name string // or "" if unnamed
	Type ID
}

// A Signature describes a function type.
type Signature struct {
	Args    []Param
	Results []Param
	Mode    Mode
}

// A Method is a service method.
type Method struct {
	Name string
	Type ID
	Doc  string
}

type node struct {
	kind    Kind
	elem    ID // opt and vec
	fields  []Field
	sig     *Signature
	methods []Method
	name    string // var
}

// A Table is an arena of type nodes together with the environment of
// named type definitions.
type Table struct {
	nodes []node
	env   map[string]ID
	order []string // definition order
	docs  map[string]string

	// Populated by Resolve.
	exprs    map[ast.Expr]ID
	service  ID
	init     []Param
	imports  []Import
	hasActor bool
}

// NewTable returns a Table holding only the primitive types.
func NewTable() *Table {
	t := &Table{
		env:   map[string]ID{},
		docs:  map[string]string{},
		exprs: map[ast.Expr]ID{},
	}
	for k := Unknown; k < numPrims; k++ {
		t.nodes = append(t.nodes, node{kind: k})
	}
	return t
}

func (t *Table) add(n node) ID {
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

// Prim returns the ID of the primitive type of kind k. It returns the
// error sentinel if k is not primitive.
func (t *Table) Prim(k Kind) ID {
	if k.IsPrimitive() {
		return ID(k)
	}
	return ID(Unknown)
}

// UnknownType returns the error sentinel.
func (t *Table) UnknownType() ID { return ID(Unknown) }

// Opt returns a new opt elem type.
func (t *Table) Opt(elem ID) ID { return t.add(node{kind: Opt, elem: elem}) }

// Vec returns a new vec elem type.
func (t *Table) Vec(elem ID) ID { return t.add(node{kind: Vec, elem: elem}) }

// Blob returns a new vec nat8 type.
func (t *Table) Blob() ID { return t.Vec(t.Prim(Nat8)) }

// Record returns a new record type. Fields are ordered by label id.
func (t *Table) Record(fields []Field) ID {
	return t.add(node{kind: Record, fields: sortFields(fields)})
}

// Variant returns a new variant type. Tags are ordered by label id.
func (t *Table) Variant(fields []Field) ID {
	return t.add(node{kind: Variant, fields: sortFields(fields)})
}

// Tuple returns a record whose fields are labelled 0, 1, ...
func (t *Table) Tuple(elems ...ID) ID {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Label: IDLabel(uint32(i)), Type: e}
	}
	return t.Record(fields)
}

// Func returns a new function type.
func (t *Table) Func(sig Signature) ID {
	return t.add(node{kind: Func, sig: &sig})
}

// Service returns a new service type. Methods are ordered by name.
func (t *Table) Service(methods []Method) ID {
	m := append([]Method(nil), methods...)
	sort.SliceStable(m, func(i, j int) bool { return m[i].Name < m[j].Name })
	return t.add(node{kind: Service, methods: m})
}

// Var returns a reference to the named type name.
func (t *Table) Var(name string) ID { return t.add(node{kind: Var, name: name}) }

// Define binds name to the type id.
func (t *Table) Define(name string, id ID) {
	if _, ok := t.env[name]; !ok {
		t.order = append(t.order, name)
	}
	t.env[name] = id
}

func sortFields(fields []Field) []Field {
	f := append([]Field(nil), fields...)
	sort.SliceStable(f, func(i, j int) bool { return f[i].Label.ID < f[j].Label.ID })
	return f
}

// Kind returns the kind of id without unfolding named types.
func (t *Table) Kind(id ID) Kind {
	if id < 0 || int(id) >= len(t.nodes) {
		return Unknown
	}
	return t.nodes[id].kind
}

func (t *Table) node(id ID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		return &t.nodes[0]
	}
	return &t.nodes[id]
}

// Elem returns the element type of an opt or vec type.
func (t *Table) Elem(id ID) ID { return t.node(id).elem }

// Fields returns the fields of a record or the tags of a variant, ordered
// by label id. The result must not be modified.
func (t *Table) Fields(id ID) []Field { return t.node(id).fields }

// Signature returns the signature of a function type, or nil.
func (t *Table) Signature(id ID) *Signature { return t.node(id).sig }

// Methods returns the methods of a service type ordered by name. The
// result must not be modified.
func (t *Table) Methods(id ID) []Method { return t.node(id).methods }

// Name returns the name referenced by a Var node.
func (t *Table) Name(id ID) string { return t.node(id).name }

// Lookup returns the definition of the named type.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.env[name]
	return id, ok
}

// Names returns the defined type names in definition order.
func (t *Table) Names() []string { return t.order }

// Doc returns the doc comment of the named type.
func (t *Table) Doc(name string) string { return t.docs[name] }

// Unfold follows named type references until it reaches a structural type.
// It returns the error sentinel for unbound names and for definitions that
// only refer to each other without ever reaching a type constructor.
func (t *Table) Unfold(id ID) ID {
	for steps := 0; t.Kind(id) == Var; steps++ {
		if steps > len(t.env) {
			return ID(Unknown)
		}
		def, ok := t.env[t.node(id).name]
		if !ok {
			return ID(Unknown)
		}
		id = def
	}
	return id
}

// FieldByLabel returns the field of a record or variant with the given
// label id.
func (t *Table) FieldByLabel(id ID, label uint32) (Field, bool) {
	fields := t.node(id).fields
	i := sort.Search(len(fields), func(i int) bool { return fields[i].Label.ID >= label })
	if i < len(fields) && fields[i].Label.ID == label {
		return fields[i], true
	}
	return Field{}, false
}

// MethodByName returns the method of a service type with the given name.
func (t *Table) MethodByName(id ID, name string) (Method, bool) {
	methods := t.node(id).methods
	i := sort.Search(len(methods), func(i int) bool { return methods[i].Name >= name })
	if i < len(methods) && methods[i].Name == name {
		return methods[i], true
	}
	return Method{}, false
}

// Len returns the number of nodes in the arena.
func (t *Table) Len() int { return len(t.nodes) }
