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

package completion

import (
	"strconv"
	"strings"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/token"
	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/cache"
)

// Kind classifies the position of the cursor.
type Kind uint8

const (
	// None is a position where nothing can be completed: comments,
	// string literals and the names of new declarations.
	None Kind = iota
	// Unknown is a position the detector could not classify, such as
	// the middle of a malformed declaration.
	Unknown
	TopLevel
	Type
	FuncResults
	FuncModes
	RecordFields
	VariantTags
	ServiceMethods
	Value
	RecordValue
	VariantValue
)

var kindNames = [...]string{
	None:           "none",
	Unknown:        "unknown",
	TopLevel:       "top-level",
	Type:           "type",
	FuncResults:    "func-results",
	FuncModes:      "func-modes",
	RecordFields:   "record-fields",
	VariantTags:    "variant-tags",
	ServiceMethods: "service-methods",
	Value:          "value",
	RecordValue:    "record-value",
	VariantValue:   "variant-value",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// isValue reports whether k is a position inside a textual value.
func (k Kind) isValue() bool {
	return k == Value || k == RecordValue || k == VariantValue
}

// A Context describes what is being edited at the cursor.
type Context struct {
	Kind Kind

	// Node is the innermost node that determined Kind: the literal,
	// type or declaration enclosing the cursor. It is nil for None and
	// TopLevel.
	Node ast.Node

	// Editing is the field, tag or method whose label is under the
	// cursor, if any. Its label is not counted as already present.
	Editing ast.Node

	// Expected is the type that a value at the cursor is checked
	// against. It is only set for value contexts inside an annotated
	// argument.
	Expected    types.ID
	HasExpected bool

	path []ast.Node
}

// DetectContext maps offset to the innermost node enclosing it and
// classifies the position. When the cursor sits between two nodes the
// later one wins.
func DetectContext(snap *cache.Snapshot, offset int) Context {
	f := snap.File()
	if f == nil || snap.InComment(offset) {
		return Context{Kind: None}
	}
	path := ast.PathAt(f, offset)
	semi := offset > 0 && snap.Text().Slice(offset-1, offset) == ";"
	ctx := classify(path, offset, semi)
	ctx.path = path
	if ctx.Kind.isValue() {
		ctx.Expected, ctx.HasExpected = expectedType(snap.Table(), path, ctx.Node)
	}
	return ctx
}

// classify walks path from the innermost node outwards until a node
// determines the kind of position. afterSemi reports whether the cursor
// follows a semicolon, which ends the declaration before it.
func classify(path []ast.Node, offset int, afterSemi bool) Context {
	var editing ast.Node
	for i := len(path) - 1; i >= 0; i-- {
		var parent ast.Node
		if i > 0 {
			parent = path[i-1]
		}
		if _, ok := path[i].(ast.Decl); ok && afterSemi && offset == path[i].End().Offset() {
			return Context{Kind: TopLevel}
		}
		switch n := path[i].(type) {
		case *ast.BasicLit:
			if n.Kind == token.STRING && n.Pos().Offset() < offset && offset < n.End().Offset() {
				return Context{Kind: None}
			}

		case *ast.Ident:
			if d, ok := parent.(*ast.TypeDecl); ok && d.Name == n {
				return Context{Kind: None}
			}
			if d, ok := parent.(*ast.ServiceDecl); ok && d.Name == n {
				return Context{Kind: None}
			}

		case *ast.FieldValue:
			if after(n.Assign, offset) {
				return Context{Kind: Value, Node: n}
			}
			editing = n

		case *ast.RecordValue:
			if inBraces(n.Lbrace, n.Rbrace, offset) {
				return Context{Kind: RecordValue, Node: n, Editing: editing}
			}
			return Context{Kind: Value, Node: n}

		case *ast.VariantValue:
			if inBraces(n.Lbrace, n.Rbrace, offset) {
				return Context{Kind: VariantValue, Node: n, Editing: editing}
			}
			return Context{Kind: Value, Node: n}

		case *ast.VecValue, *ast.OptValue, *ast.LitValue, *ast.RefValue,
			*ast.BadValue, *ast.ParenValue:
			return Context{Kind: Value, Node: n}

		case *ast.AnnotatedValue:
			if after(n.Colon, offset) {
				return typeContext(n, n.Type, offset)
			}
			return Context{Kind: Value, Node: n}

		case *ast.ArgsDecl:
			if after(n.Lparen, offset) {
				return Context{Kind: Value, Node: n}
			}
			return Context{Kind: TopLevel}

		case *ast.Field:
			if after(n.Colon, offset) {
				return typeContext(n, n.Type, offset)
			}
			editing = n

		case *ast.RecordType:
			if inBraces(n.Lbrace, n.Rbrace, offset) {
				return Context{Kind: RecordFields, Node: n, Editing: editing}
			}
			return Context{Kind: Type, Node: n}

		case *ast.VariantType:
			if inBraces(n.Lbrace, n.Rbrace, offset) {
				return Context{Kind: VariantTags, Node: n, Editing: editing}
			}
			return Context{Kind: Type, Node: n}

		case *ast.ArgType:
			if after(n.Colon, offset) {
				return typeContext(n, n.Type, offset)
			}

		case *ast.TupleType:
			if f, ok := parent.(*ast.FuncType); ok && f.Results == n {
				return Context{Kind: FuncResults, Node: n}
			}
			return Context{Kind: Type, Node: n}

		case *ast.FuncType:
			switch {
			case n.Results != nil && offset > n.Results.End().Offset():
				return Context{Kind: FuncModes, Node: n}
			case n.Results == nil && after(n.Arrow, offset):
				return Context{Kind: FuncResults, Node: n}
			}
			return Context{Kind: Type, Node: n}

		case *ast.Method:
			if after(n.Colon, offset) {
				return typeContext(n, n.Type, offset)
			}
			editing = n

		case *ast.ServiceType:
			if inBraces(n.Lbrace, n.Rbrace, offset) {
				return Context{Kind: ServiceMethods, Node: n, Editing: editing}
			}
			return Context{Kind: Type, Node: n}

		case *ast.OptType, *ast.VecType, *ast.BlobType, *ast.BadExpr:
			return Context{Kind: Type, Node: n}

		case *ast.TypeDecl:
			if after(n.Assign, offset) {
				return typeContext(n, n.Value, offset)
			}
			if n.Name == nil || n.Name.Name == "" {
				// type ‸
				return Context{Kind: None}
			}
			return Context{Kind: TopLevel}

		case *ast.ServiceDecl:
			return Context{Kind: Type, Node: n}

		case *ast.ImportDecl:
			return Context{Kind: None}

		case *ast.BadDecl:
			if startsDecl(n, offset) {
				return Context{Kind: TopLevel}
			}
			return Context{Kind: Unknown, Node: n}

		case *ast.File:
			return Context{Kind: TopLevel}
		}
	}
	return Context{Kind: Unknown}
}

// typeContext classifies a cursor in the type position of n, which holds
// the type x. A cursor past the results of a function type is where its
// annotations go.
func typeContext(n ast.Node, x ast.Expr, offset int) Context {
	if f, ok := x.(*ast.FuncType); ok && f.Results != nil && offset > f.Results.End().Offset() {
		return Context{Kind: FuncModes, Node: f}
	}
	return Context{Kind: Type, Node: n}
}

// after reports whether offset lies after the token at pos.
func after(pos token.Pos, offset int) bool {
	return pos.IsValid() && offset > pos.Offset()
}

// inBraces reports whether offset lies between an opening brace and its
// closing brace, which may be missing.
func inBraces(lbrace, rbrace token.Pos, offset int) bool {
	if !after(lbrace, offset) {
		return false
	}
	return !rbrace.IsValid() || offset <= rbrace.Offset()
}

// startsDecl reports whether a malformed declaration is short enough to
// be a keyword that is still being typed.
func startsDecl(n *ast.BadDecl, offset int) bool {
	return n.From.IsValid() && n.To.IsValid() && offset <= n.To.Offset() &&
		n.To.Offset()-n.From.Offset() <= len("composite_query")
}

// expectedType follows the structure of the annotated value enclosing
// target down to target and returns the type a value there must have.
func expectedType(t *types.Table, path []ast.Node, target ast.Node) (types.ID, bool) {
	var cur types.ID
	known := false
	for i, n := range path {
		if v, ok := n.(*ast.AnnotatedValue); ok {
			if v.Type != nil {
				cur, known = t.TypeOf(v.Type)
			} else if _, ok := path[i-1].(*ast.ArgsDecl); ok {
				known = false
			}
		}
		if n == target {
			return cur, known
		}
		if !known {
			continue
		}
		var next ast.Node
		if i+1 < len(path) {
			next = path[i+1]
		}
		u := t.Unfold(cur)
		switch n := n.(type) {
		case *ast.OptValue:
			cur, known = elem(t, u, types.Opt)
		case *ast.VecValue:
			cur, known = elem(t, u, types.Vec)
		case *ast.RecordValue:
			f, ok := next.(*ast.FieldValue)
			if !ok || t.Kind(u) != types.Record {
				known = false
				continue
			}
			field, ok := t.FieldByLabel(u, fieldValueIDs(n.Fields)[f])
			cur, known = field.Type, ok
		case *ast.VariantValue:
			f, ok := next.(*ast.FieldValue)
			if !ok || f.Label == nil || t.Kind(u) != types.Variant {
				known = false
				continue
			}
			field, ok := t.FieldByLabel(u, labelID(f.Label))
			cur, known = field.Type, ok
		}
	}
	return cur, known
}

func elem(t *types.Table, id types.ID, kind types.Kind) (types.ID, bool) {
	if t.Kind(id) != kind {
		return 0, false
	}
	return t.Elem(id), true
}

// labelID returns the field id denoted by a label.
func labelID(l *ast.Label) uint32 {
	if l.Kind == token.NAT {
		if id, err := strconv.ParseUint(strings.ReplaceAll(l.Raw, "_", ""), 10, 32); err == nil {
			return uint32(id)
		}
	}
	return types.Hash(l.Name())
}

// fieldValueIDs assigns field ids to the fields of a record literal.
// Unlabelled fields take the id following the previous field.
func fieldValueIDs(fields []*ast.FieldValue) map[*ast.FieldValue]uint32 {
	ids := make(map[*ast.FieldValue]uint32, len(fields))
	next := uint32(0)
	for _, f := range fields {
		id := next
		if f.Label != nil {
			id = labelID(f.Label)
		}
		ids[f] = id
		next = id + 1
	}
	return ids
}
