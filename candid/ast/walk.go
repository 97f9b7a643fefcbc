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

package ast

import "fmt"

// Walk traverses an AST in depth-first order: It starts by calling
// before(node); node must not be nil. If before returns true, Walk invokes
// itself recursively for each of the non-nil children of node, followed by
// a call of after. Both functions may be nil. If before is nil, it is
// assumed to always return true.
func Walk(node Node, before func(Node) bool, after func(Node)) {
	if before == nil {
		before = func(Node) bool { return true }
	}
	if after == nil {
		after = func(Node) {}
	}
	walk(node, before, after)
}

func walkList[N Node](list []N, before func(Node) bool, after func(Node)) {
	for _, node := range list {
		walk(node, before, after)
	}
}

func walk(node Node, before func(Node) bool, after func(Node)) {
	if !before(node) {
		return
	}

	// walk children
	// (the order of the cases matches the order
	// of the corresponding node types in ast.go)
	switch n := node.(type) {
	case *File:
		walkList(n.Decls, before, after)

	// Identifiers, literals and labels
	case *Ident, *BasicLit, *Label:
		// nothing to do

	// Type expressions
	case *BadExpr, *BlobType:
		// nothing to do

	case *OptType:
		walk(n.Elem, before, after)

	case *VecType:
		walk(n.Elem, before, after)

	case *Field:
		if n.Label != nil {
			walk(n.Label, before, after)
		}
		if n.Type != nil {
			walk(n.Type, before, after)
		}

	case *RecordType:
		walkList(n.Fields, before, after)

	case *VariantType:
		walkList(n.Fields, before, after)

	case *ArgType:
		if n.Name != nil {
			walk(n.Name, before, after)
		}
		walk(n.Type, before, after)

	case *TupleType:
		walkList(n.Args, before, after)

	case *FuncType:
		walk(n.Args, before, after)
		if n.Results != nil {
			walk(n.Results, before, after)
		}
		walkList(n.Modes, before, after)

	case *Method:
		walk(n.Name, before, after)
		if n.Type != nil {
			walk(n.Type, before, after)
		}

	case *ServiceType:
		walkList(n.Methods, before, after)

	// Declarations
	case *BadDecl:
		// nothing to do

	case *ImportDecl:
		if n.Path != nil {
			walk(n.Path, before, after)
		}

	case *TypeDecl:
		walk(n.Name, before, after)
		if n.Value != nil {
			walk(n.Value, before, after)
		}

	case *ServiceDecl:
		if n.Name != nil {
			walk(n.Name, before, after)
		}
		if n.Args != nil {
			walk(n.Args, before, after)
		}
		if n.Body != nil {
			walk(n.Body, before, after)
		}

	case *ArgsDecl:
		walkList(n.Args, before, after)

	// Values
	case *AnnotatedValue:
		walk(n.Value, before, after)
		if n.Type != nil {
			walk(n.Type, before, after)
		}

	case *BadValue:
		// nothing to do

	case *LitValue:
		walk(n.Lit, before, after)

	case *OptValue:
		walk(n.Elem, before, after)

	case *VecValue:
		walkList(n.Elems, before, after)

	case *FieldValue:
		if n.Label != nil {
			walk(n.Label, before, after)
		}
		if n.Value != nil {
			walk(n.Value, before, after)
		}

	case *RecordValue:
		walkList(n.Fields, before, after)

	case *VariantValue:
		if n.Field != nil {
			walk(n.Field, before, after)
		}

	case *RefValue:
		if n.Lit != nil {
			walk(n.Lit, before, after)
		}
		if n.Method != nil {
			walk(n.Method, before, after)
		}

	case *ParenValue:
		if n.X != nil {
			walk(n.X, before, after)
		}

	default:
		panic(fmt.Sprintf("Walk: unexpected node type %T", n))
	}

	after(node)
}

// PathAt returns the chain of nodes whose source range contains offset,
// outermost first, starting with f. A node touches offset if
// Pos <= offset <= End. When two siblings both touch offset, as happens
// when the cursor sits between them, the later one wins.
func PathAt(f *File, offset int) []Node {
	path := []Node{f}
	var stack []Node
	Walk(f, func(n Node) bool {
		if n == Node(f) {
			stack = append(stack, n)
			return true
		}
		if !contains(n, offset) {
			return false
		}
		// Siblings are visited in order, so a later sibling replaces an
		// earlier one at the same depth.
		depth := len(stack)
		if len(path) > depth {
			path = path[:depth]
		}
		path = append(path, n)
		stack = append(stack, n)
		return true
	}, func(n Node) {
		if len(stack) > 0 && stack[len(stack)-1] == n {
			stack = stack[:len(stack)-1]
		}
	})
	return path
}

func contains(n Node, offset int) bool {
	start, end := n.Pos(), n.End()
	if !start.IsValid() {
		return false
	}
	if !end.IsValid() {
		return start.Offset() <= offset
	}
	return start.Offset() <= offset && offset <= end.Offset()
}
