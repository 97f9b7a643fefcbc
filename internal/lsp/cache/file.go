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
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/scanner"
	"candidls.dev/go/candid/token"
	"candidls.dev/go/candid/types"
)

// DocumentSymbols returns the hierarchical document symbols of the
// snapshot: one per type declaration, with its fields or tags as
// children, and one per service with its methods. The result is computed
// once.
func (s *Snapshot) DocumentSymbols() []protocol.DocumentSymbol {
	s.symbolsOnce.Do(func() { s.symbols = s.documentSymbols() })
	return s.symbols
}

func (s *Snapshot) documentSymbols() []protocol.DocumentSymbol {
	stack := []*protocol.DocumentSymbol{{Kind: protocol.SymbolKindFile}}

	peek := func() *protocol.DocumentSymbol {
		return stack[len(stack)-1]
	}

	push := func(name string, kind protocol.SymbolKind, n, sel ast.Node) {
		parent := peek()
		i := len(parent.Children)
		parent.Children = append(parent.Children, protocol.DocumentSymbol{
			Name:           name,
			Kind:           kind,
			Range:          s.Range(n.Pos().Offset(), n.End().Offset()),
			SelectionRange: s.Range(sel.Pos().Offset(), sel.End().Offset()),
		})
		stack = append(stack, &parent.Children[i])
	}

	pop := func() {
		stack = stack[:len(stack)-1]
	}

	// inVariant records, for each enclosing record or variant type,
	// whether it is a variant.
	var inVariant []bool
	pushed := map[ast.Node]bool{}

	ast.Walk(s.file,
		func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.TypeDecl:
				if n.Name == nil || n.Name.Name == "" {
					return false
				}
				push(n.Name.Name, declKind(n.Value), n, n.Name)
				pushed[n] = true
			case *ast.ServiceDecl:
				name := "service"
				var sel ast.Node = n
				if n.Name != nil {
					name, sel = n.Name.Name, n.Name
				}
				push(name, protocol.SymbolKindInterface, n, sel)
				pushed[n] = true
			case *ast.RecordType:
				inVariant = append(inVariant, false)
			case *ast.VariantType:
				inVariant = append(inVariant, true)
			case *ast.Field:
				if n.Label == nil || len(inVariant) == 0 {
					return true
				}
				kind := protocol.SymbolKindField
				if inVariant[len(inVariant)-1] {
					kind = protocol.SymbolKindEnumMember
				}
				push(n.Label.Name(), kind, n, n.Label)
				pushed[n] = true
			case *ast.Method:
				push(n.Name.Name(), protocol.SymbolKindMethod, n, n.Name)
				pushed[n] = true
			}
			return true
		},
		func(n ast.Node) {
			switch n.(type) {
			case *ast.RecordType, *ast.VariantType:
				inVariant = inVariant[:len(inVariant)-1]
			}
			if pushed[n] {
				pop()
			}
		})

	return peek().Children
}

func declKind(x ast.Expr) protocol.SymbolKind {
	switch x.(type) {
	case *ast.RecordType:
		return protocol.SymbolKindStruct
	case *ast.VariantType:
		return protocol.SymbolKindEnum
	case *ast.FuncType:
		return protocol.SymbolKindFunction
	case *ast.ServiceType:
		return protocol.SymbolKindInterface
	}
	return protocol.SymbolKindTypeParameter
}

// PrimitiveDoc returns a one-line description of a primitive type.
func PrimitiveDoc(name string) (string, bool) {
	doc, ok := primitiveDocs[name]
	return doc, ok
}

// BlobDoc describes the blob shorthand.
const BlobDoc = "Binary data, equivalent to vec nat8."

var primitiveDocs = map[string]string{
	"nat":       "Unbounded natural number.",
	"int":       "Unbounded integer.",
	"nat8":      "8-bit natural number.",
	"nat16":     "16-bit natural number.",
	"nat32":     "32-bit natural number.",
	"nat64":     "64-bit natural number.",
	"int8":      "8-bit signed integer.",
	"int16":     "16-bit signed integer.",
	"int32":     "32-bit signed integer.",
	"int64":     "64-bit signed integer.",
	"float32":   "32-bit IEEE 754 floating point number.",
	"float64":   "64-bit IEEE 754 floating point number.",
	"bool":      "Boolean value, true or false.",
	"text":      "Unicode text.",
	"null":      "The type of the value null.",
	"reserved":  "Supertype of all types. Values of type reserved carry no information.",
	"empty":     "Type without values.",
	"principal": "Identity of a principal, such as a canister or a user.",
}

// keywordDocs describes the keywords that introduce a type, a declaration
// or a method mode.
var keywordDocs = map[token.Token]string{
	token.FUNC:            "Function reference type. Lists the argument and result types and an optional mode annotation.",
	token.OPT:             "Optional value. A value of type opt T is either null or a value of type T.",
	token.PRINCIPAL:       "Identity of a principal, such as a canister or a user.",
	token.RECORD:          "Record type. A set of fields, each with a label and a type. Labels without a name are numbered from 0.",
	token.SERVICE:         "Service type. The set of methods an actor exposes, each with a function type.",
	token.TYPE:            "Type declaration. Binds a name to a type for use in the rest of the file.",
	token.VARIANT:         "Variant type. Exactly one of the listed tags, each carrying a value of its type.",
	token.VEC:             "Vector type. A sequence of values of the element type.",
	token.ONEWAY:          "Oneway method. The caller does not wait for a reply and the method returns no results.",
	token.QUERY:           "Query method. Runs without committing state changes and may be answered by a single replica.",
	token.COMPOSITE_QUERY: "Composite query method. A query that may call other query methods.",
}

// KeywordDoc returns a one-line description of the keyword tok.
func KeywordDoc(tok token.Token) (string, bool) {
	doc, ok := keywordDocs[tok]
	return doc, ok
}

// keywordAt returns the documented keyword token spanning offset.
func (s *Snapshot) keywordAt(offset int) (token.Token, token.Span, bool) {
	src := s.Text().String()
	var sc scanner.Scanner
	sc.Init(token.NewFile("", len(src)), []byte(src), nil, 0)
	for {
		pos, tok, lit := sc.Scan()
		start := pos.Offset()
		if tok == token.EOF || start > offset {
			return 0, token.Span{}, false
		}
		if end := start + len(lit); offset >= start && offset < end {
			if _, ok := keywordDocs[tok]; ok {
				return tok, token.Span{Start: start, End: end}, true
			}
			return 0, token.Span{}, false
		}
	}
}

// Hover returns the hover text for the node at offset: the definition of
// a referenced or declared type, the type of a field or the signature of
// a method, together with any doc comment. On a keyword it returns the
// description of the keyword.
func (s *Snapshot) Hover(offset int) (*protocol.Hover, bool) {
	if tok, span, ok := s.keywordAt(offset); ok {
		return s.hover(tok.String(), keywordDocs[tok], span.Start, span.End), true
	}
	path := ast.PathAt(s.file, offset)
	if len(path) < 2 {
		return nil, false
	}
	var code, doc string
	var node ast.Node
	switch n := path[len(path)-1].(type) {
	case *ast.Ident:
		node = n
		if d, ok := primitiveDocs[n.Name]; ok {
			code, doc = n.Name, d
			break
		}
		def, ok := s.table.Definition(n.Name)
		if !ok {
			return nil, false
		}
		code, doc = def, s.table.Doc(n.Name)
	case *ast.Label:
		node = n
		switch parent := path[len(path)-2].(type) {
		case *ast.Field:
			if parent.Type == nil {
				code = n.Name()
			} else {
				code = n.Name() + " : " + s.typeString(parent.Type)
			}
			doc = parent.Doc
		case *ast.Method:
			if parent.Type == nil {
				return nil, false
			}
			id, ok := s.table.TypeOf(parent.Type)
			if !ok {
				return nil, false
			}
			code = n.Name() + " : " + s.table.FormatSignature(s.table.Unfold(id))
			doc = parent.Doc
		default:
			return nil, false
		}
	case *ast.BlobType:
		node, code, doc = n, "blob", BlobDoc
	default:
		return nil, false
	}

	return s.hover(code, doc, node.Pos().Offset(), node.End().Offset()), true
}

func (s *Snapshot) hover(code, doc string, start, end int) *protocol.Hover {
	var b strings.Builder
	b.WriteString("```candid\n")
	b.WriteString(code)
	b.WriteString("\n```")
	if doc = strings.TrimSpace(doc); doc != "" {
		b.WriteString("\n\n")
		b.WriteString(doc)
	}
	r := s.Range(start, end)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: b.String()},
		Range:    &r,
	}
}

func (s *Snapshot) typeString(x ast.Expr) string {
	id, ok := s.table.TypeOf(x)
	if !ok {
		return "unknown"
	}
	return s.table.String(id)
}

// Definition returns the span of the name declaring the type referenced
// at offset.
func (s *Snapshot) Definition(offset int) (token.Span, bool) {
	path := ast.PathAt(s.file, offset)
	if len(path) == 0 {
		return token.Span{}, false
	}
	id, ok := path[len(path)-1].(*ast.Ident)
	if !ok || token.IsPrimitive(id.Name) {
		return token.Span{}, false
	}
	for _, d := range s.file.Decls {
		if td, ok := d.(*ast.TypeDecl); ok && td.Name != nil && td.Name.Name == id.Name {
			return token.Span{Start: td.Name.Pos().Offset(), End: td.Name.End().Offset()}, true
		}
	}
	return token.Span{}, false
}

// DefinedTypes returns the names of the types declared in the file, in
// declaration order, with the kind of each.
func (s *Snapshot) DefinedTypes() []NamedType {
	names := s.table.Names()
	out := make([]NamedType, 0, len(names))
	for _, name := range names {
		id, _ := s.table.Lookup(name)
		out = append(out, NamedType{Name: name, Kind: s.table.Kind(s.table.Unfold(id))})
	}
	return out
}

// A NamedType is a type declared in a file.
type NamedType struct {
	Name string
	Kind types.Kind
}
