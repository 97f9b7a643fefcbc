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

// Package ast declares the types used to represent syntax trees for Candid
// service descriptions and textual Candid values.
package ast

import (
	"strconv"

	"candidls.dev/go/candid/token"
)

// ----------------------------------------------------------------------------
// Interfaces
//
// There are three main classes of nodes: declarations, type expressions and
// values. The node names usually match the corresponding Candid grammar
// production names.
//
// All nodes contain position information marking the beginning and end of
// the corresponding source text segment. Nodes produced while recovering
// from a syntax error may end at the position where the parser gave up.

// A Node represents any node in the abstract syntax tree.
type Node interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// An Expr is implemented by all type expression nodes.
type Expr interface {
	Node
	exprNode()
}

func (*BadExpr) exprNode()     {}
func (*Ident) exprNode()       {}
func (*OptType) exprNode()     {}
func (*VecType) exprNode()     {}
func (*BlobType) exprNode()    {}
func (*RecordType) exprNode()  {}
func (*VariantType) exprNode() {}
func (*FuncType) exprNode()    {}
func (*ServiceType) exprNode() {}

// A Decl node is implemented by all declarations.
type Decl interface {
	Node
	declNode()
}

func (*BadDecl) declNode()     {}
func (*ImportDecl) declNode()  {}
func (*TypeDecl) declNode()    {}
func (*ServiceDecl) declNode() {}
func (*ArgsDecl) declNode()    {}

// A Value is implemented by all textual value nodes.
type Value interface {
	Node
	valueNode()
}

func (*BadValue) valueNode()     {}
func (*LitValue) valueNode()     {}
func (*OptValue) valueNode()     {}
func (*VecValue) valueNode()     {}
func (*RecordValue) valueNode()  {}
func (*VariantValue) valueNode() {}
func (*RefValue) valueNode()     {}
func (*ParenValue) valueNode()   {}

// endOf returns the position after a closing token at p, or fallback if the
// token was missing.
func endOf(p, fallback token.Pos) token.Pos {
	if p.IsValid() {
		return p.Add(1)
	}
	return fallback
}

// ----------------------------------------------------------------------------
// Files

// A File node represents a Candid source file.
type File struct {
	Filename string
	Decls    []Decl // top-level declarations; or nil

	// Comments lists the spans of all comments in source order.
	Comments []token.Span

	file *token.File
	size int
}

// NewFile returns a File for the given token file. Parsers set the
// declarations afterwards.
func NewFile(tf *token.File) *File {
	return &File{Filename: tf.Name(), file: tf, size: tf.Size()}
}

// TokenFile returns the token file holding the line table of f.
func (f *File) TokenFile() *token.File { return f.file }

func (f *File) Pos() token.Pos {
	if f.file == nil {
		return token.NoPos
	}
	return f.file.Pos(0)
}

func (f *File) End() token.Pos {
	if f.file == nil {
		return token.NoPos
	}
	return f.file.Pos(f.size)
}

// ----------------------------------------------------------------------------
// Identifiers, literals and labels

// An Ident node represents an identifier.
type Ident struct {
	NamePos token.Pos
	Name    string
}

func (x *Ident) Pos() token.Pos { return x.NamePos }
func (x *Ident) End() token.Pos { return x.NamePos.Add(len(x.Name)) }

// NewIdent creates a new Ident without position.
func NewIdent(name string) *Ident { return &Ident{Name: name} }

// A BasicLit node represents a literal of basic type.
type BasicLit struct {
	ValuePos token.Pos   // literal position
	Kind     token.Token // NAT, INT, FLOAT, STRING, TRUE, FALSE or NULL
	Value    string      // literal string as it appears in the source
}

func (x *BasicLit) Pos() token.Pos { return x.ValuePos }
func (x *BasicLit) End() token.Pos { return x.ValuePos.Add(len(x.Value)) }

// A Label is the label of a record field, variant tag or service method.
// Kind is IDENT, STRING or NAT.
type Label struct {
	LabelPos token.Pos
	Kind     token.Token
	Raw      string // as written in the source
}

func (x *Label) Pos() token.Pos { return x.LabelPos }
func (x *Label) End() token.Pos { return x.LabelPos.Add(len(x.Raw)) }

// Name returns the label name with quotes removed. For numeric labels it
// returns the digits.
func (x *Label) Name() string {
	if x.Kind == token.STRING {
		if s, err := strconv.Unquote(x.Raw); err == nil {
			return s
		}
		if len(x.Raw) >= 2 {
			return x.Raw[1 : len(x.Raw)-1]
		}
	}
	return x.Raw
}

// ----------------------------------------------------------------------------
// Type expressions

// A BadExpr node is a placeholder for a type expression containing
// syntax errors for which a correct node cannot be created.
type BadExpr struct {
	From, To token.Pos // position range of bad expression
}

func (x *BadExpr) Pos() token.Pos { return x.From }
func (x *BadExpr) End() token.Pos { return x.To }

// An OptType represents opt T.
type OptType struct {
	Opt  token.Pos
	Elem Expr
}

func (x *OptType) Pos() token.Pos { return x.Opt }
func (x *OptType) End() token.Pos { return x.Elem.End() }

// A VecType represents vec T.
type VecType struct {
	Vec  token.Pos
	Elem Expr
}

func (x *VecType) Pos() token.Pos { return x.Vec }
func (x *VecType) End() token.Pos { return x.Elem.End() }

// A BlobType represents blob, shorthand for vec nat8.
type BlobType struct {
	Blob token.Pos
}

func (x *BlobType) Pos() token.Pos { return x.Blob }
func (x *BlobType) End() token.Pos { return x.Blob.Add(len("blob")) }

// A Field is a record field or variant tag. Label is nil for positional
// record fields; Type is nil for variant tags without a payload.
type Field struct {
	Doc   string
	Label *Label
	Colon token.Pos
	Type  Expr
}

func (x *Field) Pos() token.Pos {
	if x.Label != nil {
		return x.Label.Pos()
	}
	return x.Type.Pos()
}

func (x *Field) End() token.Pos {
	if x.Type != nil {
		return x.Type.End()
	}
	if x.Colon.IsValid() {
		return x.Colon.Add(1)
	}
	return x.Label.End()
}

// A RecordType represents record { fields }.
type RecordType struct {
	Record token.Pos
	Lbrace token.Pos
	Fields []*Field
	Rbrace token.Pos // invalid if the record was not closed
	To     token.Pos // end of the node when Rbrace is missing
}

func (x *RecordType) Pos() token.Pos { return x.Record }
func (x *RecordType) End() token.Pos { return endOf(x.Rbrace, x.To) }

// A VariantType represents variant { tags }.
type VariantType struct {
	Variant token.Pos
	Lbrace  token.Pos
	Fields  []*Field
	Rbrace  token.Pos
	To      token.Pos
}

func (x *VariantType) Pos() token.Pos { return x.Variant }
func (x *VariantType) End() token.Pos { return endOf(x.Rbrace, x.To) }

// An ArgType is an element of a function argument or result tuple,
// optionally named.
type ArgType struct {
	Name  *Ident // or nil
	Colon token.Pos
	Type  Expr
}

func (x *ArgType) Pos() token.Pos {
	if x.Name != nil {
		return x.Name.Pos()
	}
	return x.Type.Pos()
}
func (x *ArgType) End() token.Pos { return x.Type.End() }

// A TupleType is a parenthesized list of argument types.
type TupleType struct {
	Lparen token.Pos
	Args   []*ArgType
	Rparen token.Pos
	To     token.Pos
}

func (x *TupleType) Pos() token.Pos { return x.Lparen }
func (x *TupleType) End() token.Pos { return endOf(x.Rparen, x.To) }

// A FuncType represents func (args) -> (results) mode. Func is invalid
// for method signatures, which omit the keyword.
type FuncType struct {
	Func    token.Pos
	Args    *TupleType
	Arrow   token.Pos
	Results *TupleType
	Modes   []*Ident // query, oneway, composite_query
}

func (x *FuncType) Pos() token.Pos {
	if x.Func.IsValid() {
		return x.Func
	}
	return x.Args.Pos()
}

func (x *FuncType) End() token.Pos {
	if n := len(x.Modes); n > 0 {
		return x.Modes[n-1].End()
	}
	if x.Results != nil {
		return x.Results.End()
	}
	if x.Arrow.IsValid() {
		return x.Arrow.Add(2)
	}
	return x.Args.End()
}

// A Method is a service method declaration. Type is a *FuncType or an
// *Ident naming a function type.
type Method struct {
	Doc   string
	Name  *Label
	Colon token.Pos
	Type  Expr // or nil if missing
}

func (x *Method) Pos() token.Pos { return x.Name.Pos() }
func (x *Method) End() token.Pos {
	if x.Type != nil {
		return x.Type.End()
	}
	if x.Colon.IsValid() {
		return x.Colon.Add(1)
	}
	return x.Name.End()
}

// A ServiceType represents service { methods }. Service is invalid for
// the body of a service declaration.
type ServiceType struct {
	Service token.Pos
	Lbrace  token.Pos
	Methods []*Method
	Rbrace  token.Pos
	To      token.Pos
}

func (x *ServiceType) Pos() token.Pos {
	if x.Service.IsValid() {
		return x.Service
	}
	return x.Lbrace
}
func (x *ServiceType) End() token.Pos { return endOf(x.Rbrace, x.To) }

// ----------------------------------------------------------------------------
// Declarations

// A BadDecl node is a placeholder for declarations containing
// syntax errors for which no correct declaration nodes can be
// created.
type BadDecl struct {
	From, To token.Pos // position range of bad declaration
}

func (x *BadDecl) Pos() token.Pos { return x.From }
func (x *BadDecl) End() token.Pos { return x.To }

// An ImportDecl represents import "path"; or import service "path";.
type ImportDecl struct {
	Import  token.Pos
	Service bool
	Path    *BasicLit // or nil if missing
	To      token.Pos
}

func (x *ImportDecl) Pos() token.Pos { return x.Import }
func (x *ImportDecl) End() token.Pos { return x.To }

// A TypeDecl represents type Name = Value;.
type TypeDecl struct {
	Doc    string
	Type   token.Pos
	Name   *Ident
	Assign token.Pos
	Value  Expr
	To     token.Pos
}

func (x *TypeDecl) Pos() token.Pos { return x.Type }
func (x *TypeDecl) End() token.Pos { return x.To }

// A ServiceDecl represents service [Name] : [Args ->] Body;. Body is a
// *ServiceType or an *Ident naming one.
type ServiceDecl struct {
	Doc     string
	Service token.Pos
	Name    *Ident     // or nil
	Args    *TupleType // class arguments; or nil
	Body    Expr
	To      token.Pos
}

func (x *ServiceDecl) Pos() token.Pos { return x.Service }
func (x *ServiceDecl) End() token.Pos { return x.To }

// An ArgsDecl represents a top-level textual argument block
// ( annval, ... ).
type ArgsDecl struct {
	Lparen token.Pos
	Args   []*AnnotatedValue
	Rparen token.Pos
	To     token.Pos
}

func (x *ArgsDecl) Pos() token.Pos { return x.Lparen }
func (x *ArgsDecl) End() token.Pos { return endOf(x.Rparen, x.To) }

// ----------------------------------------------------------------------------
// Values

// An AnnotatedValue is a value with an optional type annotation.
type AnnotatedValue struct {
	Value Value
	Colon token.Pos
	Type  Expr // or nil
}

func (x *AnnotatedValue) Pos() token.Pos { return x.Value.Pos() }
func (x *AnnotatedValue) End() token.Pos {
	if x.Type != nil {
		return x.Type.End()
	}
	return x.Value.End()
}

// A BadValue node is a placeholder for a malformed value.
type BadValue struct {
	From, To token.Pos
}

func (x *BadValue) Pos() token.Pos { return x.From }
func (x *BadValue) End() token.Pos { return x.To }

// A LitValue is a number, text, bool or null literal.
type LitValue struct {
	Lit *BasicLit
}

func (x *LitValue) Pos() token.Pos { return x.Lit.Pos() }
func (x *LitValue) End() token.Pos { return x.Lit.End() }

// An OptValue represents opt v.
type OptValue struct {
	Opt  token.Pos
	Elem Value
}

func (x *OptValue) Pos() token.Pos { return x.Opt }
func (x *OptValue) End() token.Pos { return x.Elem.End() }

// A VecValue represents vec { v; ... }.
type VecValue struct {
	Vec    token.Pos
	Lbrace token.Pos
	Elems  []Value
	Rbrace token.Pos
	To     token.Pos
}

func (x *VecValue) Pos() token.Pos { return x.Vec }
func (x *VecValue) End() token.Pos { return endOf(x.Rbrace, x.To) }

// A FieldValue is a record field or variant tag in a value. Label is nil
// for positional fields; Value is nil for a bare variant tag.
type FieldValue struct {
	Label  *Label
	Assign token.Pos
	Value  Value
}

func (x *FieldValue) Pos() token.Pos {
	if x.Label != nil {
		return x.Label.Pos()
	}
	return x.Value.Pos()
}

func (x *FieldValue) End() token.Pos {
	if x.Value != nil {
		return x.Value.End()
	}
	if x.Assign.IsValid() {
		return x.Assign.Add(1)
	}
	return x.Label.End()
}

// A RecordValue represents record { field; ... }.
type RecordValue struct {
	Record token.Pos
	Lbrace token.Pos
	Fields []*FieldValue
	Rbrace token.Pos
	To     token.Pos
}

func (x *RecordValue) Pos() token.Pos { return x.Record }
func (x *RecordValue) End() token.Pos { return endOf(x.Rbrace, x.To) }

// A VariantValue represents variant { tag [= v] }.
type VariantValue struct {
	Variant token.Pos
	Lbrace  token.Pos
	Field   *FieldValue // or nil while being edited
	Rbrace  token.Pos
	To      token.Pos
}

func (x *VariantValue) Pos() token.Pos { return x.Variant }
func (x *VariantValue) End() token.Pos { return endOf(x.Rbrace, x.To) }

// A RefValue is a reference literal: principal "id", blob "bytes",
// service "id" or func "id".method.
type RefValue struct {
	KindPos token.Pos
	Kind    token.Token // PRINCIPAL, BLOB, SERVICE or FUNC
	Lit     *BasicLit   // or nil if missing
	Method  *Label      // func references only
}

func (x *RefValue) Pos() token.Pos { return x.KindPos }
func (x *RefValue) End() token.Pos {
	switch {
	case x.Method != nil:
		return x.Method.End()
	case x.Lit != nil:
		return x.Lit.End()
	}
	return x.KindPos.Add(len(x.Kind.String()))
}

// A ParenValue is a parenthesized annotated value.
type ParenValue struct {
	Lparen token.Pos
	X      *AnnotatedValue
	Rparen token.Pos
	To     token.Pos
}

func (x *ParenValue) Pos() token.Pos { return x.Lparen }
func (x *ParenValue) End() token.Pos { return endOf(x.Rparen, x.To) }
