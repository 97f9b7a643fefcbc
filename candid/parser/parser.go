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

package parser

import (
	"strings"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/scanner"
	"candidls.dev/go/candid/token"
)

// The parser structure holds the parser's internal state.
type parser struct {
	file    *token.File
	src     []byte
	errors  errors.List
	scanner scanner.Scanner
	mode    mode

	// Next token
	pos token.Pos   // token position
	tok token.Token // one token look-ahead
	lit string      // token literal

	// prevEnd is the position immediately after the last consumed token.
	prevEnd token.Pos
}

func (p *parser) init(filename string, src []byte, opts []Option) {
	p.file = token.NewFile(filename, len(src))
	p.src = src
	for _, f := range opts {
		f(p)
	}
	var m scanner.Mode
	if p.mode&parseCommentsMode != 0 {
		m = scanner.ScanComments
	}
	eh := func(pos token.Pos, msg string, args []any) {
		p.errors.AddNewf(pos, msg, args...)
	}
	p.scanner.Init(p.file, src, eh, m)
	p.next()
}

// next advances to the next non-comment token.
func (p *parser) next() {
	if p.pos.IsValid() {
		p.prevEnd = p.pos.Add(p.tokLen())
	} else {
		p.prevEnd = p.file.Pos(0)
	}
	p.pos, p.tok, p.lit = p.scanner.Scan()
	for p.tok == token.COMMENT {
		p.pos, p.tok, p.lit = p.scanner.Scan()
	}
}

func (p *parser) tokLen() int {
	if p.lit != "" {
		return len(p.lit)
	}
	if p.tok == token.EOF {
		return 0
	}
	return len(p.tok.String())
}

// ----------------------------------------------------------------------------
// Error handling

func (p *parser) errf(pos token.Pos, msg string, args ...any) {
	// If AllErrors is not set, discard errors reported on the same line
	// as the last recorded error.
	if p.mode&allErrorsMode == 0 {
		n := len(p.errors)
		if n > 0 && p.errors[n-1].Position().Line() == pos.Line() {
			return // discard - likely a spurious error
		}
	}
	p.errors.AddNewf(pos, msg, args...)
}

func (p *parser) errorExpected(pos token.Pos, obj string) {
	if pos != p.pos {
		p.errf(pos, "expected %s", obj)
		return
	}
	// the error happened at the current position;
	// make the error message more specific
	switch {
	case p.tok == token.EOF:
		p.errf(pos, "expected %s, found end of file", obj)
	case p.tok.IsLiteral():
		p.errf(pos, "expected %s, found %s", obj, p.lit)
	default:
		p.errf(pos, "expected %s, found '%s'", obj, p.tok)
	}
}

// expect consumes tok if it is the current token and reports an error
// otherwise. Unlike a consuming expect, a mismatch leaves the current token
// in place so that callers can resynchronize on it.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
		return token.NoPos
	}
	p.next()
	return pos
}

// got consumes tok if it is the current token and reports whether it did.
func (p *parser) got(tok token.Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// atDeclStart reports whether the current token can only start a new
// top-level declaration.
func (p *parser) atDeclStart() bool {
	return p.tok == token.TYPE || p.tok == token.IMPORT || p.tok == token.EOF
}

// syncDecl advances to the next declaration keyword. It is used after
// a declaration failed to parse.
func (p *parser) syncDecl() {
	depth := 0
	for !p.atDeclStart() {
		switch p.tok {
		case token.LBRACE, token.LPAREN:
			depth++
		case token.RBRACE, token.RPAREN:
			depth--
		case token.SERVICE:
			if depth <= 0 {
				return
			}
		case token.SEMI:
			if depth <= 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// syncList advances to the next separator or closing token of a list.
// It reports whether the separator was consumed.
func (p *parser) syncList(sep, closing token.Token) bool {
	depth := 0
	for !p.atDeclStart() {
		switch p.tok {
		case token.LBRACE, token.LPAREN:
			depth++
		case token.RBRACE, token.RPAREN:
			if depth == 0 {
				return false
			}
			depth--
		case sep:
			if depth == 0 {
				p.next()
				return true
			}
		}
		if depth == 0 && p.tok == closing {
			return false
		}
		p.next()
	}
	return false
}

// ----------------------------------------------------------------------------
// Doc comments

// docFor returns the text of the line comments immediately preceding the
// token at pos, with comment markers removed.
func (p *parser) docFor(pos token.Pos) string {
	comments := p.scanner.Comments
	end := pos.Offset()
	var lines []string
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if c.Span.End > end {
			continue
		}
		gap := string(p.src[c.Span.End:end])
		if strings.TrimSpace(gap) != "" || strings.Count(gap, "\n") > 1 {
			break
		}
		lines = append(lines, commentText(c.Text))
		end = c.Span.Start
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

func commentText(s string) string {
	switch {
	case strings.HasPrefix(s, "//"):
		s = strings.TrimPrefix(s, "//")
		s = strings.TrimPrefix(s, "/")
	case strings.HasPrefix(s, "/*"):
		s = strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
	}
	return strings.TrimSpace(s)
}

// ----------------------------------------------------------------------------
// Files

func (p *parser) parseFile() *ast.File {
	f := ast.NewFile(p.file)
	for p.tok != token.EOF {
		start := p.pos
		var d ast.Decl
		switch p.tok {
		case token.TYPE:
			d = p.parseTypeDecl()
		case token.IMPORT:
			d = p.parseImportDecl()
		case token.SERVICE:
			d = p.parseServiceDecl()
		case token.LPAREN:
			d = p.parseArgsDecl()
		case token.SEMI:
			p.next()
			continue
		default:
			p.errorExpected(p.pos, "declaration")
			p.next()
			p.syncDecl()
			d = &ast.BadDecl{From: start, To: p.prevEnd}
		}
		f.Decls = append(f.Decls, d)
		if p.pos == start {
			// Guarantee progress.
			p.next()
		}
	}
	for _, c := range p.scanner.Comments {
		f.Comments = append(f.Comments, c.Span)
	}
	return f
}

// declEnd consumes the terminating semicolon of a declaration, if present,
// and returns the end position of the declaration.
func (p *parser) declEnd(optional bool) token.Pos {
	if p.tok == token.SEMI {
		p.next()
		return p.prevEnd
	}
	if !optional {
		p.errorExpected(p.pos, "';'")
		if p.atDeclStart() || p.tok == token.SERVICE || p.tok == token.LPAREN {
			// An unterminated declaration runs up to the next one, so
			// that a cursor after it is still inside.
			return p.pos
		}
		p.syncDecl()
	}
	return p.prevEnd
}

func (p *parser) parseImportDecl() *ast.ImportDecl {
	d := &ast.ImportDecl{Import: p.pos}
	p.next()
	if p.got(token.SERVICE) {
		d.Service = true
	}
	if p.tok == token.STRING {
		d.Path = &ast.BasicLit{ValuePos: p.pos, Kind: token.STRING, Value: p.lit}
		p.next()
	} else {
		p.errorExpected(p.pos, "import path")
	}
	d.To = p.declEnd(false)
	return d
}

func (p *parser) parseTypeDecl() *ast.TypeDecl {
	d := &ast.TypeDecl{Doc: p.docFor(p.pos), Type: p.pos}
	p.next()
	d.Name = p.parseIdent()
	if d.Name.Name != "" && token.IsPrimitive(d.Name.Name) {
		p.errf(d.Name.Pos(), "cannot redefine primitive type %s", d.Name.Name)
	}
	d.Assign = p.expect(token.ASSIGN)
	d.Value = p.parseType()
	d.To = p.declEnd(false)
	return d
}

func (p *parser) parseServiceDecl() *ast.ServiceDecl {
	d := &ast.ServiceDecl{Doc: p.docFor(p.pos), Service: p.pos}
	p.next()
	if p.tok == token.IDENT {
		d.Name = p.parseIdent()
	}
	p.expect(token.COLON)
	if p.tok == token.LPAREN {
		d.Args = p.parseTuple()
		p.expect(token.ARROW)
	}
	switch p.tok {
	case token.LBRACE:
		d.Body = p.parseServiceBody(token.NoPos)
	case token.IDENT:
		d.Body = p.parseIdent()
	default:
		p.errorExpected(p.pos, "service type")
		d.Body = &ast.BadExpr{From: p.pos, To: p.pos}
	}
	d.To = p.declEnd(true)
	if d.Body != nil && d.Body.End().Offset() > d.To.Offset() {
		d.To = d.Body.End()
	}
	return d
}

func (p *parser) parseArgsDecl() *ast.ArgsDecl {
	d := &ast.ArgsDecl{Lparen: p.pos}
	p.next()
	for p.tok != token.RPAREN && !p.atDeclStart() {
		start := p.pos
		d.Args = append(d.Args, p.parseAnnotatedValue())
		if p.got(token.COMMA) {
			continue
		}
		if p.tok != token.RPAREN {
			p.errorExpected(p.pos, "',' or ')'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.COMMA, token.RPAREN) && p.tok != token.RPAREN {
				break
			}
		}
	}
	d.To = p.pos
	if p.tok == token.RPAREN {
		d.Rparen = p.pos
		p.next()
	} else {
		p.errorExpected(p.pos, "')'")
	}
	p.got(token.SEMI)
	return d
}

// ----------------------------------------------------------------------------
// Identifiers and labels

func (p *parser) parseIdent() *ast.Ident {
	pos := p.pos
	name := ""
	if p.tok == token.IDENT {
		name = p.lit
		p.next()
	} else {
		p.errorExpected(p.pos, "identifier")
	}
	return &ast.Ident{NamePos: pos, Name: name}
}

// parseLabel parses a field, tag or method label. It returns nil if the
// current token cannot be a label.
func (p *parser) parseLabel() *ast.Label {
	switch {
	case p.tok == token.IDENT, p.tok == token.STRING, p.tok == token.NAT:
	case p.tok.IsKeyword():
		p.errf(p.pos, "keyword %s cannot be used as a label; quote it", p.tok)
	default:
		return nil
	}
	l := &ast.Label{LabelPos: p.pos, Kind: p.tok, Raw: p.lit}
	if p.tok.IsKeyword() {
		l.Kind = token.IDENT
		l.Raw = p.tok.String()
	}
	p.next()
	return l
}

// ----------------------------------------------------------------------------
// Types

func (p *parser) atTypeStart() bool {
	switch p.tok {
	case token.IDENT, token.NULL, token.PRINCIPAL, token.OPT, token.VEC,
		token.BLOB, token.RECORD, token.VARIANT, token.FUNC, token.SERVICE:
		return true
	}
	return false
}

func (p *parser) parseType() ast.Expr {
	pos := p.pos
	switch p.tok {
	case token.IDENT:
		return p.parseIdent()
	case token.NULL, token.PRINCIPAL:
		x := &ast.Ident{NamePos: pos, Name: p.tok.String()}
		p.next()
		return x
	case token.OPT:
		p.next()
		return &ast.OptType{Opt: pos, Elem: p.parseType()}
	case token.VEC:
		p.next()
		return &ast.VecType{Vec: pos, Elem: p.parseType()}
	case token.BLOB:
		p.next()
		return &ast.BlobType{Blob: pos}
	case token.RECORD:
		p.next()
		lbrace, fields, rbrace, to := p.parseFields(true)
		return &ast.RecordType{Record: pos, Lbrace: lbrace, Fields: fields, Rbrace: rbrace, To: to}
	case token.VARIANT:
		p.next()
		lbrace, fields, rbrace, to := p.parseFields(false)
		return &ast.VariantType{Variant: pos, Lbrace: lbrace, Fields: fields, Rbrace: rbrace, To: to}
	case token.FUNC:
		p.next()
		return p.parseFuncSig(pos)
	case token.SERVICE:
		p.next()
		return p.parseServiceBody(pos)
	}
	p.errorExpected(pos, "type")
	to := pos
	switch p.tok {
	case token.SEMI, token.RBRACE, token.RPAREN, token.COMMA, token.EOF,
		token.TYPE, token.IMPORT:
		// leave the token for the enclosing production
	default:
		p.next()
		to = p.prevEnd
	}
	return &ast.BadExpr{From: pos, To: to}
}

// parseFields parses the braced field list of a record or variant type.
func (p *parser) parseFields(record bool) (lbrace token.Pos, fields []*ast.Field, rbrace, to token.Pos) {
	lbrace = p.expect(token.LBRACE)
	if !lbrace.IsValid() {
		return lbrace, nil, token.NoPos, p.prevEnd
	}
	for p.tok != token.RBRACE && !p.atDeclStart() {
		start := p.pos
		if f := p.parseField(record); f != nil {
			fields = append(fields, f)
		}
		if p.got(token.SEMI) {
			continue
		}
		if p.tok != token.RBRACE {
			p.errorExpected(p.pos, "';' or '}'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.SEMI, token.RBRACE) && p.tok != token.RBRACE {
				break
			}
		}
	}
	if p.tok == token.RBRACE {
		rbrace = p.pos
		p.next()
		return lbrace, fields, rbrace, p.prevEnd
	}
	p.errorExpected(p.pos, "'}'")
	return lbrace, fields, token.NoPos, p.pos
}

func (p *parser) parseField(record bool) *ast.Field {
	doc := p.docFor(p.pos)
	if record && p.atTypeStart() && p.tok != token.IDENT {
		// positional field
		return &ast.Field{Doc: doc, Type: p.parseType()}
	}
	label := p.parseLabel()
	if label == nil {
		p.errorExpected(p.pos, "field label")
		return nil
	}
	f := &ast.Field{Doc: doc, Label: label}
	if p.tok == token.COLON {
		f.Colon = p.pos
		p.next()
		f.Type = p.parseType()
		return f
	}
	if record {
		if label.Kind == token.IDENT {
			// positional field referring to a named type
			return &ast.Field{Doc: doc, Type: &ast.Ident{NamePos: label.LabelPos, Name: label.Raw}}
		}
		p.errorExpected(p.pos, "':'")
	}
	return f
}

// parseTuple parses a parenthesized argument or result list.
func (p *parser) parseTuple() *ast.TupleType {
	t := &ast.TupleType{Lparen: p.expect(token.LPAREN)}
	if !t.Lparen.IsValid() {
		t.To = p.prevEnd
		return t
	}
	for p.tok != token.RPAREN && !p.atDeclStart() {
		start := p.pos
		arg := &ast.ArgType{}
		if p.tok == token.IDENT {
			id := p.parseIdent()
			if p.tok == token.COLON {
				arg.Name = id
				arg.Colon = p.pos
				p.next()
				arg.Type = p.parseType()
			} else {
				arg.Type = id
			}
		} else {
			arg.Type = p.parseType()
		}
		t.Args = append(t.Args, arg)
		if p.got(token.COMMA) {
			continue
		}
		if p.tok != token.RPAREN {
			p.errorExpected(p.pos, "',' or ')'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.COMMA, token.RPAREN) && p.tok != token.RPAREN {
				break
			}
		}
	}
	if p.tok == token.RPAREN {
		t.Rparen = p.pos
		p.next()
		t.To = p.prevEnd
	} else {
		p.errorExpected(p.pos, "')'")
		t.To = p.pos
	}
	return t
}

// parseFuncSig parses the signature following func, or a method signature
// when funcPos is invalid.
func (p *parser) parseFuncSig(funcPos token.Pos) *ast.FuncType {
	f := &ast.FuncType{Func: funcPos}
	f.Args = p.parseTuple()
	if f.Arrow = p.expect(token.ARROW); f.Arrow.IsValid() {
		f.Results = p.parseTuple()
	}
	for p.tok == token.QUERY || p.tok == token.ONEWAY || p.tok == token.COMPOSITE_QUERY {
		f.Modes = append(f.Modes, &ast.Ident{NamePos: p.pos, Name: p.tok.String()})
		p.next()
	}
	return f
}

// parseServiceBody parses { methods }. servicePos is the position of the
// service keyword in a type expression, or invalid in a declaration.
func (p *parser) parseServiceBody(servicePos token.Pos) *ast.ServiceType {
	s := &ast.ServiceType{Service: servicePos, Lbrace: p.expect(token.LBRACE)}
	if !s.Lbrace.IsValid() {
		s.To = p.prevEnd
		return s
	}
	for p.tok != token.RBRACE && !p.atDeclStart() {
		start := p.pos
		if m := p.parseMethod(); m != nil {
			s.Methods = append(s.Methods, m)
		}
		if p.got(token.SEMI) {
			continue
		}
		if p.tok != token.RBRACE {
			p.errorExpected(p.pos, "';' or '}'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.SEMI, token.RBRACE) && p.tok != token.RBRACE {
				break
			}
		}
	}
	if p.tok == token.RBRACE {
		s.Rbrace = p.pos
		p.next()
		s.To = p.prevEnd
	} else {
		p.errorExpected(p.pos, "'}'")
		s.To = p.pos
	}
	return s
}

func (p *parser) parseMethod() *ast.Method {
	doc := p.docFor(p.pos)
	name := p.parseLabel()
	if name == nil {
		p.errorExpected(p.pos, "method name")
		return nil
	}
	m := &ast.Method{Doc: doc, Name: name}
	if m.Colon = p.expect(token.COLON); !m.Colon.IsValid() {
		return m
	}
	switch p.tok {
	case token.LPAREN:
		m.Type = p.parseFuncSig(token.NoPos)
	case token.IDENT:
		m.Type = p.parseIdent()
	default:
		p.errorExpected(p.pos, "method type")
	}
	return m
}

// ----------------------------------------------------------------------------
// Values

func (p *parser) parseAnnotatedValue() *ast.AnnotatedValue {
	v := &ast.AnnotatedValue{Value: p.parseValue()}
	if p.tok == token.COLON {
		v.Colon = p.pos
		p.next()
		v.Type = p.parseType()
	}
	return v
}

func (p *parser) parseValue() ast.Value {
	pos := p.pos
	switch p.tok {
	case token.NAT, token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE, token.NULL:
		lit := &ast.BasicLit{ValuePos: pos, Kind: p.tok, Value: p.lit}
		if lit.Value == "" {
			lit.Value = p.tok.String()
		}
		p.next()
		return &ast.LitValue{Lit: lit}
	case token.OPT:
		p.next()
		return &ast.OptValue{Opt: pos, Elem: p.parseValue()}
	case token.VEC:
		p.next()
		return p.parseVecValue(pos)
	case token.RECORD:
		p.next()
		return p.parseRecordValue(pos)
	case token.VARIANT:
		p.next()
		return p.parseVariantValue(pos)
	case token.PRINCIPAL, token.BLOB, token.SERVICE, token.FUNC:
		kind := p.tok
		p.next()
		r := &ast.RefValue{KindPos: pos, Kind: kind}
		if p.tok != token.STRING {
			p.errorExpected(p.pos, "text literal")
			return r
		}
		r.Lit = &ast.BasicLit{ValuePos: p.pos, Kind: token.STRING, Value: p.lit}
		p.next()
		if kind == token.FUNC && p.expect(token.PERIOD).IsValid() {
			r.Method = p.parseLabel()
			if r.Method == nil {
				p.errorExpected(p.pos, "method name")
			}
		}
		return r
	case token.LPAREN:
		p.next()
		v := &ast.ParenValue{Lparen: pos, X: p.parseAnnotatedValue()}
		if p.tok == token.RPAREN {
			v.Rparen = p.pos
			p.next()
			v.To = p.prevEnd
		} else {
			p.errorExpected(p.pos, "')'")
			v.To = p.pos
		}
		return v
	}
	p.errorExpected(pos, "value")
	to := pos
	switch p.tok {
	case token.SEMI, token.RBRACE, token.RPAREN, token.COMMA, token.EOF,
		token.TYPE, token.IMPORT, token.COLON:
	default:
		p.next()
		to = p.prevEnd
	}
	return &ast.BadValue{From: pos, To: to}
}

func (p *parser) parseVecValue(pos token.Pos) *ast.VecValue {
	v := &ast.VecValue{Vec: pos, Lbrace: p.expect(token.LBRACE)}
	if !v.Lbrace.IsValid() {
		v.To = p.prevEnd
		return v
	}
	for p.tok != token.RBRACE && !p.atDeclStart() {
		start := p.pos
		v.Elems = append(v.Elems, p.parseValue())
		if p.got(token.SEMI) {
			continue
		}
		if p.tok != token.RBRACE {
			p.errorExpected(p.pos, "';' or '}'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.SEMI, token.RBRACE) && p.tok != token.RBRACE {
				break
			}
		}
	}
	v.Rbrace, v.To = p.closeBrace()
	return v
}

func (p *parser) parseRecordValue(pos token.Pos) *ast.RecordValue {
	v := &ast.RecordValue{Record: pos, Lbrace: p.expect(token.LBRACE)}
	if !v.Lbrace.IsValid() {
		v.To = p.prevEnd
		return v
	}
	for p.tok != token.RBRACE && !p.atDeclStart() {
		start := p.pos
		if f := p.parseFieldValue(true); f != nil {
			v.Fields = append(v.Fields, f)
		}
		if p.got(token.SEMI) {
			continue
		}
		if p.tok != token.RBRACE {
			p.errorExpected(p.pos, "';' or '}'")
			if p.pos == start {
				p.next()
			}
			if !p.syncList(token.SEMI, token.RBRACE) && p.tok != token.RBRACE {
				break
			}
		}
	}
	v.Rbrace, v.To = p.closeBrace()
	return v
}

func (p *parser) parseVariantValue(pos token.Pos) *ast.VariantValue {
	v := &ast.VariantValue{Variant: pos, Lbrace: p.expect(token.LBRACE)}
	if !v.Lbrace.IsValid() {
		v.To = p.prevEnd
		return v
	}
	if p.tok != token.RBRACE {
		v.Field = p.parseFieldValue(false)
		p.got(token.SEMI)
	}
	v.Rbrace, v.To = p.closeBrace()
	return v
}

func (p *parser) closeBrace() (rbrace, to token.Pos) {
	if p.tok == token.RBRACE {
		rbrace = p.pos
		p.next()
		return rbrace, p.prevEnd
	}
	p.errorExpected(p.pos, "'}'")
	return rbrace, p.pos
}

// parseFieldValue parses label = value, a positional value (records only)
// or a bare tag (variants only).
func (p *parser) parseFieldValue(record bool) *ast.FieldValue {
	switch p.tok {
	case token.IDENT, token.NAT, token.STRING:
	default:
		if p.tok.IsKeyword() && !isValueKeyword(p.tok) {
			break
		}
		if !record {
			p.errorExpected(p.pos, "tag")
			return nil
		}
		return &ast.FieldValue{Value: p.parseValue()}
	}

	labelTok, labelPos, labelLit := p.tok, p.pos, p.lit
	label := p.parseLabel()
	if p.tok == token.ASSIGN {
		f := &ast.FieldValue{Label: label, Assign: p.pos}
		p.next()
		f.Value = p.parseValue()
		return f
	}
	switch {
	case !record:
		return &ast.FieldValue{Label: label}
	case labelTok == token.NAT || labelTok == token.STRING:
		// positional literal
		return &ast.FieldValue{Value: &ast.LitValue{Lit: &ast.BasicLit{
			ValuePos: labelPos, Kind: labelTok, Value: labelLit,
		}}}
	}
	p.errorExpected(p.pos, "'='")
	return &ast.FieldValue{Label: label}
}

func isValueKeyword(tok token.Token) bool {
	switch tok {
	case token.OPT, token.VEC, token.RECORD, token.VARIANT, token.PRINCIPAL,
		token.BLOB, token.SERVICE, token.FUNC, token.TRUE, token.FALSE, token.NULL:
		return true
	}
	return false
}
