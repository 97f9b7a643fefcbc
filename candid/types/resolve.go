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

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/token"
)

// An Import is an import declaration. Imported files are not followed.
type Import struct {
	Path    string
	Service bool
	Span    token.Span
}

// TypeOf returns the type that the type expression x resolved to.
func (t *Table) TypeOf(x ast.Expr) (ID, bool) {
	id, ok := t.exprs[x]
	return id, ok
}

// Actor returns the type of the service declared by the file, if any.
func (t *Table) Actor() (ID, bool) { return t.service, t.hasActor }

// InitArgs returns the class arguments of the declared service.
func (t *Table) InitArgs() []Param { return t.init }

// Imports returns the import declarations in source order.
func (t *Table) Imports() []Import { return t.imports }

type resolver struct {
	t      *Table
	errs   errors.List
	defs   map[string]*ast.TypeDecl
	checks []func()
}

func (r *resolver) errf(n ast.Node, format string, args ...any) {
	r.errs.Add(errors.NewRangef(n.Pos(), n.End(), format, args...))
}

// Resolve builds the type table of a parsed file. Unbound names resolve to
// the error sentinel and are reported, as are duplicate definitions,
// malformed labels and definitions that refer to themselves without a type
// constructor. Resolve never fails; the returned table is always usable.
func Resolve(f *ast.File) (*Table, errors.List) {
	r := &resolver{t: NewTable(), defs: map[string]*ast.TypeDecl{}}
	r.t.service = ID(Unknown)

	var decls []*ast.TypeDecl
	for _, d := range f.Decls {
		td, ok := d.(*ast.TypeDecl)
		if !ok || td.Name == nil || td.Name.Name == "" {
			continue
		}
		if _, dup := r.defs[td.Name.Name]; dup {
			r.errf(td.Name, "duplicate type definition %s", td.Name.Name)
			continue
		}
		r.defs[td.Name.Name] = td
		decls = append(decls, td)
	}
	for _, td := range decls {
		r.t.Define(td.Name.Name, r.expr(td.Value))
		r.t.docs[td.Name.Name] = td.Doc
	}

	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			if d.Value != nil && (d.Name == nil || r.defs[d.Name.Name] != d) {
				// Still resolve duplicates and anonymous declarations so
				// their references are checked.
				r.expr(d.Value)
			}
		case *ast.ImportDecl:
			if d.Path == nil {
				continue
			}
			path, err := strconv.Unquote(d.Path.Value)
			if err != nil {
				r.errf(d.Path, "invalid import path %s", d.Path.Value)
				continue
			}
			r.t.imports = append(r.t.imports, Import{
				Path:    path,
				Service: d.Service,
				Span:    token.Span{Start: d.Pos().Offset(), End: d.End().Offset()},
			})
		case *ast.ServiceDecl:
			r.serviceDecl(d)
		case *ast.ArgsDecl:
			ast.Walk(d, func(n ast.Node) bool {
				if v, ok := n.(*ast.AnnotatedValue); ok && v.Type != nil {
					r.expr(v.Type)
				}
				return true
			}, nil)
		}
	}

	r.checkCycles()
	for _, check := range r.checks {
		check()
	}
	r.errs.Sort()
	return r.t, r.errs
}

func (r *resolver) serviceDecl(d *ast.ServiceDecl) {
	if r.t.hasActor {
		r.errf(d, "duplicate service declaration")
		return
	}
	r.t.hasActor = true
	if d.Args != nil {
		r.t.init = r.tuple(d.Args)
	}
	if d.Body == nil {
		return
	}
	body := r.expr(d.Body)
	r.t.service = body
	r.checks = append(r.checks, func() {
		if k := r.t.Kind(r.t.Unfold(body)); k != Service && k != Unknown {
			r.errf(d.Body, "service declaration must have a service type, found %s", r.t.String(body))
		}
	})
}

// checkCycles reports definitions that only alias each other.
func (r *resolver) checkCycles() {
	t := r.t
	for _, name := range t.order {
		id := t.env[name]
		seen := map[string]bool{}
		for t.Kind(id) == Var {
			next := t.Name(id)
			if next == name {
				td := r.defs[name]
				r.errf(td.Name, "type %s is defined in terms of itself without a type constructor", name)
				break
			}
			if seen[next] {
				break
			}
			seen[next] = true
			id = t.env[next]
		}
	}
}

func (r *resolver) expr(x ast.Expr) ID {
	if x == nil {
		return ID(Unknown)
	}
	id := r.expr0(x)
	r.t.exprs[x] = id
	return id
}

func (r *resolver) expr0(x ast.Expr) ID {
	t := r.t
	switch x := x.(type) {
	case *ast.Ident:
		if k, ok := PrimKind(x.Name); ok {
			return t.Prim(k)
		}
		if x.Name == "" {
			// already reported by the parser
			return ID(Unknown)
		}
		if _, ok := r.defs[x.Name]; ok {
			return t.Var(x.Name)
		}
		r.errf(x, "unbound type identifier %s", x.Name)
		return ID(Unknown)

	case *ast.BadExpr:
		return ID(Unknown)

	case *ast.OptType:
		return t.Opt(r.expr(x.Elem))

	case *ast.VecType:
		return t.Vec(r.expr(x.Elem))

	case *ast.BlobType:
		return t.Blob()

	case *ast.RecordType:
		return t.Record(r.fields(x.Fields, true))

	case *ast.VariantType:
		return t.Variant(r.fields(x.Fields, false))

	case *ast.FuncType:
		return t.Func(r.signature(x))

	case *ast.ServiceType:
		return t.Service(r.methods(x.Methods))
	}
	return ID(Unknown)
}

func (r *resolver) fields(list []*ast.Field, record bool) []Field {
	var fields []Field
	seen := map[uint32]*ast.Field{}
	next := uint32(0)
	for _, f := range list {
		var label Label
		switch {
		case f.Label == nil:
			label = Label{Kind: Positional, ID: next}
		case f.Label.Kind == token.NAT:
			n, err := strconv.ParseUint(f.Label.Raw, 10, 32)
			if err != nil {
				r.errf(f.Label, "field id %s out of range", f.Label.Raw)
				continue
			}
			label = IDLabel(uint32(n))
		default:
			label = NamedLabel(f.Label.Name())
		}
		next = label.ID + 1

		if prev, dup := seen[label.ID]; dup {
			var n ast.Node = f.Type
			if f.Label != nil {
				n = f.Label
			}
			if prev.Label != nil && f.Label != nil && prev.Label.Name() != f.Label.Name() {
				r.errf(n, "label %s has the same hash as %s", f.Label.Name(), prev.Label.Name())
			} else {
				r.errf(n, "duplicate field %s", label)
			}
			continue
		}
		seen[label.ID] = f

		typ := ID(Null)
		switch {
		case f.Type != nil:
			typ = r.expr(f.Type)
		case record:
			typ = ID(Unknown)
		}
		fields = append(fields, Field{Label: label, Type: typ, Doc: f.Doc})
	}
	return fields
}

func (r *resolver) tuple(x *ast.TupleType) []Param {
	if x == nil {
		return nil
	}
	params := make([]Param, 0, len(x.Args))
	for _, a := range x.Args {
		p := Param{Type: r.expr(a.Type)}
		if a.Name != nil {
			p.Name = a.Name.Name
		}
		params = append(params, p)
	}
	return params
}

func (r *resolver) signature(x *ast.FuncType) Signature {
	sig := Signature{Args: r.tuple(x.Args), Results: r.tuple(x.Results)}
	for i, m := range x.Modes {
		var mode Mode
		switch m.Name {
		case "query":
			mode = Query
		case "oneway":
			mode = Oneway
		case "composite_query":
			mode = CompositeQuery
		}
		if i > 0 && mode != sig.Mode {
			r.errf(m, "conflicting function annotations %s and %s", sig.Mode, mode)
			continue
		}
		sig.Mode = mode
	}
	if sig.Mode == Oneway && len(sig.Results) > 0 {
		r.errf(x, "oneway function must not have results")
	}
	return sig
}

func (r *resolver) methods(list []*ast.Method) []Method {
	var methods []Method
	seen := map[string]bool{}
	for _, m := range list {
		name := m.Name.Name()
		if seen[name] {
			r.errf(m.Name, "duplicate method %s", name)
			continue
		}
		seen[name] = true
		typ := r.expr(m.Type)
		methods = append(methods, Method{Name: name, Type: typ, Doc: m.Doc})
		if m.Type == nil {
			continue
		}
		mt := m.Type
		r.checks = append(r.checks, func() {
			if k := r.t.Kind(r.t.Unfold(typ)); k != Func && k != Unknown {
				r.errf(mt, "method %s must have a function type, found %s", name, r.t.String(typ))
			}
		})
	}
	return methods
}
