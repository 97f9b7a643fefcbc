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
	"testing"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/candid/ast"
)

func TestParseDecls(t *testing.T) {
	src := `
import "other.did";
import service "ledger.did";

// A person.
// Second line.
type Person = record {
	name : text;
	// Age in years.
	age : nat8;
	"quoted label" : opt Person;
	0 : blob;
};
type Result = variant { ok : Person; err : text; pending };
type Pair = record { nat; text };
type Cb = func (nat) -> () oneway;

service : (init : text) -> {
	get : (id : nat) -> (opt Person) query;
	put : (Person) -> (Result);
	notify : Cb;
}
`
	f, err := ParseFile("people.did", src)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(f.Decls, 7))

	imp := f.Decls[1].(*ast.ImportDecl)
	qt.Check(t, qt.IsTrue(imp.Service))
	qt.Check(t, qt.Equals(imp.Path.Value, `"ledger.did"`))

	person := f.Decls[2].(*ast.TypeDecl)
	qt.Check(t, qt.Equals(person.Name.Name, "Person"))
	qt.Check(t, qt.Equals(person.Doc, "A person.\nSecond line."))
	rec := person.Value.(*ast.RecordType)
	qt.Assert(t, qt.HasLen(rec.Fields, 4))
	qt.Check(t, qt.Equals(rec.Fields[1].Doc, "Age in years."))
	qt.Check(t, qt.Equals(rec.Fields[2].Label.Name(), "quoted label"))
	qt.Check(t, qt.Equals(rec.Fields[3].Label.Name(), "0"))
	_, isBlob := rec.Fields[3].Type.(*ast.BlobType)
	qt.Check(t, qt.IsTrue(isBlob))

	res := f.Decls[3].(*ast.TypeDecl).Value.(*ast.VariantType)
	qt.Assert(t, qt.HasLen(res.Fields, 3))
	qt.Check(t, qt.IsNil(res.Fields[2].Type))

	pair := f.Decls[4].(*ast.TypeDecl).Value.(*ast.RecordType)
	qt.Check(t, qt.IsNil(pair.Fields[0].Label))
	qt.Check(t, qt.Equals(pair.Fields[0].Type.(*ast.Ident).Name, "nat"))

	cb := f.Decls[5].(*ast.TypeDecl).Value.(*ast.FuncType)
	qt.Check(t, qt.HasLen(cb.Results.Args, 0))
	qt.Check(t, qt.Equals(cb.Modes[0].Name, "oneway"))

	svc := f.Decls[6].(*ast.ServiceDecl)
	qt.Check(t, qt.Equals(svc.Args.Args[0].Name.Name, "init"))
	body := svc.Body.(*ast.ServiceType)
	qt.Assert(t, qt.HasLen(body.Methods, 3))
	get := body.Methods[0].Type.(*ast.FuncType)
	qt.Check(t, qt.Equals(get.Args.Args[0].Name.Name, "id"))
	qt.Check(t, qt.Equals(get.Modes[0].Name, "query"))
	qt.Check(t, qt.Equals(body.Methods[2].Type.(*ast.Ident).Name, "Cb"))
}

func TestParseRecovery(t *testing.T) {
	testCases := []struct {
		name  string
		src   string
		decls int
		errs  int
		check func(t *testing.T, f *ast.File)
	}{{
		name:  "MissingTypeThenGoodDecl",
		src:   "type A = ;\ntype B = nat;",
		decls: 2,
		errs:  1,
		check: func(t *testing.T, f *ast.File) {
			_, bad := f.Decls[0].(*ast.TypeDecl).Value.(*ast.BadExpr)
			qt.Check(t, qt.IsTrue(bad))
			qt.Check(t, qt.Equals(f.Decls[1].(*ast.TypeDecl).Name.Name, "B"))
		},
	}, {
		name:  "UnclosedRecord",
		src:   "type A = record { a : nat;\ntype B = text;",
		decls: 2,
		errs:  1,
		check: func(t *testing.T, f *ast.File) {
			rec := f.Decls[0].(*ast.TypeDecl).Value.(*ast.RecordType)
			qt.Check(t, qt.HasLen(rec.Fields, 1))
			qt.Check(t, qt.IsFalse(rec.Rbrace.IsValid()))
		},
	}, {
		name:  "GarbageBetweenDecls",
		src:   "type A = nat;\n= = ;\ntype B = A;",
		decls: 3,
		errs:  1,
		check: func(t *testing.T, f *ast.File) {
			_, bad := f.Decls[1].(*ast.BadDecl)
			qt.Check(t, qt.IsTrue(bad))
		},
	}, {
		name:  "BadFieldKeepsOthers",
		src:   "type A = record { a : nat; = ; c : text };",
		decls: 1,
		errs:  1,
		check: func(t *testing.T, f *ast.File) {
			rec := f.Decls[0].(*ast.TypeDecl).Value.(*ast.RecordType)
			qt.Assert(t, qt.HasLen(rec.Fields, 2))
			qt.Check(t, qt.Equals(rec.Fields[1].Label.Name(), "c"))
		},
	}, {
		name:  "PrimitiveRedefinition",
		src:   "type nat = int;",
		decls: 1,
		errs:  1,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFile("recover.did", tc.src)
			qt.Assert(t, qt.IsNotNil(f))
			qt.Check(t, qt.HasLen(f.Decls, tc.decls))
			qt.Check(t, qt.HasLen(Errors(err), tc.errs), qt.Commentf("%v", err))
			if tc.check != nil {
				tc.check(t, f)
			}
		})
	}
}

func TestParseValues(t *testing.T) {
	src := `type T = record { a : nat; b : opt text };
(record { a = 1; b = opt "x" } : T, variant { ok }, vec { 1; 2 }, principal "aaaaa-aa", func "aaaaa-aa".greet)`
	f, err := ParseFile("values.did", src)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(f.Decls, 2))
	args := f.Decls[1].(*ast.ArgsDecl)
	qt.Assert(t, qt.HasLen(args.Args, 5))

	rv := args.Args[0].Value.(*ast.RecordValue)
	qt.Check(t, qt.HasLen(rv.Fields, 2))
	qt.Check(t, qt.Equals(rv.Fields[0].Label.Name(), "a"))
	qt.Check(t, qt.Equals(args.Args[0].Type.(*ast.Ident).Name, "T"))

	vv := args.Args[1].Value.(*ast.VariantValue)
	qt.Check(t, qt.Equals(vv.Field.Label.Name(), "ok"))
	qt.Check(t, qt.IsNil(vv.Field.Value))

	qt.Check(t, qt.HasLen(args.Args[2].Value.(*ast.VecValue).Elems, 2))
	fn := args.Args[4].Value.(*ast.RefValue)
	qt.Check(t, qt.Equals(fn.Method.Name(), "greet"))
}

func TestParseIncompleteValue(t *testing.T) {
	src := "type T = record { a : nat; b : opt text };\n(record { a = 1; } : T)"
	f, err := ParseFile("partial.did", src)
	qt.Assert(t, qt.IsNil(err))
	rv := f.Decls[1].(*ast.ArgsDecl).Args[0].Value.(*ast.RecordValue)
	qt.Check(t, qt.HasLen(rv.Fields, 1))

	src = "(record { a"
	f, err = ParseFile("partial.did", src)
	qt.Check(t, qt.IsNotNil(err))
	rv = f.Decls[0].(*ast.ArgsDecl).Args[0].Value.(*ast.RecordValue)
	qt.Assert(t, qt.HasLen(rv.Fields, 1))
	qt.Check(t, qt.Equals(rv.Fields[0].Label.Name(), "a"))
}

func TestPathAt(t *testing.T) {
	src := "type T = record { a : nat; b : text };"
	f, err := ParseFile("path.did", src)
	qt.Assert(t, qt.IsNil(err))

	// Offset 25 is just after "nat" in field a.
	path := ast.PathAt(f, 25)
	_, isIdent := path[len(path)-1].(*ast.Ident)
	qt.Check(t, qt.IsTrue(isIdent))

	// Inside the braces but outside any field.
	path = ast.PathAt(f, 37)
	_, isRecord := path[len(path)-1].(*ast.RecordType)
	qt.Check(t, qt.IsTrue(isRecord))
}
