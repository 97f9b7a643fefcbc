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
	"testing"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/errors"
	"candidls.dev/go/candid/parser"
)

func resolve(t *testing.T, src string) (*Table, errors.List) {
	t.Helper()
	f, err := parser.ParseFile("test.did", src)
	qt.Assert(t, qt.IsNil(err))
	return Resolve(f)
}

func mustResolve(t *testing.T, src string) *Table {
	t.Helper()
	tab, errs := resolve(t, src)
	qt.Assert(t, qt.HasLen(errs, 0), qt.Commentf("%v", errs))
	return tab
}

func named(t *testing.T, tab *Table, name string) ID {
	t.Helper()
	id, ok := tab.Lookup(name)
	qt.Assert(t, qt.IsTrue(ok), qt.Commentf("type %s not defined", name))
	return id
}

func TestHash(t *testing.T) {
	testCases := []struct {
		label string
		want  uint32
	}{
		{"", 0},
		{"a", 97},
		{"foo", 5097222},
		{"bar", 4895187},
		{"name", 1224700491},
	}
	for _, tc := range testCases {
		qt.Check(t, qt.Equals(Hash(tc.label), tc.want), qt.Commentf("%q", tc.label))
	}
}

func TestResolveErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{{
		name: "Unbound",
		src:  "type A = record { x : Missing };",
		want: []string{"unbound type identifier Missing"},
	}, {
		name: "Duplicate",
		src:  "type A = nat; type A = text;",
		want: []string{"duplicate type definition A"},
	}, {
		name: "DuplicateField",
		src:  "type A = record { a : nat; a : text };",
		want: []string{"duplicate field a"},
	}, {
		name: "UnguardedCycle",
		src:  "type A = B; type B = A;",
		want: []string{
			"type A is defined in terms of itself without a type constructor",
			"type B is defined in terms of itself without a type constructor",
		},
	}, {
		name: "GuardedRecursionIsFine",
		src:  "type List = opt record { head : nat; tail : List };",
	}, {
		name: "MethodNotFunc",
		src:  "type T = nat; service : { m : T; }",
		want: []string{"method m must have a function type, found T"},
	}, {
		name: "ConflictingModes",
		src:  "type F = func () -> () query oneway;",
		want: []string{"conflicting function annotations query and oneway"},
	}, {
		name: "DuplicateMethod",
		src:  "service : { m : () -> (); m : () -> () }",
		want: []string{"duplicate method m"},
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := resolve(t, tc.src)
			var got []string
			for _, e := range errs {
				got = append(got, e.Error())
			}
			qt.Assert(t, qt.DeepEquals(got, tc.want))
		})
	}
}

func TestUnboundIsSentinel(t *testing.T) {
	tab, errs := resolve(t, "type A = vec Missing;")
	qt.Assert(t, qt.HasLen(errs, 1))
	a := tab.Unfold(named(t, tab, "A"))
	qt.Check(t, qt.Equals(tab.Kind(tab.Elem(a)), Unknown))
	qt.Check(t, qt.Equals(tab.String(a), "vec unknown"))
}

func TestSubtypeLaws(t *testing.T) {
	tab := mustResolve(t, `
type R2 = record { a : nat; b : text };
type R1 = record { a : nat };
type ROpt = record { a : nat; c : opt text };
type RInt = record { a : int };
type Ok = variant { ok };
type OkErr = variant { ok; err : text };
type Blob = blob;
type Bytes = vec nat8;
type FNat = func (nat) -> (nat);
type FInt = func (int) -> (int);
type FIntNat = func (int) -> (nat);
type FNatInt = func (nat) -> (int);
type FQuery = func (nat) -> (nat) query;
type FMore = func (nat, opt text) -> (nat);
type FMoreReq = func (nat, text) -> (nat);
type List = opt record { head : nat; tail : List };
type Stream = opt record { head : nat; tail : Stream };
type IntList = opt record { head : int; tail : IntList };
type S1 = service { get : FNat };
type S2 = service { get : FNat; put : FInt };
`)
	id := func(name string) ID { return named(t, tab, name) }
	sub := func(a, b string) bool { return tab.IsSubtype(id(a), id(b)) }

	for _, name := range tab.Names() {
		qt.Check(t, qt.IsTrue(sub(name, name)), qt.Commentf("reflexivity of %s", name))
	}

	qt.Check(t, qt.IsTrue(sub("R2", "R1")))
	qt.Check(t, qt.IsFalse(sub("R1", "R2")))
	qt.Check(t, qt.IsTrue(sub("R1", "ROpt")), qt.Commentf("missing opt field"))
	qt.Check(t, qt.IsTrue(sub("R1", "RInt")), qt.Commentf("nat <: int in field"))
	qt.Check(t, qt.IsFalse(sub("RInt", "R1")))

	qt.Check(t, qt.IsTrue(sub("Ok", "OkErr")))
	qt.Check(t, qt.IsFalse(sub("OkErr", "Ok")))

	qt.Check(t, qt.IsTrue(sub("Blob", "Bytes")))
	qt.Check(t, qt.IsTrue(sub("Bytes", "Blob")))
	qt.Check(t, qt.IsTrue(tab.Equal(id("Blob"), id("Bytes"))))

	// contravariant arguments, covariant results
	qt.Check(t, qt.IsTrue(sub("FIntNat", "FNatInt")))
	qt.Check(t, qt.IsFalse(sub("FNatInt", "FIntNat")))
	qt.Check(t, qt.IsTrue(sub("FInt", "FNatInt")))
	qt.Check(t, qt.IsTrue(sub("FNat", "FNatInt")))
	qt.Check(t, qt.IsFalse(sub("FInt", "FNat")))

	// annotations must match exactly
	qt.Check(t, qt.IsFalse(sub("FNat", "FQuery")))
	qt.Check(t, qt.IsFalse(sub("FQuery", "FNat")))

	// optional arguments may be added or dropped
	qt.Check(t, qt.IsTrue(sub("FNat", "FMore")))
	qt.Check(t, qt.IsTrue(sub("FMore", "FNat")))
	qt.Check(t, qt.IsTrue(sub("FNat", "FMoreReq")), qt.Commentf("extra arguments are ignored"))
	qt.Check(t, qt.IsFalse(sub("FMoreReq", "FNat")))

	// recursive types
	qt.Check(t, qt.IsTrue(sub("List", "Stream")))
	qt.Check(t, qt.IsTrue(sub("Stream", "List")))
	qt.Check(t, qt.IsTrue(tab.Equal(id("List"), id("Stream"))))
	qt.Check(t, qt.IsTrue(sub("List", "IntList")))
	qt.Check(t, qt.IsFalse(sub("IntList", "List")))
	qt.Check(t, qt.IsFalse(tab.Equal(id("List"), id("IntList"))))

	qt.Check(t, qt.IsTrue(sub("S2", "S1")))
	qt.Check(t, qt.IsFalse(sub("S1", "S2")))
}

func TestSubtypePrimitives(t *testing.T) {
	tab := NewTable()
	p := tab.Prim
	qt.Check(t, qt.IsTrue(tab.IsSubtype(p(Nat), p(Int))))
	qt.Check(t, qt.IsFalse(tab.IsSubtype(p(Int), p(Nat))))
	qt.Check(t, qt.IsFalse(tab.IsSubtype(p(Nat8), p(Nat))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(p(Text), p(Reserved))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(tab.Vec(p(Text)), p(Reserved))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(p(Empty), p(Text))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(p(Null), tab.Opt(p(Text)))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(p(Nat), tab.Opt(p(Int)))))
	qt.Check(t, qt.IsFalse(tab.IsSubtype(p(Text), tab.Opt(p(Nat)))))
	qt.Check(t, qt.IsFalse(tab.IsSubtype(p(Reserved), tab.Opt(p(Nat)))))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(tab.Opt(p(Nat)), tab.Opt(p(Int)))))
	qt.Check(t, qt.IsFalse(tab.IsSubtype(tab.Opt(p(Int)), tab.Opt(p(Nat)))))
}

func TestFieldOrderIrrelevant(t *testing.T) {
	tab := mustResolve(t, `
type A = record { x : nat; y : text; z : bool };
type B = record { z : bool; x : nat; y : text };
`)
	a, b := named(t, tab, "A"), named(t, tab, "B")
	qt.Check(t, qt.IsTrue(tab.Equal(a, b)))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(a, b)))
	qt.Check(t, qt.IsTrue(tab.IsSubtype(b, a)))
}

func TestString(t *testing.T) {
	tab := mustResolve(t, `
type T = record { a : nat; "b c" : opt text };
type P = record { nat; text };
type V = variant { ok; err : text };
type F = func (to : principal, amount : nat) -> (bool) query;
type L = opt record { head : nat; tail : L };
service : { get : (nat) -> (T) query; f : F }
`)
	testCases := []struct{ name, want string }{
		{"T", `type T = record { a : nat; "b c" : opt text }`},
		{"P", `type P = record { nat; text }`},
		{"V", `type V = variant { ok; err : text }`},
		{"F", `type F = func (to : principal, amount : nat) -> (bool) query`},
		{"L", `type L = opt record { head : nat; tail : L }`},
	}
	for _, tc := range testCases {
		got, ok := tab.Definition(tc.name)
		qt.Assert(t, qt.IsTrue(ok))
		// Fields are ordered by hash, so compare as sets of parts.
		qt.Check(t, qt.Equals(sortedParts(got), sortedParts(tc.want)), qt.Commentf("%s", tc.name))
	}
	actor, ok := tab.Actor()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(tab.String(actor), "service { f : F; get : (nat) -> (T) query }"))
}

// sortedParts makes a rendering comparable irrespective of field order.
func sortedParts(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '{' || r == '}' })
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for i := 1; i < len(parts); i++ {
		for j := i; j > 0 && parts[j] < parts[j-1]; j-- {
			parts[j], parts[j-1] = parts[j-1], parts[j]
		}
	}
	return strings.Join(parts, "|")
}

func TestTypeOfAnnotations(t *testing.T) {
	src := "type T = record { a : nat };\n(record { a = 1 } : T)"
	f, err := parser.ParseFile("ann.did", src)
	qt.Assert(t, qt.IsNil(err))
	tab, errs := Resolve(f)
	qt.Assert(t, qt.HasLen(errs, 0))

	ann := f.Decls[1].(*ast.ArgsDecl).Args[0]
	id, ok := tab.TypeOf(ann.Type)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(tab.String(id), "T"))
	rec := tab.Unfold(id)
	qt.Check(t, qt.Equals(tab.Kind(rec), Record))
	_, ok = tab.FieldByLabel(rec, Hash("a"))
	qt.Check(t, qt.IsTrue(ok))
}
