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

// pair is an ordered pair of types whose relation is being decided.
type pair struct{ a, b ID }

// A checker decides relations between types of one table. Relations over
// recursive types are decided coinductively: a pair that is already under
// consideration is assumed to hold.
type checker struct {
	t       *Table
	assumed map[pair]bool
}

func newChecker(t *Table) *checker {
	return &checker{t: t, assumed: map[pair]bool{}}
}

// IsSubtype reports whether a <: b.
func (t *Table) IsSubtype(a, b ID) bool {
	return newChecker(t).sub(a, b)
}

// Equal reports whether a and b are structurally equal. Field order and
// type names do not matter; labels are compared by id.
func (t *Table) Equal(a, b ID) bool {
	return newChecker(t).eq(a, b)
}

func (c *checker) sub(a, b ID) bool {
	if a == b {
		return true
	}
	p := pair{a, b}
	if c.assumed[p] {
		return true
	}
	c.assumed[p] = true
	ok := c.subShape(c.t.Unfold(a), c.t.Unfold(b))
	if !ok {
		// Conclusions drawn under a refuted assumption are not reused.
		delete(c.assumed, p)
	}
	return ok
}

// optLike reports whether a field of type id may be absent from a
// record value or argument tuple.
func (c *checker) optLike(id ID) bool {
	switch c.t.Kind(c.t.Unfold(id)) {
	case Opt, Null, Reserved, Unknown:
		return true
	}
	return false
}

func (c *checker) subShape(a, b ID) bool {
	t := c.t
	ka, kb := t.Kind(a), t.Kind(b)
	switch {
	case ka == Unknown || kb == Unknown:
		return true
	case kb == Reserved:
		return true
	case ka == Empty:
		return true
	case kb == Opt:
		switch ka {
		case Null:
			return true
		case Opt:
			return c.sub(t.Elem(a), t.Elem(b))
		case Reserved:
			return false
		}
		return c.sub(a, t.Elem(b))
	case ka.IsPrimitive() && kb.IsPrimitive():
		return ka == kb || ka == Nat && kb == Int
	case ka != kb:
		return false
	}

	switch ka {
	case Vec:
		return c.sub(t.Elem(a), t.Elem(b))

	case Record:
		for _, fb := range t.Fields(b) {
			fa, ok := t.FieldByLabel(a, fb.Label.ID)
			if !ok {
				if !c.optLike(fb.Type) {
					return false
				}
				continue
			}
			if !c.sub(fa.Type, fb.Type) {
				return false
			}
		}
		return true

	case Variant:
		for _, fa := range t.Fields(a) {
			fb, ok := t.FieldByLabel(b, fa.Label.ID)
			if !ok || !c.sub(fa.Type, fb.Type) {
				return false
			}
		}
		return true

	case Func:
		sa, sb := t.Signature(a), t.Signature(b)
		if sa.Mode != sb.Mode {
			return false
		}
		return c.subTuple(sb.Args, sa.Args) && c.subTuple(sa.Results, sb.Results)

	case Service:
		for _, mb := range t.Methods(b) {
			ma, ok := t.MethodByName(a, mb.Name)
			if !ok || !c.sub(ma.Type, mb.Type) {
				return false
			}
		}
		return true
	}
	return false
}

// subTuple reports whether the tuple x is a subtype of the tuple y, treating
// both as records with positional labels. Trailing elements of y that x
// lacks must accept absence, which is how optional arguments and results
// are added without breaking existing callers.
func (c *checker) subTuple(x, y []Param) bool {
	for i, py := range y {
		if i >= len(x) {
			if !c.optLike(py.Type) {
				return false
			}
			continue
		}
		if !c.sub(x[i].Type, py.Type) {
			return false
		}
	}
	return true
}

func (c *checker) eq(a, b ID) bool {
	if a == b {
		return true
	}
	p := pair{a, b}
	if c.assumed[p] {
		return true
	}
	c.assumed[p] = true
	ok := c.eqShape(c.t.Unfold(a), c.t.Unfold(b))
	if !ok {
		delete(c.assumed, p)
	}
	return ok
}

func (c *checker) eqShape(a, b ID) bool {
	t := c.t
	ka, kb := t.Kind(a), t.Kind(b)
	if ka != kb {
		return false
	}
	switch ka {
	case Opt, Vec:
		return c.eq(t.Elem(a), t.Elem(b))

	case Record, Variant:
		fa, fb := t.Fields(a), t.Fields(b)
		if len(fa) != len(fb) {
			return false
		}
		for i := range fa {
			if fa[i].Label.ID != fb[i].Label.ID || !c.eq(fa[i].Type, fb[i].Type) {
				return false
			}
		}
		return true

	case Func:
		sa, sb := t.Signature(a), t.Signature(b)
		return sa.Mode == sb.Mode && c.eqTuple(sa.Args, sb.Args) && c.eqTuple(sa.Results, sb.Results)

	case Service:
		ma, mb := t.Methods(a), t.Methods(b)
		if len(ma) != len(mb) {
			return false
		}
		for i := range ma {
			if ma[i].Name != mb[i].Name || !c.eq(ma[i].Type, mb[i].Type) {
				return false
			}
		}
		return true
	}
	// primitives and the error sentinel
	return true
}

func (c *checker) eqTuple(x, y []Param) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !c.eq(x[i].Type, y[i].Type) {
			return false
		}
	}
	return true
}
