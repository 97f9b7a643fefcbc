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
	"sort"
	"strconv"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/candid/ast"
	"candidls.dev/go/candid/token"
	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/settings"
)

// A Tier ranks completion items. Lower tiers sort first.
type Tier uint8

const (
	// TierContext holds keywords and labels specific to the cursor
	// position.
	TierContext Tier = 1 + iota
	// TierLocal holds names declared in the document.
	TierLocal
	// TierGlobal holds predefined and imported names.
	TierGlobal
	// TierKeyword holds keywords that are not specific to the position.
	TierKeyword
)

// An Item is a completion candidate.
type Item struct {
	Label         string
	Kind          protocol.CompletionItemKind
	Detail        string
	Documentation string // markdown

	// InsertText is inserted when the item is accepted. If empty,
	// Label is inserted.
	InsertText string
	// Snippet reports whether InsertText uses snippet syntax.
	Snippet bool
	// SortKey orders items: the tier digit followed by the label.
	SortKey string

	tier     Tier
	template func(settings.SnippetStyle) string
}

// Tier returns the rank of the item.
func (it Item) Tier() Tier { return it.tier }

func constTemplate(s string) func(settings.SnippetStyle) string {
	return func(settings.SnippetStyle) string { return s }
}

type keyword struct {
	name    string
	snippet string
}

var (
	topLevelKeywords = []keyword{
		{"type", "type ${1:Name} = $0;"},
		{"import", `import "${1:path}.did";$0`},
		{"service", "service : {\n\t$0\n};"},
	}
	typeKeywords = []keyword{
		{"record", "record { $0 }"},
		{"variant", "variant { $0 }"},
		{"opt", "opt $0"},
		{"vec", "vec $0"},
		{"func", "func ($1) -> ($2)$0"},
		{"service", "service { $0 }"},
		{"blob", ""},
	}
	valueKeywords = []keyword{
		{"true", ""},
		{"false", ""},
		{"null", ""},
		{"opt", "opt $0"},
		{"vec", "vec { $0 }"},
		{"record", "record { $0 }"},
		{"variant", "variant { $0 }"},
		{"principal", `principal "$1"$0`},
		{"blob", `blob "$1"$0`},
		{"service", `service "$1"$0`},
		{"func", `func "$1".$0`},
	}
	modeKeywords = []keyword{
		{"query", ""},
		{"oneway", ""},
		{"composite_query", ""},
	}
)

func keywordItems(list []keyword, tier Tier) []Item {
	items := make([]Item, 0, len(list))
	for _, kw := range list {
		it := Item{
			Label:  kw.name,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: "keyword",
			tier:   tier,
		}
		if kw.snippet != "" {
			it.template = constTemplate(kw.snippet)
		}
		items = append(items, it)
	}
	return items
}

// genericKeywordItems returns every keyword that is not also the name of
// a primitive type.
func genericKeywordItems() []Item {
	var items []Item
	for _, kw := range token.Keywords() {
		if token.IsPrimitive(kw) {
			continue
		}
		items = append(items, Item{
			Label:  kw,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: "keyword",
			tier:   TierKeyword,
		})
	}
	return items
}

// valueKeywordsFor returns the value keywords that can start a value of
// the given kind.
func valueKeywordsFor(kind types.Kind) []keyword {
	var fits func(string) bool
	switch kind {
	case types.Unknown, types.Reserved:
		return valueKeywords
	case types.Bool:
		fits = func(kw string) bool { return kw == "true" || kw == "false" }
	case types.Null:
		fits = func(kw string) bool { return kw == "null" }
	case types.Opt:
		fits = func(kw string) bool { return kw == "opt" || kw == "null" }
	case types.Vec:
		fits = func(kw string) bool { return kw == "vec" || kw == "blob" }
	case types.Record, types.Variant, types.Principal, types.Service, types.Func:
		name := kind.String()
		fits = func(kw string) bool { return kw == name }
	default:
		return nil
	}
	var out []keyword
	for _, kw := range valueKeywords {
		if fits(kw.name) {
			out = append(out, kw)
		}
	}
	return out
}

func primitiveItems() []Item {
	var items []Item
	for k := types.Null; k.IsPrimitive(); k++ {
		doc, _ := cache.PrimitiveDoc(k.String())
		items = append(items, Item{
			Label:         k.String(),
			Kind:          protocol.CompletionItemKindStruct,
			Detail:        "primitive type",
			Documentation: doc,
			tier:          TierGlobal,
		})
	}
	return items
}

// typeNameItems returns an item for every type declared in the document.
func typeNameItems(snap *cache.Snapshot) []Item {
	return cache.Memo(snap, cache.CacheKey{Context: "type-names"}, func() []Item {
		t := snap.Table()
		var items []Item
		for _, nt := range snap.DefinedTypes() {
			def, _ := t.Definition(nt.Name)
			items = append(items, Item{
				Label:         nt.Name,
				Kind:          typeItemKind(nt.Kind),
				Detail:        def,
				Documentation: t.Doc(nt.Name),
				tier:          TierLocal,
			})
		}
		return items
	})
}

func typeItemKind(k types.Kind) protocol.CompletionItemKind {
	switch k {
	case types.Record:
		return protocol.CompletionItemKindStruct
	case types.Variant:
		return protocol.CompletionItemKindEnum
	case types.Func:
		return protocol.CompletionItemKindFunction
	case types.Service:
		return protocol.CompletionItemKindInterface
	}
	return protocol.CompletionItemKindTypeParameter
}

// paramItems returns the named arguments and results of every function
// type in the document.
func paramItems(snap *cache.Snapshot) []Item {
	return cache.Memo(snap, cache.CacheKey{Context: "params"}, func() []Item {
		var items []Item
		add := func(tuple *ast.TupleType, detail string) {
			if tuple == nil {
				return
			}
			for _, a := range tuple.Args {
				if a.Name != nil && a.Name.Name != "" {
					items = append(items, Item{
						Label:  a.Name.Name,
						Kind:   protocol.CompletionItemKindVariable,
						Detail: detail,
						tier:   TierLocal,
					})
				}
			}
		}
		ast.Walk(snap.File(), func(n ast.Node) bool {
			if f, ok := n.(*ast.FuncType); ok {
				add(f.Args, "function argument")
				add(f.Results, "function result")
			}
			return true
		}, nil)
		return items
	})
}

// labelGroup is a label used by one or more record or variant types.
type labelGroup struct {
	label   string
	id      uint32
	parents []string
	doc     string
}

// declaredLabels aggregates the field labels of every record type, or
// the tags of every variant type, declared in the document.
func declaredLabels(snap *cache.Snapshot, variant bool) []labelGroup {
	scope := "record"
	if variant {
		scope = "variant"
	}
	return cache.Memo(snap, cache.CacheKey{Context: "declared-labels", Scope: scope}, func() []labelGroup {
		groups := map[string]*labelGroup{}
		var parent string
		ast.Walk(snap.File(), func(n ast.Node) bool {
			var fields []*ast.Field
			switch n := n.(type) {
			case *ast.TypeDecl:
				parent = ""
				if n.Name != nil {
					parent = n.Name.Name
				}
			case *ast.RecordType:
				if !variant {
					fields = n.Fields
				}
			case *ast.VariantType:
				if variant {
					fields = n.Fields
				}
			}
			for _, f := range fields {
				if f.Label == nil || f.Label.Kind == token.NAT {
					continue
				}
				name := types.NamedLabel(f.Label.Name()).String()
				g, ok := groups[name]
				if !ok {
					g = &labelGroup{label: name, id: labelID(f.Label)}
					groups[name] = g
				}
				if parent != "" && !contains(g.parents, parent) {
					g.parents = append(g.parents, parent)
				}
				if g.doc == "" {
					g.doc = f.Doc
				}
			}
			return true
		}, nil)
		out := make([]labelGroup, 0, len(groups))
		for _, g := range groups {
			out = append(out, *g)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
		return out
	})
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

const maxParents = 3

func groupDetail(kind string, parents []string) string {
	if len(parents) == 0 {
		return kind
	}
	n := min(len(parents), maxParents)
	detail := kind + " of " + strings.Join(parents[:n], ", ")
	if len(parents) > maxParents {
		detail += ", ..."
	}
	return detail
}

func declaredLabelItems(snap *cache.Snapshot, variant bool, present map[uint32]bool, tier Tier) []Item {
	kind, what := protocol.CompletionItemKindField, "field"
	if variant {
		kind, what = protocol.CompletionItemKindEnumMember, "tag"
	}
	var items []Item
	for _, g := range declaredLabels(snap, variant) {
		if present[g.id] {
			continue
		}
		items = append(items, Item{
			Label:         g.label,
			Kind:          kind,
			Detail:        groupDetail(what, g.parents),
			Documentation: g.doc,
			tier:          tier,
		})
	}
	return items
}

// typeLabelItems returns the labels of a record or variant type that
// are not yet present.
func typeLabelItems(snap *cache.Snapshot, id types.ID, present map[uint32]bool) []Item {
	t := snap.Table()
	fields := cache.Memo(snap, cache.CacheKey{Context: "type-labels", Scope: strconv.Itoa(int(id))}, func() []types.Field {
		return t.Fields(t.Unfold(id))
	})
	kind := protocol.CompletionItemKindField
	if t.Kind(t.Unfold(id)) == types.Variant {
		kind = protocol.CompletionItemKindEnumMember
	}
	var items []Item
	for _, f := range fields {
		if f.Label.Kind == types.Positional || present[f.Label.ID] {
			continue
		}
		label := f.Label.String()
		items = append(items, Item{
			Label:         label,
			Kind:          kind,
			Detail:        label + " : " + t.String(f.Type),
			Documentation: f.Doc,
			tier:          TierContext,
		})
	}
	return items
}

// serviceFor returns the service whose methods are offered: the service
// type enclosing the cursor, or else the service declared by the file.
func serviceFor(snap *cache.Snapshot, ctx Context) (types.ID, bool) {
	t := snap.Table()
	if s, ok := ctx.Node.(*ast.ServiceType); ok {
		if id, ok := t.TypeOf(s); ok && t.Kind(t.Unfold(id)) == types.Service {
			return t.Unfold(id), true
		}
	}
	id, ok := t.Actor()
	if !ok {
		return 0, false
	}
	id = t.Unfold(id)
	return id, t.Kind(id) == types.Service
}

func methodLabelItems(snap *cache.Snapshot, service types.ID, tier Tier) []Item {
	var items []Item
	for _, m := range snap.Table().Methods(service) {
		items = append(items, Item{
			Label:         m.Name,
			Kind:          protocol.CompletionItemKindMethod,
			Detail:        "service method",
			Documentation: m.Doc,
			tier:          tier,
		})
	}
	return items
}

func methodSnippetItems(snap *cache.Snapshot, service types.ID, tier Tier) []Item {
	t := snap.Table()
	var items []Item
	for _, m := range t.Methods(service) {
		items = append(items, Item{
			Label:         m.Name,
			Kind:          protocol.CompletionItemKindSnippet,
			Detail:        m.Name + " : " + t.FormatSignature(m.Type),
			Documentation: m.Doc,
			tier:          tier,
			template: func(style settings.SnippetStyle) string {
				return methodSnippet(t, m, style)
			},
		})
	}
	return items
}

// presentLabels returns the ids of the labels already written in the
// literal or type at the cursor, not counting the one being edited.
func presentLabels(ctx Context) map[uint32]bool {
	present := map[uint32]bool{}
	switch n := ctx.Node.(type) {
	case *ast.RecordValue:
		for f, id := range fieldValueIDs(n.Fields) {
			if ast.Node(f) != ctx.Editing {
				present[id] = true
			}
		}
	case *ast.VariantValue:
		if n.Field != nil && ast.Node(n.Field) != ctx.Editing && n.Field.Label != nil {
			present[labelID(n.Field.Label)] = true
		}
	case *ast.RecordType:
		addFieldLabels(present, n.Fields, ctx.Editing)
	case *ast.VariantType:
		addFieldLabels(present, n.Fields, ctx.Editing)
	}
	return present
}

func addFieldLabels(present map[uint32]bool, fields []*ast.Field, editing ast.Node) {
	for _, f := range fields {
		if f.Label != nil && ast.Node(f) != editing {
			present[labelID(f.Label)] = true
		}
	}
}
