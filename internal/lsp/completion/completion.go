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

// Package completion computes completion items for a Candid document.
//
// A completion list is built in four phases: context detection,
// candidate gathering, ranking and snippet synthesis. Callers that
// need to stay responsive run the phases one at a time and check for
// cancellation in between; see [Phases].
package completion

import (
	"cmp"
	"slices"
	"strconv"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/cache"
	"candidls.dev/go/internal/lsp/settings"
)

// Options control the items produced for one request.
type Options struct {
	// Mode is ModeFull or ModeLightweight. ModeAuto is treated as
	// ModeFull; use [OptionsFor] to resolve it against a document.
	Mode  settings.CompletionMode
	Style settings.SnippetStyle
}

// OptionsFor resolves the configured options for a document.
func OptionsFor(o *settings.Options, snap *cache.Snapshot) Options {
	return Options{
		Mode:  o.EffectiveMode(snap.LineCount(), snap.Len()),
		Style: o.SnippetStyle,
	}
}

func (o Options) lightweight() bool { return o.Mode == settings.ModeLightweight }

// A Builder builds the completion list for one cursor position of one
// snapshot. The snapshot does not change while the builder runs.
type Builder struct {
	snap   *cache.Snapshot
	offset int
	opts   Options

	ctx   Context
	items []Item
}

// NewBuilder returns a builder for the cursor at offset.
func NewBuilder(snap *cache.Snapshot, offset int, opts Options) *Builder {
	return &Builder{snap: snap, offset: offset, opts: opts}
}

// Context returns the context found by the detection phase.
func (b *Builder) Context() Context { return b.ctx }

// Items returns the items built so far.
func (b *Builder) Items() []Item { return b.items }

// A Phase is one step of building a completion list.
type Phase struct {
	Name string
	Run  func(*Builder)
}

var phases = []Phase{
	{Name: "detect-context", Run: (*Builder).detect},
	{Name: "gather-candidates", Run: (*Builder).gather},
	{Name: "rank", Run: (*Builder).rank},
	{Name: "synthesize-snippets", Run: (*Builder).synthesize},
}

// Phases returns the phases of a completion request in execution order.
func Phases() []Phase { return phases }

// Complete runs every phase and returns the ranked items.
func Complete(snap *cache.Snapshot, offset int, opts Options) []Item {
	b := NewBuilder(snap, offset, opts)
	for _, p := range phases {
		p.Run(b)
	}
	return b.items
}

func (b *Builder) detect() {
	b.ctx = DetectContext(b.snap, b.offset)
}

func (b *Builder) gather() {
	if b.opts.lightweight() {
		b.items = b.gatherLightweight()
	} else {
		b.items = b.gatherFull()
	}
}

func (b *Builder) gatherFull() []Item {
	snap, ctx := b.snap, b.ctx
	var items []Item
	switch ctx.Kind {
	case None:
		return nil

	case TopLevel:
		items = keywordItems(topLevelKeywords, TierContext)

	case Type, FuncResults:
		items = keywordItems(typeKeywords, TierContext)
		items = append(items, typeNameItems(snap)...)
		items = append(items, primitiveItems()...)

	case FuncModes:
		items = keywordItems(modeKeywords, TierContext)

	case RecordFields, VariantTags:
		items = declaredLabelItems(snap, ctx.Kind == VariantTags, presentLabels(ctx), TierGlobal)

	case ServiceMethods:
		if id, ok := serviceFor(snap, ctx); ok {
			items = methodSnippetItems(snap, id, TierContext)
		}

	case Value:
		kind := types.Unknown
		if ctx.HasExpected {
			kind = snap.Table().Kind(snap.Table().Unfold(ctx.Expected))
		}
		items = keywordItems(valueKeywordsFor(kind), TierContext)
		items = append(items, paramItems(snap)...)
		if id, ok := serviceFor(snap, ctx); ok {
			items = append(items, methodSnippetItems(snap, id, TierLocal)...)
		}

	case RecordValue, VariantValue:
		variant := ctx.Kind == VariantValue
		want := types.Record
		if variant {
			want = types.Variant
		}
		t := snap.Table()
		switch {
		case ctx.HasExpected && t.Kind(t.Unfold(ctx.Expected)) == want:
			items = typeLabelItems(snap, ctx.Expected, presentLabels(ctx))
		case !ctx.HasExpected || t.Kind(t.Unfold(ctx.Expected)) == types.Unknown:
			items = declaredLabelItems(snap, variant, presentLabels(ctx), TierGlobal)
		}

	default:
		items = append(items, typeNameItems(snap)...)
		items = append(items, primitiveItems()...)
		items = append(items, genericKeywordItems()...)
	}
	return items
}

// gatherLightweight returns bare names only: keywords of the context,
// local names and the names of service methods. Labels are not
// aggregated from type definitions.
func (b *Builder) gatherLightweight() []Item {
	snap, ctx := b.snap, b.ctx
	var items []Item
	switch ctx.Kind {
	case None:
		return nil
	case TopLevel:
		return keywordItems(topLevelKeywords, TierContext)
	case FuncModes:
		return keywordItems(modeKeywords, TierContext)
	case Type, FuncResults:
		items = keywordItems(typeKeywords, TierContext)
		items = append(items, typeNameItems(snap)...)
		items = append(items, primitiveItems()...)
	case Value:
		items = keywordItems(valueKeywords, TierContext)
		items = append(items, paramItems(snap)...)
	case RecordValue, VariantValue, ServiceMethods:
		items = append(items, paramItems(snap)...)
	default:
		items = append(items, typeNameItems(snap)...)
		items = append(items, genericKeywordItems()...)
	}
	if id, ok := serviceFor(snap, ctx); ok {
		items = append(items, methodLabelItems(snap, id, TierLocal)...)
	}
	return items
}

// rank sorts the items by tier and label and removes duplicates with the
// same label and detail.
func (b *Builder) rank() {
	items := b.items
	for i := range items {
		items[i].SortKey = strconv.Itoa(int(items[i].tier)) + items[i].Label
	}
	slices.SortStableFunc(items, func(x, y Item) int {
		return cmp.Compare(x.SortKey, y.SortKey)
	})
	type key struct{ label, detail string }
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := key{it.Label, it.Detail}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	b.items = out
}

// synthesize fills in the snippet text of items that have one. It does
// nothing in lightweight mode.
func (b *Builder) synthesize() {
	if b.opts.lightweight() {
		return
	}
	for i := range b.items {
		it := &b.items[i]
		if it.template != nil {
			it.InsertText = it.template(b.opts.Style)
			it.Snippet = true
		}
	}
}

// ToProtocol converts items to their LSP representation.
func ToProtocol(items []Item) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		kind := it.Kind
		sortText := it.SortKey
		ci := protocol.CompletionItem{
			Label:    it.Label,
			Kind:     &kind,
			SortText: &sortText,
		}
		if it.Detail != "" {
			detail := it.Detail
			ci.Detail = &detail
		}
		if it.Documentation != "" {
			ci.Documentation = protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: it.Documentation,
			}
		}
		if it.InsertText != "" {
			text := it.InsertText
			format := protocol.InsertTextFormatPlainText
			if it.Snippet {
				format = protocol.InsertTextFormatSnippet
			}
			ci.InsertText = &text
			ci.InsertTextFormat = &format
		}
		out = append(out, ci)
	}
	return out
}
