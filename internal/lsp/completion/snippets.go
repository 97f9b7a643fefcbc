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
	"strconv"
	"strings"

	"candidls.dev/go/candid/types"
	"candidls.dev/go/internal/lsp/settings"
)

// placeholders numbers the tab stops of a snippet.
type placeholders struct {
	next int
}

func (p *placeholders) take(text string) string {
	p.next++
	return "${" + strconv.Itoa(p.next) + ":" + escapeSnippet(text) + "}"
}

var snippetEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)

func escapeSnippet(s string) string { return snippetEscaper.Replace(s) }

// methodSnippet returns the snippet calling method m in the given style.
// Arguments become tab stops named after the argument, or after its type
// for unnamed arguments.
func methodSnippet(t *types.Table, m types.Method, style settings.SnippetStyle) string {
	var p placeholders
	var args []string
	var results []types.Param
	if sig := t.Signature(t.Unfold(m.Type)); sig != nil {
		for _, a := range sig.Args {
			if a.Name != "" {
				args = append(args, p.take(a.Name))
			} else {
				args = append(args, p.take(t.String(a.Type)))
			}
		}
		results = sig.Results
	} else {
		args = append(args, p.take("args"))
	}
	call := m.Name + "(" + strings.Join(args, ", ") + ")"

	switch style {
	case settings.StyleAwait:
		return "await " + call + "$0"
	case settings.StyleAsync:
		return "async { " + call + " }$0"
	case settings.StyleAwaitLet:
		if len(results) == 0 {
			return "await " + call + ";\n$0"
		}
		name := "result"
		if len(results) == 1 && results[0].Name != "" {
			name = results[0].Name
		} else if len(results) > 1 {
			name = "results"
		}
		return "let " + p.take(name) + " = await " + call + ";\n$0"
	}
	return call + "$0"
}
