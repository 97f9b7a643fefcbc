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

// Package settings holds the user-configurable options of the language
// server and applies configuration payloads sent by the client.
package settings

import (
	"fmt"
	"strings"
)

// SnippetStyle selects the shape of the snippet inserted when a service
// method is completed.
type SnippetStyle string

const (
	// StyleCall inserts a direct call: name(args).
	StyleCall SnippetStyle = "call"
	// StyleAwait inserts an awaited call: await name(args).
	StyleAwait SnippetStyle = "await"
	// StyleAsync inserts a call spawned in an async block.
	StyleAsync SnippetStyle = "async"
	// StyleAwaitLet binds the awaited result with let.
	StyleAwaitLet SnippetStyle = "await-let"
)

// ParseSnippetStyle parses a snippet style name, accepting the usual
// spellings of await-let.
func ParseSnippetStyle(s string) (SnippetStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return StyleCall, nil
	case "await":
		return StyleAwait, nil
	case "async":
		return StyleAsync, nil
	case "awaitlet", "await-let", "await_let", "asynclet", "async-let", "async_let":
		return StyleAwaitLet, nil
	}
	return "", fmt.Errorf("invalid service snippet style %q", s)
}

// CompletionMode selects how much work a completion request may do.
type CompletionMode string

const (
	// ModeFull runs every completion phase.
	ModeFull CompletionMode = "full"
	// ModeLightweight returns bare labels only: local names, keywords
	// and service method names.
	ModeLightweight CompletionMode = "lightweight"
	// ModeAuto picks lightweight for documents over the configured
	// limits and full otherwise.
	ModeAuto CompletionMode = "auto"
)

// ParseCompletionMode parses a completion mode name.
func ParseCompletionMode(s string) (CompletionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, nil
	case "full", "standard":
		return ModeFull, nil
	case "light", "lightweight", "fast":
		return ModeLightweight, nil
	}
	return "", fmt.Errorf("invalid completion mode %q", s)
}

// Default limits above which auto mode switches to lightweight.
const (
	DefaultAutoLineLimit = 2000
	DefaultAutoCharLimit = 120000
)

// Options holds the server options.
type Options struct {
	SnippetStyle   SnippetStyle
	CompletionMode CompletionMode
	AutoLineLimit  int
	AutoCharLimit  int
	Format         FormatOptions
	LogLevel       string
}

// FormatOptions are carried for clients that send them. The server does
// not format documents.
type FormatOptions struct {
	Enabled     bool
	IndentWidth int // 0 if unset
	BlankLines  int // -1 if unset
}

// Default returns the default options.
func Default() *Options {
	return &Options{
		SnippetStyle:   StyleCall,
		CompletionMode: ModeAuto,
		AutoLineLimit:  DefaultAutoLineLimit,
		AutoCharLimit:  DefaultAutoCharLimit,
		Format:         FormatOptions{Enabled: true, BlankLines: -1},
		LogLevel:       "info",
	}
}

// Clone returns a copy of o.
func (o *Options) Clone() *Options {
	c := *o
	return &c
}

// EffectiveMode resolves auto mode for a document with the given number
// of lines and characters. The result is ModeFull or ModeLightweight.
func (o *Options) EffectiveMode(lines, chars int) CompletionMode {
	switch o.CompletionMode {
	case ModeFull, ModeLightweight:
		return o.CompletionMode
	}
	if lines > o.AutoLineLimit || chars > o.AutoCharLimit {
		return ModeLightweight
	}
	return ModeFull
}

// A SoftError is a problem with a setting that leaves the previous value
// in place.
type SoftError struct {
	msg string
}

func (e *SoftError) Error() string { return e.msg }

func softErrorf(format string, args ...any) error {
	return &SoftError{msg: fmt.Sprintf(format, args...)}
}

// An OptionResult reports how one setting was applied.
type OptionResult struct {
	Name  string
	Value any
	Error error
}

// OptionResults lists the settings that were applied.
type OptionResults []OptionResult

// Errors returns the results that carry an error.
func (r OptionResults) Errors() []error {
	var errs []error
	for _, res := range r {
		if res.Error != nil {
			errs = append(errs, res.Error)
		}
	}
	return errs
}

// SetOptions applies a configuration payload to o. The payload is what a
// client sends with workspace/didChangeConfiguration: an object, possibly
// nested under "candidLanguageServer". Keys are accepted in camelCase,
// snake_case and kebab-case. A bare string sets the snippet style or the
// completion mode, whichever it names.
func SetOptions(o *Options, raw any) OptionResults {
	var results OptionResults
	switch raw := raw.(type) {
	case nil:
		return nil
	case string:
		if style, err := ParseSnippetStyle(raw); err == nil {
			o.SnippetStyle = style
			return OptionResults{{Name: "serviceSnippets", Value: raw}}
		}
		if mode, err := ParseCompletionMode(raw); err == nil {
			o.CompletionMode = mode
			return OptionResults{{Name: "completionMode", Value: raw}}
		}
		return OptionResults{{Value: raw, Error: softErrorf("unrecognized setting %q", raw)}}
	case map[string]any:
		if v, ok := lookup(raw, "serviceSnippets"); ok {
			results = append(results, o.setSnippets("serviceSnippets", v))
		}
		for _, key := range []string{"serviceSnippetStyle", "snippetStyle"} {
			if v, ok := lookup(raw, key); ok {
				results = append(results, o.setSnippets(key, v))
			}
		}
		if v, ok := lookup(raw, "completion"); ok {
			results = append(results, o.setCompletion(v)...)
		}
		if v, ok := lookup(raw, "completionMode"); ok {
			results = append(results, o.setMode("completionMode", v))
		}
		if v, ok := lookup(raw, "format"); ok {
			results = append(results, o.setFormat(v)...)
		}
		if v, ok := lookup(raw, "logLevel"); ok {
			results = append(results, o.setLogLevel(v))
		}
		if v, ok := lookup(raw, "candidLanguageServer"); ok {
			results = append(results, SetOptions(o, v)...)
		}
		return results
	}
	return OptionResults{{Value: raw, Error: fmt.Errorf("invalid settings type %T", raw)}}
}

func (o *Options) setSnippets(name string, v any) OptionResult {
	res := OptionResult{Name: name, Value: v}
	if obj, ok := v.(map[string]any); ok {
		if v, ok = lookup(obj, "style"); !ok {
			return res
		}
		res.Name += ".style"
		res.Value = v
	}
	s, ok := v.(string)
	if !ok {
		res.Error = fmt.Errorf("invalid type %T for %s, expected string", v, res.Name)
		return res
	}
	style, err := ParseSnippetStyle(s)
	if err != nil {
		res.Error = softErrorf("%v", err)
		return res
	}
	o.SnippetStyle = style
	return res
}

func (o *Options) setMode(name string, v any) OptionResult {
	res := OptionResult{Name: name, Value: v}
	s, ok := v.(string)
	if !ok {
		res.Error = fmt.Errorf("invalid type %T for %s, expected string", v, name)
		return res
	}
	mode, err := ParseCompletionMode(s)
	if err != nil {
		res.Error = softErrorf("%v", err)
		return res
	}
	o.CompletionMode = mode
	return res
}

func (o *Options) setCompletion(v any) OptionResults {
	obj, ok := v.(map[string]any)
	if !ok {
		return OptionResults{o.setMode("completion", v)}
	}
	var results OptionResults
	if v, ok := lookup(obj, "mode"); ok {
		results = append(results, o.setMode("completion.mode", v))
	} else if v, ok := lookup(obj, "completionMode"); ok {
		results = append(results, o.setMode("completion.completionMode", v))
	}
	auto, ok := lookup(obj, "auto")
	if !ok {
		return results
	}
	autoObj, ok := auto.(map[string]any)
	if !ok {
		return append(results, OptionResult{
			Name:  "completion.auto",
			Value: auto,
			Error: fmt.Errorf("invalid type %T for completion.auto, expected object", auto),
		})
	}
	if v, ok := lookup(autoObj, "lineLimit"); ok {
		results = append(results, setLimit("completion.auto.lineLimit", v, &o.AutoLineLimit, DefaultAutoLineLimit))
	}
	if v, ok := lookup(autoObj, "charLimit"); ok {
		results = append(results, setLimit("completion.auto.charLimit", v, &o.AutoCharLimit, DefaultAutoCharLimit))
	}
	return results
}

// setLimit sets a positive limit. Other values reset it to def.
func setLimit(name string, v any, dst *int, def int) OptionResult {
	res := OptionResult{Name: name, Value: v}
	n, ok := asInt(v)
	if !ok || n <= 0 {
		*dst = def
		res.Error = softErrorf("%s must be a positive integer, using %d", name, def)
		return res
	}
	*dst = n
	return res
}

func (o *Options) setFormat(v any) OptionResults {
	switch v := v.(type) {
	case bool:
		o.Format.Enabled = v
		return OptionResults{{Name: "format", Value: v}}
	case map[string]any:
		var results OptionResults
		if e, ok := lookup(v, "enabled"); ok {
			res := OptionResult{Name: "format.enabled", Value: e}
			if b, ok := e.(bool); ok {
				o.Format.Enabled = b
			} else {
				res.Error = fmt.Errorf("invalid type %T for format.enabled, expected bool", e)
			}
			results = append(results, res)
		}
		if w, ok := lookup(v, "indentWidth"); ok {
			res := OptionResult{Name: "format.indentWidth", Value: w}
			if n, ok := asInt(w); ok && n > 0 {
				o.Format.IndentWidth = n
			} else {
				res.Error = softErrorf("format.indentWidth must be a positive integer")
			}
			results = append(results, res)
		}
		if l, ok := lookup(v, "blankLines"); ok {
			res := OptionResult{Name: "format.blankLines", Value: l}
			if n, ok := asInt(l); ok && n >= 0 {
				o.Format.BlankLines = n
			} else {
				res.Error = softErrorf("format.blankLines must be a non-negative integer")
			}
			results = append(results, res)
		}
		return results
	}
	return OptionResults{{Name: "format", Value: v, Error: fmt.Errorf("invalid type %T for format", v)}}
}

func (o *Options) setLogLevel(v any) OptionResult {
	res := OptionResult{Name: "logLevel", Value: v}
	s, ok := v.(string)
	if !ok {
		res.Error = fmt.Errorf("invalid type %T for logLevel, expected string", v)
		return res
	}
	switch s = strings.ToLower(s); s {
	case "trace", "debug", "info", "warn", "error":
		o.LogLevel = s
	default:
		res.Error = softErrorf("invalid log level %q", s)
	}
	return res
}

// lookup finds key in obj under its camelCase, snake_case or kebab-case
// spelling.
func lookup(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	if v, ok := obj[caseConvert(key, '_')]; ok {
		return v, true
	}
	v, ok := obj[caseConvert(key, '-')]
	return v, ok
}

// caseConvert turns a camelCase key into lower case words joined by sep.
func caseConvert(key string, sep byte) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if 'A' <= c && c <= 'Z' {
			if i > 0 {
				b.WriteByte(sep)
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// asInt accepts the number types produced by JSON and YAML decoders.
func asInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
