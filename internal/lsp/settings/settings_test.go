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

package settings_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/internal/lsp/settings"
)

func TestDefault(t *testing.T) {
	o := settings.Default()
	qt.Assert(t, qt.Equals(o.SnippetStyle, settings.StyleCall))
	qt.Assert(t, qt.Equals(o.CompletionMode, settings.ModeAuto))
	qt.Assert(t, qt.Equals(o.AutoLineLimit, 2000))
	qt.Assert(t, qt.Equals(o.AutoCharLimit, 120000))
	qt.Assert(t, qt.IsTrue(o.Format.Enabled))
}

func TestParseAliases(t *testing.T) {
	for in, want := range map[string]settings.SnippetStyle{
		"call":      settings.StyleCall,
		" Await ":   settings.StyleAwait,
		"async":     settings.StyleAsync,
		"await-let": settings.StyleAwaitLet,
		"awaitlet":  settings.StyleAwaitLet,
		"await_let": settings.StyleAwaitLet,
		"async_let": settings.StyleAwaitLet,
	} {
		got, err := settings.ParseSnippetStyle(in)
		qt.Check(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(got, want), qt.Commentf("%q", in))
	}
	_, err := settings.ParseSnippetStyle("spawn")
	qt.Assert(t, qt.ErrorMatches(err, `invalid service snippet style "spawn"`))

	for in, want := range map[string]settings.CompletionMode{
		"auto":        settings.ModeAuto,
		"full":        settings.ModeFull,
		"standard":    settings.ModeFull,
		"LIGHT":       settings.ModeLightweight,
		"lightweight": settings.ModeLightweight,
		"fast":        settings.ModeLightweight,
	} {
		got, err := settings.ParseCompletionMode(in)
		qt.Check(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(got, want), qt.Commentf("%q", in))
	}
}

// decode turns a JSON payload into the value a client library hands to
// the server.
func decode(t *testing.T, s string) any {
	var v any
	qt.Assert(t, qt.IsNil(json.Unmarshal([]byte(s), &v)))
	return v
}

var setOptionsTests = []struct {
	name    string
	payload string
	want    func(o *settings.Options)
	errs    int
}{{
	name:    "Nested",
	payload: `{"candidLanguageServer": {"serviceSnippets": {"style": "await"}, "completion": {"mode": "full", "auto": {"lineLimit": 10, "charLimit": 500}}}}`,
	want: func(o *settings.Options) {
		o.SnippetStyle = settings.StyleAwait
		o.CompletionMode = settings.ModeFull
		o.AutoLineLimit = 10
		o.AutoCharLimit = 500
	},
}, {
	name:    "SnakeAndKebab",
	payload: `{"service_snippets": "await_let", "completion-mode": "fast"}`,
	want: func(o *settings.Options) {
		o.SnippetStyle = settings.StyleAwaitLet
		o.CompletionMode = settings.ModeLightweight
	},
}, {
	name:    "BareString",
	payload: `"async"`,
	want: func(o *settings.Options) {
		o.SnippetStyle = settings.StyleAsync
	},
}, {
	name:    "NonPositiveLimitsFallBack",
	payload: `{"completion": {"auto": {"line_limit": 0, "charLimit": -5}}}`,
	want:    func(o *settings.Options) {},
	errs:    2,
}, {
	name:    "UnknownStyleKeepsPrevious",
	payload: `{"serviceSnippetStyle": "spawn"}`,
	want:    func(o *settings.Options) {},
	errs:    1,
}, {
	name:    "Format",
	payload: `{"format": {"enabled": false, "indentWidth": 2, "blank-lines": 1}, "logLevel": "debug"}`,
	want: func(o *settings.Options) {
		o.Format = settings.FormatOptions{Enabled: false, IndentWidth: 2, BlankLines: 1}
		o.LogLevel = "debug"
	},
}, {
	name:    "WrongType",
	payload: `{"completion": {"mode": 3}}`,
	want:    func(o *settings.Options) {},
	errs:    1,
}}

func TestSetOptions(t *testing.T) {
	for _, test := range setOptionsTests {
		t.Run(test.name, func(t *testing.T) {
			got := settings.Default()
			results := settings.SetOptions(got, decode(t, test.payload))
			want := settings.Default()
			test.want(want)
			qt.Assert(t, qt.CmpEquals(got, want))
			qt.Assert(t, qt.HasLen(results.Errors(), test.errs))
		})
	}
}

func TestSoftErrors(t *testing.T) {
	o := settings.Default()
	results := settings.SetOptions(o, decode(t, `{"completionMode": "turbo", "format": "yes"}`))
	errs := results.Errors()
	qt.Assert(t, qt.HasLen(errs, 2))
	var soft *settings.SoftError
	qt.Assert(t, qt.ErrorAs(errs[0], &soft))
	qt.Assert(t, qt.IsFalse(func() bool { _, ok := errs[1].(*settings.SoftError); return ok }()))
}

func TestEffectiveMode(t *testing.T) {
	o := settings.Default()
	o.AutoLineLimit = 10
	o.AutoCharLimit = 100
	qt.Assert(t, qt.Equals(o.EffectiveMode(10, 100), settings.ModeFull))
	qt.Assert(t, qt.Equals(o.EffectiveMode(11, 1), settings.ModeLightweight))
	qt.Assert(t, qt.Equals(o.EffectiveMode(1, 101), settings.ModeLightweight))

	o.CompletionMode = settings.ModeFull
	qt.Assert(t, qt.Equals(o.EffectiveMode(1e6, 1e9), settings.ModeFull))
	o.CompletionMode = settings.ModeLightweight
	qt.Assert(t, qt.Equals(o.EffectiveMode(1, 1), settings.ModeLightweight))
}

func TestParseFile(t *testing.T) {
	opts, results, err := settings.ParseFile(settings.Default(), []byte(`
serviceSnippets:
  style: await-let
completion:
  mode: auto
  auto:
    lineLimit: 50
format: false
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(results.Errors(), 0))
	qt.Assert(t, qt.Equals(opts.SnippetStyle, settings.StyleAwaitLet))
	qt.Assert(t, qt.Equals(opts.AutoLineLimit, 50))
	qt.Assert(t, qt.IsFalse(opts.Format.Enabled))

	_, _, err = settings.ParseFile(settings.Default(), []byte("completion:\n  auto:\n    lineLimit: 0\n"))
	qt.Assert(t, qt.ErrorMatches(err, `(?s)invalid settings:.*`))

	_, _, err = settings.ParseFile(settings.Default(), []byte("serviceSnippets: spawn\n"))
	qt.Assert(t, qt.IsNotNil(err))

	_, _, err = settings.ParseFile(settings.Default(), []byte("a: [\n"))
	qt.Assert(t, qt.ErrorMatches(err, `cannot parse settings: .*`))

	// Aliases are not part of the schema but are still applied.
	opts, _, err = settings.ParseFile(settings.Default(), []byte("completion_mode: light\n"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(opts.CompletionMode, settings.ModeLightweight))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	base := settings.Default()

	opts, _, err := settings.LoadFile(base, filepath.Join(dir, settings.FileName))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(opts, base))

	path := filepath.Join(dir, settings.FileName)
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("logLevel: warn\n"), 0o666)))
	opts, _, err = settings.LoadFile(base, path)
	qt.Assert(t, qt.IsNil(err))
	want := base.Clone()
	want.LogLevel = "warn"
	qt.Assert(t, qt.CmpEquals(opts, want))
	// The base options are not modified.
	qt.Assert(t, qt.Equals(base.LogLevel, "info"))
}
