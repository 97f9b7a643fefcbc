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

package settings

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up in the
// workspace root.
const FileName = "candidls.yaml"

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
	schemaErr   error
)

func schema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("cannot compile settings schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#Config"))
	})
	return schemaCtx, schemaValue, schemaErr
}

// Validate checks a decoded configuration document against the settings
// schema.
func Validate(doc map[string]any) error {
	ctx, s, err := schema()
	if err != nil {
		return err
	}
	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("cannot encode settings: %w", err)
	}
	if err := s.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid settings: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// ParseFile decodes a YAML configuration document, validates it and
// applies it to a copy of base.
func ParseFile(base *Options, data []byte) (*Options, OptionResults, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("cannot parse settings: %w", err)
	}
	opts := base.Clone()
	if doc == nil {
		return opts, nil, nil
	}
	if err := Validate(doc); err != nil {
		return nil, nil, err
	}
	return opts, SetOptions(opts, doc), nil
}

// LoadFile reads and applies the configuration file at path. A missing
// file leaves base unchanged.
func LoadFile(base *Options, path string) (*Options, OptionResults, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base.Clone(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	opts, results, err := ParseFile(base, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, results, nil
}
