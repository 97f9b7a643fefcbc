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

package cache

import (
	"sync"
	"sync/atomic"
)

// A CacheKey identifies a memoized set of completion candidates: the kind
// of completion context and the scope it was computed for, such as the
// name of the record type whose labels are offered.
type CacheKey struct {
	Context string
	Scope   string
}

// completionCache memoizes candidate sets for one snapshot. It starts
// empty for every published snapshot, which invalidates the previous
// snapshot's entries wholesale.
type completionCache struct {
	entries sync.Map // CacheKey -> *memoEntry
	hits    atomic.Int64
	misses  atomic.Int64
}

type memoEntry struct {
	once  sync.Once
	value any
}

// Memo returns the value memoized in s under key, calling build to
// compute it on first use. Concurrent callers with the same key share one
// call of build.
func Memo[T any](s *Snapshot, key CacheKey, build func() T) T {
	c := &s.completions
	v, loaded := c.entries.LoadOrStore(key, &memoEntry{})
	if loaded {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	e := v.(*memoEntry)
	e.once.Do(func() { e.value = build() })
	return e.value.(T)
}

// CacheStats reports the number of completion cache hits and misses of
// the snapshot.
func (s *Snapshot) CacheStats() (hits, misses int64) {
	return s.completions.hits.Load(), s.completions.misses.Load()
}
