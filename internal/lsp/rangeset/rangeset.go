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

// Package rangeset holds sets of byte offsets as sorted, disjoint
// half-open intervals.
package rangeset

import (
	"fmt"
	"slices"
	"sort"
)

// Range is the interval [Start, End).
type Range struct {
	Start int
	End   int
}

// RangeSet holds a collection of sorted, non-overlapping ranges. The zero
// value is an empty set.
type RangeSet struct {
	ranges []Range
}

// NewRangeSet returns an empty RangeSet.
func NewRangeSet() *RangeSet {
	return &RangeSet{}
}

// Add adds [start, end) to the set, merging it with every range it
// overlaps or touches. Empty ranges are ignored.
func (rs *RangeSet) Add(start, end int) {
	if start >= end {
		return
	}
	r := Range{Start: start, End: end}
	ranges := rs.ranges

	// ranges[i:j] overlap or touch r.
	i := sort.Search(len(ranges), func(k int) bool {
		return ranges[k].End >= r.Start
	})
	j := sort.Search(len(ranges), func(k int) bool {
		return ranges[k].Start > r.End
	})
	if i < j {
		r.Start = min(r.Start, ranges[i].Start)
		r.End = max(r.End, ranges[j-1].End)
	}
	rs.ranges = slices.Replace(ranges, i, j, r)
}

// Contains reports whether offset lies in one of the ranges.
func (rs *RangeSet) Contains(offset int) bool {
	ranges := rs.ranges
	i := sort.Search(len(ranges), func(k int) bool {
		return ranges[k].End > offset
	})
	return i < len(ranges) && ranges[i].Start <= offset
}

// Len returns the number of disjoint ranges in the set.
func (rs *RangeSet) Len() int { return len(rs.ranges) }

// Ranges returns the sorted ranges that make up the set.
func (rs *RangeSet) Ranges() []Range {
	return slices.Clone(rs.ranges)
}

func (rs *RangeSet) String() string {
	return fmt.Sprintf("RangeSet%v", rs.ranges)
}
