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

package rangeset_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"candidls.dev/go/internal/lsp/rangeset"
)

func TestAdd(t *testing.T) {
	testCases := []struct {
		name string
		add  []rangeset.Range
		want []rangeset.Range
	}{{
		name: "Empty",
		want: nil,
	}, {
		name: "Disjoint",
		add:  []rangeset.Range{{30, 40}, {10, 20}, {50, 60}},
		want: []rangeset.Range{{10, 20}, {30, 40}, {50, 60}},
	}, {
		name: "Overlap",
		add:  []rangeset.Range{{10, 20}, {15, 25}, {5, 12}},
		want: []rangeset.Range{{5, 25}},
	}, {
		name: "Touching",
		add:  []rangeset.Range{{10, 20}, {20, 30}, {0, 10}},
		want: []rangeset.Range{{0, 30}},
	}, {
		name: "Bridge",
		add:  []rangeset.Range{{10, 20}, {30, 40}, {50, 60}, {18, 52}},
		want: []rangeset.Range{{10, 60}},
	}, {
		name: "Contained",
		add:  []rangeset.Range{{10, 50}, {20, 30}},
		want: []rangeset.Range{{10, 50}},
	}, {
		name: "Containing",
		add:  []rangeset.Range{{10, 20}, {30, 40}, {5, 45}},
		want: []rangeset.Range{{5, 45}},
	}, {
		name: "EmptyRangeIgnored",
		add:  []rangeset.Range{{10, 20}, {30, 30}, {40, 35}},
		want: []rangeset.Range{{10, 20}},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rs := rangeset.NewRangeSet()
			for _, r := range tc.add {
				rs.Add(r.Start, r.End)
			}
			qt.Assert(t, qt.DeepEquals(rs.Ranges(), tc.want))
			qt.Assert(t, qt.Equals(rs.Len(), len(tc.want)))
		})
	}
}

func TestContains(t *testing.T) {
	var rs rangeset.RangeSet
	rs.Add(10, 20)
	rs.Add(30, 40)

	testCases := []struct {
		offset int
		want   bool
	}{
		{5, false},
		{10, true},
		{15, true},
		{20, false},
		{25, false},
		{30, true},
		{39, true},
		{40, false},
		{100, false},
	}
	for _, tc := range testCases {
		qt.Check(t, qt.Equals(rs.Contains(tc.offset), tc.want), qt.Commentf("offset %d", tc.offset))
	}
}
