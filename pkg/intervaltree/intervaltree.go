// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intervaltree provides a generic, mutable container of half-open
// intervals [Begin, End) over int64 keys, each carrying an arbitrary value.
//
// The half-open Interval representation (Begin/End, Intersects) follows the
// pack's grailbio-base intervalmap reference, generalized to a mutable
// structure (grailbio's intervalmap.T is built once from a fixed slice and
// never mutated afterwards). The split/merge vocabulary (SliceAt,
// SplitAllOverlaps, MergeEqual, MergeAdjacent) follows the original Python
// reference implementation's overrides of the `intervaltree` library
// (split_overlaps, slice, merge_equals, merge_overlaps in chart_cache.py),
// translated into hook functions parameterizing this container instead of
// subclassing it.
//
// Storage is a slice kept sorted by Begin; Add finds its insertion point by
// binary search, while lookups (At, Overlap, Remove) scan the slice. This
// keeps the implementation small and easy to reason about, appropriate for
// the cache sizes a single chart session accumulates in one process.
package intervaltree

import "sort"

// Interval is a half-open range [Begin, End) carrying a Data value.
type Interval[V any] struct {
	Begin, End int64
	Data       V
}

// Intersects reports whether iv overlaps the half-open range [lo, hi).
func (iv Interval[V]) Intersects(lo, hi int64) bool {
	return iv.Begin < hi && lo < iv.End
}

// Splitter produces the Data value for one half of an interval being sliced
// at point. isLower is true for the [iv.Begin, point) half.
type Splitter[V any] func(iv Interval[V], isLower bool, point int64) V

// Reducer folds two intervals sharing the same (Begin, End) into one Data
// value. earlier precedes later in the tree's storage order, which is not
// necessarily insertion order (see Add).
type Reducer[V any] func(earlier, later V) V

// Combinator folds the Data of two end-to-end adjacent intervals
// (earlier.End == later.Begin) into the Data of their union. It returns
// ok=false when the two intervals should NOT be merged (e.g. they carry
// incompatible resolutions) — MergeAdjacent then leaves both intervals as
// separate, touching entries instead of folding them.
type Combinator[V any] func(earlier, later V) (merged V, ok bool)

// Tree is a mutable set of non-overlapping-by-construction-unless-inserted
// half-open intervals. The zero value is ready to use.
type Tree[V any] struct {
	ivs []Interval[V]
}

// New returns an empty Tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

// Len returns the number of stored intervals.
func (t *Tree[V]) Len() int {
	return len(t.ivs)
}

// search returns the smallest index i such that t.ivs[i].Begin >= key.
func (t *Tree[V]) search(key int64) int {
	return sort.Search(len(t.ivs), func(i int) bool { return t.ivs[i].Begin >= key })
}

// Add inserts iv, keeping the backing slice sorted by Begin; iv goes before
// any stored interval with the same Begin. Does not check
// for overlap with existing intervals; callers that need non-overlapping
// storage must arrange that themselves (ChartCache does, via
// SplitAllOverlaps + MergeEqual).
func (t *Tree[V]) Add(iv Interval[V]) {
	i := t.search(iv.Begin)
	t.ivs = append(t.ivs, Interval[V]{})
	copy(t.ivs[i+1:], t.ivs[i:])
	t.ivs[i] = iv
}

// Remove deletes the first interval matching iv's (Begin, End) exactly. It
// is a no-op if no such interval exists.
func (t *Tree[V]) Remove(iv Interval[V]) {
	for i := range t.ivs {
		if t.ivs[i].Begin == iv.Begin && t.ivs[i].End == iv.End {
			t.ivs = append(t.ivs[:i], t.ivs[i+1:]...)
			return
		}
	}
}

// removeAt deletes the interval at the given slice index (as returned by
// Iterate), shifting later elements down.
func (t *Tree[V]) removeAt(i int) {
	t.ivs = append(t.ivs[:i], t.ivs[i+1:]...)
}

// At returns every interval containing point.
func (t *Tree[V]) At(point int64) []Interval[V] {
	var out []Interval[V]
	for _, iv := range t.ivs {
		if iv.Begin <= point && point < iv.End {
			out = append(out, iv)
		}
	}
	return out
}

// Overlap returns every interval intersecting [lo, hi), sorted by Begin.
func (t *Tree[V]) Overlap(lo, hi int64) []Interval[V] {
	var out []Interval[V]
	for _, iv := range t.ivs {
		if iv.Intersects(lo, hi) {
			out = append(out, iv)
		}
	}
	return out
}

// Iterate returns all stored intervals sorted by Begin. The returned slice
// is a copy; mutating it does not affect the tree.
func (t *Tree[V]) Iterate() []Interval[V] {
	out := make([]Interval[V], len(t.ivs))
	copy(out, t.ivs)
	return out
}

// SliceAt splits every interval iv with iv.Begin < point < iv.End into
// [iv.Begin, point) and [point, iv.End), assigning each half's Data via
// splitter. Intervals where iv.Begin == point are left untouched (there is
// nothing to slice).
func (t *Tree[V]) SliceAt(point int64, splitter Splitter[V]) {
	var hit []int
	for i, iv := range t.ivs {
		if iv.Begin < point && point < iv.End {
			hit = append(hit, i)
		}
	}
	if len(hit) == 0 {
		return
	}

	// Remove from the back so earlier indices stay valid, then insert the
	// two halves.
	for i := len(hit) - 1; i >= 0; i-- {
		idx := hit[i]
		iv := t.ivs[idx]
		t.removeAt(idx)
		t.Add(Interval[V]{Begin: iv.Begin, End: point, Data: splitter(iv, true, point)})
		t.Add(Interval[V]{Begin: point, End: iv.End, Data: splitter(iv, false, point)})
	}
}

// SplitAllOverlaps collects all distinct boundary points currently stored
// and slices the tree at each one, producing the unique finest partition
// whose boundaries are exactly the union of the originals' boundaries.
// Where originals overlapped, each keeps its own piece, so the result can
// hold several intervals with identical (Begin, End); MergeEqual folds them.
// A no-op when at most one contiguous range of boundaries exists.
func (t *Tree[V]) SplitAllOverlaps(splitter Splitter[V]) {
	bounds := t.boundaries()
	if len(bounds) <= 2 {
		return
	}
	for _, b := range bounds {
		t.SliceAt(b, splitter)
	}
}

func (t *Tree[V]) boundaries() []int64 {
	set := map[int64]struct{}{}
	for _, iv := range t.ivs {
		set[iv.Begin] = struct{}{}
		set[iv.End] = struct{}{}
	}
	out := make([]int64, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MergeEqual replaces every maximal group of intervals sharing the same
// (Begin, End) with one interval whose Data is the left fold of the group
// (in current storage order) by reducer.
func (t *Tree[V]) MergeEqual(reducer Reducer[V]) {
	groups := map[[2]int64][]int{}
	order := make([][2]int64, 0)
	for i, iv := range t.ivs {
		key := [2]int64{iv.Begin, iv.End}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var out []Interval[V]
	for _, key := range order {
		idxs := groups[key]
		merged := t.ivs[idxs[0]].Data
		for _, idx := range idxs[1:] {
			merged = reducer(merged, t.ivs[idx].Data)
		}
		out = append(out, Interval[V]{Begin: key[0], End: key[1], Data: merged})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	t.ivs = out
}

// MergeAdjacent replaces every maximal run of end-to-end touching intervals
// (each interval's End equals the next interval's Begin) whose combinator
// agrees to merge with one interval spanning the run, folded left-to-right
// by combinator. Intervals are considered in sorted (by Begin) order. When
// combinator declines to merge two touching intervals (ok=false), the run
// breaks there and both sides are kept as-is.
func (t *Tree[V]) MergeAdjacent(combinator Combinator[V]) {
	if len(t.ivs) == 0 {
		return
	}
	sort.Slice(t.ivs, func(i, j int) bool { return t.ivs[i].Begin < t.ivs[j].Begin })

	out := make([]Interval[V], 0, len(t.ivs))
	cur := t.ivs[0]
	for _, iv := range t.ivs[1:] {
		if cur.End == iv.Begin {
			if merged, ok := combinator(cur.Data, iv.Data); ok {
				cur = Interval[V]{Begin: cur.Begin, End: iv.End, Data: merged}
				continue
			}
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	t.ivs = out
}
