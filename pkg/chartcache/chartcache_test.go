// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartcache

import (
	"errors"
	"testing"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
)

func floats(n int, v chartschema.Float) []chartschema.Float {
	out := make([]chartschema.Float, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sequential(n int) []chartschema.Float {
	out := make([]chartschema.Float, n)
	for i := range out {
		out[i] = chartschema.Float(i)
	}
	return out
}

// P2: round trip.
func TestMergeQueryRoundTrip(t *testing.T) {
	c := New()
	data := floats(60, 20)
	if err := c.Merge(0, 3600, chartschema.ResOneMinute, data); err != nil {
		t.Fatal(err)
	}
	got, err := c.Query(0, 3600, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(data))
	}
	for i := range got {
		if got[i] != data[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], data[i])
		}
	}
}

// P3: monotone refinement — finer resolution always wins regardless of order.
func TestMergeMonotoneRefinement(t *testing.T) {
	c := New()
	coarse := floats(1, 10) // one hour bucket
	if err := c.Merge(0, 3600, chartschema.ResOneHour, coarse); err != nil {
		t.Fatal(err)
	}
	fine := sequential(60) // one minute resolution, same range
	if err := c.Merge(0, 3600, chartschema.ResOneMinute, fine); err != nil {
		t.Fatal(err)
	}

	got, err := c.Query(0, 3600, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fine {
		if got[i] != fine[i] {
			t.Errorf("expected finer data to win at %d: got %v want %v", i, got[i], fine[i])
		}
	}
}

func TestMergeMonotoneRefinementReverseOrder(t *testing.T) {
	c := New()
	fine := sequential(60)
	if err := c.Merge(0, 3600, chartschema.ResOneMinute, fine); err != nil {
		t.Fatal(err)
	}
	coarse := floats(1, 10)
	if err := c.Merge(0, 3600, chartschema.ResOneHour, coarse); err != nil {
		t.Fatal(err)
	}

	got, err := c.Query(0, 3600, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fine {
		if got[i] != fine[i] {
			t.Errorf("finer data should survive a later, coarser merge: got[%d]=%v want %v", i, got[i], fine[i])
		}
	}
}

// P4: len(query(s,e,r)) == (e-s)/r
func TestQueryLength(t *testing.T) {
	c := New()
	if err := c.Merge(0, 3600, chartschema.ResOneHour, floats(1, 5)); err != nil {
		t.Fatal(err)
	}
	got, err := c.Query(0, 3600, chartschema.ResFiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 12 {
		t.Errorf("len(got) = %d, want 12", len(got))
	}
}

// Extrapolating a coarser stored interval into a finer query must include
// the partially-overlapping final source bucket, not drop it: a query
// window that crosses a source-resolution boundary without starting on one
// should still extrapolate each source sample only across the portion of
// the window it actually covers.
func TestQueryExtrapolateBoundaryCrossing(t *testing.T) {
	c := New()
	hours := sequential(24) // hours[i] == i
	if err := c.Merge(0, 86400, chartschema.ResOneHour, hours); err != nil {
		t.Fatal(err)
	}

	got, err := c.Query(60, 3660, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 60 {
		t.Fatalf("len(got) = %d, want 60", len(got))
	}
	for i := 0; i < 59; i++ {
		if got[i] != hours[0] {
			t.Errorf("got[%d] = %v, want hour-0 value %v", i, got[i], hours[0])
		}
	}
	if got[59] != hours[1] {
		t.Errorf("got[59] = %v, want hour-1 value %v (boundary-crossing sample)", got[59], hours[1])
	}
}

// bucketAverage must anchor its destination buckets to the absolute
// dstRes grid, not to index 0 of the slice it's given: an overlapping
// finer-resolution interval can begin strictly inside a coarser
// destination bucket (aligned only to its own, finer resolution).
func TestBucketAverageAnchorsToAbsoluteGrid(t *testing.T) {
	series := []chartschema.Float{1, 2, 3, 4, 5, 6} // minutes 2..7, i.e. t=120,180,...,420
	got := bucketAverage(series, 120, chartschema.ResOneMinute, chartschema.ResFiveMinutes)
	want := []chartschema.Float{2, 5} // [120,300) -> avg(1,2,3); [300,480) -> avg(4,5,6)
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQueryNotCovered(t *testing.T) {
	c := New()
	if err := c.Merge(0, 60, chartschema.ResOneMinute, floats(1, 1)); err != nil {
		t.Fatal(err)
	}
	_, err := c.Query(0, 120, chartschema.ResOneMinute)
	if !errors.Is(err, ErrQueryNotCovered) {
		t.Errorf("expected ErrQueryNotCovered, got %v", err)
	}
}

func TestMergeValidation(t *testing.T) {
	c := New()
	if err := c.Merge(0, 50, chartschema.ResOneMinute, floats(1, 1)); !errors.Is(err, ErrUnalignedRange) {
		t.Errorf("expected ErrUnalignedRange, got %v", err)
	}
	if err := c.Merge(60, 0, chartschema.ResOneMinute, floats(1, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if err := c.Merge(0, 60, 42, floats(1, 1)); !errors.Is(err, chartschema.ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
	if err := c.Merge(0, 120, chartschema.ResOneMinute, floats(1, 1)); !errors.Is(err, ErrDataLengthMismatch) {
		t.Errorf("expected ErrDataLengthMismatch, got %v", err)
	}
}

// S6: Fragmented refetch — a cache holding two disjoint minute-resolution
// islands reports exactly the left, interior, and right gaps as missing.
func TestMissingRangesFragmented(t *testing.T) {
	c := New()
	nineHour := int64(9 * 3600)
	if err := c.Merge(nineHour+5*60, nineHour+10*60, chartschema.ResOneMinute, floats(5, 1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Merge(nineHour+15*60, nineHour+20*60, chartschema.ResOneMinute, floats(5, 1)); err != nil {
		t.Fatal(err)
	}

	start := nineHour
	end := int64(10*3600 + 55*60)
	got, err := c.MissingRanges(start, end, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	sortByStart(got)

	want := []MissingRange{
		{Start: nineHour, End: nineHour + 5*60, Resolution: chartschema.ResOneMinute},
		{Start: nineHour + 10*60, End: nineHour + 15*60, Resolution: chartschema.ResOneMinute},
		{Start: nineHour + 20*60, End: end, Resolution: chartschema.ResOneMinute},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d missing ranges, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("missing range %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMissingRangesEmptyCache(t *testing.T) {
	c := New()
	got, err := c.MissingRanges(0, 60, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (MissingRange{0, 60, chartschema.ResOneMinute}) {
		t.Errorf("unexpected result: %+v", got)
	}
}

// Q1 resolution: interior gap is enumerated (cache holds [0,60) and
// [180,240) at the requested resolution; query [0,240) should surface the
// interior hole [60,180) as missing, not silently skip it).
func TestMissingRangesInteriorGap(t *testing.T) {
	c := New()
	if err := c.Merge(0, 60, chartschema.ResOneMinute, floats(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Merge(180, 240, chartschema.ResOneMinute, floats(1, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := c.MissingRanges(0, 240, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (MissingRange{60, 180, chartschema.ResOneMinute}) {
		t.Errorf("expected interior gap [60,180) to be reported, got %+v", got)
	}
}

// I2: adjacent intervals of different resolution are kept separate
// (not silently merged, no resolution corruption).
func TestMergeKeepsDifferentResolutionsSeparateWhenAdjacent(t *testing.T) {
	c := New()
	if err := c.Merge(0, 3600, chartschema.ResOneHour, floats(1, 5)); err != nil {
		t.Fatal(err)
	}
	if err := c.Merge(3600, 3660, chartschema.ResOneMinute, floats(1, 9)); err != nil {
		t.Fatal(err)
	}

	ivs := c.tree.Iterate()
	if len(ivs) != 2 {
		t.Fatalf("expected 2 separate intervals, got %d: %+v", len(ivs), ivs)
	}
}

// Adjacent same-resolution intervals do get coalesced into one.
func TestMergeCoalescesSameResolution(t *testing.T) {
	c := New()
	if err := c.Merge(0, 60, chartschema.ResOneMinute, floats(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Merge(60, 120, chartschema.ResOneMinute, floats(1, 2)); err != nil {
		t.Fatal(err)
	}

	ivs := c.tree.Iterate()
	if len(ivs) != 1 {
		t.Fatalf("expected coalesced single interval, got %d: %+v", len(ivs), ivs)
	}
	if ivs[0].Data.Series[0] != 1 || ivs[0].Data.Series[1] != 2 {
		t.Errorf("coalesced series = %v, want [1 2]", ivs[0].Data.Series)
	}
}
