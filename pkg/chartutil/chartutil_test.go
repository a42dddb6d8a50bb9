// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartutil

import (
	"errors"
	"testing"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
)

func TestResolutionFor(t *testing.T) {
	tests := []struct {
		duration int64
		want     chartschema.Resolution
	}{
		{0, chartschema.ResOneMinute},
		{twoHours - 1, chartschema.ResOneMinute},
		{twoHours, chartschema.ResFiveMinutes},
		{oneWeek - 1, chartschema.ResFiveMinutes},
		{oneWeek, chartschema.ResOneHour},
		{oneWeek * 10, chartschema.ResOneHour},
	}
	for _, tt := range tests {
		got, err := ResolutionFor(tt.duration)
		if err != nil {
			t.Fatalf("ResolutionFor(%d) unexpected error: %v", tt.duration, err)
		}
		if got != tt.want {
			t.Errorf("ResolutionFor(%d) = %d, want %d", tt.duration, got, tt.want)
		}
	}
}

func TestResolutionForNegative(t *testing.T) {
	_, err := ResolutionFor(-1)
	if !errors.Is(err, chartschema.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestNumDatapoints(t *testing.T) {
	n, err := NumDatapoints(3600, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 60 {
		t.Errorf("NumDatapoints = %d, want 60", n)
	}

	n, err = NumDatapoints(3600)
	if err != nil {
		t.Fatal(err)
	}
	if n != 60 {
		t.Errorf("NumDatapoints (inferred res) = %d, want 60", n)
	}
}

func TestRollUp(t *testing.T) {
	in := []chartschema.Float{1, 2, 3, 4, 5}
	out := RollUp(in, 2)
	want := []chartschema.Float{1.5, 3.5, 5}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i := range out {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestExtrapolate(t *testing.T) {
	in := []chartschema.Float{1, 2}
	out := Extrapolate(in, 3)
	want := []chartschema.Float{1, 1, 1, 2, 2, 2}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i := range out {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

// P5: len(scale(xs, a, b)) == len(xs)*a/b when a>b, ceil(len(xs)*a/b) when a<b, len(xs) when a==b.
func TestScaleLengths(t *testing.T) {
	xs := make([]chartschema.Float, 60)
	for i := range xs {
		xs[i] = chartschema.Float(i)
	}

	out, err := Scale(xs, chartschema.ResOneMinute, chartschema.ResOneMinute)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(xs) {
		t.Errorf("equal resolution: len = %d, want %d", len(out), len(xs))
	}

	out, err = Scale(xs, chartschema.ResOneMinute, chartschema.ResFiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 12 {
		t.Errorf("coarsen: len = %d, want 12", len(out))
	}

	out, err = Scale(xs, chartschema.ResOneHour, chartschema.ResFiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(xs)*12 {
		t.Errorf("refine: len = %d, want %d", len(out), len(xs)*12)
	}
}

func TestScaleInvalidResolution(t *testing.T) {
	_, err := Scale([]chartschema.Float{1}, 42, chartschema.ResOneMinute)
	if !errors.Is(err, chartschema.ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
}

// P6: Extrapolate(RollUp(xs, k), k) == xs iff every chunk of xs is constant.
func TestRollUpExtrapolateRoundTripConstantChunks(t *testing.T) {
	xs := []chartschema.Float{2, 2, 7, 7, 9, 9}
	rolled := RollUp(xs, 2)
	back := Extrapolate(rolled, 2)
	for i := range xs {
		if back[i] != xs[i] {
			t.Errorf("round trip mismatch at %d: got %v want %v", i, back[i], xs[i])
		}
	}
}

func TestRollUpExtrapolateLossyOnNonConstantChunks(t *testing.T) {
	xs := []chartschema.Float{1, 2, 3, 4}
	rolled := RollUp(xs, 2)
	back := Extrapolate(rolled, 2)
	same := true
	for i := range xs {
		if back[i] != xs[i] {
			same = false
		}
	}
	if same {
		t.Errorf("expected lossy round trip for non-constant chunks")
	}
}
