// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chartutil provides the resolution business rule and the
// roll-up/extrapolation primitives the chart cache is built on.
//
// Adapted from pkg/resampler (mean/repeat resampling over schema.Float
// slices) and from the original_source/util.py reference (resolution,
// rolled_up_data, extrapolated_data, scaled_data).
package chartutil

import (
	"math"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
)

const (
	secondsInMinute = 60
	secondsInHour   = 60 * secondsInMinute
	secondsInDay    = 24 * secondsInHour
	secondsInWeek   = 7 * secondsInDay

	twoHours = 2 * secondsInHour
	oneWeek  = secondsInWeek
)

// ResolutionFor returns the resolution the business rule assigns to a
// window of the given duration (seconds):
//
//	0 <= d < 2h   -> 60
//	2h <= d < 1w  -> 300
//	d >= 1w       -> 3600
func ResolutionFor(durationSeconds int64) (chartschema.Resolution, error) {
	if durationSeconds < 0 {
		return 0, chartschema.ErrInvalidDuration
	}
	switch {
	case durationSeconds < twoHours:
		return chartschema.ResOneMinute, nil
	case durationSeconds < oneWeek:
		return chartschema.ResFiveMinutes, nil
	default:
		return chartschema.ResOneHour, nil
	}
}

// NumDatapoints returns duration/resolution. If resolution is omitted,
// ResolutionFor(duration) is used. Callers are expected to pass values that
// divide evenly; when they don't, the result is truncated.
func NumDatapoints(duration int64, resolution ...chartschema.Resolution) (int, error) {
	var res chartschema.Resolution
	if len(resolution) > 0 {
		res = resolution[0]
	} else {
		r, err := ResolutionFor(duration)
		if err != nil {
			return 0, err
		}
		res = r
	}
	if res <= 0 {
		return 0, chartschema.ErrInvalidResolution
	}
	return int(duration / int64(res)), nil
}

// RollUp partitions samples into consecutive chunks of size k (the last
// chunk may be short) and emits the arithmetic mean of each chunk.
// Output length = ceil(len(samples)/k).
func RollUp(samples []chartschema.Float, k int) []chartschema.Float {
	if k <= 0 {
		return append([]chartschema.Float(nil), samples...)
	}
	out := make([]chartschema.Float, 0, (len(samples)+k-1)/k)
	for i := 0; i < len(samples); i += k {
		end := i + k
		if end > len(samples) {
			end = len(samples)
		}
		out = append(out, mean(samples[i:end]))
	}
	return out
}

func mean(xs []chartschema.Float) chartschema.Float {
	if len(xs) == 0 {
		return chartschema.NaN
	}
	var sum float64
	nan := false
	for _, x := range xs {
		if x.IsNaN() {
			nan = true
			continue
		}
		sum += float64(x)
	}
	if nan && len(xs) == 1 {
		return chartschema.NaN
	}
	return chartschema.Float(sum / float64(len(xs)))
}

// Extrapolate repeats each sample k times consecutively.
// Output length = len(samples) * k.
func Extrapolate(samples []chartschema.Float, k int) []chartschema.Float {
	if k <= 0 {
		return nil
	}
	out := make([]chartschema.Float, 0, len(samples)*k)
	for _, x := range samples {
		for i := 0; i < k; i++ {
			out = append(out, x)
		}
	}
	return out
}

// Scale converts samples from oldRes to newRes: roll-up when coarsening,
// extrapolation when refining, the input unchanged when equal.
func Scale(samples []chartschema.Float, oldRes, newRes chartschema.Resolution) ([]chartschema.Float, error) {
	if !oldRes.Valid() || !newRes.Valid() {
		return nil, chartschema.ErrInvalidResolution
	}
	if oldRes == newRes {
		return append([]chartschema.Float(nil), samples...), nil
	}
	if oldRes < newRes {
		return RollUp(samples, int(newRes/oldRes)), nil
	}
	return Extrapolate(samples, int(oldRes/newRes)), nil
}

// CeilDiv returns ceil(a/b) for positive b.
func CeilDiv(a, b int64) int64 {
	return int64(math.Ceil(float64(a) / float64(b)))
}
