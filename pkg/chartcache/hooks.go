// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartcache

import (
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/intervaltree"
)

// periodSplitter divides an interval at point: the lower half keeps
// samples strictly before point, the upper half keeps samples from point
// onward. Both halves inherit the parent's resolution. Adapted from
// original_source/util.py's period_data_splitter.
func periodSplitter(iv intervaltree.Interval[*IntervalData], isLower bool, point int64) *IntervalData {
	d := iv.Data
	offset := int((point - d.Start) / int64(d.Resolution))
	if isLower {
		return &IntervalData{
			Resolution: d.Resolution,
			Start:      d.Start,
			End:        point,
			Series:     append([]chartschema.Float(nil), d.Series[:offset]...),
		}
	}
	return &IntervalData{
		Resolution: d.Resolution,
		Start:      point,
		End:        d.End,
		Series:     append([]chartschema.Float(nil), d.Series[offset:]...),
	}
}

// resolutionReducer keeps the finer (smaller-numeric) resolution among two
// intervals sharing the same (begin, end). Per Q3, ties (equal resolution)
// keep the earlier-merged one. Adapted from original_source/util.py's
// period_data_reducer.
func resolutionReducer(earlier, later *IntervalData) *IntervalData {
	if earlier.Resolution <= later.Resolution {
		return earlier
	}
	return later
}

// seriesCombinator concatenates the series of two intervals of the same
// resolution that are end-to-end adjacent. Declines to merge (ok=false)
// when the resolutions differ, which is how ChartCache.Merge preserves I2
// without the original Python reference's 1-minute OFFSET workaround (Q2):
// intervaltree.Tree.MergeAdjacent leaves declined pairs as separate,
// touching intervals. Adapted from original_source/util.py's
// period_data_combinator.
func seriesCombinator(earlier, later *IntervalData) (*IntervalData, bool) {
	if earlier.Resolution != later.Resolution {
		return nil, false
	}
	series := make([]chartschema.Float, 0, len(earlier.Series)+len(later.Series))
	series = append(series, earlier.Series...)
	series = append(series, later.Series...)
	return &IntervalData{
		Resolution: earlier.Resolution,
		Start:      earlier.Start,
		End:        later.End,
		Series:     series,
	}, true
}
