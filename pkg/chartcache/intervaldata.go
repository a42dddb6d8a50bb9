// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartcache

import (
	"fmt"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartutil"
)

// IntervalData is the value attached to each interval stored in a
// ChartCache: the resolution the series was fetched at, the half-open
// [Start, End) range it covers, and the samples themselves.
type IntervalData struct {
	Resolution chartschema.Resolution
	Start, End int64
	Series     []chartschema.Float
}

// NewIntervalData validates and constructs an IntervalData. Stands in for
// the original_source/util.py list_tointerval helper: it is the single
// place that enforces I3 (alignment) and I4 (series length) before data
// enters the tree.
func NewIntervalData(start, end int64, resolution chartschema.Resolution, series []chartschema.Float) (*IntervalData, error) {
	if !resolution.Valid() {
		return nil, chartschema.ErrInvalidResolution
	}
	if end <= start {
		return nil, ErrInvalidRange
	}
	res := int64(resolution)
	if start%res != 0 || end%res != 0 {
		return nil, ErrUnalignedRange
	}
	want := int((end - start) / res)
	if len(series) != want {
		return nil, ErrDataLengthMismatch
	}
	return &IntervalData{
		Resolution: resolution,
		Start:      start,
		End:        end,
		Series:     append([]chartschema.Float(nil), series...),
	}, nil
}

func (d *IntervalData) String() string {
	return fmt.Sprintf("IntervalData(res=%d, [%d,%d), n=%d)", d.Resolution, d.Start, d.End, len(d.Series))
}

// clip returns the samples of d covering [lo, hi) and clipStart, the
// absolute timestamp the first returned sample represents. [lo, hi) must be
// a sub-range of [d.Start, d.End), but — unlike d itself — need not align to
// d.Resolution: a caller querying at a finer resolution than d was stored
// at may clip to a boundary that falls inside one of d's native buckets.
// The lower bound is rounded down to the start of that bucket (clipStart),
// the upper bound rounded up (via chartutil.CeilDiv) so a partially
// overlapping final bucket is included rather than silently dropped.
func (d *IntervalData) clip(lo, hi int64) (series []chartschema.Float, clipStart int64) {
	res := int64(d.Resolution)
	i0 := int((lo - d.Start) / res)
	if i0 < 0 {
		i0 = 0
	}
	i1 := int(chartutil.CeilDiv(hi-d.Start, res))
	if i1 > len(d.Series) {
		i1 = len(d.Series)
	}
	if i0 > i1 {
		i0 = i1
	}
	return d.Series[i0:i1], d.Start + int64(i0)*res
}
