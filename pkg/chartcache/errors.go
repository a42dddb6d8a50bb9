// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartcache

import "errors"

var (
	// ErrInvalidRange is returned when end <= start.
	ErrInvalidRange = errors.New("chartcache: end must be after start")

	// ErrUnalignedRange is returned when start or end is not a multiple of
	// the given resolution.
	ErrUnalignedRange = errors.New("chartcache: start/end must align to resolution")

	// ErrDataLengthMismatch is returned when len(series) != (end-start)/resolution.
	ErrDataLengthMismatch = errors.New("chartcache: series length does not match (end-start)/resolution")

	// ErrQueryNotCovered is returned by Query when [start, end) is not
	// entirely covered by cached intervals, at any stored resolution.
	ErrQueryNotCovered = errors.New("chartcache: query range is not entirely covered by the cache")
)
