// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartschema

import "errors"

// Resolution is the sample spacing, in seconds, of a stored or requested
// series. The legal set is exactly {60, 300, 3600}; any other value is a
// caller bug (ErrInvalidResolution).
type Resolution int64

const (
	ResOneMinute   Resolution = 60
	ResFiveMinutes Resolution = 300
	ResOneHour     Resolution = 3600
)

// ErrInvalidResolution is returned whenever a Resolution outside
// {60, 300, 3600} is produced or accepted.
var ErrInvalidResolution = errors.New("chartschema: resolution must be one of 60, 300, 3600")

// ErrInvalidDuration is returned by ResolutionFor for negative durations.
var ErrInvalidDuration = errors.New("chartschema: duration must not be negative")

// Valid reports whether r is one of the three legal resolutions.
func (r Resolution) Valid() bool {
	switch r {
	case ResOneMinute, ResFiveMinutes, ResOneHour:
		return true
	default:
		return false
	}
}

// Finer reports whether r is a finer (smaller-numeric) resolution than other.
func (r Resolution) Finer(other Resolution) bool {
	return r < other
}
