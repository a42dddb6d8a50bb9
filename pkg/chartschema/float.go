// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartschema

import (
	"errors"
	"io"
	"math"
	"strconv"
)

// A custom float type so that (Un)MarshalJSON can be overloaded and
// NaN/null can be used to represent "no data yet" without boxing every
// sample behind a pointer.
type Float float64

var NaN Float = Float(math.NaN())

func (f Float) IsNaN() bool {
	return math.IsNaN(float64(f))
}

// NaN serializes to `null`.
func (f Float) MarshalJSON() ([]byte, error) {
	if f.IsNaN() {
		return []byte("null"), nil
	}

	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// `null` deserializes to NaN.
func (f *Float) UnmarshalJSON(input []byte) error {
	s := string(input)
	if s == "null" {
		*f = NaN
		return nil
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(val)
	return nil
}

// Write writes the JSON representation of f to w, NaN as `null`.
func (f Float) Write(w io.Writer) error {
	data, err := f.MarshalJSON()
	if err != nil {
		return errors.New("chartschema: failed to marshal Float: " + err.Error())
	}
	_, err = w.Write(data)
	return err
}
