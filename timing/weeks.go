// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timing

import (
	"github.com/go-lpc/barrel/frame"
)

// halfWeek is the backward ms-of-week jump interpreted as a new week.
const halfWeek = msPerWeek / 2

// fillWeeks returns the GPS week of every sample, filling the missing
// ones from the closest known week. A wrap of the ms-of-week between two
// samples moves the filled week by one.
func fillWeeks(ss []Sample) []uint16 {
	weeks := make([]uint16, len(ss))
	first := -1
	for i, s := range ss {
		weeks[i] = s.Week
		if first < 0 && s.Week != frame.FillHK {
			first = i
		}
	}
	if first < 0 {
		return weeks
	}

	// forward
	var (
		week = weeks[first]
		msow = ss[first].MSOW
	)
	for i := first + 1; i < len(ss); i++ {
		s := ss[i]
		if s.Week != frame.FillHK {
			week = s.Week
			msow = s.MSOW
			continue
		}
		if s.MSOW != frame.FillGPS {
			if msow != frame.FillGPS && s.MSOW < msow-halfWeek {
				week++
			}
			msow = s.MSOW
		}
		weeks[i] = week
	}

	// backward
	week = weeks[first]
	msow = ss[first].MSOW
	for i := first - 1; i >= 0; i-- {
		s := ss[i]
		if s.MSOW != frame.FillGPS {
			if msow != frame.FillGPS && s.MSOW > msow+halfWeek {
				week--
			}
			msow = s.MSOW
		}
		weeks[i] = week
	}

	return weeks
}
