// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import "time"

// Run describes one processing run of a payload.
type Run struct {
	Payload  string
	Date     string // processed day, YYMMDD
	Revision string
	Frames   int64 // frames read
	Rejected int64 // frames rejected by the decoder
	Rollover bool  // frame counter offset at the end of the run
	Time     time.Time
}

// RolloverState is the last rollover state stored for a payload.
type RolloverState struct {
	Payload string
	Rolled  bool
	LastFC  uint32
	Time    time.Time
}
