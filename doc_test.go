// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package barrel

import (
	"runtime/debug"
	"testing"
)

func TestVersion(t *testing.T) {
	const root = "github.com/go-lpc/barrel"
	for _, tc := range []struct {
		name string
		bi   *debug.BuildInfo
		vers string
		sum  string
	}{
		{
			name: "nil",
		},
		{
			name: "missing",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{Path: "go-hep.org/x/hep", Version: "v0.32.1"}},
			},
		},
		{
			name: "dep",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{Path: root, Version: "v0.3.0", Sum: "h1:xyz"}},
			},
			vers: "v0.3.0",
			sum:  "h1:xyz",
		},
		{
			name: "replace-path",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: root, Version: "v0.3.0",
					Replace: &debug.Module{Path: "../barrel"},
				}},
			},
			vers: "../barrel",
		},
		{
			name: "replace-version",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: root, Version: "v0.3.0",
					Replace: &debug.Module{Path: "example.org/barrel", Version: "v0.4.0", Sum: "h1:abc"},
				}},
			},
			vers: "example.org/barrel v0.4.0",
			sum:  "h1:abc",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vers, sum := versionOf(tc.bi)
			if vers != tc.vers {
				t.Fatalf("invalid version: got=%q, want=%q", vers, tc.vers)
			}
			if sum != tc.sum {
				t.Fatalf("invalid sum: got=%q, want=%q", sum, tc.sum)
			}
		})
	}
}
