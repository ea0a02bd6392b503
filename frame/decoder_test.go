// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel/internal/sum16"
)

const srcID = 0x2a

func newFrame(fc uint32) Frame {
	f := Frame{
		Version: 3,
		Source:  srcID,
		FC:      fc,
		PPS:     120,
		RCNT:    42,
	}
	switch GPSKindOf(fc) {
	case GPSAltitude:
		f.GPS = 32_000_000
	case GPSTime:
		f.GPS = 345_600_000
	case GPSLatitude:
		f.GPS = -812_345_678
	case GPSLongitude:
		f.GPS = 1_234_567_890
	}
	for i := range f.Mag {
		f.Mag[i] = [3]uint32{0x800000 + uint32(i), 0x7fff00, 0x812345}
	}
	switch HKTagOf(fc) {
	case HKSatsLeap:
		f.HK = HKWord{A: 9, B: 16}
	case HKWeek:
		f.HK = HKWord{A: 1720}
	case HKTermCmd:
		f.HK = HKWord{A: 0, B: 17}
	case HKModemDCD:
		f.HK = HKWord{A: 2, B: 3}
	default:
		f.HK = HKWord{A: 38000}
	}
	for i := range f.FSPC {
		f.FSPC[i] = [4]uint16{uint16(1000 + i), uint16(200 + i), uint16(30 + i), uint16(i)}
	}
	for i := range f.MSPC {
		f.MSPC[i] = uint16(100 * i)
	}
	for i := range f.SSPC {
		f.SSPC[i] = uint16(7 * i)
	}
	return f
}

func TestCodec(t *testing.T) {
	for fc := uint32(0); fc < HKCycle; fc++ {
		want := newFrame(fc + 1<<20)
		raw := Encode(&want)
		if got, want := len(raw), Size; got != want {
			t.Fatalf("invalid frame size: got=%d, want=%d", got, want)
		}

		got, err := Decode(raw, srcID)
		if err != nil {
			t.Fatalf("fc=%d: could not decode frame: %+v", fc, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("fc=%d: invalid round-trip:\ngot= %+v\nwant=%+v", fc, got, want)
		}
	}
}

func TestDecodeReject(t *testing.T) {
	f := newFrame(12)
	good := Encode(&f)
	corrupt := append([]byte(nil), good...)
	corrupt[11] ^= 0x01

	for _, tc := range []struct {
		name string
		raw  func() []byte
		src  uint8
		want error
	}{
		{
			name: "short",
			raw:  func() []byte { return good[:Size-1] },
			src:  srcID,
			want: &Reject{Reason: BadLength, Len: Size - 1},
		},
		{
			name: "bad-checksum",
			raw:  func() []byte { return corrupt },
			src:  srcID,
			want: &Reject{
				Reason: BadChecksum,
				Recv:   binary.BigEndian.Uint16(good[Size-2:]),
				Comp:   sum16.Checksum(corrupt[:Size-2]),
			},
		},
		{
			name: "wrong-source",
			raw:  func() []byte { return good },
			src:  srcID + 1,
			want: &Reject{Reason: WrongSource, Source: srcID, Want: srcID + 1},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw(), tc.src)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want.Error(); got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
			if !errors.Is(err, &Reject{Reason: tc.want.(*Reject).Reason}) {
				t.Fatalf("error %v does not match reason", err)
			}
		})
	}
}

func TestChecksumInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(1234))
	for i := 0; i < 500; i++ {
		raw := make([]byte, Size)
		_, _ = rnd.Read(raw)
		raw[0] = 3<<3 | srcID>>3 // version=3
		raw[1] = raw[1]&0x1f | (srcID&0x7)<<5

		if rnd.Intn(2) == 0 {
			binary.BigEndian.PutUint16(raw[Size-2:], sum16.Checksum(raw[:Size-2]))
		}

		var (
			sum  = binary.BigEndian.Uint16(raw[Size-2:])
			comp = sum16.Checksum(raw[:Size-2])
		)

		_, err := Decode(raw, srcID)
		if got, want := errors.Is(err, ErrBadChecksum), sum != comp; got != want {
			t.Fatalf("iter=%d: bad-checksum=%v, want=%v (err=%v)", i, got, want, err)
		}
		if sum == comp && err != nil {
			t.Fatalf("iter=%d: unexpected error: %+v", i, err)
		}
	}
}

func TestFillQuality(t *testing.T) {
	for _, tc := range []struct {
		name  string
		fc    uint32
		setup func(f *Frame)
		check func(f *Frame) bool
		bad   FieldMask
	}{
		{
			name:  "altitude-too-high",
			fc:    4,
			setup: func(f *Frame) { f.GPS = AltMax + 1 },
			check: func(f *Frame) bool { return f.GPS == FillGPS },
			bad:   FieldGPS,
		},
		{
			name:  "altitude-negative",
			fc:    8,
			setup: func(f *Frame) { f.GPS = -1 },
			check: func(f *Frame) bool { return f.GPS == FillGPS },
			bad:   FieldGPS,
		},
		{
			name:  "ms-of-week",
			fc:    5,
			setup: func(f *Frame) { f.GPS = MSOWMax + 1 },
			check: func(f *Frame) bool { return f.GPS == FillGPS },
			bad:   FieldGPS,
		},
		{
			name:  "latitude-unchecked",
			fc:    6,
			setup: func(f *Frame) { f.GPS = -2_000_000_000 },
			check: func(f *Frame) bool { return f.GPS == -2_000_000_000 },
		},
		{
			name:  "pps-out-of-range",
			fc:    1,
			setup: func(f *Frame) { f.PPS = 1200 },
			check: func(f *Frame) bool { return f.PPS == FillPPS },
			bad:   FieldPPS,
		},
		{
			name:  "pps-not-arrived",
			fc:    1,
			setup: func(f *Frame) { f.PPS = PPSNotArrived },
			check: func(f *Frame) bool { return f.PPS == FillPPS },
		},
		{
			name:  "mag-saturated",
			fc:    2,
			setup: func(f *Frame) { f.Mag[2][1] = 0 },
			check: func(f *Frame) bool { return f.Mag[2][1] == FillMag && f.Mag[2][0] != FillMag },
			bad:   FieldMag,
		},
		{
			name:  "hk-analog",
			fc:    12,
			setup: func(f *Frame) { f.HK.A = 0xffff },
			check: func(f *Frame) bool { return f.HK.A == FillHK },
			bad:   FieldHK,
		},
		{
			name:  "hk-sats",
			fc:    36,
			setup: func(f *Frame) { f.HK = HKWord{A: 40, B: 16} },
			check: func(f *Frame) bool { return f.HK.A == FillHK && f.HK.B == 16 },
			bad:   FieldHK,
		},
		{
			name:  "hk-week",
			fc:    77,
			setup: func(f *Frame) { f.HK = HKWord{A: 12000} },
			check: func(f *Frame) bool { return f.HK.A == FillHK },
			bad:   FieldHK,
		},
		{
			name:  "hk-terminate",
			fc:    38,
			setup: func(f *Frame) { f.HK = HKWord{A: 2, B: 200} },
			check: func(f *Frame) bool { return f.HK.A == FillHK && f.HK.B == 200 },
			bad:   FieldHK,
		},
		{
			name:  "fspc-overflow",
			fc:    3,
			setup: func(f *Frame) { f.FSPC[7][3] = 0xff },
			check: func(f *Frame) bool { return f.FSPC[7][3] == FillCount && f.FSPC[7][2] == 37 },
			bad:   FieldFSPC,
		},
		{
			name:  "mspc-overflow",
			fc:    3,
			setup: func(f *Frame) { f.MSPC[11] = 0xffff },
			check: func(f *Frame) bool { return f.MSPC[11] == FillCount },
			bad:   FieldMSPC,
		},
		{
			name:  "sspc-overflow",
			fc:    3,
			setup: func(f *Frame) { f.SSPC[0] = 0xffff },
			check: func(f *Frame) bool { return f.SSPC[0] == FillCount },
			bad:   FieldSSPC,
		},
		{
			name:  "rcnt-overflow",
			fc:    3,
			setup: func(f *Frame) { f.RCNT = 0xffff },
			check: func(f *Frame) bool { return f.RCNT == FillCount },
			bad:   FieldRCNT,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFrame(tc.fc)
			tc.setup(&f)

			got, err := Decode(Encode(&f), srcID)
			if err != nil {
				t.Fatalf("could not decode frame: %+v", err)
			}
			if !tc.check(&got) {
				t.Fatalf("invalid decoded field: %+v", got)
			}
			if got, want := got.Bad, tc.bad; got != want {
				t.Fatalf("invalid field mask: got=0x%x, want=0x%x", got, want)
			}
			if got, want := got.Quality.Has(OutOfRange), tc.bad != 0; got != want {
				t.Fatalf("invalid out-of-range flag: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestLayoutValidate(t *testing.T) {
	for _, tc := range []struct {
		lay Layout
		ok  bool
	}{
		{DefaultLayout, true},
		{Layout{FSPC: [4]uint{12, 12, 12, 12}}, true},
		{Layout{FSPC: [4]uint{16, 16, 8, 4}}, true},
		{Layout{FSPC: [4]uint{16, 16, 16, 8}}, false},
		{Layout{FSPC: [4]uint{24, 8, 8, 8}}, false},
		{Layout{FSPC: [4]uint{0, 16, 16, 16}}, false},
	} {
		err := tc.lay.Validate()
		if got, want := err == nil, tc.ok; got != want {
			t.Fatalf("layout %v: valid=%v, want=%v (err=%v)", tc.lay.FSPC, got, want, err)
		}
	}
}

func TestAlternateLayout(t *testing.T) {
	lay := Layout{FSPC: [4]uint{12, 12, 12, 12}}
	want := newFrame(17)
	want.FSPC[3] = [4]uint16{4000, 12, 13, 4094}

	got, err := lay.Decode(lay.Encode(&want), srcID)
	if err != nil {
		t.Fatalf("could not decode frame: %+v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid round-trip:\ngot= %+v\nwant=%+v", got, want)
	}
}

func TestBits(t *testing.T) {
	buf := make([]byte, 8)
	w := bitWriter{p: buf}
	w.write(0x5, 3)
	w.write(0x1ffff, 17)
	w.write(0x0, 1)
	w.write(0xabcdef, 24)
	w.write(0x3, 2)

	r := bitReader{p: buf}
	for _, want := range []struct {
		n uint
		v uint64
	}{{3, 0x5}, {17, 0x1ffff}, {1, 0}, {24, 0xabcdef}, {2, 0x3}} {
		if got := r.read(want.n); got != want.v {
			t.Fatalf("invalid %d-bit field: got=0x%x, want=0x%x", want.n, got, want.v)
		}
	}
}

func TestSourceOf(t *testing.T) {
	for _, src := range []uint8{0, 1, srcID, SourceMax} {
		f := newFrame(1)
		f.Source = src
		got, err := SourceOf(Encode(&f))
		if err != nil {
			t.Fatalf("src=%d: could not extract source id: %+v", src, err)
		}
		if got != src {
			t.Fatalf("invalid source id: got=%d, want=%d", got, src)
		}
	}

	f := newFrame(1)
	raw := Encode(&f)
	raw[3] ^= 0x10
	if _, err := SourceOf(raw); !errors.Is(err, ErrBadChecksum) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := SourceOf(raw[:10]); !errors.Is(err, ErrBadLength) {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestDecoderLog(t *testing.T) {
	f := newFrame(100)
	bad := Encode(&f)
	bad[10] ^= 0xff

	for _, tc := range []struct {
		name string
		src  uint8
		raw  []byte
		want string
	}{
		{
			name: "ok",
			src:  srcID,
			raw:  Encode(&f),
		},
		{
			name: "wrong-source",
			src:  srcID + 1,
			raw:  Encode(&f),
			want: "dropping frame from source 42 (want=43)",
		},
		{
			name: "bad-checksum",
			src:  srcID,
			raw:  bad,
			want: "dropping frame: frame: inconsistent checksum",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				buf = new(bytes.Buffer)
				dec = NewDecoder(tc.src, DefaultLayout, log.NewMsgStream("frame", log.LvlDebug, buf))
			)
			_, err := dec.Decode(tc.raw)
			if (err != nil) != (tc.want != "") {
				t.Fatalf("invalid error: %+v", err)
			}
			switch got := buf.String(); tc.want {
			case "":
				if got != "" {
					t.Fatalf("unexpected log output: %q", got)
				}
			default:
				if !strings.Contains(got, tc.want) {
					t.Fatalf("invalid log output:\ngot= %q\nwant=%q", got, tc.want)
				}
			}
		})
	}
}
