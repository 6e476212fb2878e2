/*
   fluxdisk - floppy track bitstream analysis & synthesis
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of fluxdisk.

   fluxdisk is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   fluxdisk is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with fluxdisk. If not, see <http://www.gnu.org/licenses/>.
*/

package track

import (
	"strings"
	"testing"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/tbuf"
)

func TestTypeNames(t *testing.T) {
	for _, typ := range []Type{AmigaDOS, AmigaDOSLabelled, LongTrack} {
		if got := GetType(typ.String()); got != typ {
			t.Errorf("GetType(%s) = %d, want %d", typ, got, typ)
		}
	}
	if GetType("ibm") != Unknown {
		t.Errorf("expected unknown type")
	}
	if GetType(" LongTrack ") != LongTrack {
		t.Errorf("type names should be case insensitive")
	}
}

func TestLookup(t *testing.T) {

	for typ, l := range map[Type]int{
		AmigaDOS: 5632, AmigaDOSLabelled: 5808, LongTrack: 2} {
		d, err := Lookup(typ)
		if err != nil {
			t.Fatal(err)
		}
		if d.Type != typ || d.Len() != l || d.Handler == nil {
			t.Errorf("unexpected descriptor for %s: %+v", typ, d)
		}
	}

	if _, err := Lookup(Unknown); err == nil {
		t.Errorf("expected error for unknown type")
	}
	if _, err := Lookup(Type(42)); err == nil {
		t.Errorf("expected error for unregistered type")
	}
}

func TestAnalyse(t *testing.T) {

	c := stream.NewMemoryCapture()

	r, err := Encode(0, newAmigaInfo(false, 0x7ff))
	if err != nil {
		t.Fatal(err)
	}
	c.Add(0, r)

	tb := tbuf.NewBuffer()
	tb.Bits(tbuf.SpeedAvg, tbuf.Raw, 32, longTrackSigB)
	c.Add(1, tb.Finish(512, DefaultBitsPerTrack))

	tb = tbuf.NewBuffer()
	tb.Bits(tbuf.SpeedAvg, tbuf.All, 8*1000, 0)
	c.Add(2, tb.Finish(0, DefaultBitsPerTrack))

	s := stream.NewStream(c)

	tests := []struct {
		track int
		want  Type
	}{
		{0, AmigaDOS},
		{1, LongTrack},
		{2, Unknown},
	}

	for _, tc := range tests {
		ti, err := Analyse(tc.track, s)
		if err != nil {
			t.Fatal(err)
		}
		if tc.want == Unknown {
			if ti != nil {
				t.Errorf("track %d: expected no match, got %s", tc.track, ti.Type)
			}
			continue
		}
		if ti == nil {
			t.Errorf("track %d: not recognized", tc.track)
		} else if ti.Type != tc.want {
			t.Errorf("track %d: got %s, want %s", tc.track, ti.Type, tc.want)
		}
	}

	if ti, _ := Analyse(1, s, AmigaDOS); ti != nil {
		t.Errorf("restricted analysis should not find long track")
	}

	if _, err := Analyse(3, s); err == nil {
		t.Errorf("expected error for track missing from capture")
	}
}

func TestEncodeErrors(t *testing.T) {

	if _, err := Encode(0, &Info{Type: Unknown}); err == nil {
		t.Errorf("expected error for unknown type")
	}

	ti := newAmigaInfo(false, 0x7ff)
	ti.Len = 100
	if _, err := Encode(0, ti); err == nil {
		t.Errorf("expected error for inconsistent payload length")
	}
}

func TestSentinel(t *testing.T) {

	buf := make([]byte, 512)
	FillSentinel(buf)
	if !IsSentinel(buf) {
		t.Fatal("filled buffer not recognized as sentinel")
	}

	for unit := 0; unit < 128; unit++ {
		buf[unit*4+unit%4] ^= 0x20
		if IsSentinel(buf) {
			t.Errorf("unit %d changed, yet buffer is sentinel", unit)
		}
		buf[unit*4+unit%4] ^= 0x20
	}

	if IsSentinel(buf[:6]) {
		t.Errorf("incomplete pattern should not count as sentinel")
	}
}

func TestInfoValid(t *testing.T) {
	ti := &Info{}
	ti.SetValid(3, true)
	ti.SetValid(10, true)
	ti.SetValid(40, true)
	if ti.ValidSectors != 0x408 {
		t.Errorf("got %03x, want 408", ti.ValidSectors)
	}
	ti.SetValid(3, false)
	if ti.IsValid(3) || !ti.IsValid(10) || ti.IsValid(-1) {
		t.Errorf("unexpected validity: %03x", ti.ValidSectors)
	}
}

func TestInfoEmit(t *testing.T) {

	ti := &Info{Type: AmigaDOS, SectorCount: 3, BytesPerSector: 4,
		Data: []byte("NDOSDOS\x00NDOS")}
	ti.SetValid(1, true)

	if ti.CountValid() != 1 {
		t.Errorf("got %d valid sectors", ti.CountValid())
	}

	var out strings.Builder
	ti.Emit(&out)
	if s := out.String(); !strings.Contains(s, "SECTOR: 1") ||
		strings.Contains(s, "SECTOR: 0") || !strings.Contains(s, "44 4f 53 00") {
		t.Errorf("unexpected dump:\n%s", s)
	}
}

func TestNewInfo(t *testing.T) {

	ti, err := NewInfo(AmigaDOSLabelled)
	if err != nil {
		t.Fatal(err)
	}
	if ti.Len != 11*528 || len(ti.Data) != ti.Len || ti.ValidSectors != 0x7ff {
		t.Errorf("unexpected track: %s, len %d", ti, ti.Len)
	}
	if ti.DataBitOffset != DefaultDataBitOffset || ti.TotalBits != DefaultBitsPerTrack {
		t.Errorf("unexpected layout: %d, %d", ti.DataBitOffset, ti.TotalBits)
	}

	if ti, _ := NewInfo(LongTrack); ti.ValidSectors != 1 || len(ti.Data) != 2 {
		t.Errorf("unexpected long track: %s", ti)
	}

	if _, err := NewInfo(Unknown); err == nil {
		t.Error("expected error for unknown type")
	}

	if LongTrackBits(0) != 110000 || LongTrackBits(1) != 105500 || LongTrackBits(2) != 0 {
		t.Error("unexpected long track lengths")
	}
}
