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

package container

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// memBacking is an in-memory backing store. When failAt is positive, reads
// beyond that offset fail.
type memBacking struct {
	data   []byte
	pos    int64
	failAt int64
}

func (m *memBacking) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	if m.failAt > 0 && end > m.failAt {
		return 0, errors.New("read failure")
	}
	n := copy(p, m.data[m.pos:end])
	m.pos += int64(n)
	return n, nil
}

func (m *memBacking) Write(p []byte) (int, error) {
	if end := m.pos + int64(len(p)); end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}
	n := copy(m.data[m.pos:], p)
	m.pos += int64(n)
	return n, nil
}

func (m *memBacking) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *memBacking) Truncate(size int64) error {
	m.data = m.data[:size]
	return nil
}

// blankImage returns the bytes of an ADF with all sectors filled by the
// sentinel.
func blankImage() []byte {
	ret := make([]byte, ADFImageLength)
	track.FillSentinel(ret)
	return ret
}

func openImage(t *testing.T, data []byte) (*Disk, *memBacking) {
	b := &memBacking{data: data}
	d := NewDisk(b, NewADF())
	if err := d.Container().Open(d, false); err != nil {
		t.Fatalf("cannot open image: %v", err)
	}
	return d, b
}

func TestADFInit(t *testing.T) {

	d := NewDisk(&memBacking{}, NewADF())
	d.Container().Init(d)

	if d.TrackCount() != 160 {
		t.Fatalf("got %d tracks, want 160", d.TrackCount())
	}

	for nr := 0; nr < d.TrackCount(); nr++ {
		ti := d.Track(nr)
		if ti.Type != track.AmigaDOS || ti.Len != 5632 || len(ti.Data) != 5632 {
			t.Fatalf("track %d: unexpected geometry %+v", nr, ti)
		}
		if ti.ValidSectors != 0 || ti.Flags != 0 {
			t.Errorf("track %d: blank track has valid sectors", nr)
		}
		if ti.DataBitOffset != 1024 || ti.TotalBits != track.DefaultBitsPerTrack {
			t.Errorf("track %d: got offset %d, bits %d", nr, ti.DataBitOffset,
				ti.TotalBits)
		}
		if !track.IsSentinel(ti.Data) {
			t.Errorf("track %d: blank track not filled with sentinel", nr)
		}
	}
}

func TestADFSizeValidation(t *testing.T) {

	if ADFImageLength != 160*512*11 {
		t.Fatalf("unexpected image length %d", ADFImageLength)
	}

	openImage(t, blankImage())

	for _, size := range []int{0, 1, ADFImageLength - 1, ADFImageLength + 1,
		ADFImageLength - ADFTrackLength, 2 * ADFImageLength} {

		d := NewDisk(&memBacking{data: make([]byte, size)}, NewADF())
		err := d.Container().Open(d, true)
		if errors.Cause(err) != ErrBadSize {
			t.Errorf("size %d: expected bad size error, got %v", size, err)
		}
		if d.TrackCount() != 0 {
			t.Errorf("size %d: tracks set up despite error", size)
		}
	}
}

func TestADFShortRead(t *testing.T) {
	b := &memBacking{data: blankImage(), failAt: 10 * ADFTrackLength}
	d := NewDisk(b, NewADF())
	if err := d.Container().Open(d, false); err == nil {
		t.Fatal("expected read error")
	}
	if d.TrackCount() != 0 {
		t.Errorf("tracks addressable after failed read")
	}
}

func TestADFValidSectors(t *testing.T) {

	img := blankImage()
	img[5*ADFTrackLength+3*ADFSectorLength+17*4+2] = 'x'
	img[159*ADFTrackLength+10*ADFSectorLength+127*4+3] = 0

	d, _ := openImage(t, img)

	for nr := 0; nr < d.TrackCount(); nr++ {
		want := uint32(0)
		switch nr {
		case 5:
			want = 1 << 3
		case 159:
			want = 1 << 10
		}
		if got := d.Track(nr).ValidSectors; got != want {
			t.Errorf("track %d: valid sectors %03x, want %03x", nr, got, want)
		}
	}
}

func TestADFSentinelBoundary(t *testing.T) {

	ti := NewADF().blankTrack()

	for unit := 0; unit < ADFSectorLength/4; unit++ {
		for sec := 0; sec < ADFSectorCount; sec++ {
			p := ti.Sector(sec)[unit*4:]
			p[0] = 'D'
			if got := validSectors(ti); got != 1<<uint(sec) {
				t.Fatalf("unit %d, sector %d: got %03x", unit, sec, got)
			}
			p[0] = 'N'
			if got := validSectors(ti); got != 0 {
				t.Fatalf("unit %d, sector %d restored: got %03x", unit, sec, got)
			}
		}
	}
}

func TestADFCloseReopen(t *testing.T) {

	img := blankImage()
	for ix := 0; ix < len(img); ix += 3 {
		// leave every third sector unformatted
		if ((ix%ADFTrackLength)/ADFSectorLength)%3 != 0 {
			img[ix] = byte(ix)
		}
	}
	orig := append([]byte{}, img...)

	d, b := openImage(t, img)
	if err := d.Flush(); err != nil {
		t.Fatal(err)
	}
	if d.IsModified() {
		t.Errorf("disk modified after flush")
	}
	if !bytes.Equal(b.data, orig) {
		t.Fatal("image changed by close")
	}

	again, _ := openImage(t, b.data)
	for nr := 0; nr < d.TrackCount(); nr++ {
		a, c := d.Track(nr), again.Track(nr)
		if !bytes.Equal(a.Data, c.Data) {
			t.Errorf("track %d: payload differs after reopen", nr)
		}
		if a.ValidSectors != c.ValidSectors {
			t.Errorf("track %d: valid sectors differ: %03x, %03x", nr,
				a.ValidSectors, c.ValidSectors)
		}
		if a.ValidSectors != 0x7ff&^0x249 {
			t.Errorf("track %d: unexpected valid sectors %03x", nr, a.ValidSectors)
		}
	}
}

func TestADFCloseTruncates(t *testing.T) {
	img := append(blankImage(), make([]byte, 100)...)
	b := &memBacking{data: img}
	d := NewDisk(b, NewADF())
	d.Container().Init(d)
	if err := d.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(b.data) != ADFImageLength {
		t.Errorf("image has %d bytes after close", len(b.data))
	}
}

func TestStripLabels(t *testing.T) {

	const n = ADFSectorCount
	dat := make([]byte, n*(ADFLabelLength+ADFSectorLength))
	for sec := 0; sec < n; sec++ {
		p := dat[sec*(ADFLabelLength+ADFSectorLength):]
		for ix := 0; ix < ADFLabelLength; ix++ {
			p[ix] = 0xee
		}
		for ix := 0; ix < ADFSectorLength; ix++ {
			p[ADFLabelLength+ix] = byte(sec + ix%200)
		}
	}

	got := stripLabels(dat, n)
	if len(got) != n*ADFSectorLength {
		t.Fatalf("got %d bytes, want %d", len(got), n*ADFSectorLength)
	}
	for sec := 0; sec < n; sec++ {
		for ix := 0; ix < ADFSectorLength; ix++ {
			if want := byte(sec + ix%200); got[sec*ADFSectorLength+ix] != want {
				t.Fatalf("sector %d, byte %d: got %02x, want %02x", sec, ix,
					got[sec*ADFSectorLength+ix], want)
			}
		}
	}
}

// encodedTrack returns the bitstream of an AmigaDOS track with the given
// payload.
func encodedTrack(t *testing.T, tracknr int, typ track.Type, dat []byte) *stream.RawTrack {
	ti := &track.Info{}
	d, _ := track.Lookup(typ)
	track.InitFromHandler(ti, d)
	ti.Data = dat
	ti.ValidSectors = 0x7ff
	ti.DataBitOffset = track.DefaultDataBitOffset
	ti.TotalBits = track.DefaultBitsPerTrack
	r, err := track.Encode(tracknr, ti)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestADFWriteTrack(t *testing.T) {

	d, _ := openImage(t, blankImage())

	body := make([]byte, ADFTrackLength)
	for ix := range body {
		body[ix] = byte(ix * 13)
	}

	labelled := make([]byte, ADFSectorCount*(ADFLabelLength+ADFSectorLength))
	for sec := 0; sec < ADFSectorCount; sec++ {
		p := labelled[sec*(ADFLabelLength+ADFSectorLength):]
		p[0] = byte(sec + 1)
		copy(p[ADFLabelLength:], body[sec*ADFSectorLength:(sec+1)*ADFSectorLength])
	}

	c := stream.NewMemoryCapture()
	c.Add(7, encodedTrack(t, 7, track.AmigaDOS, body))
	c.Add(8, encodedTrack(t, 8, track.AmigaDOSLabelled, labelled))
	c.Add(9, stream.NewRawTrack(bytes.Repeat([]byte{0xaa}, 12000), -1))
	s := stream.NewStream(c)

	for _, nr := range []int{7, 8} {
		if err := d.WriteTrack(nr, s); err != nil {
			t.Fatal(err)
		}
		ti := d.Track(nr)
		if ti.Type != track.AmigaDOS || ti.Len != ADFTrackLength {
			t.Errorf("track %d: unexpected geometry %s, %d", nr, ti.Type, ti.Len)
		}
		if ti.ValidSectors != 0x7ff {
			t.Errorf("track %d: valid sectors %03x", nr, ti.ValidSectors)
		}
		if !bytes.Equal(ti.Data, body) {
			t.Errorf("track %d: payload mismatch", nr)
		}
	}

	d.Track(9).ValidSectors = 0x7ff
	if err := d.WriteTrack(9, s); err != nil {
		t.Fatal(err)
	}
	if ti := d.Track(9); ti.ValidSectors != 0 || !track.IsSentinel(ti.Data) {
		t.Errorf("unrecognized track not blank")
	}

	before := d.Track(10)
	if err := d.WriteTrack(10, s); err == nil {
		t.Errorf("expected error for track missing from capture")
	}
	if d.Track(10) != before {
		t.Errorf("track changed by failed write")
	}

	if err := d.WriteTrack(160, s); err == nil {
		t.Errorf("expected error for invalid track number")
	}

	if !d.IsModified() {
		t.Errorf("disk not marked modified")
	}
}

func TestADFEncodeTrack(t *testing.T) {

	img := blankImage()
	copy(img[3*ADFTrackLength:], bytes.Repeat([]byte("AMIGA"), 100))
	d, _ := openImage(t, img)

	r, err := d.EncodeTrack(3)
	if err != nil {
		t.Fatal(err)
	}

	other, _ := openImage(t, blankImage())
	c := stream.NewMemoryCapture()
	c.Add(3, r)
	if err := other.WriteTrack(3, stream.NewStream(c)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(other.Track(3).Data, d.Track(3).Data) {
		t.Errorf("payload differs after encode & write")
	}
	if other.Track(3).ValidSectors != d.Track(3).ValidSectors {
		t.Errorf("valid sectors differ: %03x, %03x",
			other.Track(3).ValidSectors, d.Track(3).ValidSectors)
	}

	if _, err := d.EncodeTrack(-1); err == nil {
		t.Errorf("expected error for invalid track")
	}
}

func TestCreateOpen(t *testing.T) {

	path := filepath.Join(t.TempDir(), "test.adf")

	d, err := Create(path, "")
	if err != nil {
		t.Fatal(err)
	}
	copy(d.Track(0).Data, []byte("DOS\x00"))
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	d, err = Open(path, "", false)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if d.Track(0).ValidSectors != 1 || d.Track(1).ValidSectors != 0 {
		t.Errorf("unexpected valid sectors: %03x, %03x",
			d.Track(0).ValidSectors, d.Track(1).ValidSectors)
	}

	if _, err := Open(path, "dsk", false); err == nil {
		t.Errorf("expected error for unsupported format")
	}
	if _, err := New("ADF"); err != nil {
		t.Errorf("format names should be case insensitive: %v", err)
	}
}
