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

package tbuf

import (
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/mfm"
	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
)

// Speed is the timing class of emitted cells, in thousandths of the nominal
// bit cell period. It only affects physical timing, never cell values.
type Speed uint16

const SpeedAvg Speed = 1000

// Mode selects how emitted values are turned into cells.
type Mode int

const (
	// Raw emits the bits of a value as cells, unmodified.
	Raw Mode = iota
	// All treats the value as data and MFM encodes each of its bits.
	All
)

//
func (m Mode) String() string {
	switch m {
	case Raw:
		return "raw"
	case All:
		return "all"
	default:
		return "<unknown>"
	}
}

// maximum number of bits passed in a single value
const maxValueBits = 32

// Buffer collects the cells of one track during encoding. Cells are kept in
// the order in which they were emitted.
type Buffer struct {
	cells  []byte
	speeds []Speed
	len    int
	prev   uint32
}

//
func NewBuffer() *Buffer {
	return &Buffer{
		cells:  make([]byte, 0, 16*1024),
		speeds: make([]Speed, 0, 128*1024),
	}
}

/*
	Bits emits bits bits derived from value. In Raw mode, the lowest bits of
	value are emitted as they are, most significant first. In All mode, they
	are data bits, and each one becomes a clock and a data cell, so 2*bits cells
	are emitted. When bits exceeds 32, the low byte of value is repeated bits/8
	times instead.
*/
func (b *Buffer) Bits(speed Speed, mode Mode, bits int, value uint32) {

	if bits <= 0 {
		return
	}

	if bits > maxValueBits {
		for ix := 0; ix < bits/8; ix++ {
			b.Bits(speed, mode, 8, value&0xff)
		}
		return
	}

	switch mode {

	case Raw:
		for ix := bits - 1; ix >= 0; ix-- {
			b.append(speed, (value>>uint(ix))&1)
		}

	case All:
		cells := mfm.Encode(b.prev, value, bits)
		for ix := 2*bits - 1; ix >= 0; ix-- {
			b.append(speed, uint32(cells>>uint(ix))&1)
		}

	default:
		log.Errorf("invalid emit mode: %d", mode)
	}
}

//
func (b *Buffer) append(speed Speed, cell uint32) {
	if b.len%8 == 0 {
		b.cells = append(b.cells, 0)
	}
	if cell != 0 {
		b.cells[b.len>>3] |= 0x80 >> uint(b.len&7)
	}
	b.speeds = append(b.speeds, speed)
	b.prev = cell
	b.len++
}

// Len returns the number of cells emitted so far.
func (b *Buffer) Len() int {
	return b.len
}

// Cell returns the cell at position pos.
func (b *Buffer) Cell(pos int) uint32 {
	return uint32(b.cells[pos>>3]>>(7-uint(pos&7))) & 1
}

// Speed returns the timing class of the cell at pos.
func (b *Buffer) Speed(pos int) Speed {
	return b.speeds[pos]
}

/*
	Finish lays out the emitted cells on a track of totalBits cells, with the
	index pulse at cell 0 and the first emitted cell at dataBitOffset. Emitted
	cells wrap around the index. All other cells carry MFM encoded zeros. If
	more cells than totalBits were emitted, the track is extended.
*/
func (b *Buffer) Finish(dataBitOffset, totalBits int) *stream.RawTrack {

	if totalBits < b.len {
		log.WithFields(log.Fields{
			"emitted": b.len, "total": totalBits,
		}).Warn("emitted cells exceed track length, extending track")
		totalBits = b.len
	}

	if totalBits == 0 {
		return stream.NewRawTrack([]byte{}, 0)
	}

	data := make([]byte, (totalBits+7)/8)
	for ix := range data {
		data[ix] = 0xaa
	}
	if rem := totalBits % 8; rem != 0 {
		data[len(data)-1] &= 0xff << uint(8-rem)
	}

	dataBitOffset %= totalBits
	if dataBitOffset < 0 {
		dataBitOffset += totalBits
	}

	for ix := 0; ix < b.len; ix++ {
		pos := (dataBitOffset + ix) % totalBits
		mask := byte(0x80) >> uint(pos&7)
		if b.Cell(ix) != 0 {
			data[pos>>3] |= mask
		} else {
			data[pos>>3] &^= mask
		}
	}

	return stream.NewRawTrack(data, totalBits)
}
