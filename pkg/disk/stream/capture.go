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

package stream

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

// RawTrack is the captured bitstream of one track. Bits are stored MSB-first.
// Index holds the bit positions of the index pulses seen during capture, in
// ascending order. A capture may span several revolutions.
type RawTrack struct {
	Data   []byte
	BitLen int
	Index  []int
}

//
func NewRawTrack(data []byte, bitLen int, index ...int) *RawTrack {
	if bitLen < 0 || bitLen > len(data)*8 {
		bitLen = len(data) * 8
	}
	if len(index) == 0 {
		index = []int{0}
	}
	return &RawTrack{Data: data, BitLen: bitLen, Index: index}
}

// ReadRawTrack reads a single revolution raw bitstream, with the index pulse at
// bit 0.
func ReadRawTrack(in io.Reader) (*RawTrack, error) {
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "error reading raw bitstream")
	}
	if len(data) == 0 {
		return nil, errors.New("empty raw bitstream")
	}
	return NewRawTrack(data, len(data)*8), nil
}

// Bit returns the bit at position pos.
func (r *RawTrack) Bit(pos int) uint32 {
	return uint32(r.Data[pos>>3]>>(7-uint(pos&7))) & 1
}

// WriteTo writes the raw bitstream, padding the last byte with zeros.
func (r *RawTrack) WriteTo(out io.Writer) (int64, error) {
	n, err := out.Write(r.Data[:(r.BitLen+7)/8])
	return int64(n), err
}

// Capture is a source of raw track bitstreams, e.g. a flux dump.
type Capture interface {
	Track(tracknr int) (*RawTrack, error)
}

// MemoryCapture is a Capture held in memory.
type MemoryCapture map[int]*RawTrack

//
func NewMemoryCapture() MemoryCapture {
	return MemoryCapture{}
}

//
func (m MemoryCapture) Add(tracknr int, r *RawTrack) {
	m[tracknr] = r
}

//
func (m MemoryCapture) Track(tracknr int) (*RawTrack, error) {
	if r, ok := m[tracknr]; ok {
		return r, nil
	}
	return nil, errors.Errorf("no bitstream captured for track %d", tracknr)
}
