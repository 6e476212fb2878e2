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
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrExhausted is returned by all reads once the captured bitstream of the
// current track has been consumed.
var ErrExhausted = errors.New("bitstream exhausted")

/*
	Stream is a cursor over the captured bitstream of one track at a time. It
	keeps a rolling 32 bit window of the most recently consumed bits, and an
	offset relative to the last index pulse passed.

	Typical use is Reset, NextIndex, then a loop over NextBit while matching
	Word against a signature.
*/
type Stream struct {
	capture Capture
	track   *RawTrack
	tracknr int
	//
	pos       int // next bit to consume
	nextIndex int // position in track.Index of next index pulse
	lastIndex int // bit position of last index pulse passed
	word      uint32
}

//
func NewStream(c Capture) *Stream {
	return &Stream{capture: c, tracknr: -1}
}

// Reset positions this stream at the start of the captured bitstream of
// tracknr. Any partially filled window is discarded.
func (s *Stream) Reset(tracknr int) error {

	t, err := s.capture.Track(tracknr)
	if err != nil {
		return err
	}

	s.track = t
	s.tracknr = tracknr
	s.pos = 0
	s.nextIndex = 0
	s.lastIndex = 0
	s.word = 0

	log.WithFields(log.Fields{
		"track": tracknr, "bits": t.BitLen, "indexes": len(t.Index),
	}).Trace("stream reset")

	return nil
}

// NextIndex advances to the next index pulse. Offsets reported by IndexOffset
// are relative to it.
func (s *Stream) NextIndex() error {

	if s.track == nil {
		return ErrExhausted
	}

	for ; s.nextIndex < len(s.track.Index); s.nextIndex++ {
		if ix := s.track.Index[s.nextIndex]; ix >= s.pos {
			if ix > s.track.BitLen {
				break
			}
			s.pos = ix
			s.lastIndex = ix
			s.nextIndex++
			s.word = 0
					return nil
		}
	}

	s.pos = s.track.BitLen
	return ErrExhausted
}

// NextBit consumes one bit and shifts it into the rolling window.
func (s *Stream) NextBit() (uint32, error) {

	if s.track == nil || s.pos >= s.track.BitLen {
		return 0, ErrExhausted
	}

	if s.nextIndex < len(s.track.Index) && s.track.Index[s.nextIndex] == s.pos {
		s.lastIndex = s.pos
		s.nextIndex++
	}

	bit := s.track.Bit(s.pos)
	s.pos++
	s.word = s.word<<1 | bit

	return bit, nil
}

// NextBits consumes n bits, 1 through 32, and returns the updated rolling
// window. If the stream runs out, the window holds what could be read.
func (s *Stream) NextBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return s.word, errors.Errorf("invalid bit count: %d", n)
	}
	for ix := 0; ix < n; ix++ {
		if _, err := s.NextBit(); err != nil {
			return s.word, err
		}
	}
	return s.word, nil
}

// Word returns the rolling window of the 32 most recently consumed bits.
func (s *Stream) Word() uint32 {
	return s.word
}

// IndexOffset returns the offset of the most recently consumed bit, relative to
// the last index pulse. Right after a 32 bit window matched, the window starts
// at IndexOffset() - 31.
func (s *Stream) IndexOffset() int {
	return s.pos - 1 - s.lastIndex
}

//
func (s *Stream) Track() int {
	return s.tracknr
}
