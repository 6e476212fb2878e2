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
	"encoding/binary"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/mfm"
	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/tbuf"
)

/*
	Long track protections, detected by their leading signature.

	Variant 0 (Amnios, Archipelagos): raw 0x4454, followed by 0x33 encoded in
	place up to the track gap. Accepted when at least 500 windows following
	the signature decode to 0x3333.

	Variant 1 (Lotus I/II): raw 0x4124 0x4124, followed by encoded zeros. The
	signature alone is accepted, the trailing zeros are not checked.

	The payload is the variant as a big endian 16 bit value.
*/
const (
	longTrackSigA = 0x4454a525
	longTrackSigB = 0x41244124

	longTrackFillA = 0x3333
	longTrackRunA  = 500

	longTrackBitsA = 110000
	longTrackBitsB = 105500

	longTrackFillBytes = 6000
)

// LongTrackBits returns the track length in bits written for the given long
// track variant, or 0 for an unknown variant.
func LongTrackBits(variant uint16) int {
	switch variant {
	case 0:
		return longTrackBitsA
	case 1:
		return longTrackBitsB
	}
	return 0
}

//
type longtrack struct{}

//
func (l *longtrack) Decode(tracknr int, ti *Info, s *stream.Stream) []byte {

	for {
		if _, err := s.NextBit(); err != nil {
			return nil
		}

		switch s.Word() {

		case longTrackSigA:
			// window width is 32, so its first bit is 31 back
			offset := s.IndexOffset() - 31
			if !l.validateRun(s, longTrackFillA, longTrackRunA) {
				log.WithFields(log.Fields{"track": tracknr, "offset": offset}).
					Trace("long track signature A without fill, skipping")
				continue
			}
			return l.found(tracknr, ti, offset, longTrackBitsA, 0)

		case longTrackSigB:
			return l.found(
				tracknr, ti, s.IndexOffset()-31, longTrackBitsB, 1)
		}
	}
}

// validateRun consumes up to count windows, stopping at the first one that
// does not decode to fill.
func (l *longtrack) validateRun(s *stream.Stream, fill uint16, count int) bool {
	for ix := 0; ix < count; ix++ {
		w, err := s.NextBits(32)
		if err != nil || mfm.DecodeWord(w) != fill {
			return false
		}
	}
	return true
}

//
func (l *longtrack) found(tracknr int, ti *Info, offset, bits int,
	variant uint16) []byte {

	log.WithFields(log.Fields{
		"track": tracknr, "variant": variant, "offset": offset,
	}).Trace("long track found")

	ti.DataBitOffset = offset
	ti.TotalBits = bits
	ti.ValidSectors = 1

	dat := make([]byte, 2)
	binary.BigEndian.PutUint16(dat, variant)
	return dat
}

//
func (l *longtrack) Encode(tracknr int, ti *Info, tb *tbuf.Buffer) error {

	if len(ti.Data) < 2 {
		return fmt.Errorf("long track payload too short: %d", len(ti.Data))
	}

	switch v := binary.BigEndian.Uint16(ti.Data); v {

	case 0:
		tb.Bits(tbuf.SpeedAvg, tbuf.Raw, 16, longTrackSigA>>16)
		for ix := 0; ix < longTrackFillBytes; ix++ {
			tb.Bits(tbuf.SpeedAvg, tbuf.All, 8, 0x33)
		}

	case 1:
		tb.Bits(tbuf.SpeedAvg, tbuf.Raw, 32, longTrackSigB)
		for ix := 0; ix < longTrackFillBytes; ix++ {
			tb.Bits(tbuf.SpeedAvg, tbuf.All, 8, 0)
		}

	default:
		return fmt.Errorf("unknown long track variant: %d", v)
	}

	return nil
}
