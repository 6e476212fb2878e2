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
	AmigaDOS track layout, per sector:

		u16 0x0000       (MFM encoded preamble)
		u16 0x4489,0x4489 (raw sync)
		u32 info         0xff, track, sector, sectors until gap
		u8  label[16]
		u32 header checksum, over info and label
		u32 data checksum
		u8  data[512]

	All fields after the sync are stored in odd/even form: the odd bits of all
	longs of a field first, then the even bits.

	The payload is 11 sectors of 512 bytes. If any sector carries a non-zero
	label, the track becomes AmigaDOSLabelled, and each sector is preceded by
	its 16 byte label in the payload.
*/
const (
	amigaSync        = 0x44894489
	amigaSectorCount = 11
	amigaSectorBytes = 512
	amigaLabelBytes  = 16

	amigaSectorLongs = amigaSectorBytes / 4
	amigaLabelLongs  = amigaLabelBytes / 4

	// cells of preamble & sync ahead of the info long
	amigaLeadIn = 32 + 32
	// cells per sector, MFM encoded: preamble, sync, info, label, checksums, data
	amigaSectorCells = amigaLeadIn + 64*(1+amigaLabelLongs+2+amigaSectorLongs)
)

//
type amigados struct{}

//
type amigaSector struct {
	label [amigaLabelLongs]uint32
	data  [amigaSectorLongs]uint32
}

//
func (a *amigados) Decode(tracknr int, ti *Info, s *stream.Stream) []byte {

	var sectors [amigaSectorCount]amigaSector
	var valid uint32
	full := uint32(1)<<amigaSectorCount - 1
	dataBitOffset := -1

	for valid != full {

		if _, err := s.NextBit(); err != nil {
			break
		}
		if s.Word() != amigaSync {
			continue
		}

		// start of preamble; sync window is 32 wide, so its first bit is 31 back
		offset := s.IndexOffset() - 31 - 32

		sec, data, err := a.decodeSector(tracknr, s)
		if err != nil {
			log.WithFields(log.Fields{"track": tracknr, "offset": offset}).
				Tracef("skipping sector: %v", err)
			continue
		}

		if valid&(1<<uint(sec)) != 0 {
			continue
		}
		sectors[sec] = *data
		valid |= 1 << uint(sec)

		if dataBitOffset < 0 {
			dataBitOffset = offset - sec*amigaSectorCells
			if dataBitOffset < 0 {
				dataBitOffset += DefaultBitsPerTrack
			}
		}

		log.WithFields(log.Fields{
			"track": tracknr, "sector": sec, "offset": offset,
		}).Trace("AmigaDOS sector found")
	}

	if valid == 0 {
		return nil
	}

	labelled := false
	for sec := range sectors {
		if valid&(1<<uint(sec)) == 0 {
			continue
		}
		for _, l := range sectors[sec].label {
			if l != 0 {
				labelled = true
			}
		}
	}

	ti.Type = AmigaDOS
	ti.SectorCount = amigaSectorCount
	ti.BytesPerSector = amigaSectorBytes
	if labelled {
		ti.Type = AmigaDOSLabelled
		ti.BytesPerSector += amigaLabelBytes
	}
	ti.Len = ti.SectorCount * ti.BytesPerSector
	ti.ValidSectors = valid
	ti.DataBitOffset = dataBitOffset
	ti.TotalBits = DefaultBitsPerTrack

	dat := make([]byte, ti.Len)
	for sec := range sectors {
		p := dat[sec*ti.BytesPerSector : (sec+1)*ti.BytesPerSector]
		if labelled {
			putLongs(p[:amigaLabelBytes], sectors[sec].label[:])
			p = p[amigaLabelBytes:]
		}
		if valid&(1<<uint(sec)) != 0 {
			putLongs(p, sectors[sec].data[:])
		} else {
			FillSentinel(p)
		}
	}

	return dat
}

// decodeSector decodes the sector following a sync word, and returns its
// number and contents.
func (a *amigados) decodeSector(tracknr int, s *stream.Stream) (
	int, *amigaSector, error) {

	var info, hdrSum, datSum [1]uint32
	var sec amigaSector

	for _, block := range [][]uint32{
		info[:], sec.label[:], hdrSum[:], datSum[:], sec.data[:]} {
		if err := readLongs(s, block); err != nil {
			return -1, nil, err
		}
	}

	format := info[0] >> 24
	trk := int(info[0]>>16) & 0xff
	nr := int(info[0]>>8) & 0xff

	if format != 0xff {
		return -1, nil, fmt.Errorf("invalid format byte %02x", format)
	}
	if trk != tracknr&0xff {
		return -1, nil, fmt.Errorf("sector belongs to track %d", trk)
	}
	if nr >= amigaSectorCount {
		return -1, nil, fmt.Errorf("invalid sector number %d", nr)
	}

	if sum := mfm.Checksum(append(info[:], sec.label[:]...)...); sum != hdrSum[0] {
		return -1, nil, fmt.Errorf("header checksum mismatch: %08x != %08x",
			sum, hdrSum[0])
	}
	if sum := mfm.Checksum(sec.data[:]...); sum != datSum[0] {
		return -1, nil, fmt.Errorf("data checksum mismatch: %08x != %08x",
			sum, datSum[0])
	}

	return nr, &sec, nil
}

// readLongs reads an odd/even block of len(block) longs.
func readLongs(s *stream.Stream, block []uint32) error {

	odd := make([]uint16, len(block))
	for ix := range odd {
		w, err := s.NextBits(32)
		if err != nil {
			return err
		}
		odd[ix] = mfm.DecodeWord(w)
	}

	for ix := range block {
		w, err := s.NextBits(32)
		if err != nil {
			return err
		}
		block[ix] = mfm.Interleave(odd[ix], mfm.DecodeWord(w))
	}

	return nil
}

// writeLongs emits an odd/even block.
func writeLongs(tb *tbuf.Buffer, block ...uint32) {
	for _, l := range block {
		tb.Bits(tbuf.SpeedAvg, tbuf.All, 16, uint32(mfm.Odd(l)))
	}
	for _, l := range block {
		tb.Bits(tbuf.SpeedAvg, tbuf.All, 16, uint32(mfm.Even(l)))
	}
}

//
func putLongs(dest []byte, longs []uint32) {
	for ix, l := range longs {
		binary.BigEndian.PutUint32(dest[ix*4:], l)
	}
}

//
func getLongs(src []byte, longs []uint32) {
	for ix := range longs {
		longs[ix] = binary.BigEndian.Uint32(src[ix*4:])
	}
}

//
func (a *amigados) Encode(tracknr int, ti *Info, tb *tbuf.Buffer) error {

	labelled := ti.Type == AmigaDOSLabelled
	bps := amigaSectorBytes
	if labelled {
		bps += amigaLabelBytes
	}

	if len(ti.Data) != amigaSectorCount*bps {
		return fmt.Errorf("AmigaDOS payload has invalid length %d", len(ti.Data))
	}

	for sec := 0; sec < amigaSectorCount; sec++ {

		if !ti.IsValid(sec) {
			tb.Bits(tbuf.SpeedAvg, tbuf.All, amigaSectorCells/2, 0)
			continue
		}

		var s amigaSector
		p := ti.Data[sec*bps : (sec+1)*bps]
		if labelled {
			getLongs(p[:amigaLabelBytes], s.label[:])
			p = p[amigaLabelBytes:]
		}
		getLongs(p, s.data[:])

		info := uint32(0xff)<<24 | uint32(tracknr&0xff)<<16 |
			uint32(sec)<<8 | uint32(amigaSectorCount-sec)

		tb.Bits(tbuf.SpeedAvg, tbuf.All, 16, 0)
		tb.Bits(tbuf.SpeedAvg, tbuf.Raw, 32, amigaSync)
		writeLongs(tb, info)
		writeLongs(tb, s.label[:]...)
		writeLongs(tb, mfm.Checksum(append([]uint32{info}, s.label[:]...)...))
		writeLongs(tb, mfm.Checksum(s.data[:]...))
		writeLongs(tb, s.data[:]...)
	}

	return nil
}
