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
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Type is the discriminant selecting the handler for a track.
type Type int

const (
	Unknown Type = iota - 1
	AmigaDOS
	AmigaDOSLabelled
	LongTrack
)

//
func (t Type) String() string {

	switch t {

	case AmigaDOS:
		return "amigados"

	case AmigaDOSLabelled:
		return "amigados_labelled"

	case LongTrack:
		return "longtrack"

	default:
		return "<unknown>"
	}
}

//
func GetType(t string) Type {

	switch strings.ToLower(strings.TrimSpace(t)) {

	case "amigados":
		return AmigaDOS

	case "amigados_labelled":
		return AmigaDOSLabelled

	case "longtrack":
		return LongTrack

	default:
		return Unknown
	}
}

// nominal length of a standard track in bits
const DefaultBitsPerTrack = 100150

// bit offset of data on a blank track
const DefaultDataBitOffset = 1024

// Sentinel fills sectors that were never formatted.
var Sentinel = []byte("NDOS")

// FillSentinel fills buf with the sentinel pattern. Trailing bytes not making
// up a complete pattern are left untouched.
func FillSentinel(buf []byte) {
	for ix := 0; ix+len(Sentinel) <= len(buf); ix += len(Sentinel) {
		copy(buf[ix:], Sentinel)
	}
}

// IsSentinel tells whether buf consists of nothing but complete sentinel
// patterns.
func IsSentinel(buf []byte) bool {
	if len(buf)%len(Sentinel) != 0 {
		return false
	}
	for ix := 0; ix < len(buf); ix += len(Sentinel) {
		if !bytes.Equal(buf[ix:ix+len(Sentinel)], Sentinel) {
			return false
		}
	}
	return true
}

// Info is the state of a single track. DataBitOffset and TotalBits are only
// meaningful after the track has been decoded from a bitstream, or initialized
// as blank.
type Info struct {
	Type           Type
	Flags          uint32
	SectorCount    int
	BytesPerSector int
	Len            int
	Data           []byte
	ValidSectors   uint32
	DataBitOffset  int
	TotalBits      int
}

//
func (i *Info) IsValid(sector int) bool {
	return 0 <= sector && sector < 32 && i.ValidSectors&(1<<uint(sector)) != 0
}

//
func (i *Info) SetValid(sector int, valid bool) {
	if sector < 0 || sector >= 32 {
		return
	}
	if valid {
		i.ValidSectors |= 1 << uint(sector)
	} else {
		i.ValidSectors &^= 1 << uint(sector)
	}
}

// Sector returns the payload slice of the given sector, or nil if out of range.
func (i *Info) Sector(sector int) []byte {
	start := sector * i.BytesPerSector
	end := start + i.BytesPerSector
	if sector < 0 || end > len(i.Data) {
		return nil
	}
	return i.Data[start:end]
}

// CountValid returns the number of valid sectors.
func (i *Info) CountValid() int {
	ret := 0
	for v := i.ValidSectors; v != 0; v &= v - 1 {
		ret++
	}
	return ret
}

//
func (i *Info) String() string {
	return fmt.Sprintf("%-18s %2d/%2d sectors  valid: %08x  offset: %6d  bits: %6d",
		i.Type, i.CountValid(), i.SectorCount, i.ValidSectors, i.DataBitOffset,
		i.TotalBits)
}

// Emit writes a hex dump of the valid sectors of this track to w.
func (i *Info) Emit(w io.Writer) {
	for sec := 0; sec < i.SectorCount; sec++ {
		if !i.IsValid(sec) {
			continue
		}
		io.WriteString(w, fmt.Sprintf("\nSECTOR: %d, length: %d\n",
			sec, i.BytesPerSector))
		d := hex.Dumper(w)
		d.Write(i.Sector(sec))
		d.Close()
	}
}
