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

package control

import (
	"fmt"

	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

//
type Status struct {
	Modified bool     `json:"modified"`
	Tracks   []*Track `json:"tracks"`
}

//
func (s *Status) Add(ti *track.Info) {
	s.Tracks = append(s.Tracks, NewTrack(len(s.Tracks), ti))
}

// Formatted returns the number of tracks with at least one valid sector.
func (s *Status) Formatted() int {
	ret := 0
	for _, t := range s.Tracks {
		if t.Valid > 0 {
			ret++
		}
	}
	return ret
}

//
func (s *Status) String() string {
	mod := ""
	if s.Modified {
		mod = ", modified"
	}
	return fmt.Sprintf("\n%d tracks, %d formatted%s\n",
		len(s.Tracks), s.Formatted(), mod)
}

//
type Track struct {
	Number         int    `json:"number"`
	Type           string `json:"type"`
	SectorCount    int    `json:"sectorCount"`
	BytesPerSector int    `json:"bytesPerSector"`
	ValidSectors   uint32 `json:"validSectors"`
	Valid          int    `json:"valid"`
	DataBitOffset  int    `json:"dataBitOffset"`
	TotalBits      int    `json:"totalBits"`
}

//
func NewTrack(nr int, ti *track.Info) *Track {
	return &Track{
		Number:         nr,
		Type:           ti.Type.String(),
		SectorCount:    ti.SectorCount,
		BytesPerSector: ti.BytesPerSector,
		ValidSectors:   ti.ValidSectors,
		Valid:          ti.CountValid(),
		DataBitOffset:  ti.DataBitOffset,
		TotalBits:      ti.TotalBits,
	}
}

//
func (t *Track) String() string {
	return fmt.Sprintf("%3d  %-18s %2d/%2d sectors  valid: %08x",
		t.Number, t.Type, t.Valid, t.SectorCount, t.ValidSectors)
}
