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

package run

import (
	"fmt"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
)

//
func NewExport() *Export {

	e := &Export{}
	e.Runner = *NewRunner(
		"export -i|--input {image} -t|--track {track} -o|--output {file}",
		"encode a track of a disk image as raw bitstream",
		`
Use the export command to synthesise the raw bitstream of a track. The output
holds one revolution, MSB first, with the index pulse at bit 0.`,
		"", runnerHelpEpilogue, e.Run)

	e.AddSetting(&e.File, "input", "i", "FLUXDISK_IMAGE", nil,
		"disk image file", true)
	e.AddSetting(&e.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)
	e.AddSetting(&e.Track, "track", "t", "", 0, "track number", false)
	e.AddSetting(&e.Output, "output", "o", "", nil, "bitstream output file", true)

	return e
}

//
type Export struct {
	//
	Runner
	//
	File   string
	Format string
	Track  int
	Output string
}

//
func (e *Export) Run() error {

	if err := e.ParseSettings(); err != nil {
		return err
	}

	d, err := container.Open(e.File, e.Format, false)
	if err != nil {
		return err
	}
	defer d.Discard()

	if err := validateTrack(d, e.Track); err != nil {
		return err
	}

	raw, err := d.EncodeTrack(e.Track)
	if err != nil {
		return err
	}

	if err := writeBitstream(e.Output, raw); err != nil {
		return err
	}

	fmt.Printf("track %d: %d bits written to %s\n", e.Track, raw.BitLen, e.Output)
	return nil
}
