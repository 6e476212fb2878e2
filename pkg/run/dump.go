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
	"os"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump -t|--track {track} [-i|--input {image}] [-a|--address {address}]",
		"dump track payload from image or API server",
		"\nUse the dump command to output a hex dump of the valid sectors of a track.",
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.File, "input", "i", "", nil, "disk image file", false)
	d.AddSetting(&d.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)
	d.AddSetting(&d.Track, "track", "t", "", 0, "track number", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	File   string
	Format string
	Track  int
}

//
func (d *Dump) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	if d.File == "" {
		return copyReply(d.apiCall(
			"GET", fmt.Sprintf("/track/%d/dump", d.Track), false, nil))
	}

	disk, err := container.Open(d.File, d.Format, false)
	if err != nil {
		return err
	}
	defer disk.Discard()

	if err := validateTrack(disk, d.Track); err != nil {
		return err
	}

	ti := disk.Track(d.Track)
	fmt.Printf("\nTRACK %d: %s\n", d.Track, ti)
	ti.Emit(os.Stdout)
	fmt.Println()

	return nil
}
