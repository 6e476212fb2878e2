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
)

//
func NewImport() *Import {

	i := &Import{}
	i.Runner = *NewRunner(
		`import -i|--input {image} -t|--track {track} -b|--bitstream {file}
       [-c|--create] [-y|--yes]`,
		"decode raw bitstream into a track of a disk image",
		`
Use the import command to decode a raw track bitstream, and store the result in
the given track of a disk image. The bitstream file holds a single revolution,
MSB first, with the index pulse at bit 0. When no sectors can be decoded, the
track becomes blank.`,
		"", logHelp+runnerHelpEpilogue, i.Run)

	i.AddSetting(&i.File, "input", "i", "FLUXDISK_IMAGE", nil,
		"disk image file", true)
	i.AddSetting(&i.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)
	i.AddSetting(&i.Track, "track", "t", "", 0, "track number", false)
	i.AddSetting(&i.Bitstream, "bitstream", "b", "", nil,
		"raw bitstream file", true)
	i.AddSetting(&i.Create, "create", "c", "", false,
		"create a blank image if it does not exist", false)
	i.AddSetting(&i.Yes, "yes", "y", "", false,
		"overwrite formatted tracks without asking", false)

	return i
}

//
type Import struct {
	//
	Runner
	//
	File      string
	Format    string
	Track     int
	Bitstream string
	Create    bool
	Yes       bool
}

//
func (i *Import) Run() error {

	if err := i.ParseSettings(); err != nil {
		return err
	}

	s, err := readCapture(i.Bitstream, i.Track)
	if err != nil {
		return err
	}

	d, err := openOrCreate(i.File, i.Format, i.Create)
	if err != nil {
		return err
	}

	if err := validateTrack(d, i.Track); err != nil {
		d.Discard()
		return err
	}

	if d.Track(i.Track).ValidSectors != 0 && !i.Yes {
		if !GetUserConfirmation(fmt.Sprintf(
			"track %d is formatted, overwrite?", i.Track)) {
			return d.Discard()
		}
	}

	if err := d.WriteTrack(i.Track, s); err != nil {
		d.Discard()
		return err
	}

	fmt.Printf("track %d: %s\n", i.Track, d.Track(i.Track))
	return d.Close()
}
