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
	"io"
	"os"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
)

//
func NewInfo() *Info {

	i := &Info{}
	i.Runner = *NewRunner(
		"info [-i|--input {image}] [-a|--address {address}]",
		"list tracks of a disk image, or of the disk served by an API server",
		`
Use the info command to list the tracks of a disk image, with their type, valid
sector count & bitmap, and bitstream layout. Without an input image, the status
of the disk served by the API server is shown.`,
		"", runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.File, "input", "i", "", nil, "disk image file", false)
	i.AddSetting(&i.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)

	return i
}

//
type Info struct {
	//
	Runner
	//
	File   string
	Format string
}

//
func (i *Info) Run() error {

	if err := i.ParseSettings(); err != nil {
		return err
	}

	if i.File == "" {
		return copyReply(i.apiCall("GET", "/status", false, nil))
	}

	d, err := container.Open(i.File, i.Format, false)
	if err != nil {
		return err
	}
	defer d.Discard()

	listTracks(os.Stdout, d)
	return nil
}

//
func listTracks(w io.Writer, d *container.Disk) {
	fmt.Fprintf(w, "\nTRACK TYPE               SECTORS        VALID     OFFSET    BITS\n")
	formatted := 0
	for nr := 0; nr < d.TrackCount(); nr++ {
		ti := d.Track(nr)
		if ti.ValidSectors != 0 {
			formatted++
		}
		fmt.Fprintf(w, "  %3d %s\n", nr, ti)
	}
	fmt.Fprintf(w, "\n%d tracks, %d formatted\n\n", d.TrackCount(), formatted)
}
