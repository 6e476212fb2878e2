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
	"strings"

	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

//
func NewAnalyse() *Analyse {

	a := &Analyse{}
	a.Runner = *NewRunner(
		"analyse -b|--bitstream {file} [-t|--track {track}] [-k|--kind {type,...}]",
		"identify the format of a raw track bitstream",
		`
Use the analyse command to try the known track handlers on a raw bitstream, and
show what the first matching handler decodes. The track number is needed for
formats that record it in their sectors.`,
		"", runnerHelpEpilogue, a.Run)

	a.AddSetting(&a.Bitstream, "bitstream", "b", "", nil,
		"raw bitstream file", true)
	a.AddSetting(&a.Track, "track", "t", "", 0, "track number", false)
	a.AddSetting(&a.Kinds, "kind", "k", "", nil,
		"track types to try, in order; all when omitted", false)
	a.AddSetting(&a.Dump, "dump", "d", "", false,
		"include hex dump of payload", false)

	return a
}

//
type Analyse struct {
	//
	Runner
	//
	Bitstream string
	Track     int
	Kinds     []string
	Dump      bool
}

//
func (a *Analyse) Run() error {

	if err := a.ParseSettings(); err != nil {
		return err
	}

	types, err := parseTypes(a.Kinds)
	if err != nil {
		return err
	}

	s, err := readCapture(a.Bitstream, a.Track)
	if err != nil {
		return err
	}

	ti, err := track.Analyse(a.Track, s, types...)
	if err != nil {
		return err
	}

	if ti == nil {
		fmt.Println("track format not recognized")
		return nil
	}

	fmt.Printf("track %d: %s\n", a.Track, ti)
	if a.Dump {
		ti.Emit(os.Stdout)
		fmt.Println()
	}
	return nil
}

//
func parseTypes(names []string) ([]track.Type, error) {
	var ret []track.Type
	for _, n := range names {
		for _, p := range strings.Split(n, ",") {
			t := track.GetType(p)
			if t == track.Unknown {
				return nil, fmt.Errorf("unknown track type: %s", p)
			}
			ret = append(ret, t)
		}
	}
	return ret, nil
}
