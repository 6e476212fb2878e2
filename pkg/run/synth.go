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
	"encoding/binary"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

//
func NewSynth() *Synth {

	s := &Synth{}
	s.Runner = *NewRunner(
		`synth -k|--kind {type} -o|--output {file} [-t|--track {track}]
      [-v|--variant {0|1}] [-p|--payload {file}]`,
		"synthesise a raw track bitstream",
		`
Use the synth command to write the raw bitstream of a track of the given type.
For long tracks, the variant selects the protection scheme. For sector formats,
the payload file is used as track content, zeros otherwise.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.Kind, "kind", "k", "", nil, "track type", true)
	s.AddSetting(&s.Output, "output", "o", "", nil, "bitstream output file", true)
	s.AddSetting(&s.Track, "track", "t", "", 0, "track number", false)
	s.AddSetting(&s.Variant, "variant", "v", "", 0, "long track variant", false)
	s.AddSetting(&s.Payload, "payload", "p", "", nil, "payload file", false)

	return s
}

//
type Synth struct {
	//
	Runner
	//
	Kind    string
	Output  string
	Track   int
	Variant int
	Payload string
}

//
func (s *Synth) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	ti, err := s.trackInfo()
	if err != nil {
		return err
	}

	raw, err := track.Encode(s.Track, ti)
	if err != nil {
		return err
	}

	if err := writeBitstream(s.Output, raw); err != nil {
		return err
	}

	fmt.Printf("%s track: %d bits written to %s\n", ti.Type, raw.BitLen, s.Output)
	return nil
}

//
func (s *Synth) trackInfo() (*track.Info, error) {

	typ := track.GetType(s.Kind)
	ti, err := track.NewInfo(typ)
	if err != nil {
		return nil, err
	}

	if typ == track.LongTrack {
		if s.Variant < 0 || 0xffff < s.Variant {
			return nil, fmt.Errorf("invalid long track variant: %d", s.Variant)
		}
		v := uint16(s.Variant)
		if ti.TotalBits = track.LongTrackBits(v); ti.TotalBits == 0 {
			return nil, fmt.Errorf("unknown long track variant: %d", v)
		}
		binary.BigEndian.PutUint16(ti.Data, v)
		return ti, nil
	}

	if s.Payload != "" {
		dat, err := ioutil.ReadFile(s.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "cannot read payload")
		}
		if len(dat) > len(ti.Data) {
			return nil, fmt.Errorf("payload has %d bytes, track holds %d",
				len(dat), len(ti.Data))
		}
		copy(ti.Data, dat)
	}

	return ti, nil
}
