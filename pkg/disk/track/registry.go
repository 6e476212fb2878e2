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
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/tbuf"
)

/*
	Handler is the contract each track type implements. Decode scans a stream
	that has been positioned at the index pulse, and returns the payload for
	the track, or nil if the track is not of this type. It may update the
	metadata in ti. Encode emits the bitstream for the track described by ti.

	Handlers are stateless and can be shared between disks.
*/
type Handler interface {
	Decode(tracknr int, ti *Info, s *stream.Stream) []byte
	Encode(tracknr int, ti *Info, tb *tbuf.Buffer) error
}

// Descriptor binds a handler to a track type, together with the geometry of
// the payload it produces.
type Descriptor struct {
	Type           Type
	Name           string
	SectorCount    int
	BytesPerSector int
	Handler        Handler
}

//
func (d *Descriptor) Len() int {
	return d.SectorCount * d.BytesPerSector
}

var registry = map[Type]*Descriptor{
	AmigaDOS: {
		Type:           AmigaDOS,
		Name:           "AmigaDOS",
		SectorCount:    amigaSectorCount,
		BytesPerSector: amigaSectorBytes,
		Handler:        &amigados{},
	},
	AmigaDOSLabelled: {
		Type:           AmigaDOSLabelled,
		Name:           "AmigaDOS, with sector labels",
		SectorCount:    amigaSectorCount,
		BytesPerSector: amigaLabelBytes + amigaSectorBytes,
		Handler:        &amigados{},
	},
	LongTrack: {
		Type:           LongTrack,
		Name:           "long track protection",
		SectorCount:    1,
		BytesPerSector: 2,
		Handler:        &longtrack{},
	},
}

// order in which Analyse tries handlers; labelled AmigaDOS tracks are found
// by the AmigaDOS handler
var analysisOrder = []Type{AmigaDOS, LongTrack}

// Lookup returns the descriptor for the given track type. An unknown type is a
// configuration error.
func Lookup(t Type) (*Descriptor, error) {
	if d, ok := registry[t]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("no handler for track type %d", t)
}

// InitFromHandler sets type and payload geometry of ti from d. The payload
// itself is not touched.
func InitFromHandler(ti *Info, d *Descriptor) {
	ti.Type = d.Type
	ti.SectorCount = d.SectorCount
	ti.BytesPerSector = d.BytesPerSector
	ti.Len = d.Len()
}

// NewInfo returns a track of type typ with a zeroed payload, all sectors
// valid, and the default layout.
func NewInfo(typ Type) (*Info, error) {
	d, err := Lookup(typ)
	if err != nil {
		return nil, err
	}
	ti := &Info{}
	InitFromHandler(ti, d)
	ti.Data = make([]byte, ti.Len)
	ti.ValidSectors = 1<<uint(ti.SectorCount) - 1
	ti.DataBitOffset = DefaultDataBitOffset
	ti.TotalBits = DefaultBitsPerTrack
	return ti, nil
}

// Decode resets s to tracknr, seeks the index pulse, and decodes the track
// with the handler for typ. The returned Info is nil if the handler did not
// recognize the track.
func Decode(tracknr int, typ Type, s *stream.Stream) (*Info, error) {

	d, err := Lookup(typ)
	if err != nil {
		return nil, err
	}

	if err := s.Reset(tracknr); err != nil {
		return nil, err
	}
	if err := s.NextIndex(); err != nil {
		if errors.Cause(err) == stream.ErrExhausted {
			log.WithField("track", tracknr).Debug("no index pulse found")
			return nil, nil
		}
		return nil, err
	}

	ti := &Info{}
	InitFromHandler(ti, d)

	data := d.Handler.Decode(tracknr, ti, s)
	if data == nil {
		log.WithFields(log.Fields{"track": tracknr, "type": typ}).Debug(
			"track not recognized")
		return nil, nil
	}

	ti.Data = data
	ti.Len = len(data)

	log.WithFields(log.Fields{
		"track": tracknr, "type": ti.Type, "offset": ti.DataBitOffset,
		"bits": ti.TotalBits,
	}).Debug("track decoded")

	return ti, nil
}

// Analyse tries the given track types in order, or all known types if none are
// given, and returns the first decoded track. Info is nil if no handler
// recognized the track.
func Analyse(tracknr int, s *stream.Stream, types ...Type) (*Info, error) {

	if len(types) == 0 {
		types = analysisOrder
	}

	for _, t := range types {
		ti, err := Decode(tracknr, t, s)
		if err != nil {
			return nil, err
		}
		if ti != nil {
			return ti, nil
		}
	}

	return nil, nil
}

// Encode synthesises the bitstream of the track described by ti, laid out
// relative to the index pulse.
func Encode(tracknr int, ti *Info) (*stream.RawTrack, error) {

	d, err := Lookup(ti.Type)
	if err != nil {
		return nil, err
	}

	if len(ti.Data) != ti.Len {
		return nil, fmt.Errorf(
			"track %d: payload length %d does not match %d for type %s",
			tracknr, len(ti.Data), ti.Len, ti.Type)
	}

	tb := tbuf.NewBuffer()
	if err := d.Handler.Encode(tracknr, ti, tb); err != nil {
		return nil, errors.Wrapf(err, "cannot encode track %d", tracknr)
	}

	log.WithFields(log.Fields{
		"track": tracknr, "type": ti.Type, "cells": tb.Len(),
	}).Debug("track encoded")

	return tb.Finish(ti.DataBitOffset, ti.TotalBits), nil
}
