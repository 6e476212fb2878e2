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

package container

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// ErrBadSize is returned when opening an image whose size does not match the
// format's geometry.
var ErrBadSize = errors.New("bad image size")

const (
	ADFTrackCount     = 160
	ADFSectorCount    = 11
	ADFSectorLength   = 512
	ADFLabelLength    = 16
	ADFTrackLength    = ADFSectorCount * ADFSectorLength
	ADFImageLength    = ADFTrackCount * ADFTrackLength
)

// ADF is the container for plain AmigaDOS images. ADF files hold the 5632 byte
// payloads of 160 AmigaDOS tracks, in track order. Nothing else is stored, so
// every track of an ADF disk is an AmigaDOS track.
type ADF struct{}

//
func NewADF() *ADF {
	return &ADF{}
}

// blankTrack returns an unformatted AmigaDOS track, with all sectors filled
// by the sentinel.
func (a *ADF) blankTrack() *track.Info {

	ti := &track.Info{}
	if d, err := track.Lookup(track.AmigaDOS); err == nil {
		track.InitFromHandler(ti, d)
	} else {
		log.Errorf("AmigaDOS handler missing: %v", err)
	}

	ti.Flags = 0
	ti.ValidSectors = 0
	ti.Data = make([]byte, ti.Len)
	ti.DataBitOffset = track.DefaultDataBitOffset
	ti.TotalBits = track.DefaultBitsPerTrack
	track.FillSentinel(ti.Data)

	return ti
}

//
func (a *ADF) blankTracks() []*track.Info {
	ret := make([]*track.Info, ADFTrackCount)
	for ix := range ret {
		ret[ix] = a.blankTrack()
	}
	return ret
}

//
func (a *ADF) Init(d *Disk) {
	d.tracks = a.blankTracks()
}

//
func (a *ADF) Open(d *Disk, quiet bool) error {

	size, err := d.backing.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "cannot determine ADF size")
	}

	if size != ADFImageLength {
		if !quiet {
			log.Warnf("ADF file bad size: %d bytes", size)
		}
		return errors.Wrapf(ErrBadSize, "ADF has %d bytes, expected %d",
			size, ADFImageLength)
	}

	if _, err := d.backing.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "cannot rewind ADF")
	}

	tracks := a.blankTracks()

	for nr, ti := range tracks {
		if _, err := io.ReadFull(d.backing, ti.Data); err != nil {
			return errors.Wrapf(err, "error reading track %d", nr)
		}
		ti.ValidSectors = validSectors(ti)
	}

	d.tracks = tracks
	d.modified = false

	log.WithField("tracks", len(tracks)).Debug("ADF loaded")
	return nil
}

// validSectors marks each sector that holds at least one unit differing from
// the sentinel.
func validSectors(ti *track.Info) uint32 {
	var ret uint32
	for sec := 0; sec < ti.SectorCount; sec++ {
		if !track.IsSentinel(ti.Sector(sec)) {
			ret |= 1 << uint(sec)
		}
	}
	return ret
}

//
func (a *ADF) Close(d *Disk) error {

	if _, err := d.backing.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "cannot rewind ADF")
	}
	if err := d.backing.Truncate(0); err != nil {
		return errors.Wrap(err, "cannot truncate ADF")
	}

	for nr, ti := range d.tracks {
		if len(ti.Data) < ADFTrackLength {
			return errors.Errorf("track %d has short payload: %d bytes",
				nr, len(ti.Data))
		}
		if _, err := d.backing.Write(ti.Data[:ADFTrackLength]); err != nil {
			return errors.Wrapf(err, "error writing track %d", nr)
		}
	}

	log.WithField("tracks", len(d.tracks)).Debug("ADF written")
	return nil
}

// WriteTrack replaces the payload of a track with what the AmigaDOS handler
// decodes from s. If nothing can be decoded, the track becomes blank. Sector
// labels are stripped, since ADF has no room for them.
func (a *ADF) WriteTrack(d *Disk, tracknr int, s *stream.Stream) error {

	ti, err := track.Decode(tracknr, track.AmigaDOS, s)
	if err != nil {
		return errors.Wrapf(err, "cannot decode track %d", tracknr)
	}

	if ti == nil {
		log.WithField("track", tracknr).Info(
			"no AmigaDOS sectors found, track now blank")
		d.setTrack(tracknr, a.blankTrack())
		return nil
	}

	if ti.Type == track.AmigaDOSLabelled {
		desc, err := track.Lookup(track.AmigaDOS)
		if err != nil {
			return err
		}
		ti.Data = stripLabels(ti.Data, ADFSectorCount)
		track.InitFromHandler(ti, desc)
		log.WithField("track", tracknr).Debug("sector labels stripped")
	}

	log.WithFields(log.Fields{
		"track": tracknr, "valid": ti.ValidSectors,
	}).Debug("track written")

	d.setTrack(tracknr, ti)
	return nil
}

// stripLabels compacts count labelled sectors in place, leaving the bare
// sector bodies contiguous at the start of dat.
func stripLabels(dat []byte, count int) []byte {
	for ix := 0; ix < count; ix++ {
		src := ix*(ADFLabelLength+ADFSectorLength) + ADFLabelLength
		copy(dat[ix*ADFSectorLength:], dat[src:src+ADFSectorLength])
	}
	return dat[:count*ADFSectorLength]
}
