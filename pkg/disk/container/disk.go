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
	"context"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// Backing is the storage an image is read from and written to. *os.File
// satisfies it.
type Backing interface {
	io.ReadWriteSeeker
	Truncate(size int64) error
}

/*
	Disk is the in-memory form of a disk image: a fixed number of tracks,
	bound to a backing store and the container format that maps the tracks to
	it. A Disk needs to be locked by concurrent users, since track payloads
	are replaced destructively when tracks get rewritten.
*/
type Disk struct {
	//
	backing   Backing
	container Container
	tracks    []*track.Info
	modified  bool
	//
	lock chan bool
}

//
func NewDisk(b Backing, c Container) *Disk {
	return &Disk{
		backing:   b,
		container: c,
		lock:      make(chan bool, 1),
	}
}

//
func (d *Disk) Lock(ctx context.Context) bool {
	select {
	case d.lock <- true:
		log.Debug("disk locked")
		return true
	case <-ctx.Done():
		log.Debug("disk lock timed out")
		return false
	}
}

//
func (d *Disk) Unlock() {
	select {
	case <-d.lock:
		log.Debug("disk unlocked")
	default:
		log.Debug("disk was already unlocked")
	}
}

//
func (d *Disk) IsLocked() bool {
	return len(d.lock) > 0
}

//
func (d *Disk) Backing() Backing {
	return d.backing
}

//
func (d *Disk) Container() Container {
	return d.container
}

//
func (d *Disk) TrackCount() int {
	return len(d.tracks)
}

// Track returns the track with the given number, or nil if out of range.
func (d *Disk) Track(tracknr int) *track.Info {
	if 0 <= tracknr && tracknr < len(d.tracks) {
		return d.tracks[tracknr]
	}
	return nil
}

//
func (d *Disk) setTrack(tracknr int, ti *track.Info) {
	d.tracks[tracknr] = ti
	d.modified = true
}

//
func (d *Disk) IsModified() bool {
	return d.modified
}

//
func (d *Disk) SetModified(m bool) {
	d.modified = m
}

// WriteTrack decodes the captured bitstream of tracknr from s, and stores the
// result in this disk.
func (d *Disk) WriteTrack(tracknr int, s *stream.Stream) error {
	if d.Track(tracknr) == nil {
		return errors.Errorf("invalid track number: %d", tracknr)
	}
	return d.container.WriteTrack(d, tracknr, s)
}

// EncodeTrack synthesises the bitstream of tracknr.
func (d *Disk) EncodeTrack(tracknr int) (*stream.RawTrack, error) {
	ti := d.Track(tracknr)
	if ti == nil {
		return nil, errors.Errorf("invalid track number: %d", tracknr)
	}
	return track.Encode(tracknr, ti)
}

// Flush rewrites the complete image to the backing store.
func (d *Disk) Flush() error {
	if err := d.container.Close(d); err != nil {
		return err
	}
	d.modified = false
	return nil
}

// Close flushes this disk, and closes the backing store if it can be closed.
func (d *Disk) Close() error {
	err := d.Flush()
	if c, ok := d.backing.(io.Closer); ok {
		if e := c.Close(); e != nil && err == nil {
			err = errors.Wrap(e, "error closing backing store")
		}
	}
	return err
}

// Discard closes the backing store if it can be closed, dropping any changes
// not yet flushed.
func (d *Disk) Discard() error {
	if c, ok := d.backing.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
