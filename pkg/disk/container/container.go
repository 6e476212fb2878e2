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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
)

// Container maps the tracks of a disk to an image file layout.
type Container interface {
	// Init sets up the tracks of d as blank tracks
	Init(d *Disk)
	// Open reads the tracks of d from its backing store. When quiet is set,
	// a format mismatch is not logged.
	Open(d *Disk, quiet bool) error
	// Close rewrites the complete image to the backing store of d
	Close(d *Disk) error
	// WriteTrack replaces track tracknr of d with what gets decoded from s
	WriteTrack(d *Disk, tracknr int, s *stream.Stream) error
}

//
func New(format string) (Container, error) {

	switch strings.ToLower(format) {

	case "adf":
		return NewADF(), nil

	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}
}

// FormatOf returns the image format for file, as given by its extension.
func FormatOf(file string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
}

// Open opens the image file at path for reading & writing. The format is taken
// from the file extension if not given.
func Open(path, format string, quiet bool) (*Disk, error) {

	if format == "" {
		format = FormatOf(path)
	}

	c, err := New(format)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open image %s", path)
	}

	d := NewDisk(f, c)
	if err := c.Open(d, quiet); err != nil {
		f.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"image": path, "format": format}).Debug(
		"image opened")
	return d, nil
}

// Create creates a new image file at path, with all tracks blank. Nothing is
// written before the disk is flushed or closed.
func Create(path, format string) (*Disk, error) {

	if format == "" {
		format = FormatOf(path)
	}

	c, err := New(format)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create image %s", path)
	}

	d := NewDisk(f, c)
	c.Init(d)
	d.modified = true
	return d, nil
}
