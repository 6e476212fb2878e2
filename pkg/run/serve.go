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
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/control"
	"github.com/xelalexv/fluxdisk/pkg/disk/container"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve -i|--input {image} [-a|--address {address}] [-c|--create]
      [-r|--repo {repo base folder}]`,
		"API server command",
		`Use the serve command for running the API server for inspecting and
rewriting the tracks of a disk image. Changes are written back to the image when
saved via the API, and on shutdown.`,
		"", logHelp+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.File, "input", "i", "FLUXDISK_IMAGE", nil,
		"disk image file", true)
	s.AddSetting(&s.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)
	s.AddSetting(&s.Create, "create", "c", "", false,
		"create a blank image if it does not exist", false)
	s.AddSetting(&s.Repository, "repo", "r", "FLUXDISK_REPO", nil,
		`bitstream repo base folder; when omitted, loading
bitstreams from server host's file system is prohibited`, false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	File       string
	Format     string
	Create     bool
	Repository string
}

//
func (s *Serve) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	d, err := openOrCreate(s.File, s.Format, s.Create)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)

	api := control.NewAPIServer(s.Address, s.Repository, d)
	go func() {
		defer wg.Done()
		if err := api.Serve(); err != nil {
			log.Errorf("API server closed with error: %v", err)
		} else {
			log.Info("API server stopped")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sigCount := 0
	done := make(chan error)

	for {

		select {

		case sig := <-sigs: // interrupt signal
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {

			case 1:
				go func() {
					log.Info("shutting down, hit Ctrl-C twice to force exit...")
					api.Stop()
					wg.Wait()
					done <- closeDisk(d)
				}()

			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")

			default:
				log.Warn("forcing immediate exit, unsaved changes are lost")
				os.Exit(1)
			}

		case err := <-done: // shutdown sequence complete
			log.Info("fluxdisk stopped")
			return err
		}
	}
}

// openOrCreate opens the image at file. A missing image is created if create
// is set.
func openOrCreate(file, format string, create bool) (*container.Disk, error) {
	if _, err := os.Stat(file); os.IsNotExist(err) && create {
		log.WithField("image", file).Info("creating blank image")
		return container.Create(file, format)
	}
	return container.Open(file, format, false)
}

// closeDisk writes back a modified disk, and releases its backing store.
func closeDisk(d *container.Disk) error {
	if d.IsModified() {
		log.Info("writing back modified image")
		return d.Close()
	}
	return d.Discard()
}
