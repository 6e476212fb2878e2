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
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
)

//
const runnerHelpPrologue = ""
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.
`

const logHelp = `- Logging can be configured with these environment variables:

  LOG_FORMAT		set to 'json' for JSON logging
  LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
  LOG_METHODS		set to non-empty for including methods in log
  LOG_LEVEL		panic, fatal, error, warn, info, debug, trace

`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

//
type Runner struct {
	//
	Command
	//
	Address string
}

//
func (r *Runner) AddBaseSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather has
	// to be called from the top level command type. Otherwise, we will confuse
	// Cobra/Viper and the settings will not be filled with their values.
	r.AddSetting(&r.Address, "address", "a", "FLUXDISK_ADDRESS", "localhost:8888",
		"address of API server", false)
}

//
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	addr := r.Address
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:8888", addr)
	}

	req, err := http.NewRequest(
		method, fmt.Sprintf("http://%s%s", addr, path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")
	} else {
		req.Header.Add("Content-Type", "text/plain")
		req.Header.Add("Accept", "text/plain")
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API server replied %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

// copyReply copies the body of an API reply to stdout.
func copyReply(rc io.ReadCloser, err error) error {
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(os.Stdout, rc)
	return err
}

//
func validateTrack(d *container.Disk, tracknr int) error {
	if d.Track(tracknr) == nil {
		return fmt.Errorf(
			"invalid track number: %d; valid numbers are 0 through %d",
			tracknr, d.TrackCount()-1)
	}
	return nil
}

// readCapture reads a raw bitstream file as the capture of track tracknr.
func readCapture(file string, tracknr int) (*stream.Stream, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open bitstream %s", file)
	}
	defer f.Close()

	raw, err := stream.ReadRawTrack(f)
	if err != nil {
		return nil, err
	}

	c := stream.NewMemoryCapture()
	c.Add(tracknr, raw)
	return stream.NewStream(c), nil
}

// writeBitstream writes raw to file, replacing any existing file.
func writeBitstream(file string, raw *stream.RawTrack) error {

	f, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "cannot create bitstream %s", file)
	}

	if _, err := raw.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "error writing bitstream %s", file)
	}
	return f.Close()
}
