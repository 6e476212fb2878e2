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

package control

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/xelalexv/fluxdisk/pkg/disk/stream"
	"github.com/xelalexv/fluxdisk/pkg/repo"
)

const maxBitstreamSize = 1048576

//
func (a *api) trackInfo(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	nr, ti := a.getTrack(w, req)
	if ti == nil {
		return
	}

	t := NewTrack(nr, ti)
	if wantsJSON(req) {
		sendJSONReply(t, http.StatusOK, w)
	} else {
		sendReply([]byte(t.String()), http.StatusOK, w)
	}
}

//
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	_, ti := a.getTrack(w, req)
	if ti == nil {
		return
	}

	var out bytes.Buffer
	ti.Emit(&out)
	sendStreamReply(&out, http.StatusOK, w)
}

//
func (a *api) mfm(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	nr, ti := a.getTrack(w, req)
	if ti == nil {
		return
	}

	raw, err := a.disk.EncodeTrack(nr)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	var out bytes.Buffer
	if _, err := raw.WriteTo(&out); handleError(
		err, http.StatusInternalServerError, w) {
		return
	}
	sendBinaryReply(out.Bytes(), http.StatusOK, w)
}

//
func (a *api) write(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	nr, ti := a.getTrack(w, req)
	if ti == nil {
		return
	}

	var in io.Reader

	if ref, err := getArg(req, "ref"); ref != "" || err != nil {
		var rc io.ReadCloser
		if err == nil {
			rc, err = repo.Resolve(ref, a.repository)
		}
		if handleError(err, http.StatusNotAcceptable, w) {
			return
		}
		defer rc.Close()
		in = rc

	} else {
		in = req.Body
	}

	raw, err := stream.ReadRawTrack(io.LimitReader(in, maxBitstreamSize))
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if handleError(req.Body.Close(), http.StatusInternalServerError, w) {
		return
	}

	c := stream.NewMemoryCapture()
	c.Add(nr, raw)
	if handleError(a.disk.WriteTrack(nr, stream.NewStream(c)),
		http.StatusUnprocessableEntity, w) {
		return
	}

	t := NewTrack(nr, a.disk.Track(nr))
	if wantsJSON(req) {
		sendJSONReply(t, http.StatusOK, w)
	} else {
		sendReply([]byte(fmt.Sprintf("wrote track %d: %s", nr, t.String())),
			http.StatusOK, w)
	}
}
