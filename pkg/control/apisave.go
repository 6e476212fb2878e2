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
	"fmt"
	"net/http"
)

//
func (a *api) save(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	if !a.disk.IsModified() && !isFlagSet(req, "force") {
		sendReply([]byte("disk not modified"), http.StatusOK, w)
		return
	}

	if handleError(a.disk.Flush(), http.StatusInternalServerError, w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("saved %d tracks", a.disk.TrackCount())),
		http.StatusOK, w)
}
