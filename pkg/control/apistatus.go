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
	"net/http"
)

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	if !a.lockDisk(w, req) {
		return
	}
	defer a.disk.Unlock()

	stat := &Status{Modified: a.disk.IsModified()}
	for nr := 0; nr < a.disk.TrackCount(); nr++ {
		stat.Add(a.disk.Track(nr))
	}

	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}
