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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

const lockTimeout = 5 * time.Second

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr, repository string, d *container.Disk) APIServer {
	return &api{address: addr, repository: repository, disk: d}
}

//
type api struct {
	address    string
	repository string
	disk       *container.Disk
	server     *http.Server
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8888", a.address)
	}

	log.Infof("fluxdisk API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.router()}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "track", "GET", "/track/{track:[0-9]+}", a.trackInfo)
	addRoute(router, "dump", "GET", "/track/{track:[0-9]+}/dump", a.dump)
	addRoute(router, "mfm", "GET", "/track/{track:[0-9]+}/mfm", a.mfm)
	addRoute(router, "write", "PUT", "/track/{track:[0-9]+}", a.write)
	addRoute(router, "save", "PUT", "/save", a.save)

	return router
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

// lockDisk locks the disk for the duration of a request. If the disk stays
// busy, a reply is sent and false returned.
func (a *api) lockDisk(w http.ResponseWriter, req *http.Request) bool {
	ctx, cancel := context.WithTimeout(req.Context(), lockTimeout)
	defer cancel()
	if !a.disk.Lock(ctx) {
		handleError(fmt.Errorf("disk busy"), http.StatusLocked, w)
		return false
	}
	return true
}

// getTrack returns the track addressed by the request, or nil after sending
// an error reply. The disk needs to be locked.
func (a *api) getTrack(w http.ResponseWriter, req *http.Request) (int, *track.Info) {
	nr, err := strconv.Atoi(mux.Vars(req)["track"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1, nil
	}
	ti := a.disk.Track(nr)
	if ti == nil {
		handleError(fmt.Errorf("no track %d on disk", nr), http.StatusNotFound, w)
		return -1, nil
	}
	return nr, ti
}

//
func isFlagSet(req *http.Request, flag string) bool {
	arg, _ := getArg(req, flag)
	return arg == "true"
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendBinaryReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

// FIXME: make more tolerant
func wantsJSON(req *http.Request) bool {
	return req.Header.Get("Content-Type") == "application/json"
}
