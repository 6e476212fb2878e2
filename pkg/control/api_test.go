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
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
)

func newTestAPI(t *testing.T) *api {
	d, err := container.Create(filepath.Join(t.TempDir(), "test.adf"), "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return &api{disk: d}
}

func request(a *api, method, path string, body []byte,
	json bool) *httptest.ResponseRecorder {

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if json {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router().ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {

	a := newTestAPI(t)

	rec := request(a, "GET", "/status", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	var stat Status
	if err := json.Unmarshal(rec.Body.Bytes(), &stat); err != nil {
		t.Fatal(err)
	}
	if len(stat.Tracks) != container.ADFTrackCount || stat.Formatted() != 0 {
		t.Errorf("unexpected status: %d tracks, %d formatted",
			len(stat.Tracks), stat.Formatted())
	}
	if !stat.Modified {
		t.Errorf("new disk should be modified")
	}

	rec = request(a, "GET", "/status", nil, false)
	if !strings.Contains(rec.Body.String(), "160 tracks, 0 formatted") {
		t.Errorf("unexpected text status: %s", rec.Body.String())
	}
}

func TestTrackRoundTrip(t *testing.T) {

	a := newTestAPI(t)
	copy(a.disk.Track(40).Data, []byte("DOS\x01 hello"))
	a.disk.Track(40).ValidSectors = 1

	rec := request(a, "GET", "/track/40/mfm", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("got content type %s", ct)
	}
	raw := rec.Body.Bytes()

	rec = request(a, "PUT", "/track/41", raw, true)
	if rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	// track number is part of the sector info, so track 41 stays blank
	if a.disk.Track(41).ValidSectors != 0 {
		t.Errorf("bitstream of track 40 accepted for track 41")
	}

	a.disk.Track(40).Data[0] = 0
	rec = request(a, "PUT", "/track/40", raw, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}

	var tr Track
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if tr.Number != 40 || tr.Type != "amigados" || tr.ValidSectors != 1 {
		t.Errorf("unexpected track info: %+v", tr)
	}
	if !bytes.HasPrefix(a.disk.Track(40).Data, []byte("DOS\x01 hello")) {
		t.Errorf("payload not restored")
	}

	rec = request(a, "GET", "/track/40/dump", nil, false)
	if !strings.Contains(rec.Body.String(), "SECTOR: 0") {
		t.Errorf("unexpected dump: %s", rec.Body.String())
	}
}

func TestTrackErrors(t *testing.T) {

	a := newTestAPI(t)

	if rec := request(a, "GET", "/track/160", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("got status %d for invalid track", rec.Code)
	}
	if rec := request(a, "GET", "/track/x", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("got status %d for malformed track", rec.Code)
	}
	if rec := request(a, "PUT", "/track/3", nil, false); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("got status %d for empty bitstream", rec.Code)
	}

	a.disk.Lock(context.Background())
	defer a.disk.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/track/3", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	a.router().ServeHTTP(rec, req)
	if rec.Code != http.StatusLocked {
		t.Errorf("got status %d for locked disk", rec.Code)
	}
}

func TestSave(t *testing.T) {

	a := newTestAPI(t)

	rec := request(a, "PUT", "/save", nil, false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "saved") {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if a.disk.IsModified() {
		t.Errorf("disk still modified after save")
	}

	rec = request(a, "PUT", "/save", nil, false)
	if !strings.Contains(rec.Body.String(), "not modified") {
		t.Errorf("unexpected reply: %s", rec.Body.String())
	}
}

func TestTrackFromRepo(t *testing.T) {

	a := newTestAPI(t)
	copy(a.disk.Track(7).Data, []byte("DOS\x00"))
	a.disk.Track(7).ValidSectors = 1

	raw, err := a.disk.EncodeTrack(7)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	raw.WriteTo(&buf)

	rec := request(a, "PUT", "/track/7?ref=repo://t7.bits", nil, false)
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("got status %d with repository disabled", rec.Code)
	}

	a.repository = t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(a.repository, "t7.bits"),
		buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	a.disk.Track(7).Data[0] = 'X'
	rec = request(a, "PUT", "/track/7?ref=repo://t7.bits", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(a.disk.Track(7).Data, []byte("DOS\x00")) {
		t.Errorf("track not loaded from repository")
	}

	rec = request(a, "PUT", "/track/7?ref=repo://missing.bits", nil, false)
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("got status %d for missing repository file", rec.Code)
	}
}
