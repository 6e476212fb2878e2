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

package repo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PrefixRepoRef marks a reference to a file in the bitstream repository.
const PrefixRepoRef = "repo://"

//
func newFileSource(file string) (*fileSource, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open repository file")
	}
	return &fileSource{file: f, reader: bufio.NewReader(f)}, nil
}

//
type fileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *fileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

/*
	Resolve opens the file ref refers to. repo is the base folder of the
	repository; an empty repo means the repository is disabled. References
	cannot leave the repository folder.
*/
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	if !IsReference(ref) {
		return nil, fmt.Errorf("unsupported reference: %s", ref)
	}

	if repo == "" {
		return nil, fmt.Errorf("bitstream repository is not enabled")
	}

	path := strings.TrimPrefix(ref, PrefixRepoRef)
	clean := filepath.Clean("/" + path)
	if path == "" || clean == "/" {
		return nil, fmt.Errorf("empty reference: %s", ref)
	}

	return newFileSource(filepath.Join(repo, clean))
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef)
}
