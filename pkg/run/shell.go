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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/container"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

//
func NewShell() *Shell {

	s := &Shell{}
	s.Runner = *NewRunner(
		"shell -i|--input {image} [-c|--create]",
		"interactive shell for a disk image",
		`
Use the shell command for inspecting and rewriting the tracks of a disk image
interactively. Type 'help' at the prompt for a list of commands.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.File, "input", "i", "FLUXDISK_IMAGE", nil,
		"disk image file", true)
	s.AddSetting(&s.Format, "format", "f", "", nil,
		"image format, taken from file extension if omitted", false)
	s.AddSetting(&s.Create, "create", "c", "", false,
		"create a blank image if it does not exist", false)

	return s
}

//
type Shell struct {
	//
	Runner
	//
	File   string
	Format string
	Create bool
	//
	disk *container.Disk
	out  io.Writer
}

//
type shellCommand struct {
	args  int
	usage string
	help  string
	code  func(s *Shell, args []string) error
}

var errQuit = errors.New("quit")

var shellCommands map[string]*shellCommand

func init() {
	shellCommands = map[string]*shellCommand{
		"help":    {0, "help", "show this help", (*Shell).help},
		"info":    {0, "info", "list all tracks", (*Shell).info},
		"track":   {1, "track {n}", "show track details", (*Shell).track},
		"dump":    {1, "dump {n}", "hex dump of track payload", (*Shell).dump},
		"import":  {2, "import {n} {file}", "decode bitstream file into track", (*Shell).importTrack},
		"export":  {2, "export {n} {file}", "encode track into bitstream file", (*Shell).exportTrack},
		"analyse": {2, "analyse {n} {file}", "identify bitstream file format", (*Shell).analyse},
		"save":    {0, "save", "write image back to file", (*Shell).save},
		"quit":    {0, "quit", "leave shell, asking to save changes", (*Shell).quit},
	}
}

//
func (s *Shell) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	d, err := openOrCreate(s.File, s.Format, s.Create)
	if err != nil {
		return err
	}
	s.disk = d
	s.out = os.Stdout

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       s.prompt(),
		HistoryFile:  historyFile(),
		AutoComplete: completer(),
	})
	if err != nil {
		d.Discard()
		return errors.Wrap(err, "cannot set up shell")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF
			if err := s.quit(nil); err != errQuit {
				return err
			}
			return nil
		}

		if err := s.process(line); err == errQuit {
			return nil
		} else if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}

		rl.SetPrompt(s.prompt())
	}
}

//
func (s *Shell) prompt() string {
	mod := ""
	if s.disk.IsModified() {
		mod = "*"
	}
	return fmt.Sprintf("%s%s> ", filepath.Base(s.File), mod)
}

//
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fluxdisk_history")
}

//
func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range commandNames() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

//
func commandNames() []string {
	ret := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// process runs a single command line. errQuit signals the end of the session.
func (s *Shell) process(line string) error {

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	verb := strings.ToLower(fields[0])
	if verb == "exit" {
		verb = "quit"
	}

	cmd, ok := shellCommands[verb]
	if !ok {
		return fmt.Errorf("unknown command: %s", verb)
	}

	args := fields[1:]
	if len(args) != cmd.args {
		return fmt.Errorf("usage: %s", cmd.usage)
	}

	log.WithFields(log.Fields{"command": verb, "args": args}).Debug(
		"shell command")
	return cmd.code(s, args)
}

//
func (s *Shell) trackArg(arg string) (int, error) {
	nr, err := strconv.Atoi(arg)
	if err != nil {
		return -1, fmt.Errorf("invalid track number: %s", arg)
	}
	return nr, validateTrack(s.disk, nr)
}

//
func (s *Shell) help(args []string) error {
	for _, name := range commandNames() {
		cmd := shellCommands[name]
		fmt.Fprintf(s.out, "  %-20s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

//
func (s *Shell) info(args []string) error {
	listTracks(s.out, s.disk)
	return nil
}

//
func (s *Shell) track(args []string) error {
	nr, err := s.trackArg(args[0])
	if err != nil {
		return err
	}
	ti := s.disk.Track(nr)
	fmt.Fprintf(s.out, "track %d: %s\n", nr, ti)
	for sec := 0; sec < ti.SectorCount; sec++ {
		state := "blank"
		if ti.IsValid(sec) {
			state = "valid"
		}
		fmt.Fprintf(s.out, "  sector %2d: %s\n", sec, state)
	}
	return nil
}

//
func (s *Shell) dump(args []string) error {
	nr, err := s.trackArg(args[0])
	if err != nil {
		return err
	}
	s.disk.Track(nr).Emit(s.out)
	fmt.Fprintln(s.out)
	return nil
}

//
func (s *Shell) importTrack(args []string) error {
	nr, err := s.trackArg(args[0])
	if err != nil {
		return err
	}
	st, err := readCapture(args[1], nr)
	if err != nil {
		return err
	}
	if err := s.disk.WriteTrack(nr, st); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "track %d: %s\n", nr, s.disk.Track(nr))
	return nil
}

//
func (s *Shell) exportTrack(args []string) error {
	nr, err := s.trackArg(args[0])
	if err != nil {
		return err
	}
	raw, err := s.disk.EncodeTrack(nr)
	if err != nil {
		return err
	}
	if err := writeBitstream(args[1], raw); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "track %d: %d bits written to %s\n", nr, raw.BitLen,
		args[1])
	return nil
}

//
func (s *Shell) analyse(args []string) error {
	nr, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid track number: %s", args[0])
	}
	st, err := readCapture(args[1], nr)
	if err != nil {
		return err
	}
	ti, err := track.Analyse(nr, st)
	if err != nil {
		return err
	}
	if ti == nil {
		fmt.Fprintln(s.out, "track format not recognized")
	} else {
		fmt.Fprintf(s.out, "track %d: %s\n", nr, ti)
	}
	return nil
}

//
func (s *Shell) save(args []string) error {
	if err := s.disk.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s\n", s.File)
	return nil
}

//
func (s *Shell) quit(args []string) error {
	if s.disk.IsModified() &&
		GetUserConfirmation("image is modified, save changes?") {
		if err := s.disk.Close(); err != nil {
			return err
		}
		return errQuit
	}
	if err := s.disk.Discard(); err != nil {
		return err
	}
	return errQuit
}
