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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/fluxdisk/pkg/run"
)

//
var FluxDiskVersion string

//
func synopsis() {
	fmt.Print(`
synopsis: fluxctl {info|dump|import|export|analyse|synth|serve|shell|version} ...

run 'fluxctl {action} -h|--help' to see detailed info

`)
}

//
func version() {
	fmt.Printf("\nfluxdisk %s\n\n", FluxDiskVersion)
}

//
func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	switch action {

	case "info", "ls":
		run.DieOnError(run.NewInfo().Execute(args))

	case "dump":
		run.DieOnError(run.NewDump().Execute(args))

	case "import":
		run.DieOnError(run.NewImport().Execute(args))

	case "export":
		run.DieOnError(run.NewExport().Execute(args))

	case "analyse", "analyze":
		run.DieOnError(run.NewAnalyse().Execute(args))

	case "synth":
		run.DieOnError(run.NewSynth().Execute(args))

	case "serve":
		version()
		run.DieOnError(run.NewServe().Execute(args))

	case "shell":
		run.DieOnError(run.NewShell().Execute(args))

	case "version":
		version()

	case "":
		fallthrough
	case "-h":
		fallthrough
	case "--help":
		synopsis()

	default:
		run.Die("unknown action: %s\n", action)
	}
}
