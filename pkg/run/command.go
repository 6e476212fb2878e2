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
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//
const (
	prologueHeader = ""
	epilogueHeader = `
Notes:

`
)

/*
	Logging is configured when this package gets initialized, from these
	environment variables:

		LOG_FORMAT		`json` selects JSON logging
		LOG_FORCE_COLORS	non-empty forces colorized text logging
		LOG_METHODS		non-empty adds the calling method to log entries
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {

	log.SetOutput(os.Stderr)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if os.Getenv("LOG_FORCE_COLORS") != "" {
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	if os.Getenv("LOG_METHODS") != "" {
		log.SetReportCaller(true)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if l, err := log.ParseLevel(level); err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

// UnderTest makes Die & DieOnError panic instead of exiting.
var UnderTest bool

// DieOnError exits with status 1 if e is not nil, after printing e.
func DieOnError(e error) {
	if e != nil {
		Die("%v\n", e)
	}
}

// Die prints the message and exits with status 1.
func Die(msg string, params ...interface{}) {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	fmt.Fprint(os.Stderr, msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(os.Stderr)
	}
	if UnderTest {
		panic(msg)
	}
	os.Exit(1)
}

//
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var res string
	fmt.Scanln(&res)
	return "y" == strings.ToLower(strings.TrimSpace(res))
}

/*
	NewCommand wraps a new Cobra command. exec runs when the command gets
	executed. Prologue & epilogue are printed before and after the generated
	flag help.
*/
func NewCommand(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Command {

	ret := &Command{
		cmd: &cobra.Command{
			Use:   use,
			Short: short,
			Long:  long,
			RunE: func(*cobra.Command, []string) error {
				return exec()
			},
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
		},
		settings:     map[string]*setting{},
		helpPrologue: helpPrologue,
		helpEpilogue: helpEpilogue,
	}
	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return ret
}

/*
	Command binds Cobra flags, Viper and environment variables to plain struct
	fields. A setting may come from a flag or an environment variable, with the
	flag taking precedence. A required setting missing from both gets reported
	with the names of flag and variable, which Cobra/Viper alone cannot do
	(https://github.com/spf13/viper/issues/397).
*/
type Command struct {
	//
	cmd      *cobra.Command
	settings map[string]*setting
	//
	Args []string
	//
	helpPrologue string
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if c.helpPrologue != "" {
		fmt.Fprintln(out, prologueHeader+c.helpPrologue)
	}
	if c.helpFunc != nil {
		c.helpFunc(cmd, args)
	}
	if c.helpEpilogue != "" {
		fmt.Fprintln(out, epilogueHeader+c.helpEpilogue)
	} else {
		fmt.Fprintln(out)
	}
}

// Execute runs the command. Non-empty args replace os.Args.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 {
		c.cmd.SetArgs(args)
	}
	return c.cmd.Execute()
}

/*
	ParseSettings fills all fields bound via AddSetting with their values.
	Call this first thing in the exec function. Remaining positional arguments
	are placed in Args.
*/
func (c *Command) ParseSettings() error {
	for _, s := range c.settings {
		if _, err := s.get(); err != nil {
			return err
		}
	}
	c.Args = c.cmd.Flags().Args()
	return nil
}

// GetSetting returns the current value of the setting bound to flag.
func (c *Command) GetSetting(flag string) (interface{}, error) {
	s, ok := c.settings[flag]
	if !ok {
		return nil, fmt.Errorf("undefined setting: %s", flag)
	}
	return s.get()
}
