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
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

/*
	AddSetting binds the field target points to as a setting of this command.
	flag and short name the command line flags, env an optional environment
	variable. def is the default value, nil meaning the zero value of the
	field's type. Required settings cannot have a default.

	The pflag method and Viper getter are looked up by the field's type name,
	e.g. IntVarP & GetInt for an int field. Unsupported types are a programming
	error and make the process die.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) {

	s := &setting{flag: flag, env: env, required: required, target: target}

	typ, name, err := s.typeAndName()
	DieOnError(err)

	log.WithFields(log.Fields{
		"flag": flag, "env": env, "type": typ}).Trace("binding setting")

	if strings.HasSuffix(name, "Slice") && name != "StringSlice" && env != "" {
		Die("setting '%s': only string slices can come from environment", flag)
	}

	// pflag supports more types than Viper does
	if _, err := viperGetter(name); err != nil {
		Die("setting '%s' has unsupported type %s", flag, typ)
	}

	defVal := reflect.Zero(typ)
	switch {
	case required && def != nil:
		Die("required setting '%s' cannot have a default value", flag)
	case def != nil:
		if !reflect.TypeOf(def).ConvertibleTo(typ) {
			Die("default value for setting '%s' has incorrect type", flag)
		}
		defVal = reflect.ValueOf(def).Convert(typ)
	}

	flags := c.cmd.Flags()
	bind, err := pflagBinder(name, flags)
	if err != nil {
		Die("setting '%s' has unsupported type %s", flag, typ)
	}

	if env != "" {
		help = fmt.Sprintf("%s (%s)", help, env)
	}

	bind.Call([]reflect.Value{
		reflect.ValueOf(target),
		reflect.ValueOf(flag),
		reflect.ValueOf(short),
		defVal,
		reflect.ValueOf(help),
	})

	viper.BindPFlag(flag, flags.Lookup(flag))
	if env != "" {
		viper.BindEnv(flag, env)
	}

	c.settings[flag] = s
}

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

// typeAndName returns the type of the bound field, and the name used for
// finding pflag method and Viper getter.
func (s *setting) typeAndName() (reflect.Type, string, error) {

	typ := reflect.TypeOf(s.target)
	if typ.Kind() != reflect.Ptr {
		return nil, "", fmt.Errorf(
			"target for setting '%s' is not a pointer", s.flag)
	}

	elem := typ.Elem()
	if elem.Kind() == reflect.Slice {
		return elem, strings.Title(elem.Elem().Name()) + "Slice", nil
	}
	return elem, strings.Title(elem.Name()), nil
}

//
func (s *setting) get() (interface{}, error) {

	typ, name, err := s.typeAndName()
	if err != nil {
		return nil, err
	}

	getter, err := viperGetter(name)
	if err != nil {
		return nil, err
	}

	val := getter.Call([]reflect.Value{reflect.ValueOf(s.flag)})[0]
	log.WithFields(log.Fields{
		"flag": s.flag, "value": val, "set": viper.IsSet(s.flag),
	}).Trace("setting retrieved")

	if s.required && isEmpty(val, typ) {
		msg := fmt.Sprintf("you need to specify the --%s command line flag",
			s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	// Viper does not write values from environment to the target, so we do
	// that here. For a value from a flag, or a default, this is a no-op.
	if s.env != "" {
		elem := reflect.ValueOf(s.target).Elem()
		if val.Kind() != reflect.Slice {
			elem.Set(val)
		} else if elem.Len() == 0 {
			elem.Set(reflect.ValueOf(splitSlice(val)))
		}
	}

	return val.Interface(), nil
}

//
func isEmpty(val reflect.Value, typ reflect.Type) bool {
	if val.Kind() == reflect.Slice {
		return val.Len() == 0
	}
	return val.Interface() == reflect.Zero(typ).Interface()
}

//
func viperGetter(name string) (reflect.Value, error) {
	method := "Get" + name
	ret := reflect.ValueOf(viper.GetViper()).MethodByName(method)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf("no Viper getter %s", method)
	}
	return ret, nil
}

//
func pflagBinder(name string, f *pflag.FlagSet) (reflect.Value, error) {
	method := name + "VarP"
	ret := reflect.ValueOf(f).MethodByName(method)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf("no pflag method %s", method)
	}
	return ret, nil
}

// splitSlice flattens a slice of comma separated strings.
func splitSlice(v reflect.Value) []string {
	ret := make([]string, 0, v.Len())
	for ix := 0; ix < v.Len(); ix++ {
		ret = append(ret, strings.Split(v.Index(ix).String(), ",")...)
	}
	return ret
}
