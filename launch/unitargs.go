// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// ArgKind is the fixed set of coercible unit argument types (grounded on
// original_source's argument_types.h X-macro list, collapsed from its
// separate signed/unsigned/width-specific integer types down to the
// two Go machine-width types the rest of this module already uses).
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgInt
	ArgFloat
	ArgBool
)

// UnitArgs exposes typed getters over a unit's parsed command-line
// arguments. Unlike the original, which throws on a bad conversion,
// every getter here returns an error instead.
type UnitArgs struct {
	flags *pflag.FlagSet
}

// NewUnitArgs declares one flag per (name, kind) in kinds and parses the
// string-valued raw args (as they appear in a launch manifest's
// UnitDefinition.Args) against them.
func NewUnitArgs(unitName string, kinds map[string]ArgKind, raw map[string]string) (*UnitArgs, error) {
	fs := pflag.NewFlagSet(unitName, pflag.ContinueOnError)
	for name, kind := range kinds {
		switch kind {
		case ArgString:
			fs.String(name, "", "")
		case ArgInt:
			fs.Int64(name, 0, "")
		case ArgFloat:
			fs.Float64(name, 0, "")
		case ArgBool:
			fs.Bool(name, false, "")
		}
	}

	args := make([]string, 0, len(raw)*2)
	for name, value := range raw {
		if _, ok := kinds[name]; !ok {
			continue
		}
		args = append(args, "--"+name+"="+value)
	}
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrapf(err, "launch: parse args for unit %s", unitName)
	}
	return &UnitArgs{flags: fs}, nil
}

func (a *UnitArgs) String(name string) (string, error) { return a.flags.GetString(name) }
func (a *UnitArgs) Int(name string) (int64, error)     { return a.flags.GetInt64(name) }
func (a *UnitArgs) Float(name string) (float64, error) { return a.flags.GetFloat64(name) }
func (a *UnitArgs) Bool(name string) (bool, error)     { return a.flags.GetBool(name) }
