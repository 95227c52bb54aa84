package cliapp

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ProtectFlags ensures that no flags are safe to Apply() flag sets to without accidental flag-value mutation.
// ProtectFlags panics if any of the flag definitions cannot be protected.
// Also panics if two flags share a name or alias.
func ProtectFlags(flags []cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(flags))
	seen := make(map[string]struct{})
	for _, f := range flags {
		for _, name := range f.Names() {
			if _, ok := seen[name]; ok {
				panic(fmt.Errorf("duplicate flag name %q", name))
			}
			seen[name] = struct{}{}
		}
		fCopy, err := cloneFlag(f)
		if err != nil {
			panic(fmt.Errorf("failed to protect flag %q: %w", f.Names()[0], err))
		}
		out = append(out, fCopy)
	}
	return out
}

func cloneFlag(f cli.Flag) (cli.Flag, error) {
	switch typedFlag := f.(type) {
	case *cli.StringFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.BoolFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.IntFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.UintFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.Uint64Flag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.DurationFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.GenericFlag:
		// protect the value itself from mutation
		cpy := *typedFlag
		return &cpy, nil
	case *cli.StringSliceFlag:
		cpy := *typedFlag
		if typedFlag.Value != nil {
			cpy.Value = cli.NewStringSlice(typedFlag.Value.Value()...)
		}
		return &cpy, nil
	default:
		return nil, fmt.Errorf("cannot clone flag of type %T", f)
	}
}
