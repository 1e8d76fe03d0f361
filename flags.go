package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// enumFlag is a string flag restricted to a fixed set of options. The first
// option is the default.
type enumFlag struct {
	options []string
	value   string
}

func newEnumFlag(options ...string) *enumFlag {
	if len(options) == 0 {
		panic("enum flag needs at least one option")
	}
	return &enumFlag{options: options, value: options[0]}
}

func (f *enumFlag) String() string { return f.value }

func (f *enumFlag) Set(v string) error {
	for _, o := range f.options {
		if o == v {
			f.value = v
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(f.options, ", "))
}

func (f *enumFlag) Type() string { return "enum" }

func enumVar(flags *pflag.FlagSet, name string, options []string, usage string) {
	flags.Var(newEnumFlag(options...), name, fmt.Sprintf("%s (one of: %s)", usage, strings.Join(options, ", ")))
}

func enumValue(flags *pflag.FlagSet, name string) (string, error) {
	flag := flags.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag %q not registered", name)
	}
	ef, ok := flag.Value.(*enumFlag)
	if !ok {
		return "", fmt.Errorf("flag %q is not an enum flag", name)
	}
	return ef.value, nil
}
