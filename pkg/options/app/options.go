// Package app defines the option interfaces consumed by the application
// bootstrap in pkg/infra/app.
package app

import "github.com/spf13/pflag"

// NamedFlagSets groups pflag.FlagSet instances by section name so that
// help output stays ordered and readable.
type NamedFlagSets struct {
	// Order is the order in which flag sets are printed.
	Order []string
	// FlagSets maps section name to its flag set.
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set for the given section, creating it on
// first use and recording its position.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = make(map[string]*pflag.FlagSet)
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// CliOptions abstracts the full option set of a command-line application.
type CliOptions interface {
	// Flags returns all flags grouped into named sections.
	Flags() NamedFlagSets

	// Complete fills in defaults derived from other options or the
	// environment. Called after config loading, before Validate.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}
