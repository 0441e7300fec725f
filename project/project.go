// Package project loads the optional `fbc.toml` configuration of a BASIC
// project: which grammar to compile with, how to write the output, and the
// build profiles.
package project

import (
	"github.com/TechCowboy/fastbasic/common"
)

// Project is a validated project configuration.  All paths are absolute.
type Project struct {
	// Root is the directory holding the project file, empty for the built-in
	// defaults
	Root string

	// GrammarFiles are the grammar sources to compile when no compiled table
	// is used.  None means the embedded grammar.
	GrammarFiles []string

	// TablePath is a compiled grammar table, used in preference to the grammar
	// files if it exists
	TablePath string

	// StartRule is the rule every source line is parsed with
	StartRule string

	// Header is the platform include of the output
	Header string

	// LineLabels enables one debug label per source line in the output
	LineLabels bool

	Profile *Profile
}

// Profile is a set of build switches
type Profile struct {
	Name     string
	Optimize bool
	Stats    bool
	Debug    bool
}

// Default returns the configuration used when there is no project file
func Default() *Project {
	return &Project{
		StartRule:  common.StartRule,
		Header:     common.PlatformHeader,
		LineLabels: true,
		Profile:    defaultProfile(),
	}
}

func defaultProfile() *Profile {
	return &Profile{Name: "default", Optimize: true}
}

// IsValidIdentifier returns whether or not a given string would be a valid
// rule or profile name
func IsValidIdentifier(idstr string) bool {
	if idstr == "" || !common.IsIdentStart(idstr[0]) {
		return false
	}

	for i := 1; i < len(idstr); i++ {
		if !common.IsIdentChar(idstr[i]) {
			return false
		}
	}

	return true
}
