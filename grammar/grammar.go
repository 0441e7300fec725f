// Package grammar holds the grammar of the BASIC dialect compiled by fbc.
package grammar

import (
	"embed"
	"io/fs"

	"github.com/TechCowboy/fastbasic/syntax"
)

//go:embed basic.syn float.syn
var files embed.FS

// Files lists the grammar files in the order they are loaded.  The files refer
// to each other's rules, so neither can be compiled on its own.
var Files = []string{"basic.syn", "float.syn"}

// Source returns the text of one of the grammar files
func Source(name string) ([]byte, error) {
	return fs.ReadFile(files, name)
}

// Compile compiles the built-in grammar
func Compile(start string) (*syntax.Table, error) {
	c := syntax.NewCompiler()

	for _, name := range Files {
		f, err := files.Open(name)
		if err != nil {
			return nil, err
		}

		err = c.Load(name, f)
		f.Close()

		if err != nil {
			return nil, err
		}
	}

	return c.Finalize(start)
}
