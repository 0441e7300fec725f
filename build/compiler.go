// Package build drives the compilation of BASIC sources: it finds the grammar
// table, parses every line, optimizes the bytecode and writes the assembler.
package build

import (
	"bufio"
	"errors"
	"io"

	"github.com/TechCowboy/fastbasic/code"
	"github.com/TechCowboy/fastbasic/codestat"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/parse"
	"github.com/TechCowboy/fastbasic/peephole"
	"github.com/TechCowboy/fastbasic/project"
	"github.com/TechCowboy/fastbasic/syntax"
)

// Compiler is responsible for compiling BASIC sources with one grammar table
// and one project configuration
type Compiler struct {
	// table is shared by every parser the compiler creates
	table *syntax.Table

	proj *project.Project
}

// Result is the compiled form of one source file
type Result struct {
	Code    *code.Stream
	NumVars int

	// Lines is the number of source lines read
	Lines int

	// MaxLevel is the deepest rule nesting reached by the parser
	MaxLevel int

	// Rewrites counts the peephole rewrites, zero without optimization
	Rewrites int

	Stats *codestat.Stats
}

// NewCompiler creates a new compiler for a grammar table and project
func NewCompiler(table *syntax.Table, proj *project.Project) *Compiler {
	return &Compiler{table: table, proj: proj}
}

// Compile parses a whole source file.  It stops at the first line that does
// not parse, returning a *ParseError, or at the first literal that can not be
// encoded, returning an *EncodeError.
func (c *Compiler) Compile(name string, r io.Reader) (*Result, error) {
	if err := checkStart(c.table, c.proj.StartRule); err != nil {
		return nil, err
	}

	p, err := parse.New(c.table, parse.WithDebug(c.proj.Profile.Debug))
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxLineLen)
	sc.Split(scanLines)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		text := sc.Text()

		p.NewLine(text, lineNum)
		ok, err := p.Run(c.proj.StartRule)
		if err != nil {
			var fe *parse.FatalError
			if errors.As(err, &fe) {
				return nil, &EncodeError{File: name, Line: fe.Line, Col: fe.Pos, Text: text, Err: fe.Err}
			}

			return nil, err
		}

		if !ok {
			return nil, &ParseError{
				File:     name,
				Line:     lineNum,
				Col:      p.MaxPos(),
				Expected: p.Expected(),
				Text:     text,
			}
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	// a block left open is reported just past the last line
	if lc := p.Loops(); lc != nil {
		return nil, &ParseError{
			File:     name,
			Line:     lineNum + 1,
			Expected: "'" + lc.Kind.Closer() + "'",
		}
	}

	p.EmitToken("TOK_END")
	logging.LogDebug("parse end: %d lines, max level %d", lineNum, p.MaxLevel())

	return &Result{
		Code:     p.Code(),
		NumVars:  p.Vars().Len(),
		Lines:    lineNum,
		MaxLevel: p.MaxLevel(),
	}, nil
}

// Optimize runs the peephole optimizer if the build profile enables it
func (c *Compiler) Optimize(res *Result) {
	if c.proj.Profile.Optimize {
		res.Rewrites = peephole.Optimize(res.Code)
		logging.LogDebug("peephole: %d rewrites", res.Rewrites)
	}
}

// Collect gathers the opcode statistics of the final code
func (c *Compiler) Collect(res *Result) {
	res.Stats = codestat.Collect(res.Code)
}

// WriteAsm writes the result as assembler source
func (c *Compiler) WriteAsm(w io.Writer, res *Result) error {
	if res.Stats == nil {
		c.Collect(res)
	}

	return code.WriteAsm(w, res.Code, code.AsmInfo{
		Used:       res.Stats.Used(c.table.Catalog.Internal.Names()),
		NumVars:    res.NumVars,
		Header:     c.proj.Header,
		LineLabels: c.proj.LineLabels,
	})
}
