package build

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/project"
)

// Options are the inputs of one build
type Options struct {
	// Input is the BASIC source file
	Input string

	// Output is the assembler file to write
	Output string

	// TablePath is a grammar table given on the command line, may be empty
	TablePath string

	Project *project.Project
}

// Build compiles one source file to assembler, reporting every problem
// through the logger.  The output file is only written if the whole build
// succeeds.  It returns whether the build succeeded.
func Build(opts Options) bool {
	proj := opts.Project
	logging.LogCompileHeader(opts.Input, proj.Profile.Optimize)

	res, c := compileSource(opts)
	if res != nil {
		if proj.Profile.Optimize {
			logging.LogBeginPhase("Optimizing")
			c.Optimize(res)
			logging.LogEndPhase()
		}

		c.Collect(res)

		logging.LogBeginPhase("Writing")
		writeOutput(c, res, opts.Output)
		logging.LogEndPhase()
	}

	logging.LogCompilationFinished()

	if res != nil && proj.Profile.Stats && logging.ShouldProceed() {
		if err := res.Stats.Print(); err != nil {
			logging.PrintErrorMessage("Stats Error", err)
		}
	}

	return logging.ShouldProceed()
}

// compileSource loads the grammar and parses the input.  It returns nil if
// either step failed.
func compileSource(opts Options) (*Result, *Compiler) {
	logging.LogBeginPhase("Loading")

	table, err := LoadTable(opts.Project, opts.TablePath)
	if err != nil {
		logging.LogConfigError("Grammar", "error loading grammar: "+err.Error())
		return nil, nil
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		logging.LogConfigError("File", err.Error())
		return nil, nil
	}
	defer f.Close()

	logging.LogEndPhase()

	logging.LogBeginPhase("Parsing")
	c := NewCompiler(table, opts.Project)

	res, err := c.Compile(opts.Input, f)
	if err != nil {
		reportError(err)
		return nil, nil
	}

	logging.LogEndPhase()
	return res, c
}

// writeOutput renders the whole file before creating it so that a failed
// build never leaves a partial output behind
func writeOutput(c *Compiler, res *Result, path string) {
	buff := &bytes.Buffer{}
	if err := c.WriteAsm(buff, res); err != nil {
		logging.LogConfigError("Output", err.Error())
		return
	}

	if err := ioutil.WriteFile(path, buff.Bytes(), 0644); err != nil {
		logging.LogConfigError("Output", fmt.Sprintf("error writing `%s`: %s", path, err))
	}
}

// reportError logs a compilation error in the form matching its kind
func reportError(err error) {
	var pe *ParseError
	var ee *EncodeError

	switch {
	case errors.As(err, &pe):
		col := pe.Col
		if pe.Text == "" {
			col = -1
		}
		logging.LogCompileError(pe.File, pe.Line, col, pe.Message(), pe.Text)
	case errors.As(err, &ee):
		logging.LogCompileError(ee.File, ee.Line, ee.Col, ee.Err.Error(), ee.Text)
	default:
		logging.LogConfigError("Compile", err.Error())
	}
}

// BuildGrammar compiles the grammar of the project and saves the table to
// path.  If summary is set, the size of the table is reported.
func BuildGrammar(proj *project.Project, path string, summary bool) bool {
	logging.LogBeginPhase("Grammar")

	table, err := CompileGrammar(proj)
	if err != nil {
		logging.LogConfigError("Grammar", err.Error())
	} else if err := table.SaveTable(path); err != nil {
		logging.LogConfigError("Grammar", fmt.Sprintf("error saving table `%s`: %s", path, err))
	}

	logging.LogEndPhase()
	logging.LogCompilationFinished()

	if summary && logging.ShouldProceed() {
		logging.PrintInfoMessage("Grammar", table.Summary())
	}

	return logging.ShouldProceed()
}
