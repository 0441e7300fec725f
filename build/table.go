package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/grammar"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/project"
	"github.com/TechCowboy/fastbasic/syntax"
)

// LoadTable finds the grammar table to compile with.  In order of preference:
// the table named on the command line, the table of the project, the grammar
// files of the project, the table in FBC_PATH and finally the built-in
// grammar.
func LoadTable(proj *project.Project, explicit string) (*syntax.Table, error) {
	if explicit != "" {
		logging.LogDebug("grammar: loading table %s", explicit)
		return syntax.LoadTable(explicit)
	}

	if proj.TablePath != "" && exists(proj.TablePath) {
		logging.LogDebug("grammar: loading project table %s", proj.TablePath)
		return syntax.LoadTable(proj.TablePath)
	}

	if len(proj.GrammarFiles) > 0 {
		return CompileGrammar(proj)
	}

	if common.FBCPath != "" {
		path := filepath.Join(common.FBCPath, common.TableFileName)
		if exists(path) {
			logging.LogDebug("grammar: loading table %s", path)
			return syntax.LoadTable(path)
		}
	}

	return grammar.Compile(proj.StartRule)
}

// CompileGrammar compiles the grammar files of the project, or the built-in
// grammar if the project names none
func CompileGrammar(proj *project.Project) (*syntax.Table, error) {
	if len(proj.GrammarFiles) == 0 {
		return grammar.Compile(proj.StartRule)
	}

	c := syntax.NewCompiler()
	for _, path := range proj.GrammarFiles {
		logging.LogDebug("grammar: loading %s", path)

		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}

	table, err := c.Finalize(proj.StartRule)
	if err != nil {
		return nil, err
	}

	return table, nil
}

// checkStart makes sure that the table can parse with the project's start
// rule, which may differ from the one the table was built for
func checkStart(table *syntax.Table, start string) error {
	if _, ok := table.Machine(start); !ok {
		return fmt.Errorf("grammar has no rule `%s`", start)
	}

	return nil
}

func exists(path string) bool {
	finfo, err := os.Stat(path)
	return err == nil && !finfo.IsDir()
}
