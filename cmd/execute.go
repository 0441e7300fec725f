package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/TechCowboy/fastbasic/build"
	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/project"
)

// Execute runs the main `fbc` application and returns its exit status
func Execute() int {
	if !initFBCPath() {
		return 1
	}

	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("fbc", "fbc compiles FastBasic programs to 6502 bytecode assembler", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")
	cli.AddFlag("version", "v", "print the fbc version")

	buildCmd := cli.AddSubcommand("build", "compile a BASIC source file", true)
	buildCmd.AddPrimaryArg("input", "the BASIC source file to compile", true)
	buildCmd.AddStringArg("output", "o", "the assembler file to write", false)
	buildCmd.AddStringArg("grammar", "g", "a compiled grammar table to use", false)
	buildCmd.AddStringArg("config", "c", "the project file to use", false)
	buildCmd.AddStringArg("profile", "p", "the name of the profile to build", false)
	buildCmd.AddFlag("debug", "d", "trace the parser")
	buildCmd.AddFlag("no-optimize", "n", "disable the peephole optimizer")
	buildCmd.AddFlag("profile-tokens", "prof", "print the opcode usage statistics")

	grammarCmd := cli.AddSubcommand("grammar", "compile the grammar to a table", true)
	grammarCmd.AddStringArg("output", "o", "the table file to write", false)
	grammarCmd.AddStringArg("config", "c", "the project file to use", false)
	grammarCmd.AddFlag("summary", "s", "print the size of the table")

	initCmd := cli.AddSubcommand("init", "create a project file", true)
	initCmd.AddPrimaryArg("dir", "the project directory", false)

	cli.AddSubcommand("version", "print the fbc version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return 1
	}

	if result.HasFlag("version") {
		logging.PrintInfoMessage("fbc Version", common.FBCVersion)
		return 0
	}

	loglevel := result.Arguments["loglevel"].(string)

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		return execBuildCommand(subResult, loglevel)
	case "grammar":
		return execGrammarCommand(subResult, loglevel)
	case "init":
		return execInitCommand(subResult)
	case "version":
		logging.PrintInfoMessage("fbc Version", common.FBCVersion)
	}

	return 0
}

// execBuildCommand executes the build subcommand and handles all errors
func execBuildCommand(result *olive.ArgParseResult, loglevel string) int {
	logging.Initialize(loglevel, result.HasFlag("debug"))

	inputRelPath, _ := result.PrimaryArg()
	input, err := filepath.Abs(build.SourcePath(inputRelPath))
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return 1
	}

	proj, err := loadProject(result, filepath.Dir(input))
	if err != nil {
		logging.PrintErrorMessage("Project Error", err)
		return 1
	}

	// switches on the command line override the profile
	if result.HasFlag("debug") {
		proj.Profile.Debug = true
	} else if proj.Profile.Debug {
		logging.EnableDebug()
	}

	if result.HasFlag("no-optimize") {
		proj.Profile.Optimize = false
	}

	if result.HasFlag("profile-tokens") {
		proj.Profile.Stats = true
	}

	output := stringArg(result, "output")
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + common.AsmFileExtension
	}

	ok := build.Build(build.Options{
		Input:     input,
		Output:    output,
		TablePath: stringArg(result, "grammar"),
		Project:   proj,
	})

	if !ok {
		return 1
	}

	return 0
}

// execGrammarCommand executes the grammar subcommand: the grammar of the
// project, or the built-in one, is compiled and saved
func execGrammarCommand(result *olive.ArgParseResult, loglevel string) int {
	logging.Initialize(loglevel, false)

	workDir, err := os.Getwd()
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return 1
	}

	proj, err := loadProject(result, workDir)
	if err != nil {
		logging.PrintErrorMessage("Project Error", err)
		return 1
	}

	output := stringArg(result, "output")
	switch {
	case output != "":
	case proj.TablePath != "":
		output = proj.TablePath
	default:
		output = common.TableFileName
	}

	if !build.BuildGrammar(proj, output, result.HasFlag("summary")) {
		return 1
	}

	return 0
}

// execInitCommand executes the `init` subcommand
func execInitCommand(result *olive.ArgParseResult) int {
	dir, ok := result.PrimaryArg()
	if !ok || dir == "" {
		dir = "."
	}

	if err := project.Init(dir); err != nil {
		logging.PrintErrorMessage("Project Init Error", err)
		return 1
	}

	logging.PrintInfoMessage("Project", "created "+filepath.Join(dir, common.ProjectFileName))
	return 0
}

// -----------------------------------------------------------------------------

// loadProject loads the project named by `-c`, or the one found in dir.  A
// directory without a project file builds with the defaults.
func loadProject(result *olive.ArgParseResult, dir string) (*project.Project, error) {
	path := stringArg(result, "config")
	profile := stringArg(result, "profile")

	if path == "" {
		found, ok := project.Find(dir)
		if !ok {
			if profile != "" {
				return nil, fmt.Errorf("no %s found for profile `%s`", common.ProjectFileName, profile)
			}

			return project.Default(), nil
		}

		path = found
	}

	return project.Load(path, profile)
}

// stringArg returns the value of an optional string argument or "" if it was
// not given
func stringArg(result *olive.ArgParseResult, name string) string {
	if val, ok := result.Arguments[name]; ok {
		if s, isString := val.(string); isString {
			return s
		}
	}

	return ""
}

// initFBCPath checks the optional FBC_PATH and initializes its global value
func initFBCPath() bool {
	fbcPath, ok := os.LookupEnv("FBC_PATH")
	if !ok || fbcPath == "" {
		return true
	}

	finfo, err := os.Stat(fbcPath)
	if err != nil {
		logging.PrintErrorMessage("Config Error", fmt.Errorf("error loading FBC_PATH: %s", err.Error()))
		return false
	}

	if !finfo.IsDir() {
		logging.PrintErrorMessage("Config Error", errors.New("error loading FBC_PATH: must point to a directory"))
		return false
	}

	common.FBCPath = fbcPath
	return true
}
