package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/pelletier/go-toml"
)

// Init creates a project file with a debug and a release profile in dir
func Init(dir string) error {
	path := filepath.Join(dir, common.ProjectFileName)

	_, err := os.Stat(path)
	if err == nil {
		return errors.New("project file already exists")
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("project file error: %s", err.Error())
	}

	lineLabels := true
	tpf := &tomlProjectFile{
		Version: common.FBCVersion,
		Grammar: &tomlGrammar{Start: common.StartRule},
		Output:  &tomlOutput{Header: common.PlatformHeader, LineLabels: &lineLabels},
		Profiles: []*tomlProfile{
			newInitProfile(true),
			newInitProfile(false),
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating project file: %s", err.Error())
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(tpf); err != nil {
		return fmt.Errorf("error encoding TOML %s", err.Error())
	}

	return nil
}

// newInitProfile creates one of the starter profiles.  Debug builds skip the
// optimizer so the output follows the source closely.
func newInitProfile(debug bool) *tomlProfile {
	optimize := !debug
	prof := &tomlProfile{
		Optimize:    &optimize,
		Stats:       debug,
		Debug:       false,
		DefaultProf: !debug, // release profile is the default
	}

	if debug {
		prof.Name = "debug"
	} else {
		prof.Name = "release"
	}

	return prof
}
