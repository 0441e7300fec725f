package project

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/pelletier/go-toml"
)

// tomlProjectFile represents the project file as it is encoded in TOML
type tomlProjectFile struct {
	Version  string         `toml:"fbc-version"`
	Grammar  *tomlGrammar   `toml:"grammar"`
	Output   *tomlOutput    `toml:"output"`
	Profiles []*tomlProfile `toml:"profiles"`
}

type tomlGrammar struct {
	Files []string `toml:"files,omitempty"`
	Table string   `toml:"table,omitempty"`
	Start string   `toml:"start,omitempty"`
}

type tomlOutput struct {
	Header     string `toml:"header,omitempty"`
	LineLabels *bool  `toml:"line-labels"`
}

// tomlProfile represents a profile as it encoded in TOML
type tomlProfile struct {
	Name        string `toml:"name"`
	Optimize    *bool  `toml:"optimize"`
	Stats       bool   `toml:"stats"`
	Debug       bool   `toml:"debug"`
	DefaultProf bool   `toml:"default"` // in absence of -p, choose this profile
}

// Find returns the path of the project file in dir if there is one
func Find(dir string) (string, bool) {
	path := filepath.Join(dir, common.ProjectFileName)

	finfo, err := os.Stat(path)
	if err != nil || finfo.IsDir() {
		return "", false
	}

	return path, true
}

// Load loads and validates a project file and selects its build profile.
// `selectedProfile` can be empty if there is no profile selected.
func Load(path, selectedProfile string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	tpf := &tomlProjectFile{}
	if err := toml.Unmarshal(buff, tpf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	proj := Default()
	proj.Root = filepath.Dir(abspath)

	if err := applyGrammar(proj, tpf.Grammar); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	applyOutput(proj, tpf.Output)

	if tpf.Version != "" && tpf.Version != common.FBCVersion {
		logging.LogBuildWarning(
			"Project",
			fmt.Sprintf("%s was written for fbc v%s, this is v%s", path, tpf.Version, common.FBCVersion),
		)
	}

	if err := selectProfile(proj, tpf.Profiles, selectedProfile); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return proj, nil
}

// applyGrammar validates the grammar section.  Paths are relative to the
// project directory.
func applyGrammar(proj *Project, tg *tomlGrammar) error {
	if tg == nil {
		return nil
	}

	for _, file := range tg.Files {
		full := proj.resolve(file)
		if _, err := os.Stat(full); err != nil {
			return fmt.Errorf("grammar file `%s` not found", file)
		}

		proj.GrammarFiles = append(proj.GrammarFiles, full)
	}

	if tg.Table != "" {
		proj.TablePath = proj.resolve(tg.Table)
	}

	if tg.Start != "" {
		if !IsValidIdentifier(tg.Start) {
			return fmt.Errorf("start rule `%s` must be a valid identifier", tg.Start)
		}

		proj.StartRule = tg.Start
	}

	return nil
}

func applyOutput(proj *Project, to *tomlOutput) {
	if to == nil {
		return
	}

	if to.Header != "" {
		proj.Header = to.Header
	}

	if to.LineLabels != nil {
		proj.LineLabels = *to.LineLabels
	}
}

func (proj *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(proj.Root, path)
}

// selectProfile picks the selected profile, or the default one if there is no
// selection.  A project without profiles builds with the built-in default.
func selectProfile(proj *Project, profiles []*tomlProfile, selectedProfile string) error {
	seen := make(map[string]bool)
	var defaultProf *tomlProfile

	for _, prof := range profiles {
		if prof.Name == "" {
			return errors.New("profile must specify a name")
		}

		if !IsValidIdentifier(prof.Name) {
			return fmt.Errorf("profile name `%s` must be a valid identifier", prof.Name)
		}

		if seen[prof.Name] {
			return fmt.Errorf("multiple profiles named `%s`", prof.Name)
		}
		seen[prof.Name] = true

		if prof.DefaultProf {
			if defaultProf != nil {
				return fmt.Errorf("profiles `%s` and `%s` are both marked default", defaultProf.Name, prof.Name)
			}

			defaultProf = prof
		}
	}

	if selectedProfile != "" {
		for _, prof := range profiles {
			if prof.Name == selectedProfile {
				proj.Profile = convertProfile(prof)
				return nil
			}
		}

		return fmt.Errorf("project has no profile `%s`", selectedProfile)
	}

	switch {
	case defaultProf != nil:
		proj.Profile = convertProfile(defaultProf)
	case len(profiles) == 0:
		proj.Profile = defaultProfile()
	default:
		return errors.New("project does not specify a default profile; `-p` argument is required")
	}

	return nil
}

// convertProfile converts a TOML build profile into a `*Profile`.  The
// optimizer is on unless the profile turns it off.
func convertProfile(tprof *tomlProfile) *Profile {
	prof := &Profile{
		Name:     tprof.Name,
		Optimize: true,
		Stats:    tprof.Stats,
		Debug:    tprof.Debug,
	}

	if tprof.Optimize != nil {
		prof.Optimize = *tprof.Optimize
	}

	return prof
}
