package project

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/kr/pretty"
)

func writeProject(t *testing.T, text string, extra ...string) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "fbc-project")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	for _, name := range extra {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte("# empty\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, common.ProjectFileName)
	if err := ioutil.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

const fullProject = `fbc-version = "0.4.0"

[grammar]
files = ["basic.syn", "float.syn"]
table = "out/basic.table"
start = "PARSE_START"

[output]
header = "a5200.inc"
line-labels = false

[[profiles]]
name = "debug"
optimize = false
stats = true

[[profiles]]
name = "release"
default = true
`

func TestLoad(t *testing.T) {
	path := writeProject(t, fullProject, "basic.syn", "float.syn")
	dir := filepath.Dir(path)

	proj, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}

	want := &Project{
		Root:         dir,
		GrammarFiles: []string{filepath.Join(dir, "basic.syn"), filepath.Join(dir, "float.syn")},
		TablePath:    filepath.Join(dir, "out", "basic.table"),
		StartRule:    "PARSE_START",
		Header:       "a5200.inc",
		LineLabels:   false,
		Profile:      &Profile{Name: "release", Optimize: true},
	}
	if diff := pretty.Diff(want, proj); len(diff) > 0 {
		t.Errorf("unexpected project:\n%s", strings.Join(diff, "\n"))
	}

	proj, err = Load(path, "debug")
	if err != nil {
		t.Fatal(err)
	}

	if diff := pretty.Diff(&Profile{Name: "debug", Optimize: false, Stats: true}, proj.Profile); len(diff) > 0 {
		t.Errorf("unexpected profile:\n%s", strings.Join(diff, "\n"))
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeProject(t, "")

	proj, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Root = filepath.Dir(path)
	if diff := pretty.Diff(want, proj); len(diff) > 0 {
		t.Errorf("unexpected project:\n%s", strings.Join(diff, "\n"))
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		text    string
		profile string
		want    string
	}{
		{"[grammar]\nfiles = [\"missing.syn\"]\n", "", "grammar file `missing.syn` not found"},
		{"[grammar]\nstart = \"9LIVES\"\n", "", "start rule `9LIVES` must be a valid identifier"},
		{"[[profiles]]\noptimize = true\n", "", "profile must specify a name"},
		{"[[profiles]]\nname = \"a\"\n[[profiles]]\nname = \"a\"\n", "", "multiple profiles named `a`"},
		{"[[profiles]]\nname = \"a\"\ndefault = true\n[[profiles]]\nname = \"b\"\ndefault = true\n", "", "both marked default"},
		{"[[profiles]]\nname = \"a\"\n", "", "does not specify a default profile"},
		{"[[profiles]]\nname = \"a\"\ndefault = true\n", "b", "project has no profile `b`"},
		{"[grammar\n", "", common.ProjectFileName},
	}

	for _, c := range cases {
		_, err := Load(writeProject(t, c.text), c.profile)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%q: expected error containing %q, got %v", c.text, c.want, err)
		}
	}
}

func TestFind(t *testing.T) {
	path := writeProject(t, "")
	if found, ok := Find(filepath.Dir(path)); !ok || found != path {
		t.Errorf("expected to find %s, got %q", path, found)
	}

	if _, ok := Find(filepath.Join(filepath.Dir(path), "nowhere")); ok {
		t.Error("found a project in a missing directory")
	}
}

func TestInit(t *testing.T) {
	dir, err := ioutil.TempDir("", "fbc-init")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	if err := Init(dir); err != nil {
		t.Fatal(err)
	}

	if err := Init(dir); err == nil {
		t.Error("second init overwrote the project file")
	}

	proj, err := Load(filepath.Join(dir, common.ProjectFileName), "")
	if err != nil {
		t.Fatalf("loading the starter project: %v", err)
	}

	if proj.Profile.Name != "release" || !proj.Profile.Optimize || proj.StartRule != common.StartRule || !proj.LineLabels {
		t.Errorf("unexpected starter project %# v", pretty.Formatter(proj))
	}

	proj, err = Load(filepath.Join(dir, common.ProjectFileName), "debug")
	if err != nil {
		t.Fatal(err)
	}

	if proj.Profile.Optimize || !proj.Profile.Stats {
		t.Errorf("unexpected debug profile %# v", pretty.Formatter(proj.Profile))
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for id, want := range map[string]bool{"PARSE_START": true, "_x1": true, "": false, "1X": false, "A-B": false} {
		if IsValidIdentifier(id) != want {
			t.Errorf("IsValidIdentifier(%q) != %v", id, want)
		}
	}
}
