package build

import (
	"bufio"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TechCowboy/fastbasic/atarifp"
	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/grammar"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/project"
	"github.com/kr/pretty"
)

func newCompiler(t *testing.T, optimize bool) *Compiler {
	t.Helper()

	table, err := grammar.Compile(common.StartRule)
	if err != nil {
		t.Fatalf("compiling the BASIC grammar: %v", err)
	}

	proj := project.Default()
	proj.Profile.Optimize = optimize

	return NewCompiler(table, proj)
}

func tempDir(t *testing.T) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "fbc-build")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	return dir
}

func compileAsm(t *testing.T, c *Compiler, src string) string {
	t.Helper()

	res, err := c.Compile("test.bas", strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	c.Optimize(res)

	buff := &strings.Builder{}
	if err := c.WriteAsm(buff, res); err != nil {
		t.Fatal(err)
	}

	return buff.String()
}

const asmPrelude = "\t.export bytecode_start\n\t.exportzp NUM_VARS\n\n\t.include \"atari.inc\"\n\n; TOKENS:\n"

const asmVars = ";-----------------------------\n; Variables\nNUM_VARS = 0\n;-----------------------------\n; Bytecode\nbytecode_start:\n"

func TestCompileAsm(t *testing.T) {
	want := asmPrelude +
		"\t.importzp\tTOK_END\n\t.importzp\tTOK_NUM\n\t.importzp\tTOK_ADD\n\t.importzp\tTOK_PRINT_NUM\n\t.importzp\tTOK_PRINT_EOL\n" +
		asmVars +
		"@FastBasic_LINE_1:  ; LINE 1\n" +
		"\t.byte\tTOK_NUM\n\t.word\t1\n\t.byte\tTOK_NUM\n\t.word\t2\n\t.byte\tTOK_ADD\n" +
		"\t.byte\tTOK_PRINT_NUM\n\t.byte\tTOK_PRINT_EOL\n\t.byte\tTOK_END\n"

	if got := compileAsm(t, newCompiler(t, false), "PRINT 1+2\n"); got != want {
		t.Errorf("unexpected output:\n%s", strings.Join(pretty.Diff(strings.Split(want, "\n"), strings.Split(got, "\n")), "\n"))
	}
}

func TestCompileAsmOptimized(t *testing.T) {
	want := asmPrelude +
		"\t.importzp\tTOK_END\n\t.importzp\tTOK_BYTE\n\t.importzp\tTOK_PRINT_NUM\n\t.importzp\tTOK_PRINT_EOL\n" +
		asmVars +
		"@FastBasic_LINE_1:  ; LINE 1\n" +
		"\t.byte\tTOK_BYTE\n\t.byte\t3\n" +
		"\t.byte\tTOK_PRINT_NUM\n\t.byte\tTOK_PRINT_EOL\n\t.byte\tTOK_END\n"

	if got := compileAsm(t, newCompiler(t, true), "PRINT 1+2\n"); got != want {
		t.Errorf("unexpected output:\n%s", strings.Join(pretty.Diff(strings.Split(want, "\n"), strings.Split(got, "\n")), "\n"))
	}
}

func TestLineLabels(t *testing.T) {
	c := newCompiler(t, false)
	got := compileAsm(t, c, "PRINT 1\r\nPRINT 2\x9bPRINT 3")

	for _, label := range []string{"@FastBasic_LINE_1:", "@FastBasic_LINE_2:", "@FastBasic_LINE_3:"} {
		if !strings.Contains(got, label) {
			t.Errorf("missing %s in output:\n%s", label, got)
		}
	}

	c.proj.LineLabels = false
	if got := compileAsm(t, c, "PRINT 1\nPRINT 2\n"); strings.Contains(got, "@FastBasic_LINE_") {
		t.Errorf("unexpected line labels in output:\n%s", got)
	}
}

func TestParseError(t *testing.T) {
	_, err := newCompiler(t, true).Compile("test.bas", strings.NewReader("PRINT 1\nPRINT 1+\nPRINT 2\n"))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a parse error, got %v", err)
	}

	want := &ParseError{
		File:     "test.bas",
		Line:     2,
		Col:      8,
		Expected: "expression or floating point expression",
		Text:     "PRINT 1+",
	}
	if diff := pretty.Diff(want, pe); len(diff) > 0 {
		t.Errorf("unexpected error:\n%s", strings.Join(diff, "\n"))
	}

	if msg := pe.Error(); msg != "test.bas:2:8: parse error, expected expression or floating point expression" {
		t.Errorf("unexpected message %q", msg)
	}

	if w := pe.Window(); w != "PRINT 1+"+logging.HereMarker {
		t.Errorf("unexpected window %q", w)
	}
}

func TestUnclosedBlock(t *testing.T) {
	cases := []struct {
		src    string
		line   int
		closer string
	}{
		{"DO\nPRINT 1\n", 3, "'LOOP'"},
		{"WHILE 1\n", 2, "'WEND'"},
		{"DO\nIF 1\nENDIF\n", 4, "'LOOP'"},
		{"PROC FOO\n", 2, "'ENDPROC'"},
	}

	for _, c := range cases {
		_, err := newCompiler(t, true).Compile("test.bas", strings.NewReader(c.src))

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected a parse error, got %v", c.src, err)
			continue
		}

		if pe.Line != c.line || pe.Col != 0 || pe.Expected != c.closer {
			t.Errorf("%q: expected line %d expecting %s, got %v", c.src, c.line, c.closer, pe)
		}
	}
}

func TestEncodeError(t *testing.T) {
	_, err := newCompiler(t, true).Compile("test.bas", strings.NewReader("PRINT 1\nPRINT 1E99\n"))

	var ee *EncodeError
	if !errors.As(err, &ee) || ee.Line != 2 || ee.File != "test.bas" {
		t.Fatalf("expected an encode error on line 2, got %v", err)
	}

	var fpe *atarifp.EncodeError
	if !errors.As(err, &fpe) {
		t.Errorf("encode error does not wrap the number error: %v", err)
	}
}

func TestScanLines(t *testing.T) {
	cases := []struct {
		src  string
		want []string
	}{
		{"", nil},
		{"A\nB\n", []string{"A", "B"}},
		{"A\r\nB", []string{"A", "B"}},
		{"A\x9bB\x9b", []string{"A", "B"}},
		{"A\n\nB", []string{"A", "", "B"}},
	}

	for _, c := range cases {
		sc := bufio.NewScanner(strings.NewReader(c.src))
		sc.Split(scanLines)

		var got []string
		for sc.Scan() {
			got = append(got, sc.Text())
		}

		if diff := pretty.Diff(c.want, got); len(diff) > 0 {
			t.Errorf("%q: unexpected lines:\n%s", c.src, strings.Join(diff, "\n"))
		}
	}
}

func TestSourcePath(t *testing.T) {
	dir := tempDir(t)

	prog := filepath.Join(dir, "prog")
	if err := ioutil.WriteFile(prog+common.SrcFileExtension, []byte("PRINT\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		want string
	}{
		{prog, prog + ".bas"},
		{prog + ".bas", prog + ".bas"},
		{prog + ".lst", prog + ".lst"},
		{filepath.Join(dir, "other"), filepath.Join(dir, "other")},
	}

	for _, c := range cases {
		if got := SourcePath(c.name); got != c.want {
			t.Errorf("SourcePath(%q) = %q, want %q", c.name, got, c.want)
		}
	}

	// an existing file without extension is used as is
	if err := ioutil.WriteFile(prog, []byte("PRINT\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := SourcePath(prog); got != prog {
		t.Errorf("SourcePath(%q) = %q", prog, got)
	}
}

func TestBuild(t *testing.T) {
	dir := tempDir(t)

	input := filepath.Join(dir, "ok.bas")
	output := filepath.Join(dir, "ok.asm")
	if err := ioutil.WriteFile(input, []byte("X = 2\nPRINT X*3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	logging.Initialize("silent", false)
	if !Build(Options{Input: input, Output: output, Project: project.Default()}) {
		t.Fatal("build failed")
	}

	asm, err := ioutil.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(asm), "NUM_VARS = 1\n") {
		t.Errorf("unexpected output:\n%s", asm)
	}
}

func TestBuildFailureWritesNothing(t *testing.T) {
	dir := tempDir(t)

	input := filepath.Join(dir, "bad.bas")
	output := filepath.Join(dir, "bad.asm")
	if err := ioutil.WriteFile(input, []byte("PRINT 1\nPRINT 1+\n"), 0644); err != nil {
		t.Fatal(err)
	}

	logging.Initialize("silent", false)
	if Build(Options{Input: input, Output: output, Project: project.Default()}) {
		t.Fatal("build succeeded")
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output file written by a failed build")
	}

	logging.Initialize("silent", false)
	if Build(Options{Input: filepath.Join(dir, "missing.bas"), Output: output, Project: project.Default()}) {
		t.Error("build of a missing file succeeded")
	}
}

func TestLoadTable(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, common.TableFileName)

	proj := project.Default()

	logging.Initialize("silent", false)
	if !BuildGrammar(proj, path, false) {
		t.Fatal("building the grammar table failed")
	}

	table, err := LoadTable(proj, path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Start != common.StartRule {
		t.Errorf("unexpected start rule %s", table.Start)
	}

	if _, err := LoadTable(proj, filepath.Join(dir, "missing.table")); err == nil {
		t.Error("loaded a missing table")
	}

	// a project table that does not exist yet falls back to the built-in grammar
	proj.TablePath = filepath.Join(dir, "later.table")
	if _, err := LoadTable(proj, ""); err != nil {
		t.Errorf("expected the built-in grammar, got %v", err)
	}

	// a corrupt table in FBC_PATH is used, and reported
	corrupt := tempDir(t)
	if err := ioutil.WriteFile(filepath.Join(corrupt, common.TableFileName), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	saved := common.FBCPath
	common.FBCPath = corrupt
	defer func() { common.FBCPath = saved }()

	if _, err := LoadTable(project.Default(), ""); err == nil {
		t.Error("loaded a corrupt table from FBC_PATH")
	}
}

func TestProjectGrammarFiles(t *testing.T) {
	dir := tempDir(t)

	for _, name := range grammar.Files {
		src, err := grammar.Source(name)
		if err != nil {
			t.Fatal(err)
		}

		if err := ioutil.WriteFile(filepath.Join(dir, name), src, 0644); err != nil {
			t.Fatal(err)
		}
	}

	proj := project.Default()
	proj.GrammarFiles = []string{filepath.Join(dir, grammar.Files[0])}

	// the integer grammar refers to rules of the floating point one
	if _, err := CompileGrammar(proj); err == nil {
		t.Error("compiled an incomplete grammar")
	}

	proj.GrammarFiles = append(proj.GrammarFiles, filepath.Join(dir, grammar.Files[1]))
	table, err := LoadTable(proj, "")
	if err != nil {
		t.Fatal(err)
	}

	c := NewCompiler(table, proj)
	if _, err := c.Compile("test.bas", strings.NewReader("PRINT 1.5\n")); err != nil {
		t.Error(err)
	}
}

func TestUnknownStartRule(t *testing.T) {
	c := newCompiler(t, true)
	c.proj.StartRule = "NOWHERE"

	if _, err := c.Compile("test.bas", strings.NewReader("PRINT 1\n")); err == nil || !strings.Contains(err.Error(), "NOWHERE") {
		t.Errorf("expected an error naming the rule, got %v", err)
	}
}
