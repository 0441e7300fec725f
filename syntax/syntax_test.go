package syntax

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

const statementGrammar = `# statements
TOKENS {
    TOK_NUM, TOK_ADD,
    TOK_PRINT
}
EXTERN { E_NUMBER_WORD }

PARSE_START: statement
    "PRint" EXPR TOK_PRINT
    '?' EXPR TOK_PRINT
`

const exprGrammar = `EXPR: expression
    TERM ADD_TAIL*
TERM: number
    TOK_NUM E_NUMBER_WORD   # word constant
ADD_TAIL:
    '+' TERM TOK_ADD
`

func loadAll(t *testing.T, files ...string) *Compiler {
	t.Helper()

	c := NewCompiler()
	for i := 0; i < len(files); i += 2 {
		if err := c.Load(files[i], strings.NewReader(files[i+1])); err != nil {
			t.Fatalf("loading %s: %v", files[i], err)
		}
	}

	return c
}

func TestCrossFileReferences(t *testing.T) {
	// the expression file refers to nothing in the statement file, but the
	// statement file refers to EXPR, which is loaded first here
	c := loadAll(t, "expr.syn", exprGrammar, "stmt.syn", statementGrammar)

	table, err := c.Finalize("PARSE_START")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start, ok := table.Machine("PARSE_START")
	if !ok {
		t.Fatal("missing PARSE_START machine")
	}

	if n := len(start.States[0].Trans); n != 2 {
		t.Fatalf("expected 2 alternatives, got %d", n)
	}

	first := start.States[0].Trans[0]
	if first.Kind != TransWord || first.Name != "PRint" {
		t.Errorf("first alternative starts with %s", first.Describe())
	}

	call := start.States[first.Next].Trans[0]
	if call.Kind != TransCall || call.Name != "EXPR" {
		t.Errorf("expected a call to EXPR, got %s", call.Describe())
	}

	term, _ := table.Machine("TERM")
	emit := term.States[0].Trans[0]
	if emit.Kind != TransEmit || emit.Emit[0].Value != 0 {
		t.Errorf("TOK_NUM resolved to %s (%v)", emit.Describe(), emit.Emit)
	}

	if ext := term.States[emit.Next].Trans[0]; ext.Kind != TransExtern {
		t.Errorf("E_NUMBER_WORD resolved to %s", ext.Describe())
	}

	expr, _ := table.Machine("EXPR")
	tail := expr.States[expr.States[0].Trans[0].Next].Trans[0]
	if tail.Repeat != RepeatMany || tail.Next != 1 {
		t.Errorf("unexpected tail transition %+v", tail)
	}

	if diff := pretty.Diff(table.Externs, []string{"E_NUMBER_WORD"}); len(diff) > 0 {
		t.Errorf("externs: %v", diff)
	}
}

func TestCatalogPartitions(t *testing.T) {
	c := loadAll(t, "expr.syn", exprGrammar, "stmt.syn", statementGrammar)
	table, err := c.Finalize("PARSE_START")
	if err != nil {
		t.Fatal(err)
	}

	if diff := pretty.Diff(table.Catalog.Internal.Names(), []string{"TOK_NUM", "TOK_ADD", "TOK_PRINT"}); len(diff) > 0 {
		t.Errorf("internal words: %v", diff)
	}

	if diff := pretty.Diff(table.Catalog.External.Names(), []string{"+", "PRint", "?"}); len(diff) > 0 {
		t.Errorf("external words: %v", diff)
	}

	id, _ := table.Catalog.External.Lookup("PRint")
	if w := table.Catalog.External.Words[id]; w.Min != 2 || !w.CanAbbreviate() {
		t.Errorf("unexpected word %+v", w)
	}

	if op, ok := table.Catalog.Opcode("TOK_PRINT"); !ok || op != 2 {
		t.Errorf("TOK_PRINT has opcode %d", op)
	}

	if !table.Catalog.Reserved("print") || table.Catalog.Reserved("TOK_PRINT") {
		t.Error("reserved words must be the external ones")
	}
}

func TestWordsIgnoreCase(t *testing.T) {
	c := loadAll(t, "case.syn", `TOKENS { TOK_A }
R:
    "PRint" TOK_A
    "PRINT" TOK_A
    'print' TOK_A
`)

	table, err := c.Finalize("R")
	if err != nil {
		t.Fatal(err)
	}

	if n := table.Catalog.External.Len(); n != 1 {
		t.Fatalf("expected one external word, got %v", table.Catalog.External.Names())
	}

	id, ok := table.Catalog.External.Lookup("print")
	if w := table.Catalog.External.Words[id]; !ok || w.Text != "PRint" || w.Min != 2 {
		t.Errorf("unexpected word %+v", w)
	}

	if _, ok := table.Catalog.Opcode("tok_a"); ok {
		t.Error("opcode names must match exactly")
	}
}

func TestUndefinedRule(t *testing.T) {
	c := loadAll(t, "stmt.syn", statementGrammar)

	_, err := c.Finalize("PARSE_START")

	var el ErrorList
	if !errors.As(err, &el) {
		t.Fatalf("expected an ErrorList, got %v", err)
	}

	// both alternatives of PARSE_START refer to EXPR
	if len(el) != 2 {
		t.Fatalf("expected 2 errors, got %d:\n%v", len(el), err)
	}

	if el[0].File != "stmt.syn" || el[0].Line != 9 {
		t.Errorf("wrong location %s:%d", el[0].File, el[0].Line)
	}

	if !strings.Contains(el[0].Msg, "undefined rule `EXPR` referenced from `PARSE_START`") {
		t.Errorf("unexpected message %q", el[0].Msg)
	}
}

func TestUndefinedRuleSuggestion(t *testing.T) {
	c := loadAll(t, "a.syn", "A:\n    EXP\nEXPR:\n    'x'\n")

	_, err := c.Finalize("A")
	if err == nil || !strings.Contains(err.Error(), "did you mean `EXPR`?") {
		t.Errorf("expected a suggestion, got %v", err)
	}

	c = loadAll(t, "a.syn", "A:\n    EXRP\nEXPR:\n    'x'\n")
	if _, err = c.Finalize("A"); err == nil || !strings.Contains(err.Error(), "did you mean `EXPR`?") {
		t.Errorf("expected a suggestion for a transposition, got %v", err)
	}
}

func TestDuplicateRule(t *testing.T) {
	c := loadAll(t, "expr.syn", exprGrammar)

	err := c.Load("more.syn", strings.NewReader("\nTERM: another\n    'x'\n"))
	if err == nil {
		t.Fatal("expected a duplicate rule error")
	}

	want := "more.syn:2: duplicate rule `TERM`, first defined at expr.syn:3"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestMalformedGrammar(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"RULE\n    'a'\n", "1: expected `:` after rule name `RULE`"},
		{"R:\n    \"abc\n", "2: unterminated literal"},
		{"    'a'\n", "1: alternative outside of a rule"},
		{"TOKENS {\n  A, B\n", "1: unterminated TOKENS section"},
		{"EXTERN E_X\n", "1: expected `{` after EXTERN"},
		{"R:\n    emit { 300 }\n", "2: emit value 300 does not fit in a byte"},
		{"R:\n    emit { }\n", "2: empty emit block"},
		{"R:\n    emit { TOK_A\n", "2: unterminated emit block"},
		{"R:\n    pass*\n", "2: modifier `*` can not be applied to `pass`"},
		{"R: nothing here\n\nS:\n    'x'\n", "1: rule `R` has no alternatives"},
		{"R:\n    'a' ; 'b'\n", "2: unexpected character `;` at column 9"},
		{"R:\n    ''\n", "2: empty literal"},
	}

	for _, c := range cases {
		err := NewCompiler().Load("bad.syn", strings.NewReader(c.text))
		if err == nil {
			t.Errorf("%q: expected an error", c.text)
			continue
		}

		if want := "bad.syn:" + c.want; !strings.Contains(err.Error(), want) {
			t.Errorf("%q: expected %q, got %q", c.text, want, err.Error())
		}
	}
}

func TestFinalizeErrors(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"TOKENS { FOO }\nFOO:\n    'x'\n", "rule `FOO` has the same name as the token declared at g.syn:1"},
		{"EXTERN { E_A }\nTOKENS { E_A }\nR:\n    'x'\n", "extern `E_A` has the same name as the token"},
		{"R:\n    emit { TOK_X, 1 }\n", "undefined token `TOK_X` in emit block of `R`"},
		{"OTHER:\n    'x'\n", "start rule `R` is not defined"},
	}

	for _, c := range cases {
		comp := loadAll(t, "g.syn", c.text)

		if _, err := comp.Finalize("R"); err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%q: expected %q, got %v", c.text, c.want, err)
		}
	}
}

func TestEmitBlock(t *testing.T) {
	c := loadAll(t, "g.syn", "TOKENS { TOK_A, TOK_B }\nR:\n    emit { TOK_B, $10, 7 } pass\n")

	table, err := c.Finalize("R")
	if err != nil {
		t.Fatal(err)
	}

	emit := table.Machines["R"].States[0].Trans[0]
	want := []EmitValue{{Token: "TOK_B", Value: 1}, {Value: 16}, {Value: 7}}
	if diff := pretty.Diff(emit.Emit, want); len(diff) > 0 {
		t.Errorf("emit values: %v", diff)
	}

	if got := emit.Describe(); got != "emit { TOK_B, 16, 7 }" {
		t.Errorf("unexpected description %q", got)
	}
}

func TestUnreachable(t *testing.T) {
	c := loadAll(t, "expr.syn", exprGrammar, "stmt.syn", statementGrammar, "x.syn", "UNUSED:\n    'u'\n")

	if diff := pretty.Diff(c.Unreachable("PARSE_START"), []string{"UNUSED"}); len(diff) > 0 {
		t.Errorf("unreachable rules: %v", diff)
	}

	if _, err := c.Finalize("PARSE_START"); err != nil {
		t.Errorf("unused rules must only warn: %v", err)
	}
}

func TestSaveLoadTable(t *testing.T) {
	c := loadAll(t, "expr.syn", exprGrammar, "stmt.syn", statementGrammar)
	table, err := c.Finalize("PARSE_START")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "basic.table")
	if err := table.SaveTable(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := pretty.Diff(table.Machines, loaded.Machines); len(diff) > 0 {
		t.Errorf("machines differ after reload: %v", diff)
	}

	if op, ok := loaded.Catalog.Opcode("TOK_ADD"); !ok || op != 1 {
		t.Errorf("TOK_ADD has opcode %d after reload", op)
	}

	if !loaded.Catalog.Reserved("PRINT") {
		t.Error("catalog lost its keywords")
	}

	if loaded.Summary() != table.Summary() {
		t.Errorf("summaries differ: %s vs %s", loaded.Summary(), table.Summary())
	}
}

func TestLoadTableVersion(t *testing.T) {
	c := loadAll(t, "g.syn", "R:\n    'x'\n")
	table, err := c.Finalize("R")
	if err != nil {
		t.Fatal(err)
	}

	table.Version = TableVersion + 1

	path := filepath.Join(t.TempDir(), "old.table")
	if err := table.SaveTable(path); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTable(path); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected a version error, got %v", err)
	}
}

func TestDump(t *testing.T) {
	c := loadAll(t, "expr.syn", exprGrammar, "stmt.syn", statementGrammar)
	table, err := c.Finalize("PARSE_START")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	table.Dump(&buf)

	for _, want := range []string{"PARSE_START: statement", `"PRint"`, "ADD_TAIL*", "<E_NUMBER_WORD>", "accept"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dump does not contain %q", want)
		}
	}
}
