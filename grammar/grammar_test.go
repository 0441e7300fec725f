package grammar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/syntax"
)

func TestCompile(t *testing.T) {
	table, err := Compile(common.StartRule)
	if err != nil {
		t.Fatalf("built-in grammar does not compile:\n%v", err)
	}

	if n := len(table.Externs); n != 35 {
		t.Errorf("expected 35 native matchers, got %d: %v", n, table.Externs)
	}

	if op, ok := table.Catalog.Opcode("TOK_END"); !ok || op != 0 {
		t.Errorf("TOK_END must be opcode 0, got %d", op)
	}

	// opcodes of the second file follow those of the first
	fp, _ := table.Catalog.Opcode("TOK_FLOAT")
	last, _ := table.Catalog.Opcode("TOK_SOUND_OFF")
	if fp != last+1 {
		t.Errorf("TOK_FLOAT is opcode %d, expected %d", fp, last+1)
	}

	for _, kw := range []string{"PRINT", "print", "ENDPROC", "STR$", "FLOAT"} {
		if !table.Catalog.Reserved(kw) {
			t.Errorf("%s is not reserved", kw)
		}
	}
}

func TestNoUnusedRules(t *testing.T) {
	c := syntax.NewCompiler()
	for _, name := range Files {
		src, err := Source(name)
		if err != nil {
			t.Fatal(err)
		}

		if err := c.Load(name, bytes.NewReader(src)); err != nil {
			t.Fatal(err)
		}
	}

	if unused := c.Unreachable(common.StartRule); len(unused) > 0 {
		t.Errorf("unused rules: %v", unused)
	}
}

func TestFilesNeedEachOther(t *testing.T) {
	cases := []struct {
		file    string
		missing string
	}{
		{"basic.syn", "undefined rule `FP_EXPR`"},
		{"float.syn", "undefined rule `INT_EXPR`"},
	}

	for _, c := range cases {
		src, err := Source(c.file)
		if err != nil {
			t.Fatal(err)
		}

		comp := syntax.NewCompiler()
		if err := comp.Load(c.file, bytes.NewReader(src)); err != nil {
			t.Fatal(err)
		}

		start := common.StartRule
		if c.file == "float.syn" {
			start = "FP_EXPR"
		}

		if _, err := comp.Finalize(start); err == nil || !strings.Contains(err.Error(), c.missing) {
			t.Errorf("%s alone: expected %q, got %v", c.file, c.missing, err)
		}
	}
}
