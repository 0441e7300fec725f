package code

import (
	"bufio"
	"fmt"
	"io"
)

// AsmInfo holds everything the assembler output needs besides the code
type AsmInfo struct {
	// Used lists the opcodes that appear in the code, in opcode order
	Used []string

	NumVars int

	// Header is the platform include file
	Header string

	// LineLabels enables the per-line debugging labels
	LineLabels bool
}

// WriteAsm writes the stream as ca65 assembler source
func WriteAsm(w io.Writer, s *Stream, info AsmInfo) error {
	bw := bufio.NewWriter(w)

	// symbols starting with an uppercase letter are global, lowercase ones are
	// local to the program
	seen := make(map[string]bool)
	for _, cw := range s.Words() {
		if !cw.IsSymbol() || cw.Text == "" || seen[cw.Text] {
			continue
		}

		if c := cw.Text[0]; c >= 'A' && c <= '_' {
			seen[cw.Text] = true

			if cw.Kind == KindWordSymbol {
				fmt.Fprintf(bw, "\t.global %s\n", cw.Text)
			} else {
				fmt.Fprintf(bw, "\t.globalzp %s\n", cw.Text)
			}
		}
	}

	fmt.Fprint(bw, "\t.export bytecode_start\n\t.exportzp NUM_VARS\n\n")
	fmt.Fprintf(bw, "\t.include \"%s\"\n\n", info.Header)

	fmt.Fprint(bw, "; TOKENS:\n")
	for _, name := range info.Used {
		fmt.Fprintf(bw, "\t.importzp\t%s\n", name)
	}

	fmt.Fprint(bw, ";-----------------------------\n; Variables\n")
	fmt.Fprintf(bw, "NUM_VARS = %d\n", info.NumVars)
	fmt.Fprint(bw, ";-----------------------------\n; Bytecode\nbytecode_start:\n")

	line := -1
	for _, cw := range s.Words() {
		if info.LineLabels && cw.Line != line {
			line = cw.Line
			fmt.Fprintf(bw, "@FastBasic_LINE_%d:  ; LINE %d\n", line, line)
		}

		fmt.Fprintln(bw, cw.Asm())
	}

	return bw.Flush()
}
