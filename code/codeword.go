package code

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TechCowboy/fastbasic/atarifp"
)

// Kind is the kind of a code word
type Kind int

// Enumeration of code word kinds
const (
	KindToken      Kind = iota // opcode, Text is the token name and Value the opcode
	KindWord                   // 16-bit constant
	KindByte                   // 8-bit constant
	KindFloat                  // six byte floating point constant
	KindString                 // length prefixed string
	KindLabel                  // label definition
	KindWordSymbol             // 16-bit reference to a symbol or label
	KindByteSymbol             // 8-bit reference to a zero page symbol
	KindVar                    // variable slot, Text is the variable name
)

// CodeWord is one unit of emitted code.  Every code word remembers the source
// line that produced it.
type CodeWord struct {
	Kind  Kind
	Line  int
	Text  string
	Value int
	FP    atarifp.Number
}

// Token creates an opcode code word
func Token(name string, opcode, line int) CodeWord {
	return CodeWord{Kind: KindToken, Line: line, Text: name, Value: opcode}
}

// Word creates a 16-bit constant
func Word(value, line int) CodeWord {
	return CodeWord{Kind: KindWord, Line: line, Value: value}
}

// Byte creates an 8-bit constant
func Byte(value, line int) CodeWord {
	return CodeWord{Kind: KindByte, Line: line, Value: value}
}

// Float creates a floating point constant
func Float(n atarifp.Number, line int) CodeWord {
	return CodeWord{Kind: KindFloat, Line: line, FP: n}
}

// String creates a string constant
func String(text string, line int) CodeWord {
	return CodeWord{Kind: KindString, Line: line, Text: text}
}

// Label creates a label definition
func Label(name string, line int) CodeWord {
	return CodeWord{Kind: KindLabel, Line: line, Text: name}
}

// WordSymbol creates a 16-bit reference to a symbol
func WordSymbol(name string, line int) CodeWord {
	return CodeWord{Kind: KindWordSymbol, Line: line, Text: name}
}

// ByteSymbol creates an 8-bit reference to a symbol
func ByteSymbol(name string, line int) CodeWord {
	return CodeWord{Kind: KindByteSymbol, Line: line, Text: name}
}

// Var creates a reference to a variable slot
func Var(slot int, name string, line int) CodeWord {
	return CodeWord{Kind: KindVar, Line: line, Text: name, Value: slot}
}

// IsToken reports whether the code word is the named opcode
func (cw CodeWord) IsToken(name string) bool {
	return cw.Kind == KindToken && cw.Text == name
}

// IsSymbol reports whether the code word refers to a symbol by name
func (cw CodeWord) IsSymbol() bool {
	return cw.Kind == KindWordSymbol || cw.Kind == KindByteSymbol
}

// Asm renders the code word as one line of assembler source
func (cw CodeWord) Asm() string {
	switch cw.Kind {
	case KindToken:
		return "\t.byte\t" + cw.Text
	case KindWord:
		return "\t.word\t" + strconv.Itoa(cw.Value)
	case KindByte:
		return "\t.byte\t" + strconv.Itoa(cw.Value)
	case KindFloat:
		return fmt.Sprintf("\t.byte\t%s\t; %s", cw.FP.Asm(), cw.FP)
	case KindString:
		return "\t.byte\t" + asmString(cw.Text)
	case KindLabel:
		return cw.Text + ":"
	case KindWordSymbol:
		return "\t.word\t" + cw.Text
	case KindByteSymbol:
		return "\t.byte\t" + cw.Text
	case KindVar:
		return fmt.Sprintf("\t.byte\t%d\t; %s", cw.Value, cw.Text)
	}

	return "\t; ???"
}

// asmString renders a length prefixed string.  Printable characters are
// grouped into quoted runs; quotes and everything else are written as numbers.
func asmString(text string) string {
	parts := []string{strconv.Itoa(len(text))}

	run := strings.Builder{}
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= ' ' && c < 0x7F && c != '"' {
			run.WriteByte(c)
		} else {
			flush()
			parts = append(parts, strconv.Itoa(int(c)))
		}
	}
	flush()

	return strings.Join(parts, ", ")
}

func (cw CodeWord) String() string {
	switch cw.Kind {
	case KindToken, KindLabel, KindWordSymbol, KindByteSymbol:
		return cw.Text
	case KindWord, KindByte:
		return strconv.Itoa(cw.Value)
	case KindFloat:
		return cw.FP.String()
	case KindString:
		return strconv.Quote(cw.Text)
	case KindVar:
		return "var " + cw.Text
	}

	return "?"
}
