package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TechCowboy/fastbasic/common"
)

// Enumeration of the sections a grammar file line can belong to
const (
	sectionRules = iota
	sectionTokens
	sectionExtern
)

// gramLoader reads one grammar file.  The format is line based: a name at
// the start of a line opens a rule or a section and every indented line below
// a rule is one of its alternatives.
type gramLoader struct {
	c    *Compiler
	file string
	r    *bufio.Reader

	line int
	text string
	pos  int

	// rule is the rule currently receiving alternatives
	rule *Rule

	section     int
	sectionLine int

	errs ErrorList
}

// loadGrammar reads every rule and section of a grammar file into c
func loadGrammar(c *Compiler, file string, r io.Reader) ErrorList {
	gl := &gramLoader{c: c, file: file, r: bufio.NewReader(r)}
	gl.load()
	return gl.errs
}

func (gl *gramLoader) load() {
	for gl.readLine() {
		if gl.section != sectionRules {
			gl.readSectionItems()
			continue
		}

		gl.skipBlanks()
		if gl.atEnd() {
			continue
		}

		if gl.pos == 0 {
			gl.finishRule()

			if err := gl.readHeader(); err != nil {
				gl.errs = append(gl.errs, err)
			}
		} else if gl.rule == nil {
			gl.errs = append(gl.errs, gl.errorf("alternative outside of a rule"))
		} else if alt, err := gl.readAlternative(); err != nil {
			gl.errs = append(gl.errs, err)
		} else {
			gl.rule.Alts = append(gl.rule.Alts, alt)
		}
	}

	gl.finishRule()

	switch gl.section {
	case sectionTokens:
		gl.errs.add(gl.file, gl.sectionLine, "unterminated TOKENS section")
	case sectionExtern:
		gl.errs.add(gl.file, gl.sectionLine, "unterminated EXTERN section")
	}
}

// readLine reads the next line of the file, dropping its terminator
func (gl *gramLoader) readLine() bool {
	text, err := gl.r.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		if err != io.EOF {
			gl.errs.add(gl.file, gl.line, "read error: %s", err)
		}

		return false
	}

	gl.line++
	gl.text = strings.TrimRight(text, "\r\n")
	gl.pos = 0

	// a byte order mark is allowed at the start of the file
	if gl.line == 1 {
		gl.text = strings.TrimPrefix(gl.text, "\ufeff")
	}

	return true
}

func (gl *gramLoader) errorf(format string, args ...interface{}) *GrammarError {
	return &GrammarError{File: gl.file, Line: gl.line, Msg: fmt.Sprintf(format, args...)}
}

// unexpected returns an unexpected character error at the current position
func (gl *gramLoader) unexpected() *GrammarError {
	if gl.atEnd() {
		return gl.errorf("unexpected end of line")
	}

	return gl.errorf("unexpected character `%c` at column %d", gl.text[gl.pos], gl.pos+1)
}

// atEnd reports whether the rest of the line is empty or a comment
func (gl *gramLoader) atEnd() bool {
	return gl.pos >= len(gl.text) || gl.text[gl.pos] == '#'
}

func (gl *gramLoader) curr() byte {
	return gl.text[gl.pos]
}

func (gl *gramLoader) skipBlanks() {
	for gl.pos < len(gl.text) && (gl.text[gl.pos] == ' ' || gl.text[gl.pos] == '\t') {
		gl.pos++
	}
}

func (gl *gramLoader) readIdent() string {
	start := gl.pos
	if gl.pos < len(gl.text) && common.IsIdentStart(gl.text[gl.pos]) {
		for gl.pos < len(gl.text) && common.IsIdentChar(gl.text[gl.pos]) {
			gl.pos++
		}
	}

	return gl.text[start:gl.pos]
}

// -----------------------------------------------------------------------------

// readHeader reads a line starting at column zero: either the opening of a
// TOKENS or EXTERN section or the name and description of a rule
func (gl *gramLoader) readHeader() *GrammarError {
	name := gl.readIdent()
	if name == "" {
		return gl.unexpected()
	}

	gl.skipBlanks()

	if name == "TOKENS" || name == "EXTERN" {
		if gl.atEnd() || gl.curr() != '{' {
			return gl.errorf("expected `{` after %s", name)
		}
		gl.pos++

		if name == "TOKENS" {
			gl.section = sectionTokens
		} else {
			gl.section = sectionExtern
		}
		gl.sectionLine = gl.line

		gl.readSectionItems()
		return nil
	}

	if gl.atEnd() || gl.curr() != ':' {
		return gl.errorf("expected `:` after rule name `%s`", name)
	}
	gl.pos++

	desc := gl.text[gl.pos:]
	if ndx := strings.IndexByte(desc, '#'); ndx >= 0 {
		desc = desc[:ndx]
	}

	gl.rule = &Rule{
		Name: name,
		Desc: strings.TrimSpace(desc),
		File: gl.file,
		Line: gl.line,
	}

	return nil
}

// finishRule hands the rule being read to the compiler
func (gl *gramLoader) finishRule() {
	if gl.rule == nil {
		return
	}

	if len(gl.rule.Alts) == 0 {
		gl.errs.add(gl.file, gl.rule.Line, "rule `%s` has no alternatives", gl.rule.Name)
	} else if err := gl.c.addRule(gl.rule); err != nil {
		gl.errs = append(gl.errs, err)
	}

	gl.rule = nil
}

// readSectionItems reads the names declared on the current line of a TOKENS
// or EXTERN section, up to the closing brace
func (gl *gramLoader) readSectionItems() {
	for {
		gl.skipBlanks()
		if gl.atEnd() {
			return
		}

		switch c := gl.curr(); {
		case c == '}':
			gl.pos++
			gl.section = sectionRules

			gl.skipBlanks()
			if !gl.atEnd() {
				gl.errs = append(gl.errs, gl.unexpected())
			}
			return
		case c == ',':
			gl.pos++
		case common.IsIdentStart(c):
			name := gl.readIdent()
			if gl.section == sectionTokens {
				gl.c.declareToken(name, gl.file, gl.line)
			} else {
				gl.c.declareExtern(name, gl.file, gl.line)
			}
		default:
			gl.errs = append(gl.errs, gl.unexpected())
			return
		}
	}
}

// readAlternative reads one indented line of a rule
func (gl *gramLoader) readAlternative() (Alternative, *GrammarError) {
	var alt Alternative

	for {
		gl.skipBlanks()
		if gl.atEnd() {
			return alt, nil
		}

		elem, err := gl.readElement()
		if err != nil {
			return nil, err
		}

		gl.skipBlanks()
		if !gl.atEnd() {
			switch gl.curr() {
			case '?':
				elem.Repeat = RepeatOptional
			case '*':
				elem.Repeat = RepeatMany
			case '+':
				elem.Repeat = RepeatOneOrMore
			}

			if elem.Repeat != RepeatOnce {
				if elem.Kind == ElemEmit || elem.Kind == ElemPass {
					return nil, gl.errorf("modifier `%c` can not be applied to `%s`", gl.curr(), describeElement(elem))
				}
				gl.pos++
			}
		}

		alt = append(alt, elem)
	}
}

func (gl *gramLoader) readElement() (Element, *GrammarError) {
	elem := Element{Line: gl.line}

	switch c := gl.curr(); {
	case c == '"' || c == '\'':
		text, err := gl.readQuoted(c)
		if err != nil {
			return elem, err
		}

		if c == '"' {
			elem.Kind = ElemWord
		} else {
			elem.Kind = ElemChar
		}
		elem.Text = text
	case common.IsIdentStart(c):
		switch name := gl.readIdent(); name {
		case "pass":
			elem.Kind = ElemPass
		case "emit":
			values, err := gl.readEmit()
			if err != nil {
				return elem, err
			}

			elem.Kind = ElemEmit
			elem.Emit = values
		default:
			elem.Kind = ElemRef
			elem.Text = name
		}
	default:
		return elem, gl.unexpected()
	}

	return elem, nil
}

// readQuoted reads a quoted word.  A backslash includes the next character
// as is.
func (gl *gramLoader) readQuoted(quote byte) (string, *GrammarError) {
	gl.pos++

	sb := strings.Builder{}
	for ; gl.pos < len(gl.text); gl.pos++ {
		c := gl.text[gl.pos]

		if c == quote {
			gl.pos++

			if sb.Len() == 0 {
				return "", gl.errorf("empty literal")
			}
			return sb.String(), nil
		}

		if c == '\\' && gl.pos+1 < len(gl.text) {
			gl.pos++
			c = gl.text[gl.pos]
		}

		sb.WriteByte(c)
	}

	return "", gl.errorf("unterminated literal")
}

// readEmit reads the braces of an emit block: a comma separated list of token
// names and byte values
func (gl *gramLoader) readEmit() ([]EmitValue, *GrammarError) {
	gl.skipBlanks()
	if gl.atEnd() || gl.curr() != '{' {
		return nil, gl.errorf("expected `{` after emit")
	}
	gl.pos++

	var values []EmitValue
	for {
		gl.skipBlanks()
		if gl.atEnd() {
			return nil, gl.errorf("unterminated emit block")
		}

		switch c := gl.curr(); {
		case c == '}':
			gl.pos++

			if len(values) == 0 {
				return nil, gl.errorf("empty emit block")
			}
			return values, nil
		case c == ',':
			gl.pos++
		case common.IsIdentStart(c):
			values = append(values, EmitValue{Token: gl.readIdent()})
		case '0' <= c && c <= '9' || c == '$':
			v, err := gl.readByte()
			if err != nil {
				return nil, err
			}
			values = append(values, EmitValue{Value: v})
		default:
			return nil, gl.unexpected()
		}
	}
}

// readByte reads a decimal or `$` prefixed hexadecimal byte value
func (gl *gramLoader) readByte() (int, *GrammarError) {
	base := 10
	if gl.curr() == '$' {
		base = 16
		gl.pos++
	}

	start := gl.pos
	for gl.pos < len(gl.text) && isHexDigit(gl.text[gl.pos]) {
		gl.pos++
	}

	text := gl.text[start:gl.pos]
	v, err := strconv.ParseInt(text, base, 32)
	if err != nil {
		return 0, gl.errorf("invalid number `%s` in emit block", text)
	}

	if v > 255 {
		return 0, gl.errorf("emit value %d does not fit in a byte", v)
	}

	return int(v), nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func describeElement(elem Element) string {
	switch elem.Kind {
	case ElemEmit:
		return "emit"
	case ElemPass:
		return "pass"
	}

	return elem.Text
}
