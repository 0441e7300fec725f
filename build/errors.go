package build

import (
	"fmt"

	"github.com/TechCowboy/fastbasic/logging"
)

// ParseError is a source line that the grammar does not match.  Col is the
// furthest position any alternative reached.
type ParseError struct {
	File     string
	Line     int
	Col      int
	Expected string

	// Text is the source line, empty when the error is not about one line
	Text string
}

func (pe *ParseError) Error() string {
	if pe.Expected == "" {
		return fmt.Sprintf("%s:%d:%d: parse error", pe.File, pe.Line, pe.Col)
	}

	return fmt.Sprintf("%s:%d:%d: parse error, expected %s", pe.File, pe.Line, pe.Col, pe.Expected)
}

// Message is the error without its location
func (pe *ParseError) Message() string {
	if pe.Expected == "" {
		return "parse error"
	}

	return "parse error, expected " + pe.Expected
}

// Window returns the part of the line around the error column
func (pe *ParseError) Window() string {
	return logging.SourceWindow(pe.Text, pe.Col)
}

// EncodeError is a literal that parsed but can not be represented in the
// output, such as a floating point number out of range
type EncodeError struct {
	File string
	Line int
	Col  int
	Text string
	Err  error
}

func (ee *EncodeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", ee.File, ee.Line, ee.Col, ee.Err)
}

func (ee *EncodeError) Unwrap() error {
	return ee.Err
}
