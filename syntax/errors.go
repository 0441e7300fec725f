package syntax

import (
	"fmt"
	"strings"
)

// GrammarError is an error in a grammar file.  It is fatal to building the
// grammar table.
type GrammarError struct {
	File string
	Line int
	Msg  string
}

func (ge *GrammarError) Error() string {
	switch {
	case ge.File == "":
		return ge.Msg
	case ge.Line > 0:
		return fmt.Sprintf("%s:%d: %s", ge.File, ge.Line, ge.Msg)
	default:
		return fmt.Sprintf("%s: %s", ge.File, ge.Msg)
	}
}

// ErrorList collects every grammar error found by one step of compilation
type ErrorList []*GrammarError

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, ge := range el {
		msgs[i] = ge.Error()
	}

	return strings.Join(msgs, "\n")
}

// Err returns the list as an error, or nil if it is empty
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}

	return el
}

func (el *ErrorList) add(file string, line int, format string, args ...interface{}) {
	*el = append(*el, &GrammarError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)})
}
