// Package parse runs a compiled grammar table against BASIC source lines and
// emits the resulting code.
package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TechCowboy/fastbasic/code"
	"github.com/TechCowboy/fastbasic/syntax"
)

// Parser is the parse session of one compilation unit.  The code stream, the
// variable table and the open blocks persist from line to line; the position
// and the furthest failure are reset by every call to NewLine.
type Parser struct {
	table   *syntax.Table
	cat     *syntax.Catalog
	externs map[string]externFunc
	debug   bool

	text string
	line int
	pos  int

	// maxPos is the furthest position at which anything failed to match and
	// expected holds what was tried there
	maxPos   int
	expected []string

	// quietAt is the start position of the innermost described rule.  Failures
	// at that position are reported as the rule's description instead.
	quietAt int

	code    *code.Stream
	vars    *VarTable
	loops   *LoopContext
	labels  int
	lastVar string

	level, maxLevel int
}

// Option configures a parser
type Option func(p *Parser)

// WithDebug enables a trace of every rule tried
func WithDebug(debug bool) Option {
	return func(p *Parser) {
		p.debug = debug
	}
}

// New creates a parser for a grammar table.  Every native matcher the grammar
// declares must be known, and every token a matcher emits must be declared by
// the grammar.
func New(table *syntax.Table, opts ...Option) (*Parser, error) {
	p := &Parser{
		table:   table,
		cat:     table.Catalog,
		externs: make(map[string]externFunc, len(table.Externs)),
		quietAt: -1,
		code:    code.NewStream(table.Catalog),
		vars:    NewVarTable(),
	}

	for _, opt := range opts {
		opt(p)
	}

	var missing []string
	for _, name := range table.Externs {
		def, ok := externRegistry[name]
		if !ok {
			missing = append(missing, fmt.Sprintf("unknown native matcher `%s`", name))
			continue
		}

		for _, tok := range def.tokens {
			if _, ok := p.cat.Opcode(tok); !ok {
				missing = append(missing, fmt.Sprintf("native matcher `%s` needs token `%s`", name, tok))
			}
		}

		p.externs[name] = def.fn
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("grammar does not fit the parser: %s", strings.Join(missing, ", "))
	}

	return p, nil
}

// NewLine starts parsing a new source line
func (p *Parser) NewLine(text string, line int) {
	p.text = text
	p.line = line
	p.pos = 0
	p.maxPos = 0
	p.expected = nil
	p.quietAt = -1
}

// FatalError is an error that aborts the whole compilation unit, such as a
// numeric literal that can not be encoded
type FatalError struct {
	Line int
	Pos  int
	Err  error
}

func (fe *FatalError) Error() string {
	return fe.Err.Error()
}

func (fe *FatalError) Unwrap() error {
	return fe.Err
}

// Run parses the current line with the given start rule.  It succeeds only if
// the rule matches the whole line.  A non-nil error is a fatal error.
func (p *Parser) Run(start string) (ok bool, err error) {
	sm, exists := p.table.Machine(start)
	if !exists {
		return false, fmt.Errorf("grammar has no rule `%s`", start)
	}

	defer func() {
		if x := recover(); x != nil {
			if fe, isFatal := x.(*FatalError); isFatal {
				ok, err = false, fe
				return
			}

			panic(x)
		}
	}()

	p.level = 0
	return p.runMachine(sm) && p.pos == len(p.text), nil
}

// fatal aborts the current run
func (p *Parser) fatal(err error) {
	panic(&FatalError{Line: p.line, Pos: p.pos, Err: err})
}

// -----------------------------------------------------------------------------

// Checkpoint is the complete mutable state of a parse at one point of a line
type Checkpoint struct {
	pos     int
	codeLen int
	numVars int
	loops   *LoopContext
	labels  int
	lastVar string
}

// Mark saves the current parse state
func (p *Parser) Mark() Checkpoint {
	return Checkpoint{
		pos:     p.pos,
		codeLen: p.code.Len(),
		numVars: p.vars.Len(),
		loops:   p.loops,
		labels:  p.labels,
		lastVar: p.lastVar,
	}
}

// Restore rewinds the parse to a saved state.  The furthest failure is not
// part of the state and is never rewound.
func (p *Parser) Restore(cp Checkpoint) {
	p.pos = cp.pos
	p.code.Truncate(cp.codeLen)
	p.vars.Truncate(cp.numVars)
	p.loops = cp.loops
	p.labels = cp.labels
	p.lastVar = cp.lastVar
}

// -----------------------------------------------------------------------------

// Pos returns the current position in the line
func (p *Parser) Pos() int {
	return p.pos
}

// MaxPos returns the furthest position where matching failed
func (p *Parser) MaxPos() int {
	return p.maxPos
}

// Expected describes what was expected at MaxPos
func (p *Parser) Expected() string {
	return strings.Join(p.expected, " or ")
}

// Code returns the code stream built so far
func (p *Parser) Code() *code.Stream {
	return p.code
}

// Vars returns the variable table
func (p *Parser) Vars() *VarTable {
	return p.vars
}

// Loops returns the innermost open block, nil if there is none
func (p *Parser) Loops() *LoopContext {
	return p.loops
}

// MaxLevel returns the deepest rule nesting reached so far
func (p *Parser) MaxLevel() int {
	return p.maxLevel
}

// Line returns the number of the line being parsed
func (p *Parser) Line() int {
	return p.line
}

// EmitToken appends an opcode by name
func (p *Parser) EmitToken(name string) {
	op, _ := p.cat.Opcode(name)
	p.code.Append(code.Token(name, op, p.line))
}
