// Package peephole rewrites short sequences of a code stream into shorter or
// faster equivalents.  It never moves code across labels.
package peephole

import (
	"github.com/TechCowboy/fastbasic/code"
	"github.com/TechCowboy/fastbasic/logging"
)

// rule is one rewrite.  apply tries the rule at position i of the stream and
// reports whether it changed anything.
type rule struct {
	name  string
	needs []string
	apply func(o *optimizer, i int) bool
}

// rules in the order they are tried at each position
var rules = []rule{
	{"fold", []string{"TOK_NUM"}, (*optimizer).fold},
	{"negate", []string{"TOK_NUM", "TOK_NEG"}, (*optimizer).negate},
	{"identity", nil, (*optimizer).identity},
	{"store constant", []string{"TOK_VAR_ADDR", "TOK_DPOKE", "TOK_VAR_STORE"}, (*optimizer).storeConst},
	{"store variable", []string{"TOK_VAR_ADDR", "TOK_VAR_LOAD", "TOK_DPOKE", "TOK_VAR_STORE"}, (*optimizer).storeVar},
	{"negated jump", []string{"TOK_L_NOT", "TOK_CJUMP", "TOK_CNJUMP"}, (*optimizer).negatedJump},
	{"jump to next", []string{"TOK_JUMP"}, (*optimizer).jumpToNext},
	{"short constant", []string{"TOK_NUM", "TOK_BYTE"}, (*optimizer).shortConst},
}

type optimizer struct {
	s      *code.Stream
	active []rule
}

// Optimize applies every rewrite the stream's vocabulary allows until none
// applies any more, and returns the number of rewrites made
func Optimize(s *code.Stream) int {
	return newOptimizer(s).run()
}

func newOptimizer(s *code.Stream) *optimizer {
	o := &optimizer{s: s}

outer:
	for _, r := range rules {
		for _, tok := range r.needs {
			if _, ok := s.Opcode(tok); !ok {
				continue outer
			}
		}

		o.active = append(o.active, r)
	}

	return o
}

func (o *optimizer) run() int {
	total := 0
	for {
		n := o.pass()
		if n == 0 {
			return total
		}
		total += n
	}
}

// pass scans the stream once.  After a rewrite the same position is tried
// again since the new code may start another pattern.
func (o *optimizer) pass() int {
	n := 0

	for i := 0; i < o.s.Len(); {
		applied := false
		for _, r := range o.active {
			line := o.line(i)
			if r.apply(o, i) {
				logging.LogDebug("peephole: %s at line %d", r.name, line)
				applied = true
				break
			}
		}

		if applied {
			n++
		} else {
			i++
		}
	}

	return n
}

// -----------------------------------------------------------------------------

// isToken reports whether the code word at i is one of the named tokens
func (o *optimizer) isToken(i int, names ...string) (string, bool) {
	if i < 0 || i >= o.s.Len() {
		return "", false
	}

	cw := o.s.At(i)
	for _, name := range names {
		if cw.IsToken(name) {
			return name, true
		}
	}

	return "", false
}

// constAt reads a constant at i: TOK_NUM and a word, or TOK_BYTE and a byte
func (o *optimizer) constAt(i int) (int, bool) {
	if i < 0 || i+1 >= o.s.Len() {
		return 0, false
	}

	tok, val := o.s.At(i), o.s.At(i+1)
	if (tok.IsToken("TOK_NUM") && val.Kind == code.KindWord) || (tok.IsToken("TOK_BYTE") && val.Kind == code.KindByte) {
		return val.Value, true
	}

	return 0, false
}

// varAt reads a variable operand token at i
func (o *optimizer) varAt(i int, tok string) (code.CodeWord, bool) {
	if _, ok := o.isToken(i, tok); !ok || i+1 >= o.s.Len() {
		return code.CodeWord{}, false
	}

	v := o.s.At(i + 1)
	return v, v.Kind == code.KindVar
}

func (o *optimizer) token(name string, line int) code.CodeWord {
	op, _ := o.s.Opcode(name)
	return code.Token(name, op, line)
}

// constant builds a word constant, wrapping the value to 16 bits
func (o *optimizer) constant(v, line int) []code.CodeWord {
	return []code.CodeWord{o.token("TOK_NUM", line), code.Word(int(uint16(v)), line)}
}

func (o *optimizer) line(i int) int {
	return o.s.At(i).Line
}

// -----------------------------------------------------------------------------

type foldFunc func(a, b int16) (int16, bool)

var folds = map[string]foldFunc{
	"TOK_ADD":      func(a, b int16) (int16, bool) { return a + b, true },
	"TOK_SUB":      func(a, b int16) (int16, bool) { return a - b, true },
	"TOK_MUL":      func(a, b int16) (int16, bool) { return a * b, true },
	"TOK_DIV":      func(a, b int16) (int16, bool) { return safeDiv(a, b, false) },
	"TOK_MOD":      func(a, b int16) (int16, bool) { return safeDiv(a, b, true) },
	"TOK_BIT_AND":  func(a, b int16) (int16, bool) { return a & b, true },
	"TOK_BIT_OR":   func(a, b int16) (int16, bool) { return a | b, true },
	"TOK_BIT_EXOR": func(a, b int16) (int16, bool) { return a ^ b, true },
}

func safeDiv(a, b int16, mod bool) (int16, bool) {
	if b == 0 {
		return 0, false
	}

	if mod {
		return a % b, true
	}
	return a / b, true
}

// fold: const a, const b, OP -> const (a OP b)
func (o *optimizer) fold(i int) bool {
	a, ok := o.constAt(i)
	if !ok {
		return false
	}

	b, ok := o.constAt(i + 2)
	if !ok || i+4 >= o.s.Len() {
		return false
	}

	op := o.s.At(i + 4)
	f, ok := folds[op.Text]
	if !ok || op.Kind != code.KindToken {
		return false
	}

	r, ok := f(int16(a), int16(b))
	if !ok {
		return false
	}

	o.s.Replace(i, 5, o.constant(int(r), o.line(i))...)
	return true
}

// negate: const a, NEG -> const -a
func (o *optimizer) negate(i int) bool {
	a, ok := o.constAt(i)
	if !ok {
		return false
	}

	if _, ok := o.isToken(i+2, "TOK_NEG"); !ok {
		return false
	}

	o.s.Replace(i, 3, o.constant(-a, o.line(i))...)
	return true
}

// identity: const 0, ADD|SUB and const 1, MUL|DIV do nothing
func (o *optimizer) identity(i int) bool {
	a, ok := o.constAt(i)
	if !ok {
		return false
	}

	switch a {
	case 0:
		_, ok = o.isToken(i+2, "TOK_ADD", "TOK_SUB")
	case 1:
		_, ok = o.isToken(i+2, "TOK_MUL", "TOK_DIV")
	default:
		ok = false
	}

	if !ok {
		return false
	}

	o.s.Replace(i, 3)
	return true
}

// storeConst: VAR_ADDR v, const c, DPOKE -> const c, VAR_STORE v
func (o *optimizer) storeConst(i int) bool {
	v, ok := o.varAt(i, "TOK_VAR_ADDR")
	if !ok {
		return false
	}

	if _, ok := o.constAt(i + 2); !ok {
		return false
	}

	if _, ok := o.isToken(i+4, "TOK_DPOKE"); !ok {
		return false
	}

	c := []code.CodeWord{o.s.At(i + 2), o.s.At(i + 3)}
	o.s.Replace(i, 5, c[0], c[1], o.token("TOK_VAR_STORE", o.line(i)), v)
	return true
}

// storeVar: VAR_ADDR v, VAR_LOAD v, DPOKE is removed and VAR_ADDR v,
// VAR_LOAD w, DPOKE -> VAR_LOAD w, VAR_STORE v
func (o *optimizer) storeVar(i int) bool {
	v, ok := o.varAt(i, "TOK_VAR_ADDR")
	if !ok {
		return false
	}

	w, ok := o.varAt(i+2, "TOK_VAR_LOAD")
	if !ok {
		return false
	}

	if _, ok := o.isToken(i+4, "TOK_DPOKE"); !ok {
		return false
	}

	if v.Value == w.Value {
		o.s.Replace(i, 5)
		return true
	}

	line := o.line(i)
	o.s.Replace(i, 5, o.token("TOK_VAR_LOAD", line), w, o.token("TOK_VAR_STORE", line), v)
	return true
}

// negatedJump: L_NOT, CJUMP L -> CNJUMP L
func (o *optimizer) negatedJump(i int) bool {
	if _, ok := o.isToken(i, "TOK_L_NOT"); !ok {
		return false
	}

	if _, ok := o.isToken(i+1, "TOK_CJUMP"); !ok || i+2 >= o.s.Len() {
		return false
	}

	target := o.s.At(i + 2)
	o.s.Replace(i, 3, o.token("TOK_CNJUMP", o.line(i+1)), target)
	return true
}

// jumpToNext: JUMP L directly followed by the label L is removed.  The label
// stays, other jumps may still use it.
func (o *optimizer) jumpToNext(i int) bool {
	if _, ok := o.isToken(i, "TOK_JUMP"); !ok || i+2 >= o.s.Len() {
		return false
	}

	target, next := o.s.At(i+1), o.s.At(i+2)
	if target.Kind != code.KindWordSymbol || next.Kind != code.KindLabel || target.Text != next.Text {
		return false
	}

	o.s.Replace(i, 2)
	return true
}

// shortConst: NUM n with n < 256 -> BYTE n
func (o *optimizer) shortConst(i int) bool {
	if _, ok := o.isToken(i, "TOK_NUM"); !ok || i+1 >= o.s.Len() {
		return false
	}

	v := o.s.At(i + 1)
	if v.Kind != code.KindWord || v.Value < 0 || v.Value > 255 {
		return false
	}

	o.s.Replace(i, 2, o.token("TOK_BYTE", v.Line), code.Byte(v.Value, v.Line))
	return true
}
