package parse

import (
	"strings"

	"github.com/TechCowboy/fastbasic/code"
	"github.com/TechCowboy/fastbasic/common"
	"github.com/TechCowboy/fastbasic/logging"
	"github.com/TechCowboy/fastbasic/syntax"
)

// runMachine runs the state machine of a rule from its initial state
func (p *Parser) runMachine(sm *syntax.StateMachine) bool {
	p.level++
	if p.level > p.maxLevel {
		p.maxLevel = p.level
	}
	defer func() { p.level-- }()

	// a described rule reports failures where its first token would be
	start := p.nextToken()
	prevQuiet := p.quietAt
	if sm.Desc != "" {
		p.quietAt = start
	}

	if p.debug {
		logging.LogDebug("%s%s? @%d %q", strings.Repeat(" ", p.level), sm.Name, p.pos, p.rest())
	}

	ok := p.runState(sm, 0)
	p.quietAt = prevQuiet

	if !ok && sm.Desc != "" {
		p.fail(start, sm.Desc)
	}

	if p.debug && ok {
		logging.LogDebug("%s%s! @%d", strings.Repeat(" ", p.level), sm.Name, p.pos)
	}

	return ok
}

// runState tries the transitions of a state in order.  The first one that
// leads to the accept state wins; a failed one is fully rewound before the
// next is tried.
func (p *Parser) runState(sm *syntax.StateMachine, si int) bool {
	st := &sm.States[si]
	if st.Accept {
		return true
	}

	for i := range st.Trans {
		t := &st.Trans[i]

		cp := p.Mark()
		if p.runTransition(t) && p.runState(sm, t.Next) {
			return true
		}
		p.Restore(cp)
	}

	return false
}

// runTransition applies the repeat modifier of a transition.  Repetition is
// greedy and never backtracks into a shorter match.
func (p *Parser) runTransition(t *syntax.Transition) bool {
	switch t.Repeat {
	case syntax.RepeatOptional:
		cp := p.Mark()
		if !p.matchOnce(t) {
			p.Restore(cp)
		}
		return true
	case syntax.RepeatMany, syntax.RepeatOneOrMore:
		if t.Repeat == syntax.RepeatOneOrMore && !p.matchOnce(t) {
			return false
		}

		for {
			cp := p.Mark()
			if !p.matchOnce(t) {
				p.Restore(cp)
				return true
			}

			// an iteration that consumed nothing would repeat forever, and
			// its effects are dropped
			if p.pos == cp.pos {
				p.Restore(cp)
				return true
			}
		}
	default:
		return p.matchOnce(t)
	}
}

func (p *Parser) matchOnce(t *syntax.Transition) bool {
	switch t.Kind {
	case syntax.TransWord:
		return p.matchWord(t.Word)
	case syntax.TransCall:
		return p.runMachine(p.table.Machines[t.Name])
	case syntax.TransExtern:
		return p.externs[t.Name](p)
	case syntax.TransEmit:
		for _, ev := range t.Emit {
			if ev.IsToken() {
				p.code.Append(code.Token(ev.Token, ev.Value, p.line))
			} else {
				p.code.Append(code.Byte(ev.Value, p.line))
			}
		}
		return true
	case syntax.TransPass:
		return true
	}

	return false
}

// -----------------------------------------------------------------------------

// matchWord matches an external word.  Blanks before the word are skipped and
// letters compare case-insensitively.  A keyword may be abbreviated to its
// minimum length followed by a period, and a word ending in a letter or digit
// can not be directly followed by another identifier character.
func (p *Parser) matchWord(id int) bool {
	w := p.cat.External.Words[id]
	p.skipBlanks()

	n := 0
	for n < len(w.Text) && p.pos+n < len(p.text) && common.ToUpper(p.text[p.pos+n]) == common.ToUpper(w.Text[n]) {
		n++
	}

	switch {
	case n == len(w.Text):
		end := p.pos + n
		if !common.IsIdentChar(w.Text[n-1]) || end >= len(p.text) || !common.IsIdentChar(p.text[end]) {
			p.pos = end
			return true
		}
	case w.CanAbbreviate() && n >= w.Min && p.pos+n < len(p.text) && p.text[p.pos+n] == '.':
		p.pos += n + 1
		return true
	}

	p.fail(p.pos, "'"+strings.ToUpper(w.Text)+"'")
	return false
}

// fail records that desc was expected at pos
func (p *Parser) fail(pos int, desc string) {
	if pos == p.quietAt {
		return
	}

	if pos > p.maxPos {
		p.maxPos = pos
		p.expected = []string{desc}
		return
	}

	if pos == p.maxPos {
		for _, e := range p.expected {
			if e == desc {
				return
			}
		}
		p.expected = append(p.expected, desc)
	}
}

// nextToken returns the position of the next non-blank character without
// consuming anything
func (p *Parser) nextToken() int {
	i := p.pos
	for i < len(p.text) && (p.text[i] == ' ' || p.text[i] == '\t') {
		i++
	}
	return i
}

func (p *Parser) skipBlanks() {
	p.pos = p.nextToken()
}

// rest returns the unparsed part of the line
func (p *Parser) rest() string {
	return p.text[p.pos:]
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.text)
}

func (p *Parser) curr() byte {
	return p.text[p.pos]
}
