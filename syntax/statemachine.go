package syntax

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StateMachine is the compiled form of a rule.  State 0 is the initial state
// and holds one transition per alternative, in order.  Every alternative then
// continues as a chain of states with a single transition each, all ending in
// the same accept state.
type StateMachine struct {
	Name string
	Desc string
	File string
	Line int

	States []State
}

// State is a node of a state machine.  Accept states have no transitions.
type State struct {
	Accept bool
	Trans  []Transition
}

// Enumeration of transition kinds
const (
	TransWord   = iota // match an external word
	TransRef           // unresolved name, only before finalization
	TransCall          // run another state machine
	TransExtern        // run a native matcher
	TransEmit          // append tokens and bytes to the code stream
	TransPass          // always succeeds
)

// Transition is an edge between two states
type Transition struct {
	Kind int

	// Name is the word text, rule name or extern name
	Name string

	// Word is the external catalog ID of a TransWord
	Word int

	// Emit holds the values appended by a TransEmit.  Token values have their
	// opcode stored in Value once the grammar is finalized.
	Emit []EmitValue

	Repeat Repeat
	Next   int
	Line   int
}

// buildStateMachine converts a rule into its state machine.  Names are left as
// TransRef to be resolved once every grammar file has been loaded.
func buildStateMachine(r *Rule, cat *Catalog) *StateMachine {
	sm := &StateMachine{
		Name:   r.Name,
		Desc:   r.Desc,
		File:   r.File,
		Line:   r.Line,
		States: []State{{}, {Accept: true}},
	}

	const initial, accept = 0, 1

	for _, alt := range r.Alts {
		curr := initial
		for i, elem := range alt {
			next := accept
			if i < len(alt)-1 {
				next = len(sm.States)
				sm.States = append(sm.States, State{})
			}

			sm.States[curr].Trans = append(sm.States[curr].Trans, makeTransition(elem, next, cat))
			curr = next
		}
	}

	return sm
}

func makeTransition(elem Element, next int, cat *Catalog) Transition {
	t := Transition{Repeat: elem.Repeat, Next: next, Line: elem.Line}

	switch elem.Kind {
	case ElemWord:
		t.Kind = TransWord
		t.Name = elem.Text
		t.Word = cat.External.Add(elem.Text, abbreviationLength(elem.Text))
	case ElemChar:
		t.Kind = TransWord
		t.Name = elem.Text
		t.Word = cat.External.Add(elem.Text, len(elem.Text))
	case ElemRef:
		t.Kind = TransRef
		t.Name = elem.Text
	case ElemEmit:
		t.Kind = TransEmit
		t.Emit = append([]EmitValue(nil), elem.Emit...)
	case ElemPass:
		t.Kind = TransPass
	}

	return t
}

// abbreviationLength returns the length of the leading run of characters that
// are not lowercase letters.  The lowercase tail of a keyword is the part that
// may be replaced by a period.
func abbreviationLength(text string) int {
	n := 0
	for n < len(text) && !('a' <= text[n] && text[n] <= 'z') {
		n++
	}
	return n
}

// -----------------------------------------------------------------------------

// Describe renders a transition the way it is written in a grammar file
func (t Transition) Describe() string {
	var s string

	switch t.Kind {
	case TransWord:
		s = strconv.Quote(t.Name)
	case TransEmit:
		parts := make([]string, len(t.Emit))
		for i, ev := range t.Emit {
			if ev.IsToken() {
				parts[i] = ev.Token
			} else {
				parts[i] = strconv.Itoa(ev.Value)
			}
		}
		s = "emit { " + strings.Join(parts, ", ") + " }"
	case TransPass:
		s = "pass"
	case TransCall:
		s = t.Name
	case TransExtern:
		s = "<" + t.Name + ">"
	default:
		s = "?" + t.Name
	}

	return s + t.Repeat.String()
}

// Dump writes a readable listing of the state machine
func (sm *StateMachine) Dump(w io.Writer) {
	if sm.Desc != "" {
		fmt.Fprintf(w, "%s: %s\n", sm.Name, sm.Desc)
	} else {
		fmt.Fprintf(w, "%s:\n", sm.Name)
	}

	for i, st := range sm.States {
		if st.Accept {
			fmt.Fprintf(w, "  %3d: accept\n", i)
			continue
		}

		for _, t := range st.Trans {
			fmt.Fprintf(w, "  %3d: %-30s -> %d\n", i, t.Describe(), t.Next)
		}
	}
}
