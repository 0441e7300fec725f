package syntax

// Rule is one named rule of a grammar as it was written: an ordered list of
// alternatives, each of which is an ordered sequence of elements.
type Rule struct {
	Name string

	// Desc is the text reported as "expected ..." when the rule fails.  Rules
	// with no description report the words they tried instead.
	Desc string

	File string
	Line int

	Alts []Alternative
}

// Alternative is a single sequence of elements
type Alternative []Element

// Enumeration of the different kinds of elements
const (
	ElemWord = iota // "PRint": keyword, case-insensitive, may be abbreviated
	ElemChar        // '=': exact literal
	ElemRef         // bare name: a rule, a token or an extern
	ElemEmit        // emit { TOK_X, 1 }
	ElemPass        // pass: always matches
)

// Repeat is the postfix modifier attached to an element
type Repeat int

// Enumeration of the repeat modifiers
const (
	RepeatOnce      Repeat = iota
	RepeatOptional         // ?
	RepeatMany             // *
	RepeatOneOrMore        // +
)

func (r Repeat) String() string {
	switch r {
	case RepeatOptional:
		return "?"
	case RepeatMany:
		return "*"
	case RepeatOneOrMore:
		return "+"
	}

	return ""
}

// Element is one item of an alternative
type Element struct {
	Kind int

	// Text is the word for ElemWord and ElemChar and the name for ElemRef
	Text string

	// Emit holds the values of an emit block
	Emit []EmitValue

	Repeat Repeat
	Line   int
}

// EmitValue is one entry of an emit block: either an internal token, which is
// resolved to its opcode when the grammar is finalized, or a literal byte.
type EmitValue struct {
	Token string
	Value int
}

// IsToken reports whether the value names a token
func (ev EmitValue) IsToken() bool {
	return ev.Token != ""
}
