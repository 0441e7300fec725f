package parse

// LoopKind is the kind of an open block
type LoopKind int

// Enumeration of block kinds
const (
	LoopDo LoopKind = iota
	LoopWhile
	LoopRepeat
	LoopFor
	LoopIf
	LoopElse
	LoopElif
	LoopProc

	// LoopIfThen is the block of a single line IF, closed by the end of its
	// statement
	LoopIfThen
)

func (lk LoopKind) String() string {
	switch lk {
	case LoopDo:
		return "DO"
	case LoopWhile:
		return "WHILE"
	case LoopRepeat:
		return "REPEAT"
	case LoopFor:
		return "FOR"
	case LoopIf, LoopIfThen:
		return "IF"
	case LoopElse:
		return "ELSE"
	case LoopElif:
		return "ELIF"
	default:
		return "PROC"
	}
}

// Closer returns the keyword that ends a block of this kind
func (lk LoopKind) Closer() string {
	switch lk {
	case LoopDo:
		return "LOOP"
	case LoopWhile:
		return "WEND"
	case LoopRepeat:
		return "UNTIL"
	case LoopFor:
		return "NEXT"
	case LoopIf, LoopElse, LoopElif:
		return "ENDIF"
	case LoopIfThen:
		return ""
	default:
		return "ENDPROC"
	}
}

// expected describes what must come next to close a block of this kind
func (lk LoopKind) expected() string {
	if lk == LoopIfThen {
		return "end of line"
	}

	return "'" + lk.Closer() + "'"
}

// IsLoop reports whether the block can be left with EXIT
func (lk LoopKind) IsLoop() bool {
	return lk <= LoopFor
}

// LoopContext is one open block.  Contexts form an immutable linked stack:
// pushing creates a new head and popping returns the parent, so saving the
// head is enough to restore the whole stack.
type LoopContext struct {
	Kind LoopKind

	// Entry is the label jumped back to by loops, empty for other blocks
	Entry string

	// Exit is the label placed when the block is closed
	Exit string

	// Var is the control variable of a FOR loop
	Var string

	Parent *LoopContext
}

func (lc *LoopContext) push(kind LoopKind, entry, exit string) *LoopContext {
	return &LoopContext{Kind: kind, Entry: entry, Exit: exit, Parent: lc}
}

// Depth returns the number of open blocks, zero for a nil context
func (lc *LoopContext) Depth() int {
	n := 0
	for ; lc != nil; lc = lc.Parent {
		n++
	}
	return n
}
