package code

// Opcodes maps token names to opcodes.  A grammar's word catalog provides it.
type Opcodes interface {
	Opcode(name string) (int, bool)
}

// Stream is the code of a compilation unit.  Parsing only ever appends to it
// or truncates it back to a saved length; the optimizer rewrites it in place.
type Stream struct {
	words []CodeWord
	ops   Opcodes
}

// NewStream creates an empty stream whose tokens come from ops
func NewStream(ops Opcodes) *Stream {
	return &Stream{ops: ops}
}

// Opcode looks up a token of the stream's vocabulary
func (s *Stream) Opcode(name string) (int, bool) {
	if s.ops == nil {
		return 0, false
	}

	return s.ops.Opcode(name)
}

// Append adds code words to the end of the stream
func (s *Stream) Append(cws ...CodeWord) {
	s.words = append(s.words, cws...)
}

// Len returns the number of code words in the stream
func (s *Stream) Len() int {
	return len(s.words)
}

// Truncate drops every code word past the first n
func (s *Stream) Truncate(n int) {
	if n < len(s.words) {
		s.words = s.words[:n]
	}
}

// Words returns the code words of the stream.  The slice must not be modified.
func (s *Stream) Words() []CodeWord {
	return s.words
}

// At returns the code word at index i
func (s *Stream) At(i int) CodeWord {
	return s.words[i]
}

// Replace substitutes the count code words starting at start with the given
// ones
func (s *Stream) Replace(start, count int, with ...CodeWord) {
	tail := append([]CodeWord(nil), s.words[start+count:]...)
	s.words = append(append(s.words[:start], with...), tail...)
}
