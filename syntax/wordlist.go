package syntax

import "strings"

// Word is an entry in the word catalog
type Word struct {
	Text string
	ID   int

	// Min is the minimum number of characters of a keyword that must be
	// written before it can be abbreviated with a trailing period.  Words that
	// can not be abbreviated have Min equal to their length.
	Min int
}

// CanAbbreviate reports whether the word has a shorter abbreviated form
func (w Word) CanAbbreviate() bool {
	return w.Min < len(w.Text)
}

// WordList is an ordered, duplicate-free list of words.  The ID of each word
// is its index in the list.
type WordList struct {
	Words []Word

	// Fold makes the list case-insensitive: words differing only in case are
	// the same word
	Fold bool

	// index is rebuilt on demand since it is not stored with the table
	index map[string]int
}

// Add inserts a word into the list unless it is already there and returns its
// ID.  A word that is added twice keeps its first minimum length.
func (wl *WordList) Add(text string, min int) int {
	if id, ok := wl.Lookup(text); ok {
		return id
	}

	if min <= 0 || min > len(text) {
		min = len(text)
	}

	id := len(wl.Words)
	wl.Words = append(wl.Words, Word{Text: text, ID: id, Min: min})
	wl.index[wl.key(text)] = id
	return id
}

// Lookup returns the ID of a word given its text
func (wl *WordList) Lookup(text string) (int, bool) {
	if wl.index == nil {
		wl.buildIndex()
	}

	id, ok := wl.index[wl.key(text)]
	return id, ok
}

func (wl *WordList) key(text string) string {
	if wl.Fold {
		return strings.ToUpper(text)
	}

	return text
}

func (wl *WordList) buildIndex() {
	wl.index = make(map[string]int, len(wl.Words))
	for _, w := range wl.Words {
		wl.index[wl.key(w.Text)] = w.ID
	}
}

// Len returns the number of words in the list
func (wl *WordList) Len() int {
	return len(wl.Words)
}

// Names returns the text of every word in ID order
func (wl *WordList) Names() []string {
	names := make([]string, len(wl.Words))
	for i, w := range wl.Words {
		names[i] = w.Text
	}
	return names
}

// Catalog holds the two partitions of words known to a grammar.  Internal
// words come from TOKENS sections: they are never matched against source text
// and their IDs are the bytecode opcodes.  External words are the keywords and
// symbols written in rule bodies.
type Catalog struct {
	Internal WordList
	External WordList

	reserved map[string]struct{}
}

// NewCatalog creates a new, empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		Internal: WordList{index: make(map[string]int)},
		External: WordList{Fold: true, index: make(map[string]int)},
	}
}

// Opcode returns the ID of an internal token
func (c *Catalog) Opcode(name string) (int, bool) {
	return c.Internal.Lookup(name)
}

// Reserved reports whether an identifier, compared case-insensitively, is
// spelled exactly like one of the external keywords.
func (c *Catalog) Reserved(ident string) bool {
	if c.reserved == nil {
		c.buildIndex()
	}

	_, ok := c.reserved[strings.ToUpper(ident)]
	return ok
}

// buildIndex rebuilds every lookup map so that a finished catalog is only
// ever read from
func (c *Catalog) buildIndex() {
	c.Internal.buildIndex()
	c.External.buildIndex()

	c.reserved = make(map[string]struct{})
	for _, w := range c.External.Words {
		c.reserved[strings.ToUpper(w.Text)] = struct{}{}
	}
}
