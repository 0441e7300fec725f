// Package codestat counts how often each opcode is used in a code stream.
// The used opcodes decide which runtime routines the program imports.
package codestat

import (
	"fmt"
	"sort"

	"github.com/TechCowboy/fastbasic/code"
	"github.com/google/btree"
	"github.com/pterm/pterm"
)

// Stats holds the opcode counts of a code stream
type Stats struct {
	counts map[string]int
	total  int
}

// Entry is the count of one opcode
type Entry struct {
	Name  string
	Count int
}

// Less orders entries by descending count, then by name
func (e Entry) Less(than btree.Item) bool {
	other := than.(Entry)
	if e.Count != other.Count {
		return e.Count > other.Count
	}

	return e.Name < other.Name
}

// Collect counts the tokens of a stream without modifying it
func Collect(s *code.Stream) *Stats {
	st := &Stats{counts: make(map[string]int)}

	for _, cw := range s.Words() {
		if cw.Kind == code.KindToken {
			st.counts[cw.Text]++
			st.total++
		}
	}

	return st
}

// Count returns the number of uses of an opcode
func (st *Stats) Count(name string) int {
	return st.counts[name]
}

// Total returns the number of opcodes in the stream
func (st *Stats) Total() int {
	return st.total
}

// Used returns the opcodes with a non-zero count in the given order.  Opcodes
// missing from order are appended sorted by name.
func (st *Stats) Used(order []string) []string {
	var used []string
	seen := make(map[string]bool, len(order))

	for _, name := range order {
		seen[name] = true
		if st.counts[name] > 0 {
			used = append(used, name)
		}
	}

	var rest []string
	for name := range st.counts {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(used, rest...)
}

// Ranked returns every used opcode, most used first
func (st *Stats) Ranked() []Entry {
	tree := btree.New(4)
	for name, n := range st.counts {
		tree.ReplaceOrInsert(Entry{Name: name, Count: n})
	}

	entries := make([]Entry, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		entries = append(entries, item.(Entry))
		return true
	})

	return entries
}

// Print renders the ranked counts as a table
func (st *Stats) Print() error {
	data := pterm.TableData{{"Token", "Count", "Share"}}
	for _, e := range st.Ranked() {
		data = append(data, []string{
			e.Name,
			fmt.Sprint(e.Count),
			fmt.Sprintf("%.1f%%", 100*float64(e.Count)/float64(st.total)),
		})
	}

	pterm.DefaultSection.Println("Token usage")
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
