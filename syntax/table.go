package syntax

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"
)

// TableVersion is the format version of saved grammar tables.  Tables written
// with another version must be rebuilt.
const TableVersion = 2

// Table is the finished product of the grammar compiler: one state machine per
// rule together with the word catalog.  It is never modified once built and
// can be shared by any number of parsers.
type Table struct {
	Version int
	Start   string

	Machines map[string]*StateMachine
	Catalog  *Catalog

	// Externs lists the native matchers the grammar needs, sorted
	Externs []string
}

// LoadTable loads a table saved by SaveTable
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := &Table{}
	if err := gob.NewDecoder(f).Decode(table); err != nil {
		return nil, fmt.Errorf("grammar table `%s` is corrupt: %w", path, err)
	}

	if table.Version != TableVersion {
		return nil, fmt.Errorf("grammar table `%s` has version %d, expected %d", path, table.Version, TableVersion)
	}

	if table.Catalog == nil {
		table.Catalog = NewCatalog()
	}
	table.Catalog.buildIndex()

	return table, nil
}

// SaveTable writes the table to path, replacing any existing file
func (t *Table) SaveTable(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(f).Encode(t); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Machine returns the state machine of a rule
func (t *Table) Machine(name string) (*StateMachine, bool) {
	sm, ok := t.Machines[name]
	return sm, ok
}

// Summary reports the size of the grammar
func (t *Table) Summary() string {
	states := 0
	for _, sm := range t.Machines {
		states += len(sm.States)
	}

	return fmt.Sprintf(
		"%d rules, %d states, %d words, %d tokens, %d externs",
		len(t.Machines),
		states,
		t.Catalog.External.Len(),
		t.Catalog.Internal.Len(),
		len(t.Externs),
	)
}

// Dump writes every token and state machine of the table, rules sorted by name
func (t *Table) Dump(w io.Writer) {
	fmt.Fprintf(w, "# start: %s\n# %s\n\n", t.Start, t.Summary())

	for _, tok := range t.Catalog.Internal.Words {
		fmt.Fprintf(w, "# token %3d %s\n", tok.ID, tok.Text)
	}
	fmt.Fprintln(w)

	names := make([]string, 0, len(t.Machines))
	for name := range t.Machines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.Machines[name].Dump(w)
		fmt.Fprintln(w)
	}
}
