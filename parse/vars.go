package parse

// VarType is the storage class of a variable
type VarType int

// Enumeration of variable types
const (
	VarUndef VarType = iota
	VarWord
	VarFloat
	VarString
	VarArrayWord
	VarArrayByte
	VarArrayFloat
	VarArrayString
)

func (vt VarType) String() string {
	switch vt {
	case VarWord:
		return "word"
	case VarFloat:
		return "float"
	case VarString:
		return "string"
	case VarArrayWord:
		return "word array"
	case VarArrayByte:
		return "byte array"
	case VarArrayFloat:
		return "float array"
	case VarArrayString:
		return "string array"
	}

	return "undefined"
}

// Variable is an entry of the variable table.  The slot of a variable is its
// index in the table and never changes once assigned.
type Variable struct {
	Name string
	Type VarType
	Slot int
}

// VarTable holds the variables of a compilation unit in declaration order
type VarTable struct {
	vars  []Variable
	index map[string]int
}

// NewVarTable creates a new, empty variable table
func NewVarTable() *VarTable {
	return &VarTable{index: make(map[string]int)}
}

// Lookup looks up a variable by its normalized name
func (vt *VarTable) Lookup(name string) (Variable, bool) {
	if slot, ok := vt.index[name]; ok {
		return vt.vars[slot], true
	}

	return Variable{}, false
}

// Define adds a new variable and returns it.  It returns false if the name is
// already defined.
func (vt *VarTable) Define(name string, typ VarType) (Variable, bool) {
	if v, ok := vt.Lookup(name); ok {
		return v, false
	}

	v := Variable{Name: name, Type: typ, Slot: len(vt.vars)}
	vt.vars = append(vt.vars, v)
	vt.index[name] = v.Slot
	return v, true
}

// Len returns the number of variables
func (vt *VarTable) Len() int {
	return len(vt.vars)
}

// Truncate forgets every variable defined after the first n
func (vt *VarTable) Truncate(n int) {
	for _, v := range vt.vars[n:] {
		delete(vt.index, v.Name)
	}

	vt.vars = vt.vars[:n]
}

// Vars returns every variable in slot order
func (vt *VarTable) Vars() []Variable {
	return vt.vars
}
