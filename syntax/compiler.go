package syntax

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/TechCowboy/fastbasic/logging"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// declSite records where a token or extern was first declared
type declSite struct {
	File string
	Line int
}

// Compiler turns grammar files into a grammar table.  Any number of files may
// be loaded, in any order: names are only resolved by Finalize, so a rule may
// refer to rules of files that are loaded after it.
type Compiler struct {
	rules    map[string]*Rule
	order    []string
	machines map[string]*StateMachine

	catalog *Catalog
	tokens  map[string]declSite
	externs map[string]declSite
}

// NewCompiler creates a new compiler with no grammar loaded
func NewCompiler() *Compiler {
	return &Compiler{
		rules:    make(map[string]*Rule),
		machines: make(map[string]*StateMachine),
		catalog:  NewCatalog(),
		tokens:   make(map[string]declSite),
		externs:  make(map[string]declSite),
	}
}

// Load reads one grammar file.  The name is only used in error messages.  The
// returned error is an ErrorList holding every problem found in the file.
func (c *Compiler) Load(name string, r io.Reader) error {
	return loadGrammar(c, name, r).Err()
}

// LoadFile opens and loads the grammar file at path
func (c *Compiler) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ErrorList{&GrammarError{File: path, Msg: err.Error()}}
	}
	defer f.Close()

	return c.Load(path, f)
}

func (c *Compiler) addRule(r *Rule) *GrammarError {
	if prev, ok := c.rules[r.Name]; ok {
		return &GrammarError{
			File: r.File,
			Line: r.Line,
			Msg:  fmt.Sprintf("duplicate rule `%s`, first defined at %s:%d", r.Name, prev.File, prev.Line),
		}
	}

	c.rules[r.Name] = r
	c.order = append(c.order, r.Name)
	c.machines[r.Name] = buildStateMachine(r, c.catalog)
	return nil
}

// declareToken adds a name from a TOKENS section.  Declaring the same token
// in several files is allowed.
func (c *Compiler) declareToken(name, file string, line int) {
	if _, ok := c.tokens[name]; !ok {
		c.tokens[name] = declSite{File: file, Line: line}
		c.catalog.Internal.Add(name, len(name))
	}
}

// declareExtern adds a name from an EXTERN section
func (c *Compiler) declareExtern(name, file string, line int) {
	if _, ok := c.externs[name]; !ok {
		c.externs[name] = declSite{File: file, Line: line}
	}
}

// -----------------------------------------------------------------------------

// Finalize resolves every name used in the loaded rules and returns the
// finished grammar table.  The compiler must not be used afterwards.
func (c *Compiler) Finalize(start string) (*Table, error) {
	var errs ErrorList

	c.checkNamespaces(&errs)

	for _, name := range c.order {
		sm := c.machines[name]

		for si := range sm.States {
			for ti := range sm.States[si].Trans {
				c.resolve(sm, &sm.States[si].Trans[ti], &errs)
			}
		}
	}

	if _, ok := c.rules[start]; !ok {
		msg := fmt.Sprintf("start rule `%s` is not defined", start)
		if s := c.suggest(start); s != "" {
			msg += fmt.Sprintf(", did you mean `%s`?", s)
		}
		errs = append(errs, &GrammarError{Msg: msg})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	for _, name := range c.Unreachable(start) {
		r := c.rules[name]
		logging.LogBuildWarning("Grammar", fmt.Sprintf("%s:%d: rule `%s` is never used", r.File, r.Line, name))
	}

	externs := make([]string, 0, len(c.externs))
	for name := range c.externs {
		externs = append(externs, name)
	}
	sort.Strings(externs)

	c.catalog.buildIndex()

	return &Table{
		Version:  TableVersion,
		Start:    start,
		Machines: c.machines,
		Catalog:  c.catalog,
		Externs:  externs,
	}, nil
}

// checkNamespaces reports names declared as more than one of rule, token and
// extern, since a bare reference to them would be ambiguous
func (c *Compiler) checkNamespaces(errs *ErrorList) {
	for _, name := range c.order {
		r := c.rules[name]

		if site, ok := c.tokens[name]; ok {
			errs.add(r.File, r.Line, "rule `%s` has the same name as the token declared at %s:%d", name, site.File, site.Line)
		}

		if site, ok := c.externs[name]; ok {
			errs.add(r.File, r.Line, "rule `%s` has the same name as the extern declared at %s:%d", name, site.File, site.Line)
		}
	}

	for _, w := range c.catalog.Internal.Words {
		if site, ok := c.externs[w.Text]; ok {
			tsite := c.tokens[w.Text]
			errs.add(site.File, site.Line, "extern `%s` has the same name as the token declared at %s:%d", w.Text, tsite.File, tsite.Line)
		}
	}
}

// resolve classifies a bare name and assigns opcodes to emitted tokens
func (c *Compiler) resolve(sm *StateMachine, t *Transition, errs *ErrorList) {
	switch t.Kind {
	case TransRef:
		if id, ok := c.catalog.Opcode(t.Name); ok {
			t.Kind = TransEmit
			t.Emit = []EmitValue{{Token: t.Name, Value: id}}
		} else if _, ok := c.externs[t.Name]; ok {
			t.Kind = TransExtern
		} else if _, ok := c.rules[t.Name]; ok {
			t.Kind = TransCall
		} else {
			msg := fmt.Sprintf("undefined rule `%s` referenced from `%s`", t.Name, sm.Name)
			if s := c.suggest(t.Name); s != "" {
				msg += fmt.Sprintf(", did you mean `%s`?", s)
			}
			errs.add(sm.File, t.Line, "%s", msg)
		}
	case TransEmit:
		for i, ev := range t.Emit {
			if !ev.IsToken() {
				continue
			}

			if id, ok := c.catalog.Opcode(ev.Token); ok {
				t.Emit[i].Value = id
			} else {
				errs.add(sm.File, t.Line, "undefined token `%s` in emit block of `%s`", ev.Token, sm.Name)
			}
		}
	}
}

// Unreachable returns the rules that can not be reached from start, in load
// order
func (c *Compiler) Unreachable(start string) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		sm, ok := c.machines[queue[0]]
		queue = queue[1:]
		if !ok {
			continue
		}

		for _, st := range sm.States {
			for _, t := range st.Trans {
				if (t.Kind == TransCall || t.Kind == TransRef) && !seen[t.Name] {
					seen[t.Name] = true
					queue = append(queue, t.Name)
				}
			}
		}
	}

	var unused []string
	for _, name := range c.order {
		if !seen[name] {
			unused = append(unused, name)
		}
	}

	return unused
}

// suggest finds the declared name closest to a misspelled one
func (c *Compiler) suggest(target string) string {
	candidates := make([]string, 0, len(c.rules)+len(c.tokens)+len(c.externs))
	candidates = append(candidates, c.order...)
	candidates = append(candidates, c.catalog.Internal.Names()...)
	for name := range c.externs {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		return ""
	}

	// names that contain every letter of the target in order come first
	if ranks := fuzzy.RankFindFold(target, candidates); len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(target)/2+1
	for _, cand := range candidates {
		if d := fuzzy.LevenshteinDistance(target, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}

	return best
}
