package parse

import (
	"fmt"
	"strconv"

	"github.com/TechCowboy/fastbasic/atarifp"
	"github.com/TechCowboy/fastbasic/code"
	"github.com/TechCowboy/fastbasic/common"
)

// externFunc is a native matcher.  Like a rule it either matches and returns
// true, or fails; partial effects of a failed matcher are rewound by the
// caller.
type externFunc func(p *Parser) bool

// externDef is a native matcher together with the tokens it emits
type externDef struct {
	fn     externFunc
	tokens []string
}

// maxStringLength is the longest string constant the runtime can hold
const maxStringLength = 255

// externRegistry holds every native matcher a grammar can declare
var externRegistry = map[string]externDef{
	"E_EOL":      {fn: (*Parser).matchEOL},
	"E_REM":      {fn: (*Parser).matchRem},
	"E_STMT_END": {fn: (*Parser).matchStmtEnd},

	"E_NUMBER_WORD": {fn: (*Parser).matchNumberWord},
	"E_NUMBER_FP":   {fn: (*Parser).matchNumberFP},
	"E_STRING":      {fn: (*Parser).matchString},

	"E_VAR_WORD":       {fn: varUse(VarWord, 0)},
	"E_VAR_SET_WORD":   {fn: varSet(VarWord, 0)},
	"E_VAR_FP":         {fn: varUse(VarFloat, '%')},
	"E_VAR_SET_FP":     {fn: varSet(VarFloat, '%')},
	"E_VAR_STR":        {fn: varUse(VarString, '$')},
	"E_VAR_SET_STR":    {fn: varSet(VarString, '$')},
	"E_VAR_ARRAY_WORD": {fn: varUse(VarArrayWord, 0)},
	"E_VAR_ARRAY_BYTE": {fn: varUse(VarArrayByte, 0)},
	"E_DIM_WORD":       {fn: varDim(VarArrayWord)},
	"E_DIM_BYTE":       {fn: varDim(VarArrayByte)},

	"E_SYM_WORD": {fn: (*Parser).matchSymWord},
	"E_SYM_BYTE": {fn: (*Parser).matchSymByte},

	"E_PUSH_LT_DO":     {fn: (*Parser).pushDo},
	"E_POP_LT_DO":      {fn: (*Parser).popDo, tokens: []string{"TOK_JUMP"}},
	"E_PUSH_LT_WHILE":  {fn: (*Parser).pushWhile},
	"E_WHILE_COND":     {fn: (*Parser).whileCond, tokens: []string{"TOK_CJUMP"}},
	"E_POP_LT_WHILE":   {fn: (*Parser).popWhile, tokens: []string{"TOK_JUMP"}},
	"E_PUSH_LT_REPEAT": {fn: (*Parser).pushRepeat},
	"E_POP_LT_REPEAT":  {fn: (*Parser).popRepeat, tokens: []string{"TOK_CJUMP"}},
	"E_PUSH_LT_FOR":    {fn: (*Parser).pushFor},
	"E_POP_LT_FOR":     {fn: (*Parser).popFor, tokens: []string{"TOK_FOR_NEXT", "TOK_CJUMP", "TOK_FOR_EXIT"}},
	"E_PUSH_LT_IF":     {fn: (*Parser).pushIf, tokens: []string{"TOK_CJUMP"}},
	"E_ELIF":           {fn: (*Parser).elif, tokens: []string{"TOK_JUMP"}},
	"E_ELSE":           {fn: (*Parser).elseBlock, tokens: []string{"TOK_JUMP"}},
	"E_POP_LT_IF":      {fn: (*Parser).popIf},
	"E_PUSH_LT_THEN":   {fn: (*Parser).pushIfThen, tokens: []string{"TOK_CJUMP"}},
	"E_POP_LT_THEN":    {fn: (*Parser).popIfThen},
	"E_PUSH_LT_PROC":   {fn: (*Parser).pushProc, tokens: []string{"TOK_JUMP"}},
	"E_POP_LT_PROC":    {fn: (*Parser).popProc, tokens: []string{"TOK_RET"}},
	"E_CALL_PROC":      {fn: (*Parser).callProc, tokens: []string{"TOK_CALL"}},
	"E_EXIT_LOOP":      {fn: (*Parser).exitLoop, tokens: []string{"TOK_JUMP", "TOK_RET"}},
}

// -----------------------------------------------------------------------------
// Lexical matchers

// matchEOL matches the end of the line
func (p *Parser) matchEOL() bool {
	p.skipBlanks()
	if p.atEnd() {
		return true
	}

	p.fail(p.pos, "end of line")
	return false
}

// matchRem consumes a comment up to the end of the line
func (p *Parser) matchRem() bool {
	p.pos = len(p.text)
	return true
}

// matchStmtEnd checks that a statement ends here without consuming anything:
// the line ends or another statement or a comment follows
func (p *Parser) matchStmtEnd() bool {
	cp := p.pos
	p.skipBlanks()

	ok := p.atEnd() || p.curr() == ':' || p.curr() == '\''
	p.pos = cp
	return ok
}

// matchNumberWord matches a 16-bit integer: decimal up to 65535 or `$` and up
// to four hexadecimal digits.  A decimal that continues as a floating point
// literal is refused.
func (p *Parser) matchNumberWord() bool {
	p.skipBlanks()
	start := p.pos

	base, digits := 10, p.pos
	if !p.atEnd() && p.curr() == '$' {
		base = 16
		p.pos++
		digits = p.pos
	}

	for !p.atEnd() && isDigit(p.curr(), base) {
		p.pos++
	}

	text := p.text[digits:p.pos]
	v, err := strconv.ParseUint(text, base, 16)
	if err != nil || (base == 10 && !p.atEnd() && isFloatContinuation(p.text[p.pos:])) {
		p.pos = start
		p.fail(start, "number")
		return false
	}

	p.code.Append(code.Word(int(v), p.line))
	return true
}

func isDigit(c byte, base int) bool {
	if '0' <= c && c <= '9' {
		return true
	}

	c = common.ToUpper(c)
	return base == 16 && 'A' <= c && c <= 'F'
}

// isFloatContinuation reports whether the text after a run of digits makes it
// a floating point literal
func isFloatContinuation(rest string) bool {
	switch rest[0] {
	case '.':
		return true
	case 'e', 'E':
		i := 1
		if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
			i++
		}
		return i < len(rest) && '0' <= rest[i] && rest[i] <= '9'
	}

	return false
}

// matchNumberFP matches a decimal floating point literal and encodes it.  A
// literal out of range aborts the compilation.
func (p *Parser) matchNumberFP() bool {
	p.skipBlanks()
	start := p.pos

	mantissa := 0
	for !p.atEnd() && isDigit(p.curr(), 10) {
		p.pos++
		mantissa++
	}

	if !p.atEnd() && p.curr() == '.' {
		p.pos++
		for !p.atEnd() && isDigit(p.curr(), 10) {
			p.pos++
			mantissa++
		}
	}

	if mantissa == 0 {
		p.pos = start
		p.fail(start, "number")
		return false
	}

	if !p.atEnd() && (p.curr() == 'E' || p.curr() == 'e') && isFloatContinuation(p.rest()) {
		p.pos++
		if p.curr() == '+' || p.curr() == '-' {
			p.pos++
		}
		for !p.atEnd() && isDigit(p.curr(), 10) {
			p.pos++
		}
	}

	n, err := atarifp.Encode(p.text[start:p.pos])
	if err != nil {
		p.pos = start
		p.fatal(err)
	}

	p.code.Append(code.Float(n, p.line))
	return true
}

// matchString matches a quoted string constant.  Two quotes in a row stand
// for one quote character.
func (p *Parser) matchString() bool {
	p.skipBlanks()
	start := p.pos

	if p.atEnd() || p.curr() != '"' {
		p.fail(start, "string")
		return false
	}
	p.pos++

	var buf []byte
	for {
		if p.atEnd() {
			p.fail(p.pos, "'\"'")
			p.pos = start
			return false
		}

		c := p.curr()
		p.pos++

		if c == '"' {
			if p.atEnd() || p.curr() != '"' {
				break
			}
			p.pos++
		}

		buf = append(buf, c)
	}

	if len(buf) > maxStringLength {
		p.fail(start, "shorter string")
		p.pos = start
		return false
	}

	p.code.Append(code.String(string(buf), p.line))
	return true
}

// -----------------------------------------------------------------------------
// Variables

// readIdent reads a variable name and its type suffix.  Names are normalized
// to uppercase; names spelled like a keyword are not variables.
func (p *Parser) readIdent() (string, byte, bool) {
	p.skipBlanks()
	start := p.pos

	if p.atEnd() || !common.IsIdentStart(p.curr()) {
		return "", 0, false
	}

	for !p.atEnd() && common.IsIdentChar(p.curr()) {
		p.pos++
	}

	name := make([]byte, 0, p.pos-start+1)
	for i := start; i < p.pos; i++ {
		name = append(name, common.ToUpper(p.text[i]))
	}

	var suffix byte
	if !p.atEnd() && (p.curr() == '$' || p.curr() == '%') {
		suffix = p.curr()
		name = append(name, suffix)
		p.pos++
	}

	base := name
	if suffix != 0 {
		base = name[:len(name)-1]
	}

	if p.cat.Reserved(string(name)) || p.cat.Reserved(string(base)) {
		p.pos = start
		return "", 0, false
	}

	return string(name), suffix, true
}

// readVarName reads a variable name with the given suffix
func (p *Parser) readVarName(suffix byte) (string, bool) {
	start := p.pos

	name, sfx, ok := p.readIdent()
	if !ok || sfx != suffix {
		p.pos = start
		p.skipBlanks()
		p.fail(p.pos, "variable")
		return "", false
	}

	return name, true
}

// varUse matches a variable that must already be defined with the given type
func varUse(typ VarType, suffix byte) externFunc {
	return func(p *Parser) bool {
		start := p.pos

		name, ok := p.readVarName(suffix)
		if !ok {
			return false
		}

		v, defined := p.vars.Lookup(name)
		if !defined || v.Type != typ {
			p.pos = start
			p.skipBlanks()
			p.fail(p.pos, typ.String()+" variable")
			return false
		}

		p.code.Append(code.Var(v.Slot, v.Name, p.line))
		return true
	}
}

// varSet matches a variable that is assigned to.  Undefined variables are
// defined with the given type.
func varSet(typ VarType, suffix byte) externFunc {
	return func(p *Parser) bool {
		start := p.pos

		name, ok := p.readVarName(suffix)
		if !ok {
			return false
		}

		v, _ := p.vars.Define(name, typ)
		if v.Type != typ {
			p.pos = start
			p.skipBlanks()
			p.fail(p.pos, typ.String()+" variable")
			return false
		}

		p.lastVar = v.Name
		p.code.Append(code.Var(v.Slot, v.Name, p.line))
		return true
	}
}

// varDim matches the name of a new array
func varDim(typ VarType) externFunc {
	return func(p *Parser) bool {
		start := p.pos

		name, ok := p.readVarName(0)
		if !ok {
			return false
		}

		v, isNew := p.vars.Define(name, typ)
		if !isNew {
			p.pos = start
			p.skipBlanks()
			p.fail(p.pos, "new variable name")
			return false
		}

		p.code.Append(code.Var(v.Slot, v.Name, p.line))
		return true
	}
}

// readSymbol reads an external symbol name after a prefix of `@` signs.  The
// case of the name is kept.
func (p *Parser) readSymbol(prefix string) (string, bool) {
	p.skipBlanks()
	start := p.pos

	for i := 0; i < len(prefix); i++ {
		if p.atEnd() || p.curr() != '@' {
			p.pos = start
			p.fail(start, "symbol")
			return "", false
		}
		p.pos++
	}

	nameStart := p.pos
	if p.atEnd() || !common.IsIdentStart(p.curr()) {
		p.pos = start
		p.fail(nameStart, "symbol name")
		return "", false
	}

	for !p.atEnd() && common.IsIdentChar(p.curr()) {
		p.pos++
	}

	return p.text[nameStart:p.pos], true
}

// matchSymWord matches `@name`, the address of an external symbol
func (p *Parser) matchSymWord() bool {
	name, ok := p.readSymbol("@")
	if !ok {
		return false
	}

	p.code.Append(code.WordSymbol(name, p.line))
	return true
}

// matchSymByte matches `@@name`, the address of a zero page symbol
func (p *Parser) matchSymByte() bool {
	name, ok := p.readSymbol("@@")
	if !ok {
		return false
	}

	p.code.Append(code.ByteSymbol(name, p.line))
	return true
}

// -----------------------------------------------------------------------------
// Blocks

func (p *Parser) newLabel() string {
	name := fmt.Sprintf("jump_lbl_%d", p.labels)
	p.labels++
	return name
}

func (p *Parser) emitLabel(name string) {
	p.code.Append(code.Label(name, p.line))
}

func (p *Parser) emitJump(tok, label string) {
	p.EmitToken(tok)
	p.code.Append(code.WordSymbol(label, p.line))
}

// popBlock checks that the innermost open block is one of the given kinds.
// Otherwise the keyword that closes the innermost block is what was expected.
func (p *Parser) popBlock(kinds ...LoopKind) (*LoopContext, bool) {
	top := p.loops
	if top == nil {
		p.skipBlanks()
		p.fail(p.pos, "open block")
		return nil, false
	}

	for _, k := range kinds {
		if top.Kind == k {
			p.loops = top.Parent
			return top, true
		}
	}

	p.skipBlanks()
	p.fail(p.pos, top.Kind.expected())
	return nil, false
}

// pushLoop opens a loop whose entry label is placed here
func (p *Parser) pushLoop(kind LoopKind) *LoopContext {
	entry := p.newLabel()
	p.emitLabel(entry)

	p.loops = p.loops.push(kind, entry, p.newLabel())
	return p.loops
}

func (p *Parser) pushDo() bool {
	p.pushLoop(LoopDo)
	return true
}

func (p *Parser) popDo() bool {
	lc, ok := p.popBlock(LoopDo)
	if !ok {
		return false
	}

	p.emitJump("TOK_JUMP", lc.Entry)
	p.emitLabel(lc.Exit)
	return true
}

func (p *Parser) pushWhile() bool {
	p.pushLoop(LoopWhile)
	return true
}

// whileCond leaves the loop when the condition just parsed is false
func (p *Parser) whileCond() bool {
	if p.loops == nil || p.loops.Kind != LoopWhile {
		return false
	}

	p.emitJump("TOK_CJUMP", p.loops.Exit)
	return true
}

func (p *Parser) popWhile() bool {
	lc, ok := p.popBlock(LoopWhile)
	if !ok {
		return false
	}

	p.emitJump("TOK_JUMP", lc.Entry)
	p.emitLabel(lc.Exit)
	return true
}

func (p *Parser) pushRepeat() bool {
	p.pushLoop(LoopRepeat)
	return true
}

// popRepeat loops back while the condition just parsed is false
func (p *Parser) popRepeat() bool {
	lc, ok := p.popBlock(LoopRepeat)
	if !ok {
		return false
	}

	p.emitJump("TOK_CJUMP", lc.Entry)
	p.emitLabel(lc.Exit)
	return true
}

// pushFor opens a FOR loop on the variable most recently assigned to, which
// is the loop variable named in the FOR statement
func (p *Parser) pushFor() bool {
	lc := p.pushLoop(LoopFor)
	lc.Var = p.lastVar
	return true
}

// popFor closes a FOR loop.  The loop variable may be repeated after NEXT.
func (p *Parser) popFor() bool {
	top := p.loops
	lc, ok := p.popBlock(LoopFor)
	if !ok {
		return false
	}

	cp := p.pos
	if name, _, named := p.readIdent(); named && name != lc.Var {
		p.pos = cp
		p.loops = top
		p.skipBlanks()
		p.fail(p.pos, "'"+lc.Var+"'")
		return false
	} else if !named {
		p.pos = cp
	}

	p.EmitToken("TOK_FOR_NEXT")
	p.emitJump("TOK_CJUMP", lc.Entry)
	p.emitLabel(lc.Exit)
	p.EmitToken("TOK_FOR_EXIT")
	return true
}

// pushIf skips the block when the condition just parsed is false
func (p *Parser) pushIf() bool {
	exit := p.newLabel()
	p.emitJump("TOK_CJUMP", exit)
	p.loops = p.loops.push(LoopIf, "", exit)
	return true
}

// pushIfThen opens the block of a single line IF.  Only popIfThen closes it,
// so the statement after THEN can neither open nor close other blocks.
func (p *Parser) pushIfThen() bool {
	exit := p.newLabel()
	p.emitJump("TOK_CJUMP", exit)
	p.loops = p.loops.push(LoopIfThen, "", exit)
	return true
}

func (p *Parser) popIfThen() bool {
	lc, ok := p.popBlock(LoopIfThen)
	if !ok {
		return false
	}

	p.emitLabel(lc.Exit)
	return true
}

// elif ends the block of the previous condition: it jumps to the end of the
// whole IF and places the label of the failed condition
func (p *Parser) elif() bool {
	lc, ok := p.popBlock(LoopIf)
	if !ok {
		return false
	}

	end := p.newLabel()
	p.emitJump("TOK_JUMP", end)
	p.emitLabel(lc.Exit)
	p.loops = p.loops.push(LoopElif, "", end)
	return true
}

func (p *Parser) elseBlock() bool {
	lc, ok := p.popBlock(LoopIf)
	if !ok {
		return false
	}

	end := p.newLabel()
	p.emitJump("TOK_JUMP", end)
	p.emitLabel(lc.Exit)
	p.loops = p.loops.push(LoopElse, "", end)
	return true
}

// popIf closes an IF, placing the labels of the block and of every ELIF
func (p *Parser) popIf() bool {
	lc, ok := p.popBlock(LoopIf, LoopElse)
	if !ok {
		return false
	}
	p.emitLabel(lc.Exit)

	for p.loops != nil && p.loops.Kind == LoopElif {
		p.emitLabel(p.loops.Exit)
		p.loops = p.loops.Parent
	}

	return true
}

func procLabel(name string) string {
	return "fb_lbl_" + name
}

// pushProc starts a procedure.  Code flowing into it jumps over its body.
func (p *Parser) pushProc() bool {
	cp := p.pos

	name, _, ok := p.readIdent()
	if !ok {
		p.pos = cp
		p.skipBlanks()
		p.fail(p.pos, "procedure name")
		return false
	}

	skip := p.newLabel()
	p.emitJump("TOK_JUMP", skip)
	p.emitLabel(procLabel(name))
	p.loops = p.loops.push(LoopProc, "", skip)
	return true
}

func (p *Parser) popProc() bool {
	lc, ok := p.popBlock(LoopProc)
	if !ok {
		return false
	}

	p.EmitToken("TOK_RET")
	p.emitLabel(lc.Exit)
	return true
}

func (p *Parser) callProc() bool {
	cp := p.pos

	name, _, ok := p.readIdent()
	if !ok {
		p.pos = cp
		p.skipBlanks()
		p.fail(p.pos, "procedure name")
		return false
	}

	p.emitJump("TOK_CALL", procLabel(name))
	return true
}

// exitLoop leaves the innermost loop, or returns from the procedure if there
// is no loop inside it
func (p *Parser) exitLoop() bool {
	for lc := p.loops; lc != nil; lc = lc.Parent {
		if lc.Kind.IsLoop() {
			p.emitJump("TOK_JUMP", lc.Exit)
			return true
		}

		if lc.Kind == LoopProc {
			p.EmitToken("TOK_RET")
			return true
		}
	}

	p.fail(p.pos, "loop to exit")
	return false
}
