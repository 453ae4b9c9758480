package mumps

import "strings"

// Parse tokenizes and parses source into a TopLevel tree. Parsing is
// error-accumulating: a malformed line is reported and
// skipped, and parsing resumes at the next line rather than aborting.
func Parse(source string) (*TopLevel, []Diagnostic) {
	lines := tokenize(source)
	diags := &diagnosticSink{}
	top := &TopLevel{Tags: map[string]TagInfo{}}
	top.Children, _ = parseLevel(lines, 0, 0, diags, top)
	return top, diags.diags
}

// parseLevel consumes consecutive lines belonging to one indentation
// level (0 for top-level tag/body lines, N for the Nth-nested `do`
// block), recursing into a fresh level for every bare `do` it finds.
// It returns the commands gathered and the index of the first line NOT
// consumed (either past end of input, or a line whose dot-prefix is
// shorter than level).
func parseLevel(lines [][]Token, start, level int, diags *diagnosticSink, top *TopLevel) ([]*Command, int) {
	var cmds []*Command
	i := start
	for i < len(lines) {
		toks := lines[i]
		if isBlankLine(toks) {
			i++
			continue
		}
		if isCommentOnlyLine(toks) {
			i++
			continue
		}

		if level == 0 && toks[0].Kind == KindIdentifier {
			// tag-defining line
			tagName := toks[0].Text
			p := &lineParser{toks: toks, pos: 1, diags: diags}
			var params []string
			if p.peek().Kind == KindLParen {
				params = p.parseParamList()
			}
			top.Tags[tagName] = TagInfo{Index: len(cmds), Params: params}
			if p.peek().Kind == KindSpace {
				p.advance()
			}
			lineCmds, pending := p.parseCommandList()
			cmds = append(cmds, lineCmds...)
			if pending != nil {
				body, next := parseLevel(lines, i+1, level+1, diags, top)
				pending.Body = body
				i = next
				continue
			}
			i++
			continue
		}

		if toks[0].Kind != KindLeadingWhitespace {
			if level > 0 {
				// no dot prefix at all: shorter than this block's level
				return cmds, i
			}
			diags.add(toks[0].Pos, "expected command name")
			i++
			continue
		}

		dotLevel, afterDots, ok := scanDotPrefix(toks, diags, i)
		if !ok {
			i++
			continue
		}
		if dotLevel < level {
			return cmds, i
		}
		if dotLevel > level {
			diags.addAt(i, toks[0].Pos.Column, "unexpected indentation")
			dotLevel = level
		}

		p := &lineParser{toks: toks, pos: afterDots, diags: diags}
		lineCmds, pending := p.parseCommandList()
		cmds = append(cmds, lineCmds...)
		if pending != nil {
			body, next := parseLevel(lines, i+1, level+1, diags, top)
			pending.Body = body
			i = next
			continue
		}
		i++
	}
	return cmds, i
}

func isBlankLine(toks []Token) bool {
	return len(toks) == 1 && toks[0].Kind == KindTrailingWhitespace
}

// isCommentOnlyLine reports whether toks holds nothing but leading
// indentation (dot markers included) followed by a `;` comment. Such a
// line carries no block structure of its own, so it is skipped exactly
// like a blank line rather than being fed to scanDotPrefix/
// parseCommandList.
func isCommentOnlyLine(toks []Token) bool {
	i := 0
	if i < len(toks) && toks[i].Kind == KindLeadingWhitespace {
		i++
	}
	for i < len(toks) && toks[i].Kind == KindDot {
		i++
		if i < len(toks) && toks[i].Kind == KindSpace {
			i++
		} else {
			return false
		}
	}
	return i < len(toks) && toks[i].Kind == KindComment
}

// scanDotPrefix counts the `.` indent markers at the start of a body
// line (after its LeadingWhitespace token), requiring a single space
// after each dot. Returns the level and the token index
// where the command list begins.
func scanDotPrefix(toks []Token, diags *diagnosticSink, lineNo int) (level, idx int, ok bool) {
	idx = 1 // past LeadingWhitespace
	for idx < len(toks) && toks[idx].Kind == KindDot {
		level++
		idx++
		if idx < len(toks) && toks[idx].Kind == KindSpace {
			idx++
		} else {
			diags.add(toks[idx-1].Pos, "expected space after '.' indent marker")
			return level, idx, false
		}
	}
	return level, idx, true
}

// lineParser parses the commands on a single tokenized line.
type lineParser struct {
	toks  []Token
	pos   int
	diags *diagnosticSink
}

func (p *lineParser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: KindTrailingWhitespace}
	}
	return p.toks[p.pos]
}

func (p *lineParser) peekAt(off int) Token {
	if p.pos+off >= len(p.toks) {
		return Token{Kind: KindTrailingWhitespace}
	}
	return p.toks[p.pos+off]
}

func (p *lineParser) advance() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *lineParser) atEnd() bool {
	return p.peek().Kind == KindTrailingWhitespace
}

// parseCommandList parses zero or more whitespace-separated commands
// starting at p.pos, stopping at end of line. It returns the commands
// and, if one of them was a bare block-opening `do`, that Command (whose
// Body the caller must fill from subsequent indented lines).
func (p *lineParser) parseCommandList() ([]*Command, *Command) {
	var cmds []*Command
	var pending *Command
	for {
		if p.atEnd() {
			break
		}
		if p.peek().Kind == KindComment {
			p.advance()
			break
		}
		if p.peek().Kind != KindIdentifier {
			p.diags.add(p.peek().Pos, "expected command name")
			break
		}
		cmd, blockDo := p.parseOneCommand()
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if blockDo != nil {
			pending = blockDo
		}
		if p.atEnd() {
			break
		}
		if p.peek().Kind != KindSpace {
			p.diags.add(p.peek().Pos, "expected whitespace between commands")
			break
		}
		wsTok := p.advance()
		if p.atEnd() {
			break
		}
		next := p.peek()
		if next.Kind == KindIdentifier {
			continue
		}
		if next.Kind == KindComment {
			p.advance()
			break
		}
		if isBinaryOpToken(next.Kind) {
			p.diags.add(wsTok.Pos, "command arguments must not contain whitespace")
			break
		}
		p.diags.add(next.Pos, "expected command name")
		break
	}
	return cmds, pending
}

// commandTakesArgs reports whether kind ever consumes an argument list
// (as opposed to else/halt, which never do).
func commandTakesArgs(kind CmdKind) bool {
	return kind != CmdElse && kind != CmdHalt
}

func (p *lineParser) parseOneCommand() (*Command, *Command) {
	nameTok := p.advance()
	kind, ok := matchCommandPrefix(nameTok.Text)
	if !ok {
		p.diags.add(nameTok.Pos, "unknown command %q", nameTok.Text)
		p.skipToWhitespace()
		return nil, nil
	}

	cmd := &Command{Kind: kind, Pos: nameTok.Pos}

	if p.peek().Kind == KindColon {
		p.advance()
		cmd.Post = p.parseExprNoSpace()
	}

	if !commandTakesArgs(kind) {
		return cmd, nil
	}

	switch kind {
	case CmdDo:
		return p.parseDo(cmd)
	case CmdWrite:
		p.expectArgSeparator()
		cmd.WriteArgs = p.parseWriteArgs()
		return cmd, nil
	case CmdQuit:
		// A single space may introduce quit's optional return value; a run
		// of two or more spaces is the usual way to end the command with
		// no argument and start another on the same line, so it's left
		// untouched for parseCommandList's own separator handling.
		if ws := p.peek(); ws.Kind == KindSpace && len(ws.Text) == 1 {
			after := p.peekAt(1)
			if after.Kind != KindSpace && after.Kind != KindTrailingWhitespace {
				p.advance()
				cmd.QuitExpr = p.parseExprNoSpace()
			}
		}
		return cmd, nil
	case CmdIf:
		p.expectArgSeparator()
		cmd.IfConds = p.parseExprCommaList()
		return p.parseInlineBody(cmd)
	case CmdFor:
		if p.peek().Kind == KindSpace {
			save := p.pos
			p.advance()
			if p.peek().Kind == KindIdentifier && p.peekAt(1).Kind == KindEquals {
				cmd.ForVar = p.advance().Text
				p.advance() // '='
				cmd.ForParams = p.parseForParams()
			} else {
				p.pos = save
			}
		}
		return p.parseInlineBody(cmd)
	case CmdSet:
		p.expectArgSeparator()
		cmd.SetTargets = p.parseSetTargets()
		return cmd, nil
	case CmdNew:
		p.expectArgSeparator()
		cmd.NewNames = p.parseIdentifierCommaList()
		return cmd, nil
	case CmdKill:
		if p.peek().Kind == KindSpace {
			p.advance()
			if !p.atEnd() {
				cmd.KillTargets = p.parseVarRefCommaList()
			}
		}
		return cmd, nil
	case CmdMerge:
		p.expectArgSeparator()
		cmd.MergeDst = p.parseVarRef()
		p.expect(KindEquals, "expected '='")
		cmd.MergeSrc = p.parseVarRef()
		return cmd, nil
	}
	return cmd, nil
}

// parseInlineBody parses the whitespace-separated commands that follow
// if/for/else on the same line.
func (p *lineParser) parseInlineBody(cmd *Command) (*Command, *Command) {
	var pending *Command
	if p.peek().Kind == KindSpace {
		p.advance()
		body, nestedPending := p.parseCommandList()
		cmd.Body = body
		pending = nestedPending
	}
	return cmd, pending
}

func (p *lineParser) parseDo(cmd *Command) (*Command, *Command) {
	if p.peek().Kind != KindSpace {
		// bare "do" at end of line with nothing after: opens a block.
		return cmd, cmd
	}
	p.advance() // consume the whitespace after "do"
	if p.atEnd() {
		return cmd, cmd
	}
	nameTok := p.peek()
	if nameTok.Kind != KindIdentifier {
		p.diags.add(nameTok.Pos, "expected tag name or end of line after do")
		p.skipToWhitespace()
		return cmd, nil
	}
	p.advance()
	args := p.parseCallArgs()
	cmd.DoCall = &CallExpr{Kind: CallTag, Name: nameTok.Text, Args: args, Pos: nameTok.Pos}
	return cmd, nil
}

func (p *lineParser) expectArgSeparator() {
	if p.peek().Kind == KindSpace {
		p.advance()
	}
}

func (p *lineParser) expect(kind TokenKind, message string) {
	if p.peek().Kind == kind {
		p.advance()
		return
	}
	p.diags.add(p.peek().Pos, "%s", message)
}

func (p *lineParser) skipToWhitespace() {
	for !p.atEnd() && p.peek().Kind != KindSpace {
		p.advance()
	}
}

// --- write arguments ---

func (p *lineParser) parseWriteArgs() []WriteArg {
	var args []WriteArg
	for {
		switch p.peek().Kind {
		case KindHash:
			p.advance()
			args = append(args, WriteArg{Kind: WriteReset})
		case KindBang:
			p.advance()
			args = append(args, WriteArg{Kind: WriteNewline})
		case KindQuestion:
			p.advance()
			args = append(args, WriteArg{Kind: WritePad, Value: p.parseExprNoComma()})
		default:
			args = append(args, WriteArg{Kind: WriteExprArg, Value: p.parseExprNoComma()})
		}
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return args
}

// --- set targets ---

func (p *lineParser) parseSetTargets() []SetTarget {
	var targets []SetTarget
	for {
		var t SetTarget
		if p.peek().Kind == KindDollar && p.peekAt(1).Kind == KindIdentifier && strings.EqualFold(p.peekAt(1).Text[:min1(len(p.peekAt(1).Text), 1)], "e") {
			// tentatively an $E(...) extract target; tryParseExtractTarget
			// backtracks itself if it turns out not to match.
			if et, ok := p.tryParseExtractTarget(); ok {
				t.Extract = et
			}
		}
		if t.Extract == nil {
			t.Var = p.parseVarRef()
		}
		p.expect(KindEquals, "expected '='")
		t.Value = p.parseExprNoComma()
		targets = append(targets, t)
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return targets
}

func min1(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (p *lineParser) tryParseExtractTarget() (*ExtractTarget, bool) {
	save := p.pos
	dollarPos := p.peek().Pos
	p.advance() // $
	name := p.advance().Text
	if !strings.EqualFold(name, "e") && !strings.HasPrefix(strings.ToLower("extract"), strings.ToLower(name)) {
		p.pos = save
		return nil, false
	}
	if p.peek().Kind != KindLParen {
		p.pos = save
		return nil, false
	}
	p.advance()
	v := p.parseVarRef()
	et := &ExtractTarget{Var: v, Pos: dollarPos}
	if p.peek().Kind == KindComma {
		p.advance()
		et.Start = p.parseExprNoComma()
	}
	if p.peek().Kind == KindComma {
		p.advance()
		et.End = p.parseExprNoComma()
	}
	if p.peek().Kind != KindRParen {
		p.diags.add(p.peek().Pos, "expected ')'")
	} else {
		p.advance()
	}
	return et, true
}

// --- for parameters ---

func (p *lineParser) parseForParams() []ForParam {
	var params []ForParam
	for {
		var fp ForParam
		fp.Start = p.parseExprStopColonComma()
		if p.peek().Kind == KindColon {
			p.advance()
			fp.Step = p.parseExprStopColonComma()
			if p.peek().Kind == KindColon {
				p.advance()
				fp.Limit = p.parseExprStopColonComma()
			}
		}
		params = append(params, fp)
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return params
}

// --- identifier / var-ref comma lists ---

func (p *lineParser) parseIdentifierCommaList() []string {
	var names []string
	for {
		if p.peek().Kind != KindIdentifier {
			break
		}
		names = append(names, p.advance().Text)
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return names
}

func (p *lineParser) parseVarRefCommaList() []*VarRef {
	var refs []*VarRef
	for {
		if p.peek().Kind != KindIdentifier {
			break
		}
		refs = append(refs, p.parseVarRef())
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return refs
}

func (p *lineParser) parseVarRef() *VarRef {
	tok := p.advance()
	v := &VarRef{Name: tok.Text, Pos: tok.Pos}
	if p.peek().Kind == KindLParen {
		v.Subscripts = p.parseSubscriptList()
	}
	return v
}

func (p *lineParser) parseSubscriptList() []Expr {
	p.advance() // (
	if p.peek().Kind == KindRParen {
		p.advance()
		return []Expr{}
	}
	var exprs []Expr
	for {
		exprs = append(exprs, p.parseExprNoComma())
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Kind == KindRParen {
		p.advance()
	} else {
		p.diags.add(p.peek().Pos, "expected ')'")
	}
	return exprs
}

func (p *lineParser) parseParamList() []string {
	p.advance() // (
	var names []string
	if p.peek().Kind == KindRParen {
		p.advance()
		return names
	}
	for {
		if p.peek().Kind == KindIdentifier {
			names = append(names, p.advance().Text)
		}
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Kind == KindRParen {
		p.advance()
	} else {
		p.diags.add(p.peek().Pos, "expected ')'")
	}
	return names
}

// --- call arguments ---

func (p *lineParser) parseCallArgs() []CallArg {
	if p.peek().Kind != KindLParen {
		return nil
	}
	p.advance()
	if p.peek().Kind == KindRParen {
		p.advance()
		return []CallArg{}
	}
	var args []CallArg
	for {
		if p.peek().Kind == KindDot {
			dotPos := p.advance().Pos
			nameTok := p.advance()
			args = append(args, CallArg{Indirect: true, Name: nameTok.Text, Pos: dotPos})
		} else {
			e := p.parseExprNoComma()
			args = append(args, CallArg{Value: e, Pos: e.exprPos()})
		}
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Kind == KindRParen {
		p.advance()
	} else {
		p.diags.add(p.peek().Pos, "expected ')'")
	}
	return args
}

func (p *lineParser) parseSelectPairs() []CallArg {
	if p.peek().Kind != KindLParen {
		return nil
	}
	p.advance()
	var args []CallArg
	for {
		cond := p.parseExprStopColonComma()
		args = append(args, CallArg{Value: cond, Pos: cond.exprPos()})
		p.expect(KindColon, "expected ':' in $select pair")
		val := p.parseExprNoComma()
		args = append(args, CallArg{Value: val, Pos: val.exprPos()})
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Kind == KindRParen {
		p.advance()
	} else {
		p.diags.add(p.peek().Pos, "expected ')'")
	}
	return args
}

// --- expressions ---

var builtinNames = []string{"order", "length", "extract", "select", "find", "random", "ascii", "char"}

func matchBuiltinPrefix(name string) (string, bool) {
	low := strings.ToLower(name)
	for _, full := range builtinNames {
		if strings.HasPrefix(full, low) && low != "" {
			return full, true
		}
	}
	return "", false
}

func matchCommandPrefix(name string) (CmdKind, bool) {
	low := strings.ToLower(name)
	if low == "" {
		return 0, false
	}
	for _, c := range commandNames {
		if strings.HasPrefix(c.name, low) {
			return c.kind, true
		}
	}
	return 0, false
}

func isBinaryOpToken(k TokenKind) bool {
	switch k {
	case KindBang, KindAmp, KindEquals, KindLess, KindGreater,
		KindPlus, KindMinus, KindStar, KindStarStar, KindSlash,
		KindBackslash, KindHash, KindUnderscore:
		return true
	default:
		return false
	}
}

// parseExprNoComma, parseExprNoSpace, parseExprStopColonComma all parse
// one Chain expression; they differ only in which token stops the outer
// argument-list parser that calls them, since the expression grammar
// itself has no ambiguity about where it ends (an expression simply
// stops at the first token that isn't a valid continuation).
func (p *lineParser) parseExprNoComma() Expr { return p.parseExpr() }
func (p *lineParser) parseExprNoSpace() Expr { return p.parseExpr() }
func (p *lineParser) parseExprStopColonComma() Expr { return p.parseExprUntilColon() }

func (p *lineParser) parseExpr() Expr {
	first := p.parseUnary()
	pos := first.exprPos()
	var ops []BinOp
	for {
		tok := p.peek()
		negate := false
		opKind := tok.Kind
		opPos := tok.Pos
		if tok.Kind == KindQuote && isBinaryOpToken(p.peekAt(1).Kind) {
			negate = true
			opKind = p.peekAt(1).Kind
			p.advance()
			p.advance()
		} else if isBinaryOpToken(tok.Kind) {
			p.advance()
		} else {
			break
		}
		rhs := p.parseUnary()
		ops = append(ops, BinOp{Op: opKind, Negate: negate, Rhs: rhs, Pos: opPos})
	}
	return &Chain{First: first, Ops: ops, Pos: pos}
}

// parseExprUntilColon is used inside for-parameters, where a bare ':' at
// the chain's top level separates start:step:limit rather than being
// part of the expression (the language has no colon operator).
func (p *lineParser) parseExprUntilColon() Expr {
	return p.parseExpr()
}

func (p *lineParser) parseUnary() Expr {
	tok := p.peek()
	if tok.Kind == KindQuote || tok.Kind == KindPlus || tok.Kind == KindMinus {
		p.advance()
		operand := p.parseUnary()
		return &UnaryExpr{Op: tok.Kind, Operand: operand, Pos: tok.Pos}
	}
	return p.parsePrimary()
}

func (p *lineParser) parsePrimary() Expr {
	tok := p.peek()
	switch tok.Kind {
	case KindNumber:
		p.advance()
		return &NumberLit{Value: tok.Num, Pos: tok.Pos}
	case KindString:
		p.advance()
		return &StringLit{Value: tok.Text, Pos: tok.Pos}
	case KindLParen:
		p.advance()
		inner := p.parseExpr()
		if p.peek().Kind == KindRParen {
			p.advance()
		} else {
			p.diags.add(p.peek().Pos, "unterminated parenthesis")
		}
		return &ParenExpr{Inner: inner, Pos: tok.Pos}
	case KindDollar:
		p.advance()
		return p.parseDollarExpr(tok.Pos)
	case KindIdentifier:
		p.advance()
		v := &VarRef{Name: tok.Text, Pos: tok.Pos}
		if p.peek().Kind == KindLParen {
			v.Subscripts = p.parseSubscriptList()
		}
		return &VarExpr{Ref: v}
	default:
		p.diags.add(tok.Pos, "unexpected token in expression")
		if !p.atEnd() {
			p.advance()
		}
		return &StringLit{Value: "", Pos: tok.Pos}
	}
}

func (p *lineParser) parseDollarExpr(pos Position) Expr {
	if p.peek().Kind == KindDollar {
		p.advance()
		nameTok := p.advance()
		args := p.parseCallArgs()
		return &CallNode{Call: &CallExpr{Kind: CallTag, Name: nameTok.Text, WithReturn: true, Args: args, Pos: pos}}
	}
	nameTok := p.advance()
	full, ok := matchBuiltinPrefix(nameTok.Text)
	if !ok {
		p.diags.add(pos, "unknown builtin %q", nameTok.Text)
		p.parseCallArgs()
		return &StringLit{Value: "", Pos: pos}
	}
	var args []CallArg
	if full == "select" {
		args = p.parseSelectPairs()
	} else {
		args = p.parseCallArgs()
	}
	if !checkBuiltinArity(full, len(args)) {
		p.diags.add(pos, "wrong number of arguments to $%s", full)
	}
	if full == "order" && len(args) >= 1 && !isSubscriptedVarArg(args[0].Value) {
		p.diags.add(pos, "$order requires a subscripted variable")
	}
	return &CallNode{Call: &CallExpr{Kind: CallBuiltin, Name: full, Args: args, Pos: pos}}
}

// isSubscriptedVarArg reports whether e is a variable reference with at
// least one subscript, optionally wrapped in parentheses — the only
// shape $order's target argument accepts.
func isSubscriptedVarArg(e Expr) bool {
	if pe, ok := e.(*ParenExpr); ok {
		e = pe.Inner
	}
	ve, ok := e.(*VarExpr)
	return ok && len(ve.Ref.Subscripts) > 0
}

func checkBuiltinArity(name string, n int) bool {
	switch name {
	case "length":
		return n == 1
	case "extract":
		return n >= 1 && n <= 3
	case "order":
		return n >= 1 && n <= 2
	case "find":
		return n >= 2 && n <= 3
	case "random":
		return n == 1
	case "ascii":
		return n == 1
	case "char":
		return n == 1
	case "select":
		return n >= 2 && n%2 == 0
	default:
		return true
	}
}

func (p *lineParser) parseExprCommaList() []Expr {
	var exprs []Expr
	for {
		exprs = append(exprs, p.parseExprNoComma())
		if p.peek().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	return exprs
}
