package chasmc

import (
	"log"
	"strings"
)

// argRegs is the x86-64 integer argument-passing order (spec.md §4.5).
var argRegs = [6]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// Parser walks one file's token stream and emits assembly directly —
// there is no retained AST (spec.md §2, §9). It shares func/global/macro
// symbol tables and the import set with every other file compiled in
// the same translation, via ctx and imports.
type Parser struct {
	lex     *Lexer
	cur     Token
	out     *Out
	ctx     *CompileContext
	imports *ImportSet
	path    string

	currentNamespace string
	using            []string
	currentSection   Section
}

func (p *Parser) advance() { p.cur = p.lex.Next() }

func (p *Parser) expect(kind TokenKind, msg string) {
	if p.cur.Kind != kind {
		fatalf(p.cur, "%s", msg)
	}
	p.advance()
}

func (p *Parser) skipNewlines() {
	for p.cur.Kind == TOKEN_NEWLINE {
		p.advance()
	}
}

func (p *Parser) resolveRef(tok Token, name, ns string, table *SymbolTable) string {
	return ResolveReferenceName(tok, p.currentNamespace, name, ns, p.using, table)
}

func parseQualifiedName(p *Parser) QualifiedName {
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected identifier")
	}
	first := p.cur.Value
	p.advance()
	if p.cur.Kind == TOKEN_SCOPE {
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected identifier after '::'")
		}
		second := p.cur.Value
		p.advance()
		return QualifiedName{Name: second, NS: first}
	}
	return QualifiedName{Name: first}
}

func emitLoadLocal(out *Out, tok Token, f *FrameLayout, name string) {
	l := f.Find(name)
	if l == nil {
		fatalf(tok, "unknown identifier %q (local not found)", name)
	}
	sz := l.Type.NasmSize()
	switch {
	case l.Type.Size() == 8:
		out.Line("mov rax, %s [rbp%+d]", sz, l.RBPOffset)
	case l.Type.Signed():
		out.Line("movsx rax, %s [rbp%+d]", sz, l.RBPOffset)
	default:
		out.Line("movzx rax, %s [rbp%+d]", sz, l.RBPOffset)
	}
}

func emitStoreLocal(out *Out, tok Token, f *FrameLayout, name string) {
	l := f.Find(name)
	if l == nil {
		fatalf(tok, "unknown identifier %q (local not found)", name)
	}
	sz := l.Type.NasmSize()
	switch l.Type.Kind {
	case TypeU8, TypeI8:
		out.Line("mov %s [rbp%+d], al", sz, l.RBPOffset)
	case TypeU16, TypeI16:
		out.Line("mov %s [rbp%+d], ax", sz, l.RBPOffset)
	case TypeU32, TypeI32:
		out.Line("mov %s [rbp%+d], eax", sz, l.RBPOffset)
	default:
		out.Line("mov %s [rbp%+d], rax", sz, l.RBPOffset)
	}
}

func emitLoadGlobal(out *Out, tok Token, globals *GlobalTable, name string) {
	g := globals.Find(name)
	if g == nil {
		fatalf(tok, "unknown identifier %q (global not found)", name)
	}
	sz := g.Type.NasmSize()
	switch {
	case g.Type.Size() == 8:
		out.Line("mov rax, %s [rel %s]", sz, name)
	case g.Type.Signed():
		out.Line("movsx rax, %s [rel %s]", sz, name)
	default:
		out.Line("movzx rax, %s [rel %s]", sz, name)
	}
}

func emitStoreGlobal(out *Out, tok Token, globals *GlobalTable, name string) {
	g := globals.Find(name)
	if g == nil {
		fatalf(tok, "unknown identifier %q (global not found)", name)
	}
	sz := g.Type.NasmSize()
	switch g.Type.Kind {
	case TypeU8, TypeI8:
		out.Line("mov %s [rel %s], al", sz, name)
	case TypeU16, TypeI16:
		out.Line("mov %s [rel %s], ax", sz, name)
	case TypeU32, TypeI32:
		out.Line("mov %s [rel %s], eax", sz, name)
	default:
		out.Line("mov %s [rel %s], rax", sz, name)
	}
}

// emitExpr implements expr := factor (('+'|'-') factor)* (spec.md §4.5):
// the left operand is preserved in rbx (scratch) across the right
// operand's evaluation.
func (p *Parser) emitExpr(f *FrameLayout) {
	p.emitFactor(f)
	for p.cur.Kind == TOKEN_PLUS || p.cur.Kind == TOKEN_MINUS {
		op := p.cur.Kind
		p.advance()
		p.out.Line("mov rbx, rax")
		p.emitFactor(f)
		if op == TOKEN_PLUS {
			p.out.Line("add rax, rbx")
		} else {
			p.out.Line("sub rbx, rax")
			p.out.Line("mov rax, rbx")
		}
	}
}

// emitFactor implements factor := INT | '-' factor | '&' name |
// '*' name | name ('(' args? ')')? | '(' expr ')' (spec.md §4.5).
func (p *Parser) emitFactor(f *FrameLayout) {
	switch p.cur.Kind {
	case TOKEN_MINUS:
		p.advance()
		p.emitFactor(f)
		p.out.Line("neg rax")
		return

	case TOKEN_INT:
		if p.cur.Value == "0" {
			p.out.Line("xor rax, rax")
		} else {
			p.out.Line("mov rax, %s", p.cur.Value)
		}
		p.advance()
		return

	case TOKEN_AMP:
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected identifier after '&'")
		}
		tok := p.cur
		qn := parseQualifiedName(p)
		name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
		p.out.Line("lea rax, [rel %s]", name)
		return

	case TOKEN_STAR:
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected identifier after '*'")
		}
		tok := p.cur
		qn := parseQualifiedName(p)
		if local := f.Find(qn.Name); local != nil {
			emitLoadLocal(p.out, tok, f, qn.Name)
		} else {
			name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
			emitLoadGlobal(p.out, tok, &p.ctx.Globals, name)
		}
		p.out.Line("mov rbx, rax")
		p.out.Line("mov rax, [rbx]")
		return

	case TOKEN_IDENT:
		tok := p.cur
		qn := parseQualifiedName(p)

		if qn.NS != "" {
			if p.cur.Kind != TOKEN_LPAREN {
				fatalf(p.cur, "namespaced identifier must be a call")
			}
			p.advance()
			fname := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Funcs)
			p.emitCall(f, fname)
			return
		}

		if p.cur.Kind == TOKEN_LPAREN {
			p.advance()
			fname := p.resolveRef(tok, qn.Name, "", &p.ctx.Funcs)
			p.emitCall(f, fname)
			return
		}

		if local := f.Find(qn.Name); local != nil {
			emitLoadLocal(p.out, tok, f, qn.Name)
		} else {
			name := p.resolveRef(tok, qn.Name, "", &p.ctx.Globals.Symbols)
			emitLoadGlobal(p.out, tok, &p.ctx.Globals, name)
		}
		return

	case TOKEN_LPAREN:
		p.advance()
		p.emitExpr(f)
		p.expect(TOKEN_RPAREN, "expected ')'")
		return
	}
	fatalf(p.cur, "expected expression atom")
}

func (p *Parser) emitCall(f *FrameLayout, callee string) {
	argc := 0
	if p.cur.Kind != TOKEN_RPAREN {
		for {
			p.emitExpr(f)
			if argc >= 6 {
				fatalf(p.cur, "too many args (supports 6)")
			}
			p.out.Line("mov %s, rax", argRegs[argc])
			argc++
			if p.cur.Kind == TOKEN_COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(TOKEN_RPAREN, "expected ')' after call args")
	p.out.Line("call %s", callee)
}

// parseInlineBlock captures an `@asm { ... }` block's contents verbatim
// by brace-balancing directly over the source bytes, bypassing the
// lexer entirely, then resyncs line/col before resuming tokenization
// (spec.md §4.6, grounded on the original parse_inline_block).
func (p *Parser) parseInlineBlock() string {
	if p.cur.Kind != TOKEN_AT {
		fatalf(p.cur, "expected @asm")
	}
	p.advance()
	if p.cur.Kind != TOKEN_IDENT || p.cur.Value != "asm" {
		fatalf(p.cur, "expected asm after @")
	}
	p.advance()
	if p.cur.Kind != TOKEN_LBRACE {
		fatalf(p.cur, "expected '{' after @asm")
	}

	src := p.lex.Src()
	start := p.lex.RawPos()
	depth := 1
	i := start
	for i < len(src) && depth > 0 {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		i++
	}
	if depth != 0 {
		fatalf(p.cur, "unterminated @asm block")
	}
	end := i - 1

	line, col := p.cur.Line, p.cur.Col
	for j := start; j < end; j++ {
		if src[j] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	p.lex.SeekTo(i, line, col)
	p.advance()

	return src[start:end]
}

// captureUntilEnddef captures a macro body verbatim between the header
// colon and the `enddef` keyword (spec.md §4.7).
func (p *Parser) captureUntilEnddef() string {
	src := p.lex.Src()
	bodyStart := p.cur.Pos
	for p.cur.Kind != TOKEN_EOF {
		if p.cur.Kind == TOKEN_IDENT && p.cur.Value == "enddef" {
			body := src[bodyStart:p.cur.Pos]
			p.advance()
			return body
		}
		p.advance()
	}
	fatalf(p.cur, "unterminated macro definition")
	return ""
}

// emitMacroInvocation handles `$name[, arg1, arg2, ...];` (spec.md §4.7):
// arguments are segmented at top-level commas directly from source
// bytes (so an argument may itself contain arbitrary expression text),
// trimmed, and empty arguments are dropped.
func (p *Parser) emitMacroInvocation() {
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected macro name after '$'")
	}
	tok := p.cur
	qn := parseQualifiedName(p)
	macroName := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Macros.Symbols)

	var args []string
	if p.cur.Kind == TOKEN_COMMA {
		p.advance()
		if p.cur.Kind != TOKEN_SEMI {
			src := p.lex.Src()
			argStart := p.cur.Pos
			argEnd := argStart
			depth := 0
			for {
				if p.cur.Kind == TOKEN_SEMI {
					if arg := strings.TrimSpace(src[argStart:argEnd]); arg != "" {
						args = append(args, arg)
					}
					break
				}
				if p.cur.Kind == TOKEN_COMMA && depth == 0 {
					if arg := strings.TrimSpace(src[argStart:argEnd]); arg != "" {
						args = append(args, arg)
					}
					p.advance()
					argStart = p.cur.Pos
					argEnd = argStart
					continue
				}
				switch p.cur.Kind {
				case TOKEN_LPAREN, TOKEN_LBRACKET:
					depth++
				case TOKEN_RPAREN, TOKEN_RBRACKET:
					depth--
				}
				argEnd = p.cur.End
				p.advance()
			}
		} else {
			p.advance()
		}
	} else {
		p.expect(TOKEN_SEMI, "expected ';' after macro invocation")
	}

	if macro := p.ctx.Macros.Find(macroName); macro != nil {
		expanded := expandMacroBody(macro.Body, args)
		emitAsmFromText(p.out, expanded)
	} else if len(args) > 0 {
		p.out.Line("%s %s", macroName, strings.Join(args, ", "))
	} else {
		p.out.Line("%s", macroName)
	}

	if p.cur.Kind == TOKEN_SEMI {
		p.advance()
	}
}

func (p *Parser) statementLet(f *FrameLayout) {
	p.advance()
	pointerName := false
	if p.cur.Kind == TOKEN_STAR {
		pointerName = true
		p.advance()
	}
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected local name after let")
	}
	lname := p.cur.Value
	p.advance()

	ty := Type{TypeUnknown}
	if p.cur.Kind == TOKEN_COLON {
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected type name")
		}
		ty = ParseTypeName(p.cur)
		if ty.Kind == TypeUnknown {
			fatalf(p.cur, "unknown type name")
		}
		p.advance()
	}
	if ty.Kind == TypeUnknown && pointerName {
		ty.Kind = TypeU64
	}
	if ty.Kind == TypeUnknown {
		ty.Kind = TypeU64
	}

	tok := p.cur
	if p.cur.Kind == TOKEN_EQ {
		p.advance()
		p.emitExpr(f)
	} else {
		p.out.Line("xor rax, rax")
	}
	p.expect(TOKEN_SEMI, "expected ';' after let")

	f.Add(lname, ty)
	emitStoreLocal(p.out, tok, f, lname)
}

func (p *Parser) statementReturn(f *FrameLayout) {
	p.advance()
	if p.cur.Kind != TOKEN_SEMI {
		p.emitExpr(f)
	} else {
		p.out.Line("xor rax, rax")
	}
	p.expect(TOKEN_SEMI, "expected ';' after return")

	p.out.Line("leave")
	p.out.Line("ret")
	for p.cur.Kind != TOKEN_DEDENT && p.cur.Kind != TOKEN_EOF {
		p.advance()
	}
	if p.cur.Kind == TOKEN_DEDENT {
		p.advance()
	}
	if p.cur.Kind == TOKEN_IDENT && p.cur.Value == "end" {
		p.advance()
	}
}

func (p *Parser) statementSet(f *FrameLayout) {
	p.advance()
	deref := false
	if p.cur.Kind == TOKEN_STAR {
		deref = true
		p.advance()
	}
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected name after set")
	}
	tok := p.cur
	qn := parseQualifiedName(p)
	if p.cur.Kind == TOKEN_COLON {
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected type after ':'")
		}
		p.advance()
	}
	p.expect(TOKEN_EQ, "expected '=' after set target")
	p.emitExpr(f)
	p.expect(TOKEN_SEMI, "expected ';' after set")

	if deref {
		p.out.Line("mov rcx, rax")
		if local := f.Find(qn.Name); local != nil {
			emitLoadLocal(p.out, tok, f, qn.Name)
		} else {
			name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
			emitLoadGlobal(p.out, tok, &p.ctx.Globals, name)
		}
		p.out.Line("mov rbx, rax")
		p.out.Line("mov [rbx], rcx")
		return
	}

	if local := f.Find(qn.Name); local != nil {
		emitStoreLocal(p.out, tok, f, qn.Name)
	} else {
		name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
		emitStoreGlobal(p.out, tok, &p.ctx.Globals, name)
	}
}

func (p *Parser) statementPush(f *FrameLayout) {
	p.advance()
	for {
		p.emitExpr(f)
		p.out.Line("push rax")
		if p.cur.Kind == TOKEN_COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(TOKEN_SEMI, "expected ';' after push")
}

func (p *Parser) statementPop(f *FrameLayout) {
	p.advance()
	for {
		deref := false
		if p.cur.Kind == TOKEN_STAR {
			deref = true
			p.advance()
		}
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected identifier after pop")
		}
		tok := p.cur
		qn := parseQualifiedName(p)
		if p.cur.Kind == TOKEN_COLON {
			p.advance()
			if p.cur.Kind == TOKEN_IDENT {
				p.advance()
			}
		}
		p.out.Line("pop rax")
		if deref {
			p.out.Line("mov rcx, rax")
			if local := f.Find(qn.Name); local != nil {
				emitLoadLocal(p.out, tok, f, qn.Name)
			} else {
				name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
				emitLoadGlobal(p.out, tok, &p.ctx.Globals, name)
			}
			p.out.Line("mov rbx, rax")
			p.out.Line("mov [rbx], rcx")
		} else {
			if local := f.Find(qn.Name); local != nil {
				emitStoreLocal(p.out, tok, f, qn.Name)
			} else {
				name := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Globals.Symbols)
				emitStoreGlobal(p.out, tok, &p.ctx.Globals, name)
			}
		}
		if p.cur.Kind == TOKEN_COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(TOKEN_SEMI, "expected ';' after pop")
}

// statementVoid swallows tokens through ';' and emits nothing — its
// intended semantics are unclear in the source material (spec.md §9);
// behavior is preserved as a pure no-op, with an opt-in diagnostic.
func (p *Parser) statementVoid() {
	tok := p.cur
	p.advance()
	for p.cur.Kind != TOKEN_SEMI && p.cur.Kind != TOKEN_EOF {
		p.advance()
	}
	p.expect(TOKEN_SEMI, "expected ';' after void")
	if p.ctx.Config != nil && p.ctx.Config.Diagnostics.WarnVoid {
		log.Printf("chasmc: %s:%d:%d: void statement skipped", p.path, tok.Line, tok.Col)
	}
}

func (p *Parser) statementCall(f *FrameLayout) {
	p.advance()
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected function name after call")
	}
	tok := p.cur
	qn := parseQualifiedName(p)
	p.expect(TOKEN_LPAREN, "expected '(' after call name")
	fname := p.resolveRef(tok, qn.Name, qn.NS, &p.ctx.Funcs)
	p.emitCall(f, fname)
	p.expect(TOKEN_SEMI, "expected ';' after call")
}

// parseFuncBody drives the statement loop inside a function body,
// between the opening INDENT (already consumed) and the closing
// DEDENT (spec.md §4.6).
func (p *Parser) parseFuncBody(f *FrameLayout) {
	for {
		switch {
		case p.cur.Kind == TOKEN_DEDENT:
			p.advance()
			if p.cur.Kind == TOKEN_IDENT && p.cur.Value == "end" {
				p.advance()
			}
			return
		case p.cur.Kind == TOKEN_NEWLINE:
			p.advance()
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "let":
			p.statementLet(f)
		case p.cur.Kind == TOKEN_IDENT && (p.cur.Value == "ret" || p.cur.Value == "return"):
			p.statementReturn(f)
			return
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "set":
			p.statementSet(f)
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "push":
			p.statementPush(f)
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "pop":
			p.statementPop(f)
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "void":
			p.statementVoid()
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "call":
			p.statementCall(f)
		case p.cur.Kind == TOKEN_AT:
			emitRawBlock(p.out, p.parseInlineBlock())
		case p.cur.Kind == TOKEN_DOLLAR:
			p.advance()
			p.emitMacroInvocation()
		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "end":
			p.advance()
			return
		default:
			fatalf(p.cur, "unsupported statement")
		}
	}
}

type funcParam struct {
	Name string
	Type Type
}

// parseAndEmitFunc parses and emits one `local|global [inline] func`
// declaration in full: signature, prologue (param spills), body, and
// the canonical leave/ret epilogue (spec.md §4.4, §4.6).
func (p *Parser) parseAndEmitFunc(rawName string, isGlobal bool) {
	fname := ResolveDefinitionName(p.currentNamespace, rawName)

	p.expect(TOKEN_LPAREN, "expected '(' after func name")

	var params []funcParam
	if p.cur.Kind != TOKEN_RPAREN {
		for {
			if p.cur.Kind != TOKEN_IDENT {
				fatalf(p.cur, "expected param name")
			}
			pname := p.cur.Value
			p.advance()
			p.expect(TOKEN_COLON, "expected ':' in param")
			if p.cur.Kind != TOKEN_IDENT {
				fatalf(p.cur, "expected type after ':'")
			}
			ty := ParseTypeName(p.cur)
			if ty.Kind == TypeUnknown {
				fatalf(p.cur, "unknown type name")
			}
			p.advance()
			params = append(params, funcParam{Name: pname, Type: ty})
			if p.cur.Kind == TOKEN_COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(TOKEN_RPAREN, "expected ')' after params")

	p.expect(TOKEN_ARROW, "expected '>>' return type")
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected return type name")
	}
	p.advance() // return type is parsed for grammar shape only; not used in codegen

	p.expect(TOKEN_COLON, "expected ':' after function header")
	p.skipNewlines()
	p.expect(TOKEN_INDENT, "expected indented function body")

	if isGlobal {
		p.out.Label("global %s", fname)
	}
	p.out.Label("%s:", fname)
	p.out.Line("push rbp")
	p.out.Line("mov rbp, rsp")

	if len(params) > 6 {
		fatalf(p.cur, "too many params (phase1 supports 6)")
	}
	frame := &FrameLayout{}
	for _, param := range params {
		frame.Add(param.Name, param.Type)
	}

	if frame.StackUsed > 0 {
		p.out.Line("sub rsp, %d", frame.StackUsed)
	}

	for i, param := range params {
		local := frame.Find(param.Name)
		sz := local.Type.NasmSize()
		switch local.Type.Kind {
		// Narrow parameter widths always spill through the rdi slice
		// regardless of argument position — preserved from the source
		// material's parameter-prologue codegen rather than corrected
		// to argRegs[i]'s own sub-register (an anomaly, not fixed here
		// per the same policy that keeps the lexer's hex-literal branch).
		case TypeU8, TypeI8:
			p.out.Line("mov %s [rbp%+d], dil", sz, local.RBPOffset)
		case TypeU16, TypeI16:
			p.out.Line("mov %s [rbp%+d], di", sz, local.RBPOffset)
		case TypeU32, TypeI32:
			p.out.Line("mov %s [rbp%+d], edi", sz, local.RBPOffset)
		default:
			p.out.Line("mov %s [rbp%+d], %s", sz, local.RBPOffset, argRegs[i])
		}
	}

	p.parseFuncBody(frame)
}

// parseGlobalLet parses a top-level `let` inside data/bss/readonly
// (spec.md §4.6). BSS reserves space; data/readonly emit a value
// directive from the verbatim, whitespace-trimmed token text between
// '=' and ';' (empty defaults to "0").
func (p *Parser) parseGlobalLet() {
	p.advance()
	pointerName := false
	if p.cur.Kind == TOKEN_STAR {
		pointerName = true
		p.advance()
	}
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected variable name after let")
	}
	raw := p.cur.Value
	p.advance()

	ty := Type{TypeUnknown}
	reserveCount := 1
	if p.cur.Kind == TOKEN_COLON {
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected type name after ':'")
		}
		ty = ParseTypeName(p.cur)
		if ty.Kind == TypeUnknown && isReserveDirective(p.cur) {
			ty = typeForReserve(p.cur)
			p.advance()
			if p.cur.Kind != TOKEN_INT {
				fatalf(p.cur, "expected reserve count")
			}
			reserveCount = parseIntLiteral(p.cur.Value)
		}
		p.advance()
	}
	if ty.Kind == TypeUnknown && pointerName {
		ty.Kind = TypeU64
	}
	if ty.Kind == TypeUnknown {
		ty.Kind = TypeU64
	}

	qualified := ResolveDefinitionName(p.currentNamespace, raw)
	p.ctx.Globals.Add(raw, qualified, ty, reserveCount)

	if p.currentSection == SectionBSS {
		if reserveCount <= 0 {
			reserveCount = 1
		}
		p.out.Label("%s: %s %d", qualified, ty.NasmReserveDirective(), reserveCount)
		p.expect(TOKEN_SEMI, "expected ';' after let")
		p.advance() // preserved source quirk: double-advances past the terminator here
		return
	}

	if p.cur.Kind == TOKEN_EQ {
		p.advance()
		src := p.lex.Src()
		start := p.cur.Pos
		end := start
		for p.cur.Kind != TOKEN_SEMI {
			if p.cur.Kind == TOKEN_EOF || p.cur.Kind == TOKEN_NEWLINE {
				fatalf(p.cur, "expected ';' after let")
			}
			end = p.cur.End
			p.advance()
		}
		value := strings.TrimSpace(src[start:end])
		if value == "" {
			value = "0"
		}
		p.out.Label("%s: %s %s", qualified, ty.NasmDataDirective(), value)
		p.advance()
	} else {
		p.out.Label("%s: %s 0", qualified, ty.NasmDataDirective())
		p.expect(TOKEN_SEMI, "expected ';' after let")
		p.advance() // preserved source quirk: double-advances past the terminator here
	}
}

// parseMacroDefinition parses `def NAME[, ARITY]: BODY enddef`
// (spec.md §4.7); BODY is captured as raw text, not parsed.
func (p *Parser) parseMacroDefinition() {
	p.advance()
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected macro name")
	}
	raw := p.cur.Value
	p.advance()

	arity := 0
	if p.cur.Kind == TOKEN_COMMA {
		p.advance()
		if p.cur.Kind != TOKEN_INT {
			fatalf(p.cur, "expected macro arity")
		}
		arity = parseIntLiteral(p.cur.Value)
		p.advance()
	}

	p.expect(TOKEN_COLON, "expected ':' after macro header")
	qualified := ResolveDefinitionName(p.currentNamespace, raw)
	body := p.captureUntilEnddef()
	p.ctx.Macros.Add(qualified, arity, body)
}

// handleDirective dispatches a top-level `#directive` (spec.md §6).
func (p *Parser) handleDirective() {
	if p.cur.Kind != TOKEN_IDENT {
		fatalf(p.cur, "expected directive after #")
	}
	switch p.cur.Value {
	case "section":
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected section name")
		}
		switch p.cur.Value {
		case "program":
			p.out.Label("section .text")
			p.currentSection = SectionProgram
		case "data":
			p.out.Label("section .data")
			p.currentSection = SectionData
		case "readonly":
			p.out.Label("section .rodata")
			p.currentSection = SectionReadonly
		case "bss":
			p.out.Label("section .bss")
			p.currentSection = SectionBSS
		case "macros":
			p.currentSection = SectionMacros
		default:
			fatalf(p.cur, "unknown section")
		}
		p.advance()

	case "module":
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected module name after #module")
		}
		p.currentNamespace = p.cur.Value
		p.advance()

	case "endmodule":
		if p.currentNamespace == "" {
			fatalf(p.cur, "#endmodule without active module")
		}
		p.currentNamespace = ""
		p.advance()

	case "import":
		p.advance()
		if p.cur.Kind != TOKEN_IDENT && p.cur.Kind != TOKEN_STRING && p.cur.Kind != TOKEN_PATH {
			fatalf(p.cur, "expected path after #import")
		}
		resolved := resolveImportPath(p.path, p.cur.Value)
		p.advance()
		compilePath(resolved, p.out, p.ctx, p.imports, false)
		p.ctx.CurrentPath = p.path

	case "uns":
		p.advance()
		if p.cur.Kind != TOKEN_IDENT {
			fatalf(p.cur, "expected namespace after #uns")
		}
		p.using = append(p.using, p.cur.Value)
		p.advance()

	default:
		fatalf(p.cur, "unknown #directive")
	}
}

// compilePath recursively compiles path: the outermost call (only)
// emits the `default rel` / `section .text` header (spec.md §4.8).
// imports dedupes across the whole recursive emitter pass, separately
// from the pre-scan's own ImportSet.
func compilePath(path string, out *Out, ctx *CompileContext, imports *ImportSet, emitHeader bool) {
	if imports.Visit(path) {
		return
	}
	ctx.CurrentPath = path
	src := readFileAll(path)
	lex := NewLexer(src, ctx.Config.Tabs.Width)

	p := &Parser{
		lex:     lex,
		out:     out,
		ctx:     ctx,
		imports: imports,
		path:    path,
	}
	p.advance()

	if emitHeader {
		out.Label("default rel")
		out.Label("section .text")
	}

	for p.cur.Kind != TOKEN_EOF {
		switch {
		case p.cur.Kind == TOKEN_NEWLINE:
			p.advance()

		case p.cur.Kind == TOKEN_HASH:
			p.advance()
			p.handleDirective()

		case p.cur.Kind == TOKEN_IDENT && (p.cur.Value == "local" || p.cur.Value == "global"):
			isGlobal := p.cur.Value == "global"
			p.advance()
			if p.cur.Kind == TOKEN_IDENT && p.cur.Value == "inline" {
				p.advance()
			}
			if p.cur.Kind != TOKEN_IDENT || p.cur.Value != "func" {
				fatalf(p.cur, "expected 'func' after local/global")
			}
			p.advance()
			if p.cur.Kind != TOKEN_IDENT {
				fatalf(p.cur, "expected function name")
			}
			raw := p.cur.Value
			p.advance()
			p.parseAndEmitFunc(raw, isGlobal)

		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "func":
			fatalf(p.cur, "functions must be declared with 'local func' or 'global func'")

		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "let":
			if p.currentSection != SectionData && p.currentSection != SectionBSS && p.currentSection != SectionReadonly {
				fatalf(p.cur, "let statements must be in data/bss/readonly sections")
			}
			p.parseGlobalLet()

		case p.cur.Kind == TOKEN_IDENT && p.cur.Value == "def":
			if p.currentSection != SectionMacros {
				fatalf(p.cur, "macro definitions must be in macros section")
			}
			p.parseMacroDefinition()

		case p.cur.Kind == TOKEN_AT:
			emitRawBlock(out, p.parseInlineBlock())

		default:
			fatalf(p.cur, "unexpected top-level token")
		}
	}
}
