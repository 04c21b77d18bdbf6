package chasmc

// Scan walks rootPath and every transitively imported file exactly
// once, extracting fully-qualified names of functions, data-section
// globals, and macros into ctx without emitting any code (spec.md
// §2, §4.2). Imports are followed depth-first before a file's own
// declarations are collected, so a symbol defined in an imported file
// is visible to the pre-scan regardless of import order.
func Scan(ctx *CompileContext, rootPath string, tabWidth int) {
	scanFile(ctx, rootPath, tabWidth)
}

func scanFile(ctx *CompileContext, path string, tabWidth int) {
	if ctx.Scanned.Visit(path) {
		return
	}

	ctx.CurrentPath = path
	src := readFileAll(path)
	scanImports(ctx, path, src, tabWidth)

	lex := NewLexer(src, tabWidth)
	currentNamespace := ""
	section := SectionNone

	for {
		tok := lex.Next()
		if tok.Kind == TOKEN_EOF {
			break
		}

		if tok.Kind == TOKEN_HASH {
			dir := lex.Next()
			if dir.Kind != TOKEN_IDENT {
				continue
			}
			switch dir.Value {
			case "module":
				name := lex.Next()
				if name.Kind != TOKEN_IDENT {
					fatalf(name, "expected module name after #module")
				}
				currentNamespace = name.Value
			case "endmodule":
				currentNamespace = ""
			case "section":
				name := lex.Next()
				if name.Kind != TOKEN_IDENT {
					fatalf(name, "expected section name")
				}
				section = sectionNamed(name.Value)
			}
			continue
		}

		if tok.Kind == TOKEN_IDENT && (tok.Value == "local" || tok.Value == "global") {
			scanFuncDecl(ctx, lex, currentNamespace)
			continue
		}

		if section == SectionData || section == SectionBSS || section == SectionReadonly {
			if tok.Kind == TOKEN_IDENT && tok.Value == "let" {
				scanLet(ctx, lex, currentNamespace)
				continue
			}
		}

		if section == SectionMacros {
			if tok.Kind == TOKEN_IDENT && tok.Value == "def" {
				scanMacroDecl(ctx, lex, currentNamespace)
				continue
			}
		}
	}
}

func scanImports(ctx *CompileContext, path, src string, tabWidth int) {
	lex := NewLexer(src, tabWidth)
	for {
		tok := lex.Next()
		if tok.Kind == TOKEN_EOF {
			break
		}
		if tok.Kind != TOKEN_HASH {
			continue
		}
		dir := lex.Next()
		if dir.Kind != TOKEN_IDENT || dir.Value != "import" {
			continue
		}
		pathTok := lex.Next()
		if pathTok.Kind != TOKEN_IDENT && pathTok.Kind != TOKEN_STRING && pathTok.Kind != TOKEN_PATH {
			fatalf(pathTok, "expected path after #import")
		}
		resolved := resolveImportPath(path, pathTok.Value)
		scanFile(ctx, resolved, tabWidth)
		ctx.CurrentPath = path
	}
}

func scanFuncDecl(ctx *CompileContext, lex *Lexer, currentNamespace string) {
	maybeInline := lex.Next()
	if maybeInline.Kind == TOKEN_IDENT && maybeInline.Value == "inline" {
		maybeInline = lex.Next()
	}
	if maybeInline.Kind != TOKEN_IDENT || maybeInline.Value != "func" {
		fatalf(maybeInline, "expected 'func' after local/global")
	}
	name := lex.Next()
	if name.Kind != TOKEN_IDENT {
		fatalf(name, "expected function name")
	}
	qualified := ResolveDefinitionName(currentNamespace, name.Value)
	ctx.Funcs.Add(name.Value, qualified)
}

func scanLet(ctx *CompileContext, lex *Lexer, currentNamespace string) {
	name := lex.Next()
	if name.Kind == TOKEN_STAR {
		name = lex.Next()
	}
	if name.Kind != TOKEN_IDENT {
		fatalf(name, "expected variable name after let")
	}
	raw := name.Value
	qualified := ResolveDefinitionName(currentNamespace, raw)

	ty := Type{TypeUnknown}
	reserveCount := 1
	maybeColon := lex.Next()
	if maybeColon.Kind == TOKEN_COLON {
		typeTok := lex.Next()
		ty = ParseTypeName(typeTok)
		if ty.Kind == TypeUnknown && isReserveDirective(typeTok) {
			ty = typeForReserve(typeTok)
			countTok := lex.Next()
			if countTok.Kind != TOKEN_INT {
				fatalf(countTok, "expected reserve count")
			}
			reserveCount = parseIntLiteral(countTok.Value)
		}
	}
	if ty.Kind == TypeUnknown {
		ty.Kind = TypeU64
	}
	ctx.Globals.Add(raw, qualified, ty, reserveCount)
}

func scanMacroDecl(ctx *CompileContext, lex *Lexer, currentNamespace string) {
	name := lex.Next()
	if name.Kind != TOKEN_IDENT {
		fatalf(name, "expected macro name")
	}
	qualified := ResolveDefinitionName(currentNamespace, name.Value)
	maybeComma := lex.Next()
	if maybeComma.Kind == TOKEN_COMMA {
		countTok := lex.Next()
		if countTok.Kind != TOKEN_INT {
			fatalf(countTok, "expected macro arity")
		}
	}
	ctx.Macros.Symbols.Add(name.Value, qualified)
}

func sectionNamed(name string) Section {
	switch name {
	case "program":
		return SectionProgram
	case "data":
		return SectionData
	case "bss":
		return SectionBSS
	case "readonly":
		return SectionReadonly
	case "macros":
		return SectionMacros
	default:
		return SectionNone
	}
}
