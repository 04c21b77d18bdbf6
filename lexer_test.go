package chasmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTokens(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(src, 4)
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == TOKEN_EOF {
			return toks
		}
	}
}

func TestLexer_IndentationRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"flat", "let x;\nlet y;\n"},
		{"one level", "func:\n    let x;\n"},
		{"nested then back out", "func:\n    inner:\n        let x;\n    let y;\n"},
		{"blank lines inside block", "func:\n    let x;\n\n    let y;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collectTokens(t, tt.src)
			indents, dedents := 0, 0
			for _, tok := range toks {
				switch tok.Kind {
				case TOKEN_INDENT:
					indents++
				case TOKEN_DEDENT:
					dedents++
				}
			}
			assert.Equal(t, indents, dedents, "INDENT/DEDENT counts must balance")
		})
	}
}

func TestLexer_BlankLinesProduceNoIndentTokens(t *testing.T) {
	toks := collectTokens(t, "func:\n\n    let x;\n")
	indents := 0
	for _, tok := range toks {
		if tok.Kind == TOKEN_INDENT || tok.Kind == TOKEN_DEDENT {
			assert.NotEqual(t, 2, tok.Line, "the blank line 2 must not produce INDENT/DEDENT")
		}
		if tok.Kind == TOKEN_INDENT {
			indents++
		}
	}
	assert.Equal(t, 1, indents, "only the indented line 3 opens a block")
}

func TestLexer_MisalignedDedentIsFatal(t *testing.T) {
	src := "func:\n    let x;\n  let y;\n"
	lex := NewLexer(src, 4)
	assert.Panics(t, func() {
		for {
			tok := lex.Next()
			if tok.Kind == TOKEN_EOF {
				return
			}
		}
	})
}

func TestLexer_Literals(t *testing.T) {
	toks := collectTokens(t, `"hi" 'c' 42 foo.bar baz`)
	require.GreaterOrEqual(t, len(toks), 5)
	assert.Equal(t, TOKEN_STRING, toks[0].Kind)
	assert.Equal(t, "hi", toks[0].Value)
	assert.Equal(t, TOKEN_CHAR, toks[1].Kind)
	assert.Equal(t, TOKEN_INT, toks[2].Kind)
	assert.Equal(t, "42", toks[2].Value)
	assert.Equal(t, TOKEN_PATH, toks[3].Kind)
	assert.Equal(t, "foo.bar", toks[3].Value)
	assert.Equal(t, TOKEN_IDENT, toks[4].Kind)
}

func TestLexer_UnterminatedStringIsFatal(t *testing.T) {
	lex := NewLexer(`"unterminated`, 4)
	assert.Panics(t, func() { lex.Next() })
}

func TestLexer_LineComment(t *testing.T) {
	toks := collectTokens(t, "let x; ;;; a comment\nlet y;\n")
	var idents []string
	for _, tok := range toks {
		if tok.Kind == TOKEN_IDENT {
			idents = append(idents, tok.Value)
		}
	}
	assert.Equal(t, []string{"let", "x", "let", "y"}, idents)
}

func TestLexer_Punctuators(t *testing.T) {
	toks := collectTokens(t, ":: >> : ; , ( ) { } [ ] = + - * / & $ @")
	wantKinds := []TokenKind{
		TOKEN_SCOPE, TOKEN_ARROW, TOKEN_COLON, TOKEN_SEMI, TOKEN_COMMA,
		TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_LBRACE, TOKEN_RBRACE,
		TOKEN_LBRACKET, TOKEN_RBRACKET, TOKEN_EQ, TOKEN_PLUS, TOKEN_MINUS,
		TOKEN_STAR, TOKEN_SLASH, TOKEN_AMP, TOKEN_DOLLAR, TOKEN_AT,
	}
	for i, want := range wantKinds {
		assert.Equal(t, want, toks[i].Kind, "token %d", i)
	}
}

func TestLexer_TokenPosSpansExactSubstring(t *testing.T) {
	src := "  foobar;"
	lex := NewLexer(src, 4)
	require.Equal(t, TOKEN_INDENT, lex.Next().Kind, "the leading spaces open an indented block first")
	tok := lex.Next()
	require.Equal(t, TOKEN_IDENT, tok.Kind)
	assert.Equal(t, "foobar", src[tok.Pos:tok.End])
}

func TestLexer_RawPosSeekToResync(t *testing.T) {
	src := "abc def"
	lex := NewLexer(src, 4)
	tok := lex.Next()
	require.Equal(t, "abc", tok.Value)
	pos := lex.RawPos()
	lex.SeekTo(pos, 1, 5)
	next := lex.Next()
	assert.Equal(t, "def", next.Value)
}
