package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nocta/token"
)

func kinds(tokens []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.TokenType
	}
	return out
}

func TestOperators(t *testing.T) {
	tokens := New("== != <= >= -> .. << >> + - * / % = < > & | ^").Scan()
	assert.Equal(t, []token.TokenType{
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS_EQUAL, token.LARGER_EQUAL,
		token.ARROW, token.RANGE, token.SHL, token.SHR,
		token.ADD, token.SUB, token.MULT, token.DIV, token.MOD,
		token.ASSIGN, token.LESS, token.LARGER, token.BAND, token.BOR, token.BXOR,
		token.EOF,
	}, kinds(tokens))
}

func TestDelimiters(t *testing.T) {
	tokens := New("( ) [ ] , :").Scan()
	assert.Equal(t, []token.TokenType{
		token.LPA, token.RPA, token.LBRACKET, token.RBRACKET, token.COMMA, token.COLON, token.EOF,
	}, kinds(tokens))
}

func TestKeywords(t *testing.T) {
	tokens := New("let const fn return if then elif else end while for in do and or not true false").Scan()
	assert.Equal(t, []token.TokenType{
		token.LET, token.CONST, token.FN, token.RETURN, token.IF, token.THEN, token.ELIF,
		token.ELSE, token.END, token.WHILE, token.FOR, token.IN, token.DO, token.AND,
		token.OR, token.NOT, token.TRUE, token.FALSE, token.EOF,
	}, kinds(tokens))
}

func TestNewlineSignificant(t *testing.T) {
	tokens := New("let a = 1\nlet b = 2").Scan()
	require.Len(t, tokens, 10)
	assert.Equal(t, token.NEWLINE, tokens[4].TokenType)
}

func TestIntegerLiteralForms(t *testing.T) {
	cases := []string{"0xff", "0b1111_1111", "0o377", "255", "2_55"}
	for _, src := range cases {
		tokens := New(src).Scan()
		require.Len(t, tokens, 2)
		assert.Equal(t, token.INT, tokens[0].TokenType)
		assert.EqualValues(t, 255, tokens[0].Literal)
	}
}

func TestFloatLiteral(t *testing.T) {
	tokens := New("3.14 1e10 2.5e-3").Scan()
	require.Len(t, tokens, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, token.FLOAT, tokens[i].TokenType)
	}
	assert.InDelta(t, 3.14, tokens[0].Literal, 1e-9)
	assert.InDelta(t, 1e10, tokens[1].Literal, 1e-3)
	assert.InDelta(t, 2.5e-3, tokens[2].Literal, 1e-12)
}

func TestStringEscapes(t *testing.T) {
	tokens := New(`"a\nb\t\\\"c" 'd\'e'`).Scan()
	require.Len(t, tokens, 3)
	assert.Equal(t, "a\nb\t\\\"c", tokens[0].Literal)
	assert.Equal(t, "d'e", tokens[1].Literal)
}

func TestUnterminatedString(t *testing.T) {
	tokens := New(`"abc`).Scan()
	require.Len(t, tokens, 2)
	assert.Equal(t, token.ERROR, tokens[0].TokenType)
}

func TestUnterminatedBlockCommentTolerated(t *testing.T) {
	tokens := New("let a = 1 /* oops").Scan()
	// The trailing unterminated block comment is silently swallowed; no
	// ERROR token is produced for it.
	assert.Equal(t, token.EOF, tokens[len(tokens)-1].TokenType)
	for _, tok := range tokens {
		assert.NotEqual(t, token.ERROR, tok.TokenType)
	}
}

func TestLineComment(t *testing.T) {
	tokens := New("let a = 1 // trailing comment\nlet b = 2").Scan()
	assert.Equal(t, token.NEWLINE, tokens[4].TokenType)
}

func TestUnknownCharacterYieldsError(t *testing.T) {
	tokens := New("let a = @").Scan()
	require.Len(t, tokens, 5)
	assert.Equal(t, token.ERROR, tokens[3].TokenType)
}

func TestLineColumnTracking(t *testing.T) {
	tokens := New("let a\n  = 1").Scan()
	// 'a' is on line 1; '=' is on line 2 at column 3.
	var ident, assign token.Token
	for _, tok := range tokens {
		if tok.TokenType == token.IDENTIFIER {
			ident = tok
		}
		if tok.TokenType == token.ASSIGN {
			assign = tok
		}
	}
	assert.EqualValues(t, 1, ident.Line)
	assert.EqualValues(t, 2, assign.Line)
	assert.Equal(t, 3, assign.Column)
}
