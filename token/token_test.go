package token

import (
	"testing"
)

func TestNewCarriesLiteral(t *testing.T) {
	tok := New(INT, "42", int64(42), 3, 7)
	if tok.TokenType != INT {
		t.Errorf("TokenType = %v, want %v", tok.TokenType, INT)
	}
	if tok.Lexeme != "42" {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, "42")
	}
	if tok.Literal != int64(42) {
		t.Errorf("Literal = %v, want %v", tok.Literal, int64(42))
	}
	if tok.Line != 3 || tok.Column != 7 {
		t.Errorf("position = (%d,%d), want (3,7)", tok.Line, tok.Column)
	}
}

func TestSimpleUsesTypeAsLexeme(t *testing.T) {
	tok := Simple(ASSIGN, 1, 1)
	if tok.Lexeme != "=" {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, "=")
	}
	if tok.Literal != nil {
		t.Errorf("Literal = %v, want nil", tok.Literal)
	}
}

func TestKeywordTableCoversAllKeywords(t *testing.T) {
	want := []string{"let", "const", "fn", "return", "if", "then", "elif", "else",
		"end", "while", "for", "in", "do", "and", "or", "not", "true", "false"}
	for _, kw := range want {
		if _, ok := KeyWords[kw]; !ok {
			t.Errorf("KeyWords missing entry for %q", kw)
		}
	}
}

func TestTwoCharOpsTakePriorityOverSingleChar(t *testing.T) {
	if _, ok := TWO_CHAR_OPS["=="]; !ok {
		t.Errorf("TWO_CHAR_OPS missing \"==\"")
	}
	if SINGLE_CHAR_OPS['='] != ASSIGN {
		t.Errorf("SINGLE_CHAR_OPS['='] = %v, want %v", SINGLE_CHAR_OPS['='], ASSIGN)
	}
}
