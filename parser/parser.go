// Recursive descent parser with Pratt-style precedence climbing for
// expressions.
// https://en.wikipedia.org/wiki/Recursive_descent_parser
// https://en.wikipedia.org/wiki/Operator-precedence_parser
package parser

import (
	"fmt"

	"nocta/ast"
	"nocta/token"
)

// precedence gives the binding power of each binary operator, low to
// high: or(1) and(2) bitor(3) bitxor(4) bitand(5) equality(6)
// relational(7) shift(8) additive(9) multiplicative(10). All binary
// operators are left-associative; the Pratt loop climbs with prec+1.
var precedence = map[token.TokenType]int{
	token.OR:           1,
	token.AND:          2,
	token.BOR:          3,
	token.BXOR:         4,
	token.BAND:         5,
	token.EQUAL_EQUAL:  6,
	token.NOT_EQUAL:    6,
	token.LESS:         7,
	token.LARGER:       7,
	token.LESS_EQUAL:   7,
	token.LARGER_EQUAL: 7,
	token.SHL:          8,
	token.SHR:          8,
	token.ADD:          9,
	token.SUB:          9,
	token.MULT:         10,
	token.DIV:          10,
	token.MOD:          10,
}

// Parser consumes the flat token sequence produced by the lexer and
// builds the program's AST. It never looks back past the current
// position and never calls into the compiler.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []error
}

// Make constructs a Parser over the given token sequence.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tt token.TokenType) bool {
	return p.current().TokenType == tt
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(tt token.TokenType, message string) (token.Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	err := SyntaxError{Line: p.current().Line, Column: p.current().Column, Message: message}
	return token.Token{}, err
}

func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

// Parse runs the parser to completion and returns the top-level
// statement sequence together with every syntax error encountered. The
// parser does not attempt error recovery beyond resynchronizing at
// statement boundaries so that one bad statement does not hide the rest.
func (p *Parser) Parse() ([]ast.Stmt, []error) {
	var statements []ast.Stmt
	p.skipNewlines()
	for !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
		} else if stmt != nil {
			statements = append(statements, stmt)
		}
		p.skipNewlines()
	}
	return statements, p.errors
}

// synchronize advances past the rest of the offending line so the
// parser can keep looking for further independent errors.
func (p *Parser) synchronize() {
	for !p.check(token.NEWLINE) && !p.check(token.EOF) {
		p.advance()
	}
}

func posOf(tok token.Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Col: tok.Column}
}

// ---- statements ----

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.current().TokenType {
	case token.LET, token.CONST:
		return p.parseVarDecl()
	case token.FN:
		return p.parseFnDecl()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	start := p.current()
	isConst := p.current().TokenType == token.CONST
	p.advance()

	name, err := p.expect(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}

	typeAnn := ""
	if p.match(token.COLON) {
		annTok, err := p.expect(token.IDENTIFIER, "expected type annotation after ':'")
		if err != nil {
			return nil, err
		}
		typeAnn = annTok.Lexeme
	}

	if _, err := p.expect(token.ASSIGN, "expected '=' in variable declaration"); err != nil {
		return nil, err
	}

	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	return ast.VarDecl{Pos: posOf(start), Name: name.Lexeme, TypeAnn: typeAnn, Value: value, IsConst: isConst}, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	name, err := p.expect(token.IDENTIFIER, "expected parameter name")
	if err != nil {
		return ast.Param{}, err
	}
	if _, err := p.expect(token.COLON, "expected ':' after parameter name"); err != nil {
		return ast.Param{}, err
	}
	typeTok, err := p.expect(token.IDENTIFIER, "expected parameter type")
	if err != nil {
		return ast.Param{}, err
	}
	return ast.Param{Name: name.Lexeme, TypeAnn: typeTok.Lexeme}, nil
}

func (p *Parser) parseFnDecl() (ast.Stmt, error) {
	start := p.current()
	p.advance()

	name, err := p.expect(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPA, "expected '(' after function name"); err != nil {
		return nil, err
	}

	var params []ast.Param
	if !p.check(token.RPA) {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPA, "expected ')' after parameter list"); err != nil {
		return nil, err
	}

	returnAnn := ""
	if p.match(token.ARROW) {
		retTok, err := p.expect(token.IDENTIFIER, "expected return type after '->'")
		if err != nil {
			return nil, err
		}
		returnAnn = retTok.Lexeme
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close function body"); err != nil {
		return nil, err
	}

	return ast.FnDecl{Pos: posOf(start), Name: name.Lexeme, Params: params, ReturnAnn: returnAnn, Body: body}, nil
}

// parseBlock consumes statements until it reaches 'end', 'else', 'elif'
// or EOF, without consuming the terminator itself.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.check(token.END) && !p.check(token.ELSE) && !p.check(token.ELIF) && !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}
	return stmts, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	start := p.current()
	p.advance()

	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN, "expected 'then' after if condition"); err != nil {
		return nil, err
	}
	thenBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elifs []ast.ElifClause
	for p.check(token.ELIF) {
		p.advance()
		elifCond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.THEN, "expected 'then' after elif condition"); err != nil {
			return nil, err
		}
		elifBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, ast.ElifClause{Condition: elifCond, Body: elifBody})
	}

	var elseBody []ast.Stmt
	if p.match(token.ELSE) {
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.END, "expected 'end' to close if statement"); err != nil {
		return nil, err
	}

	return ast.IfStmt{Pos: posOf(start), Condition: cond, Then: thenBody, Elifs: elifs, Else: elseBody}, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	start := p.current()
	p.advance()
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO, "expected 'do' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close while loop"); err != nil {
		return nil, err
	}
	return ast.WhileStmt{Pos: posOf(start), Condition: cond, Body: body}, nil
}

func (p *Parser) parseForStmt() (ast.Stmt, error) {
	start := p.current()
	p.advance()

	varName, err := p.expect(token.IDENTIFIER, "expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN, "expected 'in' after for loop variable"); err != nil {
		return nil, err
	}

	first, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	var iterable ast.Expression = first
	if p.check(token.RANGE) {
		rangeTok := p.advance()
		end, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		iterable = ast.Range{Pos: posOf(rangeTok), Start: first, End: end}
	}

	if _, err := p.expect(token.DO, "expected 'do' after for loop iterable"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close for loop"); err != nil {
		return nil, err
	}

	return ast.ForStmt{Pos: posOf(start), VarName: varName.Lexeme, Iterable: iterable, Body: body}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	start := p.current()
	p.advance()
	if p.check(token.NEWLINE) || p.check(token.END) || p.check(token.EOF) ||
		p.check(token.ELIF) || p.check(token.ELSE) {
		return ast.ReturnStmt{Pos: posOf(start), Value: nil}, nil
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.ReturnStmt{Pos: posOf(start), Value: value}, nil
}

// parseExprOrAssign parses an expression statement, which becomes an
// Assignment if followed by '='. The assignment target must be an
// identifier or index expression; anything else is a syntax error.
func (p *Parser) parseExprOrAssign() (ast.Stmt, error) {
	start := p.current()
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.match(token.ASSIGN) {
		switch expr.(type) {
		case ast.Identifier, ast.Index:
		default:
			return nil, SyntaxError{Line: start.Line, Column: start.Column, Message: "invalid assignment target"}
		}
		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Assignment{Pos: posOf(start), Target: expr, Value: value}, nil
	}
	return ast.ExprStmt{Pos: posOf(start), Expression: expr}, nil
}

// ---- expressions ----

// parseExpr implements Pratt precedence-climbing: parse a unary/primary
// operand, then repeatedly fold in binary operators whose precedence is
// at least minPrec, recursing with prec+1 to enforce left-associativity.
func (p *Parser) parseExpr(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		opTok := p.current()
		prec, ok := precedence[opTok.TokenType]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Pos: posOf(opTok), Op: opTok.TokenType, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary handles the right-associative prefix operators '-' and
// 'not', which bind tighter than any binary operator but looser than
// postfix call/index forms.
func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.check(token.SUB) || p.check(token.NOT) {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Pos: posOf(opTok), Op: opTok.TokenType, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix greedily chains call and index forms onto a primary
// expression, e.g. "a[0](1)[2]".
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(token.LPA):
			openTok := p.advance()
			var args []ast.Expression
			if !p.check(token.RPA) {
				for {
					arg, err := p.parseExpr(0)
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.match(token.COMMA) {
						break
					}
				}
			}
			if _, err := p.expect(token.RPA, "expected ')' after call arguments"); err != nil {
				return nil, err
			}
			expr = ast.Call{Pos: posOf(openTok), Callee: expr, Args: args}
		case p.check(token.LBRACKET):
			openTok := p.advance()
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = ast.Index{Pos: posOf(openTok), Object: expr, Idx: idx}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.current()
	switch tok.TokenType {
	case token.INT:
		p.advance()
		return ast.IntLiteral{Pos: posOf(tok), Value: tok.Literal.(int64)}, nil
	case token.FLOAT:
		p.advance()
		return ast.FloatLiteral{Pos: posOf(tok), Value: tok.Literal.(float64)}, nil
	case token.STRING:
		p.advance()
		return ast.StringLiteral{Pos: posOf(tok), Value: tok.Literal.(string)}, nil
	case token.TRUE:
		p.advance()
		return ast.BoolLiteral{Pos: posOf(tok), Value: true}, nil
	case token.FALSE:
		p.advance()
		return ast.BoolLiteral{Pos: posOf(tok), Value: false}, nil
	case token.IDENTIFIER:
		p.advance()
		return ast.Identifier{Pos: posOf(tok), Name: tok.Lexeme}, nil
	case token.LPA:
		p.advance()
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPA, "expected ')' after grouped expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACKET:
		p.advance()
		var elements []ast.Expression
		for !p.check(token.RBRACKET) {
			el, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			if !p.match(token.COMMA) {
				break
			}
		}
		if _, err := p.expect(token.RBRACKET, "expected ']' after array literal"); err != nil {
			return nil, err
		}
		return ast.ArrayLiteral{Pos: posOf(tok), Elements: elements}, nil
	case token.ERROR:
		p.advance()
		msg, _ := tok.Literal.(string)
		if msg == "" {
			msg = fmt.Sprintf("unexpected character %q", tok.Lexeme)
		}
		return nil, SyntaxError{Line: tok.Line, Column: tok.Column, Message: msg}
	default:
		return nil, SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("unexpected token %q", tok.Lexeme)}
	}
}
