// Package repl implements the interactive Read-Eval-Print Loop for
// nocta. Input is buffered across lines until a complete statement is
// ready (balanced parens/brackets and every if/while/for/fn block
// closed by an 'end'),
// then compiled and run on a single persistent VM so variables and
// functions declared at one prompt survive into the next.
package repl

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"nocta/compiler"
	"nocta/lexer"
	"nocta/parser"
	"nocta/stdlib"
	"nocta/token"
	"nocta/vm"
)

var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl holds the cosmetic configuration for one interactive session.
type Repl struct {
	Banner  string
	Version string
	Author  string
	Line    string
	License string
	Prompt  string

	StackSize int
	FrameSize int
}

// New constructs a Repl with the given display configuration and the
// VM's default stack/frame capacities.
func New(banner, version, author, line, license, prompt string) *Repl {
	return &Repl{
		Banner: banner, Version: version, Author: author, Line: line, License: license, Prompt: prompt,
		StackSize: vm.DefaultStackSize, FrameSize: vm.DefaultFrameSize,
	}
}

func (r *Repl) printBanner(writer io.Writer) {
	blueColor.Fprintf(writer, "%s\n", r.Line)
	greenColor.Fprintf(writer, "%s\n", r.Banner)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	yellowColor.Fprintln(writer, "Version: "+r.Version+" | Author: "+r.Author+" | License: "+r.License)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	cyanColor.Fprintf(writer, "%s\n", "Welcome to nocta!")
	cyanColor.Fprintf(writer, "%s\n", "Type your code and press enter")
	cyanColor.Fprintf(writer, "%s\n", "Type 'exit' to quit")
	cyanColor.Fprintf(writer, "%s\n", "Use up/down arrows to navigate command history")
	blueColor.Fprintf(writer, "%s\n", r.Line)
}

// Start runs the REPL loop until the user exits or input ends.
func (r *Repl) Start(writer io.Writer) error {
	r.printBanner(writer)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		return err
	}
	defer rl.Close()

	astCompiler := compiler.NewASTCompiler()
	machine := vm.New()
	machine.SetLimits(r.StackSize, r.FrameSize)
	stdlib.Register(machine)

	var buffer strings.Builder

	for {
		prompt := r.Prompt
		if buffer.Len() > 0 {
			prompt = "... "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err != nil {
			writer.Write([]byte("Good bye!\n"))
			return nil
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "exit" && buffer.Len() == 0 {
			writer.Write([]byte("Good bye!\n"))
			return nil
		}
		if trimmed == "" && buffer.Len() == 0 {
			continue
		}

		rl.SaveHistory(line)
		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens := lex.Scan()

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, pErr := range parseErrs {
				redColor.Fprintf(writer, "%v\n", pErr)
			}
			buffer.Reset()
			continue
		}

		chunk, err := astCompiler.CompileAST(statements)
		if err != nil {
			redColor.Fprintf(writer, "%v\n", err)
			buffer.Reset()
			continue
		}

		result, runErr := machine.Run(chunk)
		if runErr != nil {
			redColor.Fprintf(writer, "%v\n", runErr)
			buffer.Reset()
			continue
		}
		if result != nil {
			yellowColor.Fprintf(writer, "%v\n", result)
		}
		buffer.Reset()
	}
}

// isInputReady reports whether the buffered source forms a complete
// statement: every '(' / '[' is closed, every block-opening keyword
// (if/while/for/fn) has a matching 'end', and the last non-EOF token
// isn't an operator or keyword that obviously expects a continuation.
func isInputReady(tokens []token.Token) bool {
	parenBalance := 0
	bracketBalance := 0
	blockDepth := 0

	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LPA:
			parenBalance++
		case token.RPA:
			parenBalance--
		case token.LBRACKET:
			bracketBalance++
		case token.RBRACKET:
			bracketBalance--
		case token.IF, token.WHILE, token.FOR, token.FN:
			blockDepth++
		case token.END:
			blockDepth--
		}
	}

	if parenBalance > 0 || bracketBalance > 0 || blockDepth > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.MOD,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.COMMA, token.LPA, token.LBRACKET,
		token.IF, token.ELIF, token.ELSE, token.THEN, token.WHILE, token.FOR, token.IN,
		token.DO, token.FN, token.RETURN, token.LET, token.CONST, token.AND, token.OR,
		token.NOT, token.ARROW, token.RANGE, token.COLON:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF && tokens[i].TokenType != token.NEWLINE {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error is a syntax
// error positioned at the EOF token, which means the user simply
// hasn't finished typing yet rather than having made a mistake.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
