package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// Parser reads SMT-LIB commands one at a time.
//
// A Parser is a single-session object and is NOT safe for concurrent use.
type Parser struct {
	lexer   *Lexer
	opts    Options
	symbols *symbol.Table
	logger  *slog.Logger

	// open counts parentheses left unclosed by the last failed form.
	open     int
	commands int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...Option) *Parser {
	return newParser(NewLexer(input), opts)
}

// NewReaderParser creates a parser that pulls input from r as needed.
func NewReaderParser(r io.Reader, opts ...Option) *Parser {
	return newParser(NewReaderLexer(r), opts)
}

func newParser(l *Lexer, opts []Option) *Parser {
	options := Options{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	options.MaxDepth = min(options.MaxDepth, MaxDepthLimit)
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	p := &Parser{
		lexer:  l,
		opts:   options,
		logger: options.Logger,
	}
	switch {
	case options.DisableInterning:
	case options.Symbols != nil:
		p.symbols = options.Symbols
	default:
		p.symbols = symbol.NewTable()
	}
	return p
}

// Symbols returns the intern table, or nil when interning is disabled.
func (p *Parser) Symbols() *symbol.Table {
	return p.symbols
}

// Lexer returns the underlying lexer.
func (p *Parser) Lexer() *Lexer {
	return p.lexer
}

// Commands returns how many commands were decoded successfully.
func (p *Parser) Commands() int {
	return p.commands
}

// ParseCommand reads the next top-level form, decodes it and calls the
// matching visitor method exactly once. It returns io.EOF when the input
// is exhausted, a *types.Error when the form is malformed, or the error
// returned by the visitor.
func (p *Parser) ParseCommand(v ast.Visitor) error {
	cmd, err := p.Next()
	if err != nil {
		return err
	}
	return cmd.Accept(v)
}

// Next reads and decodes the next command without dispatching it.
func (p *Parser) Next() (ast.Command, error) {
	form, err := p.ReadSExpr()
	if err != nil {
		return nil, err
	}
	cmd, err := p.decodeCommand(form)
	if err != nil {
		return nil, err
	}
	p.commands++
	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("parsed command", "command", cmd.Name(), "pos", cmd.Pos().String())
	}
	return cmd, nil
}

// Run parses every remaining command into v. It stops at io.EOF (returning
// nil) or at the first error.
func (p *Parser) Run(v ast.Visitor) error {
	for {
		err := p.ParseCommand(v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) collect(script *ast.Script) error {
	return p.Run(ast.FuncVisitor{Fn: func(c ast.Command) error {
		script.Append(c)
		return nil
	}})
}

// frame is one open list on the shift-reduce stack.
type frame struct {
	node  *ast.SExpr
	items []*ast.SExpr
}

// ReadSExpr reads one complete top-level S-expression.
//
// The reader is a shift-reduce automaton: '(' shifts a new frame, atoms
// are shifted into the top frame, ')' reduces the top frame to a list node
// and shifts it into its parent. A reduction that empties the stack accepts.
func (p *Parser) ReadSExpr() (*ast.SExpr, error) {
	arena := ast.NewSExprArena()
	var stack []frame
	p.open = 0

	for {
		tok := p.lexer.Next()
		switch tok.Type {
		case TokenEOF:
			if len(stack) == 0 {
				return nil, io.EOF
			}
			return nil, types.NewError(types.ErrUnexpectedEnd, "unexpected end of input inside a form", tok.Pos).
				WithExpected(")").WithToken("")

		case TokenError:
			return nil, p.lexer.Error()

		case TokenParenOpen:
			if len(stack) >= p.opts.MaxDepth {
				return nil, types.NewError(types.ErrMaxDepth,
					fmt.Sprintf("nesting exceeds %d levels", p.opts.MaxDepth), tok.Pos).WithToken(tok.Value)
			}
			stack = append(stack, frame{node: arena.Alloc(ast.SExprList, tok.Pos)})
			p.open = len(stack)

		case TokenParenClose:
			if len(stack) == 0 {
				return nil, types.NewError(types.ErrUnbalancedParen, "unexpected closing parenthesis", tok.Pos).
					WithExpected("(").WithToken(tok.Value)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p.open = len(stack)
			top.node.List = top.items
			if len(stack) == 0 {
				return top.node, nil
			}
			parent := &stack[len(stack)-1]
			parent.items = append(parent.items, top.node)

		default:
			atom, err := p.atom(arena, tok)
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				return atom, nil
			}
			parent := &stack[len(stack)-1]
			parent.items = append(parent.items, atom)
		}
	}
}

// Recover skips input up to and including the parenthesis that closes the
// form left open by the last error. It is a no-op when the failed form was
// complete. Recover returns io.EOF if the input ends first.
func (p *Parser) Recover() error {
	if p.lexer.Error() != nil {
		p.lexer.ClearError()
	}
	depth := p.open
	for depth > 0 {
		switch tok := p.lexer.Next(); tok.Type {
		case TokenEOF:
			p.open = 0
			return io.EOF
		case TokenError:
			p.lexer.ClearError()
		case TokenParenOpen:
			depth++
		case TokenParenClose:
			depth--
		}
	}
	p.open = 0
	return nil
}

func (p *Parser) atom(arena *ast.SExprArena, tok Token) (*ast.SExpr, error) {
	switch tok.Type {
	case TokenSymbol, TokenQuotedSymbol:
		e := arena.Alloc(ast.SExprSymbol, tok.Pos)
		e.Symbol = p.symbols.Intern(tok.Text())
		return e, nil
	case TokenKeyword:
		e := arena.Alloc(ast.SExprKeyword, tok.Pos)
		e.Keyword = p.symbols.InternKeyword(tok.Value)
		return e, nil
	case TokenReserved:
		e := arena.Alloc(ast.SExprReserved, tok.Pos)
		e.Text = tok.Value
		return e, nil
	case TokenString:
		e := arena.Alloc(ast.SExprString, tok.Pos)
		e.Text = tok.Value
		return e, nil
	case TokenNumeral, TokenDecimal, TokenHexadecimal, TokenBinary:
		lit, err := numeral.Parse(tok.Value)
		if err != nil {
			var ne *types.Error
			if errors.As(err, &ne) {
				ne.Position = tok.Pos
				ne.Line = tok.Pos.Line
			}
			return nil, err
		}
		e := arena.Alloc(ast.SExprLiteral, tok.Pos)
		e.Literal = lit
		return e, nil
	default:
		return nil, types.NewError(types.ErrUnexpectedToken, "unexpected token", tok.Pos).WithToken(tok.Value)
	}
}
