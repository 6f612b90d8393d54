package parser

import (
	"strings"

	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Grouping symbols
	TokenParenOpen  // (
	TokenParenClose // )

	// Literals
	TokenNumeral     // 0, 42
	TokenDecimal     // 1.50
	TokenHexadecimal // #x1F
	TokenBinary      // #b0101
	TokenString      // "a ""quoted"" word"

	// Names
	TokenSymbol       // x, bvadd, <=
	TokenQuotedSymbol // |hello world|
	TokenKeyword      // :named
	TokenReserved     // _ ! as let exists forall match par ...
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenNumeral:
		return "(numeral)"
	case TokenDecimal:
		return "(decimal)"
	case TokenHexadecimal:
		return "(hexadecimal)"
	case TokenBinary:
		return "(binary)"
	case TokenString:
		return "(string)"
	case TokenSymbol:
		return "(symbol)"
	case TokenQuotedSymbol:
		return "(quoted symbol)"
	case TokenKeyword:
		return "(keyword)"
	case TokenReserved:
		return "(reserved)"
	default:
		return "(unknown)"
	}
}

// IsLiteral reports whether tt is a numeric literal type.
func (tt TokenType) IsLiteral() bool {
	switch tt {
	case TokenNumeral, TokenDecimal, TokenHexadecimal, TokenBinary:
		return true
	default:
		return false
	}
}

// Token represents a lexical token in an SMT-LIB source.
type Token struct {
	Type  TokenType      // Type of the token
	Value string         // Raw lexeme, quotes and bars included
	Pos   types.Position // Where the lexeme starts
}

// Text returns the lexeme with the bars of a quoted symbol removed.
func (t Token) Text() string {
	if t.Type == TokenQuotedSymbol {
		return strings.TrimSuffix(strings.TrimPrefix(t.Value, "|"), "|")
	}
	return t.Value
}

// End returns the offset just past the lexeme.
func (t Token) End() int {
	return t.Pos.Offset + len(t.Value)
}

// lookupReserved reports whether s is a reserved word. Command names are
// plain symbols and are recognized by the command decoder.
func lookupReserved(s string) bool {
	return symbol.IsReserved(s)
}
