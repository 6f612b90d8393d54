// Package symbol defines SMT-LIB identifiers and keywords together with a
// per-session intern table.
//
// Symbols and keywords are small comparable values: equality and map hashing
// work on their content, so two symbols built from the same text are equal
// whether or not they went through the same Table. Interning only affects
// memory: a Table hands out symbols that share one backing string per
// distinct text.
//
// # Thread safety
//
// A Table is owned by a single parsing session and is not safe for concurrent
// use. Independent sessions each create their own Table.
package symbol

import "strings"

// Symbol is an SMT-LIB symbol (simple or quoted) or a trace-log term tag.
// The zero value is the empty symbol.
type Symbol struct {
	name string
}

// New creates a symbol without interning.
func New(name string) Symbol {
	return Symbol{name: name}
}

// Name returns the symbol content without any quoting bars.
func (s Symbol) Name() string {
	return s.name
}

// IsZero reports whether s is the empty symbol.
func (s Symbol) IsZero() bool {
	return s.name == ""
}

// String renders the symbol in SMT-LIB concrete syntax. The content is
// wrapped in |bars| only when it is not a valid simple symbol or collides
// with a reserved word.
func (s Symbol) String() string {
	if IsSimple(s.name) && !IsReserved(s.name) {
		return s.name
	}
	return "|" + s.name + "|"
}

// Keyword is an SMT-LIB keyword such as :named. The stored name excludes the
// leading colon.
type Keyword struct {
	name string
}

// NewKeyword creates a keyword. A leading colon in name is stripped.
func NewKeyword(name string) Keyword {
	return Keyword{name: strings.TrimPrefix(name, ":")}
}

// Name returns the keyword without its leading colon.
func (k Keyword) Name() string {
	return k.name
}

// String renders the keyword with its leading colon.
func (k Keyword) String() string {
	return ":" + k.name
}

// IsSimple reports whether text is a simple symbol: a non-empty sequence of
// letters, digits and the characters ~ ! @ $ % ^ & * _ - + = < > . ? / that
// does not start with a digit.
func IsSimple(text string) bool {
	if text == "" {
		return false
	}
	if text[0] >= '0' && text[0] <= '9' {
		return false
	}
	for i := 0; i < len(text); i++ {
		if !IsSymbolChar(text[i]) {
			return false
		}
	}
	return true
}

// IsReserved reports whether text is a reserved word of the term and sort
// grammar. Command names are ordinary symbols.
func IsReserved(text string) bool {
	switch text {
	case "_", "!", "as", "let", "exists", "forall", "match", "par",
		"NUMERAL", "DECIMAL", "STRING", "BINARY", "HEXADECIMAL":
		return true
	default:
		return false
	}
}

// IsSymbolChar reports whether c may appear in a simple symbol.
func IsSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '~', '!', '@', '$', '%', '^', '&', '*', '_', '-', '+', '=', '<', '>', '.', '?', '/':
		return true
	default:
		return false
	}
}
