package parser

import (
	"errors"
	"io"
	"iter"

	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// defaultChunkSize is how many bytes a reader-backed lexer requests per read.
const defaultChunkSize = 64 * 1024

// ErrCheckpointReleased is returned by Restore when the bytes behind a
// checkpoint are no longer buffered.
var ErrCheckpointReleased = errors.New("checkpoint no longer buffered")

// Lexer converts SMT-LIB source into a sequence of tokens.
// The implementation follows Rob Pike's "Lexical Scanning in Go" technique,
// working on bytes: every SMT-LIB delimiter is ASCII and non-ASCII bytes
// only occur inside strings and quoted symbols, which are copied verbatim.
//
// A Lexer reads either from an in-memory string or from an io.Reader. The
// reader form keeps a sliding window: bytes before the current token (or the
// pinned checkpoint) are discarded, so memory stays proportional to the
// largest token rather than the input size.
type Lexer struct {
	r    io.Reader
	buf  []byte
	base int // absolute offset of buf[0]

	start     int // absolute offset of the current token
	startLine int
	startCol  int

	cur  int // absolute read offset
	line int
	col  int

	pin     int // absolute offset retained for Restore, -1 if none
	eof     bool
	readErr error
	err     error
}

// Checkpoint is a saved lexer position. It is only meaningful for the
// Lexer that produced it.
type Checkpoint struct {
	offset int
	line   int
	col    int
}

// Offset returns the byte offset of the checkpoint.
func (c Checkpoint) Offset() int {
	return c.offset
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		buf:  []byte(input),
		eof:  true,
		line: 1,
		col:  1,
		pin:  -1,
	}
}

// NewReaderLexer creates a lexer that pulls input from r on demand.
// The caller keeps ownership of r.
func NewReaderLexer(r io.Reader) *Lexer {
	return &Lexer{
		r:    r,
		buf:  make([]byte, 0, defaultChunkSize),
		line: 1,
		col:  1,
		pin:  -1,
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls. After a TokenError, Next keeps returning the same error
// token until ClearError or Restore is called.
func (l *Lexer) Next() Token {
	if l.err != nil {
		return Token{Type: TokenError, Value: l.lexeme(), Pos: l.startPos()}
	}

	l.skipWhitespace()
	l.mark()

	ch, ok := l.peek()
	if !ok {
		if l.readErr != nil {
			return l.error(types.ErrReadFailed, "read failed: "+l.readErr.Error())
		}
		return l.eofToken()
	}

	switch {
	case ch == '(':
		l.advance()
		return l.newToken(TokenParenOpen)
	case ch == ')':
		l.advance()
		return l.newToken(TokenParenClose)
	case ch == '"':
		return l.scanString()
	case ch == '|':
		return l.scanQuotedSymbol()
	case ch == ':':
		return l.scanKeyword()
	case ch == '#':
		return l.scanRadix()
	case isDigit(ch):
		return l.scanNumber()
	case symbol.IsSymbolChar(ch):
		return l.scanSymbol()
	default:
		l.advance()
		return l.error(types.ErrIllegalCharacter, "illegal character")
	}
}

// All returns the remaining tokens as a lazy sequence. The sequence ends
// after TokenEOF or the first TokenError, both of which are yielded.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			t := l.Next()
			if !yield(t) || t.Type == TokenEOF || t.Type == TokenError {
				return
			}
		}
	}
}

// Error returns the current lexical error, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// ClearError drops the current error so lexing resumes after the offending
// bytes. The lexer itself never does this; it is a tool for callers that
// resynchronize.
func (l *Lexer) ClearError() {
	l.err = nil
	l.start = l.cur
}

// Pos returns the current read position.
func (l *Lexer) Pos() types.Position {
	return types.Position{Offset: l.cur, Line: l.line, Column: l.col}
}

// Checkpoint records the current position so lexing can later be restarted
// from it. For reader-backed lexers the bytes from the checkpoint onward
// stay buffered until Release is called.
func (l *Lexer) Checkpoint() Checkpoint {
	l.pin = l.cur
	return Checkpoint{offset: l.cur, line: l.line, col: l.col}
}

// Restore rewinds the lexer to cp and clears any lexical error.
func (l *Lexer) Restore(cp Checkpoint) error {
	if cp.offset < l.base || cp.offset > l.base+len(l.buf) {
		return ErrCheckpointReleased
	}
	l.cur = cp.offset
	l.line = cp.line
	l.col = cp.col
	l.err = nil
	l.mark()
	return nil
}

// Release unpins the buffered bytes held for the last checkpoint.
func (l *Lexer) Release() {
	l.pin = -1
}

// scanString reads a string literal. The only escape is a doubled quote.
// Strings may span lines.
func (l *Lexer) scanString() Token {
	l.advance()
	for {
		ch, ok := l.peek()
		if !ok {
			return l.error(types.ErrStringNotClosed, "unterminated string literal")
		}
		l.advance()
		if ch != '"' {
			continue
		}
		if next, ok := l.peek(); ok && next == '"' {
			l.advance()
			continue
		}
		return l.newToken(TokenString)
	}
}

// scanQuotedSymbol reads a |quoted symbol|.
func (l *Lexer) scanQuotedSymbol() Token {
	l.advance()
	for {
		ch, ok := l.peek()
		if !ok {
			return l.error(types.ErrQuotedNotClosed, "unterminated quoted symbol")
		}
		l.advance()
		if ch == '|' {
			return l.newToken(TokenQuotedSymbol)
		}
	}
}

// scanKeyword reads :name.
func (l *Lexer) scanKeyword() Token {
	l.advance()
	if !l.acceptAll(symbol.IsSymbolChar) {
		return l.error(types.ErrIllegalCharacter, "keyword without a name")
	}
	return l.newToken(TokenKeyword)
}

// scanRadix reads #x and #b literals.
func (l *Lexer) scanRadix() Token {
	l.advance()
	var tt TokenType
	var valid func(byte) bool
	switch ch, _ := l.peek(); ch {
	case 'x':
		tt, valid = TokenHexadecimal, isHexDigit
	case 'b':
		tt, valid = TokenBinary, isBinaryDigit
	default:
		return l.error(types.ErrBadRadixLiteral, "radix prefix must be #x or #b")
	}
	l.advance()
	if !l.acceptAll(valid) {
		return l.error(types.ErrBadRadixLiteral, "radix literal without digits")
	}
	if l.followedBySymbolChar() {
		return l.error(types.ErrBadRadixLiteral, "digit does not match radix")
	}
	return l.newToken(tt)
}

// scanNumber reads a numeral or decimal.
// Format: (0|[1-9][0-9]*)(\.[0-9]+)?
func (l *Lexer) scanNumber() Token {
	if l.acceptByte('0') {
		if next, ok := l.peek(); ok && isDigit(next) {
			l.acceptAll(isDigit)
			return l.error(types.ErrMalformedNumeral, "numeral with leading zero")
		}
	} else {
		l.acceptAll(isDigit)
	}

	tt := TokenNumeral
	if l.acceptByte('.') {
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrMalformedNumeral, "decimal without fractional digits")
		}
		tt = TokenDecimal
	}

	if l.followedBySymbolChar() {
		return l.error(types.ErrMalformedNumeral, "numeral runs into symbol characters")
	}
	return l.newToken(tt)
}

// scanSymbol reads a simple symbol or reserved word.
func (l *Lexer) scanSymbol() Token {
	l.acceptAll(symbol.IsSymbolChar)
	t := l.newToken(TokenSymbol)
	if lookupReserved(t.Value) {
		t.Type = TokenReserved
	}
	return t
}

// followedBySymbolChar consumes and reports trailing symbol characters so
// the error token covers the whole malformed lexeme.
func (l *Lexer) followedBySymbolChar() bool {
	return l.acceptAll(symbol.IsSymbolChar)
}

// Helper methods

func (l *Lexer) skipWhitespace() {
	for {
		ch, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case isWhitespace(ch):
			l.advance()
		case ch == ';':
			for {
				c, ok := l.peek()
				if !ok || c == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) mark() {
	l.start = l.cur
	l.startLine = l.line
	l.startCol = l.col
}

func (l *Lexer) startPos() types.Position {
	return types.Position{Offset: l.start, Line: l.startLine, Column: l.startCol}
}

func (l *Lexer) lexeme() string {
	return string(l.buf[l.start-l.base : l.cur-l.base])
}

func (l *Lexer) eofToken() Token {
	return Token{
		Type: TokenEOF,
		Pos:  l.startPos(),
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := Token{Type: TokenError, Value: l.lexeme(), Pos: l.startPos()}
	e := types.NewError(code, message, t.Pos).WithToken(t.Value)
	if code == types.ErrReadFailed {
		e = e.WithCause(l.readErr)
	}
	l.err = e
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	return Token{
		Type:  tt,
		Value: l.lexeme(),
		Pos:   l.startPos(),
	}
}

func (l *Lexer) peek() (byte, bool) {
	idx := l.cur - l.base
	if idx >= len(l.buf) && !l.fill() {
		return 0, false
	}
	return l.buf[l.cur-l.base], true
}

func (l *Lexer) advance() {
	if l.buf[l.cur-l.base] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.cur++
}

func (l *Lexer) acceptByte(b byte) bool {
	if ch, ok := l.peek(); ok && ch == b {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) accept(isValid func(byte) bool) bool {
	if ch, ok := l.peek(); ok && isValid(ch) {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) acceptAll(isValid func(byte) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// fill reads more input, discarding bytes that precede both the current
// token and the pinned checkpoint. It reports whether new bytes arrived.
func (l *Lexer) fill() bool {
	if l.r == nil || l.eof {
		return false
	}

	keep := l.start
	if l.pin >= 0 && l.pin < keep {
		keep = l.pin
	}
	if drop := keep - l.base; drop > 0 {
		n := copy(l.buf, l.buf[drop:])
		l.buf = l.buf[:n]
		l.base = keep
	}
	if len(l.buf) == cap(l.buf) {
		grown := make([]byte, len(l.buf), 2*cap(l.buf)+defaultChunkSize)
		copy(grown, l.buf)
		l.buf = grown
	}

	for attempts := 0; attempts < 100; attempts++ {
		n, err := l.r.Read(l.buf[len(l.buf):cap(l.buf)])
		l.buf = l.buf[:len(l.buf)+n]
		if err != nil {
			l.eof = true
			if !errors.Is(err, io.EOF) {
				l.readErr = err
			}
			return n > 0
		}
		if n > 0 {
			return true
		}
	}
	l.eof = true
	l.readErr = io.ErrNoProgress
	return false
}

// Character classification functions

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBinaryDigit(c byte) bool {
	return c == '0' || c == '1'
}
