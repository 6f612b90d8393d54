package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a gosmt error code.
type ErrorCode string

// Error codes, grouped by the layer that detects them.
const (
	// L01xx: lexical errors
	ErrStringNotClosed  ErrorCode = "L0101"
	ErrQuotedNotClosed  ErrorCode = "L0102"
	ErrBadRadixLiteral  ErrorCode = "L0103"
	ErrMalformedNumeral ErrorCode = "L0104"
	ErrIllegalCharacter ErrorCode = "L0105"
	ErrReadFailed       ErrorCode = "L0106"

	// N01xx: numeral literal errors
	ErrNumeralEmpty   ErrorCode = "N0101"
	ErrNumeralDigit   ErrorCode = "N0102"
	ErrNumeralZeroDiv ErrorCode = "N0103"

	// S02xx: syntax errors
	ErrUnexpectedToken ErrorCode = "S0201"
	ErrUnexpectedEnd   ErrorCode = "S0202"
	ErrUnbalancedParen ErrorCode = "S0203"
	ErrMaxDepth        ErrorCode = "S0204"
	ErrUnknownCommand  ErrorCode = "S0205"
	ErrBadCommand      ErrorCode = "S0206"
	ErrBadTerm         ErrorCode = "S0207"
	ErrBadSort         ErrorCode = "S0208"

	// T03xx: trace log errors
	ErrTraceNoTag      ErrorCode = "T0301"
	ErrTraceFieldCount ErrorCode = "T0302"
	ErrTraceBadRef     ErrorCode = "T0303"
	ErrTraceBadField   ErrorCode = "T0304"
	ErrTraceLineTooBig ErrorCode = "T0305"

	// G04xx: term graph integrity errors
	ErrGraphUnknownRef ErrorCode = "G0401"
	ErrGraphSelfRef    ErrorCode = "G0402"
	ErrGraphNoInstance ErrorCode = "G0403"

	// V05xx: transition system model errors
	ErrModelComponent ErrorCode = "V0501"
	ErrModelVariable  ErrorCode = "V0502"
	ErrModelCommand   ErrorCode = "V0503"
	ErrModelArraySort ErrorCode = "V0504"
)

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrLex            = errors.New("lexical error")
	ErrNumeralFormat  = errors.New("numeral format error")
	ErrSyntax         = errors.New("syntax error")
	ErrTraceParse     = errors.New("trace parse error")
	ErrGraphIntegrity = errors.New("graph integrity error")
	ErrModel          = errors.New("model error")
)

// Position locates a byte in a source.
// Line and Column are 1-based; Offset is 0-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error represents a structured gosmt error.
//
// Lexer, parser and numeral errors carry a source Position. Trace and graph
// errors carry the 1-based Line of the trace log instead and leave Position
// zero.
type Error struct {
	Code     ErrorCode
	Message  string
	Position Position
	Line     int
	Token    string
	Expected string
	Err      error
}

// NewError creates a new error at a source position.
func NewError(code ErrorCode, message string, pos Position) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: pos,
		Line:     pos.Line,
	}
}

// NewLineError creates an error attached to a trace log line.
func NewLineError(code ErrorCode, message string, line int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Line:    line,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Expected != "" {
		msg = fmt.Sprintf("%s (expected %s, found %q)", msg, e.Expected, e.Token)
	}
	switch {
	case e.Position.Line > 0:
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Position, msg)
	case e.Line > 0:
		return fmt.Sprintf("%s at line %d: %s", e.Code, e.Line, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind sentinel matching the error code.
func (e *Error) Is(target error) bool {
	return target == e.Kind()
}

// Kind returns the sentinel for the error's family.
func (e *Error) Kind() error {
	if len(e.Code) == 0 {
		return nil
	}
	switch e.Code[0] {
	case 'L':
		return ErrLex
	case 'N':
		return ErrNumeralFormat
	case 'S':
		return ErrSyntax
	case 'T':
		return ErrTraceParse
	case 'G':
		return ErrGraphIntegrity
	case 'V':
		return ErrModel
	default:
		return nil
	}
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithExpected records what the grammar expected at the error position.
func (e *Error) WithExpected(expected string) *Error {
	e.Expected = expected
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsLexError reports whether err is a malformed-token error.
func IsLexError(err error) bool { return errors.Is(err, ErrLex) }

// IsNumeralError reports whether err is a bad numeric literal.
func IsNumeralError(err error) bool { return errors.Is(err, ErrNumeralFormat) }

// IsSyntaxError reports whether err is a grammar violation.
func IsSyntaxError(err error) bool { return errors.Is(err, ErrSyntax) }

// IsTraceError reports whether err is a malformed trace line.
func IsTraceError(err error) bool { return errors.Is(err, ErrTraceParse) }

// IsGraphError reports whether err is a term graph integrity violation.
func IsGraphError(err error) bool { return errors.Is(err, ErrGraphIntegrity) }

// IsModelError reports whether err is a malformed transition system model.
func IsModelError(err error) bool { return errors.Is(err, ErrModel) }
