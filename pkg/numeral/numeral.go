// Package numeral models SMT-LIB numeric literals with exact values.
//
// A Literal keeps its value and the lexeme it was read from together, so it
// can be printed back byte for byte (#x0F stays #x0F, 1.50 stays 1.50).
// Arithmetic is exact over math/big rationals and returns canonical
// literals; nothing in this package rounds or overflows.
package numeral

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/sandrolain/gosmt/pkg/types"
)

// Form is the lexical form of a literal.
type Form uint8

const (
	FormNumeral Form = iota
	FormDecimal
	FormHexadecimal
	FormBinary
	FormRational
)

// String returns the SMT-LIB name of the form.
func (f Form) String() string {
	switch f {
	case FormNumeral:
		return "NUMERAL"
	case FormDecimal:
		return "DECIMAL"
	case FormHexadecimal:
		return "HEXADECIMAL"
	case FormBinary:
		return "BINARY"
	case FormRational:
		return "RATIONAL"
	default:
		return "(unknown)"
	}
}

// Literal is an exact numeric literal together with its lexical form.
// The zero value is not a valid literal; use Parse or one of the From
// constructors.
type Literal struct {
	form   Form
	lexeme string
	value  *big.Rat
}

// Parse decodes a numeric lexeme.
//
// Accepted forms:
//
//	123       numeral
//	1.50      decimal
//	#x1F      hexadecimal (bit width 4 per digit)
//	#b0101    binary (bit width 1 per digit)
//	3/4       rational
//
// Numerals, decimals and rationals may carry a leading '-' (trace logs print
// negative arithmetic meanings that way). Errors are *types.Error values with
// an N01xx code.
func Parse(lexeme string) (Literal, error) {
	if lexeme == "" {
		return Literal{}, numeralError(types.ErrNumeralEmpty, "empty numeric literal", lexeme)
	}

	switch {
	case strings.HasPrefix(lexeme, "#x"):
		return parseRadix(lexeme, FormHexadecimal, 16)
	case strings.HasPrefix(lexeme, "#b"):
		return parseRadix(lexeme, FormBinary, 2)
	case strings.HasPrefix(lexeme, "#"):
		return Literal{}, numeralError(types.ErrNumeralDigit, "unknown radix prefix", lexeme)
	}

	body := strings.TrimPrefix(lexeme, "-")
	if num, den, ok := strings.Cut(body, "/"); ok {
		if !allDigits(num) || !allDigits(den) {
			return Literal{}, numeralError(types.ErrNumeralDigit, "invalid rational digits", lexeme)
		}
		d, _ := new(big.Int).SetString(den, 10)
		if d.Sign() == 0 {
			return Literal{}, numeralError(types.ErrNumeralZeroDiv, "rational with zero denominator", lexeme)
		}
		n, _ := new(big.Int).SetString(num, 10)
		if body != lexeme {
			n.Neg(n)
		}
		return Literal{form: FormRational, lexeme: lexeme, value: new(big.Rat).SetFrac(n, d)}, nil
	}

	if whole, frac, ok := strings.Cut(body, "."); ok {
		if !allDigits(whole) || !allDigits(frac) {
			return Literal{}, numeralError(types.ErrNumeralDigit, "invalid decimal digits", lexeme)
		}
		v, ok := new(big.Rat).SetString(lexeme)
		if !ok {
			return Literal{}, numeralError(types.ErrNumeralDigit, "invalid decimal", lexeme)
		}
		return Literal{form: FormDecimal, lexeme: lexeme, value: v}, nil
	}

	if !allDigits(body) {
		return Literal{}, numeralError(types.ErrNumeralDigit, "invalid numeral digits", lexeme)
	}
	n, _ := new(big.Int).SetString(body, 10)
	if body != lexeme {
		n.Neg(n)
	}
	return Literal{form: FormNumeral, lexeme: lexeme, value: new(big.Rat).SetInt(n)}, nil
}

// MustParse is like Parse but panics on malformed input.
// It simplifies literal constants in tests and tables.
func MustParse(lexeme string) Literal {
	l, err := Parse(lexeme)
	if err != nil {
		panic(fmt.Sprintf("numeral: Parse(%q): %v", lexeme, err))
	}
	return l
}

func parseRadix(lexeme string, form Form, base int) (Literal, error) {
	digits := lexeme[2:]
	if digits == "" {
		return Literal{}, numeralError(types.ErrNumeralEmpty, "radix literal without digits", lexeme)
	}
	for i := 0; i < len(digits); i++ {
		if digitValue(digits[i]) >= base {
			return Literal{}, numeralError(types.ErrNumeralDigit,
				fmt.Sprintf("digit %q is not valid in base %d", digits[i], base), lexeme)
		}
	}
	n, _ := new(big.Int).SetString(digits, base)
	return Literal{form: form, lexeme: lexeme, value: new(big.Rat).SetInt(n)}, nil
}

// FromInt returns the canonical numeral literal for n.
func FromInt(n *big.Int) Literal {
	return FromRat(new(big.Rat).SetInt(n))
}

// FromInt64 returns the canonical numeral literal for n.
func FromInt64(n int64) Literal {
	return FromRat(new(big.Rat).SetInt64(n))
}

// FromRat returns the canonical literal for r: a numeral when r is an
// integer, a rational n/d otherwise. Negative values carry a leading '-'.
func FromRat(r *big.Rat) Literal {
	v := new(big.Rat).Set(r)
	if v.IsInt() {
		return Literal{form: FormNumeral, lexeme: v.Num().String(), value: v}
	}
	return Literal{form: FormRational, lexeme: v.Num().String() + "/" + v.Denom().String(), value: v}
}

// Form returns the lexical form.
func (l Literal) Form() Form {
	return l.form
}

// Lexeme returns the exact text the literal was read from.
func (l Literal) Lexeme() string {
	return l.lexeme
}

// String implements fmt.Stringer and returns the lexeme.
func (l Literal) String() string {
	return l.lexeme
}

// IsValid reports whether l was produced by Parse or a constructor.
func (l Literal) IsValid() bool {
	return l.value != nil
}

// Value returns a copy of the exact value, discarding the lexical form.
func (l Literal) Value() *big.Rat {
	if l.value == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(l.value)
}

// Int returns the value as an integer when it is one.
func (l Literal) Int() (*big.Int, bool) {
	if l.value == nil || !l.value.IsInt() {
		return nil, false
	}
	return new(big.Int).Set(l.value.Num()), true
}

// Radix returns 2, 16 or 10 depending on the form.
func (l Literal) Radix() int {
	switch l.form {
	case FormBinary:
		return 2
	case FormHexadecimal:
		return 16
	default:
		return 10
	}
}

// Digits returns the number of digits in the lexeme, excluding prefixes,
// signs and separators.
func (l Literal) Digits() int {
	if l.form == FormHexadecimal || l.form == FormBinary {
		return len(l.lexeme) - 2
	}
	n := 0
	for i := 0; i < len(l.lexeme); i++ {
		if l.lexeme[i] >= '0' && l.lexeme[i] <= '9' {
			n++
		}
	}
	return n
}

// BitWidth returns the bit-vector width implied by a hexadecimal or binary
// literal, or 0 for other forms.
func (l Literal) BitWidth() int {
	switch l.form {
	case FormHexadecimal:
		return 4 * (len(l.lexeme) - 2)
	case FormBinary:
		return len(l.lexeme) - 2
	default:
		return 0
	}
}

// Equal reports whether both literals have the same form and lexeme.
func (l Literal) Equal(o Literal) bool {
	return l.form == o.form && l.lexeme == o.lexeme
}

// Cmp compares the exact values of l and o.
func (l Literal) Cmp(o Literal) int {
	return l.Value().Cmp(o.Value())
}

// Sign returns -1, 0 or +1.
func (l Literal) Sign() int {
	if l.value == nil {
		return 0
	}
	return l.value.Sign()
}

// Add returns l + o.
func (l Literal) Add(o Literal) Literal {
	return FromRat(new(big.Rat).Add(l.Value(), o.Value()))
}

// Sub returns l - o.
func (l Literal) Sub(o Literal) Literal {
	return FromRat(new(big.Rat).Sub(l.Value(), o.Value()))
}

// Mul returns l * o.
func (l Literal) Mul(o Literal) Literal {
	return FromRat(new(big.Rat).Mul(l.Value(), o.Value()))
}

// Quo returns l / o. It fails when o is zero.
func (l Literal) Quo(o Literal) (Literal, error) {
	if o.Sign() == 0 {
		return Literal{}, numeralError(types.ErrNumeralZeroDiv, "division by zero", o.lexeme)
	}
	return FromRat(new(big.Rat).Quo(l.Value(), o.Value())), nil
}

// Neg returns -l.
func (l Literal) Neg() Literal {
	return FromRat(new(big.Rat).Neg(l.Value()))
}

func numeralError(code types.ErrorCode, message, lexeme string) *types.Error {
	return (&types.Error{Code: code, Message: message}).WithToken(lexeme)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// digitValue returns the value of a hex digit, or 99 for non-digits.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 99
	}
}
