package numeral_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/types"
)

func TestParseForms(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		form   numeral.Form
		value  string
		digits int
		width  int
	}{
		{"zero", "0", numeral.FormNumeral, "0", 1, 0},
		{"numeral", "42", numeral.FormNumeral, "42", 2, 0},
		{"big numeral", "123456789012345678901234567890", numeral.FormNumeral, "123456789012345678901234567890", 30, 0},
		{"negative numeral", "-7", numeral.FormNumeral, "-7", 1, 0},
		{"decimal", "1.50", numeral.FormDecimal, "3/2", 3, 0},
		{"hex", "#x1F", numeral.FormHexadecimal, "31", 2, 8},
		{"hex leading zeros", "#x000b", numeral.FormHexadecimal, "11", 4, 16},
		{"binary", "#b0101", numeral.FormBinary, "5", 4, 4},
		{"rational", "3/4", numeral.FormRational, "3/4", 2, 0},
		{"negative rational", "-1/3", numeral.FormRational, "-1/3", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, err := numeral.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.form, lit.Form())
			assert.Equal(t, tt.input, lit.Lexeme(), "lexeme must be preserved")
			assert.Equal(t, tt.input, lit.String())
			assert.Equal(t, tt.digits, lit.Digits())
			assert.Equal(t, tt.width, lit.BitWidth())

			want, ok := new(big.Rat).SetString(tt.value)
			require.True(t, ok)
			assert.Zero(t, want.Cmp(lit.Value()), "value %s", lit.Value())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  types.ErrorCode
	}{
		{"empty", "", types.ErrNumeralEmpty},
		{"empty hex", "#x", types.ErrNumeralEmpty},
		{"bad binary digit", "#b012", types.ErrNumeralDigit},
		{"bad hex digit", "#xFG", types.ErrNumeralDigit},
		{"unknown radix", "#o17", types.ErrNumeralDigit},
		{"letters", "12a", types.ErrNumeralDigit},
		{"dangling dot", "1.", types.ErrNumeralDigit},
		{"zero denominator", "1/0", types.ErrNumeralZeroDiv},
		{"rational without numerator", "/3", types.ErrNumeralDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := numeral.Parse(tt.input)
			require.Error(t, err)
			assert.True(t, types.IsNumeralError(err))

			var e *types.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.input, e.Token)
		})
	}
}

func TestValueIsACopy(t *testing.T) {
	lit := numeral.MustParse("10")
	v := lit.Value()
	v.SetInt64(99)
	assert.Equal(t, "10", lit.Value().RatString())
}

func TestExactArithmetic(t *testing.T) {
	third := numeral.MustParse("1/3")
	two := numeral.MustParse("2")

	assert.Equal(t, "1", third.Add(third).Add(third).Lexeme())
	assert.Equal(t, "2/3", third.Mul(two).Lexeme())
	assert.Equal(t, "-5/3", third.Sub(two).Lexeme())
	assert.Equal(t, "-2", two.Neg().Lexeme())

	q, err := two.Quo(numeral.MustParse("#b11"))
	require.NoError(t, err)
	assert.Equal(t, numeral.FormRational, q.Form())
	assert.Equal(t, "2/3", q.Lexeme())

	_, err = two.Quo(numeral.MustParse("0.0"))
	assert.True(t, types.IsNumeralError(err))

	huge := numeral.MustParse("18446744073709551615")
	sum := huge.Add(numeral.FromInt64(1))
	assert.Equal(t, "18446744073709551616", sum.Lexeme(), "no uint64 overflow")
}

func TestCompareAcrossForms(t *testing.T) {
	assert.Zero(t, numeral.MustParse("#x10").Cmp(numeral.MustParse("16")))
	assert.Zero(t, numeral.MustParse("0.5").Cmp(numeral.MustParse("1/2")))
	assert.False(t, numeral.MustParse("#x10").Equal(numeral.MustParse("16")))
	assert.Negative(t, numeral.MustParse("#b1").Cmp(numeral.MustParse("1.5")))
}

func TestIntConversion(t *testing.T) {
	n, ok := numeral.MustParse("#xff").Int()
	require.True(t, ok)
	assert.Equal(t, int64(255), n.Int64())

	_, ok = numeral.MustParse("0.25").Int()
	assert.False(t, ok)

	_, ok = numeral.MustParse("2.0").Int()
	assert.True(t, ok)
}
