// Package atarifp encodes decimal literals into the six byte binary coded
// decimal floating point format used by the Atari 8-bit OS math package.
//
// Byte 0 holds the sign in bit 7 and a base 100 exponent in excess-64 form in
// bits 0..6.  Bytes 1 to 5 hold ten BCD digits, two per byte.  The value is
//
//	(b1 + b2/100 + b3/100^2 + b4/100^3 + b5/100^4) * 100^(exp-64)
//
// with b1 non-zero for every value except zero, which is six zero bytes.
package atarifp

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is one encoded floating point value, laid out exactly as the
// runtime expects it in memory.
type Number [6]byte

const (
	expBias = 64

	// Range of the base 100 exponent: 1E-98 .. 9.999999999E97
	minExp = -49
	maxExp = 48

	// mantissaDigits is the number of BCD digits stored after the exponent.
	mantissaDigits = 10

	// Exponents outside of this are clamped while parsing; anything beyond
	// is out of range anyway and the clamp keeps the arithmetic in an int.
	expClamp = 10000
)

// EncodeError reports a literal that can not be represented.
type EncodeError struct {
	Literal string
	Reason  string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("invalid number `%s`: %s", e.Literal, e.Reason)
}

// Encode converts a decimal literal of the form [+-]digits[.digits][E[+-]digits]
// into its Atari representation.  Digits past the tenth significant one are
// rounded half-up.
func Encode(text string) (Number, error) {
	var n Number

	neg, digits, point, err := scanDecimal(text)
	if err != nil {
		return n, err
	}

	// strip leading zeros, keeping the decimal point position relative to the
	// first remaining digit: value = 0.digits * 10^point
	for len(digits) > 0 && digits[0] == '0' {
		digits = digits[1:]
		point--
	}
	digits = strings.TrimRight(digits, "0")

	if digits == "" {
		return n, nil
	}

	digits, point = normalize(digits, point)

	// value = (d0d1 . d2d3 ...) * 100^(point/2 - 1)
	exp := point/2 - 1
	if exp > maxExp {
		return n, &EncodeError{Literal: text, Reason: "number too big"}
	} else if exp < minExp {
		return n, &EncodeError{Literal: text, Reason: "number too small"}
	}

	n[0] = byte(exp + expBias)
	if neg {
		n[0] |= 0x80
	}

	for i := 0; i < mantissaDigits/2; i++ {
		n[i+1] = (digits[2*i]-'0')<<4 | (digits[2*i+1] - '0')
	}

	return n, nil
}

// normalize makes the decimal point position even, so that digits pair up
// with base 100 exponent steps, and rounds the digits to the stored width.
// The returned digit string is always exactly mantissaDigits long.
func normalize(digits string, point int) (string, int) {
	for {
		if point%2 != 0 {
			digits = "0" + digits
			point++
		}

		if len(digits) <= mantissaDigits {
			return digits + strings.Repeat("0", mantissaDigits-len(digits)), point
		}

		roundUp := digits[mantissaDigits] >= '5'
		digits = digits[:mantissaDigits]
		if !roundUp {
			return digits, point
		}

		rounded, carry := increment(digits)
		if !carry {
			return rounded, point
		}

		// 0.999... rounded up to 1.000... one decade higher
		digits = "1"
		point++
	}
}

// increment adds one to a decimal digit string, reporting whether the result
// overflowed the string's width
func increment(digits string) (string, bool) {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != '9' {
			b[i]++
			return string(b), false
		}

		b[i] = '0'
	}

	return string(b), true
}

// scanDecimal splits a literal into its sign, its significant digits (integer
// and fraction parts concatenated), and the position of the decimal point
// relative to the first digit after applying the exponent.
func scanDecimal(text string) (bool, string, int, error) {
	malformed := func() (bool, string, int, error) {
		return false, "", 0, &EncodeError{Literal: text, Reason: "malformed number"}
	}

	s := text
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[:i]

	fracPart := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[i+1 : j]
		i = j
	}

	if intPart == "" && fracPart == "" {
		return malformed()
	}

	exp := 0
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		expNeg := false
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			expNeg = s[i] == '-'
			i++
		}

		start := i
		for i < len(s) && isDigit(s[i]) {
			if exp < expClamp {
				exp = exp*10 + int(s[i]-'0')
			}
			i++
		}

		if start == i {
			return malformed()
		}

		if expNeg {
			exp = -exp
		}
	}

	if i != len(s) {
		return malformed()
	}

	return neg, intPart + fracPart, len(intPart) + exp, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// -----------------------------------------------------------------------------

// IsZero reports whether n encodes zero
func (n Number) IsZero() bool {
	return n[1] == 0
}

// Float64 decodes the number the way the OS math package reads it back.
func (n Number) Float64() float64 {
	if n.IsZero() {
		return 0
	}

	var sb strings.Builder
	if n[0]&0x80 != 0 {
		sb.WriteByte('-')
	}

	sb.WriteString("0.")
	for _, b := range n[1:] {
		sb.WriteByte('0' + b>>4)
		sb.WriteByte('0' + b&0x0F)
	}

	exp := int(n[0]&0x7F) - expBias
	sb.WriteString("e")
	sb.WriteString(strconv.Itoa(2*exp + 2))

	// the string is always well formed
	f, _ := strconv.ParseFloat(sb.String(), 64)
	return f
}

// String renders the decoded value with the format's full precision
func (n Number) String() string {
	return strconv.FormatFloat(n.Float64(), 'G', mantissaDigits, 64)
}

// Asm renders the six bytes as an assembler byte list
func (n Number) Asm() string {
	parts := make([]string, len(n))
	for i, b := range n {
		parts[i] = fmt.Sprintf("$%02X", b)
	}

	return strings.Join(parts, ",")
}
