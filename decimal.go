package cbor

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"gopkg.in/inf.v0"
)

type decimalForm uint8

const (
	finite decimalForm = iota
	infinite
	notANumber
)

// Decimal is an arbitrary-precision decimal number, or one of the special
// states +Infinity, -Infinity and NaN. Finite decimals encode as tag 4
// [exponent, mantissa]; special states encode as floats. The zero Decimal
// is 0.
type Decimal struct {
	form decimalForm
	neg  bool
	dec  *inf.Dec
}

// The scale of an inf.Dec is the negated exponent and is an int32.
const (
	minExponent = -math.MaxInt32
	maxExponent = math.MaxInt32 + 1
)

// NewDecimal returns mantissa * 10^exponent. It panics when exponent is
// math.MinInt32 and the mantissa has no trailing zero digit to absorb it.
func NewDecimal(mantissa *big.Int, exponent int32) Decimal {
	d, ok := newDecimal(mantissa, int64(exponent))
	if !ok {
		panic(fmt.Sprintf("cbor: decimal exponent %d out of range", exponent))
	}
	return d
}

// newDecimal moves trailing zero digits of the mantissa into an exponent
// below minExponent. It reports false when the value has no exponent in
// [minExponent, maxExponent].
func newDecimal(mantissa *big.Int, exponent int64) (Decimal, bool) {
	m := new(big.Int)
	if mantissa != nil {
		m.Set(mantissa)
	}
	if m.Sign() == 0 && (exponent < minExponent || exponent > maxExponent) {
		exponent = 0
	}
	if exponent < minExponent {
		ten := big.NewInt(10)
		q, r := new(big.Int), new(big.Int)
		for exponent < minExponent {
			q.QuoRem(m, ten, r)
			if r.Sign() != 0 {
				return Decimal{}, false
			}
			m.Set(q)
			exponent++
		}
	}
	if exponent > maxExponent {
		return Decimal{}, false
	}
	return Decimal{dec: inf.NewDecBig(m, inf.Scale(-exponent))}, true
}

// DecimalOf returns a Decimal holding a copy of d. A nil d is 0.
func DecimalOf(d *inf.Dec) Decimal {
	if d == nil {
		return Decimal{}
	}
	return Decimal{dec: new(inf.Dec).Set(d)}
}

// DecimalInf returns +Infinity if sign >= 0 and -Infinity otherwise.
func DecimalInf(sign int) Decimal {
	return Decimal{form: infinite, neg: sign < 0}
}

// DecimalNaN returns a not-a-number Decimal.
func DecimalNaN() Decimal {
	return Decimal{form: notANumber}
}

// ParseDecimal parses a plain decimal string such as "-12.340", or one of
// "NaN", "Infinity", "+Infinity", "-Infinity".
func ParseDecimal(s string) (Decimal, error) {
	switch strings.TrimSpace(s) {
	case "NaN":
		return DecimalNaN(), nil
	case "Infinity", "+Infinity", "Inf", "+Inf":
		return DecimalInf(1), nil
	case "-Infinity", "-Inf":
		return DecimalInf(-1), nil
	}
	d, ok := new(inf.Dec).SetString(strings.TrimSpace(s))
	if !ok {
		return Decimal{}, fmt.Errorf("cbor: invalid decimal %q", s)
	}
	return Decimal{dec: d}, nil
}

func (d Decimal) Major() Major {
	if d.form != finite {
		return MajorSimple
	}
	return MajorTag
}

func (d Decimal) IsNaN() bool {
	return d.form == notANumber
}

// IsInf reports whether d is an infinity, according to sign, with the
// same convention as math.IsInf.
func (d Decimal) IsInf(sign int) bool {
	if d.form != infinite {
		return false
	}
	return sign == 0 || (sign > 0) == !d.neg
}

// Dec returns a copy of the finite value, or nil for the special states.
func (d Decimal) Dec() *inf.Dec {
	if d.form != finite {
		return nil
	}
	return new(inf.Dec).Set(d.value())
}

// Parts returns the normalized exponent and mantissa of a finite decimal:
// trailing zero digits are moved from the mantissa into the exponent, so
// 1.50 yields (-1, 15) and 0 yields (0, 0). The exponent never exceeds
// math.MaxInt32+1, so Parts of any Decimal decode back to it.
func (d Decimal) Parts() (exponent int64, mantissa *big.Int) {
	v := d.value()
	mantissa = new(big.Int).Set(v.UnscaledBig())
	exponent = -int64(v.Scale())
	if mantissa.Sign() == 0 {
		return 0, mantissa
	}
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	for exponent < maxExponent {
		q.QuoRem(mantissa, ten, r)
		if r.Sign() != 0 {
			break
		}
		mantissa.Set(q)
		exponent++
	}
	return exponent, mantissa
}

// Float64 returns the nearest float64. Special states map to their
// float counterparts.
func (d Decimal) Float64() float64 {
	switch d.form {
	case notANumber:
		return math.NaN()
	case infinite:
		if d.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	f, _ := new(big.Float).SetString(d.value().String())
	if f == nil {
		return 0
	}
	out, _ := f.Float64()
	return out
}

// Equal compares numerically; NaN equals NaN.
func (d Decimal) Equal(o Decimal) bool {
	if d.form != o.form {
		return false
	}
	switch d.form {
	case notANumber:
		return true
	case infinite:
		return d.neg == o.neg
	}
	return d.value().Cmp(o.value()) == 0
}

func (d Decimal) String() string {
	switch d.form {
	case notANumber:
		return "NaN"
	case infinite:
		if d.neg {
			return "-Infinity"
		}
		return "Infinity"
	}
	return d.value().String()
}

func (d Decimal) value() *inf.Dec {
	if d.dec == nil {
		return inf.NewDec(0, 0)
	}
	return d.dec
}
