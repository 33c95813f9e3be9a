package values

import "github.com/shopspring/decimal"

// decimalDivisionScale bounds repeating-decimal division to 34 fractional
// digits (it is both the scale passed to DivRound and the package-wide
// decimal.DivisionPrecision), rounding a trailing 5 away from zero as
// decimal.DivRound does — a decimal128-equivalent fixed rounding context,
// resolving the §9 open question on documenting a chosen rounding mode.
const decimalDivisionScale = 34

func init() {
	decimal.DivisionPrecision = decimalDivisionScale
}
