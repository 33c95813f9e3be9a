package values

import (
	"github.com/joshsim/joshcore/internal/errkind"
)

// numericRank orders the promotion lattice int < decimal < double (§4.C).
// Boolean promotes to int when a numeric context requires it; strings and
// entity-refs never promote silently.
func numericRank(k RootKind) (int, bool) {
	switch k {
	case IntKind:
		return 0, true
	case DecimalKind:
		return 1, true
	case DoubleKind:
		return 2, true
	case BooleanKind:
		return -1, true // ranked below int; promotes up to int on demand
	default:
		return 0, false
	}
}

// coerce chooses a common kind class for a and b (§4.C), generalizing the
// teacher's ToInteger/ToFloat promotion helpers
// (internal/interp/runtime/conversion.go) into the spec's single caster
// entry point. coerce aligns kind class only: it takes no unit-alignment
// flag, performs no unit conversion, and returns each operand with its
// original units. Add/subtract/compare check units separately (sameUnits),
// and converting mismatched units is left to package convert.
func coerce(a, b Value) (Value, Value, error) {
	ak, aok := numericRank(a.scalarKind())
	bk, bok := numericRank(b.scalarKind())

	if !aok || !bok {
		// string/entity operands: both sides must already share a kind.
		if a.scalarKind() != b.scalarKind() {
			return Value{}, Value{}, errkind.Newf(errkind.UnsupportedOp,
				"cannot operate on %s and %s", a.Type(), b.Type())
		}
		return a, b, nil
	}

	target := ak
	if bk > target {
		target = bk
	}
	if target < 0 {
		target = 0 // both boolean; promote both to int for numeric ops
	}

	ca, err := promoteTo(a, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	cb, err := promoteTo(b, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	return ca, cb, nil
}

func promoteTo(v Value, rank int) (Value, error) {
	current, ok := numericRank(v.scalarKind())
	if ok && current == rank {
		return v, nil
	}
	switch rank {
	case 0: // int
		i, err := v.AsInt()
		if err != nil {
			return Value{}, err
		}
		return IntWithUnits(i, v.Units()), nil
	case 1: // decimal
		d, err := v.AsDecimal()
		if err != nil {
			return Value{}, err
		}
		return DecimalWithUnits(d, v.Units()), nil
	case 2: // double
		f, err := v.AsDouble()
		if err != nil {
			return Value{}, err
		}
		return DoubleWithUnits(f, v.Units()), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "unknown promotion target rank %d", rank)
	}
}

// sameUnits is the add/sub/compare unit-compatibility gate (§4.B step 2):
// operands must already match, or the caller must have converted one side
// via package convert before calling arithmetic. No implicit conversion
// happens inside package values itself (keeps the converter's registry the
// single source of truth for what "compatible" means).
func sameUnits(a, b Value) error {
	if !a.Units().Equal(b.Units()) {
		return errkind.Newf(errkind.UnitMismatch, "incompatible units %q and %q", a.Units(), b.Units())
	}
	return nil
}

// CanAlignUnits reports whether a and b already share units, for callers
// deciding whether a conversion step is necessary before calling
// Add/Subtract/compare operators.
func CanAlignUnits(a, b Value) bool {
	return a.Units().Equal(b.Units())
}
