package values

import (
	"math"
	"math/rand"

	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/units"
	"github.com/shopspring/decimal"
)

func mathPow(base, exp float64) float64 { return math.Pow(base, exp) }

// opKind names the operator being dispatched, used only for error messages
// (the actual dispatch is Go method selection, not a switch on this value) —
// grounded in the spec §9 note on replacing "double-dispatch via unsafe pair
// methods" with a single apply(op, a, b) entry point per operation.
type opKind string

const (
	opAdd      opKind = "+"
	opSubtract opKind = "-"
	opMultiply opKind = "*"
	opDivide   opKind = "/"
	opPower    opKind = "^"
)

// Add implements scalar/distribution addition (§4.B). Units must already
// match; package convert is responsible for aligning mismatched units
// before calling Add.
func (v Value) Add(other Value) (Value, error) {
	return dispatchArith(opAdd, v, other, false, addScalar)
}

// Subtract implements scalar/distribution subtraction.
func (v Value) Subtract(other Value) (Value, error) {
	return dispatchArith(opSubtract, v, other, false, subScalar)
}

// Multiply implements scalar/distribution multiplication. Units compose
// arithmetically; no unit coercion is attempted (§4.B step 2).
func (v Value) Multiply(other Value) (Value, error) {
	return dispatchArith(opMultiply, v, other, true, mulScalar)
}

// Divide implements scalar/distribution division. favorBigDecimal selects
// whether int/int division promotes to decimal or to double (§8 scenario 2;
// this is the one operator whose result kind depends on the program's
// caster configuration, §6 Program "value caster configuration").
func (v Value) Divide(other Value, favorBigDecimal bool) (Value, error) {
	fn := func(a, b Value) (Value, error) { return divScalar(a, b, favorBigDecimal) }
	return dispatchArith(opDivide, v, other, true, fn)
}

// Power implements exponentiation. The exponent must be dimensionless, or
// the base dimensionless with a non-integer exponent allowed only then
// (§4.B step 6, §8 scenario 6).
func (v Value) Power(exponent Value) (Value, error) {
	return dispatchArith(opPower, v, exponent, true, powerScalar)
}

// dispatchArith is the single entry point every arithmetic operator routes
// through: it handles the distribution-vs-scalar broadcast rules (I3, P9)
// before delegating to the scalar-level implementation fn.
func dispatchArith(op opKind, a, b Value, unitsCompose bool, fn func(a, b Value) (Value, error)) (Value, error) {
	if !unitsCompose && !a.IsDistribution() && !b.IsDistribution() {
		if err := sameUnits(a, b); err != nil {
			return Value{}, err
		}
	}

	switch {
	case a.IsDistribution() && b.IsDistribution():
		return distDistOp(a, b, fn)
	case a.IsDistribution():
		return distScalarOp(a, b, fn, true)
	case b.IsDistribution():
		return distScalarOp(b, a, fn, false)
	default:
		return fn(a, b)
	}
}

func distDistOp(a, b Value, fn func(a, b Value) (Value, error)) (Value, error) {
	aReal, bReal := a.dist.isRealized(), b.dist.isRealized()
	switch {
	case aReal && bReal:
		return broadcastPair(a, b, fn)
	case !aReal && !bReal:
		// §9 open question, decided: both virtual is unspecified by the
		// source; we raise size-mismatch.
		return Value{}, errkind.New(errkind.SizeMismatch,
			"cannot combine two virtual distributions without a known size; materialize one explicitly first")
	default:
		// One realized, one virtual: the spec calls for materializing the
		// virtual side to the realized side's size, which requires a seeded
		// random source the arithmetic operators do not carry. Callers
		// combining a realized and a virtual distribution must call
		// Materialize explicitly first.
		return Value{}, errkind.New(errkind.SizeMismatch,
			"cannot combine a realized and a virtual distribution directly; call Materialize on the virtual operand first")
	}
}

func distScalarOp(dist, scalarV Value, fn func(a, b Value) (Value, error), distFirst bool) (Value, error) {
	if dist.dist.isRealized() {
		return broadcast(dist, scalarV, fn, distFirst)
	}
	// Virtual distribution vs scalar: lazily wrap the sampler so the result
	// stays virtual, no materialization needed (I3: distribution-vs-scalar
	// operations return a distribution).
	inner := dist.dist
	wrappedSampler := func(rnd *rand.Rand) float64 {
		raw := inner.sampler(rnd)
		elem := sampledScalar(inner.elemKind, raw, inner.elemUnit)
		var result Value
		var err error
		if distFirst {
			result, err = fn(elem, scalarV)
		} else {
			result, err = fn(scalarV, elem)
		}
		if err != nil {
			return raw
		}
		f, _ := result.AsDouble()
		return f
	}

	resultKind, resultUnits, err := wrappedElemDescriptor(inner, scalarV, fn, distFirst)
	if err != nil {
		return Value{}, err
	}
	return NewVirtual(resultKind, resultUnits, wrappedSampler, nil), nil
}

// wrappedElemDescriptor determines the element kind/units a virtual
// distribution will carry once its samples are transformed by fn, by
// probing fn once against a representative zero-valued element. This keeps
// the resulting LangType/Units correct without forcing materialization.
func wrappedElemDescriptor(inner *distribution, scalarV Value, fn func(a, b Value) (Value, error), distFirst bool) (RootKind, *units.Units, error) {
	probe := sampledScalar(inner.elemKind, 0, inner.elemUnit)
	var result Value
	var err error
	if distFirst {
		result, err = fn(probe, scalarV)
	} else {
		result, err = fn(scalarV, probe)
	}
	if err != nil {
		return 0, nil, err
	}
	return result.scalarKind(), result.Units(), nil
}

// --- scalar-level implementations (§4.B step 4) ---------------------------
//
// Each keeps the operand kind class per I1: int×int→int; any decimal
// promotes the result to decimal; presence of double promotes to double.

func addScalar(a, b Value) (Value, error) {
	if a.scalarKind() != StringKind {
		if err := sameUnits(a, b); err != nil {
			return Value{}, err
		}
	}
	ca, cb, err := coerce(a, b)
	if err != nil {
		return Value{}, err
	}
	switch ca.scalarKind() {
	case IntKind:
		return IntWithUnits(ca.sc.i+cb.sc.i, ca.Units()), nil
	case DecimalKind:
		return DecimalWithUnits(ca.sc.dec.Add(cb.sc.dec), ca.Units()), nil
	case DoubleKind:
		return DoubleWithUnits(ca.sc.f+cb.sc.f, ca.Units()), nil
	case StringKind:
		return String(ca.sc.s + cb.sc.s), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "+ is not defined for %s", ca.Type())
	}
}

func subScalar(a, b Value) (Value, error) {
	if err := sameUnits(a, b); err != nil {
		return Value{}, err
	}
	ca, cb, err := coerce(a, b)
	if err != nil {
		return Value{}, err
	}
	switch ca.scalarKind() {
	case IntKind:
		return IntWithUnits(ca.sc.i-cb.sc.i, ca.Units()), nil
	case DecimalKind:
		return DecimalWithUnits(ca.sc.dec.Sub(cb.sc.dec), ca.Units()), nil
	case DoubleKind:
		return DoubleWithUnits(ca.sc.f-cb.sc.f, ca.Units()), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "- is not defined for %s", ca.Type())
	}
}

func mulScalar(a, b Value) (Value, error) {
	ca, cb, err := coerce(a, b)
	if err != nil {
		return Value{}, err
	}
	resultUnits := a.Units().Multiply(b.Units())
	switch ca.scalarKind() {
	case IntKind:
		return IntWithUnits(ca.sc.i*cb.sc.i, resultUnits), nil
	case DecimalKind:
		return DecimalWithUnits(ca.sc.dec.Mul(cb.sc.dec), resultUnits), nil
	case DoubleKind:
		return DoubleWithUnits(ca.sc.f*cb.sc.f, resultUnits), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "* is not defined for %s", ca.Type())
	}
}

func divScalar(a, b Value, favorBigDecimal bool) (Value, error) {
	resultUnits := a.Units().Divide(b.Units())

	// int / int promotes per §4.B step 4 and §8 scenario 2.
	if a.scalarKind() == IntKind && b.scalarKind() == IntKind {
		if b.sc.i == 0 {
			return Value{}, errkind.New(errkind.UnsupportedOp, "division by zero")
		}
		if favorBigDecimal {
			num := decimal.NewFromInt(a.sc.i)
			den := decimal.NewFromInt(b.sc.i)
			return DecimalWithUnits(num.DivRound(den, decimalDivisionScale), resultUnits), nil
		}
		return DoubleWithUnits(float64(a.sc.i)/float64(b.sc.i), resultUnits), nil
	}

	ca, cb, err := coerce(a, b)
	if err != nil {
		return Value{}, err
	}
	switch ca.scalarKind() {
	case DecimalKind:
		if cb.sc.dec.IsZero() {
			return Value{}, errkind.New(errkind.UnsupportedOp, "division by zero")
		}
		return DecimalWithUnits(ca.sc.dec.DivRound(cb.sc.dec, decimalDivisionScale), resultUnits), nil
	case DoubleKind:
		if cb.sc.f == 0 {
			return Value{}, errkind.New(errkind.UnsupportedOp, "division by zero")
		}
		return DoubleWithUnits(ca.sc.f/cb.sc.f, resultUnits), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "/ is not defined for %s", ca.Type())
	}
}

func powerScalar(base, exponent Value) (Value, error) {
	if !exponent.Units().CanBeExponent() {
		return Value{}, errkind.Newf(errkind.BadExponent, "exponent must be dimensionless, got %q", exponent.Units())
	}

	expF, err := exponent.AsDouble()
	if err != nil {
		return Value{}, err
	}
	isIntExponent := expF == float64(int64(expF))

	if !base.Units().IsEmpty() && !isIntExponent {
		return Value{}, errkind.New(errkind.BadExponent, "a non-integer exponent requires a dimensionless base")
	}

	resultUnits := units.Empty()
	if isIntExponent {
		resultUnits = base.Units().RaiseToPower(int(expF))
	}

	switch base.scalarKind() {
	case IntKind:
		if isIntExponent && expF >= 0 {
			result := int64(1)
			b := base.sc.i
			for n := int64(expF); n > 0; n-- {
				result *= b
			}
			return IntWithUnits(result, resultUnits), nil
		}
		baseF := float64(base.sc.i)
		return DoubleWithUnits(mathPow(baseF, expF), resultUnits), nil
	case DecimalKind:
		baseF, _ := base.sc.dec.Float64()
		return DoubleWithUnits(mathPow(baseF, expF), resultUnits), nil
	case DoubleKind:
		return DoubleWithUnits(mathPow(base.sc.f, expF), resultUnits), nil
	default:
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "^ is not defined for %s", base.Type())
	}
}

// --- comparisons (§4.B) ----------------------------------------------------

// Gt, Ge, Lt, Le, Eq, Ne return a boolean value, or an element-wise boolean
// distribution when either operand is a distribution (P9).

func (v Value) Gt(other Value) (Value, error) { return v.compare(other, func(c int) bool { return c > 0 }) }
func (v Value) Ge(other Value) (Value, error) {
	return v.compare(other, func(c int) bool { return c >= 0 })
}
func (v Value) Lt(other Value) (Value, error) { return v.compare(other, func(c int) bool { return c < 0 }) }
func (v Value) Le(other Value) (Value, error) {
	return v.compare(other, func(c int) bool { return c <= 0 })
}
func (v Value) Eq(other Value) (Value, error) {
	return v.compare(other, func(c int) bool { return c == 0 })
}
func (v Value) Ne(other Value) (Value, error) {
	return v.compare(other, func(c int) bool { return c != 0 })
}

func (v Value) compare(other Value, pred func(int) bool) (Value, error) {
	fn := func(a, b Value) (Value, error) {
		c, err := compareScalar(a, b)
		if err != nil {
			return Value{}, err
		}
		return Bool(pred(c)), nil
	}
	return dispatchArith("cmp", v, other, false, fn)
}

func compareScalar(a, b Value) (int, error) {
	if a.scalarKind() != StringKind && a.scalarKind() != BooleanKind {
		if err := sameUnits(a, b); err != nil {
			return 0, err
		}
	}
	ca, cb, err := coerce(a, b)
	if err != nil {
		return 0, err
	}
	switch ca.scalarKind() {
	case IntKind:
		return cmpInt64(ca.sc.i, cb.sc.i), nil
	case DecimalKind:
		return ca.sc.dec.Cmp(cb.sc.dec), nil
	case DoubleKind:
		return cmpFloat64(ca.sc.f, cb.sc.f), nil
	case StringKind:
		return cmpString(ca.sc.s, cb.sc.s), nil
	case BooleanKind:
		return cmpBool(ca.sc.b, cb.sc.b), nil
	default:
		return 0, errkind.Newf(errkind.UnsupportedOp, "cannot order %s", ca.Type())
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

// --- boolean logic (§4.B) --------------------------------------------------

func (v Value) And(other Value) (Value, error) { return v.logic(other, func(a, b bool) bool { return a && b }) }
func (v Value) Or(other Value) (Value, error)  { return v.logic(other, func(a, b bool) bool { return a || b }) }
func (v Value) Xor(other Value) (Value, error) { return v.logic(other, func(a, b bool) bool { return a != b }) }

func (v Value) logic(other Value, fn func(a, b bool) bool) (Value, error) {
	op := func(a, b Value) (Value, error) {
		ab, err := a.AsBoolean()
		if err != nil {
			return Value{}, err
		}
		bb, err := b.AsBoolean()
		if err != nil {
			return Value{}, err
		}
		return Bool(fn(ab, bb)), nil
	}
	return dispatchArith("bool", v, other, false, op)
}
